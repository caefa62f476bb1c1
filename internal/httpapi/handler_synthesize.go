package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/book-expert/tts-router/internal/core"
)

func (h *Handler) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)

	var req core.SynthesisRequest

	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		h.log.Warn("Rejected synthesis request from %s: %v", r.RemoteAddr, err)

		result := core.Failed(core.CodeInvalidRequest, describeDecodeError(err))
		writeJson(w, h.status(result), result)

		return
	}

	result := h.router.Route(r.Context(), req)

	writeJson(w, h.status(result), result)
}

func describeDecodeError(err error) string {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return fmt.Sprintf("Request body exceeds %d bytes", maxBytesErr.Limit)
	}

	return "Request body is not a valid synthesis request: " + err.Error()
}

// status maps a result onto an HTTP status according to the status mode.
func (h *Handler) status(result core.SynthesisResult) int {
	if h.statusMode != StatusModeHTTP || result.Success {
		return http.StatusOK
	}

	switch result.ErrorCode {
	case core.CodeInvalidRequest, core.CodeMissingText, core.CodeTextTooLong,
		core.CodeInvalidProvider, core.CodeMissingCredentials, core.CodeMissingVoiceID:
		return http.StatusBadRequest
	case core.CodeInvalidCredentials:
		return http.StatusUnauthorized
	case core.CodeFileNotFound:
		return http.StatusNotFound
	case core.CodeProviderError:
		return http.StatusBadGateway
	case core.CodeInternalError:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
