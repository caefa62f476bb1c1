// Package audio provides the audio container formats produced by the providers,
// WAV serialization of model waveforms and duration probing.
package audio

import (
	"errors"
	"fmt"
	"strings"
)

// Format is the container format tag attached to synthesized audio.
type Format string

const (
	FormatWAV Format = "wav"
	FormatMP3 Format = "mp3"
)

// ErrUnsupportedFormat is returned for container formats the router does not persist.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// ParseFormat normalizes a format tag.
func ParseFormat(value string) (Format, error) {
	format := Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(value), ".")))

	switch format {
	case FormatWAV, FormatMP3:
		return format, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, value)
	}
}

// Extension returns the file extension without a leading dot.
func (f Format) Extension() string {
	return string(f)
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatWAV:
		return "audio/wav"
	case FormatMP3:
		return "audio/mpeg"
	default:
		return "application/octet-stream"
	}
}
