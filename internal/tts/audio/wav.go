package audio

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAV output parameters.
const (
	WAVBitDepth    = 16
	WAVChannels    = 1
	pcmAudioFormat = 1
	maxSampleRate  = 192000
	maxInt16       = math.MaxInt16
)

// Error messages.
const (
	errFmtSampleRateRange = "%w: sample rate must be between 1 and %d Hz, got %d"
)

// Static errors.
var (
	ErrInvalidSampleRate = errors.New("invalid sample rate")
	ErrEmptyWaveform     = errors.New("waveform contains no samples")
	ErrInvalidWAV        = errors.New("invalid wav data")
)

// EncodeWAV serializes a mono float waveform in [-1, 1] to a 16-bit PCM WAV
// container at the given sample rate. Out-of-range samples are clipped.
func EncodeWAV(samples []float32, sampleRate int) ([]byte, error) {
	if len(samples) == 0 {
		return nil, ErrEmptyWaveform
	}

	if sampleRate <= 0 || sampleRate > maxSampleRate {
		return nil, fmt.Errorf(errFmtSampleRateRange, ErrInvalidSampleRate, maxSampleRate, sampleRate)
	}

	// The encoder needs to seek back and patch chunk sizes, so it writes to a temp file.
	tempFile, err := os.CreateTemp("", "tts-waveform-*.wav")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file for wav encoding: %w", err)
	}

	defer func() {
		_ = os.Remove(tempFile.Name())
	}()

	encoder := wav.NewEncoder(tempFile, sampleRate, WAVBitDepth, WAVChannels, pcmAudioFormat)

	buffer := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: WAVChannels,
			SampleRate:  sampleRate,
		},
		Data:           toPCM16(samples),
		SourceBitDepth: WAVBitDepth,
	}

	writeErr := encoder.Write(buffer)
	if writeErr != nil {
		_ = tempFile.Close()

		return nil, fmt.Errorf("failed to encode wav samples: %w", writeErr)
	}

	encodeErr := encoder.Close()
	closeErr := tempFile.Close()

	if encodeErr != nil {
		return nil, fmt.Errorf("failed to finalize wav container: %w", encodeErr)
	}

	if closeErr != nil {
		return nil, fmt.Errorf("failed to close wav temp file: %w", closeErr)
	}

	data, err := os.ReadFile(tempFile.Name())
	if err != nil {
		return nil, fmt.Errorf("failed to read encoded wav: %w", err)
	}

	return data, nil
}

// DurationSeconds probes a WAV container and returns the playback length.
func DurationSeconds(data []byte) (float64, error) {
	decoder := wav.NewDecoder(bytes.NewReader(data))

	err := decoder.FwdToPCM()
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidWAV, err)
	}

	bytesPerSecond := int64(decoder.SampleRate) * int64(decoder.NumChans) * int64(decoder.BitDepth/8)
	if bytesPerSecond <= 0 {
		return 0, fmt.Errorf("%w: missing format chunk", ErrInvalidWAV)
	}

	return float64(decoder.PCMLen()) / float64(bytesPerSecond), nil
}

func toPCM16(samples []float32) []int {
	pcm := make([]int, len(samples))

	for index, sample := range samples {
		clipped := math.Max(-1, math.Min(1, float64(sample)))
		pcm[index] = int(math.Round(clipped * maxInt16))
	}

	return pcm
}
