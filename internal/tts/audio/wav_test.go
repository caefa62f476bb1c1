// Package audio_test tests WAV serialization and probing.
package audio_test

import (
	"testing"

	"github.com/book-expert/tts-router/internal/tts/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeWAV_RoundTripDuration(t *testing.T) {
	t.Parallel()

	const sampleRate = 24000

	samples := make([]float32, sampleRate/2)
	for index := range samples {
		samples[index] = float32(index%100) / 100
	}

	data, err := audio.EncodeWAV(samples, sampleRate)
	require.NoError(t, err)

	assert.Equal(t, "RIFF", string(data[0:4]))
	assert.Equal(t, "WAVE", string(data[8:12]))

	duration, err := audio.DurationSeconds(data)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, duration, 0.001)
}

func TestEncodeWAV_ClipsOutOfRangeSamples(t *testing.T) {
	t.Parallel()

	data, err := audio.EncodeWAV([]float32{2, -2, 0}, 16000)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestEncodeWAV_RejectsInvalidInput(t *testing.T) {
	t.Parallel()

	_, err := audio.EncodeWAV(nil, 24000)
	require.ErrorIs(t, err, audio.ErrEmptyWaveform)

	_, err = audio.EncodeWAV([]float32{0.1}, 0)
	require.ErrorIs(t, err, audio.ErrInvalidSampleRate)
}

func TestDurationSeconds_RejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := audio.DurationSeconds([]byte("ID3 not a wav file"))
	require.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	format, err := audio.ParseFormat(".MP3")
	require.NoError(t, err)
	assert.Equal(t, audio.FormatMP3, format)
	assert.Equal(t, "audio/mpeg", format.ContentType())

	_, err = audio.ParseFormat("flac")
	require.ErrorIs(t, err, audio.ErrUnsupportedFormat)
}
