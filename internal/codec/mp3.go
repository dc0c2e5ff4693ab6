package codec

import (
	"bytes"
	"fmt"
	"io"

	mp3 "github.com/hajimehoshi/go-mp3"

	"github.com/Amitkumarracha/Speech-Emotion-Detection-with-NLP-for-Mental-Wellness/internal/audio"
)

// MP3Decoder decodes MPEG layer 3 audio.
type MP3Decoder struct{}

// Format reports the container format this decoder accepts.
func (d *MP3Decoder) Format() audio.Format { return audio.FormatMP3 }

// Decode parses the entire MP3 buffer and returns per-channel samples.
func (d *MP3Decoder) Decode(data []byte) (*audio.SampleBuffer, error) {
	decoder, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open mp3 stream: %w", err)
	}

	// go-mp3 always produces 16-bit little-endian stereo output.
	pcm, err := io.ReadAll(decoder)
	if err != nil {
		return nil, fmt.Errorf("failed to decode mp3 stream: %w", err)
	}
	if len(pcm) == 0 {
		return nil, fmt.Errorf("mp3 stream contains no audio")
	}

	return audio.SamplesFromPCM16(pcm, 2, decoder.SampleRate())
}
