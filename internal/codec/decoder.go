package codec

import (
	"errors"
	"fmt"

	"github.com/Amitkumarracha/Speech-Emotion-Detection-with-NLP-for-Mental-Wellness/internal/audio"
)

// ErrUnsupportedFormat is returned when no decoder exists for a capture format.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Decoder turns a compressed audio buffer into normalized PCM samples.
type Decoder interface {
	// Format reports the container format this decoder accepts.
	Format() audio.Format

	// Decode parses the entire buffer and returns per-channel samples.
	Decode(data []byte) (*audio.SampleBuffer, error)
}

// DecoderFor returns a decoder for the given capture format.
func DecoderFor(format audio.Format) (Decoder, error) {
	switch format {
	case audio.FormatOggOpus:
		return &OpusDecoder{}, nil
	case audio.FormatMP3:
		return &MP3Decoder{}, nil
	case audio.FormatFLAC:
		return &FLACDecoder{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format.String())
	}
}
