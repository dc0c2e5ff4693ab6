package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/mewkiz/flac"

	"github.com/Amitkumarracha/Speech-Emotion-Detection-with-NLP-for-Mental-Wellness/internal/audio"
)

// FLACDecoder decodes FLAC audio.
type FLACDecoder struct{}

// Format reports the container format this decoder accepts.
func (d *FLACDecoder) Format() audio.Format { return audio.FormatFLAC }

// Decode parses the entire FLAC stream and returns per-channel samples
// normalized to [-1, 1] regardless of the source bit depth.
func (d *FLACDecoder) Decode(data []byte) (*audio.SampleBuffer, error) {
	stream, err := flac.New(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open flac stream: %w", err)
	}
	defer stream.Close()

	channels := int(stream.Info.NChannels)
	if channels < 1 {
		return nil, fmt.Errorf("flac stream reports %d channels", channels)
	}
	scale := float64(int64(1) << (stream.Info.BitsPerSample - 1))

	buf := &audio.SampleBuffer{
		Channels:   make([][]float64, channels),
		SampleRate: int(stream.Info.SampleRate),
	}

	for {
		frame, err := stream.ParseNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse flac frame: %w", err)
		}
		if len(frame.Subframes) != channels {
			return nil, fmt.Errorf("flac frame has %d subframes, expected %d", len(frame.Subframes), channels)
		}
		for ch, subframe := range frame.Subframes {
			for _, sample := range subframe.Samples {
				buf.Channels[ch] = append(buf.Channels[ch], float64(sample)/scale)
			}
		}
	}

	if buf.NumFrames() == 0 {
		return nil, fmt.Errorf("flac stream contains no audio")
	}
	return buf, nil
}
