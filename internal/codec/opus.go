package codec

import (
	"bytes"
	"fmt"
	"io"

	"gopkg.in/hraban/opus.v2"

	"github.com/Amitkumarracha/Speech-Emotion-Detection-with-NLP-for-Mental-Wellness/internal/audio"
)

// Opus always decodes at 48 kHz regardless of the source rate, and the
// longest frame the codec permits is 120 ms (5760 samples per channel).
const (
	opusSampleRate   = 48000
	maxOpusFrameSize = 5760
)

// OpusDecoder decodes Opus audio encapsulated in an Ogg container.
type OpusDecoder struct{}

// Format reports the container format this decoder accepts.
func (d *OpusDecoder) Format() audio.Format { return audio.FormatOggOpus }

// Decode runs the buffer through libopusfile and returns per-channel
// samples at 48 kHz. The stream API needs the channel layout up front,
// so that is read from the OpusHead identification header first.
func (d *OpusDecoder) Decode(data []byte) (*audio.SampleBuffer, error) {
	channels, err := opusHeadChannels(data)
	if err != nil {
		return nil, err
	}
	if channels < 1 || channels > 2 {
		return nil, fmt.Errorf("unsupported opus channel count: %d", channels)
	}

	stream, err := opus.NewStream(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open opus stream: %w", err)
	}
	defer stream.Close()

	pcm := make([]int16, maxOpusFrameSize*channels)
	var interleaved []int16
	for {
		n, err := stream.Read(pcm)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode opus stream: %w", err)
		}
		interleaved = append(interleaved, pcm[:n*channels]...)
	}
	if len(interleaved) == 0 {
		return nil, fmt.Errorf("ogg stream contains no audio")
	}

	return audio.SamplesFromInt16(interleaved, channels, opusSampleRate)
}

// opusHeadChannels reads the channel count out of the OpusHead
// identification header, which an Ogg Opus stream carries as the sole
// packet of its first page.
func opusHeadChannels(data []byte) (int, error) {
	if len(data) < 27 || !bytes.HasPrefix(data, []byte("OggS")) {
		return 0, fmt.Errorf("not an ogg stream")
	}
	numSegments := int(data[26])
	headerSize := 27 + numSegments
	if len(data) < headerSize {
		return 0, fmt.Errorf("truncated ogg page header")
	}
	head := data[headerSize:]
	if len(head) < 19 || !bytes.HasPrefix(head, []byte("OpusHead")) {
		return 0, fmt.Errorf("first packet is not an OpusHead header")
	}
	if head[8] != 1 {
		return 0, fmt.Errorf("unsupported OpusHead version %d", head[8])
	}
	return int(head[9]), nil
}
