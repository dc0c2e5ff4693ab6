package audio

import (
	"bytes"
	"fmt"
)

// Format identifies the encoding of a captured or loaded audio buffer.
// Values follow the media-type naming of the capture candidates.
type Format string

const (
	FormatWAV     Format = "audio/wav"             // Uncompressed PCM container
	FormatOggOpus Format = "audio/ogg;codecs=opus" // Opus frames in an Ogg container
	FormatWebM    Format = "audio/webm"            // Matroska container (typically Opus)
	FormatMP3     Format = "audio/mpeg"            // MPEG layer III
	FormatFLAC    Format = "audio/flac"            // Free Lossless Audio Codec
	FormatUnknown Format = ""
)

// Magic byte signatures used for container detection
var (
	magicRIFF = []byte{'R', 'I', 'F', 'F'}
	magicWebM = []byte{0x1A, 0x45, 0xDF, 0xA3} // Matroska/EBML
	magicOgg  = []byte{'O', 'g', 'g', 'S'}
	magicFLAC = []byte{'f', 'L', 'a', 'C'}
	magicID3  = []byte{'I', 'D', '3'}
)

// IsPCM reports whether the format is uncompressed PCM and therefore needs
// no re-encoding before upload.
func (f Format) IsPCM() bool {
	return f == FormatWAV
}

// Extension returns the conventional file extension for the format
func (f Format) Extension() string {
	switch f {
	case FormatWAV:
		return ".wav"
	case FormatOggOpus:
		return ".ogg"
	case FormatWebM:
		return ".webm"
	case FormatMP3:
		return ".mp3"
	case FormatFLAC:
		return ".flac"
	default:
		return ".bin"
	}
}

// String returns the media-type tag of the format
func (f Format) String() string {
	if f == FormatUnknown {
		return "unknown"
	}
	return string(f)
}

// ParseFormat maps a media-type string to a known capture format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatWAV, FormatOggOpus, FormatWebM, FormatMP3, FormatFLAC:
		return f, nil
	default:
		return FormatUnknown, fmt.Errorf("unknown audio format %q", s)
	}
}

// DefaultCaptureCandidates returns the fixed capture preference order:
// uncompressed PCM first, then the lossy/container fallbacks in descending
// preference.
func DefaultCaptureCandidates() []Format {
	return []Format{
		FormatWAV,
		FormatOggOpus,
		FormatWebM,
		FormatMP3,
		FormatFLAC,
	}
}

// SelectCaptureFormat returns the first candidate the supported predicate
// accepts. When none is accepted the final candidate is returned: the last
// fallback is always assumed supported, so format selection never fails.
// An empty candidate list falls back to DefaultCaptureCandidates.
func SelectCaptureFormat(candidates []Format, supported func(Format) bool) Format {
	if len(candidates) == 0 {
		candidates = DefaultCaptureCandidates()
	}

	for _, candidate := range candidates {
		if supported != nil && supported(candidate) {
			return candidate
		}
	}

	return candidates[len(candidates)-1]
}

// DetectFormat identifies a buffer's container by its magic bytes. Buffers
// that match no known signature are reported as FormatUnknown.
func DetectFormat(data []byte) Format {
	if len(data) < 4 {
		return FormatUnknown
	}

	switch {
	case bytes.HasPrefix(data, magicRIFF):
		return FormatWAV
	case bytes.HasPrefix(data, magicWebM):
		return FormatWebM
	case bytes.HasPrefix(data, magicOgg):
		return FormatOggOpus
	case bytes.HasPrefix(data, magicFLAC):
		return FormatFLAC
	case bytes.HasPrefix(data, magicID3):
		return FormatMP3
	case data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		// MPEG frame sync without an ID3 tag
		return FormatMP3
	default:
		return FormatUnknown
	}
}
