package codec

import (
	"log/slog"

	"github.com/Amitkumarracha/Speech-Emotion-Detection-with-NLP-for-Mental-Wellness/internal/audio"
)

// Reencode normalizes a finished capture for upload. Buffers that already
// hold PCM WAV data pass through untouched. Compressed buffers are decoded,
// downmixed to mono and re-encoded as 16-bit WAV. Any failure along the way
// falls back to the original bytes so a recording is never lost to a codec
// problem; the returned flag reports whether a re-encode happened.
func Reencode(data []byte, format audio.Format, logger *slog.Logger) ([]byte, bool) {
	if logger == nil {
		logger = slog.Default()
	}

	if format.IsPCM() || audio.IsPCMContainer(data) {
		return data, false
	}

	decoder, err := DecoderFor(format)
	if err != nil {
		logger.Warn("no decoder for capture format, uploading original audio",
			slog.String("format", format.String()),
			slog.Int("bytes", len(data)))
		return data, false
	}

	decoded, err := decoder.Decode(data)
	if err != nil {
		logger.Warn("audio decode failed, uploading original audio",
			slog.String("format", format.String()),
			slog.Int("bytes", len(data)),
			slog.String("error", err.Error()))
		return data, false
	}

	mono, err := audio.DownmixToMono(decoded.Channels)
	if err != nil {
		logger.Warn("downmix failed, uploading original audio",
			slog.String("format", format.String()),
			slog.Int("channels", decoded.NumChannels()),
			slog.String("error", err.Error()))
		return data, false
	}

	encoded, err := audio.EncodeWAV(audio.Quantize(mono), decoded.SampleRate, 1)
	if err != nil {
		logger.Warn("wav encode failed, uploading original audio",
			slog.String("format", format.String()),
			slog.String("error", err.Error()))
		return data, false
	}

	logger.Debug("re-encoded capture to pcm wav",
		slog.String("source_format", format.String()),
		slog.Int("source_bytes", len(data)),
		slog.Int("output_bytes", len(encoded)),
		slog.Int("sample_rate", decoded.SampleRate))
	return encoded, true
}
