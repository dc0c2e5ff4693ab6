package audio

import (
	"fmt"
)

// SampleBuffer holds decoded floating-point audio, one slice per channel,
// with the source sample rate attached. Sample values are normalized to
// [-1, 1]. It is a transient representation that exists only between
// decoding and quantization.
type SampleBuffer struct {
	Channels   [][]float64
	SampleRate int
}

// NumChannels returns the channel count of the buffer
func (b *SampleBuffer) NumChannels() int {
	return len(b.Channels)
}

// NumFrames returns the number of samples per channel
func (b *SampleBuffer) NumFrames() int {
	if len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

// DownmixToMono collapses per-channel samples into a single channel.
// Mono input is returned unchanged; stereo is averaged sample-by-sample.
// Higher channel counts are rejected rather than mixed with a guessed policy.
func DownmixToMono(channels [][]float64) ([]float64, error) {
	switch len(channels) {
	case 0:
		return nil, fmt.Errorf("no audio channels to downmix")

	case 1:
		return channels[0], nil

	case 2:
		left, right := channels[0], channels[1]
		if len(left) != len(right) {
			return nil, fmt.Errorf("channel length mismatch: left has %d samples, right has %d", len(left), len(right))
		}

		mono := make([]float64, len(left))
		for i := range left {
			mono[i] = (left[i] + right[i]) / 2
		}
		return mono, nil

	default:
		return nil, fmt.Errorf("unsupported channel count: %d (only mono and stereo are supported)", len(channels))
	}
}

// Quantize converts normalized float samples to signed 16-bit integers.
// Each sample is clamped to [-1, 1] and scaled asymmetrically to match the
// int16 range: non-negative values by 32767, negative values by 32768.
// The scaled value is truncated toward zero, not rounded.
func Quantize(samples []float64) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}

		if s < 0 {
			out[i] = int16(s * 32768)
		} else {
			out[i] = int16(s * 32767)
		}
	}
	return out
}

// DecodePCM16 reinterprets little-endian 16-bit PCM bytes as samples.
// A trailing odd byte is dropped.
func DecodePCM16(data []byte) []int16 {
	numSamples := len(data) / 2
	samples := make([]int16, numSamples)
	for i := 0; i < numSamples; i++ {
		samples[i] = int16(data[i*2]) | int16(data[i*2+1])<<8
	}
	return samples
}

// EncodePCM16 serializes samples as little-endian 16-bit PCM bytes.
func EncodePCM16(samples []int16) []byte {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		data[i*2] = byte(s)
		data[i*2+1] = byte(uint16(s) >> 8)
	}
	return data
}

// SamplesFromInt16 converts interleaved int16 samples into a normalized
// per-channel float buffer. A trailing partial frame is dropped.
func SamplesFromInt16(samples []int16, channels, sampleRate int) (*SampleBuffer, error) {
	if channels < 1 {
		return nil, fmt.Errorf("channel count must be positive, got %d", channels)
	}

	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}

	numFrames := len(samples) / channels

	buf := &SampleBuffer{
		Channels:   make([][]float64, channels),
		SampleRate: sampleRate,
	}
	for ch := 0; ch < channels; ch++ {
		buf.Channels[ch] = make([]float64, numFrames)
	}

	for frame := 0; frame < numFrames; frame++ {
		for ch := 0; ch < channels; ch++ {
			buf.Channels[ch][frame] = float64(samples[frame*channels+ch]) / 32768.0
		}
	}

	return buf, nil
}

// SamplesFromPCM16 converts interleaved little-endian 16-bit PCM bytes into
// a normalized per-channel float buffer. A trailing partial frame is dropped.
func SamplesFromPCM16(data []byte, channels, sampleRate int) (*SampleBuffer, error) {
	return SamplesFromInt16(DecodePCM16(data), channels, sampleRate)
}
