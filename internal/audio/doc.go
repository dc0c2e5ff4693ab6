// Package audio handles PCM sample processing and container encoding.
// It implements stereo-to-mono downmixing, asymmetric 16-bit quantization,
// WAV container encoding and decoding, and capture format selection with
// magic-byte detection of common audio containers.
package audio
