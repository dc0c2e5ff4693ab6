// Package codec decodes compressed capture formats (Ogg Opus, MP3, FLAC)
// and re-encodes them as mono 16-bit PCM WAV for upload. Buffers that
// cannot be decoded pass through unchanged so the backend still receives
// the original capture.
package codec
