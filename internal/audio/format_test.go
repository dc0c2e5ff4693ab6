package audio

import (
	"testing"
)

func TestSelectCaptureFormat(t *testing.T) {
	tests := []struct {
		name      string
		supported map[Format]bool
		expected  Format
	}{
		{
			name:      "PCM preferred when supported",
			supported: map[Format]bool{FormatWAV: true, FormatOggOpus: true},
			expected:  FormatWAV,
		},
		{
			name:      "first supported fallback wins",
			supported: map[Format]bool{FormatWebM: true, FormatMP3: true},
			expected:  FormatWebM,
		},
		{
			name:      "last candidate assumed supported when nothing matches",
			supported: map[Format]bool{},
			expected:  FormatFLAC,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SelectCaptureFormat(DefaultCaptureCandidates(), func(f Format) bool {
				return tt.supported[f]
			})
			if result != tt.expected {
				t.Errorf("Expected format %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestSelectCaptureFormatCustomCandidates(t *testing.T) {
	candidates := []Format{FormatOggOpus, FormatMP3}

	result := SelectCaptureFormat(candidates, func(f Format) bool { return f == FormatMP3 })
	if result != FormatMP3 {
		t.Errorf("Expected %q, got %q", FormatMP3, result)
	}

	// Nothing supported: the final candidate is the assumed default
	result = SelectCaptureFormat(candidates, func(Format) bool { return false })
	if result != FormatMP3 {
		t.Errorf("Expected final candidate %q, got %q", FormatMP3, result)
	}
}

func TestSelectCaptureFormatEmptyCandidates(t *testing.T) {
	result := SelectCaptureFormat(nil, func(f Format) bool { return f == FormatWAV })
	if result != FormatWAV {
		t.Errorf("Expected default candidates to be used, got %q", result)
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected Format
	}{
		{"RIFF container", []byte("RIFF\x00\x00\x00\x00WAVE"), FormatWAV},
		{"WebM signature", []byte{0x1A, 0x45, 0xDF, 0xA3, 0x00}, FormatWebM},
		{"Ogg container", []byte("OggS\x00\x02"), FormatOggOpus},
		{"FLAC marker", []byte("fLaC\x00\x00\x00\x22"), FormatFLAC},
		{"ID3-tagged MP3", []byte("ID3\x04\x00"), FormatMP3},
		{"raw MPEG frame sync", []byte{0xFF, 0xFB, 0x90, 0x00}, FormatMP3},
		{"unknown bytes", []byte{0x00, 0x01, 0x02, 0x03}, FormatUnknown},
		{"too short", []byte{0x52}, FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := DetectFormat(tt.data)
			if result != tt.expected {
				t.Errorf("Expected format %q, got %q", tt.expected, result)
			}
		})
	}
}

func TestFormatExtension(t *testing.T) {
	if ext := FormatWAV.Extension(); ext != ".wav" {
		t.Errorf("Expected .wav, got %s", ext)
	}
	if ext := FormatOggOpus.Extension(); ext != ".ogg" {
		t.Errorf("Expected .ogg, got %s", ext)
	}
	if ext := FormatUnknown.Extension(); ext != ".bin" {
		t.Errorf("Expected .bin, got %s", ext)
	}
}

func TestFormatIsPCM(t *testing.T) {
	if !FormatWAV.IsPCM() {
		t.Error("Expected WAV format to be PCM")
	}

	for _, f := range []Format{FormatOggOpus, FormatWebM, FormatMP3, FormatFLAC, FormatUnknown} {
		if f.IsPCM() {
			t.Errorf("Expected %q to not be PCM", f)
		}
	}
}

func TestParseFormat(t *testing.T) {
	for _, f := range DefaultCaptureCandidates() {
		parsed, err := ParseFormat(string(f))
		if err != nil {
			t.Errorf("ParseFormat(%q) failed: %v", f, err)
		}
		if parsed != f {
			t.Errorf("Expected %q, got %q", f, parsed)
		}
	}

	if _, err := ParseFormat("audio/aac"); err == nil {
		t.Error("Expected error for unsupported MIME type")
	}

	if _, err := ParseFormat(""); err == nil {
		t.Error("Expected error for empty string")
	}
}
