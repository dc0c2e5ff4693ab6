package audio

import (
	"math"
	"testing"
)

func TestDownmixToMonoPassthrough(t *testing.T) {
	mono := []float64{0.1, -0.2, 0.3}

	result, err := DownmixToMono([][]float64{mono})
	if err != nil {
		t.Fatalf("DownmixToMono failed: %v", err)
	}

	if len(result) != len(mono) {
		t.Fatalf("Expected %d samples, got %d", len(mono), len(result))
	}

	for i, v := range mono {
		if result[i] != v {
			t.Errorf("Sample %d: expected %f, got %f", i, v, result[i])
		}
	}
}

func TestDownmixToMonoStereo(t *testing.T) {
	tests := []struct {
		name  string
		left  []float64
		right []float64
	}{
		{
			name:  "opposite channels cancel",
			left:  []float64{1.0, -1.0, 0.5},
			right: []float64{-1.0, 1.0, -0.5},
		},
		{
			name:  "identical channels pass through",
			left:  []float64{0.25, 0.5, -0.75},
			right: []float64{0.25, 0.5, -0.75},
		},
		{
			name:  "mixed amplitudes",
			left:  []float64{0.2, 0.4, -0.8, 0.0},
			right: []float64{0.6, -0.4, 0.2, 1.0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := DownmixToMono([][]float64{tt.left, tt.right})
			if err != nil {
				t.Fatalf("DownmixToMono failed: %v", err)
			}

			if len(result) != len(tt.left) {
				t.Fatalf("Expected %d samples, got %d", len(tt.left), len(result))
			}

			// Every output sample must equal the average of the two inputs
			for i := range result {
				expected := (tt.left[i] + tt.right[i]) / 2
				if math.Abs(result[i]-expected) > 1e-12 {
					t.Errorf("Sample %d: expected %f, got %f", i, expected, result[i])
				}
			}
		})
	}
}

func TestDownmixToMonoErrors(t *testing.T) {
	// No channels
	if _, err := DownmixToMono(nil); err == nil {
		t.Error("Expected error for empty channel set")
	}

	// Mismatched stereo lengths
	_, err := DownmixToMono([][]float64{{0.1, 0.2}, {0.1}})
	if err == nil {
		t.Error("Expected error for mismatched channel lengths")
	}

	// More than two channels is an explicit unsupported input
	threeChannels := [][]float64{{0.1}, {0.2}, {0.3}}
	_, err = DownmixToMono(threeChannels)
	if err == nil {
		t.Error("Expected error for three channels")
	}
}

func TestQuantizeBounds(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected int16
	}{
		{"full positive", 1.0, 32767},
		{"full negative", -1.0, -32768},
		{"zero", 0.0, 0},
		{"half positive", 0.5, 16383},   // 0.5*32767 = 16383.5, truncated
		{"half negative", -0.5, -16384}, // -0.5*32768 = -16384
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Quantize([]float64{tt.input})
			if result[0] != tt.expected {
				t.Errorf("Quantize(%f): expected %d, got %d", tt.input, tt.expected, result[0])
			}
		})
	}
}

func TestQuantizeClamps(t *testing.T) {
	// Out-of-range inputs must clamp before scaling
	overRange := Quantize([]float64{1.5})
	atMax := Quantize([]float64{1.0})
	if overRange[0] != atMax[0] {
		t.Errorf("Expected 1.5 to quantize like 1.0 (%d), got %d", atMax[0], overRange[0])
	}

	underRange := Quantize([]float64{-2.0})
	atMin := Quantize([]float64{-1.0})
	if underRange[0] != atMin[0] {
		t.Errorf("Expected -2.0 to quantize like -1.0 (%d), got %d", atMin[0], underRange[0])
	}
}

func TestQuantizeLength(t *testing.T) {
	input := make([]float64, 1000)
	for i := range input {
		input[i] = math.Sin(float64(i) / 100)
	}

	result := Quantize(input)
	if len(result) != len(input) {
		t.Errorf("Expected %d samples, got %d", len(input), len(result))
	}
}

func TestDecodePCM16(t *testing.T) {
	// 0x0100 = 256, 0xFF7F = 32767, 0x0080 = -32768
	data := []byte{0x00, 0x01, 0xFF, 0x7F, 0x00, 0x80}
	samples := DecodePCM16(data)

	expected := []int16{256, 32767, -32768}
	if len(samples) != len(expected) {
		t.Fatalf("Expected %d samples, got %d", len(expected), len(samples))
	}

	for i, want := range expected {
		if samples[i] != want {
			t.Errorf("Sample %d: expected %d, got %d", i, want, samples[i])
		}
	}

	// Trailing odd byte is dropped
	odd := DecodePCM16([]byte{0x01, 0x02, 0x03})
	if len(odd) != 1 {
		t.Errorf("Expected 1 sample from 3 bytes, got %d", len(odd))
	}
}

func TestEncodePCM16(t *testing.T) {
	data := EncodePCM16([]int16{256, 32767, -32768})

	expected := []byte{0x00, 0x01, 0xFF, 0x7F, 0x00, 0x80}
	if len(data) != len(expected) {
		t.Fatalf("Expected %d bytes, got %d", len(expected), len(data))
	}

	for i, want := range expected {
		if data[i] != want {
			t.Errorf("Byte %d: expected 0x%02X, got 0x%02X", i, want, data[i])
		}
	}

	samples := DecodePCM16(data)
	for i, s := range []int16{256, 32767, -32768} {
		if samples[i] != s {
			t.Errorf("Round trip sample %d: expected %d, got %d", i, s, samples[i])
		}
	}
}

func TestSamplesFromPCM16(t *testing.T) {
	// Two interleaved stereo frames
	data := []byte{
		0x00, 0x40, 0x00, 0xC0, // frame 0: left 16384, right -16384
		0xFF, 0x7F, 0x00, 0x00, // frame 1: left 32767, right 0
	}

	buf, err := SamplesFromPCM16(data, 2, 48000)
	if err != nil {
		t.Fatalf("SamplesFromPCM16 failed: %v", err)
	}

	if buf.NumChannels() != 2 {
		t.Fatalf("Expected 2 channels, got %d", buf.NumChannels())
	}

	if buf.NumFrames() != 2 {
		t.Fatalf("Expected 2 frames, got %d", buf.NumFrames())
	}

	if buf.SampleRate != 48000 {
		t.Errorf("Expected sample rate 48000, got %d", buf.SampleRate)
	}

	if math.Abs(buf.Channels[0][0]-0.5) > 1e-9 {
		t.Errorf("Expected left[0] 0.5, got %f", buf.Channels[0][0])
	}

	if math.Abs(buf.Channels[1][0]+0.5) > 1e-9 {
		t.Errorf("Expected right[0] -0.5, got %f", buf.Channels[1][0])
	}

	if _, err := SamplesFromPCM16(data, 0, 48000); err == nil {
		t.Error("Expected error for zero channels")
	}

	if _, err := SamplesFromPCM16(data, 2, 0); err == nil {
		t.Error("Expected error for zero sample rate")
	}
}
