package level

import (
	"math"
	"strings"
	"testing"
)

// sine generates amplitude*sin(2*pi*freq*t) at the given rate.
func sine(amplitude, freq float64, sampleRate int, seconds float64) []float64 {
	n := int(float64(sampleRate) * seconds)
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = amplitude * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return samples
}

func TestAnalyzeCategories(t *testing.T) {
	tests := []struct {
		name         string
		amplitude    float64
		freq         float64
		seconds      float64
		wantEnergy   string
		wantVariab   string
		wantDuration string
	}{
		{"loud fast medium-length", 0.1, 2000, 3.0, LevelHigh, LevelHigh, DurationMedium},
		{"quiet slow short", 0.01, 500, 1.0, LevelLow, LevelLow, DurationShort},
		{"moderate long", 0.06, 1000, 6.0, LevelMedium, LevelMedium, DurationLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			samples := sine(tt.amplitude, tt.freq, 44100, tt.seconds)

			analysis, err := Analyze(samples, 44100)
			if err != nil {
				t.Fatalf("Analyze returned error: %v", err)
			}

			if analysis.EnergyLevel != tt.wantEnergy {
				t.Errorf("Expected energy %q, got %q (rms=%f)", tt.wantEnergy, analysis.EnergyLevel, analysis.RMS)
			}

			if analysis.Variability != tt.wantVariab {
				t.Errorf("Expected variability %q, got %q (zcr=%f)", tt.wantVariab, analysis.Variability, analysis.ZeroCrossRate)
			}

			if analysis.DurationCategory != tt.wantDuration {
				t.Errorf("Expected duration category %q, got %q (%fs)", tt.wantDuration, analysis.DurationCategory, analysis.DurationSeconds)
			}
		})
	}
}

func TestAnalyzeSilence(t *testing.T) {
	samples := make([]float64, 44100)

	analysis, err := Analyze(samples, 44100)
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}

	if analysis.RMS != 0 {
		t.Errorf("Expected zero RMS, got %f", analysis.RMS)
	}

	if analysis.SilenceRatio != 1.0 {
		t.Errorf("Expected silence ratio 1.0, got %f", analysis.SilenceRatio)
	}

	if !analysis.Silent() {
		t.Error("Expected silent capture to report Silent()")
	}
}

func TestAnalyzeInt16MatchesFloat(t *testing.T) {
	ints := make([]int16, 44100)
	floats := make([]float64, 44100)
	for i := range ints {
		ints[i] = int16(8000 * (1 - 2*(i%2))) // alternating +-8000
		floats[i] = float64(ints[i]) / 32768.0
	}

	fromInts, err := AnalyzeInt16(ints, 44100)
	if err != nil {
		t.Fatalf("AnalyzeInt16 returned error: %v", err)
	}

	fromFloats, err := Analyze(floats, 44100)
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}

	if fromInts.RMS != fromFloats.RMS || fromInts.ZeroCrossRate != fromFloats.ZeroCrossRate {
		t.Errorf("Expected identical analysis, got %+v vs %+v", fromInts, fromFloats)
	}
}

func TestAnalyzeErrors(t *testing.T) {
	if _, err := Analyze(nil, 44100); err == nil {
		t.Error("Expected error for empty samples")
	}

	if _, err := Analyze([]float64{0.1}, 0); err == nil {
		t.Error("Expected error for zero sample rate")
	}
}

func TestAnalysisDescribe(t *testing.T) {
	samples := sine(0.1, 2000, 44100, 3.0)

	analysis, err := Analyze(samples, 44100)
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}

	desc := analysis.Describe()
	if !strings.Contains(desc, "high energy") {
		t.Errorf("Expected description to mention energy, got %q", desc)
	}

	if !strings.Contains(desc, "medium") {
		t.Errorf("Expected description to mention duration category, got %q", desc)
	}
}

// pcm16 packs constant-amplitude mono samples as little-endian bytes.
func pcm16(value int16, count int) []byte {
	data := make([]byte, count*2)
	for i := 0; i < count; i++ {
		data[i*2] = byte(value)
		data[i*2+1] = byte(value >> 8)
	}
	return data
}

func TestMeterFeed(t *testing.T) {
	meter, err := NewMeter(100, 44100, 1)
	if err != nil {
		t.Fatalf("NewMeter returned error: %v", err)
	}

	levels := meter.Feed(pcm16(8000, 250))
	if len(levels) != 2 {
		t.Fatalf("Expected 2 completed windows, got %d", len(levels))
	}

	for _, level := range levels {
		if !level.Active {
			t.Errorf("Expected window %d to be active (rms=%f)", level.Index, level.RMS)
		}

		want := 8000.0 / 32768.0
		if math.Abs(level.RMS-want) > 1e-9 {
			t.Errorf("Expected RMS %f, got %f", want, level.RMS)
		}
	}

	levels = meter.Feed(pcm16(8000, 50))
	if len(levels) != 1 {
		t.Fatalf("Expected 1 completed window after second feed, got %d", len(levels))
	}

	stats := meter.GetStats()
	if stats.TotalWindows != 3 {
		t.Errorf("Expected 3 total windows, got %d", stats.TotalWindows)
	}

	if stats.ActiveWindows != 3 {
		t.Errorf("Expected 3 active windows, got %d", stats.ActiveWindows)
	}
}

func TestMeterFeedSilence(t *testing.T) {
	meter, err := NewMeter(50, 44100, 1)
	if err != nil {
		t.Fatalf("NewMeter returned error: %v", err)
	}

	levels := meter.Feed(pcm16(0, 100))
	if len(levels) != 2 {
		t.Fatalf("Expected 2 completed windows, got %d", len(levels))
	}

	for _, level := range levels {
		if level.Active {
			t.Errorf("Expected window %d to be inactive", level.Index)
		}
	}

	stats := meter.GetStats()
	if stats.ActiveWindows != 0 {
		t.Errorf("Expected 0 active windows, got %d", stats.ActiveWindows)
	}
}

func TestMeterCarriesPartialFrames(t *testing.T) {
	meter, err := NewMeter(3, 48000, 2)
	if err != nil {
		t.Fatalf("NewMeter returned error: %v", err)
	}

	// Ten bytes hold two stereo frames plus half of a third.
	chunk := pcm16(4000, 5)
	if levels := meter.Feed(chunk); len(levels) != 0 {
		t.Fatalf("Expected no completed windows yet, got %d", len(levels))
	}

	// Two more bytes complete the third frame and the window.
	levels := meter.Feed(pcm16(4000, 1))
	if len(levels) != 1 {
		t.Fatalf("Expected 1 completed window, got %d", len(levels))
	}
}

func TestMeterReset(t *testing.T) {
	meter, err := NewMeter(10, 44100, 1)
	if err != nil {
		t.Fatalf("NewMeter returned error: %v", err)
	}

	meter.Feed(pcm16(8000, 25))
	meter.Reset()

	stats := meter.GetStats()
	if stats.TotalWindows != 0 || stats.MaxPeak != 0 {
		t.Errorf("Expected cleared stats after reset, got %+v", stats)
	}
}

func TestNewMeterValidation(t *testing.T) {
	tests := []struct {
		name       string
		windowSize int
		sampleRate int
		channels   int
	}{
		{"zero window", 0, 44100, 1},
		{"zero rate", 100, 0, 1},
		{"zero channels", 100, 44100, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewMeter(tt.windowSize, tt.sampleRate, tt.channels); err == nil {
				t.Error("Expected error but got nil")
			}
		})
	}
}
