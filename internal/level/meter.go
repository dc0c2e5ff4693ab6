package level

import (
	"fmt"
	"math"
	"sync"
)

// Category thresholds for finished captures. Energy compares whole-signal
// RMS, variability compares the zero-cross rate, duration is in seconds.
const (
	highEnergyRMS      = 0.05
	lowEnergyRMS       = 0.03
	highVariabilityZCR = 0.06
	lowVariabilityZCR  = 0.03
	shortDurationSec   = 2.0
	longDurationSec    = 5.0

	// Samples below this amplitude count toward the silence ratio.
	silenceFloor = 0.01

	// Captures whose silence ratio exceeds this are treated as empty air.
	nearSilentRatio = 0.95
)

// Categorical descriptor values.
const (
	LevelHigh   = "high"
	LevelMedium = "medium"
	LevelLow    = "low"

	DurationShort  = "short"
	DurationMedium = "medium"
	DurationLong   = "long"
)

// Analysis summarizes the signal characteristics of a finished capture.
type Analysis struct {
	RMS              float64 `json:"rms"`
	Peak             float64 `json:"peak"`
	ZeroCrossRate    float64 `json:"zero_cross_rate"`
	SilenceRatio     float64 `json:"silence_ratio"`
	DurationSeconds  float64 `json:"duration_seconds"`
	EnergyLevel      string  `json:"energy_level"`
	Variability      string  `json:"variability"`
	DurationCategory string  `json:"duration_category"`
}

// Analyze computes signal characteristics over normalized mono samples.
func Analyze(samples []float64, sampleRate int) (*Analysis, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("no samples to analyze")
	}

	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}

	a := &Analysis{
		RMS:             rms(samples),
		Peak:            peakAmplitude(samples),
		ZeroCrossRate:   zeroCrossRate(samples),
		SilenceRatio:    silenceRatio(samples),
		DurationSeconds: float64(len(samples)) / float64(sampleRate),
	}

	switch {
	case a.RMS > highEnergyRMS:
		a.EnergyLevel = LevelHigh
	case a.RMS < lowEnergyRMS:
		a.EnergyLevel = LevelLow
	default:
		a.EnergyLevel = LevelMedium
	}

	switch {
	case a.ZeroCrossRate > highVariabilityZCR:
		a.Variability = LevelHigh
	case a.ZeroCrossRate < lowVariabilityZCR:
		a.Variability = LevelLow
	default:
		a.Variability = LevelMedium
	}

	switch {
	case a.DurationSeconds < shortDurationSec:
		a.DurationCategory = DurationShort
	case a.DurationSeconds > longDurationSec:
		a.DurationCategory = DurationLong
	default:
		a.DurationCategory = DurationMedium
	}

	return a, nil
}

// AnalyzeInt16 runs Analyze over 16-bit PCM samples.
func AnalyzeInt16(samples []int16, sampleRate int) (*Analysis, error) {
	normalized := make([]float64, len(samples))
	for i, s := range samples {
		normalized[i] = float64(s) / 32768.0
	}
	return Analyze(normalized, sampleRate)
}

// Describe renders the analysis as a short context string for the chat
// backend and diagnostic logs.
func (a *Analysis) Describe() string {
	return fmt.Sprintf("%s energy, %s variability, %.1fs (%s)",
		a.EnergyLevel, a.Variability, a.DurationSeconds, a.DurationCategory)
}

// Silent reports whether the capture is effectively empty air.
func (a *Analysis) Silent() bool {
	return a.SilenceRatio > nearSilentRatio
}

// WindowLevel is the measured level of one metering window.
type WindowLevel struct {
	Index  uint64  `json:"index"`
	RMS    float64 `json:"rms"`
	Peak   float64 `json:"peak"`
	Active bool    `json:"active"`
}

// MeterStats represents live meter statistics.
type MeterStats struct {
	TotalWindows     uint64  `json:"total_windows"`
	ActiveWindows    uint64  `json:"active_windows"`
	ActivePercentage float64 `json:"active_percentage"`
	MaxPeak          float64 `json:"max_peak"`
	WindowSize       int     `json:"window_size"`
}

// Meter computes input levels over fixed-size windows while a capture is
// in progress. Interleaved multi-channel input is mixed down on the fly.
type Meter struct {
	windowSize int
	sampleRate int
	channels   int

	pending []byte
	window  []float64

	totalWindows  uint64
	activeWindows uint64
	maxPeak       float64

	mu sync.Mutex
}

// NewMeter creates a meter producing one level per windowSize frames.
func NewMeter(windowSize, sampleRate, channels int) (*Meter, error) {
	if windowSize <= 0 {
		return nil, fmt.Errorf("window size must be positive, got %d", windowSize)
	}

	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}

	if channels < 1 {
		return nil, fmt.Errorf("channel count must be positive, got %d", channels)
	}

	return &Meter{
		windowSize: windowSize,
		sampleRate: sampleRate,
		channels:   channels,
		window:     make([]float64, 0, windowSize),
	}, nil
}

// Feed consumes a chunk of interleaved 16-bit little-endian PCM and
// returns the levels of any windows completed by it. Partial frames are
// carried over to the next call.
func (m *Meter) Feed(chunk []byte) []WindowLevel {
	m.mu.Lock()
	defer m.mu.Unlock()

	data := chunk
	if len(m.pending) > 0 {
		data = append(m.pending, chunk...)
	}

	frameSize := 2 * m.channels
	usable := len(data) / frameSize * frameSize

	var levels []WindowLevel
	for i := 0; i < usable; i += frameSize {
		var sum float64
		for ch := 0; ch < m.channels; ch++ {
			sample := int16(data[i+ch*2]) | int16(data[i+ch*2+1])<<8
			sum += float64(sample) / 32768.0
		}
		m.window = append(m.window, sum/float64(m.channels))

		if len(m.window) == m.windowSize {
			levels = append(levels, m.sealWindowLocked())
		}
	}

	if usable < len(data) {
		m.pending = append([]byte(nil), data[usable:]...)
	} else {
		m.pending = nil
	}

	return levels
}

func (m *Meter) sealWindowLocked() WindowLevel {
	level := WindowLevel{
		Index: m.totalWindows,
		RMS:   rms(m.window),
		Peak:  peakAmplitude(m.window),
	}
	level.Active = level.RMS >= silenceFloor

	m.totalWindows++
	if level.Active {
		m.activeWindows++
	}
	if level.Peak > m.maxPeak {
		m.maxPeak = level.Peak
	}

	m.window = m.window[:0]
	return level
}

// GetStats returns current meter statistics.
func (m *Meter) GetStats() MeterStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	activePercentage := float64(0)
	if m.totalWindows > 0 {
		activePercentage = float64(m.activeWindows) / float64(m.totalWindows) * 100
	}

	return MeterStats{
		TotalWindows:     m.totalWindows,
		ActiveWindows:    m.activeWindows,
		ActivePercentage: activePercentage,
		MaxPeak:          m.maxPeak,
		WindowSize:       m.windowSize,
	}
}

// Reset clears accumulated state between recording sessions.
func (m *Meter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pending = nil
	m.window = m.window[:0]
	m.totalWindows = 0
	m.activeWindows = 0
	m.maxPeak = 0
}

func rms(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}

	var sum float64
	for _, s := range samples {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(samples)))
}

func peakAmplitude(samples []float64) float64 {
	var peak float64
	for _, s := range samples {
		if a := math.Abs(s); a > peak {
			peak = a
		}
	}
	return peak
}

func zeroCrossRate(samples []float64) float64 {
	if len(samples) < 2 {
		return 0
	}

	crossings := 0
	for i := 1; i < len(samples); i++ {
		if (samples[i-1] >= 0) != (samples[i] >= 0) {
			crossings++
		}
	}
	return float64(crossings) / float64(len(samples)-1)
}

func silenceRatio(samples []float64) float64 {
	if len(samples) == 0 {
		return 0
	}

	silent := 0
	for _, s := range samples {
		if math.Abs(s) < silenceFloor {
			silent++
		}
	}
	return float64(silent) / float64(len(samples))
}
