package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Amitkumarracha/Speech-Emotion-Detection-with-NLP-for-Mental-Wellness/internal/audio"
)

// Config represents the complete client configuration
type Config struct {
	Backend     BackendConfig     `yaml:"backend"`
	Audio       AudioConfig       `yaml:"audio"`
	Capture     CaptureConfig     `yaml:"capture"`
	Playback    PlaybackConfig    `yaml:"playback"`
	Diagnostics DiagnosticsConfig `yaml:"diagnostics"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// BackendConfig contains inference backend connection settings
type BackendConfig struct {
	BaseURL       string `yaml:"base_url"`
	APIKey        string `yaml:"api_key"` // optional bearer token
	Timeout       int    `yaml:"timeout"` // seconds
	MaxRetries    int    `yaml:"max_retries"`
	MaxConcurrent int    `yaml:"max_concurrent"`

	// PreserveDir receives recordings whose upload failed; empty disables
	// preservation
	PreserveDir string `yaml:"preserve_dir"`
}

// AudioConfig contains capture signal parameters
type AudioConfig struct {
	SampleRate int `yaml:"sample_rate"`
	Channels   int `yaml:"channels"`
	BitDepth   int `yaml:"bit_depth"`
}

// CaptureConfig contains capture format and metering settings
type CaptureConfig struct {
	// Formats is the capture format preference order, most preferred
	// first; empty uses the built-in default order
	Formats []string `yaml:"formats"`

	MeterWindowMS int `yaml:"meter_window_ms"`
}

// PlaybackConfig contains recording preview settings
type PlaybackConfig struct {
	Enabled  bool `yaml:"enabled"`
	BufferMS int  `yaml:"buffer_ms"`
}

// DiagnosticsConfig contains the local diagnostics HTTP server settings
type DiagnosticsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			BaseURL:       "http://localhost:8000",
			Timeout:       60,
			MaxRetries:    3,
			MaxConcurrent: 2,
			PreserveDir:   "recordings",
		},
		Audio: AudioConfig{
			SampleRate: 44100,
			Channels:   1,
			BitDepth:   16,
		},
		Capture: CaptureConfig{
			Formats: []string{
				"audio/wav",
				"audio/ogg;codecs=opus",
				"audio/webm",
				"audio/mpeg",
				"audio/flac",
			},
			MeterWindowMS: 100,
		},
		Playback: PlaybackConfig{
			Enabled:  false,
			BufferMS: 50,
		},
		Diagnostics: DiagnosticsConfig{
			Enabled: true,
			Address: "127.0.0.1",
			Port:    8090,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// Validate performs comprehensive validation of the configuration
func (c *Config) Validate() error {
	if err := c.Backend.Validate(); err != nil {
		return fmt.Errorf("backend config: %w", err)
	}

	if err := c.Audio.Validate(); err != nil {
		return fmt.Errorf("audio config: %w", err)
	}

	if err := c.Capture.Validate(); err != nil {
		return fmt.Errorf("capture config: %w", err)
	}

	if err := c.Playback.Validate(); err != nil {
		return fmt.Errorf("playback config: %w", err)
	}

	if err := c.Diagnostics.Validate(); err != nil {
		return fmt.Errorf("diagnostics config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates backend configuration
func (b *BackendConfig) Validate() error {
	if b.BaseURL == "" {
		return fmt.Errorf("base_url cannot be empty")
	}

	parsed, err := url.Parse(b.BaseURL)
	if err != nil {
		return fmt.Errorf("base_url is not a valid URL: %w", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("base_url scheme must be http or https, got '%s'", parsed.Scheme)
	}

	if b.Timeout < 1 {
		return fmt.Errorf("timeout must be at least 1 second, got %d", b.Timeout)
	}

	if b.MaxRetries < 0 {
		return fmt.Errorf("max_retries cannot be negative, got %d", b.MaxRetries)
	}

	if b.MaxConcurrent < 1 {
		return fmt.Errorf("max_concurrent must be at least 1, got %d", b.MaxConcurrent)
	}

	return nil
}

// Validate validates audio configuration
func (a *AudioConfig) Validate() error {
	if a.SampleRate < 8000 || a.SampleRate > 192000 {
		return fmt.Errorf("sample_rate must be between 8000 and 192000 Hz, got %d", a.SampleRate)
	}

	if a.Channels < 1 || a.Channels > 2 {
		return fmt.Errorf("channels must be 1 (mono) or 2 (stereo), got %d", a.Channels)
	}

	if a.BitDepth != 16 {
		return fmt.Errorf("bit_depth must be 16 for the capture pipeline, got %d", a.BitDepth)
	}

	return nil
}

// Validate validates capture configuration
func (c *CaptureConfig) Validate() error {
	for _, s := range c.Formats {
		if _, err := audio.ParseFormat(s); err != nil {
			return fmt.Errorf("formats: %w", err)
		}
	}

	if c.MeterWindowMS < 10 {
		return fmt.Errorf("meter_window_ms must be at least 10, got %d", c.MeterWindowMS)
	}

	return nil
}

// Validate validates playback configuration
func (p *PlaybackConfig) Validate() error {
	if p.Enabled {
		if p.BufferMS < 10 || p.BufferMS > 1000 {
			return fmt.Errorf("buffer_ms must be between 10 and 1000, got %d", p.BufferMS)
		}
	}

	return nil
}

// Validate validates diagnostics configuration
func (d *DiagnosticsConfig) Validate() error {
	if d.Enabled {
		if d.Port < 1 || d.Port > 65535 {
			return fmt.Errorf("port must be between 1 and 65535, got %d", d.Port)
		}

		if d.Address == "" {
			return fmt.Errorf("address cannot be empty when diagnostics is enabled")
		}
	}

	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	return nil
}

// Candidates converts the configured format strings to capture candidates.
// Unknown strings are skipped; validation has already rejected them for
// loaded configs.
func (c *CaptureConfig) Candidates() []audio.Format {
	candidates := make([]audio.Format, 0, len(c.Formats))
	for _, s := range c.Formats {
		if f, err := audio.ParseFormat(s); err == nil {
			candidates = append(candidates, f)
		}
	}
	return candidates
}

// GetTimeoutDuration returns the backend request timeout as a time.Duration
func (b *BackendConfig) GetTimeoutDuration() time.Duration {
	return time.Duration(b.Timeout) * time.Second
}

// GetMeterWindowDuration returns the meter window as a time.Duration
func (c *CaptureConfig) GetMeterWindowDuration() time.Duration {
	return time.Duration(c.MeterWindowMS) * time.Millisecond
}

// GetBufferDuration returns the playback buffer as a time.Duration
func (p *PlaybackConfig) GetBufferDuration() time.Duration {
	return time.Duration(p.BufferMS) * time.Millisecond
}

// MeterWindowFrames returns the meter window size in sample frames at the
// given rate.
func (c *CaptureConfig) MeterWindowFrames(sampleRate int) int {
	frames := sampleRate * c.MeterWindowMS / 1000
	if frames < 1 {
		frames = 1
	}
	return frames
}
