// Package playback previews finished recordings through the default output
// device. Previews are best-effort: a machine without an audio output must
// never block or fail the upload pipeline.
package playback

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/Amitkumarracha/Speech-Emotion-Detection-with-NLP-for-Mental-Wellness/internal/audio"
	"github.com/Amitkumarracha/Speech-Emotion-Detection-with-NLP-for-Mental-Wellness/internal/config"
)

// Player plays mono 16-bit PCM previews. The underlying output context is
// created lazily on the first preview because oto allows only one context
// per process and creating it can fail on headless machines.
type Player struct {
	config config.PlaybackConfig
	logger *slog.Logger

	otoCtx     *oto.Context
	sampleRate int
	suspended  bool
	mu         sync.Mutex
}

// NewPlayer creates a preview player. No audio device is touched until the
// first Preview call.
func NewPlayer(cfg config.PlaybackConfig, logger *slog.Logger) *Player {
	if logger == nil {
		logger = slog.Default()
	}
	return &Player{
		config: cfg,
		logger: logger,
	}
}

// Enabled reports whether previews are configured on.
func (p *Player) Enabled() bool {
	return p.config.Enabled
}

// Preview plays the samples and blocks until playback finishes or ctx is
// canceled. When previews are disabled it returns immediately.
func (p *Player) Preview(ctx context.Context, samples []int16, sampleRate int) error {
	if !p.config.Enabled {
		return nil
	}

	if len(samples) == 0 {
		return fmt.Errorf("no samples to play")
	}

	if err := p.initContext(sampleRate); err != nil {
		return err
	}

	p.logger.Debug("previewing recording",
		slog.Int("samples", len(samples)),
		slog.Int("sample_rate", sampleRate))

	reader := bytes.NewReader(audio.EncodePCM16(samples))
	player := p.otoCtx.NewPlayer(reader)
	defer player.Close()

	player.Play()

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}

	return nil
}

// initContext creates the process-wide output context on first use. The
// sample rate is fixed once created; later previews must match it.
func (p *Player) initContext(sampleRate int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.otoCtx != nil {
		if p.sampleRate != sampleRate {
			return fmt.Errorf("output initialized at %d Hz, cannot play %d Hz", p.sampleRate, sampleRate)
		}
		if p.suspended {
			if err := p.otoCtx.Resume(); err != nil {
				return fmt.Errorf("failed to resume audio output: %w", err)
			}
			p.suspended = false
		}
		return nil
	}

	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatSignedInt16LE,
	}
	if p.config.BufferMS > 0 {
		op.BufferSize = time.Duration(p.config.BufferMS) * time.Millisecond
	}

	otoCtx, ready, err := oto.NewContext(op)
	if err != nil {
		return fmt.Errorf("failed to open audio output: %w", err)
	}
	<-ready

	p.otoCtx = otoCtx
	p.sampleRate = sampleRate

	p.logger.Info("audio output opened",
		slog.Int("sample_rate", sampleRate),
		slog.Int("buffer_ms", p.config.BufferMS))

	return nil
}

// Close suspends the output context. oto contexts cannot be destroyed, so a
// later Preview resumes the suspended context.
func (p *Player) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.otoCtx == nil || p.suspended {
		return nil
	}

	if err := p.otoCtx.Suspend(); err != nil {
		return err
	}
	p.suspended = true
	return nil
}
