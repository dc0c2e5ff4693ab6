package playback

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/Amitkumarracha/Speech-Emotion-Detection-with-NLP-for-Mental-Wellness/internal/config"
)

func TestPreviewDisabled(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	player := NewPlayer(config.PlaybackConfig{Enabled: false}, logger)

	if player.Enabled() {
		t.Error("Expected previews to be disabled")
	}

	// Disabled previews never touch an audio device
	if err := player.Preview(context.Background(), []int16{1, 2, 3}, 44100); err != nil {
		t.Errorf("Expected disabled preview to be a no-op, got: %v", err)
	}

	if err := player.Close(); err != nil {
		t.Errorf("Expected Close without a context to succeed, got: %v", err)
	}
}

func TestPreviewRejectsEmptySamples(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	player := NewPlayer(config.PlaybackConfig{Enabled: true, BufferMS: 50}, logger)

	// The samples check runs before any device is opened
	if err := player.Preview(context.Background(), nil, 44100); err == nil {
		t.Error("Expected error for empty samples")
	}
}
