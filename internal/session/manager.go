// Package session tracks recording sessions through their lifecycle:
// recording, encoding, uploading, then done or failed. The manager enforces
// that at most one session is active at a time and keeps a bounded history
// of finished sessions for the diagnostics endpoint.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Amitkumarracha/Speech-Emotion-Detection-with-NLP-for-Mental-Wellness/internal/audio"
	"github.com/Amitkumarracha/Speech-Emotion-Detection-with-NLP-for-Mental-Wellness/internal/emotion"
	"github.com/Amitkumarracha/Speech-Emotion-Detection-with-NLP-for-Mental-Wellness/internal/level"
)

// ErrSessionActive is returned by Begin while another session is still in
// flight. Recording is exclusive: the second request must wait for the first
// session to finish or fail.
var ErrSessionActive = errors.New("another recording session is active")

// State identifies where a session is in its lifecycle.
type State string

const (
	StateRecording State = "recording"
	StateEncoding  State = "encoding"
	StateUploading State = "uploading"
	StateDone      State = "done"
	StateFailed    State = "failed"
)

func (s State) terminal() bool {
	return s == StateDone || s == StateFailed
}

// Session is the explicit state object for one recording: capture metadata,
// the precheck analysis, the upload outcome and, when the upload failed, the
// path of the preserved container.
type Session struct {
	ID        string
	StartTime time.Time

	state        State
	lastActivity time.Time

	// Capture metadata, set when recording finishes
	format        audio.Format
	sampleRate    int
	duration      time.Duration
	bytesCaptured uint64
	chunks        uint64

	// Pipeline outcome
	reencoded     bool
	analysis      *level.Analysis
	result        *emotion.PredictionResult
	preservedPath string
	failure       error

	manager *Manager
	mu      sync.RWMutex
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// AddCaptureBytes records a capture chunk arriving from the recorder tap.
func (s *Session) AddCaptureBytes(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.bytesCaptured += uint64(n)
	s.chunks++
	s.lastActivity = time.Now()
}

// FinishCapture moves the session from recording to encoding and attaches
// the capture metadata.
func (s *Session) FinishCapture(format audio.Format, duration time.Duration, sampleRate int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRecording {
		return fmt.Errorf("cannot finish capture in state %s", s.state)
	}

	s.state = StateEncoding
	s.format = format
	s.duration = duration
	s.sampleRate = sampleRate
	s.lastActivity = time.Now()
	return nil
}

// BeginUpload moves the session from encoding to uploading. reencoded
// records whether the capture was transcoded or passed through as-is.
func (s *Session) BeginUpload(reencoded bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateEncoding {
		return fmt.Errorf("cannot begin upload in state %s", s.state)
	}

	s.state = StateUploading
	s.reencoded = reencoded
	s.lastActivity = time.Now()
	return nil
}

// Complete finishes the session with a successful prediction.
func (s *Session) Complete(result *emotion.PredictionResult) error {
	s.mu.Lock()
	if s.state != StateUploading {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("cannot complete session in state %s", state)
	}

	s.state = StateDone
	s.result = result
	s.lastActivity = time.Now()
	s.mu.Unlock()

	s.manager.retire(s)
	return nil
}

// Fail finishes the session with an error. Calling Fail on an already
// finished session is a no-op so error paths do not have to track state.
func (s *Session) Fail(reason error) {
	s.mu.Lock()
	if s.state.terminal() {
		s.mu.Unlock()
		return
	}

	s.state = StateFailed
	s.failure = reason
	s.lastActivity = time.Now()
	s.mu.Unlock()

	s.manager.retire(s)
}

// SetAnalysis attaches the recording-characteristics precheck.
func (s *Session) SetAnalysis(analysis *level.Analysis) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.analysis = analysis
}

// SetPreservedPath records where the container was kept after a failed upload.
func (s *Session) SetPreservedPath(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.preservedPath = path
}

// Info returns a snapshot of the session for monitoring and the
// diagnostics endpoint.
func (s *Session) Info() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info := Info{
		ID:            s.ID,
		State:         s.state,
		StartTime:     s.StartTime,
		LastActivity:  s.lastActivity,
		Format:        s.format.String(),
		SampleRate:    s.sampleRate,
		Duration:      s.duration,
		BytesCaptured: s.bytesCaptured,
		Chunks:        s.chunks,
		Reencoded:     s.reencoded,
		Analysis:      s.analysis,
		PreservedPath: s.preservedPath,
	}

	if s.result != nil {
		info.Emotion, info.Confidence = s.result.Emotion()
		info.Transcription = s.result.Transcription
	}

	if s.failure != nil {
		info.Error = s.failure.Error()
	}

	return info
}

// Info is the JSON snapshot of a session served by the diagnostics endpoint.
type Info struct {
	ID            string          `json:"id"`
	State         State           `json:"state"`
	StartTime     time.Time       `json:"start_time"`
	LastActivity  time.Time       `json:"last_activity"`
	Format        string          `json:"format,omitempty"`
	SampleRate    int             `json:"sample_rate,omitempty"`
	Duration      time.Duration   `json:"duration"`
	BytesCaptured uint64          `json:"bytes_captured"`
	Chunks        uint64          `json:"chunks"`
	Reencoded     bool            `json:"reencoded"`
	Emotion       string          `json:"emotion,omitempty"`
	Confidence    float64         `json:"confidence,omitempty"`
	Transcription string          `json:"transcription,omitempty"`
	Analysis      *level.Analysis `json:"analysis,omitempty"`
	PreservedPath string          `json:"preserved_path,omitempty"`
	Error         string          `json:"error,omitempty"`
}

// Manager owns the single active session and the history of finished ones.
type Manager struct {
	logger     *slog.Logger
	retention  time.Duration
	maxHistory int

	active  *Session
	history []*Session
	mu      sync.RWMutex

	// Aggregate statistics
	startedSessions   uint64
	completedSessions uint64
	failedSessions    uint64

	ctx     context.Context
	cancel  context.CancelFunc
	cleanup chan struct{}
}

// ManagerStats summarizes session activity since startup.
type ManagerStats struct {
	ActiveSessions    int    `json:"active_sessions"`
	StartedSessions   uint64 `json:"started_sessions"`
	CompletedSessions uint64 `json:"completed_sessions"`
	FailedSessions    uint64 `json:"failed_sessions"`
	HistorySize       int    `json:"history_size"`
}

// NewManager creates a session manager. Finished sessions are kept for
// retention (default 1h) and the history is capped at maxHistory entries
// (default 32).
func NewManager(logger *slog.Logger, retention time.Duration, maxHistory int) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if retention <= 0 {
		retention = time.Hour
	}
	if maxHistory <= 0 {
		maxHistory = 32
	}

	ctx, cancel := context.WithCancel(context.Background())

	mgr := &Manager{
		logger:     logger,
		retention:  retention,
		maxHistory: maxHistory,
		ctx:        ctx,
		cancel:     cancel,
		cleanup:    make(chan struct{}),
	}

	go mgr.startCleanupRoutine()

	return mgr
}

// Begin starts a new recording session. Only one session may be in flight;
// a second Begin returns ErrSessionActive.
func (m *Manager) Begin() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != nil && !m.active.State().terminal() {
		return nil, fmt.Errorf("%w: %s", ErrSessionActive, m.active.ID)
	}

	now := time.Now()
	session := &Session{
		ID:           uuid.NewString(),
		StartTime:    now,
		state:        StateRecording,
		lastActivity: now,
		manager:      m,
	}

	m.active = session
	m.startedSessions++

	m.logger.Info("recording session started",
		slog.String("session_id", session.ID))

	return session, nil
}

// Active returns the in-flight session, if any.
func (m *Manager) Active() (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.active == nil || m.active.State().terminal() {
		return nil, false
	}
	return m.active, true
}

// Get looks up a session by ID across the active slot and the history.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.active != nil && m.active.ID == id {
		return m.active, true
	}

	for _, s := range m.history {
		if s.ID == id {
			return s, true
		}
	}
	return nil, false
}

// History returns snapshots of finished sessions, most recent last.
func (m *Manager) History() []Info {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]Info, 0, len(m.history))
	for _, s := range m.history {
		infos = append(infos, s.Info())
	}
	return infos
}

// GetStats returns aggregate session statistics.
func (m *Manager) GetStats() ManagerStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := ManagerStats{
		StartedSessions:   m.startedSessions,
		CompletedSessions: m.completedSessions,
		FailedSessions:    m.failedSessions,
		HistorySize:       len(m.history),
	}

	if m.active != nil && !m.active.State().terminal() {
		stats.ActiveSessions = 1
	}

	return stats
}

// Stop cancels the cleanup routine and waits for it to finish.
func (m *Manager) Stop() {
	m.cancel()
	<-m.cleanup

	stats := m.GetStats()
	m.logger.Info("session manager stopped",
		slog.Uint64("started", stats.StartedSessions),
		slog.Uint64("completed", stats.CompletedSessions),
		slog.Uint64("failed", stats.FailedSessions))
}

// retire moves a finished session from the active slot into history. Called
// by the session itself on its terminal transition.
func (m *Manager) retire(s *Session) {
	info := s.Info()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == s {
		m.active = nil
	}

	switch info.State {
	case StateDone:
		m.completedSessions++
	case StateFailed:
		m.failedSessions++
	}

	m.history = append(m.history, s)
	if len(m.history) > m.maxHistory {
		m.history = m.history[len(m.history)-m.maxHistory:]
	}

	m.logger.Info("recording session finished",
		slog.String("session_id", info.ID),
		slog.String("state", string(info.State)),
		slog.String("emotion", info.Emotion),
		slog.Duration("duration", info.Duration),
		slog.Uint64("bytes_captured", info.BytesCaptured))
}

// startCleanupRoutine expires finished sessions past the retention window.
func (m *Manager) startCleanupRoutine() {
	defer close(m.cleanup)

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.pruneExpired()
		}
	}
}

// pruneExpired drops history entries whose last activity is older than the
// retention window.
func (m *Manager) pruneExpired() {
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.history[:0]
	var expired int
	for _, s := range m.history {
		if now.Sub(s.Info().LastActivity) > m.retention {
			expired++
			continue
		}
		kept = append(kept, s)
	}
	m.history = kept

	if expired > 0 {
		m.logger.Debug("expired finished sessions",
			slog.Int("expired", expired),
			slog.Int("remaining", len(m.history)))
	}
}
