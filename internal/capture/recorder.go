package capture

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Amitkumarracha/Speech-Emotion-Detection-with-NLP-for-Mental-Wellness/internal/audio"
)

// State represents the current stage of the recording lifecycle
type State int

const (
	StateIdle State = iota
	StateRecording
	StateFinalizing
)

// Sentinel errors callers branch on
var (
	ErrAlreadyRecording = errors.New("recording already in progress")
	ErrNotRecording     = errors.New("no recording in progress")
)

// Config contains capture settings for a recorder
type Config struct {
	SampleRate int
	Channels   int

	// Candidates is the capture format preference order; nil uses the
	// default order (uncompressed PCM first)
	Candidates []audio.Format

	// NewSource builds the capture backend for a session; nil uses the
	// default system microphone
	NewSource func() (Source, error)

	// Tap, when set, receives every accumulated chunk while recording,
	// for live level metering. Do not retain the slice.
	Tap func(chunk []byte)
}

// Recording is the sealed result of a single capture session. It is an
// explicit value passed through re-encode and upload, never ambient state.
type Recording struct {
	ID         string        `json:"id"`
	Format     audio.Format  `json:"format"`
	Data       []byte        `json:"-"`
	SampleRate int           `json:"sample_rate"`
	Channels   int           `json:"channels"`
	StartedAt  time.Time     `json:"started_at"`
	StoppedAt  time.Time     `json:"stopped_at"`
	Duration   time.Duration `json:"duration"`
	Chunks     uint64        `json:"chunks"`
}

// Recorder coordinates one recording session at a time as an explicit
// state machine: Idle -> Recording -> Finalizing -> Idle. Start and Stop
// are bounded by user action; there are no implicit timeouts. Exclusivity
// is enforced by the state guard, and Stop triggers exactly one finalize
// step before the buffer is considered complete.
type Recorder struct {
	config Config
	logger *slog.Logger

	state     State
	source    Source
	format    audio.Format
	data      []byte
	chunks    uint64
	startedAt time.Time
	lastChunk time.Time

	// Statistics across sessions
	sessionsStarted   uint64
	sessionsCompleted uint64
	sessionsAborted   uint64

	mu sync.Mutex
}

// RecorderStats represents recorder statistics for monitoring
type RecorderStats struct {
	State             string  `json:"state"`
	BufferedBytes     int     `json:"buffered_bytes"`
	Chunks            uint64  `json:"chunks"`
	ElapsedSeconds    float64 `json:"elapsed_seconds"`
	SessionsStarted   uint64  `json:"sessions_started"`
	SessionsCompleted uint64  `json:"sessions_completed"`
	SessionsAborted   uint64  `json:"sessions_aborted"`
}

// NewRecorder creates a recorder with the given capture settings
func NewRecorder(config Config, logger *slog.Logger) (*Recorder, error) {
	if config.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", config.SampleRate)
	}

	if config.Channels < 1 || config.Channels > 2 {
		return nil, fmt.Errorf("channel count must be 1 or 2, got %d", config.Channels)
	}

	if logger == nil {
		logger = slog.Default()
	}

	if len(config.Candidates) == 0 {
		config.Candidates = audio.DefaultCaptureCandidates()
	}

	if config.NewSource == nil {
		sampleRate, channels := config.SampleRate, config.Channels
		config.NewSource = func() (Source, error) {
			return NewDevice(sampleRate, channels, logger)
		}
	}

	return &Recorder{
		config: config,
		logger: logger,
		state:  StateIdle,
	}, nil
}

// Start acquires the capture device and begins accumulating audio chunks.
// Returns ErrAlreadyRecording when a session is in progress; device
// acquisition failures are terminal for this attempt and are not retried.
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateIdle {
		return ErrAlreadyRecording
	}

	source, err := r.config.NewSource()
	if err != nil {
		return fmt.Errorf("failed to create capture source: %w", err)
	}

	format := audio.SelectCaptureFormat(r.config.Candidates, source.Supports)

	if err := source.Open(r.appendChunk); err != nil {
		// The source owns the device handle; release it even though
		// Open failed partway
		if closeErr := source.Close(); closeErr != nil {
			r.logger.Warn("capture source close failed after open error",
				slog.String("error", closeErr.Error()))
		}
		return fmt.Errorf("failed to open capture source: %w", err)
	}

	r.state = StateRecording
	r.source = source
	r.format = format
	r.data = make([]byte, 0, r.config.SampleRate*r.config.Channels*4) // 2 seconds of 16-bit audio
	r.chunks = 0
	r.startedAt = time.Now()
	r.lastChunk = time.Time{}
	r.sessionsStarted++

	r.logger.Info("recording started",
		slog.String("format", format.String()),
		slog.Int("sample_rate", r.config.SampleRate),
		slog.Int("channels", r.config.Channels))

	return nil
}

// appendChunk accumulates a captured chunk. Chunks arriving outside an
// active session (e.g. a callback racing Stop) are dropped.
func (r *Recorder) appendChunk(chunk []byte) {
	r.mu.Lock()
	if r.state != StateRecording {
		r.mu.Unlock()
		return
	}

	r.data = append(r.data, chunk...)
	r.chunks++
	r.lastChunk = time.Now()
	tap := r.config.Tap
	r.mu.Unlock()

	if tap != nil {
		tap(chunk)
	}
}

// Stop ends the active session: the device is released unconditionally,
// then the accumulated buffer is sealed into a Recording. Only the caller
// that wins the Recording -> Finalizing transition performs the finalize,
// so the buffer is finalized exactly once per session.
func (r *Recorder) Stop() (*Recording, error) {
	r.mu.Lock()
	if r.state != StateRecording {
		r.mu.Unlock()
		return nil, ErrNotRecording
	}
	r.state = StateFinalizing
	source := r.source
	r.source = nil
	r.mu.Unlock()

	// Release the device before sealing so no chunk lands mid-finalize;
	// appendChunk drops anything arriving after the state change anyway.
	if err := source.Close(); err != nil {
		r.logger.Warn("capture source close failed", slog.String("error", err.Error()))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	recording := r.finalize()
	r.resetLocked()
	r.sessionsCompleted++

	r.logger.Info("recording stopped",
		slog.String("recording_id", recording.ID),
		slog.Duration("duration", recording.Duration),
		slog.Int("bytes", len(recording.Data)),
		slog.Uint64("chunks", recording.Chunks))

	return recording, nil
}

// Abort ends the active session and discards its data. The device is
// still released unconditionally. Used on shutdown paths.
func (r *Recorder) Abort() error {
	r.mu.Lock()
	if r.state != StateRecording {
		r.mu.Unlock()
		return ErrNotRecording
	}
	r.state = StateFinalizing
	source := r.source
	r.source = nil
	r.mu.Unlock()

	if err := source.Close(); err != nil {
		r.logger.Warn("capture source close failed", slog.String("error", err.Error()))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	discarded := len(r.data)
	r.resetLocked()
	r.sessionsAborted++

	r.logger.Info("recording aborted", slog.Int("discarded_bytes", discarded))

	return nil
}

// finalize seals the accumulated buffer into a Recording (mu must be held)
func (r *Recorder) finalize() *Recording {
	stoppedAt := time.Now()

	recording := &Recording{
		ID:         uuid.NewString(),
		Format:     r.format,
		Data:       r.data,
		SampleRate: r.config.SampleRate,
		Channels:   r.config.Channels,
		StartedAt:  r.startedAt,
		StoppedAt:  stoppedAt,
		Duration:   stoppedAt.Sub(r.startedAt),
		Chunks:     r.chunks,
	}

	r.data = nil
	return recording
}

// resetLocked returns the recorder to idle for the next session (mu held)
func (r *Recorder) resetLocked() {
	r.state = StateIdle
	r.format = audio.FormatUnknown
	r.data = nil
	r.chunks = 0
	r.startedAt = time.Time{}
	r.lastChunk = time.Time{}
}

// IsRecording returns whether a session is currently active
func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == StateRecording
}

// GetState returns the current lifecycle state
func (r *Recorder) GetState() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// GetStats returns current recorder statistics
func (r *Recorder) GetStats() RecorderStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	elapsed := float64(0)
	if r.state == StateRecording && !r.startedAt.IsZero() {
		elapsed = time.Since(r.startedAt).Seconds()
	}

	return RecorderStats{
		State:             r.state.String(),
		BufferedBytes:     len(r.data),
		Chunks:            r.chunks,
		ElapsedSeconds:    elapsed,
		SessionsStarted:   r.sessionsStarted,
		SessionsCompleted: r.sessionsCompleted,
		SessionsAborted:   r.sessionsAborted,
	}
}

// String returns a human-readable state name
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateFinalizing:
		return "finalizing"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// AudioDuration computes the playback duration implied by the PCM payload
// size rather than the wall clock.
func (rec *Recording) AudioDuration() time.Duration {
	if rec.SampleRate <= 0 || rec.Channels <= 0 {
		return 0
	}

	frames := len(rec.Data) / (2 * rec.Channels)
	seconds := float64(frames) / float64(rec.SampleRate)
	return time.Duration(seconds * float64(time.Second))
}

// Samples decodes the raw payload into int16 PCM samples
func (rec *Recording) Samples() []int16 {
	return audio.DecodePCM16(rec.Data)
}

// WAV wraps the raw PCM payload in a WAV container. Stereo captures are
// downmixed to mono first so uploads always carry a single channel.
func (rec *Recording) WAV() ([]byte, error) {
	if rec.Channels == 1 {
		return audio.EncodeWAV(rec.Samples(), rec.SampleRate, 1)
	}

	buf, err := audio.SamplesFromPCM16(rec.Data, rec.Channels, rec.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("failed to split capture channels: %w", err)
	}

	mono, err := audio.DownmixToMono(buf.Channels)
	if err != nil {
		return nil, fmt.Errorf("failed to downmix capture: %w", err)
	}

	return audio.EncodeWAV(audio.Quantize(mono), rec.SampleRate, 1)
}
