package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/Amitkumarracha/Speech-Emotion-Detection-with-NLP-for-Mental-Wellness/internal/audio"
	"github.com/Amitkumarracha/Speech-Emotion-Detection-with-NLP-for-Mental-Wellness/internal/capture"
	"github.com/Amitkumarracha/Speech-Emotion-Detection-with-NLP-for-Mental-Wellness/internal/codec"
	"github.com/Amitkumarracha/Speech-Emotion-Detection-with-NLP-for-Mental-Wellness/internal/config"
	"github.com/Amitkumarracha/Speech-Emotion-Detection-with-NLP-for-Mental-Wellness/internal/emotion"
	"github.com/Amitkumarracha/Speech-Emotion-Detection-with-NLP-for-Mental-Wellness/internal/level"
	"github.com/Amitkumarracha/Speech-Emotion-Detection-with-NLP-for-Mental-Wellness/internal/metrics"
	"github.com/Amitkumarracha/Speech-Emotion-Detection-with-NLP-for-Mental-Wellness/internal/playback"
	"github.com/Amitkumarracha/Speech-Emotion-Detection-with-NLP-for-Mental-Wellness/internal/server"
	"github.com/Amitkumarracha/Speech-Emotion-Detection-with-NLP-for-Mental-Wellness/internal/session"
)

const (
	defaultConfigPath = "config.yaml"
	serviceName       = "beyond-words-client"
	serviceVersion    = "2.0.0"
)

// app bundles the components of the interactive recording pipeline
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	metrics  *metrics.Metrics
	recorder *capture.Recorder
	meter    *level.Meter
	sessions *session.Manager
	client   *emotion.Client
	player   *playback.Player

	mu      sync.Mutex
	current *session.Session
}

func main() {
	// Parse command line flags
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	audioFile := flag.String("file", "", "Analyze a recorded audio file and exit")
	analyzeText := flag.String("text", "", "Analyze a piece of text and exit")
	chatMessage := flag.String("chat", "", "Start a wellness chat with the given opening message")
	flag.Parse()

	// Load configuration
	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger based on configuration
	logger := initLogger(cfg.Logging)

	logger.Info("client starting",
		slog.String("service", serviceName),
		slog.String("version", serviceVersion),
		slog.String("backend", cfg.Backend.BaseURL),
		slog.Int("sample_rate", cfg.Audio.SampleRate),
		slog.Int("channels", cfg.Audio.Channels))

	// Create the inference backend client
	client, err := emotion.NewClient(emotion.Config{
		BaseURL:       cfg.Backend.BaseURL,
		APIKey:        cfg.Backend.APIKey,
		Timeout:       cfg.Backend.GetTimeoutDuration(),
		MaxRetries:    cfg.Backend.MaxRetries,
		MaxConcurrent: cfg.Backend.MaxConcurrent,
		PreserveDir:   cfg.Backend.PreserveDir,
	}, logger)
	if err != nil {
		logger.Error("failed to create backend client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer client.Close()

	// Create cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("received shutdown signal", slog.String("signal", sig.String()))
		cancel()
	}()

	// Initialize Prometheus metrics
	appMetrics := metrics.NewMetrics()

	// One-shot modes skip the recording pipeline entirely
	switch {
	case *analyzeText != "":
		if err := runText(ctx, client, appMetrics, *analyzeText); err != nil {
			logger.Error("text analysis failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		return

	case *chatMessage != "":
		if err := runChat(ctx, client, appMetrics, *chatMessage); err != nil {
			logger.Error("chat failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		return

	case *audioFile != "":
		if err := runFile(ctx, client, appMetrics, logger, *audioFile); err != nil {
			logger.Error("file analysis failed",
				slog.String("file", *audioFile),
				slog.String("error", err.Error()))
			os.Exit(1)
		}
		return
	}

	// Session manager tracks the recording lifecycle
	sessions := session.NewManager(logger, time.Hour, 32)

	// Level meter analyzes capture chunks as they arrive
	meter, err := level.NewMeter(
		cfg.Capture.MeterWindowFrames(cfg.Audio.SampleRate),
		cfg.Audio.SampleRate,
		cfg.Audio.Channels)
	if err != nil {
		logger.Error("failed to create level meter", slog.String("error", err.Error()))
		os.Exit(1)
	}

	a := &app{
		cfg:      cfg,
		logger:   logger,
		metrics:  appMetrics,
		meter:    meter,
		sessions: sessions,
		client:   client,
		player:   playback.NewPlayer(cfg.Playback, logger),
	}

	recorder, err := capture.NewRecorder(capture.Config{
		SampleRate: cfg.Audio.SampleRate,
		Channels:   cfg.Audio.Channels,
		Candidates: cfg.Capture.Candidates(),
		Tap:        a.onCaptureChunk,
	}, logger)
	if err != nil {
		logger.Error("failed to create recorder", slog.String("error", err.Error()))
		os.Exit(1)
	}
	a.recorder = recorder

	// Start the diagnostics server (if enabled)
	var diagnostics *server.DiagnosticsServer
	if cfg.Diagnostics.Enabled {
		diagnostics = server.NewDiagnosticsServer(cfg.Diagnostics, logger, cfg, sessions, client, appMetrics)
		if err := diagnostics.Start(); err != nil {
			logger.Error("failed to start diagnostics server", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	a.checkBackend(ctx)

	a.runInteractive(ctx)

	logger.Info("starting graceful shutdown")

	// Abort any recording still in flight
	if a.recorder.IsRecording() {
		if err := a.recorder.Abort(); err != nil {
			logger.Warn("failed to abort recording", slog.String("error", err.Error()))
		}
		if s := a.currentSession(); s != nil {
			s.Fail(fmt.Errorf("client shutting down"))
		}
	}

	if diagnostics != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := diagnostics.Stop(shutdownCtx); err != nil {
			logger.Error("error stopping diagnostics server", slog.String("error", err.Error()))
		}
	}

	if err := a.player.Close(); err != nil {
		logger.Warn("error closing audio output", slog.String("error", err.Error()))
	}

	sessions.Stop()

	// Log final statistics
	stats := client.GetStats()
	logger.Info("final upload statistics",
		slog.Uint64("total_uploads", stats.TotalUploads),
		slog.Uint64("success_uploads", stats.SuccessUploads),
		slog.Uint64("failed_uploads", stats.FailedUploads),
		slog.Uint64("total_retries", stats.TotalRetries),
		slog.Uint64("preserved_files", stats.PreservedFiles))

	logger.Info("client stopped")
}

// loadConfig reads the configuration file, falling back to defaults when the
// default path does not exist. An explicitly passed path must exist.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) && path == defaultConfigPath {
		cfg := config.Default()
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	return config.Load(path)
}

// checkBackend probes the inference backend once at startup. An unreachable
// backend is not fatal; uploads are retried when they happen.
func (a *app) checkBackend(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	status, err := a.client.Health(checkCtx)
	if err != nil {
		a.metrics.SetBackendHealthy(false)
		a.logger.Warn("inference backend unreachable, uploads will be retried",
			slog.String("backend", a.cfg.Backend.BaseURL),
			slog.String("error", err.Error()))
		fmt.Printf("Warning: backend at %s is unreachable; recordings will still be captured.\n",
			a.cfg.Backend.BaseURL)
		return
	}

	a.metrics.SetBackendHealthy(status.Healthy())
	a.logger.Info("inference backend reachable",
		slog.String("service", status.Service),
		slog.String("version", status.Version),
		slog.String("status", status.Status))
}

// runInteractive drives the record/stop loop until the context is canceled
// or stdin closes.
func (a *app) runInteractive(ctx context.Context) {
	fmt.Println("Beyond Words emotion client")
	fmt.Println("Press Enter to start recording, Enter again to stop and analyze, Ctrl+C to quit.")

	lines := make(chan struct{})
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			select {
			case lines <- struct{}{}:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case _, ok := <-lines:
			if !ok {
				return
			}

			if a.recorder.IsRecording() {
				a.finishRecording(ctx)
				fmt.Println("\nPress Enter to record again, Ctrl+C to quit.")
			} else if err := a.startRecording(); err != nil {
				fmt.Printf("Could not start recording: %v\n", err)
			}
		}
	}
}

// startRecording begins a new session and acquires the capture device
func (a *app) startRecording() error {
	sess, err := a.sessions.Begin()
	if err != nil {
		return err
	}

	a.setCurrent(sess)
	a.meter.Reset()
	a.metrics.RecordRecordingStarted()

	if err := a.recorder.Start(); err != nil {
		sess.Fail(err)
		a.setCurrent(nil)
		a.metrics.RecordRecordingFailed()
		return err
	}

	fmt.Println("Recording... press Enter to stop.")
	return nil
}

// finishRecording runs the stop -> encode -> analyze -> upload pipeline for
// the active session.
func (a *app) finishRecording(ctx context.Context) {
	sess := a.currentSession()
	defer a.setCurrent(nil)

	rec, err := a.recorder.Stop()
	if err != nil {
		a.failSession(sess, fmt.Errorf("failed to stop recording: %w", err))
		return
	}

	if len(rec.Data) == 0 {
		a.failSession(sess, fmt.Errorf("no audio captured"))
		fmt.Println("No audio was captured; check the microphone.")
		return
	}

	duration := rec.AudioDuration()
	if !rec.Format.IsPCM() {
		// Compressed captures carry no sample count; use the wall clock
		duration = rec.Duration
	}

	if sess != nil {
		if err := sess.FinishCapture(rec.Format, duration, rec.SampleRate); err != nil {
			a.logger.Warn("session state out of sync", slog.String("error", err.Error()))
		}
	}

	// Raw PCM frames are wrapped in a container; compressed sources already
	// deliver one
	payload := rec.Data
	if rec.Format.IsPCM() {
		payload, err = rec.WAV()
		if err != nil {
			a.failSession(sess, fmt.Errorf("failed to encode capture: %w", err))
			return
		}
	}

	reencodeStart := time.Now()
	encoded, reencoded := codec.Reencode(payload, rec.Format, a.logger)
	if reencoded {
		a.metrics.RecordReencode(rec.Format.String(), time.Since(reencodeStart).Seconds())
	} else if !rec.Format.IsPCM() && !audio.IsPCMContainer(encoded) {
		a.metrics.RecordReencodeFallback()
	}

	uploadFormat := rec.Format
	if audio.IsPCMContainer(encoded) {
		uploadFormat = audio.FormatWAV
	}

	// Precheck the container before spending an upload on it
	var monoSamples []int16
	if audio.IsPCMContainer(encoded) {
		if samples, rate, err := audio.DecodeWAV(encoded); err == nil {
			monoSamples = samples
			if analysis, aerr := level.AnalyzeInt16(samples, rate); aerr == nil {
				if sess != nil {
					sess.SetAnalysis(analysis)
				}
				fmt.Printf("Recording: %s\n", analysis.Describe())
				if analysis.Silent() {
					a.metrics.RecordSilentRecording()
					fmt.Println("The recording sounds silent; results may be unreliable.")
				}
			}
		}
	}

	if sess != nil {
		if err := sess.BeginUpload(reencoded); err != nil {
			a.logger.Warn("session state out of sync", slog.String("error", err.Error()))
		}
	}

	upload := &emotion.Upload{
		RecordingID: rec.ID,
		Data:        encoded,
		Format:      uploadFormat,
		Duration:    duration,
		SampleRate:  rec.SampleRate,
		Reencoded:   reencoded,
	}

	fmt.Println("Analyzing...")

	a.metrics.RecordUploadRequest(len(encoded))
	retriesBefore := a.client.GetStats().TotalRetries
	uploadStart := time.Now()

	result, err := a.client.Predict(ctx, upload)

	if delta := a.client.GetStats().TotalRetries - retriesBefore; delta > 0 {
		a.metrics.RecordUploadRetries(int(delta))
	}

	if err != nil {
		a.metrics.RecordUploadFailure(time.Since(uploadStart).Seconds())

		if path, perr := a.client.PreserveRecording(upload); perr != nil {
			a.logger.Warn("failed to preserve recording",
				slog.String("recording_id", rec.ID),
				slog.String("error", perr.Error()))
		} else if path != "" {
			if sess != nil {
				sess.SetPreservedPath(path)
			}
			a.metrics.RecordPreservedRecording()
			fmt.Printf("Upload failed; the recording was preserved at %s\n", path)
		}

		a.failSession(sess, err)
		fmt.Printf("Emotion analysis failed: %v\n", err)
		return
	}

	a.metrics.RecordUploadSuccess(time.Since(uploadStart).Seconds())

	if sess != nil {
		if err := sess.Complete(result); err != nil {
			a.logger.Warn("session state out of sync", slog.String("error", err.Error()))
		}
	}
	a.metrics.RecordRecordingCompleted(duration.Seconds())

	printPrediction(result)

	if a.player.Enabled() && len(monoSamples) > 0 {
		if err := a.player.Preview(ctx, monoSamples, rec.SampleRate); err != nil {
			a.logger.Warn("preview failed", slog.String("error", err.Error()))
		}
	}
}

// failSession marks the session failed and updates the failure metrics
func (a *app) failSession(sess *session.Session, err error) {
	if sess != nil {
		sess.Fail(err)
	}
	a.metrics.RecordRecordingFailed()
	a.logger.Error("recording session failed", slog.String("error", err.Error()))
}

// onCaptureChunk feeds every capture chunk to the level meter and the
// session byte counters. Runs on the capture callback goroutine.
func (a *app) onCaptureChunk(chunk []byte) {
	a.metrics.RecordCaptureChunk(len(chunk))

	if windows := a.meter.Feed(chunk); len(windows) > 0 {
		a.metrics.RecordMeterWindows(len(windows))
	}

	if s := a.currentSession(); s != nil {
		s.AddCaptureBytes(len(chunk))
	}
}

func (a *app) currentSession() *session.Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

func (a *app) setCurrent(s *session.Session) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.current = s
}

// runText sends one text analysis request and prints the result
func runText(ctx context.Context, client *emotion.Client, m *metrics.Metrics, text string) error {
	m.RecordTextAnalysis()

	analysis, err := client.AnalyzeText(ctx, text)
	if err != nil {
		return err
	}

	fmt.Printf("Emotion: %s (%.0f%% confidence)\n", analysis.Emotion, analysis.Confidence*100)

	suggestions := analysis.Suggestions
	if len(suggestions) == 0 {
		suggestions = emotion.Suggestions(analysis.Emotion)
	}
	for _, tip := range suggestions {
		fmt.Printf("  - %s\n", tip)
	}

	return nil
}

// runChat opens the wellness chat loop. The first message comes from the
// flag; further turns are read from stdin until EOF or Ctrl+C. The most
// recent detected emotion is carried between turns as chat context.
func runChat(ctx context.Context, client *emotion.Client, m *metrics.Metrics, message string) error {
	emotionContext := ""

	send := func(text string) error {
		m.RecordChatMessage()

		reply, err := client.Chat(ctx, text, emotionContext)
		if err != nil {
			return err
		}

		fmt.Println(reply.Response)
		if reply.DetectedEmotion != "" {
			fmt.Printf("(detected %s, %.0f%% confidence)\n", reply.DetectedEmotion, reply.Confidence*100)
			emotionContext = reply.DetectedEmotion
		}
		return nil
	}

	if err := send(message); err != nil {
		return err
	}

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			fmt.Print("> ")
			continue
		}

		if err := send(line); err != nil {
			fmt.Printf("Chat request failed: %v\n", err)
		}
		fmt.Print("> ")
	}

	return scanner.Err()
}

// runFile re-encodes an audio file if needed and uploads it for prediction
func runFile(ctx context.Context, client *emotion.Client, m *metrics.Metrics, logger *slog.Logger, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read audio file: %w", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.WaitForHealthy(waitCtx, 2*time.Second); err != nil {
		return fmt.Errorf("inference backend is not reachable: %w", err)
	}

	format := audio.DetectFormat(data)

	reencodeStart := time.Now()
	encoded, reencoded := codec.Reencode(data, format, logger)
	if reencoded {
		m.RecordReencode(format.String(), time.Since(reencodeStart).Seconds())
	}

	uploadFormat := format
	if audio.IsPCMContainer(encoded) {
		uploadFormat = audio.FormatWAV
	}

	upload := &emotion.Upload{
		RecordingID: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Data:        encoded,
		Format:      uploadFormat,
		Reencoded:   reencoded,
	}

	if audio.IsPCMContainer(encoded) {
		if samples, rate, derr := audio.DecodeWAV(encoded); derr == nil {
			upload.SampleRate = rate
			if analysis, aerr := level.AnalyzeInt16(samples, rate); aerr == nil {
				upload.Duration = time.Duration(analysis.DurationSeconds * float64(time.Second))
				fmt.Printf("Recording: %s\n", analysis.Describe())
			}
		}
	}

	m.RecordUploadRequest(len(encoded))
	uploadStart := time.Now()

	result, err := client.Predict(ctx, upload)
	if err != nil {
		m.RecordUploadFailure(time.Since(uploadStart).Seconds())
		return err
	}
	m.RecordUploadSuccess(time.Since(uploadStart).Seconds())

	printPrediction(result)
	return nil
}

// printPrediction renders a prediction with the matching wellness tips
func printPrediction(result *emotion.PredictionResult) {
	label, confidence := result.Emotion()

	fmt.Printf("\nDetected emotion: %s (%.0f%% confidence)\n", label, confidence*100)

	if result.Transcription != "" {
		fmt.Printf("Heard: %q\n", result.Transcription)
	}

	if result.EmotionText != "" && result.EmotionText != label {
		fmt.Printf("The words alone suggested %s (%.0f%%)\n",
			result.EmotionText, result.ConfidenceText*100)
	}

	for _, tip := range emotion.Suggestions(label) {
		fmt.Printf("  - %s\n", tip)
	}
}

// initLogger creates and configures the structured logger based on configuration
func initLogger(cfg config.LoggingConfig) *slog.Logger {
	// Parse log level
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo // default fallback
	}

	// Configure handler options
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug, // Add source info for debug level
	}

	// Determine output destination
	var output *os.File
	switch cfg.Output {
	case "stderr", "":
		output = os.Stderr
	case "stdout":
		output = os.Stdout
	default:
		// Assume it's a file path
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v, falling back to stderr\n", cfg.Output, err)
			output = os.Stderr
		} else {
			output = file
		}
	}

	// Create handler based on format
	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	case "text", "":
		handler = slog.NewTextHandler(output, opts)
	default:
		// Default to text format
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}
