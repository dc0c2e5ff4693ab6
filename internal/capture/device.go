package capture

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/Amitkumarracha/Speech-Emotion-Detection-with-NLP-for-Mental-Wellness/internal/audio"
)

// Source is a capture backend that delivers raw little-endian 16-bit PCM
// chunks to a sink callback. Implementations must release the underlying
// device handle in Close on every path.
type Source interface {
	// Supports reports whether the backend can capture in the given format
	Supports(format audio.Format) bool

	// Open acquires the device and starts delivering chunks to onChunk.
	// The callback must not retain the chunk slice.
	Open(onChunk func(chunk []byte)) error

	// Close stops capture and releases the device unconditionally
	Close() error
}

// Device captures microphone audio through miniaudio. A Device is scoped
// to a single recording session: Open acquires the hardware handle and
// Close always releases it, including on error paths.
type Device struct {
	sampleRate int
	channels   int
	logger     *slog.Logger

	malgoCtx *malgo.AllocatedContext
	device   *malgo.Device

	mu     sync.Mutex
	opened bool
}

// NewDevice creates a capture device for the default system microphone
func NewDevice(sampleRate, channels int, logger *slog.Logger) (*Device, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}

	if channels < 1 || channels > 2 {
		return nil, fmt.Errorf("channel count must be 1 or 2, got %d", channels)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Device{
		sampleRate: sampleRate,
		channels:   channels,
		logger:     logger,
	}, nil
}

// Supports reports whether the device can capture in the given format.
// Miniaudio always delivers raw PCM, so only the uncompressed format is
// supported natively.
func (d *Device) Supports(format audio.Format) bool {
	return format.IsPCM()
}

// Open acquires the microphone and starts streaming PCM chunks to onChunk.
// An acquisition failure (missing device, denied permission) is terminal
// for the capture attempt and is returned to the caller without retry.
func (d *Device) Open(onChunk func(chunk []byte)) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.opened {
		return fmt.Errorf("capture device already open")
	}

	logProc := func(message string) {
		d.logger.Debug("miniaudio", slog.String("message", strings.TrimSpace(message)))
	}

	malgoCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, logProc)
	if err != nil {
		return fmt.Errorf("failed to initialize capture context: %w", err)
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = uint32(d.channels)
	deviceConfig.SampleRate = uint32(d.sampleRate)
	deviceConfig.Alsa.NoMMap = 1

	onRecv := func(pOutputSample, pInputSamples []byte, frameCount uint32) {
		if len(pInputSamples) == 0 {
			return
		}

		// Miniaudio reuses the input buffer between callbacks
		chunk := make([]byte, len(pInputSamples))
		copy(chunk, pInputSamples)
		onChunk(chunk)
	}

	device, err := malgo.InitDevice(malgoCtx.Context, deviceConfig, malgo.DeviceCallbacks{
		Data: onRecv,
	})
	if err != nil {
		d.releaseContext(malgoCtx)
		return fmt.Errorf("failed to initialize capture device (microphone unavailable or access denied): %w", err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		d.releaseContext(malgoCtx)
		return fmt.Errorf("failed to start capture device: %w", err)
	}

	d.malgoCtx = malgoCtx
	d.device = device
	d.opened = true

	d.logger.Debug("capture device opened",
		slog.Int("sample_rate", d.sampleRate),
		slog.Int("channels", d.channels))

	return nil
}

// Close stops capture and releases the device and its context. Safe to
// call multiple times; the release always runs to completion.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.opened {
		return nil
	}

	if d.device != nil {
		if err := d.device.Stop(); err != nil {
			d.logger.Warn("capture device stop failed", slog.String("error", err.Error()))
		}
		d.device.Uninit()
		d.device = nil
	}

	if d.malgoCtx != nil {
		d.releaseContext(d.malgoCtx)
		d.malgoCtx = nil
	}

	d.opened = false
	d.logger.Debug("capture device released")

	return nil
}

func (d *Device) releaseContext(malgoCtx *malgo.AllocatedContext) {
	if err := malgoCtx.Uninit(); err != nil {
		d.logger.Warn("capture context uninit failed", slog.String("error", err.Error()))
	}
	malgoCtx.Free()
}
