package audio

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestEncodeWAV(t *testing.T) {
	// Generate test audio samples (440Hz sine wave for 0.1 seconds at 44.1kHz)
	sampleRate := 44100
	duration := 0.1
	frequency := 440.0 // A4 note

	numSamples := int(float64(sampleRate) * duration)
	samples := make([]int16, numSamples)

	for i := 0; i < numSamples; i++ {
		ts := float64(i) / float64(sampleRate)
		amplitude := 16383.0 // Half of max int16 to avoid clipping
		samples[i] = int16(amplitude * math.Sin(2*math.Pi*frequency*ts))
	}

	wavData, err := EncodeWAV(samples, sampleRate, 1)
	if err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}

	if len(wavData) == 0 {
		t.Fatal("WAV data is empty")
	}

	// 44-byte header plus 2 bytes per sample
	expectedSize := 44 + len(samples)*2
	if len(wavData) != expectedSize {
		t.Errorf("Expected WAV size %d, got %d", expectedSize, len(wavData))
	}

	if err := ValidateWAV(wavData); err != nil {
		t.Errorf("Generated WAV is invalid: %v", err)
	}

	info, err := GetWAVInfo(wavData)
	if err != nil {
		t.Fatalf("Failed to get WAV info: %v", err)
	}

	if info.SampleRate != uint32(sampleRate) {
		t.Errorf("Expected sample rate %d, got %d", sampleRate, info.SampleRate)
	}

	if info.Channels != 1 {
		t.Errorf("Expected 1 channel, got %d", info.Channels)
	}

	if info.BitsPerSample != 16 {
		t.Errorf("Expected 16 bits per sample, got %d", info.BitsPerSample)
	}

	expectedDuration := float64(numSamples) / float64(sampleRate)
	if math.Abs(info.Duration-expectedDuration) > 0.001 {
		t.Errorf("Expected duration %.3f, got %.3f", expectedDuration, info.Duration)
	}
}

func TestEncodeWAVChunkSize(t *testing.T) {
	// The uint32 at offset 4 must always equal total length - 8
	sampleCounts := []int{1, 5, 441, 8000}
	for _, n := range sampleCounts {
		samples := make([]int16, n)
		wavData, err := EncodeWAV(samples, 44100, 1)
		if err != nil {
			t.Fatalf("EncodeWAV failed for %d samples: %v", n, err)
		}

		chunkSize := binary.LittleEndian.Uint32(wavData[4:8])
		if chunkSize != uint32(len(wavData)-8) {
			t.Errorf("%d samples: expected chunk size %d, got %d", n, len(wavData)-8, chunkSize)
		}

		dataSize := binary.LittleEndian.Uint32(wavData[40:44])
		if dataSize != uint32(n*2) {
			t.Errorf("%d samples: expected data size %d, got %d", n, n*2, dataSize)
		}
	}
}

func TestEncodeWAVHeaderFields(t *testing.T) {
	samples := make([]int16, 100)
	wavData, err := EncodeWAV(samples, 22050, 2)
	if err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}

	channels := binary.LittleEndian.Uint16(wavData[22:24])
	if channels != 2 {
		t.Errorf("Expected 2 channels in header, got %d", channels)
	}

	sampleRate := binary.LittleEndian.Uint32(wavData[24:28])
	if sampleRate != 22050 {
		t.Errorf("Expected sample rate 22050 in header, got %d", sampleRate)
	}

	// Byte rate = sampleRate * channels * bitDepth/8
	byteRate := binary.LittleEndian.Uint32(wavData[28:32])
	if byteRate != 22050*2*2 {
		t.Errorf("Expected byte rate %d, got %d", 22050*2*2, byteRate)
	}

	// Block align = channels * bitDepth/8
	blockAlign := binary.LittleEndian.Uint16(wavData[32:34])
	if blockAlign != 4 {
		t.Errorf("Expected block align 4, got %d", blockAlign)
	}

	bitsPerSample := binary.LittleEndian.Uint16(wavData[34:36])
	if bitsPerSample != 16 {
		t.Errorf("Expected 16 bits per sample, got %d", bitsPerSample)
	}
}

func TestEncodeWAVSilence(t *testing.T) {
	// One second of silence at 44.1kHz mono must produce exactly
	// 44 + 88200 bytes with an all-zero payload
	samples := make([]int16, 44100)

	wavData, err := EncodeWAV(samples, 44100, 1)
	if err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}

	if len(wavData) != 44+88200 {
		t.Errorf("Expected %d bytes, got %d", 44+88200, len(wavData))
	}

	for i, b := range wavData[44:] {
		if b != 0 {
			t.Fatalf("Expected all-zero payload, found byte 0x%02x at payload offset %d", b, i)
		}
	}

	duration, err := GetWAVDuration(wavData)
	if err != nil {
		t.Fatalf("GetWAVDuration failed: %v", err)
	}
	if math.Abs(duration-1.0) > 0.001 {
		t.Errorf("Expected duration 1.000, got %.3f", duration)
	}
}

func TestDecodeWAV(t *testing.T) {
	originalSamples := []int16{100, -200, 300, -400, 500}
	sampleRate := 44100

	wavData, err := EncodeWAV(originalSamples, sampleRate, 1)
	if err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}

	decodedSamples, decodedSampleRate, err := DecodeWAV(wavData)
	if err != nil {
		t.Fatalf("DecodeWAV failed: %v", err)
	}

	if decodedSampleRate != sampleRate {
		t.Errorf("Expected sample rate %d, got %d", sampleRate, decodedSampleRate)
	}

	if len(decodedSamples) != len(originalSamples) {
		t.Errorf("Expected %d samples, got %d", len(originalSamples), len(decodedSamples))
	}

	for i, original := range originalSamples {
		if i >= len(decodedSamples) {
			break
		}
		if decodedSamples[i] != original {
			t.Errorf("Sample %d: expected %d, got %d", i, original, decodedSamples[i])
		}
	}
}

func TestDecodeWAVRejectsStereo(t *testing.T) {
	samples := []int16{1, 2, 3, 4}
	wavData, err := EncodeWAV(samples, 44100, 2)
	if err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}

	_, _, err = DecodeWAV(wavData)
	if err == nil {
		t.Error("Expected error when decoding stereo container")
	}
}

func TestEncodeWAVEmpty(t *testing.T) {
	_, err := EncodeWAV([]int16{}, 44100, 1)
	if err == nil {
		t.Error("Expected error for empty samples")
	}
}

func TestEncodeWAVInvalidSampleRate(t *testing.T) {
	samples := []int16{100, 200, 300}
	_, err := EncodeWAV(samples, 0, 1)
	if err == nil {
		t.Error("Expected error for zero sample rate")
	}

	_, err = EncodeWAV(samples, -1000, 1)
	if err == nil {
		t.Error("Expected error for negative sample rate")
	}
}

func TestEncodeWAVInvalidChannels(t *testing.T) {
	samples := []int16{100, 200, 300}
	_, err := EncodeWAV(samples, 44100, 0)
	if err == nil {
		t.Error("Expected error for zero channels")
	}
}

func TestIsPCMContainer(t *testing.T) {
	samples := []int16{1, 2, 3}
	wavData, err := EncodeWAV(samples, 44100, 1)
	if err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}

	if !IsPCMContainer(wavData) {
		t.Error("Expected encoded WAV to be recognized as a PCM container")
	}

	if IsPCMContainer([]byte{0x1A, 0x45, 0xDF, 0xA3, 0, 0, 0, 0, 0, 0, 0, 0}) {
		t.Error("Expected WebM magic to not be recognized as a PCM container")
	}

	if IsPCMContainer([]byte{'R', 'I'}) {
		t.Error("Expected short buffer to not be recognized as a PCM container")
	}
}

func TestValidateWAV(t *testing.T) {
	err := ValidateWAV([]byte{1, 2, 3})
	if err == nil {
		t.Error("Expected error for too short WAV data")
	}

	invalidWAV := make([]byte, 50)
	copy(invalidWAV[0:4], []byte("FAKE"))
	err = ValidateWAV(invalidWAV)
	if err == nil {
		t.Error("Expected error for invalid RIFF header")
	}
}

func TestGetWAVDuration(t *testing.T) {
	// One second of audio at 44.1kHz
	sampleRate := 44100
	samples := make([]int16, sampleRate)
	for i := range samples {
		samples[i] = int16(i % 1000)
	}

	wavData, err := EncodeWAV(samples, sampleRate, 1)
	if err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}

	duration, err := GetWAVDuration(wavData)
	if err != nil {
		t.Fatalf("GetWAVDuration failed: %v", err)
	}

	if math.Abs(duration-1.0) > 0.001 {
		t.Errorf("Expected duration %.3f, got %.3f", 1.0, duration)
	}
}
