// Package level computes signal characteristics of captured audio: RMS
// energy, zero-cross rate, peak and silence ratio, plus the categorical
// descriptors sent along to the chat backend. A windowed Meter provides
// live input levels while a capture is in progress.
package level
