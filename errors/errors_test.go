package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorClass_String(t *testing.T) {
	assert.Equal(t, "transient", ErrorTransient.String())
	assert.Equal(t, "invalid", ErrorInvalid.String())
	assert.Equal(t, "fatal", ErrorFatal.String())
	assert.Equal(t, "unknown", ErrorUnknown.String())
	assert.Equal(t, "unknown", ErrorClass(42).String())
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorClass
	}{
		{"nil", nil, ErrorUnknown},
		{"buffer full", ErrBufferFull, ErrorTransient},
		{"buffer empty", ErrBufferEmpty, ErrorTransient},
		{"deadline", context.DeadlineExceeded, ErrorTransient},
		{"wrapped buffer full", fmt.Errorf("write: %w", ErrBufferFull), ErrorTransient},
		{"port mismatch", ErrPortMismatch, ErrorFatal},
		{"not initialized", ErrNotInitialized, ErrorFatal},
		{"type mismatch", ErrTypeMismatch, ErrorFatal},
		{"buffer closed", ErrBufferClosed, ErrorFatal},
		{"invalid release", ErrInvalidRelease, ErrorFatal},
		{"insufficient capacity", ErrInsufficientCapacity, ErrorInvalid},
		{"invalid config", ErrInvalidConfig, ErrorInvalid},
		{"missing config", ErrMissingConfig, ErrorInvalid},
		{"config not found", ErrConfigNotFound, ErrorInvalid},
		{"unsupported type", ErrUnsupportedDataType, ErrorInvalid},
		{"parsing", ErrParsingFailed, ErrorInvalid},
		{"plain", fmt.Errorf("acquire timeout occurred"), ErrorUnknown},
		{"canceled", context.Canceled, ErrorUnknown},
		{"class beats sentinel", WrapFatal(ErrBufferFull, "Splitter", "Process", "write"), ErrorFatal},
		{"outer class wins", WrapInvalid(WrapTransient(ErrBufferFull, "a", "b", "c"), "d", "e", "f"), ErrorInvalid},
		{"class survives Wrap", Wrap(WrapTransient(errors.New("x"), "a", "b", "c"), "d", "e", "f"), ErrorTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got == ErrorTransient, IsTransient(tt.err))
			assert.Equal(t, got == ErrorInvalid, IsInvalid(tt.err))
			assert.Equal(t, got == ErrorFatal, IsFatal(tt.err))
		})
	}
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, "Splitter", "Process", "route"))

	err := Wrap(ErrBufferFull, "Splitter", "Process", "acquire write")
	assert.EqualError(t, err, "Splitter.Process: acquire write failed: stream buffer full")
	assert.ErrorIs(t, err, ErrBufferFull)
}

func TestWrapClassified(t *testing.T) {
	base := errors.New("original error")

	tests := []struct {
		name  string
		wrap  func(error, string, string, string) error
		class ErrorClass
	}{
		{"transient", WrapTransient, ErrorTransient},
		{"invalid", WrapInvalid, ErrorInvalid},
		{"fatal", WrapFatal, ErrorFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.wrap(base, "QAMModulator", "Process", "modulate")

			var ce *ClassifiedError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.class, ce.Class)
			assert.Equal(t, "QAMModulator", ce.Component)
			assert.Equal(t, "Process", ce.Operation)
			assert.EqualError(t, err, "QAMModulator.Process: modulate failed: original error")
			assert.ErrorIs(t, err, base)
			assert.Nil(t, tt.wrap(nil, "c", "m", "a"))
		})
	}
}

func TestRetryConfig_ShouldRetry(t *testing.T) {
	cfg := DefaultRetryConfig()

	assert.False(t, cfg.ShouldRetry(nil, 0))
	assert.True(t, cfg.ShouldRetry(ErrBufferFull, 0))
	assert.True(t, cfg.ShouldRetry(ErrBufferFull, 2))
	assert.False(t, cfg.ShouldRetry(ErrBufferFull, 3), "attempts exhausted")
	assert.False(t, cfg.ShouldRetry(ErrPortMismatch, 1))
	assert.False(t, cfg.ShouldRetry(ErrInsufficientCapacity, 1))
	assert.False(t, cfg.ShouldRetry(errors.New("unclassified"), 0))

	cfg.RetryableErrors = []error{ErrBufferFull}
	assert.True(t, cfg.ShouldRetry(WrapTransient(ErrBufferFull, "a", "b", "c"), 1))
	assert.False(t, cfg.ShouldRetry(ErrBufferEmpty, 1), "transient but not listed")
}

func TestRetryConfig_ToRetryConfig(t *testing.T) {
	rc := RetryConfig{
		MaxRetries:    5,
		InitialDelay:  200 * time.Millisecond,
		MaxDelay:      10 * time.Second,
		BackoffFactor: 1.5,
	}.ToRetryConfig()

	assert.Equal(t, 6, rc.MaxAttempts)
	assert.Equal(t, 200*time.Millisecond, rc.InitialDelay)
	assert.Equal(t, 10*time.Second, rc.MaxDelay)
	assert.Equal(t, 1.5, rc.Multiplier)
	assert.True(t, rc.AddJitter)
}

func BenchmarkClassify(b *testing.B) {
	err := Wrap(WrapTransient(ErrBufferFull, "Splitter", "Process", "acquire write"), "Engine", "Step", "process split")
	for b.Loop() {
		Classify(err)
	}
}
