package errors

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/andrepuschmann/iris-modules-ospecorr/pkg/retry"
)

// ErrorClass tells a host what to do with a failed call.
type ErrorClass int

const (
	// ErrorTransient failures may succeed when retried.
	ErrorTransient ErrorClass = iota
	// ErrorInvalid failures are caused by bad input or configuration.
	ErrorInvalid
	// ErrorFatal failures stop the component or the flow.
	ErrorFatal
	// ErrorUnknown is reported for errors that carry no class and match no
	// known sentinel.
	ErrorUnknown
)

func (ec ErrorClass) String() string {
	switch ec {
	case ErrorTransient:
		return "transient"
	case ErrorInvalid:
		return "invalid"
	case ErrorFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Standard error variables for common conditions
var (
	// Component lifecycle errors
	ErrNotInitialized     = errors.New("component not initialized")
	ErrAlreadyInitialized = errors.New("component already initialized")
	ErrPortMismatch       = errors.New("port count mismatch")
	ErrTypeMismatch       = errors.New("element type mismatch")
	ErrUnknownComponent   = errors.New("unknown component")

	// Stream buffer errors
	ErrBufferFull      = errors.New("stream buffer full")
	ErrBufferEmpty     = errors.New("stream buffer empty")
	ErrBufferClosed    = errors.New("stream buffer closed")
	ErrAlreadyAcquired = errors.New("data set already acquired")
	ErrInvalidRelease  = errors.New("released data set was not acquired")

	// Data processing errors
	ErrInvalidData          = errors.New("invalid data format")
	ErrInsufficientCapacity = errors.New("insufficient storage provided for output")
	ErrUnsupportedDataType  = errors.New("unsupported element type")
	ErrParsingFailed        = errors.New("parsing failed")

	// Configuration errors
	ErrInvalidConfig  = errors.New("invalid configuration")
	ErrMissingConfig  = errors.New("missing required configuration")
	ErrConfigNotFound = errors.New("configuration not found")
)

// sentinelClasses gives the class of unclassified errors by the sentinel
// they wrap.
var sentinelClasses = []struct {
	class     ErrorClass
	sentinels []error
}{
	{ErrorTransient, []error{ErrBufferFull, ErrBufferEmpty, context.DeadlineExceeded}},
	{ErrorFatal, []error{ErrPortMismatch, ErrNotInitialized, ErrTypeMismatch, ErrBufferClosed, ErrInvalidRelease}},
	{ErrorInvalid, []error{
		ErrInvalidData, ErrInvalidConfig, ErrMissingConfig, ErrConfigNotFound,
		ErrInsufficientCapacity, ErrUnsupportedDataType, ErrParsingFailed,
	}},
}

// ClassifiedError is an error with a class and the call site that produced it.
type ClassifiedError struct {
	Class     ErrorClass
	Err       error
	Component string
	Operation string
}

func (ce *ClassifiedError) Error() string {
	return ce.Err.Error()
}

func (ce *ClassifiedError) Unwrap() error {
	return ce.Err
}

// Classify returns the class of err. The outermost ClassifiedError wins;
// otherwise the first matching sentinel decides. nil and unmatched errors are
// ErrorUnknown.
func Classify(err error) ErrorClass {
	if err == nil {
		return ErrorUnknown
	}
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class
	}
	for _, group := range sentinelClasses {
		for _, sentinel := range group.sentinels {
			if errors.Is(err, sentinel) {
				return group.class
			}
		}
	}
	return ErrorUnknown
}

// IsTransient reports whether err may succeed on retry.
func IsTransient(err error) bool { return Classify(err) == ErrorTransient }

// IsInvalid reports whether err was caused by bad input or configuration.
func IsInvalid(err error) bool { return Classify(err) == ErrorInvalid }

// IsFatal reports whether err should stop processing.
func IsFatal(err error) bool { return Classify(err) == ErrorFatal }

// Wrap adds call-site context in the form "Component.Method: action failed: err".
// A class carried by err is kept.
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
}

func wrapAs(class ErrorClass, err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return &ClassifiedError{
		Class:     class,
		Err:       Wrap(err, component, method, action),
		Component: component,
		Operation: method,
	}
}

// WrapTransient wraps err with context and marks it transient.
func WrapTransient(err error, component, method, action string) error {
	return wrapAs(ErrorTransient, err, component, method, action)
}

// WrapInvalid wraps err with context and marks it invalid.
func WrapInvalid(err error, component, method, action string) error {
	return wrapAs(ErrorInvalid, err, component, method, action)
}

// WrapFatal wraps err with context and marks it fatal.
func WrapFatal(err error, component, method, action string) error {
	return wrapAs(ErrorFatal, err, component, method, action)
}

// RetryConfig describes how a host retries a failed processing step.
// Only transient errors are retried.
type RetryConfig struct {
	MaxRetries      int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffFactor   float64
	RetryableErrors []error
}

// DefaultRetryConfig returns the retry policy used by the flow engine
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    3,
		InitialDelay:  time.Millisecond,
		MaxDelay:      50 * time.Millisecond,
		BackoffFactor: 2.0,
	}
}

// ShouldRetry determines if an error should be retried based on config
func (rc RetryConfig) ShouldRetry(err error, attempt int) bool {
	if err == nil || attempt >= rc.MaxRetries {
		return false
	}

	if !IsTransient(err) {
		return false
	}

	if len(rc.RetryableErrors) > 0 {
		for _, retryableErr := range rc.RetryableErrors {
			if errors.Is(err, retryableErr) {
				return true
			}
		}
		return false
	}

	return true
}

// ToRetryConfig converts to the retry package's Config. MaxRetries counts
// additional attempts, so the total attempt count is MaxRetries+1.
func (rc RetryConfig) ToRetryConfig() retry.Config {
	return retry.Config{
		MaxAttempts:  rc.MaxRetries + 1,
		InitialDelay: rc.InitialDelay,
		MaxDelay:     rc.MaxDelay,
		Multiplier:   rc.BackoffFactor,
		AddJitter:    true,
	}
}
