package flowengine

import (
	"fmt"

	"github.com/andrepuschmann/iris-modules-ospecorr/errors"
	"github.com/andrepuschmann/iris-modules-ospecorr/pkg/buffer"
	"github.com/andrepuschmann/iris-modules-ospecorr/types"
)

// Inject writes one DataSet into an open input. The element type must match
// the type declared for that input.
func Inject[T types.Element](e *Engine, endpoint string, data []T, sampleRate, timestamp float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	h, ok := e.openInputs[endpoint]
	if !ok {
		return errors.WrapInvalid(
			fmt.Errorf("%w: %s is not an open input", errors.ErrPortMismatch, endpoint),
			"Engine", "Inject", "endpoint lookup")
	}
	w, ok := h.(buffer.WriteBuffer[T])
	if !ok {
		return errors.WrapInvalid(
			fmt.Errorf("%w: %s carries %s, not %s", errors.ErrTypeMismatch, endpoint, h.DataType(), types.TypeOf[T]()),
			"Engine", "Inject", "type check")
	}
	if err := buffer.Write(w, data, sampleRate, timestamp); err != nil {
		return errors.Wrap(err, "Engine", "Inject", "write "+endpoint)
	}
	return nil
}

// Drain reads every queued DataSet from an open output.
func Drain[T types.Element](e *Engine, endpoint string) ([]buffer.DataSet[T], error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	h, ok := e.openOutputs[endpoint]
	if !ok {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: %s is not an open output", errors.ErrPortMismatch, endpoint),
			"Engine", "Drain", "endpoint lookup")
	}
	r, ok := h.(buffer.ReadBuffer[T])
	if !ok {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: %s carries %s, not %s", errors.ErrTypeMismatch, endpoint, h.DataType(), types.TypeOf[T]()),
			"Engine", "Drain", "type check")
	}

	var out []buffer.DataSet[T]
	for r.HasData() {
		ds, err := r.AcquireRead()
		if err != nil {
			return out, errors.Wrap(err, "Engine", "Drain", "read "+endpoint)
		}
		out = append(out, buffer.DataSet[T]{
			Data:       append([]T(nil), ds.Data...),
			SampleRate: ds.SampleRate,
			Timestamp:  ds.Timestamp,
		})
		if err := r.ReleaseRead(ds); err != nil {
			return out, errors.Wrap(err, "Engine", "Drain", "release "+endpoint)
		}
	}
	return out, nil
}

// DiscardOutput drops everything queued on an open output without knowing its
// element type.
func (e *Engine) DiscardOutput(endpoint string) (datasets, samples int, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	h, ok := e.openOutputs[endpoint]
	if !ok {
		return 0, 0, errors.WrapInvalid(
			fmt.Errorf("%w: %s is not an open output", errors.ErrPortMismatch, endpoint),
			"Engine", "DiscardOutput", "endpoint lookup")
	}
	d, ok := h.(interface{ Discard() (int, int) })
	if !ok {
		return 0, 0, errors.WrapFatal(errors.ErrUnsupportedDataType, "Engine", "DiscardOutput", "discard "+endpoint)
	}
	datasets, samples = d.Discard()
	return datasets, samples, nil
}
