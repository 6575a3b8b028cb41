package splitter

import (
	"fmt"

	"github.com/andrepuschmann/iris-modules-ospecorr/errors"
	"github.com/andrepuschmann/iris-modules-ospecorr/pkg/buffer"
	"github.com/andrepuschmann/iris-modules-ospecorr/types"
)

// route copies one input DataSet to every active output. The input DataSet is
// released on every return path; a failing output aborts the remaining ports.
// It returns the number of samples in the routed DataSet.
func route[T types.Element](in buffer.Handle, outs []buffer.Handle, active []int) (samples int, err error) {
	reader, ok := in.(buffer.ReadBuffer[T])
	if !ok {
		return 0, errors.WrapFatal(
			fmt.Errorf("%w: input %s is not a %s stream", errors.ErrTypeMismatch, in.Name(), types.TypeOf[T]()),
			"Splitter", "route", "input type assertion")
	}

	src, err := reader.AcquireRead()
	if err != nil {
		return 0, errors.Wrap(err, "Splitter", "route", "acquire input")
	}
	defer func() {
		if relErr := reader.ReleaseRead(src); relErr != nil && err == nil {
			err = errors.Wrap(relErr, "Splitter", "route", "release input")
		}
	}()

	for _, idx := range active {
		writer, ok := outs[idx].(buffer.WriteBuffer[T])
		if !ok {
			return 0, errors.WrapFatal(
				fmt.Errorf("%w: output %d is not a %s stream", errors.ErrTypeMismatch, idx+1, types.TypeOf[T]()),
				"Splitter", "route", "output type assertion")
		}

		dst, werr := writer.AcquireWrite(len(src.Data))
		if werr != nil {
			return 0, errors.Wrap(werr, "Splitter", "route", fmt.Sprintf("acquire output%d", idx+1))
		}
		copy(dst.Data, src.Data)
		dst.SampleRate = src.SampleRate
		dst.Timestamp = src.Timestamp

		if werr := writer.ReleaseWrite(dst); werr != nil {
			return 0, errors.Wrap(werr, "Splitter", "route", fmt.Sprintf("release output%d", idx+1))
		}
	}

	return len(src.Data), nil
}
