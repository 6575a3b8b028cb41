package buffer

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrepuschmann/iris-modules-ospecorr/errors"
	"github.com/andrepuschmann/iris-modules-ospecorr/metric"
	"github.com/andrepuschmann/iris-modules-ospecorr/types"
)

func TestStreamWriteThenRead(t *testing.T) {
	s, err := NewStream[float32]("test", 4)
	require.NoError(t, err)

	assert.Equal(t, "test", s.Name())
	assert.Equal(t, types.Float32, s.DataType())
	assert.False(t, s.HasData())

	ds, err := s.AcquireWrite(3)
	require.NoError(t, err)
	require.Len(t, ds.Data, 3)
	copy(ds.Data, []float32{1, 2, 3})
	ds.SampleRate = 48000
	ds.Timestamp = 1.5
	require.NoError(t, s.ReleaseWrite(ds))

	assert.True(t, s.HasData())
	assert.Equal(t, 1, s.Len())

	in, err := s.AcquireRead()
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, in.Data)
	assert.Equal(t, 48000.0, in.SampleRate)
	assert.Equal(t, 1.5, in.Timestamp)
	require.NoError(t, s.ReleaseRead(in))

	assert.False(t, s.HasData())

	stats := s.Stats().Summary()
	assert.Equal(t, int64(1), stats.WriteAcquires)
	assert.Equal(t, int64(1), stats.WriteReleases)
	assert.Equal(t, int64(1), stats.ReadAcquires)
	assert.Equal(t, int64(1), stats.ReadReleases)
	assert.Equal(t, int64(3), stats.SamplesIn)
	assert.Equal(t, int64(3), stats.SamplesOut)
	assert.Equal(t, int64(1), stats.MaxSize)
}

func TestStreamFIFOOrder(t *testing.T) {
	s, err := NewStream[int32]("fifo", 3)
	require.NoError(t, err)

	for i := int32(0); i < 3; i++ {
		require.NoError(t, Write[int32](s, []int32{i, i}, 0, float64(i)))
	}

	for i := int32(0); i < 3; i++ {
		ds, err := s.AcquireRead()
		require.NoError(t, err)
		assert.Equal(t, []int32{i, i}, ds.Data)
		assert.Equal(t, float64(i), ds.Timestamp)
		require.NoError(t, s.ReleaseRead(ds))
	}
}

func TestStreamZeroLengthDataSet(t *testing.T) {
	s, err := NewStream[uint8]("empty", 2)
	require.NoError(t, err)

	ds, err := s.AcquireWrite(0)
	require.NoError(t, err)
	assert.Empty(t, ds.Data)
	require.NoError(t, s.ReleaseWrite(ds))

	got, err := ReadAll[uint8](s)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, int64(1), s.Stats().ReadReleases())
}

func TestStreamPairingRules(t *testing.T) {
	s, err := NewStream[int16]("pairing", 2)
	require.NoError(t, err)

	t.Run("double write acquire", func(t *testing.T) {
		ds, err := s.AcquireWrite(1)
		require.NoError(t, err)

		_, err = s.AcquireWrite(1)
		assert.ErrorIs(t, err, errors.ErrAlreadyAcquired)
		assert.True(t, errors.IsFatal(err))

		require.NoError(t, s.ReleaseWrite(ds))
	})

	t.Run("release foreign write", func(t *testing.T) {
		err := s.ReleaseWrite(&DataSet[int16]{})
		assert.ErrorIs(t, err, errors.ErrInvalidRelease)
		assert.ErrorIs(t, s.ReleaseWrite(nil), errors.ErrInvalidRelease)
	})

	t.Run("double read acquire", func(t *testing.T) {
		ds, err := s.AcquireRead()
		require.NoError(t, err)

		_, err = s.AcquireRead()
		assert.ErrorIs(t, err, errors.ErrAlreadyAcquired)

		require.NoError(t, s.ReleaseRead(ds))
	})

	t.Run("release read twice", func(t *testing.T) {
		require.NoError(t, Write[int16](s, []int16{7}, 0, 0))
		ds, err := s.AcquireRead()
		require.NoError(t, err)
		require.NoError(t, s.ReleaseRead(ds))

		err = s.ReleaseRead(ds)
		assert.ErrorIs(t, err, errors.ErrInvalidRelease)
	})

	t.Run("read empty", func(t *testing.T) {
		_, err := s.AcquireRead()
		assert.ErrorIs(t, err, errors.ErrBufferEmpty)
		assert.True(t, errors.IsTransient(err))
	})

	t.Run("negative size", func(t *testing.T) {
		_, err := s.AcquireWrite(-1)
		assert.ErrorIs(t, err, errors.ErrInvalidData)
		assert.True(t, errors.IsInvalid(err))
	})
}

func TestStreamOverflowPolicies(t *testing.T) {
	t.Run("Reject", func(t *testing.T) {
		s, err := NewStream[float64]("reject", 2, WithOverflowPolicy(Reject))
		require.NoError(t, err)

		require.NoError(t, Write[float64](s, []float64{1}, 0, 0))
		require.NoError(t, Write[float64](s, []float64{2}, 0, 0))

		_, err = s.AcquireWrite(1)
		assert.ErrorIs(t, err, errors.ErrBufferFull)
		assert.True(t, errors.IsTransient(err))
		assert.Equal(t, int64(1), s.Stats().Overflows())
		assert.Equal(t, 2, s.Len())
	})

	t.Run("DropOldest", func(t *testing.T) {
		s, err := NewStream[float64]("drop", 2, WithOverflowPolicy(DropOldest))
		require.NoError(t, err)

		for i := 1; i <= 4; i++ {
			require.NoError(t, Write[float64](s, []float64{float64(i)}, 0, 0))
		}

		got, err := ReadAll[float64](s)
		require.NoError(t, err)
		assert.Equal(t, []float64{3, 4}, got)
		assert.Equal(t, int64(2), s.Stats().Drops())
	})

	t.Run("DropOldest skips DataSet held by reader", func(t *testing.T) {
		s, err := NewStream[float64]("drop-held", 2, WithOverflowPolicy(DropOldest))
		require.NoError(t, err)

		require.NoError(t, Write[float64](s, []float64{1}, 0, 0))
		require.NoError(t, Write[float64](s, []float64{2}, 0, 0))

		held, err := s.AcquireRead()
		require.NoError(t, err)

		require.NoError(t, Write[float64](s, []float64{3}, 0, 0))
		assert.Equal(t, []float64{1}, held.Data)
		require.NoError(t, s.ReleaseRead(held))

		got, err := ReadAll[float64](s)
		require.NoError(t, err)
		assert.Equal(t, []float64{3}, got)
	})

	t.Run("DropOldest depth one with reader", func(t *testing.T) {
		s, err := NewStream[float64]("drop-one", 1, WithOverflowPolicy(DropOldest))
		require.NoError(t, err)

		require.NoError(t, Write[float64](s, []float64{1}, 0, 0))
		held, err := s.AcquireRead()
		require.NoError(t, err)

		_, err = s.AcquireWrite(1)
		assert.ErrorIs(t, err, errors.ErrBufferFull)
		require.NoError(t, s.ReleaseRead(held))
	})

	t.Run("Block", func(t *testing.T) {
		s, err := NewStream[float64]("block", 1)
		require.NoError(t, err)
		require.NoError(t, Write[float64](s, []float64{1}, 0, 0))

		done := make(chan error, 1)
		go func() {
			done <- Write[float64](s, []float64{2}, 0, 0)
		}()

		select {
		case <-done:
			t.Fatal("write should block while the stream is full")
		case <-time.After(20 * time.Millisecond):
		}

		ds, err := s.AcquireRead()
		require.NoError(t, err)
		require.NoError(t, s.ReleaseRead(ds))

		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("blocked write did not resume")
		}
	})

	t.Run("Block with context", func(t *testing.T) {
		s, err := NewStream[float64]("block-ctx", 1)
		require.NoError(t, err)
		require.NoError(t, Write[float64](s, []float64{1}, 0, 0))

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		_, err = s.AcquireWriteContext(ctx, 1)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.True(t, errors.IsTransient(err))
	})
}

func TestStreamClose(t *testing.T) {
	s, err := NewStream[complex64]("close", 1)
	require.NoError(t, err)
	require.NoError(t, Write[complex64](s, []complex64{1 + 1i}, 0, 0))

	done := make(chan error, 1)
	go func() {
		_, err := s.AcquireWrite(1)
		done <- err
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	select {
	case err := <-done:
		assert.ErrorIs(t, err, errors.ErrBufferClosed)
	case <-time.After(time.Second):
		t.Fatal("close did not wake blocked writer")
	}

	// Queued data stays readable after close.
	got, err := ReadAll[complex64](s)
	require.NoError(t, err)
	assert.Equal(t, []complex64{1 + 1i}, got)

	_, err = s.AcquireRead()
	assert.ErrorIs(t, err, errors.ErrBufferClosed)
}

func TestStreamAcquireReadContext(t *testing.T) {
	s, err := NewStream[uint16]("wait", 2)
	require.NoError(t, err)

	go func() {
		time.Sleep(10 * time.Millisecond)
		_ = Write[uint16](s, []uint16{42}, 0, 0)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	ds, err := s.AcquireReadContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint16{42}, ds.Data)
	require.NoError(t, s.ReleaseRead(ds))
}

func TestStreamRecyclesStorage(t *testing.T) {
	s, err := NewStream[int64]("recycle", 1)
	require.NoError(t, err)

	ds, err := s.AcquireWrite(16)
	require.NoError(t, err)
	first := &ds.Data[0]
	require.NoError(t, s.ReleaseWrite(ds))

	in, err := s.AcquireRead()
	require.NoError(t, err)
	require.NoError(t, s.ReleaseRead(in))

	ds, err = s.AcquireWrite(8)
	require.NoError(t, err)
	assert.Len(t, ds.Data, 8)
	assert.Same(t, first, &ds.Data[0])
	assert.Zero(t, ds.SampleRate)
	require.NoError(t, s.ReleaseWrite(ds))
}

func TestStreamDiscard(t *testing.T) {
	s, err := NewStream[float32]("discard", 4)
	require.NoError(t, err)

	require.NoError(t, Write[float32](s, []float32{1, 2}, 0, 0))
	require.NoError(t, Write[float32](s, []float32{3, 4, 5}, 0, 0))
	require.NoError(t, Write[float32](s, []float32{6}, 0, 0))

	held, err := s.AcquireRead()
	require.NoError(t, err)

	datasets, samples := s.Discard()
	assert.Equal(t, 2, datasets)
	assert.Equal(t, 4, samples)
	assert.Equal(t, 1, s.Len(), "the DataSet held by the reader stays queued")
	assert.Equal(t, int64(2), s.Stats().Drops())

	require.NoError(t, s.ReleaseRead(held))
	assert.False(t, s.HasData())

	datasets, samples = s.Discard()
	assert.Zero(t, datasets)
	assert.Zero(t, samples)
}

func TestStreamConcurrentProducerConsumer(t *testing.T) {
	s, err := NewStream[uint32]("concurrent", 4)
	require.NoError(t, err)

	const blocks = 200
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < blocks; i++ {
			assert.NoError(t, Write[uint32](s, []uint32{uint32(i)}, 0, 0))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for i := 0; i < blocks; i++ {
		ds, err := s.AcquireReadContext(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint32(i), ds.Data[0])
		require.NoError(t, s.ReleaseRead(ds))
	}
	wg.Wait()

	assert.Equal(t, int64(blocks), s.Stats().SamplesOut())
	assert.LessOrEqual(t, s.Stats().MaxSize(), int64(4))
}

func TestNewStreamInvalidDepth(t *testing.T) {
	_, err := NewStream[uint8]("bad", 0)
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)
}

func TestNewHandleAllTypes(t *testing.T) {
	for _, dt := range types.AllDataTypes() {
		t.Run(dt.String(), func(t *testing.T) {
			h, err := NewHandle(dt, "h."+dt.String(), 2)
			require.NoError(t, err)
			assert.Equal(t, dt, h.DataType())
			assert.Equal(t, "h."+dt.String(), h.Name())
		})
	}

	h, err := NewHandle(types.Complex64, "typed", 1)
	require.NoError(t, err)
	_, ok := h.(WriteBuffer[complex64])
	assert.True(t, ok)
	_, ok = h.(ReadBuffer[float32])
	assert.False(t, ok)

	_, err = NewHandle(types.DataType(99), "bogus", 1)
	assert.ErrorIs(t, err, errors.ErrUnsupportedDataType)
}

func TestLongDoubleTypesAreDistinct(t *testing.T) {
	h, err := NewHandle(types.LongDoubleType, "ld", 1)
	require.NoError(t, err)

	_, ok := h.(WriteBuffer[types.LongDouble])
	assert.True(t, ok)
	_, ok = h.(WriteBuffer[float64])
	assert.False(t, ok)
}

func TestParseOverflowPolicy(t *testing.T) {
	cases := map[string]OverflowPolicy{
		"":            Block,
		"block":       Block,
		"drop_oldest": DropOldest,
		"DropOldest":  DropOldest,
		"reject":      Reject,
	}
	for name, want := range cases {
		got, err := ParseOverflowPolicy(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseOverflowPolicy("drop_newest")
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)
	assert.Equal(t, "Reject", Reject.String())
	assert.Equal(t, "Unknown", OverflowPolicy(9).String())
}

func TestStreamMetrics(t *testing.T) {
	registry := metric.NewMetricsRegistry()

	a, err := NewStream[uint8]("a", 2, WithMetrics(registry), WithOverflowPolicy(Reject))
	require.NoError(t, err)
	b, err := NewStream[uint8]("b", 2, WithMetrics(registry))
	require.NoError(t, err)

	require.NoError(t, Write[uint8](a, []uint8{1, 2, 3}, 0, 0))
	require.NoError(t, Write[uint8](a, []uint8{4}, 0, 0))
	_, err = a.AcquireWrite(1)
	require.Error(t, err)
	require.NoError(t, Write[uint8](b, []uint8{9}, 0, 0))

	assert.Equal(t, 2.0, testutil.ToFloat64(a.metrics.datasets))
	assert.Equal(t, 4.0, testutil.ToFloat64(a.metrics.samples))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.metrics.overflows))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.metrics.utilization))
	assert.Equal(t, 1.0, testutil.ToFloat64(b.metrics.datasets))
	assert.Equal(t, 0.5, testutil.ToFloat64(b.metrics.utilization))
}
