package modulation

import (
	"math"
	"math/bits"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDepth(t *testing.T) {
	assert.Equal(t, BPSK, NormalizeDepth(1))
	assert.Equal(t, QPSK, NormalizeDepth(2))
	assert.Equal(t, QAM16, NormalizeDepth(4))
	for _, d := range []int{-1, 0, 3, 5, 8, 64} {
		assert.Equal(t, BPSK, NormalizeDepth(d), "depth %d", d)
	}
	assert.False(t, Depth(3).Valid())
	assert.Equal(t, "qam16", QAM16.String())
	assert.Equal(t, "unknown", Depth(3).String())
}

func TestConstellationSizes(t *testing.T) {
	assert.Equal(t, 2, Constellation(BPSK).Len())
	assert.Equal(t, 4, Constellation(QPSK).Len())
	assert.Equal(t, 16, Constellation(QAM16).Len())
	assert.Equal(t, Constellation(BPSK).Points(), Constellation(Depth(7)).Points())
}

func TestConstellationUnitEnergy(t *testing.T) {
	for _, d := range []Depth{BPSK, QPSK, QAM16} {
		t.Run(d.String(), func(t *testing.T) {
			assert.InDelta(t, 1.0, Constellation(d).AverageEnergy(), 1e-6)
		})
	}
}

func TestConstellationPoints(t *testing.T) {
	a := float32(1 / math.Sqrt2)
	assert.Equal(t, []complex64{complex(1, 0), complex(-1, 0)}, Constellation(BPSK).Points())

	qpsk := Constellation(QPSK).Points()
	want := []complex64{complex(-a, -a), complex(-a, a), complex(a, -a), complex(a, a)}
	for i := range want {
		assertSymbol(t, want[i], qpsk[i])
	}

	s := float32(1 / math.Sqrt(10))
	levels := [][2]float32{
		{-1, -1}, {-1, -3}, {-3, -1}, {-3, -3},
		{-1, 1}, {-1, 3}, {-3, 1}, {-3, 3},
		{1, -1}, {1, -3}, {3, -1}, {3, -3},
		{1, 1}, {1, 3}, {3, 1}, {3, 3},
	}
	qam := Constellation(QAM16)
	for i, l := range levels {
		assertSymbol(t, complex(l[0]*s, l[1]*s), qam.At(i))
	}
}

// Nearest neighbours must differ in exactly one bit.
func TestConstellationGrayCoded(t *testing.T) {
	for _, d := range []Depth{QPSK, QAM16} {
		t.Run(d.String(), func(t *testing.T) {
			pts := Constellation(d).Points()

			minDist := math.Inf(1)
			for i := range pts {
				for j := i + 1; j < len(pts); j++ {
					minDist = math.Min(minDist, dist(pts[i], pts[j]))
				}
			}

			pairs := 0
			for i := range pts {
				for j := i + 1; j < len(pts); j++ {
					if math.Abs(dist(pts[i], pts[j])-minDist) < 1e-5 {
						pairs++
						assert.Equal(t, 1, bits.OnesCount(uint(i^j)), "points %d and %d", i, j)
					}
				}
			}
			require.Positive(t, pairs)
		})
	}
}

func TestTablePointsReturnsCopy(t *testing.T) {
	pts := Constellation(QPSK).Points()
	pts[0] = 42

	assert.NotEqual(t, complex64(42), Constellation(QPSK).At(0))
}

func dist(a, b complex64) float64 {
	d := a - b
	return math.Hypot(float64(real(d)), float64(imag(d)))
}

func assertSymbol(t *testing.T, want, got complex64) {
	t.Helper()
	assert.InDelta(t, real(want), real(got), 1e-6)
	assert.InDelta(t, imag(want), imag(got), 1e-6)
}
