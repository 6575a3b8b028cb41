package modulation

import (
	"math"
	"sync"
)

// Depth is the number of bits carried by one symbol.
type Depth int

// Supported modulation depths
const (
	BPSK  Depth = 1
	QPSK  Depth = 2
	QAM16 Depth = 4
)

// NormalizeDepth maps any depth outside {1, 2, 4} to BPSK.
func NormalizeDepth(depth int) Depth {
	switch d := Depth(depth); d {
	case BPSK, QPSK, QAM16:
		return d
	default:
		return BPSK
	}
}

// Valid reports whether d is a supported depth.
func (d Depth) Valid() bool {
	return d == BPSK || d == QPSK || d == QAM16
}

// String returns the conventional name of the modulation.
func (d Depth) String() string {
	switch d {
	case BPSK:
		return "bpsk"
	case QPSK:
		return "qpsk"
	case QAM16:
		return "qam16"
	default:
		return "unknown"
	}
}

// Table is an immutable Gray-coded constellation with unit average energy.
// Index i holds the symbol for the bit group i, most significant bit first.
type Table struct {
	points []complex64
}

// Len returns the number of constellation points.
func (t Table) Len() int { return len(t.points) }

// At returns the symbol for bit group i.
func (t Table) At(i int) complex64 { return t.points[i] }

// Points returns a copy of the constellation.
func (t Table) Points() []complex64 {
	out := make([]complex64, len(t.points))
	copy(out, t.points)
	return out
}

// AverageEnergy returns the mean of |s|^2 over all points.
func (t Table) AverageEnergy() float64 {
	if len(t.points) == 0 {
		return 0
	}
	var sum float64
	for _, p := range t.points {
		re, im := float64(real(p)), float64(imag(p))
		sum += re*re + im*im
	}
	return sum / float64(len(t.points))
}

var (
	bpskTable  = sync.OnceValue(buildBPSK)
	qpskTable  = sync.OnceValue(buildQPSK)
	qam16Table = sync.OnceValue(buildQAM16)
)

// Constellation returns the table for depth d. Unsupported depths get BPSK.
func Constellation(d Depth) Table {
	switch d {
	case QPSK:
		return qpskTable()
	case QAM16:
		return qam16Table()
	default:
		return bpskTable()
	}
}

func buildBPSK() Table {
	return Table{points: []complex64{
		complex(1, 0),
		complex(-1, 0),
	}}
}

// buildQPSK maps the first bit to the in-phase sign and the second bit to
// the quadrature sign.
func buildQPSK() Table {
	a := float32(1 / math.Sqrt2)
	points := make([]complex64, 4)
	for i := range points {
		points[i] = complex(sign(i&0b10 != 0)*a, sign(i&0b01 != 0)*a)
	}
	return Table{points: points}
}

// buildQAM16 uses b3 and b1 for the in-phase sign and level, b2 and b0 for
// the quadrature sign and level, on the {±1, ±3}/√10 lattice.
func buildQAM16() Table {
	scale := float32(1 / math.Sqrt(10))
	level := func(outer bool) float32 {
		if outer {
			return 3
		}
		return 1
	}

	points := make([]complex64, 16)
	for i := range points {
		re := sign(i&0b1000 != 0) * level(i&0b0010 != 0) * scale
		im := sign(i&0b0100 != 0) * level(i&0b0001 != 0) * scale
		points[i] = complex(re, im)
	}
	return Table{points: points}
}

func sign(positive bool) float32 {
	if positive {
		return 1
	}
	return -1
}
