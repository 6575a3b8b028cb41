// Package modulation maps packed bits to complex baseband symbols.
//
// Three Gray-coded constellations with unit average energy are supported,
// selected by modulation depth (bits per symbol):
//
//	1  BPSK   {+1, -1}
//	2  QPSK   {±1, ±1}/√2
//	4  16-QAM {±1, ±3}/√10 per axis
//
// Tables are built once on first use and never change. Modulate reads each
// input byte most significant bit first, so a byte yields 8, 4 or 2 symbols.
//
//	out := make([]complex64, modulation.RequiredSymbols(len(bits), 2))
//	n, err := modulation.Modulate(bits, out, 2)
package modulation
