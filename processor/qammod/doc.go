// Package qammod wraps the modulation package as a stream component.
//
// The component reads one uint8 DataSet from input1 and writes exactly
// len*8/depth complex64 symbols to output1, carrying SampleRate and Timestamp
// across. modulationdepth (1, 2 or 4) may be changed between Process calls.
package qammod
