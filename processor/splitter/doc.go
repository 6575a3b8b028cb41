// Package splitter provides a stream processor that copies every input DataSet
// to one or more of its outputs.
//
// # Configuration
//
//	{
//	  "numoutputs": 3,        // output1..output3, fixed at creation (1-10)
//	  "activeports": "1,3"    // runtime; "all" or comma separated port numbers
//	}
//
// activeports tokens are read by their first decimal digit only, so ports
// above 9 cannot be selected individually ("10" selects output1). Tokens that
// name no existing port are ignored, and an empty selection silently discards
// the input.
//
// # Processing
//
// Each Process call reads one DataSet from input1 and writes a copy, including
// SampleRate and Timestamp, to every active output. Outputs always carry the
// input's element type. Any of the fourteen element types is accepted; the
// generic router is instantiated once per type.
//
// Process requires exactly one input handle and numoutputs output handles. The
// input DataSet is released before Process returns, whether or not an output
// write failed.
package splitter
