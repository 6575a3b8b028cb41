package testutil

// SplitterFlowYAML is a two-component flow: a splitter feeding a QAM modulator
// on its first output, with the second output left open.
const SplitterFlowYAML = `
name: split-modulate
components:
  split:
    type: processor
    name: splitter
    config:
      numoutputs: 2
      activeports: all
  qam:
    type: modulator
    name: qammodulator
    config:
      modulationdepth: 2
links:
  - from: split.output1
    to: qam.input1
inputs:
  split.input1: uint8
`

// SplitterOnlyFlowJSON is a single splitter with three outputs, encoded as JSON.
const SplitterOnlyFlowJSON = `{
  "name": "fanout",
  "components": {
    "split": {
      "type": "processor",
      "name": "splitter",
      "config": {"numoutputs": 3, "activeports": "1,3"}
    }
  },
  "inputs": {"split.input1": "float32"}
}`
