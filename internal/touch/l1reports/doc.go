// Package l1reports owns Layer 1 (Reports) of the touch data model.
//
// Responsibilities: bounds-checked reading of raw device buffers and
// decoding of the digitizer wire protocol into heatmap, stylus and metadata
// samples.
// Key types: Reader, Parser, TouchSample.
//
// Dependency rule: L1 depends on nothing but the standard library.
package l1reports
