// Package l2heatmap owns the dense sample grid that every cycle of the touch
// pipeline operates on, and the preprocessing applied to it before contact
// detection: normalization of device samples, neutral value estimation and
// blurring.
//
// Key types: Grid, NeutralAlgorithm.
//
// Dependency rule: L2 may depend on L1, never on L3+.
package l2heatmap
