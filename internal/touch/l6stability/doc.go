// Package l6stability owns Layer 6 (Stability) of the touch data model.
//
// The Stabilizer takes tracked contacts and a rolling history of committed
// frames, suppresses frame-to-frame jitter with per-attribute hysteresis
// bands and flags contacts whose attributes changed too abruptly to trust.
// The Validator then rejects contacts whose footprint is implausible.
//
// Both types keep per-stream state and are not safe for concurrent use.
// Run one instance per input stream.
//
// Dependency rule: L6 may depend on L1-L5, never on the pipeline.
package l6stability
