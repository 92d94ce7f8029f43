// Package l5tracks owns Layer 5 (Tracks) of the touch data model.
//
// Responsibilities: frame-to-frame identity assignment for contacts using
// optimal (Hungarian) assignment on centroid distance.
// Key types: Tracker.
//
// An index, once assigned, refers to the same physical contact for as long
// as the tracker keeps matching it. Temporal logic in l6stability depends on
// this.
//
// Dependency rule: L5 may depend on L1-L4, but never on L6.
package l5tracks
