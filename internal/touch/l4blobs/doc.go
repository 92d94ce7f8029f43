// Package l4blobs owns Layer 4 (Blobs) of the touch data model.
//
// Responsibilities: neutral value subtraction, blurring, cluster spanning
// around local maxima, merging of overlapping clusters and ellipse fitting.
// Key types: Detector, BasicDetector, Box.
//
// Contacts produced here carry no identity (Index is nil) and are never
// stable; identities are assigned by l5tracks.
//
// Dependency rule: L4 may depend on L1-L3, but never on L5+.
package l4blobs
