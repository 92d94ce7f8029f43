// Package l3maxima owns Layer 3 (Maxima) of the touch data model: the search
// for local peaks in a heatmap that seed contact detection.
//
// The comparison kernel mixes strict and non-strict tests so that a plateau
// of equal samples reports one representative instead of all or none:
//
//	[< ] [< ] [<=]
//	[< ] [  ] [<=]
//	[< ] [<=] [<=]
//
// Every "<" direction is paired with a "<=" in the opposite direction.
// Neighbours outside the grid are ignored.
//
// Dependency rule: L3 may depend on L1-L2, never on L4+.
package l3maxima
