// Package pipeline wires the touch layers into the per-cycle processing
// loop.
//
// A Finder turns one normalized heatmap into validated, stabilized contacts.
// An Application decodes device reports, drives the Finder for every touch
// sample and fans the results out to Sinks. A Runtime pulls reports from a
// device source and feeds them to an Application until its context ends.
//
// Dependency rule: the pipeline may depend on every touch layer, never the
// other way round.
package pipeline
