// Package touch holds the types shared by every layer of the touch
// processing pipeline.
//
// Layers, leaves first:
//
//	l1reports   bounds-checked byte reader and device report parser
//	l2heatmap   dense grids and heatmap preprocessing
//	l3maxima    local maxima search
//	l4blobs     cluster spanning and ellipse fitting (raw contacts)
//	l5tracks    frame-to-frame identity assignment
//	l6stability temporal stabilization and validation
//	pipeline    the per-cycle orchestration of all of the above
//
// Dependency rule: a layer may depend on lower layers and on this package,
// never on a higher layer.
package touch
