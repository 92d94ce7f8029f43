package touch

import "math"

// Point is an integer grid coordinate. X indexes columns, Y indexes rows.
type Point struct {
	X int
	Y int
}

// Vec2 is a pair of floating point values (position, extents, limits).
type Vec2 struct {
	X float64
	Y float64
}

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{X: v.X - o.X, Y: v.Y - o.Y}
}

// Norm returns the euclidean length of v.
func (v Vec2) Norm() float64 {
	return math.Hypot(v.X, v.Y)
}

// Max returns the larger component.
func (v Vec2) Max() float64 {
	return math.Max(v.X, v.Y)
}

// Min returns the smaller component.
func (v Vec2) Min() float64 {
	return math.Min(v.X, v.Y)
}

// Contact is a single touch estimate for one sampling cycle.
//
// Contacts are created by the blob extractor with a nil Index and
// Stable == false. The tracker assigns Index; the stabilizer owns Stable for
// tracked contacts and never touches it for untracked ones.
type Contact struct {
	// Index is the persistent identity assigned by the tracker. nil means the
	// contact could not be tracked this frame.
	Index *int

	// Mean is the centre of the contact.
	// Range: [0, 1] if normalized, [0, <input dimensions>] if not.
	Mean Vec2

	// Size holds the diameters of the minor and major axis (both >= 0).
	Size Vec2

	// Orientation of the major axis, modulo a half turn.
	// Range: [0, 1) if normalized, [0, pi) if not.
	Orientation float64

	// Normalized selects the domain of Mean, Size and Orientation.
	Normalized bool

	// Stable reports whether the attributes can be trusted this frame.
	Stable bool

	// Valid reports whether the contact passed size and aspect validation.
	Valid bool
}

// Tracked reports whether the contact carries an identity.
func (c Contact) Tracked() bool {
	return c.Index != nil
}

// HasIndex reports whether the contact carries the given identity.
func (c Contact) HasIndex(index int) bool {
	return c.Index != nil && *c.Index == index
}

// OrientationModulus returns the wraparound modulus of the orientation
// domain: 1 for normalized contacts, pi otherwise.
func (c Contact) OrientationModulus() float64 {
	if c.Normalized {
		return 1
	}
	return math.Pi
}

// IndexOf returns a pointer to a copy of index, for building tracked contacts.
func IndexOf(index int) *int {
	return &index
}

// Frame is the ordered list of contacts of one sampling cycle. Order carries
// no meaning; contacts are matched across frames by Index.
type Frame []Contact

// Find returns the contact with the given index.
func (f Frame) Find(index int) (Contact, bool) {
	for _, c := range f {
		if c.HasIndex(index) {
			return c, true
		}
	}
	return Contact{}, false
}

// Contains reports whether any contact carries the given index.
func (f Frame) Contains(index int) bool {
	_, ok := f.Find(index)
	return ok
}

// Clone returns a deep copy of the frame. Index pointers are duplicated so
// that the copy shares no memory with f.
func (f Frame) Clone() Frame {
	return f.CopyInto(nil)
}

// CopyInto appends a deep copy of f to dst[:0] and returns it, reusing the
// capacity of dst.
func (f Frame) CopyInto(dst Frame) Frame {
	dst = dst[:0]
	for _, c := range f {
		if c.Index != nil {
			c.Index = IndexOf(*c.Index)
		}
		dst = append(dst, c)
	}
	return dst
}

// StableCount returns the number of contacts flagged stable.
func (f Frame) StableCount() int {
	n := 0
	for _, c := range f {
		if c.Stable {
			n++
		}
	}
	return n
}
