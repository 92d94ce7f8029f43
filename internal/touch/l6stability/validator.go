package l6stability

import "github.com/banshee-data/touchd/internal/touch"

// Validator rejects contacts with an implausible footprint, such as palms
// or the edge of a hand resting on the screen.
type Validator struct {
	config ValidatorConfig
	last   touch.Frame
}

// NewValidator validates config and returns a validator.
func NewValidator(config ValidatorConfig) (*Validator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Validator{config: config}, nil
}

// Reset forgets the previous frame.
func (v *Validator) Reset() {
	v.last = v.last[:0]
}

// Validate sets Valid on every contact of frame and remembers the result for
// the next cycle.
func (v *Validator) Validate(frame touch.Frame) {
	for i := range frame {
		frame[i].Valid = v.check(frame[i])
	}
	v.last = frame.CopyInto(v.last)
}

func (v *Validator) check(c touch.Contact) bool {
	// A tracked contact that is unstable this frame keeps its benefit of the
	// doubt; its footprint is still in motion.
	if c.Tracked() && !c.Stable {
		return true
	}

	if v.config.TrackValidity && !v.wasValid(c) {
		return false
	}

	if v.config.SizeLimits != nil && !v.config.SizeLimits.Contains(c.Size.Max()) {
		return false
	}

	if v.config.AspectLimits != nil {
		aspect := c.Size.Max() / c.Size.Min()
		if !v.config.AspectLimits.Contains(aspect) {
			return false
		}
	}

	return true
}

// wasValid reports the validity of c in the previous frame. Contacts that
// were not seen before count as valid.
func (v *Validator) wasValid(c touch.Contact) bool {
	if c.Index == nil {
		return true
	}
	prior, ok := v.last.Find(*c.Index)
	if !ok {
		return true
	}
	return prior.Valid
}
