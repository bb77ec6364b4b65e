package orientation

import "rq-formatter/models"

// Tracker owns the device attitude for a whole conversion. It starts at the
// identity and every rotation sample replaces the matrix outright.
type Tracker struct {
	layout  Layout
	current RotationMatrix
	updates int
}

// NewTracker starts at the identity matrix in layout l.
func NewTracker(l Layout) *Tracker {
	return &Tracker{layout: l, current: Identity(l)}
}

// Update replaces the current matrix with the one derived from s and
// returns it.
func (t *Tracker) Update(s models.RotationSample) RotationMatrix {
	t.current = FromQuaternion(QuaternionFromSample(s), t.layout)
	t.updates++
	return t.current
}

// Matrix returns the attitude as of the most recent update.
func (t *Tracker) Matrix() RotationMatrix { return t.current }

// Updates returns how many rotation samples have been applied.
func (t *Tracker) Updates() int { return t.updates }
