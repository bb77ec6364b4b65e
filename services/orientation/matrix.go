package orientation

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"

	"rq-formatter/models"
)

// Layout is the number of elements of a row-major rotation matrix.
type Layout int

const (
	Layout3x3 Layout = 9  // plain 3x3 rotation
	Layout4x4 Layout = 16 // homogeneous transform with zero translation
)

// LayoutFromLen validates a configured element count.
func LayoutFromLen(n int) (Layout, error) {
	switch Layout(n) {
	case Layout3x3, Layout4x4:
		return Layout(n), nil
	}
	return 0, fmt.Errorf("rotation matrix must have 9 or 16 elements, got %d", n)
}

func (l Layout) stride() int {
	if l == Layout4x4 {
		return 4
	}
	return 3
}

// RotationMatrix is an immutable row-major rotation matrix. Copies never
// share storage.
type RotationMatrix struct {
	layout Layout
	m      [16]float64
}

// Identity returns the identity matrix in the given layout.
func Identity(l Layout) RotationMatrix {
	r := RotationMatrix{layout: l}
	s := l.stride()
	for i := 0; i < s; i++ {
		r.m[i*s+i] = 1
	}
	return r
}

// QuaternionFromSample builds the unit quaternion of a rotation-vector
// reading. A missing scalar is derived as sqrt(1 - x² - y² - z²), clamped at
// zero for vectors whose norm exceeds one.
func QuaternionFromSample(s models.RotationSample) quat.Number {
	q := quat.Number{Imag: s.X, Jmag: s.Y, Kmag: s.Z}
	if s.HasScalar {
		q.Real = s.Scalar
		return q
	}
	q.Real = math.Sqrt(math.Max(0, 1-s.X*s.X-s.Y*s.Y-s.Z*s.Z))
	return q
}

// FromQuaternion converts q = (Real; Imag, Jmag, Kmag) into a rotation matrix.
// The input is not normalised; a non-unit quaternion gives a matrix that is
// not orthonormal.
func FromQuaternion(q quat.Number, l Layout) RotationMatrix {
	q0, q1, q2, q3 := q.Real, q.Imag, q.Jmag, q.Kmag

	sqQ1 := 2 * q1 * q1
	sqQ2 := 2 * q2 * q2
	sqQ3 := 2 * q3 * q3
	q1q2 := 2 * q1 * q2
	q3q0 := 2 * q3 * q0
	q1q3 := 2 * q1 * q3
	q2q0 := 2 * q2 * q0
	q2q3 := 2 * q2 * q3
	q1q0 := 2 * q1 * q0

	rows := [3][3]float64{
		{1 - sqQ2 - sqQ3, q1q2 - q3q0, q1q3 + q2q0},
		{q1q2 + q3q0, 1 - sqQ1 - sqQ3, q2q3 - q1q0},
		{q1q3 - q2q0, q2q3 + q1q0, 1 - sqQ1 - sqQ2},
	}

	r := RotationMatrix{layout: l}
	s := l.stride()
	for i := 0; i < 3; i++ {
		copy(r.m[i*s:i*s+3], rows[i][:])
	}
	if l == Layout4x4 {
		r.m[15] = 1
	}
	return r
}

// At returns element (i, j) of the layout's full matrix.
func (r RotationMatrix) At(i, j int) float64 {
	return r.m[i*r.layout.stride()+j]
}

// Values returns a copy of the row-major elements (9 or 16 of them).
func (r RotationMatrix) Values() []float64 {
	out := make([]float64, r.layout)
	copy(out, r.m[:r.layout])
	return out
}

// Dense returns the 3x3 rotation block as a gonum matrix.
func (r RotationMatrix) Dense() *mat.Dense {
	d := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			d.Set(i, j, r.At(i, j))
		}
	}
	return d
}
