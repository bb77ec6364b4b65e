package orientation

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"rq-formatter/models"
)

// Rotate maps a device-frame vector into the Earth frame: result = R·v using
// the 3x3 rotation block of r.
func Rotate(v models.Vector3, r RotationMatrix) models.Vector3 {
	in := mat.NewVecDense(3, []float64{v[0], v[1], v[2]})
	var out mat.VecDense
	out.MulVec(r.Dense(), in)
	return models.Vector3{out.AtVec(0), out.AtVec(1), out.AtVec(2)}
}

// VerticalDelta is |gravity - z| of the Earth-frame vector: the magnitude of
// the motion-induced vertical acceleration.
func VerticalDelta(v models.Vector3, r RotationMatrix, gravity float64) float64 {
	return math.Abs(gravity - Rotate(v, r)[2])
}
