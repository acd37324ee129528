package errors

import "math"

// CheckFinite returns a ValueError when values contain NaN or Inf. Iterative
// solvers call it before accepting an update so instability surfaces as a
// typed error instead of propagating garbage coefficients.
func CheckFinite(op string, values ...float64) error {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return NewValueError(op, "non-finite value in computation")
		}
	}
	return nil
}
