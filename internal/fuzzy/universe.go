package fuzzy

import (
	"fmt"
	"math"
)

// Universe is a bounded, discretized numeric domain for one variable.
// It is immutable once created.
type Universe struct {
	Min  float64
	Max  float64
	Step float64
}

// NewUniverse validates the bounds and step of a universe of discourse.
func NewUniverse(min, max, step float64) (Universe, error) {
	if !(min < max) {
		return Universe{}, fmt.Errorf("universe: min %v must be below max %v", min, max)
	}
	if step <= 0 || math.IsNaN(step) || math.IsInf(step, 0) {
		return Universe{}, fmt.Errorf("universe: step %v must be a positive finite number", step)
	}
	n := (max - min) / step
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return Universe{}, fmt.Errorf("universe: [%v,%v] step %v yields no finite sampling", min, max, step)
	}
	return Universe{Min: min, Max: max, Step: step}, nil
}

// Clamp forces x into [Min, Max]. NaN clamps to Min so downstream
// arithmetic stays finite.
func (u Universe) Clamp(x float64) float64 {
	if x < u.Min || math.IsNaN(x) {
		return u.Min
	}
	if x > u.Max {
		return u.Max
	}
	return x
}

// Points returns the fixed ordered sample sequence Min + i·Step.
// The last point may fall a rounding error short of Max; it never exceeds it.
func (u Universe) Points() []float64 {
	n := int(math.Round((u.Max-u.Min)/u.Step)) + 1
	pts := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		x := u.Min + float64(i)*u.Step
		if x > u.Max+u.Step*1e-9 {
			break
		}
		pts = append(pts, x)
	}
	return pts
}
