package fuzzy

import "fmt"

// Membership is a piecewise-linear membership shape evaluated pointwise,
// producing a degree in [0,1]. Implementations are pure and zero outside
// their support.
type Membership interface {
	Evaluate(x float64) float64
}

// Triangle is the triangular shape (a, b, c): a linear ramp a→b rising
// 0→1 and a ramp b→c falling 1→0. Degenerate shoulders (a == b or
// b == c) produce a step.
type Triangle struct {
	A, B, C float64
}

// NewTriangle validates a ≤ b ≤ c.
func NewTriangle(a, b, c float64) (Triangle, error) {
	if a > b || b > c {
		return Triangle{}, fmt.Errorf("triangle: parameters must satisfy a ≤ b ≤ c, got (%v, %v, %v)", a, b, c)
	}
	return Triangle{A: a, B: b, C: c}, nil
}

func (t Triangle) Evaluate(x float64) float64 {
	if x == t.B {
		return 1
	}
	if x <= t.A || x >= t.C {
		return 0
	}
	if x < t.B {
		return (x - t.A) / (t.B - t.A)
	}
	return (t.C - x) / (t.C - t.B)
}

// Trapezoid is the trapezoidal shape (a, b, c, d): a ramp a→b rising 0→1,
// a plateau of 1 over [b, c], and a ramp c→d falling 1→0. Degenerate
// shoulders (a == b or c == d) produce a step.
type Trapezoid struct {
	A, B, C, D float64
}

// NewTrapezoid validates a ≤ b ≤ c ≤ d.
func NewTrapezoid(a, b, c, d float64) (Trapezoid, error) {
	if a > b || b > c || c > d {
		return Trapezoid{}, fmt.Errorf("trapezoid: parameters must satisfy a ≤ b ≤ c ≤ d, got (%v, %v, %v, %v)", a, b, c, d)
	}
	return Trapezoid{A: a, B: b, C: c, D: d}, nil
}

func (t Trapezoid) Evaluate(x float64) float64 {
	if x < t.A || x > t.D {
		return 0
	}
	if x >= t.B && x <= t.C {
		return 1
	}
	if x < t.B {
		return (x - t.A) / (t.B - t.A)
	}
	return (t.D - x) / (t.D - t.C)
}
