// Package fuzzy implements a small Mamdani fuzzy-inference engine over
// discretized universes.
//
// # Pipeline
//
// A simulation runs the classic max-min pipeline:
//
//	fuzzify    crisp input → per-term membership degrees (clamped to universe)
//	fire       rule strength = weight × min/max over its expression tree
//	implicate  clip each rule's consequent term curve at its firing strength
//	aggregate  pointwise max of all clipped curves on the consequent universe
//	defuzzify  centroid Σ(xᵢ·μᵢ) / Σ(μᵢ) over the sampled points
//
// # Discretization
//
// Each Variable owns a Universe (min, max, step). The consequent's step
// fixes the numeric precision of the centroid; all consumers of a variable
// share the same sampling. Membership functions themselves are evaluated
// analytically, so antecedent fuzzification does not interpolate between
// sample points.
//
// # Immutability and concurrency
//
// Variables, rules, and the Engine are built once and never mutated.
// Simulate allocates only call-local state, so a single Engine may be shared
// by any number of goroutines without locking.
package fuzzy
