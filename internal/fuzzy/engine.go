package fuzzy

import (
	"errors"
	"fmt"
)

// ErrNoRuleFired is returned by Simulate when no rule fires with nonzero
// strength: the aggregated output curve carries zero mass and a centroid
// cannot be computed. Callers decide whether to skip, default, or fail.
var ErrNoRuleFired = errors.New("no rule fired with nonzero strength")

// ErrMissingInput is returned by Simulate when a required antecedent value
// is absent from the input map.
var ErrMissingInput = errors.New("missing antecedent input")

// Point is one sample of the aggregated output curve.
type Point struct {
	X      float64
	Degree float64
}

// Result holds the crisp score and the aggregated membership curve over the
// consequent universe. The curve is intermediate state, exposed for tests
// and debugging; callers only need Score.
type Result struct {
	Score float64
	Curve []Point
}

// Engine composes linguistic variables with a validated rule base. It is
// immutable after construction and safe for concurrent Simulate calls.
type Engine struct {
	antecedents []*Variable
	consequent  *Variable
	rules       *RuleBase

	// Consequent sampling, fixed at construction: the ordered sample
	// points and each output term's curve evaluated at those points.
	samples []float64
	curves  map[string][]float64
}

// NewEngine validates the variable set (at least one antecedent, exactly
// one consequent) and the rule base, and precomputes the consequent
// sampling. Any violation is a configuration error: no partially built
// engine is returned.
func NewEngine(variables []*Variable, rules []Rule) (*Engine, error) {
	e := &Engine{curves: make(map[string][]float64)}
	for _, v := range variables {
		switch v.Role() {
		case Antecedent:
			e.antecedents = append(e.antecedents, v)
		case Consequent:
			if e.consequent != nil {
				return nil, fmt.Errorf("engine: multiple consequent variables (%s and %s)", e.consequent.Name(), v.Name())
			}
			e.consequent = v
		default:
			return nil, fmt.Errorf("engine: variable %s has unknown role", v.Name())
		}
	}
	if len(e.antecedents) == 0 {
		return nil, fmt.Errorf("engine: at least one antecedent variable is required")
	}
	if e.consequent == nil {
		return nil, fmt.Errorf("engine: a consequent variable is required")
	}

	rb, err := NewRuleBase(variables, rules)
	if err != nil {
		return nil, err
	}
	e.rules = rb

	e.samples = e.consequent.Universe().Points()
	for _, t := range e.consequent.Terms() {
		curve := make([]float64, len(e.samples))
		for i, x := range e.samples {
			curve[i] = t.MF.Evaluate(x)
		}
		e.curves[t.Name] = curve
	}
	return e, nil
}

// Antecedents returns the names of the required input variables, in
// declaration order.
func (e *Engine) Antecedents() []string {
	names := make([]string, len(e.antecedents))
	for i, v := range e.antecedents {
		names[i] = v.Name()
	}
	return names
}

// RuleCount returns the size of the rule base.
func (e *Engine) RuleCount() int { return e.rules.Len() }

// Simulate runs one inference over the given crisp inputs, keyed by
// antecedent variable name. All antecedents are required; out-of-universe
// values are clamped. The call allocates only local state and never
// mutates the engine.
func (e *Engine) Simulate(inputs map[string]float64) (Result, error) {
	degrees := make(map[string]map[string]float64, len(e.antecedents))
	for _, v := range e.antecedents {
		crisp, ok := inputs[v.Name()]
		if !ok {
			return Result{}, fmt.Errorf("simulate: %w: %s", ErrMissingInput, v.Name())
		}
		degrees[v.Name()] = v.Fuzzify(crisp)
	}
	for name := range inputs {
		if _, ok := degrees[name]; !ok {
			return Result{}, fmt.Errorf("simulate: unknown input variable %s", name)
		}
	}

	// Implication clips each fired rule's output term at its strength;
	// aggregation is the pointwise max across all rules.
	agg := make([]float64, len(e.samples))
	for _, r := range e.rules.rules {
		s := r.fire(degrees)
		if s == 0 {
			continue
		}
		curve := e.curves[r.Then.Term]
		for i, mu := range curve {
			if mu > s {
				mu = s
			}
			if mu > agg[i] {
				agg[i] = mu
			}
		}
	}

	// Centroid defuzzification, summed in ascending sample order so the
	// result is bit-stable across calls.
	var num, den float64
	for i, x := range e.samples {
		num += x * agg[i]
		den += agg[i]
	}
	if den == 0 {
		return Result{}, ErrNoRuleFired
	}

	curve := make([]Point, len(agg))
	for i, x := range e.samples {
		curve[i] = Point{X: x, Degree: agg[i]}
	}
	return Result{Score: num / den, Curve: curve}, nil
}
