package fuzzy

import "fmt"

// Role distinguishes input variables from the single output variable.
type Role int

const (
	// Antecedent variables are consumed by rule conditions.
	Antecedent Role = iota
	// Consequent is the output variable produced by inference.
	Consequent
)

func (r Role) String() string {
	switch r {
	case Antecedent:
		return "antecedent"
	case Consequent:
		return "consequent"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// Term binds a name to a membership shape within one variable.
type Term struct {
	Name string
	MF   Membership
}

// Variable is a named linguistic variable: an ordered set of terms over a
// shared universe. Terms may overlap and need not partition the universe.
// Immutable after construction.
type Variable struct {
	name     string
	role     Role
	universe Universe
	terms    []Term
	byName   map[string]Membership
}

// NewVariable builds a linguistic variable. Term names must be unique
// within the variable and at least one term is required.
func NewVariable(name string, role Role, universe Universe, terms []Term) (*Variable, error) {
	if name == "" {
		return nil, fmt.Errorf("variable: name is required")
	}
	if len(terms) == 0 {
		return nil, fmt.Errorf("variable %s: at least one term is required", name)
	}
	byName := make(map[string]Membership, len(terms))
	for _, t := range terms {
		if t.Name == "" || t.MF == nil {
			return nil, fmt.Errorf("variable %s: term with empty name or nil membership", name)
		}
		if _, dup := byName[t.Name]; dup {
			return nil, fmt.Errorf("variable %s: duplicate term %s", name, t.Name)
		}
		byName[t.Name] = t.MF
	}
	return &Variable{
		name:     name,
		role:     role,
		universe: universe,
		terms:    append([]Term(nil), terms...),
		byName:   byName,
	}, nil
}

func (v *Variable) Name() string       { return v.name }
func (v *Variable) Role() Role         { return v.role }
func (v *Variable) Universe() Universe { return v.universe }

// Terms returns the ordered term list.
func (v *Variable) Terms() []Term { return append([]Term(nil), v.terms...) }

// HasTerm reports whether the variable declares the named term.
func (v *Variable) HasTerm(name string) bool {
	_, ok := v.byName[name]
	return ok
}

// Fuzzify converts a crisp value into per-term membership degrees.
// Values outside the universe are clamped to the nearest bound first.
func (v *Variable) Fuzzify(crisp float64) map[string]float64 {
	x := v.universe.Clamp(crisp)
	degrees := make(map[string]float64, len(v.terms))
	for _, t := range v.terms {
		degrees[t.Name] = t.MF.Evaluate(x)
	}
	return degrees
}
