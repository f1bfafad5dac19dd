package fuzzy

import "fmt"

// Expr is a boolean combination over (variable, term) references. It is a
// closed tagged variant: TermRef leaves combined by And (min) and Or (max).
type Expr interface {
	// strength evaluates the expression against precomputed fuzzified
	// degrees, keyed by variable name then term name.
	strength(degrees map[string]map[string]float64) float64
	// leaves appends every TermRef in the expression, for validation.
	leaves(dst []TermRef) []TermRef
}

// TermRef references one term of one variable.
type TermRef struct {
	Variable string
	Term     string
}

func (r TermRef) strength(degrees map[string]map[string]float64) float64 {
	return degrees[r.Variable][r.Term]
}

func (r TermRef) leaves(dst []TermRef) []TermRef { return append(dst, r) }

// Ref is shorthand for a TermRef leaf.
func Ref(variable, term string) TermRef {
	return TermRef{Variable: variable, Term: term}
}

type andExpr struct{ operands []Expr }

func (e andExpr) strength(degrees map[string]map[string]float64) float64 {
	min := e.operands[0].strength(degrees)
	for _, op := range e.operands[1:] {
		if s := op.strength(degrees); s < min {
			min = s
		}
	}
	return min
}

func (e andExpr) leaves(dst []TermRef) []TermRef {
	for _, op := range e.operands {
		dst = op.leaves(dst)
	}
	return dst
}

type orExpr struct{ operands []Expr }

func (e orExpr) strength(degrees map[string]map[string]float64) float64 {
	max := e.operands[0].strength(degrees)
	for _, op := range e.operands[1:] {
		if s := op.strength(degrees); s > max {
			max = s
		}
	}
	return max
}

func (e orExpr) leaves(dst []TermRef) []TermRef {
	for _, op := range e.operands {
		dst = op.leaves(dst)
	}
	return dst
}

// And combines expressions conjunctively: strength = min over operands.
func And(operands ...Expr) Expr { return andExpr{operands: operands} }

// Or combines expressions disjunctively: strength = max over operands.
func Or(operands ...Expr) Expr { return orExpr{operands: operands} }

// Rule maps an antecedent expression to one consequent term with a static
// weight in (0,1]. Constructed once; immutable.
type Rule struct {
	When   Expr
	Then   TermRef
	Weight float64
}

// NewRule builds a rule with the default weight 1.
func NewRule(when Expr, variable, term string) Rule {
	return Rule{When: when, Then: TermRef{Variable: variable, Term: term}, Weight: 1}
}

// fire computes the weighted firing strength against fuzzified inputs.
func (r Rule) fire(degrees map[string]map[string]float64) float64 {
	return r.Weight * r.When.strength(degrees)
}

// RuleBase is an immutable ordered rule collection, validated against the
// declared variables at construction time.
type RuleBase struct {
	rules      []Rule
	consequent string
}

// NewRuleBase validates every rule: expression leaves must reference a
// declared antecedent term, every consequent reference must resolve, and
// exactly one consequent variable may be referenced across all rules.
func NewRuleBase(variables []*Variable, rules []Rule) (*RuleBase, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("rulebase: at least one rule is required")
	}
	byName := make(map[string]*Variable, len(variables))
	for _, v := range variables {
		byName[v.Name()] = v
	}

	consequent := ""
	for i, r := range rules {
		if r.When == nil {
			return nil, fmt.Errorf("rulebase: rule %d has no antecedent expression", i)
		}
		if r.Weight <= 0 || r.Weight > 1 {
			return nil, fmt.Errorf("rulebase: rule %d weight %v outside (0,1]", i, r.Weight)
		}
		for _, leaf := range r.When.leaves(nil) {
			v, ok := byName[leaf.Variable]
			if !ok {
				return nil, fmt.Errorf("rulebase: rule %d references undeclared variable %s", i, leaf.Variable)
			}
			if v.Role() != Antecedent {
				return nil, fmt.Errorf("rulebase: rule %d conditions on %s variable %s", i, v.Role(), leaf.Variable)
			}
			if !v.HasTerm(leaf.Term) {
				return nil, fmt.Errorf("rulebase: rule %d references undeclared term %s.%s", i, leaf.Variable, leaf.Term)
			}
		}
		out, ok := byName[r.Then.Variable]
		if !ok || out.Role() != Consequent {
			return nil, fmt.Errorf("rulebase: rule %d targets %s, which is not a declared consequent", i, r.Then.Variable)
		}
		if !out.HasTerm(r.Then.Term) {
			return nil, fmt.Errorf("rulebase: rule %d targets undeclared term %s.%s", i, r.Then.Variable, r.Then.Term)
		}
		if consequent == "" {
			consequent = r.Then.Variable
		} else if consequent != r.Then.Variable {
			return nil, fmt.Errorf("rulebase: rules target multiple consequent variables (%s and %s)", consequent, r.Then.Variable)
		}
	}

	return &RuleBase{rules: append([]Rule(nil), rules...), consequent: consequent}, nil
}

// Len returns the number of rules.
func (rb *RuleBase) Len() int { return len(rb.rules) }

// ConsequentVariable returns the single output variable the rules target.
func (rb *RuleBase) ConsequentVariable() string { return rb.consequent }
