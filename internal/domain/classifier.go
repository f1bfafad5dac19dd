package domain

// Category is the discrete risk label derived from a crisp score.
type Category string

const (
	CategoryLow      Category = TermRiskLow
	CategoryModerate Category = TermRiskModerate
	CategoryHigh     Category = TermRiskHigh
	CategoryCritical Category = TermRiskCritical
)

// Categorize maps a crisp risk score to its category via fixed half-open
// thresholds: [0,30) baixo, [30,60) moderado, [60,90) alto, [90,100]
// critico. Pure function, no state.
func Categorize(score float64) Category {
	switch {
	case score < 30:
		return CategoryLow
	case score < 60:
		return CategoryModerate
	case score < 90:
		return CategoryHigh
	default:
		return CategoryCritical
	}
}
