package domain

import (
	"fmt"

	"github.com/agroclima/crop-risk-etl/internal/fuzzy"
)

// Linguistic variable names. The Portuguese vocabulary is the contract with
// the agronomy team's rule tables and appears verbatim in rule definitions,
// logs, and test fixtures.
const (
	VarThermalAnomaly = "anomalia_termica"
	VarWaterDeficit   = "deficit_hidrico"
	VarNDVIAnomaly    = "anomalia_ndvi"
	VarCropRisk       = "risco_quebra_safra"
)

// Thermal anomaly terms.
const (
	TermHarmfulCold  = "frio_prejudicial"
	TermThermalIdeal = "ideal"
	TermModerateHeat = "calor_moderado"
	TermExtremeHeat  = "calor_extremo"
)

// Water deficit terms.
const (
	TermIdealOrExcess   = "ideal_ou_excesso"
	TermLightDeficit    = "deficit_leve"
	TermModerateDeficit = "deficit_moderado"
	TermSevereDrought   = "seca_severa"
)

// NDVI anomaly terms.
const (
	TermWellBelowAverage = "muito_abaixo_media"
	TermBelowAverage     = "abaixo_media"
	TermAtOrAboveAverage = "na_media_ou_acima"
)

// Risk output terms. These double as the category labels (see Categorize).
const (
	TermRiskLow      = "baixo"
	TermRiskModerate = "moderado"
	TermRiskHigh     = "alto"
	TermRiskCritical = "critico"
)

// Signal universes. The steps are part of the model's numeric contract:
// the consequent step of 1 fixes the centroid precision, and all published
// scores assume this exact sampling.
const (
	ThermalMin, ThermalMax, thermalStep = -15.0, 15.0, 1.0
	DeficitMin, DeficitMax, deficitStep = 0.0, 300.0, 1.0
	NDVIMin, NDVIMax, ndviStep          = -0.4, 0.4, 0.01
	riskMin, riskMax, riskStep          = 0.0, 100.0, 1.0
)

// mfBuilder accumulates the first shape-validation error so variable tables
// read as flat declarations instead of error-check ladders.
type mfBuilder struct {
	err error
}

func (b *mfBuilder) tri(a, m, c float64) fuzzy.Membership {
	mf, err := fuzzy.NewTriangle(a, m, c)
	if err != nil && b.err == nil {
		b.err = err
	}
	return mf
}

func (b *mfBuilder) trap(a, m, n, d float64) fuzzy.Membership {
	mf, err := fuzzy.NewTrapezoid(a, m, n, d)
	if err != nil && b.err == nil {
		b.err = err
	}
	return mf
}

// RiskVariables declares the three antecedents and the consequent with the
// reference membership tables.
func RiskVariables() ([]*fuzzy.Variable, error) {
	var b mfBuilder

	thermalU, err := fuzzy.NewUniverse(ThermalMin, ThermalMax, thermalStep)
	if err != nil {
		return nil, err
	}
	deficitU, err := fuzzy.NewUniverse(DeficitMin, DeficitMax, deficitStep)
	if err != nil {
		return nil, err
	}
	ndviU, err := fuzzy.NewUniverse(NDVIMin, NDVIMax, ndviStep)
	if err != nil {
		return nil, err
	}
	riskU, err := fuzzy.NewUniverse(riskMin, riskMax, riskStep)
	if err != nil {
		return nil, err
	}

	thermalTerms := []fuzzy.Term{
		{Name: TermHarmfulCold, MF: b.trap(-15, -15, -10, -5)},
		{Name: TermThermalIdeal, MF: b.tri(-7, 0, 7)},
		{Name: TermModerateHeat, MF: b.tri(1, 2, 3)},
		{Name: TermExtremeHeat, MF: b.trap(11, 14, 15, 15)},
	}
	deficitTerms := []fuzzy.Term{
		{Name: TermIdealOrExcess, MF: b.trap(0, 0, 50, 100)},
		{Name: TermLightDeficit, MF: b.tri(50, 100, 150)},
		{Name: TermModerateDeficit, MF: b.tri(100, 150, 200)},
		{Name: TermSevereDrought, MF: b.trap(150, 225, 300, 300)},
	}
	ndviTerms := []fuzzy.Term{
		{Name: TermWellBelowAverage, MF: b.trap(-0.4, -0.4, -0.25, -0.15)},
		{Name: TermBelowAverage, MF: b.tri(-0.2, -0.1, 0)},
		{Name: TermAtOrAboveAverage, MF: b.trap(-0.05, 0.05, 0.4, 0.4)},
	}
	riskTerms := []fuzzy.Term{
		{Name: TermRiskLow, MF: b.tri(0, 15, 30)},
		{Name: TermRiskModerate, MF: b.tri(30, 47.5, 65)},
		{Name: TermRiskHigh, MF: b.tri(60, 77.5, 95)},
		{Name: TermRiskCritical, MF: b.trap(90, 97.5, 100, 100)},
	}
	if b.err != nil {
		return nil, fmt.Errorf("risk model: %w", b.err)
	}

	thermal, err := fuzzy.NewVariable(VarThermalAnomaly, fuzzy.Antecedent, thermalU, thermalTerms)
	if err != nil {
		return nil, err
	}
	deficit, err := fuzzy.NewVariable(VarWaterDeficit, fuzzy.Antecedent, deficitU, deficitTerms)
	if err != nil {
		return nil, err
	}
	ndvi, err := fuzzy.NewVariable(VarNDVIAnomaly, fuzzy.Antecedent, ndviU, ndviTerms)
	if err != nil {
		return nil, err
	}
	risk, err := fuzzy.NewVariable(VarCropRisk, fuzzy.Consequent, riskU, riskTerms)
	if err != nil {
		return nil, err
	}

	return []*fuzzy.Variable{thermal, deficit, ndvi, risk}, nil
}

// productionMatrix is the three-way agronomy matrix: one row per
// (NDVI block, deficit column, thermal cell) combination the agronomy team
// scored. Ordering follows the original worksheet.
var productionMatrix = []struct {
	ndvi, deficit, thermal, risk string
}{
	// NDVI at or above average.
	{TermAtOrAboveAverage, TermIdealOrExcess, TermHarmfulCold, TermRiskModerate},
	{TermAtOrAboveAverage, TermIdealOrExcess, TermThermalIdeal, TermRiskLow},
	{TermAtOrAboveAverage, TermIdealOrExcess, TermModerateHeat, TermRiskLow},
	{TermAtOrAboveAverage, TermIdealOrExcess, TermExtremeHeat, TermRiskModerate},
	{TermAtOrAboveAverage, TermLightDeficit, TermHarmfulCold, TermRiskModerate},
	{TermAtOrAboveAverage, TermLightDeficit, TermThermalIdeal, TermRiskLow},
	{TermAtOrAboveAverage, TermLightDeficit, TermModerateHeat, TermRiskModerate},
	{TermAtOrAboveAverage, TermLightDeficit, TermExtremeHeat, TermRiskHigh},
	{TermAtOrAboveAverage, TermModerateDeficit, TermHarmfulCold, TermRiskHigh},
	{TermAtOrAboveAverage, TermModerateDeficit, TermThermalIdeal, TermRiskModerate},
	{TermAtOrAboveAverage, TermModerateDeficit, TermModerateHeat, TermRiskHigh},
	{TermAtOrAboveAverage, TermModerateDeficit, TermExtremeHeat, TermRiskCritical},
	{TermAtOrAboveAverage, TermSevereDrought, TermHarmfulCold, TermRiskHigh},
	{TermAtOrAboveAverage, TermSevereDrought, TermThermalIdeal, TermRiskHigh},
	{TermAtOrAboveAverage, TermSevereDrought, TermModerateHeat, TermRiskCritical},
	{TermAtOrAboveAverage, TermSevereDrought, TermExtremeHeat, TermRiskCritical},

	// NDVI below average with ideal temperatures.
	{TermBelowAverage, TermIdealOrExcess, TermThermalIdeal, TermRiskModerate},
	{TermBelowAverage, TermLightDeficit, TermThermalIdeal, TermRiskHigh},
	{TermBelowAverage, TermModerateDeficit, TermThermalIdeal, TermRiskHigh},
	{TermBelowAverage, TermSevereDrought, TermThermalIdeal, TermRiskCritical},

	// NDVI below average with heat.
	{TermBelowAverage, TermIdealOrExcess, TermModerateHeat, TermRiskHigh},
	{TermBelowAverage, TermIdealOrExcess, TermExtremeHeat, TermRiskHigh},
	{TermBelowAverage, TermLightDeficit, TermModerateHeat, TermRiskHigh},
	{TermBelowAverage, TermLightDeficit, TermExtremeHeat, TermRiskCritical},

	// NDVI below average with cold.
	{TermBelowAverage, TermIdealOrExcess, TermHarmfulCold, TermRiskHigh},
	{TermBelowAverage, TermLightDeficit, TermHarmfulCold, TermRiskHigh},

	// NDVI well below average signals damage regardless of weather.
	{TermWellBelowAverage, TermIdealOrExcess, TermThermalIdeal, TermRiskHigh},
	{TermWellBelowAverage, TermLightDeficit, TermThermalIdeal, TermRiskHigh},
	{TermWellBelowAverage, TermModerateDeficit, TermThermalIdeal, TermRiskCritical},
	{TermWellBelowAverage, TermSevereDrought, TermThermalIdeal, TermRiskCritical},
	{TermWellBelowAverage, TermIdealOrExcess, TermExtremeHeat, TermRiskCritical},
	{TermWellBelowAverage, TermLightDeficit, TermExtremeHeat, TermRiskCritical},
	{TermWellBelowAverage, TermModerateDeficit, TermExtremeHeat, TermRiskCritical},
	{TermWellBelowAverage, TermSevereDrought, TermExtremeHeat, TermRiskCritical},
	{TermWellBelowAverage, TermIdealOrExcess, TermModerateHeat, TermRiskHigh},
	{TermWellBelowAverage, TermLightDeficit, TermModerateHeat, TermRiskCritical},
	{TermWellBelowAverage, TermModerateDeficit, TermModerateHeat, TermRiskCritical},
	{TermWellBelowAverage, TermSevereDrought, TermModerateHeat, TermRiskCritical},
	{TermWellBelowAverage, TermIdealOrExcess, TermHarmfulCold, TermRiskHigh},
	{TermWellBelowAverage, TermLightDeficit, TermHarmfulCold, TermRiskHigh},
	{TermWellBelowAverage, TermModerateDeficit, TermHarmfulCold, TermRiskCritical},
	{TermWellBelowAverage, TermSevereDrought, TermHarmfulCold, TermRiskCritical},
}

// ProductionRules returns the full 47-rule table: the three-way matrix plus
// broad fallback rules for extreme scenarios.
func ProductionRules() []fuzzy.Rule {
	rules := make([]fuzzy.Rule, 0, len(productionMatrix)+5)
	for _, row := range productionMatrix {
		rules = append(rules, fuzzy.NewRule(fuzzy.And(
			fuzzy.Ref(VarNDVIAnomaly, row.ndvi),
			fuzzy.Ref(VarWaterDeficit, row.deficit),
			fuzzy.Ref(VarThermalAnomaly, row.thermal),
		), VarCropRisk, row.risk))
	}
	rules = append(rules,
		fuzzy.NewRule(fuzzy.And(
			fuzzy.Ref(VarThermalAnomaly, TermExtremeHeat),
			fuzzy.Ref(VarWaterDeficit, TermSevereDrought),
		), VarCropRisk, TermRiskCritical),
		fuzzy.NewRule(fuzzy.And(
			fuzzy.Ref(VarThermalAnomaly, TermHarmfulCold),
			fuzzy.Ref(VarWaterDeficit, TermSevereDrought),
		), VarCropRisk, TermRiskHigh),
		fuzzy.NewRule(fuzzy.Ref(VarWaterDeficit, TermSevereDrought), VarCropRisk, TermRiskHigh),
		fuzzy.NewRule(fuzzy.Ref(VarNDVIAnomaly, TermWellBelowAverage), VarCropRisk, TermRiskHigh),
		fuzzy.NewRule(fuzzy.And(
			fuzzy.Ref(VarThermalAnomaly, TermThermalIdeal),
			fuzzy.Ref(VarWaterDeficit, TermIdealOrExcess),
			fuzzy.Ref(VarNDVIAnomaly, TermAtOrAboveAverage),
		), VarCropRisk, TermRiskLow),
	)
	return rules
}

// SimplifiedRules returns the compact 5-rule table. It trades the broad
// drought and vegetation catch-alls for sharper extremes: with no
// competing "alto" mass, severe drought plus extreme heat defuzzifies
// above 90. The reference regression scenarios were calibrated against
// this table.
func SimplifiedRules() []fuzzy.Rule {
	return []fuzzy.Rule{
		fuzzy.NewRule(fuzzy.And(
			fuzzy.Ref(VarThermalAnomaly, TermThermalIdeal),
			fuzzy.Ref(VarWaterDeficit, TermIdealOrExcess),
			fuzzy.Ref(VarNDVIAnomaly, TermAtOrAboveAverage),
		), VarCropRisk, TermRiskLow),
		fuzzy.NewRule(fuzzy.Or(
			fuzzy.Ref(VarWaterDeficit, TermLightDeficit),
			fuzzy.Ref(VarNDVIAnomaly, TermBelowAverage),
		), VarCropRisk, TermRiskModerate),
		fuzzy.NewRule(fuzzy.Ref(VarWaterDeficit, TermModerateDeficit), VarCropRisk, TermRiskHigh),
		fuzzy.NewRule(fuzzy.And(
			fuzzy.Ref(VarWaterDeficit, TermSevereDrought),
			fuzzy.Ref(VarThermalAnomaly, TermExtremeHeat),
		), VarCropRisk, TermRiskCritical),
		fuzzy.NewRule(fuzzy.And(
			fuzzy.Ref(VarWaterDeficit, TermSevereDrought),
			fuzzy.Ref(VarThermalAnomaly, TermThermalIdeal),
		), VarCropRisk, TermRiskHigh),
	}
}

// RuleTable names one of the shipped rule configurations.
type RuleTable string

const (
	// RuleTableProduction is the 47-rule table. Service default.
	RuleTableProduction RuleTable = "production"
	// RuleTableSimplified is the compact 5-rule table.
	RuleTableSimplified RuleTable = "simplified"
)

// ParseRuleTable validates a rule-table name from configuration.
func ParseRuleTable(s string) (RuleTable, error) {
	switch RuleTable(s) {
	case RuleTableProduction, RuleTableSimplified:
		return RuleTable(s), nil
	default:
		return "", fmt.Errorf("unknown rule table %q (want %q or %q)", s, RuleTableProduction, RuleTableSimplified)
	}
}

// Rules returns the rule set for the named table.
func (t RuleTable) Rules() ([]fuzzy.Rule, error) {
	switch t {
	case RuleTableProduction:
		return ProductionRules(), nil
	case RuleTableSimplified:
		return SimplifiedRules(), nil
	default:
		return nil, fmt.Errorf("unknown rule table %q", string(t))
	}
}

// NewRiskEngine builds the inference engine for the named rule table.
// Construction errors are fatal configuration errors.
func NewRiskEngine(table RuleTable) (*fuzzy.Engine, error) {
	variables, err := RiskVariables()
	if err != nil {
		return nil, err
	}
	rules, err := table.Rules()
	if err != nil {
		return nil, err
	}
	engine, err := fuzzy.NewEngine(variables, rules)
	if err != nil {
		return nil, fmt.Errorf("risk model (%s): %w", table, err)
	}
	return engine, nil
}
