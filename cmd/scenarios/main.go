// Command scenarios runs a fixed set of agronomic reference scenarios through
// the fuzzy risk engine and checks the resulting scores and categories against
// expected values. It is used to verify that rule table or membership function
// changes do not silently shift the model's behavior.
//
// Usage:
//
//	go run ./cmd/scenarios            # check both rule tables
//	go run ./cmd/scenarios -table simplified
package main

import (
	"errors"
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/agroclima/crop-risk-etl/internal/domain"
	"github.com/agroclima/crop-risk-etl/internal/fuzzy"
)

// expectation is the reference outcome of a scenario under one rule table.
type expectation struct {
	score    float64
	category domain.Category
	noRule   bool
}

// scenario pairs input signals with their expected outcome per rule table.
type scenario struct {
	name       string
	signals    domain.Signals
	production expectation
	simplified expectation
}

var scenarios = []scenario{
	{
		name:       "favorable season",
		signals:    domain.Signals{ThermalAnomaly: 0, WaterDeficit: 50, NDVIAnomaly: 0.1},
		production: expectation{score: 15.0, category: domain.CategoryLow},
		simplified: expectation{score: 15.0, category: domain.CategoryLow},
	},
	{
		name:       "mild stress",
		signals:    domain.Signals{ThermalAnomaly: 2, WaterDeficit: 100, NDVIAnomaly: -0.05},
		production: expectation{score: 77.5, category: domain.CategoryHigh},
		simplified: expectation{score: 47.500000000000014, category: domain.CategoryModerate},
	},
	{
		name:       "drought with vegetation decline",
		signals:    domain.Signals{ThermalAnomaly: 5, WaterDeficit: 250, NDVIAnomaly: -0.3},
		production: expectation{score: 79.63733075435209, category: domain.CategoryHigh},
		simplified: expectation{score: 77.50000000000001, category: domain.CategoryHigh},
	},
	{
		name:       "severe heat and drought",
		signals:    domain.Signals{ThermalAnomaly: 12, WaterDeficit: 280, NDVIAnomaly: -0.35},
		production: expectation{score: 79.95730550284635, category: domain.CategoryHigh},
		simplified: expectation{score: 95.86956521739128, category: domain.CategoryCritical},
	},
	{
		name:       "worst case at universe bounds",
		signals:    domain.Signals{ThermalAnomaly: 15, WaterDeficit: 300, NDVIAnomaly: 0.4},
		production: expectation{score: 82.67348576012837, category: domain.CategoryHigh},
		simplified: expectation{score: 96.78217821782178, category: domain.CategoryCritical},
	},
	{
		name:       "cold snap",
		signals:    domain.Signals{ThermalAnomaly: -12, WaterDeficit: 0, NDVIAnomaly: -0.4},
		production: expectation{score: 77.50000000000003, category: domain.CategoryHigh},
		simplified: expectation{noRule: true},
	},
	{
		name:       "thermal coverage gap",
		signals:    domain.Signals{ThermalAnomaly: 9, WaterDeficit: 120, NDVIAnomaly: 0.2},
		production: expectation{noRule: true},
		simplified: expectation{score: 60.45302013422827, category: domain.CategoryHigh},
	},
}

func main() {
	table := flag.String("table", "both", "rule table to check: production, simplified or both")
	flag.Parse()

	var tables []domain.RuleTable
	switch *table {
	case "both":
		tables = []domain.RuleTable{domain.RuleTableProduction, domain.RuleTableSimplified}
	case "production":
		tables = []domain.RuleTable{domain.RuleTableProduction}
	case "simplified":
		tables = []domain.RuleTable{domain.RuleTableSimplified}
	default:
		fmt.Fprintf(os.Stderr, "unknown rule table %q\n", *table)
		flag.Usage()
		os.Exit(1)
	}

	failures := 0
	for _, t := range tables {
		failures += run(t)
	}

	fmt.Println()
	if failures > 0 {
		fmt.Printf("%d scenario(s) FAILED.\n", failures)
		os.Exit(1)
	}
	fmt.Println("All scenarios passed.")
}

func run(table domain.RuleTable) int {
	assessor, err := domain.NewAssessor(table)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: build %s assessor: %v\n", table, err)
		os.Exit(1)
	}

	fmt.Printf("=== Rule table: %s (%d rules) ===\n", table, assessor.RuleCount())

	failures := 0
	for _, s := range scenarios {
		want := s.production
		if table == domain.RuleTableSimplified {
			want = s.simplified
		}
		if !check(assessor, s, want) {
			failures++
		}
	}
	fmt.Println()
	return failures
}

func check(assessor *domain.Assessor, s scenario, want expectation) bool {
	score, clamped, err := assessor.Score(s.signals)

	switch {
	case want.noRule:
		if errors.Is(err, fuzzy.ErrNoRuleFired) {
			fmt.Printf("  %-34s no rule fired (expected)  \033[32mPASS\033[0m\n", s.name)
			return true
		}
		fmt.Printf("  %-34s expected no rule, got score=%.4f err=%v  \033[31mFAIL\033[0m\n", s.name, score, err)
		return false

	case err != nil:
		fmt.Printf("  %-34s unexpected error: %v  \033[31mFAIL\033[0m\n", s.name, err)
		return false

	case math.Abs(score-want.score) > 1e-6:
		fmt.Printf("  %-34s score=%.6f want=%.6f  \033[31mFAIL\033[0m\n", s.name, score, want.score)
		return false

	case domain.Categorize(score) != want.category:
		fmt.Printf("  %-34s category=%s want=%s  \033[31mFAIL\033[0m\n", s.name, domain.Categorize(score), want.category)
		return false
	}

	marker := ""
	if clamped {
		marker = " (clamped)"
	}
	fmt.Printf("  %-34s score=%8.4f %-9s%s  \033[32mPASS\033[0m\n", s.name, score, domain.Categorize(score), marker)
	return true
}
