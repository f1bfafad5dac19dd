package main

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agroclima/crop-risk-etl/internal/domain"
	"github.com/agroclima/crop-risk-etl/internal/fuzzy"
)

// TestScenariosMatchEngine verifies every reference row against a freshly
// built assessor, so a rule table or membership change that shifts a score
// fails here before it fails the CLI.
func TestScenariosMatchEngine(t *testing.T) {
	tables := map[domain.RuleTable]func(scenario) expectation{
		domain.RuleTableProduction: func(s scenario) expectation { return s.production },
		domain.RuleTableSimplified: func(s scenario) expectation { return s.simplified },
	}

	for table, pick := range tables {
		assessor, err := domain.NewAssessor(table)
		require.NoError(t, err)

		for _, s := range scenarios {
			t.Run(fmt.Sprintf("%s/%s", table, s.name), func(t *testing.T) {
				want := pick(s)
				score, _, err := assessor.Score(s.signals)

				if want.noRule {
					require.ErrorIs(t, err, fuzzy.ErrNoRuleFired)
					return
				}
				require.NoError(t, err)
				assert.InDelta(t, want.score, score, 1e-6)
				assert.Equal(t, want.category, domain.Categorize(score))
			})
		}
	}
}

// TestExpectationsAreSelfConsistent guards against an expected category that
// disagrees with the expected score's threshold band.
func TestExpectationsAreSelfConsistent(t *testing.T) {
	for _, s := range scenarios {
		t.Run(s.name, func(t *testing.T) {
			if !s.production.noRule {
				assert.Equal(t, s.production.category, domain.Categorize(s.production.score), "production")
			}
			if !s.simplified.noRule {
				assert.Equal(t, s.simplified.category, domain.Categorize(s.simplified.score), "simplified")
			}
		})
	}
}

func TestCheckReportsPassAndFail(t *testing.T) {
	assessor, err := domain.NewAssessor(domain.RuleTableSimplified)
	require.NoError(t, err)

	good := scenarios[0]
	assert.True(t, check(assessor, good, good.simplified))

	skewed := good.simplified
	skewed.score += 10
	assert.False(t, check(assessor, good, skewed))
}
