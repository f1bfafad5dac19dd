package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/agroclima/crop-risk-etl/internal/domain"
	"github.com/agroclima/crop-risk-etl/internal/fuzzy"
	"github.com/agroclima/crop-risk-etl/internal/observability"
)

// RiskTransformer implements Transformer: it parses a raw field reading,
// scores it with the configured fuzzy engine, optionally enriches it with
// station metadata, and serializes the assessment.
type RiskTransformer struct {
	assessor  *domain.Assessor
	directory domain.StationDirectory
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewTransformer creates a RiskTransformer. Pass a nil directory to disable
// station enrichment.
func NewTransformer(assessor *domain.Assessor, directory domain.StationDirectory, logger *slog.Logger, metrics *observability.Metrics) *RiskTransformer {
	return &RiskTransformer{
		assessor:  assessor,
		directory: directory,
		logger:    logger,
		metrics:   metrics,
	}
}

func (t *RiskTransformer) Transform(ctx context.Context, raw domain.RawReading) (domain.OutputEvent, error) {
	reading, err := domain.ParseRawReading(raw)
	if err != nil {
		return domain.OutputEvent{}, err
	}

	start := time.Now()
	assessment, err := t.assessor.Assess(reading)
	t.metrics.InferenceDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, fuzzy.ErrNoRuleFired) {
			t.metrics.NoRuleFired.Inc()
		}
		return domain.OutputEvent{}, err
	}

	if assessment.Clamped {
		t.logger.Debug("inputs clamped to model bounds",
			"station_id", assessment.StationID,
			"thermal", reading.Signals.ThermalAnomaly,
			"deficit", reading.Signals.WaterDeficit,
			"ndvi", reading.Signals.NDVIAnomaly,
		)
	}

	// Enrichment is best effort: a registry outage must not block scoring.
	enriched, err := domain.EnrichWithStation(ctx, t.directory, assessment)
	if err != nil {
		t.logger.Warn("station enrichment failed", "error", err, "station_id", assessment.StationID)
	} else {
		assessment = enriched
	}

	t.metrics.AssessmentsByCategory.WithLabelValues(string(assessment.Category)).Inc()

	return domain.SerializeAssessment(assessment)
}
