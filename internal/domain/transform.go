package domain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/agroclima/crop-risk-etl/internal/fuzzy"
)

// ParseRawReading deserializes a RawReading's value into a FieldReading.
// It expects the flat CSV-style JSON produced by the collector service.
// Unlike coordinates, the three risk signals have no safe default, so a
// missing or malformed signal fails the whole record.
func ParseRawReading(raw RawReading) (FieldReading, error) {
	var rec RawFieldRecord
	if err := json.Unmarshal(raw.Value, &rec); err != nil {
		return FieldReading{}, fmt.Errorf("parse raw reading: %w", err)
	}

	if strings.TrimSpace(rec.StationID) == "" {
		return FieldReading{}, fmt.Errorf("parse raw reading: missing station_id")
	}

	thermal, err := parseSignal("thermal_anomaly_c", rec.ThermalAnomaly)
	if err != nil {
		return FieldReading{}, err
	}
	deficit, err := parseSignal("water_deficit_mm", rec.WaterDeficit)
	if err != nil {
		return FieldReading{}, err
	}
	ndvi, err := parseSignal("ndvi_anomaly", rec.NDVIAnomaly)
	if err != nil {
		return FieldReading{}, err
	}

	return FieldReading{
		StationID:  rec.StationID,
		PlotID:     rec.PlotID,
		Crop:       rec.Crop,
		Geo:        Geo{Lat: parseFloatOrZero(rec.Lat), Lon: parseFloatOrZero(rec.Lon)},
		ObservedAt: parseObservationDate(raw.Timestamp, rec.Date),
		Signals: Signals{
			ThermalAnomaly: thermal,
			WaterDeficit:   deficit,
			NDVIAnomaly:    ndvi,
		},

		RawPayload: raw.Value,
	}, nil
}

// parseSignal parses a required numeric signal column.
func parseSignal(name, s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("parse raw reading: missing signal %s", name)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse raw reading: signal %s: %w", name, err)
	}
	return v, nil
}

// parseFloatOrZero parses a string as float64, returning 0 on failure.
// Used for coordinates, which are informational only.
func parseFloatOrZero(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// parseObservationDate parses the collector's YYYY-MM-DD observation date.
// Falls back to the message timestamp when the field is absent or malformed.
func parseObservationDate(fallback time.Time, date string) time.Time {
	date = strings.TrimSpace(date)
	if date == "" {
		return fallback
	}
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return fallback
	}
	return t
}

// generateID produces a deterministic ID from the reading's key fields.
// Deterministic IDs enable idempotent upserts (ON CONFLICT DO NOTHING) and
// replay safety: reprocessing the same raw reading produces the same ID.
func generateID(stationID, plotID string, observedAt time.Time, s Signals) string {
	input := fmt.Sprintf("%s|%s|%s|%g|%g|%g",
		stationID, plotID, observedAt.UTC().Format("2006-01-02"),
		s.ThermalAnomaly, s.WaterDeficit, s.NDVIAnomaly)
	hash := sha256.Sum256([]byte(input))
	short := hex.EncodeToString(hash[:8])
	return "risk-" + short
}

// Assessor scores field readings with a configured fuzzy engine.
// It is safe for concurrent use.
type Assessor struct {
	engine *fuzzy.Engine
	table  RuleTable
}

// NewAssessor builds an Assessor for the named rule table.
func NewAssessor(table RuleTable) (*Assessor, error) {
	engine, err := NewRiskEngine(table)
	if err != nil {
		return nil, err
	}
	return &Assessor{engine: engine, table: table}, nil
}

// Table reports the rule table the assessor was built with.
func (a *Assessor) Table() RuleTable { return a.table }

// RuleCount reports the number of rules in the active table.
func (a *Assessor) RuleCount() int { return a.engine.RuleCount() }

// Score runs inference on raw signal values and returns the crisp risk score.
// Inputs outside the model universes are clamped; the second return reports
// whether any clamping occurred. Returns fuzzy.ErrNoRuleFired when the
// aggregated output has zero mass.
func (a *Assessor) Score(s Signals) (float64, bool, error) {
	result, err := a.engine.Simulate(map[string]float64{
		VarThermalAnomaly: s.ThermalAnomaly,
		VarWaterDeficit:   s.WaterDeficit,
		VarNDVIAnomaly:    s.NDVIAnomaly,
	})
	if err != nil {
		return 0, false, err
	}
	return result.Score, clamped(s), nil
}

// clamped reports whether any signal falls outside its universe.
func clamped(s Signals) bool {
	return s.ThermalAnomaly < ThermalMin || s.ThermalAnomaly > ThermalMax ||
		s.WaterDeficit < DeficitMin || s.WaterDeficit > DeficitMax ||
		s.NDVIAnomaly < NDVIMin || s.NDVIAnomaly > NDVIMax
}

// Assess scores and classifies a parsed field reading. It assigns the
// deterministic ID, derives the daily time bucket, and stamps the
// processing time.
func (a *Assessor) Assess(reading FieldReading) (RiskAssessment, error) {
	score, wasClamped, err := a.Score(reading.Signals)
	if err != nil {
		return RiskAssessment{}, fmt.Errorf("assess %s: %w", reading.StationID, err)
	}

	return RiskAssessment{
		ID:         generateID(reading.StationID, reading.PlotID, reading.ObservedAt, reading.Signals),
		StationID:  reading.StationID,
		PlotID:     reading.PlotID,
		Crop:       reading.Crop,
		Geo:        reading.Geo,
		ObservedAt: reading.ObservedAt,
		Signals:    reading.Signals,

		Score:      score,
		Category:   Categorize(score),
		RuleTable:  a.table,
		Clamped:    wasClamped,
		TimeBucket: deriveTimeBucket(reading.ObservedAt),

		RawPayload:  reading.RawPayload,
		ProcessedAt: clock.Now(),
	}, nil
}

// deriveTimeBucket truncates the observation time to the day in UTC.
// Returns zero time if the input is zero.
func deriveTimeBucket(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}

	return t.UTC().Truncate(24 * time.Hour)
}

// EnrichWithStation resolves station metadata through the directory and
// copies it onto the assessment. Lookup failures leave the assessment
// untouched; enrichment is best effort.
func EnrichWithStation(ctx context.Context, dir StationDirectory, assessment RiskAssessment) (RiskAssessment, error) {
	if dir == nil {
		return assessment, nil
	}
	info, err := dir.Lookup(ctx, assessment.StationID)
	if err != nil {
		return assessment, fmt.Errorf("station lookup %s: %w", assessment.StationID, err)
	}
	assessment.StationName = info.Name
	assessment.Region = info.Region
	return assessment, nil
}

// SerializeAssessment converts a RiskAssessment into an OutputEvent ready
// for the sink topic. The key is the station ID so all assessments for one
// station land on the same partition.
func SerializeAssessment(assessment RiskAssessment) (OutputEvent, error) {
	value, err := json.Marshal(assessment)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize assessment %s: %w", assessment.ID, err)
	}
	return OutputEvent{
		Key:   []byte(assessment.StationID),
		Value: value,
		Headers: map[string]string{
			"category":     string(assessment.Category),
			"rule_table":   string(assessment.RuleTable),
			"processed_at": assessment.ProcessedAt.UTC().Format(time.RFC3339),
		},
	}, nil
}
