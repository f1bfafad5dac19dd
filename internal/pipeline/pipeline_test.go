package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agroclima/crop-risk-etl/internal/domain"
	"github.com/agroclima/crop-risk-etl/internal/observability"
	"github.com/agroclima/crop-risk-etl/internal/pipeline"
)

// --- mocks ---

type mockExtractor struct {
	batches [][]domain.RawReading
	index   atomic.Int64
	err     error
}

func (m *mockExtractor) ExtractBatch(ctx context.Context, _ int) ([]domain.RawReading, error) {
	if m.err != nil {
		return nil, m.err
	}
	i := int(m.index.Add(1) - 1)
	if i >= len(m.batches) {
		// Block until cancellation to simulate an idle source.
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return m.batches[i], nil
}

type mockTransformer struct {
	err error
}

func (m *mockTransformer) Transform(_ context.Context, raw domain.RawReading) (domain.OutputEvent, error) {
	if m.err != nil {
		return domain.OutputEvent{}, m.err
	}
	return domain.OutputEvent{Key: raw.Key, Value: raw.Value}, nil
}

type mockLoader struct {
	loaded []domain.OutputEvent
	err    error
}

func (m *mockLoader) LoadBatch(_ context.Context, events []domain.OutputEvent) error {
	if m.err != nil {
		return m.err
	}
	m.loaded = append(m.loaded, events...)
	return nil
}

func newTestMetrics() *observability.Metrics {
	// Fresh registry to avoid "already registered" panics in tests.
	return observability.NewMetricsForTesting()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	raw := makeRawReading(t, "INMET-A701", "0", "50", "0.1")

	ext := &mockExtractor{batches: [][]domain.RawReading{{raw}}}
	tfm := &mockTransformer{}
	ldr := &mockLoader{}

	p := pipeline.New(ext, tfm, ldr, discardLogger(), newTestMetrics(), 50)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err := p.Run(ctx)
	require.NoError(t, err)
	require.Len(t, ldr.loaded, 1)
	assert.Equal(t, raw.Value, ldr.loaded[0].Value)
	assert.NoError(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	ext := &mockExtractor{} // no batches, will block
	p := pipeline.New(ext, &mockTransformer{}, &mockLoader{}, discardLogger(), newTestMetrics(), 50)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Run(ctx)
	require.NoError(t, err)
}

func TestPipeline_Run_TransformErrorSkipsAndCommits(t *testing.T) {
	commits := 0
	raw := makeRawReading(t, "INMET-A701", "0", "50", "0.1")
	raw.Commit = func(_ context.Context) error {
		commits++
		return nil
	}

	ext := &mockExtractor{batches: [][]domain.RawReading{{raw}}}
	tfm := &mockTransformer{err: errors.New("bad data")}
	ldr := &mockLoader{}

	p := pipeline.New(ext, tfm, ldr, discardLogger(), newTestMetrics(), 50)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err := p.Run(ctx)
	require.NoError(t, err)
	assert.Empty(t, ldr.loaded)
	// Poison records are committed so the partition does not wedge.
	assert.Equal(t, 1, commits)
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_PartialBatch(t *testing.T) {
	good := makeRawReading(t, "INMET-A701", "0", "50", "0.1")
	bad := domain.RawReading{Key: []byte("bad"), Value: []byte("{not json")}

	ext := &mockExtractor{batches: [][]domain.RawReading{{good, bad}}}
	ldr := &mockLoader{}

	p := pipeline.New(ext, realTransformer(t), ldr, discardLogger(), newTestMetrics(), 50)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err := p.Run(ctx)
	require.NoError(t, err)
	require.Len(t, ldr.loaded, 1)
	assert.Equal(t, []byte("INMET-A701"), ldr.loaded[0].Key)
}

func TestPipeline_Run_CommitsAfterLoad(t *testing.T) {
	commitCalled := false

	raw := makeRawReading(t, "INMET-A701", "0", "50", "0.1")
	raw.Topic = "raw-field-readings"
	raw.Commit = func(_ context.Context) error {
		commitCalled = true
		return nil
	}

	ext := &mockExtractor{batches: [][]domain.RawReading{{raw}}}
	ldr := &mockLoader{}

	p := pipeline.New(ext, &mockTransformer{}, ldr, discardLogger(), newTestMetrics(), 50)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err := p.Run(ctx)
	require.NoError(t, err)
	assert.True(t, commitCalled)
}

func TestPipeline_Run_LoadErrorDoesNotCommit(t *testing.T) {
	commits := 0
	raw := makeRawReading(t, "INMET-A701", "0", "50", "0.1")
	raw.Commit = func(_ context.Context) error {
		commits++
		return nil
	}

	ext := &mockExtractor{batches: [][]domain.RawReading{{raw}}}
	ldr := &mockLoader{err: errors.New("sink unavailable")}

	p := pipeline.New(ext, &mockTransformer{}, ldr, discardLogger(), newTestMetrics(), 50)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err := p.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, commits)
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestRiskTransformer_Transform(t *testing.T) {
	raw := makeRawReading(t, "INMET-A701", "0", "50", "0.1")

	out, err := realTransformer(t).Transform(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, []byte("INMET-A701"), out.Key)
	assert.Equal(t, "baixo", out.Headers["category"])
	assert.Equal(t, "production", out.Headers["rule_table"])

	var assessment domain.RiskAssessment
	require.NoError(t, json.Unmarshal(out.Value, &assessment))

	type summary struct {
		StationID string
		Category  domain.Category
		Clamped   bool
	}
	expected := summary{StationID: "INMET-A701", Category: domain.CategoryLow}
	actual := summary{StationID: assessment.StationID, Category: assessment.Category, Clamped: assessment.Clamped}
	if diff := cmp.Diff(expected, actual); diff != "" {
		t.Fatalf("assessment mismatch (-want +got):\n%s", diff)
	}
	assert.InDelta(t, 15.0, assessment.Score, 1e-6)
}

func TestRiskTransformer_Transform_ParseError(t *testing.T) {
	raw := domain.RawReading{Value: []byte("not json")}
	_, err := realTransformer(t).Transform(context.Background(), raw)
	assert.Error(t, err)
}

func TestRiskTransformer_Transform_NoRuleFired(t *testing.T) {
	metrics := newTestMetrics()
	assessor, err := domain.NewAssessor(domain.RuleTableProduction)
	require.NoError(t, err)
	tfm := pipeline.NewTransformer(assessor, nil, discardLogger(), metrics)

	// +9C sits in the production table's thermal coverage gap.
	raw := makeRawReading(t, "INMET-A701", "9", "120", "0.2")
	_, err = tfm.Transform(context.Background(), raw)
	assert.Error(t, err)
}

func TestRiskTransformer_Transform_WithDirectory(t *testing.T) {
	assessor, err := domain.NewAssessor(domain.RuleTableProduction)
	require.NoError(t, err)
	dir := staticDirectory{"INMET-A701": {Name: "Campinas", Region: "SP"}}
	tfm := pipeline.NewTransformer(assessor, dir, discardLogger(), newTestMetrics())

	out, err := tfm.Transform(context.Background(), makeRawReading(t, "INMET-A701", "0", "50", "0.1"))
	require.NoError(t, err)

	var assessment domain.RiskAssessment
	require.NoError(t, json.Unmarshal(out.Value, &assessment))
	assert.Equal(t, "Campinas", assessment.StationName)
	assert.Equal(t, "SP", assessment.Region)
}

func TestRiskTransformer_Transform_DirectoryFailureIsBestEffort(t *testing.T) {
	assessor, err := domain.NewAssessor(domain.RuleTableProduction)
	require.NoError(t, err)
	tfm := pipeline.NewTransformer(assessor, failingDirectory{}, discardLogger(), newTestMetrics())

	out, err := tfm.Transform(context.Background(), makeRawReading(t, "INMET-A701", "0", "50", "0.1"))
	require.NoError(t, err)

	var assessment domain.RiskAssessment
	require.NoError(t, json.Unmarshal(out.Value, &assessment))
	assert.Empty(t, assessment.StationName)
}

// --- helpers ---

func realTransformer(t *testing.T) *pipeline.RiskTransformer {
	t.Helper()
	assessor, err := domain.NewAssessor(domain.RuleTableProduction)
	require.NoError(t, err)
	return pipeline.NewTransformer(assessor, nil, discardLogger(), newTestMetrics())
}

func makeRawReading(t *testing.T, stationID, thermal, deficit, ndvi string) domain.RawReading {
	t.Helper()
	data, err := json.Marshal(domain.RawFieldRecord{
		StationID:      stationID,
		PlotID:         "plot-001",
		Crop:           "soy",
		Date:           "2026-03-08",
		ThermalAnomaly: thermal,
		WaterDeficit:   deficit,
		NDVIAnomaly:    ndvi,
	})
	require.NoError(t, err)
	return domain.RawReading{
		Key:   []byte(stationID),
		Value: data,
	}
}

type staticDirectory map[string]domain.StationInfo

func (d staticDirectory) Lookup(_ context.Context, stationID string) (domain.StationInfo, error) {
	info, ok := d[stationID]
	if !ok {
		return domain.StationInfo{}, fmt.Errorf("station %s not found", stationID)
	}
	return info, nil
}

type failingDirectory struct{}

func (failingDirectory) Lookup(context.Context, string) (domain.StationInfo, error) {
	return domain.StationInfo{}, errors.New("registry unavailable")
}
