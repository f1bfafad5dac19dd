package domain

import (
	"context"
	"time"
)

// RawFieldRecord represents the flat JSON structure produced by the
// collector. Signal values are string-typed, as emitted by its CSV stage.
type RawFieldRecord struct {
	StationID      string `json:"station_id"`
	PlotID         string `json:"plot_id"`
	Crop           string `json:"crop"`
	Date           string `json:"date"` // observation window end, YYYY-MM-DD
	ThermalAnomaly string `json:"thermal_anomaly_c"`
	WaterDeficit   string `json:"water_deficit_mm"`
	NDVIAnomaly    string `json:"ndvi_anomaly"`
	Lat            string `json:"lat"`
	Lon            string `json:"lon"`
}

// RawReading represents an unprocessed message from the source topic.
type RawReading struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// Geo represents a WGS-84 latitude/longitude coordinate pair.
type Geo struct {
	Lat float64 `json:"lat,omitempty"`
	Lon float64 `json:"lon,omitempty"`
}

// Signals holds the three crisp inputs of the risk model.
type Signals struct {
	ThermalAnomaly float64 `json:"thermal_anomaly_c"`
	WaterDeficit   float64 `json:"water_deficit_mm"`
	NDVIAnomaly    float64 `json:"ndvi_anomaly"`
}

// FieldReading is the domain-rich representation after parsing.
type FieldReading struct {
	StationID  string
	PlotID     string
	Crop       string
	Geo        Geo
	ObservedAt time.Time
	Signals    Signals

	RawPayload []byte
}

// RiskAssessment is the scored, classified representation destined for the
// sink topic.
type RiskAssessment struct {
	ID         string    `json:"id"`
	StationID  string    `json:"station_id"`
	PlotID     string    `json:"plot_id,omitempty"`
	Crop       string    `json:"crop,omitempty"`
	Geo        Geo       `json:"geo,omitempty"`
	ObservedAt time.Time `json:"observed_at"`
	Signals    Signals   `json:"signals"`

	Score     float64   `json:"score"`
	Category  Category  `json:"category"`
	RuleTable RuleTable `json:"rule_table"`
	// Clamped is set when any input fell outside its universe and was
	// forced to the nearest bound before inference.
	Clamped    bool      `json:"clamped,omitempty"`
	TimeBucket time.Time `json:"time_bucket,omitempty"`

	// Station registry enrichment fields.
	StationName string `json:"station_name,omitempty"`
	Region      string `json:"region,omitempty"`

	RawPayload  []byte    `json:"-"`
	ProcessedAt time.Time `json:"processed_at"`
}

// OutputEvent is the serialized form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// StationInfo is the registry's metadata for one station.
type StationInfo struct {
	Name   string
	Region string
}

// StationDirectory resolves station metadata. Implementations may cache.
type StationDirectory interface {
	Lookup(ctx context.Context, stationID string) (StationInfo, error)
}
