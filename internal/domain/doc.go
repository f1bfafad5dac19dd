// Package domain models agro-environmental field readings and their
// crop-failure risk assessment.
//
// # Data Source
//
// Readings originate from an upstream collector that merges weather-station
// observations with satellite vegetation indices per plot and publishes one
// flat JSON record per observation window to the Kafka source topic. Signal
// fields arrive as strings, as produced by the collector's CSV stage.
//
// # Signals
//
// Three continuous signals describe one observation window:
//
//	anomalia_termica   temperature anomaly vs. the climatological normal,
//	                   in °C, roughly [-15, 15].
//	deficit_hidrico    cumulative water deficit over the window, in mm,
//	                   roughly [0, 300].
//	anomalia_ndvi      NDVI anomaly vs. the plot's historical mean,
//	                   dimensionless, roughly [-0.4, 0.4].
//
// Values outside these ranges are clamped to the nearest bound before
// inference (sensor spikes and unit slips are common upstream); clamping is
// recorded on the assessment so downstream consumers can filter on it.
//
// # Risk model
//
// Risk is inferred with a Mamdani fuzzy system (see the fuzzy package) over
// the three signals, producing a score in [0, 100], then bucketed:
//
//	[0, 30)   baixo
//	[30, 60)  moderado
//	[60, 90)  alto
//	[90, 100] critico
//
// Two rule tables ship with the model. The 47-rule production table covers
// the full agronomy matrix (NDVI block × deficit column × thermal cell)
// plus broad fallback rules for severe drought and vegetation collapse.
// The 5-rule simplified table is the compact configuration the reference
// scenarios were calibrated against. The table is selected by
// configuration. The Portuguese term vocabulary is the wire-level contract
// with the agronomy team that authored the tables and is kept verbatim.
//
// # ID Generation
//
// Assessment IDs are deterministic SHA-256 hashes of
// station|plot|date|signals. Reprocessing the same reading produces the
// same ID, enabling idempotent upserts downstream and replay safety. See
// [generateID].
package domain
