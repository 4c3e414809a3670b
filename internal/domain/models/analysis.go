package models

import "time"

// AnomalyKind classifies a band breach on the latest bar.
type AnomalyKind string

const (
	AnomalySpike AnomalyKind = "Spike"
	AnomalyDrop  AnomalyKind = "Drop"
)

// AnomalyReport is the detector output. The detector is symbol-agnostic;
// symbol and timestamp are attached by the orchestrator.
type AnomalyReport struct {
	Kind    AnomalyKind
	Message string
}

// AnalysisStatus values for the /analyze response contract.
const (
	StatusFetchFailed = "Fetch Failed"
	StatusNoAnomaly   = "No Anomaly Detected"
	StatusAnomaly     = "Anomaly Detected"
)

// LatestData carries the latest bar observation when no anomaly fired.
type LatestData struct {
	Symbol     string    `json:"symbol"`
	Timestamp  time.Time `json:"timestamp"`
	ClosePrice float64   `json:"close_price"`
}

// AnomalyDetails is the anomaly report enriched with symbol and timestamp.
type AnomalyDetails struct {
	Symbol    string      `json:"symbol"`
	Type      AnomalyKind `json:"type"`
	Message   string      `json:"message"`
	Timestamp time.Time   `json:"timestamp"`
}

// AnalysisResult is the response contract for one analysis run. Exactly one
// of the variant fields is populated according to Status; the struct is
// never mutated after construction.
type AnalysisResult struct {
	Status            string          `json:"status"`
	Error             string          `json:"error,omitempty"`
	LatestData        *LatestData     `json:"latest_data,omitempty"`
	RawAnomalyDetails *AnomalyDetails `json:"raw_anomaly_details,omitempty"`
	StrategicAnalysis string          `json:"strategic_analysis,omitempty"`
}
