package domain

import "time"

// PredictionRequest is the validated input for a hotspot prediction
type PredictionRequest struct {
	Center      Coordinate
	RadiusKm    float64
	Weather     string
	Hour        int
	Day         int
	UseRealData bool
}

// PredictionResponse is the ranked hotspot result
type PredictionResponse struct {
	Center         Coordinate     `json:"center"`
	Radius         float64        `json:"radius"`
	Timestamp      string         `json:"timestamp"`
	Weather        *string        `json:"weather"`
	UsingRealData  bool           `json:"using_real_data"`
	UsingMLModel   bool           `json:"using_ml_model"`
	Hotspots       []RiskEstimate `json:"hotspots"`
	RequestID      string         `json:"request_id"`
	GeneratedAt    time.Time      `json:"-"`
	FallbackPoints int            `json:"-"`
}

// ModelInfo describes the classifier currently in service
type ModelInfo struct {
	FeatureNames []string  `json:"feature_names"`
	ModelType    string    `json:"model_type"`
	Version      string    `json:"version,omitempty"`
	TrainedAt    time.Time `json:"trained_at,omitempty"`
	Accuracy     float64   `json:"accuracy"`
	TrainRows    int       `json:"train_rows"`
}

// DatasetStats summarizes the raw historical dataset
type DatasetStats struct {
	Rows        int                 `json:"rows"`
	Columns     int                 `json:"columns"`
	ColumnNames []string            `json:"column_names"`
	SampleRows  []map[string]string `json:"sample_rows"`
}
