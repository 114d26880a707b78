package domain

// IncidentRecord is one preprocessed historical accident row
type IncidentRecord struct {
	Latitude    float64
	Longitude   float64
	Hour        int
	DayOfWeek   int
	IsWeekend   bool
	IsRushHour  bool
	IsNight     bool
	WeatherRisk float64
	Target      int
}

// Features returns the record as a vector in canonical order
func (r IncidentRecord) Features() FeatureVector {
	return FeatureVector{
		Names: FeatureNames,
		Values: []float64{
			r.Latitude,
			r.Longitude,
			float64(r.Hour),
			float64(r.DayOfWeek),
			boolToFloat(r.IsWeekend),
			boolToFloat(r.IsRushHour),
			boolToFloat(r.IsNight),
			r.WeatherRisk,
		},
	}
}

// FeatureTable is the derived dataset shared by training and enrichment
type FeatureTable struct {
	Records []IncidentRecord
	// HasSeverity is false when every target defaulted to 1
	HasSeverity bool
}

// Len returns the number of records
func (t *FeatureTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
