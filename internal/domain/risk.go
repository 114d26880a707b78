package domain

// RiskLevel is the categorical bucket for a risk factor
type RiskLevel string

const (
	RiskVeryLow  RiskLevel = "very low"
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
	RiskVeryHigh RiskLevel = "very high"
)

// RiskLevelFor maps a risk factor onto its bucket. Each bucket includes its lower edge.
func RiskLevelFor(riskFactor float64) RiskLevel {
	switch {
	case riskFactor >= 0.8:
		return RiskVeryHigh
	case riskFactor >= 0.6:
		return RiskHigh
	case riskFactor >= 0.4:
		return RiskModerate
	case riskFactor >= 0.2:
		return RiskLow
	default:
		return RiskVeryLow
	}
}

// TimePatterns is the time-of-day histogram over nearby incidents
type TimePatterns struct {
	Morning   int `json:"morning"`
	Afternoon int `json:"afternoon"`
	Evening   int `json:"evening"`
	Night     int `json:"night"`
}

// RealData carries statistics from the historical incidents nearest to a hotspot
type RealData struct {
	NearestIncidents int          `json:"nearest_incidents"`
	AvgDistanceKm    float64      `json:"avg_distance_km"`
	TimePatterns     TimePatterns `json:"time_patterns"`
	WeekendIncidents int          `json:"weekend_incidents"`
}

// RiskEstimate is a scored hotspot
type RiskEstimate struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	RiskFactor float64   `json:"risk_factor"`
	RiskLevel  RiskLevel `json:"risk_level"`
	RealData   *RealData `json:"real_data,omitempty"`
}

// NewRiskEstimate builds an estimate with its level derived from the factor
func NewRiskEstimate(point Coordinate, riskFactor float64) RiskEstimate {
	return RiskEstimate{
		Latitude:   point.Latitude,
		Longitude:  point.Longitude,
		RiskFactor: riskFactor,
		RiskLevel:  RiskLevelFor(riskFactor),
	}
}

// Point returns the estimate's coordinate
func (e RiskEstimate) Point() Coordinate {
	return Coordinate{Latitude: e.Latitude, Longitude: e.Longitude}
}
