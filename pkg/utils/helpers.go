package utils

import (
	"math"
)

// KmPerDegree approximates the length of one degree of arc in kilometers
const KmPerDegree = 111

// DegreeDistance is the straight-line distance between two points measured
// in raw degrees. It is only meaningful for nearby points.
func DegreeDistance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := lat2 - lat1
	dLon := lon2 - lon1
	return math.Sqrt(dLat*dLat + dLon*dLon)
}

// Clamp limits a value between min and max
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
