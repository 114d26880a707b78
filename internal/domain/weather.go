package domain

import "time"

// Weather represents current conditions at a location
type Weather struct {
	Main        string    `json:"main"`
	Description string    `json:"description"`
	Temperature float64   `json:"temp"`
	Humidity    int       `json:"humidity"`
	WindSpeed   float64   `json:"wind_speed"`
	Visibility  int       `json:"visibility"`
	Timestamp   time.Time `json:"-"`
}

// WeatherResponse wraps weather data with the queried location
type WeatherResponse struct {
	Location  Coordinate `json:"location"`
	Weather   Weather    `json:"weather"`
	Timestamp string     `json:"timestamp"`
}
