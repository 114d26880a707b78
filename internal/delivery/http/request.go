package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/harshini-mantri/accident-prediction/internal/dataset"
	"github.com/harshini-mantri/accident-prediction/internal/domain"
)

const defaultRadiusKm = 10

// flexNumber accepts a JSON number or a numeric string. null leaves it unset.
type flexNumber struct {
	value float64
	set   bool
}

func (n *flexNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("%q is not a number", s)
		}
		n.value, n.set = v, true
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	n.value, n.set = v, true
	return nil
}

// predictRequest is the wire form of a hotspot prediction request
type predictRequest struct {
	Latitude    flexNumber `json:"latitude"`
	Longitude   flexNumber `json:"longitude"`
	Radius      flexNumber `json:"radius"`
	Weather     *string    `json:"weather"`
	Hour        flexNumber `json:"hour"`
	Day         flexNumber `json:"day"`
	UseRealData *bool      `json:"use_real_data"`
}

// parsePredictRequest decodes and defaults a request body. Range checks on
// the resulting values happen in the service.
func parsePredictRequest(body []byte, now time.Time) (domain.PredictionRequest, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return domain.PredictionRequest{}, fmt.Errorf("%w: no data found in request", domain.ErrInvalidInput)
	}

	var in predictRequest
	if err := json.Unmarshal(body, &in); err != nil {
		return domain.PredictionRequest{}, fmt.Errorf("%w: invalid parameter types: %v", domain.ErrInvalidInput, err)
	}

	if !in.Latitude.set || !in.Longitude.set {
		return domain.PredictionRequest{}, fmt.Errorf("%w: latitude and longitude are required", domain.ErrInvalidInput)
	}

	req := domain.PredictionRequest{
		Center: domain.Coordinate{
			Latitude:  in.Latitude.value,
			Longitude: in.Longitude.value,
		},
		RadiusKm:    defaultRadiusKm,
		Hour:        now.Hour(),
		Day:         dataset.Weekday(now),
		UseRealData: true,
	}

	if in.Radius.set {
		req.RadiusKm = in.Radius.value
	}
	if in.Weather != nil {
		req.Weather = strings.TrimSpace(*in.Weather)
	}
	if in.Hour.set {
		h, err := toInt(in.Hour.value, "hour")
		if err != nil {
			return domain.PredictionRequest{}, err
		}
		req.Hour = h
	}
	if in.Day.set {
		d, err := toInt(in.Day.value, "day")
		if err != nil {
			return domain.PredictionRequest{}, err
		}
		req.Day = d
	}
	if in.UseRealData != nil {
		req.UseRealData = *in.UseRealData
	}

	if err := req.Center.Validate(); err != nil {
		return domain.PredictionRequest{}, err
	}

	return req, nil
}

// toInt truncates toward zero
func toInt(v float64, name string) (int, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidInput, name)
	}
	return int(math.Trunc(v)), nil
}

// parseCoordinate reads latitude and longitude query parameters
func parseCoordinate(lat, lng string) (domain.Coordinate, error) {
	if lat == "" || lng == "" {
		return domain.Coordinate{}, fmt.Errorf("%w: latitude and longitude are required", domain.ErrInvalidInput)
	}

	latV, errLat := strconv.ParseFloat(lat, 64)
	lngV, errLng := strconv.ParseFloat(lng, 64)
	if errLat != nil || errLng != nil {
		return domain.Coordinate{}, fmt.Errorf("%w: invalid latitude or longitude format", domain.ErrInvalidInput)
	}

	c := domain.Coordinate{Latitude: latV, Longitude: lngV}
	if err := c.Validate(); err != nil {
		return domain.Coordinate{}, err
	}
	return c, nil
}
