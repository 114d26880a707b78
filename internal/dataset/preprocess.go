// Package dataset loads the historical accident records and derives the
// feature table used for training and for enrichment.
package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/harshini-mantri/accident-prediction/internal/domain"
	"github.com/harshini-mantri/accident-prediction/internal/risk"
)

// Source column names, matched case-insensitively
const (
	ColumnLatitude  = "latitude"
	ColumnLongitude = "longitude"
	ColumnDate      = "Date"
	ColumnTime      = "Time"
	ColumnWeather   = "Weather_Conditions"
	ColumnSeverity  = "Accident_Severity"
)

const (
	missingNumeric = "-1"
	missingText    = "Unknown"
	sampleRows     = 5
)

// fallbackTimestamp stands in for any row whose date and time cannot be parsed
var fallbackTimestamp = time.Date(2000, time.January, 1, 12, 0, 0, 0, time.UTC)

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
}

// Fill returns a copy of the table with missing cells replaced: numeric
// columns get -1, everything else gets "Unknown"
func Fill(raw *domain.RawTable) *domain.RawTable {
	if raw == nil {
		return nil
	}

	numeric := make([]bool, len(raw.Columns))
	for c := range raw.Columns {
		numeric[c] = isNumericColumn(raw, c)
	}

	out := &domain.RawTable{
		Columns: append([]string(nil), raw.Columns...),
		Rows:    make([][]string, len(raw.Rows)),
	}
	for i, row := range raw.Rows {
		filled := make([]string, len(raw.Columns))
		for c := range raw.Columns {
			v := ""
			if c < len(row) {
				v = row[c]
			}
			if v == "" {
				if numeric[c] {
					v = missingNumeric
				} else {
					v = missingText
				}
			}
			filled[c] = v
		}
		out.Rows[i] = filled
	}
	return out
}

// isNumericColumn treats a column as numeric when every present cell parses
// as a number. A column with no values at all counts as numeric.
func isNumericColumn(raw *domain.RawTable, c int) bool {
	for _, row := range raw.Rows {
		if c >= len(row) || row[c] == "" {
			continue
		}
		if _, err := strconv.ParseFloat(row[c], 64); err != nil {
			return false
		}
	}
	return true
}

// ToFeatureTable derives one IncidentRecord per raw row.
// Latitude and longitude columns are required.
func ToFeatureTable(raw *domain.RawTable) (*domain.FeatureTable, error) {
	if raw == nil || len(raw.Rows) == 0 {
		return nil, fmt.Errorf("dataset: empty table: %w", domain.ErrDataUnavailable)
	}

	table := Fill(raw)

	latCol, ok := table.Column(ColumnLatitude)
	if !ok {
		return nil, fmt.Errorf("dataset: missing column %q: %w", ColumnLatitude, domain.ErrDataUnavailable)
	}
	lngCol, ok := table.Column(ColumnLongitude)
	if !ok {
		return nil, fmt.Errorf("dataset: missing column %q: %w", ColumnLongitude, domain.ErrDataUnavailable)
	}

	dateCol, hasDate := table.Column(ColumnDate)
	timeCol, hasTime := table.Column(ColumnTime)
	weatherCol, hasWeather := table.Column(ColumnWeather)
	sevCol, hasSeverity := table.Column(ColumnSeverity)

	var severities []float64
	maxSeverity := math.Inf(-1)
	if hasSeverity {
		severities = make([]float64, len(table.Rows))
		for i, row := range table.Rows {
			severities[i] = parseNumber(row[sevCol])
			if severities[i] > maxSeverity {
				maxSeverity = severities[i]
			}
		}
	}

	out := &domain.FeatureTable{
		Records:     make([]domain.IncidentRecord, 0, len(table.Rows)),
		HasSeverity: hasSeverity,
	}
	for i, row := range table.Rows {
		ts := fallbackTimestamp
		if hasDate && hasTime {
			ts = ParseTimestamp(row[dateCol], row[timeCol])
		}

		hour := ts.Hour()
		day := Weekday(ts)

		rec := domain.IncidentRecord{
			Latitude:   parseNumber(row[latCol]),
			Longitude:  parseNumber(row[lngCol]),
			Hour:       hour,
			DayOfWeek:  day,
			IsWeekend:  risk.IsWeekend(day),
			IsRushHour: risk.IsRushHour(hour),
			IsNight:    risk.IsNight(hour),
			Target:     1,
		}
		if hasWeather {
			rec.WeatherRisk = risk.DatasetWeatherRisk(row[weatherCol])
		}
		if hasSeverity && !(severities[i] > maxSeverity/2) {
			rec.Target = 0
		}

		out.Records = append(out.Records, rec)
	}

	return out, nil
}

// ParseTimestamp combines a date and a time cell. Anything unparseable
// maps to 2000-01-01 12:00:00.
func ParseTimestamp(date, clock string) time.Time {
	value := strings.TrimSpace(date) + " " + strings.TrimSpace(clock)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts
		}
	}
	return fallbackTimestamp
}

// Weekday converts to the 0 = Monday convention
func Weekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

func parseNumber(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) {
		return -1
	}
	return v
}

// Stats summarizes a raw table, with the first few rows after filling
func Stats(raw *domain.RawTable) domain.DatasetStats {
	if raw == nil {
		return domain.DatasetStats{ColumnNames: []string{}, SampleRows: []map[string]string{}}
	}

	filled := Fill(raw)
	stats := domain.DatasetStats{
		Rows:        len(filled.Rows),
		Columns:     len(filled.Columns),
		ColumnNames: filled.Columns,
		SampleRows:  make([]map[string]string, 0, sampleRows),
	}
	for i := 0; i < len(filled.Rows) && i < sampleRows; i++ {
		sample := make(map[string]string, len(filled.Columns))
		for c, name := range filled.Columns {
			sample[name] = filled.Rows[i][c]
		}
		stats.SampleRows = append(stats.SampleRows, sample)
	}
	return stats
}
