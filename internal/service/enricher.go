package service

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/harshini-mantri/accident-prediction/internal/domain"
	"github.com/harshini-mantri/accident-prediction/internal/metrics"
	"github.com/harshini-mantri/accident-prediction/pkg/utils"
)

const nearestIncidents = 5

// HistoricalEnricher blends model scores with the nearest recorded incidents
type HistoricalEnricher struct {
	tables  FeatureTableLoader
	log     *zap.Logger
	metrics *metrics.Metrics
}

// NewHistoricalEnricher creates an enricher over the cached feature table
func NewHistoricalEnricher(tables FeatureTableLoader, log *zap.Logger, m *metrics.Metrics) *HistoricalEnricher {
	if log == nil {
		log = zap.NewNop()
	}
	if m == nil {
		m = metrics.New()
	}
	return &HistoricalEnricher{tables: tables, log: log, metrics: m}
}

// Enrich attaches nearest-incident statistics to each estimate and blends
// them into the risk factor. On any dataset problem the estimates come back
// unchanged and applied is false.
func (e *HistoricalEnricher) Enrich(ctx context.Context, estimates []domain.RiskEstimate) (out []domain.RiskEstimate, applied bool) {
	table, err := e.tables.FeatureTable(ctx)
	if err != nil {
		e.log.Warn("historical data unavailable, skipping enrichment", zap.Error(err))
		e.metrics.Enrichment.WithLabelValues("unavailable").Inc()
		return estimates, false
	}
	if table.Len() == 0 {
		e.metrics.Enrichment.WithLabelValues("empty").Inc()
		return estimates, false
	}

	out = make([]domain.RiskEstimate, len(estimates))
	for i, est := range estimates {
		out[i] = est

		nearest := nearestRecords(table.Records, est.Point(), nearestIncidents)
		if len(nearest) == 0 {
			continue
		}

		stats := summarize(nearest)
		weight := utils.Clamp(float64(len(nearest))/10, 0, 1)

		out[i].RealData = &stats
		out[i].RiskFactor = est.RiskFactor*0.7 + weight*0.3
		out[i].RiskLevel = domain.RiskLevelFor(out[i].RiskFactor)
	}

	e.metrics.Enrichment.WithLabelValues("applied").Inc()
	return out, true
}

type neighbor struct {
	record   *domain.IncidentRecord
	distance float64
}

// nearestRecords returns up to n records closest to p by Euclidean distance
// in raw degrees, nearest first. Ties keep table order.
func nearestRecords(records []domain.IncidentRecord, p domain.Coordinate, n int) []neighbor {
	if n <= 0 {
		return nil
	}
	best := make([]neighbor, 0, n+1)
	for i := range records {
		d := utils.DegreeDistance(p.Latitude, p.Longitude, records[i].Latitude, records[i].Longitude)
		if math.IsNaN(d) {
			continue
		}
		if len(best) == n && d >= best[n-1].distance {
			continue
		}

		pos := len(best)
		for pos > 0 && best[pos-1].distance > d {
			pos--
		}
		best = append(best, neighbor{})
		copy(best[pos+1:], best[pos:])
		best[pos] = neighbor{record: &records[i], distance: d}

		if len(best) > n {
			best = best[:n]
		}
	}
	return best
}

func summarize(nearest []neighbor) domain.RealData {
	var stats domain.RealData
	stats.NearestIncidents = len(nearest)

	total := 0.0
	for _, nb := range nearest {
		total += nb.distance

		h := nb.record.Hour
		switch {
		case h >= 5 && h <= 11:
			stats.TimePatterns.Morning++
		case h >= 12 && h <= 16:
			stats.TimePatterns.Afternoon++
		case h >= 17 && h <= 21:
			stats.TimePatterns.Evening++
		case h >= 22 || h <= 4:
			stats.TimePatterns.Night++
		}

		if nb.record.IsWeekend {
			stats.WeekendIncidents++
		}
	}
	stats.AvgDistanceKm = total / float64(len(nearest)) * utils.KmPerDegree

	return stats
}
