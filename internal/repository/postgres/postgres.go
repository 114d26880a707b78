package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/harshini-mantri/accident-prediction/internal/domain"
)

// PostgresRepository implements domain.DataRepository
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Health checks database connectivity
func (r *PostgresRepository) Health(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: health check failed: %w", err)
	}
	return nil
}

// SavePredictionLog persists a prediction request/response to PostgreSQL
func (r *PostgresRepository) SavePredictionLog(ctx context.Context, req domain.PredictionRequest, resp domain.PredictionResponse) error {
	query := `
		INSERT INTO prediction_logs (
			request_id, created_at, center_lat, center_lng, radius_km, hour, day_of_week,
			weather, use_real_data, using_ml_model, fallback_points, max_risk, hotspots
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	hotspots, err := json.Marshal(resp.Hotspots)
	if err != nil {
		return fmt.Errorf("postgres: failed to encode hotspots: %w", err)
	}

	maxRisk := 0.0
	for _, h := range resp.Hotspots {
		if h.RiskFactor > maxRisk {
			maxRisk = h.RiskFactor
		}
	}

	_, err = r.pool.Exec(ctx, query,
		resp.RequestID, resp.GeneratedAt, req.Center.Latitude, req.Center.Longitude, req.RadiusKm,
		req.Hour, req.Day, resp.Weather, req.UseRealData, resp.UsingMLModel,
		resp.FallbackPoints, maxRisk, string(hotspots),
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to save prediction log: %w", err)
	}

	return nil
}

// IncidentSource reads the historical dataset from a table
type IncidentSource struct {
	pool  *pgxpool.Pool
	table string
}

// NewIncidentSource creates a dataset source over table
func NewIncidentSource(pool *pgxpool.Pool, table string) *IncidentSource {
	return &IncidentSource{pool: pool, table: table}
}

// Describe names the source for logs
func (s *IncidentSource) Describe() string {
	return "postgres:" + s.table
}

// Load reads every row of the table as text cells
func (s *IncidentSource) Load(ctx context.Context) (*domain.RawTable, error) {
	query := "SELECT * FROM " + pgx.Identifier(strings.Split(s.table, ".")).Sanitize()

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: query %s: %w: %v", s.table, domain.ErrDataUnavailable, err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	table := &domain.RawTable{Columns: make([]string, len(fields))}
	oids := make([]uint32, len(fields))
	for i, f := range fields {
		table.Columns[i] = f.Name
		oids[i] = f.DataTypeOID
	}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("postgres: read %s row: %w: %v", s.table, domain.ErrDataUnavailable, err)
		}
		row := make([]string, len(values))
		for i, v := range values {
			row[i] = cellString(oids[i], v)
		}
		table.Rows = append(table.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: read %s: %w: %v", s.table, domain.ErrDataUnavailable, err)
	}

	return table, nil
}

// cellString renders a decoded column value the way the CSV source would.
// NULL becomes the empty string.
func cellString(oid uint32, v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case bool:
		return strconv.FormatBool(val)
	case int16:
		return strconv.FormatInt(int64(val), 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case time.Time:
		if oid == pgtype.DateOID {
			return val.Format("2006-01-02")
		}
		return val.Format("2006-01-02 15:04:05")
	case pgtype.Time:
		if !val.Valid {
			return ""
		}
		d := time.Duration(val.Microseconds) * time.Microsecond
		return fmt.Sprintf("%02d:%02d:%02d", int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60)
	case pgtype.Numeric:
		f, err := val.Float64Value()
		if err != nil || !f.Valid {
			return ""
		}
		return strconv.FormatFloat(f.Float64, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}
