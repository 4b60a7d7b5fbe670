package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/mintesinot/fi-forecast/models"
)

// DB persists forecast runs for the presentation layer. The core never
// writes here; persistence is strictly a downstream concern.
type DB struct {
	*sql.DB
}

// ConnectionParams holds PostgreSQL connection parameters
type ConnectionParams struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// New creates a new database connection
func New(params ConnectionParams) (*DB, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		params.Host, params.Port, params.User, params.Password, params.DBName, params.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	if err := createTables(db); err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// createTables creates the necessary tables if they don't exist
func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS forecast_runs (
			run_id TEXT PRIMARY KEY,
			indicator_code TEXT NOT NULL,
			scenario TEXT NOT NULL,
			trend_model TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS forecast_points (
			run_id TEXT NOT NULL REFERENCES forecast_runs(run_id),
			point_date DATE NOT NULL,
			value DOUBLE PRECISION NOT NULL,
			lower_bound DOUBLE PRECISION NOT NULL,
			upper_bound DOUBLE PRECISION NOT NULL,
			low_confidence BOOLEAN NOT NULL,
			PRIMARY KEY (run_id, point_date)
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS milestone_results (
			id TEXT PRIMARY KEY,
			indicator_code TEXT NOT NULL,
			target_id TEXT NOT NULL,
			target_value DOUBLE PRECISION NOT NULL,
			target_date DATE NOT NULL,
			reached_at DATE,
			created_at TIMESTAMP NOT NULL
		)
	`)
	return err
}

// SaveForecast stores one scenario series and returns the run id.
func (db *DB) SaveForecast(series *models.ForecastSeries) (string, error) {
	runID := uuid.NewString()

	tx, err := db.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO forecast_runs (run_id, indicator_code, scenario, trend_model, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, runID, series.IndicatorCode, string(series.Scenario), string(series.Model), time.Now().UTC())
	if err != nil {
		return "", err
	}

	for _, p := range series.Points {
		_, err = tx.Exec(`
			INSERT INTO forecast_points (run_id, point_date, value, lower_bound, upper_bound, low_confidence)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, runID, p.Date, p.Value, p.Lower, p.Upper, p.LowConfidence)
		if err != nil {
			return "", err
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return runID, nil
}

// SaveMilestone stores a milestone outcome.
func (db *DB) SaveMilestone(result *models.MilestoneResult) error {
	var reached sql.NullTime
	if result.ReachedAt != nil {
		reached = sql.NullTime{Time: *result.ReachedAt, Valid: true}
	}

	_, err := db.Exec(`
		INSERT INTO milestone_results (id, indicator_code, target_id, target_value, target_date, reached_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, uuid.NewString(), result.IndicatorCode, result.TargetID, result.TargetValue,
		result.TargetDate, reached, time.Now().UTC())

	return err
}

// GetForecast retrieves a stored series by run id.
func (db *DB) GetForecast(runID string) (*models.ForecastSeries, error) {
	series := &models.ForecastSeries{}
	var scenarioName, trendModel string

	err := db.QueryRow(`
		SELECT indicator_code, scenario, trend_model
		FROM forecast_runs
		WHERE run_id = $1
	`, runID).Scan(&series.IndicatorCode, &scenarioName, &trendModel)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // No run found
		}
		return nil, err
	}
	series.Scenario = models.ScenarioName(scenarioName)
	series.Model = models.TrendModel(trendModel)

	rows, err := db.Query(`
		SELECT point_date, value, lower_bound, upper_bound, low_confidence
		FROM forecast_points
		WHERE run_id = $1
		ORDER BY point_date
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var p models.ForecastPoint
		if err := rows.Scan(&p.Date, &p.Value, &p.Lower, &p.Upper, &p.LowConfidence); err != nil {
			return nil, err
		}
		series.Points = append(series.Points, p)
	}
	return series, rows.Err()
}
