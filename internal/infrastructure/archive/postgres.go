// Package archive provides an optional PostgreSQL archive of produced
// defense recommendations for audit.
package archive

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	domainDefense "github.com/yuvrajhash/AI-Cyber-God/internal/domain/defense"
)

// Config configures the recommendation archive connection.
type Config struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"-"`
	Database string `json:"database"`
	SSL      bool   `json:"ssl"`
}

// ConfigFromEnv builds a Config from the standard PG* environment variables.
// An empty PGDATABASE means the archive is disabled.
func ConfigFromEnv() Config {
	return Config{
		Host:     getEnvOrDefault("PGHOST", "localhost"),
		Port:     5432,
		User:     getEnvOrDefault("PGUSER", "postgres"),
		Password: os.Getenv("PGPASSWORD"),
		Database: os.Getenv("PGDATABASE"),
	}
}

// Enabled reports whether the archive is configured.
func (c Config) Enabled() bool {
	return c.Database != ""
}

// Archive persists recommendation sets to PostgreSQL.
type Archive struct {
	mu      sync.RWMutex
	db      *sql.DB
	config  Config
	connStr string
}

// New creates a new recommendation archive. It does not connect; call
// Connect before archiving.
func New(config Config) *Archive {
	if config.Port == 0 {
		config.Port = 5432
	}
	return &Archive{
		config:  config,
		connStr: buildConnectionString(config),
	}
}

func buildConnectionString(config Config) string {
	sslMode := "disable"
	if config.SSL {
		sslMode = "require"
	}

	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Database, sslMode,
	)
	if config.Password != "" {
		connStr += fmt.Sprintf(" password=%s", config.Password)
	}
	return connStr
}

// Connect establishes the database connection and ensures the schema.
func (a *Archive) Connect(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.db != nil {
		return nil // Already connected
	}

	db, err := sql.Open("postgres", a.connStr)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS defense_recommendations (
			id TEXT PRIMARY KEY,
			threat_assessment TEXT NOT NULL,
			confidence DOUBLE PRECISION NOT NULL,
			payload JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`); err != nil {
		db.Close()
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	a.db = db
	return nil
}

// Store archives one recommendation set.
func (a *Archive) Store(ctx context.Context, rec domainDefense.DefenseRecommendation) error {
	a.mu.RLock()
	db := a.db
	a.mu.RUnlock()

	if db == nil {
		return fmt.Errorf("archive not connected")
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal recommendation: %w", err)
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO defense_recommendations (id, threat_assessment, confidence, payload)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO NOTHING`,
		rec.ID, string(rec.ThreatAssessment), rec.Confidence, payload)
	if err != nil {
		return fmt.Errorf("failed to archive recommendation: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (a *Archive) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
