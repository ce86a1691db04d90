// Package history provides SQLite persistence for training episode history.
package history

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	domainDefense "github.com/yuvrajhash/AI-Cyber-God/internal/domain/defense"
)

// Store records per-episode training outcomes in SQLite so training runs can
// be inspected after the fact.
type Store struct {
	mu     sync.RWMutex
	db     *sql.DB
	config StoreConfig
}

// StoreConfig configures the history store.
type StoreConfig struct {
	// DBPath is the SQLite database path.
	DBPath string `json:"dbPath"`

	// MaxEpisodes is the maximum number of episode rows to keep.
	MaxEpisodes int `json:"maxEpisodes"`
}

// DefaultStoreConfig returns the default configuration.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		DBPath:      ":memory:",
		MaxEpisodes: 100000,
	}
}

// EpisodeRecord is one persisted training episode.
type EpisodeRecord struct {
	RunID     string                    `json:"runId"`
	Phase     domainDefense.EngineState `json:"phase"`
	Episode   int                       `json:"episode"`
	Reward    float64                   `json:"reward"`
	Length    int                       `json:"length"`
	Epsilon   float64                   `json:"epsilon"`
	CreatedAt time.Time                 `json:"createdAt"`
}

// RunSummary aggregates the episodes of one training run.
type RunSummary struct {
	RunID      string  `json:"runId"`
	Episodes   int     `json:"episodes"`
	AvgReward  float64 `json:"avgReward"`
	BestReward float64 `json:"bestReward"`
	AvgLength  float64 `json:"avgLength"`
}

// NewStore opens (or creates) the episode history database.
func NewStore(config StoreConfig) (*Store, error) {
	if config.DBPath == "" {
		config.DBPath = ":memory:"
	}
	db, err := sql.Open("sqlite", config.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db, config: config}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS episodes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			phase TEXT NOT NULL,
			episode INTEGER NOT NULL,
			reward REAL NOT NULL,
			length INTEGER NOT NULL,
			epsilon REAL NOT NULL,
			created_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_episodes_run ON episodes(run_id);
		CREATE INDEX IF NOT EXISTS idx_episodes_created ON episodes(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// RecordEpisode persists one episode outcome.
func (s *Store) RecordEpisode(rec EpisodeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.db.Exec(
		`INSERT INTO episodes (run_id, phase, episode, reward, length, epsilon, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, string(rec.Phase), rec.Episode, rec.Reward, rec.Length, rec.Epsilon,
		createdAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert episode: %w", err)
	}
	return nil
}

// RecentEpisodes returns the latest limit episodes, newest first.
func (s *Store) RecentEpisodes(limit int) ([]EpisodeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT run_id, phase, episode, reward, length, epsilon, created_at
		 FROM episodes ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query episodes: %w", err)
	}
	defer rows.Close()

	var records []EpisodeRecord
	for rows.Next() {
		var rec EpisodeRecord
		var phase string
		var createdAt int64
		if err := rows.Scan(&rec.RunID, &phase, &rec.Episode, &rec.Reward, &rec.Length, &rec.Epsilon, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan episode: %w", err)
		}
		rec.Phase = domainDefense.EngineState(phase)
		rec.CreatedAt = time.Unix(createdAt, 0)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Summarize aggregates the episodes recorded for a run.
func (s *Store) Summarize(runID string) (RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(
		`SELECT COUNT(*), COALESCE(AVG(reward), 0), COALESCE(MAX(reward), 0), COALESCE(AVG(length), 0)
		 FROM episodes WHERE run_id = ?`, runID)

	summary := RunSummary{RunID: runID}
	if err := row.Scan(&summary.Episodes, &summary.AvgReward, &summary.BestReward, &summary.AvgLength); err != nil {
		return RunSummary{}, fmt.Errorf("failed to summarize run: %w", err)
	}
	return summary, nil
}

// Prune keeps only the newest MaxEpisodes rows.
func (s *Store) Prune() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		`DELETE FROM episodes WHERE id NOT IN (
			SELECT id FROM episodes ORDER BY id DESC LIMIT ?
		)`, s.config.MaxEpisodes)
	if err != nil {
		return 0, fmt.Errorf("failed to prune episodes: %w", err)
	}
	return res.RowsAffected()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
