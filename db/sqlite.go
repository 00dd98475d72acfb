package db

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store persists training runs and predictions in SQLite.
type Store struct {
	db *sql.DB
}

type TrainingLog struct {
	RunID       string    `json:"run_id"`
	ModelName   string    `json:"model_name"`
	ModelPath   string    `json:"model_path"`
	Accuracy    float64   `json:"accuracy"`
	Precision   float64   `json:"precision"`
	Recall      float64   `json:"recall"`
	F1          float64   `json:"f1"`
	NumTrees    int       `json:"num_trees"`
	MinLeafSize int       `json:"min_leaf_size"`
	Seed        int64     `json:"seed"`
	DataPoints  int       `json:"data_points"`
	TestPoints  int       `json:"test_points"`
	TrainedAt   time.Time `json:"trained_at"`
}

type PredictionLog struct {
	ModelPath      string    `json:"model_path"`
	ExamplePath    string    `json:"example_path"`
	PredictedLabel int       `json:"predicted_label"`
	ProbVulnerable float64   `json:"prob_vulnerable"`
	Tier           string    `json:"tier"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewStore opens (creating if needed) the database at path.
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("database path required")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}
	database, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database failed: %w", err)
	}
	if err := createTables(database); err != nil {
		database.Close()
		return nil, err
	}
	return &Store{db: database}, nil
}

func createTables(database *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS training_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL UNIQUE,
			model_name VARCHAR(50),
			model_path TEXT,
			accuracy REAL,
			precision REAL,
			recall REAL,
			f1 REAL,
			num_trees INTEGER,
			min_leaf_size INTEGER,
			seed INTEGER,
			data_points INTEGER,
			test_points INTEGER,
			trained_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS predictions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			model_path TEXT,
			example_path TEXT,
			predicted_label INTEGER,
			prob_vulnerable REAL,
			tier VARCHAR(20),
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_training_log_trained_at ON training_log(trained_at)`,
		`CREATE INDEX IF NOT EXISTS idx_predictions_created_at ON predictions(created_at)`,
	}
	for _, query := range queries {
		if _, err := database.Exec(query); err != nil {
			return fmt.Errorf("create tables failed: %w", err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) SaveTrainingLog(entry TrainingLog) error {
	if entry.RunID == "" {
		return errors.New("run id required")
	}
	if entry.TrainedAt.IsZero() {
		entry.TrainedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(`
        INSERT INTO training_log (
            run_id, model_name, model_path, accuracy, precision, recall, f1,
            num_trees, min_leaf_size, seed, data_points, test_points, trained_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.RunID, entry.ModelName, entry.ModelPath, entry.Accuracy, entry.Precision, entry.Recall, entry.F1,
		entry.NumTrees, entry.MinLeafSize, entry.Seed, entry.DataPoints, entry.TestPoints, entry.TrainedAt,
	)
	return err
}

// LoadTrainingLog returns the newest runs first. limit <= 0 returns every run.
func (s *Store) LoadTrainingLog(limit int) ([]TrainingLog, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`
        SELECT run_id, model_name, model_path, accuracy, precision, recall, f1,
               num_trees, min_leaf_size, seed, data_points, test_points, trained_at
        FROM training_log
        ORDER BY trained_at DESC, id DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]TrainingLog, 0)
	for rows.Next() {
		var log TrainingLog
		if err := rows.Scan(&log.RunID, &log.ModelName, &log.ModelPath, &log.Accuracy, &log.Precision, &log.Recall, &log.F1,
			&log.NumTrees, &log.MinLeafSize, &log.Seed, &log.DataPoints, &log.TestPoints, &log.TrainedAt); err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}

func (s *Store) SavePrediction(entry PredictionLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(`
        INSERT INTO predictions (
            model_path, example_path, predicted_label, prob_vulnerable, tier, created_at
        ) VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ModelPath, entry.ExamplePath, entry.PredictedLabel, entry.ProbVulnerable, entry.Tier, entry.CreatedAt,
	)
	return err
}

func (s *Store) RecentPredictions(limit int) ([]PredictionLog, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`
        SELECT model_path, example_path, predicted_label, prob_vulnerable, tier, created_at
        FROM predictions
        ORDER BY created_at DESC, id DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	predictions := make([]PredictionLog, 0)
	for rows.Next() {
		var p PredictionLog
		if err := rows.Scan(&p.ModelPath, &p.ExamplePath, &p.PredictedLabel, &p.ProbVulnerable, &p.Tier, &p.CreatedAt); err != nil {
			return nil, err
		}
		predictions = append(predictions, p)
	}
	return predictions, rows.Err()
}
