package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/me/ichorgen/pkg/model"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath.
// Use ":memory:" for an in-memory database (useful in tests).
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}

	// WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger.With("component", "store"),
	}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate creates all required tables and indexes.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	s.logger.Debug("sql", "op", "migrate")
	return migrate(ctx, s.db)
}

func (s *SQLiteStore) CreateGeneration(ctx context.Context, gen *model.Generation) error {
	s.logger.Debug("sql", "op", "insert", "table", "generations", "id", gen.ID)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO generations (id, job_name, config_path, script_path, list_path, file_count, task_count, concurrency_cap, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		gen.ID, gen.JobName, gen.ConfigPath, gen.ScriptPath, gen.ListPath,
		gen.FileCount, gen.TaskCount, gen.ConcurrencyCap,
		gen.CreatedAt.Format(time.RFC3339Nano),
	)
	return err
}

func (s *SQLiteStore) GetGeneration(ctx context.Context, id string) (*model.Generation, error) {
	s.logger.Debug("sql", "op", "select", "table", "generations", "id", id)

	row := s.db.QueryRowContext(ctx,
		`SELECT id, job_name, config_path, script_path, list_path, file_count, task_count, concurrency_cap, created_at
		 FROM generations WHERE id = ?`, id)

	gen, err := scanGeneration(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return gen, nil
}

func (s *SQLiteStore) ListGenerations(ctx context.Context, limit int) ([]*model.Generation, error) {
	s.logger.Debug("sql", "op", "list", "table", "generations", "limit", limit)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, job_name, config_path, script_path, list_path, file_count, task_count, concurrency_cap, created_at
		 FROM generations ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var gens []*model.Generation
	for rows.Next() {
		gen, err := scanGeneration(rows)
		if err != nil {
			return nil, err
		}
		gens = append(gens, gen)
	}
	return gens, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGeneration(row scanner) (*model.Generation, error) {
	var gen model.Generation
	var createdAt string

	err := row.Scan(&gen.ID, &gen.JobName, &gen.ConfigPath, &gen.ScriptPath, &gen.ListPath,
		&gen.FileCount, &gen.TaskCount, &gen.ConcurrencyCap, &createdAt)
	if err != nil {
		return nil, err
	}
	gen.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return &gen, nil
}
