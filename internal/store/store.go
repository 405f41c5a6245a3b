// Package store persists finished optimization runs in SQLite or PostgreSQL.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/ssolson/upOpt/internal/solution"
)

// ErrNotFound is returned when a user has no stored run.
var ErrNotFound = errors.New("no stored run")

// Record is one stored run.
type Record struct {
	ID        string
	Username  string
	CreatedAt time.Time
	Solution  *solution.Solution
}

// Store writes and reads runs through database/sql.
type Store struct {
	db       *sql.DB
	logger   *zap.Logger
	postgres bool
	now      func() time.Time
}

// Open connects to the database and creates the schema. Driver is "sqlite"
// or "postgres".
func Open(ctx context.Context, logger *zap.Logger, driver, dsn string) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var postgres bool
	switch driver {
	case "sqlite":
	case "postgres":
		postgres = true
	default:
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open DB: %w", err)
	}
	if postgres {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	} else {
		// a single writer avoids SQLITE_BUSY on the file
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	s := &Store{db: db, logger: logger, postgres: postgres, now: time.Now}
	if err := s.createTables(ctx); err != nil {
		db.Close()
		return nil, err
	}
	logger.Debug("store ready", zap.String("op", "store.Open"), zap.String("driver", driver))
	return s, nil
}

func (s *Store) createTables(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id            TEXT PRIMARY KEY,
			username      TEXT NOT NULL,
			created_at    BIGINT NOT NULL,
			total_monthly DOUBLE PRECISION NOT NULL,
			report        TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_username ON runs (username, created_at)`,
		`CREATE TABLE IF NOT EXISTS assignments (
			run_id        TEXT NOT NULL,
			collection_id INTEGER NOT NULL,
			unit_id       BIGINT NOT NULL,
			PRIMARY KEY (run_id, collection_id, unit_id)
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (s *Store) rebind(query string) string {
	if !s.postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Save stores a run and returns its id.
func (s *Store) Save(ctx context.Context, username string, sol *solution.Solution) (id string, err error) {
	if sol == nil {
		return "", fmt.Errorf("cannot store a nil solution")
	}
	report, err := json.Marshal(sol)
	if err != nil {
		return "", fmt.Errorf("encoding solution: %w", err)
	}
	id = uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx,
		s.rebind(`INSERT INTO runs (id, username, created_at, total_monthly, report) VALUES (?, ?, ?, ?, ?)`),
		id, username, s.now().UnixNano(), sol.Earnings.TotalMonthly, string(report),
	)
	if err != nil {
		return "", fmt.Errorf("inserting run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, s.rebind(`INSERT INTO assignments (run_id, collection_id, unit_id) VALUES (?, ?, ?)`))
	if err != nil {
		return "", fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	collections := make([]int, 0, len(sol.Assignments))
	for cid := range sol.Assignments {
		collections = append(collections, cid)
	}
	sort.Ints(collections)
	rows := 0
	for _, cid := range collections {
		for _, uid := range sol.Assignments[cid] {
			if _, err = stmt.ExecContext(ctx, id, cid, uid); err != nil {
				return "", fmt.Errorf("inserting assignment %d/%d: %w", cid, uid, err)
			}
			rows++
		}
	}

	if err = tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}
	s.logger.Info("stored run",
		zap.String("op", "store.Save"),
		zap.String("run_id", id),
		zap.String("username", username),
		zap.Int("assignments", rows),
	)
	return id, nil
}

// Latest returns the most recent run of username.
func (s *Store) Latest(ctx context.Context, username string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT id, created_at, report FROM runs WHERE username = ? ORDER BY created_at DESC LIMIT 1`),
		username,
	)
	var (
		rec    = Record{Username: username}
		nanos  int64
		report string
	)
	if err := row.Scan(&rec.ID, &nanos, &report); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w for %s", ErrNotFound, username)
		}
		return nil, fmt.Errorf("querying latest run: %w", err)
	}
	rec.CreatedAt = time.Unix(0, nanos)

	var sol solution.Solution
	if err := json.Unmarshal([]byte(report), &sol); err != nil {
		return nil, fmt.Errorf("decoding run %s: %w", rec.ID, err)
	}
	rec.Solution = &sol
	return &rec, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
