package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/okian/pitchcast/internal/domain/rating"
)

const metaLastTrained = "last_trained"

type dialect struct {
	driver string
	// placeholder returns the n-th (1-based) bind parameter.
	placeholder func(n int) string
}

var (
	sqliteDialect   = dialect{driver: "sqlite", placeholder: func(int) string { return "?" }}
	postgresDialect = dialect{driver: "postgres", placeholder: func(n int) string { return "$" + strconv.Itoa(n) }}
)

// SQL stores ratings in two tables, one row per team plus a metadata row
// for the training timestamp. A save replaces the whole set in one
// transaction.
type SQL struct {
	db      *sql.DB
	dialect dialect
}

// NewSQLite opens (creating if needed) a sqlite database file.
func NewSQLite(ctx context.Context, path string) (*SQL, error) {
	db, err := sql.Open(sqliteDialect.driver, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// one writer keeps sqlite from returning SQLITE_BUSY
	db.SetMaxOpenConns(1)
	return newSQL(ctx, db, sqliteDialect)
}

// NewPostgres connects to postgres with a lib/pq DSN.
func NewPostgres(ctx context.Context, dsn string) (*SQL, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}
	db, err := sql.Open(postgresDialect.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return newSQL(ctx, db, postgresDialect)
}

func newSQL(ctx context.Context, db *sql.DB, d dialect) (*SQL, error) {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", d.driver, err)
	}

	s := &SQL{db: db, dialect: d}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("init %s schema: %w", d.driver, err)
	}
	return s, nil
}

func (s *SQL) initSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS team_ratings (
			team_id TEXT PRIMARY KEY,
			rating DOUBLE PRECISION NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS rating_meta (
			name TEXT PRIMARY KEY,
			value BIGINT NOT NULL
		)`,
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQL) Load(ctx context.Context) (rating.Record, error) {
	rec := emptyRecord()

	q := "SELECT value FROM rating_meta WHERE name = " + s.dialect.placeholder(1)
	err := s.db.QueryRowContext(ctx, q, metaLastTrained).Scan(&rec.LastTrained)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return rating.Record{}, fmt.Errorf("select last trained: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT team_id, rating FROM team_ratings")
	if err != nil {
		return rating.Record{}, fmt.Errorf("select ratings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id string
			r  float64
		)
		if err := rows.Scan(&id, &r); err != nil {
			return rating.Record{}, fmt.Errorf("scan rating: %w", err)
		}
		rec.Ratings[id] = r
	}
	if err := rows.Err(); err != nil {
		return rating.Record{}, fmt.Errorf("iterate ratings: %w", err)
	}
	return rec, nil
}

func (s *SQL) Save(ctx context.Context, rec rating.Record) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM team_ratings"); err != nil {
		return fmt.Errorf("clear ratings: %w", err)
	}

	p := s.dialect.placeholder
	ins, err := tx.PrepareContext(ctx, "INSERT INTO team_ratings (team_id, rating) VALUES ("+p(1)+", "+p(2)+")")
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer ins.Close()
	for id, r := range rec.Ratings {
		if _, err = ins.ExecContext(ctx, id, r); err != nil {
			return fmt.Errorf("insert %s: %w", id, err)
		}
	}

	upsert := "INSERT INTO rating_meta (name, value) VALUES (" + p(1) + ", " + p(2) + ") " +
		"ON CONFLICT (name) DO UPDATE SET value = excluded.value"
	if _, err = tx.ExecContext(ctx, upsert, metaLastTrained, rec.LastTrained); err != nil {
		return fmt.Errorf("upsert last trained: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *SQL) Close() error { return s.db.Close() }
