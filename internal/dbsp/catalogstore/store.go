// Package catalogstore persists a compilation unit's DDL statements and
// its most recently emitted circuit text to a local sqlite database, so
// a catalog can be rebuilt by replaying its statement log instead of
// re-submitting the whole schema by hand.
package catalogstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store wraps a sqlite database holding two append-only logs: the DDL
// statements submitted for a named compilation unit, and the circuit
// text emitted from it over time.
type Store struct {
	db         *sql.DB
	insertStmt *sql.Stmt
}

// Open opens (creating if necessary) the sqlite database at path and
// ensures its schema exists.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("catalogstore path is empty")
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open catalogstore: %w", err)
	}

	s := &Store{db: db}
	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, err
	}

	stmt, err := db.Prepare(`INSERT INTO ddl_statements(circuit_name, statement, applied_at_unix_ms) VALUES (?, ?, ?)`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("prepare statement insert: %w", err)
	}
	s.insertStmt = stmt

	return s, nil
}

func (s *Store) init() error {
	pragmas := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA synchronous=NORMAL;`,
		`PRAGMA foreign_keys=ON;`,
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("catalogstore pragma failed (%s): %w", p, err)
		}
	}

	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS ddl_statements (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	circuit_name TEXT NOT NULL,
	statement TEXT NOT NULL,
	applied_at_unix_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_ddl_statements_circuit ON ddl_statements(circuit_name, seq);

CREATE TABLE IF NOT EXISTS circuit_emissions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	circuit_name TEXT NOT NULL,
	created_at_unix_ms INTEGER NOT NULL,
	source TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_circuit_emissions_circuit ON circuit_emissions(circuit_name, id);
`)
	if err != nil {
		return fmt.Errorf("create catalogstore schema: %w", err)
	}
	return nil
}

// RecordStatement appends one DDL statement to circuitName's log. It does
// not compile or validate the statement; callers should only record a
// statement after successfully applying it to a live Catalog.
func (s *Store) RecordStatement(ctx context.Context, circuitName, statement string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("catalogstore is nil")
	}
	_, err := s.insertStmt.ExecContext(ctx, circuitName, statement, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("record statement: %w", err)
	}
	return nil
}

// ReplayStatements feeds every statement recorded for circuitName, in
// submission order, to apply. A typical apply is a Catalog's Compile
// method, so a catalog can be reconstructed from its log alone.
func (s *Store) ReplayStatements(ctx context.Context, circuitName string, apply func(string) error) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("catalogstore is nil")
	}
	if apply == nil {
		return fmt.Errorf("apply callback is nil")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT statement FROM ddl_statements WHERE circuit_name = ? ORDER BY seq ASC`, circuitName)
	if err != nil {
		return fmt.Errorf("query ddl statements: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		var statement string
		if err := rows.Scan(&statement); err != nil {
			return fmt.Errorf("scan ddl statement: %w", err)
		}
		if err := apply(statement); err != nil {
			return err
		}
	}
	return rows.Err()
}

// SaveEmission appends the emitted circuit text for circuitName. Each
// call adds a new row; nothing is overwritten, so LoadLatestEmission
// always reflects the most recent successful compile.
func (s *Store) SaveEmission(ctx context.Context, circuitName, source string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("catalogstore is nil")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO circuit_emissions(circuit_name, created_at_unix_ms, source) VALUES (?, ?, ?)`,
		circuitName, time.Now().UnixMilli(), source)
	if err != nil {
		return fmt.Errorf("save emission: %w", err)
	}
	return nil
}

// LoadLatestEmission returns the most recently saved circuit text for
// circuitName, or ok=false if none has been saved yet.
func (s *Store) LoadLatestEmission(ctx context.Context, circuitName string) (source string, ok bool, err error) {
	if s == nil || s.db == nil {
		return "", false, fmt.Errorf("catalogstore is nil")
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT source FROM circuit_emissions WHERE circuit_name = ? ORDER BY id DESC LIMIT 1`, circuitName)
	if err := row.Scan(&source); err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, fmt.Errorf("load latest emission: %w", err)
	}
	return source, true, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	if s.insertStmt != nil {
		_ = s.insertStmt.Close()
	}
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
