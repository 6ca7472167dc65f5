package datastores

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// ContactsSQLite implements [Persister] on top of a SQLite database.
type ContactsSQLite struct {
	DB *sql.DB
}

var _ Persister = (*ContactsSQLite)(nil)

// OpenSQLite opens the database at path and creates the tables if needed.
func OpenSQLite(ctx context.Context, path string) (*ContactsSQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// one writer at a time, and :memory: databases live per connection
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		`PRAGMA journal_mode=WAL;`,
		`CREATE TABLE IF NOT EXISTS contacts (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			phone TEXT NOT NULL,
			position INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS directory_meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
	} {
		_, err = db.ExecContext(ctx, stmt)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: migrate: %w", err)
		}
	}
	return &ContactsSQLite{DB: db}, nil
}

func (s *ContactsSQLite) LoadAll(ctx context.Context) (Directory, error) {
	var d Directory

	var next string
	err := s.DB.QueryRowContext(ctx, `SELECT value FROM directory_meta WHERE key = 'next_id'`).Scan(&next)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return d, err
	default:
		d.NextID, err = strconv.ParseInt(next, 10, 64)
		if err != nil {
			return d, fmt.Errorf("sqlite: next_id: %w", err)
		}
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT id, name, phone FROM contacts ORDER BY position`)
	if err != nil {
		return d, err
	}
	defer rows.Close()
	for rows.Next() {
		var c Contact
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone); err != nil {
			return d, err
		}
		d.Contacts = append(d.Contacts, &c)
	}
	return d, rows.Err()
}

// Persist rewrites both tables in a single transaction.
func (s *ContactsSQLite) Persist(ctx context.Context, d Directory) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint: errcheck // no-op after commit

	_, err = tx.ExecContext(ctx, `DELETE FROM contacts`)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO contacts (id, name, phone, position) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, c := range d.Contacts {
		_, err = stmt.ExecContext(ctx, c.ID, c.Name, c.Phone, i)
		if err != nil {
			return err
		}
	}
	_, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO directory_meta (key, value) VALUES ('next_id', ?)`,
		strconv.FormatInt(d.NextID, 10),
	)
	if err != nil {
		return err
	}
	return tx.Commit()
}

func (s *ContactsSQLite) Ping(ctx context.Context) error { return s.DB.PingContext(ctx) }

func (s *ContactsSQLite) Close() error { return s.DB.Close() }
