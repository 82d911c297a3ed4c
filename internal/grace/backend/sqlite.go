package backend

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore persists bookings in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and applies pending
// migrations. Use ":memory:" for a throwaway database.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection keeps ":memory:" databases coherent and serializes
	// writers.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) runMigrations() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version     INTEGER PRIMARY KEY,
			applied_at  TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			description TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	var current int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, e := range entries {
		version, description, ok := parseMigrationName(e.Name())
		if !ok || version <= current {
			continue
		}
		content, err := migrationsFS.ReadFile("migrations/" + e.Name())
		if err != nil {
			return fmt.Errorf("read migration %s: %w", e.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration tx: %w", err)
		}
		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration %s: %w", e.Name(), err)
		}
		if _, err := tx.Exec(
			"INSERT INTO schema_migrations (version, description) VALUES (?, ?)",
			version, description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %s: %w", e.Name(), err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", e.Name(), err)
		}
		slog.Info("applied migration", "version", version, "description", description)
	}
	return nil
}

// parseMigrationName splits "0001_bookings.sql" into 1 and "bookings".
func parseMigrationName(name string) (int, string, bool) {
	if !strings.HasSuffix(name, ".sql") {
		return 0, "", false
	}
	num, desc, ok := strings.Cut(strings.TrimSuffix(name, ".sql"), "_")
	if !ok {
		return 0, "", false
	}
	var version int
	if _, err := fmt.Sscanf(num, "%d", &version); err != nil {
		return 0, "", false
	}
	return version, desc, true
}

// Create implements Store.
func (s *SQLiteStore) Create(ctx context.Context, b Booking) (string, error) {
	return createWithRetry(b, func(b Booking) error {
		_, err := s.db.ExecContext(ctx,
			"INSERT INTO bookings (reference, full_name, num_people, time) VALUES (?, ?, ?, ?)",
			b.Reference, b.FullName, b.NumPeople, b.Time.Format(time.DateTime),
		)
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrDuplicate, b.Reference)
		}
		if err != nil {
			return fmt.Errorf("insert booking: %w", err)
		}
		return nil
	})
}

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, reference string) (Booking, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT reference, full_name, num_people, time FROM bookings WHERE reference = ?", reference)
	b, err := scanBooking(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Booking{}, fmt.Errorf("%w: %s", ErrNotFound, reference)
	}
	return b, err
}

// Delete implements Store.
func (s *SQLiteStore) Delete(ctx context.Context, reference string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM bookings WHERE reference = ?", reference)
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, reference)
	}
	return nil
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context) ([]Booking, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT reference, full_name, num_people, time FROM bookings ORDER BY reference")
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var out []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBooking(row scanner) (Booking, error) {
	var (
		b  Booking
		ts string
	)
	if err := row.Scan(&b.Reference, &b.FullName, &b.NumPeople, &ts); err != nil {
		return Booking{}, err
	}
	t, err := time.Parse(time.DateTime, ts)
	if err != nil {
		return Booking{}, fmt.Errorf("booking %s: bad time %q: %w", b.Reference, ts, err)
	}
	b.Time = t
	return b, nil
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(se.Error(), "UNIQUE constraint failed")
	}
	return false
}

var _ Store = (*SQLiteStore)(nil)
