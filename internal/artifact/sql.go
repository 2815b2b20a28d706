package artifact

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// SQLSource reads artifacts from a table of (name, payload) rows.
// Supported drivers are pgx, postgres and sqlite3.
type SQLSource struct {
	db     *sqlx.DB
	driver string
	table  string
}

// NewSQLSource opens and pings the database. The table name is quoted, so any identifier is safe.
func NewSQLSource(driver, dsn, table string) (*SQLSource, error) {
	switch driver {
	case "pgx", "postgres", "sqlite3":
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER: %s (valid options: pgx, postgres, sqlite3)", driver)
	}
	if table == "" {
		table = "artifacts"
	}
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	return &SQLSource{db: db, driver: driver, table: pq.QuoteIdentifier(table)}, nil
}

func (s *SQLSource) Name() string { return "sql" }

// EnsureSchema creates the artifact table when missing.
func (s *SQLSource) EnsureSchema(ctx context.Context) error {
	blob := "BYTEA"
	if s.driver == "sqlite3" {
		blob = "BLOB"
	}
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		name TEXT PRIMARY KEY,
		payload %s NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`, s.table, blob)
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to create artifact table: %w", err)
	}
	return nil
}

func (s *SQLSource) Fetch(ctx context.Context, ref string) ([]byte, error) {
	query := s.db.Rebind(fmt.Sprintf(`SELECT payload FROM %s WHERE name = ?`, s.table))
	var payload []byte
	err := s.db.GetContext(ctx, &payload, query, ref)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	if err != nil {
		return nil, err
	}
	return payload, nil
}

func (s *SQLSource) Put(ctx context.Context, ref string, payload []byte) error {
	query := s.db.Rebind(fmt.Sprintf(`INSERT INTO %s (name, payload, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (name) DO UPDATE SET payload = excluded.payload, updated_at = CURRENT_TIMESTAMP`, s.table))
	_, err := s.db.ExecContext(ctx, query, ref, payload)
	return err
}

// Close closes the database handle.
func (s *SQLSource) Close() error {
	return s.db.Close()
}
