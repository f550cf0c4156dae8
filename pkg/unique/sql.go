package unique

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// DefaultTable stores one row per submitted field value.
const DefaultTable = "form_field_values"

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLBackend answers uniqueness lookups from a table of submitted values:
//
//	form_id, instance_id, field, value
//
// Any database/sql driver works; the CLI opens modernc.org/sqlite.
type SQLBackend struct {
	db    *sql.DB
	table string
}

// SQLOption customises an SQLBackend.
type SQLOption func(*SQLBackend)

// WithTable overrides DefaultTable.
func WithTable(name string) SQLOption {
	return func(b *SQLBackend) {
		b.table = name
	}
}

// NewSQLBackend wraps db.
func NewSQLBackend(db *sql.DB, opts ...SQLOption) (*SQLBackend, error) {
	if db == nil {
		return nil, errors.New("unique: database is required")
	}
	b := &SQLBackend{db: db, table: DefaultTable}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	if !tableName.MatchString(b.table) {
		return nil, fmt.Errorf("unique: invalid table name %q", b.table)
	}
	return b, nil
}

// EnsureSchema creates the values table when it does not exist.
func (b *SQLBackend) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	form_id TEXT NOT NULL,
	instance_id TEXT NOT NULL,
	field TEXT NOT NULL,
	value TEXT NOT NULL,
	submitted_at TEXT NOT NULL
)`, b.table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_lookup ON %s (form_id, field, value)`, b.table, b.table),
	}
	for _, stmt := range stmts {
		if _, err := b.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("unique: create schema: %w", err)
		}
	}
	return nil
}

// Record stores the submitted values of one instance, replacing any earlier
// submission of the same instance.
func (b *SQLBackend) Record(ctx context.Context, formID, instanceID string, values map[string]string) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("unique: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	del := fmt.Sprintf(`DELETE FROM %s WHERE form_id = ? AND instance_id = ?`, b.table)
	if _, err := tx.ExecContext(ctx, del, formID, instanceID); err != nil {
		return fmt.Errorf("unique: clear instance %s: %w", instanceID, err)
	}
	ins := fmt.Sprintf(`INSERT INTO %s (form_id, instance_id, field, value, submitted_at) VALUES (?, ?, ?, ?, ?)`, b.table)
	now := time.Now().UTC().Format(time.RFC3339)
	for field, value := range values {
		if strings.TrimSpace(value) == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, ins, formID, instanceID, field, value, now); err != nil {
			return fmt.Errorf("unique: record %s: %w", field, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("unique: commit: %w", err)
	}
	return nil
}

// CheckUnique implements validation.UniquenessBackend.
func (b *SQLBackend) CheckUnique(ctx context.Context, formID, field, value, excludeInstanceID string) (bool, error) {
	query := fmt.Sprintf(`SELECT COUNT(1) FROM %s WHERE form_id = ? AND field = ? AND value = ? AND instance_id <> ?`, b.table)
	var count int
	if err := b.db.QueryRowContext(ctx, query, formID, field, value, excludeInstanceID).Scan(&count); err != nil {
		return false, fmt.Errorf("unique: query %s: %w", field, err)
	}
	return count == 0, nil
}
