package store

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// identPattern guards table/column names interpolated into SQL; values are
// always bound as parameters.
var identPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// PostgresStore is the production TableStore over a relational schema that
// mirrors the legacy sheet layout one table per dataset.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore constructs the adapter.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// ReadTable fetches the whole table. Headers come from the driver so the
// column layout is discovered per read, never assumed.
func (s *PostgresStore) ReadTable(ctx context.Context, name string) (*Table, error) {
	if err := checkIdent(name); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryxContext(ctx, fmt.Sprintf("SELECT * FROM %s ORDER BY 1", name))
	if err != nil {
		return nil, fmt.Errorf("read table %s: %w", name, err)
	}
	defer rows.Close()

	headers, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read table %s columns: %w", name, err)
	}

	table := &Table{Name: name, Headers: headers}
	for rows.Next() {
		raw, err := rows.SliceScan()
		if err != nil {
			return nil, fmt.Errorf("scan table %s row: %w", name, err)
		}
		cells := make([]string, len(raw))
		for i, v := range raw {
			cells[i] = cellString(v)
		}
		table.Rows = append(table.Rows, cells)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read table %s rows: %w", name, err)
	}
	return table, nil
}

// AppendRow inserts one row using the caller-provided header set.
func (s *PostgresStore) AppendRow(ctx context.Context, table string, headers, values []string) error {
	if err := checkIdent(table); err != nil {
		return err
	}
	if len(headers) == 0 || len(headers) != len(values) {
		return fmt.Errorf("append to %s: header/value shape mismatch", table)
	}

	placeholders := make([]string, len(headers))
	args := make([]interface{}, len(values))
	for i := range headers {
		if err := checkIdent(headers[i]); err != nil {
			return err
		}
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = values[i]
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(headers, ", "), strings.Join(placeholders, ", "))
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("append to %s: %w", table, err)
	}
	return nil
}

// WriteRow replaces the named columns of the row addressed by id.
func (s *PostgresStore) WriteRow(ctx context.Context, table, idColumn, id string, headers, values []string) error {
	if err := checkIdent(table); err != nil {
		return err
	}
	if err := checkIdent(idColumn); err != nil {
		return err
	}
	if len(headers) == 0 || len(headers) != len(values) {
		return fmt.Errorf("write to %s: header/value shape mismatch", table)
	}

	assignments := make([]string, len(headers))
	args := make([]interface{}, 0, len(values)+1)
	for i := range headers {
		if err := checkIdent(headers[i]); err != nil {
			return err
		}
		assignments[i] = fmt.Sprintf("%s = $%d", headers[i], i+1)
		args = append(args, values[i])
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = $%d",
		table, strings.Join(assignments, ", "), idColumn, len(args))
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("write to %s: %w", table, err)
	}
	return requireOneRow(result, table, id)
}

// UpdateCell patches a single column of the row addressed by id.
func (s *PostgresStore) UpdateCell(ctx context.Context, table, idColumn, id, column, value string) error {
	if err := checkIdent(table); err != nil {
		return err
	}
	if err := checkIdent(idColumn); err != nil {
		return err
	}
	if err := checkIdent(column); err != nil {
		return err
	}

	query := fmt.Sprintf("UPDATE %s SET %s = $1 WHERE %s = $2", table, column, idColumn)
	result, err := s.db.ExecContext(ctx, query, value, id)
	if err != nil {
		return fmt.Errorf("update %s.%s: %w", table, column, err)
	}
	return requireOneRow(result, table, id)
}

func requireOneRow(result sql.Result, table, id string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected on %s: %w", table, err)
	}
	if affected == 0 {
		return fmt.Errorf("row %s not found in %s: %w", id, table, sql.ErrNoRows)
	}
	return nil
}

func checkIdent(name string) error {
	if !identPattern.MatchString(name) {
		return fmt.Errorf("invalid identifier %q", name)
	}
	return nil
}

func cellString(v interface{}) string {
	switch value := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(value)
	case string:
		return value
	case time.Time:
		return value.Format(time.RFC3339)
	case bool:
		if value {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%v", value)
	}
}
