package source

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/databridge/sql-gcs-etl/internal/core/schema"
)

var ErrEmptyStatement = errors.New("empty sql statement")

// Cursor is a forward-only handle over a query's result rows. Column
// metadata is available before the first row fetch; rows are pulled
// lazily from the driver one at a time.
type Cursor struct {
	rows    *sql.Rows
	columns []schema.ColumnMetadata
}

// Acquire executes the statement and positions a cursor before the
// first row. Whatever the query returns defines the schema for this
// export; no validation against an expected shape is performed and a
// failed execution is not retried.
func Acquire(ctx context.Context, db *sql.DB, statement string) (*Cursor, error) {
	if strings.TrimSpace(statement) == "" {
		return nil, ErrEmptyStatement
	}

	rows, err := db.QueryContext(ctx, statement)
	if err != nil {
		return nil, fmt.Errorf("execute statement: %w", err)
	}

	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		rows.Close()
		return nil, fmt.Errorf("read column metadata: %w", err)
	}

	columns := make([]schema.ColumnMetadata, len(columnTypes))
	for i, ct := range columnTypes {
		// Drivers that cannot report nullability get NULLABLE: the
		// loader accepts nulls in a nullable field but rejects them in
		// a required one.
		nullable, ok := ct.Nullable()
		if !ok {
			nullable = true
		}

		columns[i] = schema.ColumnMetadata{
			Name:     ct.Name(),
			TypeName: ct.DatabaseTypeName(),
			Nullable: nullable,
		}
	}

	return &Cursor{
		rows:    rows,
		columns: columns,
	}, nil
}

// Columns returns the column metadata read when the cursor was acquired.
func (c *Cursor) Columns() []schema.ColumnMetadata {
	return c.columns
}

// Next fetches the next row from the driver. It returns io.EOF when the
// result set is drained.
func (c *Cursor) Next() ([]any, error) {
	if !c.rows.Next() {
		if err := c.rows.Err(); err != nil {
			return nil, fmt.Errorf("fetch row: %w", err)
		}
		return nil, io.EOF
	}

	values := make([]any, len(c.columns))
	ptrs := make([]any, len(c.columns))
	for i := range values {
		ptrs[i] = &values[i]
	}

	if err := c.rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("scan row: %w", err)
	}

	return values, nil
}

// Close releases the underlying result set.
func (c *Cursor) Close() error {
	return c.rows.Close()
}
