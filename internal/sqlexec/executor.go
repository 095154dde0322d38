// Copyright (c) 2025 NLSQL
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package sqlexec runs generated SQL against the user's own PostgreSQL database
// and exports its schema as DDL for training. Queries always run inside a
// read-only transaction.
package sqlexec

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Result is a query result rendered to display strings.
type Result struct {
	Columns   []string
	Rows      [][]string
	Truncated bool
}

// Executor executes SQL statements using a connection pool.
type Executor struct {
	Pool *pgxpool.Pool
}

// New creates an Executor from an existing pgx pool.
func New(pool *pgxpool.Pool) *Executor {
	return &Executor{Pool: pool}
}

// Query runs sql in a read-only transaction and returns at most limit rows.
// A limit of zero or less returns every row.
func (e *Executor) Query(ctx context.Context, sql string, limit int) (Result, error) {
	sql = TrimStatement(sql)
	if sql == "" {
		return Result{}, fmt.Errorf("empty statement")
	}
	tx, err := e.Pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return Result{}, err
	}
	// Read-only, so rollback is the normal way out.
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, sql)
	if err != nil {
		return Result{}, err
	}
	defer rows.Close()

	fds := rows.FieldDescriptions()
	res := Result{Columns: make([]string, len(fds)), Rows: [][]string{}}
	for i, fd := range fds {
		res.Columns[i] = fd.Name
	}
	for rows.Next() {
		if limit > 0 && len(res.Rows) == limit {
			res.Truncated = true
			break
		}
		vals, err := rows.Values()
		if err != nil {
			return Result{}, err
		}
		row := make([]string, len(vals))
		for i, v := range vals {
			row[i] = FormatValue(v, fds[i].DataTypeOID)
		}
		res.Rows = append(res.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return Result{}, err
	}
	return res, nil
}

// TrimStatement drops surrounding whitespace and trailing semicolons.
func TrimStatement(sql string) string {
	return strings.TrimSpace(strings.TrimRight(strings.TrimSpace(sql), ";"))
}

// FormatValue renders one pgx value for the result table. NULL is empty.
// oid is the column's type OID; it picks the layout for time values.
func FormatValue(v any, oid uint32) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return fmt.Sprintf("\\x%x", x)
	case [16]byte:
		return formatUUID(x[:])
	case time.Time:
		switch oid {
		case pgtype.DateOID:
			return x.Format("2006-01-02")
		case pgtype.TimestampOID:
			return x.Format("2006-01-02 15:04:05.999999")
		}
		return x.Format(time.RFC3339Nano)
	case pgtype.Numeric:
		text, err := x.Value()
		if err != nil || text == nil {
			return ""
		}
		return fmt.Sprint(text)
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}

func formatUUID(b []byte) string {
	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:16])
}
