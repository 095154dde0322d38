// Copyright (c) 2025 NLSQL
// Licensed under the MIT License. See LICENSE file in the project root for details.

package sqlexec

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Column describes one table column as information_schema reports it.
type Column struct {
	Name     string
	Type     string
	Nullable bool
	Default  string
}

// TableDef is the subset of a table definition the DDL export needs.
type TableDef struct {
	Schema     string
	Name       string
	Columns    []Column
	PrimaryKey []string
}

// SchemaInspector reads table definitions from information_schema.
type SchemaInspector struct {
	pool *pgxpool.Pool
}

// NewSchemaInspector creates a new SchemaInspector with the given connection pool.
func NewSchemaInspector(pool *pgxpool.Pool) *SchemaInspector {
	return &SchemaInspector{pool: pool}
}

// DDL returns CREATE TABLE statements for every base table in schema,
// ordered by table name. An empty schema means "public".
func (si *SchemaInspector) DDL(ctx context.Context, schema string) (string, error) {
	tables, err := si.Tables(ctx, schema)
	if err != nil {
		return "", err
	}
	stmts := make([]string, 0, len(tables))
	for _, t := range tables {
		stmts = append(stmts, RenderCreateTable(t))
	}
	return strings.Join(stmts, "\n\n"), nil
}

// Tables loads the definitions of every base table in schema.
func (si *SchemaInspector) Tables(ctx context.Context, schema string) ([]TableDef, error) {
	if schema == "" {
		schema = "public"
	}
	conn, err := si.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
		SELECT c.table_name, c.column_name, c.data_type,
		       COALESCE(c.character_maximum_length, 0), c.is_nullable = 'YES', COALESCE(c.column_default, '')
		FROM information_schema.columns c
		JOIN information_schema.tables t ON t.table_schema = c.table_schema AND t.table_name = c.table_name
		WHERE c.table_schema = $1 AND t.table_type = 'BASE TABLE'
		ORDER BY c.table_name, c.ordinal_position`, schema)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []TableDef
	index := map[string]int{}
	for rows.Next() {
		var table, name, typ, def string
		var length int
		var nullable bool
		if err := rows.Scan(&table, &name, &typ, &length, &nullable, &def); err != nil {
			return nil, err
		}
		i, ok := index[table]
		if !ok {
			i = len(tables)
			index[table] = i
			tables = append(tables, TableDef{Schema: schema, Name: table})
		}
		if length > 0 {
			typ = fmt.Sprintf("%s(%d)", typ, length)
		}
		tables[i].Columns = append(tables[i].Columns, Column{Name: name, Type: typ, Nullable: nullable, Default: def})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	pkRows, err := conn.Query(ctx, `
		SELECT kc.table_name, kc.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kc
		  ON tc.constraint_name = kc.constraint_name AND tc.table_schema = kc.table_schema
		WHERE tc.table_schema = $1 AND tc.constraint_type = 'PRIMARY KEY'
		ORDER BY kc.table_name, kc.ordinal_position`, schema)
	if err != nil {
		return nil, err
	}
	defer pkRows.Close()
	for pkRows.Next() {
		var table, col string
		if err := pkRows.Scan(&table, &col); err != nil {
			return nil, err
		}
		if i, ok := index[table]; ok {
			tables[i].PrimaryKey = append(tables[i].PrimaryKey, col)
		}
	}
	return tables, pkRows.Err()
}

// RenderCreateTable writes t as a CREATE TABLE statement. Every identifier is
// quoted, so reserved words such as user or order stay valid.
func RenderCreateTable(t TableDef) string {
	var b strings.Builder
	name := pgx.Identifier{t.Name}
	if t.Schema != "" && t.Schema != "public" {
		name = pgx.Identifier{t.Schema, t.Name}
	}
	fmt.Fprintf(&b, "CREATE TABLE %s (\n", name.Sanitize())
	lines := make([]string, 0, len(t.Columns)+1)
	for _, c := range t.Columns {
		line := "    " + pgx.Identifier{c.Name}.Sanitize() + " " + c.Type
		if !c.Nullable {
			line += " NOT NULL"
		}
		if c.Default != "" {
			line += " DEFAULT " + c.Default
		}
		lines = append(lines, line)
	}
	if len(t.PrimaryKey) > 0 {
		cols := make([]string, len(t.PrimaryKey))
		for i, c := range t.PrimaryKey {
			cols[i] = pgx.Identifier{c}.Sanitize()
		}
		lines = append(lines, "    PRIMARY KEY ("+strings.Join(cols, ", ")+")")
	}
	b.WriteString(strings.Join(lines, ",\n"))
	b.WriteString("\n);")
	return b.String()
}
