// Copyright (c) 2025 NLSQL
// Licensed under the MIT License. See LICENSE file in the project root for details.

package sqlexec

import (
	"math/big"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

func TestRenderCreateTable(t *testing.T) {
	got := RenderCreateTable(TableDef{
		Schema: "public",
		Name:   "orders",
		Columns: []Column{
			{Name: "id", Type: "integer", Default: "nextval('orders_id_seq'::regclass)"},
			{Name: "customerName", Type: "character varying(80)", Nullable: true},
		},
		PrimaryKey: []string{"id"},
	})
	want := "CREATE TABLE \"orders\" (\n" +
		"    \"id\" integer NOT NULL DEFAULT nextval('orders_id_seq'::regclass),\n" +
		"    \"customerName\" character varying(80),\n" +
		"    PRIMARY KEY (\"id\")\n" +
		");"
	if got != want {
		t.Errorf("RenderCreateTable() =\n%s\nwant\n%s", got, want)
	}
}

func TestRenderCreateTableQuoting(t *testing.T) {
	tests := []struct {
		name  string
		table TableDef
		want  string
	}{
		{
			name:  "non-public schema",
			table: TableDef{Schema: "sales", Name: "t", Columns: []Column{{Name: "a", Type: "text", Nullable: true}}},
			want:  "CREATE TABLE \"sales\".\"t\" (\n    \"a\" text\n);",
		},
		{
			name: "reserved words",
			table: TableDef{
				Schema:     "public",
				Name:       "user",
				Columns:    []Column{{Name: "order", Type: "integer"}},
				PrimaryKey: []string{"order"},
			},
			want: "CREATE TABLE \"user\" (\n    \"order\" integer NOT NULL,\n    PRIMARY KEY (\"order\")\n);",
		},
		{
			name:  "embedded quote",
			table: TableDef{Name: `we"ird`, Columns: []Column{{Name: "x", Type: "text", Nullable: true}}},
			want:  "CREATE TABLE \"we\"\"ird\" (\n    \"x\" text\n);",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RenderCreateTable(tt.table); got != tt.want {
				t.Errorf("RenderCreateTable() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatValue(t *testing.T) {
	uuid := [16]byte{0x12, 0x34, 0x56, 0x78, 0x9a, 0xbc, 0xde, 0xf0, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08}
	bigNumeric := pgtype.Numeric{Int: big.NewInt(1234567890123456789), Exp: -2, Valid: true}
	midnight := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		in   any
		oid  uint32
		want string
	}{
		{name: "null", in: nil, want: ""},
		{name: "string", in: "Paris", oid: pgtype.TextOID, want: "Paris"},
		{name: "int", in: int64(42), oid: pgtype.Int8OID, want: "42"},
		{name: "uuid", in: uuid, oid: pgtype.UUIDOID, want: "12345678-9abc-def0-0102-030405060708"},
		{name: "bytea", in: []byte{0xde, 0xad}, oid: pgtype.ByteaOID, want: `\xdead`},
		{name: "sixteen byte bytea", in: []byte("0123456789abcdef"), oid: pgtype.ByteaOID, want: `\x30313233343536373839616263646566`},
		{name: "date", in: midnight, oid: pgtype.DateOID, want: "2024-03-01"},
		{name: "timestamptz at midnight", in: midnight, oid: pgtype.TimestamptzOID, want: "2024-03-01T00:00:00Z"},
		{name: "timestamp at midnight", in: midnight, oid: pgtype.TimestampOID, want: "2024-03-01 00:00:00"},
		{name: "timestamptz", in: time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC), oid: pgtype.TimestamptzOID, want: "2024-03-01T12:30:00Z"},
		{name: "exact numeric", in: bigNumeric, oid: pgtype.NumericOID, want: "12345678901234567.89"},
		{name: "null numeric", in: pgtype.Numeric{}, oid: pgtype.NumericOID, want: ""},
		{name: "bool", in: true, oid: pgtype.BoolOID, want: "true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatValue(tt.in, tt.oid); got != tt.want {
				t.Errorf("FormatValue() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTrimStatement(t *testing.T) {
	if got := TrimStatement("  SELECT 1;;\n"); got != "SELECT 1" {
		t.Errorf("TrimStatement() = %q", got)
	}
}
