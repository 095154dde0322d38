// Copyright (c) 2025 NLSQL
// Licensed under the MIT License. See LICENSE file in the project root for details.

package stream

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

var errNotTable = errors.New("payload is not a table")

// ParseTable converts a data frame payload into columns and string rows.
//
// Accepted shapes:
//   - records: [{"a":1,"b":2}, ...] with column order taken from the first record
//   - split:   {"columns":[...], "data":[[...], ...]}
//   - either of the above encoded as a JSON string
func ParseTable(raw json.RawMessage) (columns []string, rows [][]string, err error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil, errNotTable
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, nil, err
		}
		return ParseTable(json.RawMessage(s))
	}
	switch raw[0] {
	case '[':
		return parseRecords(raw)
	case '{':
		return parseSplit(raw)
	}
	return nil, nil, errNotTable
}

func parseSplit(raw json.RawMessage) ([]string, [][]string, error) {
	var split struct {
		Columns []string            `json:"columns"`
		Data    [][]json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &split); err != nil {
		return nil, nil, err
	}
	if split.Columns == nil {
		return nil, nil, errNotTable
	}
	rows := make([][]string, 0, len(split.Data))
	for _, r := range split.Data {
		row := make([]string, len(split.Columns))
		for i := range row {
			if i < len(r) {
				row[i] = cellText(r[i])
			}
		}
		rows = append(rows, row)
	}
	return split.Columns, rows, nil
}

// parseRecords walks the token stream so that object key order survives.
func parseRecords(raw json.RawMessage) ([]string, [][]string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	var columns []string
	index := map[string]int{}
	var records []map[string]string
	for dec.More() {
		rec, order, err := readRecord(dec)
		if err != nil {
			return nil, nil, err
		}
		for _, k := range order {
			if _, seen := index[k]; !seen {
				index[k] = len(columns)
				columns = append(columns, k)
			}
		}
		records = append(records, rec)
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		row := make([]string, len(columns))
		for k, v := range rec {
			row[index[k]] = v
		}
		rows = append(rows, row)
	}
	return columns, rows, nil
}

func readRecord(dec *json.Decoder) (map[string]string, []string, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, fmt.Errorf("%w: record is %v", errNotTable, tok)
	}
	rec := map[string]string{}
	var order []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, _ := tok.(string)
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil, nil, err
		}
		if _, dup := rec[key]; !dup {
			order = append(order, key)
		}
		rec[key] = cellText(v)
	}
	if _, err := dec.Token(); err != nil && err != io.EOF {
		return nil, nil, err
	}
	return rec, order, nil
}

// cellText renders one JSON value for display. Null becomes an empty cell.
func cellText(v json.RawMessage) string {
	v = bytes.TrimSpace(v)
	if len(v) == 0 || bytes.Equal(v, []byte("null")) {
		return ""
	}
	if v[0] == '"' {
		var s string
		if json.Unmarshal(v, &s) == nil {
			return s
		}
	}
	var n json.Number
	if json.Unmarshal(v, &n) == nil {
		return n.String()
	}
	return string(v)
}
