// Package devicecsv imports device inventory rows from CSV files.
//
// The device inventory has its own fixed header set and is unrelated to the
// fiber allocation table in package table.
package devicecsv

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// MaxHeaderSearchRows is how many leading rows are scanned for the header.
var MaxHeaderSearchRows = 20

// Record is one accepted data row keyed by lower-cased header name. Only
// expected headers are kept.
type Record struct {
	Line   int
	Fields map[string]string
}

// Get returns the trimmed value of a field, or "" if absent.
func (r Record) Get(name string) string {
	return r.Fields[strings.ToLower(name)]
}

// Result is the outcome of an import. Records keep file order.
type Result struct {
	Records []Record
	Failed  []RowError
	Skipped int // Blank rows
}

// ImportRows parses data against specs. A missing required header fails the
// whole import with a *ParseError. Malformed data rows are skipped and
// reported in Result.Failed; rows with a field count different from the
// header are treated as malformed.
func ImportRows(data []byte, specs []FieldSpec) (*Result, error) {
	records, lines, err := parseCSV(sanitizeUTF8(data))
	if err != nil {
		return nil, &ParseError{Reason: "unreadable csv", Err: err}
	}

	headerRow, idx, err := findHeader(records, specs)
	if err != nil {
		return nil, err
	}
	width := len(records[headerRow])

	result := &Result{}
	for i := headerRow + 1; i < len(records); i++ {
		row := records[i]
		line := lines[i]

		if isEmptyRow(row) {
			result.Skipped++
			continue
		}
		if len(row) != width {
			result.Failed = append(result.Failed, RowError{
				Line:   line,
				Reason: fmt.Sprintf("expected %d fields, got %d", width, len(row)),
				Data:   row,
			})
			continue
		}
		if err := validateRow(row, idx, specs); err != nil {
			result.Failed = append(result.Failed, RowError{Line: line, Reason: err.Error(), Data: row})
			continue
		}

		fields := make(map[string]string, len(specs))
		for _, s := range specs {
			key := strings.ToLower(s.Name)
			if pos, ok := idx[key]; ok && pos < len(row) {
				fields[key] = cleanCell(row[pos])
			}
		}
		result.Records = append(result.Records, Record{Line: line, Fields: fields})
	}

	return result, nil
}

// findHeader returns the first row within MaxHeaderSearchRows that carries
// every required header. When none does, the error lists what the first
// non-empty row lacks.
func findHeader(records [][]string, specs []FieldSpec) (int, headerIndex, error) {
	limit := MaxHeaderSearchRows
	if len(records) < limit {
		limit = len(records)
	}

	var firstMissing []string
	seen := false
	for i := 0; i < limit; i++ {
		if isEmptyRow(records[i]) {
			continue
		}
		idx := makeHeaderIndex(records[i])
		missing := missingHeaders(idx, specs)
		if len(missing) == 0 {
			return i, idx, nil
		}
		if !seen {
			firstMissing, seen = missing, true
		}
	}

	if !seen {
		return 0, nil, &ParseError{Reason: "file has no header row"}
	}
	return 0, nil, &ParseError{Missing: firstMissing}
}

// parseCSV reads every record along with the file line it starts on. The
// reader drops blank lines, so positions in records are not line numbers.
func parseCSV(data []byte) ([][]string, []int, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var records [][]string
	var lines []int
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		line, _ := r.FieldPos(0)
		records = append(records, rec)
		lines = append(lines, line)
	}
	return records, lines, nil
}

func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune('\uFFFD')
			data = data[1:]
		} else {
			buf.WriteRune(r)
			data = data[size:]
		}
	}

	return buf.Bytes()
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
