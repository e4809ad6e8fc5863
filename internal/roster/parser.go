// Package roster turns an uploaded CSV of certificate recipients into
// validated recipient records. The header is strict; data rows are not: once
// the header checks out, every row either becomes a Recipient or a RowError,
// and the parser never gives up on the rest of the file because of one bad
// row.
package roster

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"hackov8/cert-service/models"
)

// ErrMalformedCSV is returned when the CSV header is missing, unreadable or
// does not match the expected Name,Email,Role columns. It is fatal to the
// whole parse: no recipients are trusted from a file with a broken header.
var ErrMalformedCSV = errors.New("malformed csv")

// DefaultRole is substituted when a row leaves the Role column blank. Role
// is decorative on the certificate, not authorization-bearing, so a blank
// one does not fail the row.
const DefaultRole = "participant"

// expectedHeader is the required column set, compared case-insensitively
// after trimming.
var expectedHeader = []string{"name", "email", "role"}

// ParseResult is the outcome of one parse: every data row lands in exactly
// one of the two slices, so len(Recipients)+len(RowErrors) always equals the
// number of data rows read.
type ParseResult struct {
	Recipients []models.Recipient
	RowErrors  []models.RowError
}

// Parse reads a roster CSV. A bad header returns ErrMalformedCSV; bad data
// rows are collected as RowErrors and never abort the parse.
func Parse(data []byte) (ParseResult, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return ParseResult{}, fmt.Errorf("%w: missing header: %v", ErrMalformedCSV, err)
	}
	if err := checkHeader(header); err != nil {
		return ParseResult{}, err
	}

	result := ParseResult{}
	for row := 0; ; row++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.RowErrors = append(result.RowErrors, models.RowError{
				Row:    row,
				Reason: fmt.Sprintf("unreadable row: %v", err),
			})
			continue
		}
		if len(record) > len(expectedHeader) {
			result.RowErrors = append(result.RowErrors, models.RowError{
				Row:    row,
				Reason: fmt.Sprintf("expected %d columns, got %d", len(expectedHeader), len(record)),
			})
			continue
		}

		rec := models.Recipient{
			Name:  strings.TrimSpace(field(record, 0)),
			Email: strings.TrimSpace(field(record, 1)),
			Role:  strings.TrimSpace(field(record, 2)),
			Row:   row,
		}
		switch {
		case rec.Name == "" && rec.Email == "":
			result.RowErrors = append(result.RowErrors, models.RowError{Row: row, Reason: "missing name and email"})
		case rec.Name == "":
			result.RowErrors = append(result.RowErrors, models.RowError{Row: row, Reason: "missing name"})
		case rec.Email == "":
			result.RowErrors = append(result.RowErrors, models.RowError{Row: row, Reason: "missing email"})
		default:
			if rec.Role == "" {
				rec.Role = DefaultRole
			}
			result.Recipients = append(result.Recipients, rec)
		}
	}
	return result, nil
}

// checkHeader enforces the exact Name,Email,Role column set,
// case-insensitively and whitespace-tolerantly. Extra or unrecognized
// columns fail the whole parse.
func checkHeader(header []string) error {
	if len(header) != len(expectedHeader) {
		return fmt.Errorf("%w: expected header %s, got %d columns", ErrMalformedCSV, sampleHeader(), len(header))
	}
	for i, col := range header {
		got := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))
		if got != expectedHeader[i] {
			return fmt.Errorf("%w: expected column %d to be %q, got %q", ErrMalformedCSV, i+1, expectedHeader[i], col)
		}
	}
	return nil
}

// field returns record[i] or "" when the row is short.
func field(record []string, i int) string {
	if i >= len(record) {
		return ""
	}
	return record[i]
}

func sampleHeader() string { return "Name,Email,Role" }

// SampleCSV returns the downloadable roster template callers fill in.
func SampleCSV() []byte {
	return []byte("Name,Email,Role\nAda Lovelace,ada@example.com,participant\nGrace Hopper,grace@example.com,judge\n")
}
