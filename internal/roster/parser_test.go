package roster

import (
	"errors"
	"strings"
	"testing"
)

func TestParse_Header(t *testing.T) {
	cases := []struct {
		name string
		csv  string
		ok   bool
	}{
		{"exact header", "Name,Email,Role\n", true},
		{"case-insensitive", "name,EMAIL,rOlE\n", true},
		{"whitespace-tolerant", " Name , Email , Role \n", true},
		{"BOM prefix", "\ufeffName,Email,Role\n", true},
		{"empty file", "", false},
		{"missing column", "Name,Email\n", false},
		{"unrecognized column", "Name,Email,Role,Team\n", false},
		{"wrong column", "Name,Phone,Role\n", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.csv))
			if tc.ok && err != nil {
				t.Errorf("Expected header to be accepted, got %v", err)
			}
			if !tc.ok && !errors.Is(err, ErrMalformedCSV) {
				t.Errorf("Expected ErrMalformedCSV, got %v", err)
			}
		})
	}
}

func TestParse_Rows(t *testing.T) {
	t.Run("valid rows become recipients", func(t *testing.T) {
		result, err := Parse([]byte("Name,Email,Role\nAnn,a@x.com,judge\nBo,b@x.com,participant\n"))
		if err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}
		if len(result.Recipients) != 2 || len(result.RowErrors) != 0 {
			t.Fatalf("Expected 2 recipients and 0 row errors, got %d/%d", len(result.Recipients), len(result.RowErrors))
		}
		if result.Recipients[0].Name != "Ann" || result.Recipients[0].Role != "judge" {
			t.Errorf("Unexpected first recipient: %+v", result.Recipients[0])
		}
		if result.Recipients[1].Row != 1 {
			t.Errorf("Expected second recipient to carry row 1, got %d", result.Recipients[1].Row)
		}
	})

	t.Run("row missing name or email becomes a row error", func(t *testing.T) {
		result, err := Parse([]byte("Name,Email,Role\nAnn,a@x.com,judge\n,,\nBo,b@x.com,participant\n"))
		if err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}
		if len(result.Recipients) != 2 {
			t.Fatalf("Expected 2 recipients, got %d", len(result.Recipients))
		}
		if len(result.RowErrors) != 1 || result.RowErrors[0].Row != 1 {
			t.Fatalf("Expected one row error at index 1, got %+v", result.RowErrors)
		}
	})

	t.Run("blank role defaults instead of failing", func(t *testing.T) {
		result, err := Parse([]byte("Name,Email,Role\nAnn,a@x.com,\n"))
		if err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}
		if len(result.Recipients) != 1 {
			t.Fatalf("Expected 1 recipient, got %d", len(result.Recipients))
		}
		if result.Recipients[0].Role != DefaultRole {
			t.Errorf("Expected role %q, got %q", DefaultRole, result.Recipients[0].Role)
		}
	})

	t.Run("custom roles pass through untouched", func(t *testing.T) {
		result, err := Parse([]byte("Name,Email,Role\nAnn,a@x.com,chaos coordinator\n"))
		if err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}
		if result.Recipients[0].Role != "chaos coordinator" {
			t.Errorf("Expected custom role preserved, got %q", result.Recipients[0].Role)
		}
	})

	t.Run("row with extra columns becomes a row error", func(t *testing.T) {
		result, err := Parse([]byte("Name,Email,Role\nAnn,a@x.com,judge,extra\n"))
		if err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}
		if len(result.Recipients) != 0 || len(result.RowErrors) != 1 {
			t.Fatalf("Expected 0 recipients and 1 row error, got %d/%d", len(result.Recipients), len(result.RowErrors))
		}
	})

	t.Run("counts always reconcile with data rows", func(t *testing.T) {
		csv := "Name,Email,Role\n" +
			"Ann,a@x.com,judge\n" +
			",missing-name@x.com,\n" +
			"No Email,,mentor\n" +
			"Bo,b@x.com,participant\n" +
			",,\n"
		result, err := Parse([]byte(csv))
		if err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}
		dataRows := 5
		if got := len(result.Recipients) + len(result.RowErrors); got != dataRows {
			t.Errorf("Expected recipients+rowErrors == %d, got %d", dataRows, got)
		}
		if len(result.Recipients) != 2 || len(result.RowErrors) != 3 {
			t.Errorf("Expected 2 recipients and 3 row errors, got %d/%d", len(result.Recipients), len(result.RowErrors))
		}
	})
}

func TestSampleCSV(t *testing.T) {
	result, err := Parse(SampleCSV())
	if err != nil {
		t.Fatalf("Sample CSV must parse cleanly, got %v", err)
	}
	if len(result.RowErrors) != 0 {
		t.Errorf("Sample CSV must have no row errors, got %+v", result.RowErrors)
	}
	if !strings.HasPrefix(string(SampleCSV()), "Name,Email,Role\n") {
		t.Errorf("Sample CSV must start with the required header")
	}
}
