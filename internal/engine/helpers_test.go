package engine

import (
	"testing"
)

// na marks a missing cell in test tables.
const na = "\x00NA"

func testSchema() Schema {
	return Schema{
		Position:  "position",
		Fields:    "field",
		Province:  "province",
		City:      "city",
		Company:   "company",
		Quota:     "quota",
		Education: "education",
		Delimiter: ", ",
	}
}

var testHeader = []string{"position", "field", "province", "city", "company", "quota", "education"}

func buildDataset(t *testing.T, schema Schema, header []string, rows [][]string) *Dataset {
	t.Helper()
	b, err := NewBuilder(schema, header)
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	for _, row := range rows {
		cells := make([]Cell, len(row))
		for i, v := range row {
			if v == na {
				cells[i] = Cell{Null: true}
			} else {
				cells[i] = Cell{Value: v}
			}
		}
		b.Append(cells)
	}
	return b.Build()
}

// scenarioDataset is the three-posting example used across the tests.
func scenarioDataset(t *testing.T) *Dataset {
	t.Helper()
	return buildDataset(t, testSchema(), testHeader, [][]string{
		{"Admin Staff", "Accounting, Management", "Central Java", "Semarang", "PT Sinar", "5", "['S1', 'D3']"},
		{"Nurse", "Nursing", "Central Java", "Solo", "RS Sehat", "2", "['D3']"},
		{"Admin Intern", "Management", "East Java", "Surabaya", "PT Sinar", "10", "['S1']"},
	})
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
