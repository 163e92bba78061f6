package engine

import (
	"errors"
	"testing"
)

func TestNewBuilderSchemaMismatch(t *testing.T) {
	_, err := NewBuilder(testSchema(), []string{"position", "field", "province"})
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestNewBuilderOptionalColumnsDropped(t *testing.T) {
	schema := testSchema()
	schema.Applicant = "applicants"
	header := []string{"position", "field", "province", "city", "company", "quota"}

	ds := buildDataset(t, schema, header, [][]string{{"A", "X", "P", "C", "Co", "1"}})
	if ds.HasColumn("education") || ds.HasColumn("applicants") {
		t.Error("absent optional columns should not exist on the dataset")
	}
	if !ds.HasColumn("quota") {
		t.Error("quota column missing")
	}
}

func TestSchemaValidate(t *testing.T) {
	s := testSchema()
	s.City = s.Province
	if err := s.Validate(); !errors.Is(err, ErrSchemaMismatch) {
		t.Errorf("duplicate column names: expected ErrSchemaMismatch, got %v", err)
	}

	s = testSchema()
	s.Quota = ""
	if err := s.Validate(); !errors.Is(err, ErrSchemaMismatch) {
		t.Errorf("empty required name: expected ErrSchemaMismatch, got %v", err)
	}

	if err := DefaultSchema().Validate(); err != nil {
		t.Errorf("default schema invalid: %v", err)
	}
}

func TestBuilderCoercesNumbers(t *testing.T) {
	ds := buildDataset(t, testSchema(), testHeader, [][]string{
		{"A", "X", "P", "C", "Co", " 7 ", na},
		{"B", "X", "P", "C", "Co", "seven", na},
		{"C", "X", "P", "C", "Co", na, na},
		{"D", "X", "P", "C", "Co", "NaN", na},
		{"E", "X", "P", "C", "Co", "2.5", na},
	})
	q, ok := ds.Numbers("quota")
	if !ok {
		t.Fatal("quota column missing")
	}
	wantVals := []float64{7, 0, 0, 0, 2.5}
	wantValid := []bool{true, false, false, false, true}
	for i := range wantVals {
		if q.Values[i] != wantVals[i] || q.Valid[i] != wantValid[i] {
			t.Errorf("row %d: got (%v, %v), want (%v, %v)", i, q.Values[i], q.Valid[i], wantVals[i], wantValid[i])
		}
	}
}

func TestBuilderDictionaryEncoding(t *testing.T) {
	ds := scenarioDataset(t)
	prov, _ := ds.Strings("province")
	if len(prov.Dict) != 2 {
		t.Errorf("expected 2 distinct provinces, got %d", len(prov.Dict))
	}
	if prov.IDs[0] != prov.IDs[1] {
		t.Error("equal values should share a dictionary ID")
	}
	if v, ok := prov.Value(2); !ok || v != "East Java" {
		t.Errorf("Value(2) = %q, %v", v, ok)
	}
}

func TestBuilderShortRowsAreMissing(t *testing.T) {
	ds := buildDataset(t, testSchema(), testHeader, [][]string{{"Only Position"}})
	city, _ := ds.Strings("city")
	if _, ok := city.Value(0); ok {
		t.Error("absent trailing cell should be missing")
	}
	if ds.Len() != 1 {
		t.Errorf("expected 1 row, got %d", ds.Len())
	}
}
