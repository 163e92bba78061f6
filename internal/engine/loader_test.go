package engine

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

const sampleCSV = "\xEF\xBB\xBFid,position,field,province,city,company,quota,education\n" +
	`1,Admin Staff,"Accounting, Management",Central Java,Semarang,PT Sinar,5,"['S1', 'D3']"` + "\n" +
	`2,Nurse,Nursing,Central Java,Solo,RS Sehat,2,` + "\n" +
	`3,Admin Intern,Management,East Java,,PT Sinar,ten,"['S1']"` + "\n"

func TestLoadCSV(t *testing.T) {
	ds, err := LoadCSV(strings.NewReader(sampleCSV), testSchema(), 2)
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	if ds.Len() != 3 {
		t.Fatalf("expected 3 rows, got %d", ds.Len())
	}

	fields, _ := ds.Strings("field")
	if v, _ := fields.Value(0); v != "Accounting, Management" {
		t.Errorf("quoted cell = %q", v)
	}
	edu, _ := ds.Strings("education")
	if _, ok := edu.Value(1); ok {
		t.Error("empty cell should load as missing")
	}
	city, _ := ds.Strings("city")
	if _, ok := city.Value(2); ok {
		t.Error("empty city should load as missing")
	}
	if ds.HasColumn("id") {
		t.Error("columns outside the schema should be dropped")
	}

	s := Summarize(ds.All())
	if s.TotalQuota != 7 {
		t.Errorf("TotalQuota = %v, want 7 (non-numeric quota counts as 0)", s.TotalQuota)
	}
}

func TestLoadCSVSchemaMismatch(t *testing.T) {
	_, err := LoadCSV(strings.NewReader("position,field\nA,B\n"), testSchema(), 0)
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Errorf("expected ErrSchemaMismatch, got %v", err)
	}
	_, err = LoadCSV(strings.NewReader(""), testSchema(), 0)
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Errorf("empty input: expected ErrSchemaMismatch, got %v", err)
	}
}

func TestLoadWrapsFailures(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	_, err := Load(ctx, Source{Path: filepath.Join(dir, "missing.csv")}, testSchema(), nil)
	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("expected *LoadError, got %T %v", err, err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected fs.ErrNotExist inside, got %v", err)
	}

	_, err = Load(ctx, Source{Path: filepath.Join(dir, "data.parquet")}, testSchema(), nil)
	if !errors.As(err, &le) || !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected LoadError wrapping ErrUnsupportedFormat, got %v", err)
	}

	_, err = Load(ctx, Source{Path: filepath.Join(dir, "missing.db")}, testSchema(), nil)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("sqlite source must not be created on load, got %v", err)
	}
}

func TestLoadCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "postings.csv")
	if err := os.WriteFile(path, []byte(sampleCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	ds, err := Load(context.Background(), Source{Path: path}, testSchema(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if ds.Len() != 3 {
		t.Errorf("expected 3 rows, got %d", ds.Len())
	}
}

func TestLoadXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{},
		{"position", "field", "province", "city", "company", "quota"},
		{"Admin Staff", "Accounting, Management", "Central Java", "Semarang", "PT Sinar", 5},
		{"Nurse", "Nursing", "Central Java", "", "RS Sehat", 2},
	}
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	path := filepath.Join(t.TempDir(), "postings.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()

	ds, err := Load(context.Background(), Source{Path: path}, testSchema(), nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ds.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", ds.Len())
	}
	city, _ := ds.Strings("city")
	if _, ok := city.Value(1); ok {
		t.Error("blank cell should load as missing")
	}
	if s := Summarize(ds.All()); s.TotalQuota != 7 {
		t.Errorf("TotalQuota = %v, want 7", s.TotalQuota)
	}
}

func TestLoadSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "postings.db")
	db, err := sql.Open("sqlite", "file:"+path)
	if err != nil {
		t.Fatal(err)
	}
	stmts := []string{
		`CREATE TABLE lowongan (position TEXT, field TEXT, province TEXT, city TEXT, company TEXT, quota INTEGER);`,
		`INSERT INTO lowongan VALUES ('Admin Staff', 'Accounting, Management', 'Central Java', 'Semarang', 'PT Sinar', 5);`,
		`INSERT INTO lowongan VALUES ('Nurse', 'Nursing', 'Central Java', NULL, 'RS Sehat', 2);`,
		`INSERT INTO lowongan VALUES ('Admin Intern', 'Management', 'East Java', 'Surabaya', NULL, NULL);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("%s: %v", s, err)
		}
	}
	_ = db.Close()

	ds, err := Load(context.Background(), Source{Path: path, Table: "lowongan"}, testSchema(), nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ds.Len() != 3 {
		t.Fatalf("expected 3 rows, got %d", ds.Len())
	}
	s := Summarize(ds.All())
	if s.TotalQuota != 7 || s.UniqueCompanies != 2 {
		t.Errorf("Summarize = %+v", s)
	}
	city, _ := ds.Strings("city")
	if _, ok := city.Value(1); ok {
		t.Error("NULL should load as missing")
	}
}
