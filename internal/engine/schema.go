package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrSchemaMismatch is returned when a source lacks a required column.
	ErrSchemaMismatch = errors.New("schema mismatch")
	// ErrUnknownColumn is returned when a caller names a column the dataset does not have.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrColumnKind is returned when a column is used in a way its kind does not allow.
	ErrColumnKind = errors.New("wrong column kind")
)

// ColumnKind is the declared semantic type of a column.
type ColumnKind uint8

const (
	KindText       ColumnKind = iota // free text
	KindCategory                     // atomic categorical value
	KindMultiValue                   // tokens joined by Schema.Delimiter
	KindList                         // serialized list literal, e.g. ['S1', 'D3']
	KindNumber
)

func (k ColumnKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindCategory:
		return "category"
	case KindMultiValue:
		return "multi-value"
	case KindList:
		return "list"
	case KindNumber:
		return "number"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Column describes one source column the dataset keeps.
type Column struct {
	Name     string
	Kind     ColumnKind
	Required bool
}

// Schema names the source columns behind each role. Renamed columns across
// dataset revisions are handled by changing names here, not code.
type Schema struct {
	Position  string
	Fields    string
	Province  string
	City      string
	Company   string
	Quota     string
	Education string // optional
	Applicant string // optional
	PassRate  string // optional

	Delimiter string
}

// DefaultDelimiter joins tokens inside a multi-value cell.
const DefaultDelimiter = ", "

// DefaultSchema matches the column names of the cleaned KEMNAKER export.
func DefaultSchema() Schema {
	return Schema{
		Position:  "posisi",
		Fields:    "program_studi",
		Province:  "perusahaan.nama_provinsi",
		City:      "perusahaan.nama_kabupaten",
		Company:   "perusahaan.nama_perusahaan",
		Quota:     "jumlah_kuota",
		Education: "jenjang",
		Applicant: "jumlah_terdaftar",
		PassRate:  "peluang_lolos",
		Delimiter: DefaultDelimiter,
	}
}

// Columns lists the columns the schema keeps. Optional roles with an empty
// name are left out.
func (s Schema) Columns() []Column {
	cols := []Column{
		{Name: s.Position, Kind: KindText, Required: true},
		{Name: s.Fields, Kind: KindMultiValue, Required: true},
		{Name: s.Province, Kind: KindCategory, Required: true},
		{Name: s.City, Kind: KindCategory, Required: true},
		{Name: s.Company, Kind: KindCategory, Required: true},
		{Name: s.Quota, Kind: KindNumber, Required: true},
	}
	for _, opt := range []Column{
		{Name: s.Education, Kind: KindList},
		{Name: s.Applicant, Kind: KindNumber},
		{Name: s.PassRate, Kind: KindNumber},
	} {
		if opt.Name != "" {
			cols = append(cols, opt)
		}
	}
	return cols
}

func (s Schema) delimiter() string {
	if s.Delimiter == "" {
		return DefaultDelimiter
	}
	return s.Delimiter
}

// Validate checks that required role names are set and distinct.
func (s Schema) Validate() error {
	seen := make(map[string]bool)
	for _, c := range s.Columns() {
		if c.Name == "" {
			if c.Required {
				return fmt.Errorf("%w: required %s column has no name", ErrSchemaMismatch, c.Kind)
			}
			continue
		}
		if seen[c.Name] {
			return fmt.Errorf("%w: column %q mapped to more than one role", ErrSchemaMismatch, c.Name)
		}
		seen[c.Name] = true
	}
	return nil
}
