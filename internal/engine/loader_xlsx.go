package engine

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// LoadXLSX reads the named sheet (the first one when sheet is empty). The
// first non-blank row is the header. Spreadsheet cells carry no null marker,
// so blank cells are treated as missing.
func LoadXLSX(r io.Reader, schema Schema, sheet string) (*Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("xlsx has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	defer func() { _ = rows.Close() }()

	var b *Builder
	var cells []Cell
	for rows.Next() {
		values, err := rows.Columns()
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		if isBlankRow(values) {
			continue
		}
		if b == nil {
			if b, err = NewBuilder(schema, values); err != nil {
				return nil, err
			}
			cells = make([]Cell, len(values))
			continue
		}
		for i := range cells {
			cells[i] = Cell{Null: true}
			if i < len(values) && values[i] != "" {
				cells[i] = Cell{Value: values[i]}
			}
		}
		b.Append(cells)
	}
	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if b == nil {
		return nil, fmt.Errorf("%w: sheet %q has no header row", ErrSchemaMismatch, sheet)
	}
	return b.Build(), nil
}

func isBlankRow(values []string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
