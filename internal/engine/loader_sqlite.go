package engine

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "modernc.org/sqlite"
)

// LoadSQLite reads every row of table from the sqlite database at path.
// Column names play the role of the CSV header; NULL cells are missing.
func LoadSQLite(ctx context.Context, path, table string, schema Schema) (*Dataset, error) {
	// sql.Open would create a missing file.
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	if table == "" {
		table = DefaultTable
	}

	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path))
	if err != nil {
		return nil, err
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	rows, err := db.QueryContext(ctx, fmt.Sprintf(`SELECT * FROM %s;`, quoteIdent(table)))
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	header, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	b, err := NewBuilder(schema, header)
	if err != nil {
		return nil, err
	}

	vals := make([]sql.NullString, len(header))
	dest := make([]any, len(header))
	for i := range vals {
		dest[i] = &vals[i]
	}
	cells := make([]Cell, len(header))
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		for i, v := range vals {
			cells[i] = Cell{Value: v.String, Null: !v.Valid}
		}
		b.Append(cells)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", table, err)
	}
	return b.Build(), nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
