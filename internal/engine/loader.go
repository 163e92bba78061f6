package engine

import (
	"bytes"
	"context"
	stdcsv "encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	arrowcsv "github.com/apache/arrow/go/v18/arrow/csv"

	"internboard/internal/logging"
)

// ErrUnsupportedFormat is returned for sources whose extension has no loader.
var ErrUnsupportedFormat = errors.New("unsupported file format")

var byteOrderMark = []byte{0xEF, 0xBB, 0xBF}

// LoadError is the failure of the external loading step. It aborts before
// any filtering or aggregation runs.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string { return fmt.Sprintf("load dataset %s: %v", e.Path, e.Err) }
func (e *LoadError) Unwrap() error { return e.Err }

// Source locates a dataset.
type Source struct {
	Path      string
	Sheet     string // xlsx: sheet name, first sheet when empty
	Table     string // sqlite: table name, DefaultTable when empty
	ChunkRows int    // csv: rows per arrow record batch
}

const (
	DefaultTable     = "postings"
	defaultChunkRows = 4096
)

// Load reads the source into a Dataset laid out by schema. Every failure is
// returned as *LoadError.
func Load(ctx context.Context, src Source, schema Schema, logger *slog.Logger) (*Dataset, error) {
	logger = logging.Default(logger).With("component", "loader", "path", src.Path)
	start := time.Now()

	ds, err := load(ctx, src, schema)
	if err != nil {
		return nil, &LoadError{Path: src.Path, Err: err}
	}

	logger.Info("dataset loaded", "rows", ds.Len(), "elapsed", time.Since(start))
	return ds, nil
}

func load(ctx context.Context, src Source, schema Schema) (*Dataset, error) {
	ext := strings.ToLower(filepath.Ext(src.Path))
	switch ext {
	case ".csv", ".xlsx":
		f, err := os.Open(src.Path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		if ext == ".csv" {
			return LoadCSV(f, schema, src.ChunkRows)
		}
		return LoadXLSX(f, schema, src.Sheet)
	case ".db", ".sqlite", ".sqlite3":
		return LoadSQLite(ctx, src.Path, src.Table, schema)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// LoadCSV reads delimited text with a header row. Every column is read as
// nullable text; empty cells are missing and numbers are coerced by the
// Builder.
func LoadCSV(r io.Reader, schema Schema, chunkRows int) (*Dataset, error) {
	payload, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	payload = bytes.TrimPrefix(payload, byteOrderMark)

	header, err := stdcsv.NewReader(bytes.NewReader(payload)).Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: csv has no header row", ErrSchemaMismatch)
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	b, err := NewBuilder(schema, header)
	if err != nil {
		return nil, err
	}

	fields := make([]arrow.Field, len(header))
	for i := range header {
		fields[i] = arrow.Field{Name: fmt.Sprintf("c%d", i), Type: arrow.BinaryTypes.String, Nullable: true}
	}
	if chunkRows <= 0 {
		chunkRows = defaultChunkRows
	}

	rdr := arrowcsv.NewReader(bytes.NewReader(payload), arrow.NewSchema(fields, nil),
		arrowcsv.WithHeader(true),
		arrowcsv.WithChunk(chunkRows),
		arrowcsv.WithNullReader(true, ""),
	)
	defer rdr.Release()

	cells := make([]Cell, len(header))
	cols := make([]*array.String, len(header))
	for rdr.Next() {
		rec := rdr.Record()
		for i := range cols {
			col, ok := rec.Column(i).(*array.String)
			if !ok {
				return nil, fmt.Errorf("csv column %d: unexpected type %s", i, rec.Column(i).DataType())
			}
			cols[i] = col
		}
		n := int(rec.NumRows())
		for row := 0; row < n; row++ {
			for i, col := range cols {
				if col.IsNull(row) {
					cells[i] = Cell{Null: true}
				} else {
					cells[i] = Cell{Value: col.Value(row)}
				}
			}
			b.Append(cells)
		}
	}
	if err := rdr.Err(); err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return b.Build(), nil
}
