package engine

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// missingID marks a missing cell in a dictionary encoded column.
const missingID int32 = -1

// StringColumn is a dictionary encoded string column.
type StringColumn struct {
	Kind ColumnKind
	IDs  []int32  // per row, missingID when the cell is missing
	Dict []string // ID -> value
}

// Value returns the cell at row and whether it is present.
func (c *StringColumn) Value(row int) (string, bool) {
	id := c.IDs[row]
	if id == missingID {
		return "", false
	}
	return c.Dict[id], true
}

// NumberColumn holds numeric values coerced at load time.
type NumberColumn struct {
	Values []float64 // 0 where Valid is false
	Valid  []bool
}

// Dataset holds postings in Struct-of-Arrays format. It is never mutated
// after Build returns.
type Dataset struct {
	schema Schema
	rows   int
	strs   map[string]*StringColumn
	nums   map[string]*NumberColumn
}

func (d *Dataset) Schema() Schema { return d.schema }
func (d *Dataset) Len() int       { return d.rows }

// Strings returns a string column by name.
func (d *Dataset) Strings(name string) (*StringColumn, bool) {
	c, ok := d.strs[name]
	return c, ok
}

// Numbers returns a numeric column by name.
func (d *Dataset) Numbers(name string) (*NumberColumn, bool) {
	c, ok := d.nums[name]
	return c, ok
}

// HasColumn reports whether the dataset kept a column with this name.
func (d *Dataset) HasColumn(name string) bool {
	if _, ok := d.strs[name]; ok {
		return true
	}
	_, ok := d.nums[name]
	return ok
}

func (d *Dataset) stringColumn(name string) (*StringColumn, error) {
	if c, ok := d.strs[name]; ok {
		return c, nil
	}
	if _, ok := d.nums[name]; ok {
		return nil, fmt.Errorf("%w: %q is numeric", ErrColumnKind, name)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
}

func (d *Dataset) numberColumn(name string) (*NumberColumn, error) {
	if c, ok := d.nums[name]; ok {
		return c, nil
	}
	if _, ok := d.strs[name]; ok {
		return nil, fmt.Errorf("%w: %q is not numeric", ErrColumnKind, name)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
}

// Cell is one raw value handed to a Builder by a loader.
type Cell struct {
	Value string
	Null  bool
}

type stringBuilder struct {
	col  *StringColumn
	dict map[string]int32
}

func (b *stringBuilder) append(c Cell) {
	if c.Null {
		b.col.IDs = append(b.col.IDs, missingID)
		return
	}
	if id, ok := b.dict[c.Value]; ok {
		b.col.IDs = append(b.col.IDs, id)
		return
	}
	id := int32(len(b.col.Dict))
	s := strings.Clone(c.Value) // loaders may hand out views into reused buffers
	b.col.Dict = append(b.col.Dict, s)
	b.dict[s] = id
	b.col.IDs = append(b.col.IDs, id)
}

// Builder assembles a Dataset row by row from a header and raw cells.
type Builder struct {
	schema Schema
	rows   int
	strs   map[string]*stringBuilder
	nums   map[string]*NumberColumn

	// source header position -> sink, nil for ignored columns
	strAt []*stringBuilder
	numAt []*NumberColumn
}

// NewBuilder matches header against schema. Missing required columns yield
// ErrSchemaMismatch; missing optional columns are dropped.
func NewBuilder(schema Schema, header []string) (*Builder, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	pos := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if _, dup := pos[h]; !dup {
			pos[h] = i
		}
	}

	b := &Builder{
		schema: schema,
		strs:   make(map[string]*stringBuilder),
		nums:   make(map[string]*NumberColumn),
		strAt:  make([]*stringBuilder, len(header)),
		numAt:  make([]*NumberColumn, len(header)),
	}
	var missing []string
	for _, c := range schema.Columns() {
		i, ok := pos[c.Name]
		if !ok {
			if c.Required {
				missing = append(missing, c.Name)
			}
			continue
		}
		if c.Kind == KindNumber {
			nc := &NumberColumn{}
			b.nums[c.Name] = nc
			b.numAt[i] = nc
			continue
		}
		sb := &stringBuilder{col: &StringColumn{Kind: c.Kind}, dict: make(map[string]int32)}
		b.strs[c.Name] = sb
		b.strAt[i] = sb
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing columns %s", ErrSchemaMismatch, strings.Join(missing, ", "))
	}
	return b, nil
}

// Append adds one row. Cells beyond the header are ignored and absent
// trailing cells are treated as missing.
func (b *Builder) Append(cells []Cell) {
	for i := range b.strAt {
		var c Cell
		if i < len(cells) {
			c = cells[i]
		} else {
			c.Null = true
		}
		if sb := b.strAt[i]; sb != nil {
			sb.append(c)
		} else if nc := b.numAt[i]; nc != nil {
			v, ok := parseNumber(c)
			nc.Values = append(nc.Values, v)
			nc.Valid = append(nc.Valid, ok)
		}
	}
	b.rows++
}

// Build returns the finished Dataset. The Builder must not be used afterwards.
func (b *Builder) Build() *Dataset {
	ds := &Dataset{
		schema: b.schema,
		rows:   b.rows,
		strs:   make(map[string]*StringColumn, len(b.strs)),
		nums:   b.nums,
	}
	for name, sb := range b.strs {
		ds.strs[name] = sb.col
	}
	return ds
}

// parseNumber coerces a raw cell. Missing or non-numeric cells are invalid.
func parseNumber(c Cell) (float64, bool) {
	if c.Null {
		return 0, false
	}
	s := strings.TrimSpace(c.Value)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
