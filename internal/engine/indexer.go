package engine

import (
	"fmt"
	"slices"
	"strings"

	"internboard/internal/models"
)

// BuildFilterOptions lists the choices for every filter widget.
func BuildFilterOptions(ds *Dataset) models.FilterOptions {
	all := ds.All()
	s := ds.schema
	// Required columns always exist on a built dataset, so the errors are nil.
	fields, _ := Tokens(all, s.Fields)
	provinces, _ := Values(all, s.Province)
	cities, _ := Values(all, s.City)
	return models.FilterOptions{
		Fields:    nonNil(fields),
		Provinces: nonNil(provinces),
		Cities:    nonNil(cities),
	}
}

// NarrowCities lists the cities found under the selected provinces. No
// selection lists every city.
func NarrowCities(ds *Dataset, provinces []string) []string {
	cities, _ := NarrowValues(ds.All(), ds.schema.City, ds.schema.Province, provinces)
	return nonNil(cities)
}

// Tokens returns the sorted distinct tokens of a multi-value or list column.
// Missing cells contribute nothing. Multi-value cells are split on the exact
// delimiter with no trimming.
func Tokens(v View, column string) ([]string, error) {
	col, err := v.ds.stringColumn(column)
	if err != nil {
		return nil, err
	}
	split, err := v.ds.tokenizer(column, col)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	for _, id := range presentIDs(col, v.rows) {
		for _, t := range split(col.Dict[id]) {
			seen[t] = struct{}{}
		}
	}
	return sortedKeys(seen), nil
}

// Values returns the sorted distinct non-missing values of a column.
func Values(v View, column string) ([]string, error) {
	col, err := v.ds.stringColumn(column)
	if err != nil {
		return nil, err
	}
	ids := presentIDs(col, v.rows)
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, col.Dict[id])
	}
	slices.Sort(out)
	return out, nil
}

// NarrowValues is Values restricted to rows whose scope column holds one of
// allowed. An empty allowed set applies no restriction.
func NarrowValues(v View, column, scope string, allowed []string) ([]string, error) {
	if len(allowed) > 0 {
		if _, err := v.ds.stringColumn(scope); err != nil {
			return nil, err
		}
		v = v.Where(NewPredicateBuilder(v.ds).Membership(scope, allowed))
	}
	return Values(v, column)
}

// presentIDs returns the distinct dictionary IDs used by rows, in first
// appearance order, skipping missing cells.
func presentIDs(col *StringColumn, rows []int) []int32 {
	seen := make([]bool, len(col.Dict))
	var ids []int32
	for _, r := range rows {
		id := col.IDs[r]
		if id == missingID || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

// tokenizer returns the cell splitter for a token-bearing column.
func (d *Dataset) tokenizer(name string, col *StringColumn) (func(string) []string, error) {
	switch col.Kind {
	case KindMultiValue:
		delim := d.schema.delimiter()
		return func(s string) []string { return strings.Split(s, delim) }, nil
	case KindList:
		return func(s string) []string {
			toks, _ := ParseList(s)
			return toks
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q is a %s column", ErrColumnKind, name, col.Kind)
	}
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
