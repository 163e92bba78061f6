package engine

import (
	"strings"

	"golang.org/x/text/cases"

	"internboard/internal/models"
)

// Predicate reports whether a dataset row passes a filter dimension.
// A nil Predicate means the dimension is not applied.
type Predicate func(row int) bool

// PredicateBuilder turns raw filter inputs into row predicates over one
// dataset. Each predicate is evaluated once per distinct cell value and then
// looked up per row by dictionary ID.
//
// A PredicateBuilder is not safe for concurrent use; build one per request.
type PredicateBuilder struct {
	ds   *Dataset
	fold cases.Caser
}

func NewPredicateBuilder(ds *Dataset) *PredicateBuilder {
	return &PredicateBuilder{ds: ds, fold: cases.Fold()}
}

// Build combines every applied dimension of spec with logical AND.
func (b *PredicateBuilder) Build(spec models.FilterSpec) Predicate {
	s := b.ds.schema
	return allOf(
		b.Contains(s.Position, spec.Position),
		b.Membership(s.Province, spec.Provinces),
		b.Membership(s.City, spec.Cities),
		b.ContainsAny(s.Fields, spec.Fields),
	)
}

// Contains matches cells holding query as a case-insensitive literal
// substring. An empty query is not applied; missing cells never match.
func (b *PredicateBuilder) Contains(column, query string) Predicate {
	if query == "" {
		return nil
	}
	return b.ContainsAny(column, []string{query})
}

// ContainsAny matches cells whose raw text holds any of tokens as a
// case-insensitive literal substring. Token boundaries inside multi-value
// cells are not respected: "Law" matches "International Law".
func (b *PredicateBuilder) ContainsAny(column string, tokens []string) Predicate {
	if len(tokens) == 0 {
		return nil
	}
	needles := make([]string, len(tokens))
	for i, t := range tokens {
		needles[i] = b.fold.String(t)
	}
	return b.perValue(column, func(v string) bool {
		hay := b.fold.String(v)
		for _, n := range needles {
			if strings.Contains(hay, n) {
				return true
			}
		}
		return false
	})
}

// Membership matches cells whose value is exactly one of allowed. An empty
// set is not applied.
func (b *PredicateBuilder) Membership(column string, allowed []string) Predicate {
	if len(allowed) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		set[a] = struct{}{}
	}
	return b.perValue(column, func(v string) bool {
		_, ok := set[v]
		return ok
	})
}

// perValue evaluates fn over the column dictionary and returns a row lookup.
func (b *PredicateBuilder) perValue(column string, fn func(string) bool) Predicate {
	col, ok := b.ds.strs[column]
	if !ok {
		return func(int) bool { return false }
	}
	hit := make([]bool, len(col.Dict))
	for id, v := range col.Dict {
		hit[id] = fn(v)
	}
	ids := col.IDs
	return func(row int) bool {
		id := ids[row]
		return id != missingID && hit[id]
	}
}

// allOf ANDs the applied predicates. It returns nil when none is applied.
func allOf(preds ...Predicate) Predicate {
	var applied []Predicate
	for _, p := range preds {
		if p != nil {
			applied = append(applied, p)
		}
	}
	switch len(applied) {
	case 0:
		return nil
	case 1:
		return applied[0]
	}
	return func(row int) bool {
		for _, p := range applied {
			if !p(row) {
				return false
			}
		}
		return true
	}
}
