package engine

import (
	"internboard/internal/models"
)

// View is an ordered subset of a Dataset: row indices into the parent,
// ascending, never sharing storage with another View.
type View struct {
	ds   *Dataset
	rows []int
}

// All returns a view over every row.
func (d *Dataset) All() View {
	rows := make([]int, d.rows)
	for i := range rows {
		rows[i] = i
	}
	return View{ds: d, rows: rows}
}

func (v View) Dataset() *Dataset { return v.ds }
func (v View) Len() int          { return len(v.rows) }

// Rows returns a copy of the dataset row indices in view order.
func (v View) Rows() []int {
	return append([]int(nil), v.rows...)
}

// ApplyFilter returns the rows of ds matching spec, in dataset order.
func ApplyFilter(ds *Dataset, spec models.FilterSpec) View {
	return ds.All().Filter(spec)
}

// Filter narrows the view by spec. An empty spec returns a copy of the view.
func (v View) Filter(spec models.FilterSpec) View {
	return v.Where(NewPredicateBuilder(v.ds).Build(spec))
}

// Where keeps the rows passing pred. A nil pred keeps every row.
func (v View) Where(pred Predicate) View {
	if pred == nil {
		return View{ds: v.ds, rows: v.Rows()}
	}
	out := make([]int, 0, len(v.rows))
	for _, r := range v.rows {
		if pred(r) {
			out = append(out, r)
		}
	}
	return View{ds: v.ds, rows: out}
}

// Page returns up to limit rows starting at offset. Out of range offsets
// give an empty view.
func (v View) Page(offset, limit int) View {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(v.rows) {
		return View{ds: v.ds}
	}
	end := len(v.rows)
	if limit >= 0 && offset+limit < end {
		end = offset + limit
	}
	return View{ds: v.ds, rows: append([]int(nil), v.rows[offset:end]...)}
}

// Postings materializes the table columns of the view.
func (v View) Postings() []models.Posting {
	s := v.ds.schema
	pos, fields := v.ds.strs[s.Position], v.ds.strs[s.Fields]
	prov, city, comp := v.ds.strs[s.Province], v.ds.strs[s.City], v.ds.strs[s.Company]
	quota := v.ds.nums[s.Quota]

	out := make([]models.Posting, 0, len(v.rows))
	for _, r := range v.rows {
		p := models.Posting{
			Position: cellOrEmpty(pos, r),
			Company:  cellOrEmpty(comp, r),
			Fields:   cellOrEmpty(fields, r),
			City:     cellOrEmpty(city, r),
			Province: cellOrEmpty(prov, r),
		}
		if quota != nil {
			p.Quota = quota.Values[r]
		}
		out = append(out, p)
	}
	return out
}

func cellOrEmpty(c *StringColumn, row int) string {
	if c == nil {
		return ""
	}
	v, _ := c.Value(row)
	return v
}
