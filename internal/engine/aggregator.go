package engine

import (
	"cmp"
	"slices"

	"internboard/internal/models"
)

// DefaultTopK is the number of tokens TopTokens returns when k <= 0.
const DefaultTopK = 10

// Summarize computes the headline metrics of a view. Invalid quota cells
// count as 0 and missing companies are not counted.
func Summarize(v View) models.Summary {
	s := v.ds.schema
	out := models.Summary{Count: len(v.rows)}

	if q, ok := v.ds.nums[s.Quota]; ok {
		out.TotalQuota = sumRows(q, v.rows)
	}
	if c, ok := v.ds.strs[s.Company]; ok {
		out.UniqueCompanies = len(presentIDs(c, v.rows))
	}
	if a, ok := v.ds.nums[s.Applicant]; ok {
		total := sumRows(a, v.rows)
		out.TotalApplicants = &total
	}
	if p, ok := v.ds.nums[s.PassRate]; ok {
		var sum float64
		var n int
		for _, r := range v.rows {
			if p.Valid[r] {
				sum += p.Values[r]
				n++
			}
		}
		avg := 0.0
		if n > 0 {
			avg = sum / float64(n)
		}
		out.AvgPassRate = &avg
	}
	return out
}

func sumRows(c *NumberColumn, rows []int) float64 {
	var total float64
	for _, r := range rows {
		total += c.Values[r]
	}
	return total
}

// TokenCounts flattens a multi-value or list column into tokens and counts
// them, highest count first. Equal counts keep the order in which the token
// was first met while scanning the view.
func TokenCounts(v View, column string) ([]models.TokenCount, error) {
	col, err := v.ds.stringColumn(column)
	if err != nil {
		return nil, err
	}
	split, err := v.ds.tokenizer(column, col)
	if err != nil {
		return nil, err
	}

	// Count rows per distinct cell first, then expand each cell once.
	perID := make([]int, len(col.Dict))
	var order []int32
	for _, r := range v.rows {
		id := col.IDs[r]
		if id == missingID {
			continue
		}
		if perID[id] == 0 {
			order = append(order, id)
		}
		perID[id]++
	}

	out := make([]models.TokenCount, 0)
	at := make(map[string]int)
	for _, id := range order {
		n := perID[id]
		for _, tok := range split(col.Dict[id]) {
			if i, ok := at[tok]; ok {
				out[i].Count += n
				continue
			}
			at[tok] = len(out)
			out = append(out, models.TokenCount{Token: tok, Count: n})
		}
	}

	slices.SortStableFunc(out, func(a, b models.TokenCount) int {
		return cmp.Compare(b.Count, a.Count)
	})
	return out, nil
}

// TopTokens returns the k most frequent tokens of a column.
func TopTokens(v View, column string, k int) ([]models.TokenCount, error) {
	if k <= 0 {
		k = DefaultTopK
	}
	out, err := TokenCounts(v, column)
	if err != nil {
		return nil, err
	}
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

// GroupedSum sums value per (parent, child) pair. Missing parent or child
// cells form their own group so the leaves always add up to the column
// total. Parents appear in first-seen order, children in first-seen order
// within their parent.
func GroupedSum(v View, parent, child, value string) ([]models.GroupSum, error) {
	pc, err := v.ds.stringColumn(parent)
	if err != nil {
		return nil, err
	}
	cc, err := v.ds.stringColumn(child)
	if err != nil {
		return nil, err
	}
	vc, err := v.ds.numberColumn(value)
	if err != nil {
		return nil, err
	}

	type parentGroup struct {
		id       int32
		children []int32
		sums     map[int32]float64
	}
	var groups []*parentGroup
	byParent := make(map[int32]*parentGroup)

	for _, r := range v.rows {
		pid, cid := pc.IDs[r], cc.IDs[r]
		g, ok := byParent[pid]
		if !ok {
			g = &parentGroup{id: pid, sums: make(map[int32]float64)}
			byParent[pid] = g
			groups = append(groups, g)
		}
		if _, ok := g.sums[cid]; !ok {
			g.children = append(g.children, cid)
		}
		g.sums[cid] += vc.Values[r]
	}

	out := make([]models.GroupSum, 0, len(groups))
	for _, g := range groups {
		for _, cid := range g.children {
			gs := models.GroupSum{Sum: g.sums[cid]}
			gs.Parent, gs.ParentMissing = labelFor(pc, g.id)
			gs.Child, gs.ChildMissing = labelFor(cc, cid)
			out = append(out, gs)
		}
	}
	return out, nil
}

func labelFor(c *StringColumn, id int32) (string, bool) {
	if id == missingID {
		return "", true
	}
	return c.Dict[id], false
}

// BuildDashboard runs one filter-apply cycle and every aggregate the
// dashboard shows.
func BuildDashboard(ds *Dataset, spec models.FilterSpec, topK int) (*models.DashboardData, error) {
	s := ds.schema
	view := ApplyFilter(ds, spec)

	data := &models.DashboardData{
		DatasetRows: ds.Len(),
		Filters:     spec,
		Summary:     Summarize(view),
	}

	var err error
	if data.TopFields, err = TopTokens(view, s.Fields, topK); err != nil {
		return nil, err
	}
	if s.Education != "" && ds.HasColumn(s.Education) {
		if data.Education, err = TokenCounts(view, s.Education); err != nil {
			return nil, err
		}
	}
	if data.Treemap, err = GroupedSum(view, s.Province, s.City, s.Quota); err != nil {
		return nil, err
	}
	return data, nil
}
