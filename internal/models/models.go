package models

import "time"

// FilterSpec is the set of user-chosen constraints. Empty fields do not narrow.
type FilterSpec struct {
	Position  string   `json:"position,omitempty"`
	Provinces []string `json:"provinces,omitempty"`
	Cities    []string `json:"cities,omitempty"`
	Fields    []string `json:"fields,omitempty"`
}

// IsEmpty reports whether no dimension is applied.
func (s FilterSpec) IsEmpty() bool {
	return s.Position == "" && len(s.Provinces) == 0 && len(s.Cities) == 0 && len(s.Fields) == 0
}

type FilterOptions struct {
	Fields    []string `json:"fields"`
	Provinces []string `json:"provinces"`
	Cities    []string `json:"cities"`
}

type Summary struct {
	Count           int     `json:"count"`
	TotalQuota      float64 `json:"total_quota"`
	UniqueCompanies int     `json:"unique_companies"`

	// Only set when the dataset carries the optional columns.
	TotalApplicants *float64 `json:"total_applicants,omitempty"`
	AvgPassRate     *float64 `json:"avg_pass_rate,omitempty"`
}

type TokenCount struct {
	Token string `json:"token"`
	Count int    `json:"count"`
}

// GroupSum is one leaf of a two-level breakdown.
type GroupSum struct {
	Parent        string  `json:"parent"`
	Child         string  `json:"child"`
	Sum           float64 `json:"sum"`
	ParentMissing bool    `json:"parent_missing,omitempty"`
	ChildMissing  bool    `json:"child_missing,omitempty"`
}

// Posting is a row of the filtered table.
type Posting struct {
	Position string  `json:"position"`
	Company  string  `json:"company"`
	Fields   string  `json:"fields"`
	City     string  `json:"city"`
	Province string  `json:"province"`
	Quota    float64 `json:"quota"`
}

type PostingPage struct {
	Data   []Posting `json:"data"`
	Total  int       `json:"total"`
	Limit  int       `json:"limit"`
	Offset int       `json:"offset"`
}

type DashboardData struct {
	DatasetRows int          `json:"dataset_rows"`
	Filters     FilterSpec   `json:"filters"`
	Summary     Summary      `json:"summary"`
	TopFields   []TokenCount `json:"top_fields"`
	Education   []TokenCount `json:"education,omitempty"`
	Treemap     []GroupSum   `json:"treemap"`
}

type Health struct {
	Status   string     `json:"status"`
	Rows     int        `json:"rows"`
	Source   string     `json:"source,omitempty"`
	LoadedAt *time.Time `json:"loaded_at,omitempty"`
}
