package types

// AuthorMetric pairs an author with an aggregated ranking value.
type AuthorMetric struct {
	Author string  `json:"author"`
	Value  float64 `json:"value"`
}

// Order selects the direction of a scan over the created index.
type Order int

const (
	OrderAscending Order = iota
	OrderDescending
)
