package entity

// PageRequest is a 1-based page number with a fixed page size.
type PageRequest struct {
	Page int
	Size int
}

func (p PageRequest) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Size
}

// Exceeds reports whether the page starts past the last result. The first
// page always exists, even for an empty listing.
func (p PageRequest) Exceeds(count int64) bool {
	return p.Page > 1 && int64(p.Offset()) >= count
}

// Page is the page-number pagination envelope of every listing.
type Page[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// NewPage wraps one page of results. link builds the URL of another page
// number; a page number of 1 is expected to drop the page parameter.
func NewPage[T any](results []T, count int64, req PageRequest, link func(page int) string) Page[T] {
	if results == nil {
		results = []T{}
	}
	p := Page[T]{Count: count, Results: results}
	if int64(req.Offset()+len(results)) < count {
		next := link(req.Page + 1)
		p.Next = &next
	}
	if req.Page > 1 {
		prev := link(req.Page - 1)
		p.Previous = &prev
	}
	return p
}
