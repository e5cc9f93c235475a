package domain

const (
	// DefaultPageLimit applies when the client sends no limit.
	DefaultPageLimit = 20
	// MaxPageLimit caps a single page of activities.
	MaxPageLimit = 100
)

// PaginationParams selects one page of a list. Page starts at 1.
type PaginationParams struct {
	Page  int
	Limit int
}

// NewPaginationParams builds params from the optional page and limit query
// values. Missing or non-positive values fall back to page 1 and
// DefaultPageLimit; larger limits are clamped to MaxPageLimit.
func NewPaginationParams(page, limit *int) PaginationParams {
	p := PaginationParams{Page: 1, Limit: DefaultPageLimit}
	if page != nil && *page > 0 {
		p.Page = *page
	}
	if limit != nil && *limit > 0 {
		p.Limit = min(*limit, MaxPageLimit)
	}
	return p
}

// Offset is the number of rows before this page.
func (p PaginationParams) Offset() int {
	return (p.Page - 1) * p.Limit
}
