package dto

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Filter types understood by the query translators.
const (
	FilterSearch = "search"
	FilterExact  = "exact"
	FilterIn     = "filter"
)

// QueryOptions describes a filtered, sorted and paginated listing request.
type QueryOptions struct {
	Filters    []SearchFilter     `json:"filters,omitempty"`
	Sort       []SortOption       `json:"sort,omitempty"`
	Pagination *PaginationOptions `json:"pagination,omitempty"`
}

// SearchFilter is a single field condition.
type SearchFilter struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
	Type  string `json:"type"`
}

// SortOption orders results by Key; Order is 1 for ascending, -1 for descending.
type SortOption struct {
	Key   string `json:"key"`
	Order int    `json:"order"`
}

// PaginationOptions selects a page either by number or by cursor.
type PaginationOptions struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Cursor   any `json:"cursor,omitempty"`
}

// SetDefaults clamps the page and page size into their valid ranges.
func (p *PaginationOptions) SetDefaults() {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.PageSize < 1 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
}

// Pagination is the metadata returned with a page of records.
type Pagination struct {
	CurrentPage int   `json:"current_page"`
	PageSize    int   `json:"page_size"`
	TotalItems  int64 `json:"total_items"`
	TotalPages  int   `json:"total_pages"`
	HasNext     bool  `json:"has_next"`
	HasPrev     bool  `json:"has_prev"`
}

// Paginated wraps a page of records with its pagination metadata.
type Paginated[T any] struct {
	Records    *[]T        `json:"records"`
	Pagination *Pagination `json:"pagination"`
}

// CalculatePagination derives the pagination metadata for a page.
func CalculatePagination(page, pageSize int, totalItems int64) *Pagination {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if page < 1 {
		page = DefaultPage
	}

	totalPages := int((totalItems + int64(pageSize) - 1) / int64(pageSize))

	return &Pagination{
		CurrentPage: page,
		PageSize:    pageSize,
		TotalItems:  totalItems,
		TotalPages:  totalPages,
		HasNext:     page < totalPages,
		HasPrev:     page > 1,
	}
}
