package domain

// PaginationParams selects one page of a listing. Page starts at 1.
type PaginationParams struct {
	Page     int
	PageSize int
}

// Offset is the number of rows before the page. Pages below 1 read from the start.
func (p PaginationParams) Offset() int {
	return max(p.Page-1, 0) * p.PageSize
}
