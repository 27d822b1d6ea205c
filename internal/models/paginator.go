package models

const (
	defaultLimit = 100
	maxLimit     = 200
)

// Paginator carries a validated limit/offset window for list queries.
type Paginator struct {
	limit       int
	offset      int
	initialized bool
}

// NewPaginator builds a paginator from raw limit/offset values. A zero or
// negative limit falls back to the default; limits above the maximum are
// clamped; a negative offset is treated as zero.
func NewPaginator(limit, offset int) Paginator {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	offset = max(offset, 0)
	return Paginator{
		limit:       limit,
		offset:      offset,
		initialized: true,
	}
}

// DefaultPaginator returns a paginator with default limit and zero offset.
func DefaultPaginator() Paginator {
	return NewPaginator(defaultLimit, 0)
}

func (pg *Paginator) Limit() int {
	return pg.limit
}

func (pg *Paginator) Offset() int {
	return pg.offset
}

// PaginatedResult is one page of items plus the total match count computed
// before the limit/offset window was applied.
type PaginatedResult[T any] struct {
	Items      []T
	TotalCount int
	Offset     int
	Limit      int
}

// NewPaginatedResult builds a result for the given page and total count.
func NewPaginatedResult[T any](items []T, total int, pg Paginator) PaginatedResult[T] {
	if items == nil {
		items = make([]T, 0)
	}
	if !pg.initialized {
		pg = DefaultPaginator()
	}
	return PaginatedResult[T]{
		Items:      items,
		TotalCount: total,
		Offset:     pg.offset,
		Limit:      pg.limit,
	}
}
