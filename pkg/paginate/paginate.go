// Package paginate slices an in-memory result list into fixed size pages.
package paginate

// DefaultPageSize is the number of results shown per page.
const DefaultPageSize = 10

// DefaultWindow is the number of page links shown around the current page.
const DefaultWindow = 5

// Paginator tracks the current page over a result list. The page is always
// within [1, TotalPages] when there are results, and 1 otherwise.
//
// A Paginator is not safe for concurrent use; callers serialize access.
type Paginator[T any] struct {
	items    []T
	pageSize int
	page     int
}

// New returns a paginator over items positioned on page 1. A non-positive
// pageSize selects DefaultPageSize.
func New[T any](items []T, pageSize int) *Paginator[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Paginator[T]{items: items, pageSize: pageSize, page: 1}
}

// Reset replaces the result list and moves back to page 1.
func (p *Paginator[T]) Reset(items []T) {
	p.items = items
	p.page = 1
}

// Len returns the number of results.
func (p *Paginator[T]) Len() int { return len(p.items) }

// PageSize returns the fixed page size.
func (p *Paginator[T]) PageSize() int { return p.pageSize }

// Page returns the current 1-based page.
func (p *Paginator[T]) Page() int { return p.page }

// TotalPages returns ceil(Len/PageSize), 0 for an empty list.
func (p *Paginator[T]) TotalPages() int {
	return (len(p.items) + p.pageSize - 1) / p.pageSize
}

// GoToPage moves to page n. Out of range values leave the page unchanged and
// return false.
func (p *Paginator[T]) GoToPage(n int) bool {
	if n < 1 || n > p.TotalPages() {
		return false
	}
	p.page = n
	return true
}

// Next advances one page if possible.
func (p *Paginator[T]) Next() bool { return p.GoToPage(p.page + 1) }

// Prev goes back one page if possible.
func (p *Paginator[T]) Prev() bool { return p.GoToPage(p.page - 1) }

// HasNext reports whether a following page exists.
func (p *Paginator[T]) HasNext() bool { return p.page < p.TotalPages() }

// HasPrev reports whether a preceding page exists.
func (p *Paginator[T]) HasPrev() bool { return p.page > 1 }

// CurrentSlice returns the results on the current page.
func (p *Paginator[T]) CurrentSlice() []T {
	start := (p.page - 1) * p.pageSize
	if start >= len(p.items) {
		return nil
	}
	end := min(start+p.pageSize, len(p.items))
	return p.items[start:end]
}

// Offset returns the zero-based index of the first result on the current page.
func (p *Paginator[T]) Offset() int {
	return (p.page - 1) * p.pageSize
}

// Window returns up to size page numbers centered on the current page.
func (p *Paginator[T]) Window(size int) []int {
	return Window(p.page, p.TotalPages(), size)
}

// Window returns up to size consecutive page numbers around current, clamped
// to [1, total]. Near either edge the window shifts instead of shrinking, so
// min(size, total) numbers are returned.
func Window(current, total, size int) []int {
	if total <= 0 || size <= 0 {
		return nil
	}
	size = min(size, total)
	current = max(1, min(current, total))

	start := current - size/2
	start = max(1, min(start, total-size+1))

	pages := make([]int, size)
	for i := range pages {
		pages[i] = start + i
	}
	return pages
}
