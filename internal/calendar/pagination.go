package calendar

const (
	defaultPageSize = 20
	MaxPageSize     = 200
)

// Page is one page of a listing.
type Page[T any] struct {
	Items    []T
	Page     int // 1-based
	PageSize int
	HasNext  bool
	HasPrev  bool
	Total    int
}

// Paginate slices items for the requested page. Non-positive page or
// pageSize fall back to the first page and the default size; pageSize is
// capped at MaxPageSize. Pages past the end are empty.
func Paginate[T any](items []T, page, pageSize int) Page[T] {
	switch {
	case pageSize <= 0:
		pageSize = defaultPageSize
	case pageSize > MaxPageSize:
		pageSize = MaxPageSize
	}
	if page <= 0 {
		page = 1
	}

	total := len(items)
	out := Page[T]{
		Page:     page,
		PageSize: pageSize,
		HasPrev:  page > 1,
		Total:    total,
	}

	// Compare in page units so huge page numbers cannot overflow the offset.
	if page-1 >= (total+pageSize-1)/pageSize {
		out.Items = items[total:]
		return out
	}

	start := (page - 1) * pageSize
	end := min(start+pageSize, total)
	out.Items = items[start:end]
	out.HasNext = end < total
	return out
}
