package collection

import (
	"net/url"
	"strconv"
)

// Query holds the filter and pagination parameters for one collection view.
// It has no network side effects; the owning View consumes it to build fetch
// requests. Any filter or page-size change invalidates the current position,
// so those mutations reset the page to 1.
type Query struct {
	filters  map[string]string
	page     int
	pageSize int

	// total is the last known total count, used to clamp SetPage. Negative
	// until the first successful fetch.
	total int
}

// NewQuery creates a query at page 1 with the given page size.
func NewQuery(pageSize int) *Query {
	if pageSize < 1 {
		pageSize = 10
	}
	return &Query{
		filters:  make(map[string]string),
		page:     1,
		pageSize: pageSize,
		total:    -1,
	}
}

// SetFilter sets one filter and resets the page to 1. An empty or "all" value
// clears the filter.
func (q *Query) SetFilter(name, value string) {
	if value == "" || value == "all" {
		delete(q.filters, name)
	} else {
		q.filters[name] = value
	}
	q.page = 1
}

// ResetFilters clears every filter and resets the page to 1.
func (q *Query) ResetFilters() {
	q.filters = make(map[string]string)
	q.page = 1
}

// SetPage moves to page n, clamped to [1, totalPages] once the total count is
// known.
func (q *Query) SetPage(n int) {
	if n < 1 {
		n = 1
	}
	if q.total >= 0 {
		if max := q.totalPages(); n > max {
			n = max
		}
	}
	q.page = n
}

// SetPageSize changes the page size and resets the page to 1.
func (q *Query) SetPageSize(n int) {
	if n < 1 {
		return
	}
	q.pageSize = n
	q.page = 1
}

// setTotal records the total count reported by the last fetch and re-clamps
// the current page against it.
func (q *Query) setTotal(count int) {
	if count < 0 {
		count = 0
	}
	q.total = count
	if max := q.totalPages(); q.page > max {
		q.page = max
	}
}

func (q *Query) totalPages() int {
	pages := (q.total + q.pageSize - 1) / q.pageSize
	if pages < 1 {
		pages = 1
	}
	return pages
}

// Page returns the current page number.
func (q *Query) Page() int { return q.page }

// PageSize returns the page size.
func (q *Query) PageSize() int { return q.pageSize }

// Filter returns the value of one filter, empty if unset.
func (q *Query) Filter(name string) string { return q.filters[name] }

// Values encodes the query as request parameters for the backend list
// endpoints.
func (q *Query) Values() url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.page))
	v.Set("page_size", strconv.Itoa(q.pageSize))
	for name, value := range q.filters {
		v.Set(name, value)
	}
	return v
}

// clone returns an independent copy used as the fetch request descriptor.
func (q *Query) clone() Query {
	filters := make(map[string]string, len(q.filters))
	for k, v := range q.filters {
		filters[k] = v
	}
	return Query{filters: filters, page: q.page, pageSize: q.pageSize, total: q.total}
}
