package report

import (
	"net/url"
	"strconv"
)

const PageSize = 25

// Page describes one page of a listing.
type Page struct {
	Number int
	Size   int
	Total  int
	Pages  int
}

// NewPage resolves the requested page number against total. A missing or
// malformed number gives the first page, one past the end gives the last.
// There is always at least one page.
func NewPage(raw string, total, size int) Page {
	pages := 1
	if total > 0 {
		pages = (total + size - 1) / size
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		n = 1
	}
	if n > pages {
		n = pages
	}
	return Page{Number: n, Size: size, Total: total, Pages: pages}
}

func (p Page) Offset() int       { return (p.Number - 1) * p.Size }
func (p Page) HasPrevious() bool { return p.Number > 1 }
func (p Page) HasNext() bool     { return p.Number < p.Pages }

// Start and End are the 1-based positions of the first and last item shown.
func (p Page) Start() int {
	if p.Total == 0 {
		return 0
	}
	return p.Offset() + 1
}

func (p Page) End() int {
	return min(p.Offset()+p.Size, p.Total)
}

// QueryWithout encodes q without key, for links that append their own key.
func QueryWithout(q url.Values, key string) string {
	c := url.Values{}
	for k, v := range q {
		if k != key {
			c[k] = v
		}
	}
	return c.Encode()
}
