package view

import (
	"net/url"
	"strconv"
)

const DefaultShowPages = 5

type PageLink struct {
	Number   int
	URL      string
	Current  bool
	Ellipsis bool
}

type Pagination struct {
	Current int
	Total   int
	PrevURL string
	NextURL string
	Links   []PageLink
}

// Visible reports whether there is more than one page to link to.
func (p Pagination) Visible() bool {
	return p.Total > 1
}

// PageURL builds the link for page n, keeping the other query parameters.
// Page 1 drops the page parameter.
func PageURL(basePath string, n int, query url.Values) string {
	q := url.Values{}
	for k, v := range query {
		if k != "page" {
			q[k] = v
		}
	}
	if n > 1 {
		q.Set("page", strconv.Itoa(n))
	}
	if enc := q.Encode(); enc != "" {
		return basePath + "?" + enc
	}
	return basePath
}

// PageWindow returns the page numbers around current, at most show of them,
// with 0 marking an ellipsis. The first and last pages are always present.
func PageWindow(current, total, show int) []int {
	if total < 1 {
		return nil
	}
	if show < 1 {
		show = DefaultShowPages
	}
	current = min(max(current, 1), total)

	start := max(1, current-show/2)
	end := min(total, start+show-1)
	start = max(1, end-show+1)

	var pages []int
	if start > 1 {
		pages = append(pages, 1)
		if start > 2 {
			pages = append(pages, 0)
		}
	}
	for i := start; i <= end; i++ {
		pages = append(pages, i)
	}
	if end < total {
		if end < total-1 {
			pages = append(pages, 0)
		}
		pages = append(pages, total)
	}
	return pages
}

func Paginate(basePath string, current, total int, query url.Values) Pagination {
	p := Pagination{Current: current, Total: total}
	if total <= 1 {
		return p
	}
	if current > 1 {
		p.PrevURL = PageURL(basePath, current-1, query)
	}
	if current < total {
		p.NextURL = PageURL(basePath, current+1, query)
	}
	for _, n := range PageWindow(current, total, DefaultShowPages) {
		if n == 0 {
			p.Links = append(p.Links, PageLink{Ellipsis: true})
			continue
		}
		p.Links = append(p.Links, PageLink{Number: n, URL: PageURL(basePath, n, query), Current: n == current})
	}
	return p
}
