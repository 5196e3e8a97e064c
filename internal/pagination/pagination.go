package pagination

import (
	"net/http"
	"net/url"
	"strconv"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params selects one page of a list that was already filtered in memory.
type Params struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Meta describes the page returned next to a list.
type Meta struct {
	CurrentPage  int  `json:"current_page"`
	PerPage      int  `json:"per_page"`
	TotalPages   int  `json:"total_pages"`
	TotalRecords int  `json:"total_records"`
	HasNext      bool `json:"has_next"`
	HasPrevious  bool `json:"has_previous"`
}

// ParseParams reads page and limit from the request query.
func ParseParams(r *http.Request) Params {
	return FromQuery(r.URL.Query())
}

// FromQuery reads page and limit from q. Missing or malformed values fall
// back to the defaults and the limit is capped at MaxLimit.
func FromQuery(q url.Values) Params {
	return Params{
		Page:  positiveInt(q.Get("page")),
		Limit: positiveInt(q.Get("limit")),
	}.Normalize()
}

func positiveInt(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0
	}
	return n
}

// Normalize returns p with defaults filled in and the limit capped.
func (p Params) Normalize() Params {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	switch {
	case p.Limit < 1:
		p.Limit = DefaultLimit
	case p.Limit > MaxLimit:
		p.Limit = MaxLimit
	}
	return p
}

// MetaFor describes page p of a list of total items. p must be normalized.
func (p Params) MetaFor(total int) Meta {
	pages := max(1, (total+p.Limit-1)/p.Limit)
	return Meta{
		CurrentPage:  p.Page,
		PerPage:      p.Limit,
		TotalPages:   pages,
		TotalRecords: total,
		HasNext:      p.Page < pages,
		HasPrevious:  p.Page > 1,
	}
}

// Slice returns a copy of page p of items with its metadata. A page past the
// end is empty, never nil.
func Slice[T any](items []T, p Params) ([]T, Meta) {
	p = p.Normalize()
	meta := p.MetaFor(len(items))

	start := min((p.Page-1)*p.Limit, len(items))
	end := min(start+p.Limit, len(items))
	page := make([]T, end-start)
	copy(page, items[start:end])
	return page, meta
}
