// Package pagination parses page/per_page query parameters.
package pagination

import (
	"net/http"
	"strconv"
)

const (
	DefaultPage    = 1
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// Params holds pagination parameters extracted from query strings.
type Params struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Offset  int `json:"-"`
}

// DefaultParams returns the first page with the default page size.
func DefaultParams() Params {
	return Params{Page: DefaultPage, PerPage: DefaultPerPage}
}

// FromRequest extracts pagination parameters from an HTTP request.
// Missing, malformed, or out-of-range values fall back to the defaults.
func FromRequest(r *http.Request) Params {
	q := r.URL.Query()
	p := DefaultParams()

	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(q.Get("per_page")); err == nil && v > 0 && v <= MaxPerPage {
		p.PerPage = v
	}

	p.Offset = (p.Page - 1) * p.PerPage
	return p
}
