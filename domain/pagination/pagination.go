// Package pagination computes page windows and page metadata for list endpoints.
package pagination

import (
	"math"
	"strconv"
	"strings"
)

const (
	// DefaultPage is used when the page parameter is absent or invalid.
	DefaultPage = 1
	// DefaultLimit is used when the limit parameter is absent or invalid.
	DefaultLimit = 10
	// MaxLimit caps the page size; larger requests are served MaxLimit rows.
	MaxLimit = 100
)

// Params is a normalized page request. Page is 1-based.
type Params struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// Meta describes a page window over a collection.
type Meta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}

// Parse builds Params from raw query values, falling back to the defaults
// for absent, non-numeric or non-positive values.
func Parse(page, limit string) Params {
	return Params{
		Page:  parsePositive(page, DefaultPage),
		Limit: parsePositive(limit, DefaultLimit),
	}.Normalize()
}

// Normalize replaces non-positive fields with their defaults and caps Limit at MaxLimit.
func (p Params) Normalize() Params {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	p.Limit = min(p.Limit, MaxLimit)
	return p
}

// Offset returns the number of rows preceding the window.
// It saturates at math.MaxInt for pages too far out to address.
func (p Params) Offset() int {
	p = p.Normalize()
	if p.Page-1 > math.MaxInt/p.Limit {
		return math.MaxInt
	}
	return (p.Page - 1) * p.Limit
}

// Beyond reports whether the window starts at or after the last of total rows.
func (p Params) Beyond(total int64) bool {
	return int64(p.Offset()) >= total
}

// NewMeta builds page metadata for a collection of total rows.
func NewMeta(p Params, total int64) Meta {
	p = p.Normalize()
	return Meta{
		Page:       p.Page,
		Limit:      p.Limit,
		Total:      total,
		TotalPages: TotalPages(total, p.Limit),
	}
}

// TotalPages returns ceil(total/limit), or 0 for an empty collection.
func TotalPages(total int64, limit int) int64 {
	if total <= 0 || limit <= 0 {
		return 0
	}
	l := int64(limit)
	return (total + l - 1) / l
}

func parsePositive(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
