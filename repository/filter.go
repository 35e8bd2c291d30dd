package repository

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/padraicbc/racelog/models"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 1000
)

var (
	yearRe = regexp.MustCompile(`^\d{4}$`)
	dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// RaceFilter narrows the races of one owner. Zero fields match everything.
type RaceFilter struct {
	Year     string
	Month    string
	Statuses []models.Status
	Search   string
	// From and To bound the date inclusively, YYYY-MM-DD.
	From string
	To   string
}

// Validate checks the filter values that end up in predicates.
func (f RaceFilter) Validate() error {
	ve := &models.ValidationError{}
	if f.Year != "" && !yearRe.MatchString(f.Year) {
		ve.Add("year", "year must have 4 digits")
	}
	if f.Year != "" && f.Month != "" && f.Month != "all" {
		if m, err := strconv.Atoi(f.Month); err != nil || m < 1 || m > 12 {
			ve.Add("month", "month must be between 1 and 12 or all")
		}
	}
	for _, s := range f.Statuses {
		if !s.Valid() {
			ve.Add("status", fmt.Sprintf("unknown status %q", s))
		}
	}
	if f.From != "" && !dateRe.MatchString(f.From) {
		ve.Add("startDate", "date must be in YYYY-MM-DD format")
	}
	if f.To != "" && !dateRe.MatchString(f.To) {
		ve.Add("endDate", "date must be in YYYY-MM-DD format")
	}
	return ve.OrNil()
}

// DatePrefix returns the YYYY or YYYY-MM prefix the date must start with.
func (f RaceFilter) DatePrefix() string {
	if f.Year == "" {
		return ""
	}
	if f.Month == "" || f.Month == "all" {
		return f.Year
	}
	m, err := strconv.Atoi(f.Month)
	if err != nil {
		return f.Year
	}
	return fmt.Sprintf("%s-%02d", f.Year, m)
}

// Match reports whether r satisfies every predicate of f.
func (f RaceFilter) Match(r *models.Race) bool {
	if p := f.DatePrefix(); p != "" && !strings.HasPrefix(r.Date, p) {
		return false
	}
	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			if r.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(r.Name), strings.ToLower(f.Search)) {
		return false
	}
	if f.From != "" && r.Date < f.From {
		return false
	}
	if f.To != "" && r.Date > f.To {
		return false
	}
	return true
}

// escapeLike escapes LIKE wildcards so search text matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// Page is a 1-based page request.
type Page struct {
	Number int
	Limit  int
}

// ParsePage parses page and limit query values, falling back to defaults on bad input.
func ParsePage(page, limit string) Page {
	p := Page{Number: DefaultPage, Limit: DefaultLimit}
	if n, err := strconv.Atoi(strings.TrimSpace(limit)); err == nil && n > 0 {
		p.Limit = min(n, MaxLimit)
	}
	// Number is capped so Offset cannot overflow.
	if n, err := strconv.Atoi(strings.TrimSpace(page)); err == nil && n > 0 {
		p.Number = min(n, math.MaxInt/p.Limit)
	}
	return p
}

// Offset is the number of rows skipped before this page.
func (p Page) Offset() int { return (p.Number - 1) * p.Limit }

// Pagination describes a page of results.
type Pagination struct {
	CurrentPage  int  `json:"currentPage"`
	TotalPages   int  `json:"totalPages"`
	TotalItems   int  `json:"totalItems"`
	ItemsPerPage int  `json:"itemsPerPage"`
	HasNextPage  bool `json:"hasNextPage"`
	HasPrevPage  bool `json:"hasPrevPage"`
}

// Paginate computes page metadata for total matching items.
func (p Page) Paginate(total int) Pagination {
	pages := 0
	if p.Limit > 0 {
		pages = (total + p.Limit - 1) / p.Limit
	}
	return Pagination{
		CurrentPage:  p.Number,
		TotalPages:   pages,
		TotalItems:   total,
		ItemsPerPage: p.Limit,
		HasNextPage:  p.Number < pages,
		HasPrevPage:  p.Number > 1,
	}
}

// sortColumns maps accepted sortBy values to columns.
var sortColumns = map[string]string{
	"date":           "date",
	"time":           "time",
	"name":           "name",
	"price":          "price",
	"distance":       "distance",
	"status":         "status",
	"completionTime": "completion_time",
	"createdAt":      "created_at",
	"updatedAt":      "updated_at",
}

// Sort orders a race listing.
type Sort struct {
	Field string
	Desc  bool
}

// ParseSort resolves sortBy/sortOrder, defaulting to date descending.
func ParseSort(field, order string) Sort {
	if _, ok := sortColumns[field]; !ok {
		field = "date"
	}
	return Sort{Field: field, Desc: order != "asc"}
}

func (s Sort) column() string {
	if c, ok := sortColumns[s.Field]; ok {
		return c
	}
	return "date"
}
