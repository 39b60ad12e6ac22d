// Package category maps a webinar category to its list filter and sort order.
package category

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/aura-webinar/webinar-service/internal/apperr"
	"github.com/aura-webinar/webinar-service/internal/models"
)

// SortField is a sortable webinar column.
type SortField string

const (
	SortStartTime SortField = "start_time"
	SortEndTime   SortField = "end_time"
)

// Sort is the ordering of a listing.
type Sort struct {
	Field SortField
	Desc  bool
}

// OrderBy renders the sort as an SQL ORDER BY clause. id breaks ties so pages are stable.
func (s Sort) OrderBy() string {
	field := SortStartTime
	if s.Field == SortEndTime {
		field = SortEndTime
	}
	dir := "ASC"
	if s.Desc {
		dir = "DESC"
	}
	return "ORDER BY " + string(field) + " " + dir + ", id " + dir
}

// Less reports whether a sorts before b.
func (s Sort) Less(a, b models.Webinar) bool {
	ta, tb := a.StartTime, b.StartTime
	if s.Field == SortEndTime {
		ta, tb = a.EndTime, b.EndTime
	}
	if ta.Equal(tb) {
		if s.Desc {
			return a.ID.String() > b.ID.String()
		}
		return a.ID.String() < b.ID.String()
	}
	if s.Desc {
		return ta.After(tb)
	}
	return ta.Before(tb)
}

// Filter is a conjunction of webinar predicates. Nil fields are not applied.
type Filter struct {
	StartAfter    *time.Time
	EndAtOrBefore *time.Time
	CreatedBy     *uuid.UUID
}

// WithCreator narrows the filter to webinars created by id.
func (f Filter) WithCreator(id uuid.UUID) Filter {
	f.CreatedBy = &id
	return f
}

// Match evaluates the filter against w.
func (f Filter) Match(w models.Webinar) bool {
	if f.StartAfter != nil && !w.StartTime.After(*f.StartAfter) {
		return false
	}
	if f.EndAtOrBefore != nil && w.EndTime.After(*f.EndAtOrBefore) {
		return false
	}
	if f.CreatedBy != nil && w.CreatedBy != *f.CreatedBy {
		return false
	}
	return true
}

// Strategy is the filter and sort policy of one category.
type Strategy struct {
	Category models.Category
	filter   func(now time.Time) Filter
	sort     Sort
}

// Filter returns the category predicate evaluated at now.
func (s Strategy) Filter(now time.Time) Filter {
	return s.filter(now)
}

// Sort returns the category ordering.
func (s Strategy) Sort() Sort {
	return s.sort
}

var (
	planned = Strategy{
		Category: models.CategoryPlanned,
		filter: func(now time.Time) Filter {
			return Filter{StartAfter: &now}
		},
		sort: Sort{Field: SortStartTime},
	}
	past = Strategy{
		Category: models.CategoryPast,
		filter: func(now time.Time) Filter {
			return Filter{EndAtOrBefore: &now}
		},
		sort: Sort{Field: SortEndTime, Desc: true},
	}
)

// Parse validates a category keyword. Blank defaults to planned.
func Parse(keyword string) (models.Category, error) {
	if strings.TrimSpace(keyword) == "" {
		return models.CategoryPlanned, nil
	}
	c, ok := models.ParseCategory(keyword)
	if !ok {
		return "", apperr.UnsupportedCategory(keyword)
	}
	return c, nil
}

// For returns the strategy for c. Unknown values fall back to planned;
// callers validate with Parse first.
func For(c models.Category) Strategy {
	if c == models.CategoryPast {
		return past
	}
	return planned
}

// Get parses keyword and returns its strategy.
func Get(keyword string) (Strategy, error) {
	c, err := Parse(keyword)
	if err != nil {
		return Strategy{}, err
	}
	return For(c), nil
}
