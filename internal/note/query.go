package note

import (
	"math"
	"net/url"
	"strconv"
	"time"

	"github.com/hitoshi/notesapi/internal/model"
	"github.com/hitoshi/notesapi/internal/repository"
)

// Listing defaults and bounds.
const (
	DefaultPage  = 1
	DefaultLimit = 5
	MaxLimit     = 100
)

const (
	dateOnlyLayout = "2006-01-02"

	// maxOffset keeps (page-1)*limit from overflowing for absurd page numbers.
	maxOffset = math.MaxInt32
)

// ListQuery is the parsed form of the GET /notes query string.
type ListQuery struct {
	Search string

	CreatedFrom   time.Time
	CreatedUntil  time.Time
	CreatedBefore time.Time

	Page   int
	Limit  int
	SortBy model.NoteSortField
	Order  model.SortOrder
}

var sortableFields = map[model.NoteSortField]bool{
	model.NoteSortCreatedAt:  true,
	model.NoteSortUpdatedAt:  true,
	model.NoteSortTitle:      true,
	model.NoteSortContent:    true,
	model.NoteSortIsFavorite: true,
}

// ParseListQuery reads search, fromDate, toDate, page, limit, sortBy and order.
//
// page and limit fall back to their defaults when missing, non-numeric or
// not positive; limit is capped at MaxLimit. Unknown sortBy values fall back
// to createdAt and any order other than "asc" means descending.
// Dates accept YYYY-MM-DD (UTC) or RFC 3339. A date-only toDate covers the
// whole day. An unparsable date is an INVALID_DATE error.
func ParseListQuery(values url.Values) (ListQuery, error) {
	q := ListQuery{
		Search: values.Get("search"),
		Page:   positiveOr(values.Get("page"), DefaultPage),
		Limit:  positiveOr(values.Get("limit"), DefaultLimit),
		SortBy: model.NoteSortCreatedAt,
		Order:  model.SortDesc,
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}

	if f := model.NoteSortField(values.Get("sortBy")); sortableFields[f] {
		q.SortBy = f
	}
	if values.Get("order") == string(model.SortAsc) {
		q.Order = model.SortAsc
	}

	if v := values.Get("fromDate"); v != "" {
		t, _, err := parseDate("fromDate", v)
		if err != nil {
			return ListQuery{}, err
		}
		q.CreatedFrom = t
	}
	if v := values.Get("toDate"); v != "" {
		t, dateOnly, err := parseDate("toDate", v)
		if err != nil {
			return ListQuery{}, err
		}
		if dateOnly {
			q.CreatedBefore = t.AddDate(0, 0, 1)
		} else {
			q.CreatedUntil = t
		}
	}

	return q, nil
}

// Filter returns the store filter for ownerID.
func (q ListQuery) Filter(ownerID string) repository.NoteFilter {
	return repository.NoteFilter{
		OwnerID:       ownerID,
		Search:        q.Search,
		CreatedFrom:   q.CreatedFrom,
		CreatedUntil:  q.CreatedUntil,
		CreatedBefore: q.CreatedBefore,
	}
}

// normalized applies the page and limit defaults to a hand-built query.
func (q ListQuery) normalized() ListQuery {
	if q.Page <= 0 {
		q.Page = DefaultPage
	}
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	return q
}

// NotePage returns the store ordering and window.
func (q ListQuery) NotePage() repository.NotePage {
	q = q.normalized()
	offset := maxOffset
	if q.Page-1 <= maxOffset/q.Limit {
		offset = (q.Page - 1) * q.Limit
	}
	return repository.NotePage{
		SortBy: q.SortBy,
		Order:  q.Order,
		Offset: offset,
		Limit:  q.Limit,
	}
}

func parseDate(param, value string) (t time.Time, dateOnly bool, err error) {
	if t, err := time.Parse(dateOnlyLayout, value); err == nil {
		return t, true, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, false, nil
	}
	return time.Time{}, false, model.NewInvalidDateError(param, value)
}

func positiveOr(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// totalPages is ceil(total / limit).
func totalPages(total, limit int) int {
	if limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
