package repository

import (
	"fmt"
	"strings"
	"time"

	"github.com/hitoshi/notesapi/internal/model"
)

// NoteFilter selects notes. OwnerID is always applied; zero-valued
// optional fields are ignored.
type NoteFilter struct {
	OwnerID string

	// Search matches a case-insensitive substring of title or content.
	Search string

	// CreatedFrom is an inclusive lower bound on created_at.
	CreatedFrom time.Time
	// CreatedUntil is an inclusive upper bound on created_at.
	CreatedUntil time.Time
	// CreatedBefore is an exclusive upper bound on created_at.
	CreatedBefore time.Time
}

// NotePage orders and windows a note listing.
type NotePage struct {
	SortBy model.NoteSortField
	Order  model.SortOrder
	Offset int
	Limit  int
}

// Empty reports whether the date bounds cannot match anything.
func (f NoteFilter) Empty() bool {
	if f.CreatedFrom.IsZero() {
		return false
	}
	if !f.CreatedUntil.IsZero() && f.CreatedFrom.After(f.CreatedUntil) {
		return true
	}
	if !f.CreatedBefore.IsZero() && !f.CreatedFrom.Before(f.CreatedBefore) {
		return true
	}
	return false
}

// where renders the filter as a SQL predicate with positional arguments.
func (f NoteFilter) where() (string, []any) {
	conds := []string{"user_id = $1"}
	args := []any{f.OwnerID}

	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Search != "" {
		p := next("%" + escapeLike(f.Search) + "%")
		conds = append(conds, fmt.Sprintf("(title ILIKE %s OR content ILIKE %s)", p, p))
	}
	if !f.CreatedFrom.IsZero() {
		conds = append(conds, "created_at >= "+next(f.CreatedFrom))
	}
	if !f.CreatedUntil.IsZero() {
		conds = append(conds, "created_at <= "+next(f.CreatedUntil))
	}
	if !f.CreatedBefore.IsZero() {
		conds = append(conds, "created_at < "+next(f.CreatedBefore))
	}

	return strings.Join(conds, " AND "), args
}

// Matches reports whether note satisfies the filter.
func (f NoteFilter) Matches(note *model.Note) bool {
	if note.UserID != f.OwnerID {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(note.Title), q) && !strings.Contains(strings.ToLower(note.Content), q) {
			return false
		}
	}
	if !f.CreatedFrom.IsZero() && note.CreatedAt.Before(f.CreatedFrom) {
		return false
	}
	if !f.CreatedUntil.IsZero() && note.CreatedAt.After(f.CreatedUntil) {
		return false
	}
	if !f.CreatedBefore.IsZero() && !note.CreatedAt.Before(f.CreatedBefore) {
		return false
	}
	return true
}

// sortColumns maps API sort fields to SQL expressions.
// Text columns use the C collation so ordering is by byte value.
var sortColumns = map[model.NoteSortField]string{
	model.NoteSortCreatedAt:  "created_at",
	model.NoteSortUpdatedAt:  "updated_at",
	model.NoteSortTitle:      `title COLLATE "C"`,
	model.NoteSortContent:    `content COLLATE "C"`,
	model.NoteSortIsFavorite: "is_favorite",
}

// orderBy renders the ORDER BY clause. Unknown fields fall back to created_at;
// id ascending breaks ties.
func (p NotePage) orderBy() string {
	col, ok := sortColumns[p.SortBy]
	if !ok {
		col = sortColumns[model.NoteSortCreatedAt]
	}
	dir := "DESC"
	if p.Order == model.SortAsc {
		dir = "ASC"
	}
	return fmt.Sprintf("%s %s, id ASC", col, dir)
}

// Less reports whether a sorts before b under p.
func (p NotePage) Less(a, b *model.Note) bool {
	c := compareNotes(p.SortBy, a, b)
	if p.Order != model.SortAsc {
		c = -c
	}
	if c != 0 {
		return c < 0
	}
	return a.ID < b.ID
}

func compareNotes(field model.NoteSortField, a, b *model.Note) int {
	switch field {
	case model.NoteSortUpdatedAt:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	case model.NoteSortTitle:
		return strings.Compare(a.Title, b.Title)
	case model.NoteSortContent:
		return strings.Compare(a.Content, b.Content)
	case model.NoteSortIsFavorite:
		switch {
		case a.IsFavorite == b.IsFavorite:
			return 0
		case b.IsFavorite:
			return -1
		default:
			return 1
		}
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike escapes LIKE wildcards so the search term matches literally.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
