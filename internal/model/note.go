package model

import "time"

// Note is a personal note. UserID is the owner and never changes after creation.
type Note struct {
	ID         string
	UserID     string
	Title      string
	Content    string
	IsFavorite bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NoteSortField names a sortable note attribute as exposed by the API.
type NoteSortField string

const (
	// NoteSortCreatedAt sorts by creation time. It is the default.
	NoteSortCreatedAt NoteSortField = "createdAt"
	// NoteSortUpdatedAt sorts by last modification time.
	NoteSortUpdatedAt NoteSortField = "updatedAt"
	// NoteSortTitle sorts by title in byte order.
	NoteSortTitle NoteSortField = "title"
	// NoteSortContent sorts by content in byte order.
	NoteSortContent NoteSortField = "content"
	// NoteSortIsFavorite sorts by the favorite flag (false before true when ascending).
	NoteSortIsFavorite NoteSortField = "isFavorite"
)

// SortOrder is the direction of a sort.
type SortOrder string

const (
	// SortAsc is ascending order.
	SortAsc SortOrder = "asc"
	// SortDesc is descending order. It is the default.
	SortDesc SortOrder = "desc"
)
