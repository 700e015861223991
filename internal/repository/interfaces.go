// Package repository defines the persistence interfaces and their
// PostgreSQL and in-memory implementations.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/hitoshi/notesapi/internal/model"
)

// ErrDuplicateEmail is returned by UserRepository.Create when the email is taken.
var ErrDuplicateEmail = errors.New("repository: duplicate email")

// UserRepository persists user accounts.
type UserRepository interface {
	// Create stores a new user. The email must already be normalized.
	// Returns ErrDuplicateEmail when the email is in use.
	Create(ctx context.Context, user *model.User) error

	// FindByEmail returns the user with the given email, including the password hash.
	// Returns nil when not found.
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// FindByID returns the user without the password hash. Returns nil when not found.
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// NotePatch carries the fields of a partial note update.
// Nil fields keep their stored value.
type NotePatch struct {
	Title     *string
	Content   *string
	UpdatedAt time.Time
}

// NoteRepository persists notes. Every method that addresses a single note
// takes the owner id and only matches notes owned by that user.
type NoteRepository interface {
	// Create stores a new note.
	Create(ctx context.Context, note *model.Note) error

	// FindByIDAndOwner returns the note, or nil when it does not exist or is not owned.
	FindByIDAndOwner(ctx context.Context, id, ownerID string) (*model.Note, error)

	// List returns the page of notes matching filter.
	List(ctx context.Context, filter NoteFilter, page NotePage) ([]*model.Note, error)

	// Count returns the number of notes matching filter.
	Count(ctx context.Context, filter NoteFilter) (int, error)

	// Update applies patch and returns the updated note, or nil when not owned.
	Update(ctx context.Context, id, ownerID string, patch NotePatch) (*model.Note, error)

	// ToggleFavorite flips is_favorite in one statement and returns the
	// updated note, or nil when not owned.
	ToggleFavorite(ctx context.Context, id, ownerID string, at time.Time) (*model.Note, error)

	// Delete removes the note. It reports false when nothing owned matched.
	Delete(ctx context.Context, id, ownerID string) (bool, error)

	// ListFavorites returns all favorite notes of the owner, newest first.
	ListFavorites(ctx context.Context, ownerID string) ([]*model.Note, error)
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}
