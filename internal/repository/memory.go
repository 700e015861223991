package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hitoshi/notesapi/internal/model"
)

// MemoryStore holds users and notes in process memory.
// It backs DATABASE_URL=memory:// and the package tests of the services.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]*model.User // by id
	notes map[string]*model.Note // by id
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[string]*model.User),
		notes: make(map[string]*model.Note),
	}
}

// Users returns a UserRepository view of the store.
func (s *MemoryStore) Users() *MemoryUserRepo { return &MemoryUserRepo{s: s} }

// Notes returns a NoteRepository view of the store.
func (s *MemoryStore) Notes() *MemoryNoteRepo { return &MemoryNoteRepo{s: s} }

// PingContext implements Pinger. The memory store is always reachable.
func (s *MemoryStore) PingContext(ctx context.Context) error { return ctx.Err() }

// MemoryUserRepo is a UserRepository over a MemoryStore.
type MemoryUserRepo struct {
	s *MemoryStore
}

// Create stores a copy of user.
func (r *MemoryUserRepo) Create(ctx context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Email == user.Email {
			return ErrDuplicateEmail
		}
	}
	u := *user
	r.s.users[u.ID] = &u
	return nil
}

// FindByEmail returns a copy including the password hash, or nil.
func (r *MemoryUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

// FindByID returns a copy without the password hash, or nil.
func (r *MemoryUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	c := *u
	c.PasswordHash = ""
	return &c, nil
}

// MemoryNoteRepo is a NoteRepository over a MemoryStore.
type MemoryNoteRepo struct {
	s *MemoryStore
}

// Create stores a copy of note.
func (r *MemoryNoteRepo) Create(ctx context.Context, note *model.Note) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n := *note
	r.s.notes[n.ID] = &n
	return nil
}

// FindByIDAndOwner returns a copy of the owned note, or nil.
func (r *MemoryNoteRepo) FindByIDAndOwner(ctx context.Context, id, ownerID string) (*model.Note, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n := r.owned(id, ownerID)
	if n == nil {
		return nil, nil
	}
	c := *n
	return &c, nil
}

// List filters, sorts and windows the notes like the SQL implementation.
func (r *MemoryNoteRepo) List(ctx context.Context, filter NoteFilter, page NotePage) ([]*model.Note, error) {
	matched := r.match(filter)
	sort.Slice(matched, func(i, j int) bool { return page.Less(matched[i], matched[j]) })

	if page.Offset >= len(matched) {
		return []*model.Note{}, nil
	}
	end := len(matched)
	if page.Limit > 0 && page.Offset+page.Limit < end {
		end = page.Offset + page.Limit
	}
	return matched[page.Offset:end], nil
}

// Count returns the number of matching notes.
func (r *MemoryNoteRepo) Count(ctx context.Context, filter NoteFilter) (int, error) {
	return len(r.match(filter)), nil
}

// Update applies patch to the owned note.
func (r *MemoryNoteRepo) Update(ctx context.Context, id, ownerID string, patch NotePatch) (*model.Note, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n := r.owned(id, ownerID)
	if n == nil {
		return nil, nil
	}
	if patch.Title != nil {
		n.Title = *patch.Title
	}
	if patch.Content != nil {
		n.Content = *patch.Content
	}
	n.UpdatedAt = patch.UpdatedAt
	c := *n
	return &c, nil
}

// ToggleFavorite flips the favorite flag of the owned note.
func (r *MemoryNoteRepo) ToggleFavorite(ctx context.Context, id, ownerID string, at time.Time) (*model.Note, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n := r.owned(id, ownerID)
	if n == nil {
		return nil, nil
	}
	n.IsFavorite = !n.IsFavorite
	n.UpdatedAt = at
	c := *n
	return &c, nil
}

// Delete removes the owned note.
func (r *MemoryNoteRepo) Delete(ctx context.Context, id, ownerID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.owned(id, ownerID) == nil {
		return false, nil
	}
	delete(r.s.notes, id)
	return true, nil
}

// ListFavorites returns the owner's favorite notes, newest first.
func (r *MemoryNoteRepo) ListFavorites(ctx context.Context, ownerID string) ([]*model.Note, error) {
	r.s.mu.RLock()
	favorites := []*model.Note{}
	for _, n := range r.s.notes {
		if n.UserID == ownerID && n.IsFavorite {
			c := *n
			favorites = append(favorites, &c)
		}
	}
	r.s.mu.RUnlock()

	newestFirst := NotePage{SortBy: model.NoteSortCreatedAt, Order: model.SortDesc}
	sort.Slice(favorites, func(i, j int) bool { return newestFirst.Less(favorites[i], favorites[j]) })
	return favorites, nil
}

// owned must be called with the lock held.
func (r *MemoryNoteRepo) owned(id, ownerID string) *model.Note {
	n, ok := r.s.notes[id]
	if !ok || n.UserID != ownerID {
		return nil
	}
	return n
}

func (r *MemoryNoteRepo) match(filter NoteFilter) []*model.Note {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	matched := []*model.Note{}
	for _, n := range r.s.notes {
		if filter.Matches(n) {
			c := *n
			matched = append(matched, &c)
		}
	}
	return matched
}

// compile-time interface checks
var (
	_ UserRepository = (*MemoryUserRepo)(nil)
	_ NoteRepository = (*MemoryNoteRepo)(nil)
	_ Pinger         = (*MemoryStore)(nil)
)
