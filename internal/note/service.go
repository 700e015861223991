// Package note implements the note commands and the listing engine.
// Every operation is scoped to the requesting user.
package note

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/notesapi/internal/model"
	"github.com/hitoshi/notesapi/internal/repository"
	"github.com/hitoshi/notesapi/internal/validation"
)

// Messages returned by ToggleFavorite.
const (
	MsgMarkedFavorite  = "Note marked as favorites"
	MsgRemovedFavorite = "Note removed from favorites"
)

const (
	titleRules   = "min=1,max=100,nonul"
	contentRules = "min=1,nonul"
)

// OperationRecorder receives successful note operations for metrics.
type OperationRecorder interface {
	RecordNoteOperation(op string)
}

type nopRecorder struct{}

func (nopRecorder) RecordNoteOperation(string) {}

// CreateInput is the body of POST /notes. Title and content are stored
// exactly as sent; clients escape them when rendering.
type CreateInput struct {
	Title   string `json:"title" validate:"required,max=100,nonul"`
	Content string `json:"content" validate:"required,nonul"`
}

// UpdateInput is the body of PUT /notes/{id}. Nil fields are left unchanged.
type UpdateInput struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

// ListResult is one page of a note listing.
type ListResult struct {
	Total      int
	Page       int
	TotalPages int
	Notes      []*model.Note
}

// Service implements the note operations.
type Service struct {
	notes     repository.NoteRepository
	validator *validation.Validator
	recorder  OperationRecorder
	now       func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithRecorder sets the OperationRecorder.
func WithRecorder(r OperationRecorder) ServiceOption {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithClock replaces time.Now for note timestamps.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService returns a Service.
func NewService(
	notes repository.NoteRepository,
	validator *validation.Validator,
	opts ...ServiceOption,
) *Service {
	s := &Service{
		notes:     notes,
		validator: validator,
		recorder:  nopRecorder{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores a new note owned by ownerID.
func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput) (*model.Note, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}

	now := s.timestamp()
	n := &model.Note{
		ID:         uuid.New().String(),
		UserID:     ownerID,
		Title:      in.Title,
		Content:    in.Content,
		IsFavorite: false,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.notes.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}

	s.recorder.RecordNoteOperation("create")
	slog.Debug("note created", slog.String("user_id", ownerID), slog.String("note_id", n.ID))
	return n, nil
}

// Get returns one owned note.
func (s *Service) Get(ctx context.Context, ownerID, id string) (*model.Note, error) {
	if !validID(id) {
		return nil, model.NewNoteNotFoundError(id)
	}

	n, err := s.notes.FindByIDAndOwner(ctx, id, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get note: %w", err)
	}
	if n == nil {
		return nil, model.NewNoteNotFoundError(id)
	}
	return n, nil
}

// List runs the listing engine: owner scope, optional search and date range,
// sort with an id tie-break, then the page window plus totals.
func (s *Service) List(ctx context.Context, ownerID string, q ListQuery) (*ListResult, error) {
	q = q.normalized()
	filter := q.Filter(ownerID)

	result := &ListResult{Page: q.Page, Notes: []*model.Note{}}
	if filter.Empty() {
		return result, nil
	}

	total, err := s.notes.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count notes: %w", err)
	}
	result.Total = total
	result.TotalPages = totalPages(total, q.Limit)

	page := q.NotePage()
	if total == 0 || page.Offset >= total {
		return result, nil
	}

	notes, err := s.notes.List(ctx, filter, page)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	result.Notes = notes
	return result, nil
}

// Update applies a partial update to an owned note.
// At least one of title and content must be present.
func (s *Service) Update(ctx context.Context, ownerID, id string, in UpdateInput) (*model.Note, error) {
	if in.Title == nil && in.Content == nil {
		return nil, model.NewValidationError(`"value" must contain at least one of [title, content]`)
	}

	patch := repository.NotePatch{}
	if in.Title != nil {
		if err := s.validator.Field("title", *in.Title, titleRules); err != nil {
			return nil, err
		}
		patch.Title = in.Title
	}
	if in.Content != nil {
		if err := s.validator.Field("content", *in.Content, contentRules); err != nil {
			return nil, err
		}
		patch.Content = in.Content
	}

	if !validID(id) {
		return nil, model.NewNoteNotFoundError(id)
	}

	patch.UpdatedAt = s.timestamp()
	n, err := s.notes.Update(ctx, id, ownerID, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update note: %w", err)
	}
	if n == nil {
		return nil, model.NewNoteNotFoundError(id)
	}

	s.recorder.RecordNoteOperation("update")
	return n, nil
}

// Delete removes an owned note.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	if !validID(id) {
		return model.NewNoteNotFoundError(id)
	}

	deleted, err := s.notes.Delete(ctx, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	if !deleted {
		return model.NewNoteNotFoundError(id)
	}

	s.recorder.RecordNoteOperation("delete")
	slog.Debug("note deleted", slog.String("user_id", ownerID), slog.String("note_id", id))
	return nil
}

// ToggleFavorite flips the favorite flag of an owned note and returns the
// updated note with a status message.
func (s *Service) ToggleFavorite(ctx context.Context, ownerID, id string) (*model.Note, string, error) {
	if !validID(id) {
		return nil, "", model.NewNoteNotFoundError(id)
	}

	n, err := s.notes.ToggleFavorite(ctx, id, ownerID, s.timestamp())
	if err != nil {
		return nil, "", fmt.Errorf("failed to toggle favorite: %w", err)
	}
	if n == nil {
		return nil, "", model.NewNoteNotFoundError(id)
	}

	s.recorder.RecordNoteOperation("toggle_favorite")
	if n.IsFavorite {
		return n, MsgMarkedFavorite, nil
	}
	return n, MsgRemovedFavorite, nil
}

// ListFavorites returns every favorite note of ownerID, newest first.
func (s *Service) ListFavorites(ctx context.Context, ownerID string) ([]*model.Note, error) {
	notes, err := s.notes.ListFavorites(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	return notes, nil
}

// timestamp is truncated to the microsecond precision of timestamptz.
func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
