package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/notesapi/internal/middleware"
	"github.com/hitoshi/notesapi/internal/model"
	"github.com/hitoshi/notesapi/internal/note"
)

// NoteServiceInterface is what NoteHandler needs from the note service.
type NoteServiceInterface interface {
	Create(ctx context.Context, ownerID string, in note.CreateInput) (*model.Note, error)
	Get(ctx context.Context, ownerID, id string) (*model.Note, error)
	List(ctx context.Context, ownerID string, q note.ListQuery) (*note.ListResult, error)
	Update(ctx context.Context, ownerID, id string, in note.UpdateInput) (*model.Note, error)
	Delete(ctx context.Context, ownerID, id string) error
	ToggleFavorite(ctx context.Context, ownerID, id string) (*model.Note, string, error)
	ListFavorites(ctx context.Context, ownerID string) ([]*model.Note, error)
}

// NoteHandler serves the /notes endpoints. Every route sits behind the auth gate.
type NoteHandler struct {
	service NoteServiceInterface
}

// NewNoteHandler returns a NoteHandler.
func NewNoteHandler(service NoteServiceInterface) *NoteHandler {
	return &NoteHandler{service: service}
}

type noteResponse struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	User       string    `json:"user"`
	IsFavorite bool      `json:"isFavorite"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type noteListResponse struct {
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	TotalPages int            `json:"totalPages"`
	Notes      []noteResponse `json:"notes"`
}

type favoriteResponse struct {
	Message string       `json:"message"`
	Note    noteResponse `json:"note"`
}

// CreateNote stores a note for the caller.
// POST /notes
func (h *NoteHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var in note.CreateInput
	if apiErr := decodeJSON(w, r, &in); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	n, err := h.service.Create(r.Context(), userID, in)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toNoteResponse(n))
}

// ListNotes returns one page of the caller's notes.
// GET /notes?search=&fromDate=&toDate=&page=&limit=&sortBy=&order=
func (h *NoteHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	q, err := note.ParseListQuery(r.URL.Query())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	res, err := h.service.List(r.Context(), userID, q)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, noteListResponse{
		Total:      res.Total,
		Page:       res.Page,
		TotalPages: res.TotalPages,
		Notes:      toNoteResponses(res.Notes),
	})
}

// ListFavorites returns all favorite notes of the caller.
// GET /notes/favorites
func (h *NoteHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	notes, err := h.service.ListFavorites(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toNoteResponses(notes))
}

// GetNote returns one note.
// GET /notes/{id}
func (h *NoteHandler) GetNote(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	n, err := h.service.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toNoteResponse(n))
}

// UpdateNote applies a partial update.
// PUT /notes/{id}
func (h *NoteHandler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	var in note.UpdateInput
	if apiErr := decodeJSON(w, r, &in); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	n, err := h.service.Update(r.Context(), userID, chi.URLParam(r, "id"), in)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toNoteResponse(n))
}

// DeleteNote removes a note.
// DELETE /notes/{id}
func (h *NoteHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Note deleted"})
}

// ToggleFavorite flips the favorite flag.
// PUT /notes/{id}/favorite
func (h *NoteHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.userID(w, r)
	if !ok {
		return
	}

	n, msg, err := h.service.ToggleFavorite(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, favoriteResponse{Message: msg, Note: toNoteResponse(n)})
}

func (h *NoteHandler) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError(model.MsgNoToken))
		return "", false
	}
	return userID, true
}

func toNoteResponse(n *model.Note) noteResponse {
	return noteResponse{
		ID:         n.ID,
		Title:      n.Title,
		Content:    n.Content,
		User:       n.UserID,
		IsFavorite: n.IsFavorite,
		CreatedAt:  n.CreatedAt,
		UpdatedAt:  n.UpdatedAt,
	}
}

func toNoteResponses(notes []*model.Note) []noteResponse {
	out := make([]noteResponse, 0, len(notes))
	for _, n := range notes {
		out = append(out, toNoteResponse(n))
	}
	return out
}
