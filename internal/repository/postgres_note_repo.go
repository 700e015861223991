package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hitoshi/notesapi/internal/model"
)

const noteColumns = `id, user_id, title, content, is_favorite, created_at, updated_at`

// PostgresNoteRepo is a NoteRepository backed by PostgreSQL.
// Single note statements carry the owner in their WHERE clause, so
// ownership is checked atomically with the read or write.
type PostgresNoteRepo struct {
	db *sql.DB
}

// NewPostgresNoteRepo returns a PostgresNoteRepo.
func NewPostgresNoteRepo(db *sql.DB) *PostgresNoteRepo {
	return &PostgresNoteRepo{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNote(s rowScanner) (*model.Note, error) {
	n := &model.Note{}
	if err := s.Scan(&n.ID, &n.UserID, &n.Title, &n.Content, &n.IsFavorite, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return nil, err
	}
	return n, nil
}

// scanOptionalNote returns nil, nil when the row does not exist.
func scanOptionalNote(s rowScanner, op string) (*model.Note, error) {
	n, err := scanNote(s)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to %s note: %w", op, err)
	}
	return n, nil
}

// Create inserts the note.
func (r *PostgresNoteRepo) Create(ctx context.Context, note *model.Note) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO notes (`+noteColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		note.ID, note.UserID, note.Title, note.Content, note.IsFavorite, note.CreatedAt, note.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert note: %w", err)
	}
	return nil
}

// FindByIDAndOwner returns the owned note or nil.
func (r *PostgresNoteRepo) FindByIDAndOwner(ctx context.Context, id, ownerID string) (*model.Note, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE id = $1 AND user_id = $2`,
		id, ownerID,
	)
	return scanOptionalNote(row, "find")
}

// List returns one page of notes matching filter.
func (r *PostgresNoteRepo) List(ctx context.Context, filter NoteFilter, page NotePage) ([]*model.Note, error) {
	query, args := buildListQuery(filter, page)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	return collectNotes(rows)
}

// Count returns the number of notes matching filter.
func (r *PostgresNoteRepo) Count(ctx context.Context, filter NoteFilter) (int, error) {
	query, args := buildCountQuery(filter)
	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count notes: %w", err)
	}
	return count, nil
}

// Update applies the non-nil patch fields to the owned note.
func (r *PostgresNoteRepo) Update(ctx context.Context, id, ownerID string, patch NotePatch) (*model.Note, error) {
	row := r.db.QueryRowContext(ctx,
		`UPDATE notes
		 SET title = COALESCE($3, title), content = COALESCE($4, content), updated_at = $5
		 WHERE id = $1 AND user_id = $2
		 RETURNING `+noteColumns,
		id, ownerID, patch.Title, patch.Content, patch.UpdatedAt,
	)
	return scanOptionalNote(row, "update")
}

// ToggleFavorite flips the favorite flag of the owned note.
func (r *PostgresNoteRepo) ToggleFavorite(ctx context.Context, id, ownerID string, at time.Time) (*model.Note, error) {
	row := r.db.QueryRowContext(ctx,
		`UPDATE notes
		 SET is_favorite = NOT is_favorite, updated_at = $3
		 WHERE id = $1 AND user_id = $2
		 RETURNING `+noteColumns,
		id, ownerID, at,
	)
	return scanOptionalNote(row, "toggle favorite of")
}

// Delete removes the owned note.
func (r *PostgresNoteRepo) Delete(ctx context.Context, id, ownerID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM notes WHERE id = $1 AND user_id = $2`,
		id, ownerID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to delete note: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// ListFavorites returns the owner's favorite notes, newest first.
func (r *PostgresNoteRepo) ListFavorites(ctx context.Context, ownerID string) ([]*model.Note, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+noteColumns+` FROM notes
		 WHERE user_id = $1 AND is_favorite
		 ORDER BY created_at DESC, id ASC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorite notes: %w", err)
	}
	return collectNotes(rows)
}

func collectNotes(rows *sql.Rows) ([]*model.Note, error) {
	defer rows.Close()

	notes := []*model.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notes: %w", err)
	}
	return notes, nil
}

func buildListQuery(filter NoteFilter, page NotePage) (string, []any) {
	where, args := filter.where()
	args = append(args, page.Limit, page.Offset)
	query := fmt.Sprintf(
		`SELECT %s FROM notes WHERE %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		noteColumns, where, page.orderBy(), len(args)-1, len(args),
	)
	return query, args
}

func buildCountQuery(filter NoteFilter) (string, []any) {
	where, args := filter.where()
	return `SELECT COUNT(*) FROM notes WHERE ` + where, args
}

// compile-time interface check
var _ NoteRepository = (*PostgresNoteRepo)(nil)
