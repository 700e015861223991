package handler

import (
	"context"

	"github.com/hitoshi/notesapi/internal/auth"
	"github.com/hitoshi/notesapi/internal/model"
	"github.com/hitoshi/notesapi/internal/note"
)

type mockAuthService struct {
	registerFn func(ctx context.Context, in auth.RegisterInput) (*auth.AuthResult, error)
	loginFn    func(ctx context.Context, in auth.LoginInput) (*auth.AuthResult, error)
}

func (m *mockAuthService) Register(ctx context.Context, in auth.RegisterInput) (*auth.AuthResult, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, in)
	}
	return nil, nil
}

func (m *mockAuthService) Login(ctx context.Context, in auth.LoginInput) (*auth.AuthResult, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, in)
	}
	return nil, nil
}

type mockNoteService struct {
	createFn         func(ctx context.Context, ownerID string, in note.CreateInput) (*model.Note, error)
	getFn            func(ctx context.Context, ownerID, id string) (*model.Note, error)
	listFn           func(ctx context.Context, ownerID string, q note.ListQuery) (*note.ListResult, error)
	updateFn         func(ctx context.Context, ownerID, id string, in note.UpdateInput) (*model.Note, error)
	deleteFn         func(ctx context.Context, ownerID, id string) error
	toggleFavoriteFn func(ctx context.Context, ownerID, id string) (*model.Note, string, error)
	listFavoritesFn  func(ctx context.Context, ownerID string) ([]*model.Note, error)
}

func (m *mockNoteService) Create(ctx context.Context, ownerID string, in note.CreateInput) (*model.Note, error) {
	if m.createFn != nil {
		return m.createFn(ctx, ownerID, in)
	}
	return nil, nil
}

func (m *mockNoteService) Get(ctx context.Context, ownerID, id string) (*model.Note, error) {
	if m.getFn != nil {
		return m.getFn(ctx, ownerID, id)
	}
	return nil, nil
}

func (m *mockNoteService) List(ctx context.Context, ownerID string, q note.ListQuery) (*note.ListResult, error) {
	if m.listFn != nil {
		return m.listFn(ctx, ownerID, q)
	}
	return &note.ListResult{}, nil
}

func (m *mockNoteService) Update(ctx context.Context, ownerID, id string, in note.UpdateInput) (*model.Note, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, ownerID, id, in)
	}
	return nil, nil
}

func (m *mockNoteService) Delete(ctx context.Context, ownerID, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, ownerID, id)
	}
	return nil
}

func (m *mockNoteService) ToggleFavorite(ctx context.Context, ownerID, id string) (*model.Note, string, error) {
	if m.toggleFavoriteFn != nil {
		return m.toggleFavoriteFn(ctx, ownerID, id)
	}
	return nil, "", nil
}

func (m *mockNoteService) ListFavorites(ctx context.Context, ownerID string) ([]*model.Note, error) {
	if m.listFavoritesFn != nil {
		return m.listFavoritesFn(ctx, ownerID)
	}
	return []*model.Note{}, nil
}

// tokenAuthenticator accepts "Bearer <user id>" for any id in users.
type tokenAuthenticator struct {
	users map[string]*model.User
}

func (a *tokenAuthenticator) Authenticate(ctx context.Context, token string) (*model.User, error) {
	if u, ok := a.users[token]; ok {
		return u, nil
	}
	return nil, model.NewUnauthorizedError(model.MsgTokenFailed)
}

type stubPinger struct{ err error }

func (p stubPinger) PingContext(context.Context) error { return p.err }
