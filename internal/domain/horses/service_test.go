package horses

import (
	"context"
	"errors"
	"testing"
	"time"

	"stable-sharing/internal/apperr"
	"stable-sharing/internal/ports/auth"
)

// -------------------------
// Test repo (in-memory)
// -------------------------

type testRepo struct {
	byID map[string]Horse
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Horse{}}
}

func (r *testRepo) Create(ctx context.Context, h Horse) error {
	if _, ok := r.byID[h.ID]; ok {
		return errors.New("repo: already exists")
	}
	r.byID[h.ID] = h
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Horse, error) {
	h, ok := r.byID[id]
	if !ok {
		return Horse{}, apperr.ErrNotFound
	}
	return h, nil
}

func (r *testRepo) ListByTenant(ctx context.Context, tenantID string) ([]Horse, error) {
	out := make([]Horse, 0)
	for _, h := range r.byID {
		if h.TenantID == tenantID {
			out = append(out, h)
		}
	}
	return out, nil
}

// -------------------------
// Tests
// -------------------------

func TestService_Create_NormalizesAndDefaultsSex(t *testing.T) {
	svc := NewService(newTestRepo())
	now := time.Date(2025, 12, 22, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	actor := auth.Actor{ID: "u1", TenantIDs: []string{"stable-a"}}
	h, err := svc.Create(context.Background(), actor, CreateInput{
		TenantID: " stable-a ",
		Name:     "  Luna ",
		Breed:    " Criollo ",
	})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	if h.ID == "" {
		t.Fatalf("expected id")
	}
	if h.TenantID != "stable-a" || h.Name != "Luna" || h.Breed != "Criollo" {
		t.Fatalf("fields not normalized: %+v", h)
	}
	if h.Sex != SexUnknown {
		t.Fatalf("expected sex unknown, got %s", h.Sex)
	}
	if !h.CreatedAt.Equal(now) || !h.UpdatedAt.Equal(now) {
		t.Fatalf("timestamps mismatch")
	}
}

func TestService_Create_RequiresMembership(t *testing.T) {
	svc := NewService(newTestRepo())
	actor := auth.Actor{ID: "u1", TenantIDs: []string{"stable-b"}}

	_, err := svc.Create(context.Background(), actor, CreateInput{TenantID: "stable-a", Name: "Luna"})
	if !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestService_Create_InvalidSex(t *testing.T) {
	svc := NewService(newTestRepo())
	actor := auth.Actor{ID: "u1", TenantIDs: []string{"stable-a"}}

	_, err := svc.Create(context.Background(), actor, CreateInput{TenantID: "stable-a", Name: "Luna", Sex: "colt"})
	if !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestService_Get_OtherTenantIsNotFound(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)
	repo.byID["h1"] = Horse{ID: "h1", TenantID: "stable-a", Name: "Luna"}

	outsider := auth.Actor{ID: "u2", TenantIDs: []string{"stable-b"}}
	if _, err := svc.Get(context.Background(), outsider, "h1"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	member := auth.Actor{ID: "u1", TenantIDs: []string{"stable-a"}}
	if _, err := svc.Get(context.Background(), member, "h1"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
}

func TestService_BelongsTo(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo)
	repo.byID["h1"] = Horse{ID: "h1", TenantID: "stable-a", Name: "Luna"}

	if _, err := svc.BelongsTo(context.Background(), "h1", "stable-a"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, err := svc.BelongsTo(context.Background(), "h1", "stable-b"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for transferred horse, got %v", err)
	}
	if _, err := svc.BelongsTo(context.Background(), "missing", "stable-a"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestIdentity_CopiesPublicFields(t *testing.T) {
	h := Horse{ID: "h1", Name: "Luna", Notes: "private"}
	id := h.Identity()
	if id.ID != "h1" || id.Name != "Luna" {
		t.Fatalf("identity mismatch: %+v", id)
	}
}
