package sharepacks

import (
	"context"
	"errors"
	"testing"
	"time"

	"stable-sharing/internal/apperr"
	"stable-sharing/internal/domain/scope"
	"stable-sharing/internal/ports/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRepo struct {
	byKey map[string]Pack // tenant|key
}

func newTestRepo() *testRepo {
	return &testRepo{byKey: map[string]Pack{}}
}

func k(tenantID, key string) string { return tenantID + "|" + key }

func (r *testRepo) Create(ctx context.Context, p Pack) error {
	r.byKey[k(p.TenantID, p.Key)] = p
	return nil
}

func (r *testRepo) Update(ctx context.Context, p Pack) error {
	if _, ok := r.byKey[k(p.TenantID, p.Key)]; !ok {
		return apperr.ErrNotFound
	}
	r.byKey[k(p.TenantID, p.Key)] = p
	return nil
}

func (r *testRepo) Get(ctx context.Context, tenantID, key string) (Pack, error) {
	p, ok := r.byKey[k(tenantID, key)]
	if !ok {
		return Pack{}, apperr.ErrNotFound
	}
	return p, nil
}

func (r *testRepo) ListByTenant(ctx context.Context, tenantID string) ([]Pack, error) {
	out := make([]Pack, 0)
	for _, p := range r.byKey {
		if p.TenantID == tenantID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *testRepo) Delete(ctx context.Context, tenantID, key string) error {
	if _, ok := r.byKey[k(tenantID, key)]; !ok {
		return apperr.ErrNotFound
	}
	delete(r.byKey, k(tenantID, key))
	return nil
}

type allowTenants map[string]bool

func (a allowTenants) CanManageSharing(ctx context.Context, actorID, tenantID string) (bool, error) {
	return a[tenantID], nil
}

var manager = auth.Actor{ID: "u1", TenantIDs: []string{"stable-a"}}

func TestDefaultSystemPacks_Seed(t *testing.T) {
	packs := DefaultSystemPacks()

	keys := []string{}
	for _, p := range packs {
		assert.True(t, p.IsSystem)
		assert.Empty(t, p.TenantID)
		keys = append(keys, p.Key)
	}
	assert.Equal(t, []string{"full-medical", "identity-only", "lab-only", "vet-lab", "vet-only"}, keys)
}

func TestParseSystemPacks_RejectsBadSeeds(t *testing.T) {
	_, err := ParseSystemPacks([]byte("packs: []"))
	assert.Error(t, err)

	_, err = ParseSystemPacks([]byte("packs:\n  - key: Bad Key\n    name: x\n"))
	assert.Error(t, err)

	_, err = ParseSystemPacks([]byte("packs:\n  - key: a1\n  - key: a1\n"))
	assert.Error(t, err)
}

func TestService_MostRestrictive_IsIdentityOnly(t *testing.T) {
	svc := NewService(newTestRepo(), allowTenants{}, nil)

	p := svc.MostRestrictive()
	assert.Equal(t, "identity-only", p.Key)
	assert.True(t, p.Scope.IsEmpty())
}

func TestService_MostRestrictive_TieBreaksByKey(t *testing.T) {
	svc := NewService(newTestRepo(), allowTenants{}, []Pack{
		{Key: "zz-lab", Scope: scope.Only(scope.CategoryLaboratory)},
		{Key: "aa-vet", Scope: scope.Only(scope.CategoryVeterinary)},
		{Key: "all", Scope: scope.Full()},
	})
	assert.Equal(t, "aa-vet", svc.MostRestrictive().Key)
}

func TestService_Resolve_TenantFirstThenSystem(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, allowTenants{"stable-a": true}, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, manager, CreateInput{
		TenantID: "stable-a", Key: "farrier", Name: "Farrier", Scope: scope.Only(scope.CategoryFiles),
	})
	require.NoError(t, err)

	p, err := svc.Resolve(ctx, "stable-a", "farrier")
	require.NoError(t, err)
	assert.True(t, p.Scope.Files)
	assert.False(t, p.IsSystem)

	p, err = svc.Resolve(ctx, "stable-a", "vet-only")
	require.NoError(t, err)
	assert.True(t, p.IsSystem)

	_, err = svc.Resolve(ctx, "stable-b", "farrier")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestService_Create_Validation(t *testing.T) {
	svc := NewService(newTestRepo(), allowTenants{"stable-a": true}, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, manager, CreateInput{TenantID: "stable-a", Key: "vet-only", Name: "x"})
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput), "system key is reserved")

	_, err = svc.Create(ctx, manager, CreateInput{TenantID: "stable-a", Key: "-x", Name: "x"})
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))

	windowed := scope.Full()
	later, earlier := mustDate("2025-05-01"), mustDate("2025-01-01")
	windowed.From, windowed.To = &later, &earlier
	_, err = svc.Create(ctx, manager, CreateInput{TenantID: "stable-a", Key: "windowed", Name: "x", Scope: windowed})
	assert.True(t, errors.Is(err, apperr.ErrInvalidDateRange))

	_, err = svc.Create(ctx, manager, CreateInput{TenantID: "stable-a", Key: "dup", Name: "x"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, manager, CreateInput{TenantID: "stable-a", Key: "dup", Name: "x"})
	assert.True(t, errors.Is(err, apperr.ErrInvalidState))
}

func TestService_Create_RequiresManager(t *testing.T) {
	svc := NewService(newTestRepo(), allowTenants{}, nil)

	_, err := svc.Create(context.Background(), manager, CreateInput{TenantID: "stable-a", Key: "x1", Name: "x"})
	assert.True(t, errors.Is(err, apperr.ErrUnauthorized))
}

func TestService_UpdateAndDelete(t *testing.T) {
	svc := NewService(newTestRepo(), allowTenants{"stable-a": true}, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, manager, CreateInput{TenantID: "stable-a", Key: "custom", Name: "Custom", Scope: scope.Full()})
	require.NoError(t, err)

	p, err := svc.Update(ctx, manager, "stable-a", "custom", UpdateInput{Name: "Narrow", Scope: scope.Only(scope.CategoryLaboratory)})
	require.NoError(t, err)
	assert.Equal(t, []scope.Category{scope.CategoryLaboratory}, p.Scope.Categories())

	_, err = svc.Update(ctx, manager, "stable-a", "vet-only", UpdateInput{Name: "x"})
	assert.True(t, errors.Is(err, apperr.ErrInvalidState))

	err = svc.Delete(ctx, manager, "stable-a", "vet-only")
	assert.True(t, errors.Is(err, apperr.ErrInvalidState))

	require.NoError(t, svc.Delete(ctx, manager, "stable-a", "custom"))
	_, err = svc.Resolve(ctx, "stable-a", "custom")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	err = svc.Delete(ctx, manager, "stable-a", "custom")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestService_KeysAreCaseInsensitive(t *testing.T) {
	svc := NewService(newTestRepo(), allowTenants{"stable-a": true}, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, manager, CreateInput{TenantID: "stable-a", Key: "Vet-2025", Name: "Vet", Scope: scope.Full()})
	require.NoError(t, err)
	assert.Equal(t, "vet-2025", created.Key)

	p, err := svc.Update(ctx, manager, "stable-a", " VET-2025 ", UpdateInput{Name: "Vet", Scope: scope.Only(scope.CategoryVeterinary)})
	require.NoError(t, err)
	assert.Equal(t, "vet-2025", p.Key)

	p, err = svc.Resolve(ctx, "stable-a", "VET-2025")
	require.NoError(t, err)
	assert.Equal(t, []scope.Category{scope.CategoryVeterinary}, p.Scope.Categories())

	// los de sistema siguen protegidos con cualquier casing
	_, err = svc.Update(ctx, manager, "stable-a", "VET-ONLY", UpdateInput{Name: "x"})
	assert.True(t, errors.Is(err, apperr.ErrInvalidState))
	err = svc.Delete(ctx, manager, "stable-a", "Vet-Only")
	assert.True(t, errors.Is(err, apperr.ErrInvalidState))

	require.NoError(t, svc.Delete(ctx, manager, "stable-a", "VET-2025"))
	_, err = svc.Resolve(ctx, "stable-a", "vet-2025")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestService_List_SystemThenTenant(t *testing.T) {
	svc := NewService(newTestRepo(), allowTenants{"stable-a": true}, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, manager, CreateInput{TenantID: "stable-a", Key: "custom", Name: "Custom"})
	require.NoError(t, err)

	items, err := svc.List(ctx, manager, "stable-a")
	require.NoError(t, err)
	require.Len(t, items, 6)
	assert.Equal(t, "custom", items[5].Key)

	_, err = svc.List(ctx, auth.Actor{ID: "u2", TenantIDs: []string{"stable-b"}}, "stable-a")
	assert.True(t, errors.Is(err, apperr.ErrUnauthorized))
}

func mustDate(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}
