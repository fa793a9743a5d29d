package consents

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"stable-sharing/internal/apperr"
	"stable-sharing/internal/domain/audit"
	"stable-sharing/internal/domain/connections"
	"stable-sharing/internal/domain/scope"
	"stable-sharing/internal/platform/tasks"
	"stable-sharing/internal/ports/auth"
	"stable-sharing/internal/ports/notify"
	"stable-sharing/internal/ports/tenants"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -------------------------
// Fakes
// -------------------------

type testRepo struct {
	mu   sync.Mutex
	byID map[string]Grant
	// writes cuenta escrituras sobre filas existentes
	writes int
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Grant{}}
}

func (r *testRepo) Create(ctx context.Context, g Grant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[g.ID] = g
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Grant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.byID[id]
	if !ok {
		return Grant{}, apperr.ErrNotFound
	}
	return g, nil
}

func (r *testRepo) ListByConnection(ctx context.Context, connectionID string) ([]Grant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Grant, 0)
	for _, g := range r.byID {
		if g.ConnectionID == connectionID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *testRepo) Revoke(ctx context.Context, id, by string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.byID[id]
	if !ok {
		return apperr.ErrNotFound
	}
	if g.State != StateActive {
		return apperr.ErrInvalidState
	}
	g.State, g.RevokedBy, g.RevokedAt = StateRevoked, by, &at
	r.byID[id] = g
	r.writes++
	return nil
}

type testConns map[string]connections.Connection

func (c testConns) GetByID(ctx context.Context, id string) (connections.Connection, error) {
	v, ok := c[id]
	if !ok {
		return connections.Connection{}, apperr.Wrap(apperr.ErrNotFound, "connection %s", id)
	}
	return v, nil
}

type testAudit struct {
	entries []audit.Entry
}

func (a *testAudit) Record(ctx context.Context, e audit.Entry) error {
	a.entries = append(a.entries, e)
	return nil
}

type allowTenants map[string]bool

func (a allowTenants) CanManageSharing(ctx context.Context, actorID, tenantID string) (bool, error) {
	return a[tenantID], nil
}

type testNotifier struct {
	kinds []notify.EventKind
}

func (n *testNotifier) Notify(ctx context.Context, e notify.Event) error {
	n.kinds = append(n.kinds, e.Kind)
	return nil
}

type fixture struct {
	svc      *Service
	repo     *testRepo
	conns    testConns
	audit    *testAudit
	notifier *testNotifier
	now      time.Time
}

func newFixture() *fixture {
	f := &fixture{
		repo: newTestRepo(),
		conns: testConns{
			"c-acc":  {ID: "c-acc", InitiatorTenantID: "A", RecipientTenantID: "B", State: connections.StateAccepted},
			"c-pend": {ID: "c-pend", InitiatorTenantID: "A", RecipientTenantID: "B", State: connections.StatePending},
			"c-rej":  {ID: "c-rej", InitiatorTenantID: "A", RecipientTenantID: "B", State: connections.StateRejected},
		},
		audit:    &testAudit{},
		notifier: &testNotifier{},
		now:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	f.svc = NewService(Deps{
		Repo:        f.repo,
		Connections: f.conns,
		Caps:        allowTenants{"A": true, "B": true},
		Audit:       f.audit,
		Tasks:       tasks.Inline{},
		Notifier:    f.notifier,
	}).WithClock(func() time.Time { return f.now })
	return f
}

var (
	managerA = auth.Actor{ID: "ua", TenantIDs: []string{"A"}}
	managerB = auth.Actor{ID: "ub", TenantIDs: []string{"B"}}
	outsider = auth.Actor{ID: "ux", TenantIDs: []string{"X"}}
)

func ptr(t time.Time) *time.Time { return &t }

// -------------------------
// IsGrantEffective
// -------------------------

func TestIsGrantEffective(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	conn := connections.Connection{ID: "c1", State: connections.StateAccepted}
	active := Grant{ID: "g1", ConnectionID: "c1", State: StateActive}

	cases := []struct {
		name string
		g    Grant
		c    connections.Connection
		want bool
	}{
		{"active under accepted", active, conn, true},
		{"revoked grant", Grant{ID: "g1", ConnectionID: "c1", State: StateRevoked}, conn, false},
		{"connection revoked", active, connections.Connection{ID: "c1", State: connections.StateRevoked}, false},
		{"connection pending", active, connections.Connection{ID: "c1", State: connections.StatePending}, false},
		{"other connection", active, connections.Connection{ID: "c2", State: connections.StateAccepted}, false},
		{"before window", Grant{ID: "g1", ConnectionID: "c1", State: StateActive, From: ptr(now.Add(time.Hour))}, conn, false},
		{"after window", Grant{ID: "g1", ConnectionID: "c1", State: StateActive, To: ptr(now.AddDate(0, 0, -1))}, conn, false},
		{"last day of window", Grant{ID: "g1", ConnectionID: "c1", State: StateActive, To: ptr(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))}, conn, true},
		{"inside window", Grant{ID: "g1", ConnectionID: "c1", State: StateActive, From: ptr(now.AddDate(0, -1, 0)), To: ptr(now.AddDate(0, 1, 0))}, conn, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsGrantEffective(tc.g, tc.c, now))
		})
	}
}

// -------------------------
// Create
// -------------------------

func TestService_Create(t *testing.T) {
	f := newFixture()

	g, err := f.svc.Create(context.Background(), managerA, "c-acc", CreateInput{
		ResourceType: scope.CategoryLaboratory,
		From:         ptr(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)),
		ForwardOnly:  true,
	})
	require.NoError(t, err)

	assert.Equal(t, "A", g.GrantorTenantID)
	assert.Equal(t, "B", g.GranteeTenantID)
	assert.Equal(t, AccessRead, g.AccessLevel)
	assert.Equal(t, StateActive, g.State)
	assert.True(t, g.ForwardOnly)
	assert.False(t, g.FromPreset)

	require.Len(t, f.audit.entries, 1)
	e := f.audit.entries[0]
	assert.Equal(t, "c-acc", e.ConnectionID)
	assert.Equal(t, g.ID, e.GrantID)
	require.NotNil(t, e.Scope)
	assert.Equal(t, []scope.Category{scope.CategoryLaboratory}, e.Scope.Categories())
	assert.Equal(t, []notify.EventKind{notify.EventGrantCreated}, f.notifier.kinds)
}

func TestService_Create_RequiresAcceptedConnection(t *testing.T) {
	f := newFixture()

	for _, id := range []string{"c-pend", "c-rej"} {
		_, err := f.svc.Create(context.Background(), managerB, id, CreateInput{ResourceType: scope.CategoryVeterinary})
		assert.True(t, errors.Is(err, apperr.ErrConnectionNotAccepted), id)
		assert.True(t, errors.Is(err, apperr.ErrInvalidState), id)
	}
	assert.Empty(t, f.repo.byID)
	assert.Empty(t, f.audit.entries)
}

func TestService_Create_Validation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Create(ctx, managerA, "c-acc", CreateInput{ResourceType: "dental"})
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))

	_, err = f.svc.Create(ctx, managerA, "c-acc", CreateInput{ResourceType: scope.CategoryFiles, AccessLevel: "admin"})
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))

	_, err = f.svc.Create(ctx, managerA, "c-acc", CreateInput{
		ResourceType: scope.CategoryFiles,
		From:         ptr(f.now),
		To:           ptr(f.now.AddDate(0, 0, -2)),
	})
	assert.True(t, errors.Is(err, apperr.ErrInvalidDateRange))

	_, err = f.svc.Create(ctx, outsider, "c-acc", CreateInput{ResourceType: scope.CategoryFiles})
	assert.True(t, errors.Is(err, apperr.ErrUnauthorized))

	_, err = f.svc.Create(ctx, managerA, "c-acc", CreateInput{GrantorTenantID: "B", ResourceType: scope.CategoryFiles})
	assert.True(t, errors.Is(err, apperr.ErrUnauthorized), "cannot grant on behalf of the other party")

	_, err = f.svc.Create(ctx, managerA, "missing", CreateInput{ResourceType: scope.CategoryFiles})
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

// -------------------------
// Revoke and cascade
// -------------------------

func TestService_Revoke_GrantorOnlyAndIdempotent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	g, err := f.svc.Create(ctx, managerA, "c-acc", CreateInput{ResourceType: scope.CategoryVeterinary})
	require.NoError(t, err)

	_, err = f.svc.Revoke(ctx, managerB, g.ID)
	assert.True(t, errors.Is(err, apperr.ErrUnauthorized), "grantee cannot revoke")

	revoked, err := f.svc.Revoke(ctx, managerA, g.ID)
	require.NoError(t, err)
	assert.Equal(t, StateRevoked, revoked.State)

	_, err = f.svc.Revoke(ctx, managerA, g.ID)
	require.NoError(t, err)

	revokes := 0
	for _, e := range f.audit.entries {
		if e.Kind == audit.KindRevoked {
			revokes++
		}
	}
	assert.Equal(t, 1, revokes)

	res, err := f.svc.Effective(ctx, g.ID)
	require.NoError(t, err)
	assert.False(t, res.Effective)
}

func TestService_Effective_CascadesFromConnectionWithoutWrites(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	g, err := f.svc.Create(ctx, managerA, "c-acc", CreateInput{ResourceType: scope.CategoryVeterinary})
	require.NoError(t, err)

	res, err := f.svc.Effective(ctx, g.ID)
	require.NoError(t, err)
	assert.True(t, res.Effective)

	c := f.conns["c-acc"]
	c.State = connections.StateRevoked
	f.conns["c-acc"] = c

	res, err = f.svc.Effective(ctx, g.ID)
	require.NoError(t, err)
	assert.False(t, res.Effective)
	assert.Equal(t, StateActive, f.repo.byID[g.ID].State)
	assert.Zero(t, f.repo.writes)
}

func TestService_EffectiveFor_And_List(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	g, err := f.svc.Create(ctx, managerA, "c-acc", CreateInput{ResourceType: scope.CategoryVeterinary})
	require.NoError(t, err)

	_, err = f.svc.EffectiveFor(ctx, managerB, g.ID)
	require.NoError(t, err)
	_, err = f.svc.EffectiveFor(ctx, outsider, g.ID)
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	items, err := f.svc.ListByConnection(ctx, managerB, "c-acc")
	require.NoError(t, err)
	assert.Len(t, items, 1)
	_, err = f.svc.ListByConnection(ctx, outsider, "c-acc")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

// -------------------------
// Presets
// -------------------------

type testDirectory map[string]tenants.Kind

func (d testDirectory) KindOf(ctx context.Context, tenantID string) (tenants.Kind, error) {
	k, ok := d[tenantID]
	if !ok {
		return "", apperr.ErrNotFound
	}
	return k, nil
}

func TestDefaultPresets_Pairs(t *testing.T) {
	p := DefaultPresets()
	assert.Equal(t, []string{"breeder/stable", "laboratory/stable", "laboratory/vet_clinic", "stable/vet_clinic"}, p.Pairs())

	// el orden del par no importa
	assert.Equal(t, p.PresetsFor(tenants.KindStable, tenants.KindLaboratory), p.PresetsFor(tenants.KindLaboratory, tenants.KindStable))
	assert.Empty(t, p.PresetsFor(tenants.KindIndividual, tenants.KindStable))
}

func TestParsePresets_Errors(t *testing.T) {
	_, err := ParsePresets([]byte("pairs:\n  - kinds: [stable]\n"))
	assert.Error(t, err)

	_, err = ParsePresets([]byte("pairs:\n  - kinds: [stable, laboratory]\n    grants:\n      - grantor: breeder\n        resource: veterinary\n"))
	assert.Error(t, err)

	_, err = ParsePresets([]byte("pairs:\n  - kinds: [stable, laboratory]\n    grants:\n      - grantor: stable\n        resource: dental\n"))
	assert.Error(t, err)

	_, err = ParsePresets([]byte("pairs:\n  - kinds: [stable, laboratory]\n  - kinds: [laboratory, stable]\n"))
	assert.Error(t, err)
}

func TestPresetApplier_SeedsGrantsFromPolicy(t *testing.T) {
	f := newFixture()
	applier := NewPresetApplier(f.svc, testDirectory{"A": tenants.KindLaboratory, "B": tenants.KindStable}, DefaultPresets(), nil)

	require.NoError(t, applier.ApplyPresets(context.Background(), f.conns["c-acc"]))

	items, err := f.svc.ListByConnection(context.Background(), managerA, "c-acc")
	require.NoError(t, err)
	require.Len(t, items, 2)

	byGrantor := map[string]Grant{}
	for _, g := range items {
		assert.True(t, g.FromPreset)
		assert.Equal(t, PresetActor, g.CreatedBy)
		byGrantor[g.GrantorTenantID] = g
	}
	assert.Equal(t, scope.CategoryLaboratory, byGrantor["A"].ResourceType)
	assert.Equal(t, "B", byGrantor["A"].GranteeTenantID)
	assert.Equal(t, scope.CategoryVeterinary, byGrantor["B"].ResourceType)
	assert.True(t, byGrantor["B"].ForwardOnly)
}

func TestPresetApplier_SameKindAppliesBothWays(t *testing.T) {
	f := newFixture()
	policy, err := ParsePresets([]byte("pairs:\n  - kinds: [stable, stable]\n    grants:\n      - grantor: stable\n        resource: veterinary\n"))
	require.NoError(t, err)
	applier := NewPresetApplier(f.svc, testDirectory{"A": tenants.KindStable, "B": tenants.KindStable}, policy, nil)

	require.NoError(t, applier.ApplyPresets(context.Background(), f.conns["c-acc"]))
	items, err := f.svc.ListByConnection(context.Background(), managerA, "c-acc")
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestPresetApplier_SkipsWhenNotAccepted(t *testing.T) {
	f := newFixture()
	applier := NewPresetApplier(f.svc, testDirectory{"A": tenants.KindLaboratory, "B": tenants.KindStable}, DefaultPresets(), nil)

	// el snapshot dice accepted, pero el store ya no
	snapshot := f.conns["c-pend"]
	snapshot.State = connections.StateAccepted
	require.NoError(t, applier.ApplyPresets(context.Background(), snapshot))
	assert.Empty(t, f.repo.byID)
}

func TestPresetApplier_UnknownTenantKindIsAnError(t *testing.T) {
	f := newFixture()
	applier := NewPresetApplier(f.svc, testDirectory{"A": tenants.KindLaboratory}, DefaultPresets(), nil)

	err := applier.ApplyPresets(context.Background(), f.conns["c-acc"])
	assert.Error(t, err)
	assert.Empty(t, f.repo.byID)
}
