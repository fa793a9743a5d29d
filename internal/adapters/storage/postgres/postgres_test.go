package postgres

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"stable-sharing/internal/apperr"
	"stable-sharing/internal/domain/audit"
	"stable-sharing/internal/domain/connections"
	"stable-sharing/internal/domain/consents"
	"stable-sharing/internal/domain/horses"
	"stable-sharing/internal/domain/records"
	"stable-sharing/internal/domain/scope"
	"stable-sharing/internal/domain/sharepacks"
	"stable-sharing/internal/domain/shares"
	"stable-sharing/internal/ports/tenants"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB levanta Postgres en Docker y aplica las migraciones.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("skipping integration test: TEST_INTEGRATION not set")
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"docker.io/postgres:17-alpine",
		tcpostgres.WithDatabase("sharing_test"),
		tcpostgres.WithUsername("sharing"),
		tcpostgres.WithPassword("test-password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	version, err := Migrate(dsn)
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)

	// segunda corrida: no-op
	_, err = Migrate(dsn)
	require.NoError(t, err)

	db, err := Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func seedHorse(t *testing.T, db *sql.DB, id, tenantID string) {
	t.Helper()
	require.NoError(t, NewHorsesRepo(db).Create(context.Background(), horses.Horse{
		ID: id, TenantID: tenantID, Name: "Tormenta", Sex: horses.SexMare,
		CreatedAt: t0, UpdatedAt: t0,
	}))
}

func TestPostgres_Repositories(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	t.Run("horses and records", func(t *testing.T) {
		seedHorse(t, db, "h-1", "t-a")
		hr := NewHorsesRepo(db)

		h, err := hr.GetByID(ctx, "h-1")
		require.NoError(t, err)
		assert.Equal(t, "t-a", h.TenantID)

		_, err = hr.GetByID(ctx, "missing")
		assert.ErrorIs(t, err, apperr.ErrNotFound)

		rr := NewRecordsRepo(db)
		mk := func(id string, cat scope.Category, at time.Time) records.Record {
			return records.Record{
				ID: id, HorseID: "h-1", TenantID: "t-a", Category: cat, OccurredAt: at, RecordedAt: at,
				Title: id, CreatedBy: "u-1", Status: records.StatusActive,
			}
		}
		require.NoError(t, rr.Create(ctx, mk("r-old", scope.CategoryVeterinary, t0.AddDate(0, -2, 0))))
		require.NoError(t, rr.Create(ctx, mk("r-new", scope.CategoryVeterinary, t0)))
		require.NoError(t, rr.Create(ctx, mk("r-lab", scope.CategoryLaboratory, t0)))
		require.NoError(t, rr.Create(ctx, mk("r-void", scope.CategoryVeterinary, t0)))
		require.NoError(t, rr.Void(ctx, "r-void"))

		from := t0.AddDate(0, -1, 0)
		got, err := rr.ListByHorse(ctx, "h-1", records.Filter{
			Categories: []scope.Category{scope.CategoryVeterinary},
			From:       &from,
		})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "r-new", got[0].ID)
	})

	t.Run("shares transition is compare-and-set", func(t *testing.T) {
		seedHorse(t, db, "h-2", "t-a")
		sr := NewSharesRepo(db)
		sc := scope.Only(scope.CategoryVeterinary)
		require.NoError(t, sr.Create(ctx, shares.Share{
			ID: "s-1", TenantID: "t-a", HorseID: "h-2", TokenDigest: "d-1",
			Scope: &sc, State: shares.StateActive, CreatedBy: "u-1", CreatedAt: t0,
		}))

		got, err := sr.GetByDigest(ctx, "d-1")
		require.NoError(t, err)
		require.NotNil(t, got.Scope)
		assert.True(t, got.Scope.Veterinary)
		assert.False(t, got.Scope.Laboratory)

		require.NoError(t, sr.Transition(ctx, "s-1", shares.StateActive, shares.StateRevoked, t0))
		err = sr.Transition(ctx, "s-1", shares.StateActive, shares.StateRevoked, t0)
		assert.ErrorIs(t, err, apperr.ErrInvalidState)
		err = sr.Transition(ctx, "nope", shares.StateActive, shares.StateRevoked, t0)
		assert.ErrorIs(t, err, apperr.ErrNotFound)

		got, err = sr.GetByID(ctx, "s-1")
		require.NoError(t, err)
		assert.Equal(t, shares.StateRevoked, got.State)
		require.NotNil(t, got.RevokedAt)
	})

	t.Run("packs", func(t *testing.T) {
		pr := NewSharePacksRepo(db)
		p := sharepacks.Pack{TenantID: "t-a", Key: "vet-2025", Name: "Vet", Scope: scope.Only(scope.CategoryVeterinary), CreatedAt: t0, UpdatedAt: t0}
		require.NoError(t, pr.Create(ctx, p))
		assert.ErrorIs(t, pr.Create(ctx, p), apperr.ErrInvalidState)

		p.Scope = scope.Only(scope.CategoryLaboratory)
		require.NoError(t, pr.Update(ctx, p))
		got, err := pr.Get(ctx, "t-a", "vet-2025")
		require.NoError(t, err)
		assert.True(t, got.Scope.Laboratory)

		require.NoError(t, pr.Delete(ctx, "t-a", "vet-2025"))
		assert.ErrorIs(t, pr.Delete(ctx, "t-a", "vet-2025"), apperr.ErrNotFound)
	})

	t.Run("connections unique active and grants", func(t *testing.T) {
		cr := NewConnectionsRepo(db)
		c := connections.Connection{
			ID: "c-1", InitiatorTenantID: "t-a", RecipientTenantID: "t-b", Type: connections.DefaultType,
			TokenDigest: "cd-1", State: connections.StatePending, CreatedBy: "u-1", CreatedAt: t0,
		}
		require.NoError(t, cr.Create(ctx, c))

		dup := c
		dup.ID, dup.TokenDigest = "c-2", "cd-2"
		assert.ErrorIs(t, cr.Create(ctx, dup), apperr.ErrDuplicateActive)

		// invitación externa que al aceptar choca con c-1
		ext := connections.Connection{
			ID: "c-3", InitiatorTenantID: "t-a", RecipientEmail: "lab@example.com", Type: connections.DefaultType,
			TokenDigest: "cd-3", State: connections.StatePending, CreatedBy: "u-1", CreatedAt: t0,
		}
		require.NoError(t, cr.Create(ctx, ext))

		extDup := ext
		extDup.ID, extDup.TokenDigest, extDup.RecipientEmail = "c-4", "cd-4", "LAB@example.com"
		assert.ErrorIs(t, cr.Create(ctx, extDup), apperr.ErrDuplicateActive)

		err := cr.Transition(ctx, "c-3", connections.StatePending, connections.StateAccepted,
			connections.Change{At: t0, By: "u-2", RecipientTenantID: "t-b"})
		assert.ErrorIs(t, err, apperr.ErrDuplicateActive)

		require.NoError(t, cr.Transition(ctx, "c-1", connections.StatePending, connections.StateAccepted,
			connections.Change{At: t0, By: "u-2"}))
		err = cr.Transition(ctx, "c-1", connections.StatePending, connections.StateRejected, connections.Change{At: t0})
		assert.ErrorIs(t, err, apperr.ErrInvalidState)

		list, err := cr.ListByTenant(ctx, "t-b")
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, connections.StateAccepted, list[0].State)

		gr := NewGrantsRepo(db)
		require.NoError(t, gr.Create(ctx, consents.Grant{
			ID: "g-1", ConnectionID: "c-1", GrantorTenantID: "t-a", GranteeTenantID: "t-b",
			ResourceType: scope.CategoryLaboratory, AccessLevel: consents.AccessRead,
			State: consents.StateActive, CreatedBy: "u-1", CreatedAt: t0,
		}))
		require.NoError(t, gr.Revoke(ctx, "g-1", "u-1", t0))
		assert.ErrorIs(t, gr.Revoke(ctx, "g-1", "u-1", t0), apperr.ErrInvalidState)

		g, err := gr.GetByID(ctx, "g-1")
		require.NoError(t, err)
		assert.Equal(t, consents.StateRevoked, g.State)
		assert.Equal(t, "u-1", g.RevokedBy)
	})

	t.Run("audit keeps insertion order", func(t *testing.T) {
		ar := NewAuditRepo(db)
		sc := scope.Only(scope.CategoryVeterinary)
		for i, k := range []audit.Kind{audit.KindCreated, audit.KindAccessed, audit.KindRevoked} {
			require.NoError(t, ar.Append(ctx, audit.Entry{
				ID: "a-" + string(k), ShareID: "s-audit", Actor: "u-1", Kind: k,
				At: t0.Add(time.Duration(i) * time.Second), Scope: &sc,
			}))
		}
		// exactly-one-of lo refuerza también la base
		err := ar.Append(ctx, audit.Entry{ID: "a-bad", ShareID: "s", ConnectionID: "c", Actor: "u", Kind: audit.KindCreated, At: t0})
		require.Error(t, err)

		got, err := ar.ListByShare(ctx, "s-audit")
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, audit.KindCreated, got[0].Kind)
		assert.Equal(t, audit.KindRevoked, got[2].Kind)
		require.NotNil(t, got[1].Scope)
		assert.True(t, got[1].Scope.Veterinary)
	})

	t.Run("tenants directory", func(t *testing.T) {
		tr := NewTenantsRepo(db)
		require.NoError(t, tr.Upsert(ctx, "t-lab", tenants.KindLaboratory))
		k, err := tr.KindOf(ctx, "t-lab")
		require.NoError(t, err)
		assert.Equal(t, tenants.KindLaboratory, k)

		_, err = tr.KindOf(ctx, "t-unknown")
		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}
