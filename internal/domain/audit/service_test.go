package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"stable-sharing/internal/apperr"
	"stable-sharing/internal/domain/scope"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRepo struct {
	entries []Entry
	err     error
}

func (r *testRepo) Append(ctx context.Context, e Entry) error {
	if r.err != nil {
		return r.err
	}
	r.entries = append(r.entries, e)
	return nil
}

func (r *testRepo) ListByShare(ctx context.Context, shareID string) ([]Entry, error) {
	out := make([]Entry, 0)
	for _, e := range r.entries {
		if e.ShareID == shareID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *testRepo) ListByConnection(ctx context.Context, connectionID string) ([]Entry, error) {
	out := make([]Entry, 0)
	for _, e := range r.entries {
		if e.ConnectionID == connectionID {
			out = append(out, e)
		}
	}
	return out, nil
}

func TestService_Record_FillsIDAndTime(t *testing.T) {
	repo := &testRepo{}
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	svc := NewService(repo).WithClock(func() time.Time { return now })

	sc := scope.Only(scope.CategoryVeterinary)
	require.NoError(t, svc.Record(context.Background(), Entry{
		ShareID: "s1", Actor: "anonymous", Kind: KindAccessed, Scope: &sc,
	}))

	require.Len(t, repo.entries, 1)
	got := repo.entries[0]
	assert.NotEmpty(t, got.ID)
	assert.Equal(t, now, got.At)
	require.NotNil(t, got.Scope)
	assert.True(t, got.Scope.Veterinary)

	// el snapshot es una copia
	sc.Laboratory = true
	assert.False(t, repo.entries[0].Scope.Laboratory)
}

func TestService_Record_ExactlyOneTarget(t *testing.T) {
	svc := NewService(&testRepo{})
	ctx := context.Background()

	err := svc.Record(ctx, Entry{Actor: "u1", Kind: KindCreated})
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))

	err = svc.Record(ctx, Entry{ShareID: "s1", ConnectionID: "c1", Actor: "u1", Kind: KindCreated})
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))

	err = svc.Record(ctx, Entry{ShareID: "s1", GrantID: "g1", Actor: "u1", Kind: KindCreated})
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))
}

func TestService_Record_RejectsUnknownKindAndMissingActor(t *testing.T) {
	svc := NewService(&testRepo{})
	ctx := context.Background()

	err := svc.Record(ctx, Entry{ShareID: "s1", Actor: "u1", Kind: "deleted"})
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))

	err = svc.Record(ctx, Entry{ShareID: "s1", Kind: KindAccessed})
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))
}

func TestService_Record_StoreTimeoutIsUnavailable(t *testing.T) {
	svc := NewService(&testRepo{err: context.DeadlineExceeded})

	err := svc.Record(context.Background(), Entry{ConnectionID: "c1", Actor: "u1", Kind: KindAccepted})
	assert.True(t, errors.Is(err, apperr.ErrUnavailable))
}

func TestService_ListBy(t *testing.T) {
	repo := &testRepo{}
	svc := NewService(repo)
	ctx := context.Background()

	require.NoError(t, svc.Record(ctx, Entry{ShareID: "s1", Actor: "u1", Kind: KindCreated}))
	require.NoError(t, svc.Record(ctx, Entry{ConnectionID: "c1", GrantID: "g1", Actor: "u1", Kind: KindCreated}))

	byShare, err := svc.ListByShare(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, byShare, 1)

	byConn, err := svc.ListByConnection(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, byConn, 1)
	assert.Equal(t, "g1", byConn[0].GrantID)
}
