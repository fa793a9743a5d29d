package plansfeatures

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_AllowAllSkipsUpstream(t *testing.T) {
	r := NewResolver(nil, true)
	ok, err := r.CanManageSharing(context.Background(), "u-1", "t-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestResolver_NotConfigured(t *testing.T) {
	c, err := NewClient(Config{})
	require.NoError(t, err)

	_, err = NewResolver(c, false).CanManageSharing(context.Background(), "u-1", "t-1")
	assert.ErrorIs(t, err, ErrPlansNotConfigured)
}

func TestResolver_AsksUpstreamPerTenant(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/capabilities", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
		allowed := r.URL.Query().Get("tenant_id") == "t-1"
		_ = json.NewEncoder(w).Encode(CapabilitiesResponse{
			Capabilities: map[string]bool{"sharing:manage": allowed},
		})
	}))
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL, APIKey: "secret"})
	require.NoError(t, err)
	r := NewResolver(c, false)

	ok, err := r.CanManageSharing(context.Background(), "u-1", "t-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.CanManageSharing(context.Background(), "u-1", "t-2")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResolver_UpstreamErrors(t *testing.T) {
	status := http.StatusForbidden
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL, APIKey: "secret"})
	require.NoError(t, err)
	r := NewResolver(c, false)

	_, err = r.CanManageSharing(context.Background(), "u-1", "t-1")
	assert.ErrorIs(t, err, ErrPlansUnauthorized)

	status = http.StatusBadGateway
	_, err = r.CanManageSharing(context.Background(), "u-1", "t-1")
	assert.ErrorIs(t, err, ErrPlansUpstream)
}
