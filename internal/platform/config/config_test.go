package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, AuthModeDev, cfg.AuthMode)
	assert.Equal(t, 3*time.Second, cfg.ResolveTimeout)
	assert.Equal(t, "sharing.events", cfg.RedisChannel)
	assert.Equal(t, ":8080", cfg.Addr())
}

func TestLoad_EnvAndFlags(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STABLE_SHARING_SHARING_RESOLVE_TIMEOUT", "750ms")
	t.Setenv("ALLOW_ALL_CAPABILITIES", "true")

	cfg, err := Load([]string{"--log-level", "debug"})
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 750*time.Millisecond, cfg.ResolveTimeout)
	assert.True(t, cfg.AllowAll)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	raw := "redis:\n  addr: localhost:6379\ntasks:\n  workers: 4\ntenants:\n  kinds:\n    t-lab: laboratory\n"
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	cfg, err := Load([]string{"--config", path})
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 4, cfg.TaskWorkers)
	assert.Equal(t, "laboratory", cfg.TenantKinds["t-lab"])
}

func TestValidate_JWTNeedsSecret(t *testing.T) {
	t.Setenv("STABLE_SHARING_AUTH_MODE", "jwt")
	_, err := Load(nil)
	require.Error(t, err)
}
