// Package config carga la configuración del servicio desde flags, env y un
// archivo YAML opcional (en ese orden de prioridad).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "STABLE_SHARING"

type AuthMode string

const (
	AuthModeDev  AuthMode = "dev"  // X-Debug-User-ID / X-Debug-Tenant-IDs
	AuthModeJWT  AuthMode = "jwt"  // HS256 local
	AuthModeOdin AuthMode = "odin" // verificación remota
)

type Config struct {
	Port           int
	DBDSN          string
	MigrateOnStart bool

	LogLevel  string
	LogFormat string
	AppName   string

	AuthMode     AuthMode
	JWTSecret    string
	JWTIssuer    string
	OdinBaseURL  string
	OdinAPIKey   string
	OdinCacheTTL time.Duration
	PlansBaseURL string
	PlansAPIKey  string
	AllowAll     bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisChannel  string

	ResolveTimeout time.Duration
	TaskWorkers    int
	TaskBuffer     int
	TaskTimeout    time.Duration

	PresetsFile   string
	PublicBaseURL string

	// TenantKinds alimenta el directorio in-memory (tenant id -> kind).
	TenantKinds map[string]string
}

// Addr para http.Server.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func defaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.migrate", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("app.name", "stable-sharing")
	v.SetDefault("auth.mode", string(AuthModeDev))
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.jwt_issuer", "")
	v.SetDefault("odin.base_url", "")
	v.SetDefault("odin.api_key", "")
	v.SetDefault("odin.cache_ttl", "0s")
	v.SetDefault("plans.base_url", "")
	v.SetDefault("plans.api_key", "")
	v.SetDefault("capabilities.allow_all", false)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.channel", "sharing.events")
	v.SetDefault("sharing.resolve_timeout", "3s")
	v.SetDefault("tasks.workers", 2)
	v.SetDefault("tasks.buffer", 256)
	v.SetDefault("tasks.timeout", "10s")
	v.SetDefault("sharing.presets_file", "")
	v.SetDefault("sharing.public_base_url", "")
}

// Load lee args (sin el nombre del binario). Variables de entorno:
// STABLE_SHARING_DB_DSN, STABLE_SHARING_AUTH_MODE, ... (puntos -> guiones bajos).
// Por compatibilidad se aceptan PORT, DB_DSN, LOG_LEVEL, LOG_FORMAT, APP_NAME y
// ALLOW_ALL_CAPABILITIES sin prefijo.
func Load(args []string) (Config, error) {
	v := viper.New()
	defaults(v)

	fs := pflag.NewFlagSet("stable-sharing", pflag.ContinueOnError)
	fs.String("config", "", "ruta a archivo YAML de configuración")
	fs.Int("port", 8080, "puerto HTTP")
	fs.String("db-dsn", "", "DSN de Postgres (vacío = in-memory)")
	fs.String("auth-mode", string(AuthModeDev), "dev|jwt|odin")
	fs.String("log-level", "info", "debug|info|warn|error")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	_ = v.BindPFlag("port", fs.Lookup("port"))
	_ = v.BindPFlag("db.dsn", fs.Lookup("db-dsn"))
	_ = v.BindPFlag("auth.mode", fs.Lookup("auth-mode"))
	_ = v.BindPFlag("log.level", fs.Lookup("log-level"))

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Legacy sin prefijo
	_ = v.BindEnv("port", EnvPrefix+"_PORT", "PORT")
	_ = v.BindEnv("db.dsn", EnvPrefix+"_DB_DSN", "DB_DSN")
	_ = v.BindEnv("log.level", EnvPrefix+"_LOG_LEVEL", "LOG_LEVEL")
	_ = v.BindEnv("log.format", EnvPrefix+"_LOG_FORMAT", "LOG_FORMAT")
	_ = v.BindEnv("app.name", EnvPrefix+"_APP_NAME", "APP_NAME")
	_ = v.BindEnv("capabilities.allow_all", EnvPrefix+"_CAPABILITIES_ALLOW_ALL", "ALLOW_ALL_CAPABILITIES")

	if path, _ := fs.GetString("config"); strings.TrimSpace(path) != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	cfg := Config{
		Port:           v.GetInt("port"),
		DBDSN:          strings.TrimSpace(v.GetString("db.dsn")),
		MigrateOnStart: v.GetBool("db.migrate"),
		LogLevel:       v.GetString("log.level"),
		LogFormat:      v.GetString("log.format"),
		AppName:        v.GetString("app.name"),
		AuthMode:       AuthMode(strings.ToLower(strings.TrimSpace(v.GetString("auth.mode")))),
		JWTSecret:      v.GetString("auth.jwt_secret"),
		JWTIssuer:      v.GetString("auth.jwt_issuer"),
		OdinBaseURL:    v.GetString("odin.base_url"),
		OdinAPIKey:     v.GetString("odin.api_key"),
		OdinCacheTTL:   v.GetDuration("odin.cache_ttl"),
		PlansBaseURL:   v.GetString("plans.base_url"),
		PlansAPIKey:    v.GetString("plans.api_key"),
		AllowAll:       v.GetBool("capabilities.allow_all"),
		RedisAddr:      strings.TrimSpace(v.GetString("redis.addr")),
		RedisPassword:  v.GetString("redis.password"),
		RedisDB:        v.GetInt("redis.db"),
		RedisChannel:   v.GetString("redis.channel"),
		ResolveTimeout: v.GetDuration("sharing.resolve_timeout"),
		TaskWorkers:    v.GetInt("tasks.workers"),
		TaskBuffer:     v.GetInt("tasks.buffer"),
		TaskTimeout:    v.GetDuration("tasks.timeout"),
		PresetsFile:    v.GetString("sharing.presets_file"),
		PublicBaseURL:  strings.TrimRight(v.GetString("sharing.public_base_url"), "/"),
		TenantKinds:    v.GetStringMapString("tenants.kinds"),
	}

	return cfg, cfg.Validate()
}

// Validate chequea combinaciones inválidas.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: invalid port %d", c.Port)
	}
	switch c.AuthMode {
	case AuthModeDev:
	case AuthModeJWT:
		if len(c.JWTSecret) < 32 {
			return fmt.Errorf("config: auth.jwt_secret must be at least 32 bytes in jwt mode")
		}
	case AuthModeOdin:
		if c.OdinBaseURL == "" || c.OdinAPIKey == "" {
			return fmt.Errorf("config: odin.base_url and odin.api_key are required in odin mode")
		}
	default:
		return fmt.Errorf("config: unknown auth.mode %q", c.AuthMode)
	}
	if c.ResolveTimeout <= 0 {
		return fmt.Errorf("config: sharing.resolve_timeout must be positive")
	}
	return nil
}
