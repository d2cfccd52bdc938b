package appconfig

import (
	"crypto/rand"
	"encoding/hex"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultMongoURI     = "mongodb://localhost:27017/fasalneeti"
	DefaultDatabase     = "fasalneeti"
	DefaultPort         = "5000"
	DefaultGrpcPort     = "50051"
	DefaultAdminUser    = "admin"
	DefaultTokenTTL     = 24 * time.Hour
	DefaultStoreTimeout = 5 * time.Second
)

type AppConfig struct {
	MongoURI          string
	Database          string
	Port              string
	GrpcPort          string
	AccessSecret      string
	TokenTTL          time.Duration
	AdminUsername     string
	AdminPasswordHash string
	LogLevel          string
	StoreTimeout      time.Duration

	// ephemeralSecret signs tokens when AccessSecret is unset; it dies with the process.
	ephemeralSecret string
}

// Load reads .env (if any) and the process environment.
func Load() AppConfig {
	// missing .env is normal outside development.
	_ = godotenv.Load()
	return FromLookup(os.LookupEnv)
}

// FromLookup builds the config from any key lookup, os.LookupEnv in production.
func FromLookup(lookup func(string) (string, bool)) AppConfig {
	get := func(k, def string) string {
		if v, ok := lookup(k); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return def
	}
	duration := func(k string, def time.Duration) time.Duration {
		d, err := time.ParseDuration(get(k, ""))
		if err != nil || d <= 0 {
			return def
		}
		return d
	}

	cfg := AppConfig{
		MongoURI:          get("MONGODB_URI", DefaultMongoURI),
		Port:              get("PORT", DefaultPort),
		GrpcPort:          get("GRPC_PORT", DefaultGrpcPort),
		AccessSecret:      get("ACCESS_SECRET", ""),
		TokenTTL:          duration("TOKEN_TTL", DefaultTokenTTL),
		AdminUsername:     get("ADMIN_USERNAME", DefaultAdminUser),
		AdminPasswordHash: get("ADMIN_PASSWORD_HASH", ""),
		LogLevel:          get("LOG_LEVEL", "info"),
		StoreTimeout:      duration("DB_TIMEOUT", DefaultStoreTimeout),
	}
	cfg.Database = databaseFromURI(cfg.MongoURI)
	if cfg.AccessSecret == "" {
		cfg.ephemeralSecret = randomSecret()
	}
	return cfg
}

// UsesEphemeralSecret reports whether tokens are signed with a per-process random key, so they
// stop verifying after a restart.
func (c AppConfig) UsesEphemeralSecret() bool {
	return c.AccessSecret == ""
}

func (c AppConfig) TokenSecret() string {
	if c.UsesEphemeralSecret() {
		return c.ephemeralSecret
	}
	return c.AccessSecret
}

// AdminEnabled reports whether an admin credential is configured.
func (c AppConfig) AdminEnabled() bool {
	return c.AdminPasswordHash != ""
}

func randomSecret() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		panic("appconfig: no randomness for token secret: " + err.Error())
	}
	return hex.EncodeToString(buf)
}

func databaseFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return DefaultDatabase
	}
	name := strings.Trim(u.Path, "/")
	if name == "" {
		return DefaultDatabase
	}
	return name
}
