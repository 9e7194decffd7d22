// Package config handles configuration for the Guardian server: defaults,
// a .env file, environment variables, an optional JSON file and
// command-line flags, applied in that order.
package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Config holds runtime settings for the server. It is built once at startup
// and passed by pointer to the components that need it.
//
// Fields:
//   - EndpointAddrHTTP: bind address for the public HTTP API.
//   - EndpointAddrGRPC: bind address for the gRPC health endpoint.
//   - DatabaseDSN: PostgreSQL DSN (pgx).
//   - SecretKey: HMAC secret for signing access tokens (HS256).
//   - AccessTokenValidityDuration: lifetime of issued access tokens.
//   - BcryptCost: work factor for password hashing.
//   - DBQueryTimeout: upper bound for a single store call.
//   - ShutdownTimeout: grace period for in-flight requests on shutdown.
//   - BootstrapAdminEmail / BootstrapAdminPassword: when both are set the
//     identity is created (if missing) and granted the admin role at startup.
type Config struct {
	EndpointAddrHTTP            string
	EndpointAddrGRPC            string
	DatabaseDSN                 string
	SecretKey                   string
	AccessTokenValidityDuration time.Duration
	BcryptCost                  int
	DBQueryTimeout              time.Duration
	ShutdownTimeout             time.Duration
	LogLevel                    string
	LogFormat                   string
	BootstrapAdminEmail         string
	BootstrapAdminPassword      string
}

// DefaultSecretKey is the development signing key installed by LoadDefaults.
// It is public, so tokens signed with it can be forged by anyone.
const DefaultSecretKey = "your-default-super-secret-key"

// ErrEmptySecretKey is returned by Validate when no signing key is set.
var ErrEmptySecretKey = errors.New("secret key must not be empty")

// LoadDefaults populates Config with development defaults.
// NOTE: SecretKey must be overridden outside of development.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":8000"
	c.EndpointAddrGRPC = ":50051"
	c.DatabaseDSN = "postgres://postgres:postgres@db:5432/guardian?sslmode=disable"
	c.SecretKey = DefaultSecretKey
	c.AccessTokenValidityDuration = 30 * time.Minute
	c.BcryptCost = bcrypt.DefaultCost
	c.DBQueryTimeout = 5 * time.Second
	c.ShutdownTimeout = 10 * time.Second
	c.LogLevel = "info"
	c.LogFormat = "json"
}

// Validate rejects settings the server must not start with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.SecretKey) == "" {
		return ErrEmptySecretKey
	}
	return nil
}

// UsesDefaultSecretKey reports whether the signing key is still the
// development default.
func (c *Config) UsesDefaultSecretKey() bool {
	return c.SecretKey == DefaultSecretKey
}

// LoadConfig builds a Config from defaults, then overlays .env, the process
// environment, the JSON file named by -c/-config and finally the flags.
func LoadConfig() *Config {
	return Load(os.Args[1:])
}

// Load is LoadConfig over an explicit argument list. guardianctl uses it to
// feed only the arguments that precede its subcommand.
func Load(args []string) *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	loadDotEnv(".env")
	parseEnv(cfg, os.LookupEnv)
	parseJson(cfg, args)
	parseFlags(cfg, args)
	return cfg
}
