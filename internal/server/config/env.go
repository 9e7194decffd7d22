package config

import (
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// loadDotEnv copies variables from path into the process environment
// without overriding variables that are already set. A missing file is fine.
func loadDotEnv(path string) {
	_ = godotenv.Load(path)
}

// parseEnv applies environment variables on top of cfg.
//
// DATABASE_URL wins over the POSTGRES_* family. When DATABASE_URL is absent
// and POSTGRES_USER is set, the DSN is composed from POSTGRES_USER,
// POSTGRES_PASSWORD, POSTGRES_DB, POSTGRES_SERVER (default "db") and
// POSTGRES_PORT (default 5432).
func parseEnv(cfg *Config, lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("GUARDIAN_HTTP_ADDR", &cfg.EndpointAddrHTTP)
	str("GUARDIAN_GRPC_ADDR", &cfg.EndpointAddrGRPC)
	str("SECRET_KEY", &cfg.SecretKey)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("LOG_FORMAT", &cfg.LogFormat)
	str("BOOTSTRAP_ADMIN_EMAIL", &cfg.BootstrapAdminEmail)
	str("BOOTSTRAP_ADMIN_PASSWORD", &cfg.BootstrapAdminPassword)

	if v, ok := lookup("ACCESS_TOKEN_EXPIRE_MINUTES"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.AccessTokenValidityDuration = time.Duration(n) * time.Minute
		}
	}
	if v, ok := lookup("BCRYPT_COST"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.BcryptCost = n
		}
	}

	if v, ok := lookup("DATABASE_URL"); ok && v != "" {
		cfg.DatabaseDSN = v
		return
	}
	if user, ok := lookup("POSTGRES_USER"); ok && user != "" {
		password, _ := lookup("POSTGRES_PASSWORD")
		dbName, _ := lookup("POSTGRES_DB")
		host := "db"
		str("POSTGRES_SERVER", &host)
		port := "5432"
		str("POSTGRES_PORT", &port)
		cfg.DatabaseDSN = composeDSN(user, password, host, port, dbName)
	}
}

func composeDSN(user, password, host, port, dbName string) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, password),
		Host:     net.JoinHostPort(host, port),
		Path:     "/" + dbName,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}
