package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/guardian/internal/flagx"
	"github.com/dmitrijs2005/guardian/internal/timex"
)

// JsonConfig is the on-disk shape of the optional JSON config file. Only
// fields present in the file override the current Config; durations accept
// "30m" style strings or integer nanoseconds.
type JsonConfig struct {
	EndpointAddrHTTP            *string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC            *string         `json:"endpoint_addr_grpc"`
	DatabaseDSN                 *string         `json:"database_dsn"`
	SecretKey                   *string         `json:"secret_key"`
	AccessTokenValidityDuration *timex.Duration `json:"access_token_validity_duration"`
	BcryptCost                  *int            `json:"bcrypt_cost"`
	DBQueryTimeout              *timex.Duration `json:"db_query_timeout"`
	ShutdownTimeout             *timex.Duration `json:"shutdown_timeout"`
	LogLevel                    *string         `json:"log_level"`
	LogFormat                   *string         `json:"log_format"`
	BootstrapAdminEmail         *string         `json:"bootstrap_admin_email"`
	BootstrapAdminPassword      *string         `json:"bootstrap_admin_password"`
}

// parseJson overlays the JSON file named by -c/-config in args onto config.
// Without the flag nothing happens. An unreadable or invalid file panics:
// the process cannot start with a config the operator did not intend.
func parseJson(config *Config, args []string) {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFormat, c.LogFormat)
	setString(&config.BootstrapAdminEmail, c.BootstrapAdminEmail)
	setString(&config.BootstrapAdminPassword, c.BootstrapAdminPassword)

	if c.AccessTokenValidityDuration != nil {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.DBQueryTimeout != nil {
		config.DBQueryTimeout = c.DBQueryTimeout.Duration
	}
	if c.ShutdownTimeout != nil {
		config.ShutdownTimeout = c.ShutdownTimeout.Duration
	}
	if c.BcryptCost != nil {
		config.BcryptCost = *c.BcryptCost
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
