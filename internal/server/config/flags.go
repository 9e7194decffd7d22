package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/guardian/internal/flagx"
)

// parseFlags overlays command-line flags onto config.
//
// Supported flags:
//
//	-a string   HTTP bind address (e.g. ":8000")
//	-g string   gRPC health bind address (e.g. ":50051")
//	-d string   PostgreSQL DSN
//	-s string   token signing secret
//	-t int      access token validity, minutes
//	-l string   log level (debug, info, warn, error)
//
// Args are filtered through flagx.FilterArgs first so -c/-config and
// unrelated flags do not abort parsing.
func parseFlags(config *Config, args []string) {
	args = flagx.FilterArgs(args, []string{"-a", "-g", "-d", "-s", "-t", "-l"})

	fs := flag.NewFlagSet("guardian", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "HTTP address and port")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "gRPC health address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "token signing secret")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	accessTokenValidity := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			config.AccessTokenValidityDuration = time.Duration(*accessTokenValidity) * time.Minute
		}
	})
}
