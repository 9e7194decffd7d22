// Package common contains shared constants and sentinel errors used across
// Guardian components.
package common

const (
	// AuthorizationHeaderName carries the bearer credential on inbound HTTP requests.
	AuthorizationHeaderName = "Authorization"

	// AuthChallengeScheme is advertised in WWW-Authenticate on 401 responses.
	AuthChallengeScheme = "Bearer"

	// TokenType is returned next to every issued access token.
	TokenType = "bearer"

	// AdminRoleName is the role gating privileged operations.
	AdminRoleName = "admin"
)
