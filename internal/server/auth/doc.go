// Package auth holds the authentication and authorization primitives:
//
//   - PasswordHasher: salted bcrypt hashing and verification.
//   - TokenService: HS256 JWT access tokens carrying the identity email as
//     subject. Every validation failure collapses to common.ErrInvalidToken.
//   - Gate: fail-closed role membership checks against the credential store.
//
// All three are safe for concurrent use; their configuration is fixed at
// construction.
package auth
