// Package adminctl implements guardianctl, the operator tool for store
// administration that has no HTTP surface: creating roles, granting roles to
// identities and bootstrapping the first admin.
//
// Commands run directly against PostgreSQL through the same services the
// server uses, so validation, conflict handling and transactions match.
package adminctl
