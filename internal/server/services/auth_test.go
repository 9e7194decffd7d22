package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/guardian/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_Success(t *testing.T) {
	f := newFixture(t)

	got, err := f.auth.Register(context.Background(), "a@x.com", "pw123")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", got.Email)
	assert.True(t, got.IsActive)
	assert.NotZero(t, got.ID)

	stored := f.store.users[0]
	assert.NotEqual(t, "pw123", stored.PasswordHash)
	assert.True(t, f.auth.hasher.Verify("pw123", stored.PasswordHash))
}

func TestRegister_DuplicateDoesNotWrite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.auth.Register(ctx, "a@x.com", "pw123")
	require.NoError(t, err)

	creates := f.store.calls["users.Create"]
	lookups := f.store.calls["users.GetByEmail"]

	_, err = f.auth.Register(ctx, "a@x.com", "other")
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)

	assert.Equal(t, creates, f.store.calls["users.Create"], "no create after conflict")
	assert.Equal(t, lookups+1, f.store.calls["users.GetByEmail"], "exactly one extra lookup")
	assert.Len(t, f.store.users, 1)
}

func TestRegister_RaceOnCreateIsConflict(t *testing.T) {
	f := newFixture(t)
	f.store.failOn["users.Create"] = common.ErrorAlreadyExists

	_, err := f.auth.Register(context.Background(), "a@x.com", "pw")
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture(t)

	for _, tc := range []struct{ email, pw string }{
		{"", "pw"},
		{"   ", "pw"},
		{"no-at-sign", "pw"},
		{"a@x.com", ""},
	} {
		_, err := f.auth.Register(context.Background(), tc.email, tc.pw)
		assert.ErrorIs(t, err, common.ErrorValidation, "%q/%q", tc.email, tc.pw)
	}
	assert.Zero(t, f.store.calls["users.GetByEmail"])
}

func TestRegister_StoreFailureIsInternal(t *testing.T) {
	f := newFixture(t)
	f.store.failOn["users.GetByEmail"] = errors.New("db error: connection refused")

	_, err := f.auth.Register(context.Background(), "a@x.com", "pw")
	assert.ErrorIs(t, err, common.ErrorInternal)
	assert.NotContains(t, err.Error(), "connection refused")
}

func TestLogin_Success(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.auth.Register(ctx, "a@x.com", "pw123")
	require.NoError(t, err)

	tok, err := f.auth.Login(ctx, "a@x.com", "pw123")
	require.NoError(t, err)
	assert.Equal(t, "bearer", tok.TokenType)

	subject, err := f.auth.tokens.Validate(tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", subject)
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.auth.Register(ctx, "a@x.com", "pw123")
	require.NoError(t, err)

	_, wrongPw := f.auth.Login(ctx, "a@x.com", "nope")
	_, noUser := f.auth.Login(ctx, "b@x.com", "pw123")

	assert.Same(t, common.ErrorBadCredentials, wrongPw)
	assert.Same(t, common.ErrorBadCredentials, noUser)
}

func TestLogin_StoreFailureIsInternal(t *testing.T) {
	f := newFixture(t)
	f.store.failOn["users.GetByEmail"] = errors.New("boom")

	_, err := f.auth.Login(context.Background(), "a@x.com", "pw")
	assert.ErrorIs(t, err, common.ErrorInternal)
}

func TestAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	token := f.seedIdentity(t, "a@x.com", "pw")

	identity, err := f.auth.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", identity.Email)

	_, err = f.auth.Authenticate(ctx, "")
	assert.ErrorIs(t, err, common.ErrorUnauthenticated)

	_, err = f.auth.Authenticate(ctx, token+"x")
	assert.ErrorIs(t, err, common.ErrorUnauthenticated)

	expired, err := f.auth.tokens.IssueWithTTL("a@x.com", -time.Second)
	require.NoError(t, err)
	_, err = f.auth.Authenticate(ctx, expired)
	assert.ErrorIs(t, err, common.ErrorUnauthenticated)

	// valid signature, subject no longer in the store
	orphan, err := f.auth.tokens.Issue("gone@x.com")
	require.NoError(t, err)
	_, err = f.auth.Authenticate(ctx, orphan)
	assert.ErrorIs(t, err, common.ErrorUnauthenticated)
}

func TestAuthorize(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := f.seedIdentity(t, "admin@x.com", "pw", "admin")
	plain := f.seedIdentity(t, "user@x.com", "pw")

	identity, err := f.auth.Authorize(ctx, admin, "admin")
	require.NoError(t, err)
	assert.Equal(t, "admin@x.com", identity.Email)

	_, err = f.auth.Authorize(ctx, plain, "admin")
	assert.ErrorIs(t, err, common.ErrorForbidden)

	_, err = f.auth.Authorize(ctx, "garbage", "admin")
	assert.ErrorIs(t, err, common.ErrorUnauthenticated)
}

func TestAuthorize_RoleLookupFailureIsInternal(t *testing.T) {
	f := newFixture(t)
	admin := f.seedIdentity(t, "admin@x.com", "pw", "admin")
	f.store.failOn["roles.ListByIdentity"] = errors.New("db down")

	identity, err := f.auth.Authorize(context.Background(), admin, "admin")
	assert.ErrorIs(t, err, common.ErrorInternal)
	assert.NotErrorIs(t, err, common.ErrorForbidden)
	assert.Nil(t, identity)
}

func TestAuthorize_GrantTakesEffectWithoutNewToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	token := f.seedIdentity(t, "a@x.com", "pw")

	_, err := f.auth.Authorize(ctx, token, "admin")
	require.ErrorIs(t, err, common.ErrorForbidden)

	_, err = f.roles.CreateUnchecked(ctx, "admin", nil)
	require.NoError(t, err)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	_, err = f.identities.AssignRole(ctx, "a@x.com", "admin")
	require.NoError(t, err)

	_, err = f.auth.Authorize(ctx, token, "admin")
	assert.NoError(t, err)
}
