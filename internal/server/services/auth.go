package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/guardian/internal/common"
	"github.com/dmitrijs2005/guardian/internal/logging"
	"github.com/dmitrijs2005/guardian/internal/server/auth"
	"github.com/dmitrijs2005/guardian/internal/server/config"
	"github.com/dmitrijs2005/guardian/internal/server/models"
	"github.com/dmitrijs2005/guardian/internal/server/repositories/repomanager"
)

// AuthService implements the authentication workflow:
//   - Register: create an identity unless the email is taken
//   - Login: verify credentials and issue a bearer token
//   - Authenticate: resolve a bearer token to a stored identity
//   - Authorize: Authenticate, then require a role
type AuthService struct {
	base
	hasher *auth.PasswordHasher
	tokens *auth.TokenService
	gate   *auth.Gate

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, logger logging.Logger) *AuthService {
	logger = logger.With("service", "auth")
	return &AuthService{
		base: base{
			db:           db,
			repomanager:  m,
			queryTimeout: cfg.DBQueryTimeout,
			logger:       logger,
		},
		hasher: auth.NewPasswordHasher(cfg.BcryptCost),
		tokens: auth.NewTokenService([]byte(cfg.SecretKey), cfg.AccessTokenValidityDuration),
		gate:   auth.NewGate(logger),
	}
}

func validateCredentials(email, password string) error {
	if strings.TrimSpace(email) == "" || !strings.Contains(email, "@") {
		return fmt.Errorf("%w: a valid email is required", common.ErrorValidation)
	}
	if password == "" {
		return fmt.Errorf("%w: password is required", common.ErrorValidation)
	}
	return nil
}

// Register creates an identity for email. An existing email yields
// common.ErrorAlreadyExists and nothing is written.
func (s *AuthService) Register(ctx context.Context, email, password string) (*models.PublicIdentity, error) {
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}

	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	repo := s.repomanager.Users(s.db)

	_, err := repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, common.ErrorAlreadyExists
	case !errors.Is(err, common.ErrorNotFound):
		return nil, s.internal(ctx, "register lookup", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, common.ErrorValidation) {
			return nil, err
		}
		return nil, s.internal(ctx, "register hash", err)
	}

	identity, err := repo.Create(ctx, &models.Identity{Email: email, PasswordHash: hash})
	if err != nil {
		// lost a race with a concurrent registration
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, s.internal(ctx, "register create", err)
	}

	s.logger.Info(ctx, "identity registered", "id", identity.ID)
	return identity.Public(), nil
}

// Login verifies the credentials and issues an access token whose subject
// is the identity's email. Unknown email and wrong password both yield
// common.ErrorBadCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.AccessToken, error) {
	lookupCtx, cancel := s.storeCtx(ctx)
	defer cancel()

	identity, err := s.repomanager.Users(s.db).GetByEmail(lookupCtx, email)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			return nil, s.internal(ctx, "login lookup", err)
		}
		// keep the unknown-email path as slow as a real verification
		s.hasher.Verify(password, s.getDummyHash())
		return nil, common.ErrorBadCredentials
	}

	if !s.hasher.Verify(password, identity.PasswordHash) {
		return nil, common.ErrorBadCredentials
	}

	token, err := s.tokens.Issue(identity.Email)
	if err != nil {
		return nil, s.internal(ctx, "login issue", err)
	}

	return &models.AccessToken{AccessToken: token, TokenType: common.TokenType}, nil
}

func (s *AuthService) getDummyHash() string {
	s.dummyOnce.Do(func() {
		pw, err := common.MakeRandHexString(16)
		if err != nil {
			pw = "guardian-dummy-password"
		}
		s.dummyHash, _ = s.hasher.Hash(pw)
	})
	return s.dummyHash
}

// Authenticate resolves a bearer token to its identity. A missing, invalid
// or expired token, and a subject with no stored identity, all yield
// common.ErrorUnauthenticated.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.Identity, error) {
	if token == "" {
		return nil, common.ErrorUnauthenticated
	}

	subject, err := s.tokens.Validate(token)
	if err != nil {
		return nil, common.ErrorUnauthenticated
	}

	lookupCtx, cancel := s.storeCtx(ctx)
	defer cancel()

	identity, err := s.repomanager.Users(s.db).GetByEmail(lookupCtx, subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthenticated
		}
		return nil, s.internal(ctx, "authenticate lookup", err)
	}

	return identity, nil
}

// Authorize authenticates token and then requires roleName. Holding a valid
// token without the role yields common.ErrorForbidden; a failed role lookup
// yields common.ErrorInternal. Both deny.
func (s *AuthService) Authorize(ctx context.Context, token, roleName string) (*models.Identity, error) {
	identity, err := s.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}

	gateCtx, cancel := s.storeCtx(ctx)
	defer cancel()

	allowed, err := s.gate.HasRole(gateCtx, s.repomanager.Roles(s.db), identity, roleName)
	if err != nil {
		return nil, s.internal(ctx, "authorize role lookup", err)
	}
	if !allowed {
		s.logger.Warn(ctx, "role check denied", "identity_id", identity.ID, "role", roleName)
		return nil, common.ErrorForbidden
	}

	return identity, nil
}
