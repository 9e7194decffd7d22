// Package services contains server-side business logic: the authentication
// workflow (register, login, bearer resolution, role gating) and the
// identity and role administration built on top of it.
//
// Services return the sentinel errors from internal/common. Store failures
// that are not part of the expected taxonomy are logged here and surfaced as
// common.ErrorInternal so that no driver detail reaches a caller.
package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/guardian/internal/common"
	"github.com/dmitrijs2005/guardian/internal/logging"
	"github.com/dmitrijs2005/guardian/internal/server/repositories/repomanager"
)

const (
	DefaultPageLimit = 100
	MaxPageLimit     = 1000
)

type base struct {
	db           *sql.DB
	repomanager  repomanager.RepositoryManager
	queryTimeout time.Duration
	logger       logging.Logger
}

// storeCtx bounds a single store round-trip.
func (b *base) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.queryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, b.queryTimeout)
}

// internal logs err and replaces it with common.ErrorInternal.
func (b *base) internal(ctx context.Context, op string, err error) error {
	b.logger.Error(ctx, "store failure", "op", op, "error", err)
	return common.ErrorInternal
}

// normalizePage validates skip/limit and caps limit at MaxPageLimit.
func normalizePage(skip, limit int) (int, int, error) {
	if skip < 0 {
		return 0, 0, fmt.Errorf("%w: skip must not be negative", common.ErrorValidation)
	}
	if limit < 0 {
		return 0, 0, fmt.Errorf("%w: limit must not be negative", common.ErrorValidation)
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return skip, limit, nil
}
