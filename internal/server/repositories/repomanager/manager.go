package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/guardian/internal/dbx"
	"github.com/dmitrijs2005/guardian/internal/server/repositories/roles"
	"github.com/dmitrijs2005/guardian/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to either the pool or an open
// transaction, so services can compose several writes under dbx.WithTx.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Roles(db dbx.DBTX) roles.Repository
}
