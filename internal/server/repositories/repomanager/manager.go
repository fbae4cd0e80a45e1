package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/placementtracker/internal/dbx"
	"github.com/dmitrijs2005/placementtracker/internal/server/repositories/applications"
	"github.com/dmitrijs2005/placementtracker/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/placementtracker/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so the same code
// runs against the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Applications(db dbx.DBTX) applications.Repository
}
