package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/mpmonitor/internal/dbx"
	"github.com/dmitrijs2005/mpmonitor/internal/server/repositories/projects"
	"github.com/dmitrijs2005/mpmonitor/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so callers can use
// the same code with a *sql.DB or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Projects(db dbx.DBTX) projects.Repository
}
