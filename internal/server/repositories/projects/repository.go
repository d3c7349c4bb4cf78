package projects

import (
	"context"

	"github.com/dmitrijs2005/mpmonitor/internal/server/models"
)

// Repository is the row-level access to the projects table. Every method
// is a single statement; callers compose them inside dbx.WithTx when they
// need a locked read-modify-write.
type Repository interface {
	Create(ctx context.Context, p *models.Project) (*models.Project, error)
	FindByID(ctx context.Context, id int64) (*models.Project, error)
	FindByIDForUpdate(ctx context.Context, id int64) (*models.Project, error)
	FindAll(ctx context.Context) ([]*models.Project, error)
	AppendMedia(ctx context.Context, id int64, a models.Attachment) error
	AppendReport(ctx context.Context, id int64, r models.Report) error
	SetMedia(ctx context.Context, id int64, images, videos []models.Attachment) error
	SetReports(ctx context.Context, id int64, reports []models.Report) error
	UpdateFields(ctx context.Context, id int64, patch models.ProjectPatch) error
	Delete(ctx context.Context, id int64) (*models.Project, error)
}
