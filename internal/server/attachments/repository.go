package attachments

import (
	"context"

	"github.com/dmitrijs2005/mpmonitor/internal/server/models"
)

// Repository is the metadata side of the coordinator. Implementations must
// make AppendAttachment and AppendReport atomic appends. A missing project
// is common.ErrorNotFound; a missing entry inside an existing project is
// common.ErrAttachmentNotFound or common.ErrReportNotFound. ReplaceFields
// must reject a patch that leaves images and videos sharing an object id.
type Repository interface {
	AppendAttachment(ctx context.Context, projectID int64, a models.Attachment) error
	RemoveAttachment(ctx context.Context, projectID int64, objectID string) (*models.Attachment, error)
	UpdateAttachmentComment(ctx context.Context, projectID int64, objectID, comment string) (*models.Attachment, error)
	AppendReport(ctx context.Context, projectID int64, r models.Report) error
	RemoveReport(ctx context.Context, projectID int64, reportID int64) (*models.Report, error)
	ReplaceFields(ctx context.Context, projectID int64, patch models.ProjectPatch) error
	Delete(ctx context.Context, projectID int64) (*models.Project, error)
}
