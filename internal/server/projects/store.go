// Package projects exposes project CRUD to the transport layer and routes
// every attachment mutation through the attachments coordinator.
package projects

import (
	"context"
	"fmt"
	"slices"

	"github.com/dmitrijs2005/mpmonitor/internal/common"
	"github.com/dmitrijs2005/mpmonitor/internal/server/attachments"
	"github.com/dmitrijs2005/mpmonitor/internal/server/models"
)

// Store is the project repository as seen by the service and the
// coordinator.
type Store interface {
	attachments.Repository

	Create(ctx context.Context, p *models.Project) (*models.Project, error)
	Get(ctx context.Context, id int64) (*models.Project, error)
	List(ctx context.Context) ([]*models.Project, error)
}

func removeAttachment(p *models.Project, objectID string) (*models.Attachment, error) {
	for _, list := range []*[]models.Attachment{&p.Images, &p.Videos} {
		i := slices.IndexFunc(*list, func(a models.Attachment) bool { return a.ObjectID == objectID })
		if i < 0 {
			continue
		}
		removed := (*list)[i]
		*list = slices.Delete(*list, i, i+1)
		return &removed, nil
	}
	return nil, fmt.Errorf("attachment %s: %w", objectID, common.ErrAttachmentNotFound)
}

func setComment(p *models.Project, objectID, comment string) (*models.Attachment, error) {
	for _, list := range [][]models.Attachment{p.Images, p.Videos} {
		for i := range list {
			if list[i].ObjectID == objectID {
				list[i].Comment = comment
				updated := list[i]
				return &updated, nil
			}
		}
	}
	return nil, fmt.Errorf("attachment %s: %w", objectID, common.ErrAttachmentNotFound)
}

func removeReport(p *models.Project, reportID int64) (*models.Report, error) {
	i := slices.IndexFunc(p.Reports, func(r models.Report) bool { return r.ID == reportID })
	if i < 0 {
		return nil, fmt.Errorf("report %d: %w", reportID, common.ErrReportNotFound)
	}
	removed := p.Reports[i]
	p.Reports = slices.Delete(p.Reports, i, i+1)
	return &removed, nil
}
