package projects

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/mpmonitor/internal/common"
	"github.com/dmitrijs2005/mpmonitor/internal/logging"
	"github.com/dmitrijs2005/mpmonitor/internal/server/attachments"
	"github.com/dmitrijs2005/mpmonitor/internal/server/auth"
	"github.com/dmitrijs2005/mpmonitor/internal/server/models"
)

// CreateInput is the payload of a new project. Media and Reports are the
// bulk-import path: descriptors of objects uploaded earlier.
type CreateInput struct {
	Title        string
	Description  string
	Status       models.ProjectStatus
	Constituency string
	Media        []models.Attachment
	Reports      []models.Report
}

type Service struct {
	store       Store
	coordinator *attachments.Coordinator
	authz       auth.Authorizer
	logger      logging.Logger
}

func NewService(store Store, coordinator *attachments.Coordinator, authz auth.Authorizer, logger logging.Logger) *Service {
	return &Service{
		store:       store,
		coordinator: coordinator,
		authz:       authz,
		logger:      logger.With("module", "projects"),
	}
}

func (s *Service) List(ctx context.Context) ([]*models.Project, error) {
	return s.store.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (*models.Project, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, principal auth.Principal, in CreateInput) (*models.Project, error) {
	if err := auth.Check(s.authz, principal, auth.ActionCreate, nil); err != nil {
		return nil, err
	}

	if in.Status != "" && !in.Status.Valid() {
		return nil, common.Validationf("invalid status %q", in.Status)
	}

	images, videos, err := models.SplitMedia(in.Media)
	if err != nil {
		return nil, err
	}
	if err := models.CheckMedia(images, videos); err != nil {
		return nil, err
	}
	reports, err := s.importReports(in.Reports, in.Media)
	if err != nil {
		return nil, err
	}

	owner := principal.UserID
	p := &models.Project{
		Title:        in.Title,
		Description:  in.Description,
		Status:       in.Status,
		Constituency: in.Constituency,
		Images:       images,
		Videos:       videos,
		Reports:      reports,
		OwnerID:      &owner,
	}

	created, err := s.store.Create(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	s.logger.Info(ctx, "project created", "project_id", created.ID, "owner_id", owner)
	return created, nil
}

// importReports copies the bulk-imported reports, assigning an id to each
// entry sent without one. Ids and object ids must be unique, and a report
// may not reuse an object id of the imported media.
func (s *Service) importReports(in []models.Report, media []models.Attachment) ([]models.Report, error) {
	objectIDs := make(map[string]struct{}, len(in)+len(media))
	for _, a := range media {
		objectIDs[a.ObjectID] = struct{}{}
	}
	ids := make(map[int64]struct{}, len(in))

	reports := make([]models.Report, 0, len(in))
	for _, r := range in {
		if r.ObjectID == "" {
			return nil, common.Validationf("report entry without objectId")
		}
		if _, dup := objectIDs[r.ObjectID]; dup {
			return nil, common.Validationf("duplicate objectId %q", r.ObjectID)
		}
		objectIDs[r.ObjectID] = struct{}{}

		if r.ID < 0 {
			return nil, common.Validationf("invalid report id %d", r.ID)
		}
		if r.ID == 0 {
			r.ID = s.coordinator.NextReportID()
		}
		if _, dup := ids[r.ID]; dup {
			return nil, common.Validationf("duplicate report id %d", r.ID)
		}
		ids[r.ID] = struct{}{}

		reports = append(reports, r)
	}
	return reports, nil
}

// authorize loads the project and checks action against it.
func (s *Service) authorize(ctx context.Context, principal auth.Principal, id int64, action auth.Action) (*models.Project, error) {
	if principal.UserID == "" {
		return nil, common.ErrorUnauthorized
	}
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.Check(s.authz, principal, action, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Update(ctx context.Context, principal auth.Principal, id int64, patch models.ProjectPatch) (*models.Project, error) {
	if _, err := s.authorize(ctx, principal, id, auth.ActionUpdate); err != nil {
		return nil, err
	}
	if err := s.coordinator.UpdateFields(ctx, id, patch); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, principal auth.Principal, id int64) (attachments.CascadeResult, error) {
	if _, err := s.authorize(ctx, principal, id, auth.ActionDelete); err != nil {
		return attachments.CascadeResult{}, err
	}
	res, err := s.coordinator.DeleteProject(ctx, id)
	if err != nil {
		return res, err
	}
	s.logger.Info(ctx, "project deleted", "project_id", id, "objects", res.Attempted, "orphans", len(res.Orphans))
	return res, nil
}

func (s *Service) UploadMedia(ctx context.Context, principal auth.Principal, id int64, data []byte, contentType string) (*models.Attachment, error) {
	if !attachments.AllowedMediaType(contentType) {
		return nil, fmt.Errorf("%w: %q", common.ErrInvalidContentType, contentType)
	}
	if _, err := s.authorize(ctx, principal, id, auth.ActionUpload); err != nil {
		return nil, err
	}
	return s.coordinator.UploadMedia(ctx, id, data, contentType)
}

func (s *Service) UpdateComment(ctx context.Context, principal auth.Principal, id int64, objectID, comment string) (*models.Attachment, error) {
	if _, err := s.authorize(ctx, principal, id, auth.ActionUpdate); err != nil {
		return nil, err
	}
	return s.coordinator.UpdateComment(ctx, id, objectID, strings.TrimSpace(comment))
}

func (s *Service) DeleteMedia(ctx context.Context, principal auth.Principal, id int64, objectID string) error {
	if _, err := s.authorize(ctx, principal, id, auth.ActionUpload); err != nil {
		return err
	}
	return s.coordinator.DeleteMedia(ctx, id, objectID)
}

func (s *Service) UploadReport(ctx context.Context, principal auth.Principal, id int64, data []byte, contentType, fileName string) (*models.Report, error) {
	if _, err := s.authorize(ctx, principal, id, auth.ActionUpload); err != nil {
		return nil, err
	}
	return s.coordinator.UploadReport(ctx, id, data, contentType, fileName)
}

func (s *Service) DeleteReport(ctx context.Context, principal auth.Principal, id, reportID int64) error {
	if _, err := s.authorize(ctx, principal, id, auth.ActionUpload); err != nil {
		return err
	}
	return s.coordinator.DeleteReport(ctx, id, reportID)
}
