package projects

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/mpmonitor/internal/dbx"
	"github.com/dmitrijs2005/mpmonitor/internal/server/models"
	"github.com/dmitrijs2005/mpmonitor/internal/server/repositories/repomanager"
)

// PostgresStore composes the row-level repository into the operations the
// coordinator needs. Appends are single statements; removals and comment
// edits lock the row inside a transaction.
type PostgresStore struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewPostgresStore(db *sql.DB, rm repomanager.RepositoryManager) *PostgresStore {
	return &PostgresStore{db: db, repomanager: rm}
}

func (s *PostgresStore) Create(ctx context.Context, p *models.Project) (*models.Project, error) {
	p.ApplyDefaults()
	return s.repomanager.Projects(s.db).Create(ctx, p)
}

func (s *PostgresStore) Get(ctx context.Context, id int64) (*models.Project, error) {
	return s.repomanager.Projects(s.db).FindByID(ctx, id)
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Project, error) {
	return s.repomanager.Projects(s.db).FindAll(ctx)
}

func (s *PostgresStore) AppendAttachment(ctx context.Context, projectID int64, a models.Attachment) error {
	return s.repomanager.Projects(s.db).AppendMedia(ctx, projectID, a)
}

func (s *PostgresStore) RemoveAttachment(ctx context.Context, projectID int64, objectID string) (*models.Attachment, error) {
	var removed *models.Attachment

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Projects(tx)

		p, err := repo.FindByIDForUpdate(ctx, projectID)
		if err != nil {
			return err
		}

		removed, err = removeAttachment(p, objectID)
		if err != nil {
			return err
		}

		return repo.SetMedia(ctx, projectID, p.Images, p.Videos)
	})
	if err != nil {
		return nil, err
	}

	return removed, nil
}

func (s *PostgresStore) UpdateAttachmentComment(ctx context.Context, projectID int64, objectID, comment string) (*models.Attachment, error) {
	var updated *models.Attachment

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Projects(tx)

		p, err := repo.FindByIDForUpdate(ctx, projectID)
		if err != nil {
			return err
		}

		updated, err = setComment(p, objectID, comment)
		if err != nil {
			return err
		}

		return repo.SetMedia(ctx, projectID, p.Images, p.Videos)
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (s *PostgresStore) AppendReport(ctx context.Context, projectID int64, r models.Report) error {
	return s.repomanager.Projects(s.db).AppendReport(ctx, projectID, r)
}

func (s *PostgresStore) RemoveReport(ctx context.Context, projectID, reportID int64) (*models.Report, error) {
	var removed *models.Report

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Projects(tx)

		p, err := repo.FindByIDForUpdate(ctx, projectID)
		if err != nil {
			return err
		}

		removed, err = removeReport(p, reportID)
		if err != nil {
			return err
		}

		return repo.SetReports(ctx, projectID, p.Reports)
	})
	if err != nil {
		return nil, err
	}

	return removed, nil
}

// ReplaceFields applies patch in one statement. When only one of the media
// lists is replaced, the row is locked first so the new list can be checked
// against the stored one.
func (s *PostgresStore) ReplaceFields(ctx context.Context, projectID int64, patch models.ProjectPatch) error {
	if (patch.Images == nil) == (patch.Videos == nil) {
		return s.repomanager.Projects(s.db).UpdateFields(ctx, projectID, patch)
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Projects(tx)

		p, err := repo.FindByIDForUpdate(ctx, projectID)
		if err != nil {
			return err
		}
		if err := patch.ApplyTo(p); err != nil {
			return err
		}

		return repo.UpdateFields(ctx, projectID, patch)
	})
}

func (s *PostgresStore) Delete(ctx context.Context, projectID int64) (*models.Project, error) {
	return s.repomanager.Projects(s.db).Delete(ctx, projectID)
}
