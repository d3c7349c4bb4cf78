// Package projects implements PostgreSQL access to project records. The
// attachment and report collections live in JSONB array columns.
package projects

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/mpmonitor/internal/common"
	"github.com/dmitrijs2005/mpmonitor/internal/dbx"
	"github.com/dmitrijs2005/mpmonitor/internal/server/models"
	"gorm.io/datatypes"
)

const projectColumns = `id, title, description, status, constituency, images, videos, reports, owner_id`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*models.Project, error) {
	var (
		p       models.Project
		status  string
		images  datatypes.JSONSlice[models.Attachment]
		videos  datatypes.JSONSlice[models.Attachment]
		reports datatypes.JSONSlice[models.Report]
		owner   sql.NullString
	)

	if err := row.Scan(&p.ID, &p.Title, &p.Description, &status, &p.Constituency, &images, &videos, &reports, &owner); err != nil {
		return nil, err
	}

	p.Status = models.ProjectStatus(status)
	p.Images = nonNil(images)
	p.Videos = nonNil(videos)
	p.Reports = nonNil(reports)
	if owner.Valid {
		p.OwnerID = &owner.String
	}
	return &p, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func jsonArray[T any](s []T) datatypes.JSONSlice[T] {
	return datatypes.NewJSONSlice(nonNil(s))
}

func (r *PostgresRepository) Create(ctx context.Context, p *models.Project) (*models.Project, error) {
	query :=
		`INSERT INTO projects (title, description, status, constituency, images, videos, reports, owner_id)
		 VALUES ($1, $2, $3, $4, $5::jsonb, $6::jsonb, $7::jsonb, $8)
		 RETURNING id`

	var owner any
	if p.OwnerID != nil {
		owner = *p.OwnerID
	}

	err := r.db.QueryRowContext(ctx, query,
		p.Title, p.Description, string(p.Status), p.Constituency,
		jsonArray(p.Images), jsonArray(p.Videos), jsonArray(p.Reports), owner,
	).Scan(&p.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", dbx.Classify(err))
	}

	return p, nil
}

func (r *PostgresRepository) findOne(ctx context.Context, query string, id int64) (*models.Project, error) {
	p, err := scanProject(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", dbx.Classify(err))
	}
	return p, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id int64) (*models.Project, error) {
	return r.findOne(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id)
}

// FindByIDForUpdate locks the row until the surrounding transaction ends.
func (r *PostgresRepository) FindByIDForUpdate(ctx context.Context, id int64) (*models.Project, error) {
	return r.findOne(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1 FOR UPDATE`, id)
}

func (r *PostgresRepository) FindAll(ctx context.Context) ([]*models.Project, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", dbx.Classify(err))
	}
	defer rows.Close()

	result := []*models.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", dbx.Classify(err))
	}

	return result, nil
}

func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", dbx.Classify(err))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	switch n {
	case 0:
		return common.ErrorNotFound
	case 1:
		return nil
	default:
		return fmt.Errorf("db error: %d rows affected", n)
	}
}

// AppendMedia appends a to the images or videos array in one statement, so
// concurrent appends to the same project are serialized by the row lock
// and none of them is lost.
func (r *PostgresRepository) AppendMedia(ctx context.Context, id int64, a models.Attachment) error {
	var query string
	switch a.Kind {
	case models.KindImage:
		query = `UPDATE projects SET images = images || $1::jsonb, updated_at = now() WHERE id = $2`
	case models.KindVideo:
		query = `UPDATE projects SET videos = videos || $1::jsonb, updated_at = now() WHERE id = $2`
	default:
		return common.Validationf("unknown media kind %q", a.Kind)
	}
	return r.execOne(ctx, query, jsonArray([]models.Attachment{a}), id)
}

func (r *PostgresRepository) AppendReport(ctx context.Context, id int64, rep models.Report) error {
	return r.execOne(ctx,
		`UPDATE projects SET reports = reports || $1::jsonb, updated_at = now() WHERE id = $2`,
		jsonArray([]models.Report{rep}), id)
}

func (r *PostgresRepository) SetMedia(ctx context.Context, id int64, images, videos []models.Attachment) error {
	return r.execOne(ctx,
		`UPDATE projects SET images = $1::jsonb, videos = $2::jsonb, updated_at = now() WHERE id = $3`,
		jsonArray(images), jsonArray(videos), id)
}

func (r *PostgresRepository) SetReports(ctx context.Context, id int64, reports []models.Report) error {
	return r.execOne(ctx,
		`UPDATE projects SET reports = $1::jsonb, updated_at = now() WHERE id = $2`,
		jsonArray(reports), id)
}

// UpdateFields applies the non-nil fields of patch in one statement. The
// whole images or videos array is replaced when supplied.
func (r *PostgresRepository) UpdateFields(ctx context.Context, id int64, patch models.ProjectPatch) error {
	query :=
		`UPDATE projects SET
		   title = COALESCE($1, title),
		   description = COALESCE($2, description),
		   status = COALESCE($3, status),
		   constituency = COALESCE($4, constituency),
		   images = COALESCE($5::jsonb, images),
		   videos = COALESCE($6::jsonb, videos),
		   updated_at = now()
		 WHERE id = $7`

	var status, images, videos any
	if patch.Status != nil {
		status = string(*patch.Status)
	}
	if patch.Images != nil {
		images = jsonArray(*patch.Images)
	}
	if patch.Videos != nil {
		videos = jsonArray(*patch.Videos)
	}

	return r.execOne(ctx, query,
		nullableString(patch.Title), nullableString(patch.Description), status,
		nullableString(patch.Constituency), images, videos, id)
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// Delete removes the row and returns its last state.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) (*models.Project, error) {
	return r.findOne(ctx, `DELETE FROM projects WHERE id = $1 RETURNING `+projectColumns, id)
}
