package attachments

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/mpmonitor/internal/common"
	"github.com/dmitrijs2005/mpmonitor/internal/logging"
	"github.com/dmitrijs2005/mpmonitor/internal/server/blobstore"
	"github.com/dmitrijs2005/mpmonitor/internal/server/models"
	"golang.org/x/sync/errgroup"
)

// Defaults used by NewCoordinator when no option overrides them.
const (
	DefaultBlobTimeout        = 30 * time.Second
	DefaultRepoTimeout        = 5 * time.Second
	DefaultCascadeParallelism = 4
)

// Coordinator sequences blob store and repository calls so that project
// metadata never references an object that was not stored.
type Coordinator struct {
	store  blobstore.Store
	repo   Repository
	logger logging.Logger
	sink   OrphanSink

	blobTimeout  time.Duration
	repoTimeout  time.Duration
	cascadeLimit int
	validatePDF  func([]byte) error
	reportIDs    *ReportIDGenerator
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithBlobTimeout bounds each blob store call. Non-positive values are ignored.
func WithBlobTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.blobTimeout = d
		}
	}
}

// WithRepoTimeout bounds each repository call. Non-positive values are ignored.
func WithRepoTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.repoTimeout = d
		}
	}
}

// WithOrphanSink hands objects that could not be deleted to s.
func WithOrphanSink(s OrphanSink) Option {
	return func(c *Coordinator) { c.sink = s }
}

// WithPDFValidator replaces the check run on report uploads.
func WithPDFValidator(fn func([]byte) error) Option {
	return func(c *Coordinator) { c.validatePDF = fn }
}

// WithCascadeConcurrency caps parallel blob deletes during DeleteProject.
func WithCascadeConcurrency(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.cascadeLimit = n
		}
	}
}

// WithReportIDs sets the generator used for new report ids.
func WithReportIDs(g *ReportIDGenerator) Option {
	return func(c *Coordinator) { c.reportIDs = g }
}

// NewCoordinator returns a Coordinator over store and repo. A nil logger
// discards output.
func NewCoordinator(store blobstore.Store, repo Repository, logger logging.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:        store,
		repo:         repo,
		logger:       logger,
		blobTimeout:  DefaultBlobTimeout,
		repoTimeout:  DefaultRepoTimeout,
		cascadeLimit: DefaultCascadeParallelism,
		validatePDF:  ValidatePDF,
		reportIDs:    NewReportIDGenerator(),
	}
	for _, o := range opts {
		o(c)
	}
	if c.logger == nil {
		c.logger = logging.Nop{}
	}
	return c
}

// NextReportID returns a fresh report id from the coordinator's generator.
func (c *Coordinator) NextReportID() int64 {
	return c.reportIDs.Next()
}

// UploadMedia stores an image or video and appends it to the project.
// If the append fails the uploaded object is deleted again on a best-effort
// basis.
func (c *Coordinator) UploadMedia(ctx context.Context, projectID int64, data []byte, contentType string) (*models.Attachment, error) {
	ct := normalizeContentType(contentType)
	if _, ok := allowedMedia[ct]; !ok {
		return nil, invalidContentType(contentType)
	}
	if len(data) == 0 {
		return nil, common.Validationf("empty upload")
	}
	kind, _ := models.KindFromContentType(ct)

	ref, err := c.upload(ctx, data, ct, blobstore.FolderFor(kind))
	if err != nil {
		return nil, err
	}

	a := models.Attachment{ObjectID: ref.ObjectID, URL: ref.URL, Kind: kind, Comment: ""}

	err = c.repoCall(ctx, func(ctx context.Context) error {
		return c.repo.AppendAttachment(ctx, projectID, a)
	})
	if err != nil {
		c.compensate(ctx, projectID, ref.ObjectID, kind)
		return nil, fmt.Errorf("append attachment: %w", err)
	}

	return &a, nil
}

// DeleteMedia removes the attachment metadata and then its object. A missing
// attachment is not an error; a missing project is.
func (c *Coordinator) DeleteMedia(ctx context.Context, projectID int64, objectID string) error {
	var removed *models.Attachment
	err := c.repoCall(ctx, func(ctx context.Context) error {
		var err error
		removed, err = c.repo.RemoveAttachment(ctx, projectID, objectID)
		return err
	})
	if errors.Is(err, common.ErrAttachmentNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("remove attachment: %w", err)
	}

	c.deleteBlob(ctx, projectID, removed.ObjectID, removed.Kind, OpDelete)
	return nil
}

// UpdateComment replaces the comment of one attachment.
func (c *Coordinator) UpdateComment(ctx context.Context, projectID int64, objectID, comment string) (*models.Attachment, error) {
	var updated *models.Attachment
	err := c.repoCall(ctx, func(ctx context.Context) error {
		var err error
		updated, err = c.repo.UpdateAttachmentComment(ctx, projectID, objectID, comment)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("update comment: %w", err)
	}
	return updated, nil
}

// UploadReport stores a PDF report and appends it to the project.
func (c *Coordinator) UploadReport(ctx context.Context, projectID int64, data []byte, contentType, fileName string) (*models.Report, error) {
	if normalizeContentType(contentType) != ReportContentType {
		return nil, invalidContentType(contentType)
	}
	if err := c.validatePDF(data); err != nil {
		return nil, err
	}

	ref, err := c.upload(ctx, data, ReportContentType, blobstore.FolderReports)
	if err != nil {
		return nil, err
	}

	r := models.Report{
		ID:       c.reportIDs.Next(),
		ObjectID: ref.ObjectID,
		URL:      ref.URL,
		FileName: reportFileName(fileName),
	}

	err = c.repoCall(ctx, func(ctx context.Context) error {
		return c.repo.AppendReport(ctx, projectID, r)
	})
	if err != nil {
		c.compensate(ctx, projectID, ref.ObjectID, models.KindDocument)
		return nil, fmt.Errorf("append report: %w", err)
	}

	return &r, nil
}

// DeleteReport removes the report metadata and then its object. A missing
// report is not an error; a missing project is.
func (c *Coordinator) DeleteReport(ctx context.Context, projectID, reportID int64) error {
	var removed *models.Report
	err := c.repoCall(ctx, func(ctx context.Context) error {
		var err error
		removed, err = c.repo.RemoveReport(ctx, projectID, reportID)
		return err
	})
	if errors.Is(err, common.ErrReportNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("remove report: %w", err)
	}

	c.deleteBlob(ctx, projectID, removed.ObjectID, models.KindDocument, OpDelete)
	return nil
}

// UpdateFields applies a bulk edit. Supplied media lists replace the stored
// ones; the blob store is not touched.
func (c *Coordinator) UpdateFields(ctx context.Context, projectID int64, patch models.ProjectPatch) error {
	if err := patch.Validate(); err != nil {
		return err
	}
	err := c.repoCall(ctx, func(ctx context.Context) error {
		return c.repo.ReplaceFields(ctx, projectID, patch)
	})
	if err != nil {
		return fmt.Errorf("replace fields: %w", err)
	}
	return nil
}

// DeleteProject removes the project row and then every object it referenced.
// Blob failures become orphans in the result; they do not fail the call.
func (c *Coordinator) DeleteProject(ctx context.Context, projectID int64) (CascadeResult, error) {
	var deleted *models.Project
	err := c.repoCall(ctx, func(ctx context.Context) error {
		var err error
		deleted, err = c.repo.Delete(ctx, projectID)
		return err
	})
	if err != nil {
		return CascadeResult{}, fmt.Errorf("delete project: %w", err)
	}

	type target struct {
		objectID string
		kind     models.MediaKind
	}
	targets := make([]target, 0, len(deleted.Images)+len(deleted.Videos)+len(deleted.Reports))
	for _, a := range deleted.Media() {
		targets = append(targets, target{a.ObjectID, a.Kind})
	}
	for _, r := range deleted.Reports {
		targets = append(targets, target{r.ObjectID, models.KindDocument})
	}

	var (
		mu     sync.Mutex
		result = CascadeResult{Attempted: len(targets)}
		g      errgroup.Group
	)
	g.SetLimit(c.cascadeLimit)

	for _, t := range targets {
		g.Go(func() error {
			if w, ok := c.deleteBlob(ctx, projectID, t.objectID, t.kind, OpCascade); !ok {
				mu.Lock()
				result.Orphans = append(result.Orphans, w)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if n := len(result.Orphans); n > 0 {
		c.logger.Warn(ctx, "project deleted with orphaned objects",
			"project_id", projectID, "orphans", n, "attempted", result.Attempted)
	}
	return result, nil
}

func (c *Coordinator) upload(ctx context.Context, data []byte, contentType, folder string) (blobstore.ObjectRef, error) {
	ctx, cancel := context.WithTimeout(ctx, c.blobTimeout)
	defer cancel()

	ref, err := c.store.Upload(ctx, data, contentType, folder)
	if err != nil {
		return blobstore.ObjectRef{}, fmt.Errorf("%w: %w", common.ErrUploadFailed, err)
	}
	if ref.ObjectID == "" {
		return blobstore.ObjectRef{}, fmt.Errorf("%w: store returned no object id", common.ErrUploadFailed)
	}
	return ref, nil
}

// repoCall bounds fn by the repository timeout and reports an expired
// deadline as common.ErrStorageTimeout.
func (c *Coordinator) repoCall(ctx context.Context, fn func(ctx context.Context) error) error {
	tctx, cancel := context.WithTimeout(ctx, c.repoTimeout)
	defer cancel()

	err := fn(tctx)
	if err == nil || errors.Is(err, common.ErrStorageTimeout) {
		return err
	}
	if errors.Is(tctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return fmt.Errorf("%w: %w", common.ErrStorageTimeout, err)
	}
	return err
}

// deleteBlob runs detached from the caller's cancellation: the metadata
// change it follows has already been committed.
func (c *Coordinator) deleteBlob(ctx context.Context, projectID int64, objectID string, kind models.MediaKind, op string) (OrphanWarning, bool) {
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.blobTimeout)
	defer cancel()

	err := c.store.Delete(dctx, objectID, kind)
	if err == nil {
		return OrphanWarning{}, true
	}

	w := OrphanWarning{ProjectID: projectID, ObjectID: objectID, Kind: kind, Op: op, Err: err}
	c.orphan(context.WithoutCancel(ctx), w)
	return w, false
}

func (c *Coordinator) compensate(ctx context.Context, projectID int64, objectID string, kind models.MediaKind) {
	c.deleteBlob(ctx, projectID, objectID, kind, OpCompensate)
}
