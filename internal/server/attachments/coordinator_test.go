package attachments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/mpmonitor/internal/common"
	"github.com/dmitrijs2005/mpmonitor/internal/logging"
	"github.com/dmitrijs2005/mpmonitor/internal/server/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func acceptPDF([]byte) error { return nil }

func newTestCoordinator(opts ...Option) (*Coordinator, *spyStore, *fakeRepo, *recordingLogger) {
	store := newSpyStore()
	repo := newFakeRepo()
	log := &recordingLogger{}
	opts = append([]Option{WithPDFValidator(acceptPDF)}, opts...)
	return NewCoordinator(store, repo, log, opts...), store, repo, log
}

func TestUploadMedia_RoundTrip(t *testing.T) {
	c, store, repo, _ := newTestCoordinator()
	ctx := context.Background()
	id := repo.create(models.Project{Title: "Road Repair"})

	a, err := c.UploadMedia(ctx, id, []byte("jpeg-bytes"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, models.KindImage, a.Kind)
	assert.Equal(t, "", a.Comment)
	assert.NotEmpty(t, a.URL)

	p, ok := repo.get(id)
	require.True(t, ok)
	if diff := cmp.Diff([]models.Attachment{*a}, p.Media()); diff != "" {
		t.Errorf("media mismatch (-want +got):\n%s", diff)
	}

	data, ct, ok := store.Get(a.ObjectID)
	require.True(t, ok)
	assert.Equal(t, []byte("jpeg-bytes"), data)
	assert.Equal(t, "image/jpeg", ct)
}

func TestUploadMedia_VideoGoesToVideos(t *testing.T) {
	c, _, repo, _ := newTestCoordinator()
	id := repo.create(models.Project{})

	a, err := c.UploadMedia(context.Background(), id, []byte("mp4"), "video/mp4")
	require.NoError(t, err)
	assert.Equal(t, models.KindVideo, a.Kind)

	p, _ := repo.get(id)
	assert.Empty(t, p.Images)
	require.Len(t, p.Videos, 1)
	assert.Equal(t, a.ObjectID, p.Videos[0].ObjectID)
}

func TestUploadMedia_ContentTypeParameters(t *testing.T) {
	c, _, repo, _ := newTestCoordinator()
	id := repo.create(models.Project{})

	a, err := c.UploadMedia(context.Background(), id, []byte("png"), "Image/PNG; charset=binary")
	require.NoError(t, err)
	assert.Equal(t, models.KindImage, a.Kind)
}

func TestUploadMedia_InvalidContentType_NoStoreCalls(t *testing.T) {
	for _, ct := range []string{"application/pdf", "text/plain", "image/svg+xml", "video/webm", "", "garbage"} {
		t.Run(ct, func(t *testing.T) {
			c, store, repo, _ := newTestCoordinator()
			id := repo.create(models.Project{})

			_, err := c.UploadMedia(context.Background(), id, []byte("x"), ct)
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrInvalidContentType)
			assert.ErrorIs(t, err, common.ErrValidation)
			assert.Equal(t, 0, store.uploads)
			assert.Equal(t, 0, store.Len())
		})
	}
}

func TestUploadMedia_EmptyBody(t *testing.T) {
	c, store, repo, _ := newTestCoordinator()
	id := repo.create(models.Project{})

	_, err := c.UploadMedia(context.Background(), id, nil, "image/png")
	assert.ErrorIs(t, err, common.ErrValidation)
	assert.Equal(t, 0, store.uploads)
}

func TestUploadMedia_UploadFailure_NoMetadata(t *testing.T) {
	c, store, repo, _ := newTestCoordinator()
	store.uploadErr = errors.New("quota exceeded")
	id := repo.create(models.Project{})

	_, err := c.UploadMedia(context.Background(), id, []byte("x"), "image/png")
	require.ErrorIs(t, err, common.ErrUploadFailed)
	assert.Contains(t, err.Error(), "quota exceeded")

	p, _ := repo.get(id)
	assert.Empty(t, p.Media())
}

func TestUploadMedia_UploadTimeout(t *testing.T) {
	c, store, repo, _ := newTestCoordinator(WithBlobTimeout(10 * time.Millisecond))
	store.uploadFn = func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}
	id := repo.create(models.Project{})

	_, err := c.UploadMedia(context.Background(), id, []byte("x"), "image/png")
	assert.ErrorIs(t, err, common.ErrUploadFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestUploadMedia_CanceledBeforeUpload_NoMetadata(t *testing.T) {
	c, store, repo, _ := newTestCoordinator()
	id := repo.create(models.Project{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.UploadMedia(ctx, id, []byte("x"), "image/png")
	require.ErrorIs(t, err, common.ErrUploadFailed)

	p, _ := repo.get(id)
	assert.Empty(t, p.Media())
	assert.Equal(t, 0, store.Len())
}

func TestUploadMedia_AppendFails_Compensates(t *testing.T) {
	c, store, repo, log := newTestCoordinator()

	_, err := c.UploadMedia(context.Background(), 999, []byte("x"), "image/png")
	require.ErrorIs(t, err, common.ErrorNotFound)

	assert.Equal(t, 1, store.uploads)
	assert.Equal(t, 1, store.deleteCount())
	assert.Equal(t, 0, store.Len())
	assert.Empty(t, log.warns)
	assert.Empty(t, repo.list())
}

func TestUploadMedia_CompensationFails_LogsOrphan(t *testing.T) {
	var enqueued []OrphanWarning
	sink := sinkFunc(func(_ context.Context, w OrphanWarning) error {
		enqueued = append(enqueued, w)
		return nil
	})
	c, store, repo, log := newTestCoordinator(WithOrphanSink(sink))
	repo.appendErr = errors.New("db down")
	id := repo.create(models.Project{})

	c.store = &failingDeletes{spyStore: store, err: errors.New("s3 unavailable")}

	_, err := c.UploadMedia(context.Background(), id, []byte("x"), "image/png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")

	require.Len(t, log.warns, 1)
	w := log.warns[0]
	assert.Equal(t, OpCompensate, w["op"])
	assert.Equal(t, id, w["project_id"])
	assert.Equal(t, "image", w["kind"])
	assert.NotEmpty(t, w["object_id"])

	require.Len(t, enqueued, 1)
	assert.Equal(t, OpCompensate, enqueued[0].Op)
	assert.Equal(t, 1, store.Len(), "orphan remains in the store")
}

type failingDeletes struct {
	*spyStore
	err error
}

func (f *failingDeletes) Delete(context.Context, string, models.MediaKind) error { return f.err }

func TestDeleteMedia_Idempotent(t *testing.T) {
	c, store, repo, _ := newTestCoordinator()
	ctx := context.Background()
	id := repo.create(models.Project{})

	a, err := c.UploadMedia(ctx, id, []byte("x"), "image/png")
	require.NoError(t, err)

	require.NoError(t, c.DeleteMedia(ctx, id, a.ObjectID))
	p, _ := repo.get(id)
	assert.Empty(t, p.Media())
	_, _, ok := store.Get(a.ObjectID)
	assert.False(t, ok)
	assert.Equal(t, 1, store.deleteCount())

	require.NoError(t, c.DeleteMedia(ctx, id, a.ObjectID))
	assert.Equal(t, 1, store.deleteCount(), "second delete must not reach the store")
}

func TestDeleteMedia_BlobFailure_IsOrphanNotError(t *testing.T) {
	c, store, repo, log := newTestCoordinator()
	ctx := context.Background()
	id := repo.create(models.Project{})

	a, err := c.UploadMedia(ctx, id, []byte("x"), "video/quicktime")
	require.NoError(t, err)
	store.failOn[a.ObjectID] = errors.New("timeout")

	require.NoError(t, c.DeleteMedia(ctx, id, a.ObjectID))

	p, _ := repo.get(id)
	assert.Empty(t, p.Media())
	require.Len(t, log.warns, 1)
	assert.Equal(t, OpDelete, log.warns[0]["op"])
	assert.Equal(t, "video", log.warns[0]["kind"])
}

func TestDeleteMedia_CanceledAfterMetadata_StillDeletesBlob(t *testing.T) {
	c, store, repo, _ := newTestCoordinator()
	id := repo.create(models.Project{})
	a, err := c.UploadMedia(context.Background(), id, []byte("x"), "image/png")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	repo.repoFn = func(context.Context) error {
		cancel()
		return nil
	}

	require.NoError(t, c.DeleteMedia(ctx, id, a.ObjectID))
	assert.Equal(t, 0, store.Len())
}

func TestUpdateComment(t *testing.T) {
	c, _, repo, _ := newTestCoordinator()
	ctx := context.Background()
	id := repo.create(models.Project{})
	a, err := c.UploadMedia(ctx, id, []byte("x"), "image/png")
	require.NoError(t, err)

	got, err := c.UpdateComment(ctx, id, a.ObjectID, "pothole filled")
	require.NoError(t, err)
	assert.Equal(t, "pothole filled", got.Comment)
	assert.Equal(t, a.ObjectID, got.ObjectID)
	assert.Equal(t, models.KindImage, got.Kind)

	_, err = c.UpdateComment(ctx, id, "missing", "x")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestUploadReport(t *testing.T) {
	c, store, repo, _ := newTestCoordinator()
	ctx := context.Background()
	id := repo.create(models.Project{})

	r, err := c.UploadReport(ctx, id, []byte("%PDF-1.4"), "application/pdf", "C:\\docs\\q1.pdf")
	require.NoError(t, err)
	assert.Equal(t, "q1.pdf", r.FileName)
	assert.NotZero(t, r.ID)
	assert.True(t, strings.HasPrefix(r.ObjectID, "project_reports/"))

	p, _ := repo.get(id)
	require.Len(t, p.Reports, 1)
	assert.Equal(t, *r, p.Reports[0])

	require.NoError(t, c.DeleteReport(ctx, id, r.ID))
	require.NoError(t, c.DeleteReport(ctx, id, r.ID))
	assert.Equal(t, 1, store.deleteCount())
	p, _ = repo.get(id)
	assert.Empty(t, p.Reports)
}

func TestUploadReport_Rejections(t *testing.T) {
	c, store, repo, _ := newTestCoordinator(WithPDFValidator(func([]byte) error {
		return common.Validationf("not a pdf")
	}))
	id := repo.create(models.Project{})

	_, err := c.UploadReport(context.Background(), id, []byte("x"), "image/png", "a.png")
	assert.ErrorIs(t, err, common.ErrInvalidContentType)

	_, err = c.UploadReport(context.Background(), id, []byte("x"), "application/pdf", "a.pdf")
	assert.ErrorIs(t, err, common.ErrValidation)

	assert.Equal(t, 0, store.uploads)
}

func TestUploadReport_AppendFails_Compensates(t *testing.T) {
	c, store, _, _ := newTestCoordinator()

	_, err := c.UploadReport(context.Background(), 42, []byte("%PDF"), "application/pdf", "r.pdf")
	require.ErrorIs(t, err, common.ErrorNotFound)
	assert.Equal(t, 1, store.deleteCount())
	assert.Equal(t, 0, store.Len())
}

func TestConcurrentAppends_NoLostUpdates(t *testing.T) {
	c, _, repo, _ := newTestCoordinator()
	id := repo.create(models.Project{})

	const n = 50
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ct := "image/png"
			if i%2 == 1 {
				ct = "video/mp4"
			}
			_, err := c.UploadMedia(context.Background(), id, []byte(fmt.Sprint(i)), ct)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	p, _ := repo.get(id)
	assert.Len(t, p.Media(), n)
	seen := map[string]bool{}
	for _, a := range p.Media() {
		assert.False(t, seen[a.ObjectID])
		seen[a.ObjectID] = true
	}
}

func TestDeleteProject_Cascade(t *testing.T) {
	c, store, repo, log := newTestCoordinator()
	ctx := context.Background()
	id := repo.create(models.Project{Title: "Bridge"})

	var objects []string
	for _, ct := range []string{"image/png", "image/jpeg", "image/gif", "video/mp4", "video/mpeg"} {
		a, err := c.UploadMedia(ctx, id, []byte("x"), ct)
		require.NoError(t, err)
		objects = append(objects, a.ObjectID)
	}
	r, err := c.UploadReport(ctx, id, []byte("%PDF"), "application/pdf", "r.pdf")
	require.NoError(t, err)
	objects = append(objects, r.ObjectID)

	store.failOn[objects[2]] = errors.New("boom")

	res, err := c.DeleteProject(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, 6, store.deleteCount())
	assert.Equal(t, 6, res.Attempted)
	require.Len(t, res.Orphans, 1)
	assert.Equal(t, objects[2], res.Orphans[0].ObjectID)
	assert.Equal(t, OpCascade, res.Orphans[0].Op)
	assert.Equal(t, 1, store.Len())
	assert.NotContains(t, repo.list(), id)

	ops := []any{}
	for _, w := range log.warns {
		ops = append(ops, w["op"])
	}
	assert.Contains(t, ops, OpCascade)
}

func TestDeleteProject_NotFound(t *testing.T) {
	c, store, _, _ := newTestCoordinator()

	_, err := c.DeleteProject(context.Background(), 7)
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.Equal(t, 0, store.deleteCount())
}

func TestUpdateFields(t *testing.T) {
	c, _, repo, _ := newTestCoordinator()
	ctx := context.Background()
	id := repo.create(models.Project{Title: "old"})

	title := "new"
	imgs := []models.Attachment{{ObjectID: "project_media/a.png", Kind: models.KindImage}}
	require.NoError(t, c.UpdateFields(ctx, id, models.ProjectPatch{Title: &title, Images: &imgs}))

	p, _ := repo.get(id)
	assert.Equal(t, "new", p.Title)
	assert.Equal(t, imgs, p.Images)

	bad := models.ProjectStatus("archived")
	assert.ErrorIs(t, c.UpdateFields(ctx, id, models.ProjectPatch{Status: &bad}), common.ErrValidation)
}

func TestUpdateFields_RejectsSharedOrMisfiledMedia(t *testing.T) {
	c, store, repo, _ := newTestCoordinator()
	ctx := context.Background()
	id := repo.create(models.Project{})

	a, err := c.UploadMedia(ctx, id, []byte("jpeg"), "image/jpeg")
	require.NoError(t, err)

	tests := []struct {
		name  string
		patch models.ProjectPatch
	}{
		{
			name: "same object in images and videos",
			patch: models.ProjectPatch{
				Images: &[]models.Attachment{*a},
				Videos: &[]models.Attachment{{ObjectID: a.ObjectID, Kind: models.KindVideo}},
			},
		},
		{
			name:  "image filed under videos",
			patch: models.ProjectPatch{Images: &[]models.Attachment{}, Videos: &[]models.Attachment{*a}},
		},
		{
			name:  "video kind in images",
			patch: models.ProjectPatch{Images: &[]models.Attachment{{ObjectID: a.ObjectID, Kind: models.KindVideo}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.UpdateFields(ctx, id, tt.patch)
			assert.ErrorIs(t, err, common.ErrValidation)
			assert.Equal(t, 0, repo.replaced, "repository must not be called")
		})
	}

	p, _ := repo.get(id)
	assert.Equal(t, []models.Attachment{*a}, p.Images)
	assert.Empty(t, p.Videos)
	_, _, ok := store.Get(a.ObjectID)
	assert.True(t, ok)
}

func TestUpdateFields_VideosCollideWithStoredImages(t *testing.T) {
	c, _, repo, _ := newTestCoordinator()
	ctx := context.Background()
	id := repo.create(models.Project{})

	a, err := c.UploadMedia(ctx, id, []byte("jpeg"), "image/jpeg")
	require.NoError(t, err)

	videos := []models.Attachment{{ObjectID: a.ObjectID, Kind: models.KindVideo}}
	err = c.UpdateFields(ctx, id, models.ProjectPatch{Videos: &videos})
	assert.ErrorIs(t, err, common.ErrValidation)

	p, _ := repo.get(id)
	assert.Equal(t, []models.Attachment{*a}, p.Images)
	assert.Empty(t, p.Videos)
}

func TestDeleteMedia_MissingProject(t *testing.T) {
	c, store, _, _ := newTestCoordinator()

	err := c.DeleteMedia(context.Background(), 42, "project_media/a.png")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.NotErrorIs(t, err, common.ErrAttachmentNotFound)
	assert.Equal(t, 0, store.deleteCount())
}

func TestDeleteReport_MissingProject(t *testing.T) {
	c, store, _, _ := newTestCoordinator()

	err := c.DeleteReport(context.Background(), 42, 7)
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.NotErrorIs(t, err, common.ErrReportNotFound)
	assert.Equal(t, 0, store.deleteCount())
}

func TestDeleteReport_Idempotent(t *testing.T) {
	c, store, repo, _ := newTestCoordinator()
	ctx := context.Background()
	id := repo.create(models.Project{})

	r, err := c.UploadReport(ctx, id, []byte("%PDF-1.4"), "application/pdf", "q1.pdf")
	require.NoError(t, err)

	require.NoError(t, c.DeleteReport(ctx, id, r.ID))
	require.NoError(t, c.DeleteReport(ctx, id, r.ID))
	assert.Equal(t, 1, store.deleteCount())
}

func TestNextReportID_Increasing(t *testing.T) {
	c, _, _, _ := newTestCoordinator()

	first := c.NextReportID()
	assert.Greater(t, c.NextReportID(), first)
}

func TestUpdateFields_ConcurrentLastWriterWins(t *testing.T) {
	c, _, repo, _ := newTestCoordinator()
	id := repo.create(models.Project{Title: "start"})

	titles := []string{"alpha", "beta"}
	var wg sync.WaitGroup
	for _, title := range titles {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, c.UpdateFields(context.Background(), id, models.ProjectPatch{Title: &title}))
		}()
	}
	wg.Wait()

	p, _ := repo.get(id)
	assert.Contains(t, titles, p.Title)
}

func TestRepoTimeout_IsStorageTimeout(t *testing.T) {
	c, store, repo, _ := newTestCoordinator(WithRepoTimeout(10 * time.Millisecond))
	id := repo.create(models.Project{})
	repo.repoFn = func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}

	_, err := c.UploadMedia(context.Background(), id, []byte("x"), "image/png")
	assert.ErrorIs(t, err, common.ErrStorageTimeout)
	assert.Equal(t, 0, store.Len(), "uploaded object compensated")
}

func TestRoadRepairScenario(t *testing.T) {
	c, _, repo, _ := newTestCoordinator()
	ctx := context.Background()
	id := repo.create(models.Project{Title: "Road Repair", Status: models.StatusOngoing, Constituency: "Ayawaso"})

	a, err := c.UploadMedia(ctx, id, []byte("jpeg"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, models.KindImage, a.Kind)
	assert.Equal(t, "", a.Comment)

	p, _ := repo.get(id)
	require.Len(t, p.Media(), 1)
	assert.Equal(t, *a, p.Media()[0])

	require.NoError(t, c.DeleteMedia(ctx, id, a.ObjectID))
	p, _ = repo.get(id)
	assert.Empty(t, p.Media())
}

func TestNewCoordinator_NilLogger(t *testing.T) {
	c := NewCoordinator(newSpyStore(), newFakeRepo(), nil)
	assert.IsType(t, logging.Nop{}, c.logger)
}
