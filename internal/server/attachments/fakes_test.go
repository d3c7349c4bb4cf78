package attachments

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/dmitrijs2005/mpmonitor/internal/common"
	"github.com/dmitrijs2005/mpmonitor/internal/logging"
	"github.com/dmitrijs2005/mpmonitor/internal/server/blobstore"
	"github.com/dmitrijs2005/mpmonitor/internal/server/models"
)

// spyStore wraps a memory store and counts calls.
type spyStore struct {
	*blobstore.MemoryStore

	mu        sync.Mutex
	uploads   int
	deletes   []string
	uploadErr error
	failOn    map[string]error
	uploadFn  func(ctx context.Context) error
}

func newSpyStore() *spyStore {
	return &spyStore{MemoryStore: blobstore.NewMemoryStore("http://blob"), failOn: map[string]error{}}
}

func (s *spyStore) Upload(ctx context.Context, data []byte, contentType, folder string) (blobstore.ObjectRef, error) {
	s.mu.Lock()
	s.uploads++
	err := s.uploadErr
	fn := s.uploadFn
	s.mu.Unlock()
	if fn != nil {
		if err := fn(ctx); err != nil {
			return blobstore.ObjectRef{}, err
		}
	}
	if err != nil {
		return blobstore.ObjectRef{}, err
	}
	return s.MemoryStore.Upload(ctx, data, contentType, folder)
}

func (s *spyStore) Delete(ctx context.Context, objectID string, kind models.MediaKind) error {
	s.mu.Lock()
	s.deletes = append(s.deletes, objectID)
	err := s.failOn[objectID]
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.MemoryStore.Delete(ctx, objectID, kind)
}

func (s *spyStore) deleteCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.deletes)
}

// fakeRepo is a map-backed Repository guarded by one mutex, which makes
// appends atomic.
type fakeRepo struct {
	mu        sync.Mutex
	projects  map[int64]*models.Project
	nextID    int64
	appendErr error
	repoFn    func(ctx context.Context) error
	replaced  int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{projects: map[int64]*models.Project{}}
}

func (r *fakeRepo) create(p models.Project) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	p.ID = r.nextID
	p.ApplyDefaults()
	r.projects[p.ID] = &p
	return p.ID
}

func (r *fakeRepo) get(id int64) (*models.Project, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok {
		return nil, false
	}
	cp := *p
	cp.Images = slices.Clone(p.Images)
	cp.Videos = slices.Clone(p.Videos)
	cp.Reports = slices.Clone(p.Reports)
	return &cp, true
}

func (r *fakeRepo) list() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]int64, 0, len(r.projects))
	for id := range r.projects {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (r *fakeRepo) lookup(ctx context.Context, id int64) (*models.Project, error) {
	if r.repoFn != nil {
		if err := r.repoFn(ctx); err != nil {
			return nil, err
		}
	}
	p, ok := r.projects[id]
	if !ok {
		return nil, fmt.Errorf("project %d: %w", id, common.ErrorNotFound)
	}
	return p, nil
}

func (r *fakeRepo) AppendAttachment(ctx context.Context, id int64, a models.Attachment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.appendErr != nil {
		return r.appendErr
	}
	p, err := r.lookup(ctx, id)
	if err != nil {
		return err
	}
	if a.Kind == models.KindVideo {
		p.Videos = append(p.Videos, a)
	} else {
		p.Images = append(p.Images, a)
	}
	return nil
}

func (r *fakeRepo) RemoveAttachment(ctx context.Context, id int64, objectID string) (*models.Attachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, err := r.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, list := range []*[]models.Attachment{&p.Images, &p.Videos} {
		if i := slices.IndexFunc(*list, func(a models.Attachment) bool { return a.ObjectID == objectID }); i >= 0 {
			a := (*list)[i]
			*list = slices.Delete(*list, i, i+1)
			return &a, nil
		}
	}
	return nil, common.ErrAttachmentNotFound
}

func (r *fakeRepo) UpdateAttachmentComment(ctx context.Context, id int64, objectID, comment string) (*models.Attachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, err := r.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, list := range [][]models.Attachment{p.Images, p.Videos} {
		for i := range list {
			if list[i].ObjectID == objectID {
				list[i].Comment = comment
				a := list[i]
				return &a, nil
			}
		}
	}
	return nil, common.ErrAttachmentNotFound
}

func (r *fakeRepo) AppendReport(ctx context.Context, id int64, rep models.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.appendErr != nil {
		return r.appendErr
	}
	p, err := r.lookup(ctx, id)
	if err != nil {
		return err
	}
	p.Reports = append(p.Reports, rep)
	return nil
}

func (r *fakeRepo) RemoveReport(ctx context.Context, id int64, reportID int64) (*models.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, err := r.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	i := slices.IndexFunc(p.Reports, func(rep models.Report) bool { return rep.ID == reportID })
	if i < 0 {
		return nil, common.ErrReportNotFound
	}
	rep := p.Reports[i]
	p.Reports = slices.Delete(p.Reports, i, i+1)
	return &rep, nil
}

func (r *fakeRepo) ReplaceFields(ctx context.Context, id int64, patch models.ProjectPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, err := r.lookup(ctx, id)
	if err != nil {
		return err
	}
	r.replaced++
	return patch.ApplyTo(p)
}

func (r *fakeRepo) Delete(ctx context.Context, id int64) (*models.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, err := r.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	delete(r.projects, id)
	return p, nil
}

// recordingLogger keeps WARN records.
type recordingLogger struct {
	logging.Nop
	mu    sync.Mutex
	warns []map[string]any
}

func (l *recordingLogger) Warn(_ context.Context, msg string, args ...any) {
	rec := map[string]any{"msg": msg}
	for i := 0; i+1 < len(args); i += 2 {
		rec[fmt.Sprint(args[i])] = args[i+1]
	}
	l.mu.Lock()
	l.warns = append(l.warns, rec)
	l.mu.Unlock()
}

func (l *recordingLogger) With(...any) logging.Logger { return l }

type sinkFunc func(ctx context.Context, w OrphanWarning) error

func (f sinkFunc) Enqueue(ctx context.Context, w OrphanWarning) error { return f(ctx, w) }
