package projects

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/dmitrijs2005/mpmonitor/internal/common"
	"github.com/dmitrijs2005/mpmonitor/internal/server/models"
)

// MemoryStore keeps projects in process memory. One mutex serializes every
// mutation, which makes appends atomic.
type MemoryStore struct {
	mu       sync.RWMutex
	projects map[int64]*models.Project
	nextID   int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{projects: map[int64]*models.Project{}}
}

func clone(p *models.Project) *models.Project {
	cp := *p
	cp.Images = slices.Clone(p.Images)
	cp.Videos = slices.Clone(p.Videos)
	cp.Reports = slices.Clone(p.Reports)
	if p.OwnerID != nil {
		owner := *p.OwnerID
		cp.OwnerID = &owner
	}
	return &cp
}

func (s *MemoryStore) find(id int64) (*models.Project, error) {
	p, ok := s.projects[id]
	if !ok {
		return nil, fmt.Errorf("project %d: %w", id, common.ErrorNotFound)
	}
	return p, nil
}

func (s *MemoryStore) Create(_ context.Context, p *models.Project) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ApplyDefaults()
	s.nextID++
	p.ID = s.nextID
	s.projects[p.ID] = clone(p)
	return clone(p), nil
}

func (s *MemoryStore) Get(_ context.Context, id int64) (*models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, err := s.find(id)
	if err != nil {
		return nil, err
	}
	return clone(p), nil
}

func (s *MemoryStore) List(_ context.Context) ([]*models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int64, 0, len(s.projects))
	for id := range s.projects {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	result := make([]*models.Project, 0, len(ids))
	for _, id := range ids {
		result = append(result, clone(s.projects[id]))
	}
	return result, nil
}

func (s *MemoryStore) AppendAttachment(_ context.Context, projectID int64, a models.Attachment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.find(projectID)
	if err != nil {
		return err
	}
	switch a.Kind {
	case models.KindImage:
		p.Images = append(p.Images, a)
	case models.KindVideo:
		p.Videos = append(p.Videos, a)
	default:
		return common.Validationf("unknown media kind %q", a.Kind)
	}
	return nil
}

func (s *MemoryStore) RemoveAttachment(_ context.Context, projectID int64, objectID string) (*models.Attachment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.find(projectID)
	if err != nil {
		return nil, err
	}
	return removeAttachment(p, objectID)
}

func (s *MemoryStore) UpdateAttachmentComment(_ context.Context, projectID int64, objectID, comment string) (*models.Attachment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.find(projectID)
	if err != nil {
		return nil, err
	}
	return setComment(p, objectID, comment)
}

func (s *MemoryStore) AppendReport(_ context.Context, projectID int64, r models.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.find(projectID)
	if err != nil {
		return err
	}
	p.Reports = append(p.Reports, r)
	return nil
}

func (s *MemoryStore) RemoveReport(_ context.Context, projectID, reportID int64) (*models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.find(projectID)
	if err != nil {
		return nil, err
	}
	return removeReport(p, reportID)
}

func (s *MemoryStore) ReplaceFields(_ context.Context, projectID int64, patch models.ProjectPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.find(projectID)
	if err != nil {
		return err
	}
	return patch.ApplyTo(p)
}

func (s *MemoryStore) Delete(_ context.Context, projectID int64) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.find(projectID)
	if err != nil {
		return nil, err
	}
	delete(s.projects, projectID)
	return p, nil
}
