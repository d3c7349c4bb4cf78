package users

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/mpmonitor/internal/common"
	"github.com/dmitrijs2005/mpmonitor/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository backs the in-memory database mode.
type MemoryRepository struct {
	mu     sync.RWMutex
	byName map[string]*models.User
	byID   map[string]*models.User
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byName: map[string]*models.User{}, byID: map[string]*models.User{}}
}

func (r *MemoryRepository) insert(user *models.User) {
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now().UTC()
	cp := *user
	r.byName[user.UserName] = &cp
	r.byID[user.ID] = &cp
}

func (r *MemoryRepository) Create(_ context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[user.UserName]; ok {
		return nil, common.ErrConflict
	}
	r.insert(user)
	return user, nil
}

func (r *MemoryRepository) CreateIfNotExists(_ context.Context, user *models.User) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[user.UserName]; ok {
		return false, nil
	}
	r.insert(user)
	return true, nil
}

func (r *MemoryRepository) GetUserByLogin(_ context.Context, userName string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byName[userName]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *MemoryRepository) GetUserByID(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}
