package users

import (
	"context"

	"github.com/dmitrijs2005/mpmonitor/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	CreateIfNotExists(ctx context.Context, user *models.User) (bool, error)
	GetUserByLogin(ctx context.Context, userName string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}
