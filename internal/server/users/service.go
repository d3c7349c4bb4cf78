// Package users handles account login, logout, registration and the admin
// bootstrap.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/mpmonitor/internal/common"
	"github.com/dmitrijs2005/mpmonitor/internal/logging"
	"github.com/dmitrijs2005/mpmonitor/internal/server/auth"
	"github.com/dmitrijs2005/mpmonitor/internal/server/config"
	"github.com/dmitrijs2005/mpmonitor/internal/server/models"
	"github.com/dmitrijs2005/mpmonitor/internal/server/repositories/users"
	"golang.org/x/crypto/bcrypt"
)

// Token is an issued access token.
type Token struct {
	AccessToken string
	ExpiresAt   time.Time
	Principal   auth.Principal
}

type Service struct {
	repo                        users.Repository
	revoker                     auth.Revoker
	authz                       auth.Authorizer
	logger                      logging.Logger
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
	bcryptCost                  int
}

func NewService(repo users.Repository, revoker auth.Revoker, authz auth.Authorizer, cfg *config.Config, logger logging.Logger) *Service {
	return &Service{
		repo:                        repo,
		revoker:                     revoker,
		authz:                       authz,
		logger:                      logger.With("module", "users"),
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
		bcryptCost:                  bcrypt.DefaultCost,
	}
}

func validRole(role string) bool {
	return role == models.RoleAdmin || role == models.RoleMP
}

func (s *Service) newUser(username, password, role string) (*models.User, error) {
	username = strings.TrimSpace(username)
	switch {
	case username == "":
		return nil, common.Validationf("username is required")
	case password == "":
		return nil, common.Validationf("password is required")
	case role == "":
		return nil, common.Validationf("role is required")
	case !validRole(role):
		return nil, common.Validationf("unknown role %q", role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return &models.User{UserName: username, PasswordHash: hash, Role: role}, nil
}

// Register creates an account. Only admins may register users.
func (s *Service) Register(ctx context.Context, principal auth.Principal, username, password, role string) (*models.User, error) {
	if err := auth.Check(s.authz, principal, auth.ActionRegister, nil); err != nil {
		return nil, err
	}

	user, err := s.newUser(username, password, role)
	if err != nil {
		return nil, err
	}

	user, err = s.repo.Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID, "username", user.UserName, "role", user.Role)
	return user, nil
}

// EnsureAdmin creates the bootstrap account unless the username exists.
func (s *Service) EnsureAdmin(ctx context.Context, username, password, role string) (bool, error) {
	if role == "" {
		role = models.RoleAdmin
	}
	user, err := s.newUser(username, password, role)
	if err != nil {
		return false, err
	}
	created, err := s.repo.CreateIfNotExists(ctx, user)
	if err != nil {
		return false, fmt.Errorf("error creating admin: %w", err)
	}
	return created, nil
}

// Login checks the password and issues an access token. Unknown users and
// wrong passwords both yield common.ErrorUnauthorized.
func (s *Service) Login(ctx context.Context, username, password string) (*Token, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, common.Validationf("username and password are required")
	}

	user, err := s.repo.GetUserByLogin(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword(user.PasswordHash, []byte(password)); err != nil {
		return nil, common.ErrorUnauthorized
	}

	p := auth.Principal{UserID: user.ID, Username: user.UserName, Role: user.Role}
	token, err := auth.GenerateToken(p, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	s.logger.Info(ctx, "user logged in", "user_id", user.ID)
	return &Token{AccessToken: token, ExpiresAt: time.Now().Add(s.accessTokenValidityDuration), Principal: p}, nil
}

// Authenticate verifies a bearer token and checks it has not been revoked.
func (s *Service) Authenticate(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := auth.ParseToken(token, s.jwtSecret)
	if err != nil {
		return nil, err
	}

	revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, common.ErrTokenRevoked
	}
	return claims, nil
}

// Logout revokes the token until it would have expired.
func (s *Service) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims.ExpiresAt == nil {
		return common.ErrInvalidToken
	}
	if err := s.revoker.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return err
	}
	s.logger.Info(ctx, "user logged out", "user_id", claims.UserID)
	return nil
}
