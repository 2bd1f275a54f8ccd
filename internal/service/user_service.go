package service

import (
	"context"

	"marketplace-service/internal/apperr"
	"marketplace-service/internal/models"
	"marketplace-service/internal/repository"
	"marketplace-service/internal/util"

	"go.uber.org/zap"
)

// UserService keeps local user rows in step with the identity provider
type UserService struct {
	repo         repository.Repository
	defaultLimit int
	logger       *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(repo repository.Repository, defaultLimit int) *UserService {
	return &UserService{
		repo:         repo,
		defaultLimit: defaultLimit,
		logger:       util.GetLogger(),
	}
}

// EnsureUser creates or refreshes the local row for an authenticated identity.
// A profile name set locally is kept.
func (s *UserService) EnsureUser(ctx context.Context, identity *models.User) (*models.User, error) {
	existing, err := s.repo.GetUserByID(ctx, identity.ID)
	if err == nil && existing.Email == identity.Email && existing.Role == identity.Role {
		return existing, nil
	}
	if err != nil && !apperr.Is(err, apperr.KindNotFound) {
		return nil, err
	}

	user := *identity
	if err := s.repo.UpsertUser(ctx, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserService) GetProfile(ctx context.Context, userID int64) (*models.User, error) {
	return s.repo.GetUserByID(ctx, userID)
}

func (s *UserService) UpdateProfile(ctx context.Context, userID int64, input models.ProfileInput) (*models.User, error) {
	if err := models.Validate(&input); err != nil {
		return nil, err
	}
	return s.repo.UpdateUserProfile(ctx, userID, input)
}

// ListUsers is an admin listing of all users
func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	limit, offset = Page(limit, offset, s.defaultLimit)
	return s.repo.ListUsers(ctx, limit, offset)
}

// DeleteUser removes a user together with their shop, cart, follows and
// reviews. Users with orders cannot be deleted.
func (s *UserService) DeleteUser(ctx context.Context, adminID, userID int64) error {
	if adminID == userID {
		return apperr.BadRequest("admins cannot delete themselves")
	}
	if err := s.repo.DeleteUser(ctx, userID); err != nil {
		return err
	}
	s.logger.Info("User deleted", zap.Int64("user_id", userID), zap.Int64("admin_id", adminID))
	return nil
}
