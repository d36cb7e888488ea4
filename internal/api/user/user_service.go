package user

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/FACorreiaa/harunekki-api/internal/types"
)

var _ UserService = (*UserServiceImpl)(nil)

// UserService is the profile surface of the signed-in user.
type UserService interface {
	GetUserProfile(ctx context.Context, userID uuid.UUID) (*types.Profile, error)
	UpdateUserProfile(ctx context.Context, userID uuid.UUID, params types.UpdateProfileRequest) (*types.Profile, error)
	DeleteAccount(ctx context.Context, userID uuid.UUID) error
}

type UserServiceImpl struct {
	logger *slog.Logger
	repo   UserRepo
}

// NewUserService creates a new user service instance.
func NewUserService(repo UserRepo, logger *slog.Logger) *UserServiceImpl {
	return &UserServiceImpl{
		logger: logger,
		repo:   repo,
	}
}

// GetUserProfile creates the row on the first authenticated call, then reads it.
func (s *UserServiceImpl) GetUserProfile(ctx context.Context, userID uuid.UUID) (*types.Profile, error) {
	l := s.logger.With(slog.String("method", "GetUserProfile"), slog.String("userID", userID.String()))
	l.DebugContext(ctx, "Fetching user profile")

	if err := s.repo.EnsureUser(ctx, userID); err != nil {
		l.ErrorContext(ctx, "Failed to ensure user", slog.Any("error", err))
		return nil, fmt.Errorf("error ensuring user: %w", err)
	}
	profile, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to fetch user profile", slog.Any("error", err))
		return nil, fmt.Errorf("error fetching user profile: %w", err)
	}
	return profile, nil
}

// UpdateUserProfile validates before anything is written.
func (s *UserServiceImpl) UpdateUserProfile(ctx context.Context, userID uuid.UUID, params types.UpdateProfileRequest) (*types.Profile, error) {
	l := s.logger.With(slog.String("method", "UpdateUserProfile"), slog.String("userID", userID.String()))

	params.Name = strings.TrimSpace(params.Name)
	if err := params.Validate(); err != nil {
		l.WarnContext(ctx, "Rejected profile update", slog.Any("error", err))
		return nil, err
	}
	profile, err := s.repo.UpdateProfile(ctx, userID, params)
	if err != nil {
		l.ErrorContext(ctx, "Failed to update user profile", slog.Any("error", err))
		return nil, fmt.Errorf("error updating user profile: %w", err)
	}

	l.InfoContext(ctx, "User profile updated successfully")
	return profile, nil
}

func (s *UserServiceImpl) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	l := s.logger.With(slog.String("method", "DeleteAccount"), slog.String("userID", userID.String()))
	if err := s.repo.DeleteUser(ctx, userID); err != nil {
		l.ErrorContext(ctx, "Failed to delete account", slog.Any("error", err))
		return fmt.Errorf("error deleting account: %w", err)
	}
	l.InfoContext(ctx, "Account deleted")
	return nil
}
