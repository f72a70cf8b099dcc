package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ledgerline/spendtrack/internal/domain"
	"github.com/ledgerline/spendtrack/internal/event"
	"github.com/ledgerline/spendtrack/internal/repository"
)

// ProfileService implements the current-user profile operations.
type ProfileService struct {
	userRepo repository.UserRepository
	producer *event.Producer
	logger   *slog.Logger
}

// NewProfileService creates a new profile service.
func NewProfileService(
	userRepo repository.UserRepository,
	producer *event.Producer,
	logger *slog.Logger,
) *ProfileService {
	return &ProfileService{
		userRepo: userRepo,
		producer: producer,
		logger:   logger,
	}
}

// UpdateInformationInput holds the editable profile fields.
type UpdateInformationInput struct {
	FirstName string
	LastName  string
	Phone     string
}

// Get returns the user's profile.
func (s *ProfileService) Get(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return user, nil
}

// UpdateInformation updates the user's display name and phone number.
func (s *ProfileService) UpdateInformation(ctx context.Context, userID string, input UpdateInformationInput) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user for update: %w", err)
	}

	name := input.FirstName
	if input.LastName != "" {
		name += " " + input.LastName
	}
	user.Name = name
	user.Phone = input.Phone
	user.UpdatedAt = time.Now().UTC()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	if err := s.producer.PublishUserUpdated(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.updated event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "profile information updated",
		slog.String("user_id", user.ID),
	)

	return user, nil
}

// SetAvatar stores the URL of a freshly uploaded avatar on the profile.
// The file itself is written by the HTTP layer; the service only records
// where it lives.
func (s *ProfileService) SetAvatar(ctx context.Context, userID, avatarURL string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user for avatar update: %w", err)
	}

	user.AvatarURL = avatarURL
	user.UpdatedAt = time.Now().UTC()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update avatar: %w", err)
	}

	s.logger.InfoContext(ctx, "avatar updated",
		slog.String("user_id", user.ID),
	)

	return user, nil
}
