package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/spendtrack/internal/domain"
	apperrors "github.com/ledgerline/spendtrack/pkg/errors"
)

func newTestProfileService(userRepo *mockUserRepository) *ProfileService {
	return NewProfileService(userRepo, newTestEventProducer(), newTestLogger())
}

func TestGetProfile(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newTestProfileService(userRepo)
	ctx := context.Background()

	stored := &domain.User{ID: "u-1", Name: "John Doe", Email: "john@example.com"}
	userRepo.On("GetByID", ctx, "u-1").Return(stored, nil)

	user, err := svc.Get(ctx, "u-1")

	require.NoError(t, err)
	assert.Equal(t, stored, user)
}

func TestGetProfile_NotFound(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newTestProfileService(userRepo)
	ctx := context.Background()

	userRepo.On("GetByID", ctx, "u-404").Return(nil, apperrors.ErrNotFound)

	user, err := svc.Get(ctx, "u-404")

	assert.Nil(t, user)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUpdateInformation(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newTestProfileService(userRepo)
	ctx := context.Background()

	stored := &domain.User{ID: "u-1", Name: "John Doe", Email: "john@example.com"}
	userRepo.On("GetByID", ctx, "u-1").Return(stored, nil)
	userRepo.On("Update", ctx, mock.AnythingOfType("*domain.User")).Return(nil)

	user, err := svc.UpdateInformation(ctx, "u-1", UpdateInformationInput{
		FirstName: "Jane",
		LastName:  "Smith",
		Phone:     "555-0199",
	})

	require.NoError(t, err)
	assert.Equal(t, "Jane Smith", user.Name)
	assert.Equal(t, "555-0199", user.Phone)
	assert.NotZero(t, user.UpdatedAt)
	userRepo.AssertExpectations(t)
}

func TestUpdateInformation_FirstNameOnly(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newTestProfileService(userRepo)
	ctx := context.Background()

	stored := &domain.User{ID: "u-1", Name: "John Doe"}
	userRepo.On("GetByID", ctx, "u-1").Return(stored, nil)
	userRepo.On("Update", ctx, mock.AnythingOfType("*domain.User")).Return(nil)

	user, err := svc.UpdateInformation(ctx, "u-1", UpdateInformationInput{FirstName: "Jane"})

	require.NoError(t, err)
	assert.Equal(t, "Jane", user.Name)
}

func TestSetAvatar(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newTestProfileService(userRepo)
	ctx := context.Background()

	stored := &domain.User{ID: "u-1", Name: "John Doe"}
	userRepo.On("GetByID", ctx, "u-1").Return(stored, nil)
	userRepo.On("Update", ctx, mock.AnythingOfType("*domain.User")).Return(nil)

	user, err := svc.SetAvatar(ctx, "u-1", "http://localhost:8080/uploads/u-1.png")

	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/uploads/u-1.png", user.AvatarURL)
	userRepo.AssertExpectations(t)
}
