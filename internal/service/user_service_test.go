package service

import (
	"context"
	"testing"

	"inkwell/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_UpdateProfile(t *testing.T) {
	t.Parallel()

	t.Run("invalid username rejected", func(t *testing.T) {
		t.Parallel()
		svc := NewUserService(noopUserRepo())
		_, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{UserID: 1, Username: "x"})
		assertValidationError(t, err)
	})

	t.Run("taken username conflicts", func(t *testing.T) {
		t.Parallel()
		userRepo := noopUserRepo()
		userRepo.getByUsernameFn = func(_ context.Context, username string) (*models.User, error) {
			return &models.User{ID: 99, Username: username}, nil
		}
		svc := NewUserService(userRepo)
		_, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{UserID: 1, Username: "taken_name"})
		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "CONFLICT", appErr.Code)
	})

	t.Run("bio too long rejected", func(t *testing.T) {
		t.Parallel()
		svc := NewUserService(noopUserRepo())
		long := make([]byte, 501)
		for i := range long {
			long[i] = 'a'
		}
		_, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{UserID: 1, Bio: string(long)})
		assertValidationError(t, err)
	})

	t.Run("updates persist", func(t *testing.T) {
		t.Parallel()
		var saved *models.User
		userRepo := noopUserRepo()
		userRepo.updateFn = func(_ context.Context, u *models.User) error {
			saved = u
			return nil
		}
		svc := NewUserService(userRepo)
		user, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{
			UserID:      1,
			DisplayName: "Quill",
			Bio:         "writes things",
		})
		require.NoError(t, err)
		require.NotNil(t, saved)
		assert.Equal(t, "Quill", user.DisplayName)
		assert.Equal(t, "writes things", user.Bio)
	})
}

func TestUserService_SetAdmin(t *testing.T) {
	t.Parallel()

	var saved *models.User
	userRepo := noopUserRepo()
	userRepo.updateFn = func(_ context.Context, u *models.User) error {
		saved = u
		return nil
	}
	svc := NewUserService(userRepo)
	user, err := svc.SetAdmin(context.Background(), 2, true)
	require.NoError(t, err)
	assert.True(t, user.IsAdmin)
	require.NotNil(t, saved)
	assert.True(t, saved.IsAdmin)
}
