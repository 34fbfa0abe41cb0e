package service

import (
	"testing"
	"time"

	"github.com/beforepeak/beforepeak-backend/internal/app/model"
	"github.com/beforepeak/beforepeak-backend/internal/app/repository"
	"github.com/beforepeak/beforepeak-backend/internal/db"
	"github.com/beforepeak/beforepeak-backend/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupAuthServiceTest(t *testing.T) (AuthService, *gorm.DB) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	userRepo := repository.NewUserRepository(testDB)
	authService := NewAuthService(
		userRepo,
		"test-jwt-secret",
		15*time.Minute,
		7*24*time.Hour,
	)

	return authService, testDB
}

func TestAuthService_Register(t *testing.T) {
	authService, _ := setupAuthServiceTest(t)

	user, tokens, err := authService.Register(RegisterInput{
		Email:       "test@example.com",
		Password:    "password123",
		DisplayName: "Test User",
		Phone:       "+852 9000 0000",
	})
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, model.RoleCustomer, user.Role)
	assert.Equal(t, "en", user.PreferredLanguage)
	assert.Len(t, user.ReferralCode, 8)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)

	// Duplicate email is rejected
	_, _, err = authService.Register(RegisterInput{
		Email:       "test@example.com",
		Password:    "password456",
		DisplayName: "Another User",
	})
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
}

func TestAuthService_Register_WithReferral(t *testing.T) {
	authService, _ := setupAuthServiceTest(t)

	referrer, _, err := authService.Register(RegisterInput{
		Email:       "referrer@example.com",
		Password:    "password123",
		DisplayName: "Referrer",
	})
	require.NoError(t, err)

	referred, _, err := authService.Register(RegisterInput{
		Email:        "referred@example.com",
		Password:     "password123",
		DisplayName:  "Referred",
		ReferralCode: referrer.ReferralCode,
	})
	require.NoError(t, err)
	require.NotNil(t, referred.ReferredBy)
	assert.Equal(t, referrer.ID, *referred.ReferredBy)
}

func TestAuthService_Register_BadReferralCode(t *testing.T) {
	authService, _ := setupAuthServiceTest(t)

	_, _, err := authService.Register(RegisterInput{
		Email:        "test@example.com",
		Password:     "password123",
		DisplayName:  "Test User",
		ReferralCode: "NOPE1234",
	})
	assert.ErrorIs(t, err, ErrInvalidReferralCode)
}

func TestAuthService_Login(t *testing.T) {
	authService, testDB := setupAuthServiceTest(t)

	registered, _, err := authService.Register(RegisterInput{
		Email:       "test@example.com",
		Password:    "password123",
		DisplayName: "Test User",
	})
	require.NoError(t, err)

	user, tokens, err := authService.Login("test@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.NotEmpty(t, tokens.AccessToken)

	_, _, err = authService.Login("test@example.com", "wrongpassword")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = authService.Login("nobody@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// Deactivated accounts cannot sign in
	testDB.Model(&model.User{}).Where("id = ?", registered.ID).
		Update("is_active", false)
	_, _, err = authService.Login("test@example.com", "password123")
	assert.ErrorIs(t, err, ErrAccountDeactivated)
}

func TestAuthService_RefreshTokens(t *testing.T) {
	authService, _ := setupAuthServiceTest(t)

	_, tokens, err := authService.Register(RegisterInput{
		Email:       "test@example.com",
		Password:    "password123",
		DisplayName: "Test User",
	})
	require.NoError(t, err)

	refreshed, err := authService.RefreshTokens(tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.NotEmpty(t, refreshed.RefreshToken)

	// The new access token carries valid claims
	claims, err := util.ValidateToken(refreshed.AccessToken, "test-jwt-secret")
	require.NoError(t, err)
	assert.Equal(t, "test@example.com", claims.Email)

	_, err = authService.RefreshTokens("not-a-token")
	assert.Error(t, err)
}

func TestAuthService_UpdateProfile(t *testing.T) {
	authService, _ := setupAuthServiceTest(t)

	user, _, err := authService.Register(RegisterInput{
		Email:       "test@example.com",
		Password:    "password123",
		DisplayName: "Test User",
	})
	require.NoError(t, err)

	name := "Renamed"
	lang := "zh-HK"
	updated, err := authService.UpdateProfile(user.ID, UpdateProfileInput{
		DisplayName:       &name,
		PreferredLanguage: &lang,
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.DisplayName)
	assert.Equal(t, "zh-HK", updated.PreferredLanguage)

	// Untouched fields keep their values
	assert.Equal(t, "test@example.com", updated.Email)
}
