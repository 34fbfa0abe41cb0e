package controller

import (
	stderrors "errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/beforepeak/beforepeak-backend/internal/app/model"
	"github.com/beforepeak/beforepeak-backend/internal/app/service"
	"github.com/beforepeak/beforepeak-backend/internal/errors"
	"github.com/beforepeak/beforepeak-backend/internal/middleware"
)

type AuthController struct {
	authService  service.AuthService
	accessExpiry time.Duration
}

func NewAuthController(authService service.AuthService, accessExpiry time.Duration) *AuthController {
	return &AuthController{
		authService:  authService,
		accessExpiry: accessExpiry,
	}
}

type RegisterRequest struct {
	Email             string `json:"email" binding:"required,email"`
	Password          string `json:"password" binding:"required,min=8"`
	DisplayName       string `json:"display_name" binding:"required"`
	Phone             string `json:"phone"`
	PreferredLanguage string `json:"preferred_language"`
	ReferralCode      string `json:"referral_code"`
	Role              string `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type UpdateProfileRequest struct {
	DisplayName       *string `json:"display_name"`
	Phone             *string `json:"phone"`
	PreferredLanguage *string `json:"preferred_language"`
	FavoriteDistrict  *string `json:"favorite_district"`
	AvatarURL         *string `json:"avatar_url"`
}

// Register creates a new account
// POST /api/v1/auth/register
func (ctrl *AuthController) Register(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.BadRequest(c, errors.ValidationInvalidInput, err.Error())
		return
	}

	// Owners and admins are provisioned internally, never self-registered.
	role := model.RoleCustomer
	if req.Role == string(model.RoleOwner) {
		role = model.RoleOwner
	}

	user, tokens, err := ctrl.authService.Register(service.RegisterInput{
		Email:             req.Email,
		Password:          req.Password,
		DisplayName:       req.DisplayName,
		Phone:             req.Phone,
		PreferredLanguage: req.PreferredLanguage,
		ReferralCode:      req.ReferralCode,
		Role:              role,
	})
	if err != nil {
		switch {
		case stderrors.Is(err, service.ErrEmailAlreadyExists):
			errors.Conflict(c, errors.AuthEmailAlreadyExists, "An account with this email already exists")
		case stderrors.Is(err, service.ErrInvalidReferralCode):
			errors.BadRequest(c, errors.ValidationInvalidInput, "Referral code not recognized")
		default:
			log.Error("Registration failed", err, map[string]interface{}{
				"email": req.Email,
			})
			errors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user":   user,
		"tokens": tokens,
	})
}

// Login authenticates and returns a token pair
// POST /api/v1/auth/login
func (ctrl *AuthController) Login(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.BadRequest(c, errors.ValidationInvalidInput, err.Error())
		return
	}

	user, tokens, err := ctrl.authService.Login(req.Email, req.Password)
	if err != nil {
		switch {
		case stderrors.Is(err, service.ErrInvalidCredentials):
			errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthInvalidCredentials, "Invalid email or password")
		case stderrors.Is(err, service.ErrAccountDeactivated):
			errors.RespondWithError(c, http.StatusForbidden, errors.AuthAccountDeactivated, "This account has been deactivated")
		default:
			log.Error("Login failed", err, map[string]interface{}{
				"email": req.Email,
			})
			errors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":   user,
		"tokens": tokens,
	})
}

// Logout blacklists the current access token
// POST /api/v1/auth/logout
func (ctrl *AuthController) Logout(c *gin.Context) {
	token, exists := middleware.GetToken(c)
	if !exists {
		errors.Unauthorized(c, "")
		return
	}

	if err := ctrl.authService.Logout(token, ctrl.accessExpiry); err != nil {
		errors.InternalError(c, "Failed to log out")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out",
	})
}

// Refresh exchanges a refresh token for a new token pair
// POST /api/v1/auth/refresh
func (ctrl *AuthController) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.BadRequest(c, errors.ValidationInvalidInput, err.Error())
		return
	}

	tokens, err := ctrl.authService.RefreshTokens(req.RefreshToken)
	if err != nil {
		errors.RespondWithError(c, http.StatusUnauthorized, errors.AuthTokenInvalid, "Invalid refresh token")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"tokens": tokens,
	})
}

// GetProfile returns the authenticated user's profile
// GET /api/v1/auth/me
func (ctrl *AuthController) GetProfile(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		errors.Unauthorized(c, "")
		return
	}

	user, err := ctrl.authService.GetUserByID(userID)
	if err != nil {
		if stderrors.Is(err, service.ErrUserNotFound) {
			errors.NotFound(c, errors.ResourceNotFound, "User not found")
			return
		}
		errors.InternalError(c, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user": user,
	})
}

// UpdateProfile updates the authenticated user's profile
// PATCH /api/v1/auth/me
func (ctrl *AuthController) UpdateProfile(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		errors.Unauthorized(c, "")
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.BadRequest(c, errors.ValidationInvalidInput, err.Error())
		return
	}

	user, err := ctrl.authService.UpdateProfile(userID, service.UpdateProfileInput{
		DisplayName:       req.DisplayName,
		Phone:             req.Phone,
		PreferredLanguage: req.PreferredLanguage,
		FavoriteDistrict:  req.FavoriteDistrict,
		AvatarURL:         req.AvatarURL,
	})
	if err != nil {
		if stderrors.Is(err, service.ErrUserNotFound) {
			errors.NotFound(c, errors.ResourceNotFound, "User not found")
			return
		}
		errors.InternalError(c, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user": user,
	})
}

// GetCredits returns the user's account-credit history
// GET /api/v1/auth/me/credits
func (ctrl *AuthController) GetCredits(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		errors.Unauthorized(c, "")
		return
	}

	credits, err := ctrl.authService.GetAccountCredits(userID)
	if err != nil {
		errors.InternalError(c, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"credits": credits,
		"count":   len(credits),
	})
}
