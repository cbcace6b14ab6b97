package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/bizdirectory-backend/internal/app/model"
	"github.com/ikkim/bizdirectory-backend/internal/app/service"
	apperrors "github.com/ikkim/bizdirectory-backend/internal/errors"
	"github.com/ikkim/bizdirectory-backend/internal/middleware"
)

type AuthController struct {
	authService          service.AuthService
	passwordResetService service.PasswordResetService
}

func NewAuthController(authService service.AuthService, passwordResetService service.PasswordResetService) *AuthController {
	return &AuthController{
		authService:          authService,
		passwordResetService: passwordResetService,
	}
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required,username"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name"`
	Phone    string `json:"phone" binding:"omitempty,phone"`
}

type LoginRequest struct {
	Login    string `json:"login" binding:"required"` // email or username
	Password string `json:"password" binding:"required"`
}

type TokenRequest struct {
	Token string `json:"token" binding:"required"`
}

type EmailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type UpdateProfileRequest struct {
	Name         *string `json:"name"`
	Phone        *string `json:"phone" binding:"omitempty,phone"`
	ProfileImage *string `json:"profile_image"`
}

func userResponse(user *model.User) gin.H {
	return gin.H{
		"id":            user.ID,
		"username":      user.Username,
		"email":         user.Email,
		"name":          user.Name,
		"phone":         user.Phone,
		"profile_image": user.ProfileImage,
		"role":          user.Role,
		"is_verified":   user.IsVerified,
	}
}

// Register creates an unverified account and emails a verification link.
// POST /api/v1/auth/register
func (ctrl *AuthController) Register(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := ctrl.authService.Register(c.Request.Context(), service.UserRegistrationInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
		Phone:    req.Phone,
	})
	if err != nil {
		respondError(c, log, err, "register user", map[string]interface{}{"email": req.Email})
		return
	}

	log.Info("User registered successfully", map[string]interface{}{
		"user_id": user.ID,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message": "Registration successful, check your email to verify the account",
		"user":    userResponse(user),
	})
}

// VerifyEmail consumes a verification token.
// POST /api/v1/auth/verify-email
func (ctrl *AuthController) VerifyEmail(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req TokenRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := ctrl.authService.VerifyEmail(c.Request.Context(), req.Token)
	if err != nil {
		respondError(c, log, err, "verify email", nil)
		return
	}

	log.Info("Email verified", map[string]interface{}{"user_id": user.ID})
	c.JSON(http.StatusOK, gin.H{
		"message": "Email verified",
		"user":    userResponse(user),
	})
}

// ResendVerification always answers 200 for unknown addresses.
// POST /api/v1/auth/resend-verification
func (ctrl *AuthController) ResendVerification(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req EmailRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := ctrl.authService.ResendVerification(c.Request.Context(), req.Email); err != nil {
		respondError(c, log, err, "resend verification", map[string]interface{}{"email": req.Email})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "If the account exists and is unverified, a new link has been sent",
	})
}

// Login handles user login
// POST /api/v1/auth/login
func (ctrl *AuthController) Login(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	user, tokens, err := ctrl.authService.Login(c.Request.Context(), req.Login, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			log.Warn("Login failed: invalid credentials", map[string]interface{}{
				"login": req.Login,
			})
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthInvalidCredentials, "invalid login or password")
			return
		}
		respondError(c, log, err, "login", map[string]interface{}{"login": req.Login})
		return
	}

	log.Info("Login successful", map[string]interface{}{
		"user_id": user.ID,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    userResponse(user),
		"tokens":  tokens,
	})
}

// Refresh exchanges a refresh token for a new pair.
// POST /api/v1/auth/refresh
func (ctrl *AuthController) Refresh(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req RefreshTokenRequest
	if !bindJSON(c, &req) {
		return
	}

	tokens, err := ctrl.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		log.Warn("Token refresh failed", map[string]interface{}{"error": err.Error()})
		apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenInvalid, "refresh token is invalid or expired")
		return
	}

	c.JSON(http.StatusOK, gin.H{"tokens": tokens})
}

// Logout revokes the presented access token.
// POST /api/v1/auth/logout
func (ctrl *AuthController) Logout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	if err := ctrl.authService.Logout(c.Request.Context(), middleware.GetToken(c)); err != nil {
		respondError(c, log, err, "logout", nil)
		return
	}

	userID, _ := middleware.GetUserID(c)
	log.Info("User logged out", map[string]interface{}{"user_id": userID})
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// GetMe returns current user information
// GET /api/v1/auth/me
func (ctrl *AuthController) GetMe(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	user, err := ctrl.authService.GetMe(c.Request.Context(), userID)
	if err != nil {
		respondError(c, log, err, "get user", map[string]interface{}{"user_id": userID})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": userResponse(user)})
}

// UpdateMe updates current user's profile
// PUT /api/v1/auth/me
func (ctrl *AuthController) UpdateMe(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, exists := middleware.GetUserID(c)
	if !exists {
		apperrors.Unauthorized(c, "")
		return
	}

	var req UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := ctrl.authService.UpdateProfile(c.Request.Context(), userID, service.ProfileUpdate{
		Name:         req.Name,
		Phone:        req.Phone,
		ProfileImage: req.ProfileImage,
	})
	if err != nil {
		respondError(c, log, err, "update profile", map[string]interface{}{"user_id": userID})
		return
	}

	log.Info("User profile updated successfully", map[string]interface{}{
		"user_id": user.ID,
	})
	c.JSON(http.StatusOK, gin.H{
		"message": "Profile updated successfully",
		"user":    userResponse(user),
	})
}

// ForgotPassword handles password reset requests
// POST /api/v1/auth/forgot-password
func (ctrl *AuthController) ForgotPassword(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req EmailRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := ctrl.passwordResetService.RequestReset(c.Request.Context(), req.Email); err != nil {
		log.Error("Failed to process password reset request", err, map[string]interface{}{
			"email": req.Email,
		})
		apperrors.InternalError(c, "password reset request failed")
		return
	}

	// Same reply for unknown addresses
	c.JSON(http.StatusOK, gin.H{
		"message": "If the email exists, a password reset link has been sent",
	})
}

// ResetPassword handles password reset with token
// POST /api/v1/auth/reset-password
func (ctrl *AuthController) ResetPassword(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req ResetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := ctrl.passwordResetService.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		respondError(c, log, err, "reset password", nil)
		return
	}

	log.Info("Password reset successful")
	c.JSON(http.StatusOK, gin.H{"message": "Password reset successful"})
}
