package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"messenger-service/internal/auth"
	"messenger-service/internal/mediastore"
	"messenger-service/internal/middleware"
	"messenger-service/internal/models"
	"messenger-service/internal/repositories"
	"messenger-service/internal/telemetry"
)

// AuthHandler manages account endpoints.
type AuthHandler struct {
	users   repositories.UserRepository
	tokens  *auth.TokenService
	media   mediastore.Store
	emitter *telemetry.AuditEmitter
	log     *zap.Logger
}

// NewAuthHandler builds an AuthHandler.
func NewAuthHandler(users repositories.UserRepository, tokens *auth.TokenService, media mediastore.Store, emitter *telemetry.AuditEmitter, log *zap.Logger) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens, media: media, emitter: emitter, log: log}
}

// Signup creates an account and issues a token.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req struct {
		FullName string `json:"fullName" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=6"`
		Bio      string `json:"bio" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "missing required fields"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "could not create account"})
		return
	}

	user, err := h.users.Create(c.Request.Context(), req.FullName, req.Email, hash, req.Bio)
	if err != nil {
		if errors.Is(err, repositories.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"success": false, "message": "account already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "could not create account"})
		return
	}

	token, err := h.tokens.Mint(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "could not issue token"})
		return
	}

	h.emitter.Emit(c.Request.Context(), "INFO", "signup", requestIDFromContext(c), &user.ID)
	c.JSON(http.StatusCreated, gin.H{"success": true, "userData": user, "token": token, "message": "account created"})
}

// Login verifies credentials and issues a token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "missing required fields"})
		return
	}

	user, err := h.users.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "login failed"})
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid credentials"})
		return
	}

	token, err := h.tokens.Mint(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "could not issue token"})
		return
	}

	h.emitter.Emit(c.Request.Context(), "INFO", "login", requestIDFromContext(c), &user.ID)
	c.JSON(http.StatusOK, gin.H{"success": true, "userData": user, "token": token, "message": "login successful"})
}

// Check returns the caller's resolved identity.
func (h *AuthHandler) Check(c *gin.Context) {
	user := c.MustGet(middleware.UserKey).(models.User)
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}

// UpdateProfile updates name and bio, routing a raw avatar payload
// through the media store first.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req struct {
		FullName   string `json:"fullName" binding:"required"`
		Bio        string `json:"bio"`
		ProfilePic string `json:"profilePic"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "missing required fields"})
		return
	}

	userID := c.GetInt64(middleware.UserIDKey)

	avatarURL := ""
	if req.ProfilePic != "" {
		url, err := h.media.Upload(c.Request.Context(), req.ProfilePic)
		if err != nil {
			if errors.Is(err, mediastore.ErrNotImage) || errors.Is(err, mediastore.ErrEmptyPayload) {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "invalid image payload"})
				return
			}
			c.JSON(http.StatusBadGateway, gin.H{"success": false, "message": "image upload failed"})
			return
		}
		avatarURL = url
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), userID, req.FullName, req.Bio, avatarURL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "could not update profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}
