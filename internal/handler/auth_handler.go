package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/scissor-io/scissor/internal/middleware"
	"github.com/scissor-io/scissor/internal/repository"
	"github.com/scissor-io/scissor/internal/service"
	"github.com/scissor-io/scissor/internal/token"
	"go.uber.org/zap"
)

type AuthHandler struct {
	svc    *service.AuthService
	logger *zap.Logger
}

func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{
		svc:    svc,
		logger: zap.L().Named("AuthHandler"),
	}
}

// DTOs
type SignupRequest struct {
	Username  string `json:"username" binding:"required,min=3"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid JSON in Signup", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request payload",
			Code:  "INVALID_PAYLOAD",
		})
		return
	}

	user, err := h.svc.Signup(c.Request.Context(), req.Username, req.Email, req.Password, req.FirstName, req.LastName)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User successfully created",
		"user":    user,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid JSON in Login", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request payload",
			Code:  "INVALID_PAYLOAD",
		})
		return
	}

	pair, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, pair)
}

// Logout revokes the caller's access token. The route runs behind
// RequireAuth and RequireFresh.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, err := middleware.GetClaimsFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error: "Unauthorized access",
			Code:  "UNAUTHORIZED",
		})
		return
	}

	if err := h.svc.Logout(c.Request.Context(), claims.ID); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User successfully logged out"})
}

// Refresh exchanges the bearer refresh token for a new non-fresh access
// token.
func (h *AuthHandler) Refresh(c *gin.Context) {
	auth := c.GetHeader("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error: "missing authorization header",
			Code:  "MISSING_TOKEN",
		})
		return
	}

	accessToken, err := h.svc.Refresh(c.Request.Context(), strings.TrimPrefix(auth, "Bearer "))
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"access_token": accessToken})
}

func (h *AuthHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error: "Invalid email or password",
			Code:  "INVALID_CREDENTIALS",
		})
	case errors.Is(err, repository.ErrDuplicateEmail):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error: "Email already registered",
			Code:  "EMAIL_EXISTS",
		})
	case errors.Is(err, repository.ErrDuplicateUsername):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error: "Username already in use",
			Code:  "USERNAME_EXISTS",
		})
	case errors.Is(err, token.ErrExpiredToken),
		errors.Is(err, token.ErrInvalidToken),
		errors.Is(err, token.ErrWrongPurpose):
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error: "invalid or expired token",
			Code:  "INVALID_TOKEN",
		})
	default:
		h.logger.Error("Unexpected service error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "Internal server error",
			Code:  "INTERNAL_ERROR",
		})
	}
}
