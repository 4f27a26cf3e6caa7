package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/scissor-io/scissor/internal/middleware"
	"github.com/scissor-io/scissor/internal/repository"
	"github.com/scissor-io/scissor/internal/service"
	"github.com/scissor-io/scissor/internal/token"
	"go.uber.org/zap"
)

type UserHandler struct {
	svc    *service.UserService
	logger *zap.Logger
}

func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{
		svc:    svc,
		logger: zap.L().Named("UserHandler"),
	}
}

type ResetRequestPayload struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordPayload struct {
	Password        string `json:"password" binding:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

// List returns every account. Admin only.
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.svc.List(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// Get returns one account; admins may fetch anyone, others only themselves.
func (h *UserHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	claims, err := middleware.GetClaimsFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized access", Code: "UNAUTHORIZED"})
		return
	}
	callerID, err := claims.UserID()
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized access", Code: "UNAUTHORIZED"})
		return
	}

	user, err := h.svc.Get(c.Request.Context(), callerID, claims.IsAdministrator, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Delete removes an account. Admin only; the super-admin account is
// untouchable.
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

// GrantAdmin gives an account admin privileges. Super-admin only.
func (h *UserHandler) GrantAdmin(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	if err := h.svc.GrantAdmin(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User is now an admin"})
}

// RevokeAdmin strips admin privileges. Super-admin only; never applies to
// the super-admin account itself.
func (h *UserHandler) RevokeAdmin(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	if err := h.svc.RevokeAdmin(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Admin privileges revoked"})
}

// URLs returns an account's link history.
func (h *UserHandler) URLs(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	urls, err := h.svc.URLs(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, urls)
}

// SetPaid marks an account as paid. Admin only.
func (h *UserHandler) SetPaid(c *gin.Context) {
	h.togglePaid(c, true, "User is now on the paid tier")
}

// RemovePaid strips the paid flag. Admin only.
func (h *UserHandler) RemovePaid(c *gin.Context) {
	h.togglePaid(c, false, "Paid privileges removed")
}

func (h *UserHandler) togglePaid(c *gin.Context, paid bool, message string) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}

	if err := h.svc.SetPaid(c.Request.Context(), id, paid); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": message})
}

// Confirm activates the account bound to the confirmation token. Public:
// the token itself is the credential.
func (h *UserHandler) Confirm(c *gin.Context) {
	if err := h.svc.ConfirmEmail(c.Request.Context(), c.Param("token")); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Account confirmed"})
}

// ResetRequest starts the password-reset flow. Rate-gated per client IP;
// always answers 200 so the endpoint does not leak which emails exist.
func (h *UserHandler) ResetRequest(c *gin.Context) {
	var req ResetRequestPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request payload",
			Code:  "INVALID_PAYLOAD",
		})
		return
	}

	if err := h.svc.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "If the email exists, a reset link is on its way"})
}

// ResetPassword finishes the reset flow with the token from the mail link.
func (h *UserHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request payload",
			Code:  "INVALID_PAYLOAD",
		})
		return
	}

	err := h.svc.ResetPassword(c.Request.Context(), c.Param("token"), req.Password, req.ConfirmPassword)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
}

func (h *UserHandler) pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid user id",
			Code:  "INVALID_ID",
		})
		return uuid.Nil, false
	}
	return id, true
}

func (h *UserHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Error: "Not allowed",
			Code:  "FORBIDDEN",
		})
	case errors.Is(err, repository.ErrUserNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "User not found",
			Code:  "USER_NOT_FOUND",
		})
	case errors.Is(err, service.ErrPasswordMismatch):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Passwords do not match",
			Code:  "PASSWORD_MISMATCH",
		})
	case errors.Is(err, service.ErrSamePassword):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "New password must differ from the current one",
			Code:  "SAME_PASSWORD",
		})
	case errors.Is(err, service.ErrResetTokenUsed),
		errors.Is(err, token.ErrExpiredToken),
		errors.Is(err, token.ErrInvalidToken),
		errors.Is(err, token.ErrWrongPurpose):
		c.JSON(StatusTokenExpired, ErrorResponse{
			Error: "Invalid or expired token",
			Code:  "TOKEN_EXPIRED",
		})
	case errors.Is(err, repository.ErrDatabaseError):
		h.logger.Error("Database error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "Database error",
			Code:  "DB_ERROR",
		})
	default:
		h.logger.Error("Unexpected error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "Internal server error",
			Code:  "INTERNAL_ERROR",
		})
	}
}
