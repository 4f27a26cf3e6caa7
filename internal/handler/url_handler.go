package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/scissor-io/scissor/internal/middleware"
	"github.com/scissor-io/scissor/internal/repository"
	"github.com/scissor-io/scissor/internal/service"
	"go.uber.org/zap"
)

type CreateURLRequest struct {
	Name      string `json:"name"`
	TargetURL string `json:"target_url" binding:"required"`
	Key       string `json:"key"`
}

type URLHandler struct {
	service *service.URLService
	logger  *zap.Logger
}

func NewURLHandler(service *service.URLService) *URLHandler {
	return &URLHandler{
		service: service,
		logger:  zap.L().With(zap.String("component", "URLHandler")),
	}
}

// Create shortens a URL for the authenticated caller. The key field is
// only honored for paid accounts.
func (h *URLHandler) Create(c *gin.Context) {
	var req CreateURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request format",
			Code:  "INVALID_JSON",
		})
		return
	}

	userID, err := middleware.GetUserIDFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error: "Unauthorized access",
			Code:  "UNAUTHORIZED",
		})
		return
	}

	link, err := h.service.Shorten(c.Request.Context(), userID, service.ShortenInput{
		Name:      req.Name,
		TargetURL: req.TargetURL,
		Key:       req.Key,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "URL shortened successfully",
		"url":     link,
	})
}

// Redirect resolves a key to its target and answers with a 302. Public.
func (h *URLHandler) Redirect(c *gin.Context) {
	key := strings.TrimSpace(c.Param("key"))
	if key == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "key parameter is required",
			Code:  "MISSING_KEY",
		})
		return
	}

	target, err := h.service.Resolve(c.Request.Context(), key)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Redirect(http.StatusFound, target)
}

// Delete soft-deletes a link; owner or admin only.
func (h *URLHandler) Delete(c *gin.Context) {
	key := strings.TrimSpace(c.Param("key"))

	claims, err := middleware.GetClaimsFromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error: "Unauthorized access",
			Code:  "UNAUTHORIZED",
		})
		return
	}
	callerID, err := claims.UserID()
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error: "Unauthorized access",
			Code:  "UNAUTHORIZED",
		})
		return
	}

	if err := h.service.Delete(c.Request.Context(), callerID, claims.IsAdministrator, key); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Url has been deleted"})
}

// QRCode renders the link's target as a PNG. Public.
func (h *URLHandler) QRCode(c *gin.Context) {
	key := strings.TrimSpace(c.Param("key"))

	png, err := h.service.QRCode(c.Request.Context(), key)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

func (h *URLHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidURL):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid URL format",
			Code:  "INVALID_URL",
		})
	case errors.Is(err, service.ErrKeyTaken):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Key already taken",
			Code:  "KEY_TAKEN",
		})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Error: "Not allowed",
			Code:  "FORBIDDEN",
		})
	case errors.Is(err, repository.ErrURLNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "Short URL not found",
			Code:  "URL_NOT_FOUND",
		})
	case errors.Is(err, repository.ErrUserNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: "User not found",
			Code:  "USER_NOT_FOUND",
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
