package handler

import (
	"errors"
	"net/http"

	"github.com/gatherly/notification-engine/internal/domain"
	"github.com/gatherly/notification-engine/internal/middleware"
	"github.com/gatherly/notification-engine/internal/repository"
	apperrors "github.com/gatherly/notification-engine/internal/shared/errors"
	"github.com/gatherly/notification-engine/internal/shared/logger"
	"github.com/gin-gonic/gin"
)

// NotificationHandler handles HTTP requests for the caller's notifications
type NotificationHandler struct {
	repo *repository.NotificationRepository
	log  *logger.Logger
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(repo *repository.NotificationRepository, log *logger.Logger) *NotificationHandler {
	return &NotificationHandler{repo: repo, log: log}
}

// List returns the caller's notifications newest first
func (h *NotificationHandler) List(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	var req domain.ListNotificationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, apperrors.NewValidationError("Invalid request", err))
		return
	}
	if req.Type != "" && !req.Type.Valid() {
		c.JSON(http.StatusBadRequest, apperrors.NewValidationError("Unknown notification type", nil))
		return
	}
	req.Normalize()

	notifications, total, err := h.repo.ListForUser(c.Request.Context(), userID, req.Type, req.Limit, req.Offset)
	if err != nil {
		h.log.Error("failed to list notifications", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, apperrors.NewInternalError("Failed to list notifications", err))
		return
	}

	unread, err := h.repo.CountUnread(c.Request.Context(), userID)
	if err != nil {
		h.log.Error("failed to count unread", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, apperrors.NewInternalError("Failed to count unread notifications", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":   notifications,
		"total":  total,
		"unread": unread,
		"limit":  req.Limit,
		"offset": req.Offset,
	})
}

// UnreadCount returns the badge count
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	unread, err := h.repo.CountUnread(c.Request.Context(), userID)
	if err != nil {
		h.log.Error("failed to count unread", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, apperrors.NewInternalError("Failed to count unread notifications", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"unread": unread})
}

// MarkRead marks one of the caller's notifications as read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, apperrors.NewValidationError("ID is required", nil))
		return
	}

	if err := h.repo.MarkRead(c.Request.Context(), userID, id); err != nil {
		h.respondError(c, err, "failed to mark notification read", userID)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification marked read"})
}

// MarkAllRead marks every unread notification of the caller as read
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	count, err := h.repo.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		h.log.Error("failed to mark all read", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, apperrors.NewInternalError("Failed to mark notifications read", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notifications marked read", "count": count})
}

// Clear deletes all of the caller's notifications
func (h *NotificationHandler) Clear(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	count, err := h.repo.DeleteAll(c.Request.Context(), userID)
	if err != nil {
		h.log.Error("failed to clear notifications", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, apperrors.NewInternalError("Failed to clear notifications", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notifications cleared", "count": count})
}

// respondError maps repository error codes to HTTP statuses
func (h *NotificationHandler) respondError(c *gin.Context, err error, msg, userID string) {
	h.log.Error(msg, "error", err, "user_id", userID)

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		c.JSON(http.StatusInternalServerError, apperrors.NewInternalError("Internal error", err))
		return
	}

	switch appErr.Code {
	case apperrors.CodeValidation:
		c.JSON(http.StatusBadRequest, appErr)
	case apperrors.CodeNotFound:
		c.JSON(http.StatusNotFound, appErr)
	case apperrors.CodeUnauthorized:
		c.JSON(http.StatusForbidden, appErr)
	default:
		c.JSON(http.StatusInternalServerError, appErr)
	}
}
