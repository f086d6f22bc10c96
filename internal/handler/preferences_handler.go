package handler

import (
	"net/http"

	"github.com/gatherly/notification-engine/internal/domain"
	"github.com/gatherly/notification-engine/internal/middleware"
	"github.com/gatherly/notification-engine/internal/repository"
	apperrors "github.com/gatherly/notification-engine/internal/shared/errors"
	"github.com/gatherly/notification-engine/internal/shared/logger"
	"github.com/gin-gonic/gin"
)

// PreferencesHandler handles the caller's notification preferences
type PreferencesHandler struct {
	repo *repository.PreferencesRepository
	log  *logger.Logger
}

// NewPreferencesHandler creates a new preferences handler
func NewPreferencesHandler(repo *repository.PreferencesRepository, log *logger.Logger) *PreferencesHandler {
	return &PreferencesHandler{repo: repo, log: log}
}

// Get returns the caller's preferences, creating defaults on first access
func (h *PreferencesHandler) Get(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	prefs, err := h.repo.GetOrCreate(c.Request.Context(), userID)
	if err != nil {
		h.log.Error("failed to get preferences", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, apperrors.NewInternalError("Failed to get preferences", err))
		return
	}

	c.JSON(http.StatusOK, prefs)
}

// Update saves the caller's preferences from the settings form
func (h *PreferencesHandler) Update(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	var req domain.UpdatePreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apperrors.NewValidationError("Invalid request", err))
		return
	}

	prefs := &domain.NotificationPreferences{
		UserID:               userID,
		EmailEnabled:         req.EmailEnabled,
		RemindersEnabled:     req.RemindersEnabled,
		ConfirmationsEnabled: req.ConfirmationsEnabled,
		UpdatesEnabled:       req.UpdatesEnabled,
		ReminderOffsets:      req.ReminderOffsets,
	}

	if err := h.repo.Save(c.Request.Context(), prefs); err != nil {
		h.log.Error("failed to update preferences", "error", err, "user_id", userID)
		c.JSON(http.StatusInternalServerError, apperrors.NewInternalError("Failed to update preferences", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Preferences updated successfully",
		"data":    prefs,
	})
}
