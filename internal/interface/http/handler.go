package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/aduba/internal/domain/auth"
	"github.com/yanqian/aduba/internal/domain/events"
	"github.com/yanqian/aduba/internal/domain/reading"
	"github.com/yanqian/aduba/internal/domain/settings"
)

// Handler wires the HTTP transport to domain services.
type Handler struct {
	authSvc     auth.Service
	readingSvc  reading.Service
	settingsSvc settings.Service
	eventsSvc   events.Service
	logger      *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(authSvc auth.Service, readingSvc reading.Service, settingsSvc settings.Service, eventsSvc events.Service, logger *slog.Logger) *Handler {
	return &Handler{
		authSvc:     authSvc,
		readingSvc:  readingSvc,
		settingsSvc: settingsSvc,
		eventsSvc:   eventsSvc,
		logger:      logger.With("component", "http.handler"),
	}
}

// Health answers liveness probes.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetSettings returns the device settings of the caller.
func (h *Handler) GetSettings(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	s, err := h.settingsSvc.Get(c.Request.Context(), claims.UserID)
	if err != nil {
		abortWithError(c, serviceError(err, "settings_failed"))
		return
	}
	c.JSON(http.StatusOK, s)
}

// UpdateSettings changes the device settings of the caller.
func (h *Handler) UpdateSettings(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req settings.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	if req.NotificationsEnabled == nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "notifications_enabled is required", nil))
		return
	}
	s, err := h.settingsSvc.SetNotifications(c.Request.Context(), claims.UserID, *req.NotificationsEnabled)
	if err != nil {
		abortWithError(c, serviceError(err, "settings_failed"))
		return
	}
	c.JSON(http.StatusOK, s)
}

// ListEvents returns the caller's events, optionally for ?date=YYYY-MM-DD.
func (h *Handler) ListEvents(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	items, err := h.eventsSvc.List(c.Request.Context(), claims.UserID, c.Query("date"))
	if err != nil {
		abortWithError(c, serviceError(err, "events_failed"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": items})
}

// CreateEvent records an event for the caller.
func (h *Handler) CreateEvent(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	var req events.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	e, err := h.eventsSvc.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		abortWithError(c, serviceError(err, "events_failed"))
		return
	}
	c.JSON(http.StatusCreated, e)
}

func requireClaims(c *gin.Context) (auth.Claims, bool) {
	claims, ok := getClaims(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "missing authentication", nil))
	}
	return claims, ok
}
