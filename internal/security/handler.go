package security

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"hirelens-backend/internal/shared/server/middleware"
	"hirelens-backend/internal/shared/server/respond"
)

// Handler exposes the monitor over HTTP.
type Handler struct {
	Monitor *Monitor
}

// NewHandler constructs a Handler.
func NewHandler(m *Monitor) *Handler {
	return &Handler{Monitor: m}
}

// RegisterPublicRoutes attaches candidate-facing routes.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.POST("/interviews/:id/log-activity", h.logActivity)
}

// RegisterRoutes attaches recruiter routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/interviews/:id/security-status", h.securityStatus)
}

type logActivityRequest struct {
	EventType string         `json:"event_type"`
	Timestamp string         `json:"timestamp"`
	Metadata  map[string]any `json:"metadata"`
}

func (h *Handler) logActivity(c *gin.Context) {
	id, ok := interviewID(c)
	if !ok {
		return
	}

	var req logActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid JSON body", nil)
		return
	}

	e, err := h.Monitor.LogActivity(c.Request.Context(), Activity{
		InterviewID: id,
		EventType:   req.EventType,
		Timestamp:   req.Timestamp,
		Metadata:    req.Metadata,
		IPAddress:   c.ClientIP(),
		UserAgent:   c.Request.UserAgent(),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, gin.H{
		"logged":     true,
		"log_id":     e.ID,
		"event_type": e.EventType,
		"timestamp":  e.Timestamp.Format(time.RFC3339),
		"violations": e.ViolationCount,
	})
}

func (h *Handler) securityStatus(c *gin.Context) {
	id, ok := interviewID(c)
	if !ok {
		return
	}
	status, err := h.Monitor.GetSecurityStatus(c.Request.Context(), middleware.UserIDFromContext(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, status)
}

func interviewID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "id must be a positive integer", nil)
		return 0, false
	}
	c.Set(middleware.InterviewIDKey, id)
	return id, true
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInterviewNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "Interview not found", nil)
	case errors.Is(err, ErrForbidden):
		respond.Error(c, http.StatusForbidden, "forbidden", "Unauthorized", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "request failed", nil)
	}
}
