package interviews

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"hirelens-backend/internal/shared/server/middleware"
	"hirelens-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterPublicRoutes attaches candidate routes. They carry no recruiter auth.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.POST("/interviews/:id/verify-access", h.verifyAccess)
	rg.GET("/interviews/:id/questions", h.getQuestions)
	rg.POST("/interviews/:id/submit-answer", h.submitAnswer)
	rg.POST("/interviews/:id/complete", h.complete)
}

// RegisterRoutes attaches recruiter routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/interviews", h.schedule)
	rg.POST("/interviews/:id/generate-questions", h.generateQuestions)
	rg.GET("/interviews/:id/analysis", h.analysis)
}

type scheduleRequest struct {
	ResumeID        int64      `json:"resume_id"`
	DurationMinutes int        `json:"duration_minutes"`
	ScheduledAt     *time.Time `json:"scheduled_at"`
}

func (h *Handler) schedule(c *gin.Context) {
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid JSON body", nil)
		return
	}
	c.Set(middleware.ResumeIDKey, req.ResumeID)

	sess, err := h.Svc.Schedule(c.Request.Context(), middleware.UserIDFromContext(c), ScheduleInput{
		ResumeID:        req.ResumeID,
		DurationMinutes: req.DurationMinutes,
		ScheduledAt:     req.ScheduledAt,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.Set(middleware.InterviewIDKey, sess.ID)
	respond.JSON(c, http.StatusCreated, gin.H{
		"interview":   sess,
		"access_code": sess.AccessCode,
	})
}

type verifyAccessRequest struct {
	Email      string `json:"email"`
	AccessCode string `json:"access_code"`
}

func (h *Handler) verifyAccess(c *gin.Context) {
	id, ok := interviewID(c)
	if !ok {
		return
	}
	var req verifyAccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "Email and access code are required", nil)
		return
	}

	result, err := h.Svc.VerifyAccess(c.Request.Context(), id, req.Email, req.AccessCode, c.ClientIP())
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, result)
}

type generateQuestionsRequest struct {
	NumQuestions *int `json:"num_questions"`
}

func (h *Handler) generateQuestions(c *gin.Context) {
	id, ok := interviewID(c)
	if !ok {
		return
	}
	var req generateQuestionsRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid JSON body", nil)
			return
		}
	}
	count := DefaultQuestionCount
	if req.NumQuestions != nil {
		count = *req.NumQuestions
		if count == 0 {
			respond.Error(c, http.StatusBadRequest, "validation_error", "num_questions must be between 1 and 20", nil)
			return
		}
	}

	sess, err := h.Svc.GenerateQuestions(c.Request.Context(), middleware.UserIDFromContext(c), id, count)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, gin.H{
		"message":         "Questions generated successfully",
		"interview_id":    id,
		"questions":       sess.Questions,
		"total_questions": len(sess.Questions),
	})
}

func (h *Handler) getQuestions(c *gin.Context) {
	id, ok := interviewID(c)
	if !ok {
		return
	}
	sheet, err := h.Svc.GetQuestions(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, sheet)
}

type submitAnswerRequest struct {
	QuestionID int    `json:"question_id"`
	Answer     string `json:"answer"`
}

func (h *Handler) submitAnswer(c *gin.Context) {
	id, ok := interviewID(c)
	if !ok {
		return
	}
	var req submitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "Question ID and answer are required", nil)
		return
	}

	if err := h.Svc.SubmitAnswer(c.Request.Context(), id, req.QuestionID, req.Answer); err != nil {
		writeError(c, err)
		return
	}
	c.Set(middleware.StatusTransitionKey, "->"+StatusInProgress)
	respond.OK(c, gin.H{
		"message":     "Answer submitted successfully",
		"question_id": req.QuestionID,
		"answered":    true,
	})
}

func (h *Handler) complete(c *gin.Context) {
	id, ok := interviewID(c)
	if !ok {
		return
	}
	result, err := h.Svc.Complete(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Set(middleware.StatusTransitionKey, "->"+StatusCompleted)
	respond.OK(c, gin.H{
		"message":         "Interview completed and analyzed successfully",
		"interview_id":    result.InterviewID,
		"ai_score":        result.AIScore,
		"recommendation":  result.Recommendation,
		"total_questions": result.TotalQuestions,
	})
}

func (h *Handler) analysis(c *gin.Context) {
	id, ok := interviewID(c)
	if !ok {
		return
	}
	view, err := h.Svc.GetAnalysis(c.Request.Context(), middleware.UserIDFromContext(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, view)
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
	var incomplete *IncompleteError
	switch {
	case errors.As(err, &incomplete):
		respond.Error(c, http.StatusBadRequest, "incomplete_interview", "Not all questions answered", gin.H{
			"unanswered_questions": incomplete.Unanswered,
		})
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrNotCompleted):
		respond.Error(c, http.StatusBadRequest, "validation_error", "Interview not completed yet", nil)
	case errors.Is(err, ErrRateLimited):
		respond.Error(c, http.StatusTooManyRequests, "rate_limited", "Too many login attempts. Please try again in 5 minutes.", nil)
	case errors.Is(err, ErrInvalidEmail):
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "Invalid email address", nil)
	case errors.Is(err, ErrInvalidAccessCode):
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "Invalid access code", nil)
	case errors.Is(err, ErrForbidden):
		respond.Error(c, http.StatusForbidden, "forbidden", "Unauthorized", nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "Interview not found", nil)
	case errors.Is(err, ErrCandidateNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "Candidate not found", nil)
	case errors.Is(err, ErrQuestionsNotGenerated):
		respond.Error(c, http.StatusNotFound, "not_found", "Questions not generated yet", nil)
	case errors.Is(err, ErrQuestionNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "Question not found", nil)
	case errors.Is(err, ErrAlreadyCompleted), errors.Is(err, ErrConflict), errors.Is(err, ErrCompletionInProgress):
		respond.Error(c, http.StatusConflict, "conflict", err.Error(), nil)
	case errors.Is(err, ErrQuestionGeneration):
		respond.Error(c, http.StatusBadGateway, "question_generation_failed", "Failed to generate questions", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "request failed", nil)
	}
}
