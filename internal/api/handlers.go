package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cds-scoring-engine/internal/domain"
	"github.com/cds-scoring-engine/internal/feedback"
	"github.com/cds-scoring-engine/internal/middleware"
	"github.com/cds-scoring-engine/internal/service"
)

const maxFeedbackPageSize = 500

func (s *Server) handleAssessment(kind domain.AnalyzerKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, err := c.GetRawData()
		if err != nil {
			s.abortWithError(c, http.StatusBadRequest, domain.ErrCodeInvalidInput, "failed to read request body", err)
			return
		}

		resp, err := service.Dispatch(c.Request.Context(), s.assessor, kind, payload)
		if err != nil {
			s.abortWithAssessmentError(c, err)
			return
		}

		c.JSON(http.StatusOK, resp)
	}
}

// abortWithAssessmentError maps Dispatch errors onto HTTP responses.
func (s *Server) abortWithAssessmentError(c *gin.Context, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		c.AbortWithStatusJSON(http.StatusBadRequest, validationResponse(verr, middleware.GetCorrelationID(c)))
	case errors.Is(err, service.ErrMalformedRequest):
		s.abortWithError(c, http.StatusBadRequest, domain.ErrCodeInvalidInput, "request body is not valid JSON", err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		s.abortWithError(c, http.StatusServiceUnavailable, domain.ErrCodeUnavailable, "request timed out", err)
	default:
		s.logger.WithError(err).WithField("correlation_id", middleware.GetCorrelationID(c)).Error("Assessment failed")
		s.abortWithError(c, http.StatusInternalServerError, domain.ErrCodeInternalServer, "assessment failed", nil)
	}
}

func (s *Server) handleSubmitFeedback(c *gin.Context) {
	var submission feedback.Submission
	if err := c.ShouldBindJSON(&submission); err != nil {
		s.abortWithError(c, http.StatusBadRequest, domain.ErrCodeInvalidInput, "request body is not valid JSON", err)
		return
	}

	fb, err := submission.Feedback()
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			c.AbortWithStatusJSON(http.StatusBadRequest, validationResponse(verr, middleware.GetCorrelationID(c)))
			return
		}
		s.abortWithError(c, http.StatusBadRequest, domain.ErrCodeInvalidInput, err.Error(), nil)
		return
	}

	if err := s.feedback.Save(c.Request.Context(), fb); err != nil {
		s.logger.WithError(err).Error("Failed to save feedback")
		s.abortWithError(c, http.StatusInternalServerError, domain.ErrCodeStorage, "failed to save feedback", nil)
		return
	}

	c.JSON(http.StatusCreated, fb)
}

func (s *Server) handleListFeedback(c *gin.Context) {
	limit, err := queryInt(c, "limit", feedback.DefaultListLimit)
	if err != nil || limit <= 0 || limit > maxFeedbackPageSize {
		s.abortWithError(c, http.StatusBadRequest, domain.ErrCodeInvalidInput, "limit must be between 1 and 500", nil)
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil || offset < 0 {
		s.abortWithError(c, http.StatusBadRequest, domain.ErrCodeInvalidInput, "offset must be a non-negative integer", nil)
		return
	}

	ctx := c.Request.Context()
	entries, err := s.feedback.List(ctx, limit, offset)
	if err != nil {
		s.logger.WithError(err).Error("Failed to list feedback")
		s.abortWithError(c, http.StatusInternalServerError, domain.ErrCodeStorage, "failed to list feedback", nil)
		return
	}
	total, err := s.feedback.Count(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Failed to count feedback")
		s.abortWithError(c, http.StatusInternalServerError, domain.ErrCodeStorage, "failed to count feedback", nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"feedback": entries,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
	})
}

func (s *Server) handleGetFeedback(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		s.abortWithError(c, http.StatusBadRequest, domain.ErrCodeInvalidInput, "id must be an integer", nil)
		return
	}

	fb, err := s.feedback.GetByID(c.Request.Context(), id)
	switch {
	case errors.Is(err, feedback.ErrNotFound):
		s.abortWithError(c, http.StatusNotFound, domain.ErrCodeNotFound, "feedback not found", nil)
		return
	case err != nil:
		s.logger.WithError(err).Error("Failed to get feedback")
		s.abortWithError(c, http.StatusInternalServerError, domain.ErrCodeStorage, "failed to get feedback", nil)
		return
	}

	c.JSON(http.StatusOK, fb)
}

func (s *Server) abortWithError(c *gin.Context, status int, code, message string, cause error) {
	details := ""
	if cause != nil {
		details = cause.Error()
	}
	c.AbortWithStatusJSON(status, domain.NewErrorResponse(code, message, details, middleware.GetCorrelationID(c)))
}

func validationResponse(verr *domain.ValidationError, correlationID string) *domain.ErrorResponse {
	return domain.NewErrorResponse(domain.ErrCodeValidation, verr.Error(), verr.Field, correlationID)
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
