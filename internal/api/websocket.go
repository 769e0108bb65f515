package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/cds-scoring-engine/internal/domain"
	"github.com/cds-scoring-engine/internal/middleware"
	"github.com/cds-scoring-engine/internal/service"
)

const (
	streamMaxMessageBytes = 64 << 10
	streamWriteTimeout    = 10 * time.Second
)

// StreamRequest is one assessment sent over the websocket stream. ID is echoed
// back so that clients can pipeline requests.
type StreamRequest struct {
	ID       string          `json:"id"`
	Analyzer string          `json:"analyzer"`
	Input    json.RawMessage `json:"input"`
}

// StreamResponse carries either a result or an error for one StreamRequest.
type StreamResponse struct {
	ID       string                     `json:"id"`
	Response *domain.AssessmentResponse `json:"response,omitempty"`
	Error    *domain.ErrorResponse      `json:"error,omitempty"`
}

func (s *Server) newUpgrader() websocket.Upgrader {
	origins := s.configManager.GetServerConfig().AllowedOrigins
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, allowed := range origins {
				if allowed == "*" || allowed == origin {
					return true
				}
			}
			return false
		},
	}
}

// handleStream upgrades to a websocket and answers StreamRequests in order
// until the client disconnects.
func (s *Server) handleStream(c *gin.Context) {
	upgrader := s.newUpgrader()
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		return
	}
	defer conn.Close()
	conn.SetReadLimit(streamMaxMessageBytes)

	correlationID := middleware.GetCorrelationID(c)
	logger := s.logger.WithField("correlation_id", correlationID)
	logger.Debug("Assessment stream opened")

	// The request deadline applies to the upgrade, not to the stream.
	base := context.WithoutCancel(c.Request.Context())
	timeout := s.configManager.GetServerConfig().RequestTimeout

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.WithError(err).Warn("Assessment stream closed unexpectedly")
			}
			return
		}

		resp := s.answer(base, timeout, correlationID, message)
		if err := conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout)); err != nil {
			return
		}
		if err := conn.WriteJSON(resp); err != nil {
			logger.WithError(err).Warn("Failed to write stream response")
			return
		}
	}
}

func (s *Server) answer(base context.Context, timeout time.Duration, correlationID string, message []byte) StreamResponse {
	var req StreamRequest
	if err := json.Unmarshal(message, &req); err != nil {
		return StreamResponse{Error: domain.NewErrorResponse(domain.ErrCodeInvalidInput, "message is not valid JSON", err.Error(), correlationID)}
	}

	kind, err := domain.ParseAnalyzerKind(req.Analyzer)
	if err != nil {
		return StreamResponse{ID: req.ID, Error: domain.NewErrorResponse(domain.ErrCodeInvalidInput, "unknown analyzer", req.Analyzer, correlationID)}
	}

	ctx := base
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(base, timeout)
		defer cancel()
	}

	resp, err := service.Dispatch(ctx, s.assessor, kind, req.Input)
	if err != nil {
		return StreamResponse{ID: req.ID, Error: s.streamError(err, correlationID)}
	}
	return StreamResponse{ID: req.ID, Response: resp}
}

func (s *Server) streamError(err error, correlationID string) *domain.ErrorResponse {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return validationResponse(verr, correlationID)
	case errors.Is(err, service.ErrMalformedRequest):
		return domain.NewErrorResponse(domain.ErrCodeInvalidInput, "input is not valid JSON", err.Error(), correlationID)
	case errors.Is(err, context.DeadlineExceeded):
		return domain.NewErrorResponse(domain.ErrCodeUnavailable, "request timed out", "", correlationID)
	default:
		s.logger.WithError(err).WithFields(logrus.Fields{"correlation_id": correlationID}).Error("Stream assessment failed")
		return domain.NewErrorResponse(domain.ErrCodeInternalServer, "assessment failed", "", correlationID)
	}
}
