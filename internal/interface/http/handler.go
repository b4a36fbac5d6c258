package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wanderpaws/wanderpaws/internal/domain/chatbuilder"
	"github.com/wanderpaws/wanderpaws/internal/domain/itinerary"
	"github.com/wanderpaws/wanderpaws/internal/domain/trip"
	apperrors "github.com/wanderpaws/wanderpaws/pkg/errors"
)

// Handler wires the HTTP transport to domain services.
type Handler struct {
	itinerarySvc       itinerary.Service
	chatSvc            chatbuilder.Service
	generationDeadline time.Duration
	logger             *slog.Logger
}

// NewHandler constructs the root HTTP handler. generationDeadline bounds a
// single itinerary generation end to end.
func NewHandler(itinerarySvc itinerary.Service, chatSvc chatbuilder.Service, generationDeadline time.Duration, logger *slog.Logger) *Handler {
	return &Handler{
		itinerarySvc:       itinerarySvc,
		chatSvc:            chatSvc,
		generationDeadline: generationDeadline,
		logger:             logger.With("component", "http.handler"),
	}
}

// EnhancedItinerary generates the full day-by-day plan for a trip request.
func (h *Handler) EnhancedItinerary(c *gin.Context) {
	var req trip.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	ctx := c.Request.Context()
	if h.generationDeadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.generationDeadline)
		defer cancel()
	}

	result, err := h.itinerarySvc.Generate(ctx, req)
	if err != nil {
		abortWithError(c, mapDomainError(err, "generation_failed"))
		return
	}

	c.JSON(http.StatusOK, result)
}

// ChatBuilder executes one conversational trip-building turn.
func (h *Handler) ChatBuilder(c *gin.Context) {
	var req chatbuilder.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	resp, err := h.chatSvc.Converse(c.Request.Context(), userID(c), req)
	if err != nil {
		// Failures keep the conversational body shape so the client never
		// loses the reply text or the accumulated trip state.
		httpErr := mapDomainError(err, "chat_failed")
		if resp.Reply == "" {
			resp.Reply = "I'm sorry, something went wrong on my side. Please try again."
		}
		h.logger.Warn("chat turn failed",
			"thread", resp.ThreadID, "code", httpErr.Code, "status", httpErr.Status, "error", err)
		c.JSON(httpErr.Status, resp)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Healthz reports liveness.
func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func mapDomainError(err error, fallbackCode string) *HTTPError {
	code := apperrors.CodeOf(err)
	if code == "" {
		code = fallbackCode
	}
	status := http.StatusInternalServerError
	switch code {
	case "invalid_input":
		status = http.StatusBadRequest
	case "llm_unconfigured":
		status = http.StatusServiceUnavailable
	case "chat_timeout":
		status = http.StatusGatewayTimeout
	}
	if status == http.StatusInternalServerError && errors.Is(err, context.DeadlineExceeded) {
		status = http.StatusGatewayTimeout
		code = "generation_timeout"
	}
	return NewHTTPError(status, code, errMessage(err), err)
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
