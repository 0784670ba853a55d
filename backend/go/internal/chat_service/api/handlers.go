package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"LOTR_RAG/backend/go/internal/chat_service/service"
	"LOTR_RAG/backend/go/internal/models"
	"LOTR_RAG/backend/go/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Chatter answers one chat message.
type Chatter interface {
	Chat(ctx context.Context, message string) (*models.ChatResponse, error)
}

// API provides handlers for the chat service.
type API struct {
	service Chatter
	log     logger.Logger
}

// NewAPI creates a new API handler.
func NewAPI(service Chatter, log logger.Logger) *API {
	return &API{
		service: service,
		log:     log,
	}
}

// ChatHandler answers POST /api/chat. Failure details are logged, never
// returned to the caller.
func (a *API) ChatHandler(c *gin.Context) {
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.log.WithError(err).Warn("Invalid request payload")
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Message is required"})
		return
	}

	resp, err := a.service.Chat(c.Request.Context(), req.Message)
	if errors.Is(err, service.ErrMessageRequired) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Message is required"})
		return
	}
	if err != nil {
		a.log.WithError(err).Error(fmt.Sprintf("Chat request failed: %v", err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// HealthHandler answers GET /healthz.
func (a *API) HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
