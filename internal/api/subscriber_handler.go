package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/markdown-blog-api/internal/models"
	"github.com/markdown-blog-api/internal/repository"
	"github.com/markdown-blog-api/internal/service"
	"github.com/rs/zerolog"
)

// SubscriberHandler handles subscription endpoints
type SubscriberHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewSubscriberHandler creates a new SubscriberHandler
func NewSubscriberHandler(services *service.Services, log zerolog.Logger) *SubscriberHandler {
	return &SubscriberHandler{
		services: services,
		log:      log.With().Str("handler", "subscriber").Logger(),
	}
}

// Subscribe handles POST /api/subscribe
func (h *SubscriberHandler) Subscribe(c *gin.Context) {
	var req models.SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body."})
		return
	}

	_, err := h.services.Subscriber.Subscribe(c.Request.Context(), req.Email)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, gin.H{"message": "Thanks for subscribing! You will be notified of new posts."})
	case errors.Is(err, service.ErrInvalidEmail):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Please provide a valid email address."})
	case errors.Is(err, repository.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"message": "This email is already subscribed."})
	default:
		h.log.Error().Err(err).Msg("Failed to subscribe")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Subscription failed."})
	}
}

// Unsubscribe handles DELETE /api/subscribe
func (h *SubscriberHandler) Unsubscribe(c *gin.Context) {
	var req models.SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body."})
		return
	}

	err := h.services.Subscriber.Unsubscribe(c.Request.Context(), req.Email)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "You have been unsubscribed."})
	case errors.Is(err, service.ErrInvalidEmail):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Please provide a valid email address."})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "This email is not subscribed."})
	default:
		h.log.Error().Err(err).Msg("Failed to unsubscribe")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Unsubscribe failed."})
	}
}
