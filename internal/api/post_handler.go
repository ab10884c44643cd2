package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/markdown-blog-api/internal/models"
	"github.com/markdown-blog-api/internal/repository"
	"github.com/markdown-blog-api/internal/service"
	"github.com/markdown-blog-api/internal/validation"
	"github.com/rs/zerolog"
)

// PostHandler handles post endpoints
type PostHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(services *service.Services, log zerolog.Logger) *PostHandler {
	return &PostHandler{
		services: services,
		log:      log.With().Str("handler", "post").Logger(),
	}
}

// ListPosts handles GET /api/posts?sort=timestamp|title
func (h *PostHandler) ListPosts(c *gin.Context) {
	posts, err := h.services.Post.List(c.Request.Context(), c.Query("sort"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidSort) {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		h.log.Error().Err(err).Msg("Failed to list posts")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error reading posts directory."})
		return
	}

	c.JSON(http.StatusOK, posts)
}

// GetPost handles GET /api/posts/:id
func (h *PostHandler) GetPost(c *gin.Context) {
	post, err := h.services.Post.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err, "")
		return
	}

	c.JSON(http.StatusOK, post)
}

// CreatePost handles POST /api/posts
func (h *PostHandler) CreatePost(c *gin.Context) {
	input, ok := h.bindInput(c)
	if !ok {
		return
	}

	post, err := h.services.Post.Create(c.Request.Context(), input)
	if err != nil {
		h.writeError(c, err, "A post with this title already exists.")
		return
	}

	c.JSON(http.StatusCreated, post)
}

// UpdatePost handles PUT /api/posts/:id
func (h *PostHandler) UpdatePost(c *gin.Context) {
	input, ok := h.bindInput(c)
	if !ok {
		return
	}

	post, err := h.services.Post.Update(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		h.writeError(c, err, "A post with the new title already exists.")
		return
	}

	c.JSON(http.StatusOK, post)
}

// DeletePost handles DELETE /api/posts/:id by moving the post to the bin
func (h *PostHandler) DeletePost(c *gin.Context) {
	if err := h.services.Post.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err, "")
		return
	}

	c.Status(http.StatusNoContent)
}

// ExportPosts handles GET /api/export/posts?format=ndjson|json
func (h *PostHandler) ExportPosts(c *gin.Context) {
	format := c.DefaultQuery("format", "ndjson")
	if format != "ndjson" && format != "json" {
		c.JSON(http.StatusBadRequest, gin.H{"message": service.ErrUnsupportedFormat.Error()})
		return
	}

	if err := h.services.Export.StreamPosts(c.Request.Context(), c.Writer, format); err != nil {
		h.log.Error().Err(err).Str("format", format).Msg("Export failed")
		if !c.Writer.Written() {
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Export failed."})
		}
	}
}

// bindInput decodes and validates a post body, writing the 400 response itself on failure
func (h *PostHandler) bindInput(c *gin.Context) (*models.PostInput, bool) {
	var input models.PostInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body."})
		return nil, false
	}

	if errs := validation.ValidatePost(&input); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": validation.Summary(errs),
			"errors":  errs,
		})
		return nil, false
	}

	return &input, true
}

// writeError maps store errors onto HTTP statuses
func (h *PostHandler) writeError(c *gin.Context, err error, conflictMsg string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Post not found."})
	case errors.Is(err, repository.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"message": conflictMsg})
	case errors.Is(err, repository.ErrInvalidIdentity):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid post identifier."})
	default:
		h.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Post storage failure")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
	}
}
