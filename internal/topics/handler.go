package topics

import (
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hockey-club/backend/internal/models"
	"github.com/hockey-club/backend/pkg/response"
)

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// TopicRequest is the body for topic create and update.
type TopicRequest struct {
	Name        string `json:"name" binding:"required"`
	Color       string `json:"color" binding:"required"`
	Description string `json:"description"`
	Active      *bool  `json:"active"`
}

// Handler handles topic HTTP endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a topics handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

// List handles GET /api/topics. Members see active topics only; staff pass
// ?all=true to include retired ones.
func (h *Handler) List(c *gin.Context) {
	activeOnly := c.Query("all") != "true"
	list, err := h.repo.List(c.Request.Context(), activeOnly)
	if err != nil {
		response.Internal(c, "failed to list topics")
		return
	}
	response.OK(c, list)
}

// Create handles POST /api/topics (staff).
func (h *Handler) Create(c *gin.Context) {
	var req TopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if !colorPattern.MatchString(req.Color) {
		response.BadRequest(c, "color must be a hex value like #007bff")
		return
	}
	t := models.Topic{
		Name:        req.Name,
		Color:       req.Color,
		Description: req.Description,
		Active:      true,
	}
	if req.Active != nil {
		t.Active = *req.Active
	}
	if err := h.repo.Create(c.Request.Context(), &t); err != nil {
		response.Conflict(c, "topic name already exists")
		return
	}
	response.Created(c, t)
}

// Update handles PUT /api/topics/:id (staff).
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid topic id")
		return
	}
	var req TopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if !colorPattern.MatchString(req.Color) {
		response.BadRequest(c, "color must be a hex value like #007bff")
		return
	}
	t, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "topic not found")
		return
	}
	t.Name = req.Name
	t.Color = req.Color
	t.Description = req.Description
	if req.Active != nil {
		t.Active = *req.Active
	}
	if err := h.repo.Update(c.Request.Context(), t); err != nil {
		response.Internal(c, "failed to update topic")
		return
	}
	response.OK(c, t)
}

// Delete handles DELETE /api/topics/:id (staff).
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid topic id")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		response.Internal(c, "failed to delete topic")
		return
	}
	response.NoContent(c)
}
