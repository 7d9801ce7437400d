package resources

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hockey-club/backend/internal/middleware"
	"github.com/hockey-club/backend/internal/models"
	"github.com/hockey-club/backend/pkg/response"
	"github.com/hockey-club/backend/pkg/storage"
)

// Handler handles club document HTTP endpoints. Files live in S3; uploads
// and downloads go through pre-signed URLs so the server never proxies
// file bytes.
type Handler struct {
	repo   *Repository
	s3     *storage.S3
	logger *zap.Logger
}

// NewHandler creates a resources handler.
func NewHandler(repo *Repository, s3 *storage.S3, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, s3: s3, logger: logger}
}

// List handles GET /api/resources.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to list resources")
		return
	}
	response.OK(c, list)
}

// UploadRequest is the body for POST /api/resources/upload-url.
type UploadRequest struct {
	Title       string `json:"title" binding:"required"`
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
}

// UploadResponse carries the pre-signed PUT URL plus the stored metadata.
type UploadResponse struct {
	Resource  models.Resource `json:"resource"`
	UploadURL string          `json:"upload_url"`
}

// RequestUpload handles POST /api/resources/upload-url (staff): registers
// metadata and returns a pre-signed PUT URL for the client to upload to.
func (h *Handler) RequestUpload(c *gin.Context) {
	var req UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if !storage.ValidateDocumentType(req.ContentType, req.Filename) {
		response.BadRequest(c, "unsupported file type")
		return
	}
	if req.SizeBytes > storage.MaxDocumentSize {
		response.BadRequest(c, "file too large")
		return
	}
	contentType := req.ContentType
	if contentType == "" {
		contentType = storage.ContentTypeForFilename(req.Filename)
	}

	res := models.Resource{
		ID:          uuid.New(),
		Title:       req.Title,
		ContentType: contentType,
		SizeBytes:   req.SizeBytes,
		UploadedBy:  c.MustGet(middleware.ContextUserID).(uuid.UUID),
	}
	res.FileKey = storage.DocumentKey(res.ID.String(), req.Filename)

	uploadURL, err := h.s3.GeneratePresignedUploadURL(c.Request.Context(), res.FileKey, contentType, h.s3.PresignExpire())
	if err != nil {
		h.logger.Error("presign upload failed", zap.Error(err))
		response.Internal(c, "failed to prepare upload")
		return
	}
	if err := h.repo.Create(c.Request.Context(), &res); err != nil {
		response.Internal(c, "failed to save resource")
		return
	}
	response.Created(c, UploadResponse{Resource: res, UploadURL: uploadURL})
}

// Download handles GET /api/resources/:id/download: redirects to a
// pre-signed GET URL.
func (h *Handler) Download(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid resource id")
		return
	}
	res, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "resource not found")
		return
	}
	url, err := h.s3.GeneratePresignedDownloadURL(c.Request.Context(), res.FileKey, h.s3.PresignExpire())
	if err != nil {
		h.logger.Error("presign download failed", zap.Error(err))
		response.Internal(c, "failed to prepare download")
		return
	}
	response.OK(c, gin.H{"download_url": url})
}

// Delete handles DELETE /api/resources/:id (staff): removes the object and
// its metadata.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid resource id")
		return
	}
	res, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "resource not found")
		return
	}
	if err := h.s3.DeleteObject(c.Request.Context(), res.FileKey); err != nil {
		h.logger.Warn("failed to delete object, removing metadata anyway",
			zap.String("key", res.FileKey), zap.Error(err))
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		response.Internal(c, "failed to delete resource")
		return
	}
	response.NoContent(c)
}
