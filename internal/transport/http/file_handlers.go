package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/codesync-server/internal/store"
)

// FileHandlers provides HTTP handlers for saved-file endpoints. These sit
// next to the signaling core, not inside it: rooms never read or write the
// store, clients save snapshots explicitly.
type FileHandlers struct {
	store store.FileStore
	log   *zerolog.Logger
}

// NewFileHandlers creates a new file handlers instance.
func NewFileHandlers(st store.FileStore, logger *zerolog.Logger) *FileHandlers {
	return &FileHandlers{
		store: st,
		log:   logger,
	}
}

// CreateFileRequest represents the create file request body.
type CreateFileRequest struct {
	Name      string `json:"name" binding:"required,min=1,max=128"`
	Extension string `json:"extension" binding:"required,min=1,max=16"`
	Content   string `json:"content"`
}

// UpdateFileRequest represents the update file request body.
type UpdateFileRequest struct {
	Content string `json:"content"`
}

// FileResponse represents a file in API responses.
type FileResponse struct {
	ID        string `json:"fileId"`
	Name      string `json:"name"`
	Extension string `json:"extension"`
	Content   string `json:"content,omitempty"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// Create handles file creation.
// POST /api/files
func (h *FileHandlers) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req CreateFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	f := &store.File{
		ID:        uuid.NewString(),
		OwnerID:   userID,
		Name:      req.Name,
		Extension: req.Extension,
		Content:   req.Content,
	}
	if err := h.store.CreateFile(c.Request.Context(), f); err != nil {
		h.log.Error().Err(err).Int64("user_id", userID).Msg("create file failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		return
	}

	c.JSON(http.StatusCreated, fileResponse(f, true))
}

// List returns the caller's files without content.
// GET /api/files
func (h *FileHandlers) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	files, err := h.store.ListFiles(c.Request.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", userID).Msg("list files failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		return
	}

	out := make([]FileResponse, 0, len(files))
	for _, f := range files {
		out = append(out, fileResponse(f, false))
	}
	c.JSON(http.StatusOK, gin.H{"files": out})
}

// Get returns one file with content.
// GET /api/files/:id
func (h *FileHandlers) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	f, err := h.store.GetFile(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "file not found"})
			return
		}
		h.log.Error().Err(err).Int64("user_id", userID).Msg("get file failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"file": fileResponse(f, true)})
}

// Update replaces a file's content.
// PUT /api/files/:id
func (h *FileHandlers) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	var req UpdateFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	err := h.store.UpdateFileContent(c.Request.Context(), c.Param("id"), userID, req.Content)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "file not found"})
			return
		}
		h.log.Error().Err(err).Int64("user_id", userID).Msg("update file failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

// Delete removes a file.
// DELETE /api/files/:id
func (h *FileHandlers) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		return
	}

	err := h.store.DeleteFile(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "file not found"})
			return
		}
		h.log.Error().Err(err).Int64("user_id", userID).Msg("delete file failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func fileResponse(f *store.File, withContent bool) FileResponse {
	resp := FileResponse{
		ID:        f.ID,
		Name:      f.Name,
		Extension: f.Extension,
		CreatedAt: f.CreatedAt.Format(time.RFC3339),
		UpdatedAt: f.UpdatedAt.Format(time.RFC3339),
	}
	if withContent {
		resp.Content = f.Content
	}
	return resp
}
