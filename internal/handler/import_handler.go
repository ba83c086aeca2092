package handler

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campushq/campus-admin-api/internal/models"
	appErrors "github.com/campushq/campus-admin-api/pkg/errors"
	"github.com/campushq/campus-admin-api/pkg/response"
)

type importService interface {
	ImportUsers(ctx context.Context, reader io.Reader, fileName string, institutionID string, departmentID *string, actorID string) (*models.UserImport, []models.ImportRowError, error)
	Rollback(ctx context.Context, importID string, actorID string) (*models.UserImport, error)
	History(ctx context.Context, institutionID string, limit int) ([]models.UserImport, error)
}

// ImportHandler exposes bulk user import endpoints.
type ImportHandler struct {
	service     importService
	maxFileSize int64
}

// NewImportHandler builds a new handler.
func NewImportHandler(service importService, maxFileSize int64) *ImportHandler {
	if maxFileSize <= 0 {
		maxFileSize = 5 << 20
	}
	return &ImportHandler{service: service, maxFileSize: maxFileSize}
}

// ImportUsers godoc
// @Summary Bulk import users from CSV
// @Tags Imports
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV file"
// @Param department_id formData string false "Target department"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /imports/users [post]
func (h *ImportHandler) ImportUsers(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "CSV file is required"))
		return
	}
	if fileHeader.Size > h.maxFileSize {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file exceeds the size limit"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open upload"))
		return
	}
	defer file.Close()

	var departmentID *string
	if dept := c.PostForm("department_id"); dept != "" {
		departmentID = &dept
	}

	imp, rowErrs, err := h.service.ImportUsers(c.Request.Context(), file, fileHeader.Filename, claims.InstitutionID, departmentID, claims.UserID)
	if err != nil {
		if len(rowErrs) > 0 {
			response.JSON(c, http.StatusUnprocessableEntity, gin.H{"errors": rowErrs}, nil)
			return
		}
		response.Error(c, err)
		return
	}

	response.Created(c, imp)
}

// Rollback godoc
// @Summary Roll back a completed import
// @Tags Imports
// @Produce json
// @Param id path string true "Import ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /imports/{id}/rollback [post]
func (h *ImportHandler) Rollback(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	imp, err := h.service.Rollback(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, imp, nil)
}

// History godoc
// @Summary List past imports for the caller's institution
// @Tags Imports
// @Produce json
// @Param limit query int false "Max entries"
// @Success 200 {object} response.Envelope
// @Router /imports [get]
func (h *ImportHandler) History(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	imports, err := h.service.History(c.Request.Context(), claims.InstitutionID, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, imports, nil)
}
