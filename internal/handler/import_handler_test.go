package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushq/campus-admin-api/internal/models"
	appErrors "github.com/campushq/campus-admin-api/pkg/errors"
)

type importServiceMock struct {
	importResp *models.UserImport
	rowErrs    []models.ImportRowError
	importErr  error
	rollback   *models.UserImport
	history    []models.UserImport
}

func (m *importServiceMock) ImportUsers(ctx context.Context, reader io.Reader, fileName string, institutionID string, departmentID *string, actorID string) (*models.UserImport, []models.ImportRowError, error) {
	if m.importErr != nil {
		return nil, m.rowErrs, m.importErr
	}
	return m.importResp, nil, nil
}

func (m *importServiceMock) Rollback(ctx context.Context, importID string, actorID string) (*models.UserImport, error) {
	return m.rollback, nil
}

func (m *importServiceMock) History(ctx context.Context, institutionID string, limit int) ([]models.UserImport, error) {
	return m.history, nil
}

func csvUploadRequest(t *testing.T, fileName, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req, _ := http.NewRequest(http.MethodPost, "/imports/users", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestImportHandlerImportUsers(t *testing.T) {
	mock := &importServiceMock{importResp: &models.UserImport{
		ID:            "import-1",
		InstitutionID: "inst-1",
		RowCount:      2,
		Status:        models.ImportStatusCompleted,
	}}
	handler := NewImportHandler(mock, 0)

	w := httptest.NewRecorder()
	c, _ := adminContext(w)
	c.Request = csvUploadRequest(t, "users.csv", "email,full_name,role,password\n")

	handler.ImportUsers(c)
	require.Equal(t, http.StatusCreated, w.Code)

	var envelope struct {
		Data models.UserImport `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "import-1", envelope.Data.ID)
}

func TestImportHandlerMissingFile(t *testing.T) {
	handler := NewImportHandler(&importServiceMock{}, 0)

	w := httptest.NewRecorder()
	c, _ := adminContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/imports/users", nil)
	c.Request = req

	handler.ImportUsers(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestImportHandlerRowErrorsReturn422(t *testing.T) {
	mock := &importServiceMock{
		importErr: appErrors.ErrValidation,
		rowErrs: []models.ImportRowError{
			{Row: 3, Field: "email", Code: appErrors.ErrInvalidFormat.Code, Message: "invalid email"},
		},
	}
	handler := NewImportHandler(mock, 0)

	w := httptest.NewRecorder()
	c, _ := adminContext(w)
	c.Request = csvUploadRequest(t, "users.csv", "email,full_name,role,password\nbad\n")

	handler.ImportUsers(c)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var envelope struct {
		Data struct {
			Errors []models.ImportRowError `json:"errors"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data.Errors, 1)
	assert.Equal(t, 3, envelope.Data.Errors[0].Row)
}

func TestImportHandlerFileTooLarge(t *testing.T) {
	handler := NewImportHandler(&importServiceMock{}, 8)

	w := httptest.NewRecorder()
	c, _ := adminContext(w)
	c.Request = csvUploadRequest(t, "users.csv", "email,full_name,role,password\nmuch more than eight bytes\n")

	handler.ImportUsers(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestImportHandlerUnauthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewImportHandler(&importServiceMock{}, 0)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = csvUploadRequest(t, "users.csv", "email,full_name,role,password\n")

	handler.ImportUsers(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestImportHandlerRollback(t *testing.T) {
	rolledBackBy := "admin-1"
	mock := &importServiceMock{rollback: &models.UserImport{
		ID:           "import-1",
		Status:       models.ImportStatusRolledBack,
		RolledBackBy: &rolledBackBy,
	}}
	handler := NewImportHandler(mock, 0)

	w := httptest.NewRecorder()
	c, _ := adminContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/imports/import-1/rollback", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "import-1"}}

	handler.Rollback(c)
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data models.UserImport `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, models.ImportStatusRolledBack, envelope.Data.Status)
}
