package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/campushq/campus-admin-api/internal/models"
	appErrors "github.com/campushq/campus-admin-api/pkg/errors"
	"github.com/campushq/campus-admin-api/pkg/response"
)

type analyticsService interface {
	EnrollmentSummary(ctx context.Context, institutionID string) ([]models.EnrollmentSummary, error)
	EnrollmentTrends(ctx context.Context, departmentID string, termCount int) ([]models.EnrollmentTrendPoint, error)
	ExportSummaryCSV(ctx context.Context, institutionID string) ([]byte, error)
	ExportSummaryPDF(ctx context.Context, institutionID string) ([]byte, error)
	SystemMetrics() models.SystemMetrics
}

// AnalyticsHandler exposes enrollment analytics endpoints.
type AnalyticsHandler struct {
	service analyticsService
}

// NewAnalyticsHandler builds a new handler.
func NewAnalyticsHandler(service analyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{service: service}
}

// Summary godoc
// @Summary Enrollment summary per department
// @Tags Analytics
// @Produce json
// @Param institutionId query string false "Institution ID"
// @Success 200 {object} response.Envelope
// @Router /analytics/enrollment/summary [get]
func (h *AnalyticsHandler) Summary(c *gin.Context) {
	institutionID := h.institutionID(c)
	if institutionID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "institutionId is required"))
		return
	}
	summaries, err := h.service.EnrollmentSummary(c.Request.Context(), institutionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summaries, nil)
}

// Trends godoc
// @Summary Enrollment trends per term
// @Tags Analytics
// @Produce json
// @Param departmentId query string true "Department ID"
// @Param termCount query int false "Number of terms"
// @Success 200 {object} response.Envelope
// @Router /analytics/enrollment/trends [get]
func (h *AnalyticsHandler) Trends(c *gin.Context) {
	departmentID := c.Query("departmentId")
	if departmentID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "departmentId is required"))
		return
	}
	termCount, _ := strconv.Atoi(c.Query("termCount"))
	trends, err := h.service.EnrollmentTrends(c.Request.Context(), departmentID, termCount)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, trends, nil)
}

// ExportCSV godoc
// @Summary Export the enrollment summary as CSV
// @Tags Analytics
// @Produce text/csv
// @Param institutionId query string false "Institution ID"
// @Success 200 {file} file
// @Router /analytics/enrollment/summary/export/csv [get]
func (h *AnalyticsHandler) ExportCSV(c *gin.Context) {
	institutionID := h.institutionID(c)
	if institutionID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "institutionId is required"))
		return
	}
	payload, err := h.service.ExportSummaryCSV(c.Request.Context(), institutionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	fileName := fmt.Sprintf("enrollment-summary-%s.csv", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	c.Data(http.StatusOK, "text/csv", payload)
}

// ExportPDF godoc
// @Summary Export the enrollment summary as PDF
// @Tags Analytics
// @Produce application/pdf
// @Param institutionId query string false "Institution ID"
// @Success 200 {file} file
// @Router /analytics/enrollment/summary/export/pdf [get]
func (h *AnalyticsHandler) ExportPDF(c *gin.Context) {
	institutionID := h.institutionID(c)
	if institutionID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "institutionId is required"))
		return
	}
	payload, err := h.service.ExportSummaryPDF(c.Request.Context(), institutionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	fileName := fmt.Sprintf("enrollment-summary-%s.pdf", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	c.Data(http.StatusOK, "application/pdf", payload)
}

// System godoc
// @Summary Runtime metrics snapshot
// @Tags Analytics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /analytics/system [get]
func (h *AnalyticsHandler) System(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.SystemMetrics(), nil)
}

// institutionID prefers the explicit query parameter and falls back to the
// caller's own institution.
func (h *AnalyticsHandler) institutionID(c *gin.Context) string {
	if id := c.Query("institutionId"); id != "" {
		return id
	}
	if claims := claimsFromContext(c); claims != nil {
		return claims.InstitutionID
	}
	return ""
}
