package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/campushq/campus-admin-api/internal/dto"
	"github.com/campushq/campus-admin-api/internal/models"
	appErrors "github.com/campushq/campus-admin-api/pkg/errors"
	"github.com/campushq/campus-admin-api/pkg/export"
)

type analyticsStore interface {
	SummaryByInstitution(ctx context.Context, institutionID string) ([]models.EnrollmentSummary, error)
	TrendsByDepartment(ctx context.Context, departmentID string, termCount int) ([]models.EnrollmentTrendPoint, error)
}

type analyticsDepartmentReader interface {
	FindByID(ctx context.Context, id string) (*models.Department, error)
}

type analyticsConfigReader interface {
	GetDepartmentConfig(ctx context.Context, departmentID string) (*dto.DepartmentConfigResponse, error)
}

// AnalyticsService aggregates enrollment figures per department, cached in
// Redis and keyed by institution so settings updates can invalidate them.
type AnalyticsService struct {
	repo        analyticsStore
	departments analyticsDepartmentReader
	settings    analyticsConfigReader
	cache       *CacheService
	metrics     *MetricsService
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
	cacheTTL    time.Duration
	logger      *zap.Logger
}

// NewAnalyticsService constructs the analytics service.
func NewAnalyticsService(repo analyticsStore, departments analyticsDepartmentReader, settings analyticsConfigReader, cache *CacheService, metrics *MetricsService, cacheTTL time.Duration, logger *zap.Logger) *AnalyticsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalyticsService{
		repo:        repo,
		departments: departments,
		settings:    settings,
		cache:       cache,
		metrics:     metrics,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		cacheTTL:    cacheTTL,
		logger:      logger,
	}
}

// EnrollmentSummary returns per-department enrollment totals with capacity
// utilisation against each department's effective default capacity.
func (s *AnalyticsService) EnrollmentSummary(ctx context.Context, institutionID string) ([]models.EnrollmentSummary, error) {
	cacheKey := fmt.Sprintf("analytics:enrollment:%s:summary", institutionID)

	var cached []models.EnrollmentSummary
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return cached, nil
	}

	start := time.Now()
	summaries, err := s.repo.SummaryByInstitution(ctx, institutionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment summary")
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("enrollment_summary", time.Since(start))
	}

	for i := range summaries {
		capacity := s.departmentCapacity(ctx, summaries[i].DepartmentID)
		summaries[i].Capacity = capacity
		if capacity > 0 {
			summaries[i].Utilization = float64(summaries[i].ActiveCount) / float64(capacity)
		}
	}

	if err := s.cache.Set(ctx, cacheKey, summaries, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache enrollment summary", zap.Error(err))
	}
	return summaries, nil
}

// EnrollmentTrends returns per-term active counts for a department.
func (s *AnalyticsService) EnrollmentTrends(ctx context.Context, departmentID string, termCount int) ([]models.EnrollmentTrendPoint, error) {
	dept, err := s.departments.FindByID(ctx, departmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "department not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load department")
	}

	cacheKey := fmt.Sprintf("analytics:enrollment:%s:trends:%s:%d", dept.InstitutionID, departmentID, termCount)

	var cached []models.EnrollmentTrendPoint
	if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
		return cached, nil
	}

	start := time.Now()
	trends, err := s.repo.TrendsByDepartment(ctx, departmentID, termCount)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment trends")
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("enrollment_trends", time.Since(start))
	}

	if err := s.cache.Set(ctx, cacheKey, trends, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache enrollment trends", zap.Error(err))
	}
	return trends, nil
}

// ExportSummaryCSV renders the summary as CSV bytes.
func (s *AnalyticsService) ExportSummaryCSV(ctx context.Context, institutionID string) ([]byte, error) {
	summaries, err := s.EnrollmentSummary(ctx, institutionID)
	if err != nil {
		return nil, err
	}
	payload, err := s.csv.Render(summaryDataset(summaries))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render CSV export")
	}
	return payload, nil
}

// ExportSummaryPDF renders the summary as a PDF document.
func (s *AnalyticsService) ExportSummaryPDF(ctx context.Context, institutionID string) ([]byte, error) {
	summaries, err := s.EnrollmentSummary(ctx, institutionID)
	if err != nil {
		return nil, err
	}
	payload, err := s.pdf.Render(summaryDataset(summaries), "Enrollment Summary")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render PDF export")
	}
	return payload, nil
}

// SystemMetrics exposes runtime counters collected by the metrics service.
func (s *AnalyticsService) SystemMetrics() models.SystemMetrics {
	return s.metrics.Snapshot()
}

// departmentCapacity resolves the effective default class capacity for the
// department. Failures fall back to zero capacity rather than failing the
// whole summary.
func (s *AnalyticsService) departmentCapacity(ctx context.Context, departmentID string) int {
	if s.settings == nil {
		return 0
	}
	cfg, err := s.settings.GetDepartmentConfig(ctx, departmentID)
	if err != nil {
		s.logger.Warn("failed to resolve department capacity", zap.String("department_id", departmentID), zap.Error(err))
		return 0
	}
	return cfg.Config.ClassDefaults.DefaultCapacity
}

func summaryDataset(summaries []models.EnrollmentSummary) export.Dataset {
	rows := make([][]string, 0, len(summaries))
	for _, summary := range summaries {
		rows = append(rows, []string{
			summary.DepartmentName,
			strconv.Itoa(summary.ActiveCount),
			strconv.Itoa(summary.WithdrawnCount),
			strconv.Itoa(summary.TotalCount),
			strconv.Itoa(summary.Capacity),
			fmt.Sprintf("%.2f", summary.Utilization),
		})
	}
	return export.Dataset{
		Headers: []string{"Department", "Active", "Withdrawn", "Total", "Capacity", "Utilization"},
		Rows:    rows,
	}
}
