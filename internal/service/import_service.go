package service

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/campushq/campus-admin-api/internal/models"
	appErrors "github.com/campushq/campus-admin-api/pkg/errors"
)

type importStore interface {
	Create(ctx context.Context, imp *models.UserImport) error
	GetByID(ctx context.Context, id string) (*models.UserImport, error)
	List(ctx context.Context, institutionID string, limit int) ([]models.UserImport, error)
	MarkRolledBack(ctx context.Context, id, rolledBackBy string, rolledBackAt time.Time) error
}

type importUserWriter interface {
	ListEmails(ctx context.Context, emails []string) ([]string, error)
	BulkCreate(ctx context.Context, users []models.User) error
	DeleteByIDs(ctx context.Context, ids []string) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// ImportConfig bounds accepted CSV uploads.
type ImportConfig struct {
	MaxRows int
}

// ImportService handles bulk user imports from CSV with full-file validation
// and snapshot-based rollback.
type ImportService struct {
	repo      importStore
	users     importUserWriter
	validator *validator.Validate
	logger    *zap.Logger
	config    ImportConfig
}

// NewImportService constructs an ImportService.
func NewImportService(repo importStore, users importUserWriter, validate *validator.Validate, logger *zap.Logger, config ImportConfig) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.MaxRows <= 0 {
		config.MaxRows = 5000
	}
	return &ImportService{repo: repo, users: users, validator: validate, logger: logger, config: config}
}

var importColumns = []string{"email", "full_name", "role", "password"}

// ImportUsers parses and validates the CSV, then inserts every row in one
// transaction. Any row error rejects the whole file and returns the complete
// error list.
func (s *ImportService) ImportUsers(ctx context.Context, reader io.Reader, fileName string, institutionID string, departmentID *string, actorID string) (*models.UserImport, []models.ImportRowError, error) {
	rows, rowErrs, err := s.parseCSV(reader)
	if err != nil {
		return nil, nil, err
	}
	if len(rowErrs) == 0 {
		rowErrs = s.validateRows(ctx, rows)
	}
	if len(rowErrs) > 0 {
		return nil, rowErrs, appErrors.Clone(appErrors.ErrValidation, "import rejected: one or more rows are invalid")
	}

	users := make([]models.User, 0, len(rows))
	ids := make([]string, 0, len(rows))
	now := time.Now().UTC()
	for _, row := range rows {
		hash, hashErr := bcrypt.GenerateFromPassword([]byte(row.password), bcrypt.DefaultCost)
		if hashErr != nil {
			return nil, nil, appErrors.Wrap(hashErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
		}
		id := uuid.NewString()
		ids = append(ids, id)
		users = append(users, models.User{
			ID:            id,
			InstitutionID: institutionID,
			DepartmentID:  departmentID,
			Email:         row.email,
			FullName:      row.fullName,
			Role:          row.role,
			Active:        true,
			PasswordHash:  string(hash),
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	}

	if err := s.users.BulkCreate(ctx, users); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to insert imported users")
	}

	snapshot, _ := json.Marshal(ids)
	imp := &models.UserImport{
		InstitutionID:  institutionID,
		DepartmentID:   departmentID,
		FileName:       fileName,
		RowCount:       len(users),
		CreatedUserIDs: snapshot,
		Status:         models.ImportStatusCompleted,
		ImportedBy:     actorID,
	}
	if err := s.repo.Create(ctx, imp); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record import")
	}

	payload, _ := json.Marshal(map[string]interface{}{"rows": imp.RowCount, "file": imp.FileName})
	if err := s.users.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actorID,
		Action:     models.AuditActionUserImport,
		Resource:   "user_imports",
		ResourceID: &imp.ID,
		NewValues:  payload,
	}); err != nil {
		s.logger.Warn("failed to record import audit log", zap.Error(err))
	}

	return imp, nil, nil
}

// Rollback deletes every user created by the import. Rolling back twice fails
// with ALREADY_ROLLED_BACK, an unknown import with SNAPSHOT_NOT_FOUND.
func (s *ImportService) Rollback(ctx context.Context, importID string, actorID string) (*models.UserImport, error) {
	imp, err := s.repo.GetByID(ctx, importID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrSnapshotNotFound, "import snapshot not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load import")
	}
	if imp.Status == models.ImportStatusRolledBack {
		return nil, appErrors.Clone(appErrors.ErrAlreadyRolledBack, "import already rolled back")
	}

	var ids []string
	if err := json.Unmarshal(imp.CreatedUserIDs, &ids); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "corrupt import snapshot")
	}

	if len(ids) > 0 {
		if err := s.users.DeleteByIDs(ctx, ids); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete imported users")
		}
	}

	now := time.Now().UTC()
	if err := s.repo.MarkRolledBack(ctx, imp.ID, actorID, now); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark import rolled back")
	}

	imp.Status = models.ImportStatusRolledBack
	imp.RolledBackBy = &actorID
	imp.RolledBackAt = &now

	payload, _ := json.Marshal(map[string]interface{}{"deleted": len(ids)})
	if err := s.users.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actorID,
		Action:     models.AuditActionUserImportRollback,
		Resource:   "user_imports",
		ResourceID: &imp.ID,
		NewValues:  payload,
	}); err != nil {
		s.logger.Warn("failed to record rollback audit log", zap.Error(err))
	}

	return imp, nil
}

// History lists past imports for the institution.
func (s *ImportService) History(ctx context.Context, institutionID string, limit int) ([]models.UserImport, error) {
	imports, err := s.repo.List(ctx, institutionID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list imports")
	}
	return imports, nil
}

type importRow struct {
	line     int
	email    string
	fullName string
	role     models.UserRole
	password string
}

func (s *ImportService) parseCSV(reader io.Reader) ([]importRow, []models.ImportRowError, error) {
	cr := csv.NewReader(reader)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, nil, appErrors.Clone(appErrors.ErrInvalidFormat, "missing CSV header")
	}
	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.ToLower(strings.TrimSpace(col))] = i
	}
	for _, col := range importColumns {
		if _, ok := index[col]; !ok {
			return nil, nil, appErrors.Clone(appErrors.ErrInvalidFormat, fmt.Sprintf("missing required column %q", col))
		}
	}

	var rows []importRow
	var rowErrs []models.ImportRowError
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			rowErrs = append(rowErrs, models.ImportRowError{
				Row:     line,
				Code:    appErrors.ErrInvalidFormat.Code,
				Message: "malformed CSV row",
			})
			continue
		}
		rows = append(rows, importRow{
			line:     line,
			email:    strings.ToLower(strings.TrimSpace(record[index["email"]])),
			fullName: strings.TrimSpace(record[index["full_name"]]),
			role:     models.UserRole(strings.ToUpper(strings.TrimSpace(record[index["role"]]))),
			password: record[index["password"]],
		})
	}

	if len(rows) == 0 && len(rowErrs) == 0 {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "CSV contains no data rows")
	}
	if len(rows) > s.config.MaxRows {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("CSV exceeds the %d row limit", s.config.MaxRows))
	}
	return rows, rowErrs, nil
}

// validateRows checks every row and returns the complete error list rather
// than stopping at the first failure.
func (s *ImportService) validateRows(ctx context.Context, rows []importRow) []models.ImportRowError {
	var rowErrs []models.ImportRowError

	seen := make(map[string]int, len(rows))
	emails := make([]string, 0, len(rows))
	for _, row := range rows {
		if row.email == "" {
			rowErrs = append(rowErrs, models.ImportRowError{Row: row.line, Field: "email", Code: appErrors.ErrRequired.Code, Message: "email is required"})
		} else if err := s.validator.Var(row.email, "email"); err != nil {
			rowErrs = append(rowErrs, models.ImportRowError{Row: row.line, Field: "email", Code: appErrors.ErrInvalidFormat.Code, Message: "invalid email address"})
		} else if first, dup := seen[row.email]; dup {
			rowErrs = append(rowErrs, models.ImportRowError{Row: row.line, Field: "email", Code: appErrors.ErrInvalidValue.Code, Message: fmt.Sprintf("duplicate of row %d", first)})
		} else {
			seen[row.email] = row.line
			emails = append(emails, row.email)
		}

		if row.fullName == "" {
			rowErrs = append(rowErrs, models.ImportRowError{Row: row.line, Field: "full_name", Code: appErrors.ErrRequired.Code, Message: "full name is required"})
		}
		if !models.KnownRole(row.role) {
			rowErrs = append(rowErrs, models.ImportRowError{Row: row.line, Field: "role", Code: appErrors.ErrInvalidValue.Code, Message: fmt.Sprintf("unknown role %q", row.role)})
		}
		if len(row.password) < 8 {
			rowErrs = append(rowErrs, models.ImportRowError{Row: row.line, Field: "password", Code: appErrors.ErrInvalidValue.Code, Message: "password must be at least 8 characters"})
		}
	}

	if len(emails) > 0 {
		existing, err := s.users.ListEmails(ctx, emails)
		if err != nil {
			s.logger.Warn("failed to check existing emails", zap.Error(err))
		}
		for _, email := range existing {
			if line, ok := seen[email]; ok {
				rowErrs = append(rowErrs, models.ImportRowError{Row: line, Field: "email", Code: appErrors.ErrInvalidValue.Code, Message: "email already registered"})
			}
		}
	}

	return rowErrs
}
