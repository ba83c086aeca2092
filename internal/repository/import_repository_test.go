package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushq/campus-admin-api/internal/models"
)

func TestImportRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewImportRepository(db)
	mock.ExpectExec("INSERT INTO user_imports").
		WillReturnResult(sqlmock.NewResult(0, 1))

	snapshot, _ := json.Marshal([]string{"user-1"})
	imp := &models.UserImport{
		InstitutionID:  "inst-1",
		FileName:       "users.csv",
		RowCount:       1,
		CreatedUserIDs: snapshot,
		Status:         models.ImportStatusCompleted,
		ImportedBy:     "admin-1",
	}
	require.NoError(t, repo.Create(context.Background(), imp))
	assert.NotEmpty(t, imp.ID)
	assert.False(t, imp.ImportedAt.IsZero())
}

func TestImportRepositoryGetByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewImportRepository(db)
	snapshot, _ := json.Marshal([]string{"user-1", "user-2"})
	rows := sqlmock.NewRows([]string{
		"id", "institution_id", "department_id", "file_name", "row_count",
		"created_user_ids", "status", "imported_by", "imported_at",
		"rolled_back_by", "rolled_back_at",
	}).AddRow("import-1", "inst-1", nil, "users.csv", 2, snapshot, "COMPLETED", "admin-1", time.Now(), nil, nil)
	mock.ExpectQuery("SELECT (.+) FROM user_imports WHERE id").
		WithArgs("import-1").
		WillReturnRows(rows)

	imp, err := repo.GetByID(context.Background(), "import-1")
	require.NoError(t, err)
	assert.Equal(t, 2, imp.RowCount)
	assert.Equal(t, models.ImportStatusCompleted, imp.Status)
}

func TestImportRepositoryMarkRolledBack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewImportRepository(db)
	now := time.Now().UTC()
	mock.ExpectExec("UPDATE user_imports SET status").
		WithArgs("import-1", string(models.ImportStatusRolledBack), "admin-1", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkRolledBack(context.Background(), "import-1", "admin-1", now))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositorySummaryByInstitution(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)
	rows := sqlmock.NewRows([]string{"department_id", "department_name", "active_count", "withdrawn_count", "total_count"}).
		AddRow("dept-1", "Mathematics", 40, 5, 45).
		AddRow("dept-2", "Physics", 22, 1, 23)
	mock.ExpectQuery("SELECT d.id AS department_id").
		WithArgs("inst-1").
		WillReturnRows(rows)

	summaries, err := repo.SummaryByInstitution(context.Background(), "inst-1")
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, "Mathematics", summaries[0].DepartmentName)
	assert.Equal(t, 40, summaries[0].ActiveCount)
}

func TestEnrollmentRepositoryTrendsByDepartment(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)
	rows := sqlmock.NewRows([]string{"term", "active_count"}).
		AddRow("2026-SPRING", 41).
		AddRow("2025-FALL", 38)
	mock.ExpectQuery("SELECT term").
		WithArgs("dept-1").
		WillReturnRows(rows)

	trends, err := repo.TrendsByDepartment(context.Background(), "dept-1", 2)
	require.NoError(t, err)
	require.Len(t, trends, 2)
	assert.Equal(t, "2026-SPRING", trends[0].Term)
}
