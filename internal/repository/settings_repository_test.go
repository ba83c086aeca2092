package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushq/campus-admin-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return sqlxDB, mock, func() {
		sqlxDB.Close()
		db.Close()
	}
}

func TestSettingsRepositoryGetInstitutionSettings(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSettingsRepository(db)
	settings := models.DefaultInstitutionSettings()
	payload, err := json.Marshal(settings)
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"institution_id", "settings", "updated_by", "updated_at"}).
		AddRow("inst-1", payload, nil, time.Now())
	mock.ExpectQuery("SELECT institution_id, settings").
		WithArgs("inst-1").
		WillReturnRows(rows)

	result, err := repo.GetInstitutionSettings(context.Background(), "inst-1")
	require.NoError(t, err)
	assert.Equal(t, settings, result)
}

func TestSettingsRepositoryGetInstitutionSettingsNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSettingsRepository(db)
	mock.ExpectQuery("SELECT institution_id, settings").
		WithArgs("inst-unknown").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetInstitutionSettings(context.Background(), "inst-unknown")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestSettingsRepositorySaveInstitutionSettings(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSettingsRepository(db)
	mock.ExpectExec("INSERT INTO institution_settings").
		WithArgs("inst-1", sqlmock.AnyArg(), "admin-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	updatedBy := "admin-1"
	err := repo.SaveInstitutionSettings(context.Background(), "inst-1", models.DefaultInstitutionSettings(), &updatedBy)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsRepositoryGetDepartmentSettings(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSettingsRepository(db)
	capacity := 42
	overrides := models.DepartmentSettings{
		ClassDefaults: models.DepartmentClassDefaults{DefaultCapacity: &capacity},
	}
	payload, err := json.Marshal(overrides)
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"department_id", "overrides", "updated_by", "updated_at"}).
		AddRow("dept-1", payload, nil, time.Now())
	mock.ExpectQuery("SELECT department_id, overrides").
		WithArgs("dept-1").
		WillReturnRows(rows)

	result, err := repo.GetDepartmentSettings(context.Background(), "dept-1")
	require.NoError(t, err)
	require.NotNil(t, result.ClassDefaults.DefaultCapacity)
	assert.Equal(t, 42, *result.ClassDefaults.DefaultCapacity)
}

func TestSettingsRepositorySaveDepartmentSettings(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewSettingsRepository(db)
	mock.ExpectExec("INSERT INTO department_settings").
		WithArgs("dept-1", sqlmock.AnyArg(), nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SaveDepartmentSettings(context.Background(), "dept-1", models.DepartmentSettings{}, nil)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
