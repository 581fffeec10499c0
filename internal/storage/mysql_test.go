package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/AayushPaigwar/resume-sync-ai/internal/config"
	"github.com/AayushPaigwar/resume-sync-ai/internal/types"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newMockMySQL(t *testing.T) (*MySQL, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	m, err := NewMySQLWithDB(db, &config.MySQLConfig{Database: "resume_sync"})
	require.NoError(t, err)
	return m, mock
}

func TestMySQL_Create(t *testing.T) {
	m, mock := newMockMySQL(t)
	now := time.Now()

	mock.ExpectExec("INSERT INTO `resumes`").WillReturnResult(sqlmock.NewResult(0, 1))

	record := &types.ResumeRecord{
		ID:            "r-1",
		UserID:        "u-1",
		FileName:      "cv.pdf",
		ExtractedData: types.NewStructuredResumeData(),
		ExtractedText: "text",
		ProcessedAt:   &now,
	}
	require.NoError(t, m.Create(context.Background(), record))
	assert.False(t, record.CreatedAt.IsZero(), "创建时间应回填")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQL_GetByID(t *testing.T) {
	m, mock := newMockMySQL(t)

	rows := sqlmock.NewRows([]string{"id", "user_id", "file_name", "file_url", "media_type", "extracted_data", "extracted_text"}).
		AddRow("r-1", "u-1", "cv.pdf", "http://f/cv.pdf", "application/pdf",
			[]byte(`{"technical_skills":["Go"],"soft_skills":[],"experience":[{"title":"Engineer","company":"Acme","duration":"2020"}]}`), "text")
	mock.ExpectQuery("SELECT \\* FROM `resumes` WHERE id = \\?").WillReturnRows(rows)

	record, err := m.GetByID(context.Background(), "r-1")
	require.NoError(t, err)
	assert.Equal(t, "http://f/cv.pdf", record.FileURL)
	require.NotNil(t, record.ExtractedData)
	assert.Equal(t, []string{"Go"}, record.ExtractedData.TechnicalSkills)
	assert.Equal(t, "Acme", record.ExtractedData.Experience[0].Company)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQL_GetByID_NotFound(t *testing.T) {
	m, mock := newMockMySQL(t)
	mock.ExpectQuery("SELECT \\* FROM `resumes`").WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := m.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrResumeNotFound)
}

func TestMySQL_UpdateExtractedData(t *testing.T) {
	m, mock := newMockMySQL(t)

	mock.ExpectExec("UPDATE `resumes` SET").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, m.UpdateExtractedData(context.Background(), "r-1", types.NewStructuredResumeData(), time.Now()))

	mock.ExpectExec("UPDATE `resumes` SET").WillReturnResult(sqlmock.NewResult(0, 0))
	err := m.UpdateExtractedData(context.Background(), "missing", types.NewStructuredResumeData(), time.Now())
	assert.ErrorIs(t, err, ErrResumeNotFound)

	mock.ExpectExec("UPDATE `resumes` SET").WillReturnError(errors.New("deadlock"))
	err = m.UpdateExtractedData(context.Background(), "r-1", nil, time.Now())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrResumeNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
