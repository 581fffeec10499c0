package models

import (
	"testing"
	"time"

	"github.com/AayushPaigwar/resume-sync-ai/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResumeRecordConversion(t *testing.T) {
	now := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	record := &types.ResumeRecord{
		ID:        "r-1",
		UserID:    "u-1",
		FileName:  "cv.pdf",
		FileURL:   "http://minio/resumes/resume/r-1/original.pdf",
		MediaType: "application/pdf",
		ExtractedData: &types.StructuredResumeData{
			TechnicalSkills: []string{"Go"},
		},
		ExtractedText: "text",
		ProcessedAt:   &now,
	}

	m, err := FromRecord(record)
	require.NoError(t, err)
	assert.JSONEq(t, `{"technical_skills":["Go"],"soft_skills":[],"experience":[]}`, string(m.ExtractedData))

	back := m.ToRecord()
	assert.Equal(t, record.ID, back.ID)
	assert.Equal(t, []string{"Go"}, back.ExtractedData.TechnicalSkills)
	assert.NotNil(t, back.ExtractedData.Experience)
	assert.Equal(t, &now, back.ProcessedAt)
}

func TestToRecord_NoExtractedData(t *testing.T) {
	m := &Resume{ID: "r-2"}
	assert.Nil(t, m.ToRecord().ExtractedData)

	data, err := EncodeExtractedData(nil)
	require.NoError(t, err)
	assert.Nil(t, data)
}
