package models

import (
	"encoding/json"
	"time"

	"github.com/AayushPaigwar/resume-sync-ai/internal/types"

	"gorm.io/datatypes"
)

// Resume 简历记录表
type Resume struct {
	ID            string         `gorm:"type:char(36);primaryKey" json:"id"`
	UserID        string         `gorm:"type:varchar(64);index" json:"user_id"`
	FileName      string         `gorm:"type:varchar(255)" json:"file_name"`
	FileURL       string         `gorm:"type:varchar(1024)" json:"file_url"`
	MediaType     string         `gorm:"type:varchar(128)" json:"media_type"`
	ExtractedData datatypes.JSON `json:"extracted_data"` // StructuredResumeData
	ExtractedText string         `gorm:"type:mediumtext" json:"extracted_text"`
	ProcessedAt   *time.Time     `json:"processed_at"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// TableName 指定表名
func (Resume) TableName() string {
	return "resumes"
}

// EncodeExtractedData 序列化抽取结果，空结果保持三个数组
func EncodeExtractedData(data *types.StructuredResumeData) (datatypes.JSON, error) {
	if data == nil {
		return nil, nil
	}
	b, err := json.Marshal(data.Normalize())
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}

// FromRecord 领域模型转换为数据库模型
func FromRecord(r *types.ResumeRecord) (*Resume, error) {
	data, err := EncodeExtractedData(r.ExtractedData)
	if err != nil {
		return nil, err
	}
	return &Resume{
		ID:            r.ID,
		UserID:        r.UserID,
		FileName:      r.FileName,
		FileURL:       r.FileURL,
		MediaType:     r.MediaType,
		ExtractedData: data,
		ExtractedText: r.ExtractedText,
		ProcessedAt:   r.ProcessedAt,
	}, nil
}

// ToRecord 数据库模型转换为领域模型
func (m *Resume) ToRecord() *types.ResumeRecord {
	r := &types.ResumeRecord{
		ID:            m.ID,
		UserID:        m.UserID,
		FileName:      m.FileName,
		FileURL:       m.FileURL,
		MediaType:     m.MediaType,
		ExtractedText: m.ExtractedText,
		ProcessedAt:   m.ProcessedAt,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
	if len(m.ExtractedData) > 0 {
		var data types.StructuredResumeData
		if err := json.Unmarshal(m.ExtractedData, &data); err == nil {
			r.ExtractedData = data.Normalize()
		}
	}
	return r
}
