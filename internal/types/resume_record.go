package types

import "time"

// ResumeRecord 持久化层中的一条简历记录
type ResumeRecord struct {
	ID            string
	UserID        string
	FileName      string
	FileURL       string
	MediaType     string
	ExtractedData *StructuredResumeData
	ExtractedText string // 提取文本的前缀
	ProcessedAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ProcessResumeTask 异步处理队列中的消息
type ProcessResumeTask struct {
	ResumeID string `json:"resume_id"`
}

// ResumeExtractedEvent 处理完成后发布的事件
type ResumeExtractedEvent struct {
	EventID              string    `json:"event_id"`
	ResumeID             string    `json:"resume_id"`
	FileName             string    `json:"file_name"`
	TechnicalSkillsCount int       `json:"technical_skills_count"`
	SoftSkillsCount      int       `json:"soft_skills_count"`
	ExperienceCount      int       `json:"experience_count"`
	ExtractionNote       string    `json:"extraction_note,omitempty"`
	ProcessedAt          time.Time `json:"processed_at"`
}
