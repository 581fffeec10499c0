package constants

import "time"

const (
	// 抽取流水线的固定参数
	MinViableTextLength   = 50     // 低于该长度不调用主提示词
	PrimaryMaxInputChars  = 30000  // 主提示词输入截断长度
	DegradedMaxInputChars = 5000   // 降级提示词输入截断长度
	StoredTextPrefixChars = 10000  // 入库保存的原始文本前缀长度
	MaxUploadBytes        = 10 << 20
	ShortTextPlaceholder  = "Failed to extract resume text"

	// 支持的文档类型
	MediaTypePDF  = "application/pdf"
	MediaTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	DefaultGeminiModel   = "gemini-1.5-flash-latest"
	DefaultLLMTimeout    = 60 * time.Second
	DefaultLockTTL       = 5 * time.Minute

	// 消息相关
	DefaultProcessQueue        = "q.resume_process"
	DefaultEventsExchange      = "resume.events.exchange"
	DefaultExtractedRoutingKey = "resume.extracted"
)
