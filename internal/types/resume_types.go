package types

// RawDocument 上传或下载得到的原始文档，仅在单次请求内有效
type RawDocument struct {
	Content   []byte // 文件二进制内容
	MediaType string // 声明的媒体类型
	Filename  string // 原始文件名
}

// Size 返回文档字节数
func (d *RawDocument) Size() int64 {
	if d == nil {
		return 0
	}
	return int64(len(d.Content))
}

// ExtractedText 文档提取出的线性文本
type ExtractedText struct {
	Text      string // 按页序拼接后的文本
	PageCount int    // 源文档页数，无分页格式为0
}

// ExperienceEntry 单条工作经历
type ExperienceEntry struct {
	Title    string `json:"title"`
	Company  string `json:"company"`
	Duration string `json:"duration"`
}

// StructuredResumeData 流水线的规范输出
// 三个数组始终存在，序列化时不会出现 null
type StructuredResumeData struct {
	TechnicalSkills []string          `json:"technical_skills"`
	SoftSkills      []string          `json:"soft_skills"`
	Experience      []ExperienceEntry `json:"experience"`
	ExtractionNote  string            `json:"extraction_note,omitempty"`
}

// NewStructuredResumeData 创建一个三个数组均为空的结果
func NewStructuredResumeData() *StructuredResumeData {
	return &StructuredResumeData{
		TechnicalSkills: []string{},
		SoftSkills:      []string{},
		Experience:      []ExperienceEntry{},
	}
}

// EmptyWithNote 返回带说明的空结果
func EmptyWithNote(note string) *StructuredResumeData {
	d := NewStructuredResumeData()
	d.ExtractionNote = note
	return d
}

// Normalize 把 nil 切片替换为空切片，保证结构完整
func (d *StructuredResumeData) Normalize() *StructuredResumeData {
	if d == nil {
		return NewStructuredResumeData()
	}
	if d.TechnicalSkills == nil {
		d.TechnicalSkills = []string{}
	}
	if d.SoftSkills == nil {
		d.SoftSkills = []string{}
	}
	if d.Experience == nil {
		d.Experience = []ExperienceEntry{}
	}
	return d
}

// IsEmpty 判断是否没有抽取到任何字段
func (d *StructuredResumeData) IsEmpty() bool {
	return d == nil || (len(d.TechnicalSkills) == 0 && len(d.SoftSkills) == 0 && len(d.Experience) == 0)
}

// ExtractionAttempt 单个抽取策略的执行记录，仅供级联决策和观测使用
type ExtractionAttempt struct {
	Strategy string
	Success  bool
	Err      error
	Result   *StructuredResumeData
}

// AnalysisOutcome 分析阶段的结果以及过程中的所有尝试
type AnalysisOutcome struct {
	Data     *StructuredResumeData
	Attempts []ExtractionAttempt
}

// FinalStrategy 返回最终成功的策略名
func (o *AnalysisOutcome) FinalStrategy() string {
	if o == nil {
		return ""
	}
	for i := len(o.Attempts) - 1; i >= 0; i-- {
		if o.Attempts[i].Success {
			return o.Attempts[i].Strategy
		}
	}
	return ""
}
