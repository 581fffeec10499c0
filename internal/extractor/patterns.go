package extractor

import "regexp"

// 日期区间：月-年到月-年，月-年到至今，年到年，年到至今
const dateRangeExpr = `(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{4}\s+(?:to|-|–)\s+(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{4}` +
	`|(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{4}\s+(?:to|-|–)\s+(?:Present|Current|Now)` +
	`|\d{4}\s+(?:to|-|–)\s+\d{4}` +
	`|\d{4}\s+(?:to|-|–)\s+(?:Present|Current|Now)`

// Patterns 启发式经历抽取使用的正则集合
type Patterns struct {
	ExperienceHeading *regexp.Regexp
	EducationHeading  *regexp.Regexp

	// 分区内逐项收集，第1个捕获组为结果
	JobTitle  *regexp.Regexp
	Company   *regexp.Regexp
	DateRange *regexp.Regexp

	// 段落兜底扫描
	WorkHint         *regexp.Regexp
	ParagraphBreak   *regexp.Regexp
	ParagraphKeep    *regexp.Regexp
	ParagraphExclude *regexp.Regexp
	ParagraphTitle   *regexp.Regexp
	ParagraphCompany *regexp.Regexp
}

// DefaultPatterns 默认正则
func DefaultPatterns() *Patterns {
	return &Patterns{
		ExperienceHeading: regexp.MustCompile(`(?i)EXPERIENCE|WORK EXPERIENCE|EMPLOYMENT|WORK HISTORY|PROFESSIONAL EXPERIENCE`),
		EducationHeading:  regexp.MustCompile(`(?i)EDUCATION|ACADEMIC|QUALIFICATION`),

		JobTitle:  regexp.MustCompile(`(?m)(?:^|\n)([A-Z][A-Za-z\s]+)(?:\n|,|\s+at|\s+-)`),
		Company:   regexp.MustCompile(`(?:at|@)\s+([A-Z][A-Za-z0-9\s&.,]+)(?:\n|,|\s+from|\s+\()`),
		DateRange: regexp.MustCompile(`(?i)(?:^|\s)(` + dateRangeExpr + `)`),

		WorkHint:         regexp.MustCompile(`(?i)work|experience|job|position|role`),
		ParagraphBreak:   regexp.MustCompile(`\n\s*\n`),
		ParagraphKeep:    regexp.MustCompile(`(?i)experience|work|position|job`),
		ParagraphExclude: regexp.MustCompile(`(?i)education|university|college|school`),
		ParagraphTitle:   regexp.MustCompile(`(?m)^([A-Z][A-Za-z\s]+)(?:\n|,|\s+at)`),
		ParagraphCompany: regexp.MustCompile(`(?:at|@)\s+([A-Z][A-Za-z0-9\s&.,]+)`),
	}
}

// roleKeyword 降级策略用于合成职位
var roleKeyword = regexp.MustCompile(`(?i)developer|engineer|manager|analyst|designer|architect|specialist|consultant`)
