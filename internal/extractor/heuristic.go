package extractor

import (
	"context"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/AayushPaigwar/resume-sync-ai/internal/metrics"
	"github.com/AayushPaigwar/resume-sync-ai/internal/types"
)

const (
	StrategyHeuristic = "heuristic"

	placeholderTitle    = "Position"
	placeholderCompany  = "Company"
	placeholderDuration = "Duration"
)

// HeuristicExtractor 基于词表和正则的确定性抽取，无外部调用
type HeuristicExtractor struct {
	vocab    Vocabulary
	patterns *Patterns
}

// HeuristicOption 配置选项
type HeuristicOption func(*HeuristicExtractor)

// WithVocabulary 替换词表
func WithVocabulary(v Vocabulary) HeuristicOption {
	return func(h *HeuristicExtractor) {
		h.vocab = v
	}
}

// WithPatterns 替换正则集合
func WithPatterns(p *Patterns) HeuristicOption {
	return func(h *HeuristicExtractor) {
		if p != nil {
			h.patterns = p
		}
	}
}

// NewHeuristicExtractor 创建启发式抽取器
func NewHeuristicExtractor(opts ...HeuristicOption) *HeuristicExtractor {
	h := &HeuristicExtractor{
		vocab:    DefaultVocabulary(),
		patterns: DefaultPatterns(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Extract 从文本抽取技能和经历，永不失败
func (h *HeuristicExtractor) Extract(text string) *types.StructuredResumeData {
	lower := strings.ToLower(text)

	data := types.NewStructuredResumeData()
	data.TechnicalSkills = matchVocabulary(lower, h.vocab.Technical)
	data.SoftSkills = matchVocabulary(lower, h.vocab.Soft)
	data.Experience = h.extractExperience(text)
	return data
}

// Analyze 以 AnalysisOutcome 形式返回结果，便于与 AI 抽取共用调用方
func (h *HeuristicExtractor) Analyze(_ context.Context, text string) *types.AnalysisOutcome {
	start := time.Now()
	data := h.Extract(text)
	metrics.ObserveAnalysis(StrategyHeuristic, true, time.Since(start))
	return &types.AnalysisOutcome{
		Data: data,
		Attempts: []types.ExtractionAttempt{
			{Strategy: StrategyHeuristic, Success: true, Result: data},
		},
	}
}

func matchVocabulary(lowerText string, terms []string) []string {
	found := make([]string, 0)
	seen := make(map[string]struct{})
	for _, term := range terms {
		if term == "" || !strings.Contains(lowerText, strings.ToLower(term)) {
			continue
		}
		name := titleCase(term)
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		found = append(found, name)
	}
	return found
}

// titleCase 按单个空格分词，每个词首字符大写
func titleCase(term string) string {
	words := strings.Split(term, " ")
	for i, w := range words {
		words[i] = upperFirst(w)
	}
	return strings.Join(words, " ")
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// experienceSection 从经历标题开始，截止到其后第一个教育标题
func (h *HeuristicExtractor) experienceSection(text string) string {
	loc := h.patterns.ExperienceHeading.FindStringIndex(text)
	if loc == nil {
		return text
	}
	rest := text[loc[1]:]
	if end := h.patterns.EducationHeading.FindStringIndex(rest); end != nil {
		return text[loc[0] : loc[1]+end[0]]
	}
	return text[loc[0]:]
}

func (h *HeuristicExtractor) extractExperience(text string) []types.ExperienceEntry {
	section := h.experienceSection(text)

	titles := captures(h.patterns.JobTitle, section)
	companies := captures(h.patterns.Company, section)
	dates := captures(h.patterns.DateRange, section)

	n := max(len(titles), len(companies), len(dates))
	entries := make([]types.ExperienceEntry, 0, n)
	for i := 0; i < n; i++ {
		e := types.ExperienceEntry{
			Title:    placeholderTitle,
			Duration: placeholderDuration,
		}
		if i < len(titles) {
			e.Title = titles[i]
		}
		switch {
		case i < len(companies):
			e.Company = companies[i]
		case i < len(titles):
			e.Company = placeholderCompany
		}
		if i < len(dates) {
			e.Duration = dates[i]
		}
		entries = append(entries, e)
	}

	if len(entries) == 0 && h.patterns.WorkHint.MatchString(text) {
		entries = h.scanParagraphs(text)
	}
	return entries
}

// scanParagraphs 按空行分段，每段最多取一条经历
func (h *HeuristicExtractor) scanParagraphs(text string) []types.ExperienceEntry {
	entries := make([]types.ExperienceEntry, 0)
	for _, para := range h.patterns.ParagraphBreak.Split(text, -1) {
		if !h.patterns.ParagraphKeep.MatchString(para) || h.patterns.ParagraphExclude.MatchString(para) {
			continue
		}

		e := types.ExperienceEntry{Title: placeholderTitle, Company: placeholderCompany, Duration: placeholderDuration}
		found := false
		if m := h.patterns.ParagraphTitle.FindStringSubmatch(para); m != nil {
			e.Title = strings.TrimSpace(m[1])
			found = true
		}
		if m := h.patterns.ParagraphCompany.FindStringSubmatch(para); m != nil {
			e.Company = strings.TrimSpace(m[1])
			found = true
		}
		if m := h.patterns.DateRange.FindString(para); m != "" {
			e.Duration = strings.TrimSpace(m)
			found = true
		}
		if found {
			entries = append(entries, e)
		}
	}
	return entries
}

// captures 返回所有匹配的第1个捕获组，去除首尾空白
func captures(re *regexp.Regexp, s string) []string {
	matches := re.FindAllStringSubmatch(s, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if len(m) > 1 {
			out = append(out, strings.TrimSpace(m[1]))
		}
	}
	return out
}
