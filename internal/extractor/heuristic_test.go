package extractor

import (
	"strings"
	"testing"

	"github.com/AayushPaigwar/resume-sync-ai/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeuristic_Totality(t *testing.T) {
	h := NewHeuristicExtractor()
	inputs := map[string]string{
		"空字符串": "",
		"空白":   "   \n\t\n  ",
		"超长":   strings.Repeat("Go developer with docker experience. ", 1000),
	}
	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			got := h.Extract(input)
			require.NotNil(t, got)
			assert.NotNil(t, got.TechnicalSkills)
			assert.NotNil(t, got.SoftSkills)
			assert.NotNil(t, got.Experience)
			assert.Empty(t, got.ExtractionNote)
		})
	}
}

func TestHeuristic_Idempotent(t *testing.T) {
	h := NewHeuristicExtractor()
	text := "EXPERIENCE\nBackend Developer at Globex Inc\nMar 2018 to Dec 2021\nSkills: Go, Docker, leadership"
	assert.Equal(t, h.Extract(text), h.Extract(text))
}

func TestHeuristic_SkillsDedupAndOrder(t *testing.T) {
	h := NewHeuristicExtractor()
	got := h.Extract("javascript and JavaScript, plus JAVASCRIPT. Also Python; teamwork.")

	// java 是 javascript 的子串，按词表顺序排在 python 之后
	assert.Equal(t, []string{"Javascript", "Python", "Java"}, got.TechnicalSkills)
	assert.Equal(t, []string{"Teamwork"}, got.SoftSkills)
}

func TestHeuristic_TitleCase(t *testing.T) {
	assert.Equal(t, "Machine Learning", titleCase("machine learning"))
	assert.Equal(t, "C++", titleCase("c++"))
	assert.Equal(t, ".net", titleCase(".net"))
	assert.Equal(t, "Problem-solving", titleCase("problem-solving"))
	assert.Equal(t, "", titleCase(""))
}

// TestHeuristic_SectionBounding 只在经历与教育标题之间抽取
func TestHeuristic_SectionBounding(t *testing.T) {
	text := "Jane Doe\n" +
		"EXPERIENCE\n" +
		"Software Engineer at Acme Corp\n" +
		"Jan 2020 - Present\n" +
		"EDUCATION\n" +
		"Bachelor of Science at State University\n" +
		"2014 - 2018\n"

	got := NewHeuristicExtractor().Extract(text)
	require.NotEmpty(t, got.Experience)

	first := got.Experience[0]
	assert.Contains(t, first.Title, "Software Engineer")
	assert.Contains(t, first.Company, "Acme Corp")
	assert.Contains(t, first.Duration, "Jan 2020")
	assert.Contains(t, first.Duration, "Present")

	for _, e := range got.Experience {
		assert.NotContains(t, e.Company, "State University")
		assert.NotContains(t, e.Duration, "2014")
	}
}

func TestHeuristic_EducationBeforeExperience(t *testing.T) {
	// 经历标题之前的教育标题不截断
	text := "EDUCATION\nBS Physics\n\nWORK HISTORY\nData Analyst at Initech\n2019 - 2022\n"
	got := NewHeuristicExtractor().Extract(text)
	require.NotEmpty(t, got.Experience)
	assert.Equal(t, "Initech", got.Experience[0].Company)
	assert.Equal(t, "2019 - 2022", got.Experience[0].Duration)
}

func TestHeuristic_ZipPlaceholders(t *testing.T) {
	// 三个日期，没有标题和公司
	text := "experience\n2010 - 2012\n2012 - 2015\n2015 - Present\n"
	got := NewHeuristicExtractor().Extract(text)
	require.Len(t, got.Experience, 3)
	for _, e := range got.Experience {
		assert.Equal(t, "Position", e.Title)
		assert.Equal(t, "", e.Company)
	}
	assert.Equal(t, "2010 - 2012", got.Experience[0].Duration)
	assert.Equal(t, "2015 - Present", got.Experience[2].Duration)
}

func TestHeuristic_ParagraphFallback(t *testing.T) {
	// 没有经历标题且逐项模式没有命中时按段落扫描
	text := "studied at the university of somewhere\n\nmy job was fun at Initech Solutions"
	h := NewHeuristicExtractor()
	got := h.Extract(text)

	require.Len(t, got.Experience, 1)
	assert.Equal(t, types.ExperienceEntry{
		Title:    "Position",
		Company:  "Initech Solutions",
		Duration: "Duration",
	}, got.Experience[0])
}

func TestHeuristic_NoWorkHint(t *testing.T) {
	got := NewHeuristicExtractor().Extract("just some words about golang")
	assert.Empty(t, got.Experience)
	assert.Equal(t, []string{"Golang"}, got.TechnicalSkills)
}

func TestHeuristic_InjectedVocabulary(t *testing.T) {
	h := NewHeuristicExtractor(WithVocabulary(Vocabulary{
		Technical: []string{"cobol", "fortran"},
		Soft:      []string{"patience"},
	}))
	got := h.Extract("Fortran, COBOL and patience")
	assert.Equal(t, []string{"Cobol", "Fortran"}, got.TechnicalSkills)
	assert.Equal(t, []string{"Patience"}, got.SoftSkills)
}
