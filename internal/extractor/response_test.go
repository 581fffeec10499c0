package extractor

import (
	"testing"

	"github.com/AayushPaigwar/resume-sync-ai/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseModelResponse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{name: "严格JSON", raw: `{"technical_skills":["Go"]}`},
		{name: "前后空白", raw: "\n  {\"soft_skills\":[]}  \n"},
		{name: "代码块", raw: "Here you go:\n```json\n{\"technical_skills\":[\"Go\"]}\n```\nthanks"},
		{name: "代码块无换行", raw: "```json{\"a\":1}```"},
		{name: "纯文本", raw: "I could not find any skills.", wantErr: true},
		{name: "代码块内容非法", raw: "```json\n{broken\n```", wantErr: true},
		{name: "无语言标记代码块", raw: "```\n{\"a\":1}\n```", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseModelResponse(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnparseableResponse)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNormalizeResponse(t *testing.T) {
	value, err := parseModelResponse(`{
		"technical_skills": ["Go", " Go ", 42, "", "Docker", null],
		"soft_skills": "not-an-array",
		"experience": [
			{"title": "Engineer", "company": "Acme", "duration": "01/2020 - Present"},
			{"title": "Intern", "company": ""},
			{"title": "Lead", "company": "Globex", "duration": 2021},
			"garbage",
			{"company": "NoTitle"}
		]
	}`)
	require.NoError(t, err)

	got := normalizeResponse(value)
	assert.Equal(t, []string{"Go", "Docker"}, got.TechnicalSkills)
	assert.Equal(t, []string{}, got.SoftSkills)
	assert.Equal(t, []types.ExperienceEntry{
		{Title: "Engineer", Company: "Acme", Duration: "01/2020 - Present"},
		{Title: "Lead", Company: "Globex", Duration: ""},
	}, got.Experience)
}

func TestNormalizeResponse_NonObject(t *testing.T) {
	for _, raw := range []string{`[1,2,3]`, `"text"`, `null`, `42`} {
		value, err := parseModelResponse(raw)
		require.NoError(t, err)
		got := normalizeResponse(value)
		assert.True(t, got.IsEmpty(), raw)
		assert.NotNil(t, got.Experience)
	}
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "abc", truncateRunes("abcdef", 3))
	assert.Equal(t, "ab", truncateRunes("ab", 3))
	assert.Equal(t, "简历", truncateRunes("简历内容", 2))
	assert.Equal(t, "", truncateRunes("abc", 0))
}
