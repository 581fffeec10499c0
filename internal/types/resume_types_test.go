package types

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestStructuredResumeData_JSONNeverNull 验证空结果序列化后三个数组都存在
func TestStructuredResumeData_JSONNeverNull(t *testing.T) {
	t.Run("构造函数", func(t *testing.T) {
		b, err := json.Marshal(NewStructuredResumeData())
		require.NoError(t, err)
		assert.JSONEq(t, `{"technical_skills":[],"soft_skills":[],"experience":[]}`, string(b))
	})

	t.Run("Normalize修复nil切片", func(t *testing.T) {
		d := &StructuredResumeData{ExtractionNote: "note"}
		b, err := json.Marshal(d.Normalize())
		require.NoError(t, err)
		assert.JSONEq(t, `{"technical_skills":[],"soft_skills":[],"experience":[],"extraction_note":"note"}`, string(b))
	})

	t.Run("nil接收者", func(t *testing.T) {
		var d *StructuredResumeData
		assert.NotNil(t, d.Normalize())
		assert.True(t, d.IsEmpty())
	})
}

func TestAnalysisOutcome_FinalStrategy(t *testing.T) {
	o := &AnalysisOutcome{Attempts: []ExtractionAttempt{
		{Strategy: "primary", Err: errors.New("boom")},
		{Strategy: "degraded", Success: true},
	}}
	assert.Equal(t, "degraded", o.FinalStrategy())

	var none *AnalysisOutcome
	assert.Equal(t, "", none.FinalStrategy())
}
