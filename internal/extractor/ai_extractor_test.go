package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/AayushPaigwar/resume-sync-ai/internal/agent"
	"github.com/AayushPaigwar/resume-sync-ai/internal/constants"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockReply struct {
	text string
	err  error
}

// MockChatModel 按顺序返回预设回复并记录提示词
type MockChatModel struct {
	mu      sync.Mutex
	replies []mockReply
	prompts []string
}

func (m *MockChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, input[0].Content)
	if len(m.replies) == 0 {
		return nil, errors.New("no scripted reply")
	}
	r := m.replies[0]
	m.replies = m.replies[1:]
	if r.err != nil {
		return nil, r.err
	}
	return schema.AssistantMessage(r.text, nil), nil
}

func (m *MockChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not supported")
}

var _ model.BaseChatModel = (*MockChatModel)(nil)

const sampleResume = "Jane Doe. Senior Software Engineer with 8 years of experience building Go services at Acme Corp."

func TestAIExtractor_PrimarySuccess(t *testing.T) {
	mock := &MockChatModel{replies: []mockReply{
		{text: `{"technical_skills":["Go","Kubernetes"],"soft_skills":["Leadership"],"experience":[{"title":"Senior Software Engineer","company":"Acme Corp","duration":"01/2016 - Present"}]}`},
	}}

	outcome := NewAIExtractor(mock).Analyze(context.Background(), sampleResume)

	require.NotNil(t, outcome.Data)
	assert.Equal(t, StrategyPrimary, outcome.FinalStrategy())
	assert.Equal(t, []string{"Go", "Kubernetes"}, outcome.Data.TechnicalSkills)
	assert.Len(t, outcome.Data.Experience, 1)
	assert.Empty(t, outcome.Data.ExtractionNote)
	require.Len(t, mock.prompts, 1)
	assert.True(t, strings.HasPrefix(mock.prompts[0], "Analyze this resume text"))
	assert.True(t, strings.HasSuffix(mock.prompts[0], "Resume text: "+sampleResume))
}

func TestAIExtractor_FencedResponse(t *testing.T) {
	mock := &MockChatModel{replies: []mockReply{
		{text: "```json\n{\"technical_skills\":[\"Go\"],\"soft_skills\":[],\"experience\":[]}\n```"},
	}}
	outcome := NewAIExtractor(mock).Analyze(context.Background(), sampleResume)
	assert.Equal(t, StrategyPrimary, outcome.FinalStrategy())
	assert.Equal(t, []string{"Go"}, outcome.Data.TechnicalSkills)
}

// TestAIExtractor_NonJSONFallsThrough 非 JSON 输出进入降级策略并合成职位
func TestAIExtractor_NonJSONFallsThrough(t *testing.T) {
	mock := &MockChatModel{replies: []mockReply{
		{text: "Sorry, I cannot help with that."},
		{text: `{"technical_skills":["Go"],"soft_skills":["Teamwork"],"experience":[]}`},
	}}
	outcome := NewAIExtractor(mock).Analyze(context.Background(), sampleResume)

	assert.Equal(t, StrategyDegraded, outcome.FinalStrategy())
	require.Len(t, outcome.Attempts, 2)
	assert.ErrorIs(t, outcome.Attempts[0].Err, ErrUnparseableResponse)

	assert.Equal(t, DegradedNote, outcome.Data.ExtractionNote)
	require.Len(t, outcome.Data.Experience, 1)
	assert.Equal(t, "Engineer", outcome.Data.Experience[0].Title)
	assert.Equal(t, "Unknown", outcome.Data.Experience[0].Company)
	assert.Equal(t, "Unknown", outcome.Data.Experience[0].Duration)
	assert.True(t, strings.HasPrefix(mock.prompts[1], "Extract skills from this text"))
}

func TestAIExtractor_DegradedKeepsReturnedExperience(t *testing.T) {
	mock := &MockChatModel{replies: []mockReply{
		{err: errors.New("network down")},
		{text: `{"technical_skills":[],"soft_skills":[],"experience":[{"title":"CTO","company":"Initech","duration":"2020"}]}`},
	}}
	outcome := NewAIExtractor(mock).Analyze(context.Background(), sampleResume)
	require.Len(t, outcome.Data.Experience, 1)
	assert.Equal(t, "CTO", outcome.Data.Experience[0].Title)
}

func TestAIExtractor_TotalFailure(t *testing.T) {
	mock := &MockChatModel{replies: []mockReply{
		{err: errors.New("500")},
		{text: "still not json"},
	}}
	outcome := NewAIExtractor(mock).Analyze(context.Background(), sampleResume)

	assert.Equal(t, StrategyEmpty, outcome.FinalStrategy())
	assert.Len(t, outcome.Attempts, 3)
	assert.True(t, outcome.Data.IsEmpty())
	assert.Equal(t, TotalFailureNote, outcome.Data.ExtractionNote)

	b, err := json.Marshal(outcome.Data)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"experience":[]`)
}

func TestAIExtractor_NilModel(t *testing.T) {
	outcome := NewAIExtractor(nil).Analyze(context.Background(), sampleResume)
	assert.Equal(t, StrategyEmpty, outcome.FinalStrategy())
	assert.ErrorIs(t, outcome.Attempts[0].Err, ErrModelNotConfigured)
}

// TestAIExtractor_ShortTextGuard 少于50字符不发送主提示词
func TestAIExtractor_ShortTextGuard(t *testing.T) {
	t.Run("短文本原样传入降级提示词", func(t *testing.T) {
		mock := &MockChatModel{replies: []mockReply{{text: `{"technical_skills":["Go"]}`}}}
		outcome := NewAIExtractor(mock).Analyze(context.Background(), "Go developer")

		require.Len(t, mock.prompts, 1)
		assert.True(t, strings.HasPrefix(mock.prompts[0], "Extract skills from this text"))
		assert.True(t, strings.HasSuffix(mock.prompts[0], "Text: Go developer"))
		assert.Equal(t, StrategyDegraded, outcome.FinalStrategy())
		assert.Equal(t, "Developer", outcome.Data.Experience[0].Title)
	})

	t.Run("空文本使用占位符", func(t *testing.T) {
		mock := &MockChatModel{replies: []mockReply{{text: `{}`}}}
		outcome := NewAIExtractor(mock).Analyze(context.Background(), "")

		require.Len(t, mock.prompts, 1)
		assert.True(t, strings.HasSuffix(mock.prompts[0], "Text: "+constants.ShortTextPlaceholder))
		assert.Empty(t, outcome.Data.Experience)
		assert.Equal(t, DegradedNote, outcome.Data.ExtractionNote)
	})

	t.Run("按字符而不是字节计数", func(t *testing.T) {
		mock := &MockChatModel{replies: []mockReply{{text: `{}`}}}
		// 40个汉字超过50字节但不足50字符
		NewAIExtractor(mock).Analyze(context.Background(), strings.Repeat("简", 40))
		assert.True(t, strings.HasPrefix(mock.prompts[0], "Extract skills"))
	})
}

func TestAIExtractor_Truncation(t *testing.T) {
	text := strings.Repeat("7", constants.PrimaryMaxInputChars+1) + " architect"
	mock := &MockChatModel{replies: []mockReply{
		{err: errors.New("timeout")},
		{text: `{"technical_skills":[]}`},
	}}
	outcome := NewAIExtractor(mock).Analyze(context.Background(), text)

	require.Len(t, mock.prompts, 2)
	assert.Equal(t, constants.PrimaryMaxInputChars, strings.Count(mock.prompts[0], "7"))
	assert.Equal(t, constants.DegradedMaxInputChars, strings.Count(mock.prompts[1], "7"))
	assert.NotContains(t, mock.prompts[1], "architect")

	// 合成职位使用未截断的原文
	require.Len(t, outcome.Data.Experience, 1)
	assert.Equal(t, "Architect", outcome.Data.Experience[0].Title)
}

// TestAIExtractor_HTTP500FallsBack 通过真实 REST 客户端验证 500 后进入降级
func TestAIExtractor_HTTP500FallsBack(t *testing.T) {
	var calls int32
	var secondBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"message":"internal"}}`))
			return
		}
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &secondBody)
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"technical_skills\":[\"Go\"],\"soft_skills\":[],\"experience\":[]}"}]}}]}`))
	}))
	defer srv.Close()

	chat, err := agent.NewGeminiChatModel("key", "gemini-test", srv.URL)
	require.NoError(t, err)

	outcome := NewAIExtractor(chat).Analyze(context.Background(), sampleResume)

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, StrategyDegraded, outcome.FinalStrategy())
	assert.Equal(t, DegradedNote, outcome.Data.ExtractionNote)
	assert.Equal(t, []string{"Go"}, outcome.Data.TechnicalSkills)

	gen := secondBody["generationConfig"].(map[string]interface{})
	assert.InDelta(t, 0.1, gen["temperature"], 1e-6)
	assert.InDelta(t, 40, gen["topK"], 1e-6)
	assert.InDelta(t, 512, gen["maxOutputTokens"], 1e-6)
}

func TestHeuristicExtractor_Analyze(t *testing.T) {
	outcome := NewHeuristicExtractor().Analyze(context.Background(), "Python and SQL")
	assert.Equal(t, StrategyHeuristic, outcome.FinalStrategy())
	assert.Equal(t, []string{"Python", "Sql"}, outcome.Data.TechnicalSkills)
}
