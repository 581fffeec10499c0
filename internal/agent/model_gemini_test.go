package agent

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/AayushPaigwar/resume-sync-ai/internal/config"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

// TestGeminiChatModel_RequestShape 验证请求路径、请求头和请求体
func TestGeminiChatModel_RequestShape(t *testing.T) {
	var gotPath, gotKey string
	var gotBody map[string]interface{}

	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"ok\":true}"}]}}]}`))
	})

	m, err := NewGeminiChatModel("test-key", "gemini-test", srv.URL)
	require.NoError(t, err)

	cfg := GenerationConfig{Temperature: 0.3, TopK: 20, TopP: 0.8, MaxOutputTokens: 2048}
	msg, err := m.Generate(context.Background(), []*schema.Message{schema.UserMessage("hello")}, cfg.Options()...)
	require.NoError(t, err)

	assert.Equal(t, `{"ok":true}`, msg.Content)
	assert.Equal(t, "/v1beta/models/gemini-test:generateContent", gotPath)
	assert.Equal(t, "test-key", gotKey)

	contents := gotBody["contents"].([]interface{})
	require.Len(t, contents, 1)
	parts := contents[0].(map[string]interface{})["parts"].([]interface{})
	assert.Equal(t, "hello", parts[0].(map[string]interface{})["text"])
	_, hasRole := contents[0].(map[string]interface{})["role"]
	assert.False(t, hasRole)

	gen := gotBody["generationConfig"].(map[string]interface{})
	assert.InDelta(t, 0.3, gen["temperature"], 1e-6)
	assert.InDelta(t, 20, gen["topK"], 1e-6)
	assert.InDelta(t, 0.8, gen["topP"], 1e-6)
	assert.InDelta(t, 2048, gen["maxOutputTokens"], 1e-6)
}

func TestGeminiChatModel_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "服务端错误", status: http.StatusInternalServerError, body: `{"error":"boom"}`},
		{name: "限流", status: http.StatusTooManyRequests, body: `{}`},
		{name: "缺少candidates", status: http.StatusOK, body: `{"candidates":[]}`, wantErr: ErrEmptyCandidate},
		{name: "缺少parts", status: http.StatusOK, body: `{"candidates":[{"content":{"parts":[]}}]}`, wantErr: ErrEmptyCandidate},
		{name: "非JSON", status: http.StatusOK, body: `<html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			m, err := NewGeminiChatModel("k", "", srv.URL)
			require.NoError(t, err)

			_, err = m.Generate(context.Background(), []*schema.Message{schema.UserMessage("x")})
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestGeminiChatModel_Timeout(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	m, err := NewGeminiChatModel("k", "m", srv.URL, WithCallTimeout(50*time.Millisecond))
	require.NoError(t, err)

	start := time.Now()
	_, err = m.Generate(context.Background(), []*schema.Message{schema.UserMessage("x")})
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestNewGeminiChatModel_RequiresKey(t *testing.T) {
	_, err := NewGeminiChatModel(" ", "m", "")
	assert.Error(t, err)
}

func TestToGeminiContents_AssistantRole(t *testing.T) {
	contents := toGeminiContents([]*schema.Message{
		schema.UserMessage("q"),
		schema.AssistantMessage("a", nil),
		nil,
	})
	require.Len(t, contents, 2)
	assert.Equal(t, "", contents[0].Role)
	assert.Equal(t, "model", contents[1].Role)
}

func TestResolveOptions(t *testing.T) {
	o := resolveOptions("default-model", GenerationConfig{Temperature: 0.1, TopK: 40, TopP: 0.95, MaxOutputTokens: 512}.Options())
	assert.Equal(t, "default-model", o.Model)
	require.NotNil(t, o.TopK)
	assert.Equal(t, float32(40), *o.TopK)
	require.NotNil(t, o.MaxTokens)
	assert.Equal(t, 512, *o.MaxTokens)

	empty := resolveOptions("m", nil)
	assert.Nil(t, empty.Temperature)
	assert.Nil(t, empty.TopK)
}

func TestNewChatModel_Provider(t *testing.T) {
	m, err := NewChatModel(context.Background(), config.GeminiConfig{APIKey: "k", Provider: "rest"})
	require.NoError(t, err)
	assert.IsType(t, &GeminiChatModel{}, m)

	_, err = NewChatModel(context.Background(), config.GeminiConfig{APIKey: "k", Provider: "bogus"})
	assert.Error(t, err)

	_, err = NewChatModel(context.Background(), config.GeminiConfig{Provider: "rest"})
	assert.Error(t, err, "缺少密钥应报错")
}
