package agent

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGenAIModel(t *testing.T, baseURL string) *GenAIChatModel {
	t.Helper()
	m, err := NewGenAIChatModel(context.Background(), "test-key", "gemini-test", baseURL, 5*time.Second, 0)
	require.NoError(t, err)
	return m
}

func TestGenAIChatModel_Generate(t *testing.T) {
	var gotPath, gotKey, gotBody string
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"{\"ok\":true}"}]}}]}`))
	})

	m := newTestGenAIModel(t, srv.URL)
	cfg := GenerationConfig{Temperature: 0.3, TopK: 20, TopP: 0.8, MaxOutputTokens: 2048}
	msg, err := m.Generate(context.Background(), []*schema.Message{schema.UserMessage("hello")}, cfg.Options()...)
	require.NoError(t, err)

	assert.Equal(t, `{"ok":true}`, msg.Content)
	assert.Contains(t, gotPath, "gemini-test:generateContent")
	assert.Equal(t, "test-key", gotKey)
	assert.Contains(t, gotBody, "hello")
	assert.Contains(t, gotBody, "maxOutputTokens")
}

func TestGenAIChatModel_Errors(t *testing.T) {
	t.Run("没有候选文本", func(t *testing.T) {
		srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"candidates":[]}`))
		})
		_, err := newTestGenAIModel(t, srv.URL).Generate(context.Background(), []*schema.Message{schema.UserMessage("hi")})
		assert.ErrorIs(t, err, ErrEmptyCandidate)
	})

	t.Run("服务端拒绝", func(t *testing.T) {
		srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"code":400,"message":"bad request","status":"INVALID_ARGUMENT"}}`))
		})
		_, err := newTestGenAIModel(t, srv.URL).Generate(context.Background(), []*schema.Message{schema.UserMessage("hi")})
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrEmptyCandidate)
	})

	t.Run("缺少密钥", func(t *testing.T) {
		_, err := NewGenAIChatModel(context.Background(), " ", "", "", 0, 0)
		assert.Error(t, err)
	})
}
