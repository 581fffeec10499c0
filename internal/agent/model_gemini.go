package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/AayushPaigwar/resume-sync-ai/internal/constants"
	"github.com/AayushPaigwar/resume-sync-ai/internal/logger"
	"github.com/AayushPaigwar/resume-sync-ai/internal/metrics"
	"github.com/AayushPaigwar/resume-sync-ai/internal/tracing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("resume-sync/agent")

// ErrEmptyCandidate 响应中没有 candidates[0].content.parts[0].text
var ErrEmptyCandidate = errors.New("gemini response has no candidate text")

// --- generateContent 请求/响应结构 ---

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     *float32 `json:"temperature,omitempty"`
	TopK            *float32 `json:"topK,omitempty"`
	TopP            *float32 `json:"topP,omitempty"`
	MaxOutputTokens *int     `json:"maxOutputTokens,omitempty"`
}

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

// GeminiChatModel 通过 REST 调用 generateContent 的 eino 模型实现
type GeminiChatModel struct {
	apiKey     string
	modelName  string
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
}

// GeminiOption GeminiChatModel 的配置选项
type GeminiOption func(*GeminiChatModel)

// WithHTTPClient 替换默认 HTTP 客户端
func WithHTTPClient(c *http.Client) GeminiOption {
	return func(m *GeminiChatModel) {
		m.httpClient = c
	}
}

// WithCallTimeout 单次调用超时
func WithCallTimeout(d time.Duration) GeminiOption {
	return func(m *GeminiChatModel) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// WithQPM 客户端限流
func WithQPM(qpm int) GeminiOption {
	return func(m *GeminiChatModel) {
		m.limiter = newQPMLimiter(qpm)
	}
}

var _ model.BaseChatModel = (*GeminiChatModel)(nil)

// NewGeminiChatModel 创建 REST 版 Gemini 模型
func NewGeminiChatModel(apiKey, modelName, baseURL string, opts ...GeminiOption) (*GeminiChatModel, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("gemini API 密钥不能为空")
	}
	if strings.TrimSpace(modelName) == "" {
		modelName = constants.DefaultGeminiModel
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = constants.DefaultGeminiBaseURL
	}

	m := &GeminiChatModel{
		apiKey:     apiKey,
		modelName:  modelName,
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    constants.DefaultLLMTimeout,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

func (g *GeminiChatModel) endpoint(modelName string) string {
	return fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.baseURL, modelName)
}

// Generate 发送一次 generateContent 请求，不做重试
func (g *GeminiChatModel) Generate(ctx context.Context, messages []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	o := resolveOptions(g.modelName, opts)

	ctx, span := tracer.Start(ctx, "gemini.GenerateContent")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.provider", "rest"),
		attribute.String("llm.model", o.Model),
	)

	if err := waitLimiter(ctx, g.limiter); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeTimeout)
		metrics.LLMRequests.WithLabelValues("rest", "rate_limited").Inc()
		return nil, fmt.Errorf("等待限流令牌失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	reqPayload := geminiRequest{
		Contents: toGeminiContents(messages),
		GenerationConfig: &geminiGenerationConfig{
			Temperature:     o.Temperature,
			TopK:            o.TopK,
			TopP:            o.TopP,
			MaxOutputTokens: o.MaxTokens,
		},
	}
	jsonData, err := json.Marshal(reqPayload)
	if err != nil {
		return nil, fmt.Errorf("序列化请求体失败: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint(o.Model), bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("创建 HTTP 请求失败: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.apiKey)

	start := time.Now()
	httpResp, err := g.httpClient.Do(httpReq)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeLLM)
		metrics.LLMRequests.WithLabelValues("rest", "transport_error").Inc()
		return nil, fmt.Errorf("发送 HTTP 请求失败: %w", err)
	}
	defer httpResp.Body.Close()

	bodyBytes, err := io.ReadAll(httpResp.Body)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeLLM)
		metrics.LLMRequests.WithLabelValues("rest", "transport_error").Inc()
		return nil, fmt.Errorf("读取响应体失败: %w", err)
	}

	logger.Debug().
		Int("status", httpResp.StatusCode).
		Int("response_bytes", len(bodyBytes)).
		Dur("elapsed", time.Since(start)).
		Str("model", o.Model).
		Msg("gemini 响应")

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		err := fmt.Errorf("gemini API 请求失败，状态 %s: %s", httpResp.Status, tracing.TruncateString(string(bodyBytes), tracing.DefaultMaxLength))
		tracing.RecordHTTPError(span, err, httpResp.StatusCode)
		metrics.LLMRequests.WithLabelValues("rest", "http_error").Inc()
		return nil, err
	}

	var resp geminiResponse
	if err := json.Unmarshal(bodyBytes, &resp); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeLLM)
		metrics.LLMRequests.WithLabelValues("rest", "bad_response").Inc()
		return nil, fmt.Errorf("反序列化 API 响应失败: %w", err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		tracing.RecordError(span, ErrEmptyCandidate, tracing.ErrorTypeLLM)
		metrics.LLMRequests.WithLabelValues("rest", "bad_response").Inc()
		return nil, ErrEmptyCandidate
	}

	metrics.LLMRequests.WithLabelValues("rest", "ok").Inc()
	return schema.AssistantMessage(resp.Candidates[0].Content.Parts[0].Text, nil), nil
}

// Stream 未实现，抽取只需要一次性结果
func (g *GeminiChatModel) Stream(ctx context.Context, messages []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, fmt.Errorf("GeminiChatModel 不支持 Stream")
}

// toGeminiContents 助手消息映射为 model 角色，其余不带角色
func toGeminiContents(messages []*schema.Message) []geminiContent {
	contents := make([]geminiContent, 0, len(messages))
	for _, msg := range messages {
		if msg == nil {
			continue
		}
		c := geminiContent{Parts: []geminiPart{{Text: msg.Content}}}
		if msg.Role == schema.Assistant {
			c.Role = "model"
		}
		contents = append(contents, c)
	}
	return contents
}
