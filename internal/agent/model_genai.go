package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/AayushPaigwar/resume-sync-ai/internal/constants"
	"github.com/AayushPaigwar/resume-sync-ai/internal/metrics"
	"github.com/AayushPaigwar/resume-sync-ai/internal/tracing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// GenAIChatModel 基于官方 genai SDK 的 eino 模型实现
type GenAIChatModel struct {
	client    *genai.Client
	modelName string
	timeout   time.Duration
	limiter   *rate.Limiter
}

var _ model.BaseChatModel = (*GenAIChatModel)(nil)

// NewGenAIChatModel 创建 SDK 版 Gemini 模型
func NewGenAIChatModel(ctx context.Context, apiKey, modelName, baseURL string, timeout time.Duration, qpm int) (*GenAIChatModel, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("gemini API 密钥不能为空")
	}
	if modelName == "" {
		modelName = constants.DefaultGeminiModel
	}
	if timeout <= 0 {
		timeout = constants.DefaultLLMTimeout
	}

	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("创建 genai 客户端失败: %w", err)
	}

	return &GenAIChatModel{
		client:    client,
		modelName: modelName,
		timeout:   timeout,
		limiter:   newQPMLimiter(qpm),
	}, nil
}

// Generate 把消息拼接为单一提示词后调用 GenerateContent
func (m *GenAIChatModel) Generate(ctx context.Context, messages []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	o := resolveOptions(m.modelName, opts)

	ctx, span := tracer.Start(ctx, "genai.GenerateContent")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.provider", "genai"),
		attribute.String("llm.model", o.Model),
	)

	if err := waitLimiter(ctx, m.limiter); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeTimeout)
		metrics.LLMRequests.WithLabelValues("genai", "rate_limited").Inc()
		return nil, fmt.Errorf("等待限流令牌失败: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	cfg := &genai.GenerateContentConfig{
		Temperature: o.Temperature,
		TopP:        o.TopP,
		TopK:        o.TopK,
	}
	if o.MaxTokens != nil {
		cfg.MaxOutputTokens = int32(*o.MaxTokens)
	}

	var prompt strings.Builder
	for i, msg := range messages {
		if msg == nil {
			continue
		}
		if i > 0 {
			prompt.WriteString("\n\n")
		}
		prompt.WriteString(msg.Content)
	}

	resp, err := m.client.Models.GenerateContent(ctx, o.Model, genai.Text(prompt.String()), cfg)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeLLM)
		metrics.LLMRequests.WithLabelValues("genai", "transport_error").Inc()
		return nil, fmt.Errorf("genai GenerateContent 失败: %w", err)
	}

	text := resp.Text()
	if text == "" {
		tracing.RecordError(span, ErrEmptyCandidate, tracing.ErrorTypeLLM)
		metrics.LLMRequests.WithLabelValues("genai", "bad_response").Inc()
		return nil, ErrEmptyCandidate
	}

	metrics.LLMRequests.WithLabelValues("genai", "ok").Inc()
	return schema.AssistantMessage(text, nil), nil
}

// Stream 未实现
func (m *GenAIChatModel) Stream(ctx context.Context, messages []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, fmt.Errorf("GenAIChatModel 不支持 Stream")
}
