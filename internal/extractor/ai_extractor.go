package extractor

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/AayushPaigwar/resume-sync-ai/internal/agent"
	"github.com/AayushPaigwar/resume-sync-ai/internal/constants"
	"github.com/AayushPaigwar/resume-sync-ai/internal/logger"
	"github.com/AayushPaigwar/resume-sync-ai/internal/metrics"
	"github.com/AayushPaigwar/resume-sync-ai/internal/tracing"
	"github.com/AayushPaigwar/resume-sync-ai/internal/types"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("resume-sync/extractor")

const (
	StrategyPrimary  = "primary"
	StrategyDegraded = "degraded"
	StrategyEmpty    = "empty"
)

// ErrModelNotConfigured 未配置生成式模型
var ErrModelNotConfigured = errors.New("generative model not configured")

// Strategy 级联中的单个抽取策略
type Strategy interface {
	Name() string
	Extract(ctx context.Context, text string) (*types.StructuredResumeData, error)
}

// primaryStrategy 完整提示词
type primaryStrategy struct {
	chat model.BaseChatModel
}

func (s *primaryStrategy) Name() string { return StrategyPrimary }

func (s *primaryStrategy) Extract(ctx context.Context, text string) (*types.StructuredResumeData, error) {
	raw, err := generate(ctx, s.chat, buildPrimaryPrompt(text), primaryGeneration)
	if err != nil {
		return nil, err
	}
	value, err := parseLogged(raw)
	if err != nil {
		return nil, err
	}
	return normalizeResponse(value), nil
}

func parseLogged(raw string) (interface{}, error) {
	value, err := parseModelResponse(raw)
	if err != nil {
		logger.Debug().Str("response", tracing.SafeResumeContent(raw)).Msg("模型响应无法解析")
	}
	return value, err
}

// degradedStrategy 精简提示词，只要求技能
type degradedStrategy struct {
	chat model.BaseChatModel
}

func (s *degradedStrategy) Name() string { return StrategyDegraded }

func (s *degradedStrategy) Extract(ctx context.Context, text string) (*types.StructuredResumeData, error) {
	raw, err := generate(ctx, s.chat, buildDegradedPrompt(text), degradedGeneration)
	if err != nil {
		return nil, err
	}
	value, err := parseLogged(raw)
	if err != nil {
		return nil, err
	}

	data := normalizeResponse(value)
	if len(data.Experience) == 0 {
		// 在未截断的原文中找一次职位关键词
		if role := roleKeyword.FindString(text); role != "" {
			data.Experience = append(data.Experience, types.ExperienceEntry{
				Title:    upperFirst(role),
				Company:  "Unknown",
				Duration: "Unknown",
			})
		}
	}
	data.ExtractionNote = DegradedNote
	return data, nil
}

// emptyStrategy 级联终点，总是成功
type emptyStrategy struct{}

func (emptyStrategy) Name() string { return StrategyEmpty }

func (emptyStrategy) Extract(context.Context, string) (*types.StructuredResumeData, error) {
	return types.EmptyWithNote(TotalFailureNote), nil
}

func generate(ctx context.Context, chat model.BaseChatModel, prompt string, cfg agent.GenerationConfig) (string, error) {
	if chat == nil {
		return "", ErrModelNotConfigured
	}
	msg, err := chat.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)}, cfg.Options()...)
	if err != nil {
		return "", err
	}
	if msg == nil {
		return "", agent.ErrEmptyCandidate
	}
	return msg.Content, nil
}

// AIExtractor 依次执行 primary、degraded、empty 策略，返回第一个成功的结果
type AIExtractor struct {
	primary  Strategy
	degraded Strategy
	final    Strategy
}

// NewAIExtractor 创建生成式抽取器，chat 为 nil 时直接落到兜底结果
func NewAIExtractor(chat model.BaseChatModel) *AIExtractor {
	return &AIExtractor{
		primary:  &primaryStrategy{chat: chat},
		degraded: &degradedStrategy{chat: chat},
		final:    emptyStrategy{},
	}
}

// Analyze 永不失败，服务端错误只体现为失败的尝试记录
func (a *AIExtractor) Analyze(ctx context.Context, text string) *types.AnalysisOutcome {
	ctx, span := tracer.Start(ctx, "extractor.Analyze")
	defer span.End()

	runeCount := utf8.RuneCountInString(text)
	span.SetAttributes(attribute.Int("resume.text_length", runeCount))

	cascade := []Strategy{a.primary, a.degraded, a.final}
	input := text
	if runeCount < constants.MinViableTextLength {
		// 文本过短不调用主提示词
		cascade = cascade[1:]
		if text == "" {
			input = constants.ShortTextPlaceholder
		}
		logger.Warn().Int("chars", runeCount).Msg("提取文本过短，直接使用降级提示词")
	}

	outcome := &types.AnalysisOutcome{}
	for _, strategy := range cascade {
		start := time.Now()
		data, err := runStrategy(ctx, strategy, input)
		elapsed := time.Since(start)

		attempt := types.ExtractionAttempt{Strategy: strategy.Name(), Success: err == nil, Err: err, Result: data}
		outcome.Attempts = append(outcome.Attempts, attempt)
		metrics.ObserveAnalysis(strategy.Name(), err == nil, elapsed)

		if err != nil {
			tracing.RecordDegradation(span, strategy.Name(), err)
			logger.Warn().Err(err).Str("strategy", strategy.Name()).Dur("elapsed", elapsed).Msg("抽取策略失败，继续降级")
			continue
		}

		outcome.Data = data.Normalize()
		span.SetAttributes(attribute.String("extraction.strategy", strategy.Name()))
		logger.Info().
			Str("strategy", strategy.Name()).
			Int("technical_skills", len(data.TechnicalSkills)).
			Int("soft_skills", len(data.SoftSkills)).
			Int("experience", len(data.Experience)).
			Msg("结构化抽取完成")
		return outcome
	}

	outcome.Data = types.EmptyWithNote(TotalFailureNote)
	return outcome
}

// runStrategy 把策略内部的 panic 转换为失败
func runStrategy(ctx context.Context, s Strategy, text string) (data *types.StructuredResumeData, err error) {
	defer func() {
		if r := recover(); r != nil {
			data, err = nil, fmt.Errorf("strategy %s panic: %v", s.Name(), r)
		}
	}()
	return s.Extract(ctx, text)
}
