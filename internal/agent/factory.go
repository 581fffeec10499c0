package agent

import (
	"context"
	"fmt"

	"github.com/AayushPaigwar/resume-sync-ai/internal/config"
	"github.com/AayushPaigwar/resume-sync-ai/internal/constants"
	"github.com/AayushPaigwar/resume-sync-ai/internal/logger"

	"github.com/cloudwego/eino/components/model"
)

// NewChatModel 按 gemini.provider 选择实现
func NewChatModel(ctx context.Context, cfg config.GeminiConfig) (model.BaseChatModel, error) {
	timeout := config.GetDuration(cfg.Timeout, constants.DefaultLLMTimeout)

	switch cfg.Provider {
	case "", "rest":
		logger.Info().Str("model", cfg.Model).Str("base_url", cfg.BaseURL).Msg("使用 Gemini REST 客户端")
		m, err := NewGeminiChatModel(cfg.APIKey, cfg.Model, cfg.BaseURL,
			WithCallTimeout(timeout),
			WithQPM(cfg.QPM),
		)
		if err != nil {
			return nil, err
		}
		return m, nil
	case "genai":
		logger.Info().Str("model", cfg.Model).Msg("使用 genai SDK 客户端")
		m, err := NewGenAIChatModel(ctx, cfg.APIKey, cfg.Model, cfg.BaseURL, timeout, cfg.QPM)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("未知的 gemini.provider: %s", cfg.Provider)
	}
}
