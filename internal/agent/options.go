package agent

import (
	"github.com/cloudwego/eino/components/model"
)

// geminiOptions eino 通用选项之外的 Gemini 专有参数
type geminiOptions struct {
	TopK *float32
}

// WithTopK 设置 generationConfig.topK
func WithTopK(k float32) model.Option {
	return model.WrapImplSpecificOptFn(func(o *geminiOptions) {
		o.TopK = &k
	})
}

// GenerationConfig 单次生成请求的采样参数
type GenerationConfig struct {
	Temperature     float32
	TopK            float32
	TopP            float32
	MaxOutputTokens int
}

// Options 转换为 eino 调用选项
func (c GenerationConfig) Options() []model.Option {
	return []model.Option{
		model.WithTemperature(c.Temperature),
		model.WithTopP(c.TopP),
		model.WithMaxTokens(c.MaxOutputTokens),
		WithTopK(c.TopK),
	}
}

// resolvedOptions 合并后的调用参数
type resolvedOptions struct {
	Model       string
	Temperature *float32
	TopP        *float32
	TopK        *float32
	MaxTokens   *int
}

func resolveOptions(defaultModel string, opts []model.Option) resolvedOptions {
	common := model.GetCommonOptions(&model.Options{Model: &defaultModel}, opts...)
	specific := model.GetImplSpecificOptions(&geminiOptions{}, opts...)

	r := resolvedOptions{
		Model:       defaultModel,
		Temperature: common.Temperature,
		TopP:        common.TopP,
		TopK:        specific.TopK,
		MaxTokens:   common.MaxTokens,
	}
	if common.Model != nil && *common.Model != "" {
		r.Model = *common.Model
	}
	return r
}
