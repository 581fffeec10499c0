package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/AayushPaigwar/resume-sync-ai/internal/agent"
	"github.com/AayushPaigwar/resume-sync-ai/internal/config"
	"github.com/AayushPaigwar/resume-sync-ai/internal/extractor"
	"github.com/AayushPaigwar/resume-sync-ai/internal/logger"
	"github.com/AayushPaigwar/resume-sync-ai/internal/parser"
	"github.com/AayushPaigwar/resume-sync-ai/internal/processor"
	"github.com/AayushPaigwar/resume-sync-ai/internal/types"

	"github.com/spf13/pflag"
)

func main() {
	var (
		configPath string
		mode       string
		verbose    bool
	)
	pflag.StringVarP(&configPath, "config", "c", "config.yaml", "Path to config file (gemini settings)")
	pflag.StringVarP(&mode, "mode", "m", "ai", "Extraction mode: ai or heuristic")
	pflag.BoolVarP(&verbose, "verbose", "v", false, "Print strategy attempts to stderr")
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <resume.pdf|resume.docx>\n", filepath.Base(os.Args[0]))
		pflag.PrintDefaults()
	}
	pflag.Parse()

	level := "warn"
	if verbose {
		level = "debug"
	}
	logger.InitWithWriter(logger.Config{Level: level, Format: "pretty"}, os.Stderr)

	if pflag.NArg() != 1 {
		pflag.Usage()
		os.Exit(2)
	}

	if err := run(context.Background(), configPath, mode, pflag.Arg(0)); err != nil {
		logger.Error().Err(err).Msg("抽取失败")
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, mode, path string) error {
	analyzer, err := newAnalyzer(ctx, configPath, mode)
	if err != nil {
		return err
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("读取文件失败: %w", err)
	}
	doc := &types.RawDocument{
		Content:   content,
		MediaType: parser.ResolveMediaType("", path),
		Filename:  filepath.Base(path),
	}

	extracted, err := parser.NewDocumentTextExtractor().Extract(ctx, doc)
	if err != nil {
		return err
	}
	outcome := analyzer.Analyze(ctx, extracted.Text)
	for _, a := range outcome.Attempts {
		event := logger.Debug().Str("strategy", a.Strategy).Bool("success", a.Success)
		if a.Err != nil {
			event = event.Err(a.Err)
		}
		event.Msg("strategy attempt")
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(outcome.Data.Normalize())
}

func newAnalyzer(ctx context.Context, configPath, mode string) (processor.Analyzer, error) {
	switch mode {
	case "heuristic":
		return extractor.NewHeuristicExtractor(), nil
	case "ai":
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("加载配置失败: %w", err)
		}
		chat, err := agent.NewChatModel(ctx, cfg.Gemini)
		if err != nil {
			return nil, err
		}
		return extractor.NewAIExtractor(chat), nil
	default:
		return nil, fmt.Errorf("未知的模式 %q，可选 ai 或 heuristic", mode)
	}
}
