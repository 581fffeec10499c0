package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/AayushPaigwar/resume-sync-ai/internal/agent"
	"github.com/AayushPaigwar/resume-sync-ai/internal/api/handler"
	"github.com/AayushPaigwar/resume-sync-ai/internal/api/router"
	"github.com/AayushPaigwar/resume-sync-ai/internal/config"
	"github.com/AayushPaigwar/resume-sync-ai/internal/constants"
	"github.com/AayushPaigwar/resume-sync-ai/internal/extractor"
	"github.com/AayushPaigwar/resume-sync-ai/internal/logger"
	"github.com/AayushPaigwar/resume-sync-ai/internal/outbox"
	"github.com/AayushPaigwar/resume-sync-ai/internal/parser"
	"github.com/AayushPaigwar/resume-sync-ai/internal/processor"
	"github.com/AayushPaigwar/resume-sync-ai/internal/storage"
	"github.com/AayushPaigwar/resume-sync-ai/internal/tracing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/hertz/pkg/app/server"
	glog "github.com/cloudwego/hertz/pkg/common/hlog"
	hertzadapter "github.com/hertz-contrib/logger/zerolog"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"github.com/spf13/pflag"
)

var (
	version     = "1.0.0"       //nolint:gochecknoglobals
	serviceName = "resume-sync" //nolint:gochecknoglobals
)

func main() {
	var configPath string
	var initConfig bool
	pflag.StringVarP(&configPath, "config", "c", "config.yaml", "Path to config file")
	pflag.BoolVar(&initConfig, "init-config", false, "Write a sample config file to --config and exit")
	pflag.Parse()

	if initConfig {
		if err := config.CreateSampleConfig(configPath); err != nil {
			logger.Fatal().Err(err).Msg("生成示例配置失败")
		}
		logger.Info().Str("path", configPath).Msg("示例配置已生成")
		return
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("加载配置失败")
	}
	initLogger(cfg)
	glog.Infof("%s %s 配置加载成功", serviceName, version)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.InitTracerProvider(ctx, cfg.Tracing)
	if err != nil {
		glog.Fatalf("初始化链路追踪失败: %v", err)
	}

	storageManager, err := storage.NewStorage(ctx, cfg)
	if err != nil {
		glog.Fatalf("初始化存储失败: %v", err)
	}
	defer storageManager.Close()

	chat := newChatModel(ctx, cfg)
	aiExtractor := extractor.NewAIExtractor(chat)
	heuristicExtractor := extractor.NewHeuristicExtractor()

	orchestrator, err := newOrchestrator(cfg, storageManager, aiExtractor, heuristicExtractor)
	if err != nil {
		glog.Fatalf("初始化处理流程失败: %v", err)
	}

	var stopConsumer func()
	if storageManager.RabbitMQ != nil {
		stopConsumer, err = storageManager.RabbitMQ.StartProcessConsumer(ctx, orchestrator.HandleProcessMessage)
		if err != nil {
			glog.Fatalf("启动处理队列消费者失败: %v", err)
		}
	}

	var relay *outbox.MessageRelay
	if storageManager.RabbitMQ != nil && storageManager.MySQL != nil && cfg.Processing.UseOutbox {
		relay = outbox.NewMessageRelay(storageManager.MySQL.DB(), storageManager.RabbitMQ)
		relay.Start()
	}

	deps := handler.Deps{
		Pipeline:  orchestrator,
		AI:        aiExtractor,
		Heuristic: heuristicExtractor,
		MaxUpload: cfg.MaxUploadBytes(),
	}
	checks := map[string]handler.Pinger{}
	if storageManager.MySQL != nil {
		deps.Records = storageManager.MySQL
		checks["mysql"] = storageManager.MySQL
	}
	if storageManager.Redis != nil {
		deps.Status = storageManager.Redis
		checks["redis"] = storageManager.Redis
	}
	if storageManager.RabbitMQ != nil {
		deps.Queue = storageManager.RabbitMQ
	}

	tracer, tracerCfg := hertztracing.NewServerTracer()
	h := server.Default(
		server.WithHostPorts(cfg.Server.Address),
		server.WithMaxRequestBodySize(int(cfg.MaxUploadBytes())+(1<<20)),
		server.WithHandleMethodNotAllowed(true),
		tracer,
	)
	h.Use(hertztracing.ServerMiddleware(tracerCfg))
	router.RegisterRoutes(h, handler.NewResumeHandler(deps), handler.NewHealthHandler(checks), cfg.Server.APIKey)

	go func() {
		glog.Infof("HTTP 服务器启动中，监听地址: %s", cfg.Server.Address)
		if err := h.Run(); err != nil {
			glog.Errorf("HTTP服务器退出: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	glog.Info("接收到终止信号，正在优雅退出...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if stopConsumer != nil {
		stopConsumer()
	}
	if relay != nil {
		relay.Stop()
	}
	if err := h.Shutdown(shutdownCtx); err != nil {
		glog.Errorf("服务器关闭失败: %v", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		glog.Errorf("关闭链路追踪失败: %v", err)
	}
	glog.Info("优雅退出完成")
}

func initLogger(cfg *config.Config) {
	logger.Init(logger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
	})
	glog.SetLogger(hertzadapter.From(logger.Logger))
	if cfg.Logger.Level == "debug" {
		glog.SetLevel(glog.LevelDebug)
	} else {
		glog.SetLevel(glog.LevelInfo)
	}
}

// newChatModel 没有配置密钥时返回 nil，上传流程只能得到带说明的空结果
func newChatModel(ctx context.Context, cfg *config.Config) model.BaseChatModel {
	if cfg.Gemini.APIKey == "" {
		glog.Warn("未配置 Gemini API Key，生成式抽取不可用")
		return nil
	}
	chat, err := agent.NewChatModel(ctx, cfg.Gemini)
	if err != nil {
		glog.Fatalf("初始化 Gemini 客户端失败: %v", err)
	}
	return chat
}

func newOrchestrator(cfg *config.Config, s *storage.Storage, ai, heuristic processor.Analyzer) (*processor.Orchestrator, error) {
	compOpts := []processor.ComponentOpt{
		processor.WithTextExtractor(parser.NewDocumentTextExtractor(parser.WithPageWorkers(cfg.Extraction.PDFPageWorkers))),
		processor.WithAIAnalyzer(ai),
		processor.WithHeuristicAnalyzer(heuristic),
		processor.WithDocumentFetcher(s.Fetcher),
	}
	listener := processor.MultiListener{processor.NewLoggingListener()}

	if s.MinIO != nil {
		compOpts = append(compOpts, processor.WithDocumentStore(s.MinIO))
	}
	useOutbox := s.RabbitMQ != nil && s.MySQL != nil && cfg.Processing.UseOutbox
	switch {
	case useOutbox:
		// 记录和事件同事务写入，由中继发布
		compOpts = append(compOpts, processor.WithRepository(
			outbox.NewRepository(s.MySQL, cfg.RabbitMQ.EventsExchange, cfg.RabbitMQ.ExtractedRoutingKey)))
	case s.MySQL != nil:
		compOpts = append(compOpts, processor.WithRepository(s.MySQL))
	}
	if s.Redis != nil {
		compOpts = append(compOpts, processor.WithLocker(s.Redis))
		listener = append(listener, processor.NewStatusListener(s.Redis))
	}
	if s.RabbitMQ != nil && !useOutbox {
		compOpts = append(compOpts, processor.WithEventPublisher(s.RabbitMQ))
	}

	return processor.NewOrchestratorWithOpts(compOpts,
		processor.WithLockTTL(config.GetDuration(cfg.Processing.LockTTL, constants.DefaultLockTTL)),
		processor.WithStepListener(listener),
	)
}
