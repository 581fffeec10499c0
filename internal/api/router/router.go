package router

import (
	"context"
	"crypto/subtle"

	"github.com/AayushPaigwar/resume-sync-ai/internal/api/handler"
	"github.com/AayushPaigwar/resume-sync-ai/internal/metrics"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/adaptor"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/hertz-contrib/keyauth"
)

// APIKeyHeader 接口鉴权使用的请求头
const APIKeyHeader = "X-API-Key"

// RegisterRoutes 注册 API 路由，apiKey 非空时 /api/v1 需要鉴权
func RegisterRoutes(h *server.Hertz, resumeHandler *handler.ResumeHandler, healthHandler *handler.HealthHandler, apiKey string) {
	h.GET("/health", healthHandler.Health)
	h.GET("/metrics", metricsHandler())

	api := h.Group("/api/v1")
	if apiKey != "" {
		api.Use(apiKeyMiddleware(apiKey))
	}

	resumes := api.Group("/resumes")
	resumes.POST("/upload", resumeHandler.Upload)
	resumes.POST("/analyze", resumeHandler.Analyze)
	resumes.GET("/:id", resumeHandler.Get)
	resumes.GET("/:id/status", resumeHandler.Status)
	resumes.POST("/:id/process", resumeHandler.Process)
}

// metricsHandler 把 promhttp 处理器挂到 hertz 上
func metricsHandler() app.HandlerFunc {
	promHandler := metrics.Handler()
	return func(_ context.Context, ctx *app.RequestContext) {
		req, err := adaptor.GetCompatRequest(&ctx.Request)
		if err != nil {
			ctx.AbortWithStatusJSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
			return
		}
		promHandler.ServeHTTP(adaptor.GetCompatResponseWriter(&ctx.Response), req)
	}
}

func apiKeyMiddleware(apiKey string) app.HandlerFunc {
	return keyauth.New(
		keyauth.WithKeyLookUp("header:"+APIKeyHeader, ""),
		keyauth.WithValidator(func(_ context.Context, _ *app.RequestContext, key string) (bool, error) {
			return subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) == 1, nil
		}),
		keyauth.WithErrorHandler(func(_ context.Context, ctx *app.RequestContext, err error) {
			ctx.AbortWithStatusJSON(consts.StatusUnauthorized, utils.H{"error": "无效的 API Key"})
		}),
	)
}
