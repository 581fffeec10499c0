package handler

import (
	"context"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// Pinger 依赖的健康检查
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler 汇总各依赖的连通性
type HealthHandler struct {
	checks map[string]Pinger
}

// NewHealthHandler 为空的检查项会被忽略
func NewHealthHandler(checks map[string]Pinger) *HealthHandler {
	filtered := make(map[string]Pinger, len(checks))
	for name, p := range checks {
		if p != nil {
			filtered[name] = p
		}
	}
	return &HealthHandler{checks: filtered}
}

// Health GET /health
func (h *HealthHandler) Health(c context.Context, ctx *app.RequestContext) {
	checkCtx, cancel := context.WithTimeout(c, 2*time.Second)
	defer cancel()

	components := utils.H{}
	healthy := true
	for name, p := range h.checks {
		if err := p.Ping(checkCtx); err != nil {
			components[name] = err.Error()
			healthy = false
			continue
		}
		components[name] = "ok"
	}

	if !healthy {
		ctx.JSON(consts.StatusServiceUnavailable, utils.H{"status": "degraded", "components": components})
		return
	}
	ctx.JSON(consts.StatusOK, utils.H{"status": "ok", "components": components})
}
