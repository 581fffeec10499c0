package agent

import (
	"context"

	"golang.org/x/time/rate"
)

// newQPMLimiter 按每分钟请求数创建限流器，qpm<=0 表示不限流
func newQPMLimiter(qpm int) *rate.Limiter {
	if qpm <= 0 {
		return nil
	}
	burst := qpm / 10
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(float64(qpm)/60.0), burst)
}

func waitLimiter(ctx context.Context, l *rate.Limiter) error {
	if l == nil {
		return nil
	}
	return l.Wait(ctx)
}
