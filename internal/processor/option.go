package processor

import (
	"time"
)

// ComponentOpt 组件选项类型，仅改变 Components 结构体内的字段
type ComponentOpt func(*Components)

// SettingOpt 设置选项类型，仅改变 Settings 结构体内的字段
type SettingOpt func(*Settings)

// ----- 组件选项 -----

// WithTextExtractor 设置文档文本提取器
func WithTextExtractor(e TextExtractor) ComponentOpt {
	return func(c *Components) {
		c.Extractor = e
	}
}

// WithAIAnalyzer 上传流程使用的生成式抽取
func WithAIAnalyzer(a Analyzer) ComponentOpt {
	return func(c *Components) {
		c.AIAnalyzer = a
	}
}

// WithHeuristicAnalyzer 存量简历流程使用的启发式抽取
func WithHeuristicAnalyzer(a Analyzer) ComponentOpt {
	return func(c *Components) {
		c.HeuristicAnalyzer = a
	}
}

// WithDocumentStore 设置对象存储
func WithDocumentStore(s DocumentStore) ComponentOpt {
	return func(c *Components) {
		c.Store = s
	}
}

// WithDocumentFetcher 设置文档下载器
func WithDocumentFetcher(f DocumentFetcher) ComponentOpt {
	return func(c *Components) {
		c.Fetcher = f
	}
}

// WithRepository 设置简历仓储
func WithRepository(r ResumeRepository) ComponentOpt {
	return func(c *Components) {
		c.Repo = r
	}
}

// WithLocker 设置单飞锁，未设置时使用进程内锁
func WithLocker(l Locker) ComponentOpt {
	return func(c *Components) {
		c.Locker = l
	}
}

// WithEventPublisher 设置事件发布者
func WithEventPublisher(p EventPublisher) ComponentOpt {
	return func(c *Components) {
		c.Publisher = p
	}
}

// ----- 设置选项 -----

// WithLockTTL 设置锁过期时间
func WithLockTTL(ttl time.Duration) SettingOpt {
	return func(s *Settings) {
		if ttl > 0 {
			s.LockTTL = ttl
		}
	}
}

// WithStepListener 设置状态监听器
func WithStepListener(l StepListener) SettingOpt {
	return func(s *Settings) {
		if l != nil {
			s.Listener = l
		}
	}
}

// WithClock 设置时间来源，测试使用
func WithClock(now func() time.Time) SettingOpt {
	return func(s *Settings) {
		if now != nil {
			s.Now = now
		}
	}
}

// WithIDGenerator 设置简历ID生成函数
func WithIDGenerator(gen func() (string, error)) SettingOpt {
	return func(s *Settings) {
		if gen != nil {
			s.NewID = gen
		}
	}
}
