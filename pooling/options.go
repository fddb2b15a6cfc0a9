package pooling

import (
	"time"

	"github.com/fyerfyer/fyer-pool/logger"
)

// Clock 提供激活时间戳
type Clock interface {
	Now() time.Time
}

// ClockFunc 将普通函数适配为 Clock
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time {
	return f()
}

// SystemClock 使用 time.Now
var SystemClock Clock = ClockFunc(time.Now)

// Option 定义 System 的配置选项
type Option func(*System)

// WithLogger 设置用于输出告警的日志记录器
func WithLogger(l logger.Logger) Option {
	return func(s *System) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock 设置时钟，所有由该 System 创建的池共用
func WithClock(c Clock) Option {
	return func(s *System) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithObserver 追加观察者
func WithObserver(obs ...Observer) Option {
	return func(s *System) {
		for _, o := range obs {
			if o != nil {
				s.observers = append(s.observers, o)
			}
		}
	}
}

// WithWarnInterval 在 interval 内对相同的告警(操作、键、类型、原因均相同)只输出一次。
// interval <= 0 表示不做抑制。
func WithWarnInterval(interval time.Duration) Option {
	return func(s *System) {
		s.limiter = newWarnLimiter(interval)
	}
}

// PoolOption 定义独立创建 Pool 时的配置选项
type PoolOption func(*poolConfig)

type poolConfig struct {
	clock Clock
}

// WithPoolClock 设置池使用的时钟
func WithPoolClock(c Clock) PoolOption {
	return func(cfg *poolConfig) {
		if c != nil {
			cfg.clock = c
		}
	}
}
