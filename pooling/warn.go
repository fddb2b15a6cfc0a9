package pooling

import (
	"fmt"
	"reflect"
	"time"

	"github.com/patrickmn/go-cache"
)

// minRetention 记录在缓存中至少保留的时间，只影响内存回收
const minRetention = time.Minute

// warnLimiter 抑制短时间内重复的告警。
// 驱动方通常每帧调用一次 System，同一个错误会以帧率刷屏。
// 是否处于抑制窗口由 System 的 Clock 决定，缓存过期只用于回收内存。
type warnLimiter struct {
	interval  time.Duration
	retention time.Duration
	seen      *cache.Cache
}

func newWarnLimiter(interval time.Duration) *warnLimiter {
	if interval <= 0 {
		return nil
	}
	retention := 2 * interval
	if retention < minRetention {
		retention = minRetention
	}
	return &warnLimiter{
		interval:  interval,
		retention: retention,
		seen:      cache.New(retention, retention),
	}
}

// allow 在该告警于 now 所在窗口内首次出现时返回 true
func (l *warnLimiter) allow(now time.Time, op Op, key any, typ reflect.Type, err error) bool {
	if l == nil {
		return true
	}
	id := fmt.Sprintf("%s|%v|%v|%s", op, key, typ, Reason(err))
	if v, ok := l.seen.Get(id); ok {
		if last, ok := v.(time.Time); ok && now.Sub(last) < l.interval {
			return false
		}
	}
	l.seen.Set(id, now, cache.DefaultExpiration)
	return true
}
