package pooling

import "time"

// instance 包装一个池化对象及其激活状态
type instance[T any] struct {
	obj        T
	active     bool
	activeTime time.Time
}

func newInstance[T any](obj T) *instance[T] {
	inst := &instance[T]{obj: obj}
	inst.setActive(false, time.Time{})
	return inst
}

// setActive 切换激活状态。激活时记录 now，停用时清零为"从未激活"。
func (i *instance[T]) setActive(active bool, now time.Time) {
	i.active = active
	if active {
		i.activeTime = now
		return
	}
	i.activeTime = time.Time{}
}
