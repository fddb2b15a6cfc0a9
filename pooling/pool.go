package pooling

import (
	"reflect"

	"github.com/fyerfyer/fyer-pool/pooling/internal/perr"
)

// PoolStats 池的运行统计
type PoolStats struct {
	Size     int
	Active   int
	Gets     uint64
	Returns  uint64
	Recycles uint64
}

// Pool 持有固定数量的同类型实例，实现借出/归还的回收策略。
// Pool 本身不是并发安全的，通过 System 访问时由 System 加锁。
type Pool[T any] struct {
	key       any
	template  T
	instances []*instance[T]
	processor Processor[T]
	clock     Clock
	disposed  bool

	gets     uint64
	returns  uint64
	recycles uint64
}

// NewPool 创建一个包含 count 个实例的池，所有实例在返回前都已通过
// processor 创建完成并处于停用状态。
func NewPool[T any](key any, template T, count int, processor Processor[T], opts ...PoolOption) (*Pool[T], error) {
	typ := reflect.TypeFor[T]()
	if count < 1 {
		return nil, perr.ErrInvalidCount(count)
	}
	if !typ.Comparable() {
		return nil, perr.ErrIncomparableType(typ)
	}
	if err := validateProcessor(processor); err != nil {
		return nil, err
	}

	cfg := &poolConfig{clock: SystemClock}
	for _, opt := range opts {
		opt(cfg)
	}

	p := &Pool[T]{
		key:       key,
		template:  template,
		instances: make([]*instance[T], count),
		processor: processor,
		clock:     cfg.clock,
	}
	for i := range p.instances {
		obj := processor.CreateInstance(key, template)
		p.instances[i] = newInstance(obj)
	}
	return p, nil
}

func (p *Pool[T]) Key() any {
	return p.key
}

func (p *Pool[T]) Template() T {
	return p.template
}

func (p *Pool[T]) Size() int {
	return len(p.instances)
}

// ActiveCount 返回当前处于借出状态的实例数
func (p *Pool[T]) ActiveCount() int {
	n := 0
	for _, inst := range p.instances {
		if inst.active {
			n++
		}
	}
	return n
}

func (p *Pool[T]) Stats() PoolStats {
	return PoolStats{
		Size:     len(p.instances),
		Active:   p.ActiveCount(),
		Gets:     p.gets,
		Returns:  p.returns,
		Recycles: p.recycles,
	}
}

// GetInstance 借出一个实例。优先选择第一个空闲实例；
// 池已饱和时回收激活时间最早的实例，该实例的调用方不会得到通知。
// 需要严格容量限制的调用方应自行统计使用量。
func (p *Pool[T]) GetInstance() T {
	obj, _ := p.getInstance()
	return obj
}

func (p *Pool[T]) getInstance() (T, bool) {
	idx, recycled := selectIndex(p.instances)
	inst := p.instances[idx]

	inst.setActive(true, p.clock.Now())
	p.gets++
	if recycled {
		p.recycles++
	}

	p.processor.OnEnableInstance(p.key, inst.obj)
	return inst.obj, recycled
}

// ReturnInstance 归还实例。value 不属于本池时返回 ErrInstanceNotTracked，
// 池状态保持不变。多个实例与 value 相等时优先归还处于借出状态的那个；
// 归还一个已空闲的实例不会再次触发 OnDisableInstance。
func (p *Pool[T]) ReturnInstance(value T) error {
	_, err := p.returnInstance(value)
	return err
}

// returnInstance 第一个返回值表示是否真的有实例从借出变为空闲
func (p *Pool[T]) returnInstance(value T) (bool, error) {
	idle := -1
	for i, inst := range p.instances {
		if !sameObject(inst.obj, value) {
			continue
		}
		if !inst.active {
			if idle < 0 {
				idle = i
			}
			continue
		}
		inst.setActive(false, p.clock.Now())
		p.returns++
		p.processor.OnDisableInstance(p.key, inst.obj)
		return true, nil
	}
	if idle >= 0 {
		return false, nil
	}
	return false, perr.ErrNotTracked(p.key, value)
}

// Dispose 通过 processor 销毁所有实例。重复调用不会再次销毁。
func (p *Pool[T]) Dispose() {
	if p.disposed {
		return
	}
	p.disposed = true
	for _, inst := range p.instances {
		p.processor.DestroyInstance(p.key, inst.obj)
	}
}

// selectIndex 返回第一个空闲实例的下标；没有空闲实例时返回激活时间最早
// 的下标(时间相同取较小下标)，第二个返回值为 true。
func selectIndex[T any](instances []*instance[T]) (int, bool) {
	for i, inst := range instances {
		if !inst.active {
			return i, false
		}
	}

	oldest := 0
	for i := 1; i < len(instances); i++ {
		if instances[i].activeTime.Before(instances[oldest].activeTime) {
			oldest = i
		}
	}
	return oldest, true
}

// sameObject 比较两个池化对象是否为同一个。
// 接口类型的动态值不可比较时视为不相等，而不是 panic。
func sameObject[T any](a, b T) bool {
	va, vb := any(a), any(b)
	if va == nil || vb == nil {
		return va == nil && vb == nil
	}
	ra, rb := reflect.ValueOf(va), reflect.ValueOf(vb)
	if ra.Type() != rb.Type() || !ra.Comparable() || !rb.Comparable() {
		return false
	}
	return va == vb
}

// pool 句柄的类型擦除接口，供 System 统一管理不同类型的池
type poolHandle interface {
	elemType() reflect.Type
	size() int
	dispose()
	stats() PoolStats
}

func (p *Pool[T]) elemType() reflect.Type {
	return reflect.TypeFor[T]()
}

func (p *Pool[T]) size() int {
	return len(p.instances)
}

func (p *Pool[T]) dispose() {
	p.Dispose()
}

func (p *Pool[T]) stats() PoolStats {
	return p.Stats()
}
