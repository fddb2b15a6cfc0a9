package pooling

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/fyerfyer/fyer-pool/logger"
	"github.com/fyerfyer/fyer-pool/pooling/internal/perr"
)

// System 是所有池的注册中心，按 (key, 类型) 定位池，
// 并负责为每种类型解析对应的 Processor。
//
// System 需要显式创建并由宿主程序持有。每个操作在锁内完整执行，
// Processor 的钩子和 Observer 回调都在锁内被调用，不能重入同一个 System。
type System struct {
	mu         sync.Mutex
	pools      map[any]map[reflect.Type]poolHandle
	processors map[reflect.Type]any

	log       logger.Logger
	clock     Clock
	observers observers
	limiter   *warnLimiter
}

// NewSystem 创建一个空的 System
func NewSystem(opts ...Option) *System {
	s := &System{
		pools:      make(map[any]map[reflect.Type]poolHandle),
		processors: make(map[reflect.Type]any),
		log:        logger.GetDefaultLogger(),
		clock:      SystemClock,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register 为类型 T 注册 Processor，每种类型只能注册一次。
// 应在程序启动时完成所有注册。
func Register[T any](s *System, p Processor[T]) error {
	typ := reflect.TypeFor[T]()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := validateProcessor(p); err != nil {
		return s.fail(OpRegister, nil, typ, err)
	}
	if _, ok := s.processors[typ]; ok {
		return s.fail(OpRegister, nil, typ, perr.ErrProcessorExists(typ))
	}
	s.processors[typ] = p
	s.log.Debug("processor registered", logger.Type("type", typ))
	return nil
}

// MustRegister 与 Register 相同，但注册失败时 panic
func MustRegister[T any](s *System, p Processor[T]) {
	if err := Register(s, p); err != nil {
		panic(err)
	}
}

// HasProcessor 判断类型 T 是否已注册 Processor
func HasProcessor[T any](s *System) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.processors[reflect.TypeFor[T]()]
	return ok
}

// HasPool 判断 key 下是否存在类型为 T 的池
func HasPool[T any](s *System, key any) bool {
	typ := reflect.TypeFor[T]()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := validateKey(key); err != nil {
		_ = s.fail(OpHasPool, key, typ, err)
		return false
	}
	_, err := lookup[T](s, key)
	switch {
	case err == nil:
		return true
	case errors.Is(err, ErrTypeMismatch):
		// key 存在但类型不同，与"不存在"区分开并告警
		_ = s.fail(OpHasPool, key, typ, err)
	default:
		s.log.Debug("pool lookup missed", keyField(key), logger.Type("type", typ))
	}
	return false
}

// CreatePool 以 template 为模板创建包含 count 个实例的池
func CreatePool[T any](s *System, key any, template T, count int) error {
	typ := reflect.TypeFor[T]()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := validateKey(key); err != nil {
		return s.fail(OpCreatePool, key, typ, err)
	}
	if isNil(template) {
		return s.fail(OpCreatePool, key, typ, perr.ErrNilTemplate(typ))
	}
	if count < 1 {
		return s.fail(OpCreatePool, key, typ, perr.ErrInvalidCount(count))
	}
	if _, err := lookup[T](s, key); err == nil {
		return s.fail(OpCreatePool, key, typ, perr.ErrPoolExists(key, typ))
	}

	processor, ok := s.processors[typ].(Processor[T])
	if !ok {
		return s.fail(OpCreatePool, key, typ, perr.ErrNoProcessor(typ))
	}

	pool, err := NewPool(key, template, count, processor, WithPoolClock(s.clock))
	if err != nil {
		return s.fail(OpCreatePool, key, typ, err)
	}

	byType, ok := s.pools[key]
	if !ok {
		byType = make(map[reflect.Type]poolHandle)
		s.pools[key] = byType
	}
	byType[typ] = pool

	s.observers.PoolCreated(key, typ, count)
	s.log.Debug("pool created", keyField(key), logger.Type("type", typ), logger.Int("size", count))
	return nil
}

// DestroyPool 从注册表中移除 key 下类型为 T 的池，然后销毁其中的所有实例
func DestroyPool[T any](s *System, key any) error {
	typ := reflect.TypeFor[T]()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := validateKey(key); err != nil {
		return s.fail(OpDestroyPool, key, typ, err)
	}
	pool, err := lookup[T](s, key)
	if err != nil {
		return s.fail(OpDestroyPool, key, typ, err)
	}

	s.remove(key, typ)
	pool.Dispose()

	s.observers.PoolDestroyed(key, typ, pool.Size())
	s.log.Debug("pool destroyed", keyField(key), logger.Type("type", typ), logger.Int("size", pool.Size()))
	return nil
}

// TryGetInstance 从 key 下类型为 T 的池借出一个实例。
// 只要池存在就一定返回实例，池饱和时会回收最早借出的实例。
func TryGetInstance[T any](s *System, key any) (T, bool) {
	typ := reflect.TypeFor[T]()
	var zero T

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := validateKey(key); err != nil {
		_ = s.fail(OpGetInstance, key, typ, err)
		return zero, false
	}
	pool, err := lookup[T](s, key)
	if err != nil {
		_ = s.fail(OpGetInstance, key, typ, err)
		return zero, false
	}

	obj, recycled := pool.getInstance()
	s.observers.InstanceAcquired(key, typ, recycled)
	return obj, true
}

// ReturnInstance 将实例归还到 key 下类型为 T 的池
func ReturnInstance[T any](s *System, key any, value T) error {
	typ := reflect.TypeFor[T]()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := validateKey(key); err != nil {
		return s.fail(OpReturnInstance, key, typ, err)
	}
	if isNil(value) {
		return s.fail(OpReturnInstance, key, typ, perr.ErrNilInstance(typ))
	}
	pool, err := lookup[T](s, key)
	if err != nil {
		return s.fail(OpReturnInstance, key, typ, err)
	}
	returned, err := pool.returnInstance(value)
	if err != nil {
		return s.fail(OpReturnInstance, key, typ, err)
	}
	if returned {
		s.observers.InstanceReturned(key, typ)
	}
	return nil
}

// Stats 返回 key 下类型为 T 的池的统计
func Stats[T any](s *System, key any) (PoolStats, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if validateKey(key) != nil {
		return PoolStats{}, false
	}
	pool, err := lookup[T](s, key)
	if err != nil {
		return PoolStats{}, false
	}
	return pool.Stats(), true
}

// PoolCount 返回当前注册的池数量
func (s *System) PoolCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, byType := range s.pools {
		n += len(byType)
	}
	return n
}

// Reset 丢弃所有池但保留已注册的 Processor，用于宿主重新加载场景。
// 此时宿主已经销毁了自己的对象，因此不会再调用 DestroyInstance；
// 实现了 Resetter 的 Processor 会被通知清理自身状态。
func (s *System) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, byType := range s.pools {
		for typ, h := range byType {
			s.observers.PoolDestroyed(key, typ, h.size())
		}
	}
	s.pools = make(map[any]map[reflect.Type]poolHandle)
	for _, p := range s.processors {
		if r, ok := p.(Resetter); ok {
			r.Reset()
		}
	}
	s.log.Debug("pooling system reset")
}

// DestroyAll 移除并销毁所有池，通常在程序退出前调用
func (s *System) DestroyAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	pools := s.pools
	s.pools = make(map[any]map[reflect.Type]poolHandle)
	for key, byType := range pools {
		for typ, h := range byType {
			h.dispose()
			s.observers.PoolDestroyed(key, typ, h.size())
		}
	}
}

// lookup 按 (key, T) 查找池。key 不存在返回 ErrNotFound，
// key 存在但没有类型 T 的池返回 ErrTypeMismatch。调用方需持锁。
func lookup[T any](s *System, key any) (*Pool[T], error) {
	typ := reflect.TypeFor[T]()
	byType, ok := s.pools[key]
	if !ok {
		return nil, perr.ErrPoolNotFound(key)
	}
	h, ok := byType[typ]
	if !ok {
		return nil, perr.ErrPoolTypeMismatch(key, typ)
	}
	return h.(*Pool[T]), nil
}

func (s *System) remove(key any, typ reflect.Type) {
	byType := s.pools[key]
	delete(byType, typ)
	if len(byType) == 0 {
		delete(s.pools, key)
	}
}

// fail 上报失败并返回 err
func (s *System) fail(op Op, key any, typ reflect.Type, err error) error {
	s.observers.OperationFailed(op, key, typ, err)
	if s.limiter.allow(s.clock.Now(), op, key, typ, err) {
		s.log.Warn(err.Error(),
			logger.String("op", string(op)),
			keyField(key),
			logger.Type("type", typ),
			logger.String("reason", Reason(err)),
		)
	}
	return err
}

func keyField(key any) logger.Field {
	return logger.String("key", fmt.Sprint(key))
}

// validateKey 要求 key 非空且可以作为 map 的键
func validateKey(key any) error {
	if isNil(key) {
		return perr.ErrNilKey()
	}
	if !reflect.ValueOf(key).Comparable() {
		return perr.ErrInvalidKey(key)
	}
	return nil
}

// isNil 判断 v 是否为 nil，包括带类型的 nil 指针、map、切片等
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface, reflect.UnsafePointer:
		return rv.IsNil()
	}
	return false
}
