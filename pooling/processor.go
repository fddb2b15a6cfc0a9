package pooling

import (
	"reflect"

	"github.com/fyerfyer/fyer-pool/pooling/internal/perr"
)

// Processor 定义某一具体类型对象的生命周期处理逻辑。
// 每个类型在 System 中最多注册一个 Processor，被该类型的所有池共享。
//
// 钩子中的 panic 不会被捕获：池无法得知对象此后处于什么状态，
// 因此这类失败被视为致命错误，直接传播给调用方。
type Processor[T any] interface {
	// CreateInstance 根据模板对象创建一个新实例
	CreateInstance(key any, template T) T
	// DestroyInstance 销毁实例，在池被销毁时对每个实例调用一次
	DestroyInstance(key any, instance T)
	// OnEnableInstance 在实例被借出时调用
	OnEnableInstance(key any, instance T)
	// OnDisableInstance 在实例被归还时调用
	OnDisableInstance(key any, instance T)
}

// Resetter 由持有宿主侧状态的 Processor 实现。
// System.Reset 丢弃所有池后会对每个实现了它的 Processor 调用 Reset，
// Processor 应在此忘记与已销毁宿主对象相关的状态。
type Resetter interface {
	Reset()
}

// BaseProcessor 为 OnEnableInstance 和 OnDisableInstance 提供空实现，
// 嵌入后只需实现 CreateInstance 和 DestroyInstance。
type BaseProcessor[T any] struct{}

func (BaseProcessor[T]) OnEnableInstance(key any, instance T) {}

func (BaseProcessor[T]) OnDisableInstance(key any, instance T) {}

// ProcessorFuncs 用函数字面量组装一个 Processor。
// Create 与 Destroy 必须提供，Enable 与 Disable 可以为空。
type ProcessorFuncs[T any] struct {
	Create  func(key any, template T) T
	Destroy func(key any, instance T)
	Enable  func(key any, instance T)
	Disable func(key any, instance T)
}

func (f ProcessorFuncs[T]) CreateInstance(key any, template T) T {
	return f.Create(key, template)
}

func (f ProcessorFuncs[T]) DestroyInstance(key any, instance T) {
	f.Destroy(key, instance)
}

func (f ProcessorFuncs[T]) OnEnableInstance(key any, instance T) {
	if f.Enable != nil {
		f.Enable(key, instance)
	}
}

func (f ProcessorFuncs[T]) OnDisableInstance(key any, instance T) {
	if f.Disable != nil {
		f.Disable(key, instance)
	}
}

func (f ProcessorFuncs[T]) validate() error {
	if f.Create == nil || f.Destroy == nil {
		return perr.ErrNilProcessor(reflect.TypeFor[T]())
	}
	return nil
}

// validateProcessor 检查 Processor 是否可用
func validateProcessor[T any](p Processor[T]) error {
	if p == nil || isNil(p) {
		return perr.ErrNilProcessor(reflect.TypeFor[T]())
	}
	if v, ok := p.(interface{ validate() error }); ok {
		return v.validate()
	}
	return nil
}
