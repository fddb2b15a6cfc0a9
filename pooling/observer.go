package pooling

import "reflect"

// Op 标识 System 上的一个操作
type Op string

const (
	OpRegister       Op = "register"
	OpHasPool        Op = "has_pool"
	OpCreatePool     Op = "create_pool"
	OpDestroyPool    Op = "destroy_pool"
	OpGetInstance    Op = "get_instance"
	OpReturnInstance Op = "return_instance"
)

// Observer 接收 System 上发生的事件，用于指标和追踪。
// 回调在 System 持锁期间同步执行，不能再调用同一个 System。
type Observer interface {
	PoolCreated(key any, typ reflect.Type, size int)
	PoolDestroyed(key any, typ reflect.Type, size int)
	InstanceAcquired(key any, typ reflect.Type, recycled bool)
	InstanceReturned(key any, typ reflect.Type)
	OperationFailed(op Op, key any, typ reflect.Type, err error)
}

// NopObserver 空实现，嵌入后可只覆盖关心的回调
type NopObserver struct{}

func (NopObserver) PoolCreated(key any, typ reflect.Type, size int)             {}
func (NopObserver) PoolDestroyed(key any, typ reflect.Type, size int)           {}
func (NopObserver) InstanceAcquired(key any, typ reflect.Type, recycled bool)   {}
func (NopObserver) InstanceReturned(key any, typ reflect.Type)                  {}
func (NopObserver) OperationFailed(op Op, key any, typ reflect.Type, err error) {}

// observers 将事件广播给多个 Observer
type observers []Observer

func (obs observers) PoolCreated(key any, typ reflect.Type, size int) {
	for _, o := range obs {
		o.PoolCreated(key, typ, size)
	}
}

func (obs observers) PoolDestroyed(key any, typ reflect.Type, size int) {
	for _, o := range obs {
		o.PoolDestroyed(key, typ, size)
	}
}

func (obs observers) InstanceAcquired(key any, typ reflect.Type, recycled bool) {
	for _, o := range obs {
		o.InstanceAcquired(key, typ, recycled)
	}
}

func (obs observers) InstanceReturned(key any, typ reflect.Type) {
	for _, o := range obs {
		o.InstanceReturned(key, typ)
	}
}

func (obs observers) OperationFailed(op Op, key any, typ reflect.Type, err error) {
	for _, o := range obs {
		o.OperationFailed(op, key, typ, err)
	}
}
