package accesslog

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/fyerfyer/fyer-pool/pooling"
)

// ObserverBuilder 构建一个把每次借出和归还序列化为一行 JSON 的 Observer，
// 适合调试回收行为。
type ObserverBuilder struct {
	logger func(content string)
}

type logInfo struct {
	Event    string `json:"event"`
	Key      string `json:"key,omitempty"`
	Type     string `json:"type,omitempty"`
	Size     int    `json:"size,omitempty"`
	Recycled bool   `json:"recycled,omitempty"`
	Op       string `json:"op,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

func (m *ObserverBuilder) SetLogger(logger func(content string)) *ObserverBuilder {
	m.logger = logger
	return m
}

func NewObserverBuilder() *ObserverBuilder {
	return &ObserverBuilder{
		logger: func(content string) {
			println(content)
		},
	}
}

func (m *ObserverBuilder) Build() pooling.Observer {
	return &observer{logger: m.logger}
}

type observer struct {
	logger func(content string)
}

func (o *observer) PoolCreated(key any, typ reflect.Type, size int) {
	o.write(logInfo{Event: "pool_created", Key: keyString(key), Type: typeString(typ), Size: size})
}

func (o *observer) PoolDestroyed(key any, typ reflect.Type, size int) {
	o.write(logInfo{Event: "pool_destroyed", Key: keyString(key), Type: typeString(typ), Size: size})
}

func (o *observer) InstanceAcquired(key any, typ reflect.Type, recycled bool) {
	o.write(logInfo{Event: "acquired", Key: keyString(key), Type: typeString(typ), Recycled: recycled})
}

func (o *observer) InstanceReturned(key any, typ reflect.Type) {
	o.write(logInfo{Event: "returned", Key: keyString(key), Type: typeString(typ)})
}

func (o *observer) OperationFailed(op pooling.Op, key any, typ reflect.Type, err error) {
	o.write(logInfo{Event: "failed", Key: keyString(key), Type: typeString(typ), Op: string(op), Reason: pooling.Reason(err)})
}

func (o *observer) write(info logInfo) {
	val, _ := json.Marshal(info)
	o.logger(string(val))
}

func keyString(key any) string {
	if key == nil {
		return ""
	}
	return fmt.Sprint(key)
}

func typeString(typ reflect.Type) string {
	if typ == nil {
		return ""
	}
	return typ.String()
}
