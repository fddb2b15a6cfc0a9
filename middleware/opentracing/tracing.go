package opentracing

import (
	"context"
	"fmt"
	"reflect"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fyerfyer/fyer-pool/pooling"
)

var defaultInstrumentationName = "fyer-pool"

// ObserverBuilder 构建一个把池事件记录为 span 的 pooling.Observer。
// 池操作不携带 context，每个事件都是一个独立的根 span。
type ObserverBuilder struct {
	Tracer trace.Tracer
}

type Observer struct {
	tracer trace.Tracer
}

var _ pooling.Observer = (*Observer)(nil)

func (b *ObserverBuilder) Build() *Observer {
	tracer := b.Tracer
	if tracer == nil {
		tracer = otel.GetTracerProvider().Tracer(defaultInstrumentationName)
	}
	return &Observer{tracer: tracer}
}

func (o *Observer) PoolCreated(key any, typ reflect.Type, size int) {
	o.event("pool.create", key, typ, attribute.Int("pool.size", size))
}

func (o *Observer) PoolDestroyed(key any, typ reflect.Type, size int) {
	o.event("pool.destroy", key, typ, attribute.Int("pool.size", size))
}

func (o *Observer) InstanceAcquired(key any, typ reflect.Type, recycled bool) {
	o.event("pool.get", key, typ, attribute.Bool("pool.recycled", recycled))
}

func (o *Observer) InstanceReturned(key any, typ reflect.Type) {
	o.event("pool.return", key, typ)
}

func (o *Observer) OperationFailed(op pooling.Op, key any, typ reflect.Type, err error) {
	_, span := o.tracer.Start(context.Background(), "pool."+string(op))
	defer span.End()

	span.SetAttributes(baseAttributes(key, typ)...)
	span.SetAttributes(attribute.String("pool.reason", pooling.Reason(err)))
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func (o *Observer) event(name string, key any, typ reflect.Type, attrs ...attribute.KeyValue) {
	_, span := o.tracer.Start(context.Background(), name)
	defer span.End()

	span.SetAttributes(baseAttributes(key, typ)...)
	span.SetAttributes(attrs...)
	span.SetAttributes(attribute.String("component", "pooling"))
}

func baseAttributes(key any, typ reflect.Type) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 2)
	if key != nil {
		attrs = append(attrs, attribute.String("pool.key", fmt.Sprint(key)))
	}
	if typ != nil {
		attrs = append(attrs, attribute.String("pool.type", typ.String()))
	}
	return attrs
}
