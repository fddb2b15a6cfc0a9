package prometheus

import (
	"errors"
	"reflect"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/fyerfyer/fyer-pool/pooling"
)

// ObserverBuilder 构建一个把池事件记录为 Prometheus 指标的 pooling.Observer。
// 指标只按类型打标签，key 可能无界，不作为标签。
type ObserverBuilder struct {
	NameSpace  string
	SubSystem  string
	Registerer prometheus.Registerer
}

type Observer struct {
	poolsCreated   *prometheus.CounterVec
	poolsDestroyed *prometheus.CounterVec
	instances      *prometheus.GaugeVec
	acquired       *prometheus.CounterVec
	returned       *prometheus.CounterVec
	failures       *prometheus.CounterVec
}

var _ pooling.Observer = (*Observer)(nil)

func (b *ObserverBuilder) Build() (*Observer, error) {
	reg := b.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	subsystem := b.SubSystem
	if subsystem == "" {
		subsystem = "pool"
	}

	o := &Observer{
		poolsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: b.NameSpace,
			Subsystem: subsystem,
			Name:      "created_total",
			Help:      "Total number of pools created",
		}, []string{"type"}),
		poolsDestroyed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: b.NameSpace,
			Subsystem: subsystem,
			Name:      "destroyed_total",
			Help:      "Total number of pools destroyed or dropped by reset",
		}, []string{"type"}),
		instances: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: b.NameSpace,
			Subsystem: subsystem,
			Name:      "instances",
			Help:      "Number of pre-allocated instances held by live pools",
		}, []string{"type"}),
		acquired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: b.NameSpace,
			Subsystem: subsystem,
			Name:      "acquired_total",
			Help:      "Total number of instances handed out, split by whether an active instance was recycled",
		}, []string{"type", "recycled"}),
		returned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: b.NameSpace,
			Subsystem: subsystem,
			Name:      "returned_total",
			Help:      "Total number of instances returned",
		}, []string{"type"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: b.NameSpace,
			Subsystem: subsystem,
			Name:      "failures_total",
			Help:      "Total number of rejected pooling operations",
		}, []string{"op", "reason"}),
	}

	var err error
	o.poolsCreated, err = register(reg, o.poolsCreated)
	if err != nil {
		return nil, err
	}
	o.poolsDestroyed, err = register(reg, o.poolsDestroyed)
	if err != nil {
		return nil, err
	}
	o.instances, err = register(reg, o.instances)
	if err != nil {
		return nil, err
	}
	o.acquired, err = register(reg, o.acquired)
	if err != nil {
		return nil, err
	}
	o.returned, err = register(reg, o.returned)
	if err != nil {
		return nil, err
	}
	o.failures, err = register(reg, o.failures)
	if err != nil {
		return nil, err
	}
	return o, nil
}

// register 注册 collector，已注册过相同指标时复用已有的那个
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (o *Observer) PoolCreated(key any, typ reflect.Type, size int) {
	t := typeLabel(typ)
	o.poolsCreated.WithLabelValues(t).Inc()
	o.instances.WithLabelValues(t).Add(float64(size))
}

func (o *Observer) PoolDestroyed(key any, typ reflect.Type, size int) {
	t := typeLabel(typ)
	o.poolsDestroyed.WithLabelValues(t).Inc()
	o.instances.WithLabelValues(t).Sub(float64(size))
}

func (o *Observer) InstanceAcquired(key any, typ reflect.Type, recycled bool) {
	o.acquired.WithLabelValues(typeLabel(typ), strconv.FormatBool(recycled)).Inc()
}

func (o *Observer) InstanceReturned(key any, typ reflect.Type) {
	o.returned.WithLabelValues(typeLabel(typ)).Inc()
}

func (o *Observer) OperationFailed(op pooling.Op, key any, typ reflect.Type, err error) {
	o.failures.WithLabelValues(string(op), pooling.Reason(err)).Inc()
}

func typeLabel(typ reflect.Type) string {
	if typ == nil {
		return "unknown"
	}
	return typ.String()
}
