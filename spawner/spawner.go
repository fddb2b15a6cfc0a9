package spawner

import (
	"errors"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/fyerfyer/fyer-pool/logger"
	"github.com/fyerfyer/fyer-pool/pooling"
	"github.com/fyerfyer/fyer-pool/scene"
)

var ErrNotStarted = errors.New("spawner: not started")

// Spawner 按固定速率从池中借出 source 的实例，并放到随机的候选位置上。
// 池以 source 节点本身为键，因此同一个 System 中可以同时运行多个 Spawner。
//
// Spawner 不是并发安全的，应在驱动循环所在的 goroutine 中使用。
type Spawner struct {
	sys    *pooling.System
	source *scene.Node

	instances int
	speed     float64
	locations []scene.Vec3
	timer     float64

	rand    *rand.Rand
	log     logger.Logger
	started bool
	spawned uint64
}

// Option 定义 Spawner 的配置选项
type Option func(*Spawner)

func WithInstances(n int) Option {
	return func(s *Spawner) {
		s.instances = n
	}
}

func WithSpeed(speed float64) Option {
	return func(s *Spawner) {
		s.speed = speed
	}
}

func WithLocations(locations ...scene.Vec3) Option {
	return func(s *Spawner) {
		s.locations = append([]scene.Vec3(nil), locations...)
	}
}

// WithConfig 一次性应用配置中的实例数、速率和候选位置
func WithConfig(cfg Config) Option {
	return func(s *Spawner) {
		s.instances = cfg.Instances
		s.speed = cfg.Speed
		s.locations = append([]scene.Vec3(nil), cfg.Locations...)
	}
}

// WithRand 设置随机数源，测试中用于固定位置序列
func WithRand(r *rand.Rand) Option {
	return func(s *Spawner) {
		if r != nil {
			s.rand = r
		}
	}
}

func WithLogger(l logger.Logger) Option {
	return func(s *Spawner) {
		if l != nil {
			s.log = l
		}
	}
}

// New 创建 Spawner，source 的实例由 sys 中注册的 *scene.Node Processor 创建
func New(sys *pooling.System, source *scene.Node, opts ...Option) (*Spawner, error) {
	if sys == nil || source == nil {
		return nil, errors.New("spawner: system and source are required")
	}

	def := DefaultConfig()
	s := &Spawner{
		sys:       sys,
		source:    source,
		instances: def.Instances,
		speed:     def.Speed,
		rand:      rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
		log:       logger.GetDefaultLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := (Config{Instances: s.instances, Speed: s.speed}).Validate(); err != nil {
		return nil, err
	}
	s.log = s.log.WithField("source", source.Name)
	return s, nil
}

// Start 为 source 创建池
func (s *Spawner) Start() error {
	if s.started {
		return nil
	}
	if err := pooling.CreatePool(s.sys, s.source, s.source, s.instances); err != nil {
		return err
	}
	s.started = true
	s.log.Info("spawner started", logger.Int("instances", s.instances), logger.Float64("speed", s.speed))
	return nil
}

// Update 推进一帧。计时器每帧累加 dt*speed，达到 1 的那一帧借出一个实例
// 并重置计时器，该帧不再累加。返回本帧生成的实例。
func (s *Spawner) Update(dt time.Duration) (*scene.Node, bool) {
	if !s.started {
		return nil, false
	}
	if s.timer < 1 {
		s.timer += dt.Seconds() * s.speed
		return nil, false
	}
	s.timer = 0

	node, ok := pooling.TryGetInstance[*scene.Node](s.sys, s.source)
	if !ok {
		return nil, false
	}
	if len(s.locations) > 0 {
		node.Transform.Position = s.locations[s.rand.IntN(len(s.locations))]
	}
	s.spawned++
	return node, true
}

// SetInstances 解析实例数并重建池。无法解析、小于 1 或与当前值相同的输入会被忽略。
func (s *Spawner) SetInstances(value string) error {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		s.log.Debug("ignore instances value", logger.String("value", value), logger.FieldError(err))
		return nil
	}
	return s.setInstances(n)
}

func (s *Spawner) setInstances(n int) error {
	if n < 1 {
		s.log.Warn("ignore instances value", logger.Int("value", n))
		return nil
	}
	if n == s.instances {
		return nil
	}
	s.instances = n
	if !s.started {
		return nil
	}

	if err := pooling.DestroyPool[*scene.Node](s.sys, s.source); err != nil && !errors.Is(err, pooling.ErrNotFound) {
		return err
	}
	if err := pooling.CreatePool(s.sys, s.source, s.source, n); err != nil {
		s.started = false
		return err
	}
	s.log.Info("pool resized", logger.Int("instances", n))
	return nil
}

// SetSpeed 解析生成速率。无法解析、为负或非有限值的输入会被忽略。
func (s *Spawner) SetSpeed(value string) {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		s.log.Debug("ignore speed value", logger.String("value", value), logger.FieldError(err))
		return
	}
	s.setSpeed(v)
}

func (s *Spawner) setSpeed(v float64) {
	if !validSpeed(v) {
		s.log.Warn("ignore speed value", logger.Float64("value", v))
		return
	}
	if v == s.speed {
		return
	}
	s.speed = v
	s.log.Info("speed changed", logger.Float64("speed", v))
}

// Apply 应用一份重新加载的配置
func (s *Spawner) Apply(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.setSpeed(cfg.Speed)
	s.locations = append([]scene.Vec3(nil), cfg.Locations...)
	return s.setInstances(cfg.Instances)
}

// Stop 销毁池，已借出的实例一并销毁
func (s *Spawner) Stop() error {
	if !s.started {
		return ErrNotStarted
	}
	s.started = false
	s.timer = 0
	if err := pooling.DestroyPool[*scene.Node](s.sys, s.source); err != nil {
		return err
	}
	s.log.Info("spawner stopped", logger.Int("spawned", int(s.spawned)))
	return nil
}

func (s *Spawner) Instances() int {
	return s.instances
}

func (s *Spawner) Speed() float64 {
	return s.speed
}

// Spawned 返回累计生成次数
func (s *Spawner) Spawned() uint64 {
	return s.spawned
}

// Stats 返回 source 池的统计
func (s *Spawner) Stats() (pooling.PoolStats, bool) {
	return pooling.Stats[*scene.Node](s.sys, s.source)
}
