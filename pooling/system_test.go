package pooling

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/fyerfyer/fyer-pool/logger"
	"github.com/fyerfyer/fyer-pool/pooling/mocks"
)

type recordingObserver struct {
	created   int
	destroyed int
	acquired  int
	recycled  int
	returned  int
	failures  map[Op][]string
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{failures: make(map[Op][]string)}
}

func (o *recordingObserver) PoolCreated(key any, typ reflect.Type, size int) {
	o.created++
}

func (o *recordingObserver) PoolDestroyed(key any, typ reflect.Type, size int) {
	o.destroyed++
}

func (o *recordingObserver) InstanceAcquired(key any, typ reflect.Type, recycled bool) {
	o.acquired++
	if recycled {
		o.recycled++
	}
}

func (o *recordingObserver) InstanceReturned(key any, typ reflect.Type) {
	o.returned++
}

func (o *recordingObserver) OperationFailed(op Op, key any, typ reflect.Type, err error) {
	o.failures[op] = append(o.failures[op], Reason(err))
}

type poolKey struct {
	name string
}

type SystemTestSuite struct {
	suite.Suite

	sys      *System
	proc     *mocks.Processor
	observer *recordingObserver
	logs     *bytes.Buffer
	key      poolKey
	template *mocks.Object
}

func (s *SystemTestSuite) SetupTest() {
	s.proc = mocks.NewProcessor()
	s.observer = newRecordingObserver()
	s.logs = &bytes.Buffer{}
	s.key = poolKey{name: "Key"}
	s.template = &mocks.Object{}

	s.sys = NewSystem(
		WithLogger(logger.NewLogger(logger.WithOutput(s.logs), logger.WithLevel(logger.WarnLevel))),
		WithClock(newTickClock()),
		WithObserver(s.observer),
	)
	s.Require().NoError(Register[*mocks.Object](s.sys, s.proc))
}

func (s *SystemTestSuite) warnings(reason string) int {
	return strings.Count(s.logs.String(), fmt.Sprintf(`"reason":"%s"`, reason))
}

func (s *SystemTestSuite) TestCreatePool() {
	s.Require().NoError(CreatePool(s.sys, s.key, s.template, 3))

	s.True(HasPool[*mocks.Object](s.sys, s.key))
	s.Equal(1, s.sys.PoolCount())
	s.Equal(3, s.proc.Count("create"))
	s.Equal(1, s.observer.created)
	s.Empty(s.logs.String())

	stats, ok := Stats[*mocks.Object](s.sys, s.key)
	s.True(ok)
	s.Equal(3, stats.Size)
	s.Equal(0, stats.Active)
}

func (s *SystemTestSuite) TestCreatePoolTwice() {
	s.Require().NoError(CreatePool(s.sys, s.key, s.template, 1))

	err := CreatePool(s.sys, s.key, s.template, 5)
	s.ErrorIs(err, ErrAlreadyExists)
	s.Equal(1, s.sys.PoolCount())
	s.Equal(1, s.proc.Count("create"))
	s.Equal(1, s.warnings("already_exists"))
	s.Equal([]string{"already_exists"}, s.observer.failures[OpCreatePool])
}

func (s *SystemTestSuite) TestCreatePoolInvalidArguments() {
	var nilObj *mocks.Object

	testCases := []struct {
		name     string
		key      any
		template *mocks.Object
		count    int
	}{
		{name: "nil key", key: nil, template: s.template, count: 1},
		{name: "typed nil key", key: nilObj, template: s.template, count: 1},
		{name: "incomparable key", key: []string{"a"}, template: s.template, count: 1},
		{name: "nil template", key: s.key, template: nil, count: 1},
		{name: "zero count", key: s.key, template: s.template, count: 0},
		{name: "negative count", key: s.key, template: s.template, count: -3},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			err := CreatePool(s.sys, tc.key, tc.template, tc.count)
			s.ErrorIs(err, ErrInvalidArgument)
			s.Equal(0, s.sys.PoolCount())
		})
	}
	s.Equal(0, s.proc.Count("create"))
	s.Equal(len(testCases), s.warnings("invalid_argument"))
}

func (s *SystemTestSuite) TestCreatePoolWithoutProcessor() {
	err := CreatePool(s.sys, s.key, "template", 2)
	s.ErrorIs(err, ErrProcessorMissing)
	s.False(HasPool[string](s.sys, s.key))
	s.Equal(0, s.sys.PoolCount())
	s.Equal(1, s.warnings("processor_missing"))
}

func (s *SystemTestSuite) TestSameKeyDifferentTypes() {
	s.Require().NoError(Register[string](s.sys, ProcessorFuncs[string]{
		Create:  func(key any, template string) string { return template + "-clone" },
		Destroy: func(key any, instance string) {},
	}))

	s.Require().NoError(CreatePool(s.sys, s.key, s.template, 1))
	s.Require().NoError(CreatePool(s.sys, s.key, "text", 1))

	s.True(HasPool[*mocks.Object](s.sys, s.key))
	s.True(HasPool[string](s.sys, s.key))
	s.Equal(2, s.sys.PoolCount())

	str, ok := TryGetInstance[string](s.sys, s.key)
	s.True(ok)
	s.Equal("text-clone", str)

	s.Require().NoError(DestroyPool[string](s.sys, s.key))
	s.True(HasPool[*mocks.Object](s.sys, s.key))
	s.False(HasPool[string](s.sys, s.key))
}

func (s *SystemTestSuite) TestTypeMismatchIsDistinctFromNotFound() {
	s.Require().NoError(CreatePool(s.sys, s.key, s.template, 1))

	_, ok := TryGetInstance[string](s.sys, s.key)
	s.False(ok)
	s.ErrorIs(DestroyPool[string](s.sys, s.key), ErrTypeMismatch)
	s.ErrorIs(ReturnInstance(s.sys, s.key, "x"), ErrTypeMismatch)

	other := poolKey{name: "Other"}
	_, ok = TryGetInstance[*mocks.Object](s.sys, other)
	s.False(ok)
	s.ErrorIs(DestroyPool[*mocks.Object](s.sys, other), ErrNotFound)
	s.ErrorIs(ReturnInstance(s.sys, other, s.template), ErrNotFound)

	s.Equal(3, s.warnings("type_mismatch"))
	s.Equal(3, s.warnings("not_found"))
	s.True(HasPool[*mocks.Object](s.sys, s.key))
}

func (s *SystemTestSuite) TestDestroyPool() {
	s.Require().NoError(CreatePool(s.sys, s.key, s.template, 4))
	obj, ok := TryGetInstance[*mocks.Object](s.sys, s.key)
	s.Require().True(ok)

	s.Require().NoError(DestroyPool[*mocks.Object](s.sys, s.key))
	s.False(HasPool[*mocks.Object](s.sys, s.key))
	s.Equal(0, s.sys.PoolCount())
	s.Equal(4, s.proc.Count("destroy"))
	s.Contains(s.proc.Destroyed(), obj)
	s.Equal(1, s.observer.destroyed)

	s.ErrorIs(DestroyPool[*mocks.Object](s.sys, s.key), ErrNotFound)
	s.Equal(4, s.proc.Count("destroy"))

	// 销毁后可以用同一个 key 重新创建
	s.Require().NoError(CreatePool(s.sys, s.key, s.template, 2))
	s.True(HasPool[*mocks.Object](s.sys, s.key))
}

func (s *SystemTestSuite) TestDestroyPoolInvalidKey() {
	s.ErrorIs(DestroyPool[*mocks.Object](s.sys, nil), ErrInvalidArgument)
}

func (s *SystemTestSuite) TestBorrowScenario() {
	s.Require().NoError(CreatePool(s.sys, s.key, s.template, 3))

	var borrowed []*mocks.Object
	for i := 0; i < 3; i++ {
		obj, ok := TryGetInstance[*mocks.Object](s.sys, s.key)
		s.Require().True(ok)
		s.Same(s.template, obj.Source)
		s.NotContains(borrowed, obj)
		borrowed = append(borrowed, obj)
	}

	fourth, ok := TryGetInstance[*mocks.Object](s.sys, s.key)
	s.Require().True(ok)
	s.Same(borrowed[0], fourth)

	s.Equal(4, s.observer.acquired)
	s.Equal(1, s.observer.recycled)
	stats, _ := Stats[*mocks.Object](s.sys, s.key)
	s.Equal(3, stats.Active)
	s.Equal(uint64(1), stats.Recycles)
}

func (s *SystemTestSuite) TestTryGetInstanceWithoutPool() {
	obj, ok := TryGetInstance[*mocks.Object](s.sys, s.key)
	s.False(ok)
	s.Nil(obj)

	obj, ok = TryGetInstance[*mocks.Object](s.sys, nil)
	s.False(ok)
	s.Nil(obj)
	s.Equal([]string{"not_found", "invalid_argument"}, s.observer.failures[OpGetInstance])
}

func (s *SystemTestSuite) TestReturnInstance() {
	s.Require().NoError(CreatePool(s.sys, s.key, s.template, 2))
	obj, ok := TryGetInstance[*mocks.Object](s.sys, s.key)
	s.Require().True(ok)

	s.Require().NoError(ReturnInstance(s.sys, s.key, obj))
	s.False(obj.Active)
	s.Equal(1, s.proc.Count("disable"))
	s.Equal(1, s.observer.returned)

	// 重复归还不会再次触发钩子和事件
	s.Require().NoError(ReturnInstance(s.sys, s.key, obj))
	s.Equal(1, s.proc.Count("disable"))
	s.Equal(1, s.observer.returned)

	again, ok := TryGetInstance[*mocks.Object](s.sys, s.key)
	s.Require().True(ok)
	s.Same(obj, again)
}

func (s *SystemTestSuite) TestReturnInstanceFailures() {
	s.Require().NoError(CreatePool(s.sys, s.key, s.template, 2))
	obj, _ := TryGetInstance[*mocks.Object](s.sys, s.key)

	s.ErrorIs(ReturnInstance(s.sys, s.key, &mocks.Object{ID: 42}), ErrInstanceNotTracked)
	s.ErrorIs(ReturnInstance[*mocks.Object](s.sys, s.key, nil), ErrInvalidArgument)
	s.ErrorIs(ReturnInstance(s.sys, nil, obj), ErrInvalidArgument)

	s.True(obj.Active)
	s.Equal(0, s.proc.Count("disable"))
	s.Equal(1, s.warnings("instance_not_tracked"))
	stats, _ := Stats[*mocks.Object](s.sys, s.key)
	s.Equal(1, stats.Active)
}

func (s *SystemTestSuite) TestHasPoolInvalidKey() {
	s.False(HasPool[*mocks.Object](s.sys, nil))
	s.Equal(1, s.warnings("invalid_argument"))
}

func (s *SystemTestSuite) TestHasPoolTypeMismatch() {
	s.Require().NoError(CreatePool(s.sys, s.key, s.template, 1))

	s.False(HasPool[string](s.sys, s.key))
	s.Equal(1, s.warnings("type_mismatch"))
	s.Equal([]string{"type_mismatch"}, s.observer.failures[OpHasPool])

	// key 不存在只是普通的查询未命中
	s.False(HasPool[*mocks.Object](s.sys, poolKey{name: "Other"}))
	s.Equal(0, s.warnings("not_found"))
	s.Len(s.observer.failures[OpHasPool], 1)
}

func (s *SystemTestSuite) TestResetSkipsProcessorsWithoutResetter() {
	s.Require().NoError(Register[string](s.sys, ProcessorFuncs[string]{
		Create:  func(key any, template string) string { return template },
		Destroy: func(key any, instance string) {},
	}))
	s.Require().NoError(CreatePool(s.sys, s.key, "text", 1))

	s.NotPanics(s.sys.Reset)
	s.Equal(1, s.proc.Count("reset"))
	s.Require().NoError(CreatePool(s.sys, s.key, "text", 1))
}

func (s *SystemTestSuite) TestReset() {
	s.Require().NoError(CreatePool(s.sys, s.key, s.template, 2))
	s.Require().NoError(CreatePool(s.sys, poolKey{name: "B"}, s.template, 2))

	s.sys.Reset()

	s.Equal(0, s.sys.PoolCount())
	s.False(HasPool[*mocks.Object](s.sys, s.key))
	s.Equal(0, s.proc.Count("destroy"))
	s.Equal(1, s.proc.Count("reset"))
	s.Equal(2, s.observer.destroyed)
	s.True(HasProcessor[*mocks.Object](s.sys))

	// 处理器保留，可以直接重新创建
	s.Require().NoError(CreatePool(s.sys, s.key, s.template, 2))
}

func (s *SystemTestSuite) TestDestroyAll() {
	s.Require().NoError(CreatePool(s.sys, s.key, s.template, 2))
	s.Require().NoError(CreatePool(s.sys, poolKey{name: "B"}, s.template, 3))

	s.sys.DestroyAll()

	s.Equal(0, s.sys.PoolCount())
	s.Equal(5, s.proc.Count("destroy"))
	s.Equal(2, s.observer.destroyed)
}

func (s *SystemTestSuite) TestRegister() {
	s.ErrorIs(Register[*mocks.Object](s.sys, mocks.NewProcessor()), ErrAlreadyExists)
	s.ErrorIs(Register[int](s.sys, nil), ErrInvalidArgument)
	s.ErrorIs(Register[int](s.sys, ProcessorFuncs[int]{
		Create: func(key any, template int) int { return template },
	}), ErrInvalidArgument)
	s.False(HasProcessor[int](s.sys))

	s.Panics(func() {
		MustRegister[*mocks.Object](s.sys, mocks.NewProcessor())
	})
}

func (s *SystemTestSuite) TestProcessorPanicPropagates() {
	s.Require().NoError(Register[float64](s.sys, ProcessorFuncs[float64]{
		Create:  func(key any, template float64) float64 { panic("boom") },
		Destroy: func(key any, instance float64) {},
	}))

	s.PanicsWithValue("boom", func() {
		_ = CreatePool(s.sys, s.key, 1.5, 1)
	})
	s.False(HasPool[float64](s.sys, s.key))

	// 锁已释放，System 仍可继续使用
	s.Require().NoError(CreatePool(s.sys, s.key, s.template, 1))
}

func TestSystemTestSuite(t *testing.T) {
	suite.Run(t, new(SystemTestSuite))
}

// manualClock 只在测试显式推进时前进
type manualClock struct {
	now time.Time
}

func (c *manualClock) Now() time.Time {
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func TestSystem_WarnInterval(t *testing.T) {
	logs := &bytes.Buffer{}
	clock := &manualClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	sys := NewSystem(
		WithLogger(logger.NewLogger(logger.WithOutput(logs))),
		WithWarnInterval(time.Second),
		WithClock(clock),
	)
	count := func() int { return strings.Count(logs.String(), `"reason":"not_found"`) }

	for i := 0; i < 10; i++ {
		_, ok := TryGetInstance[*mocks.Object](sys, "missing")
		assert.False(t, ok)
	}
	assert.Equal(t, 1, count())

	_, _ = TryGetInstance[*mocks.Object](sys, "other")
	assert.Equal(t, 2, count())

	clock.Advance(999 * time.Millisecond)
	_, _ = TryGetInstance[*mocks.Object](sys, "missing")
	assert.Equal(t, 2, count())

	clock.Advance(time.Millisecond)
	_, _ = TryGetInstance[*mocks.Object](sys, "missing")
	assert.Equal(t, 3, count())

	// 新窗口从上一次输出开始计算
	clock.Advance(500 * time.Millisecond)
	_, _ = TryGetInstance[*mocks.Object](sys, "missing")
	assert.Equal(t, 3, count())
}

func TestWarnLimiter_Disabled(t *testing.T) {
	assert.Nil(t, newWarnLimiter(0))
	var l *warnLimiter
	now := time.Now()
	assert.True(t, l.allow(now, OpGetInstance, "k", nil, ErrNotFound))
	assert.True(t, l.allow(now, OpGetInstance, "k", nil, ErrNotFound))
}

func TestSystem_DefaultsAndCustomClock(t *testing.T) {
	sys := NewSystem(WithLogger(logger.Nop()), WithLogger(nil), WithClock(nil), WithObserver(nil))
	require.NotNil(t, sys.log)
	assert.NotNil(t, sys.clock)
	assert.Empty(t, sys.observers)

	fixed := time.Date(2030, 5, 1, 12, 0, 0, 0, time.UTC)
	sys = NewSystem(WithLogger(logger.Nop()), WithClock(ClockFunc(func() time.Time { return fixed })))
	require.NoError(t, Register[*mocks.Object](sys, mocks.NewProcessor()))
	require.NoError(t, CreatePool(sys, "k", &mocks.Object{}, 2))

	_, ok := TryGetInstance[*mocks.Object](sys, "k")
	require.True(t, ok)
	pool, err := lookup[*mocks.Object](sys, "k")
	require.NoError(t, err)
	assert.Equal(t, fixed, pool.instances[0].activeTime)
}

func TestReason(t *testing.T) {
	assert.Equal(t, "", Reason(nil))
	assert.Equal(t, "unknown", Reason(fmt.Errorf("other")))
	assert.Equal(t, "not_found", Reason(fmt.Errorf("wrapped: %w", ErrNotFound)))
}

func TestSystem_ConcurrentAccess(t *testing.T) {
	sys := NewSystem(WithLogger(logger.Nop()))
	proc := mocks.NewProcessor()
	require.NoError(t, Register[*mocks.Object](sys, proc))
	require.NoError(t, CreatePool(sys, "shared", &mocks.Object{}, 4))

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				obj, ok := TryGetInstance[*mocks.Object](sys, "shared")
				if !ok {
					t.Error("expected instance")
					return
				}
				_ = ReturnInstance(sys, "shared", obj)
			}
		}()
	}
	wg.Wait()

	stats, ok := Stats[*mocks.Object](sys, "shared")
	require.True(t, ok)
	assert.Equal(t, uint64(800), stats.Gets)
	assert.Equal(t, 4, stats.Size)
}
