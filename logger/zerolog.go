package logger

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// zerologLogger 使用 zerolog 实现的日志记录器
type zerologLogger struct {
	mu    *sync.Mutex
	zlog  zerolog.Logger
	level LogLevel
}

// NewLogger 创建一个新的 zerolog 日志记录器
func NewLogger(opts ...Option) Logger {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	output := cfg.Output
	if cfg.Console {
		output = zerolog.ConsoleWriter{Out: cfg.Output, TimeFormat: cfg.TimeFormat}
	}

	zlog := zerolog.New(output).With().Timestamp().Logger()
	setZerologLevel(&zlog, cfg.Level)

	return &zerologLogger{
		mu:    &sync.Mutex{},
		zlog:  zlog,
		level: cfg.Level,
	}
}

// Nop 返回一个丢弃所有输出的日志记录器
func Nop() Logger {
	return &zerologLogger{
		mu:    &sync.Mutex{},
		zlog:  zerolog.Nop(),
		level: Disabled,
	}
}

func (l *zerologLogger) Debug(msg string, fields ...Field) {
	l.write(DebugLevel, msg, fields)
}

func (l *zerologLogger) Info(msg string, fields ...Field) {
	l.write(InfoLevel, msg, fields)
}

func (l *zerologLogger) Warn(msg string, fields ...Field) {
	l.write(WarnLevel, msg, fields)
}

func (l *zerologLogger) Error(msg string, fields ...Field) {
	l.write(ErrorLevel, msg, fields)
}

func (l *zerologLogger) write(level LogLevel, msg string, fields []Field) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level {
		return
	}

	var event *zerolog.Event
	switch level {
	case DebugLevel:
		event = l.zlog.Debug()
	case WarnLevel:
		event = l.zlog.Warn()
	case ErrorLevel:
		event = l.zlog.Error()
	default:
		event = l.zlog.Info()
	}
	for _, field := range fields {
		addFieldToEvent(event, field)
	}
	event.Msg(msg)
}

// WithField 添加单个字段
func (l *zerologLogger) WithField(key string, value any) Logger {
	return l.WithFields(Field{Key: key, Value: value})
}

// WithFields 添加多个字段，返回的日志记录器与原记录器共享输出锁
func (l *zerologLogger) WithFields(fields ...Field) Logger {
	l.mu.Lock()
	defer l.mu.Unlock()

	ctx := l.zlog.With()
	for _, field := range fields {
		ctx = addFieldToContext(ctx, field)
	}

	return &zerologLogger{
		mu:    l.mu,
		zlog:  ctx.Logger(),
		level: l.level,
	}
}

func (l *zerologLogger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
	setZerologLevel(&l.zlog, level)
}

func (l *zerologLogger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.zlog = l.zlog.Output(w)
}

// setZerologLevel 将内部日志级别转换为 zerolog 级别
func setZerologLevel(zlog *zerolog.Logger, level LogLevel) {
	var zerologLevel zerolog.Level
	switch level {
	case DebugLevel:
		zerologLevel = zerolog.DebugLevel
	case InfoLevel:
		zerologLevel = zerolog.InfoLevel
	case WarnLevel:
		zerologLevel = zerolog.WarnLevel
	case ErrorLevel:
		zerologLevel = zerolog.ErrorLevel
	case Disabled:
		zerologLevel = zerolog.Disabled
	default:
		zerologLevel = zerolog.InfoLevel
	}

	*zlog = zlog.Level(zerologLevel)
}

func addFieldToEvent(event *zerolog.Event, field Field) {
	switch v := field.Value.(type) {
	case string:
		event.Str(field.Key, v)
	case int:
		event.Int(field.Key, v)
	case int64:
		event.Int64(field.Key, v)
	case float64:
		event.Float64(field.Key, v)
	case bool:
		event.Bool(field.Key, v)
	case time.Duration:
		event.Dur(field.Key, v)
	case time.Time:
		event.Time(field.Key, v)
	case error:
		event.AnErr(field.Key, v)
	case fmt.Stringer:
		event.Stringer(field.Key, v)
	default:
		event.Interface(field.Key, v)
	}
}

func addFieldToContext(ctx zerolog.Context, field Field) zerolog.Context {
	switch v := field.Value.(type) {
	case string:
		return ctx.Str(field.Key, v)
	case int:
		return ctx.Int(field.Key, v)
	case int64:
		return ctx.Int64(field.Key, v)
	case float64:
		return ctx.Float64(field.Key, v)
	case bool:
		return ctx.Bool(field.Key, v)
	case time.Duration:
		return ctx.Dur(field.Key, v)
	case time.Time:
		return ctx.Time(field.Key, v)
	case error:
		return ctx.AnErr(field.Key, v)
	case fmt.Stringer:
		return ctx.Stringer(field.Key, v)
	default:
		return ctx.Interface(field.Key, v)
	}
}
