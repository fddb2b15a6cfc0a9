package logger

import (
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"time"
)

// LogLevel 定义日志级别
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	// Disabled 关闭所有日志输出
	Disabled
)

// String 返回级别名称
func (l LogLevel) String() string {
	switch l {
	case DebugLevel:
		return "debug"
	case InfoLevel:
		return "info"
	case WarnLevel:
		return "warn"
	case ErrorLevel:
		return "error"
	case Disabled:
		return "disabled"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// ParseLevel 将字符串解析为日志级别，不区分大小写
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel, nil
	case "info", "":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	case "disabled", "off", "none":
		return Disabled, nil
	}
	return InfoLevel, fmt.Errorf("logger: unknown level %q", s)
}

// Field 表示结构化日志的字段
type Field struct {
	Key   string
	Value any
}

// Logger 定义日志接口
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// WithField 添加单个字段
	WithField(key string, value any) Logger
	// WithFields 添加多个字段
	WithFields(fields ...Field) Logger

	SetLevel(level LogLevel)
	SetOutput(w io.Writer)
}

// Option 日志配置选项函数
type Option func(*LogConfig)

// LogConfig 日志配置
type LogConfig struct {
	Level      LogLevel
	Output     io.Writer
	TimeFormat string
	Console    bool
}

// WithLevel 设置日志级别选项
func WithLevel(level LogLevel) Option {
	return func(cfg *LogConfig) {
		cfg.Level = level
	}
}

// WithOutput 设置日志输出选项
func WithOutput(w io.Writer) Option {
	return func(cfg *LogConfig) {
		cfg.Output = w
	}
}

// WithTimeFormat 设置时间格式选项
func WithTimeFormat(format string) Option {
	return func(cfg *LogConfig) {
		cfg.TimeFormat = format
	}
}

// WithConsole 使用便于阅读的控制台格式而不是 JSON
func WithConsole(console bool) Option {
	return func(cfg *LogConfig) {
		cfg.Console = console
	}
}

func defaultConfig() *LogConfig {
	return &LogConfig{
		Level:      InfoLevel,
		Output:     os.Stderr,
		TimeFormat: time.RFC3339,
	}
}

var defaultLogger Logger = NewLogger()

// String 创建字符串类型的日志字段
func String(key string, value string) Field {
	return Field{Key: key, Value: value}
}

// Int 创建整数类型的日志字段
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Float64 创建浮点数类型的日志字段
func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

// Bool 创建布尔类型的日志字段
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Duration 创建时长类型的日志字段
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value}
}

// FieldError 创建错误类型的日志字段
func FieldError(err error) Field {
	return Field{Key: "error", Value: err}
}

// Any 创建任意类型的日志字段
func Any(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Type 以类型名记录一个 reflect.Type
func Type(key string, typ reflect.Type) Field {
	if typ == nil {
		return Field{Key: key, Value: "<nil>"}
	}
	return Field{Key: key, Value: typ.String()}
}

func Debug(msg string, fields ...Field) {
	defaultLogger.Debug(msg, fields...)
}

func Info(msg string, fields ...Field) {
	defaultLogger.Info(msg, fields...)
}

func Warn(msg string, fields ...Field) {
	defaultLogger.Warn(msg, fields...)
}

func Error(msg string, fields ...Field) {
	defaultLogger.Error(msg, fields...)
}

// GetDefaultLogger 获取默认日志实例
func GetDefaultLogger() Logger {
	return defaultLogger
}

// SetDefaultLogger 设置默认日志实例
func SetDefaultLogger(l Logger) {
	if l == nil {
		return
	}
	defaultLogger = l
}
