// Package processors 提供常用类型的 pooling.Processor 实现
package processors

import (
	"bytes"

	"github.com/fyerfyer/fyer-pool/pooling"
)

const (
	// DefaultBufferSize 模板容量不足时使用的初始容量
	DefaultBufferSize = 4096 // 4KB

	// MaxBufferSize 归还时超过此容量的缓冲区会被重新分配，防止内存膨胀
	MaxBufferSize = 64 * 1024
)

// BufferProcessor 池化 *bytes.Buffer。
// 新实例的容量取模板容量与 DefaultBufferSize 中的较大者，归还时清空内容。
type BufferProcessor struct {
	pooling.BaseProcessor[*bytes.Buffer]

	maxSize int
}

var _ pooling.Processor[*bytes.Buffer] = (*BufferProcessor)(nil)

// BufferOption BufferProcessor 配置选项
type BufferOption func(*BufferProcessor)

// WithMaxBufferSize 设置归还时允许保留的最大容量
func WithMaxBufferSize(size int) BufferOption {
	return func(p *BufferProcessor) {
		if size > 0 {
			p.maxSize = size
		}
	}
}

func NewBufferProcessor(opts ...BufferOption) *BufferProcessor {
	p := &BufferProcessor{maxSize: MaxBufferSize}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *BufferProcessor) CreateInstance(key any, template *bytes.Buffer) *bytes.Buffer {
	size := DefaultBufferSize
	if template != nil && template.Cap() > size {
		size = template.Cap()
	}
	return bytes.NewBuffer(make([]byte, 0, size))
}

func (p *BufferProcessor) DestroyInstance(key any, instance *bytes.Buffer) {
	instance.Reset()
}

// OnDisableInstance 清空内容；容量超过上限时丢弃底层存储，
// 指针身份保持不变，池仍能识别该实例。
func (p *BufferProcessor) OnDisableInstance(key any, instance *bytes.Buffer) {
	if instance.Cap() > p.maxSize {
		*instance = *bytes.NewBuffer(make([]byte, 0, DefaultBufferSize))
		return
	}
	instance.Reset()
}
