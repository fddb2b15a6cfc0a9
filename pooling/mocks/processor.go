// Package mocks 提供用于测试的 Processor 实现
package mocks

import (
	"fmt"
	"sync"
)

// Object 测试用的池化对象，以指针身份区分实例
type Object struct {
	ID     int
	Source *Object
	Active bool
}

func (o *Object) String() string {
	if o == nil {
		return "<nil>"
	}
	return fmt.Sprintf("object#%d", o.ID)
}

// Call 记录一次钩子调用
type Call struct {
	Hook string
	Key  any
	Obj  *Object
}

// Processor 记录所有钩子调用的 Processor[*Object]
type Processor struct {
	mu     sync.Mutex
	nextID int
	calls  []Call
}

func NewProcessor() *Processor {
	return &Processor{}
}

func (p *Processor) CreateInstance(key any, template *Object) *Object {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	obj := &Object{ID: p.nextID, Source: template}
	p.calls = append(p.calls, Call{Hook: "create", Key: key, Obj: obj})
	return obj
}

func (p *Processor) DestroyInstance(key any, instance *Object) {
	p.record("destroy", key, instance)
}

func (p *Processor) OnEnableInstance(key any, instance *Object) {
	instance.Active = true
	p.record("enable", key, instance)
}

func (p *Processor) OnDisableInstance(key any, instance *Object) {
	instance.Active = false
	p.record("disable", key, instance)
}

func (p *Processor) record(hook string, key any, obj *Object) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, Call{Hook: hook, Key: key, Obj: obj})
}

// Calls 返回所有调用记录的副本
func (p *Processor) Calls() []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Call, len(p.calls))
	copy(out, p.calls)
	return out
}

// Count 返回指定钩子被调用的次数
func (p *Processor) Count(hook string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, c := range p.calls {
		if c.Hook == hook {
			n++
		}
	}
	return n
}

// Destroyed 返回被销毁过的对象
func (p *Processor) Destroyed() []*Object {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []*Object
	for _, c := range p.calls {
		if c.Hook == "destroy" {
			out = append(out, c.Obj)
		}
	}
	return out
}

// Reset 实现 pooling.Resetter，只记录一次 "reset" 调用
func (p *Processor) Reset() {
	p.record("reset", nil, nil)
}
