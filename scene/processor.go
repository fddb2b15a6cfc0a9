package scene

import (
	"fmt"

	"github.com/fyerfyer/fyer-pool/pooling"
)

// NodeProcessor 是 *Node 的 pooling.Processor 实现。
// 每个池键对应一个名为 "Pool - <key>" 的容器节点，停用的实例挂在容器下，
// 借出时移到根层级并激活。
type NodeProcessor struct {
	scene      *Scene
	containers map[any]*Node
}

var (
	_ pooling.Processor[*Node] = (*NodeProcessor)(nil)
	_ pooling.Resetter         = (*NodeProcessor)(nil)
)

func NewNodeProcessor(s *Scene) *NodeProcessor {
	return &NodeProcessor{
		scene:      s,
		containers: make(map[any]*Node),
	}
}

func (p *NodeProcessor) CreateInstance(key any, source *Node) *Node {
	// 宿主清空场景后容器可能已被销毁，此时重新创建
	if c, ok := p.containers[key]; !ok || c.Destroyed() {
		p.containers[key] = p.scene.NewNode(fmt.Sprintf("Pool - %v", key))
	}

	obj := p.scene.Instantiate(source, Zero, Identity)
	p.OnDisableInstance(key, obj)
	return obj
}

func (p *NodeProcessor) DestroyInstance(key any, instance *Node) {
	p.scene.Destroy(instance)

	// 最后一个实例被销毁后移除容器
	container, ok := p.containers[key]
	if ok && container.ChildCount() == 0 {
		p.scene.Destroy(container)
		delete(p.containers, key)
	}
}

func (p *NodeProcessor) OnEnableInstance(key any, instance *Node) {
	mustParent(instance, nil)
	instance.SetActive(true)
}

func (p *NodeProcessor) OnDisableInstance(key any, instance *Node) {
	if container, ok := p.containers[key]; ok {
		mustParent(instance, container)
	}
	instance.SetActive(false)
	instance.Transform = IdentityTransform()
}

// Container 返回 key 对应的容器节点
func (p *NodeProcessor) Container(key any) (*Node, bool) {
	c, ok := p.containers[key]
	return c, ok
}

// Reset 忘记所有容器，在场景被整体清空后调用。
// 实现 pooling.Resetter，随 System.Reset 一起执行。
func (p *NodeProcessor) Reset() {
	p.containers = make(map[any]*Node)
}

func mustParent(n, parent *Node) {
	if err := n.SetParent(parent); err != nil {
		panic(fmt.Errorf("scene: reparent %q: %w", n.Name, err))
	}
}
