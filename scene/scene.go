// Package scene 实现一个最小的场景图：节点、父子层级、局部变换与克隆。
package scene

import (
	"github.com/google/uuid"
)

// Scene 持有所有存活的节点
type Scene struct {
	roots []*Node
	nodes map[uuid.UUID]*Node
}

func NewScene() *Scene {
	return &Scene{
		nodes: make(map[uuid.UUID]*Node),
	}
}

// NewNode 创建一个激活的根节点
func (s *Scene) NewNode(name string) *Node {
	n := &Node{
		id:        uuid.New(),
		Name:      name,
		Transform: IdentityTransform(),
		scene:     s,
		active:    true,
	}
	s.nodes[n.id] = n
	s.roots = append(s.roots, n)
	return n
}

// Instantiate 深拷贝 src 及其子树，副本作为根节点放在 position 处，
// 名称追加 "(Clone)"。
func (s *Scene) Instantiate(src *Node, position Vec3, rotation Quat) *Node {
	clone := s.cloneTree(src, nil)
	clone.Name = src.Name + "(Clone)"
	clone.Transform.Position = position
	clone.Transform.Rotation = rotation
	return clone
}

func (s *Scene) cloneTree(src *Node, parent *Node) *Node {
	n := &Node{
		id:        uuid.New(),
		Name:      src.Name,
		Transform: src.Transform,
		scene:     s,
		active:    src.active,
		parent:    parent,
	}
	s.nodes[n.id] = n
	if parent == nil {
		s.roots = append(s.roots, n)
	} else {
		parent.children = append(parent.children, n)
	}
	for _, child := range src.children {
		s.cloneTree(child, n)
	}
	return n
}

// Destroy 销毁节点及其整个子树。重复销毁无效果。
func (s *Scene) Destroy(n *Node) {
	if n == nil || n.destroyed || n.scene != s {
		return
	}
	n.detach()
	s.destroyTree(n)
}

func (s *Scene) destroyTree(n *Node) {
	for _, child := range n.children {
		s.destroyTree(child)
	}
	n.children = nil
	n.parent = nil
	n.active = false
	n.destroyed = true
	delete(s.nodes, n.id)
}

// Roots 返回根节点列表的副本
func (s *Scene) Roots() []*Node {
	out := make([]*Node, len(s.roots))
	copy(out, s.roots)
	return out
}

// Len 返回存活节点总数
func (s *Scene) Len() int {
	return len(s.nodes)
}

// Get 按 ID 查找存活节点
func (s *Scene) Get(id uuid.UUID) (*Node, bool) {
	n, ok := s.nodes[id]
	return n, ok
}

// Find 广度优先查找第一个名称匹配的节点
func (s *Scene) Find(name string) *Node {
	queue := s.Roots()
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if n.Name == name {
			return n
		}
		queue = append(queue, n.children...)
	}
	return nil
}

// Clear 销毁所有节点，相当于重新加载场景
func (s *Scene) Clear() {
	for _, root := range s.Roots() {
		s.Destroy(root)
	}
}
