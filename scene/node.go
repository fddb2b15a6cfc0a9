package scene

import (
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNodeDestroyed = errors.New("scene: node is destroyed")
	ErrCyclicParent  = errors.New("scene: node cannot be parented to itself or a descendant")
	ErrForeignNode   = errors.New("scene: nodes belong to different scenes")
)

// Node 场景中的一个节点
type Node struct {
	id        uuid.UUID
	Name      string
	Transform Transform

	scene     *Scene
	active    bool
	destroyed bool
	parent    *Node
	children  []*Node
}

func (n *Node) ID() uuid.UUID {
	return n.id
}

func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	return n.Name
}

// SetActive 设置节点自身的激活状态
func (n *Node) SetActive(active bool) {
	n.active = active
}

// ActiveSelf 返回节点自身的激活状态
func (n *Node) ActiveSelf() bool {
	return n.active
}

// ActiveInHierarchy 节点及其所有祖先均处于激活状态时返回 true
func (n *Node) ActiveInHierarchy() bool {
	for cur := n; cur != nil; cur = cur.parent {
		if !cur.active {
			return false
		}
	}
	return true
}

func (n *Node) Destroyed() bool {
	return n.destroyed
}

func (n *Node) Parent() *Node {
	return n.parent
}

// Children 返回子节点列表的副本
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

func (n *Node) ChildCount() int {
	return len(n.children)
}

// SetParent 将节点挂到 parent 下，parent 为 nil 时变为根节点。
// 局部变换保持不变。
func (n *Node) SetParent(parent *Node) error {
	if n.destroyed {
		return ErrNodeDestroyed
	}
	if parent != nil {
		if parent.destroyed {
			return ErrNodeDestroyed
		}
		if parent.scene != n.scene {
			return ErrForeignNode
		}
		for cur := parent; cur != nil; cur = cur.parent {
			if cur == n {
				return ErrCyclicParent
			}
		}
	}
	if n.parent == parent {
		return nil
	}

	n.detach()
	n.parent = parent
	if parent == nil {
		n.scene.roots = append(n.scene.roots, n)
	} else {
		parent.children = append(parent.children, n)
	}
	return nil
}

// detach 从父节点或根列表中摘除
func (n *Node) detach() {
	if n.parent == nil {
		n.scene.roots = removeNode(n.scene.roots, n)
		return
	}
	n.parent.children = removeNode(n.parent.children, n)
	n.parent = nil
}

func removeNode(nodes []*Node, target *Node) []*Node {
	for i, cur := range nodes {
		if cur == target {
			return append(nodes[:i], nodes[i+1:]...)
		}
	}
	return nodes
}
