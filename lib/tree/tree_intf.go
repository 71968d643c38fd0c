package tree

import "github.com/benz9527/xds/lib/infra"

type RBColor uint8

const (
	Black RBColor = iota
	Red
)

func (c RBColor) String() string {
	switch c {
	case Black:
		return "Black"
	case Red:
		return "Red"
	default:
	}
	return "Unknown"
}

type RBDirection int8

const (
	Left RBDirection = -1 + iota
	Root
	Right
)

// RBNode is a read-only view of a tree position.
// A NIL leaf position is also an RBNode: it is black,
// keyless, and its Parent is the node owning the position.
type RBNode[K infra.Integer] interface {
	Key() K
	Color() RBColor
	IsNilLeaf() bool
	Left() RBNode[K]
	Right() RBNode[K]
	Parent() RBNode[K]
}

type RBTree[K infra.Integer] interface {
	Len() int64
	Root() RBNode[K]
	// InsertNode returns false and the existing node if the key is present.
	InsertNode(key K) (inserted bool, node RBNode[K])
	DeleteNode(key K) (deleted bool)
	// FindNode returns nil if the key is absent.
	FindNode(key K) RBNode[K]
	Min() RBNode[K]
	Max() RBNode[K]
	GetAllNodes() []RBNode[K]
	GetLeafNodes() []RBNode[K]
	Foreach(action func(idx int64, color RBColor, key K) bool)
	Release()
}
