package tree

import (
	"errors"
	"fmt"

	"go.uber.org/multierr"

	"github.com/benz9527/xds/lib/infra"
)

var (
	ErrOrderViolation     = errors.New("rbtree order violation")
	ErrLinkViolation      = errors.New("rbtree parent link violation")
	ErrLeafColorViolation = errors.New("rbtree leaf color violation")
	ErrRedViolation       = errors.New("rbtree red violation")
	ErrBlackViolation     = errors.New("rbtree black violation")
	ErrRootColorViolation = errors.New("rbtree root color violation")
)

func isNilLeaf[K infra.Integer](node RBNode[K]) bool {
	return node == nil || node.IsNilLeaf()
}

func isBlack[K infra.Integer](node RBNode[K]) bool {
	return isNilLeaf[K](node) || node.Color() == Black
}

func isRed[K infra.Integer](node RBNode[K]) bool {
	return !isBlack[K](node)
}

// Counts the black nodes from the target up to the root,
// both ends included.
func blackDepth[K infra.Integer](target RBNode[K]) int {
	depth := 0
	for aux := target; aux != nil; aux = aux.Parent() {
		if isBlack[K](aux) {
			depth++
		}
	}
	return depth
}

// rbtree rule validation utilities.

// OrderViolationValidate walks the tree inorder and checks the keys are
// strictly increasing and every child points back to its parent.
func OrderViolationValidate[K infra.Integer](tree RBTree[K]) error {
	aux := tree.Root()
	if isNilLeaf[K](aux) {
		return nil
	}
	if aux.Parent() != nil {
		return fmt.Errorf("%w: root %d has a parent", ErrLinkViolation, aux.Key())
	}

	stack := make([]RBNode[K], 0, tree.Len()>>1)
	defer func() {
		clear(stack)
	}()

	for ; !isNilLeaf[K](aux); aux = aux.Left() {
		stack = append(stack, aux)
	}

	var (
		prev    K
		hasPrev bool
	)
	for size := len(stack); size > 0; size = len(stack) {
		aux = stack[size-1]
		stack = stack[:size-1]
		if hasPrev && prev >= aux.Key() {
			return fmt.Errorf("%w: key %d after %d", ErrOrderViolation, aux.Key(), prev)
		}
		prev, hasPrev = aux.Key(), true

		l, r := aux.Left(), aux.Right()
		if l == nil || r == nil {
			return fmt.Errorf("%w: node %d lost a child position", ErrLinkViolation, aux.Key())
		}
		if l.Parent() != aux || r.Parent() != aux {
			return fmt.Errorf("%w: children of %d", ErrLinkViolation, aux.Key())
		}

		for aux = r; !isNilLeaf[K](aux); aux = aux.Left() {
			stack = append(stack, aux)
		}
	}
	return nil
}

// LeafColorValidate checks every NIL leaf is black.
func LeafColorValidate[K infra.Integer](tree RBTree[K]) error {
	for _, leaf := range tree.GetLeafNodes() {
		if leaf.Color() != Black {
			return fmt.Errorf("%w: leaf under %d", ErrLeafColorViolation, leaf.Parent().Key())
		}
	}
	return nil
}

// RedViolationValidate checks a red node has black children only.
func RedViolationValidate[K infra.Integer](tree RBTree[K]) error {
	for _, node := range tree.GetAllNodes() {
		if isRed[K](node) && (isRed[K](node.Left()) || isRed[K](node.Right())) {
			return fmt.Errorf("%w: red node %d", ErrRedViolation, node.Key())
		}
	}
	return nil
}

/*
<X> is a RED node.
[X] is a BLACK node (or NIL).

	        [13]
			/  \
		 <8>    [15]
		 / \    /  \
	  [6] [11] [14] [17]
	  /              /
	<1>            <16>

Each NIL leaf to root node black depth are equal.
*/
func BlackViolationValidate[K infra.Integer](tree RBTree[K]) error {
	leaves := tree.GetLeafNodes()
	if len(leaves) == 0 {
		return nil
	}

	depth := blackDepth[K](leaves[0])
	for i := 1; i < len(leaves); i++ {
		if d := blackDepth[K](leaves[i]); d != depth {
			return fmt.Errorf("%w: leaf under %d has %d black nodes, expected %d",
				ErrBlackViolation, leaves[i].Parent().Key(), d, depth)
		}
	}
	return nil
}

func RootColorValidate[K infra.Integer](tree RBTree[K]) error {
	if root := tree.Root(); !isNilLeaf[K](root) && root.Color() != Black {
		return fmt.Errorf("%w: root %d", ErrRootColorViolation, root.Key())
	}
	return nil
}

// Validate runs all validators and reports every violation at once.
func Validate[K infra.Integer](tree RBTree[K]) error {
	return multierr.Combine(
		OrderViolationValidate[K](tree),
		LeafColorValidate[K](tree),
		RedViolationValidate[K](tree),
		BlackViolationValidate[K](tree),
		RootColorValidate[K](tree),
	)
}
