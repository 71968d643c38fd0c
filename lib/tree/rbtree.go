package tree

import (
	"github.com/benz9527/xds/lib/infra"
)

type rbNode[K infra.Integer] struct {
	parent *rbNode[K]
	left   *rbNode[K]
	right  *rbNode[K]
	key    K
	color  RBColor
	hasKey bool
}

func newNilLeaf[K infra.Integer](parent *rbNode[K]) *rbNode[K] {
	return &rbNode[K]{
		parent: parent,
		color:  Black,
	}
}

func (node *rbNode[K]) Key() K {
	return node.key
}

func (node *rbNode[K]) Color() RBColor {
	return node.color
}

func (node *rbNode[K]) IsNilLeaf() bool {
	return node == nil || !node.hasKey
}

func (node *rbNode[K]) Left() RBNode[K] {
	if node == nil || node.left == nil {
		return nil
	}
	return node.left
}

func (node *rbNode[K]) Right() RBNode[K] {
	if node == nil || node.right == nil {
		return nil
	}
	return node.right
}

func (node *rbNode[K]) Parent() RBNode[K] {
	if node == nil || node.parent == nil {
		return nil
	}
	return node.parent
}

func (node *rbNode[K]) isRed() bool {
	return !node.IsNilLeaf() && node.color == Red
}

func (node *rbNode[K]) isBlack() bool {
	return !node.isRed()
}

func (node *rbNode[K]) isRoot() bool {
	return node != nil && node.parent == nil
}

func (node *rbNode[K]) Direction() RBDirection {
	if node == nil {
		// impossible run to here
		panic( /* debug assertion */ "[rbtree] nil node without direction")
	}

	if node.isRoot() {
		return Root
	}
	if node == node.parent.left {
		return Left
	}
	return Right
}

// The sibling of a non-root position always exists,
// it is a NIL leaf at least.
func (node *rbNode[K]) sibling() *rbNode[K] {
	switch node.Direction() {
	case Left:
		return node.parent.right
	case Right:
		return node.parent.left
	default:
	}
	return nil
}

// Returns (near, far) children of the node's sibling.
func (node *rbNode[K]) nephews() (*rbNode[K], *rbNode[K]) {
	s := node.sibling()
	if node.Direction() == Left {
		return s.left, s.right
	}
	return s.right, s.left
}

func (node *rbNode[K]) fixLink() {
	if node.left != nil {
		node.left.parent = node
	}
	if node.right != nil {
		node.right.parent = node
	}
}

func (node *rbNode[K]) minimum() *rbNode[K] {
	aux := node
	for ; !aux.IsNilLeaf() && !aux.left.IsNilLeaf(); aux = aux.left {
	}
	return aux
}

func (node *rbNode[K]) maximum() *rbNode[K] {
	aux := node
	for ; !aux.IsNilLeaf() && !aux.right.IsNilLeaf(); aux = aux.right {
	}
	return aux
}

// The succ node of the current node is its next node in sorted order.
// Only called for a node with two keyed children.
func (node *rbNode[K]) succ() *rbNode[K] {
	return node.right.minimum()
}

type rbTree[K infra.Integer] struct {
	root    *rbNode[K]
	count   int64
	compare infra.IntegerComparator[K]
}

func (tree *rbTree[K]) Len() int64 {
	return tree.count
}

func (tree *rbTree[K]) Root() RBNode[K] {
	if tree.root == nil {
		return nil
	}
	return tree.root
}

// References:
// https://en.wikipedia.org/wiki/Red%E2%80%93black_tree#Properties
// p1. Every node is either red or black.
// p2. All NIL leaves are black. Each NIL leaf is a real keyless
//   node here, so it carries its own parent link.
// p3. A red node does not have a red child. (red-violation)
// p4. Every path from a given node to any of its descendant
//   NIL leaves goes through the same number of black nodes. (black-violation)
// p5. The root is black.

/*
		 |                         |
		 X                         Y
		/ \     leftRotate(X)     / \
	   L   Y    ============>    X   Yr
		  / \                   / \
		Yl   Yr                L   Yl
*/
func (tree *rbTree[K]) leftRotate(x *rbNode[K]) {
	if x.IsNilLeaf() || x.right.IsNilLeaf() {
		// impossible run to here
		panic( /* debug assertion */ "[rbtree] left rotate node x is nil or x.right is nil leaf")
	}

	p, y := x.parent, x.right
	dir := x.Direction()
	x.right, y.left = y.left, x

	x.fixLink()
	y.fixLink()

	switch dir {
	case Root:
		tree.root = y
	case Left:
		p.left = y
	case Right:
		p.right = y
	default:
		// impossible run to here
		panic( /* debug assertion */ "[rbtree] unknown node direction to left-rotate")
	}
	y.parent = p
}

/*
			 |                         |
			 X                         Y
			/ \     rightRotate(X)    / \
	       Y   R    ============>    Yl  X
		  / \                           / \
		Yl   Yr                       Yr   R
*/
func (tree *rbTree[K]) rightRotate(x *rbNode[K]) {
	if x.IsNilLeaf() || x.left.IsNilLeaf() {
		// impossible run to here
		panic( /* debug assertion */ "[rbtree] right rotate node x is nil or x.left is nil leaf")
	}

	p, y := x.parent, x.left
	dir := x.Direction()
	x.left, y.right = y.right, x

	x.fixLink()
	y.fixLink()

	switch dir {
	case Root:
		tree.root = y
	case Left:
		p.left = y
	case Right:
		p.right = y
	default:
		// impossible run to here
		panic( /* debug assertion */ "[rbtree] unknown node direction to right-rotate")
	}
	y.parent = p
}

// Rotate the node x down towards dir.
func (tree *rbTree[K]) rotateTowards(x *rbNode[K], dir RBDirection) {
	switch dir {
	case Left:
		tree.leftRotate(x)
	case Right:
		tree.rightRotate(x)
	default:
		// impossible run to here
		panic( /* debug assertion */ "[rbtree] rotate the root direction")
	}
}

func (tree *rbTree[K]) search(key K) *rbNode[K] {
	for aux := tree.root; !aux.IsNilLeaf(); {
		res := tree.compare(key, aux.key)
		if res == 0 {
			return aux
		} else if res < 0 {
			aux = aux.left
		} else {
			aux = aux.right
		}
	}
	return nil
}

func (tree *rbTree[K]) FindNode(key K) RBNode[K] {
	if x := tree.search(key); x != nil {
		return x
	}
	return nil
}

func (tree *rbTree[K]) Min() RBNode[K] {
	if tree.root == nil {
		return nil
	}
	return tree.root.minimum()
}

func (tree *rbTree[K]) Max() RBNode[K] {
	if tree.root == nil {
		return nil
	}
	return tree.root.maximum()
}

// i1: Empty rbtree, the new node becomes the black root.
func (tree *rbTree[K]) InsertNode(key K) (bool, RBNode[K]) {
	if /* i1 */ tree.root == nil {
		z := &rbNode[K]{
			key:    key,
			color:  Black,
			hasKey: true,
		}
		z.left, z.right = newNilLeaf[K](z), newNilLeaf[K](z)
		tree.root = z
		tree.count++
		return true, z
	}

	var x, y = tree.root, (*rbNode[K])(nil)
	for !x.IsNilLeaf() {
		y = x
		res := tree.compare(key, x.key)
		if /* equal */ res == 0 {
			return false, x
		} else /* less */ if res < 0 {
			x = x.left
		} else /* greater */ {
			x = x.right
		}
	}

	// x is the NIL leaf position owned by y, reuse it as the left leaf.
	z := &rbNode[K]{
		key:    key,
		color:  Red,
		parent: y,
		hasKey: true,
	}
	if x == y.left {
		y.left = z
	} else {
		y.right = z
	}
	z.left, z.right = x, newNilLeaf[K](z)
	x.parent = z

	tree.count++
	tree.insertRebalance(z)
	return true, z
}

/*
New node X is red by default.

<X> is a RED node.
[X] is a BLACK node (or NIL).

Loop while the parent P is red. P is never the root here, because the
root is always black, so the grandpa G exists.

im1 (uncle U is red): repaint P and U into black, G into red.
G may be red-violation with its own parent now. Continue from G.

	    [G]             <G>
	    / \             / \
	  <P> <U>  ====>  [P] [U]
	  /               /
	<X>             <X>

im2 (uncle U is black, X is the inner child): rotate P away from X,
then X and P swap roles and enter im3.

	  [G]                 [G]
	  / \    rotate(P)    / \
	<P> [U]  ========>  <X> [U]
	  \                 /
	  <X>             <P>

im3 (uncle U is black, X is the outer child): repaint P into black,
G into red and rotate G opposite to X. Done.

	    [G]                 [P]
	    / \    rotate(G)    / \
	  <P> [U]  ========>  <X> <G>
	  /                         \
	<X>                         [U]

Finally, the root is painted into black.
*/
func (tree *rbTree[K]) insertRebalance(x *rbNode[K]) {
	for !x.isRoot() && x.parent.isRed() {
		p := x.parent
		g := p.parent
		if /* im1 */ u := p.sibling(); u.isRed() {
			p.color = Black
			u.color = Black
			g.color = Red
			x = g
			continue
		}

		if /* im2 */ dir := x.Direction(); dir != p.Direction() {
			tree.rotateTowards(p, p.Direction())
			x, p = p, x
		}

		/* im3 */
		p.color = Black
		g.color = Red
		tree.rotateTowards(g, -p.Direction())
		break
	}
	tree.root.color = Black
}

/*
r1: The node Z has two keyed children. Copy the key of its succ S
(leftmost node of the right subtree) into Z, then remove S instead.
S has no keyed left child.

	  |                    |
	  Z                    S
	 / \                  / \
	L  ..   copy(S, Z)   L  ..
		|   =========>       |
		P                    P
	   / \                  / \
	  S  ..               [S] ..  <- spliced out

r2: The spliced node Y has at most one keyed child C (C may be a NIL
leaf). C takes Y's position.
(1) Y is red, nothing else to do.
(2) Y is black and C is red, paint C into black.
(3) Y is black and C is black, the path through C lacks one black
node. Rebalance from C.
*/
func (tree *rbTree[K]) removeNode(z *rbNode[K]) {
	y := z
	if /* r1 */ !z.left.IsNilLeaf() && !z.right.IsNilLeaf() {
		y = z.succ()
		z.key = y.key
	}

	c := y.right
	if !y.left.IsNilLeaf() {
		c = y.left
	}

	/* r2 */
	switch dir := y.Direction(); dir {
	case Root:
		tree.root = c
	case Left:
		y.parent.left = c
	case Right:
		y.parent.right = c
	default:
	}
	c.parent = y.parent

	if y.isBlack() {
		tree.removeRebalance(c)
	}

	if tree.root.IsNilLeaf() {
		tree.root = nil
	}

	// Unlink the spliced node.
	y.parent, y.left, y.right = nil, nil, nil
	y.hasKey = false
}

/*
<X> is a RED node.
[X] is a BLACK node (or NIL).
{X} is either a RED node or a BLACK node.

X carries the black deficiency. Sn is the near nephew (same side as X),
Sf is the far nephew. Loop while X is black and not the root.

rm1: Sibling S is red, so P, Sn and Sf are black.
Repaint S into black, P into red and rotate P towards X.
X gets a black sibling, continue with rm2-rm4.

	  [P]                   <S>               [S]
	  / \    l-rotate(P)    / \    repaint    / \
	[X] <S>  ==========>  [P] [Sf] ======>  <P> [Sf]
	    / \               / \               / \
	 [Sn] [Sf]          [X] [Sn]          [X] [Sn]

rm2: Sibling S is black and both nephews are black.
Repaint S into red. P carries the deficiency now.
If P is red, the loop exits and P is painted into black.

	  {P}             {P}
	  / \             / \
	[X] [S]  ====>  [X] <S>
	    / \             / \
	 [Sn] [Sf]       [Sn] [Sf]

rm3: Sibling S is black, Sn is red and Sf is black.
Repaint Sn into black, S into red and rotate S away from X.
Enter rm4.

	                        {P}
	  {P}                   / \
	  / \    r-rotate(S)  [X] [Sn]
	[X] [S]  ==========>        \
	    / \                     <S>
	  <Sn> [Sf]                   \
	                              [Sf]

rm4: Sibling S is black and Sf is red.
S takes P's color, repaint P and Sf into black, rotate P towards X.
Done.

	  {P}                   {S}
	  / \    l-rotate(P)    / \
	[X] [S]  ==========>  [P] [Sf]
	    / \               / \
	  {Sn} <Sf>         [X] {Sn}
*/
func (tree *rbTree[K]) removeRebalance(x *rbNode[K]) {
	for !x.isRoot() && x.isBlack() {
		dir := x.Direction()
		s := x.sibling()
		if /* rm1 */ s.isRed() {
			s.color = Black
			x.parent.color = Red
			tree.rotateTowards(x.parent, dir)
			s = x.sibling()
		}

		sn, sf := x.nephews()
		if /* rm2 */ sn.isBlack() && sf.isBlack() {
			s.color = Red
			x = x.parent
			continue
		}

		if /* rm3 */ sf.isBlack() {
			sn.color = Black
			s.color = Red
			tree.rotateTowards(s, -dir)
			s = x.sibling()
			_, sf = x.nephews()
		}

		/* rm4 */
		s.color = x.parent.color
		x.parent.color = Black
		sf.color = Black
		tree.rotateTowards(x.parent, dir)
		x = tree.root
		break
	}

	if !x.IsNilLeaf() {
		x.color = Black
	}
}

func (tree *rbTree[K]) DeleteNode(key K) bool {
	z := tree.search(key)
	if z == nil {
		return false
	}
	tree.removeNode(z)
	tree.count--
	return true
}

// BFS traversal. Keyed nodes go to nodes, NIL leaves go to leaves.
func (tree *rbTree[K]) bfs(nodes, leaves *[]RBNode[K]) {
	if tree.root == nil {
		return
	}

	queue := make([]*rbNode[K], 0, tree.count+1)
	defer func() {
		clear(queue)
	}()
	queue = append(queue, tree.root)
	for len(queue) > 0 {
		aux := queue[0]
		queue = queue[1:]
		if aux.IsNilLeaf() {
			if leaves != nil {
				*leaves = append(*leaves, aux)
			}
			continue
		}
		if nodes != nil {
			*nodes = append(*nodes, aux)
		}
		queue = append(queue, aux.left, aux.right)
	}
}

func (tree *rbTree[K]) GetAllNodes() []RBNode[K] {
	nodes := make([]RBNode[K], 0, tree.count)
	tree.bfs(&nodes, nil)
	return nodes
}

// A tree with n keyed nodes always owns n+1 NIL leaves.
func (tree *rbTree[K]) GetLeafNodes() []RBNode[K] {
	leaves := make([]RBNode[K], 0, tree.count+1)
	tree.bfs(nil, &leaves)
	return leaves
}

// Inorder traversal to implement the DFS.
func (tree *rbTree[K]) Foreach(action func(idx int64, color RBColor, key K) bool) {
	aux := tree.root
	if aux == nil {
		return
	}

	stack := make([]*rbNode[K], 0, tree.count>>1)
	defer func() {
		clear(stack)
	}()

	for ; !aux.IsNilLeaf(); aux = aux.left {
		stack = append(stack, aux)
	}

	idx := int64(0)
	for size := len(stack); size > 0; size = len(stack) {
		if aux = stack[size-1]; !action(idx, aux.color, aux.key) {
			return
		}
		idx++
		stack = stack[:size-1]
		for aux = aux.right; !aux.IsNilLeaf(); aux = aux.left {
			stack = append(stack, aux)
		}
	}
}

// Release unlinks every node so that stale RBNode references
// become detached NIL leaves.
func (tree *rbTree[K]) Release() {
	aux := tree.root
	tree.root = nil
	tree.count = 0
	if aux == nil {
		return
	}

	stack := []*rbNode[K]{aux}
	defer func() {
		clear(stack)
	}()
	for size := len(stack); size > 0; size = len(stack) {
		aux = stack[size-1]
		stack = stack[:size-1]
		if aux.left != nil {
			stack = append(stack, aux.left)
		}
		if aux.right != nil {
			stack = append(stack, aux.right)
		}
		aux.parent, aux.left, aux.right = nil, nil, nil
		aux.hasKey = false
	}
}

func NewRBTree[K infra.Integer]() RBTree[K] {
	return &rbTree[K]{
		count:   0,
		compare: infra.CompareInteger[K],
	}
}
