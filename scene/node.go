package scene

import (
	"fmt"
	"sync/atomic"

	"github.com/gogpu/stage"
	"github.com/gogpu/stage/internal/debug"
)

// Kind is the closed set of node variants. Traversal and bounds
// dispatch on the node's children capability, never on Go type
// identity; Kind only distinguishes the stage root from ordinary
// containers.
type Kind uint8

const (
	// KindLeaf is a node without children; its content, if any, comes
	// from an attached stage.Source.
	KindLeaf Kind = iota

	// KindContainer owns an ordered list of children.
	KindContainer

	// KindStage is the root-level container of a scene tree.
	KindStage
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "Leaf"
	case KindContainer:
		return "Container"
	case KindStage:
		return "Stage"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(k))
	}
}

// Filter is an opaque post-processing effect attached to a node. The
// scene stores filters and invalidates paint state when they change;
// applying them is the render backend's concern.
type Filter interface {
	// FilterName identifies the effect for diagnostics.
	FilterName() string
}

// lastID assigns node identities. IDs increase monotonically and are
// never reused.
var lastID atomic.Uint64

// Node is a scene-graph node: a local transform, a local color
// transform, optional content, an optional mask reference, and the
// cached concatenated state derived from its ancestors.
//
// Nodes are created with all derived state invalid and are never
// explicitly destroyed; a node unreferenced by any tree is collected
// normally.
type Node struct {
	id   uint64
	kind Kind

	parent   *Node
	children []*Node // non-nil only while kind is a container kind

	local      stage.Matrix
	localColor stage.ColorMatrix
	blend      stage.BlendMode
	filters    []Filter

	// mask is a non-owning reference; the masked node does not own its
	// mask and a mask may live anywhere in (or outside) the tree.
	mask *Node

	// clipCount is the number of following siblings, in paint order,
	// clipped by this node's shape. -1 means the node is not a clip.
	clipCount int

	caps  Caps
	flags Flags

	concat      stage.Matrix
	invConcat   stage.Matrix
	concatColor stage.ColorMatrix

	// renderedBounds is the axis-aligned box this node last rendered
	// into, in stage space. Used for dirty-region tracking.
	renderedBounds stage.Rect

	source stage.Source

	// props is a lazily created string-keyed side channel for host
	// code. The core never reads it.
	props map[string]any
}

func newNode(kind Kind) *Node {
	n := &Node{
		id:          lastID.Add(1),
		kind:        kind,
		local:       stage.Identity(),
		localColor:  stage.IdentityColorMatrix(),
		clipCount:   -1,
		caps:        CapAll,
		flags:       FlagVisible | invalidAll,
		concat:      stage.Identity(),
		invConcat:   stage.Identity(),
		concatColor: stage.IdentityColorMatrix(),
	}
	if kind != KindLeaf {
		n.children = make([]*Node, 0, 4)
	}
	return n
}

// New creates a leaf node.
func New() *Node { return newNode(KindLeaf) }

// NewContainer creates a container node with an empty child list.
func NewContainer() *Node { return newNode(KindContainer) }

// NewStage creates a stage-root container node.
func NewStage() *Node { return newNode(KindStage) }

// fault reports a programmer error. Under the stagedebug build tag it
// panics; otherwise it logs a warning and the caller continues as a
// no-op.
func fault(msg string, args ...any) {
	if debug.Enabled {
		panic("scene: " + msg + " " + fmt.Sprint(args...))
	}
	stage.Logger().Warn("scene: "+msg, args...)
}

// allow checks a capability before a mutation. Returns false (after
// reporting a fault) if the capability is missing.
func (n *Node) allow(c Caps, op string) bool {
	if n.caps&c == c {
		return true
	}
	fault("capability violation", "op", op, "node", n.id)
	return false
}

// ID returns the node's identity. IDs increase monotonically with
// creation order and are never reused.
func (n *Node) ID() uint64 { return n.id }

// Kind returns the node's variant.
func (n *Node) Kind() Kind { return n.kind }

// HasChildren reports whether the node is a container kind. Traversal
// dispatches on this, not on Kind directly.
func (n *Node) HasChildren() bool { return n.children != nil }

// Parent returns the node's parent, or nil for a root.
func (n *Node) Parent() *Node { return n.parent }

// Flags returns the node's current flag set.
func (n *Node) Flags() Flags { return n.flags }

// SetFlags sets the given state flags. Intended for FlagVisible,
// FlagTransparent and FlagEmpty; invalidation flags are managed by the
// propagation machinery.
func (n *Node) SetFlags(f Flags) {
	if !n.allow(CapState, "SetFlags") {
		return
	}
	n.flags |= f
}

// ClearFlags clears the given state flags.
func (n *Node) ClearFlags(f Flags) {
	if !n.allow(CapState, "ClearFlags") {
		return
	}
	n.flags &^= f
}

// Visible reports whether the node is renderable.
func (n *Node) Visible() bool { return n.flags&FlagVisible != 0 }

// SetVisible toggles the node's visibility and marks paint state
// dirty.
func (n *Node) SetVisible(v bool) {
	if !n.allow(CapState, "SetVisible") {
		return
	}
	if v == (n.flags&FlagVisible != 0) {
		return
	}
	if v {
		n.flags |= FlagVisible
	} else {
		n.flags &^= FlagVisible
	}
	n.propagateUp(FlagPaintDirty)
}

// Caps returns the node's capability mask.
func (n *Node) Caps() Caps { return n.caps }

// SetCaps replaces the node's capability mask. There is deliberately
// no capability guarding this: locking down a subtree must remain
// possible on already-locked nodes' owners.
func (n *Node) SetCaps(c Caps) { n.caps = c }

// PropagateCapsUp applies the capability mask to every strict ancestor
// up to the root.
func (n *Node) PropagateCapsUp(c Caps) {
	for p := n.parent; p != nil; p = p.parent {
		p.caps = c
	}
}

// PropagateCapsDown applies the capability mask to the node and every
// descendant. Uses an explicit worklist so arbitrarily deep trees
// cannot exhaust the call stack.
func (n *Node) PropagateCapsDown(c Caps) {
	stack := []*Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		cur.caps = c
		stack = append(stack, cur.children...)
	}
}

// ---------------------------------------------------------------------
// Local properties
// ---------------------------------------------------------------------

// LocalTransform returns the node's local matrix.
func (n *Node) LocalTransform() stage.Matrix { return n.local }

// SetLocalTransform replaces the node's local matrix and invalidates
// derived transforms for the whole subtree.
func (n *Node) SetLocalTransform(m stage.Matrix) {
	if !n.allow(CapTransform, "SetLocalTransform") {
		return
	}
	n.local = m
	n.invalidateTransform()
}

// Position returns the translation components of the local matrix.
func (n *Node) Position() stage.Point {
	return stage.Point{X: n.local.C, Y: n.local.F}
}

// SetPosition replaces only the translation components of the local
// matrix.
func (n *Node) SetPosition(p stage.Point) {
	if !n.allow(CapTransform, "SetPosition") {
		return
	}
	n.local.C = p.X
	n.local.F = p.Y
	n.invalidateTransform()
}

// ColorMatrix returns the node's local color transform.
func (n *Node) ColorMatrix() stage.ColorMatrix { return n.localColor }

// SetColorMatrix replaces the node's local color transform and
// invalidates concatenated color state for the subtree.
func (n *Node) SetColorMatrix(m stage.ColorMatrix) {
	if !n.allow(CapColor, "SetColorMatrix") {
		return
	}
	n.localColor = m
	n.propagateDown(FlagInvalidColorMatrix)
	n.propagateUp(FlagPaintDirty)
}

// Alpha returns the node's local alpha multiplier.
func (n *Node) Alpha() float32 { return n.localColor.Alpha }

// SetAlpha replaces the node's local alpha multiplier.
func (n *Node) SetAlpha(a float32) {
	if !n.allow(CapColor, "SetAlpha") {
		return
	}
	n.localColor.Alpha = a
	n.propagateDown(FlagInvalidColorMatrix)
	n.propagateUp(FlagPaintDirty)
}

// BlendMode returns the node's blend mode.
func (n *Node) BlendMode() stage.BlendMode { return n.blend }

// SetBlendMode replaces the node's blend mode.
func (n *Node) SetBlendMode(b stage.BlendMode) {
	if !n.allow(CapBlend, "SetBlendMode") {
		return
	}
	n.blend = b
	n.propagateUp(FlagPaintDirty)
}

// Filters returns the node's filter list. The returned slice is owned
// by the node.
func (n *Node) Filters() []Filter { return n.filters }

// SetFilters replaces the node's filter list.
func (n *Node) SetFilters(f []Filter) {
	if !n.allow(CapFilters, "SetFilters") {
		return
	}
	n.filters = f
	n.propagateUp(FlagPaintDirty)
}

// Mask returns the node's mask, or nil.
func (n *Node) Mask() *Node { return n.mask }

// SetMask assigns a mask to the node. The previous mask, if any, loses
// its is-mask marker; the new mask gains it and is marked dirty, as is
// the node itself. Pass nil to clear.
func (n *Node) SetMask(m *Node) {
	if !n.allow(CapMask, "SetMask") {
		return
	}
	if n.mask != nil {
		n.mask.flags &^= FlagIsMask
	}
	n.mask = m
	if m != nil {
		m.flags |= FlagIsMask
		m.propagateUp(FlagPaintDirty)
	}
	n.propagateUp(FlagPaintDirty)
}

// ClipCount returns the number of following siblings clipped by this
// node's shape, or -1 if the node is not a clip.
func (n *Node) ClipCount() int { return n.clipCount }

// SetClipCount makes the node clip the next count siblings in paint
// order. Pass -1 to stop clipping.
func (n *Node) SetClipCount(count int) {
	if !n.allow(CapClip, "SetClipCount") {
		return
	}
	if count < -1 {
		count = -1
	}
	n.clipCount = count
	n.propagateUp(FlagPaintDirty)
}

// Source returns the node's content source, or nil.
func (n *Node) Source() stage.Source { return n.source }

// SetSource attaches content to the node. Leaf bounds come from the
// source.
func (n *Node) SetSource(s stage.Source) {
	if !n.allow(CapState, "SetSource") {
		return
	}
	n.source = s
	if s == nil {
		n.flags |= FlagEmpty
	} else {
		n.flags &^= FlagEmpty
	}
	n.propagateUp(FlagInvalidBounds | FlagPaintDirty)
}

// SetProp stores a value in the node's side-channel property bag. The
// bag is created on first use.
func (n *Node) SetProp(key string, v any) {
	if n.props == nil {
		n.props = make(map[string]any)
	}
	n.props[key] = v
}

// Prop retrieves a value from the property bag.
func (n *Node) Prop(key string) (any, bool) {
	v, ok := n.props[key]
	return v, ok
}

// RenderedBounds returns the stage-space box the node last rendered
// into.
func (n *Node) RenderedBounds() stage.Rect { return n.renderedBounds }

// SetRenderedBounds records the stage-space box the node rendered
// into. Called by the render pass for dirty-region tracking.
func (n *Node) SetRenderedBounds(r stage.Rect) { n.renderedBounds = r }

// ---------------------------------------------------------------------
// Invalidation propagation
// ---------------------------------------------------------------------

// invalidateTransform is the propagation for a local transform change:
// concatenated matrix and inverse become stale for the whole subtree,
// bounds become stale upward, and paint state is dirtied up to the
// root.
func (n *Node) invalidateTransform() {
	n.propagateDown(FlagInvalidMatrix | FlagInvalidInverse)
	n.propagateUp(FlagInvalidBounds | FlagPaintDirty)
}

// propagateUp sets flags on the node and every ancestor. The walk
// stops early when a node already carries the full set: the invariant
// that a set flag implies the flag is set on all ancestors makes the
// remainder redundant.
func (n *Node) propagateUp(f Flags) {
	for p := n; p != nil; p = p.parent {
		if p.flags&f == f {
			return
		}
		p.flags |= f
	}
}

// propagateDown sets flags on the node and every descendant using an
// explicit worklist; recursion depth is independent of tree depth.
func (n *Node) propagateDown(f Flags) {
	stack := []*Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		cur.flags |= f
		stack = append(stack, cur.children...)
	}
}

// ---------------------------------------------------------------------
// Derived state
// ---------------------------------------------------------------------

// ConcatenatedMatrix returns the node's transform composed with every
// ancestor transform up to the root, recomputing stale caches on the
// way.
//
// The recomputation walks upward to the closest ancestor whose cache
// is valid, then replays the invalid path root-downward, multiplying
// each local matrix into the accumulated ancestor matrix and clearing
// the invalid flag as it writes each cache. A point in child space
// maps to parent space via the child's local transform first, then the
// parent's accumulated transform.
func (n *Node) ConcatenatedMatrix() stage.Matrix {
	if n.flags&FlagInvalidMatrix == 0 {
		return n.concat
	}

	var path []*Node
	cur := n
	for cur != nil && cur.flags&FlagInvalidMatrix != 0 {
		path = append(path, cur)
		cur = cur.parent
	}

	acc := stage.Identity()
	if cur != nil {
		acc = cur.concat
	}
	for i := len(path) - 1; i >= 0; i-- {
		nd := path[i]
		acc = acc.Multiply(nd.local)
		nd.concat = acc
		nd.flags &^= FlagInvalidMatrix
	}

	if debug.Enabled && path[0] != n {
		panic("scene: concatenation walk did not terminate at the queried node")
	}
	return n.concat
}

// InvertedConcatenatedMatrix returns the inverse of the concatenated
// matrix, computed on demand and cached under its own flag so that
// paths never needing hit testing avoid the inversion cost.
func (n *Node) InvertedConcatenatedMatrix() stage.Matrix {
	if n.flags&FlagInvalidInverse != 0 {
		n.invConcat = n.ConcatenatedMatrix().Invert()
		n.flags &^= FlagInvalidInverse
	}
	return n.invConcat
}

// ConcatenatedColorMatrix returns the node's color transform composed
// with every ancestor color transform, using the same
// closest-valid-ancestor replay as ConcatenatedMatrix.
//
// The combination does not premultiply channel scales by the alpha
// multiplier; the multiplier is composed separately. See
// stage.ColorMatrix.
func (n *Node) ConcatenatedColorMatrix() stage.ColorMatrix {
	if n.flags&FlagInvalidColorMatrix == 0 {
		return n.concatColor
	}

	var path []*Node
	cur := n
	for cur != nil && cur.flags&FlagInvalidColorMatrix != 0 {
		path = append(path, cur)
		cur = cur.parent
	}

	acc := stage.IdentityColorMatrix()
	if cur != nil {
		acc = cur.concatColor
	}
	for i := len(path) - 1; i >= 0; i-- {
		nd := path[i]
		acc = acc.Multiply(nd.localColor)
		nd.concatColor = acc
		nd.flags &^= FlagInvalidColorMatrix
	}
	return n.concatColor
}

// ConcatenatedAlpha returns the product of alpha multipliers from the
// node up to, but excluding, the given ancestor. A nil bound walks all
// the way to the root inclusive.
func (n *Node) ConcatenatedAlpha(bound *Node) float32 {
	a := float32(1)
	for cur := n; cur != nil && cur != bound; cur = cur.parent {
		a *= cur.localColor.Alpha
	}
	return a
}

// Bounds returns the node's axis-aligned bounds in its own coordinate
// space: the union of the children's transformed bounds for
// containers, the source bounds for content leaves, or an empty
// rectangle.
func (n *Node) Bounds() stage.Rect {
	if n.HasChildren() {
		b := stage.EmptyRect()
		for _, c := range n.children {
			cb := c.Bounds()
			if !cb.IsEmpty() {
				b = b.Union(c.local.TransformRect(cb))
			}
		}
		n.flags &^= FlagInvalidBounds
		return b
	}
	n.flags &^= FlagInvalidBounds
	if n.source != nil {
		return n.source.Bounds()
	}
	return stage.EmptyRect()
}

// Depth returns the number of ancestors between the node and the
// root.
func (n *Node) Depth() int {
	d := 0
	for p := n.parent; p != nil; p = p.parent {
		d++
	}
	return d
}

// Stage returns the tree's root if it is a stage-root node, nil
// otherwise.
func (n *Node) Stage() *Node {
	cur := n
	for cur.parent != nil {
		cur = cur.parent
	}
	if cur.kind == KindStage {
		return cur
	}
	return nil
}

// ---------------------------------------------------------------------
// Hierarchy
// ---------------------------------------------------------------------

// NumChildren returns the number of children. Zero for leaves.
func (n *Node) NumChildren() int { return len(n.children) }

// ChildAt returns the child at index i, or nil if out of range.
func (n *Node) ChildAt(i int) *Node {
	if i < 0 || i >= len(n.children) {
		return nil
	}
	return n.children[i]
}

// Index returns the node's position in its parent's child list, or -1
// for a root.
func (n *Node) Index() int {
	if n.parent == nil {
		return -1
	}
	for i, c := range n.parent.children {
		if c == n {
			return i
		}
	}
	return -1
}

// AddChild appends a child, removing it from any previous parent.
// Adding an ancestor (or the node itself) is a cycle and faults.
func (n *Node) AddChild(c *Node) {
	n.InsertChild(c, len(n.children))
}

// InsertChild inserts a child at index i in paint order.
func (n *Node) InsertChild(c *Node, i int) {
	if !n.HasChildren() {
		fault("InsertChild on a leaf node", "node", n.id)
		return
	}
	if !n.allow(CapChildren, "InsertChild") {
		return
	}
	if c == nil {
		return
	}
	// A node must never be its own ancestor.
	for a := n; a != nil; a = a.parent {
		if a == c {
			fault("re-parenting would create a cycle", "node", n.id, "child", c.id)
			return
		}
	}
	if c.parent != nil {
		c.parent.RemoveChild(c)
	}
	if i < 0 {
		i = 0
	}
	if i > len(n.children) {
		i = len(n.children)
	}
	n.children = append(n.children, nil)
	copy(n.children[i+1:], n.children[i:])
	n.children[i] = c
	c.parent = n

	// The child's derived state was computed against its old ancestry.
	c.propagateDown(FlagInvalidMatrix | FlagInvalidInverse | FlagInvalidColorMatrix)
	n.propagateUp(FlagInvalidBounds | FlagPaintDirty)
}

// RemoveChild detaches a child. No-op if c is not a child of n.
func (n *Node) RemoveChild(c *Node) {
	if !n.allow(CapChildren, "RemoveChild") {
		return
	}
	for i, cc := range n.children {
		if cc == c {
			copy(n.children[i:], n.children[i+1:])
			n.children[len(n.children)-1] = nil
			n.children = n.children[:len(n.children)-1]
			c.parent = nil
			c.propagateDown(FlagInvalidMatrix | FlagInvalidInverse | FlagInvalidColorMatrix)
			n.propagateUp(FlagInvalidBounds | FlagPaintDirty)
			return
		}
	}
}
