package scene

import "github.com/gogpu/stage"

// VisitResult controls traversal after each visited node.
type VisitResult int

const (
	// VisitContinue descends into the node's children, if any.
	VisitContinue VisitResult = iota

	// VisitSkip does not descend but continues with siblings.
	VisitSkip

	// VisitStop terminates the entire traversal immediately.
	VisitStop
)

// WalkFlags selects traversal behavior.
type WalkFlags uint8

const (
	// WalkFrontToBack visits children in reverse paint order (topmost
	// first). The default visits in paint order, back to front.
	WalkFrontToBack WalkFlags = 1 << iota

	// WalkClips brackets clip regions: a node with a non-negative clip
	// count is visited with FlagEnterClip set, and a synthetic entry
	// with FlagLeaveClip is emitted once its clipped siblings have
	// been visited. The traversal root has no siblings to clip and is
	// never bracketed.
	WalkClips
)

// Visitor is called once per traversal entry. xform is the node's
// accumulated transform; it is only computed when a base transform was
// supplied to Walk and is the zero Matrix otherwise. flags is the OR
// of the ancestors' accumulated flags with the node's own, plus any
// traversal-synthesized clip flags.
type Visitor func(n *Node, xform stage.Matrix, flags Flags) VisitResult

// walkEntry is one pending traversal step. Traversal replaces
// recursion with an explicit stack of these so that tree depth never
// translates into call depth.
type walkEntry struct {
	node  *Node
	xform stage.Matrix
	flags Flags
}

// Walk traverses the tree depth-first starting at root.
//
// base, when non-nil, seeds transform accumulation: each entry's xform
// is the base composed with every local matrix on the path from root
// to the node. Pass nil to skip the per-node multiplications when the
// visitor does not need transforms.
func Walk(root *Node, base *stage.Matrix, wf WalkFlags, visit Visitor) {
	if root == nil || visit == nil {
		return
	}
	hasBase := base != nil

	// A clip count covers following siblings; the root has none, so
	// its entry never carries a clip bracket.
	rootEntry := walkEntry{node: root, flags: root.flags}
	if hasBase {
		rootEntry.xform = base.Multiply(root.local)
	}

	stack := make([]walkEntry, 0, 64)
	stack = append(stack, rootEntry)

	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		r := visit(e.node, e.xform, e.flags)
		if r == VisitStop {
			return
		}
		if e.flags&FlagLeaveClip != 0 {
			// Synthetic bracket-closing entry; never descends.
			continue
		}
		if r == VisitSkip || !e.node.HasChildren() || len(e.node.children) == 0 {
			continue
		}
		stack = pushChildren(stack, e, hasBase, wf)
	}
}

// pushChildren appends the container's children (and any synthetic
// clip brackets) to the stack so that they pop in the requested order.
func pushChildren(stack []walkEntry, e walkEntry, hasBase bool, wf WalkFlags) []walkEntry {
	children := e.node.children
	inherited := e.flags &^ traversalOnly

	// Bookkeeping step: find where each clip bracket closes. A clip at
	// index i covering c siblings closes before index i+c+1; brackets
	// running past the last child close after it.
	var leaveAt map[int][]int
	if wf&WalkClips != 0 {
		for i, c := range children {
			if c.clipCount < 0 {
				continue
			}
			end := i + c.clipCount + 1
			if end > len(children) {
				end = len(children)
			}
			if leaveAt == nil {
				leaveAt = make(map[int][]int)
			}
			leaveAt[end] = append(leaveAt[end], i)
		}
	}

	// Build the pop sequence in visitation order, leave brackets ahead
	// of the child entry they precede.
	seq := make([]walkEntry, 0, len(children)+len(leaveAt))
	appendLeaves := func(idx int) {
		for _, ci := range leaveAt[idx] {
			c := children[ci]
			le := walkEntry{node: c, flags: inherited | c.flags | FlagLeaveClip}
			if hasBase {
				le.xform = e.xform.Multiply(c.local)
			}
			seq = append(seq, le)
		}
	}
	for i, c := range children {
		appendLeaves(i)
		ce := walkEntry{node: c, flags: inherited | c.flags}
		if hasBase {
			ce.xform = e.xform.Multiply(c.local)
		}
		if wf&WalkClips != 0 && c.clipCount >= 0 {
			ce.flags |= FlagEnterClip
		}
		seq = append(seq, ce)
	}
	appendLeaves(len(children))

	if wf&WalkFrontToBack != 0 {
		for i, j := 0, len(seq)-1; i < j; i, j = i+1, j-1 {
			seq[i], seq[j] = seq[j], seq[i]
		}
	}

	// Stack pops in reverse push order.
	for i := len(seq) - 1; i >= 0; i-- {
		stack = append(stack, seq[i])
	}
	return stack
}
