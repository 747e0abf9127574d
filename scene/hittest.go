package scene

import "github.com/gogpu/stage"

// HitOptions configures a hit test.
type HitOptions struct {
	// Multiple collects every node under the point instead of only the
	// frontmost one.
	Multiple bool

	// Containers treats container nodes as hit targets themselves
	// instead of descending into their children.
	Containers bool
}

// HitTest returns the nodes whose bounds contain the given stage-space
// point, frontmost first. Invisible subtrees and mask nodes are never
// hit. With Multiple unset the traversal stops at the first (topmost)
// match.
//
// Bounds are tested in each candidate's local space: the query point
// is mapped through the node's cached inverted concatenated matrix.
func HitTest(root *Node, p stage.Point, opts HitOptions) []*Node {
	if root == nil {
		return nil
	}

	var hits []*Node

	test := func(n *Node) bool {
		local := n.InvertedConcatenatedMatrix().TransformPoint(p)
		return n.Bounds().Contains(local)
	}

	if !opts.Multiple {
		// A front-to-back walk lets the first match end the traversal.
		Walk(root, nil, WalkFrontToBack, func(n *Node, _ stage.Matrix, _ Flags) VisitResult {
			if !n.Visible() || n.flags&FlagIsMask != 0 {
				return VisitSkip
			}
			if n.HasChildren() && !opts.Containers {
				return VisitContinue
			}
			if test(n) {
				hits = append(hits, n)
				return VisitStop
			}
			if n.HasChildren() {
				return VisitSkip
			}
			return VisitContinue
		})
		return hits
	}

	// The default back-to-front walk enumerates front objects last;
	// reversing the collected order yields front-to-back hits.
	Walk(root, nil, 0, func(n *Node, _ stage.Matrix, _ Flags) VisitResult {
		if !n.Visible() || n.flags&FlagIsMask != 0 {
			return VisitSkip
		}
		if n.HasChildren() && !opts.Containers {
			return VisitContinue
		}
		if test(n) {
			hits = append(hits, n)
		}
		if n.HasChildren() {
			return VisitSkip
		}
		return VisitContinue
	})
	for i, j := 0, len(hits)-1; i < j; i, j = i+1, j-1 {
		hits[i], hits[j] = hits[j], hits[i]
	}
	return hits
}
