package scene

import (
	"testing"

	"github.com/gogpu/stage"
)

type visit struct {
	node  *Node
	enter bool
	leave bool
}

func record(root *Node, base *stage.Matrix, wf WalkFlags) []visit {
	var got []visit
	Walk(root, base, wf, func(n *Node, _ stage.Matrix, flags Flags) VisitResult {
		got = append(got, visit{
			node:  n,
			enter: flags&FlagEnterClip != 0,
			leave: flags&FlagLeaveClip != 0,
		})
		return VisitContinue
	})
	return got
}

func TestWalkPaintOrder(t *testing.T) {
	p := NewContainer()
	a, b, c := New(), New(), New()
	p.AddChild(a)
	p.AddChild(b)
	p.AddChild(c)

	got := record(p, nil, 0)
	want := []*Node{p, a, b, c}
	if len(got) != len(want) {
		t.Fatalf("visited %d nodes, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].node != want[i] {
			t.Errorf("visit %d = node %d, want node %d", i, got[i].node.ID(), want[i].ID())
		}
	}
}

func TestWalkClipOnRootIgnored(t *testing.T) {
	// A clip count covers following siblings; the traversal root has
	// none, so no enter bracket may appear (it would never be closed).
	p := NewContainer()
	p.SetClipCount(3)
	a := New()
	p.AddChild(a)

	got := record(p, nil, WalkClips)
	for _, v := range got {
		if v.enter || v.leave {
			t.Errorf("node %d carries a clip bracket (enter=%v leave=%v)", v.node.ID(), v.enter, v.leave)
		}
	}
}

func TestWalkFrontToBack(t *testing.T) {
	p := NewContainer()
	a, b, c := New(), New(), New()
	p.AddChild(a)
	p.AddChild(b)
	p.AddChild(c)

	got := record(p, nil, WalkFrontToBack)
	want := []*Node{p, c, b, a}
	for i := range want {
		if got[i].node != want[i] {
			t.Errorf("visit %d = node %d, want node %d", i, got[i].node.ID(), want[i].ID())
		}
	}
}

func TestWalkClipBrackets(t *testing.T) {
	// A clip covering two siblings closes after them and before the
	// third.
	p := NewContainer()
	clip := New()
	clip.SetClipCount(2)
	s1, s2, s3 := New(), New(), New()
	p.AddChild(clip)
	p.AddChild(s1)
	p.AddChild(s2)
	p.AddChild(s3)

	got := record(p, nil, WalkClips)
	want := []visit{
		{node: p},
		{node: clip, enter: true},
		{node: s1},
		{node: s2},
		{node: clip, leave: true},
		{node: s3},
	}
	if len(got) != len(want) {
		t.Fatalf("visited %d entries, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].node != want[i].node || got[i].enter != want[i].enter || got[i].leave != want[i].leave {
			t.Errorf("entry %d = {node %d enter %v leave %v}, want {node %d enter %v leave %v}",
				i, got[i].node.ID(), got[i].enter, got[i].leave,
				want[i].node.ID(), want[i].enter, want[i].leave)
		}
	}
}

func TestWalkClipBracketPastEnd(t *testing.T) {
	// A clip count running past the last sibling closes after it.
	p := NewContainer()
	clip := New()
	clip.SetClipCount(10)
	s1 := New()
	p.AddChild(clip)
	p.AddChild(s1)

	got := record(p, nil, WalkClips)
	if len(got) != 4 {
		t.Fatalf("visited %d entries, want 4", len(got))
	}
	last := got[3]
	if last.node != clip || !last.leave {
		t.Errorf("last entry = {node %d leave %v}, want clip leave", last.node.ID(), last.leave)
	}
}

func TestWalkSkipSubtree(t *testing.T) {
	p := NewContainer()
	sub := NewContainer()
	inner := New()
	sub.AddChild(inner)
	after := New()
	p.AddChild(sub)
	p.AddChild(after)

	var got []*Node
	Walk(p, nil, 0, func(n *Node, _ stage.Matrix, _ Flags) VisitResult {
		got = append(got, n)
		if n == sub {
			return VisitSkip
		}
		return VisitContinue
	})

	want := []*Node{p, sub, after}
	if len(got) != len(want) {
		t.Fatalf("visited %d nodes, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("visit %d = node %d, want node %d", i, got[i].ID(), want[i].ID())
		}
	}
}

func TestWalkStop(t *testing.T) {
	p := NewContainer()
	a, b := New(), New()
	p.AddChild(a)
	p.AddChild(b)

	count := 0
	Walk(p, nil, 0, func(n *Node, _ stage.Matrix, _ Flags) VisitResult {
		count++
		if n == a {
			return VisitStop
		}
		return VisitContinue
	})
	if count != 2 {
		t.Errorf("visited %d nodes before stop, want 2", count)
	}
}

func TestWalkAccumulatesTransforms(t *testing.T) {
	p := NewContainer()
	p.SetLocalTransform(stage.Translate(10, 0))
	c := New()
	c.SetLocalTransform(stage.Scale(2, 2))
	p.AddChild(c)

	base := stage.Translate(0, 5)
	var leafXform stage.Matrix
	Walk(p, &base, 0, func(n *Node, xform stage.Matrix, _ Flags) VisitResult {
		if n == c {
			leafXform = xform
		}
		return VisitContinue
	})

	want := base.Multiply(p.LocalTransform()).Multiply(c.LocalTransform())
	if !matrixNear(leafXform, want) {
		t.Errorf("leaf xform = %+v, want %+v", leafXform, want)
	}
}
