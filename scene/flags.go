package scene

// Flags is a per-node bitset of state and invalidation markers.
//
// Invalidation flags follow two propagation disciplines:
//   - FlagInvalidMatrix, FlagInvalidInverse and FlagInvalidColorMatrix
//     propagate downward to every descendant and are cleared only by
//     the recomputation step that refreshes the cached value.
//   - FlagPaintDirty and FlagInvalidBounds propagate upward through
//     the parent chain and are cleared by the consumer that acts on
//     them (the render pass, or a bounds query).
type Flags uint32

const (
	// FlagVisible marks the node (and, transitively, its subtree) as
	// renderable. Cleared nodes are skipped by traversal.
	FlagVisible Flags = 1 << iota

	// FlagTransparent marks the node as fully transparent this frame.
	FlagTransparent

	// FlagEmpty marks the node as having no content of its own.
	FlagEmpty

	// FlagPaintDirty marks the node's subtree as needing repaint.
	FlagPaintDirty

	// FlagInvalidMatrix marks the cached concatenated matrix as stale.
	FlagInvalidMatrix

	// FlagInvalidInverse marks the cached inverted concatenated matrix
	// as stale. Tracked separately so hit-test-free paths never pay
	// for the inversion.
	FlagInvalidInverse

	// FlagInvalidColorMatrix marks the cached concatenated color
	// matrix as stale.
	FlagInvalidColorMatrix

	// FlagInvalidBounds marks cached bounds along the parent chain as
	// stale.
	FlagInvalidBounds

	// FlagIsMask marks a node currently assigned as another node's
	// mask. Masks are not painted in the ordinary pass.
	FlagIsMask

	// FlagEnterClip is attached by traversal to the entry of a node
	// whose shape clips following siblings.
	FlagEnterClip

	// FlagLeaveClip is attached by traversal to the synthetic entry
	// emitted when a clip bracket closes.
	FlagLeaveClip
)

// invalidAll is the derived-state invalidation set a freshly created
// node starts with.
const invalidAll = FlagInvalidMatrix | FlagInvalidInverse |
	FlagInvalidColorMatrix | FlagInvalidBounds | FlagPaintDirty

// traversalOnly are flags synthesized during a walk; they are never
// inherited by children.
const traversalOnly = FlagEnterClip | FlagLeaveClip

// Has returns true if all bits of q are set.
func (f Flags) Has(q Flags) bool { return f&q == q }

// Caps is a per-node capability bitset describing which properties
// outside code is allowed to mutate. Mutators check the relevant bit
// first; a violation is a programmer-error fault (panic under the
// stagedebug build tag, a logged no-op otherwise).
type Caps uint16

const (
	// CapTransform allows changing position and the local matrix.
	CapTransform Caps = 1 << iota

	// CapColor allows changing the local color matrix.
	CapColor

	// CapBlend allows changing the blend mode.
	CapBlend

	// CapFilters allows changing the filter list.
	CapFilters

	// CapMask allows assigning or clearing a mask.
	CapMask

	// CapClip allows changing the clip count.
	CapClip

	// CapState allows toggling visibility state flags and attaching
	// content.
	CapState

	// CapChildren allows child list mutation and re-parenting.
	CapChildren
)

// CapAll grants every capability. New nodes start fully mutable.
const CapAll = CapTransform | CapColor | CapBlend | CapFilters |
	CapMask | CapClip | CapState | CapChildren
