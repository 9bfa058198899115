package frontend

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/understory/internal/arena"
)

// nodeRec is one semantic-model node: an interned kind plus a byte span.
// Pointer-free so the table can live in the arena.
type nodeRec struct {
	kind  uint16
	start uint32
	end   uint32
}

// Model is the semantic model for one file: every named syntax node in
// construction order (preorder), with source text attached for lookups.
// The node table is arena-backed and becomes invalid when the owning
// worker resets its arena; a Model must never outlive its file's
// processing.
type Model struct {
	kinds []string // read-only view of the frontend's interner
	nodes []nodeRec
	src   []byte
}

// BuildModel derives the semantic model from a parsed tree, carving the
// node table from a.
func (f *Frontend) BuildModel(a *arena.Arena, t *Tree, src []byte) *Model {
	root := t.tree.RootNode()
	n := countNamed(root)
	nodes := arena.Slice[nodeRec](a, n)

	i := 0
	fillNamed(f, root, nodes, &i)

	return &Model{kinds: f.kinds, nodes: nodes[:i], src: src}
}

func countNamed(n *sitter.Node) int {
	count := 0
	if n.IsNamed() {
		count = 1
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		count += countNamed(n.Child(i))
	}
	return count
}

func fillNamed(f *Frontend, n *sitter.Node, nodes []nodeRec, i *int) {
	if n.IsNamed() {
		nodes[*i] = nodeRec{
			kind:  f.kindID(n.Type()),
			start: n.StartByte(),
			end:   n.EndByte(),
		}
		*i++
	}
	for c := 0; c < int(n.ChildCount()); c++ {
		fillNamed(f, n.Child(c), nodes, i)
	}
}

// Len returns the number of nodes in the model.
func (m *Model) Len() int { return len(m.nodes) }

// Kind returns the kind of node i.
func (m *Model) Kind(i int) string { return m.kinds[m.nodes[i].kind] }

// Span returns the byte span of node i.
func (m *Model) Span(i int) Span {
	return Span{Start: m.nodes[i].start, End: m.nodes[i].end}
}

// Source returns the file's source text.
func (m *Model) Source() []byte { return m.src }

// Text returns the source text covered by s.
func (m *Model) Text(s Span) string {
	if int(s.End) > len(m.src) || s.Start > s.End {
		return ""
	}
	return string(m.src[s.Start:s.End])
}
