package dom

import (
	"github.com/npillmayer/cords"
)

// Leaf is a fragment of a block's inner text, carrying a back-reference to
// the node the text came from. Text nodes contribute their payload, line
// breaks a single newline. Leaves are the unit of the logical text stream
// the live Markdown detector scans.
type Leaf struct {
	node    *Node
	content string
}

// Node returns the document node this fragment belongs to.
func (l Leaf) Node() *Node { return l.node }

// Weight is part of interface cords.Leaf.
func (l Leaf) Weight() uint64 { return uint64(len(l.content)) }

// String is part of interface cords.Leaf.
func (l Leaf) String() string { return l.content }

// Split is part of interface cords.Leaf.
func (l Leaf) Split(i uint64) (cords.Leaf, cords.Leaf) {
	left := Leaf{node: l.node, content: l.content[:i]}
	right := Leaf{node: l.node, content: l.content[i:]}
	return left, right
}

// Substring is part of interface cords.Leaf.
func (l Leaf) Substring(i, j uint64) []byte {
	return []byte(l.content[i:j])
}

var _ cords.Leaf = Leaf{}

// InnerText flattens a block's inline content into a cord: one leaf per
// non-empty text descendant, descending through inline containers such as
// links, and one newline leaf per hard line break. The cord is a snapshot;
// it does not track later mutations.
func InnerText(block *Node) (cords.Cord, error) {
	if block == nil || !block.IsContainer() {
		return cords.Cord{}, cords.ErrIllegalArguments
	}
	b := cords.NewBuilder()
	collectText(block, b)
	return b.Cord(), nil
}

func collectText(n *Node, b *cords.Builder) {
	switch n.kind {
	case Text:
		if n.text != "" {
			b.Append(Leaf{node: n, content: n.text})
		}
	case LineBreak:
		b.Append(Leaf{node: n, content: "\n"})
	default:
		for _, c := range n.children {
			collectText(c, b)
		}
	}
}

// Leaves lists the fragments of an inner-text cord in document order.
func Leaves(text cords.Cord) []Leaf {
	var ll []Leaf
	text.EachLeaf(func(l cords.Leaf, pos uint64) error {
		if leaf, ok := l.(Leaf); ok {
			ll = append(ll, leaf)
		}
		return nil
	})
	return ll
}

// CaretIndex maps a text point to its index in the flattened stream,
// returning false when the point's node contributes no fragment.
func CaretIndex(leaves []Leaf, p Point) (uint64, bool) {
	var pos uint64
	for _, l := range leaves {
		if l.node == p.Node {
			return pos + uint64(p.Offset), true
		}
		pos += l.Weight()
	}
	return 0, false
}
