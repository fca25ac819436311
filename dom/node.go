package dom

import (
	"fmt"
	"strings"
)

// NodeID is a stable node identity, unique per document. The zero value
// denotes "no node".
type NodeID uint32

// NodeKind enumerates all node kinds of the document model. The enumeration
// is closed: importers, exporters and resolvers dispatch over it with
// exhaustive switches.
type NodeKind uint8

const (
	Root NodeKind = iota + 1
	Paragraph
	Heading
	Quote
	List
	ListItem
	CodeBlock
	Table
	TableRow
	TableCell
	Divider
	Link
	Text
	LineBreak
)

func (k NodeKind) String() string {
	switch k {
	case Root:
		return "root"
	case Paragraph:
		return "paragraph"
	case Heading:
		return "heading"
	case Quote:
		return "quote"
	case List:
		return "list"
	case ListItem:
		return "list-item"
	case CodeBlock:
		return "code-block"
	case Table:
		return "table"
	case TableRow:
		return "table-row"
	case TableCell:
		return "table-cell"
	case Divider:
		return "divider"
	case Link:
		return "link"
	case Text:
		return "text"
	case LineBreak:
		return "line-break"
	}
	return fmt.Sprintf("NodeKind(%d)", k)
}

// ListKind distinguishes ordered from unordered lists.
type ListKind uint8

const (
	Unordered ListKind = iota
	Ordered
)

func (k ListKind) String() string {
	if k == Ordered {
		return "ordered"
	}
	return "unordered"
}

// --- Character formats -----------------------------------------------------

// Format is a character-level format applicable to text runs.
type Format uint8

const (
	Bold Format = iota
	Italic
	Strikethrough
	Underline
	Code

	formatCount
)

func (f Format) String() string {
	switch f {
	case Bold:
		return "bold"
	case Italic:
		return "italic"
	case Strikethrough:
		return "strikethrough"
	case Underline:
		return "underline"
	case Code:
		return "code"
	}
	return fmt.Sprintf("Format(%d)", f)
}

// FormatSet is a set of character formats, with set semantics: adding a
// format twice is a no-op.
type FormatSet uint8

// Formats builds a set from individual formats.
func Formats(formats ...Format) FormatSet {
	var s FormatSet
	for _, f := range formats {
		s |= 1 << f
	}
	return s
}

// Contains checks f for membership.
func (s FormatSet) Contains(f Format) bool {
	return s&(1<<f) != 0
}

// With returns s plus all members of other.
func (s FormatSet) With(other FormatSet) FormatSet {
	return s | other
}

// Without returns s minus all members of other.
func (s FormatSet) Without(other FormatSet) FormatSet {
	return s &^ other
}

// IsEmpty is true for the empty set.
func (s FormatSet) IsEmpty() bool {
	return s == 0
}

// Count returns the number of members.
func (s FormatSet) Count() int {
	n := 0
	for i := Format(0); i < formatCount; i++ {
		if s.Contains(i) {
			n++
		}
	}
	return n
}

// Each lists the members of s in enumeration order.
func (s FormatSet) Each(f func(Format)) {
	for i := Format(0); i < formatCount; i++ {
		if s.Contains(i) {
			f(i)
		}
	}
}

func (s FormatSet) String() string {
	var parts []string
	s.Each(func(f Format) {
		parts = append(parts, f.String())
	})
	return "{" + strings.Join(parts, ",") + "}"
}

// --- Node ------------------------------------------------------------------

// Node is a node of the document tree. It is a closed tagged variant: the
// kind tag selects which payload fields are meaningful. Element kinds carry
// children; Text carries a payload string plus a format set; LineBreak and
// Divider are childless leaves.
//
// Reading is always allowed; every mutation goes through Document methods
// inside a transaction.
type Node struct {
	id       NodeID
	kind     NodeKind
	doc      *Document
	parent   *Node
	children []*Node

	text    string    // Text
	formats FormatSet // Text

	level  int      // Heading: 1…6
	list   ListKind // List
	start  int      // List: first ordinal of an ordered list
	depth  int      // List: indent depth
	lang   string   // CodeBlock: language tag, possibly empty
	url    string   // Link
	header bool     // TableCell
}

// ID returns the node's stable identity.
func (n *Node) ID() NodeID { return n.id }

// Kind returns the node's kind tag.
func (n *Node) Kind() NodeKind { return n.kind }

// Parent returns the parent node, nil for the root and for detached nodes.
func (n *Node) Parent() *Node { return n.parent }

// ChildCount returns the number of children.
func (n *Node) ChildCount() int { return len(n.children) }

// Child returns child number i, nil if out of range.
func (n *Node) Child(i int) *Node {
	if i < 0 || i >= len(n.children) {
		return nil
	}
	return n.children[i]
}

// Children returns a copy of the child list.
func (n *Node) Children() []*Node {
	if len(n.children) == 0 {
		return nil
	}
	cc := make([]*Node, len(n.children))
	copy(cc, n.children)
	return cc
}

// FirstChild returns the first child, nil if childless.
func (n *Node) FirstChild() *Node { return n.Child(0) }

// LastChild returns the last child, nil if childless.
func (n *Node) LastChild() *Node { return n.Child(len(n.children) - 1) }

// childIndex returns the position of c in n's child list, -1 if absent.
func (n *Node) childIndex(c *Node) int {
	for i, ch := range n.children {
		if ch == c {
			return i
		}
	}
	return -1
}

// PrevSibling returns the sibling before n, nil at the front or detached.
func (n *Node) PrevSibling() *Node {
	if n.parent == nil {
		return nil
	}
	i := n.parent.childIndex(n)
	if i <= 0 {
		return nil
	}
	return n.parent.children[i-1]
}

// NextSibling returns the sibling after n, nil at the end or detached.
func (n *Node) NextSibling() *Node {
	if n.parent == nil {
		return nil
	}
	i := n.parent.childIndex(n)
	if i < 0 || i == len(n.parent.children)-1 {
		return nil
	}
	return n.parent.children[i+1]
}

// Text returns a text node's payload, "" for other kinds.
func (n *Node) Text() string { return n.text }

// Formats returns a text node's active format set.
func (n *Node) Formats() FormatSet { return n.formats }

// Level returns a heading's level (1…6).
func (n *Node) Level() int { return n.level }

// ListType returns a list's kind (ordered or unordered).
func (n *Node) ListType() ListKind { return n.list }

// Start returns an ordered list's first ordinal.
func (n *Node) Start() int { return n.start }

// Depth returns a list's indent depth.
func (n *Node) Depth() int { return n.depth }

// Language returns a code block's language tag, possibly empty.
func (n *Node) Language() string { return n.lang }

// URL returns a link's target.
func (n *Node) URL() string { return n.url }

// Header is true for table cells belonging to a header row.
func (n *Node) Header() bool { return n.header }

// IsText is true for text runs.
func (n *Node) IsText() bool { return n.kind == Text }

// IsInline is true for nodes living inside a block's inline content:
// text runs, line breaks and links.
func (n *Node) IsInline() bool {
	return n.kind == Text || n.kind == LineBreak || n.kind == Link
}

// IsBlock is true for block-level nodes.
func (n *Node) IsBlock() bool {
	switch n.kind {
	case Paragraph, Heading, Quote, List, ListItem, CodeBlock,
		Table, TableRow, TableCell, Divider:
		return true
	}
	return false
}

// IsContainer is true for element nodes that may carry children.
func (n *Node) IsContainer() bool {
	switch n.kind {
	case Text, LineBreak, Divider:
		return false
	}
	return true
}

// InnerText returns the concatenated text content of n's subtree, with a
// newline for every line break.
func (n *Node) InnerText() string {
	var sb strings.Builder
	n.innerText(&sb)
	return sb.String()
}

func (n *Node) innerText(sb *strings.Builder) {
	switch n.kind {
	case Text:
		sb.WriteString(n.text)
	case LineBreak:
		sb.WriteByte('\n')
	default:
		for _, c := range n.children {
			c.innerText(sb)
		}
	}
}

func (n *Node) String() string {
	switch n.kind {
	case Text:
		return fmt.Sprintf("text#%d%s %q", n.id, n.formats, n.text)
	case Heading:
		return fmt.Sprintf("heading#%d(%d)", n.id, n.level)
	case List:
		return fmt.Sprintf("list#%d(%s,depth=%d)", n.id, n.list, n.depth)
	case Link:
		return fmt.Sprintf("link#%d(%s)", n.id, n.url)
	}
	return fmt.Sprintf("%s#%d", n.kind, n.id)
}
