package dom

// Point addresses a position inside the document: a byte offset within a
// text node, or a child index within a container node.
type Point struct {
	Node   *Node
	Offset int
}

// IsZero is true for the unset point.
func (p Point) IsZero() bool { return p.Node == nil }

// Selection is a directed range between two points. Anchor is where the
// selection started, Focus where it ends (the caret side).
type Selection struct {
	Anchor Point
	Focus  Point
}

// Caret builds a collapsed selection at p.
func Caret(p Point) Selection {
	return Selection{Anchor: p, Focus: p}
}

// Collapsed is true when anchor and focus coincide.
func (s Selection) Collapsed() bool {
	return s.Anchor.Node == s.Focus.Node && s.Anchor.Offset == s.Focus.Offset
}

// IsZero is true for the unset selection.
func (s Selection) IsZero() bool {
	return s.Anchor.IsZero() && s.Focus.IsZero()
}

// path returns the child-index path from the root down to n.
func path(n *Node) []int {
	var p []int
	for n.parent != nil {
		p = append(p, n.parent.childIndex(n))
		n = n.parent
	}
	for i, j := 0, len(p)-1; i < j; i, j = i+1, j-1 {
		p[i], p[j] = p[j], p[i]
	}
	return p
}

// comparePoints orders two points in document order: -1 when a precedes b,
// 0 when equal, +1 when a follows b.
func comparePoints(a, b Point) int {
	if a.Node == b.Node {
		switch {
		case a.Offset < b.Offset:
			return -1
		case a.Offset > b.Offset:
			return 1
		}
		return 0
	}
	pa, pb := path(a.Node), path(b.Node)
	for i := 0; i < len(pa) && i < len(pb); i++ {
		if pa[i] != pb[i] {
			if pa[i] < pb[i] {
				return -1
			}
			return 1
		}
	}
	// one node is an ancestor of the other: compare the ancestor's offset
	// (a child index) with the descendant's branch index
	if len(pa) < len(pb) {
		if a.Offset <= pb[len(pa)] {
			return -1
		}
		return 1
	}
	if b.Offset <= pa[len(pb)] {
		return 1
	}
	return -1
}

func (d *Document) validatePoint(p Point) {
	d.owned(p.Node)
	switch {
	case p.Node.IsText():
		if p.Offset < 0 || p.Offset > len(p.Node.text) {
			panic("dom: selection offset out of text range")
		}
	case p.Node.IsContainer():
		if p.Offset < 0 || p.Offset > p.Node.ChildCount() {
			panic("dom: selection offset out of child range")
		}
	default:
		panic("dom: selection cannot address " + p.Node.kind.String())
	}
}

// SetSelection replaces the current selection and resets any pending typing
// formats.
func (d *Document) SetSelection(sel Selection) {
	d.requireTx()
	d.validatePoint(sel.Anchor)
	if sel.Focus.Node != sel.Anchor.Node || sel.Focus.Offset != sel.Anchor.Offset {
		d.validatePoint(sel.Focus)
	}
	d.sel = sel
	d.hasPending = false
}

// SetCaret collapses the selection onto p.
func (d *Document) SetCaret(p Point) {
	d.SetSelection(Caret(p))
}

// moveCaret repositions the caret without resetting pending typing formats.
func (d *Document) moveCaret(p Point) {
	d.sel = Caret(p)
}

// --- Formatting --------------------------------------------------------

// nextNode is the depth-first successor of n within the whole tree.
func nextNode(n *Node) *Node {
	if len(n.children) > 0 {
		return n.children[0]
	}
	for n != nil {
		if sib := n.NextSibling(); sib != nil {
			return sib
		}
		n = n.parent
	}
	return nil
}

// ApplyFormats turns the given formats on over every text node covered by
// sel, splitting partially covered boundary nodes. Formats already active
// stay active (set semantics, no double-toggle). Both selection ends must be
// text points. The returned selection covers exactly the formatted range.
// A collapsed selection is left alone; caret-level toggling goes through
// ToggleTypingFormats.
func (d *Document) ApplyFormats(sel Selection, fs FormatSet) Selection {
	d.requireTx()
	if sel.Collapsed() || sel.Anchor.IsZero() || sel.Focus.IsZero() {
		return sel
	}
	start, end := sel.Anchor, sel.Focus
	if comparePoints(start, end) > 0 {
		start, end = end, start
	}
	if !start.Node.IsText() || !end.Node.IsText() {
		panic("dom: ApplyFormats requires text points")
	}
	if start.Node == end.Node {
		d.SplitText(start.Node, end.Offset)
		segs := d.SplitText(start.Node, start.Offset)
		target := segs[len(segs)-1]
		d.SetFormats(target, target.formats.With(fs))
		return Selection{
			Anchor: Point{Node: target, Offset: 0},
			Focus:  Point{Node: target, Offset: len(target.text)},
		}
	}
	d.SplitText(end.Node, end.Offset) // end.Node keeps the covered prefix
	last := end.Node
	includeLast := end.Offset > 0
	segs := d.SplitText(start.Node, start.Offset)
	first := segs[len(segs)-1]
	// a range starting past the node's last byte covers nothing of it
	skipFirst := first == start.Node && len(start.Node.text) > 0 &&
		start.Offset >= len(start.Node.text)
	var firstFmt, lastFmt *Node
	for n := first; n != nil; n = nextNode(n) {
		if n == last && !includeLast {
			break
		}
		if n.IsText() && !(skipFirst && n == first) {
			d.SetFormats(n, n.formats.With(fs))
			if firstFmt == nil {
				firstFmt = n
			}
			lastFmt = n
		}
		if n == last {
			break
		}
	}
	if firstFmt == nil {
		return sel
	}
	return Selection{
		Anchor: Point{Node: firstFmt, Offset: 0},
		Focus:  Point{Node: lastFmt, Offset: len(lastFmt.text)},
	}
}

// TypingFormats returns the format set a character typed at the collapsed
// caret would receive: the pending override if one is active, otherwise the
// formats of the text node under the caret.
func (d *Document) TypingFormats() FormatSet {
	if d.hasPending {
		return d.pending
	}
	if p := d.sel.Focus; !p.IsZero() && p.Node.IsText() {
		return p.Node.formats
	}
	return 0
}

// ToggleTypingFormats flips the given formats in the typing format set.
// The override stays active until the selection is explicitly moved.
func (d *Document) ToggleTypingFormats(fs FormatSet) {
	d.requireTx()
	d.pending = d.TypingFormats() ^ fs
	d.hasPending = true
}

// InsertText inserts s at the collapsed caret, honoring the typing formats:
// it extends the caret's text node when the formats agree, otherwise it
// starts a new text run. The caret ends up after the inserted text.
func (d *Document) InsertText(s string) {
	d.requireTx()
	if s == "" {
		return
	}
	sel := d.sel
	if sel.Focus.IsZero() || !sel.Collapsed() {
		panic("dom: InsertText requires a collapsed caret")
	}
	p := sel.Focus
	tf := d.TypingFormats()
	if p.Node.IsText() {
		n := p.Node
		if tf == n.formats {
			d.InsertTextAt(n, p.Offset, s)
			d.moveCaret(Point{Node: n, Offset: p.Offset + len(s)})
			return
		}
		run := d.NewText(s)
		run.formats = tf
		switch {
		case p.Offset == 0:
			d.InsertBefore(n, run)
		case p.Offset == len(n.text):
			d.InsertAfter(n, run)
		default:
			segs := d.SplitText(n, p.Offset)
			d.InsertAfter(segs[0], run)
		}
		d.moveCaret(Point{Node: run, Offset: len(s)})
		return
	}
	if !p.Node.IsContainer() {
		panic("dom: caret can not address " + p.Node.kind.String())
	}
	run := d.NewText(s)
	run.formats = tf
	parent := p.Node
	switch {
	case parent.ChildCount() == 0:
		d.AppendChild(parent, run)
	case p.Offset <= 0:
		d.InsertBefore(parent.FirstChild(), run)
	case p.Offset >= parent.ChildCount():
		d.AppendChild(parent, run)
	default:
		d.InsertAfter(parent.Child(p.Offset-1), run)
	}
	d.moveCaret(Point{Node: run, Offset: len(s)})
}
