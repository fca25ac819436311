package dom

import (
	"github.com/emirpasic/gods/maps/linkedhashmap"
	"github.com/emirpasic/gods/sets/hashset"
)

// Schema is the set of node kinds a document instance supports. A nil
// schema supports every kind. Restricted schemas are how hosts switch off
// optional constructs (tables, dividers); transformation plugins validate
// against the schema at install time.
type Schema struct {
	kinds map[NodeKind]bool
}

// NewSchema builds a schema from the given kinds. Root, Paragraph, Text and
// LineBreak are always included; a document cannot function without them.
func NewSchema(kinds ...NodeKind) *Schema {
	s := &Schema{kinds: make(map[NodeKind]bool)}
	for _, k := range []NodeKind{Root, Paragraph, Text, LineBreak} {
		s.kinds[k] = true
	}
	for _, k := range kinds {
		s.kinds[k] = true
	}
	return s
}

// Supports checks a kind for membership. A nil schema supports all kinds.
func (s *Schema) Supports(k NodeKind) bool {
	if s == nil {
		return true
	}
	return s.kinds[k]
}

// Origin tags a transaction with the cause of its mutations. Listeners use
// it to distinguish genuine user edits from history replays and from
// transformations which the engine itself produced.
type Origin uint8

const (
	OriginUser Origin = iota
	OriginHistory
	OriginTransform
)

func (o Origin) String() string {
	switch o {
	case OriginUser:
		return "user"
	case OriginHistory:
		return "history"
	case OriginTransform:
		return "transform"
	}
	return "unknown"
}

// Transaction groups mutations. It carries the origin tag and collects the
// identities of all text nodes touched while it is open.
type Transaction struct {
	doc    *Document
	origin Origin
	dirty  *hashset.Set
}

// Origin returns the transaction's origin tag.
func (tx *Transaction) Origin() Origin { return tx.origin }

// Document returns the document the transaction operates on.
func (tx *Transaction) Document() *Document { return tx.doc }

// Update is delivered to listeners after a transaction committed.
type Update struct {
	Doc       *Document
	Origin    Origin
	Selection Selection
	dirty     *hashset.Set
}

// IsDirty checks whether the text node with the given identity was mutated
// by the committed transaction.
func (u Update) IsDirty(id NodeID) bool {
	return u.dirty != nil && u.dirty.Contains(id)
}

// Dirty returns the identities of all mutated text nodes.
func (u Update) Dirty() []NodeID {
	if u.dirty == nil {
		return nil
	}
	vv := u.dirty.Values()
	ids := make([]NodeID, 0, len(vv))
	for _, v := range vv {
		ids = append(ids, v.(NodeID))
	}
	return ids
}

// ListenerID identifies a registered update listener.
type ListenerID int

// Document is a document instance: a tree of nodes, a selection, and the
// transaction machinery tying mutations to update notifications.
type Document struct {
	schema *Schema
	root   *Node
	sel    Selection

	pending    FormatSet // typing formats at a collapsed caret
	hasPending bool

	tx        *Transaction
	listeners *linkedhashmap.Map // ListenerID → func(Update)
	nextLstn  ListenerID
	nextID    NodeID
}

// NewDocument creates a document governed by the given schema (nil for an
// unrestricted one). The fresh document holds a single empty paragraph with
// the caret inside it.
func NewDocument(schema *Schema) *Document {
	d := &Document{
		schema:    schema,
		listeners: linkedhashmap.New(),
	}
	d.root = d.newNode(Root)
	para := d.newNode(Paragraph)
	para.parent = d.root
	d.root.children = append(d.root.children, para)
	d.sel = Caret(Point{Node: para, Offset: 0})
	return d
}

// Schema returns the document's schema (possibly nil).
func (d *Document) Schema() *Schema { return d.schema }

// Root returns the document root.
func (d *Document) Root() *Node { return d.root }

// Selection returns the current selection.
func (d *Document) Selection() Selection { return d.sel }

func (d *Document) newNode(kind NodeKind) *Node {
	if !d.schema.Supports(kind) {
		panic("dom: schema does not support node kind " + kind.String())
	}
	d.nextID++
	return &Node{id: d.nextID, kind: kind, doc: d}
}

// NewParagraph creates a detached paragraph node.
func (d *Document) NewParagraph() *Node { return d.newNode(Paragraph) }

// NewHeading creates a detached heading node with the given level (1…6).
func (d *Document) NewHeading(level int) *Node {
	if level < 1 {
		level = 1
	} else if level > 6 {
		level = 6
	}
	n := d.newNode(Heading)
	n.level = level
	return n
}

// NewQuote creates a detached quote node.
func (d *Document) NewQuote() *Node { return d.newNode(Quote) }

// NewList creates a detached list node. start is the first ordinal of an
// ordered list; depth its indent depth.
func (d *Document) NewList(kind ListKind, start, depth int) *Node {
	n := d.newNode(List)
	n.list = kind
	n.start = start
	n.depth = depth
	return n
}

// NewListItem creates a detached list item node.
func (d *Document) NewListItem() *Node { return d.newNode(ListItem) }

// NewCodeBlock creates a detached code block with a language tag.
func (d *Document) NewCodeBlock(lang string) *Node {
	n := d.newNode(CodeBlock)
	n.lang = lang
	return n
}

// NewTable creates a detached table node.
func (d *Document) NewTable() *Node { return d.newNode(Table) }

// NewTableRow creates a detached table row node.
func (d *Document) NewTableRow() *Node { return d.newNode(TableRow) }

// NewTableCell creates a detached table cell node.
func (d *Document) NewTableCell() *Node { return d.newNode(TableCell) }

// NewDivider creates a detached divider (horizontal rule) node.
func (d *Document) NewDivider() *Node { return d.newNode(Divider) }

// NewLink creates a detached link node targeting url.
func (d *Document) NewLink(url string) *Node {
	n := d.newNode(Link)
	n.url = url
	return n
}

// NewText creates a detached text node.
func (d *Document) NewText(text string) *Node {
	n := d.newNode(Text)
	n.text = text
	return n
}

// NewLineBreak creates a detached hard line break node.
func (d *Document) NewLineBreak() *Node { return d.newNode(LineBreak) }

// --- Transactions ------------------------------------------------------

// Transact runs fn inside a transaction tagged with origin. Transactions
// are serialized and non-reentrant; opening one while another is active
// panics. After fn returns without error, all registered listeners are
// notified with the set of touched text nodes, the selection, and the
// origin tag. Listeners run after commit and are free to open follow-up
// transactions of their own.
func (d *Document) Transact(origin Origin, fn func(*Transaction) error) error {
	if d.tx != nil {
		panic("dom: transaction already active")
	}
	tx := &Transaction{doc: d, origin: origin, dirty: hashset.New()}
	d.tx = tx
	err := fn(tx)
	d.tx = nil
	if err != nil {
		tracer().Debugf("transaction abandoned: %v", err)
		return err
	}
	d.notify(Update{
		Doc:       d,
		Origin:    origin,
		Selection: d.sel,
		dirty:     tx.dirty,
	})
	return nil
}

// OnUpdate registers a listener for committed transactions. Listeners are
// notified in registration order.
func (d *Document) OnUpdate(fn func(Update)) ListenerID {
	d.nextLstn++
	id := d.nextLstn
	d.listeners.Put(id, fn)
	return id
}

// RemoveListener unregisters a listener. Unknown ids are ignored.
func (d *Document) RemoveListener(id ListenerID) {
	d.listeners.Remove(id)
}

func (d *Document) notify(u Update) {
	keys := d.listeners.Keys()
	for _, k := range keys {
		if fn, ok := d.listeners.Get(k); ok {
			fn.(func(Update))(u)
		}
	}
}

func (d *Document) requireTx() *Transaction {
	if d.tx == nil {
		panic("dom: mutation outside of a transaction")
	}
	return d.tx
}

func (d *Document) owned(n *Node) *Node {
	if n == nil {
		panic("dom: nil node")
	}
	if n.doc != d {
		panic("dom: node belongs to a different document")
	}
	return n
}

// markDirty records n and all its text descendants as touched.
func (tx *Transaction) markDirty(n *Node) {
	if n.kind == Text {
		tx.dirty.Add(n.id)
		return
	}
	for _, c := range n.children {
		tx.markDirty(c)
	}
}

// --- Tree mutation -------------------------------------------------------

func (d *Document) detach(n *Node) {
	if n.parent == nil {
		return
	}
	p := n.parent
	if i := p.childIndex(n); i >= 0 {
		p.children = append(p.children[:i], p.children[i+1:]...)
	}
	n.parent = nil
}

// AppendChild detaches child from its current parent, if any, and appends
// it to parent's child list.
func (d *Document) AppendChild(parent, child *Node) {
	tx := d.requireTx()
	d.owned(parent)
	d.owned(child)
	if !parent.IsContainer() {
		panic("dom: cannot append to " + parent.kind.String())
	}
	d.detach(child)
	child.parent = parent
	parent.children = append(parent.children, child)
	tx.markDirty(child)
}

// InsertBefore inserts n as ref's immediately preceding sibling.
func (d *Document) InsertBefore(ref, n *Node) {
	d.insertAt(ref, n, 0)
}

// InsertAfter inserts n as ref's immediately following sibling.
func (d *Document) InsertAfter(ref, n *Node) {
	d.insertAt(ref, n, 1)
}

func (d *Document) insertAt(ref, n *Node, delta int) {
	tx := d.requireTx()
	d.owned(ref)
	d.owned(n)
	p := ref.parent
	if p == nil {
		panic("dom: reference node is detached")
	}
	d.detach(n)
	i := p.childIndex(ref) + delta
	p.children = append(p.children, nil)
	copy(p.children[i+1:], p.children[i:])
	p.children[i] = n
	n.parent = p
	tx.markDirty(n)
}

// Replace substitutes old (which must be attached) by n, keeping position.
func (d *Document) Replace(old, n *Node) {
	tx := d.requireTx()
	d.owned(old)
	d.owned(n)
	p := old.parent
	if p == nil {
		panic("dom: cannot replace a detached node")
	}
	d.detach(n)
	i := p.childIndex(old)
	p.children[i] = n
	n.parent = p
	old.parent = nil
	tx.markDirty(n)
}

// Remove detaches n from its parent. Detached nodes may be re-attached
// later within the same or a later transaction.
func (d *Document) Remove(n *Node) {
	d.requireTx()
	d.owned(n)
	d.detach(n)
}

// Clear removes all children from the document root.
func (d *Document) Clear() {
	d.requireTx()
	for _, c := range d.root.Children() {
		d.detach(c)
	}
	d.sel = Selection{}
	d.hasPending = false
}

// --- Text mutation ---------------------------------------------------------

func (d *Document) requireText(n *Node) {
	if n.kind != Text {
		panic("dom: text mutation on " + n.kind.String())
	}
}

// SetText replaces a text node's payload.
func (d *Document) SetText(n *Node, s string) {
	tx := d.requireTx()
	d.owned(n)
	d.requireText(n)
	n.text = s
	tx.dirty.Add(n.id)
}

// InsertTextAt splices s into n's payload at byte offset at.
func (d *Document) InsertTextAt(n *Node, at int, s string) {
	tx := d.requireTx()
	d.owned(n)
	d.requireText(n)
	if at < 0 || at > len(n.text) {
		panic("dom: text offset out of range")
	}
	n.text = n.text[:at] + s + n.text[at:]
	tx.dirty.Add(n.id)
}

// DeleteTextRange removes the byte range [from,to) from n's payload.
func (d *Document) DeleteTextRange(n *Node, from, to int) {
	tx := d.requireTx()
	d.owned(n)
	d.requireText(n)
	if from < 0 || to < from || to > len(n.text) {
		panic("dom: text range out of range")
	}
	n.text = n.text[:from] + n.text[to:]
	tx.dirty.Add(n.id)
}

// SetFormats replaces a text node's format set.
func (d *Document) SetFormats(n *Node, fs FormatSet) {
	tx := d.requireTx()
	d.owned(n)
	d.requireText(n)
	n.formats = fs
	tx.dirty.Add(n.id)
}

// SetHeader marks a table cell as belonging to a header row.
func (d *Document) SetHeader(n *Node, header bool) {
	d.requireTx()
	d.owned(n)
	if n.kind != TableCell {
		panic("dom: header flag on " + n.kind.String())
	}
	n.header = header
}

// SplitText splits a text node at the given byte offsets. The node itself
// keeps the first segment (retaining its identity); the remaining segments
// become new text nodes with the same formats, inserted as following
// siblings. Boundary and duplicate offsets are ignored. The returned slice
// lists the resulting segments in document order (just n if no split
// happened).
func (d *Document) SplitText(n *Node, offsets ...int) []*Node {
	tx := d.requireTx()
	d.owned(n)
	d.requireText(n)
	cuts := make([]int, 0, len(offsets))
	for _, off := range offsets {
		if off <= 0 || off >= len(n.text) {
			continue
		}
		dup := false
		for _, c := range cuts {
			if c == off {
				dup = true
				break
			}
		}
		if !dup {
			cuts = append(cuts, off)
		}
	}
	if len(cuts) == 0 {
		return []*Node{n}
	}
	for i := 1; i < len(cuts); i++ { // insertion sort, offsets are few
		for j := i; j > 0 && cuts[j] < cuts[j-1]; j-- {
			cuts[j], cuts[j-1] = cuts[j-1], cuts[j]
		}
	}
	whole := n.text
	segments := []*Node{n}
	n.text = whole[:cuts[0]]
	tx.dirty.Add(n.id)
	prev := n
	for i, cut := range cuts {
		end := len(whole)
		if i+1 < len(cuts) {
			end = cuts[i+1]
		}
		piece := d.NewText(whole[cut:end])
		piece.formats = n.formats
		if prev.parent != nil {
			d.InsertAfter(prev, piece)
		}
		tx.dirty.Add(piece.id)
		segments = append(segments, piece)
		prev = piece
	}
	return segments
}
