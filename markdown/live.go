package markdown

import (
	"errors"
	"regexp"

	"github.com/npillmayer/blockdown/core"
	"github.com/npillmayer/blockdown/dom"
)

// liveBlockCap is how far into a line the live block detector looks. It
// bounds per-keystroke scan cost; no block prefix is longer than this.
const liveBlockCap = 20

// liveLinkMatch is the link pattern anchored to end exactly at the caret.
var liveLinkMatch = regexp.MustCompile(`\[([^\[\]]+)\]\(([^()\s]+)\)$`)

// errUnhandled abandons the attempt transaction when no pattern completed.
var errUnhandled = errors.New("no live conversion applies")

// InstallLive subscribes live Markdown conversion with the default registry.
func InstallLive(doc *dom.Document) (func(), error) {
	return Default().InstallLive(doc)
}

// InstallLive subscribes live Markdown conversion to doc: user edits which
// complete a Markdown pattern next to the caret are converted on the fly.
// The returned disposer unsubscribes. Installation fails with a
// core.EMISSING error when the document's schema lacks a node kind which
// the registry's transformers or link detection would create.
func (r *Registry) InstallLive(doc *dom.Document) (func(), error) {
	required := append(r.Kinds(), dom.Paragraph, dom.Text, dom.Link)
	for _, k := range required {
		if !doc.Schema().Supports(k) {
			return nil, core.Error(core.EMISSING, "document schema lacks node kind %s", k)
		}
	}
	id := doc.OnUpdate(func(u dom.Update) { r.liveUpdate(u) })
	tracer().Infof("live Markdown conversion installed")
	return func() { doc.RemoveListener(id) }, nil
}

// liveUpdate is the per-transaction entry point. It fires on user edits with
// a collapsed caret inside a just-edited text node and tries, in order, a
// block conversion, a link conversion and an inline delimiter conversion.
// All mutations run in a follow-up transaction tagged OriginTransform, which
// this listener ignores, as it does history replays.
func (r *Registry) liveUpdate(u dom.Update) {
	if u.Origin != dom.OriginUser {
		return
	}
	sel := u.Selection
	if sel.IsZero() || !sel.Collapsed() {
		return
	}
	caret := sel.Focus
	node := caret.Node
	if !node.IsText() || !u.IsDirty(node.ID()) {
		return
	}
	if node.Formats().Contains(dom.Code) || insideCodeBlock(node) {
		return
	}
	_ = u.Doc.Transact(dom.OriginTransform, func(tx *dom.Transaction) error {
		switch {
		case r.liveBlock(u.Doc, node, caret.Offset):
			tracer().Debugf("live block conversion at %v", node)
		case r.liveLink(u.Doc, node, caret.Offset):
			tracer().Debugf("live link conversion at %v", node)
		case r.liveInline(u.Doc, node, caret.Offset):
			tracer().Debugf("live inline conversion at %v", node)
		default:
			return errUnhandled
		}
		return nil
	})
}

func insideCodeBlock(n *dom.Node) bool {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p.Kind() == dom.CodeBlock {
			return true
		}
	}
	return false
}

// liveBlock converts the caret paragraph into a block node when the text up
// to the caret exactly matches a block pattern ("# ", "- ", "> "). Only a
// text node which is the sole child of a top-level paragraph is eligible,
// and only right after a typed space.
func (r *Registry) liveBlock(d *dom.Document, node *dom.Node, offset int) bool {
	if offset < 1 || offset > liveBlockCap {
		return false
	}
	text := node.Text()
	if text[offset-1] != ' ' {
		return false
	}
	para := node.Parent()
	if para == nil || para.Kind() != dom.Paragraph || para.ChildCount() != 1 {
		return false
	}
	if para.Parent() != d.Root() {
		return false
	}
	head := text[:offset]
	for i := range r.blocks {
		b := &r.blocks[i]
		m := b.Matcher.FindStringSubmatch(head)
		if m == nil || len(m[0]) != offset {
			continue
		}
		segs := d.SplitText(node, offset)
		var children []*dom.Node
		if len(segs) > 1 {
			children = segs[1:]
		}
		d.Remove(segs[0])
		b.Importer(&BlockImport{
			Doc:      d,
			Block:    para,
			Children: children,
			Groups:   m,
			Live:     true,
		})
		return true
	}
	return false
}

// liveLink converts a bracket link typed directly before the caret and
// leaves the caret behind the new link node.
func (r *Registry) liveLink(d *dom.Document, node *dom.Node, offset int) bool {
	text := node.Text()
	if offset < 1 || text[offset-1] != ')' {
		return false
	}
	s := text[:offset]
	m := liveLinkMatch.FindStringSubmatchIndex(s)
	if m == nil {
		return false
	}
	label := s[m[2]:m[3]]
	url := s[m[4]:m[5]]
	segs := d.SplitText(node, m[0], offset)
	mid := segs[0]
	if m[0] > 0 {
		mid = segs[1]
	}
	link := d.NewLink(url)
	txt := d.NewText(label)
	d.AppendChild(link, txt)
	d.SetFormats(txt, mid.Formats())
	d.Replace(mid, link)

	if next := link.NextSibling(); next != nil && next.IsText() {
		d.SetCaret(dom.Point{Node: next})
		return true
	}
	parent := link.Parent()
	at := 0
	for i, c := range parent.Children() {
		if c == link {
			at = i + 1
			break
		}
	}
	d.SetCaret(dom.Point{Node: parent, Offset: at})
	return true
}

// liveInline reacts to a just-typed closing delimiter. Candidate tags are
// the registered tags ending at the caret, longest first; the first one for
// which a matching opening delimiter turns up wins.
func (r *Registry) liveInline(d *dom.Document, node *dom.Node, offset int) bool {
	for _, t := range r.closingCandidates(node.Text()[:offset]) {
		if r.applyInlineTag(d, node, offset, t) {
			return true
		}
	}
	return false
}

// applyInlineTag tries to close the delimiter pair for one tag: validate the
// closing occurrence, scan backward for an opening one, strip both delimiter
// occurrences (closing side first, keeping opening offsets valid), format
// the span between them, and park the caret behind it with the formats
// toggled back off so that subsequent typing stays plain.
func (r *Registry) applyInlineTag(d *dom.Document, node *dom.Node, offset int, t *TextTransformer) bool {
	tag := t.Tag
	closeStart := offset - len(tag)
	if closeStart > 0 {
		prev := node.Text()[closeStart-1]
		if isSpaceByte(prev) || prev == tag[0] {
			// the delimiter hangs in the air, or is part of a longer one
			return false
		}
	}
	openNode, openIdx, between, ok := findOpenTag(node, closeStart, tag)
	if !ok || between == 0 {
		return false
	}
	if openIdx > 0 && openNode.Text()[openIdx-1] == tag[len(tag)-1] {
		// a longer delimiter opens here, "**" must not close as "*"
		return false
	}

	d.DeleteTextRange(node, closeStart, closeStart+len(tag))
	d.DeleteTextRange(openNode, openIdx, openIdx+len(tag))
	end := closeStart
	if openNode == node {
		end = closeStart - len(tag)
	}
	span := dom.Selection{
		Anchor: dom.Point{Node: openNode, Offset: openIdx},
		Focus:  dom.Point{Node: node, Offset: end},
	}
	covered := d.ApplyFormats(span, t.Formats)
	d.SetSelection(dom.Caret(covered.Focus))
	d.ToggleTypingFormats(t.Formats)
	return true
}

// findOpenTag scans backward from the closing delimiter for an opening tag
// occurrence: first in the caret node itself, then through the preceding
// text leaves of the enclosing block. A hard line break stops the scan.
// Returns the opening node and offset plus the byte count of the content
// between the delimiters.
func findOpenTag(node *dom.Node, closeStart int, tag string) (*dom.Node, int, int, bool) {
	if idx := openTagIn(node.Text()[:closeStart], tag); idx >= 0 {
		return node, idx, closeStart - idx - len(tag), true
	}
	block := enclosingBlock(node)
	if block == nil {
		return nil, 0, 0, false
	}
	text, err := dom.InnerText(block)
	if err != nil {
		return nil, 0, 0, false
	}
	leaves := dom.Leaves(text)
	at := -1
	for i := range leaves {
		if leaves[i].Node() == node {
			at = i
			break
		}
	}
	between := closeStart
	for i := at - 1; i >= 0; i-- {
		leaf := leaves[i]
		if leaf.Node().Kind() == dom.LineBreak {
			break
		}
		s := leaf.String()
		if idx := openTagIn(s, tag); idx >= 0 {
			return leaf.Node(), idx, between + len(s) - idx - len(tag), true
		}
		between += len(s)
	}
	return nil, 0, 0, false
}

// openTagIn finds the rightmost occurrence of tag in s which is not
// immediately followed by whitespace.
func openTagIn(s, tag string) int {
	for i := len(s) - len(tag); i >= 0; i-- {
		if s[i:i+len(tag)] != tag {
			continue
		}
		if i+len(tag) < len(s) && isSpaceByte(s[i+len(tag)]) {
			continue
		}
		return i
	}
	return -1
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t'
}

// enclosingBlock walks up to the nearest block-level ancestor.
func enclosingBlock(n *dom.Node) *dom.Node {
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p.IsBlock() {
			return p
		}
	}
	return nil
}
