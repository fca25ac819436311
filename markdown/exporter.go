package markdown

import (
	"strconv"
	"strings"

	"github.com/npillmayer/blockdown/dom"
)

// Export serializes doc with the default registry.
func Export(doc *dom.Document) string {
	return Default().Export(doc)
}

// Export serializes the document tree back to Markdown, top-level blocks
// joined by newlines. The traversal is read-only.
func (r *Registry) Export(doc *dom.Document) string {
	var lines []string
	for _, block := range doc.Root().Children() {
		lines = append(lines, r.exportBlock(block))
	}
	return strings.Join(lines, "\n")
}

// exportBlock offers the node to every block exporter in registration
// order; the first to accept wins. Containers without a dedicated exporter
// (paragraphs) fall back to inline export of their children.
func (r *Registry) exportBlock(n *dom.Node) string {
	for i := range r.blocks {
		b := &r.blocks[i]
		if b.Exporter == nil {
			continue
		}
		if s, ok := b.Exporter(n, r.exportChildren); ok {
			return s
		}
	}
	if n.IsContainer() {
		return r.exportChildren(n)
	}
	return ""
}

// exportChildren serializes a container's inline content: text runs with
// format delimiters, "\n" for hard breaks, [text](url) for links, and a
// recursive descent into nested containers.
func (r *Registry) exportChildren(parent *dom.Node) string {
	var sb strings.Builder
	for _, c := range parent.Children() {
		switch {
		case c.IsText():
			sb.WriteString(r.exportTextRun(c))
		case c.Kind() == dom.LineBreak:
			sb.WriteByte('\n')
		case c.Kind() == dom.Link:
			sb.WriteString(r.exportLink(c))
		case c.IsContainer():
			sb.WriteString(r.exportChildren(c))
		}
	}
	return sb.String()
}

// exportTextRun wraps a text run's content in delimiter tags. Surrounding
// whitespace is split off first and the wrapped core spliced back in, so
// that delimiters never touch spaces.
func (r *Registry) exportTextRun(run *dom.Node) string {
	text := run.Text()
	frozen := strings.TrimSpace(text)
	if frozen == "" {
		return text
	}
	return strings.Replace(text, frozen, r.wrapFormats(run, frozen), 1)
}

// wrapFormats surrounds content with the export tag of every format active
// on run. A delimiter is suppressed when the neighboring text run already
// carries the same format, so adjacent same-formatted runs share one pair
// of delimiters.
func (r *Registry) wrapFormats(run *dom.Node, content string) string {
	out := content
	for _, t := range r.exports {
		f := singleFormat(t.Formats)
		if !run.Formats().Contains(f) {
			continue
		}
		if prev := textSibling(run, true); prev == nil || !prev.Formats().Contains(f) {
			out = t.Tag + out
		}
		if next := textSibling(run, false); next == nil || !next.Formats().Contains(f) {
			out += t.Tag
		}
	}
	return out
}

// exportLink emits [text](url). When the link holds exactly one plain text
// child, the child's formats wrap the whole link literal.
func (r *Registry) exportLink(link *dom.Node) string {
	content := "[" + link.InnerText() + "](" + link.URL() + ")"
	if link.ChildCount() == 1 && link.FirstChild().IsText() {
		return r.wrapFormats(link.FirstChild(), content)
	}
	return content
}

// textSibling is the neighboring text run in the given direction, crossing
// out of an enclosing inline container at its boundary and descending into
// inline containers along the way. Line breaks end the adjacency.
func textSibling(n *dom.Node, backward bool) *dom.Node {
	sib := step(n, backward)
	if sib == nil {
		if p := n.Parent(); p != nil && p.Kind() == dom.Link {
			sib = step(p, backward)
		}
	}
	for sib != nil {
		switch {
		case sib.IsText():
			return sib
		case sib.Kind() == dom.Link:
			var desc *dom.Node
			if backward {
				desc = lastDescendant(sib)
			} else {
				desc = firstDescendant(sib)
			}
			if desc != nil && desc.IsText() {
				return desc
			}
			sib = step(sib, backward)
		default:
			return nil
		}
	}
	return nil
}

func step(n *dom.Node, backward bool) *dom.Node {
	if backward {
		return n.PrevSibling()
	}
	return n.NextSibling()
}

func firstDescendant(n *dom.Node) *dom.Node {
	for n.FirstChild() != nil {
		n = n.FirstChild()
	}
	return n
}

func lastDescendant(n *dom.Node) *dom.Node {
	for n.LastChild() != nil {
		n = n.LastChild()
	}
	return n
}

// --- Default block exporters -------------------------------------------------

func exportHeading(n *dom.Node, children func(*dom.Node) string) (string, bool) {
	if n.Kind() != dom.Heading {
		return "", false
	}
	return strings.Repeat("#", n.Level()) + " " + children(n), true
}

func exportQuote(n *dom.Node, children func(*dom.Node) string) (string, bool) {
	if n.Kind() != dom.Quote {
		return "", false
	}
	lines := strings.Split(children(n), "\n")
	for i, l := range lines {
		lines[i] = "> " + l
	}
	return strings.Join(lines, "\n"), true
}

func exportCodeBlock(n *dom.Node, _ func(*dom.Node) string) (string, bool) {
	if n.Kind() != dom.CodeBlock {
		return "", false
	}
	content := n.InnerText()
	if content != "" {
		content = "\n" + content
	}
	return "```" + n.Language() + content + "\n```", true
}

func exportList(n *dom.Node, children func(*dom.Node) string) (string, bool) {
	if n.Kind() != dom.List {
		return "", false
	}
	indent := strings.Repeat("    ", n.Depth())
	lines := make([]string, 0, n.ChildCount())
	for i, item := range n.Children() {
		marker := "- "
		if n.ListType() == dom.Ordered {
			marker = strconv.Itoa(n.Start()+i) + ". "
		}
		lines = append(lines, indent+marker+children(item))
	}
	return strings.Join(lines, "\n"), true
}

func exportDivider(n *dom.Node, _ func(*dom.Node) string) (string, bool) {
	if n.Kind() != dom.Divider {
		return "", false
	}
	return "---", true
}

func exportTable(n *dom.Node, _ func(*dom.Node) string) (string, bool) {
	if n.Kind() != dom.Table {
		return "", false
	}
	var lines []string
	for _, row := range n.Children() {
		if row.Kind() != dom.TableRow {
			continue
		}
		cells := make([]string, 0, row.ChildCount())
		header := false
		for _, cell := range row.Children() {
			cells = append(cells, cell.InnerText())
			if cell.Header() {
				header = true
			}
		}
		lines = append(lines, "| "+strings.Join(cells, " | ")+" |")
		if header {
			seps := make([]string, len(cells))
			for i := range seps {
				seps[i] = "---"
			}
			lines = append(lines, "| "+strings.Join(seps, " | ")+" |")
		}
	}
	return strings.Join(lines, "\n"), true
}
