package markdown

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/npillmayer/blockdown/dom"
	"golang.org/x/text/unicode/norm"
)

var (
	// fenceMatch recognizes a complete fence line, opening or closing.
	fenceMatch = regexp.MustCompile("^```(\\w{1,10})?\\s?$")
	// tableDividerMatch recognizes the row separating table header and body.
	tableDividerMatch = regexp.MustCompile(`^\|\s*:?-+:?\s*(\|\s*:?-+:?\s*)*\|\s?$`)
)

// Import replaces doc's content with the Markdown in src, using the default
// registry.
func Import(doc *dom.Document, src string) {
	Default().Import(doc, src)
}

// Import replaces doc's content with src converted to a node tree. Import
// never fails: malformed or unsupported Markdown degrades to literal text.
// The conversion runs as a single transaction tagged OriginTransform, so a
// live converter installed on the same document will not fire on it.
func (r *Registry) Import(doc *dom.Document, src string) {
	_ = doc.Transact(dom.OriginTransform, func(tx *dom.Transaction) error {
		r.importInto(doc, src)
		return nil
	})
}

func (r *Registry) importInto(doc *dom.Document, src string) {
	doc.Clear()
	src = norm.NFC.String(src)
	src = strings.ReplaceAll(src, "\r\n", "\n")
	lines := strings.Split(src, "\n")
	tracer().Debugf("importing %d line(s) of Markdown", len(lines))
	root := doc.Root()
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if open := fenceMatch.FindStringSubmatch(line); open != nil {
			closed := -1
			for j := i + 1; j < len(lines); j++ {
				if fenceMatch.MatchString(lines[j]) {
					closed = j
					break
				}
			}
			if closed >= 0 {
				code := doc.NewCodeBlock(open[1])
				if content := strings.Join(lines[i+1:closed], "\n"); content != "" {
					doc.AppendChild(code, doc.NewText(content))
				}
				doc.AppendChild(root, code)
				i = closed
				continue
			}
			// no closing fence, the opening line is ordinary text
		}
		r.importLine(doc, line)
	}
	selectEnd(doc)
}

// importLine wraps one line into a paragraph, lets the first matching block
// transformer restructure it, and resolves inline formats. Inline resolution
// runs before the block importer so that importers receive finished inline
// children; code blocks keep their content verbatim.
func (r *Registry) importLine(doc *dom.Document, line string) {
	para := doc.NewParagraph()
	doc.AppendChild(doc.Root(), para)
	if line == "" {
		return
	}
	text := doc.NewText(line)
	doc.AppendChild(para, text)

	for i := range r.blocks {
		b := &r.blocks[i]
		m := b.Matcher.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		doc.SetText(text, line[len(m[0]):])
		if !containsKind(b.Kinds, dom.CodeBlock) {
			r.resolveInline(doc, text)
		}
		b.Importer(&BlockImport{
			Doc:      doc,
			Block:    para,
			Children: para.Children(),
			Groups:   m,
		})
		return
	}
	r.resolveInline(doc, text)
}

// selectEnd parks the caret behind the last content of the document.
func selectEnd(doc *dom.Document) {
	n := doc.Root().LastChild()
	if n == nil {
		doc.SetCaret(dom.Point{Node: doc.Root()})
		return
	}
	for !n.IsText() && n.LastChild() != nil {
		n = n.LastChild()
	}
	switch {
	case n.IsText():
		doc.SetCaret(dom.Point{Node: n, Offset: len(n.Text())})
	case n.IsContainer():
		doc.SetCaret(dom.Point{Node: n, Offset: n.ChildCount()})
	default:
		p := n.Parent()
		doc.SetCaret(dom.Point{Node: p, Offset: p.ChildCount()})
	}
}

// adoptChildren moves the inline children of the current line into parent.
func adoptChildren(bi *BlockImport, parent *dom.Node) {
	for _, c := range bi.Children {
		bi.Doc.AppendChild(parent, c)
	}
}

// --- Default block importers ------------------------------------------------

func importHeading(bi *BlockImport) {
	h := bi.Doc.NewHeading(len(bi.Groups[1]))
	adoptChildren(bi, h)
	bi.Doc.Replace(bi.Block, h)
	bi.SelectStart(h)
}

// importQuote builds a quote block. During bulk import, consecutive quote
// lines merge into a single quote separated by line breaks.
func importQuote(bi *BlockImport) {
	if !bi.Live {
		if prev := bi.Block.PrevSibling(); prev != nil && prev.Kind() == dom.Quote {
			bi.Doc.AppendChild(prev, bi.Doc.NewLineBreak())
			adoptChildren(bi, prev)
			bi.Doc.Remove(bi.Block)
			return
		}
	}
	q := bi.Doc.NewQuote()
	adoptChildren(bi, q)
	bi.Doc.Replace(bi.Block, q)
	bi.SelectStart(q)
}

// importCodeBlock converts an unclosed fence line (or a live-typed "``` ")
// into a code block holding the rest of the line verbatim.
func importCodeBlock(bi *BlockImport) {
	lang := ""
	if len(bi.Groups) > 1 {
		lang = bi.Groups[1]
	}
	code := bi.Doc.NewCodeBlock(lang)
	adoptChildren(bi, code)
	bi.Doc.Replace(bi.Block, code)
	bi.SelectStart(code)
}

func importUnorderedList(bi *BlockImport) { importList(bi, dom.Unordered) }
func importOrderedList(bi *BlockImport) { importList(bi, dom.Ordered) }

// importList builds a list item and attaches it to an immediately preceding
// list of the same kind and depth, or starts a new list. Depth grows by one
// for every four leading spaces; the starting ordinal of an ordered list is
// the first number literal.
func importList(bi *BlockImport, kind dom.ListKind) {
	depth := len(bi.Groups[1]) / 4
	start := 1
	if kind == dom.Ordered && len(bi.Groups) > 2 {
		if n, err := strconv.Atoi(bi.Groups[2]); err == nil {
			start = n
		}
	}
	item := bi.Doc.NewListItem()
	adoptChildren(bi, item)

	if prev := bi.Block.PrevSibling(); prev != nil && prev.Kind() == dom.List &&
		prev.ListType() == kind && prev.Depth() == depth {
		bi.Doc.AppendChild(prev, item)
		bi.Doc.Remove(bi.Block)
	} else {
		list := bi.Doc.NewList(kind, start, depth)
		bi.Doc.AppendChild(list, item)
		bi.Doc.Replace(bi.Block, list)
	}
	bi.SelectStart(item)
}

// importDivider replaces the line with a horizontal rule. A live conversion
// keeps a paragraph after the rule so that the caret has a place to go; any
// text behind the caret moves into that paragraph.
func importDivider(bi *BlockImport) {
	hr := bi.Doc.NewDivider()
	bi.Doc.Replace(bi.Block, hr)
	if !bi.Live {
		return
	}
	next := hr.NextSibling()
	if next == nil || len(bi.Children) > 0 {
		next = bi.Doc.NewParagraph()
		bi.Doc.InsertAfter(hr, next)
	}
	adoptChildren(bi, next)
	bi.SelectStart(next)
}

// importTableRow turns a pipe-delimited line into a table row. The row
// merges into an immediately preceding table of equal column count, and
// immediately preceding paragraphs whose sole text child still looks like a
// row are absorbed retroactively; all rows are padded to the widest row. A
// divider row ("|---|---|") marks the row above it as the table's header.
func importTableRow(bi *BlockImport) {
	d := bi.Doc
	if tableDividerMatch.MatchString(bi.Groups[0]) {
		table := bi.Block.PrevSibling()
		if table == nil || table.Kind() != dom.Table {
			// no table to attach to, the row stays literal text
			if c := bi.Block.FirstChild(); c != nil && c.IsText() && c.Text() == "" {
				d.SetText(c, bi.Groups[0])
			} else if c != nil {
				d.InsertBefore(c, d.NewText(bi.Groups[0]))
			} else {
				d.AppendChild(bi.Block, d.NewText(bi.Groups[0]))
			}
			return
		}
		last := table.LastChild()
		if last == nil {
			return
		}
		for _, cell := range last.Children() {
			d.SetHeader(cell, true)
		}
		d.Remove(bi.Block)
		return
	}

	cells := rowCells(bi.Groups[0])
	if cells == nil {
		return
	}
	maxCols := len(cells)
	var absorbed []*dom.Node
	var rows [][]string
	for prev := bi.Block.PrevSibling(); prev != nil; prev = prev.PrevSibling() {
		if prev.Kind() != dom.Paragraph || prev.ChildCount() != 1 || !prev.FirstChild().IsText() {
			break
		}
		rc := rowCells(prev.FirstChild().Text())
		if rc == nil {
			break
		}
		if len(rc) > maxCols {
			maxCols = len(rc)
		}
		rows = append([][]string{rc}, rows...)
		absorbed = append(absorbed, prev)
	}
	rows = append(rows, cells)

	table := d.NewTable()
	for _, row := range rows {
		tr := d.NewTableRow()
		d.AppendChild(table, tr)
		for i := 0; i < maxCols; i++ {
			cell := d.NewTableCell()
			d.AppendChild(tr, cell)
			if i < len(row) && row[i] != "" {
				d.AppendChild(cell, d.NewText(row[i]))
			}
		}
	}
	for _, p := range absorbed {
		d.Remove(p)
	}

	typedRow := table.LastChild()
	if prev := bi.Block.PrevSibling(); prev != nil && prev.Kind() == dom.Table &&
		tableColumns(prev) == maxCols {
		for _, row := range table.Children() {
			d.AppendChild(prev, row)
		}
		d.Remove(bi.Block)
	} else {
		d.Replace(bi.Block, table)
	}
	bi.SelectStart(typedRow)
}

// rowCells splits a pipe-delimited line into trimmed cell contents, nil if
// the line is not a table row.
func rowCells(line string) []string {
	m := tableRowMatch.FindStringSubmatch(line)
	if m == nil {
		return nil
	}
	parts := strings.Split(m[1], "|")
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = strings.TrimSpace(p)
	}
	return cells
}

func tableColumns(table *dom.Node) int {
	if fr := table.FirstChild(); fr != nil {
		return fr.ChildCount()
	}
	return 0
}
