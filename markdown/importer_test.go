package markdown

import (
	"testing"

	"github.com/npillmayer/blockdown/dom"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
)

func importDoc(src string) *dom.Document {
	d := dom.NewDocument(nil)
	Import(d, src)
	return d
}

// runTexts lists the text payloads of n's children.
func runTexts(n *dom.Node) []string {
	tt := make([]string, 0, n.ChildCount())
	for _, c := range n.Children() {
		tt = append(tt, c.Text())
	}
	return tt
}

func TestImportHeading(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "blockdown.markdown")
	defer teardown()
	//
	d := importDoc("# Title\n")
	root := d.Root()
	if root.ChildCount() != 2 {
		t.Fatalf("expected 2 blocks, got %d", root.ChildCount())
	}
	h := root.FirstChild()
	assert.Equal(t, dom.Heading, h.Kind())
	assert.Equal(t, 1, h.Level())
	assert.Equal(t, "Title", h.InnerText())
	last := root.LastChild()
	assert.Equal(t, dom.Paragraph, last.Kind())
	assert.Equal(t, 0, last.ChildCount())
	sel := d.Selection()
	assert.True(t, sel.Collapsed())
	assert.Same(t, last, sel.Focus.Node)
	assert.Equal(t, 0, sel.Focus.Offset)
}

func TestImportHeadingLevels(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "blockdown.markdown")
	defer teardown()
	//
	d := importDoc("### Deep")
	h := d.Root().FirstChild()
	assert.Equal(t, dom.Heading, h.Kind())
	assert.Equal(t, 3, h.Level())

	d = importDoc("####### seven")
	p := d.Root().FirstChild()
	assert.Equal(t, dom.Paragraph, p.Kind())
	assert.Equal(t, "####### seven", p.InnerText())
}

func TestImportParagraph(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "blockdown.markdown")
	defer teardown()
	//
	d := importDoc("hello")
	root := d.Root()
	assert.Equal(t, 1, root.ChildCount())
	p := root.FirstChild()
	assert.Equal(t, dom.Paragraph, p.Kind())
	txt := p.FirstChild()
	assert.Equal(t, "hello", txt.Text())
	assert.True(t, txt.Formats().IsEmpty())
	sel := d.Selection()
	assert.Same(t, txt, sel.Focus.Node)
	assert.Equal(t, 5, sel.Focus.Offset)
}

func TestImportEmptyLines(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "blockdown.markdown")
	defer teardown()
	//
	d := importDoc("a\n\nb")
	root := d.Root()
	if root.ChildCount() != 3 {
		t.Fatalf("expected 3 blocks, got %d", root.ChildCount())
	}
	assert.Equal(t, 0, root.Child(1).ChildCount())
	assert.Equal(t, "a\n\nb", Export(d))

	d = importDoc("")
	assert.Equal(t, 1, d.Root().ChildCount())
	assert.Equal(t, 0, d.Root().FirstChild().ChildCount())
}

func TestImportQuoteMerge(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "blockdown.markdown")
	defer teardown()
	//
	d := importDoc("> a\n> b")
	root := d.Root()
	assert.Equal(t, 1, root.ChildCount())
	q := root.FirstChild()
	assert.Equal(t, dom.Quote, q.Kind())
	if q.ChildCount() != 3 {
		t.Fatalf("expected 3 inline children, got %d", q.ChildCount())
	}
	assert.Equal(t, "a", q.Child(0).Text())
	assert.Equal(t, dom.LineBreak, q.Child(1).Kind())
	assert.Equal(t, "b", q.Child(2).Text())
}

func TestImportFence(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "blockdown.markdown")
	defer teardown()
	//
	d := importDoc("```js\ncode\n```")
	root := d.Root()
	assert.Equal(t, 1, root.ChildCount())
	code := root.FirstChild()
	assert.Equal(t, dom.CodeBlock, code.Kind())
	assert.Equal(t, "js", code.Language())
	assert.Equal(t, "code", code.InnerText())

	d = importDoc("```\nx\ny\n```")
	code = d.Root().FirstChild()
	assert.Equal(t, "", code.Language())
	assert.Equal(t, 1, code.ChildCount())
	assert.Equal(t, "x\ny", code.InnerText())

	d = importDoc("```\n**not bold**\n```")
	code = d.Root().FirstChild()
	assert.Equal(t, "**not bold**", code.InnerText())
	assert.True(t, code.FirstChild().Formats().IsEmpty())
}

func TestImportFenceUnclosed(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "blockdown.markdown")
	defer teardown()
	//
	d := importDoc("```js\ncode")
	root := d.Root()
	if root.ChildCount() != 2 {
		t.Fatalf("expected 2 blocks, got %d", root.ChildCount())
	}
	assert.Equal(t, dom.Paragraph, root.Child(0).Kind())
	assert.Equal(t, "```js", root.Child(0).InnerText())
	assert.Equal(t, dom.Paragraph, root.Child(1).Kind())
	assert.Equal(t, "code", root.Child(1).InnerText())
}

func TestImportFenceEmpty(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "blockdown.markdown")
	defer teardown()
	//
	d := importDoc("```\n```")
	code := d.Root().FirstChild()
	assert.Equal(t, dom.CodeBlock, code.Kind())
	assert.Equal(t, 0, code.ChildCount())
	assert.Equal(t, "", code.Language())
}

func TestImportLists(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "blockdown.markdown")
	defer teardown()
	//
	d := importDoc("- a\n- b")
	root := d.Root()
	assert.Equal(t, 1, root.ChildCount())
	list := root.FirstChild()
	assert.Equal(t, dom.List, list.Kind())
	assert.Equal(t, dom.Unordered, list.ListType())
	assert.Equal(t, 2, list.ChildCount())
	assert.Equal(t, dom.ListItem, list.FirstChild().Kind())
	assert.Equal(t, "a", list.FirstChild().InnerText())
	assert.Equal(t, "b", list.LastChild().InnerText())

	d = importDoc("5. five\n6. six")
	list = d.Root().FirstChild()
	assert.Equal(t, dom.Ordered, list.ListType())
	assert.Equal(t, 5, list.Start())
	assert.Equal(t, 2, list.ChildCount())
}

func TestImportListDepth(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "blockdown.markdown")
	defer teardown()
	//
	d := importDoc("- a\n    - b")
	root := d.Root()
	if root.ChildCount() != 2 {
		t.Fatalf("expected 2 lists, got %d", root.ChildCount())
	}
	assert.Equal(t, 0, root.Child(0).Depth())
	assert.Equal(t, 1, root.Child(1).Depth())
}

func TestImportListKindBreak(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "blockdown.markdown")
	defer teardown()
	//
	d := importDoc("- a\n1. b")
	root := d.Root()
	assert.Equal(t, 2, root.ChildCount())
	assert.Equal(t, dom.Unordered, root.Child(0).ListType())
	assert.Equal(t, dom.Ordered, root.Child(1).ListType())
}

func TestImportDivider(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "blockdown.markdown")
	defer teardown()
	//
	for _, src := range []string{"---", "***", "___", "--- "} {
		d := importDoc(src)
		hr := d.Root().FirstChild()
		if hr.Kind() != dom.Divider {
			t.Errorf("%q should import as a divider, got %s", src, hr.Kind())
		}
	}
}

func TestImportTable(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "blockdown.markdown")
	defer teardown()
	//
	d := importDoc("| a | b |\n| c | d |")
	root := d.Root()
	assert.Equal(t, 1, root.ChildCount())
	table := root.FirstChild()
	assert.Equal(t, dom.Table, table.Kind())
	assert.Equal(t, 2, table.ChildCount())
	row := table.FirstChild()
	assert.Equal(t, dom.TableRow, row.Kind())
	assert.Equal(t, 2, row.ChildCount())
	assert.Equal(t, dom.TableCell, row.FirstChild().Kind())
	assert.Equal(t, "a", row.Child(0).InnerText())
	assert.Equal(t, "b", row.Child(1).InnerText())
	assert.Equal(t, "d", table.Child(1).Child(1).InnerText())
}

func TestImportTableHeader(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "blockdown.markdown")
	defer teardown()
	//
	d := importDoc("| h | i |\n| --- | --- |\n| a | b |")
	table := d.Root().FirstChild()
	assert.Equal(t, dom.Table, table.Kind())
	assert.Equal(t, 2, table.ChildCount())
	for _, cell := range table.FirstChild().Children() {
		assert.True(t, cell.Header())
	}
	for _, cell := range table.Child(1).Children() {
		assert.False(t, cell.Header())
	}
}

func TestImportTableAbsorption(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "blockdown.markdown")
	defer teardown()
	//
	d := dom.NewDocument(nil)
	r := Default()
	err := d.Transact(dom.OriginTransform, func(tx *dom.Transaction) error {
		para := d.Root().FirstChild()
		d.AppendChild(para, d.NewText("| a |"))
		r.importLine(d, "| b | c |")
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	root := d.Root()
	assert.Equal(t, 1, root.ChildCount())
	table := root.FirstChild()
	assert.Equal(t, dom.Table, table.Kind())
	assert.Equal(t, 2, table.ChildCount())
	first := table.FirstChild()
	assert.Equal(t, 2, first.ChildCount())
	assert.Equal(t, "a", first.Child(0).InnerText())
	assert.Equal(t, 0, first.Child(1).ChildCount())
	assert.Equal(t, "b", table.Child(1).Child(0).InnerText())
	assert.Equal(t, "c", table.Child(1).Child(1).InnerText())
}

func TestImportTableDividerOrphan(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "blockdown.markdown")
	defer teardown()
	//
	// a divider row with no table above it stays literal text
	d := importDoc("| --- | --- |")
	p := d.Root().FirstChild()
	assert.Equal(t, dom.Paragraph, p.Kind())
	assert.Equal(t, "| --- | --- |", p.InnerText())
}

func TestImportNormalization(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "blockdown.markdown")
	defer teardown()
	//
	d := importDoc("café")
	txt := d.Root().FirstChild().FirstChild()
	assert.Equal(t, "café", txt.Text())

	d = importDoc("a\r\nb")
	assert.Equal(t, 2, d.Root().ChildCount())
}

func TestImportInlineInsideBlocks(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "blockdown.markdown")
	defer teardown()
	//
	d := importDoc("## Sub *em*")
	h := d.Root().FirstChild()
	assert.Equal(t, 2, h.Level())
	assert.Equal(t, []string{"Sub ", "em"}, runTexts(h))
	assert.True(t, h.Child(1).Formats().Contains(dom.Italic))

	d = importDoc("> see `x`")
	q := d.Root().FirstChild()
	assert.Equal(t, dom.Quote, q.Kind())
	assert.Equal(t, []string{"see ", "x"}, runTexts(q))
	assert.True(t, q.Child(1).Formats().Contains(dom.Code))
}

func TestImportCaretAtEnd(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "blockdown.markdown")
	defer teardown()
	//
	d := importDoc("- one\n- two")
	sel := d.Selection()
	assert.True(t, sel.Collapsed())
	assert.Equal(t, "two", sel.Focus.Node.Text())
	assert.Equal(t, 3, sel.Focus.Offset)
}

func TestImportReplacesContent(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "blockdown.markdown")
	defer teardown()
	//
	d := importDoc("# One")
	Import(d, "plain")
	root := d.Root()
	assert.Equal(t, 1, root.ChildCount())
	assert.Equal(t, dom.Paragraph, root.FirstChild().Kind())
	assert.Equal(t, "plain", root.FirstChild().InnerText())
}
