package markdown

import (
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/derekparker/trie"
	"github.com/npillmayer/blockdown/core"
	"github.com/npillmayer/blockdown/dom"
)

// A TextTransformer ties a Markdown delimiter tag to a set of character
// formats, e.g. "**" to bold or "***" to bold+italic. The same table drives
// import, live detection and export.
type TextTransformer struct {
	Formats dom.FormatSet // formats the tag toggles; never empty
	Tag     string        // the literal delimiter string
}

// BlockImport is handed to a block transformer's importer. Block holds the
// paragraph which was created around the current line (bulk import) or which
// the user is typing in (live conversion); Children are its inline children
// after inline resolution, with the matched line prefix already stripped;
// Groups carries the submatches of the transformer's Matcher.
//
// The importer replaces or mutates Block, typically by moving Children into
// a freshly built node.
type BlockImport struct {
	Doc      *dom.Document
	Block    *dom.Node
	Children []*dom.Node
	Groups   []string
	Live     bool // live conversion, as opposed to bulk import
}

// SelectStart places the caret at the start of n's first text descendant.
// During bulk import this is a no-op; live conversions call it so that the
// caret survives the replacement of the typed-in paragraph.
func (bi *BlockImport) SelectStart(n *dom.Node) {
	if !bi.Live || n == nil {
		return
	}
	cur := n
	for !cur.IsText() && cur.FirstChild() != nil {
		cur = cur.FirstChild()
	}
	if !cur.IsText() && !cur.IsContainer() {
		cur = n
	}
	bi.Doc.SetCaret(dom.Point{Node: cur})
}

// A BlockTransformer translates one family of block nodes between Markdown
// lines and the document tree. Matcher is tried against a line's leading
// text; on a match the Importer builds tree structure. The Exporter turns a
// node back into Markdown text, answering false for node kinds it does not
// recognize. Kinds lists the node kinds the importer creates; installing
// live conversion validates them against the document schema.
type BlockTransformer struct {
	Matcher  *regexp.Regexp
	Importer func(*BlockImport)
	Exporter func(n *dom.Node, children func(*dom.Node) string) (string, bool)
	Kinds    []dom.NodeKind
}

// Registry is an immutable, ordered set of block and text transformers plus
// the derived lookup indexes. It is built once and may be shared freely
// between importer, exporter and any number of live-converting documents.
type Registry struct {
	blocks []BlockTransformer
	texts  []TextTransformer

	byTag      map[string]*TextTransformer
	matchByTag map[string]*regexp.Regexp
	openTags   *regexp.Regexp // alternation over all tags, registration order
	closing    *trie.Trie     // reversed tags → *TextTransformer
	maxTag     int            // longest tag in bytes
	exports    []*TextTransformer
	kinds      []dom.NodeKind
}

// NewRegistry builds a registry from ordered transformer lists. Ordering is
// significant in both: block matchers are tried first-match-wins, and an
// earlier text transformer wins the per-format export index and regex
// alternation tie-breaks, so longer tags ("***") belong before their
// prefixes ("**").
func NewRegistry(blocks []BlockTransformer, texts []TextTransformer) (*Registry, error) {
	r := &Registry{
		blocks:     append([]BlockTransformer(nil), blocks...),
		texts:      append([]TextTransformer(nil), texts...),
		byTag:      make(map[string]*TextTransformer),
		matchByTag: make(map[string]*regexp.Regexp),
		closing:    trie.New(),
	}
	for i := range r.blocks {
		b := &r.blocks[i]
		if b.Matcher == nil {
			return nil, core.Error(core.EINVALID, "block transformer #%d has no matcher", i)
		}
		if b.Importer == nil {
			return nil, core.Error(core.EINVALID, "block transformer #%d has no importer", i)
		}
		for _, k := range b.Kinds {
			if !containsKind(r.kinds, k) {
				r.kinds = append(r.kinds, k)
			}
		}
	}
	var exported dom.FormatSet
	alternation := make([]string, 0, len(r.texts))
	for i := range r.texts {
		t := &r.texts[i]
		if t.Tag == "" {
			return nil, core.Error(core.EINVALID, "text transformer #%d has an empty tag", i)
		}
		if t.Formats.IsEmpty() {
			return nil, core.Error(core.EINVALID, "text transformer %q has no formats", t.Tag)
		}
		if _, dup := r.byTag[t.Tag]; dup {
			return nil, core.Error(core.EINVALID, "duplicate text transformer tag %q", t.Tag)
		}
		r.byTag[t.Tag] = t
		m, err := regexp.Compile(tagMatchPattern(t.Tag))
		if err != nil {
			return nil, core.WrapError(err, core.EINVALID, "text transformer %q: unusable tag", t.Tag)
		}
		r.matchByTag[t.Tag] = m
		r.closing.Add(reverseTag(t.Tag), t)
		if len(t.Tag) > r.maxTag {
			r.maxTag = len(t.Tag)
		}
		if t.Formats.Count() == 1 && !exported.Contains(singleFormat(t.Formats)) {
			exported = exported.With(t.Formats)
			r.exports = append(r.exports, t)
		}
		alternation = append(alternation, regexp.QuoteMeta(t.Tag))
	}
	if len(alternation) > 0 {
		r.openTags = regexp.MustCompile(strings.Join(alternation, "|"))
	}
	tracer().Debugf("registry with %d block and %d text transformers", len(r.blocks), len(r.texts))
	return r, nil
}

// Kinds returns the node kinds any of the registry's block transformers may
// create, in first-seen order.
func (r *Registry) Kinds() []dom.NodeKind {
	return append([]dom.NodeKind(nil), r.kinds...)
}

// tagMatchPattern builds the full-match expression for a tag: the tag, a
// content group which must not start or end with whitespace or the delimiter
// character, and the tag again. Repetitions of the delimiter character
// adjacent to the closing tag cannot be rejected by RE2 itself and are
// checked after matching (see findTagMatch).
func tagMatchPattern(tag string) string {
	esc := regexp.QuoteMeta(tag)
	first, _ := utf8.DecodeRuneInString(tag)
	c := regexp.QuoteMeta(string(first))
	return esc + `([^\s` + c + `](?:.*?[^\s` + c + `])?)` + esc
}

// closingCandidates returns the text transformers whose tag is a suffix of
// text, longest tag first. The live detector calls this with the content up
// to the caret after every keystroke.
func (r *Registry) closingCandidates(text string) []*TextTransformer {
	var cands []*TextTransformer
	max := r.maxTag
	if max > len(text) {
		max = len(text)
	}
	for l := max; l >= 1; l-- {
		if node, ok := r.closing.Find(reverseTag(text[len(text)-l:])); ok {
			if t, ok := node.Meta().(*TextTransformer); ok {
				cands = append(cands, t)
			}
		}
	}
	return cands
}

func reverseTag(s string) string {
	rr := []rune(s)
	for i, j := 0, len(rr)-1; i < j; i, j = i+1, j-1 {
		rr[i], rr[j] = rr[j], rr[i]
	}
	return string(rr)
}

func singleFormat(s dom.FormatSet) dom.Format {
	var single dom.Format
	s.Each(func(f dom.Format) { single = f })
	return single
}

func containsKind(kk []dom.NodeKind, k dom.NodeKind) bool {
	for _, x := range kk {
		if x == k {
			return true
		}
	}
	return false
}

// --- Default transformer tables -------------------------------------------

var (
	headingMatch   = regexp.MustCompile(`^(#{1,6})\s`)
	quoteMatch     = regexp.MustCompile(`^>\s`)
	codeMatch      = regexp.MustCompile("^```(\\w{1,10})?\\s")
	unorderedMatch = regexp.MustCompile(`^(\s*)[-*+]\s`)
	orderedMatch   = regexp.MustCompile(`^(\s*)(\d{1,})\.\s`)
	dividerMatch   = regexp.MustCompile(`^(---|\*\*\*|___)\s?$`)
	tableRowMatch  = regexp.MustCompile(`^\|(.+)\|\s?$`)
)

// DefaultBlockTransformers returns a fresh copy of the default block table:
// ATX headings, quotes, fenced code, unordered and ordered lists, thematic
// breaks and pipe tables. Callers may reorder, drop or extend the copy
// before building a registry from it.
func DefaultBlockTransformers() []BlockTransformer {
	return []BlockTransformer{
		{
			Matcher:  headingMatch,
			Importer: importHeading,
			Exporter: exportHeading,
			Kinds:    []dom.NodeKind{dom.Heading},
		},
		{
			Matcher:  quoteMatch,
			Importer: importQuote,
			Exporter: exportQuote,
			Kinds:    []dom.NodeKind{dom.Quote},
		},
		{
			Matcher:  codeMatch,
			Importer: importCodeBlock,
			Exporter: exportCodeBlock,
			Kinds:    []dom.NodeKind{dom.CodeBlock},
		},
		{
			Matcher:  unorderedMatch,
			Importer: importUnorderedList,
			Exporter: exportList,
			Kinds:    []dom.NodeKind{dom.List, dom.ListItem},
		},
		{
			Matcher:  orderedMatch,
			Importer: importOrderedList,
			Exporter: exportList,
			Kinds:    []dom.NodeKind{dom.List, dom.ListItem},
		},
		{
			Matcher:  dividerMatch,
			Importer: importDivider,
			Exporter: exportDivider,
			Kinds:    []dom.NodeKind{dom.Divider},
		},
		{
			Matcher:  tableRowMatch,
			Importer: importTableRow,
			Exporter: exportTable,
			Kinds:    []dom.NodeKind{dom.Table, dom.TableRow, dom.TableCell},
		},
	}
}

// DefaultTextTransformers returns a fresh copy of the default text table.
// Combined tags precede the plain ones so that "***" is never torn apart
// into a bold match leaving stray asterisks.
func DefaultTextTransformers() []TextTransformer {
	return []TextTransformer{
		{Formats: dom.Formats(dom.Code), Tag: "`"},
		{Formats: dom.Formats(dom.Bold, dom.Italic), Tag: "***"},
		{Formats: dom.Formats(dom.Bold, dom.Italic), Tag: "___"},
		{Formats: dom.Formats(dom.Bold), Tag: "**"},
		{Formats: dom.Formats(dom.Bold), Tag: "__"},
		{Formats: dom.Formats(dom.Italic), Tag: "*"},
		{Formats: dom.Formats(dom.Italic), Tag: "_"},
		{Formats: dom.Formats(dom.Strikethrough), Tag: "~~"},
	}
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the shared registry built from the default transformer
// tables.
func Default() *Registry {
	defaultOnce.Do(func() {
		r, err := NewRegistry(DefaultBlockTransformers(), DefaultTextTransformers())
		if err != nil {
			panic(err) // the static tables always validate
		}
		defaultReg = r
	})
	return defaultReg
}
