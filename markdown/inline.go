package markdown

import (
	"regexp"

	"github.com/npillmayer/blockdown/dom"
)

var linkMatch = regexp.MustCompile(`\[([^\[\]]+)\]\(([^()\s]+)\)`)

// resolveInline applies the text transformers and link syntax to a text
// node, splitting it into formatted sibling runs. The leftmost successfully
// paired delimiter wins; its content is resolved recursively (except inline
// code, which stays verbatim), as are the surrounding remainders. Only when
// no delimiter pairs anywhere does link resolution take over.
func (r *Registry) resolveInline(d *dom.Document, n *dom.Node) {
	if r.openTags == nil {
		r.resolveLinks(d, n)
		return
	}
	s := n.Text()
	t, loc := r.findLeftmostPair(s)
	if t == nil {
		r.resolveLinks(d, n)
		return
	}
	start, end := loc[0], loc[1]
	content := s[loc[2]:loc[3]]
	segs := d.SplitText(n, start, end)
	var lead, mid, rest *dom.Node
	switch {
	case start == 0 && end == len(s):
		mid = n
	case start == 0:
		mid, rest = segs[0], segs[1]
	default:
		lead, mid = segs[0], segs[1]
		if len(segs) > 2 {
			rest = segs[2]
		}
	}
	d.SetText(mid, content)
	fs := mid.Formats().With(t.Formats)
	d.SetFormats(mid, fs)
	if !fs.Contains(dom.Code) {
		r.resolveInline(d, mid)
	}
	if lead != nil {
		r.resolveInline(d, lead)
	}
	if rest != nil {
		r.resolveInline(d, rest)
	}
}

// findLeftmostPair locates the leftmost successfully paired delimiter.
// Candidate occurrences come from the openTags alternation in left-to-right
// order; the first candidate whose tag-specific full-match regex succeeds
// against the whole string wins, so the result is the leftmost pair, not
// necessarily the outermost nesting.
func (r *Registry) findLeftmostPair(s string) (*TextTransformer, [4]int) {
	for _, occ := range r.openTags.FindAllStringIndex(s, -1) {
		t := r.byTag[s[occ[0]:occ[1]]]
		if t == nil {
			continue
		}
		if loc, ok := findTagMatch(r.matchByTag[t.Tag], t.Tag, s); ok {
			return t, loc
		}
	}
	return nil, [4]int{}
}

// findTagMatch runs a tag's full-match regex over s. A match whose closing
// delimiter is immediately followed by the delimiter character again is part
// of a longer delimiter; the scan then restarts one character further right.
// Returns {start, end, content start, content end}.
func findTagMatch(re *regexp.Regexp, tag string, s string) ([4]int, bool) {
	last := tag[len(tag)-1]
	for from := 0; from+2*len(tag) < len(s)+1; {
		m := re.FindStringSubmatchIndex(s[from:])
		if m == nil {
			break
		}
		start, end := from+m[0], from+m[1]
		if end >= len(s) || s[end] != last {
			return [4]int{start, end, from + m[2], from + m[3]}, true
		}
		from = start + 1
	}
	return [4]int{}, false
}

// resolveLinks repeatedly splits [text](url) out of a text run. Each
// occurrence becomes a link node wrapping a text node which inherits the
// run's formats; scanning continues over the remainder.
func (r *Registry) resolveLinks(d *dom.Document, n *dom.Node) {
	for n != nil {
		s := n.Text()
		m := linkMatch.FindStringSubmatchIndex(s)
		if m == nil {
			return
		}
		label := s[m[2]:m[3]]
		url := s[m[4]:m[5]]
		segs := d.SplitText(n, m[0], m[1])
		var mid, rest *dom.Node
		switch {
		case m[0] == 0 && m[1] == len(s):
			mid = n
		case m[0] == 0:
			mid, rest = segs[0], segs[1]
		default:
			mid = segs[1]
			if len(segs) > 2 {
				rest = segs[2]
			}
		}
		link := d.NewLink(url)
		txt := d.NewText(label)
		d.AppendChild(link, txt)
		d.SetFormats(txt, mid.Formats())
		d.Replace(mid, link)
		n = rest
	}
}
