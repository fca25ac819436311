package dom

import (
	"strings"
	"unicode"

	"github.com/npillmayer/uax/grapheme"
	"github.com/npillmayer/uax/segment"
	"github.com/npillmayer/uax/uax29"
)

// Stats holds the word-level statistics host editors display in their
// status bar. Words follow Unicode Annex #29 word boundaries; segments
// without a letter or digit (punctuation, white space) do not count.
// Graphemes are user-perceived characters.
type Stats struct {
	Blocks    int
	Words     int
	Graphemes int
}

type statsPipeline struct {
	words     *segment.Segmenter
	graphemes *segment.Segmenter
}

func newStatsPipeline() *statsPipeline {
	grapheme.SetupGraphemeClasses()
	return &statsPipeline{
		words:     segment.NewSegmenter(uax29.NewWordBreaker(1)),
		graphemes: segment.NewSegmenter(grapheme.NewBreaker(1)),
	}
}

func (p *statsPipeline) count(text string, st *Stats) {
	p.words.Init(strings.NewReader(text))
	for p.words.Next() {
		if isWord(p.words.Text()) {
			st.Words++
		}
	}
	p.graphemes.Init(strings.NewReader(text))
	for p.graphemes.Next() {
		if p.graphemes.Text() != "\n" {
			st.Graphemes++
		}
	}
}

func isWord(segment string) bool {
	for _, r := range segment {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsNumber(r) {
			return true
		}
	}
	return false
}

// DocumentStats counts blocks, words and graphemes over the whole document.
func DocumentStats(d *Document) Stats {
	pipeline := newStatsPipeline()
	var st Stats
	for _, block := range d.Root().Children() {
		st.Blocks++
		pipeline.count(block.InnerText(), &st)
	}
	tracer().Debugf("document stats: %d blocks, %d words", st.Blocks, st.Words)
	return st
}

// BlockStats counts words and graphemes within a single block.
func BlockStats(block *Node) Stats {
	pipeline := newStatsPipeline()
	st := Stats{Blocks: 1}
	pipeline.count(block.InnerText(), &st)
	return st
}
