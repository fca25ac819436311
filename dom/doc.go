/*
Package dom implements the document model for block-structured rich text.

A document is a tree of nodes: block-level containers (paragraphs, headings,
quotes, lists, tables, code blocks, dividers), inline containers (links) and
leaves (text runs with a set of character formats, and hard line breaks).
Nodes are a closed tagged variant: one Node type carrying a kind tag plus
per-kind payload fields. Clients dispatch over Node.Kind with exhaustive
switches; new kinds are added by extending the kind enumeration, never by
subclassing.

All mutation goes through a Document and is grouped into transactions.
A transaction collects the set of text nodes it touched and, on commit,
notifies registered listeners together with the current selection and the
transaction's origin. Origins distinguish user edits from history replays
and from transformations the engine itself caused, so that listeners such as
the live Markdown detector can avoid re-triggering on their own output.

______________________________________________________________________

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2022–2023 Norbert Pillmayer <norbert@pillmayer.com>

*/
package dom

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'blockdown.dom'.
func tracer() tracing.Trace {
	return tracing.Select("blockdown.dom")
}
