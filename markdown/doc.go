/*
Package markdown converts between Markdown text and the blockdown document
model, in both directions and in two modes.

Bulk conversion reads a complete Markdown source into a document tree
(Import) or serializes a document tree back to Markdown (Export). Live
conversion (InstallLive) watches a document for user edits and rewrites
Markdown shorthand as the user types it: "# " at the start of a paragraph
becomes a heading, "**bold**" becomes bold text the moment the trailing
asterisks are typed, and so on.

All four directions are driven by a single Registry of transformers.
A block transformer pairs a line pattern with functions that build and
serialize one family of block nodes; a text transformer ties a delimiter
tag such as "**" to a set of character formats. Clients may assemble their
own registry to change, reorder or extend the recognized syntax; Default
returns a registry covering the common constructs.

______________________________________________________________________

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2022–2023 Norbert Pillmayer <norbert@pillmayer.com>

*/
package markdown

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'blockdown.markdown'.
func tracer() tracing.Trace {
	return tracing.Select("blockdown.markdown")
}
