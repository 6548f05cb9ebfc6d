/*
Package feat models layout rules of a font source as a tree: a Table of
Features, each an ordered list of Lookups, each an ordered list of Rules.
Rules reference glyphs by name and nothing else; there are no class
handles, no indices into remote lists, no binary offsets. Whoever has
merged GSUB lookup indices across two compiled fonts will appreciate the
difference.

Rule is a closed sum: exactly four variants exist (SimpleSub,
LigatureSub, ChainedRule, Positioning) and clients are expected to
switch over all of them. The zoo of OpenType lookup types collapses
onto these four surprisingly well as long as one stays on the source
level; what does not fit (mark attachment, cursive connection) is out
of scope for this module and rejected during parsing.

Chained rules do not substitute or position anything themselves. They
name lookups to be applied at marked positions, and those lookups live
either inline in a feature or in the table's pool of standalone lookups.
References are by lookup name and resolved by Validate; a dangling
reference is a malformed table, not a silent no-op.

The package reads and writes the customary feature-file syntax (Parse,
Table.Fea) for the subset of the language the four variants cover.
Parsing resolves named glyph classes immediately, so '@VOWELS' never
survives into the tree. Printing is deterministic: the same table always
yields the same text.

# Status

The supported feature-syntax subset is driven by what merging tools
actually encounter in source fonts. Alternate and multiple substitution
are currently rejected rather than modelled; both would be new Rule
variants and a compatibility break for exhaustive switches.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package feat

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'ufomerge.ufo'
func tracer() tracing.Trace {
	return tracing.Select("ufomerge.ufo")
}
