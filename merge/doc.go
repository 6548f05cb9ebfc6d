/*
Package merge merges glyphs and layout rules from one font source into
another. Clients of this package will, amongst other, be:

▪︎ build pipelines that assemble a shipping font from several sources,
e.g. pulling Cyrillic extensions or currency glyphs from a sibling design

▪︎ tools that cut a subset source out of a large design, keeping only the
glyphs (and the layout rules about them) a product actually needs

Merging sounds like copying and mostly is, but the interesting work
happens before any copying: a user asks for glyphs by name, name prefix
or codepoint, and that selection has to grow into a set that is actually
mergeable. A glyph built from components drags its base glyphs along, a
ligature substitution may drag its ligature along, and whether the latter
happens is a matter of policy, not of correctness. The closure over these
references is computed first, the donor's layout rules are then filtered
down to the rules fully expressible in the closed set, and only then does
anything get written into the recipient. An error during selection or
validation therefore leaves the recipient untouched.

The package exposes two operations. Merge splices selected glyphs of a
donor font into a recipient, governed by a Policy for existing glyphs
(skip or replace) and for layout rules (subset, closure, or ignore).
Subset produces a fresh font containing a closed subset of a single
source, which is merely a merge into an empty recipient.

Fonts are represented by the core/ufo package; layout rules by
core/ufo/feat. The donor is never mutated, so merging from one donor
into several recipients concurrently is fine. Neither Merge nor Subset
spawns goroutines.

# Status

Work in progress. Merging fonts is a game of edge cases; most of them
are edges of other people's sources, which is the worst kind. Kerning
groups and the public.* lib conventions are handled, bracket layers and
designspace-level merging are not.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package merge

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'ufomerge.merge'
func tracer() tracing.Trace {
	return tracing.Select("ufomerge.merge")
}
