/*
Package ufo provides an in-memory model for font sources in the Unified
Font Object flavour. Intended audience for this package are:

▪︎ tools that merge, subset or otherwise recombine font sources before
they ever reach a font compiler

▪︎ build pipelines that need to inspect or rewrite glyph inventories,
kerning or layout features of a source, without interpreting outlines

Package `ufo` is deliberately not a font editor. A Glyph carries its
contours, components, anchors and metadata, but the package offers no
operations on outline geometry beyond uniform scaling. If you need to
remove overlap or interpolate masters, you are in the wrong place; this
package treats outlines as freight, not as drawings.

The one structural obligation it does take seriously is order. Font
sources are ordered: the sequence of glyphs in a source is a contract
(sparse binary formats may reorder, sources may not), and layout rules
fire in the order they are written. The glyph table of a Font therefore
preserves insertion order, and clients iterate it through GlyphNames
rather than over an unordered map. Everything downstream, from glyph
selection to merging, relies on this and stays deterministic without
sorting anything.

Codepoints are the second obligation. A glyph may claim any number of
Unicode scalar values, and a source as a whole induces a mapping from
codepoint to claimant glyphs. That mapping is derived on demand (see
CodepointMap) and never stored, so it cannot rot while glyphs come and
go. Glyphs without explicit codepoints fall back to the conventional
glyph-name registries, so a glyph named 'alpha' is findable by U+03B1
even in sources too lazy to declare it.

Sub-packages handle the layout rule tree (feat) and reading/writing the
on-disk directory structure (ufodir).

# Status

Work in progress, though the model has been stable for a while. Glyph
layers beyond the default layer are carried as plain glyph sets;
per-layer metadata (layerinfo.plist) is not represented yet.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package ufo

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'ufomerge.ufo'
func tracer() tracing.Trace {
	return tracing.Select("ufomerge.ufo")
}
