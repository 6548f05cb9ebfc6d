package ufo

import (
	"fmt"

	"github.com/benoitkugler/textlayout/fonts/glyphsnames"
	"golang.org/x/text/unicode/runenames"
)

// CodepointMap maps Unicode scalar values to the glyphs claiming them,
// claimants listed in glyph order. It is derived from a font on demand
// and does not track later mutation.
type CodepointMap map[rune][]string

// CodepointMap derives the codepoint mapping of the font. A glyph
// contributes its explicit codepoints; a glyph without any contributes
// the codepoint implied by its name, if the conventional glyph-name
// registries know one ('alpha' implies U+03B1, 'uni0915' implies U+0915).
func (f *Font) CodepointMap() CodepointMap {
	m := make(CodepointMap)
	f.EachGlyph(func(g *Glyph) {
		codepoints := g.Unicodes
		if len(codepoints) == 0 {
			if r, ok := glyphsnames.GlyphToRune(g.Name); ok {
				codepoints = []rune{r}
			}
		}
		for _, cp := range codepoints {
			m[cp] = append(m[cp], g.Name)
		}
	})
	return m
}

// Lookup resolves a codepoint to a single glyph name. With multiple
// claimants the first in glyph order wins; the tie is traced.
func (m CodepointMap) Lookup(cp rune) (string, bool) {
	claimants := m[cp]
	if len(claimants) == 0 {
		return "", false
	}
	if len(claimants) > 1 {
		tracer().Debugf("codepoint %s claimed by %d glyphs, using %s",
			CodepointString(cp), len(claimants), claimants[0])
	}
	return claimants[0], true
}

// CodepointString formats a codepoint the way type designers read them,
// U+XXXX plus the character name, e.g. "U+03B1 GREEK SMALL LETTER ALPHA".
func CodepointString(cp rune) string {
	if name := runenames.Name(cp); name != "" {
		return fmt.Sprintf("U+%04X %s", cp, name)
	}
	return fmt.Sprintf("U+%04X", cp)
}
