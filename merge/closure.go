package merge

import (
	"github.com/npillmayer/ufomerge/core/ufo"
)

// closeGlyphSet grows a set of donor glyph names until it is closed
// under component references: a glyph in the set pulls in every glyph
// its components are built from, transitively. With layout enabled the
// set is additionally closed under rule application, i.e. glyphs the
// donor's substitution rules can produce from set members join the set,
// which in turn may pull in further components.
//
// Names referenced but not present in the donor never enter the set;
// whether they resolve elsewhere is decided during merge validation.
// The result is independent of processing order.
func closeGlyphSet(donor *ufo.Font, seed map[string]bool, layout bool) map[string]bool {
	closed := make(map[string]bool, len(seed))
	todo := make([]string, 0, len(seed))
	for _, name := range donor.GlyphNames() { // donor order keeps traces readable
		if seed[name] {
			closed[name] = true
			todo = append(todo, name)
		}
	}
	for {
		for len(todo) > 0 {
			name := todo[len(todo)-1]
			todo = todo[:len(todo)-1]
			glyph, ok := donor.Glyph(name)
			if !ok {
				continue
			}
			for _, base := range glyph.ComponentBases() {
				if closed[base] {
					continue
				}
				if !donor.HasGlyph(base) {
					tracer().Debugf("glyph %q references %q, which the donor does not have", name, base)
					continue
				}
				tracer().Debugf("glyph %q pulls in component base %q", name, base)
				closed[base] = true
				todo = append(todo, base)
			}
		}
		if !layout {
			break
		}
		produced := evaluateRules(donor.Features, closed)
		grown := false
		for _, name := range produced {
			if closed[name] {
				continue
			}
			if !donor.HasGlyph(name) {
				tracer().Debugf("layout closure produces %q, which the donor does not have, skipped", name)
				continue
			}
			tracer().Debugf("layout closure pulls in %q", name)
			closed[name] = true
			todo = append(todo, name)
			grown = true
		}
		if !grown {
			break
		}
	}
	tracer().Infof("closed glyph set has %d glyphs, grown from %d selected", len(closed), len(seed))
	return closed
}
