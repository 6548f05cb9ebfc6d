package merge

import (
	"strings"

	"github.com/derekparker/trie"

	"github.com/npillmayer/ufomerge/core/ufo"
)

// GlyphSelection describes which donor glyphs a merge should pick up.
// Names are literal glyph names or prefix patterns with a trailing '*'
// (the pattern "*" alone matches every glyph). Codepoints select the
// glyphs claiming them. Exclude removes names from the result, however
// they got in; excluding a name that was never selected is a no-op.
//
// An empty selection, no names and no codepoints, selects ALL donor
// glyphs. Exclusions still apply.
type GlyphSelection struct {
	Names      []string
	Codepoints []rune
	Exclude    []string
}

// selectGlyphs resolves a selection against the donor into a set of
// donor glyph names. Neither the donor nor the selection is mutated.
func selectGlyphs(donor *ufo.Font, sel GlyphSelection) (map[string]bool, error) {
	selected := make(map[string]bool)
	if len(sel.Names) == 0 && len(sel.Codepoints) == 0 {
		for _, name := range donor.GlyphNames() {
			selected[name] = true
		}
		tracer().Debugf("empty selection, starting from all %d donor glyphs", len(selected))
	}
	if len(sel.Names) > 0 {
		names := trie.New()
		for _, name := range donor.GlyphNames() {
			names.Add(name, nil)
		}
		for _, entry := range sel.Names {
			if strings.HasSuffix(entry, "*") {
				matches := names.PrefixSearch(strings.TrimSuffix(entry, "*"))
				if len(matches) == 0 {
					return nil, &UnknownGlyphError{Name: entry}
				}
				tracer().Debugf("pattern %q matches %d donor glyphs", entry, len(matches))
				for _, m := range matches {
					selected[m] = true
				}
				continue
			}
			if !donor.HasGlyph(entry) {
				return nil, &UnknownGlyphError{Name: entry}
			}
			selected[entry] = true
		}
	}
	if len(sel.Codepoints) > 0 {
		cmap := donor.CodepointMap()
		for _, cp := range sel.Codepoints {
			name, ok := cmap.Lookup(cp)
			if !ok {
				return nil, &UnmappedCodepointError{Codepoint: cp}
			}
			selected[name] = true
		}
	}
	for _, name := range sel.Exclude {
		delete(selected, name)
	}
	return selected, nil
}
