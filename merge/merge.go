package merge

import (
	"sort"

	"github.com/npillmayer/ufomerge/core/ufo"
	"github.com/npillmayer/ufomerge/core/ufo/feat"
)

// Merge merges the selected glyphs of donor into recipient, together
// with the kerning, metadata, layer drawings and layout rules concerning
// them, governed by policy. The selection is closed over component
// references first, and under the LayoutClosure policy over rule outputs
// as well.
//
// The recipient is mutated in place; the donor never is. On error the
// recipient is untouched: selection, closure and validation all happen
// before the first write.
func Merge(recipient, donor *ufo.Font, sel GlyphSelection, policy Policy) error {
	tracer().Infof("merging %q into %q, %v + %v", donor.Info.FamilyName,
		recipient.Info.FamilyName, policy.Existing, policy.Layout)
	selected, err := selectGlyphs(donor, sel)
	if err != nil {
		return err
	}
	if policy.Layout != IgnoreLayout {
		// closure and subsetting both walk the donor rules, neither
		// survives a structurally broken table
		if err := donor.Features.Validate(); err != nil {
			return err
		}
	}
	glyphSet := closeGlyphSet(donor, selected, policy.Layout == LayoutClosure)
	if err := validateComponents(recipient, donor, glyphSet); err != nil {
		return err
	}
	var filtered *feat.Table
	if policy.Layout != IgnoreLayout {
		// donor rules may legally reference glyphs the recipient already has
		visible := make(map[string]bool, len(glyphSet)+recipient.NumGlyphs())
		for name := range glyphSet {
			visible[name] = true
		}
		for _, name := range recipient.GlyphNames() {
			visible[name] = true
		}
		if filtered, err = subsetTable(donor.Features, visible); err != nil {
			return err
		}
	}

	spliceGlyphs(recipient, donor, glyphSet, policy)
	spliceLayers(recipient, donor, glyphSet, policy)
	spliceKerning(recipient, donor, glyphSet, policy)
	spliceLib(recipient, donor, glyphSet, policy)
	spliceLayout(recipient, filtered)
	return nil
}

// Subset returns a new font containing the glyphs of font named by
// glyphs (literal names or trailing-'*' patterns), closed over
// component references, with kerning, metadata and layout rules
// restricted accordingly. The font-wide attributes and the layer
// structure travel along. The input font is not mutated.
func Subset(font *ufo.Font, glyphs []string) (*ufo.Font, error) {
	subset := ufo.NewFont(font.Info.FamilyName)
	subset.Info = font.Info
	subset.Info.Raw = font.Info.Raw.Clone()
	for _, layer := range font.Layers {
		// spliceLayers only fills layers the recipient already has
		subset.Layers = append(subset.Layers, ufo.NewLayer(layer.Name))
	}
	err := Merge(subset, font, GlyphSelection{Names: glyphs},
		Policy{Existing: ReplaceExisting, Layout: SubsetLayout})
	if err != nil {
		return nil, err
	}
	return subset, nil
}

// validateComponents checks that every component of every glyph about to
// be merged will resolve afterwards, either in the merged set or among
// the recipient's glyphs.
func validateComponents(recipient, donor *ufo.Font, glyphSet map[string]bool) error {
	var fail error
	donor.EachGlyph(func(g *ufo.Glyph) {
		if fail != nil || !glyphSet[g.Name] {
			return
		}
		for _, base := range g.ComponentBases() {
			if glyphSet[base] || recipient.HasGlyph(base) {
				continue
			}
			fail = &DanglingComponentError{Glyph: g.Name, Missing: base}
			return
		}
	})
	return fail
}

// spliceGlyphs copies the glyphs of the merged set into the recipient,
// in donor glyph order, as deep copies. Name collisions follow policy.
func spliceGlyphs(recipient, donor *ufo.Font, glyphSet map[string]bool, policy Policy) {
	added, replaced, kept := 0, 0, 0
	donor.EachGlyph(func(g *ufo.Glyph) {
		if !glyphSet[g.Name] {
			return
		}
		if recipient.HasGlyph(g.Name) {
			if policy.Existing == SkipExisting {
				tracer().Debugf("glyph %q already present, kept", g.Name)
				kept++
				return
			}
			replaced++
		} else {
			added++
		}
		recipient.SetGlyph(g.Clone())
	})
	tracer().Infof("glyphs: %d added, %d replaced, %d kept", added, replaced, kept)
}

// spliceLayers copies the merged glyphs' versions in the donor's
// non-default layers into the recipient layers of the same name. Donor
// layers the recipient does not have are skipped, not created.
func spliceLayers(recipient, donor *ufo.Font, glyphSet map[string]bool, policy Policy) {
	for _, donorLayer := range donor.Layers {
		layer := recipient.Layer(donorLayer.Name)
		if layer == nil {
			tracer().Infof("recipient has no layer %q, donor layer skipped", donorLayer.Name)
			continue
		}
		carried := 0
		donorLayer.EachGlyph(func(g *ufo.Glyph) {
			if !glyphSet[g.Name] {
				return
			}
			if layer.HasGlyph(g.Name) && policy.Existing == SkipExisting {
				return
			}
			layer.SetGlyph(g.Clone())
			carried++
		})
		if carried > 0 {
			tracer().Debugf("layer %q: %d glyphs carried over", donorLayer.Name, carried)
		}
	}
}

// spliceLib merges the donor's metadata key by key, following policy.
// Four conventional keys carry per-glyph information and merge
// structurally instead, restricted to the merged set.
func spliceLib(recipient, donor *ufo.Font, glyphSet map[string]bool, policy Policy) {
	if recipient.Lib == nil {
		recipient.Lib = make(ufo.Lib)
	}
	donorLib := donor.Lib.Clone() // moved values must not alias donor storage
	for key, value := range donorLib {
		switch key {
		case "public.glyphOrder":
			mergeGlyphOrder(recipient, donor, glyphSet)
		case "public.postscriptNames", "public.openTypeCategories":
			mergeGlyphDict(recipient, key, value, glyphSet, policy)
		case "public.skipExportGlyphs":
			mergeSkipExport(recipient, donor, glyphSet)
		default:
			if _, exists := recipient.Lib[key]; exists && policy.Existing == SkipExisting {
				continue
			}
			recipient.Lib[key] = value
		}
	}
}

// mergeGlyphOrder appends the donor's order entries for merged glyphs
// that the recipient's order does not list yet, in donor order.
func mergeGlyphOrder(recipient, donor *ufo.Font, glyphSet map[string]bool) {
	existing := recipient.Lib.StringSlice("public.glyphOrder")
	listed := make(map[string]bool, len(existing))
	order := make([]string, 0, len(existing))
	for _, name := range existing {
		listed[name] = true
		order = append(order, name)
	}
	for _, name := range donor.Lib.StringSlice("public.glyphOrder") {
		if glyphSet[name] && !listed[name] {
			order = append(order, name)
			listed[name] = true
		}
	}
	recipient.Lib["public.glyphOrder"] = order
}

// mergeGlyphDict folds one of the conventional glyph-keyed dicts, the
// production name mapping or the category mapping, into the recipient's,
// restricted to the merged glyphs.
func mergeGlyphDict(recipient *ufo.Font, key string, donorValue interface{}, glyphSet map[string]bool, policy Policy) {
	donorEntries, ok := donorValue.(map[string]interface{})
	if !ok {
		tracer().Debugf("donor %s is not a dict, ignored", key)
		return
	}
	entries, _ := recipient.Lib[key].(map[string]interface{})
	if entries == nil {
		entries = make(map[string]interface{}, len(donorEntries))
	}
	for glyph, value := range donorEntries {
		if !glyphSet[glyph] {
			continue
		}
		if _, exists := entries[glyph]; exists && policy.Existing == SkipExisting {
			continue
		}
		entries[glyph] = value
	}
	recipient.Lib[key] = entries
}

// mergeSkipExport unions the donor's skip-export list for merged glyphs
// into the recipient's, sorted for determinism.
func mergeSkipExport(recipient, donor *ufo.Font, glyphSet map[string]bool) {
	skip := make(map[string]bool)
	for _, name := range recipient.Lib.StringSlice("public.skipExportGlyphs") {
		skip[name] = true
	}
	for _, name := range donor.Lib.StringSlice("public.skipExportGlyphs") {
		if glyphSet[name] {
			skip[name] = true
		}
	}
	names := make([]string, 0, len(skip))
	for name := range skip {
		names = append(names, name)
	}
	sort.Strings(names)
	recipient.Lib["public.skipExportGlyphs"] = names
}
