package ufo

import (
	"reflect"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func TestGlyphOrder(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ufomerge.ufo")
	defer teardown()
	//
	font := NewFont("Test")
	font.SetGlyph(&Glyph{Name: "C"})
	font.SetGlyph(&Glyph{Name: "A"})
	font.SetGlyph(&Glyph{Name: "B"})
	if names := font.GlyphNames(); !reflect.DeepEqual(names, []string{"C", "A", "B"}) {
		t.Errorf("expected insertion order C A B, got %v", names)
	}
	// replacing keeps the slot
	font.SetGlyph(&Glyph{Name: "A", Width: 42})
	if names := font.GlyphNames(); !reflect.DeepEqual(names, []string{"C", "A", "B"}) {
		t.Errorf("expected replaced glyph to keep its slot, got %v", names)
	}
	if g, ok := font.Glyph("A"); !ok || g.Width != 42 {
		t.Errorf("expected replacement glyph to be stored, got %v", g)
	}
	font.RemoveGlyph("C")
	font.RemoveGlyph("no-such-glyph")
	if names := font.GlyphNames(); !reflect.DeepEqual(names, []string{"A", "B"}) {
		t.Errorf("expected A B after removal, got %v", names)
	}
}

func TestSetGlyphRejectsNameless(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ufomerge.ufo")
	defer teardown()
	//
	font := NewFont("Test")
	font.SetGlyph(&Glyph{})
	font.SetGlyph(nil)
	if font.NumGlyphs() != 0 {
		t.Errorf("expected nameless glyphs to be dropped, have %d glyphs", font.NumGlyphs())
	}
}

func TestFontClone(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ufomerge.ufo")
	defer teardown()
	//
	font := NewFont("Test")
	font.SetGlyph(&Glyph{
		Name:     "A",
		Width:    500,
		Contours: []Contour{{Points: []Point{{X: 1, Y: 2, Type: Move}}}},
	})
	font.Kerning[KernPair{First: "A", Second: "V"}] = -40
	font.Groups["public.kern1.A"] = []string{"A"}
	font.Lib["public.glyphOrder"] = []interface{}{"A"}
	//
	clone := font.Clone()
	g, _ := clone.Glyph("A")
	g.Contours[0].Points[0].X = 99
	clone.Kerning[KernPair{First: "A", Second: "V"}] = 0
	clone.Groups["public.kern1.A"][0] = "B"
	clone.Lib["public.glyphOrder"].([]interface{})[0] = "B"
	//
	orig, _ := font.Glyph("A")
	if orig.Contours[0].Points[0].X != 1 {
		t.Error("clone shares contour storage with the original")
	}
	if font.Kerning[KernPair{First: "A", Second: "V"}] != -40 {
		t.Error("clone shares kerning storage with the original")
	}
	if font.Groups["public.kern1.A"][0] != "A" {
		t.Error("clone shares group storage with the original")
	}
	if font.Lib.StringSlice("public.glyphOrder")[0] != "A" {
		t.Error("clone shares lib storage with the original")
	}
}

func TestFontLayers(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ufomerge.ufo")
	defer teardown()
	//
	font := NewFont("Test")
	font.SetGlyph(&Glyph{Name: "A", Width: 500})
	background := NewLayer("public.background")
	background.SetGlyph(&Glyph{Name: "A", Width: 480})
	background.SetGlyph(&Glyph{})
	font.Layers = append(font.Layers, background)
	//
	if font.Layer("no-such-layer") != nil {
		t.Error("expected nil for an unknown layer name")
	}
	layer := font.Layer("public.background")
	if layer == nil || layer.NumGlyphs() != 1 {
		t.Fatalf("expected the background layer with one glyph, got %v", layer)
	}
	if g, ok := layer.Glyph("A"); !ok || g.Width != 480 {
		t.Errorf("expected the layer's own glyph version, got %v", g)
	}
	// the default layer is not affected by layer glyphs
	if g, _ := font.Glyph("A"); g.Width != 500 {
		t.Errorf("expected the default glyph untouched, got %v", g)
	}
	//
	clone := font.Clone()
	g, _ := clone.Layer("public.background").Glyph("A")
	g.Width = 1
	if g, _ := layer.Glyph("A"); g.Width != 480 {
		t.Error("clone shares layer storage with the original")
	}
}

func TestLibStringSlice(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ufomerge.ufo")
	defer teardown()
	//
	lib := Lib{
		"mixed":  []interface{}{"a", 7, "b"},
		"plain":  []string{"x", "y"},
		"scalar": "nope",
	}
	if s := lib.StringSlice("mixed"); !reflect.DeepEqual(s, []string{"a", "b"}) {
		t.Errorf("expected non-strings to be skipped, got %v", s)
	}
	if s := lib.StringSlice("plain"); !reflect.DeepEqual(s, []string{"x", "y"}) {
		t.Errorf("expected string slice passthrough, got %v", s)
	}
	if s := lib.StringSlice("scalar"); s != nil {
		t.Errorf("expected nil for scalar entry, got %v", s)
	}
	if s := lib.StringSlice("absent"); s != nil {
		t.Errorf("expected nil for absent entry, got %v", s)
	}
}

func TestGlyphClone(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ufomerge.ufo")
	defer teardown()
	//
	g := &Glyph{
		Name:       "Aacute",
		Unicodes:   []rune{0xC1},
		Components: []Component{{Base: "A", Transform: Identity}},
		Anchors:    []Anchor{{Name: "top", X: 100, Y: 200}},
		Lib:        Lib{"k": "v"},
	}
	c := g.Clone()
	c.Unicodes[0] = 'x'
	c.Components[0].Base = "B"
	c.Anchors[0].X = 0
	c.Lib["k"] = "changed"
	if g.Unicodes[0] != 0xC1 || g.Components[0].Base != "A" || g.Anchors[0].X != 100 {
		t.Error("glyph clone shares storage with the original")
	}
	if g.Lib["k"] != "v" {
		t.Error("glyph clone shares lib storage with the original")
	}
	if bases := g.ComponentBases(); !reflect.DeepEqual(bases, []string{"A"}) {
		t.Errorf("expected component bases [A], got %v", bases)
	}
}

func TestTransformHelpers(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ufomerge.ufo")
	defer teardown()
	//
	if !Identity.IsIdentity() {
		t.Error("Identity is expected to be the identity")
	}
	if Offset(10, 0).IsIdentity() {
		t.Error("a translation is not the identity")
	}
	if off := Offset(10, -5); off.DX != 10 || off.DY != -5 || off.XX != 1 || off.YY != 1 {
		t.Errorf("unexpected translation %v", off)
	}
}
