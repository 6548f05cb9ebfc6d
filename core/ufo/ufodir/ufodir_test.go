package ufodir

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/npillmayer/ufomerge/core"
	"github.com/npillmayer/ufomerge/core/ufo"
	"github.com/npillmayer/ufomerge/core/ufo/feat"
)

func TestGlifFileNames(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ufomerge.ufo")
	defer teardown()
	//
	cases := []struct {
		glyph string
		file  string
	}{
		{"a", "a.glif"},
		{"A", "A_.glif"},
		{"T_H", "T__H_.glif"},
		{".notdef", "_notdef.glif"},
		{"con", "_con.glif"},
		{"a:b", "a_b.glif"},
	}
	for _, c := range cases {
		taken := make(map[string]bool)
		if name := glifFileName(c.glyph, taken); name != c.file {
			t.Errorf("expected file name for %q to be %q, got %q", c.glyph, c.file, name)
		}
	}
}

func TestGlifFileNameClash(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ufomerge.ufo")
	defer teardown()
	//
	taken := make(map[string]bool)
	if name := glifFileName("a_", taken); name != "a_.glif" {
		t.Errorf("expected a_.glif, got %q", name)
	}
	// "A" maps to "A_", clashing with "a_" on case-insensitive filesystems
	if name := glifFileName("A", taken); name != "A__1.glif" {
		t.Errorf("expected clash suffix A__1.glif, got %q", name)
	}
}

func TestRoundtrip(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ufomerge.ufo")
	defer teardown()
	//
	font := buildTestFont(t)
	dir := filepath.Join(t.TempDir(), "Test.ufo")
	if err := Write(font, dir); err != nil {
		t.Fatalf("writing font source failed: %v", err)
	}
	back, err := Read(dir)
	if err != nil {
		t.Fatalf("reading font source back failed: %v", err)
	}
	if !reflect.DeepEqual(back.GlyphNames(), font.GlyphNames()) {
		t.Errorf("expected glyph order %v, got %v", font.GlyphNames(), back.GlyphNames())
	}
	if back.Info.FamilyName != "Test" || back.Info.StyleName != "Regular" {
		t.Errorf("font naming lost, got %q %q", back.Info.FamilyName, back.Info.StyleName)
	}
	if back.Info.UnitsPerEm != 1000 || back.Info.Descender != -200 {
		t.Errorf("font metrics lost, got UPM=%v descender=%v", back.Info.UnitsPerEm, back.Info.Descender)
	}
	if v, ok := back.Info.Raw["openTypeOS2VendorID"]; !ok || v != "TEST" {
		t.Errorf("expected untyped info keys to survive, got %v", v)
	}
	if !reflect.DeepEqual(back.Kerning, font.Kerning) {
		t.Errorf("kerning differs after roundtrip: %v", back.Kerning)
	}
	if !reflect.DeepEqual(back.Groups, font.Groups) {
		t.Errorf("groups differ after roundtrip: %v", back.Groups)
	}
	if v, ok := back.Lib["com.example.test"]; !ok || v != "kept" {
		t.Errorf("expected lib key to survive, got %v", v)
	}
	checkRoundtripGlyphs(t, font, back)
	if len(back.Layers) != 1 || back.Layers[0].Name != "public.background" {
		t.Fatalf("expected the background layer to survive, got %v", back.Layers)
	}
	bg, ok := back.Layers[0].Glyph("B")
	if !ok {
		t.Fatal("glyph B missing from the background layer")
	}
	origBg, _ := font.Layers[0].Glyph("B")
	if !reflect.DeepEqual(bg.Contours, origBg.Contours) {
		t.Errorf("layer contours differ after roundtrip: %v", bg.Contours)
	}
	if back.Features.Fea() != font.Features.Fea() {
		t.Errorf("features differ after roundtrip:\n%s", back.Features.Fea())
	}
}

func checkRoundtripGlyphs(t *testing.T, font, back *ufo.Font) {
	b, ok := back.Glyph("B")
	if !ok {
		t.Fatal("glyph B missing after roundtrip")
	}
	if b.Width != 510 {
		t.Errorf("expected width 510, got %v", b.Width)
	}
	if len(b.Unicodes) != 1 || b.Unicodes[0] != 'B' {
		t.Errorf("expected codepoint U+0042, got %v", b.Unicodes)
	}
	orig, _ := font.Glyph("B")
	if !reflect.DeepEqual(b.Contours, orig.Contours) {
		t.Errorf("contours differ after roundtrip: %v", b.Contours)
	}
	if !reflect.DeepEqual(b.Anchors, orig.Anchors) {
		t.Errorf("anchors differ after roundtrip: %v", b.Anchors)
	}
	acc, ok := back.Glyph("Bacute")
	if !ok {
		t.Fatal("glyph Bacute missing after roundtrip")
	}
	origAcc, _ := font.Glyph("Bacute")
	if !reflect.DeepEqual(acc.Components, origAcc.Components) {
		t.Errorf("components differ after roundtrip: %v", acc.Components)
	}
	if v, ok := acc.Lib["public.markColor"]; !ok || v != "1,0,0,1" {
		t.Errorf("expected glyph lib to survive, got %v", v)
	}
}

func TestWriteRebuildsGlyphLayer(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ufomerge.ufo")
	defer teardown()
	//
	font := buildTestFont(t)
	dir := filepath.Join(t.TempDir(), "Test.ufo")
	if err := Write(font, dir); err != nil {
		t.Fatalf("writing font source failed: %v", err)
	}
	font.RemoveGlyph("acutecomb")
	font.RemoveGlyph("Bacute")
	if err := Write(font, dir); err != nil {
		t.Fatalf("rewriting font source failed: %v", err)
	}
	back, err := Read(dir)
	if err != nil {
		t.Fatalf("reading font source back failed: %v", err)
	}
	if back.NumGlyphs() != 2 || back.HasGlyph("Bacute") {
		t.Errorf("expected stale glyphs to be gone, got %v", back.GlyphNames())
	}
}

func TestWriteDropsRemovedLayers(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ufomerge.ufo")
	defer teardown()
	//
	font := buildTestFont(t)
	dir := filepath.Join(t.TempDir(), "Test.ufo")
	if err := Write(font, dir); err != nil {
		t.Fatalf("writing font source failed: %v", err)
	}
	font.Layers = nil
	if err := Write(font, dir); err != nil {
		t.Fatalf("rewriting font source failed: %v", err)
	}
	back, err := Read(dir)
	if err != nil {
		t.Fatalf("reading font source back failed: %v", err)
	}
	if len(back.Layers) != 0 {
		t.Errorf("expected the dropped layer to leave no trace, got %v", back.Layers)
	}
	if _, err := os.Stat(filepath.Join(dir, "glyphs.public.background")); !os.IsNotExist(err) {
		t.Error("expected the stale layer directory to be removed")
	}
}

func TestReadRejectsFormatVersion(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ufomerge.ufo")
	defer teardown()
	//
	dir := filepath.Join(t.TempDir(), "Old.ufo")
	font := ufo.NewFont("Old")
	if err := Write(font, dir); err != nil {
		t.Fatalf("writing font source failed: %v", err)
	}
	meta := map[string]interface{}{"creator": "test", "formatVersion": 2}
	if err := writePlist(filepath.Join(dir, "metainfo.plist"), meta); err != nil {
		t.Fatalf("rewriting metainfo failed: %v", err)
	}
	_, err := Read(dir)
	if err == nil {
		t.Fatal("expected format version 2 to be rejected")
	}
	if core.Code(err) != core.EINVALID {
		t.Errorf("expected error code EINVALID, got %d", core.Code(err))
	}
}

func TestReadMissingDirectory(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ufomerge.ufo")
	defer teardown()
	//
	_, err := Read(filepath.Join(t.TempDir(), "no-such.ufo"))
	if err == nil {
		t.Fatal("expected reading a missing directory to fail")
	}
	if core.Code(err) != core.EMISSING {
		t.Errorf("expected error code EMISSING, got %d", core.Code(err))
	}
}

// buildTestFont assembles a small font exercising every part of the format:
// contours, components, anchors, codepoints, glyph libs, kerning with groups,
// font lib keys, a background layer and a feature table. Glyph order is
// deliberately unsorted.
func buildTestFont(t *testing.T) *ufo.Font {
	font := ufo.NewFont("Test")
	font.Info.StyleName = "Regular"
	font.Info.Ascender = 800
	font.Info.Descender = -200
	font.Info.Raw = ufo.Lib{"openTypeOS2VendorID": "TEST"}
	font.SetGlyph(&ufo.Glyph{
		Name:     "B",
		Width:    510,
		Unicodes: []rune{'B'},
		Contours: []ufo.Contour{{Points: []ufo.Point{
			{X: 10, Y: 0, Type: ufo.Move},
			{X: 10, Y: 700, Type: ufo.Line},
			{X: 250, Y: 720},
			{X: 490, Y: 350, Type: ufo.Curve, Smooth: true},
			{X: 10, Y: 0, Type: ufo.Line},
		}}},
		Anchors: []ufo.Anchor{{Name: "top", X: 250, Y: 700}},
	})
	font.SetGlyph(&ufo.Glyph{
		Name:     "acutecomb",
		Unicodes: []rune{0x0301},
		Contours: []ufo.Contour{{Points: []ufo.Point{
			{X: 0, Y: 700, Type: ufo.Move},
			{X: 80, Y: 800, Type: ufo.Line},
		}}},
	})
	font.SetGlyph(&ufo.Glyph{
		Name:  "Bacute",
		Width: 510,
		Components: []ufo.Component{
			{Base: "B", Transform: ufo.Identity},
			{Base: "acutecomb", Transform: ufo.Offset(250, 0)},
		},
		Lib: ufo.Lib{"public.markColor": "1,0,0,1"},
	})
	font.SetGlyph(&ufo.Glyph{Name: "space", Width: 260, Unicodes: []rune{' '}})
	background := ufo.NewLayer("public.background")
	background.SetGlyph(&ufo.Glyph{
		Name:  "B",
		Width: 510,
		Contours: []ufo.Contour{{Points: []ufo.Point{
			{X: 0, Y: 0, Type: ufo.Move},
			{X: 500, Y: 700, Type: ufo.Line},
		}}},
	})
	font.Layers = append(font.Layers, background)
	font.Kerning[ufo.KernPair{First: "B", Second: "Bacute"}] = -15
	font.Kerning[ufo.KernPair{First: "public.kern1.round", Second: "B"}] = -30
	font.Groups["public.kern1.round"] = []string{"B", "Bacute"}
	font.Lib["com.example.test"] = "kept"
	table, err := feat.Parse([]byte(`
languagesystem DFLT dflt;

feature liga {
    sub B acutecomb by Bacute;
} liga;
`))
	if err != nil {
		t.Fatalf("parsing test features failed: %v", err)
	}
	font.Features = table
	return font
}
