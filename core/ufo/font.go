package ufo

import (
	"github.com/emirpasic/gods/maps/linkedhashmap"

	"github.com/npillmayer/ufomerge/core/ufo/feat"
)

// Font is a font source held in memory: an ordered glyph table plus the
// source-wide data that travels with it. The glyph table preserves
// insertion order; see the package documentation for why that matters.
//
// A Font is not safe for concurrent mutation. Reading from one font while
// writing to a different one is fine, which is all the merging machinery
// ever does.
type Font struct {
	Info     Info
	Kerning  Kerning
	Groups   map[string][]string // group name to member glyph names
	Lib      Lib                 // font-wide metadata
	Features *feat.Table         // layout rules, nil if the source has none
	Layers   []*Layer            // non-default glyph layers, in source order

	glyphs *linkedhashmap.Map // glyph name to *Glyph, insertion-ordered
}

// Info holds the general font attributes this module cares about.
// Everything dimensioned is in font units. Raw carries the complete
// attribute set of the source, so attributes outside the typed fields
// survive a read/write cycle untouched; the typed fields win where both
// exist.
type Info struct {
	FamilyName string
	StyleName  string
	UnitsPerEm float64
	Ascender   float64
	Descender  float64
	CapHeight  float64
	XHeight    float64
	Raw        Lib
}

// KernPair is an ordered pair of kerning participants. Either side is a
// glyph name or a kerning group name (conventionally prefixed with
// 'public.kern1.' resp. 'public.kern2.').
type KernPair struct {
	First, Second string
}

// Kerning maps ordered pairs to kerning values in font units.
type Kerning map[KernPair]float64

// Lib is string-keyed metadata with property-list-shaped values: strings,
// numbers, booleans, []interface{} and map[string]interface{}.
type Lib map[string]interface{}

// NewFont creates an empty font source.
func NewFont(family string) *Font {
	return &Font{
		Info:    Info{FamilyName: family, UnitsPerEm: 1000},
		Kerning: make(Kerning),
		Groups:  make(map[string][]string),
		Lib:     make(Lib),
		glyphs:  linkedhashmap.New(),
	}
}

// Glyph looks up a glyph by name.
func (f *Font) Glyph(name string) (*Glyph, bool) {
	if f.glyphs == nil {
		return nil, false
	}
	v, ok := f.glyphs.Get(name)
	if !ok {
		return nil, false
	}
	return v.(*Glyph), true
}

// HasGlyph is true if the font contains a glyph with the given name.
func (f *Font) HasGlyph(name string) bool {
	_, ok := f.Glyph(name)
	return ok
}

// SetGlyph inserts a glyph, or replaces the glyph of the same name. A
// replaced glyph keeps its position in the glyph order; a new glyph is
// appended. Nameless glyphs are rejected.
func (f *Font) SetGlyph(g *Glyph) {
	if g == nil || g.Name == "" {
		tracer().Errorf("attempt to add glyph without a name, dropped")
		return
	}
	if f.glyphs == nil {
		f.glyphs = linkedhashmap.New()
	}
	f.glyphs.Put(g.Name, g)
}

// RemoveGlyph removes a glyph by name; removing an absent name is a no-op.
// Components of other glyphs referencing the name are left alone and will
// dangle.
func (f *Font) RemoveGlyph(name string) {
	if f.glyphs != nil {
		f.glyphs.Remove(name)
	}
}

// NumGlyphs returns the number of glyphs in the font.
func (f *Font) NumGlyphs() int {
	if f.glyphs == nil {
		return 0
	}
	return f.glyphs.Size()
}

// GlyphNames returns all glyph names in glyph order.
func (f *Font) GlyphNames() []string {
	if f.glyphs == nil {
		return nil
	}
	names := make([]string, 0, f.glyphs.Size())
	it := f.glyphs.Iterator()
	for it.Next() {
		names = append(names, it.Key().(string))
	}
	return names
}

// EachGlyph calls visit for every glyph in glyph order.
func (f *Font) EachGlyph(visit func(g *Glyph)) {
	if f.glyphs == nil {
		return
	}
	it := f.glyphs.Iterator()
	for it.Next() {
		visit(it.Value().(*Glyph))
	}
}

// Clone returns a deep copy of the font. The copy shares no mutable state
// with the original.
func (f *Font) Clone() *Font {
	c := NewFont(f.Info.FamilyName)
	c.Info = f.Info
	c.Info.Raw = f.Info.Raw.Clone()
	f.EachGlyph(func(g *Glyph) {
		c.SetGlyph(g.Clone())
	})
	for pair, value := range f.Kerning {
		c.Kerning[pair] = value
	}
	for name, members := range f.Groups {
		c.Groups[name] = append([]string{}, members...)
	}
	c.Lib = f.Lib.Clone()
	if c.Lib == nil {
		c.Lib = make(Lib)
	}
	if f.Features != nil {
		c.Features = f.Features.Clone()
	}
	for _, layer := range f.Layers {
		c.Layers = append(c.Layers, layer.Clone())
	}
	return c
}

// Clone returns a deep copy of lib metadata. Values of types outside the
// property-list shapes are copied by reference.
func (l Lib) Clone() Lib {
	if l == nil {
		return nil
	}
	c := make(Lib, len(l))
	for k, v := range l {
		c[k] = cloneLibValue(v)
	}
	return c
}

// StringSlice returns a list-valued entry as a string slice. Entries of
// other shapes and missing keys yield nil; non-string members are
// skipped.
func (l Lib) StringSlice(key string) []string {
	switch t := l[key].(type) {
	case []string:
		return t
	case []interface{}:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func cloneLibValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		m := make(map[string]interface{}, len(t))
		for k, e := range t {
			m[k] = cloneLibValue(e)
		}
		return m
	case []interface{}:
		s := make([]interface{}, len(t))
		for i, e := range t {
			s[i] = cloneLibValue(e)
		}
		return s
	case []string:
		return append([]string{}, t...)
	}
	return v
}
