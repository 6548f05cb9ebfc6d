package ufo

import (
	"github.com/emirpasic/gods/maps/linkedhashmap"
)

// Layer is an additional glyph set of a font source, e.g. the
// conventional 'public.background' drawings. A layer carries independent
// glyph versions under the same names as the default layer. The default
// layer is the Font itself and never appears in Font.Layers.
type Layer struct {
	Name string

	glyphs *linkedhashmap.Map // glyph name to *Glyph, insertion-ordered
}

// NewLayer creates an empty glyph layer.
func NewLayer(name string) *Layer {
	return &Layer{Name: name, glyphs: linkedhashmap.New()}
}

// Glyph looks up a glyph of the layer by name.
func (l *Layer) Glyph(name string) (*Glyph, bool) {
	if l.glyphs == nil {
		return nil, false
	}
	v, ok := l.glyphs.Get(name)
	if !ok {
		return nil, false
	}
	return v.(*Glyph), true
}

// HasGlyph is true if the layer contains a glyph with the given name.
func (l *Layer) HasGlyph(name string) bool {
	_, ok := l.Glyph(name)
	return ok
}

// SetGlyph inserts a glyph, or replaces the glyph of the same name,
// keeping its position. Nameless glyphs are rejected.
func (l *Layer) SetGlyph(g *Glyph) {
	if g == nil || g.Name == "" {
		tracer().Errorf("attempt to add glyph without a name to layer %q, dropped", l.Name)
		return
	}
	if l.glyphs == nil {
		l.glyphs = linkedhashmap.New()
	}
	l.glyphs.Put(g.Name, g)
}

// RemoveGlyph removes a glyph by name; removing an absent name is a no-op.
func (l *Layer) RemoveGlyph(name string) {
	if l.glyphs != nil {
		l.glyphs.Remove(name)
	}
}

// NumGlyphs returns the number of glyphs in the layer.
func (l *Layer) NumGlyphs() int {
	if l.glyphs == nil {
		return 0
	}
	return l.glyphs.Size()
}

// GlyphNames returns the layer's glyph names in insertion order.
func (l *Layer) GlyphNames() []string {
	if l.glyphs == nil {
		return nil
	}
	names := make([]string, 0, l.glyphs.Size())
	it := l.glyphs.Iterator()
	for it.Next() {
		names = append(names, it.Key().(string))
	}
	return names
}

// EachGlyph calls visit for every glyph of the layer in insertion order.
func (l *Layer) EachGlyph(visit func(g *Glyph)) {
	if l.glyphs == nil {
		return
	}
	it := l.glyphs.Iterator()
	for it.Next() {
		visit(it.Value().(*Glyph))
	}
}

// Clone returns a deep copy of the layer.
func (l *Layer) Clone() *Layer {
	c := NewLayer(l.Name)
	l.EachGlyph(func(g *Glyph) {
		c.SetGlyph(g.Clone())
	})
	return c
}

// Layer returns the non-default layer with the given name, or nil.
func (f *Font) Layer(name string) *Layer {
	for _, layer := range f.Layers {
		if layer.Name == name {
			return layer
		}
	}
	return nil
}
