package ufo

// Scale multiplies every dimensioned quantity of the font by factor:
// outline coordinates, anchors, component offsets, advances, kerning
// values and the dimensioned info attributes. Component scale factors
// stay untouched, they are relative to the base glyph. The typical use
// is reconciling the units-per-em of two sources before merging.
func Scale(f *Font, factor float64) {
	if factor == 1 {
		return
	}
	tracer().Infof("scaling font %q by %g", f.Info.FamilyName, factor)
	f.Info.UnitsPerEm *= factor
	f.Info.Ascender *= factor
	f.Info.Descender *= factor
	f.Info.CapHeight *= factor
	f.Info.XHeight *= factor
	f.EachGlyph(func(g *Glyph) {
		scaleGlyph(g, factor)
	})
	for _, layer := range f.Layers {
		layer.EachGlyph(func(g *Glyph) {
			scaleGlyph(g, factor)
		})
	}
	for pair, value := range f.Kerning {
		f.Kerning[pair] = value * factor
	}
}

func scaleGlyph(g *Glyph, factor float64) {
	g.Width *= factor
	g.Height *= factor
	for i := range g.Contours {
		points := g.Contours[i].Points
		for j := range points {
			points[j].X *= factor
			points[j].Y *= factor
		}
	}
	for i := range g.Components {
		g.Components[i].Transform.DX *= factor
		g.Components[i].Transform.DY *= factor
	}
	for i := range g.Anchors {
		g.Anchors[i].X *= factor
		g.Anchors[i].Y *= factor
	}
}
