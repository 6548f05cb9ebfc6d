package ufo

// Glyph is a single glyph of a font source: outline, references to other
// glyphs, codepoints and per-glyph metadata. Glyphs are referenced by name
// throughout; renaming a glyph without updating its referrers breaks the
// source, which is why nothing in this module ever renames one.
type Glyph struct {
	Name       string
	Width      float64 // advance width in font units
	Height     float64 // advance height, usually 0 for horizontal layout
	Unicodes   []rune  // codepoints this glyph claims, may be empty
	Contours   []Contour
	Components []Component
	Anchors    []Anchor
	Lib        Lib // per-glyph metadata, may be nil
}

// Contour is a closed sequence of outline points.
type Contour struct {
	Points []Point
}

// PointType classifies an outline point.
type PointType byte

const (
	OffCurve PointType = iota // control point, the default
	Move                      // start of an open contour
	Line
	Curve  // cubic segment end
	QCurve // quadratic segment end
)

func (pt PointType) String() string {
	switch pt {
	case Move:
		return "move"
	case Line:
		return "line"
	case Curve:
		return "curve"
	case QCurve:
		return "qcurve"
	}
	return "offcurve"
}

// Point is a single outline point.
type Point struct {
	X, Y   float64
	Type   PointType
	Smooth bool
}

// Component is a reference to another glyph of the same source, placed
// under an affine transformation.
type Component struct {
	Base      string // name of the referenced glyph
	Transform Transform
}

// Transform is an affine transformation
//
//	| XX  XY  0 |
//	| YX  YY  0 |
//	| DX  DY  1 |
//
// as used by glyph components. Construct with Identity or Offset rather
// than from the zero value: the zero value scales everything to nought.
type Transform struct {
	XX, XY, YX, YY, DX, DY float64
}

// Identity is the neutral transformation.
var Identity = Transform{XX: 1, YY: 1}

// Offset returns a pure translation.
func Offset(dx, dy float64) Transform {
	return Transform{XX: 1, YY: 1, DX: dx, DY: dy}
}

// IsIdentity is true for the neutral transformation.
func (t Transform) IsIdentity() bool {
	return t == Identity
}

// Anchor is a named attachment position.
type Anchor struct {
	Name string
	X, Y float64
}

// Clone returns a deep copy of a glyph. The copy shares no mutable state
// with the original.
func (g *Glyph) Clone() *Glyph {
	if g == nil {
		return nil
	}
	c := &Glyph{
		Name:   g.Name,
		Width:  g.Width,
		Height: g.Height,
	}
	if len(g.Unicodes) > 0 {
		c.Unicodes = append([]rune{}, g.Unicodes...)
	}
	if len(g.Contours) > 0 {
		c.Contours = make([]Contour, len(g.Contours))
		for i, contour := range g.Contours {
			c.Contours[i] = Contour{Points: append([]Point{}, contour.Points...)}
		}
	}
	if len(g.Components) > 0 {
		c.Components = append([]Component{}, g.Components...)
	}
	if len(g.Anchors) > 0 {
		c.Anchors = append([]Anchor{}, g.Anchors...)
	}
	c.Lib = g.Lib.Clone()
	return c
}

// ComponentBases returns the names of all glyphs referenced by components
// of g, in component order, duplicates included.
func (g *Glyph) ComponentBases() []string {
	if len(g.Components) == 0 {
		return nil
	}
	bases := make([]string, len(g.Components))
	for i, comp := range g.Components {
		bases[i] = comp.Base
	}
	return bases
}
