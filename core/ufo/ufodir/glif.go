package ufodir

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"

	"howett.net/plist"

	"github.com/npillmayer/ufomerge/core"
	"github.com/npillmayer/ufomerge/core/ufo"
)

// GLIF format 2, one file per glyph.

type glifGlyph struct {
	XMLName  xml.Name      `xml:"glyph"`
	Name     string        `xml:"name,attr"`
	Format   int           `xml:"format,attr"`
	Advance  *glifAdvance  `xml:"advance"`
	Unicodes []glifUnicode `xml:"unicode"`
	Anchors  []glifAnchor  `xml:"anchor"`
	Outline  *glifOutline  `xml:"outline"`
	Lib      *glifLib      `xml:"lib"`
}

type glifAdvance struct {
	Width  float64 `xml:"width,attr"`
	Height float64 `xml:"height,attr,omitempty"`
}

type glifUnicode struct {
	Hex string `xml:"hex,attr"`
}

type glifAnchor struct {
	X    float64 `xml:"x,attr"`
	Y    float64 `xml:"y,attr"`
	Name string  `xml:"name,attr,omitempty"`
}

type glifOutline struct {
	Components []glifComponent `xml:"component"`
	Contours   []glifContour   `xml:"contour"`
}

type glifComponent struct {
	Base    string   `xml:"base,attr"`
	XScale  *float64 `xml:"xScale,attr"`
	XYScale *float64 `xml:"xyScale,attr"`
	YXScale *float64 `xml:"yxScale,attr"`
	YScale  *float64 `xml:"yScale,attr"`
	XOffset *float64 `xml:"xOffset,attr"`
	YOffset *float64 `xml:"yOffset,attr"`
}

type glifContour struct {
	Points []glifPoint `xml:"point"`
}

type glifPoint struct {
	X      float64 `xml:"x,attr"`
	Y      float64 `xml:"y,attr"`
	Type   string  `xml:"type,attr,omitempty"`
	Smooth string  `xml:"smooth,attr,omitempty"`
}

type glifLib struct {
	Inner []byte `xml:",innerxml"`
}

func parseGlif(data []byte) (*ufo.Glyph, error) {
	var gg glifGlyph
	if err := xml.Unmarshal(data, &gg); err != nil {
		return nil, core.WrapError(err, core.EINVALID, "malformed glyph file")
	}
	g := &ufo.Glyph{Name: gg.Name}
	if gg.Advance != nil {
		g.Width = gg.Advance.Width
		g.Height = gg.Advance.Height
	}
	for _, u := range gg.Unicodes {
		cp, err := strconv.ParseUint(u.Hex, 16, 32)
		if err != nil {
			return nil, core.WrapError(err, core.EINVALID,
				"glyph %s: bad unicode value %q", gg.Name, u.Hex)
		}
		g.Unicodes = append(g.Unicodes, rune(cp))
	}
	for _, a := range gg.Anchors {
		g.Anchors = append(g.Anchors, ufo.Anchor{Name: a.Name, X: a.X, Y: a.Y})
	}
	if gg.Outline != nil {
		for _, c := range gg.Outline.Components {
			g.Components = append(g.Components, ufo.Component{
				Base:      c.Base,
				Transform: componentTransform(c),
			})
		}
		for _, c := range gg.Outline.Contours {
			contour := ufo.Contour{Points: make([]ufo.Point, len(c.Points))}
			for i, p := range c.Points {
				contour.Points[i] = ufo.Point{
					X:      p.X,
					Y:      p.Y,
					Type:   pointTypeFromGlif(p.Type),
					Smooth: p.Smooth == "yes",
				}
			}
			g.Contours = append(g.Contours, contour)
		}
	}
	if gg.Lib != nil {
		lib, err := plistFragmentToLib(gg.Lib.Inner)
		if err != nil {
			return nil, core.WrapError(err, core.EINVALID, "glyph %s: bad lib data", gg.Name)
		}
		g.Lib = lib
	}
	return g, nil
}

func componentTransform(c glifComponent) ufo.Transform {
	t := ufo.Identity
	if c.XScale != nil {
		t.XX = *c.XScale
	}
	if c.XYScale != nil {
		t.XY = *c.XYScale
	}
	if c.YXScale != nil {
		t.YX = *c.YXScale
	}
	if c.YScale != nil {
		t.YY = *c.YScale
	}
	if c.XOffset != nil {
		t.DX = *c.XOffset
	}
	if c.YOffset != nil {
		t.DY = *c.YOffset
	}
	return t
}

func pointTypeFromGlif(s string) ufo.PointType {
	switch s {
	case "move":
		return ufo.Move
	case "line":
		return ufo.Line
	case "curve":
		return ufo.Curve
	case "qcurve":
		return ufo.QCurve
	}
	return ufo.OffCurve
}

func writeGlif(g *ufo.Glyph) ([]byte, error) {
	gg := glifGlyph{
		Name:    g.Name,
		Format:  2,
		Advance: &glifAdvance{Width: g.Width, Height: g.Height},
	}
	for _, cp := range g.Unicodes {
		gg.Unicodes = append(gg.Unicodes, glifUnicode{Hex: fmt.Sprintf("%04X", cp)})
	}
	for _, a := range g.Anchors {
		gg.Anchors = append(gg.Anchors, glifAnchor{X: a.X, Y: a.Y, Name: a.Name})
	}
	if len(g.Components) > 0 || len(g.Contours) > 0 {
		outline := &glifOutline{}
		for _, comp := range g.Components {
			outline.Components = append(outline.Components, glifComponentFor(comp))
		}
		for _, contour := range g.Contours {
			gc := glifContour{Points: make([]glifPoint, len(contour.Points))}
			for i, p := range contour.Points {
				gp := glifPoint{X: p.X, Y: p.Y}
				if p.Type != ufo.OffCurve {
					gp.Type = p.Type.String()
				}
				if p.Smooth {
					gp.Smooth = "yes"
				}
				gc.Points[i] = gp
			}
			outline.Contours = append(outline.Contours, gc)
		}
		gg.Outline = outline
	}
	if len(g.Lib) > 0 {
		inner, err := libToPlistFragment(g.Lib)
		if err != nil {
			return nil, core.WrapError(err, core.EINVALID, "glyph %s: cannot encode lib", g.Name)
		}
		gg.Lib = &glifLib{Inner: inner}
	}
	body, err := xml.MarshalIndent(gg, "", "\t")
	if err != nil {
		return nil, core.WrapError(err, core.EINTERNAL, "cannot encode glyph %s", g.Name)
	}
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	buf.Write(body)
	buf.WriteString("\n")
	return buf.Bytes(), nil
}

func glifComponentFor(comp ufo.Component) glifComponent {
	t := comp.Transform
	if t == (ufo.Transform{}) {
		t = ufo.Identity
	}
	gc := glifComponent{Base: comp.Base}
	if t.XX != 1 {
		gc.XScale = &t.XX
	}
	if t.XY != 0 {
		gc.XYScale = &t.XY
	}
	if t.YX != 0 {
		gc.YXScale = &t.YX
	}
	if t.YY != 1 {
		gc.YScale = &t.YY
	}
	if t.DX != 0 {
		gc.XOffset = &t.DX
	}
	if t.DY != 0 {
		gc.YOffset = &t.DY
	}
	return gc
}

// The lib element of a glyph embeds a property-list dict. howett.net/plist
// wants complete documents, so we wrap fragments for reading and unwrap
// the generated document for writing.

func plistFragmentToLib(inner []byte) (ufo.Lib, error) {
	doc := append([]byte(`<?xml version="1.0" encoding="UTF-8"?><plist version="1.0">`), inner...)
	doc = append(doc, []byte(`</plist>`)...)
	lib := make(ufo.Lib)
	if _, err := plist.Unmarshal(doc, &lib); err != nil {
		return nil, err
	}
	return lib, nil
}

func libToPlistFragment(lib ufo.Lib) ([]byte, error) {
	doc, err := plist.MarshalIndent(map[string]interface{}(lib), plist.XMLFormat, "\t")
	if err != nil {
		return nil, err
	}
	first := bytes.Index(doc, []byte("<dict>"))
	last := bytes.LastIndex(doc, []byte("</dict>"))
	if first < 0 || last < 0 {
		// an empty dict may be self-closing
		if idx := bytes.Index(doc, []byte("<dict/>")); idx >= 0 {
			return []byte("<dict/>"), nil
		}
		return nil, fmt.Errorf("unexpected property list shape")
	}
	return doc[first : last+len("</dict>")], nil
}
