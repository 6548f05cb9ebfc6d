// Package ufodir reads and writes font sources as UFO directories
// (format version 3). The reader is tolerant about optional files, the
// writer produces a deterministic file set for the data the model holds.
package ufodir

import (
	"os"
	"path/filepath"
	"sort"

	"howett.net/plist"

	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/ufomerge/core"
	"github.com/npillmayer/ufomerge/core/ufo"
	"github.com/npillmayer/ufomerge/core/ufo/feat"
)

// tracer writes to trace with key 'ufomerge.ufo'
func tracer() tracing.Trace {
	return tracing.Select("ufomerge.ufo")
}

const defaultLayerDir = "glyphs"

// Read loads a UFO directory into a Font.
func Read(path string) (*ufo.Font, error) {
	meta := make(map[string]interface{})
	if err := readPlist(filepath.Join(path, "metainfo.plist"), &meta); err != nil {
		return nil, core.WrapError(err, core.EMISSING, "%s is not a font source", path)
	}
	if version, ok := asInt(meta["formatVersion"]); !ok || version != 3 {
		return nil, core.Error(core.EINVALID, "%s: unsupported format version %v", path, meta["formatVersion"])
	}

	font := ufo.NewFont("")
	if err := readFontInfo(path, font); err != nil {
		return nil, err
	}

	lib := make(map[string]interface{})
	if err := readOptionalPlist(filepath.Join(path, "lib.plist"), &lib); err != nil {
		return nil, err
	}
	font.Lib = ufo.Lib(lib)

	groups := make(map[string]interface{})
	if err := readOptionalPlist(filepath.Join(path, "groups.plist"), &groups); err != nil {
		return nil, err
	}
	for name, members := range groups {
		font.Groups[name] = asStringSlice(members)
	}

	kerning := make(map[string]map[string]interface{})
	if err := readOptionalPlist(filepath.Join(path, "kerning.plist"), &kerning); err != nil {
		return nil, err
	}
	for first, seconds := range kerning {
		for second, value := range seconds {
			if v, ok := asFloat(value); ok {
				font.Kerning[ufo.KernPair{First: first, Second: second}] = v
			}
		}
	}

	if err := readGlyphs(path, font); err != nil {
		return nil, err
	}

	feaPath := filepath.Join(path, "features.fea")
	if data, err := os.ReadFile(feaPath); err == nil {
		table, err := feat.Parse(data)
		if err != nil {
			return nil, err
		}
		font.Features = table
	} else if !os.IsNotExist(err) {
		return nil, core.WrapError(err, core.EMISSING, "cannot read %s", feaPath)
	}

	tracer().Infof("read font source %q, %d glyphs", path, font.NumGlyphs())
	return font, nil
}

func readFontInfo(path string, font *ufo.Font) error {
	info := make(map[string]interface{})
	if err := readOptionalPlist(filepath.Join(path, "fontinfo.plist"), &info); err != nil {
		return err
	}
	if len(info) == 0 {
		return nil
	}
	font.Info.Raw = ufo.Lib(info)
	if s, ok := asString(info["familyName"]); ok {
		font.Info.FamilyName = s
	}
	if s, ok := asString(info["styleName"]); ok {
		font.Info.StyleName = s
	}
	if v, ok := asFloat(info["unitsPerEm"]); ok {
		font.Info.UnitsPerEm = v
	}
	if v, ok := asFloat(info["ascender"]); ok {
		font.Info.Ascender = v
	}
	if v, ok := asFloat(info["descender"]); ok {
		font.Info.Descender = v
	}
	if v, ok := asFloat(info["capHeight"]); ok {
		font.Info.CapHeight = v
	}
	if v, ok := asFloat(info["xHeight"]); ok {
		font.Info.XHeight = v
	}
	return nil
}

func readGlyphs(path string, font *ufo.Font) error {
	for i, entry := range layerEntries(path) {
		layerDir := filepath.Join(path, entry[1])
		contents := make(map[string]string)
		if err := readOptionalPlist(filepath.Join(layerDir, "contents.plist"), &contents); err != nil {
			return err
		}
		if i == 0 {
			// the default layer is the font's own glyph table
			if len(contents) == 0 {
				tracer().Debugf("font source %q has no glyphs", path)
				continue
			}
			if err := readGlyphFiles(layerDir, contents, orderedNames(font, contents), font.SetGlyph); err != nil {
				return err
			}
			continue
		}
		layer := ufo.NewLayer(entry[0])
		if err := readGlyphFiles(layerDir, contents, sortedNames(contents), layer.SetGlyph); err != nil {
			return err
		}
		font.Layers = append(font.Layers, layer)
	}
	return nil
}

func readGlyphFiles(layerDir string, contents map[string]string, order []string, set func(*ufo.Glyph)) error {
	for _, name := range order {
		glifPath := filepath.Join(layerDir, contents[name])
		data, err := os.ReadFile(glifPath)
		if err != nil {
			return core.WrapError(err, core.EMISSING, "cannot read glyph file %s", glifPath)
		}
		glyph, err := parseGlif(data)
		if err != nil {
			return err
		}
		if glyph.Name != name {
			tracer().Debugf("glyph file %s names glyph %q, contents say %q", contents[name], glyph.Name, name)
			glyph.Name = name
		}
		set(glyph)
	}
	return nil
}

// orderedNames restores glyph order of the default layer from the
// source's public.glyphOrder and sorts the leftovers. The contents
// mapping alone is unordered.
func orderedNames(font *ufo.Font, contents map[string]string) []string {
	var order []string
	seen := make(map[string]bool)
	for _, name := range font.Lib.StringSlice("public.glyphOrder") {
		if _, ok := contents[name]; ok && !seen[name] {
			order = append(order, name)
			seen[name] = true
		}
	}
	var rest []string
	for name := range contents {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(order, rest...)
}

func sortedNames(contents map[string]string) []string {
	names := make([]string, 0, len(contents))
	for name := range contents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// layerEntries returns the source's layers as (name, directory) pairs
// with the default layer moved to the front. The default layer is the
// one stored in the plain 'glyphs' directory; sources without a
// layercontents.plist get the canonical single entry.
func layerEntries(path string) [][]string {
	var raw [][]string
	if err := readOptionalPlist(filepath.Join(path, "layercontents.plist"), &raw); err != nil {
		tracer().Debugf("unreadable layercontents.plist in %q, assuming a single layer", path)
		raw = nil
	}
	var entries [][]string
	for _, entry := range raw {
		if len(entry) == 2 {
			entries = append(entries, entry)
		}
	}
	if len(entries) == 0 {
		return [][]string{{"public.default", defaultLayerDir}}
	}
	def := 0
	for i, entry := range entries {
		if entry[1] == defaultLayerDir {
			def = i
			break
		}
	}
	if def > 0 {
		entry := entries[def]
		entries = append(entries[:def], entries[def+1:]...)
		entries = append([][]string{entry}, entries...)
	}
	return entries
}

func readPlist(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if _, err := plist.Unmarshal(data, v); err != nil {
		return core.WrapError(err, core.EINVALID, "malformed property list %s", path)
	}
	return nil
}

func readOptionalPlist(path string, v interface{}) error {
	err := readPlist(path, v)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	if err != nil && core.Code(err) == core.EINVALID {
		return err
	}
	if err != nil {
		return core.WrapError(err, core.EMISSING, "cannot read %s", path)
	}
	return nil
}

func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

func asInt(v interface{}) (int, bool) {
	f, ok := asFloat(v)
	return int(f), ok
}

func asString(v interface{}) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asStringSlice(v interface{}) []string {
	switch t := v.(type) {
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
