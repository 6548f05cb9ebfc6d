package ufodir

import (
	"os"
	"path/filepath"
	"strings"

	"howett.net/plist"

	"github.com/npillmayer/ufomerge/core"
	"github.com/npillmayer/ufomerge/core/ufo"
)

// Write stores a Font as a UFO directory at path, creating it if needed.
// The glyph layers are rewritten from scratch; unrelated files already
// present in the directory (data, images) are left alone.
func Write(font *ufo.Font, path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return core.WrapError(err, core.EINTERNAL, "cannot create %s", path)
	}

	meta := map[string]interface{}{
		"creator":       "com.github.npillmayer.ufomerge",
		"formatVersion": 3,
	}
	if err := writePlist(filepath.Join(path, "metainfo.plist"), meta); err != nil {
		return err
	}
	if err := writeFontInfo(font, path); err != nil {
		return err
	}
	lib := font.Lib.Clone()
	if lib == nil {
		lib = make(ufo.Lib)
	}
	if font.NumGlyphs() > 0 {
		// persist glyph order, the contents mapping alone cannot
		lib["public.glyphOrder"] = font.GlyphNames()
	}
	if len(lib) > 0 {
		if err := writePlist(filepath.Join(path, "lib.plist"), map[string]interface{}(lib)); err != nil {
			return err
		}
	}
	if len(font.Groups) > 0 {
		if err := writePlist(filepath.Join(path, "groups.plist"), font.Groups); err != nil {
			return err
		}
	}
	if len(font.Kerning) > 0 {
		nested := make(map[string]map[string]float64)
		for pair, value := range font.Kerning {
			if nested[pair.First] == nil {
				nested[pair.First] = make(map[string]float64)
			}
			nested[pair.First][pair.Second] = value
		}
		if err := writePlist(filepath.Join(path, "kerning.plist"), nested); err != nil {
			return err
		}
	}

	taken := map[string]bool{defaultLayerDir: true}
	layers := [][]string{{"public.default", defaultLayerDir}}
	for _, layer := range font.Layers {
		layers = append(layers, []string{layer.Name, layerDirName(layer.Name, taken)})
	}
	if err := writePlist(filepath.Join(path, "layercontents.plist"), layers); err != nil {
		return err
	}
	if err := removeStaleLayers(path, taken); err != nil {
		return err
	}
	if err := writeGlyphs(font.EachGlyph, filepath.Join(path, defaultLayerDir)); err != nil {
		return err
	}
	for i, layer := range font.Layers {
		if err := writeGlyphs(layer.EachGlyph, filepath.Join(path, layers[i+1][1])); err != nil {
			return err
		}
	}

	if !font.Features.Empty() {
		feaPath := filepath.Join(path, "features.fea")
		if err := os.WriteFile(feaPath, []byte(font.Features.Fea()), 0644); err != nil {
			return core.WrapError(err, core.EINTERNAL, "cannot write %s", feaPath)
		}
	}
	tracer().Infof("wrote font source %q, %d glyphs", path, font.NumGlyphs())
	return nil
}

func writeFontInfo(font *ufo.Font, path string) error {
	info := font.Info.Raw.Clone()
	if info == nil {
		info = make(ufo.Lib)
	}
	setString(info, "familyName", font.Info.FamilyName)
	setString(info, "styleName", font.Info.StyleName)
	setNumber(info, "unitsPerEm", font.Info.UnitsPerEm)
	setNumber(info, "ascender", font.Info.Ascender)
	setNumber(info, "descender", font.Info.Descender)
	setNumber(info, "capHeight", font.Info.CapHeight)
	setNumber(info, "xHeight", font.Info.XHeight)
	if len(info) == 0 {
		return nil
	}
	return writePlist(filepath.Join(path, "fontinfo.plist"), map[string]interface{}(info))
}

func setString(info ufo.Lib, key, value string) {
	if value == "" {
		delete(info, key)
		return
	}
	info[key] = value
}

func setNumber(info ufo.Lib, key string, value float64) {
	if value == 0 {
		delete(info, key)
		return
	}
	info[key] = value
}

// removeStaleLayers drops glyph directories of layers the font no longer
// has. Directories outside the 'glyphs' naming scheme (data, images) are
// not touched. The keep set holds lowercased directory names.
func removeStaleLayers(path string, keep map[string]bool) error {
	entries, err := os.ReadDir(path)
	if err != nil {
		return core.WrapError(err, core.EINTERNAL, "cannot list %s", path)
	}
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() || keep[strings.ToLower(name)] {
			continue
		}
		if name != defaultLayerDir && !strings.HasPrefix(name, defaultLayerDir+".") {
			continue
		}
		if err := os.RemoveAll(filepath.Join(path, name)); err != nil {
			return core.WrapError(err, core.EINTERNAL, "cannot clear %s", name)
		}
	}
	return nil
}

func writeGlyphs(each func(func(g *ufo.Glyph)), layerDir string) error {
	// rebuild the layer from scratch so removed glyphs leave no files
	if err := os.RemoveAll(layerDir); err != nil {
		return core.WrapError(err, core.EINTERNAL, "cannot clear %s", layerDir)
	}
	if err := os.MkdirAll(layerDir, 0755); err != nil {
		return core.WrapError(err, core.EINTERNAL, "cannot create %s", layerDir)
	}
	contents := make(map[string]string)
	taken := make(map[string]bool)
	var failure error
	each(func(g *ufo.Glyph) {
		if failure != nil {
			return
		}
		fileName := glifFileName(g.Name, taken)
		data, err := writeGlif(g)
		if err != nil {
			failure = err
			return
		}
		if err := os.WriteFile(filepath.Join(layerDir, fileName), data, 0644); err != nil {
			failure = core.WrapError(err, core.EINTERNAL, "cannot write glyph file %s", fileName)
			return
		}
		contents[g.Name] = fileName
	})
	if failure != nil {
		return failure
	}
	return writePlist(filepath.Join(layerDir, "contents.plist"), contents)
}

func writePlist(path string, v interface{}) error {
	data, err := plist.MarshalIndent(v, plist.XMLFormat, "\t")
	if err != nil {
		return core.WrapError(err, core.EINTERNAL, "cannot encode %s", path)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return core.WrapError(err, core.EINTERNAL, "cannot write %s", path)
	}
	return nil
}
