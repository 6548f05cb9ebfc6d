package ufodir

import (
	"strconv"
	"strings"
)

// Glyph file and layer directory naming follows the customary
// user-name-to-file-name scheme: illegal filesystem characters become
// underscores, uppercase letters get an underscore appended
// (case-insensitive filesystems), a leading period becomes an underscore,
// and reserved device names are prefixed. Clashes against already-taken
// names get a numeric suffix.

const maxFileNameLength = 255

var reservedFileNames = map[string]bool{
	"con": true, "prn": true, "aux": true, "nul": true, "clock$": true,
	"com1": true, "com2": true, "com3": true, "com4": true,
	"lpt1": true, "lpt2": true, "lpt3": true,
}

func isIllegalFileChar(r rune) bool {
	if r < 0x20 || r == 0x7F {
		return true
	}
	switch r {
	case '"', '*', '+', '/', ':', '<', '>', '?', '[', '\\', ']', '|':
		return true
	}
	return false
}

// mangledFileName applies the character translation and the reserved-name
// prefix, without extension or uniqueness handling.
func mangledFileName(name string) string {
	var b strings.Builder
	for i, r := range name {
		switch {
		case isIllegalFileChar(r):
			b.WriteByte('_')
		case i == 0 && r == '.':
			b.WriteByte('_')
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r)
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}
	out := b.String()
	if reservedFileNames[strings.ToLower(out)] {
		out = "_" + out
	}
	return out
}

// glifFileName translates a glyph name into a .glif file name unique
// within taken. The chosen name is added to taken, keyed lowercase.
func glifFileName(glyphName string, taken map[string]bool) string {
	name := mangledFileName(glyphName)
	if max := maxFileNameLength - len(".glif"); len(name) > max {
		name = name[:max]
	}
	candidate := name
	for n := 1; taken[strings.ToLower(candidate)]; n++ {
		candidate = name + "_" + strconv.Itoa(n)
	}
	taken[strings.ToLower(candidate)] = true
	return candidate + ".glif"
}

// layerDirName translates a layer name into its directory name below the
// font root, 'glyphs.' plus the translated name, unique within taken.
func layerDirName(layerName string, taken map[string]bool) string {
	name := defaultLayerDir + "." + mangledFileName(layerName)
	if len(name) > maxFileNameLength {
		name = name[:maxFileNameLength]
	}
	candidate := name
	for n := 1; taken[strings.ToLower(candidate)]; n++ {
		candidate = name + "_" + strconv.Itoa(n)
	}
	taken[strings.ToLower(candidate)] = true
	return candidate
}
