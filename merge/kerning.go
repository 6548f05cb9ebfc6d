package merge

import (
	"github.com/npillmayer/ufomerge/core/ufo"
)

// spliceKerning merges the donor kerning pairs whose both sides will
// mean something in the merged font. A side holds up if it is a merged
// glyph, a glyph the recipient already has, or a kerning group that
// keeps at least one member after slimming to the merged font. Donor
// groups are adopted in slimmed form; whether a pair or a group
// overwrites an existing one follows policy.
func spliceKerning(recipient, donor *ufo.Font, glyphSet map[string]bool, policy Policy) {
	if len(donor.Kerning) == 0 && len(donor.Groups) == 0 {
		return
	}
	if recipient.Kerning == nil {
		recipient.Kerning = make(ufo.Kerning)
	}
	if recipient.Groups == nil {
		recipient.Groups = make(map[string][]string)
	}
	adopted := make(map[string][]string)
	pairs := 0
	for pair, value := range donor.Kerning {
		if !kernSideHolds(recipient, donor, glyphSet, pair.First, adopted) {
			continue
		}
		if !kernSideHolds(recipient, donor, glyphSet, pair.Second, adopted) {
			continue
		}
		if _, exists := recipient.Kerning[pair]; exists && policy.Existing == SkipExisting {
			continue
		}
		recipient.Kerning[pair] = value
		pairs++
	}
	for name, members := range adopted {
		if _, exists := recipient.Groups[name]; exists && policy.Existing == SkipExisting {
			continue
		}
		recipient.Groups[name] = members
	}
	tracer().Infof("kerning: %d pairs merged, %d groups adopted", pairs, len(adopted))
}

// kernSideHolds decides whether one side of a donor kerning pair stays
// meaningful after the merge. Group sides are slimmed to members the
// merged font will have; a surviving group is recorded in adopted.
func kernSideHolds(recipient, donor *ufo.Font, glyphSet map[string]bool, side string, adopted map[string][]string) bool {
	if members, isGroup := donor.Groups[side]; isGroup {
		slimmed := make([]string, 0, len(members))
		for _, member := range members {
			if glyphSet[member] || recipient.HasGlyph(member) {
				slimmed = append(slimmed, member)
			}
		}
		if len(slimmed) == 0 {
			tracer().Debugf("kerning group %q slims to nothing, its pairs are dropped", side)
			return false
		}
		adopted[side] = slimmed
		return true
	}
	if glyphSet[side] || recipient.HasGlyph(side) {
		return true
	}
	// a pair may reference a group the recipient defines
	if _, isGroup := recipient.Groups[side]; isGroup {
		return true
	}
	return false
}
