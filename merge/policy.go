package merge

// Policy governs how Merge treats material that is already present in
// the recipient, and what happens to the donor's layout rules. The zero
// value is the default behavior: keep existing glyphs, subset the layout
// rules to the merged set.
type Policy struct {
	Existing ExistingMode
	Layout   LayoutMode
}

// ExistingMode decides the fate of donor glyphs whose name is already
// taken in the recipient. The same mode governs kerning pairs, kerning
// groups and metadata keys.
type ExistingMode int

const (
	SkipExisting    ExistingMode = iota // keep the recipient's version
	ReplaceExisting                     // overwrite with the donor's version
)

func (m ExistingMode) String() string {
	if m == ReplaceExisting {
		return "replace-existing"
	}
	return "skip-existing"
}

// LayoutMode decides how the donor's layout rules travel.
type LayoutMode int

const (
	// SubsetLayout merges the donor rules expressible in the merged
	// glyph set and drops the rest.
	SubsetLayout LayoutMode = iota

	// LayoutClosure additionally pulls glyphs produced by donor rules
	// into the merged set, so their rules survive the subsetting.
	LayoutClosure

	// IgnoreLayout leaves the recipient's layout rules alone and merges
	// no donor rules at all.
	IgnoreLayout
)

func (m LayoutMode) String() string {
	switch m {
	case LayoutClosure:
		return "layout-closure"
	case IgnoreLayout:
		return "ignore-layout"
	}
	return "subset-layout"
}

// PolicyFromFlags builds a Policy from mutually exclusive switches, the
// shape command line interfaces offer them in. All switches off yields
// the zero policy. Contradictory switches yield a ConflictingPolicyError.
func PolicyFromFlags(skip, replace, subset, closure, ignore bool) (Policy, error) {
	var p Policy
	if skip && replace {
		return p, &ConflictingPolicyError{
			Detail: "skip-existing and replace-existing are mutually exclusive",
		}
	}
	if replace {
		p.Existing = ReplaceExisting
	}
	n := 0
	for _, flag := range []bool{subset, closure, ignore} {
		if flag {
			n++
		}
	}
	if n > 1 {
		return p, &ConflictingPolicyError{
			Detail: "more than one of subset-layout, layout-closure and ignore-layout",
		}
	}
	if closure {
		p.Layout = LayoutClosure
	}
	if ignore {
		p.Layout = IgnoreLayout
	}
	return p, nil
}
