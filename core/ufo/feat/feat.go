package feat

import (
	"fmt"

	"github.com/npillmayer/ufomerge/core"
)

// Table is the layout rule tree of a font source: language system
// registrations, the pool of standalone lookups, and the features.
// Standalone lookups are not applied by any feature directly; they are
// the targets of chained-rule references. Everything is ordered, and
// order is meaningful.
type Table struct {
	Languages []LangSys
	Lookups   []*Lookup // standalone, applied through chained rules only
	Features  []*Feature
}

// LangSys is a script/language registration, e.g. {"latn", "dflt"}.
type LangSys struct {
	Script, Lang string
}

// Feature is a named run of lookups, e.g. all lookups of 'liga'.
type Feature struct {
	Tag     string
	Lookups []*Lookup
}

// Lookup is an ordered run of rules. Name may be empty for rules written
// directly into a feature block without a surrounding lookup.
type Lookup struct {
	Name  string
	Rules []Rule
}

// Rule is one layout rule. It is a closed sum of exactly four variants:
// *SimpleSub, *LigatureSub, *ChainedRule and *Positioning. Consumers
// switch over all four; a fifth variant cannot exist outside this
// package.
type Rule interface {
	// GlyphReferences returns every glyph name the rule mentions, in
	// rule-text order, duplicates included.
	GlyphReferences() []string

	// String returns the rule in feature-file syntax.
	String() string

	isRule()
}

// SimpleSub replaces glyphs of In with the corresponding glyphs of Out.
// In and Out are parallel; a single-element Out applies to every input
// glyph. Backtrack and Lookahead, when present, make the rule contextual.
type SimpleSub struct {
	Backtrack []GlyphSet // context before, may be nil
	In        GlyphSet
	Out       GlyphSet   // len(Out) == len(In), or 1 for broadcast
	Lookahead []GlyphSet // context after, may be nil
}

// LigatureSub replaces a sequence of glyphs with a single ligature glyph.
// Each slot of Components may offer alternatives.
type LigatureSub struct {
	Backtrack  []GlyphSet
	Components []GlyphSet // the input sequence, one set per position
	Ligature   string
	Lookahead  []GlyphSet
}

// ChainedRule applies other lookups at marked input positions. It has no
// output of its own; Nested references name the lookups to run. Pos
// records whether the source wrote the rule with the positioning keyword,
// which is all that distinguishes a substitution chain from a
// positioning chain on the source level.
type ChainedRule struct {
	Backtrack []GlyphSet
	Input     []GlyphSet // the marked sequence
	Lookahead []GlyphSet
	Nested    []LookupRef
	Pos       bool
}

// LookupRef points a chained rule at a lookup, to be applied at input
// position Slot.
type LookupRef struct {
	Slot int
	Name string
}

// Positioning adjusts placement or advance of the glyphs in Slots.
// Values holds either one record for the rule or one per slot. The rule
// contributes no glyphs to any closure, it only moves them.
type Positioning struct {
	Backtrack []GlyphSet
	Slots     []GlyphSet
	Values    []ValueRecord
	Lookahead []GlyphSet
}

// ValueRecord is a positioning adjustment in font units.
type ValueRecord struct {
	XPlacement, YPlacement int
	XAdvance, YAdvance     int
}

// IsAdvanceOnly is true if the record only adjusts the horizontal
// advance, the common case written as a bare number.
func (vr ValueRecord) IsAdvanceOnly() bool {
	return vr.XPlacement == 0 && vr.YPlacement == 0 && vr.YAdvance == 0
}

// GlyphSet is one slot of a rule: a single glyph name or a set of
// alternatives.
type GlyphSet []string

func (r *SimpleSub) isRule()   {}
func (r *LigatureSub) isRule() {}
func (r *ChainedRule) isRule() {}
func (r *Positioning) isRule() {}

func (r *SimpleSub) GlyphReferences() []string {
	var refs []string
	refs = appendSets(refs, r.Backtrack)
	refs = append(refs, r.In...)
	refs = appendSets(refs, r.Lookahead)
	refs = append(refs, r.Out...)
	return refs
}

func (r *LigatureSub) GlyphReferences() []string {
	var refs []string
	refs = appendSets(refs, r.Backtrack)
	refs = appendSets(refs, r.Components)
	refs = appendSets(refs, r.Lookahead)
	refs = append(refs, r.Ligature)
	return refs
}

func (r *ChainedRule) GlyphReferences() []string {
	var refs []string
	refs = appendSets(refs, r.Backtrack)
	refs = appendSets(refs, r.Input)
	refs = appendSets(refs, r.Lookahead)
	return refs
}

func (r *Positioning) GlyphReferences() []string {
	var refs []string
	refs = appendSets(refs, r.Backtrack)
	refs = appendSets(refs, r.Slots)
	refs = appendSets(refs, r.Lookahead)
	return refs
}

func appendSets(refs []string, sets []GlyphSet) []string {
	for _, set := range sets {
		refs = append(refs, set...)
	}
	return refs
}

// Empty is true if the table carries nothing at all.
func (t *Table) Empty() bool {
	return t == nil ||
		len(t.Languages) == 0 && len(t.Lookups) == 0 && len(t.Features) == 0
}

// Feature returns the feature with the given tag, or nil.
func (t *Table) Feature(tag string) *Feature {
	for _, f := range t.Features {
		if f.Tag == tag {
			return f
		}
	}
	return nil
}

// ResolveLookup finds a lookup by name, searching the standalone pool and
// every feature.
func (t *Table) ResolveLookup(name string) (*Lookup, bool) {
	if name == "" {
		return nil, false
	}
	for _, l := range t.Lookups {
		if l.Name == name {
			return l, true
		}
	}
	for _, f := range t.Features {
		for _, l := range f.Lookups {
			if l.Name == name {
				return l, true
			}
		}
	}
	return nil, false
}

// LookupNames returns the names of all named lookups, pool first, then
// per feature, in order.
func (t *Table) LookupNames() []string {
	var names []string
	for _, l := range t.Lookups {
		if l.Name != "" {
			names = append(names, l.Name)
		}
	}
	for _, f := range t.Features {
		for _, l := range f.Lookups {
			if l.Name != "" {
				names = append(names, l.Name)
			}
		}
	}
	return names
}

// EachRule calls visit for every rule of the table, pool lookups first,
// then features in order. The lookup argument is the rule's home.
func (t *Table) EachRule(visit func(lookup *Lookup, rule Rule)) {
	if t == nil {
		return
	}
	for _, l := range t.Lookups {
		for _, r := range l.Rules {
			visit(l, r)
		}
	}
	for _, f := range t.Features {
		for _, l := range f.Lookups {
			for _, r := range l.Rules {
				visit(l, r)
			}
		}
	}
}

// RenameLookup renames every lookup called old to new and rewrites all
// chained-rule references accordingly.
func (t *Table) RenameLookup(old, new string) {
	if t == nil || old == "" || old == new {
		return
	}
	rename := func(l *Lookup) {
		if l.Name == old {
			l.Name = new
		}
		for _, r := range l.Rules {
			if chain, ok := r.(*ChainedRule); ok {
				for i := range chain.Nested {
					if chain.Nested[i].Name == old {
						chain.Nested[i].Name = new
					}
				}
			}
		}
	}
	for _, l := range t.Lookups {
		rename(l)
	}
	for _, f := range t.Features {
		for _, l := range f.Lookups {
			rename(l)
		}
	}
}

// Validate checks the structural health of the table: chained-rule
// references must resolve to a lookup of the table and point at a valid
// input slot, and rule arities must be consistent. The first violation
// is returned as a MalformedRuleError.
func (t *Table) Validate() error {
	if t == nil {
		return nil
	}
	var fail error
	t.EachRule(func(lookup *Lookup, rule Rule) {
		if fail != nil {
			return
		}
		switch r := rule.(type) {
		case *SimpleSub:
			if len(r.Out) != len(r.In) && len(r.Out) != 1 {
				fail = malformed("substitution of %d glyphs by %d", len(r.In), len(r.Out))
			}
		case *LigatureSub:
			if r.Ligature == "" {
				fail = malformed("ligature substitution without a target glyph")
			}
		case *ChainedRule:
			for _, ref := range r.Nested {
				if _, ok := t.ResolveLookup(ref.Name); !ok {
					fail = malformed("chained rule references undefined lookup %q", ref.Name)
					return
				}
				if ref.Slot < 0 || ref.Slot >= len(r.Input) {
					fail = malformed("chained rule references slot %d of a %d-slot input", ref.Slot, len(r.Input))
					return
				}
			}
		case *Positioning:
			if len(r.Values) != 1 && len(r.Values) != len(r.Slots) {
				fail = malformed("positioning of %d slots with %d value records", len(r.Slots), len(r.Values))
			}
		}
	})
	return fail
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	c := &Table{}
	c.Languages = append(c.Languages, t.Languages...)
	for _, l := range t.Lookups {
		c.Lookups = append(c.Lookups, l.Clone())
	}
	for _, f := range t.Features {
		cf := &Feature{Tag: f.Tag}
		for _, l := range f.Lookups {
			cf.Lookups = append(cf.Lookups, l.Clone())
		}
		c.Features = append(c.Features, cf)
	}
	return c
}

// Clone returns a deep copy of the lookup.
func (l *Lookup) Clone() *Lookup {
	c := &Lookup{Name: l.Name}
	for _, r := range l.Rules {
		c.Rules = append(c.Rules, cloneRule(r))
	}
	return c
}

func cloneRule(rule Rule) Rule {
	switch r := rule.(type) {
	case *SimpleSub:
		return &SimpleSub{
			Backtrack: cloneSets(r.Backtrack),
			In:        append(GlyphSet{}, r.In...),
			Out:       append(GlyphSet{}, r.Out...),
			Lookahead: cloneSets(r.Lookahead),
		}
	case *LigatureSub:
		return &LigatureSub{
			Backtrack:  cloneSets(r.Backtrack),
			Components: cloneSets(r.Components),
			Ligature:   r.Ligature,
			Lookahead:  cloneSets(r.Lookahead),
		}
	case *ChainedRule:
		return &ChainedRule{
			Backtrack: cloneSets(r.Backtrack),
			Input:     cloneSets(r.Input),
			Lookahead: cloneSets(r.Lookahead),
			Nested:    append([]LookupRef{}, r.Nested...),
			Pos:       r.Pos,
		}
	case *Positioning:
		return &Positioning{
			Backtrack: cloneSets(r.Backtrack),
			Slots:     cloneSets(r.Slots),
			Values:    append([]ValueRecord{}, r.Values...),
			Lookahead: cloneSets(r.Lookahead),
		}
	}
	panic(fmt.Sprintf("feat: unknown rule variant %T", rule))
}

func cloneSets(sets []GlyphSet) []GlyphSet {
	if sets == nil {
		return nil
	}
	c := make([]GlyphSet, len(sets))
	for i, set := range sets {
		c[i] = append(GlyphSet{}, set...)
	}
	return c
}

// MalformedRuleError reports a layout rule or table violating the
// structural assumptions of this package: unparseable syntax, references
// to undefined lookups, inconsistent arities.
type MalformedRuleError struct {
	Detail string
}

func (e *MalformedRuleError) Error() string {
	return "malformed layout rule: " + e.Detail
}

// ErrorCode returns core.EINVALID.
func (e *MalformedRuleError) ErrorCode() int {
	return core.EINVALID
}

// UserMessage returns the detail, suitable for end users.
func (e *MalformedRuleError) UserMessage() string {
	return "layout rules: " + e.Detail
}

var _ core.AppError = &MalformedRuleError{}

func malformed(format string, v ...interface{}) error {
	return &MalformedRuleError{Detail: fmt.Sprintf(format, v...)}
}
