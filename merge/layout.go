package merge

import (
	"fmt"
	"strings"

	"github.com/npillmayer/ufomerge/core/ufo"
	"github.com/npillmayer/ufomerge/core/ufo/feat"
)

// subsetTable filters a layout rule table down to the rules fully
// expressible over keep. A rule survives iff every glyph name it
// references is in keep; rules are decided independently, there is no
// narrowing of glyph sets within a rule. A chained rule additionally
// needs every nested lookup to keep at least one rule, and dropping a
// chained rule may in turn starve another lookup, so chain liveness
// cascades until stable. Empty lookups drop from their feature, empty
// features drop from the table, and standalone lookups drop once no
// surviving chain references them. Language system registrations pass
// through.
//
// The input table is left untouched; the result is a fresh table. A nil
// or empty input yields nil. An input failing Validate is rejected
// before any filtering.
func subsetTable(table *feat.Table, keep map[string]bool) (*feat.Table, error) {
	if table.Empty() {
		return nil, nil
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	filtered := table.Clone()
	live := markLiveRules(filtered, keep)
	pruneTable(filtered, live)
	return filtered, nil
}

// markLiveRules decides rule retention for every rule of the table.
func markLiveRules(table *feat.Table, keep map[string]bool) map[feat.Rule]bool {
	live := make(map[feat.Rule]bool)
	table.EachRule(func(_ *feat.Lookup, rule feat.Rule) {
		retain := true
		for _, name := range rule.GlyphReferences() {
			if !keep[name] {
				tracer().Debugf("dropping rule '%s', references %q", rule, name)
				retain = false
				break
			}
		}
		live[rule] = retain
	})
	for changed := true; changed; {
		changed = false
		table.EachRule(func(_ *feat.Lookup, rule feat.Rule) {
			chain, ok := rule.(*feat.ChainedRule)
			if !ok || !live[rule] {
				return
			}
			for _, ref := range chain.Nested {
				target, _ := table.ResolveLookup(ref.Name)
				if target == nil || !hasLiveRules(target, live) {
					tracer().Debugf("dropping chained rule '%s', lookup %q did not survive", chain, ref.Name)
					live[rule] = false
					changed = true
					return
				}
			}
		})
	}
	return live
}

// pruneTable strips dead rules, emptied lookups and features, and
// standalone lookups that lost their last referencing chain.
func pruneTable(table *feat.Table, live map[feat.Rule]bool) {
	referenced := make(map[string]bool)
	table.EachRule(func(_ *feat.Lookup, rule feat.Rule) {
		chain, ok := rule.(*feat.ChainedRule)
		if !ok || !live[rule] {
			return
		}
		for _, ref := range chain.Nested {
			referenced[ref.Name] = true
		}
	})
	var pool []*feat.Lookup
	for _, lookup := range table.Lookups {
		lookup.Rules = liveRules(lookup, live)
		if len(lookup.Rules) == 0 {
			tracer().Debugf("dropping lookup %q, no rules survive", lookup.Name)
			continue
		}
		if !referenced[lookup.Name] {
			tracer().Debugf("dropping lookup %q, no surviving rule references it", lookup.Name)
			continue
		}
		pool = append(pool, lookup)
	}
	table.Lookups = pool
	var features []*feat.Feature
	for _, feature := range table.Features {
		var lookups []*feat.Lookup
		for _, lookup := range feature.Lookups {
			lookup.Rules = liveRules(lookup, live)
			if len(lookup.Rules) > 0 {
				lookups = append(lookups, lookup)
			}
		}
		feature.Lookups = lookups
		if len(feature.Lookups) == 0 {
			tracer().Debugf("dropping feature %q, no lookups survive", feature.Tag)
			continue
		}
		features = append(features, feature)
	}
	table.Features = features
}

func liveRules(lookup *feat.Lookup, live map[feat.Rule]bool) []feat.Rule {
	var rules []feat.Rule
	for _, rule := range lookup.Rules {
		if live[rule] {
			rules = append(rules, rule)
		}
	}
	return rules
}

func hasLiveRules(lookup *feat.Lookup, live map[feat.Rule]bool) bool {
	for _, rule := range lookup.Rules {
		if live[rule] {
			return true
		}
	}
	return false
}

// evaluateRules collects the glyph names the table's substitution rules
// can produce from members of set. A substitution applies when its
// input members are in set and every context slot is satisfiable;
// chained rules produce nothing themselves (their nested lookups are
// rules of the same table and get visited anyway), positioning rules
// never produce. The result may contain duplicates and names set
// already has.
func evaluateRules(table *feat.Table, set map[string]bool) []string {
	if table.Empty() {
		return nil
	}
	var produced []string
	table.EachRule(func(_ *feat.Lookup, rule feat.Rule) {
		switch r := rule.(type) {
		case *feat.SimpleSub:
			if !satisfiable(r.Backtrack, set) || !satisfiable(r.Lookahead, set) {
				return
			}
			for i, in := range r.In {
				if !set[in] {
					continue
				}
				if len(r.Out) == 1 {
					produced = append(produced, r.Out[0])
				} else {
					produced = append(produced, r.Out[i])
				}
			}
		case *feat.LigatureSub:
			if !satisfiable(r.Backtrack, set) || !satisfiable(r.Lookahead, set) {
				return
			}
			if satisfiable(r.Components, set) {
				produced = append(produced, r.Ligature)
			}
		}
	})
	return produced
}

// satisfiable is true if every slot has at least one member in set. An
// empty slot list is trivially satisfiable.
func satisfiable(slots []feat.GlyphSet, set map[string]bool) bool {
	for _, slot := range slots {
		hit := false
		for _, name := range slot {
			if set[name] {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	return true
}

// spliceLayout merges an already filtered donor rule table into the
// recipient's. The filtered table is a throwaway copy, so lookups move
// over by reference. A feature tag present on both sides becomes one
// merged feature with the donor's lookups appended after the
// recipient's; rules the recipient already carries are not appended
// again, so merging the same donor twice changes nothing. Donor lookups
// whose name is taken for different content are renamed.
func spliceLayout(recipient *ufo.Font, donor *feat.Table) {
	if donor == nil || len(donor.Features) == 0 && len(donor.Lookups) == 0 {
		return
	}
	if recipient.Features == nil {
		recipient.Features = &feat.Table{}
	}
	table := recipient.Features
	adoptPoolLookups(table, donor)
	renameCollidingLookups(table, donor)
	table.Languages = unionLanguages(table.Languages, donor.Languages)
	table.Lookups = append(table.Lookups, donor.Lookups...)
	for _, incoming := range donor.Features {
		feature := table.Feature(incoming.Tag)
		if feature == nil {
			table.Features = append(table.Features, incoming)
			continue
		}
		tracer().Debugf("feature %q exists on both sides, merging", incoming.Tag)
		type lookupKey struct{ name, rules string }
		have := make(map[lookupKey]bool)
		for _, l := range feature.Lookups {
			have[lookupKey{l.Name, lookupFingerprint(l)}] = true
		}
		for _, l := range incoming.Lookups {
			key := lookupKey{l.Name, lookupFingerprint(l)}
			if have[key] {
				tracer().Debugf("feature %q already carries these rules, skipped", incoming.Tag)
				continue
			}
			feature.Lookups = append(feature.Lookups, l)
			have[key] = true
		}
	}
	if err := table.Validate(); err != nil {
		tracer().Errorf("merged rule table is unhealthy: %v", err)
	}
}

// adoptPoolLookups drops incoming standalone lookups whose rules the
// recipient pool already has under some name, and rewires the incoming
// references to that name.
func adoptPoolLookups(recipient, incoming *feat.Table) {
	existing := make(map[string]string)
	for _, l := range recipient.Lookups {
		existing[lookupFingerprint(l)] = l.Name
	}
	var fresh []*feat.Lookup
	for _, l := range incoming.Lookups {
		if name, ok := existing[lookupFingerprint(l)]; ok {
			tracer().Debugf("incoming lookup %q matches existing %q, reusing", l.Name, name)
			incoming.RenameLookup(l.Name, name)
			continue
		}
		fresh = append(fresh, l)
	}
	incoming.Lookups = fresh
}

// lookupFingerprint serializes a lookup's rules for content comparison.
func lookupFingerprint(l *feat.Lookup) string {
	var b strings.Builder
	for _, rule := range l.Rules {
		b.WriteString(rule.String())
		b.WriteString("\n")
	}
	return b.String()
}

// renameCollidingLookups renames incoming lookups whose name is already
// taken in the recipient table for different rules, appending a numeric
// suffix. Nested references follow the rename. An incoming lookup
// matching an existing one in name and rules keeps its name; the
// feature merge recognizes and skips it.
func renameCollidingLookups(recipient, incoming *feat.Table) {
	taken := make(map[string]bool)
	content := make(map[string]string)
	for _, l := range allLookups(recipient) {
		if l.Name == "" {
			continue
		}
		taken[l.Name] = true
		content[l.Name] = lookupFingerprint(l)
	}
	for _, l := range allLookups(incoming) {
		if l.Name == "" {
			continue
		}
		if !taken[l.Name] {
			taken[l.Name] = true
			continue
		}
		if content[l.Name] == lookupFingerprint(l) {
			continue
		}
		renamed := fmt.Sprintf("%s_%d", l.Name, 1)
		for n := 2; taken[renamed]; n++ {
			renamed = fmt.Sprintf("%s_%d", l.Name, n)
		}
		tracer().Debugf("renaming incoming lookup %q to %q", l.Name, renamed)
		incoming.RenameLookup(l.Name, renamed)
		taken[renamed] = true
	}
}

func allLookups(table *feat.Table) []*feat.Lookup {
	var lookups []*feat.Lookup
	lookups = append(lookups, table.Lookups...)
	for _, f := range table.Features {
		lookups = append(lookups, f.Lookups...)
	}
	return lookups
}

// unionLanguages merges two language system registration lists, in
// order, without duplicates, with 'DFLT dflt' hoisted to the front if
// either side registers it.
func unionLanguages(a, b []feat.LangSys) []feat.LangSys {
	seen := make(map[feat.LangSys]bool)
	var union []feat.LangSys
	add := func(ls feat.LangSys) {
		if !seen[ls] {
			seen[ls] = true
			union = append(union, ls)
		}
	}
	dflt := feat.LangSys{Script: "DFLT", Lang: "dflt"}
	for _, side := range [][]feat.LangSys{a, b} {
		for _, ls := range side {
			if ls == dflt {
				add(dflt)
			}
		}
	}
	for _, ls := range a {
		add(ls)
	}
	for _, ls := range b {
		add(ls)
	}
	return union
}
