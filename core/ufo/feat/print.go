package feat

import (
	"fmt"
	"strconv"
	"strings"
)

// Fea serializes the table back into feature-file syntax. The output is
// canonical: languagesystem statements first, then the standalone
// lookups, then the features with their lookups inlined. The same table
// always prints the same text.
func (t *Table) Fea() string {
	if t.Empty() {
		return ""
	}
	var b strings.Builder
	if len(t.Languages) > 0 {
		for _, ls := range t.Languages {
			fmt.Fprintf(&b, "languagesystem %s %s;\n", ls.Script, ls.Lang)
		}
		b.WriteString("\n")
	}
	for _, lookup := range t.Lookups {
		writeLookup(&b, lookup, "")
		b.WriteString("\n")
	}
	for _, feature := range t.Features {
		fmt.Fprintf(&b, "feature %s {\n", feature.Tag)
		for _, lookup := range feature.Lookups {
			if lookup.Name == "" {
				writeRules(&b, lookup.Rules, "    ")
			} else {
				writeLookup(&b, lookup, "    ")
			}
		}
		fmt.Fprintf(&b, "} %s;\n\n", feature.Tag)
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

func writeLookup(b *strings.Builder, lookup *Lookup, indent string) {
	fmt.Fprintf(b, "%slookup %s {\n", indent, lookup.Name)
	writeRules(b, lookup.Rules, indent+"    ")
	fmt.Fprintf(b, "%s} %s;\n", indent, lookup.Name)
}

func writeRules(b *strings.Builder, rules []Rule, indent string) {
	for _, rule := range rules {
		b.WriteString(indent)
		b.WriteString(rule.String())
		b.WriteString("\n")
	}
}

func setString(set GlyphSet) string {
	if len(set) == 1 {
		return set[0]
	}
	return "[" + strings.Join(set, " ") + "]"
}

func valueString(vr ValueRecord) string {
	if vr.IsAdvanceOnly() {
		return strconv.Itoa(vr.XAdvance)
	}
	return fmt.Sprintf("<%d %d %d %d>", vr.XPlacement, vr.YPlacement, vr.XAdvance, vr.YAdvance)
}

func appendSetStrings(parts []string, sets []GlyphSet, mark bool) []string {
	for _, set := range sets {
		s := setString(set)
		if mark {
			s += "'"
		}
		parts = append(parts, s)
	}
	return parts
}

func (r *SimpleSub) String() string {
	contextual := len(r.Backtrack) > 0 || len(r.Lookahead) > 0
	parts := []string{"sub"}
	parts = appendSetStrings(parts, r.Backtrack, false)
	parts = appendSetStrings(parts, []GlyphSet{r.In}, contextual)
	parts = appendSetStrings(parts, r.Lookahead, false)
	parts = append(parts, "by", setString(r.Out))
	return strings.Join(parts, " ") + ";"
}

func (r *LigatureSub) String() string {
	contextual := len(r.Backtrack) > 0 || len(r.Lookahead) > 0
	parts := []string{"sub"}
	parts = appendSetStrings(parts, r.Backtrack, false)
	parts = appendSetStrings(parts, r.Components, contextual)
	parts = appendSetStrings(parts, r.Lookahead, false)
	parts = append(parts, "by", r.Ligature)
	return strings.Join(parts, " ") + ";"
}

func (r *ChainedRule) String() string {
	keyword := "sub"
	if r.Pos {
		keyword = "pos"
	}
	parts := []string{keyword}
	parts = appendSetStrings(parts, r.Backtrack, false)
	for i, set := range r.Input {
		part := setString(set) + "'"
		for _, ref := range r.Nested {
			if ref.Slot == i {
				part += " lookup " + ref.Name
			}
		}
		parts = append(parts, part)
	}
	parts = appendSetStrings(parts, r.Lookahead, false)
	return strings.Join(parts, " ") + ";"
}

func (r *Positioning) String() string {
	contextual := len(r.Backtrack) > 0 || len(r.Lookahead) > 0
	parts := []string{"pos"}
	parts = appendSetStrings(parts, r.Backtrack, false)
	perSlot := len(r.Values) == len(r.Slots) && len(r.Slots) > 1
	for i, set := range r.Slots {
		slot := setString(set)
		if contextual {
			slot += "'"
		}
		parts = append(parts, slot)
		if perSlot {
			parts = append(parts, valueString(r.Values[i]))
		} else if i == len(r.Slots)-1 && len(r.Values) > 0 {
			parts = append(parts, valueString(r.Values[0]))
		}
	}
	parts = appendSetStrings(parts, r.Lookahead, false)
	return strings.Join(parts, " ") + ";"
}
