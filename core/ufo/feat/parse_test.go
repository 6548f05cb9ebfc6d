package feat

import (
	"errors"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func TestParseLigature(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ufomerge.ufo")
	defer teardown()
	//
	table, err := Parse([]byte(`
feature liga {
    sub f i by f_i;
} liga;
`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(table.Features) != 1 || table.Features[0].Tag != "liga" {
		t.Fatalf("expected a single feature liga, got %v", table.Features)
	}
	lookups := table.Features[0].Lookups
	if len(lookups) != 1 || lookups[0].Name != "" {
		t.Fatalf("expected one anonymous lookup, got %v", lookups)
	}
	lig, ok := lookups[0].Rules[0].(*LigatureSub)
	if !ok {
		t.Fatalf("expected a ligature substitution, got %T", lookups[0].Rules[0])
	}
	if len(lig.Components) != 2 || lig.Ligature != "f_i" {
		t.Errorf("expected f + i to f_i, got %s", lig)
	}
}

func TestParseClassPairwise(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ufomerge.ufo")
	defer teardown()
	//
	table, err := Parse([]byte(`
@VOWELS = [a e i o u];
feature ss01 {
    sub @VOWELS by [a.alt e.alt i.alt o.alt u.alt];
} ss01;
`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	sub, ok := table.Features[0].Lookups[0].Rules[0].(*SimpleSub)
	if !ok {
		t.Fatalf("expected a simple substitution, got %T", table.Features[0].Lookups[0].Rules[0])
	}
	if len(sub.In) != 5 || len(sub.Out) != 5 {
		t.Errorf("expected 5 ins and 5 outs, got %d and %d", len(sub.In), len(sub.Out))
	}
	if sub.In[2] != "i" || sub.Out[2] != "i.alt" {
		t.Errorf("expected classes to stay parallel, got %s to %s", sub.In[2], sub.Out[2])
	}
}

func TestParseContextualSub(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ufomerge.ufo")
	defer teardown()
	//
	table, err := Parse([]byte(`
feature ccmp {
    sub A A' B' by C;
} ccmp;
`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	lig, ok := table.Features[0].Lookups[0].Rules[0].(*LigatureSub)
	if !ok {
		t.Fatalf("expected a contextual ligature substitution, got %T",
			table.Features[0].Lookups[0].Rules[0])
	}
	if len(lig.Backtrack) != 1 || lig.Backtrack[0][0] != "A" {
		t.Errorf("expected backtrack [A], got %v", lig.Backtrack)
	}
	if len(lig.Components) != 2 || lig.Ligature != "C" {
		t.Errorf("expected marked A B to C, got %s", lig)
	}
}

func TestParseChainedRule(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ufomerge.ufo")
	defer teardown()
	//
	table, err := Parse([]byte(`
lookup chained {
    sub A by B;
} chained;

feature test {
    pos [A B]' lookup chained [A B C];
} test;
`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(table.Lookups) != 1 || table.Lookups[0].Name != "chained" {
		t.Fatalf("expected lookup chained in the standalone pool, got %v", table.Lookups)
	}
	chain, ok := table.Features[0].Lookups[0].Rules[0].(*ChainedRule)
	if !ok {
		t.Fatalf("expected a chained rule, got %T", table.Features[0].Lookups[0].Rules[0])
	}
	if !chain.Pos {
		t.Errorf("expected a positioning chain")
	}
	if len(chain.Nested) != 1 || chain.Nested[0].Name != "chained" || chain.Nested[0].Slot != 0 {
		t.Errorf("expected nested reference to chained at slot 0, got %v", chain.Nested)
	}
	if len(chain.Lookahead) != 1 || len(chain.Lookahead[0]) != 3 {
		t.Errorf("expected lookahead [A B C], got %v", chain.Lookahead)
	}
}

func TestParseLookupReference(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ufomerge.ufo")
	defer teardown()
	//
	table, err := Parse([]byte(`
lookup one {
    sub a by a.alt;
} one;

feature ss01 {
    lookup one;
} ss01;
`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(table.Lookups) != 0 {
		t.Errorf("expected an empty standalone pool, got %v", table.Lookups)
	}
	lookups := table.Features[0].Lookups
	if len(lookups) != 1 || lookups[0].Name != "one" {
		t.Fatalf("expected lookup one inside ss01, got %v", lookups)
	}
}

func TestParseMixedLookupReferences(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ufomerge.ufo")
	defer teardown()
	//
	// "lookup one;" moves the first lookup into the feature, leaving a
	// hole in the standalone pool while the second is still in it
	table, err := Parse([]byte(`
lookup one {
    sub a by a.alt;
} one;

lookup kk {
    pos one 10;
} kk;

feature ss01 {
    lookup one;
} ss01;

feature kern {
    pos a' lookup kk b;
} kern;
`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(table.Lookups) != 1 || table.Lookups[0].Name != "kk" {
		t.Fatalf("expected only lookup kk in the standalone pool, got %v", table.Lookups)
	}
	lookups := table.Features[0].Lookups
	if len(lookups) != 1 || lookups[0].Name != "one" {
		t.Errorf("expected lookup one inside ss01, got %v", lookups)
	}
	if _, ok := table.ResolveLookup("kk"); !ok {
		t.Errorf("expected the chain reference to keep lookup kk resolvable")
	}
}

func TestParseDropsUnreferencedLookup(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ufomerge.ufo")
	defer teardown()
	//
	table, err := Parse([]byte(`
lookup orphan {
    sub a by b;
} orphan;

feature liga {
    sub f i by f_i;
} liga;
`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if _, ok := table.ResolveLookup("orphan"); ok {
		t.Errorf("expected lookup orphan to be dropped")
	}
	if len(table.Lookups) != 0 {
		t.Errorf("expected an empty standalone pool, got %v", table.Lookups)
	}
}

func TestParseLanguagesystems(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ufomerge.ufo")
	defer teardown()
	//
	table, err := Parse([]byte(`
languagesystem DFLT dflt;
languagesystem latn dflt;

feature ccmp {
    sub a by b;
} ccmp;
`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(table.Languages) != 2 {
		t.Fatalf("expected 2 language systems, got %d", len(table.Languages))
	}
	if table.Languages[0] != (LangSys{"DFLT", "dflt"}) {
		t.Errorf("expected DFLT dflt first, got %v", table.Languages[0])
	}
}

func TestParsePositioning(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ufomerge.ufo")
	defer teardown()
	//
	table, err := Parse([]byte(`
feature kern {
    pos A B -40;
    pos [A] 120;
    pos A <1 2 3 4> B <5 6 7 8>;
} kern;
`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	rules := table.Features[0].Lookups[0].Rules
	if len(rules) != 3 {
		t.Fatalf("expected 3 rules, got %d", len(rules))
	}
	pair := rules[0].(*Positioning)
	if len(pair.Slots) != 2 || pair.Values[0].XAdvance != -40 {
		t.Errorf("expected pair kern of -40, got %s", pair)
	}
	single := rules[1].(*Positioning)
	if len(single.Slots) != 1 || single.Values[0].XAdvance != 120 {
		t.Errorf("expected single pos of 120, got %s", single)
	}
	records := rules[2].(*Positioning)
	if len(records.Values) != 2 || records.Values[1].YAdvance != 8 {
		t.Errorf("expected per-slot value records, got %s", records)
	}
}

func TestParseContextualPositioning(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ufomerge.ufo")
	defer teardown()
	//
	table, err := Parse([]byte(`
@DAGESH = [dagesh-hb];
@OFFENDERS = [yod-hb lamed-hb];
feature kern {
    pos [vav-hb zayin-hb] @DAGESH @OFFENDERS' 60;
} kern;
`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	pos := table.Features[0].Lookups[0].Rules[0].(*Positioning)
	if len(pos.Backtrack) != 2 {
		t.Fatalf("expected 2 backtrack slots, got %v", pos.Backtrack)
	}
	if len(pos.Slots) != 1 || len(pos.Slots[0]) != 2 {
		t.Errorf("expected the marked class as single slot, got %v", pos.Slots)
	}
	if pos.Values[0].XAdvance != 60 {
		t.Errorf("expected advance 60, got %s", pos)
	}
}

func TestParseDiscardsRegistrationStatements(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ufomerge.ufo")
	defer teardown()
	//
	table, err := Parse([]byte(`
feature ss01 {
    featureNames {
        name "Alternate a";
    };
    script latn;
    language dflt;
    lookupflag IgnoreMarks;
    sub a by a.alt;
} ss01;
`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	rules := table.Features[0].Lookups[0].Rules
	if len(rules) != 1 {
		t.Fatalf("expected the one real rule to survive, got %d", len(rules))
	}
}

func TestParseRejectsUnsupported(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ufomerge.ufo")
	defer teardown()
	//
	sources := []string{
		"feature test { sub a from [b c]; } test;",
		"feature test { sub a by b c; } test;",
		"markClass [acute] <anchor 150 -10> @TOP_MARKS;",
		"feature test { ignore sub a b'; } test;",
		"feature test { pos A' lookup nowhere B; } test;",
	}
	for _, src := range sources {
		_, err := Parse([]byte(src))
		if err == nil {
			t.Errorf("expected parse of %q to fail", src)
			continue
		}
		var malformed *MalformedRuleError
		if !errors.As(err, &malformed) {
			t.Errorf("expected a malformed-rule error for %q, got %v", src, err)
		}
	}
}

func TestParseRejectsDanglingQuote(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ufomerge.ufo")
	defer teardown()
	//
	_, err := Parse([]byte("feature test { sub a' b; } test;"))
	if err == nil {
		t.Errorf("expected contextual substitution without action to fail")
	}
}
