package merge

import (
	"errors"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/npillmayer/ufomerge/core"
)

func TestPolicyZeroValue(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ufomerge.merge")
	defer teardown()
	//
	var p Policy
	if p.Existing != SkipExisting || p.Layout != SubsetLayout {
		t.Errorf("expected the zero policy to skip and subset, got %v + %v", p.Existing, p.Layout)
	}
	if p.Existing.String() != "skip-existing" {
		t.Errorf("unexpected mode name %q", p.Existing)
	}
	if p.Layout.String() != "subset-layout" {
		t.Errorf("unexpected mode name %q", p.Layout)
	}
}

func TestPolicyFromFlags(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ufomerge.merge")
	defer teardown()
	//
	p, err := PolicyFromFlags(false, false, false, false, false)
	if err != nil {
		t.Fatalf("no switches should build the default policy, got %v", err)
	}
	if p != (Policy{}) {
		t.Errorf("expected the zero policy, got %v + %v", p.Existing, p.Layout)
	}
	p, err = PolicyFromFlags(false, true, false, true, false)
	if err != nil {
		t.Fatalf("replace + closure should be a valid combination, got %v", err)
	}
	if p.Existing != ReplaceExisting || p.Layout != LayoutClosure {
		t.Errorf("expected replace + closure, got %v + %v", p.Existing, p.Layout)
	}
}

func TestPolicyFromConflictingFlags(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ufomerge.merge")
	defer teardown()
	//
	_, err := PolicyFromFlags(true, true, false, false, false)
	var conflict *ConflictingPolicyError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected a conflicting-policy error, got %v", err)
	}
	if core.Code(err) != core.EINVALID {
		t.Errorf("expected error code EINVALID, got %d", core.Code(err))
	}
	if _, err = PolicyFromFlags(false, false, true, false, true); err == nil {
		t.Errorf("expected two layout switches to conflict")
	}
}
