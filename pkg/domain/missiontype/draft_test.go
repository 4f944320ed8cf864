package missiontype

import (
	"errors"
	"testing"

	"github.com/skyfield/missionforge/pkg/domain"
)

func TestDraft_FirstStateBecomesInitial(t *testing.T) {
	d := NewDraft("patrol", nil)
	if err := d.AddState("scan", State{Prompt: "scan the area"}); err != nil {
		t.Fatal(err)
	}
	if got := d.Configuration().InitialState; got != "scan" {
		t.Errorf("expected initial state 'scan', got %q", got)
	}
}

func TestDraft_RejectsTransitionToUndeclaredState(t *testing.T) {
	d := NewDraft("patrol", nil)
	if err := d.AddState("scan", State{}); err != nil {
		t.Fatal(err)
	}

	err := d.AddTransition(Transition{From: "scan", To: "ghost", Condition: "True"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(d.Configuration().Transitions) != 0 {
		t.Error("rejected transition was applied to the draft")
	}
}

func TestDraft_RemovingInitialStateRequiresReplacement(t *testing.T) {
	d := NewDraft("patrol", validConfig())

	err := d.RemoveState("execution", "")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	if err := d.RemoveState("execution", "end"); err != nil {
		t.Fatal(err)
	}
	cfg := d.Configuration()
	if cfg.InitialState != "end" {
		t.Errorf("expected initial state moved to 'end', got %q", cfg.InitialState)
	}
	if len(cfg.Transitions) != 0 {
		t.Error("transitions touching removed state were not dropped")
	}
}

func TestDraft_DuplicateStateRejected(t *testing.T) {
	d := NewDraft("patrol", validConfig())
	if err := d.AddState("execution", State{}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDraft_DiscardRestoresBase(t *testing.T) {
	base := validConfig()
	d := NewDraft(base.Name, base)
	if err := d.AddState("loiter", State{}); err != nil {
		t.Fatal(err)
	}
	d.Discard()
	if _, ok := d.Configuration().States["loiter"]; ok {
		t.Error("discard did not drop staged state")
	}
	if !equalConfigurations(base, d.Configuration()) {
		t.Error("discarded draft differs from base")
	}
}

func TestDraft_FinalizeRejectsInvalidDraft(t *testing.T) {
	d := NewDraft("patrol", nil)
	// No states at all: zero initial states.
	if _, err := d.Finalize(); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDraft_FinalizeReturnsDetachedCopy(t *testing.T) {
	d := NewDraft("patrol", validConfig())
	got, err := d.Finalize()
	if err != nil {
		t.Fatal(err)
	}
	got.States["injected"] = State{}
	if _, ok := d.Configuration().States["injected"]; ok {
		t.Error("finalized configuration shares state with draft")
	}
}
