package missiontype

import (
	"strings"
	"testing"
)

func validConfig() *Configuration {
	return &Configuration{
		Name:         "locate_and_report",
		InitialState: "execution",
		States: map[string]State{
			"execution": {Prompt: "fly", Tools: []string{"next_goal"}},
			"end":       {},
		},
		Transitions: []Transition{
			{From: "execution", To: "end", Condition: "True"},
		},
	}
}

func TestValidate_ValidConfiguration(t *testing.T) {
	if errs := validConfig().Validate(); len(errs) != 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
}

func TestValidate_MissingInitialState(t *testing.T) {
	cfg := validConfig()
	cfg.InitialState = ""
	errs := cfg.Validate()
	if len(errs) == 0 {
		t.Fatal("expected validation error for missing initial state")
	}
	if !strings.Contains(errs[0].Error(), "initial") {
		t.Errorf("unexpected error: %v", errs[0])
	}
}

func TestValidate_UndeclaredInitialState(t *testing.T) {
	cfg := validConfig()
	cfg.InitialState = "nowhere"
	if errs := cfg.Validate(); len(errs) == 0 {
		t.Fatal("expected validation error for undeclared initial state")
	}
}

func TestValidate_UndeclaredTransitionEndpoints(t *testing.T) {
	cfg := validConfig()
	cfg.Transitions = append(cfg.Transitions, Transition{From: "execution", To: "ghost", Condition: "else"})
	cfg.Transitions = append(cfg.Transitions, Transition{From: "phantom", To: "end", Condition: "True"})
	errs := cfg.Validate()
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %d: %v", len(errs), errs)
	}
}

func TestValidate_DuplicateCondition(t *testing.T) {
	cfg := validConfig()
	cfg.Transitions = append(cfg.Transitions, Transition{From: "execution", To: "execution", Condition: "True"})
	if errs := cfg.Validate(); len(errs) == 0 {
		t.Fatal("expected validation error for duplicate (from, condition) pair")
	}
}

func TestValidate_EmptyCondition(t *testing.T) {
	cfg := validConfig()
	cfg.Transitions[0].Condition = ""
	if errs := cfg.Validate(); len(errs) == 0 {
		t.Fatal("expected validation error for empty condition")
	}
}

func TestClone_IsDeep(t *testing.T) {
	cfg := validConfig()
	cp := cfg.Clone()

	cp.States["execution"] = State{Prompt: "changed"}
	cp.Transitions[0].To = "execution"
	cp.InitialState = "end"

	if cfg.States["execution"].Prompt != "fly" {
		t.Error("clone shares state map with original")
	}
	if cfg.Transitions[0].To != "end" {
		t.Error("clone shares transition slice with original")
	}
	if cfg.InitialState != "execution" {
		t.Error("clone shares scalar fields with original")
	}
}

func TestDefaults_AllValid(t *testing.T) {
	for _, cfg := range Defaults() {
		if errs := cfg.Validate(); len(errs) != 0 {
			t.Errorf("default %q invalid: %v", cfg.Name, errs)
		}
	}
}
