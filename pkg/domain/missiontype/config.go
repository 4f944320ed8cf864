// Package missiontype defines the state-machine configuration that governs
// UAV behavior for missions of one type: named states with prompts, tools,
// and observations, plus condition-guarded transitions between them.
package missiontype

import (
	"fmt"
	"sort"
)

// Configuration is a directed state machine authored in the visual editor.
type Configuration struct {
	Name         string           `json:"name" yaml:"name"`
	Description  string           `json:"description,omitempty" yaml:"description,omitempty"`
	InitialState string           `json:"initial_state" yaml:"initial_state"`
	States       map[string]State `json:"states" yaml:"states"`
	Transitions  []Transition     `json:"transitions" yaml:"transitions"`
}

// State describes what the controller does while the machine rests in it.
type State struct {
	Prompt       string   `json:"prompt" yaml:"prompt"`
	Tools        []string `json:"tools,omitempty" yaml:"tools,omitempty"`
	Observations []string `json:"observations,omitempty" yaml:"observations,omitempty"`
}

// Transition moves the machine from one declared state to another when its
// condition predicate holds. Conditions are opaque strings evaluated by the
// mission runtime; "else" is the per-state fallback.
type Transition struct {
	From      string `json:"from" yaml:"from"`
	To        string `json:"to" yaml:"to"`
	Condition string `json:"condition" yaml:"condition"`
}

// StateNames returns the declared state names in sorted order.
func (c *Configuration) StateNames() []string {
	names := make([]string, 0, len(c.States))
	for name := range c.States {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TransitionsFrom returns the transitions whose source is the given state,
// in declaration order.
func (c *Configuration) TransitionsFrom(state string) []Transition {
	var out []Transition
	for _, t := range c.Transitions {
		if t.From == state {
			out = append(out, t)
		}
	}
	return out
}

// Validate checks the structural invariants: a non-empty name, exactly one
// declared initial state, every transition endpoint declared, and no
// duplicate (from, condition) pairs.
func (c *Configuration) Validate() []error {
	var errs []error
	if c.Name == "" {
		errs = append(errs, fmt.Errorf("configuration name is required"))
	}
	if len(c.States) == 0 {
		errs = append(errs, fmt.Errorf("configuration must declare at least one state"))
	}
	if c.InitialState == "" {
		errs = append(errs, fmt.Errorf("no state is marked initial"))
	} else if _, ok := c.States[c.InitialState]; !ok {
		errs = append(errs, fmt.Errorf("initial state %q is not declared", c.InitialState))
	}

	seen := make(map[[2]string]bool)
	for i, t := range c.Transitions {
		if t.From == "" || t.To == "" {
			errs = append(errs, fmt.Errorf("transition at index %d missing endpoint", i))
			continue
		}
		if _, ok := c.States[t.From]; !ok {
			errs = append(errs, fmt.Errorf("transition %q -> %q references undeclared source state", t.From, t.To))
		}
		if _, ok := c.States[t.To]; !ok {
			errs = append(errs, fmt.Errorf("transition %q -> %q references undeclared target state", t.From, t.To))
		}
		if t.Condition == "" {
			errs = append(errs, fmt.Errorf("transition %q -> %q has an empty condition", t.From, t.To))
		}
		key := [2]string{t.From, t.Condition}
		if seen[key] {
			errs = append(errs, fmt.Errorf("state %q declares condition %q twice", t.From, t.Condition))
		}
		seen[key] = true
	}
	return errs
}

// Clone returns a deep copy, used by the editor to stage draft edits without
// touching the committed configuration.
func (c *Configuration) Clone() *Configuration {
	out := &Configuration{
		Name:         c.Name,
		Description:  c.Description,
		InitialState: c.InitialState,
	}
	if c.States != nil {
		out.States = make(map[string]State, len(c.States))
		for name, s := range c.States {
			cp := State{Prompt: s.Prompt}
			cp.Tools = append([]string(nil), s.Tools...)
			cp.Observations = append([]string(nil), s.Observations...)
			out.States[name] = cp
		}
	}
	out.Transitions = append([]Transition(nil), c.Transitions...)
	return out
}
