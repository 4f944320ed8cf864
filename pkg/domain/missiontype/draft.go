package missiontype

import (
	"fmt"

	"github.com/skyfield/missionforge/pkg/domain"
)

// Draft is the editor's staging copy of a Configuration. Every mutation is
// validated against the state-machine invariants before it is applied, so an
// invariant-violating intermediate state never reaches persistence. The
// committed configuration is only replaced on an explicit commit.
type Draft struct {
	base   *Configuration
	staged *Configuration
}

// NewDraft opens a draft over the given configuration. A nil base starts a
// brand-new configuration with the given name.
func NewDraft(name string, base *Configuration) *Draft {
	if base == nil {
		base = &Configuration{Name: name, States: map[string]State{}}
	}
	return &Draft{base: base, staged: base.Clone()}
}

// Configuration returns the staged configuration. Callers must treat it as
// read-only; mutations go through the draft operations.
func (d *Draft) Configuration() *Configuration {
	return d.staged
}

// Dirty reports whether the draft differs from its base.
func (d *Draft) Dirty() bool {
	return len(d.staged.Validate()) == 0 && !equalConfigurations(d.base, d.staged)
}

// AddState declares a new state. The first state added becomes the initial
// state automatically, matching the editor's behavior of never leaving a
// machine without an entry point.
func (d *Draft) AddState(name string, s State) error {
	if name == "" {
		return domain.NewValidationError(d.staged.Name, []error{fmt.Errorf("state name is required")})
	}
	if _, ok := d.staged.States[name]; ok {
		return domain.NewValidationError(d.staged.Name, []error{fmt.Errorf("state %q already declared", name)})
	}
	d.staged.States[name] = s
	if d.staged.InitialState == "" {
		d.staged.InitialState = name
	}
	return nil
}

// UpdateState replaces the payload of a declared state.
func (d *Draft) UpdateState(name string, s State) error {
	if _, ok := d.staged.States[name]; !ok {
		return domain.NewValidationError(d.staged.Name, []error{fmt.Errorf("state %q is not declared", name)})
	}
	d.staged.States[name] = s
	return nil
}

// RemoveState deletes a state together with every transition touching it.
// Removing the initial state requires a declared replacement; the editor
// must never drop the sole initial marker.
func (d *Draft) RemoveState(name, replacementInitial string) error {
	if _, ok := d.staged.States[name]; !ok {
		return domain.NewValidationError(d.staged.Name, []error{fmt.Errorf("state %q is not declared", name)})
	}
	if d.staged.InitialState == name {
		if replacementInitial == "" || replacementInitial == name {
			return domain.NewValidationError(d.staged.Name, []error{
				fmt.Errorf("state %q is the initial state; designate a replacement before removing it", name),
			})
		}
		if _, ok := d.staged.States[replacementInitial]; !ok {
			return domain.NewValidationError(d.staged.Name, []error{
				fmt.Errorf("replacement initial state %q is not declared", replacementInitial),
			})
		}
		d.staged.InitialState = replacementInitial
	}
	delete(d.staged.States, name)

	kept := d.staged.Transitions[:0]
	for _, t := range d.staged.Transitions {
		if t.From != name && t.To != name {
			kept = append(kept, t)
		}
	}
	d.staged.Transitions = kept
	return nil
}

// SetInitial moves the initial marker to another declared state.
func (d *Draft) SetInitial(name string) error {
	if _, ok := d.staged.States[name]; !ok {
		return domain.NewValidationError(d.staged.Name, []error{fmt.Errorf("initial state %q is not declared", name)})
	}
	d.staged.InitialState = name
	return nil
}

// AddTransition connects two declared states under a condition.
func (d *Draft) AddTransition(t Transition) error {
	var issues []error
	if _, ok := d.staged.States[t.From]; !ok {
		issues = append(issues, fmt.Errorf("source state %q is not declared", t.From))
	}
	if _, ok := d.staged.States[t.To]; !ok {
		issues = append(issues, fmt.Errorf("target state %q is not declared", t.To))
	}
	if t.Condition == "" {
		issues = append(issues, fmt.Errorf("transition condition is required"))
	}
	for _, existing := range d.staged.Transitions {
		if existing.From == t.From && existing.Condition == t.Condition {
			issues = append(issues, fmt.Errorf("state %q already declares condition %q", t.From, t.Condition))
			break
		}
	}
	if len(issues) > 0 {
		return domain.NewValidationError(d.staged.Name, issues)
	}
	d.staged.Transitions = append(d.staged.Transitions, t)
	return nil
}

// RemoveTransition drops the transition matching all three fields.
func (d *Draft) RemoveTransition(t Transition) error {
	for i, existing := range d.staged.Transitions {
		if existing == t {
			d.staged.Transitions = append(d.staged.Transitions[:i], d.staged.Transitions[i+1:]...)
			return nil
		}
	}
	return domain.NewValidationError(d.staged.Name, []error{
		fmt.Errorf("no transition %q -> %q on condition %q", t.From, t.To, t.Condition),
	})
}

// SetDescription updates the human-readable description.
func (d *Draft) SetDescription(desc string) {
	d.staged.Description = desc
}

// Finalize validates the whole staged configuration, including the statekit
// structural build, and returns it ready for persistence.
func (d *Draft) Finalize() (*Configuration, error) {
	if errs := d.staged.Validate(); len(errs) > 0 {
		return nil, domain.NewValidationError(d.staged.Name, errs)
	}
	if err := Verify(d.staged); err != nil {
		return nil, domain.NewValidationError(d.staged.Name, []error{err})
	}
	return d.staged.Clone(), nil
}

// Discard resets the draft back to its base.
func (d *Draft) Discard() {
	d.staged = d.base.Clone()
}

func equalConfigurations(a, b *Configuration) bool {
	if a.Name != b.Name || a.Description != b.Description || a.InitialState != b.InitialState {
		return false
	}
	if len(a.States) != len(b.States) || len(a.Transitions) != len(b.Transitions) {
		return false
	}
	for name, sa := range a.States {
		sb, ok := b.States[name]
		if !ok || sa.Prompt != sb.Prompt {
			return false
		}
		if !equalStrings(sa.Tools, sb.Tools) || !equalStrings(sa.Observations, sb.Observations) {
			return false
		}
	}
	for i := range a.Transitions {
		if a.Transitions[i] != b.Transitions[i] {
			return false
		}
	}
	return true
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
