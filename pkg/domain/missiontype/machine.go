package missiontype

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"
)

// Machine is an executable view of a Configuration, used by the editor to
// preview transitions. It never drives a real mission.
type Machine struct {
	interpreter *statekit.Interpreter[struct{}]
}

// NewMachine builds a statekit machine from the configuration. The build is
// also the structural cross-check run at commit time: an undeclared target
// or missing initial state fails here even if hand-rolled validation missed
// it.
func NewMachine(c *Configuration) (*Machine, error) {
	builder := statekit.NewMachine[struct{}](c.Name).
		WithInitial(statekit.StateID(c.InitialState)).
		WithContext(struct{}{})

	for _, name := range c.StateNames() {
		sb := builder.State(statekit.StateID(name))
		ts := c.TransitionsFrom(name)
		if len(ts) == 0 {
			sb.Done()
			continue
		}
		chain := sb.On(statekit.EventType(ts[0].Condition)).Target(statekit.StateID(ts[0].To))
		for _, t := range ts[1:] {
			chain = chain.On(statekit.EventType(t.Condition)).Target(statekit.StateID(t.To))
		}
		chain.Done()
	}

	machine, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build state machine: %w", err)
	}

	interpreter := statekit.NewInterpreter(machine)
	interpreter.Start()

	return &Machine{interpreter: interpreter}, nil
}

// Current returns the state the machine currently rests in.
func (m *Machine) Current() string {
	return string(m.interpreter.State().Value)
}

// Fire applies the transition guarded by the given condition. In statekit a
// non-matching event leaves the state unchanged, which we surface as an
// error so the editor can flag dead conditions.
func (m *Machine) Fire(condition string) error {
	before := m.Current()
	m.interpreter.Send(statekit.Event{Type: statekit.EventType(condition)})
	after := m.Current()
	if before == after {
		return fmt.Errorf("condition %q does not transition out of state %q", condition, before)
	}
	return nil
}

// Verify builds the machine and discards it, reporting only whether the
// configuration is structurally sound.
func Verify(c *Configuration) error {
	_, err := NewMachine(c)
	return err
}
