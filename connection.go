package synth

import (
	"fmt"
	"slices"
	"sync"
)

// Connection is a directed edge from an output of one module to an input of
// another. Module 0 is the output sink and is only ever a destination.
type Connection struct {
	SrcModule  int `yaml:"src_module" json:"src_module"`
	SrcOutput  int `yaml:"src_output" json:"src_output"`
	DestModule int `yaml:"dest_module" json:"dest_module"`
	DestInput  int `yaml:"dest_input" json:"dest_input"`
}

func (c Connection) String() string {
	return fmt.Sprintf("%d:%d -> %d:%d", c.SrcModule, c.SrcOutput, c.DestModule, c.DestInput)
}

// Table is the ordered set of connections. Writers replace the backing slice
// rather than modifying it, so a Snapshot stays valid while the table
// changes underneath it.
type Table struct {
	ports []Info

	mu    sync.Mutex
	edges []Connection
}

// NewTable makes an empty table for modules with the given port layouts,
// indexed by module id.
func NewTable(ports []Info) *Table {
	return &Table{ports: ports}
}

// Validate checks that c refers to ports that exist.
func (t *Table) Validate(c Connection) error {
	return validate(t.ports, c)
}

func validate(ports []Info, c Connection) error {
	switch {
	case c.SrcModule == 0:
		return fmt.Errorf("%v: the output sink has no outputs: %w", c, ErrBadModule)
	case c.SrcModule < 0 || c.SrcModule >= len(ports):
		return fmt.Errorf("%v: source module %d: %w", c, c.SrcModule, ErrBadModule)
	case c.DestModule < 0 || c.DestModule >= len(ports):
		return fmt.Errorf("%v: destination module %d: %w", c, c.DestModule, ErrBadModule)
	}
	if n := len(ports[c.SrcModule].Outputs); c.SrcOutput < 0 || c.SrcOutput >= n {
		return fmt.Errorf("%v: %v has %d outputs: %w", c, ports[c.SrcModule].Kind, n, ErrBadOutput)
	}
	if n := len(ports[c.DestModule].Inputs); c.DestInput < 0 || c.DestInput >= n {
		return fmt.Errorf("%v: %v has %d inputs: %w", c, ports[c.DestModule].Kind, n, ErrBadInput)
	}
	return nil
}

// Add appends c unless it is invalid or already present.
func (t *Table) Add(c Connection) error {
	if err := t.Validate(c); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if slices.Contains(t.edges, c) {
		return fmt.Errorf("%v: %w", c, ErrDuplicate)
	}
	edges := make([]Connection, len(t.edges), len(t.edges)+1)
	copy(edges, t.edges)
	t.edges = append(edges, c)
	return nil
}

// Remove deletes every edge equal to c, failing if there are none.
func (t *Table) Remove(c Connection) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !slices.Contains(t.edges, c) {
		return fmt.Errorf("%v: %w", c, ErrNotConnected)
	}
	edges := make([]Connection, 0, len(t.edges))
	for _, e := range t.edges {
		if e != c {
			edges = append(edges, e)
		}
	}
	t.edges = edges
	return nil
}

// Clear removes every edge.
func (t *Table) Clear() {
	t.mu.Lock()
	t.edges = nil
	t.mu.Unlock()
}

// List returns a copy of the edges in insertion order.
func (t *Table) List() []Connection {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.edges)
}

// Snapshot returns the current edges without copying. The result must not be
// modified.
func (t *Table) Snapshot() []Connection {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.edges
}

func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.edges)
}
