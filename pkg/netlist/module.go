package netlist

import "fmt"

// Connection is a single combinational assignment lhs = rhs, as produced by
// Module.Connect. Both sides always have equal width.
type Connection struct {
	LHS, RHS SigSpec
}

// Module is the design graph the stitcher mutates: a flat collection of
// wires, cells and connections, plus name uniquification so grid
// instances never collide.
type Module struct {
	Name        string
	wires       map[string]*Wire
	cells       map[string]*Cell
	order       []string // cell names in insertion order, for deterministic emission
	conns       []Connection
	nameCounter map[string]int
	autoWire    int
}

// NewModule constructs an empty module with the given name.
func NewModule(name string) *Module {
	return &Module{
		Name:        name,
		wires:       make(map[string]*Wire),
		cells:       make(map[string]*Cell),
		nameCounter: make(map[string]int),
	}
}

// Uniquify returns a name guaranteed not to collide with any cell or wire
// already present in this module, appending a numeric suffix if needed.
func (m *Module) Uniquify(base string) string {
	if !m.taken(base) {
		m.nameCounter[base] = 0
		return base
	}

	for {
		m.nameCounter[base]++
		candidate := fmt.Sprintf("%s$%d", base, m.nameCounter[base])

		if !m.taken(candidate) {
			return candidate
		}
	}
}

func (m *Module) taken(name string) bool {
	if _, ok := m.wires[name]; ok {
		return true
	}

	if _, ok := m.cells[name]; ok {
		return true
	}

	return false
}

// AddWire declares a new wire of the given width. If name is empty, an
// internal auto-generated name is allocated (mirroring the collaborator's
// NEW_ID convention for anonymous helper wires).
func (m *Module) AddWire(name string, width int) *Wire {
	if name == "" {
		m.autoWire++
		name = fmt.Sprintf("$auto$wire$%d", m.autoWire)
	} else {
		name = m.Uniquify(name)
	}

	w := &Wire{Name: name, Width: width}
	m.wires[name] = w

	return w
}

// AddCell declares a new cell of the given type, uniquifying its name.
func (m *Module) AddCell(name, typ string) *Cell {
	name = m.Uniquify(name)
	c := newCell(name, typ)
	m.cells[name] = c
	m.order = append(m.order, name)

	return c
}

// Cells returns the cells of this module in the (deterministic) order they
// were added.
func (m *Module) Cells() []*Cell {
	cells := make([]*Cell, 0, len(m.order))
	for _, name := range m.order {
		if c, ok := m.cells[name]; ok {
			cells = append(cells, c)
		}
	}

	return cells
}

// Cell looks up a cell by name, returning nil if absent.
func (m *Module) Cell(name string) *Cell {
	return m.cells[name]
}

// Remove deletes a cell from the module, as the final step of a
// successful stitch that replaces a $mem cell with a BRAM grid.
func (m *Module) Remove(c *Cell) {
	delete(m.cells, c.Name)

	for i, name := range m.order {
		if name == c.Name {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// Connect records a combinational assignment lhs = rhs.
func (m *Module) Connect(lhs, rhs SigSpec) {
	if lhs.Size() != rhs.Size() {
		panic(fmt.Sprintf("netlist: Connect width mismatch: %d vs %d", lhs.Size(), rhs.Size()))
	}

	m.conns = append(m.conns, Connection{LHS: lhs, RHS: rhs})
}

// Connections returns every connection recorded in this module, in order.
func (m *Module) Connections() []Connection {
	return m.conns
}

// Eq emits a combinational equality comparator and returns its single-bit
// output: the addr_ok predicate used to select a grid tile.
func (m *Module) Eq(a, b SigSpec) SigSpec {
	out := m.AddWire("", 1)
	c := m.AddCell("$eq", "$eq")
	c.SetPort("A", a)
	c.SetPort("B", b)
	c.SetPort("Y", WireBits(out))

	return WireBits(out)
}

// Mux emits a 2-to-1 multiplexer selecting b when sel is 1, else a, and
// returns its output. Used to gate per-tile write-enables by addr_ok.
func (m *Module) Mux(a, b, sel SigSpec) SigSpec {
	if a.Size() != b.Size() {
		panic(fmt.Sprintf("netlist: Mux width mismatch: %d vs %d", a.Size(), b.Size()))
	}

	out := m.AddWire("", a.Size())
	c := m.AddCell("$mux", "$mux")
	c.SetPort("A", a)
	c.SetPort("B", b)
	c.SetPort("S", sel)
	c.SetPort("Y", WireBits(out))

	return WireBits(out)
}

// Pmux emits a priority multiplexer: out is driven by the first case in
// data (grouped in chunks the width of def) whose corresponding bit of sel
// is set, or by def if none are. This builds the read-data reduction tree.
func (m *Module) Pmux(def, data, sel, out SigSpec) {
	c := m.AddCell("$pmux", "$pmux")
	c.SetPort("A", def)
	c.SetPort("B", data)
	c.SetPort("S", sel)
	c.SetPort("Y", out)
}

// AddDff emits a clocked register: q follows d on the active edge of clk,
// where polarity true means rising-edge. Used to register addr_ok into
// addr_ok_q for clocked reads.
func (m *Module) AddDff(clk SigBit, d, q SigSpec, polarity bool) *Cell {
	c := m.AddCell("$dff", "$dff")
	c.SetPort("CLK", SigSpec{clk})
	c.SetPort("D", d)
	c.SetPort("Q", q)
	c.SetParamBool("CLK_POLARITY", polarity)

	return c
}
