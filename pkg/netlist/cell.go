package netlist

// Cell is a single instance within a Module: a named, typed device with
// integer parameters and signal-vector ports.
type Cell struct {
	Name   string
	Type   string
	params map[string]int
	ports  map[string]SigSpec
}

func newCell(name, typ string) *Cell {
	return &Cell{
		Name:   name,
		Type:   typ,
		params: make(map[string]int),
		ports:  make(map[string]SigSpec),
	}
}

// GetParam returns the integer value of a parameter, or 0 if unset.
func (c *Cell) GetParam(name string) int {
	return c.params[name]
}

// SetParam assigns an integer parameter value.
func (c *Cell) SetParam(name string, value int) {
	c.params[name] = value
}

// GetParamBool reads a parameter as a boolean (non-zero is true), the form
// used for CLKPOL<n> parameters.
func (c *Cell) GetParamBool(name string) bool {
	return c.params[name] != 0
}

// SetParamBool assigns a boolean parameter, stored as 0/1.
func (c *Cell) SetParamBool(name string, value bool) {
	if value {
		c.params[name] = 1
	} else {
		c.params[name] = 0
	}
}

// GetPort returns the signal vector bound to a named port, or an empty
// SigSpec if the port hasn't been connected.
func (c *Cell) GetPort(name string) SigSpec {
	return c.ports[name]
}

// SetPort binds a signal vector to a named port.
func (c *Cell) SetPort(name string, sig SigSpec) {
	c.ports[name] = sig
}

// HasPort reports whether a port has ever been explicitly set on this cell.
func (c *Cell) HasPort(name string) bool {
	_, ok := c.ports[name]
	return ok
}

// PortNames returns the names of every port set on this cell, primarily for
// diagnostics and test assertions.
func (c *Cell) PortNames() []string {
	names := make([]string, 0, len(c.ports))
	for name := range c.ports {
		names = append(names, name)
	}

	return names
}
