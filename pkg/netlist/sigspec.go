// Package netlist provides the minimal in-memory design-graph primitives
// that the memory-to-BRAM core treats as an external collaborator: wires,
// signal vectors, cells and modules, plus the handful of gate constructors
// (Eq, Mux, Pmux, Dff) the stitcher emits against.
package netlist

import "fmt"

// State is the value carried by a constant bit of a SigSpec.
type State uint8

// The four states a single bit of a signal vector may carry. Sx is used for
// don't-care default values (the Pmux default); zero-extension padding bits
// are constant S0 bits with a nil Wire.
const (
	S0 State = iota
	S1
	Sx
	Sz
)

// Wire is a named, fixed-width signal declared within a Module.
type Wire struct {
	Name  string
	Width int
}

// SigBit is a single bit of a signal: either a bit of some Wire, or a
// constant. A SigBit with a nil Wire is a constant (its Value holds the
// constant state); this is how zero-extension padding is represented, and is
// what the stitcher's lane-pruning step tests for.
type SigBit struct {
	Wire  *Wire
	Index int
	Value State
}

// Const constructs a single constant bit.
func Const(v State) SigBit {
	return SigBit{Value: v}
}

// IsConst reports whether this bit is a constant (i.e. undriven by any
// wire). Zero-extension padding bits are constants.
func (b SigBit) IsConst() bool {
	return b.Wire == nil
}

func (b SigBit) String() string {
	if b.Wire == nil {
		switch b.Value {
		case S0:
			return "0"
		case S1:
			return "1"
		case Sz:
			return "z"
		default:
			return "x"
		}
	}

	return fmt.Sprintf("%s[%d]", b.Wire.Name, b.Index)
}

// SigSpec is an ordered vector of bits, the basic unit the port assigner and
// stitcher operate on for addresses, data and enables.
type SigSpec []SigBit

// WireBits returns the full SigSpec exposed by a wire, bit 0 first.
func WireBits(w *Wire) SigSpec {
	bits := make(SigSpec, w.Width)
	for i := range bits {
		bits[i] = SigBit{Wire: w, Index: i}
	}

	return bits
}

// ConstSpec returns a SigSpec of n constant bits all holding value v.
func ConstSpec(v State, n int) SigSpec {
	bits := make(SigSpec, n)
	for i := range bits {
		bits[i] = Const(v)
	}

	return bits
}

// Append returns the concatenation of this spec followed by other (bit 0 of
// the result is bit 0 of the receiver).
func (s SigSpec) Append(other SigSpec) SigSpec {
	r := make(SigSpec, 0, len(s)+len(other))
	r = append(r, s...)
	r = append(r, other...)

	return r
}

// Extract returns the n bits starting at offset. It is an error (panic) to
// request a range that extends past the end of s; callers must ExtendU0
// first when the logical width may exceed the current length.
func (s SigSpec) Extract(offset, n int) SigSpec {
	if offset < 0 || n < 0 || offset+n > len(s) {
		panic(fmt.Sprintf("netlist: Extract(%d,%d) out of range for SigSpec of size %d", offset, n, len(s)))
	}

	r := make(SigSpec, n)
	copy(r, s[offset:offset+n])

	return r
}

// ExtendU0 returns a copy of s zero-extended (unsigned, extended with
// constant-0 bits) up to total width n. If s is already at least n bits
// wide, it is returned unchanged (never truncated).
func (s SigSpec) ExtendU0(n int) SigSpec {
	if len(s) >= n {
		return s
	}

	return s.Append(ConstSpec(S0, n-len(s)))
}

// Size returns the number of bits in this spec.
func (s SigSpec) Size() int {
	return len(s)
}

// Empty reports whether this spec carries no bits at all, which the
// stitcher uses to detect "no address decode needed" and similar
// optional-signal cases.
func (s SigSpec) Empty() bool {
	return len(s) == 0
}

// Remove returns a copy of s with the bit at index i deleted.
func (s SigSpec) Remove(i int) SigSpec {
	r := make(SigSpec, 0, len(s)-1)
	r = append(r, s[:i]...)
	r = append(r, s[i+1:]...)

	return r
}
