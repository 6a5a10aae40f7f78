// Package match implements the match evaluator: screening a candidate
// BRAM against a memory cell's derived properties using the min/max
// predicates of a MatchRule, plus the declarative waste metric.
package match

import (
	"fmt"

	"github.com/openlane-go/membram/pkg/mem"
	"github.com/openlane-go/membram/pkg/rules"
)

// UnknownPropertyError reports a match rule referencing a property name the
// evaluator doesn't compute. This is a fatal configuration error, not a
// mapping failure.
type UnknownPropertyError struct {
	BramName string
	Property string
}

func (e *UnknownPropertyError) Error() string {
	return fmt.Sprintf("unknown property %q in match rule for bram type %q", e.Property, e.BramName)
}

// Properties computes the derived property set for a logical memory
// against a candidate BramType.
func Properties(m *mem.LogicalMemory, bram *rules.BramType) map[string]int {
	words := m.Size
	dbits := m.Width
	wports := m.WPorts
	rports := m.RPorts

	bramSlots := 1 << uint(bram.ABits)

	aover := words % bramSlots
	awaste := 0

	if aover != 0 {
		awaste = bramSlots - aover
	}

	dover := dbits % bram.DBits
	dwaste := 0

	if dover != 0 {
		dwaste = bram.DBits - dover
	}

	waste := awaste*bram.DBits + dwaste*bramSlots - awaste*dwaste

	return map[string]int{
		"words":  words,
		"abits":  m.ABits,
		"dbits":  dbits,
		"wports": wports,
		"rports": rports,
		"ports":  wports + rports,
		"bits":   words * dbits,
		"awaste": awaste,
		"dwaste": dwaste,
		"waste":  waste,
	}
}

// Evaluate reports whether a MatchRule accepts a candidate memory/BRAM
// pair: every min_limits entry must be met or exceeded, every max_limits
// entry must be met or undershot. It also returns the full derived
// property table, for logging and the driver's dry-run reporting.
func Evaluate(m *mem.LogicalMemory, bram *rules.BramType, rule rules.MatchRule) (bool, map[string]int, error) {
	props := Properties(m, bram)

	for key, limit := range rule.MinLimits {
		value, known := props[key]
		if !known {
			return false, props, &UnknownPropertyError{BramName: rule.Name, Property: key}
		}

		if value < limit {
			return false, props, nil
		}
	}

	for key, limit := range rule.MaxLimits {
		value, known := props[key]
		if !known {
			return false, props, &UnknownPropertyError{BramName: rule.Name, Property: key}
		}

		if value > limit {
			return false, props, nil
		}
	}

	return true, props, nil
}
