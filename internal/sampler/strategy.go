// Package sampler chooses a bounded, representative subset of example
// elements from a structural profile, keeping cross-references resolvable
// and completing elements that are invalid without required children.
package sampler

import "fmt"

// Strategy controls how the selection budget is spent once the
// preserve-all-types pass (if any) has run. It is a closed set: new
// strategies require a new constant and a new case in Select.
type Strategy int

const (
	// StrategyPreserveAllTypes selects one best example per discovered
	// tag and nothing more.
	StrategyPreserveAllTypes Strategy = iota
	// StrategyBalanced divides the remaining budget evenly across tags.
	StrategyBalanced
	// StrategyRandom shuffles all examples and takes until the budget
	// runs out. Deterministic for a fixed Seed.
	StrategyRandom
	// StrategyFirst takes examples in discovery order until the budget
	// runs out.
	StrategyFirst
)

var strategyNames = map[Strategy]string{
	StrategyPreserveAllTypes: "preserve-all-types",
	StrategyBalanced:         "balanced",
	StrategyRandom:           "random",
	StrategyFirst:            "first",
}

func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy converts a config/CLI string into a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	for s, n := range strategyNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown strategy %q (valid: preserve-all-types, balanced, random, first)", name)
}
