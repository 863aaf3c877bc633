package schedule

import (
	"fmt"
	"strings"
)

// Strategy names a scheduling formula.
type Strategy string

const (
	// StrategyRating scales a fixed ladder of base intervals by a 1-5 difficulty rating.
	StrategyRating Strategy = "rating"
	// StrategyConfidence derives an easiness factor from recall and confidence.
	StrategyConfidence Strategy = "confidence"
)

// Strategies lists every supported strategy.
var Strategies = []Strategy{StrategyRating, StrategyConfidence}

// IsValid reports whether s is a supported strategy.
func (s Strategy) IsValid() bool {
	return s == StrategyRating || s == StrategyConfidence
}

func (s Strategy) String() string { return string(s) }

// ParseStrategy converts a case-insensitive name into a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	s := Strategy(strings.ToLower(strings.TrimSpace(name)))
	if !s.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
	return s, nil
}
