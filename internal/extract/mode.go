package extract

import (
	"fmt"
	"strings"
)

// Mode selects the paragraph and link handling strategy.
type Mode int

const (
	// ModeStructural walks the content once and substitutes links by node identity.
	ModeStructural Mode = iota

	// ModeLegacy reproduces the two-pass, string-equality behaviour.
	ModeLegacy
)

// String returns the configuration name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeStructural:
		return "structural"
	case ModeLegacy:
		return "legacy"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode converts a configuration value into a Mode.
// The empty string selects ModeStructural.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "structural":
		return ModeStructural, nil
	case "legacy":
		return ModeLegacy, nil
	default:
		return ModeStructural, fmt.Errorf("unknown extraction mode %q (want structural or legacy)", s)
	}
}
