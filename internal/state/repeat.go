package state

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// RepeatMode decides what happens when the current item ends.
type RepeatMode uint8

const (
	// RepeatNone advances through the library and stops at its end.
	RepeatNone RepeatMode = iota
	// RepeatAll advances through the library and wraps around.
	RepeatAll
	// RepeatSingle restarts the current item.
	RepeatSingle
	repeatLen
)

var repeatNames = [repeatLen]string{
	RepeatNone:   "none",
	RepeatAll:    "all",
	RepeatSingle: "single",
}

// ParseRepeatMode parses the name of a repeat mode.
func ParseRepeatMode(s string) (RepeatMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for mode, name := range repeatNames {
		if name == s {
			return RepeatMode(mode), nil
		}
	}
	return RepeatNone, errors.Errorf("unknown repeat mode %q", s)
}

func (m RepeatMode) String() string {
	if m < repeatLen {
		return repeatNames[m]
	}
	return "RepeatMode(?)"
}

// Cycle returns the next mode to be activated when the repeat button is
// constantly pressed.
func (m RepeatMode) Cycle() RepeatMode {
	return (m + 1) % repeatLen
}

func (m RepeatMode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *RepeatMode) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}

	mode, err := ParseRepeatMode(name)
	if err != nil {
		return err
	}

	*m = mode
	return nil
}
