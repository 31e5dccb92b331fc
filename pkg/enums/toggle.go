package enums

import "fmt"

// Toggle is an on/off switch persisted with the legacy "1"/"2" wire values so
// existing settings rows keep working.
type Toggle string

const (
	ToggleOn  Toggle = "1"
	ToggleOff Toggle = "2"
)

// Enabled reports whether the toggle is switched on.
func (t Toggle) Enabled() bool {
	return t == ToggleOn
}

// IsValid reports whether the value is a known Toggle.
func (t Toggle) IsValid() bool {
	return t == ToggleOn || t == ToggleOff
}

// ParseToggle accepts the legacy wire values plus "true"/"false" from newer
// clients.
func ParseToggle(value string) (Toggle, error) {
	switch value {
	case string(ToggleOn), "true":
		return ToggleOn, nil
	case string(ToggleOff), "false":
		return ToggleOff, nil
	}
	return "", fmt.Errorf("invalid toggle %q", value)
}

// ToggleFromBool converts a boolean into the legacy representation.
func ToggleFromBool(on bool) Toggle {
	if on {
		return ToggleOn
	}
	return ToggleOff
}
