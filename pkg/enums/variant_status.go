package enums

import "fmt"

// VariantStatus marks whether a SKU can still be sold.
type VariantStatus string

const (
	VariantStatusActive   VariantStatus = "active"
	VariantStatusDisabled VariantStatus = "disabled"
)

// Legacy wire values kept for data migrated from the previous stack, where
// "0" meant sellable and anything else meant pulled.
const (
	legacyVariantActive   = "0"
	legacyVariantDisabled = "1"
)

var validVariantStatuses = []VariantStatus{
	VariantStatusActive,
	VariantStatusDisabled,
}

// String implements fmt.Stringer.
func (v VariantStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known VariantStatus.
func (v VariantStatus) IsValid() bool {
	for _, candidate := range validVariantStatuses {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseVariantStatus accepts both current and legacy wire values.
func ParseVariantStatus(value string) (VariantStatus, error) {
	switch value {
	case string(VariantStatusActive), legacyVariantActive:
		return VariantStatusActive, nil
	case string(VariantStatusDisabled), legacyVariantDisabled:
		return VariantStatusDisabled, nil
	}
	return "", fmt.Errorf("invalid variant status %q", value)
}

// LegacyValue renders the status in the legacy single-character form.
func (v VariantStatus) LegacyValue() string {
	if v == VariantStatusActive {
		return legacyVariantActive
	}
	return legacyVariantDisabled
}
