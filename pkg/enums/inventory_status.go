package enums

import "fmt"

// InventoryStatus summarizes the quantity columns of an inventory row. It is
// derived state; the quantities remain the source of truth.
type InventoryStatus string

const (
	InventoryStatusAvailable   InventoryStatus = "available"
	InventoryStatusReserved    InventoryStatus = "reserved"
	InventoryStatusSold        InventoryStatus = "sold"
	InventoryStatusMaintenance InventoryStatus = "maintenance"
)

var validInventoryStatuses = []InventoryStatus{
	InventoryStatusAvailable,
	InventoryStatusReserved,
	InventoryStatusSold,
	InventoryStatusMaintenance,
}

// String implements fmt.Stringer.
func (i InventoryStatus) String() string {
	return string(i)
}

// IsValid reports whether the value is a known InventoryStatus.
func (i InventoryStatus) IsValid() bool {
	for _, candidate := range validInventoryStatuses {
		if candidate == i {
			return true
		}
	}
	return false
}

// ParseInventoryStatus converts raw input into an InventoryStatus.
func ParseInventoryStatus(value string) (InventoryStatus, error) {
	for _, candidate := range validInventoryStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid inventory status %q", value)
}
