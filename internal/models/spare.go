package models

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Spare categories. Anything else groups under CategoryOthers.
const (
	CategoryPeripherals = "Peripherals"
	CategoryPrinters    = "Printers"
	CategoryCables      = "Cables"
	CategoryComponents  = "Components"
	CategoryPower       = "Power"
	CategoryLaptops     = "Laptops"
	CategoryOthers      = "Others"
)

// SpareCategories lists the fixed categories in display order.
var SpareCategories = []string{
	CategoryPeripherals,
	CategoryPrinters,
	CategoryCables,
	CategoryComponents,
	CategoryPower,
	CategoryLaptops,
}

// KnownCategory reports whether c is one of the fixed categories.
func KnownCategory(c string) bool {
	for _, v := range SpareCategories {
		if c == v {
			return true
		}
	}
	return false
}

// SpareItem is one stock-keeping unit of spare inventory.
type SpareItem struct {
	Category string `json:"category"`
	Name     string `json:"name"`
	Qty      int    `json:"qty"`
}

// WithDelta returns the item with its quantity adjusted. The second return
// is false when the adjustment would take the quantity below zero, in
// which case the item is returned unchanged.
func (s SpareItem) WithDelta(delta int) (SpareItem, bool) {
	next := s.Qty + delta
	if next < 0 {
		return s, false
	}
	s.Qty = next
	return s, true
}

var spareKeySeparators = regexp.MustCompile(`\s+`)

// SpareKey normalizes a display name into a store key.
func SpareKey(name string) string {
	return strings.ToLower(spareKeySeparators.ReplaceAllString(strings.TrimSpace(name), "_"))
}

// NewSpareKey builds a key for a user-added item. A random suffix keeps
// two items with the same normalized name from colliding.
func NewSpareKey(name string) string {
	suffix := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return SpareKey(name) + "_" + suffix
}

// DefaultSpares is the built-in inventory seeded the first time the spares
// collection is empty, and restored by the reset operation.
func DefaultSpares() map[string]SpareItem {
	defaults := []SpareItem{
		{Category: CategoryPeripherals, Name: "Mouse (Wired)"},
		{Category: CategoryPeripherals, Name: "Mouse (Wireless)"},
		{Category: CategoryPeripherals, Name: "Keyboard (Wired)"},
		{Category: CategoryPeripherals, Name: "Keyboard (Wireless)"},
		{Category: CategoryPeripherals, Name: "Headphones"},
		{Category: CategoryPeripherals, Name: "Webcam"},
		{Category: CategoryPrinters, Name: "Printer"},
		{Category: CategoryPrinters, Name: "Cartridge"},
		{Category: CategoryCables, Name: "HDMI Cable"},
		{Category: CategoryCables, Name: "VGA Cable"},
		{Category: CategoryCables, Name: "Power Cord"},
		{Category: CategoryComponents, Name: "RAM 8GB"},
		{Category: CategoryComponents, Name: "RAM 16GB"},
		{Category: CategoryComponents, Name: "HDD 1TB"},
		{Category: CategoryComponents, Name: "SSD 256GB"},
		{Category: CategoryComponents, Name: "SSD 512GB"},
		{Category: CategoryPower, Name: "UPS"},
		{Category: CategoryLaptops, Name: "Laptop"},
	}

	out := make(map[string]SpareItem, len(defaults))
	for _, item := range defaults {
		out[SpareKey(item.Name)] = item
	}
	return out
}
