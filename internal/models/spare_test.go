package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithDeltaFloor(t *testing.T) {
	item := SpareItem{Category: CategoryPower, Name: "UPS", Qty: 0}

	// repeated decrements never go negative
	for i := 0; i < 3; i++ {
		next, ok := item.WithDelta(-1)
		assert.False(t, ok)
		assert.Equal(t, 0, next.Qty)
		item = next
	}

	next, ok := item.WithDelta(1)
	assert.True(t, ok)
	assert.Equal(t, 1, next.Qty)

	next, ok = next.WithDelta(-1)
	assert.True(t, ok)
	assert.Equal(t, 0, next.Qty)
}

func TestSpareKey(t *testing.T) {
	assert.Equal(t, "mouse_(wired)", SpareKey("Mouse (Wired)"))
	assert.Equal(t, "hdmi_cable", SpareKey("  HDMI   Cable  "))
}

func TestNewSpareKeyIsUnique(t *testing.T) {
	a := NewSpareKey("Screwdriver Set")
	b := NewSpareKey("Screwdriver Set")
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, "screwdriver_set_"))
}

func TestDefaultSpares(t *testing.T) {
	defaults := DefaultSpares()
	assert.Len(t, defaults, 18)
	for key, item := range defaults {
		assert.Equal(t, 0, item.Qty, key)
		assert.True(t, KnownCategory(item.Category), key)
		assert.Equal(t, SpareKey(item.Name), key)
	}
}
