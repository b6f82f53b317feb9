package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"triveni-inventory-api/internal/models"
	"triveni-inventory-api/pkg/assettag"
)

func TestAssetSetTableShape(t *testing.T) {
	sets := []models.AssetSet{
		{
			ID:          2,
			SetName:     "TGA02",
			Status:      models.StatusAssigned,
			Assignee:    "J.Doe",
			Tags:        assettag.Generate("TGA02"),
			Display1:    models.DisplayUnit{Brand: "Dell", Model: "P2419H", Size: "24 inch"},
			Peripherals: models.Peripherals{Mouse: "Logitech M90"},
			CreatedAt:   "01 Mar 2026",
		},
		{
			ID:        1,
			SetName:   "TGA01",
			Status:    models.StatusFree,
			Tags:      assettag.Generate("TGA01"),
			CreatedAt: "28 Feb 2026",
		},
	}

	table := AssetSetTable(sets)

	require.Len(t, table.Rows, len(sets))
	for _, row := range table.Rows {
		// uniform row shape: one cell per declared column
		assert.Len(t, row, len(table.Columns))
		for _, cell := range row {
			assert.NotEmpty(t, cell)
		}
	}

	assert.Equal(t, "TGA02", table.Rows[0][0])
	assert.Equal(t, "J.Doe", table.Rows[0][2])
	assert.Equal(t, "TGA-C-02", table.Rows[0][4])
	assert.Equal(t, "TGA-D1-2", table.Rows[0][8])

	// absent optionals render as the placeholder, not as gaps
	assert.Equal(t, Placeholder, table.Rows[1][2])  // no assignee
	assert.Equal(t, Placeholder, table.Rows[1][5])  // no monitor 1 brand
	assert.Equal(t, Placeholder, table.Rows[1][13]) // no mouse
}

func TestAssetSetTableEmpty(t *testing.T) {
	table := AssetSetTable(nil)
	assert.Equal(t, AssetSetColumns, table.Columns)
	assert.Empty(t, table.Rows)
}

func TestSpareTableSorted(t *testing.T) {
	table := SpareTable(map[string]models.SpareItem{
		"ups":        {Category: models.CategoryPower, Name: "UPS", Qty: 2},
		"hdmi_cable": {Category: models.CategoryCables, Name: "HDMI Cable", Qty: 0},
		"power_cord": {Category: models.CategoryCables, Name: "Power Cord", Qty: 5},
	})

	require.Len(t, table.Rows, 3)
	assert.Equal(t, []string{models.CategoryCables, "HDMI Cable", "0"}, table.Rows[0])
	assert.Equal(t, []string{models.CategoryCables, "Power Cord", "5"}, table.Rows[1])
	assert.Equal(t, []string{models.CategoryPower, "UPS", "2"}, table.Rows[2])
}

func TestXLSXRoundTrip(t *testing.T) {
	table := SpareTable(map[string]models.SpareItem{
		"ups": {Category: models.CategoryPower, Name: "UPS", Qty: 2},
	})

	data, err := table.XLSX("Spares")
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Spares")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, SpareColumns, rows[0])
	assert.Equal(t, []string{models.CategoryPower, "UPS", "2"}, rows[1])
}
