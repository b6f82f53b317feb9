// Package export flattens inventory records into uniform tabular rows and
// serializes them into single-sheet XLSX workbooks.
package export

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/xuri/excelize/v2"

	"triveni-inventory-api/internal/models"
)

// Placeholder fills cells whose optional source field is empty so every
// row carries the full column set.
const Placeholder = "N/A"

// Table is an ordered column list plus uniform string rows.
type Table struct {
	Columns []string
	Rows    [][]string
}

// AssetSetColumns is the fixed column set of an asset-set export.
var AssetSetColumns = []string{
	"Asset Set",
	"Status",
	"Assigned To",
	"Created",
	"CPU ID",
	"Monitor 1 Brand",
	"Monitor 1 Model",
	"Monitor 1 Size",
	"Monitor 1 ID",
	"Monitor 2 Brand",
	"Monitor 2 Model",
	"Monitor 2 Size",
	"Monitor 2 ID",
	"Mouse",
	"Mouse ID",
	"Keyboard",
	"Keyboard ID",
	"Headphone",
	"Headphone ID",
	"Camera",
	"Camera ID",
}

// SpareColumns is the fixed column set of a spares export.
var SpareColumns = []string{"Category", "Item Name", "Quantity"}

// AssetSetTable flattens asset sets into export rows, one per set, in the
// order given.
func AssetSetTable(sets []models.AssetSet) Table {
	rows := make([][]string, 0, len(sets))
	for _, set := range sets {
		rows = append(rows, []string{
			orPlaceholder(set.SetName),
			orPlaceholder(set.Status),
			orPlaceholder(set.Assignee),
			orPlaceholder(set.CreatedAt),
			orPlaceholder(set.Tags.CPU),
			orPlaceholder(set.Display1.Brand),
			orPlaceholder(set.Display1.Model),
			orPlaceholder(set.Display1.Size),
			orPlaceholder(set.Tags.Display1),
			orPlaceholder(set.Display2.Brand),
			orPlaceholder(set.Display2.Model),
			orPlaceholder(set.Display2.Size),
			orPlaceholder(set.Tags.Display2),
			orPlaceholder(set.Peripherals.Mouse),
			orPlaceholder(set.Tags.Mouse),
			orPlaceholder(set.Peripherals.Keyboard),
			orPlaceholder(set.Tags.Keyboard),
			orPlaceholder(set.Peripherals.Headphone),
			orPlaceholder(set.Tags.Headphone),
			orPlaceholder(set.Peripherals.Camera),
			orPlaceholder(set.Tags.Camera),
		})
	}
	return Table{Columns: AssetSetColumns, Rows: rows}
}

// SpareTable flattens spare items into export rows, sorted by category
// then name so the sheet reads like the inventory grid.
func SpareTable(items map[string]models.SpareItem) Table {
	flat := make([]models.SpareItem, 0, len(items))
	for _, item := range items {
		flat = append(flat, item)
	}
	sort.Slice(flat, func(i, j int) bool {
		if flat[i].Category != flat[j].Category {
			return flat[i].Category < flat[j].Category
		}
		return flat[i].Name < flat[j].Name
	})

	rows := make([][]string, 0, len(flat))
	for _, item := range flat {
		rows = append(rows, []string{
			orPlaceholder(item.Category),
			orPlaceholder(item.Name),
			fmt.Sprintf("%d", item.Qty),
		})
	}
	return Table{Columns: SpareColumns, Rows: rows}
}

// XLSX serializes the table into a single-sheet workbook.
func (t Table) XLSX(sheet string) ([]byte, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	for col, name := range t.Columns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return nil, err
		}
	}
	for i, row := range t.Rows {
		for col, value := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func orPlaceholder(s string) string {
	if s == "" {
		return Placeholder
	}
	return s
}
