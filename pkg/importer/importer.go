// Package importer parses asset-set workbooks and loads them into the
// document store.
package importer

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/tealeg/xlsx/v3"

	"triveni-inventory-api/internal/models"
	"triveni-inventory-api/internal/store"
	"triveni-inventory-api/pkg/assettag"
)

// ImportOptions defines the configuration for Excel import operations
type ImportOptions struct {
	DryRun    bool
	MaxErrors int // default 50
}

// RowError represents an error that occurred during row processing
type RowError struct {
	Sheet   string `json:"sheet"`
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// SheetSummary contains the import statistics for a single sheet
type SheetSummary struct {
	Name     string     `json:"name"`
	Imported int        `json:"imported"`
	Skipped  int        `json:"skipped"`
	Errors   int        `json:"errors"`
	Samples  []RowError `json:"error_samples,omitempty"`
}

// ImportSummary contains the overall import statistics
type ImportSummary struct {
	Imported int            `json:"imported"`
	Skipped  int            `json:"skipped"`
	Errors   int            `json:"errors"`
	Sheets   []SheetSummary `json:"sheets"`
	DryRun   bool           `json:"dry_run"`
}

// column headers recognized in a workbook, with their accepted aliases
var headerAliases = map[string][]string{
	"setName":   {"Asset Set", "Set Name", "Set"},
	"status":    {"Status"},
	"assignee":  {"Assigned To", "Assignee"},
	"d1brand":   {"Monitor 1 Brand", "Display 1 Brand"},
	"d1model":   {"Monitor 1 Model", "Display 1 Model"},
	"d1size":    {"Monitor 1 Size", "Display 1 Size"},
	"d2brand":   {"Monitor 2 Brand", "Display 2 Brand"},
	"d2model":   {"Monitor 2 Model", "Display 2 Model"},
	"d2size":    {"Monitor 2 Size", "Display 2 Size"},
	"mouse":     {"Mouse"},
	"keyboard":  {"Keyboard"},
	"headphone": {"Headphone", "Audio"},
	"camera":    {"Camera", "Webcam"},
}

// ImportExcel processes an Excel file and writes the asset sets it
// contains through the store. Sheets without a recognizable set-name
// header column are skipped.
func ImportExcel(ctx context.Context, st store.Store, r io.Reader, opts ImportOptions) (ImportSummary, error) {
	summary := ImportSummary{
		DryRun: opts.DryRun,
		Sheets: []SheetSummary{},
	}
	if opts.MaxErrors == 0 {
		opts.MaxErrors = 50
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return summary, fmt.Errorf("failed to read Excel file: %w", err)
	}
	xlFile, err := xlsx.OpenBinary(data)
	if err != nil {
		return summary, fmt.Errorf("failed to open Excel file: %w", err)
	}

	// ids are minted from the import clock; the offset keeps them unique
	// and increasing within one run
	baseID := models.NewAssetSetID(time.Now())
	createdAt := time.Now().Format(models.CreatedAtFormat)
	minted := int64(0)
	nextID := func() int64 {
		id := baseID + minted
		minted++
		return id
	}

	for _, sheet := range xlFile.Sheets {
		sheetSummary := processSheet(ctx, st, sheet, opts, nextID, createdAt)
		if sheetSummary == nil {
			continue // no set-name column, not an asset sheet
		}
		summary.Sheets = append(summary.Sheets, *sheetSummary)
		summary.Imported += sheetSummary.Imported
		summary.Skipped += sheetSummary.Skipped
		summary.Errors += sheetSummary.Errors

		if summary.Errors > opts.MaxErrors {
			return summary, fmt.Errorf("too many errors (%d), stopping import", summary.Errors)
		}
	}

	return summary, nil
}

func processSheet(ctx context.Context, st store.Store, sheet *xlsx.Sheet, opts ImportOptions, nextID func() int64, createdAt string) *SheetSummary {
	headerRow, err := sheet.Row(0)
	if err != nil {
		return nil
	}

	columns := mapHeader(headerRow, sheet.MaxCol)
	if _, ok := columns["setName"]; !ok {
		return nil
	}

	summary := &SheetSummary{Name: sheet.Name}
	for i := 1; i < sheet.MaxRow; i++ {
		row, err := sheet.Row(i)
		if err != nil {
			summary.recordError(sheet.Name, i+1, "failed to read row: "+err.Error())
			continue
		}

		cell := func(field string) string {
			idx, ok := columns[field]
			if !ok {
				return ""
			}
			return strings.TrimSpace(row.GetCell(idx).String())
		}

		setName := cell("setName")
		if setName == "" {
			if rowIsEmpty(row, columns) {
				summary.Skipped++
			} else {
				summary.recordError(sheet.Name, i+1, "setName is required")
			}
			continue
		}

		status := cell("status")
		if status == "" {
			status = models.StatusFree
		}
		if !models.ValidStatus(status) {
			summary.recordError(sheet.Name, i+1, "unknown status "+strconv.Quote(status))
			continue
		}

		set := models.AssetSet{
			ID:       nextID(),
			SetName:  setName,
			Assignee: cell("assignee"),
			Status:   status,
			Tags:     assettag.Generate(setName),
			Display1: models.DisplayUnit{
				Brand: cell("d1brand"),
				Model: cell("d1model"),
				Size:  cell("d1size"),
			},
			Display2: models.DisplayUnit{
				Brand: cell("d2brand"),
				Model: cell("d2model"),
				Size:  cell("d2size"),
			},
			Peripherals: models.Peripherals{
				Mouse:     cell("mouse"),
				Keyboard:  cell("keyboard"),
				Headphone: cell("headphone"),
				Camera:    cell("camera"),
			},
			CreatedAt: createdAt,
		}

		if !opts.DryRun {
			key := strconv.FormatInt(set.ID, 10)
			if err := st.Put(ctx, store.CollectionAssets, key, set); err != nil {
				summary.recordError(sheet.Name, i+1, "store write failed: "+err.Error())
				continue
			}
		}
		summary.Imported++
	}

	return summary
}

func (s *SheetSummary) recordError(sheet string, row int, message string) {
	s.Errors++
	if len(s.Samples) < 10 {
		s.Samples = append(s.Samples, RowError{Sheet: sheet, Row: row, Message: message})
	}
}

// mapHeader resolves the header row into field -> column index using the
// alias table. Matching is case-insensitive.
func mapHeader(headerRow *xlsx.Row, maxCol int) map[string]int {
	columns := make(map[string]int)
	for colIdx := 0; colIdx < maxCol; colIdx++ {
		name := strings.TrimSpace(headerRow.GetCell(colIdx).String())
		if name == "" {
			continue
		}
		for field, aliases := range headerAliases {
			for _, alias := range aliases {
				if strings.EqualFold(alias, name) {
					columns[field] = colIdx
				}
			}
		}
	}
	return columns
}

func rowIsEmpty(row *xlsx.Row, columns map[string]int) bool {
	for _, idx := range columns {
		if strings.TrimSpace(row.GetCell(idx).String()) != "" {
			return false
		}
	}
	return true
}
