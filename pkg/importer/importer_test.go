package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v3"

	"triveni-inventory-api/internal/models"
	"triveni-inventory-api/internal/store"
)

func buildWorkbook(t *testing.T, rows [][]string) []byte {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Assets")
	require.NoError(t, err)
	for _, cells := range rows {
		row := sheet.AddRow()
		for _, value := range cells {
			row.AddCell().SetString(value)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestImportExcel(t *testing.T) {
	data := buildWorkbook(t, [][]string{
		{"Asset Set", "Status", "Assigned To", "Monitor 1 Brand", "Mouse"},
		{"TGA01", "Free", "", "Dell", "Logitech M90"},
		{"TGA02", "Assigned", "J.Doe", "HP", ""},
	})

	st := store.NewMemory()
	summary, err := ImportExcel(context.Background(), st, bytes.NewReader(data), ImportOptions{})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Imported)
	assert.Equal(t, 0, summary.Errors)
	require.Len(t, summary.Sheets, 1)
	assert.Equal(t, "Assets", summary.Sheets[0].Name)

	docs, err := st.GetAll(context.Background(), store.CollectionAssets)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	byName := map[string]models.AssetSet{}
	for _, raw := range docs {
		var set models.AssetSet
		require.NoError(t, json.Unmarshal(raw, &set))
		byName[set.SetName] = set
	}

	assert.Equal(t, "TGA-C-01", byName["TGA01"].Tags.CPU)
	assert.Equal(t, "Dell", byName["TGA01"].Display1.Brand)
	assert.Equal(t, "J.Doe", byName["TGA02"].Assignee)
	assert.NotEqual(t, byName["TGA01"].ID, byName["TGA02"].ID)
}

func TestImportExcelRowErrors(t *testing.T) {
	data := buildWorkbook(t, [][]string{
		{"Asset Set", "Status", "Assigned To"},
		{"", "Free", "orphan row"},
		{"TGA03", "Broken", ""},
		{"TGA04", "", ""},
	})

	st := store.NewMemory()
	summary, err := ImportExcel(context.Background(), st, bytes.NewReader(data), ImportOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Imported)
	assert.Equal(t, 2, summary.Errors)
	require.NotEmpty(t, summary.Sheets[0].Samples)
	assert.Equal(t, 2, summary.Sheets[0].Samples[0].Row)
}

func TestImportExcelDryRun(t *testing.T) {
	data := buildWorkbook(t, [][]string{
		{"Asset Set"},
		{"TGA05"},
	})

	st := store.NewMemory()
	summary, err := ImportExcel(context.Background(), st, bytes.NewReader(data), ImportOptions{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Imported)
	assert.True(t, summary.DryRun)

	docs, err := st.GetAll(context.Background(), store.CollectionAssets)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestImportExcelSkipsUnrelatedSheets(t *testing.T) {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Notes")
	require.NoError(t, err)
	row := sheet.AddRow()
	row.AddCell().SetString("Just some text")
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	st := store.NewMemory()
	summary, err := ImportExcel(context.Background(), st, bytes.NewReader(buf.Bytes()), ImportOptions{})
	require.NoError(t, err)
	assert.Empty(t, summary.Sheets)
	assert.Zero(t, summary.Imported)
}
