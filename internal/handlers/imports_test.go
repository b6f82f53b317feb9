package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v3"

	"triveni-inventory-api/internal/store"
)

func workbookBytes(t *testing.T, rows [][]string) []byte {
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

func multipartUpload(t *testing.T, filename string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	if filename != "" {
		fw, err := writer.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestImportsHandler_UploadExcel(t *testing.T) {
	handler := NewImportsHandler(store.NewMemory())

	t.Run("Rejects non-multipart content type", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/imports/excel", nil)
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		handler.UploadExcel(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "content-type must be multipart/form-data")
	})

	t.Run("Rejects missing file", func(t *testing.T) {
		body, contentType := multipartUpload(t, "", nil, map[string]string{"dry_run": "true"})

		req := httptest.NewRequest("POST", "/imports/excel", body)
		req.Header.Set("Content-Type", contentType)

		w := httptest.NewRecorder()
		handler.UploadExcel(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "file is required")
	})

	t.Run("Rejects non-xlsx file", func(t *testing.T) {
		body, contentType := multipartUpload(t, "test.xls", []byte("fake excel content"), nil)

		req := httptest.NewRequest("POST", "/imports/excel", body)
		req.Header.Set("Content-Type", contentType)

		w := httptest.NewRecorder()
		handler.UploadExcel(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "only .xlsx files are accepted")
	})

	t.Run("Rejects corrupt workbook", func(t *testing.T) {
		body, contentType := multipartUpload(t, "test.xlsx", []byte("not a zip archive"), nil)

		req := httptest.NewRequest("POST", "/imports/excel", body)
		req.Header.Set("Content-Type", contentType)

		w := httptest.NewRecorder()
		handler.UploadExcel(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), "IMPORT_FAILED")
	})

	t.Run("Imports a valid workbook", func(t *testing.T) {
		st := store.NewMemory()
		handler := NewImportsHandler(st)

		data := workbookBytes(t, [][]string{
			{"Asset Set", "Status"},
			{"TGA01", "Free"},
			{"TGA02", "Assigned"},
		})
		body, contentType := multipartUpload(t, "assets.xlsx", data, nil)

		req := httptest.NewRequest("POST", "/imports/excel", body)
		req.Header.Set("Content-Type", contentType)

		w := httptest.NewRecorder()
		handler.UploadExcel(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data struct {
				Imported int `json:"imported"`
				Errors   int `json:"errors"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 2, resp.Data.Imported)
		assert.Zero(t, resp.Data.Errors)

		docs, err := st.GetAll(req.Context(), store.CollectionAssets)
		require.NoError(t, err)
		assert.Len(t, docs, 2)
	})

	t.Run("Dry run leaves the store untouched", func(t *testing.T) {
		st := store.NewMemory()
		handler := NewImportsHandler(st)

		data := workbookBytes(t, [][]string{
			{"Asset Set"},
			{"TGA03"},
		})
		body, contentType := multipartUpload(t, "assets.xlsx", data, map[string]string{"dry_run": "true"})

		req := httptest.NewRequest("POST", "/imports/excel", body)
		req.Header.Set("Content-Type", contentType)

		w := httptest.NewRecorder()
		handler.UploadExcel(w, req)

		require.Equal(t, http.StatusOK, w.Code)

		docs, err := st.GetAll(req.Context(), store.CollectionAssets)
		require.NoError(t, err)
		assert.Empty(t, docs)
	})
}

func TestIsXLSX(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		expected bool
	}{
		{"Valid xlsx", "test.xlsx", true},
		{"Valid xlsx uppercase", "TEST.XLSX", true},
		{"Valid xlsx mixed case", "Test.XlSx", true},
		{"Invalid xls", "test.xls", false},
		{"Invalid xlsm", "test.xlsm", false},
		{"Invalid txt", "test.txt", false},
		{"No extension", "test", false},
		{"Empty filename", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := &multipart.FileHeader{
				Filename: tt.filename,
			}
			result := isXLSX(header)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	data := map[string]interface{}{
		"message": "test",
		"count":   42,
	}

	writeJSON(w, http.StatusOK, data)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	require.NoError(t, err)
	assert.Equal(t, "test", response["message"])
	assert.Equal(t, float64(42), response["count"])
}
