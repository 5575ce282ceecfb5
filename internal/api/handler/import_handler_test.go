package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"loanshop/internal/api/handler/dto"
	"loanshop/internal/domain/customer"
	"loanshop/internal/domain/loan"
	"loanshop/internal/event"
	"loanshop/internal/importer"
	"loanshop/internal/infrastructure/docstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newImportHandler(t *testing.T) (*ImportHandler, customer.Repository) {
	t.Helper()
	store := docstore.NewMemoryStore()
	customers := customer.NewRepository(store, logger)
	loans := loan.NewRepository(store, logger)
	pipeline := importer.NewPipeline(customers, loans, event.NewLogPublisher(logger), logger)
	return NewImportHandler(pipeline, logger), customers
}

func multipartUpload(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestImportHandler_ImportCustomers(t *testing.T) {
	t.Run("imports a CSV upload", func(t *testing.T) {
		h, customers := newImportHandler(t)

		csv := "ชื่อเล่น,ชื่อ-สกุล,เบอร์โทร\nSom,Somchai J.,891234567\nLek,Lek P.,0812345678\n"
		body, contentType := multipartUpload(t, "customers.csv", csv)

		req := httptest.NewRequest(http.MethodPost, "/imports/customers?commit=true", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		h.ImportCustomers(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var resp dto.ImportResultResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, 2, resp.Success)
		assert.Equal(t, 0, resp.Failed)

		stored, err := customers.List(context.Background())
		require.NoError(t, err)
		assert.Len(t, stored, 2)
	})

	t.Run("without commit the upload is only staged", func(t *testing.T) {
		h, customers := newImportHandler(t)

		csv := "ชื่อเล่น,ชื่อ-สกุล\nSom,Somchai J.\nsom,Different Person\n,Missing Nickname\n"
		body, contentType := multipartUpload(t, "customers.csv", csv)

		req := httptest.NewRequest(http.MethodPost, "/imports/customers", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		h.ImportCustomers(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var preview importer.Preview
		require.NoError(t, json.NewDecoder(w.Body).Decode(&preview))
		assert.Equal(t, 3, preview.Total)
		assert.Equal(t, 1, preview.Importable)
		assert.Equal(t, 1, preview.Duplicates)
		assert.Equal(t, 1, preview.Invalid)

		stored, err := customers.List(context.Background())
		require.NoError(t, err)
		assert.Empty(t, stored, "staging must not write")
	})

	t.Run("bad rows are counted without aborting the upload", func(t *testing.T) {
		h, _ := newImportHandler(t)

		csv := "ชื่อเล่น,ชื่อ-สกุล\nSom,Somchai J.\n,Missing Nickname\n"
		body, contentType := multipartUpload(t, "customers.csv", csv)

		req := httptest.NewRequest(http.MethodPost, "/imports/customers?commit=true", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		h.ImportCustomers(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var resp dto.ImportResultResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, 1, resp.Success)
		assert.Equal(t, 1, resp.Failed)
		require.Len(t, resp.Errors, 1)
	})

	t.Run("missing file field is a bad request", func(t *testing.T) {
		h, _ := newImportHandler(t)

		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		require.NoError(t, mw.WriteField("note", "no file here"))
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/imports/customers", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		w := httptest.NewRecorder()
		h.ImportCustomers(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unsupported extension is a bad request", func(t *testing.T) {
		h, _ := newImportHandler(t)

		body, contentType := multipartUpload(t, "customers.pdf", "not a spreadsheet")
		req := httptest.NewRequest(http.MethodPost, "/imports/customers?commit=true", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		h.ImportCustomers(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestImportHandler_ImportLoans(t *testing.T) {
	h, _ := newImportHandler(t)

	csv := "ชื่อเล่น,วันที่กู้,เงินต้น,สถานะ\nSom,01/12/2024,\"5,000\",\nLek,2024-12-05,10000,ต่อดอก\n"
	body, contentType := multipartUpload(t, "loans.csv", csv)

	req := httptest.NewRequest(http.MethodPost, "/imports/loans?commit=true", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	h.ImportLoans(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.ImportResultResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, 2, resp.Success)
	assert.Equal(t, 0, resp.Failed)
}
