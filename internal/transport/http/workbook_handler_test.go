package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apierrors "sheetpilot/internal/errors"
	"sheetpilot/internal/services"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := testLogger()
	service := services.NewWorkbookService(logger, services.WorkbookServiceConfig{})
	handler := NewWorkbookHandler(service, logger, apierrors.NewErrorHandler(logger, false), 10*1024*1024)

	r := chi.NewRouter()
	r.Mount("/api/workbooks", handler.Routes())
	return r
}

func claimsFile(t *testing.T) *bytes.Buffer {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	rows := [][]interface{}{
		{"Service Date", "Amount", "Doctor"},
		{"10/01/2024", 100, "A"},
		{"15/01/2024", 150, "B"},
		{"20/02/2024", 200, "C"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return &buf
}

func multipartUpload(t *testing.T, filename string, content io.Reader) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = io.Copy(part, content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return &body, writer.FormDataContentType()
}

func uploadSession(t *testing.T, router http.Handler) SessionResponse {
	t.Helper()

	body, contentType := multipartUpload(t, "claims.xlsx", claimsFile(t))
	req := httptest.NewRequest(http.MethodPost, "/api/workbooks/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp SessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestWorkbookHandler_Upload(t *testing.T) {
	router := newTestRouter(t)

	resp := uploadSession(t, router)

	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "claims.xlsx", resp.SourceName)
	assert.Equal(t, []string{"Service Date", "Amount", "Doctor"}, resp.Header)
	assert.Equal(t, 0, resp.DateColumnIndex)
	require.NotEmpty(t, resp.Candidates)
	assert.Equal(t, "Service Date", resp.Candidates[0].Header)
	require.Len(t, resp.Months, 2)
	assert.Equal(t, "January 2024", resp.Months[0].DisplayName)
	assert.Equal(t, 2, resp.Months[0].Count)
}

func TestWorkbookHandler_Upload_Errors(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name       string
		filename   string
		content    string
		wantStatus int
	}{
		{
			name:       "unsupported extension",
			filename:   "claims.csv",
			content:    "a,b,c",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "renamed text file",
			filename:   "claims.xlsx",
			content:    "not a zip archive",
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, contentType := multipartUpload(t, tt.filename, strings.NewReader(tt.content))
			req := httptest.NewRequest(http.MethodPost, "/api/workbooks/", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Header().Get("Content-Type"), "application/problem+json")
		})
	}
}

func TestWorkbookHandler_Upload_EmptyWorkbook(t *testing.T) {
	router := newTestRouter(t)

	f := excelize.NewFile()
	defer f.Close()
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	body, contentType := multipartUpload(t, "empty.xlsx", &buf)
	req := httptest.NewRequest(http.MethodPost, "/api/workbooks/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "workbook/empty")
	assert.Contains(t, rec.Body.String(), "empty.xlsx")
}

func TestWorkbookHandler_GetSession_NotFound(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/workbooks/nonexistent", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "not-found")
}

func TestWorkbookHandler_GetMonths(t *testing.T) {
	router := newTestRouter(t)
	session := uploadSession(t, router)

	req := httptest.NewRequest(http.MethodGet, "/api/workbooks/"+session.ID+"/months?column=0", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		DateColumnIndex int             `json:"date_column_index"`
		Months          []MonthResponse `json:"months"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.DateColumnIndex)
	require.Len(t, resp.Months, 2)
	assert.Equal(t, "2024-01", resp.Months[0].Key)
}

func TestWorkbookHandler_GetMonths_InvalidColumn(t *testing.T) {
	router := newTestRouter(t)
	session := uploadSession(t, router)

	req := httptest.NewRequest(http.MethodGet, "/api/workbooks/"+session.ID+"/months?column=99", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWorkbookHandler_Preview(t *testing.T) {
	router := newTestRouter(t)
	session := uploadSession(t, router)

	body := `{"remove_columns":["Doctor"],"exclude_months":["February 2024"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/workbooks/"+session.ID+"/preview", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp PreviewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"Service Date", "Amount"}, resp.Header)
	assert.Equal(t, 2, resp.RowCount)
}

func TestWorkbookHandler_Preview_InvalidBody(t *testing.T) {
	router := newTestRouter(t)
	session := uploadSession(t, router)

	req := httptest.NewRequest(http.MethodPost, "/api/workbooks/"+session.ID+"/preview", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWorkbookHandler_Export_CSV(t *testing.T) {
	router := newTestRouter(t)
	session := uploadSession(t, router)

	body := `{"format":"csv"}`
	req := httptest.NewRequest(http.MethodPost, "/api/workbooks/"+session.ID+"/export", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "claims_processed.csv")
	assert.Contains(t, rec.Body.String(), "Service Date,Amount,Doctor")
}

func TestWorkbookHandler_Export_Xlsx(t *testing.T) {
	router := newTestRouter(t)
	session := uploadSession(t, router)

	body := `{"format":"xlsx","split_by_month":true}`
	req := httptest.NewRequest(http.MethodPost, "/api/workbooks/"+session.ID+"/export", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	assert.ElementsMatch(t, []string{"January 2024", "February 2024"}, f.GetSheetList())
}

func TestWorkbookHandler_Export_SplitWithoutDateColumn(t *testing.T) {
	router := newTestRouter(t)
	session := uploadSession(t, router)

	body := `{"format":"xlsx","split_by_month":true,"remove_columns":["Service Date"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/workbooks/"+session.ID+"/export", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "date-column-removed")
}

func TestWorkbookHandler_Export_InvalidFormat(t *testing.T) {
	router := newTestRouter(t)
	session := uploadSession(t, router)

	body := `{"format":"pdf"}`
	req := httptest.NewRequest(http.MethodPost, "/api/workbooks/"+session.ID+"/export", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWorkbookHandler_Delete(t *testing.T) {
	router := newTestRouter(t)
	session := uploadSession(t, router)

	req := httptest.NewRequest(http.MethodDelete, "/api/workbooks/"+session.ID, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/workbooks/"+session.ID, nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
