package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"log/slog"
)

func TestAPIError_Error(t *testing.T) {
	err := New(http.StatusBadRequest, "INVALID_REQUEST", "bad input")
	assert.Equal(t, "bad input", err.Error())
	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	pd := NewProblemDetails(http.StatusNotFound, TypeNotFound, "Not Found", "session gone", "/api/workbooks/x").
		WithExtension("error_code", "SESSION_NOT_FOUND")

	data, err := json.Marshal(pd)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, TypeNotFound, decoded["type"])
	assert.Equal(t, float64(http.StatusNotFound), decoded["status"])
	assert.Equal(t, "SESSION_NOT_FOUND", decoded["error_code"])
	assert.Equal(t, "session gone", decoded["detail"])
}

func TestErrorHandler_HandleError(t *testing.T) {
	handler := NewErrorHandler(slog.Default(), false)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{
			name:       "api error passes through status",
			err:        ErrSessionNotFound,
			wantStatus: http.StatusNotFound,
			wantType:   TypeSessionNotFound,
		},
		{
			name:       "date column removed",
			err:        fmt.Errorf("cannot split: date column removed"),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeDateColumnRemoved,
		},
		{
			name:       "empty workbook",
			err:        fmt.Errorf(`workbook "x.xlsx" contains no data`),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeEmptyWorkbook,
		},
		{
			name:       "context cancelled",
			err:        context.Canceled,
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
		},
		{
			name:       "unknown error is internal",
			err:        fmt.Errorf("boom"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/test", nil)

			handler.HandleError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var pd map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pd))
			assert.Equal(t, tt.wantType, pd["type"])
		})
	}
}

func TestErrorHandler_NilError(t *testing.T) {
	handler := NewErrorHandler(slog.Default(), false)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	handler.HandleError(rec, req, nil)
	assert.Empty(t, rec.Body.String())
}

func TestErrValidation(t *testing.T) {
	err := ErrValidation("date_column", "must be a column index")
	assert.Equal(t, http.StatusBadRequest, err.StatusCode)

	details, ok := err.Details.(ValidationError)
	require.True(t, ok)
	assert.Equal(t, "date_column", details.Field)
}
