package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler() *ErrorHandler {
	return NewErrorHandler(slog.Default(), false)
}

func TestHandleErrorAPIError(t *testing.T) {
	h := newTestHandler()
	req := httptest.NewRequest(http.MethodPost, "/api/analysis/process", nil)
	rec := httptest.NewRecorder()

	h.HandleError(rec, req, ErrNoMatchingOrders)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, TypeNoMatchingOrders, problem["type"])
	assert.Equal(t, "NO_MATCHING_ORDERS", problem["error_code"])
	assert.Equal(t, "/api/analysis/process", problem["instance"])
}

func TestHandleErrorAppError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{
			name:       "parsing error",
			err:        NewMissingColumnError("income", "Total settlement amount"),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeUploadParsing,
		},
		{
			name:       "storage error",
			err:        NewStorageError("failed to save cost sheet", fmt.Errorf("rpc failure")),
			wantStatus: http.StatusBadGateway,
			wantType:   TypeCostStore,
		},
		{
			name:       "reconcile error",
			err:        NewAppError(ErrTypeReconcile, "no rows joined", nil),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeNoMatchingOrders,
		},
		{
			name:       "not found",
			err:        NewNotFoundError("product cost"),
			wantStatus: http.StatusNotFound,
			wantType:   TypeNotFound,
		},
	}

	h := newTestHandler()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
			rec := httptest.NewRecorder()

			h.HandleError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var problem map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
			assert.Equal(t, tt.wantType, problem["type"])
		})
	}
}

func TestHandleErrorContextCancelled(t *testing.T) {
	h := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	rec := httptest.NewRecorder()

	h.HandleError(rec, req, context.DeadlineExceeded)
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
}

func TestHandleErrorGenericFallback(t *testing.T) {
	h := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	rec := httptest.NewRecorder()

	h.HandleError(rec, req, fmt.Errorf("something odd happened"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	h := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	rec := httptest.NewRecorder()
	h.NotFound(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req = httptest.NewRequest(http.MethodDelete, "/api/health", nil)
	rec = httptest.NewRecorder()
	h.MethodNotAllowed(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRecoveryMiddleware(t *testing.T) {
	h := newTestHandler()
	panicky := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	RecoveryMiddleware(h)(panicky).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
