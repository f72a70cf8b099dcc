package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ledgerline/spendtrack/pkg/errors"
	"github.com/ledgerline/spendtrack/pkg/logger"
	"github.com/ledgerline/spendtrack/pkg/validator"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func writeErr(t *testing.T, err error) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/expenses", nil)
	WriteError(rec, req, err, quietLogger())
	return rec, decode(t, rec)
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, Response{Data: map[string]string{"id": "e1"}})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"id":"e1"`)
}

func TestResponse_OmitsEmptyHalves(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusOK, Response{Data: "ok"})
	assert.NotContains(t, rec.Body.String(), `"error"`)

	rec = httptest.NewRecorder()
	WriteJSON(rec, http.StatusBadRequest, Response{Error: &ErrorResponse{Code: "X", Message: "y"}})
	assert.NotContains(t, rec.Body.String(), `"data"`)
}

func TestWriteError_AppErrorCarriesItsStatus(t *testing.T) {
	rec, resp := writeErr(t, apperrors.NotFound("expense", "e-42"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "expense")
}

func TestWriteError_Sentinels(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", apperrors.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"already exists", apperrors.ErrAlreadyExists, http.StatusConflict, "ALREADY_EXISTS"},
		{"invalid input", apperrors.ErrInvalidInput, http.StatusBadRequest, "INVALID_INPUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := writeErr(t, tt.err)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestWriteError_UnknownErrorIs500WithOpaqueBody(t *testing.T) {
	rec, resp := writeErr(t, errors.New("pq: connection reset"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL_ERROR", resp.Error.Code)
	// The driver error must not leak to the client.
	assert.NotContains(t, resp.Error.Message, "pq:")
}

func TestWriteError_RequestIDFromContext(t *testing.T) {
	rec := httptest.NewRecorder()
	ctx := logger.WithCorrelationID(context.Background(), "req-777")
	req := httptest.NewRequest(http.MethodGet, "/api/expenses", nil).WithContext(ctx)

	WriteError(rec, req, apperrors.NotFound("expense", "e-1"), quietLogger())

	resp := decode(t, rec)
	assert.Equal(t, "req-777", resp.Error.RequestID)
}

func TestWriteError_RequestIDOmittedWhenAbsent(t *testing.T) {
	rec, _ := writeErr(t, apperrors.ErrNotFound)

	assert.NotContains(t, rec.Body.String(), "request_id")
}

func TestWriteValidationError_FieldMap(t *testing.T) {
	type form struct {
		Email string `validate:"required,email"`
	}
	err := validator.Validate(form{Email: "nope"})
	require.Error(t, err)

	rec := httptest.NewRecorder()
	WriteValidationError(rec, err)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.Contains(t, resp.Error.Fields, "Email")
}

func TestWriteValidationError_PlainErrorBecomesInvalidInput(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteValidationError(rec, errors.New("decode request body: unexpected EOF"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode(t, rec)
	assert.Equal(t, "INVALID_INPUT", resp.Error.Code)
}

func TestNewPaginatedResponse_Metadata(t *testing.T) {
	tests := []struct {
		name       string
		total      int
		page       int
		perPage    int
		totalPages int
		hasNext    bool
	}{
		{"partial last page", 25, 1, 10, 3, true},
		{"on last page", 21, 3, 10, 3, false},
		{"exact division", 30, 2, 10, 3, true},
		{"single page", 5, 1, 20, 1, false},
		{"empty", 0, 1, 20, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := NewPaginatedResponse([]string{"row"}, tt.total, tt.page, tt.perPage)
			assert.Equal(t, tt.totalPages, resp.TotalPages)
			assert.Equal(t, tt.hasNext, resp.HasNext)
			assert.Equal(t, tt.total, resp.TotalCount)
		})
	}
}

func TestNewPaginatedResponse_NilSliceMarshalsAsArray(t *testing.T) {
	resp := NewPaginatedResponse[string](nil, 0, 1, 20)

	require.NotNil(t, resp.Data)
	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"data":[]`)
}

func TestParseUUID_Valid(t *testing.T) {
	rec := httptest.NewRecorder()
	id, ok := ParseUUID(rec, "550e8400-e29b-41d4-a716-446655440000")

	assert.True(t, ok)
	assert.Equal(t, "550e8400-e29b-41d4-a716-446655440000", id.String())
	assert.Zero(t, rec.Body.Len(), "no body written on success")
}

func TestParseUUID_NormalizesCase(t *testing.T) {
	rec := httptest.NewRecorder()
	id, ok := ParseUUID(rec, strings.ToUpper("550e8400-e29b-41d4-a716-446655440000"))

	assert.True(t, ok)
	assert.Equal(t, "550e8400-e29b-41d4-a716-446655440000", id.String())
}

func TestParseUUID_Invalid(t *testing.T) {
	for _, raw := range []string{"", "abc123", "not-a-uuid"} {
		t.Run("\""+raw+"\"", func(t *testing.T) {
			rec := httptest.NewRecorder()
			_, ok := ParseUUID(rec, raw)

			assert.False(t, ok)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "INVALID_PARAMETER", decode(t, rec).Error.Code)
		})
	}
}
