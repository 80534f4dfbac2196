package httputil

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "welfarehub/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{
			name:   "internal errors hide their message",
			err:    dErrors.New(dErrors.CodeInternal, "catalog query failed"),
			status: http.StatusInternalServerError,
			body:   `{"error":"internal_error"}`,
		},
		{
			name:   "validation errors explain themselves",
			err:    dErrors.New(dErrors.CodeValidation, "page must not be negative"),
			status: http.StatusBadRequest,
			body:   `{"error":"validation_error","error_description":"page must not be negative"}`,
		},
		{
			name:   "unavailable maps to 503",
			err:    dErrors.New(dErrors.CodeUnavailable, "catalog sync is disabled"),
			status: http.StatusServiceUnavailable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, tt.err)
			require.Equal(t, tt.status, w.Code)
			if tt.body != "" {
				assert.JSONEq(t, tt.body, w.Body.String())
			}
		})
	}
}

func TestQueryInt(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/recommendations?page=2&size=abc", nil)

	page, err := QueryInt(r, "page", 0)
	require.NoError(t, err)
	assert.Equal(t, 2, page)

	_, err = QueryInt(r, "size", 10)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	size, err := QueryInt(r, "missing", 10)
	require.NoError(t, err)
	assert.Equal(t, 10, size)
}
