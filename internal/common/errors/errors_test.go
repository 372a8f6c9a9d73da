package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	errors []string
	warns  []string
}

func (l *recordingLogger) Error(msg string, _ map[string]interface{}) {
	l.errors = append(l.errors, msg)
}

func (l *recordingLogger) Warn(msg string, _ map[string]interface{}) {
	l.warns = append(l.warns, msg)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeInvalidOutputKind, http.StatusBadRequest},
		{ErrCodeInvalidRecord, http.StatusBadRequest},
		{ErrCodeInvalidRequestBody, http.StatusBadRequest},
		{ErrCodeNoConverterAvailable, http.StatusServiceUnavailable},
		{ErrCodeConversionTimeout, http.StatusGatewayTimeout},
		{ErrCodeConversionToolError, http.StatusInternalServerError},
		{ErrCodeConversionOutputMissing, http.StatusInternalServerError},
		{ErrCodeTemplateNotFound, http.StatusInternalServerError},
		{ErrCodeTemplateRenderFailed, http.StatusInternalServerError},
		{ErrCodeInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.code))
		})
	}
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "TEMPLATE", GetErrorCategory(ErrCodeTemplateNotFound))
	assert.Equal(t, "CONVERSION", GetErrorCategory(ErrCodeConversionTimeout))
	assert.Equal(t, "CONVERSION", GetErrorCategory(ErrCodeNoConverterAvailable))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeInvalidOutputKind))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeInternal))
}

func TestNormalize(t *testing.T) {
	stdErr := NewInvalidOutputKindError("excel")
	wrapped := fmt.Errorf("handler: %w", stdErr)
	assert.Same(t, stdErr, Normalize(wrapped))

	plain := stderrors.New("disk full")
	got := Normalize(plain)
	assert.Equal(t, ErrCodeInternal, got.Code)
	assert.ErrorIs(t, got, plain)
}

func TestStandardError_Unwrap(t *testing.T) {
	sentinel := stderrors.New("conversion timed out")
	err := NewConversionTimeoutError("pandoc", sentinel)
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, "pandoc", err.Metadata["tool"])
	assert.True(t, err.Retryable)
}

func TestWriteError(t *testing.T) {
	log := &recordingLogger{}
	h := NewErrorHandler(log)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/generate-document", nil)
	h.WriteError(rec, req, NewInvalidOutputKindError("excel"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Error map[string]interface{} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "INVALID_OUTPUT_KIND", body.Error["code"])
	assert.Equal(t, "VALIDATION", body.Error["category"])
	assert.Equal(t, false, body.Error["retryable"])
	assert.NotEmpty(t, body.Error["timestamp"])
	assert.Len(t, log.warns, 1)
	assert.Empty(t, log.errors)

	rec = httptest.NewRecorder()
	h.WriteError(rec, req, stderrors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Len(t, log.errors, 1)
}
