package middleware

import (
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "spcpulse/internal/errors"
	"spcpulse/internal/shared/testutil"
	api "spcpulse/pkg/contracts/api/v1"
)

func ptr(v float64) *float64 { return &v }

func TestValidator_ValidateStruct(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	v := NewValidator(logger)

	rows := [][]float64{{1, 2}, {3, 4}}

	tests := []struct {
		name       string
		input      interface{}
		wantFields []string
	}{
		{
			name:  "valid analyze request",
			input: api.AnalyzeRequest{Subgroups: rows, ChartType: "xs"},
		},
		{
			name: "valid with spec limits",
			input: api.AnalyzeRequest{
				Subgroups:        rows,
				SpecLimitsFields: api.SpecLimitsFields{USL: ptr(10), LSL: ptr(1)},
			},
		},
		{
			name:       "missing subgroups",
			input:      api.AnalyzeRequest{},
			wantFields: []string{"subgroups"},
		},
		{
			name:       "unknown chart",
			input:      api.AnalyzeRequest{Subgroups: rows, ChartType: "np"},
			wantFields: []string{"chart_type"},
		},
		{
			name: "usl without lsl",
			input: api.AnalyzeRequest{
				Subgroups:        rows,
				SpecLimitsFields: api.SpecLimitsFields{USL: ptr(10)},
			},
			wantFields: []string{"lsl"},
		},
		{
			name: "infinite limit",
			input: api.CapabilityRequest{
				Subgroups: rows,
				USL:       ptr(math.Inf(1)),
				LSL:       ptr(1),
			},
			wantFields: []string{"usl"},
		},
		{
			name:       "detect without limits",
			input:      api.DetectRequest{Series: []float64{1}},
			wantFields: []string{"ucl", "lcl"},
		},
		{
			name:       "sheet name too long",
			input:      api.UploadOptions{Sheet: strings.Repeat("s", 32)},
			wantFields: []string{"sheet"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateStruct(tt.input)
			if len(tt.wantFields) == 0 {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			var apiErr *apierrors.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)

			details, ok := apiErr.Details.(apierrors.ValidationErrors)
			require.True(t, ok)
			var fields []string
			for _, fe := range details.Errors {
				fields = append(fields, fe.Field)
				assert.NotEmpty(t, fe.Message)
			}
			assert.ElementsMatch(t, tt.wantFields, fields)
		})
	}
}

func TestContentTypeValidator(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	handler := ContentTypeValidator(apierrors.NewErrorHandler(logger, false), "application/json", "multipart/form-data")(http.HandlerFunc(okHandler))

	tests := []struct {
		name        string
		method      string
		contentType string
		wantStatus  int
	}{
		{"get passes", http.MethodGet, "", http.StatusOK},
		{"json", http.MethodPost, "application/json; charset=utf-8", http.StatusOK},
		{"multipart", http.MethodPost, "multipart/form-data; boundary=x", http.StatusOK},
		{"missing", http.MethodPost, "", http.StatusBadRequest},
		{"xml", http.MethodPost, "application/xml", http.StatusUnsupportedMediaType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/", nil)
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
