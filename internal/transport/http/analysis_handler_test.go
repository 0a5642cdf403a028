package http

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spcpulse/internal/config"
	apierrors "spcpulse/internal/errors"
	"spcpulse/internal/middleware"
	"spcpulse/internal/services"
	"spcpulse/internal/shared/testutil"
)

const referenceBody = `{"subgroups":[[10,12,11,13],[9,11,10,12],[11,13,12,14]]}`

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)

	cache := services.NewResultCache(time.Minute, 16, 0)
	t.Cleanup(cache.Stop)

	svc, err := services.NewAnalysisService(config.Default().Engine, logger, services.WithCache(cache))
	require.NoError(t, err)

	errorHandler := apierrors.NewErrorHandler(logger, false)
	handler := NewAnalysisHandler(svc, middleware.NewValidator(logger), errorHandler, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.BodyLimit(1 << 20))
	r.Route("/api", handler.RegisterRoutes)
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestAnalysisHandler_Analyze(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/spc/analyze",
		`{"subgroups":[[10,12,11,13],[9,11,10,12],[11,13,12,14]],"chart_type":"xr","usl":15,"lsl":8}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	id, _ := body["id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, "/api/spc/analyses/"+id, rec.Header().Get("Location"))
	assert.Equal(t, false, body["cached"])

	analysis := body["analysis"].(map[string]interface{})
	assert.Equal(t, "xr", analysis["chart_type"])
	limits := analysis["limits"].(map[string]interface{})
	xr := limits["xr"].(map[string]interface{})
	assert.InDelta(t, 13.687, xr["ucl"], 1e-9)
	assert.InDelta(t, 11.5, xr["cl"], 1e-9)
	assert.InDelta(t, 9.313, xr["lcl"], 1e-9)
	assert.NotNil(t, analysis["capability"])
}

func TestAnalysisHandler_AnalyzeCachedReturns200(t *testing.T) {
	router := newTestRouter(t)

	first := doJSON(t, router, http.MethodPost, "/api/spc/analyze", referenceBody)
	require.Equal(t, http.StatusCreated, first.Code)

	second := doJSON(t, router, http.MethodPost, "/api/spc/analyze", referenceBody)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, true, decodeBody(t, second)["cached"])
	assert.Equal(t, first.Header().Get("Location"), second.Header().Get("Location"))
}

func TestAnalysisHandler_AnalyzeErrors(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantType   string
	}{
		{
			name:       "malformed json",
			body:       `{"subgroups":`,
			wantStatus: http.StatusBadRequest,
			wantType:   apierrors.TypeValidation,
		},
		{
			name:       "missing subgroups",
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
			wantType:   apierrors.TypeValidation,
		},
		{
			name:       "unknown chart type",
			body:       `{"subgroups":[[1,2],[3,4]],"chart_type":"p"}`,
			wantStatus: http.StatusBadRequest,
			wantType:   apierrors.TypeValidation,
		},
		{
			name:       "only one spec limit",
			body:       `{"subgroups":[[1,2],[3,4]],"usl":5}`,
			wantStatus: http.StatusBadRequest,
			wantType:   apierrors.TypeValidation,
		},
		{
			name:       "ragged matrix",
			body:       `{"subgroups":[[1,2,3],[4,5]]}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   apierrors.TypeInvalidDataset,
		},
		{
			name:       "subgroup size above table",
			body:       `{"subgroups":[[1,2,3,4,5,6,7,8,9,10,11,12,13,14,15,16,17,18,19,20,21,22,23,24,25,26],[1,2,3,4,5,6,7,8,9,10,11,12,13,14,15,16,17,18,19,20,21,22,23,24,25,26]]}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   apierrors.TypeUnsupportedSubgroupSize,
		},
		{
			name:       "inverted spec limits",
			body:       `{"subgroups":[[10,12,11,13],[9,11,10,12],[11,13,12,14]],"usl":8,"lsl":15}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   apierrors.TypeInvalidSpecificationLimits,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/api/spc/analyze", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			body := decodeBody(t, rec)
			assert.Equal(t, tt.wantType, body["type"])
			assert.NotEmpty(t, body["trace_id"])
		})
	}
}

func TestAnalysisHandler_AnalyzeDegradesWithoutVariation(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/spc/analyze",
		`{"subgroups":[[5,5,5],[5,5,5],[5,5,5]],"usl":6,"lsl":4}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, true, decodeBody(t, rec)["degraded"])
}

func TestAnalysisHandler_BodyTooLarge(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	svc, err := services.NewAnalysisService(config.Default().Engine, logger)
	require.NoError(t, err)
	handler := NewAnalysisHandler(svc, middleware.NewValidator(logger), apierrors.NewErrorHandler(logger, false), logger)

	r := chi.NewRouter()
	r.Use(middleware.BodyLimit(16))
	r.Route("/api", handler.RegisterRoutes)

	rec := doJSON(t, r, http.MethodPost, "/api/spc/analyze", referenceBody)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, apierrors.TypePayloadTooLarge, decodeBody(t, rec)["type"])
}

func TestAnalysisHandler_Upload(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name       string
		filename   string
		content    string
		fields     map[string]string
		wantStatus int
	}{
		{
			name:       "csv with spec limits",
			filename:   "batch.csv",
			content:    "10,12,11,13\n9,11,10,12\n11,13,12,14\n",
			fields:     map[string]string{"chart_type": "xs", "usl": "15", "lsl": "8"},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "text file",
			filename:   "batch.txt",
			content:    "10, 12, 11, 13\n9, 11, 10, 12\n11, 13, 12, 14\n",
			wantStatus: http.StatusCreated,
		},
		{
			name:       "unsupported extension",
			filename:   "batch.json",
			content:    "[]",
			wantStatus: http.StatusUnsupportedMediaType,
		},
		{
			name:       "text file with a word",
			filename:   "batch.txt",
			content:    "10,12\n9,abc\n",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "non-numeric spec limit",
			filename:   "batch.csv",
			content:    "10,12\n9,11\n",
			fields:     map[string]string{"usl": "high", "lsl": "1"},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			mw := multipart.NewWriter(&buf)
			part, err := mw.CreateFormFile("file", tt.filename)
			require.NoError(t, err)
			_, err = part.Write([]byte(tt.content))
			require.NoError(t, err)
			for k, v := range tt.fields {
				require.NoError(t, mw.WriteField(k, v))
			}
			require.NoError(t, mw.Close())

			req := httptest.NewRequest(http.MethodPost, "/api/spc/analyze/upload", &buf)
			req.Header.Set("Content-Type", mw.FormDataContentType())
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantStatus == http.StatusCreated {
				body := decodeBody(t, rec)
				assert.Equal(t, "upload:"+tt.filename, body["source"])
			}
		})
	}
}

func TestAnalysisHandler_UploadMissingFile(t *testing.T) {
	router := newTestRouter(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("chart_type", "xr"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/spc/analyze/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalysisHandler_LimitsCapabilitySummary(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/spc/limits", referenceBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, "xr", body["chart_type"])
	companion := body["companion_chart"].(map[string]interface{})
	assert.InDelta(t, 3.0, companion["cl"], 1e-9)

	rec = doJSON(t, router, http.MethodPost, "/api/spc/capability",
		`{"subgroups":[[10,12,11,13],[9,11,10,12],[11,13,12,14]],"usl":15,"lsl":8}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body = decodeBody(t, rec)
	assert.Equal(t, false, body["degraded"])
	assert.Contains(t, body, "rating")

	rec = doJSON(t, router, http.MethodPost, "/api/spc/capability", referenceBody)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/spc/summary", referenceBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body = decodeBody(t, rec)
	assert.Equal(t, "xr", body["recommended_chart_type"])
}

func TestAnalysisHandler_Detect(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/spc/detect",
		`{"series":[1,5,10,-2],"ucl":9,"lcl":0}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Flags   []bool `json:"flags"`
		Indices []int  `json:"indices"`
		Count   int    `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []bool{false, false, true, true}, resp.Flags)
	assert.Equal(t, []int{2, 3}, resp.Indices)
	assert.Equal(t, 2, resp.Count)

	rec = doJSON(t, router, http.MethodPost, "/api/spc/detect", `{"series":[1,2],"ucl":3}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalysisHandler_Constants(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{"full table", "/api/spc/constants", http.StatusOK},
		{"n=5", "/api/spc/constants/5", http.StatusOK},
		{"n=1", "/api/spc/constants/1", http.StatusUnprocessableEntity},
		{"n=26", "/api/spc/constants/26", http.StatusUnprocessableEntity},
		{"not a number", "/api/spc/constants/five", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodGet, tt.path, "")
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
		})
	}

	rec := doJSON(t, router, http.MethodGet, "/api/spc/constants/5", "")
	body := decodeBody(t, rec)
	assert.InDelta(t, 0.577, body["a2"], 1e-9)
	assert.InDelta(t, 2.326, body["d2"], 1e-9)

	rec = doJSON(t, router, http.MethodGet, "/api/spc/constants", "")
	body = decodeBody(t, rec)
	assert.Len(t, body["rows"], 24)
}

func TestAnalysisHandler_Simulate(t *testing.T) {
	router := newTestRouter(t)

	first := doJSON(t, router, http.MethodGet, "/api/spc/simulate?seed=42", "")
	require.Equal(t, http.StatusOK, first.Code, first.Body.String())
	second := doJSON(t, router, http.MethodGet, "/api/spc/simulate?seed=42", "")
	assert.JSONEq(t, first.Body.String(), second.Body.String())

	body := decodeBody(t, first)
	rows := body["subgroups"].([]interface{})
	assert.Len(t, rows, 10)
	assert.Len(t, rows[0], 5)
	assert.NotContains(t, body, "analysis")

	rec := doJSON(t, router, http.MethodGet, "/api/spc/simulate?seed=7&analyze=true", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, decodeBody(t, rec), "analysis")

	rec = doJSON(t, router, http.MethodGet, "/api/spc/simulate?seed=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalysisHandler_LookupAndExport(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/spc/analyze", referenceBody)
	require.Equal(t, http.StatusCreated, rec.Code)
	location := rec.Header().Get("Location")

	rec = doJSON(t, router, http.MethodGet, location, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, router, http.MethodGet, location+"/export.csv", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, ContentTypeCSV, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".csv")
	assert.Contains(t, rec.Body.String(), "subgroup,mean,range,std_dev")

	rec = doJSON(t, router, http.MethodGet, location+"/export.xlsx", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ContentTypeXLSX, rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))

	rec = doJSON(t, router, http.MethodGet, "/api/spc/analyses/does-not-exist", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, apierrors.TypeNotFound, decodeBody(t, rec)["type"])
}
