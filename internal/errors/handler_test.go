package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spcpulse/internal/shared/testutil"
	"spcpulse/internal/spc"
)

func TestErrorToProblem(t *testing.T) {
	h := NewErrorHandler(nil, false)
	req := httptest.NewRequest(http.MethodPost, "/api/spc/analyze", nil)

	_, degenerate := spc.ComputeCapability(spc.Dataset{}, spc.SpecLimits{USL: 2, LSL: 1}, spc.ChartXR)
	_, unsupported := spc.LookupConstants(30)
	_, badChart := spc.ParseChartType("np")

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{name: "deadline", err: fmt.Errorf("analyze: %w", context.DeadlineExceeded), wantStatus: http.StatusGatewayTimeout, wantType: TypeTimeout},
		{name: "invalid dataset", err: degenerate, wantStatus: http.StatusUnprocessableEntity, wantType: TypeInvalidDataset},
		{name: "unsupported size", err: fmt.Errorf("limits: %w", unsupported), wantStatus: http.StatusUnprocessableEntity, wantType: TypeUnsupportedSubgroupSize},
		{name: "bad chart", err: badChart, wantStatus: http.StatusBadRequest, wantType: TypeInvalidChartType},
		{name: "bare sentinel", err: fmt.Errorf("x: %w", spc.ErrDegenerateVariation), wantStatus: http.StatusUnprocessableEntity, wantType: TypeDegenerateVariation},
		{name: "api error", err: NotFoundError("analysis"), wantStatus: http.StatusNotFound, wantType: TypeNotFound},
		{name: "max bytes", err: &http.MaxBytesError{Limit: 10}, wantStatus: http.StatusRequestEntityTooLarge, wantType: TypePayloadTooLarge},
		{name: "parsing app error", err: NewParsingError("bad cell", errors.New("x")), wantStatus: http.StatusBadRequest, wantType: TypeValidation},
		{name: "unsupported app error", err: NewUnsupportedError("pdf"), wantStatus: http.StatusUnsupportedMediaType, wantType: TypeUnsupported},
		{name: "storage app error", err: NewStorageError("disk", errors.New("full")), wantStatus: http.StatusInternalServerError, wantType: TypeInternal},
		{name: "unknown", err: errors.New("boom"), wantStatus: http.StatusInternalServerError, wantType: TypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := h.ErrorToProblem(tt.err, req)
			assert.Equal(t, tt.wantStatus, p.Status)
			assert.Equal(t, tt.wantType, p.Type)
			assert.Equal(t, "/api/spc/analyze", p.Instance)
		})
	}
}

func TestHandleErrorRendersProblemJSON(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)

	_, err := spc.NewDataset([][]float64{{1, 2}, {3}})
	require.Error(t, err)

	rec := httptest.NewRecorder()
	h.HandleError(rec, httptest.NewRequest(http.MethodPost, "/api/spc/limits", nil), err)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, TypeInvalidDataset, body["type"])
	assert.Equal(t, "INVALID_DATASET", body["kind"])
	assert.Equal(t, "subgroups[1]", body["field"])
	assert.EqualValues(t, 422, body["status"])

	assert.True(t, logs.ContainsMessage("request failed"))
}

func TestHandleErrorNil(t *testing.T) {
	rec := httptest.NewRecorder()
	NewErrorHandler(nil, false).HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil)
	assert.Equal(t, 0, rec.Body.Len())
}

func TestProblemDetailsMarshal(t *testing.T) {
	p := NewProblemDetails(http.StatusBadRequest, TypeValidation, "Bad", "", "/x").
		WithExtension("kind", "INVALID_CHART_TYPE").
		WithExtension("type", "ignored")

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, TypeValidation, body["type"])
	assert.Equal(t, "INVALID_CHART_TYPE", body["kind"])
	assert.NotContains(t, body, "detail")
}

func TestHandlePanic(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, true)

	rec := httptest.NewRecorder()
	h.HandlePanic(rec, httptest.NewRequest(http.MethodGet, "/api/spc/constants/4", nil), "exploded")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "exploded")
	assert.True(t, logs.ContainsMessage("panic recovered"))
}

func TestAppError(t *testing.T) {
	cause := errors.New("strconv failure")
	err := NewParsingError("row 3", cause).WithContext("line", 3)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "[PARSING] row 3: strconv failure", err.Error())
	assert.Equal(t, 3, err.Context["line"])
	assert.Equal(t, "[NOT_FOUND] analysis not found", NewNotFoundError("analysis").Error())
}
