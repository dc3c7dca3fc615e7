package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/labstack/echo/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/roipool/internal/backend/cpu"
	"github.com/born-ml/roipool/internal/roi"
	"github.com/born-ml/roipool/internal/serialization"
)

const referenceForward = `{
	"features": {"shape": [1, 4, 4, 1], "data": [1, 2, 4, 4, 3, 4, 1, 2, 6, 2, 1, 7, 1, 3, 2, 8]},
	"regions": [[0, 0, 0, 3, 1], [0, 2, 2, 3, 3], [0, 1, 0, 3, 2]],
	"pool_height": 2,
	"pool_width": 2,
	"return_indices": true
}`

func newTestEcho() *echo.Echo {
	e := echo.New()
	New(cpu.New(), roi.DefaultConfig(), DefaultConfig()).Register(e)
	return e
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ResponseError {
	t.Helper()
	var body struct {
		Error ResponseError `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestHealth(t *testing.T) {
	e := newTestEcho()
	rec := doJSON(t, e, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"backend":"CPU"`)
}

func TestForwardReferenceCase(t *testing.T) {
	e := newTestEcho()
	rec := doJSON(t, e, http.MethodPost, "/v1/roi_pool/forward", referenceForward)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp ForwardResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, []int{3, 2, 2, 1}, resp.Output.Shape)
	assert.Equal(t, []float32{3, 4, 6, 3, 1, 7, 2, 8, 6, 4, 6, 3}, resp.Output.Data)
	require.NotNil(t, resp.Indices)
	assert.Equal(t, []int32{4, 5, 8, 13, 10, 11, 14, 15, 8, 5, 8, 13}, resp.Indices.Data)
}

func TestForwardDefaultsAndHiddenIndices(t *testing.T) {
	e := newTestEcho()
	body := `{
		"features": {"shape": [1, 2, 2, 1], "data": [1, 2, 3, 4]},
		"regions": [[0, 0, 0, 1, 1]]
	}`
	rec := doJSON(t, e, http.MethodPost, "/v1/roi_pool/forward", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp ForwardResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []int{1, 2, 2, 1}, resp.Output.Shape)
	assert.Equal(t, []float32{1, 2, 3, 4}, resp.Output.Data)
	assert.Nil(t, resp.Indices)
}

func TestForwardErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		errType string
	}{
		{
			name:    "malformed json",
			body:    `{"features":`,
			errType: "invalid_request_error",
		},
		{
			name:    "unknown field",
			body:    `{"feature": {}}`,
			errType: "invalid_request_error",
		},
		{
			name:    "data does not fill shape",
			body:    `{"features": {"shape": [1, 2, 2, 1], "data": [1]}, "regions": []}`,
			errType: "invalid_request_error",
		},
		{
			name:    "negative pool",
			body:    `{"features": {"shape": [1, 1, 1, 1], "data": [1]}, "regions": [], "pool_height": -2}`,
			errType: "invalid_configuration",
		},
		{
			name:    "explicit zero pool height",
			body:    `{"features": {"shape": [1, 1, 1, 1], "data": [1]}, "regions": [], "pool_height": 0}`,
			errType: "invalid_configuration",
		},
		{
			name:    "explicit zero pool width",
			body:    `{"features": {"shape": [1, 1, 1, 1], "data": [1]}, "regions": [], "pool_width": 0}`,
			errType: "invalid_configuration",
		},
		{
			name:    "element count overflows",
			body:    `{"features": {"shape": [1, 4294967296, 4294967296, 1], "data": []}, "regions": [[0, 0, 0, 0, 0]]}`,
			errType: "invalid_request_error",
		},
		{
			name:    "batch index out of range",
			body:    `{"features": {"shape": [1, 1, 1, 1], "data": [1]}, "regions": [[1, 0, 0, 0, 0]]}`,
			errType: "invalid_region",
		},
		{
			name:    "short region record",
			body:    `{"features": {"shape": [1, 1, 1, 1], "data": [1]}, "regions": [[0, 0, 0, 0]]}`,
			errType: "invalid_region",
		},
	}

	e := newTestEcho()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, e, http.MethodPost, "/v1/roi_pool/forward", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			apiErr := decodeError(t, rec)
			assert.Equal(t, tt.errType, apiErr.Type)
			assert.NotEmpty(t, apiErr.ID)
		})
	}
}

// TestForwardThenBackward tests the full round trip over the API.
func TestForwardThenBackward(t *testing.T) {
	e := newTestEcho()
	rec := doJSON(t, e, http.MethodPost, "/v1/roi_pool/forward", referenceForward)
	require.Equal(t, http.StatusOK, rec.Code)

	var fwd ForwardResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fwd))

	ones := make([]float32, len(fwd.Output.Data))
	for i := range ones {
		ones[i] = 1
	}
	body, err := json.Marshal(BackwardRequest{
		Grad:       serialization.FloatTensor{Shape: fwd.Output.Shape, Data: ones},
		Indices:    *fwd.Indices,
		InputShape: []int{1, 4, 4, 1},
	})
	require.NoError(t, err)

	rec = doJSON(t, e, http.MethodPost, "/v1/roi_pool/backward", string(body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var bwd BackwardResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bwd))
	assert.Equal(t, []int{1, 4, 4, 1}, bwd.InputGrad.Shape)
	assert.Equal(t, []float32{
		0, 0, 0, 0,
		1, 2, 0, 0,
		3, 0, 1, 1,
		0, 2, 1, 1,
	}, bwd.InputGrad.Data)
}

func TestBackwardShapeMismatch(t *testing.T) {
	e := newTestEcho()
	body := `{
		"grad": {"shape": [1, 1, 1, 1], "data": [1]},
		"indices": {"shape": [1, 1, 1, 1], "data": [99]},
		"input_shape": [1, 2, 2, 1]
	}`
	rec := doJSON(t, e, http.MethodPost, "/v1/roi_pool/backward", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "shape_mismatch", decodeError(t, rec).Type)
}

func TestBackwardInputShapeOverflow(t *testing.T) {
	e := newTestEcho()
	body := `{
		"grad": {"shape": [1, 1, 1, 1], "data": [1]},
		"indices": {"shape": [1, 1, 1, 1], "data": [0]},
		"input_shape": [1, 4294967296, 4294967296, 1]
	}`
	rec := doJSON(t, e, http.MethodPost, "/v1/roi_pool/backward", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Equal(t, "shape_mismatch", decodeError(t, rec).Type)
}
