package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gorelia/adapters/battery"
	"gorelia/adapters/rng"
	"gorelia/adapters/stats/fitter"
	"gorelia/adapters/stats/goodness"
	"gorelia/app"
	"gorelia/domain/lifetime"
	"gorelia/internal"
	"gorelia/internal/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var quiet = internal.NewLogger(internal.LogLevelError)

type fakeRecords struct {
	records []lifetime.ObjectLifetime
}

func (f fakeRecords) ListObjectLifetimes(context.Context, string) ([]lifetime.ObjectLifetime, error) {
	return f.records, nil
}

func (f fakeRecords) EarliestStart(context.Context) (time.Time, error) {
	return time.Time{}, nil
}

func createTestServer(t *testing.T, opts ...Option) (*Server, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	f := fitter.New()
	scorer := goodness.NewScorer(f)
	engine := battery.NewEngine(f, scorer, rng.NewSeededAdapter(), battery.Config{Workers: 2, Seed: 5}, battery.WithLogger(quiet))

	start := time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)
	svc := app.NewReliabilityService(f, scorer, engine,
		app.ServiceConfig{Samples: 20, Timeout: time.Minute, EndObservation: time.Date(2016, 6, 30, 0, 0, 0, 0, time.UTC)},
		app.WithServiceLogger(quiet),
		app.WithRecords(fakeRecords{records: []lifetime.ObjectLifetime{{ObjectCode: "P1", StartDate: start, EndDate: &end, Observable: true}}}),
	)

	opts = append([]Option{WithLogger(quiet), WithMetrics(reg, metrics.NewHTTPMetrics(reg))}, opts...)
	return NewServer(svc, opts...), reg
}

const scenarioBody = `{"lifetimes":[
	{"lifetime":5,"censoring":0},
	{"lifetime":10,"censoring":0},
	{"lifetime":15,"censoring":1},
	{"lifetime":[2,8],"censoring":2}
]`

func post(t *testing.T, s *Server, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	s, _ := createTestServer(t)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestFitDistributions(t *testing.T) {
	s, _ := createTestServer(t)
	w := post(t, s, "/distribution-model/fit", scenarioBody+`, "initial_guess":[10,1]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp, "weibull")
	assert.Contains(t, resp, "exponential")
}

func TestFitWeibullRejectsBadGuess(t *testing.T) {
	s, _ := createTestServer(t)

	w := post(t, s, "/distribution-model/fit/weibull", scenarioBody+`, "initial_guess":[1]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = post(t, s, "/distribution-model/fit/weibull", scenarioBody+`, "initial_guess":[-1, 2]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"INVALID_INPUT"`)
}

func TestNonParametric(t *testing.T) {
	s, _ := createTestServer(t)
	w := post(t, s, "/distribution-model/non-parametric", scenarioBody+`}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "nelson_aalen")
	assert.Contains(t, w.Body.String(), "kaplan_meier")
}

func TestTestStatisticsInvalidMode(t *testing.T) {
	s, _ := createTestServer(t)
	w := post(t, s, "/distribution-model/test-statistics", scenarioBody+`, "mode":"middle"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"INVALID_MODE"`)
}

func TestGoodnessOfFit(t *testing.T) {
	s, _ := createTestServer(t)
	w := post(t, s, "/distribution-model/goodness-of-fit", scenarioBody+`, "number_of_bootstrap_samples":15}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		AnalysisID string `json:"analysis_id"`
		Requested  int    `json:"requested"`
		Collected  int    `json:"collected"`
		Weibull    struct {
			PValue float64 `json:"p_value"`
		} `json:"weibull"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.AnalysisID)
	assert.Equal(t, 15, resp.Requested)
	assert.LessOrEqual(t, resp.Collected, 15)
	assert.True(t, resp.Weibull.PValue >= 0 && resp.Weibull.PValue <= 1)
}

func TestGoodnessOfFitMarkdown(t *testing.T) {
	s, _ := createTestServer(t)
	w := post(t, s, "/distribution-model/goodness-of-fit?format=markdown", scenarioBody+`, "number_of_bootstrap_samples":10}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/markdown"))
	assert.Contains(t, w.Body.String(), "#")

	w = post(t, s, "/distribution-model/goodness-of-fit?format=pdf", scenarioBody+`}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBootstrapParametersHTML(t *testing.T) {
	s, _ := createTestServer(t)
	w := post(t, s, "/distribution-model/parameters/bootstrap?format=html", scenarioBody+`, "number_of_bootstrap_samples":10, "initial_guess":[10,1]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/html"))
	assert.Contains(t, w.Body.String(), "<table>")
}

func TestMissingDataset(t *testing.T) {
	s, _ := createTestServer(t)

	w := post(t, s, "/distribution-model/fit/exponential", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = post(t, s, "/distribution-model/fit/exponential", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCalculateLifetimes(t *testing.T) {
	s, _ := createTestServer(t)
	body := `{"records":[
		{"object_code":"A","start_date":"2016-01-01T00:00:00Z","end_date":"2016-01-03T00:00:00Z","observable":true}
	],"num_objects":2,"end_observation_period":"2016-01-11"}`

	w := post(t, s, "/lifetimes/calculate", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Lifetimes  []lifetime.Observation `json:"lifetimes"`
		Count      int                    `json:"count"`
		Unobserved int                    `json:"unobserved_objects"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, 1, resp.Unobserved)
	assert.Equal(t, lifetime.Scalar(48), resp.Lifetimes[0].Value)
	assert.Equal(t, lifetime.Exact, resp.Lifetimes[0].Censoring)
	assert.Equal(t, lifetime.Right, resp.Lifetimes[1].Censoring)

	w = post(t, s, "/lifetimes/calculate", `{"records":[],"end_observation_period":"30/06/2016"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFailureTypeLifetimes(t *testing.T) {
	s, _ := createTestServer(t, WithRecordRoutes())

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/failure-types/LEAK/lifetimes?num_objects=3", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"count":3`)

	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/failure-types/LEAK/lifetimes?num_objects=many", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecordRoutesDisabledByDefault(t *testing.T) {
	s, _ := createTestServer(t)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/failure-types/LEAK/lifetimes", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := createTestServer(t)
	post(t, s, "/distribution-model/fit/exponential", scenarioBody+`}`)

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `gorelia_http_requests_total{method="POST",route="/distribution-model/fit/exponential",status="200"} 1`)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{"INVALID_INPUT", http.StatusBadRequest},
		{"INVALID_MODE", http.StatusBadRequest},
		{"NOT_FOUND", http.StatusNotFound},
		{"INSUFFICIENT_DATA", http.StatusUnprocessableEntity},
		{"FIT_CONVERGENCE", http.StatusUnprocessableEntity},
		{"EMPTY_BOOTSTRAP", http.StatusUnprocessableEntity},
		{"TIMEOUT", http.StatusGatewayTimeout},
		{"CANCELLED", http.StatusServiceUnavailable},
		{"DATABASE_ERROR", http.StatusBadGateway},
		{"INTERNAL_ERROR", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.code))
		})
	}
}
