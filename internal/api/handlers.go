package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"gorelia/app"
	"gorelia/domain/core"
	"gorelia/domain/lifetime"
	"gorelia/domain/reliability"
	"gorelia/internal/report"
)

// Handlers adapts HTTP requests to the reliability service
type Handlers struct {
	service *app.ReliabilityService
}

// NewHandlers creates the handler set
func NewHandlers(service *app.ReliabilityService) *Handlers {
	return &Handlers{service: service}
}

// sourceRequest carries a dataset inline, as records, or as a failure type lookup
type sourceRequest struct {
	Lifetimes            []lifetime.Observation    `json:"lifetimes"`
	Records              []lifetime.ObjectLifetime `json:"records"`
	FailureTypeCode      string                    `json:"failure_type_code"`
	NumObjects           int                       `json:"num_objects"`
	EndObservationPeriod string                    `json:"end_observation_period"` // YYYY-MM-DD
	Observable           *bool                     `json:"observable"`
}

func (r sourceRequest) source() (app.Source, error) {
	src := app.Source{
		Lifetimes: r.Lifetimes,
		Records:   r.Records,
		Query: lifetime.Query{
			FailureTypeCode: r.FailureTypeCode,
			NumObjects:      r.NumObjects,
			Observable:      r.Observable,
		},
	}
	if r.EndObservationPeriod != "" {
		end, err := time.Parse(time.DateOnly, r.EndObservationPeriod)
		if err != nil {
			return src, core.NewValidationError("end_observation_period", "expected YYYY-MM-DD")
		}
		src.Query.EndObservation = end
	}
	return src, nil
}

// analysisRequest adds fit and bootstrap options. initial_guess is [alpha, beta].
type analysisRequest struct {
	sourceRequest
	InitialGuess             []float64 `json:"initial_guess"`
	NumberOfBootstrapSamples int       `json:"number_of_bootstrap_samples"`
	Mode                     string    `json:"mode"`
	Alpha                    float64   `json:"alpha"`
}

func (r analysisRequest) options() (app.AnalysisOptions, error) {
	guess, err := parseGuess(r.InitialGuess)
	if err != nil {
		return app.AnalysisOptions{}, err
	}
	return app.AnalysisOptions{
		Samples: r.NumberOfBootstrapSamples,
		Guess:   guess,
		Mode:    lifetime.CollapseMode(r.Mode),
		Alpha:   r.Alpha,
	}, nil
}

func parseGuess(values []float64) (*reliability.InitialGuess, error) {
	switch len(values) {
	case 0:
		return nil, nil
	case 2:
		g := &reliability.InitialGuess{Alpha: values[0], Beta: values[1]}
		return g, g.Validate()
	default:
		return nil, core.NewValidationError("initial_guess", fmt.Sprintf("expected [alpha, beta], got %d values", len(values)))
	}
}

// bind decodes the body and resolves its dataset
func (h *Handlers) bind(c *gin.Context) (*lifetime.Dataset, analysisRequest, bool) {
	var req analysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, core.NewValidationError("body", err.Error()))
		return nil, req, false
	}
	src, err := req.source()
	if err != nil {
		writeError(c, err)
		return nil, req, false
	}
	ds, err := h.service.Dataset(c.Request.Context(), src)
	if err != nil {
		writeError(c, err)
		return nil, req, false
	}
	return ds, req, true
}

func (h *Handlers) FitDistributions(c *gin.Context) {
	ds, req, ok := h.bind(c)
	if !ok {
		return
	}
	guess, err := parseGuess(req.InitialGuess)
	if err != nil {
		writeError(c, err)
		return
	}
	fits, err := h.service.FitDistributions(ds, guess)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, fits)
}

func (h *Handlers) FitWeibull(c *gin.Context) {
	ds, req, ok := h.bind(c)
	if !ok {
		return
	}
	guess, err := parseGuess(req.InitialGuess)
	if err != nil {
		writeError(c, err)
		return
	}
	model, err := h.service.FitWeibull(ds, guess)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, model)
}

func (h *Handlers) FitExponential(c *gin.Context) {
	ds, _, ok := h.bind(c)
	if !ok {
		return
	}
	model, err := h.service.FitExponential(ds)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, model)
}

func (h *Handlers) EstimateNonParametric(c *gin.Context) {
	ds, _, ok := h.bind(c)
	if !ok {
		return
	}
	na, km, err := h.service.EstimateNonParametric(ds)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"nelson_aalen": na, "kaplan_meier": km})
}

func (h *Handlers) TestStatistic(c *gin.Context) {
	ds, req, ok := h.bind(c)
	if !ok {
		return
	}
	opts, err := req.options()
	if err != nil {
		writeError(c, err)
		return
	}
	ks, err := h.service.TestStatistic(ds, opts)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ks)
}

// GoodnessOfFit renders JSON by default, or markdown/html with ?format=
func (h *Handlers) GoodnessOfFit(c *gin.Context) {
	format, err := report.ParseFormat(c.Query("format"))
	if err != nil {
		writeError(c, core.NewValidationError("format", err.Error()))
		return
	}
	ds, req, ok := h.bind(c)
	if !ok {
		return
	}
	opts, err := req.options()
	if err != nil {
		writeError(c, err)
		return
	}
	rep, err := h.service.GoodnessOfFit(c.Request.Context(), ds, opts)
	if err != nil {
		writeError(c, err)
		return
	}
	render(c, format, rep, rep.Markdown, rep.HTML)
}

func (h *Handlers) BootstrapParameters(c *gin.Context) {
	format, err := report.ParseFormat(c.Query("format"))
	if err != nil {
		writeError(c, core.NewValidationError("format", err.Error()))
		return
	}
	ds, req, ok := h.bind(c)
	if !ok {
		return
	}
	opts, err := req.options()
	if err != nil {
		writeError(c, err)
		return
	}
	rep, err := h.service.BootstrapParameters(c.Request.Context(), ds, opts)
	if err != nil {
		writeError(c, err)
		return
	}
	render(c, format, rep, rep.Markdown, rep.HTML)
}

func (h *Handlers) CalculateLifetimes(c *gin.Context) {
	var req sourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, core.NewValidationError("body", err.Error()))
		return
	}
	src, err := req.source()
	if err != nil {
		writeError(c, err)
		return
	}
	h.calculate(c, src)
}

// FailureTypeLifetimes reads num_objects, end_observation_period and observable from the query string
func (h *Handlers) FailureTypeLifetimes(c *gin.Context) {
	req := sourceRequest{
		FailureTypeCode:      c.Param("code"),
		EndObservationPeriod: c.Query("end_observation_period"),
	}
	if raw := c.Query("num_objects"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(c, core.NewValidationError("num_objects", "must be an integer"))
			return
		}
		req.NumObjects = n
	}
	if raw := c.Query("observable"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(c, core.NewValidationError("observable", "must be a boolean"))
			return
		}
		req.Observable = &b
	}
	src, err := req.source()
	if err != nil {
		writeError(c, err)
		return
	}
	h.calculate(c, src)
}

func (h *Handlers) calculate(c *gin.Context, src app.Source) {
	res, err := h.service.CalculateLifetimes(c.Request.Context(), src)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"lifetimes":          res.Observations,
		"count":              len(res.Observations),
		"observable":         res.Observable,
		"unobserved_objects": res.Unobserved,
	})
}

func render(c *gin.Context, format report.Format, body any, markdown, html func() (string, error)) {
	switch format {
	case report.FormatMarkdown:
		out, err := markdown()
		if err != nil {
			writeError(c, err)
			return
		}
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(out))
	case report.FormatHTML:
		out, err := html()
		if err != nil {
			writeError(c, err)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(out))
	default:
		c.JSON(http.StatusOK, body)
	}
}
