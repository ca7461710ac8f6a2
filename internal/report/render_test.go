package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gorelia/domain/core"
	"gorelia/domain/lifetime"
	"gorelia/domain/reliability"
	"gorelia/internal/inference"
)

func ptr(x float64) *float64 { return &x }

func sampleGoodnessOfFit() *GoodnessOfFit {
	return &GoodnessOfFit{
		AnalysisID:   core.AnalysisID("0190d6f4-0000-7000-8000-000000000001"),
		Dataset:      core.Fingerprint("9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"),
		GeneratedAt:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Observations: 4,
		CollapseMode: lifetime.CollapseMid,
		Requested:    100,
		Collected:    97,
		Weibull:      FamilyResult{KSStatistic: 0.12, PValue: 0.4, ZPValue: ptr(0.35), ConfidenceInterval: &inference.Interval{Lower: 0.1, Upper: 0.2}, BootstrapSamples: 97},
		Exponential:  FamilyResult{KSStatistic: 0.08, PValue: 0.6, ZPValue: ptr(0.55), ConfidenceInterval: &inference.Interval{Lower: 0.05, Upper: 0.15}, BootstrapSamples: 97},
		Models: []reliability.FittedModel{
			{Family: reliability.Weibull, Params: []float64{11.2, 1.7}, LogLikelihood: -9.1, AIC: 22.2},
		},
		Curves: []reliability.CurvePoint{{Time: 5, Empirical: 0.5, Weibull: 0.7, Exponential: 0.65}},
	}
}

func TestGoodnessOfFitMarkdown(t *testing.T) {
	md, err := sampleGoodnessOfFit().Markdown()
	require.NoError(t, err)

	assert.Contains(t, md, "# Goodness of fit 0190d6f4-0000-7000-8000-000000000001")
	assert.Contains(t, md, "Bootstrap samples: 97 of 100 requested.")
	assert.Contains(t, md, "(dataset 9f86d081884c, intervals collapsed at mid)")
	assert.Contains(t, md, "| weibull | 0.1200 | 0.4000 | 0.3500 | [0.1000, 0.2000] |")
	assert.Contains(t, md, "Preferred family: **exponential**")
	assert.Contains(t, md, "| weibull | 11.2000, 1.7000 | -9.1000 | 22.2000 |")
	assert.Contains(t, md, "| 5.0000 | 0.5000 | 0.7000 | 0.6500 |")
}

func TestGoodnessOfFitHTML(t *testing.T) {
	out, err := sampleGoodnessOfFit().HTML()
	require.NoError(t, err)

	assert.Contains(t, out, "<h1")
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<strong>exponential</strong>")
}

func TestOptionalSectionsAreOmitted(t *testing.T) {
	r := sampleGoodnessOfFit()
	r.Models = nil
	r.Curves = nil
	md, err := r.Markdown()
	require.NoError(t, err)
	assert.False(t, strings.Contains(md, "## Fitted models"))
	assert.False(t, strings.Contains(md, "## Survival curves"))
}

func TestParameterBootstrapMarkdown(t *testing.T) {
	r := &ParameterBootstrap{
		AnalysisID:   core.AnalysisID("run-1"),
		Observations: 4,
		Requested:    50,
		Collected:    50,
		Parameters: []ParameterEstimate{
			{Family: reliability.Weibull, Name: "alpha", Observed: 12, ConfidenceInterval: &inference.Interval{Lower: 10, Upper: 14, Mean: 12.1, Alpha: 0.05}},
			{Family: reliability.Exponential, Name: "lambda", Observed: 0.1},
		},
	}
	md, err := r.Markdown()
	require.NoError(t, err)
	assert.Contains(t, md, "| weibull | alpha | 12.0000 | 12.1000 | 95% [10.0000, 14.0000] |")
	assert.Contains(t, md, "| exponential | lambda | 0.1000 | n/a | n/a |")

	html, err := r.HTML()
	require.NoError(t, err)
	assert.Contains(t, html, "<td>alpha</td>")
}

func TestFromSummary(t *testing.T) {
	got := FromSummary(inference.Summary{Observed: 0.2, PValue: 0.3, ZPValue: ptr(0.4), Samples: 9})
	assert.Equal(t, FamilyResult{KSStatistic: 0.2, PValue: 0.3, ZPValue: ptr(0.4), BootstrapSamples: 9}, got)
}

func TestSingleSampleFamilyRendersUnavailable(t *testing.T) {
	r := sampleGoodnessOfFit()
	r.Requested, r.Collected = 10, 1
	r.Weibull = FamilyResult{KSStatistic: 0.12, PValue: 1, BootstrapSamples: 1}
	md, err := r.Markdown()
	require.NoError(t, err)
	assert.Contains(t, md, "| weibull | 0.1200 | 1.0000 | n/a | n/a |")
	assert.Contains(t, md, "Bootstrap samples: 1 of 10 requested.")
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatJSON, "JSON": FormatJSON, "md": FormatMarkdown, "html": FormatHTML} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("pdf")
	assert.Error(t, err)
}
