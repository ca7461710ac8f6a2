package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gorelia/domain/lifetime"
)

const scenarioCSV = "lifetime,upper,censoring\n5,,0\n10,,0\n15,,1\n2,8,2\n"

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("LOG_LEVEL", "ERROR")
	t.Setenv("DATABASE_URL", "")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestFitCommand(t *testing.T) {
	input := writeFile(t, "lifetimes.csv", scenarioCSV)

	out, err := run(t, "fit", "--input", input, "--guess", "10,1")
	require.NoError(t, err)

	var fits map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(out), &fits))
	assert.Contains(t, fits, "weibull")
	assert.Contains(t, fits, "kaplan_meier")
}

func TestFitCommandRejectsBadGuess(t *testing.T) {
	input := writeFile(t, "lifetimes.csv", scenarioCSV)
	_, err := run(t, "fit", "--input", input, "--guess", "1,2,3")
	assert.Error(t, err)
}

func TestGoodnessOfFitCommand(t *testing.T) {
	input := writeFile(t, "lifetimes.csv", scenarioCSV)

	out, err := run(t, "gof", "--input", input, "--samples", "12", "--seed", "9", "--workers", "2")
	require.NoError(t, err)

	var rep struct {
		Requested int `json:"requested"`
		Collected int `json:"collected"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, 12, rep.Requested)
	assert.LessOrEqual(t, rep.Collected, 12)
}

func TestGoodnessOfFitMarkdown(t *testing.T) {
	input := writeFile(t, "lifetimes.csv", scenarioCSV)

	out, err := run(t, "gof", "--input", input, "--samples", "8", "--seed", "9", "--format", "markdown")
	require.NoError(t, err)
	assert.Contains(t, out, "# Goodness of fit")

	_, err = run(t, "gof", "--input", input, "--format", "pdf")
	assert.Error(t, err)
}

func TestParametersCommand(t *testing.T) {
	input := writeFile(t, "lifetimes.csv", scenarioCSV)

	out, err := run(t, "params", "--input", input, "--samples", "10", "--seed", "4", "--guess", "10,1", "--format", "html")
	require.NoError(t, err)
	assert.Contains(t, out, "<h1")
}

func TestMissingInput(t *testing.T) {
	_, err := run(t, "gof")
	assert.Error(t, err)

	_, err = run(t, "fit", "--input", filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestLifetimesCommand(t *testing.T) {
	records := writeFile(t, "records.json", `[
		{"object_code":"A","start_date":"2016-01-01T00:00:00Z","end_date":"2016-01-02T00:00:00Z","observable":true}
	]`)

	out, err := run(t, "lifetimes", "--records", records, "--num-objects", "3", "--end-observation", "2016-01-11")
	require.NoError(t, err)

	var res struct {
		Observations []lifetime.Observation `json:"observations"`
		Unobserved   int                    `json:"unobserved_objects"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Observations, 3)
	assert.Equal(t, 2, res.Unobserved)
	assert.Equal(t, lifetime.Scalar(24), res.Observations[0].Value)
	assert.Equal(t, lifetime.Scalar(240), res.Observations[2].Value)

	_, err = run(t, "lifetimes", "--records", records, "--end-observation", "June")
	assert.Error(t, err)
}
