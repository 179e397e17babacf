package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestClassifyCommand(t *testing.T) {
	out, err := run(t, "classify", "--time", "400", "--scroll", "95", "--pricing", "--testimonials", "--services")
	require.NoError(t, err)

	var got struct {
		Ready   bool   `json:"ready"`
		Profile string `json:"profile"`
		Content struct {
			Headline string `json:"headline"`
		} `json:"content"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.True(t, got.Ready)
	assert.Equal(t, "analytic", got.Profile)
	assert.NotEmpty(t, got.Content.Headline)
}

func TestClassifyCommandReportsEarlySession(t *testing.T) {
	out, err := run(t, "classify", "--time", "10", "--clicks", "7", "--scroll", "80")
	require.NoError(t, err)

	var got struct {
		Ready   bool   `json:"ready"`
		Profile string `json:"profile"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.False(t, got.Ready)
	assert.Equal(t, "impulsive", got.Profile)
}

func TestQualifyCommand(t *testing.T) {
	out, err := run(t, "qualify", "--budget", "100000", "--authority", "--timeline", "20")
	require.NoError(t, err)

	var got struct {
		Score struct {
			BudgetScore int    `json:"budget_score"`
			Status      string `json:"status"`
		} `json:"score"`
		Recommendation struct {
			Action string `json:"action"`
		} `json:"recommendation"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Positive(t, got.Score.BudgetScore)
	assert.NotEmpty(t, got.Score.Status)
	assert.NotEmpty(t, got.Recommendation.Action)
}

func TestJobsRunValidatesArguments(t *testing.T) {
	_, err := run(t, "jobs", "run", "newsletter", "--clinic", "c1")
	assert.Error(t, err)

	_, err = run(t, "jobs", "run", "pursuit")
	assert.ErrorContains(t, err, "--clinic")

	_, err = run(t, "jobs", "run", "flash_offer", "--clinic", "c1", "--trigger", "2h")
	assert.ErrorContains(t, err, "--trigger")
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "dev\n", out)
}
