package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"esg-backend/internal/esg"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestScoreJSONFile(t *testing.T) {
	out, err := run(t, "", "score", "testdata/questionnaire.json", "-o", "json")
	require.NoError(t, err)

	var rep esg.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, 55.0, rep.Overall.Score)
	assert.Equal(t, esg.GradeD, rep.Overall.Grade)
	assert.Equal(t, 100.0, rep.Environmental.Score)
	assert.Equal(t, 200.0, rep.Governance.Subcategories["EthicsAndCodeofConduct"])
}

func TestScoreYAMLFileTable(t *testing.T) {
	out, err := run(t, "", "score", "testdata/questionnaire.yaml", "--subcategories")
	require.NoError(t, err)

	assert.Contains(t, out, "Overall")
	assert.Contains(t, out, "59.44")
	assert.Contains(t, out, "66.67")
	assert.Contains(t, out, "Industry")
	assert.Contains(t, out, "75.00")
	// subcategory table lists every subcategory, answered or not
	assert.Contains(t, out, "wasteManagement")
	assert.Contains(t, out, "150.00")
	assert.Contains(t, out, "dataPrivacySecurityManagement")
}

func TestScoreStdin(t *testing.T) {
	in := `{"timePeriod":"2024-01-01","social":{"communityInvolvement":[{"question":"q","answer":"true"}]}}`
	out, err := run(t, in, "score", "-", "-o", "json")
	require.NoError(t, err)

	var rep esg.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, 100.0, rep.Social.Score)
	// business 33.33, industry 75, social 100
	assert.InDelta(t, (100.0/3+75+100)/5, rep.Overall.Score, 1e-9)

	out, err = run(t, "social:\n  communityInvolvement: []\n", "score", "-", "--input-format", "yaml", "-o", "json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, 15.0, rep.Overall.Score)
}

func TestScoreYAMLEnvironmentalKey(t *testing.T) {
	in := "timePeriod: 2024-06-30\nenvironmental:\n  climateChange:\n    - {question: q, answer: true}\n"
	out, err := run(t, in, "score", "-", "--input-format", "yaml", "-o", "json")
	require.NoError(t, err)

	var rep esg.Report
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, 100.0, rep.Environmental.Score)
	assert.InDelta(t, (100.0/3+75+100)/5, rep.Overall.Score, 1e-9)
}

func TestScoreErrors(t *testing.T) {
	_, err := run(t, "", "score", "testdata/missing.json")
	assert.ErrorContains(t, err, "read questionnaire")

	_, err = run(t, `{"governance":{"supplyChainManagement":"yes"}}`, "score", "-")
	var malformed *esg.MalformedSubmissionError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "governance.supplyChainManagement", malformed.Field)

	_, err = run(t, "{}", "score", "-", "--input-format", "toml")
	assert.ErrorContains(t, err, "unknown input format")

	_, err = run(t, "", "score")
	assert.Error(t, err)
}

func TestGrade(t *testing.T) {
	tests := []struct {
		arg  string
		want string
	}{
		{"90", "A"},
		{"89.99", "B"},
		{"75", "B"},
		{"60", "C"},
		{"45", "D"},
		{"44.9", "E"},
		{"-5", "E"},
		{"150", "A"},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			out, err := run(t, "", "grade", "--", tt.arg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, strings.TrimSpace(out))
		})
	}

	out, err := run(t, "", "grade", "55", "-o", "json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"score":55,"grade":"D"}`, out)

	_, err = run(t, "", "grade", "high")
	assert.ErrorContains(t, err, "invalid score")
}

func TestUnknownOutputFormat(t *testing.T) {
	_, err := run(t, "", "grade", "50", "-o", "xml")
	assert.ErrorContains(t, err, "unknown output format")
}

func TestOutputFromEnv(t *testing.T) {
	t.Setenv("ESGCTL_OUTPUT", "json")
	out, err := run(t, "", "grade", "91")
	require.NoError(t, err)
	assert.JSONEq(t, `{"score":91,"grade":"A"}`, out)
}
