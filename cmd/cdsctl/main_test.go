package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cds-scoring-engine/internal/domain"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestAssessFromStdin(t *testing.T) {
	out, err := run(t, `{"medications":["Warfarin","Aspirin"]}`, "assess", "interactions")
	require.NoError(t, err)

	var resp struct {
		Analyzer domain.AnalyzerKind `json:"analyzer"`
		Result   struct {
			HasInteractions bool `json:"has_interactions"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, domain.AnalyzerDrugInteraction, resp.Analyzer)
	assert.True(t, resp.Result.HasInteractions)
}

func TestAssessFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "symptoms.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"symptoms":["chest pain"]}`), 0644))

	out, err := run(t, "", "assess", "symptoms", "--file", path)

	require.NoError(t, err)
	assert.Contains(t, out, `"urgency_level": "high"`)
}

func TestAssessErrors(t *testing.T) {
	_, err := run(t, `{}`, "assess", "genomics")
	assert.ErrorIs(t, err, domain.ErrInvalidAnalyzer)

	_, err = run(t, `{}`, "assess", "interactions")
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "medications", verr.Field)

	_, err = run(t, "", "assess", "risk", "--file", filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestFeedbackImportExportCount(t *testing.T) {
	db := filepath.Join(t.TempDir(), "feedback.db")
	export := `{"version":"1.0","feedback":[
		{"analyzer":"symptom","input_digest":"d1","suggested_level":"high","clinician_level":"medium"},
		{"analyzer":"symptom","input_digest":"d2","suggested_level":"low","clinician_level":"low","agreed":true},
		{"analyzer":"symptom","input_digest":"d3","suggested_level":"bogus","clinician_level":"low"}
	]}`

	out, err := run(t, export, "feedback", "import", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "imported 2, skipped 1\n", out)

	out, err = run(t, "", "feedback", "count", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "2\n", out)

	out, err = run(t, "", "feedback", "list", "--db", db, "--limit", "1")
	require.NoError(t, err)
	var listed []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	assert.Len(t, listed, 1)

	file := filepath.Join(t.TempDir(), "export.json")
	_, err = run(t, "", "feedback", "export", "--db", db, "--out", file)
	require.NoError(t, err)
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"input_digest": "d1"`)
	assert.Contains(t, string(data), `"input_digest": "d2"`)
}

func TestMigrateRequiresDatabaseURL(t *testing.T) {
	_, err := run(t, "", "migrate", "version")
	assert.Error(t, err)
}

func TestSetupRegisterAndStatus(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "client.json")
	binary := filepath.Join(dir, "mcp-server-lite")
	require.NoError(t, os.WriteFile(binary, []byte("#!/bin/sh\n"), 0755))

	out, err := run(t, "", "setup", "register", "--config", cfg, "--binary", binary, "--data-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "registered cds-scoring-engine")

	out, err = run(t, "", "setup", "status", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "registered: true")
	assert.NotContains(t, out, "issue:")

	out, err = run(t, "", "setup", "unregister", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "removed")
}
