package workflow_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	orbyt "github.com/orbyt-io/orbyt"
	"github.com/orbyt-io/orbyt/workflow"
)

const goodYAML = `
version: "1.0"
kind: workflow
triggers:
  - type: cron
    schedule: "0 4 * * *"
workflow:
  steps:
    - id: build
      uses: cli.exec
      with:
        command: "make build"
    - id: deploy
      uses: cli.exec
      needs: [build]
      timeout: 5m
      retry:
        maxAttempts: 3
        backoff: exponential
        delay: 10s
`

const badYAML = `
version: "1.0"
kind: workflow
workflow:
  steps:
    - id: deploy
      uses: cli.exec
      needs: [missingStep]
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFile_YAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "release.yaml", goodYAML)

	def, err := workflow.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"build", "deploy"}, def.StepIDs())
	require.Len(t, def.Triggers, 1)
	assert.Equal(t, "0 4 * * *", def.Triggers[0].Schedule)
	require.NotNil(t, def.Workflow.Steps[1].Retry)
	assert.Equal(t, 3, def.Workflow.Steps[1].Retry.MaxAttempts)
}

func TestLoadFile_JSON(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "release.json",
		`{"version":"1.0","kind":"workflow","workflow":{"steps":[{"id":"build","uses":"cli.exec"}]}}`)

	def, err := workflow.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"build"}, def.StepIDs())
}

func TestLoadFile_ValidationErrorsCarryIssues(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "broken.yaml", badYAML)

	_, err := workflow.LoadFile(path)
	iss, ok := orbyt.AsIssues(err)
	require.True(t, ok)
	require.Len(t, iss, 1)
	assert.Equal(t, orbyt.CodeUnknownReference, iss[0].Code)
}

func TestLoadFile_MissingFile(t *testing.T) {
	_, err := workflow.LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	_, ok := orbyt.AsIssues(err)
	assert.False(t, ok, "I/O failures are not validation issues")
}

func TestLoadDir_PartitionsGoodAndBad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good.yaml", goodYAML)
	writeFile(t, dir, "bad.yml", badYAML)
	writeFile(t, dir, "notes.txt", "ignored")

	defs, errs, err := workflow.LoadDir(dir)
	require.NoError(t, err)
	assert.Len(t, defs, 1)
	assert.Contains(t, defs, "good")
	assert.Len(t, errs, 1)
	assert.Contains(t, errs, "bad")
}
