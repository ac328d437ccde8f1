package workflow_test

import (
	"sync"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	orbyt "github.com/orbyt-io/orbyt"
	"github.com/orbyt-io/orbyt/workflow"
)

// Scenario 1: minimal two-step definition is accepted with zero errors.
func TestValidate_MinimalDefinitionAccepted(t *testing.T) {
	def, err := workflow.Validate(minimalRaw())
	require.NoError(t, err)
	require.NotNil(t, def)
	assert.Equal(t, []string{"build", "deploy"}, def.StepIDs())
}

// Scenario 2: a needs entry naming no step yields one error at
// workflow.steps referencing the missing id.
func TestValidate_MissingReference(t *testing.T) {
	raw := minimalRaw()
	steps := raw["workflow"].(map[string]any)["steps"].([]any)
	steps[1].(map[string]any)["needs"] = []any{"missingStep"}

	_, err := workflow.Validate(raw)
	iss, ok := orbyt.AsIssues(err)
	require.True(t, ok)
	require.Len(t, iss, 1)
	assert.Equal(t, "workflow.steps", iss[0].Path)
	assert.Contains(t, iss[0].Message, "missingStep")
}

// Scenario 3: two steps sharing an id yield one uniqueness error.
func TestValidate_DuplicateID(t *testing.T) {
	raw := minimalRaw()
	raw["workflow"].(map[string]any)["steps"] = []any{
		map[string]any{"id": "build", "uses": "cli.exec"},
		map[string]any{"id": "build", "uses": "cli.exec"},
	}
	_, err := workflow.Validate(raw)
	iss, ok := orbyt.AsIssues(err)
	require.True(t, ok)
	require.Len(t, iss, 1)
	assert.Equal(t, orbyt.CodeDuplicateID, iss[0].Code)
}

// Scenario 4: a cron trigger without a schedule yields one completeness
// error at triggers.
func TestValidate_CronTriggerWithoutSchedule(t *testing.T) {
	raw := minimalRaw()
	raw["triggers"] = []any{map[string]any{"type": "cron"}}

	_, err := workflow.Validate(raw)
	iss, ok := orbyt.AsIssues(err)
	require.True(t, ok)
	require.Len(t, iss, 1)
	assert.Equal(t, "triggers", iss[0].Path)
	assert.Equal(t, orbyt.CodeMissingSchedule, iss[0].Code)
}

func TestValidate_SchemaLayerRunsBeforeIntegrity(t *testing.T) {
	// structural violations surface alone; the integrity layer only sees
	// definitions that passed the schema layer
	raw := minimalRaw()
	raw["kind"] = "job"
	raw["workflow"].(map[string]any)["steps"].([]any)[1].(map[string]any)["needs"] = []any{"ghost"}

	_, err := workflow.Validate(raw)
	iss, ok := orbyt.AsIssues(err)
	require.True(t, ok)
	require.Len(t, iss, 1)
	assert.Equal(t, "kind", iss[0].Path)
}

func TestValidate_IdempotentOnAcceptedDefinition(t *testing.T) {
	def, err := workflow.Validate(minimalRaw())
	require.NoError(t, err)

	raw, err := def.Raw()
	require.NoError(t, err)
	again, err := workflow.Validate(raw)
	require.NoError(t, err)
	assert.Equal(t, def, again)
}

func TestValidate_RoundTripThroughJSON(t *testing.T) {
	raw := minimalRaw()
	raw["triggers"] = []any{map[string]any{"type": "cron", "schedule": "0 4 * * *"}}
	raw["telemetry"] = map[string]any{"sampleRate": 0.5}

	def, err := workflow.Validate(raw)
	require.NoError(t, err)

	b, err := json.Marshal(def)
	require.NoError(t, err)
	reparsed, err := workflow.DecodeJSON(b)
	require.NoError(t, err)
	again, err := workflow.Validate(reparsed)
	require.NoError(t, err)

	assert.Equal(t, def, again)
	assert.Contains(t, again.Extensions, "telemetry")
}

func TestValidate_SafeForConcurrentCallers(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if _, err := workflow.Validate(minimalRaw()); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()
}
