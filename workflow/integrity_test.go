package workflow_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	orbyt "github.com/orbyt-io/orbyt"
	"github.com/orbyt-io/orbyt/workflow"
)

// defWithSteps builds a typed definition directly; RuleCheck never needs the
// raw tree.
func defWithSteps(steps ...workflow.Step) *workflow.Definition {
	return &workflow.Definition{
		Version:  "1.0",
		Kind:     workflow.KindWorkflow,
		Workflow: workflow.Spec{Steps: steps},
	}
}

func step(id string, needs ...string) workflow.Step {
	return workflow.Step{ID: id, Uses: "cli.exec", Needs: needs}
}

func TestRuleCheck_DistinctIDsYieldNoUniquenessErrors(t *testing.T) {
	def := defWithSteps(step("build"), step("test", "build"), step("deploy", "test"))
	assert.Empty(t, workflow.RuleCheck(def))
}

func TestRuleCheck_DuplicateIDReportedOnce(t *testing.T) {
	def := defWithSteps(step("build"), step("build"))
	iss := workflow.RuleCheck(def)
	require.Len(t, iss, 1)
	assert.Equal(t, "workflow.steps", iss[0].Path)
	assert.Equal(t, orbyt.CodeDuplicateID, iss[0].Code)
	assert.Contains(t, iss[0].Message, "build")
}

func TestRuleCheck_UnresolvedNeedNamesStepAndReference(t *testing.T) {
	def := defWithSteps(step("build"), step("deploy", "missingStep"))
	iss := workflow.RuleCheck(def)
	require.Len(t, iss, 1)
	assert.Equal(t, "workflow.steps", iss[0].Path)
	assert.Equal(t, orbyt.CodeUnknownReference, iss[0].Code)
	assert.Contains(t, iss[0].Message, "missingStep")
	assert.Contains(t, iss[0].Message, "deploy")
}

func TestRuleCheck_EachUnresolvedNeedReportedSeparately(t *testing.T) {
	def := defWithSteps(step("a", "ghost1", "ghost2"))
	iss := workflow.RuleCheck(def)
	require.Len(t, iss, 2)
	assert.Equal(t, "ghost1", iss[0].Params["reference"])
	assert.Equal(t, "ghost2", iss[1].Params["reference"])
}

func TestRuleCheck_ThreeStepCycleReportedOnceWithOrderedSequence(t *testing.T) {
	def := defWithSteps(step("a", "b"), step("b", "c"), step("c", "a"))
	iss := workflow.RuleCheck(def)
	require.Len(t, iss, 1)
	assert.Equal(t, "workflow.steps", iss[0].Path)
	assert.Equal(t, orbyt.CodeCircularReference, iss[0].Code)

	cycle, ok := iss[0].Params["cycle"].([]string)
	require.True(t, ok, "cycle param missing: %+v", iss[0].Params)
	// ordered, closed on the repeated node, containing all three steps
	assert.Equal(t, cycle[0], cycle[len(cycle)-1])
	assert.ElementsMatch(t, []string{"a", "b", "c"}, cycle[:len(cycle)-1])
}

func TestRuleCheck_SelfCycle(t *testing.T) {
	def := defWithSteps(step("loop", "loop"))
	iss := workflow.RuleCheck(def)
	require.Len(t, iss, 1)
	assert.Equal(t, orbyt.CodeCircularReference, iss[0].Code)
	assert.Equal(t, []string{"loop", "loop"}, iss[0].Params["cycle"])
}

func TestRuleCheck_DisjointCyclesEachReported(t *testing.T) {
	def := defWithSteps(
		step("a", "b"), step("b", "a"),
		step("x", "y"), step("y", "x"),
		step("solo"),
	)
	iss := workflow.RuleCheck(def)
	require.Len(t, iss, 2)
	for _, it := range iss {
		assert.Equal(t, orbyt.CodeCircularReference, it.Code)
	}
}

func TestRuleCheck_DiamondIsNotACycle(t *testing.T) {
	def := defWithSteps(
		step("build"),
		step("test_unit", "build"),
		step("test_e2e", "build"),
		step("deploy", "test_unit", "test_e2e"),
	)
	assert.Empty(t, workflow.RuleCheck(def))
}

func TestRuleCheck_CronTriggerWithoutScheduleReportedAtTriggers(t *testing.T) {
	def := defWithSteps(step("build"))
	def.Triggers = []workflow.Trigger{{Type: workflow.TriggerCron}}
	iss := workflow.RuleCheck(def)
	require.Len(t, iss, 1)
	assert.Equal(t, "triggers", iss[0].Path)
	assert.Equal(t, orbyt.CodeMissingSchedule, iss[0].Code)
}

func TestRuleCheck_CronScheduleMustParse(t *testing.T) {
	def := defWithSteps(step("build"))
	def.Triggers = []workflow.Trigger{
		{Type: workflow.TriggerCron, Schedule: "0 4 * * *"},
		{Type: workflow.TriggerCron, Schedule: "@daily"},
		{Type: workflow.TriggerCron, Schedule: "every five minutes"},
	}
	iss := workflow.RuleCheck(def)
	require.Len(t, iss, 1)
	assert.Equal(t, "triggers", iss[0].Path)
	assert.Equal(t, orbyt.CodeInvalidSchedule, iss[0].Code)
	assert.Equal(t, 2, iss[0].Params["trigger"])
}

func TestRuleCheck_NonCronTriggersNeedNoSchedule(t *testing.T) {
	def := defWithSteps(step("build"))
	def.Triggers = []workflow.Trigger{
		{Type: workflow.TriggerManual},
		{Type: workflow.TriggerEvent, Event: "content.created"},
		{Type: workflow.TriggerWebhook, Filters: map[string]any{"branch": "main"}},
	}
	assert.Empty(t, workflow.RuleCheck(def))
}

func TestRuleCheck_PassesAreIndependent(t *testing.T) {
	// one duplicate, one unresolved reference, one cycle, one bare cron
	// trigger; all four passes must report in a single call
	def := defWithSteps(
		step("build"),
		step("build"),
		step("deploy", "ghost"),
		step("a", "b"),
		step("b", "a"),
	)
	def.Triggers = []workflow.Trigger{{Type: workflow.TriggerCron}}

	iss := workflow.RuleCheck(def)
	codes := map[string]int{}
	for _, it := range iss {
		codes[it.Code]++
	}
	assert.Equal(t, 1, codes[orbyt.CodeDuplicateID])
	assert.Equal(t, 1, codes[orbyt.CodeUnknownReference])
	assert.Equal(t, 1, codes[orbyt.CodeCircularReference])
	assert.Equal(t, 1, codes[orbyt.CodeMissingSchedule])
}

func TestRuleCheck_ScalesLinearlyShapedChain(t *testing.T) {
	// a long dependency chain exercises the O(steps + edges) traversal
	steps := make([]workflow.Step, 0, 500)
	steps = append(steps, step("s0"))
	for i := 1; i < 500; i++ {
		steps = append(steps, step(fmt.Sprintf("s%d", i), fmt.Sprintf("s%d", i-1)))
	}
	def := defWithSteps(steps...)
	assert.Empty(t, workflow.RuleCheck(def))
}
