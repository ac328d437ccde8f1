package workflow

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"

	orbyt "github.com/orbyt-io/orbyt"
)

// RuleCheck runs the referential integrity passes over a typed definition:
// step id uniqueness, dependency existence, dependency acyclicity, and
// trigger completeness. The passes are independent and never short-circuit;
// their findings concatenate into one report.
func RuleCheck(def *Definition) orbyt.Issues {
	var iss orbyt.Issues
	iss = append(iss, checkUniqueness(def)...)
	iss = append(iss, checkExistence(def)...)
	iss = append(iss, checkAcyclicity(def)...)
	iss = append(iss, checkTriggerCompleteness(def)...)
	return iss
}

// checkUniqueness reports each step id that occurs more than once.
func checkUniqueness(def *Definition) orbyt.Issues {
	counts := make(map[string]int)
	var order []string
	for _, id := range def.StepIDs() {
		if counts[id] == 0 {
			order = append(order, id)
		}
		counts[id]++
	}
	var iss orbyt.Issues
	p := orbyt.At("workflow.steps")
	for _, id := range order {
		if counts[id] > 1 {
			iss = append(iss, p.Issue(orbyt.CodeDuplicateID,
				fmt.Sprintf("step id %q is declared %d times", id, counts[id]),
				"step", id, "count", counts[id]))
		}
	}
	return iss
}

// checkExistence reports each needs entry that resolves to no step id.
func checkExistence(def *Definition) orbyt.Issues {
	ids := make(map[string]struct{}, len(def.Workflow.Steps))
	for _, id := range def.StepIDs() {
		ids[id] = struct{}{}
	}
	var iss orbyt.Issues
	p := orbyt.At("workflow.steps")
	for i := range def.Workflow.Steps {
		step := &def.Workflow.Steps[i]
		for _, d := range step.Needs {
			if _, ok := ids[d]; !ok {
				iss = append(iss, p.Issue(orbyt.CodeUnknownReference,
					fmt.Sprintf("step %q needs %q, which is not a step in this workflow", step.ID, d),
					"step", step.ID, "reference", d))
			}
		}
	}
	return iss
}

// dfs colors for cycle detection.
const (
	white = iota // unvisited
	gray         // on the current path
	black        // finished
)

// checkAcyclicity runs a depth-first traversal over the dependency graph
// (edge step -> need). An edge into a gray node closes a cycle, reported as
// the ordered id sequence starting and ending at the repeated node. Runs in
// O(steps + edges).
func checkAcyclicity(def *Definition) orbyt.Issues {
	steps := def.Workflow.Steps
	index := make(map[string]int, len(steps))
	for i := range steps {
		// first declaration wins when ids collide; uniqueness reports that
		if _, ok := index[steps[i].ID]; !ok {
			index[steps[i].ID] = i
		}
	}

	color := make([]int, len(steps))
	var stack []string
	var iss orbyt.Issues
	p := orbyt.At("workflow.steps")

	var visit func(i int)
	visit = func(i int) {
		color[i] = gray
		stack = append(stack, steps[i].ID)
		for _, d := range steps[i].Needs {
			j, ok := index[d]
			if !ok {
				continue // existence pass reports unresolved references
			}
			switch color[j] {
			case white:
				visit(j)
			case gray:
				cycle := cycleFrom(stack, d)
				iss = append(iss, p.Issue(orbyt.CodeCircularReference,
					fmt.Sprintf("circular dependency: %s", strings.Join(cycle, " -> ")),
					"cycle", cycle))
			}
		}
		stack = stack[:len(stack)-1]
		color[i] = black
	}

	for i := range steps {
		if color[i] == white {
			visit(i)
		}
	}
	return iss
}

// cycleFrom slices the current DFS path from the repeated node onward and
// closes the loop by repeating it at the end.
func cycleFrom(stack []string, repeated string) []string {
	start := 0
	for i, id := range stack {
		if id == repeated {
			start = i
			break
		}
	}
	cycle := append([]string{}, stack[start:]...)
	return append(cycle, repeated)
}

// cronParser accepts the standard 5-field spec plus the descriptors cron
// tooling commonly emits (@daily and friends).
var cronParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// checkTriggerCompleteness requires every cron trigger to carry a non-empty
// schedule, and a present schedule to parse as a cron expression.
func checkTriggerCompleteness(def *Definition) orbyt.Issues {
	var iss orbyt.Issues
	p := orbyt.At("triggers")
	for i, tr := range def.Triggers {
		if tr.Type != TriggerCron {
			continue
		}
		if tr.Schedule == "" {
			iss = append(iss, p.Issue(orbyt.CodeMissingSchedule,
				fmt.Sprintf("cron trigger %d has no schedule", i),
				"trigger", i))
			continue
		}
		if _, err := cronParser.Parse(tr.Schedule); err != nil {
			iss = append(iss, p.Issue(orbyt.CodeInvalidSchedule,
				fmt.Sprintf("cron trigger %d schedule %q does not parse: %v", i, tr.Schedule, err),
				"trigger", i, "schedule", tr.Schedule))
		}
	}
	return iss
}
