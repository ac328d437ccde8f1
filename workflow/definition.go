// Package workflow defines the declarative workflow model and its two
// validation layers: TypeCheck verifies structure, types, and per-field
// shape against the field table and applies declared defaults; RuleCheck
// verifies referential integrity over the typed definition. Validate
// composes both. Either layer reports every violation it finds in one pass.
package workflow

// Definition kinds form a closed enum; the schema layer rejects anything
// else.
const (
	KindWorkflow = "workflow"
	KindPipeline = "pipeline"
	KindTemplate = "template"
)

// Trigger types form a closed discriminated union on the "type" field.
const (
	TriggerManual  = "manual"
	TriggerCron    = "cron"
	TriggerEvent   = "event"
	TriggerWebhook = "webhook"
)

// Failure policies for Policies.Failure.
const (
	FailureStop     = "stop"
	FailureContinue = "continue"
	FailureRollback = "rollback"
)

// Backoff strategies for Retry.Backoff.
const (
	BackoffFixed       = "fixed"
	BackoffLinear      = "linear"
	BackoffExponential = "exponential"
)

// Definition is the typed, defaulted form of a workflow definition. Once a
// Definition has been accepted by Validate it is treated as immutable; no
// component mutates it afterward.
type Definition struct {
	// Version is the definition schema version (semver).
	Version string `json:"version" yaml:"version"`

	// Kind selects the definition flavor (workflow, pipeline, template).
	Kind string `json:"kind" yaml:"kind"`

	Metadata    map[string]any    `json:"metadata,omitempty" yaml:"metadata,omitempty"`
	Annotations map[string]string `json:"annotations,omitempty" yaml:"annotations,omitempty"`

	// Triggers declare how runs of this workflow start.
	Triggers []Trigger `json:"triggers,omitempty" yaml:"triggers,omitempty"`

	// Secrets names the vault entries the workflow may reference.
	Secrets []string `json:"secrets,omitempty" yaml:"secrets,omitempty"`

	// Inputs declares the expected input parameters.
	Inputs map[string]Input `json:"inputs,omitempty" yaml:"inputs,omitempty"`

	Context map[string]any `json:"context,omitempty" yaml:"context,omitempty"`

	// Defaults apply to every step that does not override them.
	Defaults *Defaults `json:"defaults,omitempty" yaml:"defaults,omitempty"`

	// Policies control run-level behavior; absent fields receive declared
	// defaults (failure=stop, concurrency=1).
	Policies *Policies `json:"policies,omitempty" yaml:"policies,omitempty"`

	Permissions map[string]any `json:"permissions,omitempty" yaml:"permissions,omitempty"`
	Resources   map[string]any `json:"resources,omitempty" yaml:"resources,omitempty"`

	// Workflow holds the ordered, non-empty step list.
	Workflow Spec `json:"workflow" yaml:"workflow"`

	Outputs map[string]any `json:"outputs,omitempty" yaml:"outputs,omitempty"`

	// On is the shorthand trigger block kept for forward compatibility with
	// hosted runners; it is shape-checked but not interpreted here.
	On map[string]any `json:"on,omitempty" yaml:"on,omitempty"`

	// Extensions preserves the optional namespaced root fields (usage,
	// strategy, profiles, ...) verbatim.
	Extensions map[string]any `json:"-" yaml:"-"`
}

// Spec is the closed workflow block.
type Spec struct {
	Steps []Step `json:"steps" yaml:"steps"`
}

// Step is one executable unit of the workflow.
type Step struct {
	// ID is unique within the definition: a letter followed by
	// alphanumerics, underscores, or hyphens.
	ID string `json:"id" yaml:"id"`

	// Uses is the dotted namespace reference of the adapter action to
	// invoke, e.g. "cli.exec".
	Uses string `json:"uses" yaml:"uses"`

	// With passes arguments to the action; values may be variable
	// references, which are carried as data and never evaluated here.
	With map[string]any `json:"with,omitempty" yaml:"with,omitempty"`

	// When is a condition expression guarding execution (data only).
	When string `json:"when,omitempty" yaml:"when,omitempty"`

	// Needs lists ids of steps that must finish first.
	Needs []string `json:"needs,omitempty" yaml:"needs,omitempty"`

	Retry   *Retry `json:"retry,omitempty" yaml:"retry,omitempty"`
	Timeout string `json:"timeout,omitempty" yaml:"timeout,omitempty"`

	// ContinueOnError lets the run proceed past a failure of this step.
	ContinueOnError bool `json:"continueOnError" yaml:"continueOnError"`

	Outputs map[string]any    `json:"outputs,omitempty" yaml:"outputs,omitempty"`
	Env     map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
}

// Trigger is a discriminated union on Type.
type Trigger struct {
	Type string `json:"type" yaml:"type"`

	// Schedule is required and non-empty for cron triggers.
	Schedule string `json:"schedule,omitempty" yaml:"schedule,omitempty"`

	// Event names the event for event triggers.
	Event string `json:"event,omitempty" yaml:"event,omitempty"`

	// Filters optionally narrows event/webhook triggers.
	Filters map[string]any `json:"filters,omitempty" yaml:"filters,omitempty"`
}

// Input declares one workflow input parameter.
type Input struct {
	Type        string `json:"type,omitempty" yaml:"type,omitempty"`
	Default     any    `json:"default,omitempty" yaml:"default,omitempty"`
	Required    bool   `json:"required,omitempty" yaml:"required,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Defaults hold step-level fallbacks.
type Defaults struct {
	Retry   *Retry `json:"retry,omitempty" yaml:"retry,omitempty"`
	Timeout string `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// Policies control run-level behavior. These fields describe policy for the
// runtime engine; the validator treats them as data.
type Policies struct {
	Failure     string `json:"failure" yaml:"failure"`
	Concurrency int    `json:"concurrency" yaml:"concurrency"`
}

// Retry describes retry policy for a step (data only).
type Retry struct {
	MaxAttempts int    `json:"maxAttempts" yaml:"maxAttempts"`
	Backoff     string `json:"backoff,omitempty" yaml:"backoff,omitempty"`
	Delay       string `json:"delay,omitempty" yaml:"delay,omitempty"`
}

// GetStep returns a step by id.
func (d *Definition) GetStep(id string) (*Step, bool) {
	for i := range d.Workflow.Steps {
		if d.Workflow.Steps[i].ID == id {
			return &d.Workflow.Steps[i], true
		}
	}
	return nil, false
}

// StepIDs returns the step ids in declaration order.
func (d *Definition) StepIDs() []string {
	ids := make([]string, 0, len(d.Workflow.Steps))
	for i := range d.Workflow.Steps {
		ids = append(ids, d.Workflow.Steps[i].ID)
	}
	return ids
}
