package orbyt

import (
	"errors"
	"fmt"
)

// Category classifies a failure by who can fix it and how it should surface.
type Category string

const (
	CategoryUser      Category = "user"      // caller-fixable input mistake
	CategoryConfig    Category = "config"    // environment/setup problem
	CategorySecurity  Category = "security"  // auth/permission/crypto
	CategoryExecution Category = "execution" // runtime step/operation failure
	CategorySystem    Category = "system"    // infra/resource/network
	CategoryInternal  Category = "internal"  // defect / invariant violation
)

// Severity expresses prioritization for alerting. It never drives retry
// decisions; retryability is carried per Kind.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

var severityRank = map[Severity]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// Rank returns the ordering position of the severity (critical highest).
// Unknown severities rank below low.
func (s Severity) Rank() int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return -1
}

// DefaultRetryable returns the retry disposition a category implies when a
// Kind does not override it: system and execution failures are retry
// candidates, everything else is not.
func DefaultRetryable(c Category) bool {
	return c == CategorySystem || c == CategoryExecution
}

// Kind is one entry of the error taxonomy. The set of kinds is a closed,
// versioned registry: entries may be appended across versions but never
// removed, renumbered, or moved to a different exit-code range.
type Kind struct {
	Code      string   `json:"code"`      // stable, e.g. ORBYT-WF-002
	Component string   `json:"component"` // owning component
	Category  Category `json:"category"`
	Severity  Severity `json:"severity"`
	Retryable bool     `json:"retryable"`
	ExitCode  int      `json:"exitCode"` // inside the category's range, assigned once
}

// TaxonomyVersion identifies the registry revision. Bump when appending
// kinds; existing entries never change.
const TaxonomyVersion = "2026-08"

// Taxonomy codes. Append new codes at the end of their component block; never
// reuse or renumber.
const (
	KindSchemaViolation    = "ORBYT-WF-001"
	KindDuplicateStepID    = "ORBYT-WF-002"
	KindUnknownStepRef     = "ORBYT-WF-003"
	KindCircularDependency = "ORBYT-WF-004"
	KindInvalidTrigger     = "ORBYT-WF-005"
	KindDefinitionUnread   = "ORBYT-CLI-001"

	KindInvalidConfig = "ORBYT-CFG-001"
	KindMissingEnv    = "ORBYT-CFG-002"

	KindStepFailed      = "ORBYT-EXEC-001"
	KindStepTimeout     = "ORBYT-EXEC-002"
	KindAdapterNotFound = "ORBYT-EXEC-003"

	KindPermissionDenied = "ORBYT-SEC-001"
	KindSecretNotFound   = "ORBYT-SEC-002"

	KindUnhandled          = "ORBYT-INT-001"
	KindInvariantViolation = "ORBYT-INT-002"

	KindResourceExhausted  = "ORBYT-SYS-001"
	KindNetworkUnavailable = "ORBYT-SYS-002"
)

// kinds is the flat taxonomy table. Retryable follows DefaultRetryable for
// the category unless the entry deliberately overrides it (ORBYT-EXEC-003:
// a missing adapter never heals by retrying).
var kinds = []Kind{
	{Code: KindSchemaViolation, Component: "schema", Category: CategoryUser, Severity: SeverityMedium, Retryable: false, ExitCode: 100},
	{Code: KindDuplicateStepID, Component: "workflow", Category: CategoryUser, Severity: SeverityMedium, Retryable: false, ExitCode: 101},
	{Code: KindUnknownStepRef, Component: "workflow", Category: CategoryUser, Severity: SeverityMedium, Retryable: false, ExitCode: 102},
	{Code: KindCircularDependency, Component: "workflow", Category: CategoryUser, Severity: SeverityHigh, Retryable: false, ExitCode: 103},
	{Code: KindInvalidTrigger, Component: "workflow", Category: CategoryUser, Severity: SeverityMedium, Retryable: false, ExitCode: 104},
	{Code: KindDefinitionUnread, Component: "cli", Category: CategoryUser, Severity: SeverityMedium, Retryable: false, ExitCode: 105},

	{Code: KindInvalidConfig, Component: "cli", Category: CategoryConfig, Severity: SeverityHigh, Retryable: false, ExitCode: 200},
	{Code: KindMissingEnv, Component: "cli", Category: CategoryConfig, Severity: SeverityMedium, Retryable: false, ExitCode: 201},

	{Code: KindStepFailed, Component: "engine", Category: CategoryExecution, Severity: SeverityMedium, Retryable: true, ExitCode: 300},
	{Code: KindStepTimeout, Component: "engine", Category: CategoryExecution, Severity: SeverityMedium, Retryable: true, ExitCode: 301},
	{Code: KindAdapterNotFound, Component: "engine", Category: CategoryExecution, Severity: SeverityHigh, Retryable: false, ExitCode: 302},

	{Code: KindPermissionDenied, Component: "vault", Category: CategorySecurity, Severity: SeverityHigh, Retryable: false, ExitCode: 400},
	{Code: KindSecretNotFound, Component: "vault", Category: CategorySecurity, Severity: SeverityHigh, Retryable: false, ExitCode: 401},

	{Code: KindUnhandled, Component: "core", Category: CategoryInternal, Severity: SeverityCritical, Retryable: false, ExitCode: 500},
	{Code: KindInvariantViolation, Component: "core", Category: CategoryInternal, Severity: SeverityCritical, Retryable: false, ExitCode: 501},

	{Code: KindResourceExhausted, Component: "engine", Category: CategorySystem, Severity: SeverityHigh, Retryable: true, ExitCode: 600},
	{Code: KindNetworkUnavailable, Component: "engine", Category: CategorySystem, Severity: SeverityMedium, Retryable: true, ExitCode: 601},
}

var kindByCode = func() map[string]Kind {
	m := make(map[string]Kind, len(kinds))
	for _, k := range kinds {
		m[k.Code] = k
	}
	return m
}()

// KindOf looks up a taxonomy entry by its stable code.
func KindOf(code string) (Kind, bool) {
	k, ok := kindByCode[code]
	return k, ok
}

// Kinds returns a copy of the full taxonomy table, in registration order.
func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	copy(out, kinds)
	return out
}

// Error is the single shape every failure takes once it crosses the taxonomy
// boundary, regardless of which layer raised it.
type Error struct {
	Kind    Kind           `json:"kind"`
	Message string         `json:"message"`
	Context map[string]any `json:"context,omitempty"`
	cause   error
}

// NewError constructs an Error by looking up taxonomy metadata for code.
// An unknown code degrades to the unhandled kind with the requested code
// recorded in Context, so a registry mistake is never silently swallowed.
func NewError(code, msg string) *Error {
	k, ok := kindByCode[code]
	if !ok {
		k = kindByCode[KindUnhandled]
		return &Error{Kind: k, Message: msg, Context: map[string]any{"requestedCode": code}}
	}
	return &Error{Kind: k, Message: msg}
}

// WithContext attaches structured context and returns the receiver.
func (e *Error) WithContext(kv map[string]any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any, len(kv))
	}
	for k, v := range kv {
		e.Context[k] = v
	}
	return e
}

// WithCause chains an underlying error and returns the receiver.
func (e *Error) WithCause(cause error) *Error {
	e.cause = cause
	return e
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Retryable reports the retry disposition of this error.
func (e *Error) Retryable() bool { return e.Kind.Retryable }

// Wrap ensures err is a taxonomy member. Taxonomy errors pass through
// untouched; anything else becomes an unhandled internal error with the
// original preserved as the chained cause.
func Wrap(err error) *Error {
	if err == nil {
		return nil
	}
	var te *Error
	if errors.As(err, &te) {
		return te
	}
	return NewError(KindUnhandled, "unhandled error").WithCause(err)
}
