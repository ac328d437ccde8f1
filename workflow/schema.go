package workflow

import (
	"fmt"
	"math"
	"regexp"
	"sort"

	semver "github.com/Masterminds/semver/v3"
	json "github.com/goccy/go-json"

	orbyt "github.com/orbyt-io/orbyt"
)

var (
	stepIDPattern   = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)
	usesPattern     = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*(\.[A-Za-z][A-Za-z0-9_-]*)+$`)
	durationPattern = regexp.MustCompile(`^[0-9]+(ms|s|m|h)$`)
)

// rootFields is the closed root field table. The root object rejects any key
// outside this set plus extensionFields; nested objects stay open, except
// the workflow block.
var rootFields = map[string]struct{}{
	"version": {}, "kind": {}, "metadata": {}, "annotations": {},
	"triggers": {}, "secrets": {}, "inputs": {}, "context": {},
	"defaults": {}, "policies": {}, "permissions": {}, "resources": {},
	"workflow": {}, "outputs": {}, "on": {},
}

// extensionFields are optional namespaced root fields preserved verbatim on
// the typed definition.
var extensionFields = map[string]struct{}{
	"usage": {}, "strategy": {}, "profiles": {}, "compliance": {},
	"provenance": {}, "telemetry": {}, "accounting": {}, "compatibility": {},
	"failurePolicy": {}, "rollback": {}, "governance": {},
}

var definitionKinds = []string{KindWorkflow, KindPipeline, KindTemplate}
var triggerTypes = []string{TriggerManual, TriggerCron, TriggerEvent, TriggerWebhook}
var failurePolicies = []string{FailureStop, FailureContinue, FailureRollback}
var backoffKinds = []string{BackoffFixed, BackoffLinear, BackoffExponential}

// Declared defaults applied to absent optional fields.
const (
	DefaultFailurePolicy = FailureStop
	DefaultConcurrency   = 1
)

// TypeCheck verifies structure, types, presence, and per-field shape of the
// raw decoded tree against the field table, then applies declared defaults
// and returns the typed definition. All violations found in one pass are
// reported together; validation never stops at the first one.
func TypeCheck(raw map[string]any) (*Definition, orbyt.Issues) {
	var iss orbyt.Issues
	if raw == nil {
		return nil, orbyt.Issues{orbyt.Root().Issue(orbyt.CodeRequired, "definition is empty")}
	}

	iss = append(iss, checkRootKeys(raw)...)
	iss = append(iss, checkVersion(raw)...)
	iss = append(iss, checkKind(raw)...)
	iss = append(iss, checkRootShapes(raw)...)
	iss = append(iss, checkTriggers(raw)...)
	iss = append(iss, checkDefaultsBlock(raw)...)
	iss = append(iss, checkPolicies(raw)...)
	iss = append(iss, checkWorkflowBlock(raw)...)

	if len(iss) > 0 {
		return nil, iss
	}
	def, err := buildDefinition(raw)
	if err != nil {
		return nil, orbyt.Issues{orbyt.Root().Issue(orbyt.CodeParseError, fmt.Sprintf("building typed definition: %v", err))}
	}
	return def, nil
}

// checkRootKeys rejects any root-level key outside the closed field set.
func checkRootKeys(raw map[string]any) orbyt.Issues {
	var unknown []string
	for k := range raw {
		if _, ok := rootFields[k]; ok {
			continue
		}
		if _, ok := extensionFields[k]; ok {
			continue
		}
		unknown = append(unknown, k)
	}
	sort.Strings(unknown)
	var iss orbyt.Issues
	for _, k := range unknown {
		iss = append(iss, orbyt.At(k).Issue(orbyt.CodeUnknownKey, fmt.Sprintf("unknown root field %q", k)))
	}
	return iss
}

func checkVersion(raw map[string]any) orbyt.Issues {
	p := orbyt.At("version")
	v, ok := raw["version"]
	if !ok {
		return orbyt.Issues{p.Issue(orbyt.CodeRequired, "version is required")}
	}
	s, ok := v.(string)
	if !ok {
		return orbyt.Issues{p.Issue(orbyt.CodeInvalidType, "version must be a string", "got", typeName(v))}
	}
	if _, err := semver.NewVersion(s); err != nil {
		return orbyt.Issues{p.Issue(orbyt.CodeInvalidFormat, fmt.Sprintf("version %q is not a semver version", s), "want", "semver")}
	}
	return nil
}

func checkKind(raw map[string]any) orbyt.Issues {
	p := orbyt.At("kind")
	v, ok := raw["kind"]
	if !ok {
		return orbyt.Issues{p.Issue(orbyt.CodeRequired, "kind is required")}
	}
	s, ok := v.(string)
	if !ok {
		return orbyt.Issues{p.Issue(orbyt.CodeInvalidType, "kind must be a string", "got", typeName(v))}
	}
	if !contains(definitionKinds, s) {
		return orbyt.Issues{p.Issue(orbyt.CodeInvalidEnum, fmt.Sprintf("kind %q is not one of %v", s, definitionKinds))}
	}
	return nil
}

// checkRootShapes verifies type conformance of the open nested root fields.
func checkRootShapes(raw map[string]any) orbyt.Issues {
	var iss orbyt.Issues
	for _, name := range []string{"metadata", "inputs", "context", "permissions", "resources", "outputs", "on"} {
		v, ok := raw[name]
		if !ok {
			continue
		}
		if _, ok := asMap(v); !ok {
			iss = append(iss, orbyt.At(name).Issue(orbyt.CodeInvalidType, fmt.Sprintf("%s must be an object", name), "got", typeName(v)))
		}
	}
	if v, ok := raw["annotations"]; ok {
		if m, ok := asMap(v); !ok {
			iss = append(iss, orbyt.At("annotations").Issue(orbyt.CodeInvalidType, "annotations must be an object", "got", typeName(v)))
		} else {
			for _, k := range sortedKeys(m) {
				if _, ok := m[k].(string); !ok {
					iss = append(iss, orbyt.At("annotations").Field(k).Issue(orbyt.CodeInvalidType, "annotation values must be strings", "got", typeName(m[k])))
				}
			}
		}
	}
	if v, ok := raw["inputs"]; ok {
		if m, ok := asMap(v); ok {
			for _, k := range sortedKeys(m) {
				ip := orbyt.At("inputs").Field(k)
				im, ok := asMap(m[k])
				if !ok {
					iss = append(iss, ip.Issue(orbyt.CodeInvalidType, "input declarations must be objects", "got", typeName(m[k])))
					continue
				}
				for _, f := range []string{"type", "description"} {
					if fv, ok := im[f]; ok {
						if _, ok := fv.(string); !ok {
							iss = append(iss, ip.Field(f).Issue(orbyt.CodeInvalidType, f+" must be a string", "got", typeName(fv)))
						}
					}
				}
				if fv, ok := im["required"]; ok {
					if _, ok := fv.(bool); !ok {
						iss = append(iss, ip.Field("required").Issue(orbyt.CodeInvalidType, "required must be a boolean", "got", typeName(fv)))
					}
				}
			}
		}
	}
	if v, ok := raw["secrets"]; ok {
		if list, ok := asList(v); !ok {
			iss = append(iss, orbyt.At("secrets").Issue(orbyt.CodeInvalidType, "secrets must be a list", "got", typeName(v)))
		} else {
			for i, e := range list {
				if _, ok := e.(string); !ok {
					iss = append(iss, orbyt.At("secrets").Index(i).Issue(orbyt.CodeInvalidType, "secret references must be strings", "got", typeName(e)))
				}
			}
		}
	}
	return iss
}

func checkTriggers(raw map[string]any) orbyt.Issues {
	v, ok := raw["triggers"]
	if !ok {
		return nil
	}
	list, ok := asList(v)
	if !ok {
		return orbyt.Issues{orbyt.At("triggers").Issue(orbyt.CodeInvalidType, "triggers must be a list", "got", typeName(v))}
	}
	var iss orbyt.Issues
	for i, e := range list {
		p := orbyt.At("triggers").Index(i)
		m, ok := asMap(e)
		if !ok {
			iss = append(iss, p.Issue(orbyt.CodeInvalidType, "trigger must be an object", "got", typeName(e)))
			continue
		}
		t, ok := m["type"]
		if !ok {
			iss = append(iss, p.Field("type").Issue(orbyt.CodeRequired, "trigger type is required"))
		} else if s, ok := t.(string); !ok {
			iss = append(iss, p.Field("type").Issue(orbyt.CodeInvalidType, "trigger type must be a string", "got", typeName(t)))
		} else if !contains(triggerTypes, s) {
			iss = append(iss, p.Field("type").Issue(orbyt.CodeInvalidEnum, fmt.Sprintf("trigger type %q is not one of %v", s, triggerTypes)))
		}
		for _, f := range []string{"schedule", "event"} {
			if fv, ok := m[f]; ok {
				if _, ok := fv.(string); !ok {
					iss = append(iss, p.Field(f).Issue(orbyt.CodeInvalidType, f+" must be a string", "got", typeName(fv)))
				}
			}
		}
		if fv, ok := m["filters"]; ok {
			if _, ok := asMap(fv); !ok {
				iss = append(iss, p.Field("filters").Issue(orbyt.CodeInvalidType, "filters must be an object", "got", typeName(fv)))
			}
		}
	}
	return iss
}

func checkDefaultsBlock(raw map[string]any) orbyt.Issues {
	v, ok := raw["defaults"]
	if !ok {
		return nil
	}
	m, ok := asMap(v)
	if !ok {
		return orbyt.Issues{orbyt.At("defaults").Issue(orbyt.CodeInvalidType, "defaults must be an object", "got", typeName(v))}
	}
	var iss orbyt.Issues
	p := orbyt.At("defaults")
	if rv, ok := m["retry"]; ok {
		iss = append(iss, checkRetry(p.Field("retry"), rv)...)
	}
	iss = append(iss, checkDuration(p, m, "timeout")...)
	return iss
}

func checkPolicies(raw map[string]any) orbyt.Issues {
	v, ok := raw["policies"]
	if !ok {
		return nil
	}
	m, ok := asMap(v)
	if !ok {
		return orbyt.Issues{orbyt.At("policies").Issue(orbyt.CodeInvalidType, "policies must be an object", "got", typeName(v))}
	}
	var iss orbyt.Issues
	p := orbyt.At("policies")
	if fv, ok := m["failure"]; ok {
		if s, ok := fv.(string); !ok {
			iss = append(iss, p.Field("failure").Issue(orbyt.CodeInvalidType, "failure policy must be a string", "got", typeName(fv)))
		} else if !contains(failurePolicies, s) {
			iss = append(iss, p.Field("failure").Issue(orbyt.CodeInvalidEnum, fmt.Sprintf("failure policy %q is not one of %v", s, failurePolicies)))
		}
	}
	if cv, ok := m["concurrency"]; ok {
		if n, ok := asInt(cv); !ok {
			iss = append(iss, p.Field("concurrency").Issue(orbyt.CodeInvalidType, "concurrency must be an integer", "got", typeName(cv)))
		} else if n < 1 {
			iss = append(iss, p.Field("concurrency").Issue(orbyt.CodeInvalidFormat, "concurrency must be at least 1", "got", n))
		}
	}
	return iss
}

// checkWorkflowBlock validates the one closed nested object: workflow may
// only carry steps, and steps must be a non-empty list of well-shaped steps.
func checkWorkflowBlock(raw map[string]any) orbyt.Issues {
	p := orbyt.At("workflow")
	v, ok := raw["workflow"]
	if !ok {
		return orbyt.Issues{p.Issue(orbyt.CodeRequired, "workflow is required")}
	}
	m, ok := asMap(v)
	if !ok {
		return orbyt.Issues{p.Issue(orbyt.CodeInvalidType, "workflow must be an object", "got", typeName(v))}
	}
	var iss orbyt.Issues
	for _, k := range sortedKeys(m) {
		if k != "steps" {
			iss = append(iss, p.Field(k).Issue(orbyt.CodeUnknownKey, fmt.Sprintf("unknown workflow field %q", k)))
		}
	}
	sv, ok := m["steps"]
	if !ok {
		return append(iss, p.Field("steps").Issue(orbyt.CodeRequired, "workflow.steps is required"))
	}
	steps, ok := asList(sv)
	if !ok {
		return append(iss, p.Field("steps").Issue(orbyt.CodeInvalidType, "workflow.steps must be a list", "got", typeName(sv)))
	}
	if len(steps) == 0 {
		return append(iss, p.Field("steps").Issue(orbyt.CodeEmpty, "workflow.steps must not be empty"))
	}
	for i, e := range steps {
		sp := p.Field("steps").Index(i)
		sm, ok := asMap(e)
		if !ok {
			iss = append(iss, sp.Issue(orbyt.CodeInvalidType, "step must be an object", "got", typeName(e)))
			continue
		}
		iss = append(iss, checkStep(sp, sm)...)
	}
	return iss
}

func checkStep(p orbyt.PathRef, m map[string]any) orbyt.Issues {
	var iss orbyt.Issues

	id, ok := m["id"]
	if !ok {
		iss = append(iss, p.Field("id").Issue(orbyt.CodeRequired, "step id is required"))
	} else if s, ok := id.(string); !ok {
		iss = append(iss, p.Field("id").Issue(orbyt.CodeInvalidType, "step id must be a string", "got", typeName(id)))
	} else if !stepIDPattern.MatchString(s) {
		iss = append(iss, p.Field("id").Issue(orbyt.CodePattern, fmt.Sprintf("step id %q must start with a letter and contain only letters, digits, underscores, or hyphens", s)))
	}

	uses, ok := m["uses"]
	if !ok {
		iss = append(iss, p.Field("uses").Issue(orbyt.CodeRequired, "step uses is required"))
	} else if s, ok := uses.(string); !ok {
		iss = append(iss, p.Field("uses").Issue(orbyt.CodeInvalidType, "step uses must be a string", "got", typeName(uses)))
	} else if !usesPattern.MatchString(s) {
		iss = append(iss, p.Field("uses").Issue(orbyt.CodePattern, fmt.Sprintf("uses %q must be a dotted namespace reference like \"cli.exec\"", s)))
	}

	for _, f := range []string{"with", "outputs"} {
		if v, ok := m[f]; ok {
			if _, ok := asMap(v); !ok {
				iss = append(iss, p.Field(f).Issue(orbyt.CodeInvalidType, f+" must be an object", "got", typeName(v)))
			}
		}
	}
	if v, ok := m["when"]; ok {
		if _, ok := v.(string); !ok {
			iss = append(iss, p.Field("when").Issue(orbyt.CodeInvalidType, "when must be a string", "got", typeName(v)))
		}
	}
	if v, ok := m["needs"]; ok {
		if list, ok := asList(v); !ok {
			iss = append(iss, p.Field("needs").Issue(orbyt.CodeInvalidType, "needs must be a list", "got", typeName(v)))
		} else {
			for i, e := range list {
				if _, ok := e.(string); !ok {
					iss = append(iss, p.Field("needs").Index(i).Issue(orbyt.CodeInvalidType, "needs entries must be step ids", "got", typeName(e)))
				}
			}
		}
	}
	if v, ok := m["retry"]; ok {
		iss = append(iss, checkRetry(p.Field("retry"), v)...)
	}
	iss = append(iss, checkDuration(p, m, "timeout")...)
	if v, ok := m["continueOnError"]; ok {
		if _, ok := v.(bool); !ok {
			iss = append(iss, p.Field("continueOnError").Issue(orbyt.CodeInvalidType, "continueOnError must be a boolean", "got", typeName(v)))
		}
	}
	if v, ok := m["env"]; ok {
		if em, ok := asMap(v); !ok {
			iss = append(iss, p.Field("env").Issue(orbyt.CodeInvalidType, "env must be an object", "got", typeName(v)))
		} else {
			for _, k := range sortedKeys(em) {
				if _, ok := em[k].(string); !ok {
					iss = append(iss, p.Field("env").Field(k).Issue(orbyt.CodeInvalidType, "env values must be strings", "got", typeName(em[k])))
				}
			}
		}
	}
	return iss
}

func checkRetry(p orbyt.PathRef, v any) orbyt.Issues {
	m, ok := asMap(v)
	if !ok {
		return orbyt.Issues{p.Issue(orbyt.CodeInvalidType, "retry must be an object", "got", typeName(v))}
	}
	var iss orbyt.Issues
	if av, ok := m["maxAttempts"]; ok {
		if n, ok := asInt(av); !ok {
			iss = append(iss, p.Field("maxAttempts").Issue(orbyt.CodeInvalidType, "maxAttempts must be an integer", "got", typeName(av)))
		} else if n < 1 {
			iss = append(iss, p.Field("maxAttempts").Issue(orbyt.CodeInvalidFormat, "maxAttempts must be at least 1", "got", n))
		}
	}
	if bv, ok := m["backoff"]; ok {
		if s, ok := bv.(string); !ok {
			iss = append(iss, p.Field("backoff").Issue(orbyt.CodeInvalidType, "backoff must be a string", "got", typeName(bv)))
		} else if !contains(backoffKinds, s) {
			iss = append(iss, p.Field("backoff").Issue(orbyt.CodeInvalidEnum, fmt.Sprintf("backoff %q is not one of %v", s, backoffKinds)))
		}
	}
	iss = append(iss, checkDuration(p, m, "delay")...)
	return iss
}

func checkDuration(p orbyt.PathRef, m map[string]any, field string) orbyt.Issues {
	v, ok := m[field]
	if !ok {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		return orbyt.Issues{p.Field(field).Issue(orbyt.CodeInvalidType, field+" must be a duration string", "got", typeName(v))}
	}
	if !durationPattern.MatchString(s) {
		return orbyt.Issues{p.Field(field).Issue(orbyt.CodeInvalidFormat, fmt.Sprintf("%s %q must be a duration like \"30s\" or \"5m\"", field, s), "want", "duration")}
	}
	return nil
}

// buildDefinition applies declared defaults to a copy of the raw tree and
// decodes it into the typed form. The input tree is never mutated.
func buildDefinition(raw map[string]any) (*Definition, error) {
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var def Definition
	if err := json.Unmarshal(b, &def); err != nil {
		return nil, err
	}
	applyDefaults(&def)
	for k := range extensionFields {
		if v, ok := raw[k]; ok {
			if def.Extensions == nil {
				def.Extensions = make(map[string]any)
			}
			def.Extensions[k] = v
		}
	}
	return &def, nil
}

// applyDefaults fills declared defaults for absent optional fields. Step
// continueOnError already defaults to false through the zero value.
func applyDefaults(def *Definition) {
	if def.Policies == nil {
		def.Policies = &Policies{}
	}
	if def.Policies.Failure == "" {
		def.Policies.Failure = DefaultFailurePolicy
	}
	if def.Policies.Concurrency == 0 {
		def.Policies.Concurrency = DefaultConcurrency
	}
}

// ---- raw-tree helpers ----

func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func asList(v any) ([]any, bool) {
	l, ok := v.([]any)
	return l, ok
}

// asInt accepts the integer encodings produced by the YAML and JSON
// decoders, rejecting fractional floats.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		if n == math.Trunc(n) {
			return int(n), true
		}
		return 0, false
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	default:
		return 0, false
	}
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "bool"
	case int, int64, uint64, float64, json.Number:
		return "number"
	case map[string]any:
		return "object"
	case []any:
		return "list"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func contains(set []string, s string) bool {
	for _, e := range set {
		if e == s {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
