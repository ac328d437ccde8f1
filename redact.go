package orbyt

import "strings"

// RedactedPlaceholder replaces any value stored under a sensitive key.
const RedactedPlaceholder = "[REDACTED]"

// sensitiveKeys are matched case-insensitively as substrings of a key name.
var sensitiveKeys = []string{
	"password",
	"secret",
	"token",
	"apikey",
	"accesstoken",
	"privatekey",
	"creditcard",
	"ssn",
}

// SensitiveKey reports whether a key name should have its value redacted.
func SensitiveKey(name string) bool {
	lower := strings.ToLower(name)
	for _, s := range sensitiveKeys {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// Redact returns a copy of m with every value under a sensitive key replaced
// by RedactedPlaceholder, applied recursively through nested maps and map
// elements of slices. The input map is never mutated.
func Redact(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if SensitiveKey(k) {
			out[k] = RedactedPlaceholder
			continue
		}
		out[k] = redactValue(v)
	}
	return out
}

func redactValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return Redact(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = redactValue(e)
		}
		return out
	default:
		return v
	}
}
