package orbyt

import (
	"fmt"
	"strings"
)

// PathRef builds dotted paths into the input tree in a chain-safe way and
// creates Issues. Indexes render in bracket form: workflow.steps[2].needs[0].
type PathRef struct {
	parts []string
}

// Root returns the empty path (rendered as ".").
func Root() PathRef { return PathRef{} }

// At parses a dotted path into a PathRef.
func At(path string) PathRef {
	if path == "" || path == "." {
		return Root()
	}
	parts := []string{}
	for _, p := range strings.Split(path, ".") {
		if p == "" {
			continue
		}
		parts = append(parts, p)
	}
	return PathRef{parts: parts}
}

// Field appends a key segment.
func (p PathRef) Field(name string) PathRef {
	if name == "" {
		return p
	}
	return PathRef{parts: append(append([]string{}, p.parts...), name)}
}

// Index appends an array index to the last segment.
func (p PathRef) Index(i int) PathRef {
	if len(p.parts) == 0 {
		return PathRef{parts: []string{fmt.Sprintf("[%d]", i)}}
	}
	parts := append([]string{}, p.parts...)
	parts[len(parts)-1] = fmt.Sprintf("%s[%d]", parts[len(parts)-1], i)
	return PathRef{parts: parts}
}

// String renders the dotted path. The root path renders as ".".
func (p PathRef) String() string {
	if len(p.parts) == 0 {
		return "."
	}
	return strings.Join(p.parts, ".")
}

// Issue creates an Issue at this path. Extra kv pairs populate Params.
func (p PathRef) Issue(code, msg string, kv ...any) Issue {
	it := Issue{Path: p.String(), Code: code, Message: msg}
	if len(kv) >= 2 {
		params := make(map[string]any, len(kv)/2)
		for i := 0; i+1 < len(kv); i += 2 {
			k, ok := kv[i].(string)
			if !ok {
				continue
			}
			params[k] = kv[i+1]
		}
		if len(params) > 0 {
			it.Params = params
		}
	}
	return it
}
