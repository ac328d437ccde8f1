package workflow

// Validate runs both validation layers over a raw decoded tree: TypeCheck
// (structure, shape, defaults) followed by RuleCheck (referential
// integrity). It returns the accepted, defaulted definition, or an error
// carrying every violation the failing layer found.
//
// Validate is a pure function over the input tree: no I/O, no shared state.
// It is safe to call concurrently on independent definitions, and calling it
// again on the raw form of an accepted definition yields the same result.
func Validate(raw map[string]any) (*Definition, error) {
	def, iss := TypeCheck(raw)
	if len(iss) > 0 {
		return nil, iss
	}
	if iss := RuleCheck(def); len(iss) > 0 {
		return nil, iss
	}
	return def, nil
}
