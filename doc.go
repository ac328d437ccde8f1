package orbyt

// Package orbyt provides:
//
// - A stable validation error model via Issues (dotted path, code, message)
// - A closed, versioned error taxonomy (code, component, category, severity,
//   retryable, exit code) shared by every tool at the process boundary
// - A permanent exit-code partition of a small integer space by category
// - Sensitive-key redaction applied to log attributes before emission
//
// Design policy:
// - Keep only public APIs in the root package; the workflow model and both
//   validation layers live under workflow/, the CLI under cmd/orbyt.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	def, err := workflow.Validate(ctx, raw)
//	if iss, ok := orbyt.AsIssues(err); ok {
//		// every violation from one layer, reported together
//	}
//
//	rep := orbyt.NewReport(err)
//	os.Exit(rep.ExitCode())
