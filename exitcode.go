package orbyt

// ExitSuccess is the exit code of a run with no unresolved error.
const ExitSuccess = 0

// ExitRange is a half of the permanent partition of the exit-code space.
type ExitRange struct {
	Lo, Hi int
}

// Contains reports whether code falls inside the range.
func (r ExitRange) Contains(code int) bool { return code >= r.Lo && code <= r.Hi }

// exitRanges partitions the exit-code space by category. The partition is
// append-only: ranges are never resized, reassigned, or reused.
var exitRanges = map[Category]ExitRange{
	CategoryUser:      {100, 199},
	CategoryConfig:    {200, 299},
	CategoryExecution: {300, 399},
	CategorySecurity:  {400, 499},
	CategoryInternal:  {500, 599},
	CategorySystem:    {600, 699},
}

// RangeFor returns the exit-code range owned by a category.
func RangeFor(c Category) (ExitRange, bool) {
	r, ok := exitRanges[c]
	return r, ok
}

// issueKind maps each Issue code raised by the validation layers to its
// taxonomy entry. Structural codes collapse to the schema-violation kind;
// referential codes carry their own kinds.
var issueKind = map[string]string{
	CodeInvalidType:   KindSchemaViolation,
	CodeRequired:      KindSchemaViolation,
	CodeUnknownKey:    KindSchemaViolation,
	CodePattern:       KindSchemaViolation,
	CodeInvalidEnum:   KindSchemaViolation,
	CodeInvalidFormat: KindSchemaViolation,
	CodeEmpty:         KindSchemaViolation,
	CodeParseError:    KindSchemaViolation,

	CodeDuplicateID:       KindDuplicateStepID,
	CodeUnknownReference:  KindUnknownStepRef,
	CodeCircularReference: KindCircularDependency,
	CodeMissingSchedule:   KindInvalidTrigger,
	CodeInvalidSchedule:   KindInvalidTrigger,
}

// KindForIssue resolves the taxonomy entry for a validation issue. Issue
// codes outside the known set map to the unhandled kind.
func KindForIssue(it Issue) Kind {
	if code, ok := issueKind[it.Code]; ok {
		return kindByCode[code]
	}
	return kindByCode[KindUnhandled]
}

// Report collects every taxonomy error of one run and resolves the single
// exit code a process boundary may report.
type Report struct {
	Errors []*Error `json:"errors,omitempty"`
}

// NewReport builds a Report from any error shape: nil yields an empty
// report, Issues fan out one taxonomy error per issue, anything else is
// wrapped through the taxonomy boundary.
func NewReport(err error) *Report {
	rep := &Report{}
	rep.Add(err)
	return rep
}

// Add appends an error to the report. Issues fan out one taxonomy error per
// issue; anything not already a taxonomy member is wrapped.
func (r *Report) Add(err error) {
	if err == nil {
		return
	}
	if iss, ok := AsIssues(err); ok {
		for _, it := range iss {
			k := KindForIssue(it)
			e := NewError(k.Code, it.Message).WithContext(map[string]any{"path": it.Path, "issue": it.Code})
			if it.Cause != nil {
				e = e.WithCause(it.Cause)
			}
			r.Errors = append(r.Errors, e)
		}
		return
	}
	r.Errors = append(r.Errors, Wrap(err))
}

// OK reports whether the run finished without any unresolved error.
func (r *Report) OK() bool { return len(r.Errors) == 0 }

// Highest returns the highest-severity unresolved error, or nil when the
// report is clean. Ties keep the earliest error so output stays stable.
func (r *Report) Highest() *Error {
	var top *Error
	for _, e := range r.Errors {
		if top == nil || e.Kind.Severity.Rank() > top.Kind.Severity.Rank() {
			top = e
		}
	}
	return top
}

// ExitCode resolves the one exit code for this run: ExitSuccess on a clean
// report, otherwise the code of the highest-severity error. A report with
// errors never maps to ExitSuccess.
func (r *Report) ExitCode() int {
	top := r.Highest()
	if top == nil {
		return ExitSuccess
	}
	return top.Kind.ExitCode
}
