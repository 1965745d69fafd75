package domain

// ValidationError is one finding produced by a validator.
type ValidationError struct {
	Code     string   `json:"code"`
	Section  Section  `json:"section"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	FixHint  string   `json:"fix_hint"`
	Field    string   `json:"field,omitempty"`
}

// NewBlocker builds a BLOCKER finding.
func NewBlocker(section Section, code, message, fixHint string) ValidationError {
	return ValidationError{Code: code, Section: section, Severity: SeverityBlocker, Message: message, FixHint: fixHint}
}

// NewWarning builds a WARNING finding.
func NewWarning(section Section, code, message, fixHint string) ValidationError {
	return ValidationError{Code: code, Section: section, Severity: SeverityWarning, Message: message, FixHint: fixHint}
}

// NewInfo builds an INFO finding.
func NewInfo(section Section, code, message, fixHint string) ValidationError {
	return ValidationError{Code: code, Section: section, Severity: SeverityInfo, Message: message, FixHint: fixHint}
}

// On returns a copy of e that references field.
func (e ValidationError) On(field string) ValidationError {
	e.Field = field
	return e
}

// IsBlocker reports whether e prevents a transition.
func (e ValidationError) IsBlocker() bool { return e.Severity == SeverityBlocker }

// ValidationErrors is an ordered list of findings.
type ValidationErrors []ValidationError

// HasBlocker reports whether any finding is a BLOCKER.
func (v ValidationErrors) HasBlocker() bool {
	for i := range v {
		if v[i].IsBlocker() {
			return true
		}
	}
	return false
}

// Blockers returns the BLOCKER findings in order.
func (v ValidationErrors) Blockers() ValidationErrors { return v.bySeverity(SeverityBlocker) }

// Warnings returns the WARNING findings in order.
func (v ValidationErrors) Warnings() ValidationErrors { return v.bySeverity(SeverityWarning) }

// Infos returns the INFO findings in order.
func (v ValidationErrors) Infos() ValidationErrors { return v.bySeverity(SeverityInfo) }

// Codes lists the codes of every finding, in order.
func (v ValidationErrors) Codes() []string {
	codes := make([]string, len(v))
	for i := range v {
		codes[i] = v[i].Code
	}
	return codes
}

func (v ValidationErrors) bySeverity(s Severity) ValidationErrors {
	out := ValidationErrors{}
	for i := range v {
		if v[i].Severity == s {
			out = append(out, v[i])
		}
	}
	return out
}
