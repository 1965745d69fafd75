package filing

import (
	"fmt"

	"gstfiling/internal/domain"
)

// Comprehensive-check codes.
const (
	CodeDetailedReturnMissing     = "DETAILED_RETURN_MISSING"
	CodeDetailedReturnUnvalidated = "DETAILED_RETURN_UNVALIDATED"
	CodeDetailedReturnStale       = "DETAILED_RETURN_STALE"
	CodeSummaryReturnMissing      = "SUMMARY_RETURN_MISSING"
	CodeSummaryReturnUnvalidated  = "SUMMARY_RETURN_UNVALIDATED"
)

// Sections reported by ValidateComplete, in order.
var Sections = []domain.Section{
	domain.SectionProfile,
	domain.SectionPeriod,
	domain.SectionDetailedReturn,
	domain.SectionSummaryReturn,
	domain.SectionReconciliation,
}

// SectionStatus is the pass/fail of one section.
type SectionStatus struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

// ComprehensiveResult is the outcome of re-running every check on a filing.
type ComprehensiveResult struct {
	Valid    bool                             `json:"valid"`
	CanFile  bool                             `json:"can_file"`
	Errors   domain.ValidationErrors          `json:"errors"`
	Warnings domain.ValidationErrors          `json:"warnings"`
	Sections map[domain.Section]SectionStatus `json:"sections_status"`
	// Findings is every finding in section order.
	Findings domain.ValidationErrors `json:"-"`
}

// ValidateComplete independently re-runs the profile, period, detailed
// return, summary return and reconciliation checks. It never changes state.
func (m *Machine) ValidateComplete(f *domain.Filing, filed []string) ComprehensiveResult {
	res := ComprehensiveResult{
		Errors:   domain.ValidationErrors{},
		Warnings: domain.ValidationErrors{},
		Sections: make(map[domain.Section]SectionStatus, len(Sections)),
		Findings: domain.ValidationErrors{},
	}
	checks := map[domain.Section]func(*domain.Filing, []string) domain.ValidationErrors{
		domain.SectionProfile:        m.completeProfile,
		domain.SectionPeriod:         m.completePeriod,
		domain.SectionDetailedReturn: m.completeDetailed,
		domain.SectionSummaryReturn:  m.completeSummary,
		domain.SectionReconciliation: m.completeReconciliation,
	}

	allValid := true
	for _, sec := range Sections {
		found := checks[sec](f, filed)
		res.Findings = append(res.Findings, found...)
		st := SectionStatus{Valid: !found.HasBlocker()}
		if sec == domain.SectionReconciliation && (f.Detailed == nil || f.Summary == nil) {
			st.Valid = false
			st.Message = "Skipped: both returns are required"
		}
		if st.Message == "" {
			st.Message = sectionMessage(found)
		}
		allValid = allValid && st.Valid
		res.Sections[sec] = st
	}

	res.Errors = append(res.Errors, res.Findings.Blockers()...)
	res.Warnings = append(res.Warnings, res.Findings.Warnings()...)
	res.Warnings = append(res.Warnings, res.Findings.Infos()...)
	res.Valid = len(res.Errors) == 0
	res.CanFile = res.Valid && allValid
	return res
}

func sectionMessage(found domain.ValidationErrors) string {
	b := len(found.Blockers())
	w := len(found.Warnings())
	switch {
	case b > 0:
		return fmt.Sprintf("%d blocking issue(s), %d warning(s)", b, w)
	case w > 0:
		return fmt.Sprintf("Passed with %d warning(s)", w)
	}
	return "Passed"
}

func (m *Machine) completeProfile(f *domain.Filing, _ []string) domain.ValidationErrors {
	return m.engine.ValidateProfile(f.Profile).Errors
}

func (m *Machine) completePeriod(f *domain.Filing, filed []string) domain.ValidationErrors {
	return m.engine.ValidatePeriod(f.Period, filed)
}

// completeDetailed checks the frozen aggregate still matches the invoices.
func (m *Machine) completeDetailed(f *domain.Filing, _ []string) domain.ValidationErrors {
	errs := domain.ValidationErrors{}
	if f.Detailed == nil {
		return append(errs, detailedMissing())
	}
	if f.State.Before(domain.StateDetailedReturnValidated) {
		errs = append(errs, domain.NewBlocker(domain.SectionDetailedReturn, CodeDetailedReturnUnvalidated,
			"The detailed return has not been validated", "Validate the detailed return"))
	}
	errs = append(errs, m.invoiceFindings(f.Invoices)...)
	dr, aggErrs := m.engine.Aggregate(f.Invoices, f.DeclaredNil)
	errs = append(errs, aggErrs...)
	if dr != nil && !dr.Equal(f.Detailed) {
		errs = append(errs, domain.NewBlocker(domain.SectionDetailedReturn, CodeDetailedReturnStale,
			fmt.Sprintf("Invoices total %s taxable but the validated detailed return holds %s",
				dr.TaxableValue.StringFixed(2), f.Detailed.TaxableValue.StringFixed(2)),
			"Re-validate the detailed return"))
	}
	return errs
}

func (m *Machine) completeSummary(f *domain.Filing, _ []string) domain.ValidationErrors {
	errs := domain.ValidationErrors{}
	if f.Summary == nil {
		return append(errs, summaryMissing())
	}
	if f.State.Before(domain.StateSummaryValidated) {
		errs = append(errs, domain.NewBlocker(domain.SectionSummaryReturn, CodeSummaryReturnUnvalidated,
			"The summary return has not been validated", "Validate the summary return"))
	}
	errs = append(errs, m.engine.CheckNonNegativePayable(f.Summary)...)
	errs = append(errs, m.engine.CheckSummaryArithmetic(f.Summary)...)
	return append(errs, m.engine.CheckITCSanity(f.Summary)...)
}

func (m *Machine) completeReconciliation(f *domain.Filing, _ []string) domain.ValidationErrors {
	errs := domain.ValidationErrors{}
	errs = append(errs, m.engine.CheckGoldenRule(f.Detailed, f.Summary)...)
	return append(errs, m.engine.CheckTaxLiability(f.Detailed, f.Summary)...)
}

func detailedMissing() domain.ValidationError {
	return domain.NewBlocker(domain.SectionDetailedReturn, CodeDetailedReturnMissing,
		"No validated detailed return exists for this period", "Add invoices or declare nil, then validate the detailed return")
}

func summaryMissing() domain.ValidationError {
	return domain.NewBlocker(domain.SectionSummaryReturn, CodeSummaryReturnMissing,
		"No summary return has been generated", "Generate the summary return from the validated detailed return")
}

// missingReturns reports each absent return as a BLOCKER.
func missingReturns(f *domain.Filing) domain.ValidationErrors {
	var errs domain.ValidationErrors
	if f.Detailed == nil {
		errs = append(errs, detailedMissing())
	}
	if f.Summary == nil {
		errs = append(errs, summaryMissing())
	}
	return errs
}
