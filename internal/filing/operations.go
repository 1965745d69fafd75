package filing

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"gstfiling/internal/domain"
	"gstfiling/internal/gst"
)

// CodeInvoiceNotFound is reported when deleting an invoice the filing does not hold.
const CodeInvoiceNotFound = "INVOICE_NOT_FOUND"

func (m *Machine) now() time.Time { return m.engine.Now().UTC() }

// ValidateProfile checks p and attaches it to the filing.
func (m *Machine) ValidateProfile(f *domain.Filing, p *domain.Profile) Outcome {
	out, next, ok := m.begin(f, OpValidateProfile)
	if !ok {
		return out
	}
	res := m.engine.ValidateProfile(p)
	if res.Complete {
		cp := *p
		cp.Complete = true
		out.Filing.Profile = &cp
	}
	return m.finish(f, out, next, res.Errors)
}

// AddInvoice validates inv against the filing and appends it. The invoice
// inherits the filing's GSTIN and period.
func (m *Machine) AddInvoice(f *domain.Filing, inv domain.Invoice) Outcome {
	out, next, ok := m.begin(f, OpAddInvoice)
	if !ok {
		return out
	}
	inv.FilingID = f.ID
	inv.FilerGSTIN = f.GSTIN
	inv.Period = f.Period
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}

	res := m.engine.ValidateInvoice(&inv)
	out.Category = res.Category
	inv.Category = res.Category
	errs := res.Errors
	errs = append(errs, m.engine.CheckDuplicate(&inv, f.Invoices)...)
	if !errs.HasBlocker() {
		inv.CreatedAt = m.now()
		out.Filing.Invoices = append(out.Filing.Invoices, inv)
		resetDetailed(out.Filing)
	}
	return m.finish(f, out, next, errs)
}

// DeleteInvoice removes the invoice with the given number (case-insensitive).
func (m *Machine) DeleteInvoice(f *domain.Filing, number string) Outcome {
	out, next, ok := m.begin(f, OpDeleteInvoice)
	if !ok {
		return out
	}
	want := strings.ToUpper(strings.TrimSpace(number))
	kept := out.Filing.Invoices[:0]
	found := false
	for _, inv := range out.Filing.Invoices {
		if !found && strings.ToUpper(strings.TrimSpace(inv.Number)) == want {
			found = true
			continue
		}
		kept = append(kept, inv)
	}
	if !found {
		return m.finish(f, out, next, domain.ValidationErrors{domain.NewBlocker(domain.SectionInvoice, CodeInvoiceNotFound,
			fmt.Sprintf("Invoice %s is not part of %s", number, f.Period),
			"Check the invoice number").On("invoice_number")})
	}
	out.Filing.Invoices = kept
	resetDetailed(out.Filing)
	return m.finish(f, out, next, nil)
}

// SetNilDeclaration records whether the filer declares a nil return.
func (m *Machine) SetNilDeclaration(f *domain.Filing, isNil bool) Outcome {
	out, next, ok := m.begin(f, OpSetNilDeclaration)
	if !ok {
		return out
	}
	out.Filing.DeclaredNil = isNil
	resetDetailed(out.Filing)
	return m.finish(f, out, next, nil)
}

// resetDetailed drops derived returns after the invoice set changed.
func resetDetailed(f *domain.Filing) {
	f.Detailed = nil
	f.Summary = nil
	f.ValidatedAt = nil
	if f.PeriodStatus == domain.PeriodValidated {
		f.PeriodStatus = domain.PeriodOpen
	}
}

// ValidateDetailedReturn re-validates every invoice, checks for duplicates
// and freezes the period aggregate.
func (m *Machine) ValidateDetailedReturn(f *domain.Filing) Outcome {
	out, next, ok := m.begin(f, OpValidateDetailedReturn)
	if !ok {
		return out
	}
	g := out.Filing
	errs := m.invoiceFindings(g.Invoices)
	dr, aggErrs := m.engine.Aggregate(g.Invoices, g.DeclaredNil)
	errs = append(errs, aggErrs...)
	if !errs.HasBlocker() {
		now := m.now()
		g.Detailed = dr
		g.Summary = nil
		g.ValidatedAt = &now
		g.PeriodStatus = domain.PeriodValidated
	}
	return m.finish(f, out, next, errs)
}

func (m *Machine) invoiceFindings(invoices []domain.Invoice) domain.ValidationErrors {
	errs := domain.ValidationErrors{}
	for i := range invoices {
		errs = append(errs, m.engine.ValidateInvoice(&invoices[i]).Errors...)
	}
	return append(errs, m.engine.FindDuplicates(invoices)...)
}

// GenerateSummaryReturn derives the summary return from the frozen detailed
// return and the period's ITC figures.
func (m *Machine) GenerateSummaryReturn(f *domain.Filing, itc domain.ITCInput) Outcome {
	out, next, ok := m.begin(f, OpGenerateSummaryReturn)
	if !ok {
		if f.State.Before(domain.StateDetailedReturnValidated) {
			_, errs := m.engine.SummaryFromDetailed(nil, false, itc)
			out.Errors = errs
		}
		return out
	}
	sr, errs := m.engine.SummaryFromDetailed(out.Filing.Detailed, out.Filing.Detailed != nil, itc)
	if !errs.HasBlocker() {
		out.Filing.Summary = sr
		out.Filing.ITC = itc
	}
	return m.finish(f, out, next, errs)
}

// ValidateSummaryReturn reconciles the summary return against the detailed
// return. A non-nil submitted return replaces the draft first.
func (m *Machine) ValidateSummaryReturn(f *domain.Filing, submitted *domain.SummaryReturn) Outcome {
	out, next, ok := m.begin(f, OpValidateSummaryReturn)
	if !ok {
		return out
	}
	if submitted != nil {
		cp := *submitted
		out.Filing.Summary = &cp
	}
	if out.Filing.Summary == nil {
		return m.finish(f, out, next, missingReturns(out.Filing))
	}
	return m.finish(f, out, next, m.engine.Reconcile(out.Filing.Detailed, out.Filing.Summary))
}

// Preview is what the filer reviews before export.
type Preview struct {
	GSTIN           string                  `json:"gstin"`
	Period          string                  `json:"period"`
	PeriodStatus    gst.PeriodInfo          `json:"period_status"`
	DetailedReturn  *domain.DetailedReturn  `json:"detailed_return"`
	SummaryReturn   *domain.SummaryReturn   `json:"summary_return"`
	LateFees        []gst.LateFeeResult     `json:"late_fees"`
	LateFeeTotal    decimal.Decimal         `json:"late_fee_total"`
	Interest        decimal.Decimal         `json:"interest"`
	TotalTaxPayable decimal.Decimal         `json:"total_tax_payable"`
	TotalAmountDue  decimal.Decimal         `json:"total_amount_due"`
	Warnings        domain.ValidationErrors `json:"warnings"`
}

// PreparePreview computes period status, late fees and interest as of now
// and moves the filing to ready_to_export.
func (m *Machine) PreparePreview(f *domain.Filing, filed []string) (Outcome, *Preview) {
	out, next, ok := m.begin(f, OpPreparePreview)
	if !ok {
		return out, nil
	}
	errs := m.engine.ValidatePeriod(f.Period, filed)
	info, err := m.engine.PeriodStatus(f.Period, filed)
	if err != nil || errs.HasBlocker() {
		return m.finish(f, out, next, errs), nil
	}
	if info.IsTimeBarred {
		errs = append(errs, domain.NewWarning(domain.SectionPeriod, gst.CodePeriodTimeBarred,
			fmt.Sprintf("Period %s is %d months old and past the correction window", info.Period, info.MonthsElapsed),
			"File immediately; late fees and interest keep accruing").On("period"))
	}
	errs = append(errs, m.engine.Reconcile(f.Detailed, f.Summary)...)
	errs = append(errs, missingReturns(f)...)
	out = m.finish(f, out, next, errs)
	if !out.Accepted {
		return out, nil
	}

	p, _ := gst.ParsePeriod(f.Period)
	now := m.now()
	isNil := f.Detailed != nil && f.Detailed.IsNil
	fees := []gst.LateFeeResult{
		m.engine.LateFee(p, domain.ReturnDetailed, isNil, now),
		m.engine.LateFee(p, domain.ReturnSummary, isNil, now),
	}
	feeTotal := fees[0].Amount.Add(fees[1].Amount)
	interest := m.engine.Interest(f.Summary.TotalPayable, fees[1].DaysLate)
	due := f.Summary.TotalPayable.Add(feeTotal).Add(interest)

	return out, &Preview{
		GSTIN:           f.GSTIN,
		Period:          info.Period,
		PeriodStatus:    info,
		DetailedReturn:  out.Filing.Detailed,
		SummaryReturn:   out.Filing.Summary,
		LateFees:        fees,
		LateFeeTotal:    feeTotal,
		Interest:        interest,
		TotalTaxPayable: f.Summary.TotalPayable,
		TotalAmountDue:  due,
		Warnings:        out.Errors,
	}
}

// ExportBundle holds both interchange payloads. Archived lists the copies
// kept in object storage, when archiving is configured.
type ExportBundle struct {
	Detailed *gst.DetailedPayload `json:"detailed_return"`
	Summary  *gst.SummaryPayload  `json:"summary_return"`
	Archived []ArchivedObject     `json:"archived,omitempty"`
}

// ArchivedObject is one stored export artifact.
type ArchivedObject struct {
	Key string `json:"key"`
	URL string `json:"url,omitempty"`
}

// Export re-runs reconciliation and, when clean, produces the payloads.
func (m *Machine) Export(f *domain.Filing) (Outcome, *ExportBundle) {
	out, next, ok := m.begin(f, OpExport)
	if !ok {
		return out, nil
	}
	p, err := gst.ParsePeriod(f.Period)
	if err != nil {
		return m.finish(f, out, next, m.engine.ValidatePeriod(f.Period, nil)), nil
	}
	errs := m.engine.Reconcile(f.Detailed, f.Summary)
	errs = append(errs, missingReturns(f)...)
	out = m.finish(f, out, next, errs)
	if !out.Accepted {
		return out, nil
	}
	now := m.now()
	out.Filing.ExportedAt = &now
	return out, &ExportBundle{
		Detailed: m.engine.DetailedPayload(f.GSTIN, p, f.Invoices),
		Summary:  m.engine.SummaryPayload(f.GSTIN, p, f.Summary),
	}
}

// MarkFiled re-runs the comprehensive check and freezes the period when it
// passes. A refusal carries the findings of ValidateComplete, plus the
// illegal transition when the state does not allow filing.
func (m *Machine) MarkFiled(f *domain.Filing, filed []string) (Outcome, ComprehensiveResult) {
	res := m.ValidateComplete(f, filed)
	out, next, ok := m.begin(f, OpMarkFiled)
	if !ok {
		res.Findings = append(res.Findings, out.Errors...)
		res.Errors = append(res.Errors, out.Errors...)
		res.Valid = false
		res.CanFile = false
		out.Errors = res.Findings
		return out, res
	}
	if !res.CanFile {
		out.Errors = res.Findings
		out.To = regress(f.State, res.Findings)
		out.Filing.State = out.To
		return out, res
	}
	out = m.finish(f, out, next, res.Findings)
	now := m.now()
	out.Filing.PeriodStatus = domain.PeriodFiled
	out.Filing.FiledAt = &now
	return out, res
}
