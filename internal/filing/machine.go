// Package filing sequences the gst engine into the lifecycle of one
// (filer, period) return: profile, invoices, detailed return, summary return,
// preview, export and filing.
//
// Every operation takes the current Filing, works on a clone and returns an
// Outcome. Nothing here persists or locks; callers serialize mutations per
// (GSTIN, period) and store Outcome.Filing atomically.
package filing

import (
	"fmt"

	"gstfiling/internal/domain"
	"gstfiling/internal/gst"
)

// Operation is one lifecycle transition.
type Operation string

const (
	OpValidateProfile        Operation = "validate_profile"
	OpAddInvoice             Operation = "add_invoice"
	OpDeleteInvoice          Operation = "delete_invoice"
	OpSetNilDeclaration      Operation = "set_nil_declaration"
	OpValidateDetailedReturn Operation = "validate_detailed_return"
	OpGenerateSummaryReturn  Operation = "generate_summary_return"
	OpValidateSummaryReturn  Operation = "validate_summary_return"
	OpPreparePreview         Operation = "prepare_preview"
	OpExport                 Operation = "export"
	OpValidateComplete       Operation = "validate_complete"
	OpMarkFiled              Operation = "mark_filed"
)

// CodeIllegalTransition is reported when an operation is not allowed from
// the filing's current state.
const CodeIllegalTransition = "ILLEGAL_TRANSITION"

// stay marks a transition that keeps the current state.
const stay domain.FilingState = ""

// transitions enumerates state × operation → next state. A missing entry is
// an illegal transition.
var transitions = map[Operation]map[domain.FilingState]domain.FilingState{
	OpValidateProfile: {
		domain.StateProfileIncomplete:       domain.StateProfileComplete,
		domain.StateProfileComplete:         stay,
		domain.StateDetailedReturnEditing:   stay,
		domain.StateDetailedReturnValidated: stay,
		domain.StateSummaryDraft:            stay,
		domain.StateSummaryValidated:        stay,
		domain.StateReadyToExport:           stay,
		domain.StateExported:                stay,
	},
	OpAddInvoice: {
		domain.StateProfileComplete:       domain.StateDetailedReturnEditing,
		domain.StateDetailedReturnEditing: domain.StateDetailedReturnEditing,
	},
	OpDeleteInvoice: {
		domain.StateDetailedReturnEditing: domain.StateDetailedReturnEditing,
	},
	OpSetNilDeclaration: {
		domain.StateProfileComplete:       domain.StateDetailedReturnEditing,
		domain.StateDetailedReturnEditing: domain.StateDetailedReturnEditing,
	},
	OpValidateDetailedReturn: {
		domain.StateProfileComplete:         domain.StateDetailedReturnValidated,
		domain.StateDetailedReturnEditing:   domain.StateDetailedReturnValidated,
		domain.StateDetailedReturnValidated: domain.StateDetailedReturnValidated,
	},
	OpGenerateSummaryReturn: {
		domain.StateDetailedReturnValidated: domain.StateSummaryDraft,
		domain.StateSummaryDraft:            domain.StateSummaryDraft,
	},
	OpValidateSummaryReturn: {
		domain.StateSummaryDraft:     domain.StateSummaryValidated,
		domain.StateSummaryValidated: domain.StateSummaryValidated,
	},
	OpPreparePreview: {
		domain.StateSummaryValidated: domain.StateReadyToExport,
		domain.StateReadyToExport:    domain.StateReadyToExport,
	},
	OpExport: {
		domain.StateReadyToExport: domain.StateExported,
		domain.StateExported:      domain.StateExported,
	},
	OpMarkFiled: {
		domain.StateSummaryValidated: domain.StateFiled,
		domain.StateReadyToExport:    domain.StateFiled,
		domain.StateExported:         domain.StateFiled,
	},
}

// Next returns the state op leads to from s, and whether op is allowed at all.
func Next(s domain.FilingState, op Operation) (domain.FilingState, bool) {
	if op == OpValidateComplete {
		return s, s.Valid()
	}
	next, ok := transitions[op][s]
	if !ok {
		return s, false
	}
	if next == stay {
		return s, true
	}
	return next, true
}

// Allowed lists the operations permitted from s.
func Allowed(s domain.FilingState) []Operation {
	ops := []Operation{
		OpValidateProfile, OpAddInvoice, OpDeleteInvoice, OpSetNilDeclaration,
		OpValidateDetailedReturn, OpGenerateSummaryReturn, OpValidateSummaryReturn,
		OpPreparePreview, OpExport, OpValidateComplete, OpMarkFiled,
	}
	out := make([]Operation, 0, len(ops))
	for _, op := range ops {
		if _, ok := Next(s, op); ok {
			out = append(out, op)
		}
	}
	return out
}

// editingState maps a failing section to the editing state of its stage.
func editingState(s domain.Section) (domain.FilingState, bool) {
	switch s {
	case domain.SectionProfile:
		return domain.StateProfileIncomplete, true
	case domain.SectionInvoice, domain.SectionDetailedReturn:
		return domain.StateDetailedReturnEditing, true
	case domain.SectionSummaryReturn, domain.SectionReconciliation, domain.SectionITC:
		return domain.StateSummaryDraft, true
	}
	return "", false
}

// regress returns min(prior, editing state of every failing stage). A
// rejected operation never moves the filing forward.
func regress(prior domain.FilingState, errs domain.ValidationErrors) domain.FilingState {
	next := prior
	for _, e := range errs.Blockers() {
		if s, ok := editingState(e.Section); ok && s.Before(next) {
			next = s
		}
	}
	return next
}

// Outcome is the result of one operation. Filing is a modified copy; the
// input filing is never touched.
type Outcome struct {
	Filing   *domain.Filing          `json:"filing"`
	Op       Operation               `json:"operation"`
	Accepted bool                    `json:"accepted"`
	Errors   domain.ValidationErrors `json:"errors"`
	From     domain.FilingState      `json:"from"`
	To       domain.FilingState      `json:"to"`
	Category domain.Category         `json:"category,omitempty"`
}

// Regressed reports whether a rejected operation moved the filing back.
func (o Outcome) Regressed() bool { return !o.Accepted && o.To != o.From }

// Machine runs lifecycle operations against a gst.Engine.
type Machine struct {
	engine *gst.Engine
}

// NewMachine creates a Machine. A nil engine uses the default tax table.
func NewMachine(engine *gst.Engine) *Machine {
	if engine == nil {
		engine = gst.NewEngine(nil, gst.Options{})
	}
	return &Machine{engine: engine}
}

// Engine returns the underlying engine.
func (m *Machine) Engine() *gst.Engine { return m.engine }

// begin clones f and checks op is allowed. ok is false when the transition
// is illegal, in which case the returned Outcome is final.
func (m *Machine) begin(f *domain.Filing, op Operation) (Outcome, domain.FilingState, bool) {
	out := Outcome{Filing: f.Clone(), Op: op, From: f.State, To: f.State, Errors: domain.ValidationErrors{}}
	next, ok := Next(f.State, op)
	if !ok {
		out.Errors = append(out.Errors, illegal(f.State, op))
		return out, f.State, false
	}
	return out, next, true
}

func illegal(s domain.FilingState, op Operation) domain.ValidationError {
	return domain.NewBlocker(domain.SectionFiling, CodeIllegalTransition,
		fmt.Sprintf("Operation %s is not allowed while the filing is %s", op, s),
		fmt.Sprintf("Allowed from %s: %v", s, Allowed(s)))
}

// finish settles the outcome: accepted operations move to next, rejected
// ones discard their changes and only record a regression.
func (m *Machine) finish(orig *domain.Filing, out Outcome, next domain.FilingState, errs domain.ValidationErrors) Outcome {
	out.Errors = append(out.Errors, errs...)
	if out.Errors.HasBlocker() {
		out.Accepted = false
		out.Filing = orig.Clone()
		out.To = regress(orig.State, out.Errors)
		out.Filing.State = out.To
		return out
	}
	out.Accepted = true
	out.Filing.State = next
	out.To = next
	out.Filing.UpdatedAt = m.engine.Now().UTC()
	return out
}
