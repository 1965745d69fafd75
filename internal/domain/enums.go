package domain

// Severity grades a ValidationError. Only BLOCKER prevents a state transition.
type Severity string

const (
	SeverityBlocker Severity = "BLOCKER"
	SeverityWarning Severity = "WARNING"
	SeverityInfo    Severity = "INFO"
)

// Section names the entity a ValidationError concerns.
type Section string

const (
	SectionProfile        Section = "profile"
	SectionPeriod         Section = "period"
	SectionInvoice        Section = "invoice"
	SectionDetailedReturn Section = "detailed_return"
	SectionSummaryReturn  Section = "summary_return"
	SectionReconciliation Section = "reconciliation"
	SectionITC            Section = "itc"
	SectionPurchases      Section = "purchases"
	SectionFiling         Section = "filing"
)

// Category classifies an outward-supply invoice.
type Category string

const (
	CategoryB2B      Category = "B2B"
	CategoryB2CLarge Category = "B2CL"
	CategoryB2CSmall Category = "B2CS"
)

// Categories lists every category in reporting order.
func Categories() []Category {
	return []Category{CategoryB2B, CategoryB2CLarge, CategoryB2CSmall}
}

// SupplyScope tells whether a supply stays within one state or crosses states.
type SupplyScope string

const (
	ScopeIntra SupplyScope = "intra"
	ScopeInter SupplyScope = "inter"
)

// Valid reports whether s is a known supply scope.
func (s SupplyScope) Valid() bool {
	switch s {
	case ScopeIntra, ScopeInter:
		return true
	}
	return false
}

// RegistrationCategory is the filer's registration scheme.
type RegistrationCategory string

const (
	RegistrationRegular     RegistrationCategory = "regular"
	RegistrationComposition RegistrationCategory = "composition"
	RegistrationQRMP        RegistrationCategory = "quarterly_scheme"
)

// Valid reports whether r is a known registration category.
func (r RegistrationCategory) Valid() bool {
	switch r {
	case RegistrationRegular, RegistrationComposition, RegistrationQRMP:
		return true
	}
	return false
}

// FilingFrequency is how often the filer files returns.
type FilingFrequency string

const (
	FrequencyMonthly   FilingFrequency = "monthly"
	FrequencyQuarterly FilingFrequency = "quarterly"
)

// Valid reports whether f is a known filing frequency.
func (f FilingFrequency) Valid() bool {
	switch f {
	case FrequencyMonthly, FrequencyQuarterly:
		return true
	}
	return false
}

// FilingState is a stage in the lifecycle of one (filer, period) filing.
type FilingState string

const (
	StateProfileIncomplete       FilingState = "profile_incomplete"
	StateProfileComplete         FilingState = "profile_complete"
	StateDetailedReturnEditing   FilingState = "detailed_return_editing"
	StateDetailedReturnValidated FilingState = "detailed_return_validated"
	StateSummaryDraft            FilingState = "summary_draft"
	StateSummaryValidated        FilingState = "summary_validated"
	StateReadyToExport           FilingState = "ready_to_export"
	StateExported                FilingState = "exported"
	StateFiled                   FilingState = "filed"
)

var stateRank = map[FilingState]int{
	StateProfileIncomplete:       0,
	StateProfileComplete:         1,
	StateDetailedReturnEditing:   2,
	StateDetailedReturnValidated: 3,
	StateSummaryDraft:            4,
	StateSummaryValidated:        5,
	StateReadyToExport:           6,
	StateExported:                7,
	StateFiled:                   8,
}

// Valid reports whether s is a known filing state.
func (s FilingState) Valid() bool {
	_, ok := stateRank[s]
	return ok
}

// Rank orders states along the forward lifecycle. Unknown states rank -1.
func (s FilingState) Rank() int {
	if r, ok := stateRank[s]; ok {
		return r
	}
	return -1
}

// Before reports whether s comes strictly before o in the lifecycle.
func (s FilingState) Before(o FilingState) bool {
	return s.Rank() < o.Rank()
}

// AtLeast reports whether s has reached o.
func (s FilingState) AtLeast(o FilingState) bool {
	return s.Rank() >= o.Rank()
}

// PeriodStatus is the status of a filing period.
type PeriodStatus string

const (
	PeriodOpen       PeriodStatus = "open"
	PeriodValidated  PeriodStatus = "validated"
	PeriodFiled      PeriodStatus = "filed"
	PeriodTimeBarred PeriodStatus = "time_barred"
	PeriodFuture     PeriodStatus = "future"
)

// ReturnType distinguishes the detailed outward-supply return from the summary return.
type ReturnType string

const (
	ReturnDetailed ReturnType = "GSTR1"
	ReturnSummary  ReturnType = "GSTR3B"
)
