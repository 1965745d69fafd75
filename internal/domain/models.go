package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Profile is a filer's registration identity.
type Profile struct {
	ID                   uuid.UUID            `db:"id" json:"id"`
	GSTIN                string               `db:"gstin" json:"gstin"`
	LegalName            string               `db:"legal_name" json:"legal_name"`
	TradeName            string               `db:"trade_name" json:"trade_name,omitempty"`
	RegistrationCategory RegistrationCategory `db:"registration_category" json:"registration_category"`
	FilingFrequency      FilingFrequency      `db:"filing_frequency" json:"filing_frequency"`
	Complete             bool                 `db:"is_complete" json:"is_complete"`
	CreatedAt            time.Time            `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time            `db:"updated_at" json:"updated_at"`
}

// StateCode returns the two-digit jurisdiction prefix of the GSTIN, or "".
func (p *Profile) StateCode() string {
	if len(p.GSTIN) < 2 {
		return ""
	}
	return p.GSTIN[:2]
}

// Invoice is one outward-supply invoice attached to a filing period.
type Invoice struct {
	ID                uuid.UUID       `db:"id" json:"id"`
	FilingID          uuid.UUID       `db:"filing_id" json:"filing_id"`
	FilerGSTIN        string          `db:"filer_gstin" json:"filer_gstin"`
	Period            string          `db:"period" json:"period"`
	Number            string          `db:"invoice_number" json:"invoice_number"`
	Date              string          `db:"invoice_date" json:"invoice_date"`
	Scope             SupplyScope     `db:"supply_scope" json:"supply_scope"`
	CounterpartyGSTIN string          `db:"counterparty_gstin" json:"counterparty_gstin,omitempty"`
	CounterpartyName  string          `db:"counterparty_name" json:"counterparty_name,omitempty"`
	PlaceOfSupply     string          `db:"place_of_supply" json:"place_of_supply"`
	TaxableValue      decimal.Decimal `db:"taxable_value" json:"taxable_value"`
	Rate              decimal.Decimal `db:"rate" json:"rate"`
	TaxA              decimal.Decimal `db:"tax_a" json:"tax_a"`
	TaxB              decimal.Decimal `db:"tax_b" json:"tax_b"`
	TaxC              decimal.Decimal `db:"tax_c" json:"tax_c"`
	TotalValue        decimal.Decimal `db:"total_value" json:"total_value"`
	Category          Category        `db:"category" json:"category"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
}

// Tax returns the sum of the three tax components.
func (i *Invoice) Tax() decimal.Decimal {
	return i.TaxA.Add(i.TaxB).Add(i.TaxC)
}

// DetailedReturn is the frozen aggregate of a period's outward supplies.
type DetailedReturn struct {
	TaxableValue decimal.Decimal `json:"taxable_value"`
	TaxA         decimal.Decimal `json:"tax_a"`
	TaxB         decimal.Decimal `json:"tax_b"`
	TaxC         decimal.Decimal `json:"tax_c"`
	InvoiceCount int             `json:"invoice_count"`
	IsNil        bool            `json:"is_nil"`

	B2BCount    int             `json:"b2b_count"`
	B2CLCount   int             `json:"b2cl_count"`
	B2CSCount   int             `json:"b2cs_count"`
	B2BTaxable  decimal.Decimal `json:"b2b_taxable"`
	B2CLTaxable decimal.Decimal `json:"b2cl_taxable"`
	B2CSTaxable decimal.Decimal `json:"b2cs_taxable"`
}

// TotalTax returns tax A + tax B + tax C.
func (d *DetailedReturn) TotalTax() decimal.Decimal {
	return d.TaxA.Add(d.TaxB).Add(d.TaxC)
}

// Equal compares two aggregates figure by figure.
func (d *DetailedReturn) Equal(o *DetailedReturn) bool {
	if d == nil || o == nil {
		return d == o
	}
	return d.TaxableValue.Equal(o.TaxableValue) &&
		d.TaxA.Equal(o.TaxA) && d.TaxB.Equal(o.TaxB) && d.TaxC.Equal(o.TaxC) &&
		d.InvoiceCount == o.InvoiceCount && d.IsNil == o.IsNil &&
		d.B2BCount == o.B2BCount && d.B2CLCount == o.B2CLCount && d.B2CSCount == o.B2CSCount &&
		d.B2BTaxable.Equal(o.B2BTaxable) && d.B2CLTaxable.Equal(o.B2CLTaxable) && d.B2CSTaxable.Equal(o.B2CSTaxable)
}

// ITCInput carries the raw input-tax-credit figures for a period.
type ITCInput struct {
	Total    decimal.Decimal `json:"total_itc"`
	Blocked  decimal.Decimal `json:"blocked_itc"`
	Reversed decimal.Decimal `json:"reversed_itc"`
	Scope    SupplyScope     `json:"scope"`
}

// SummaryReturn is the net-liability return derived from a validated DetailedReturn.
type SummaryReturn struct {
	OutwardTaxableValue decimal.Decimal `json:"outward_taxable_value"`
	OutwardTaxLiability decimal.Decimal `json:"outward_tax_liability"`
	LiabilityA          decimal.Decimal `json:"liability_a"`
	LiabilityB          decimal.Decimal `json:"liability_b"`
	LiabilityC          decimal.Decimal `json:"liability_c"`

	ITCAvailable decimal.Decimal `json:"itc_available"`
	ITCBlocked   decimal.Decimal `json:"itc_blocked"`
	ITCReversed  decimal.Decimal `json:"itc_reversed"`
	NetITC       decimal.Decimal `json:"net_itc"`
	ITCA         decimal.Decimal `json:"itc_a"`
	ITCB         decimal.Decimal `json:"itc_b"`
	ITCC         decimal.Decimal `json:"itc_c"`

	PayableA     decimal.Decimal `json:"payable_a"`
	PayableB     decimal.Decimal `json:"payable_b"`
	PayableC     decimal.Decimal `json:"payable_c"`
	TotalPayable decimal.Decimal `json:"total_payable"`
}

// Filing is the aggregate root for one (filer, period) pair.
type Filing struct {
	ID           uuid.UUID       `json:"id"`
	GSTIN        string          `json:"gstin"`
	Period       string          `json:"period"`
	State        FilingState     `json:"state"`
	PeriodStatus PeriodStatus    `json:"period_status"`
	DeclaredNil  bool            `json:"declared_nil"`
	Profile      *Profile        `json:"profile,omitempty"`
	Invoices     []Invoice       `json:"invoices"`
	Detailed     *DetailedReturn `json:"detailed_return,omitempty"`
	Summary      *SummaryReturn  `json:"summary_return,omitempty"`
	ITC          ITCInput        `json:"itc"`
	ValidatedAt  *time.Time      `json:"validated_at,omitempty"`
	ExportedAt   *time.Time      `json:"exported_at,omitempty"`
	FiledAt      *time.Time      `json:"filed_at,omitempty"`
	Version      int             `json:"version"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// Clone returns a deep copy so an operation can work without touching the original.
func (f *Filing) Clone() *Filing {
	if f == nil {
		return nil
	}
	c := *f
	if f.Profile != nil {
		p := *f.Profile
		c.Profile = &p
	}
	c.Invoices = append([]Invoice(nil), f.Invoices...)
	if f.Detailed != nil {
		d := *f.Detailed
		c.Detailed = &d
	}
	if f.Summary != nil {
		s := *f.Summary
		c.Summary = &s
	}
	c.ValidatedAt = cloneTime(f.ValidatedAt)
	c.ExportedAt = cloneTime(f.ExportedAt)
	c.FiledAt = cloneTime(f.FiledAt)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// PurchaseRecord is one inward-supply line, either from the filer's books
// or from the counterparty-reported statement.
type PurchaseRecord struct {
	SupplierGSTIN string          `json:"supplier_gstin"`
	InvoiceNumber string          `json:"invoice_number"`
	InvoiceDate   string          `json:"invoice_date"`
	TaxableValue  decimal.Decimal `json:"taxable_value"`
	Tax           decimal.Decimal `json:"tax"`
}
