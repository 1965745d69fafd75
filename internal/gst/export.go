package gst

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"gstfiling/internal/domain"
)

// ItemDetail is the rate-wise tax block of an exported invoice.
type ItemDetail struct {
	Rate    decimal.Decimal `json:"rt"`
	Taxable decimal.Decimal `json:"txval"`
	IGST    decimal.Decimal `json:"iamt"`
	CGST    decimal.Decimal `json:"camt"`
	SGST    decimal.Decimal `json:"samt"`
}

// InvoiceItem wraps an ItemDetail with its line number.
type InvoiceItem struct {
	Num    int        `json:"num"`
	Detail ItemDetail `json:"itm_det"`
}

// ExportInvoice is one invoice in interchange form.
type ExportInvoice struct {
	Number        string          `json:"inum"`
	Date          string          `json:"idt"`
	Value         decimal.Decimal `json:"val"`
	PlaceOfSupply string          `json:"pos"`
	ReverseCharge string          `json:"rchrg,omitempty"`
	Items         []InvoiceItem   `json:"itms"`
}

// B2BEntry groups registered-recipient invoices by recipient.
type B2BEntry struct {
	CTIN     string          `json:"ctin"`
	Invoices []ExportInvoice `json:"inv"`
}

// B2CLEntry groups large unregistered invoices by place of supply.
type B2CLEntry struct {
	PlaceOfSupply string          `json:"pos"`
	Invoices      []ExportInvoice `json:"inv"`
}

// B2CSEntry is a consolidated line of small unregistered supplies.
type B2CSEntry struct {
	SupplyType    string          `json:"sply_ty"`
	PlaceOfSupply string          `json:"pos"`
	Type          string          `json:"typ"`
	Rate          decimal.Decimal `json:"rt"`
	Taxable       decimal.Decimal `json:"txval"`
	IGST          decimal.Decimal `json:"iamt"`
	CGST          decimal.Decimal `json:"camt"`
	SGST          decimal.Decimal `json:"samt"`
}

// DocIssue summarises the invoice series reported.
type DocIssue struct {
	Total int    `json:"totnum"`
	From  string `json:"from"`
	To    string `json:"to"`
}

// DetailedPayload is the detailed return by category.
type DetailedPayload struct {
	GSTIN    string      `json:"gstin"`
	FP       string      `json:"fp"`
	B2B      []B2BEntry  `json:"b2b"`
	B2CL     []B2CLEntry `json:"b2cl"`
	B2CS     []B2CSEntry `json:"b2cs"`
	DocIssue DocIssue    `json:"doc_issue"`
}

// SupplyFigures is a taxable value with its three tax components.
type SupplyFigures struct {
	Taxable decimal.Decimal `json:"txval"`
	IGST    decimal.Decimal `json:"iamt"`
	CGST    decimal.Decimal `json:"camt"`
	SGST    decimal.Decimal `json:"samt"`
}

// TaxFigures is the three tax components.
type TaxFigures struct {
	IGST decimal.Decimal `json:"iamt"`
	CGST decimal.Decimal `json:"camt"`
	SGST decimal.Decimal `json:"samt"`
}

// SupplyDetails is section 3.1 of the summary return.
type SupplyDetails struct {
	Outward SupplyFigures `json:"osup_det"`
}

// ITCEligibility is section 4 of the summary return.
type ITCEligibility struct {
	Available  decimal.Decimal `json:"itc_avl"`
	Reversed   decimal.Decimal `json:"itc_rev"`
	Ineligible decimal.Decimal `json:"itc_inelg"`
	Net        TaxFigures      `json:"itc_net"`
}

// TaxPayment is section 6 of the summary return.
type TaxPayment struct {
	Payable TaxFigures      `json:"tx_py"`
	Total   decimal.Decimal `json:"tot_py"`
}

// SummaryPayload is the summary return by section.
type SummaryPayload struct {
	GSTIN      string         `json:"gstin"`
	RetPeriod  string         `json:"ret_period"`
	SupDetails SupplyDetails  `json:"sup_details"`
	ITCElg     ITCEligibility `json:"itc_elg"`
	TaxPmt     TaxPayment     `json:"tax_pmt"`
}

// DetailedPayload arranges a period's invoices by category.
func (e *Engine) DetailedPayload(gstin string, p Period, invoices []domain.Invoice) *DetailedPayload {
	out := &DetailedPayload{
		GSTIN: gstin,
		FP:    p.Compact(),
		B2B:   []B2BEntry{},
		B2CL:  []B2CLEntry{},
		B2CS:  []B2CSEntry{},
	}
	b2b := map[string]int{}
	b2cl := map[string]int{}
	b2cs := map[string]int{}
	home := ""
	if len(gstin) >= 2 {
		home = gstin[:2]
	}

	for i := range invoices {
		inv := &invoices[i]
		pos := placeCode(inv.PlaceOfSupply)
		if pos == "" {
			pos = home
		}
		switch e.Categorize(inv) {
		case domain.CategoryB2B:
			ctin := strings.ToUpper(strings.TrimSpace(inv.CounterpartyGSTIN))
			idx, ok := b2b[ctin]
			if !ok {
				idx = len(out.B2B)
				b2b[ctin] = idx
				out.B2B = append(out.B2B, B2BEntry{CTIN: ctin})
			}
			out.B2B[idx].Invoices = append(out.B2B[idx].Invoices, exportInvoice(inv, pos))
		case domain.CategoryB2CLarge:
			idx, ok := b2cl[pos]
			if !ok {
				idx = len(out.B2CL)
				b2cl[pos] = idx
				out.B2CL = append(out.B2CL, B2CLEntry{PlaceOfSupply: pos})
			}
			x := exportInvoice(inv, pos)
			x.ReverseCharge = ""
			out.B2CL[idx].Invoices = append(out.B2CL[idx].Invoices, x)
		case domain.CategoryB2CSmall:
			st := "INTRA"
			if inv.Scope == domain.ScopeInter {
				st = "INTER"
			}
			key := st + "|" + pos + "|" + inv.Rate.String()
			idx, ok := b2cs[key]
			if !ok {
				idx = len(out.B2CS)
				b2cs[key] = idx
				out.B2CS = append(out.B2CS, B2CSEntry{SupplyType: st, PlaceOfSupply: pos, Type: "OE", Rate: inv.Rate})
			}
			line := &out.B2CS[idx]
			line.Taxable = line.Taxable.Add(inv.TaxableValue)
			line.IGST = line.IGST.Add(inv.TaxC)
			line.CGST = line.CGST.Add(inv.TaxA)
			line.SGST = line.SGST.Add(inv.TaxB)
		}
	}
	out.DocIssue = docIssue(invoices)
	return out
}

func exportInvoice(inv *domain.Invoice, pos string) ExportInvoice {
	return ExportInvoice{
		Number:        strings.TrimSpace(inv.Number),
		Date:          portalDate(inv.Date),
		Value:         inv.TotalValue,
		PlaceOfSupply: pos,
		ReverseCharge: "N",
		Items: []InvoiceItem{{
			Num: 1,
			Detail: ItemDetail{
				Rate:    inv.Rate,
				Taxable: inv.TaxableValue,
				IGST:    inv.TaxC,
				CGST:    inv.TaxA,
				SGST:    inv.TaxB,
			},
		}},
	}
}

// portalDate renders a date as DD-MM-YYYY, leaving unparseable input as is.
func portalDate(s string) string {
	d, err := ParseInvoiceDate(s)
	if err != nil {
		return s
	}
	return d.Format("02-01-2006")
}

func docIssue(invoices []domain.Invoice) DocIssue {
	nums := make([]string, 0, len(invoices))
	for i := range invoices {
		if n := strings.TrimSpace(invoices[i].Number); n != "" {
			nums = append(nums, n)
		}
	}
	if len(nums) == 0 {
		return DocIssue{}
	}
	sort.Strings(nums)
	return DocIssue{Total: len(nums), From: nums[0], To: nums[len(nums)-1]}
}

// SummaryPayload arranges a summary return by section.
func (e *Engine) SummaryPayload(gstin string, p Period, sr *domain.SummaryReturn) *SummaryPayload {
	return &SummaryPayload{
		GSTIN:     gstin,
		RetPeriod: p.Compact(),
		SupDetails: SupplyDetails{Outward: SupplyFigures{
			Taxable: sr.OutwardTaxableValue,
			IGST:    sr.LiabilityC,
			CGST:    sr.LiabilityA,
			SGST:    sr.LiabilityB,
		}},
		ITCElg: ITCEligibility{
			Available:  sr.ITCAvailable,
			Reversed:   sr.ITCReversed,
			Ineligible: sr.ITCBlocked,
			Net:        TaxFigures{IGST: sr.ITCC, CGST: sr.ITCA, SGST: sr.ITCB},
		},
		TaxPmt: TaxPayment{
			Payable: TaxFigures{IGST: sr.PayableC, CGST: sr.PayableA, SGST: sr.PayableB},
			Total:   sr.TotalPayable,
		},
	}
}
