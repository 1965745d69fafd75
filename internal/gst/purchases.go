package gst

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"gstfiling/internal/domain"
)

// Purchase-register codes. Both are advisory.
const (
	CodeUnmatchedPurchases     = "UNMATCHED_PURCHASES"
	CodeProvisionalITCAdvisory = "PROVISIONAL_ITC_ADVISORY"
	CodePurchaseAmountMismatch = "PURCHASE_AMOUNT_MISMATCH"
	CodePurchasesReconciled    = "PURCHASES_RECONCILED"
)

// PurchaseMismatch pairs a books record with the supplier-reported one.
type PurchaseMismatch struct {
	Books       domain.PurchaseRecord `json:"books"`
	Reported    domain.PurchaseRecord `json:"reported"`
	TaxableDiff decimal.Decimal       `json:"taxable_difference"`
	TaxDiff     decimal.Decimal       `json:"tax_difference"`
}

// PurchaseMatch is the result of matching the purchase register against the
// supplier-reported statement.
type PurchaseMatch struct {
	Matched           []domain.PurchaseRecord `json:"matched"`
	MissingInReported []domain.PurchaseRecord `json:"missing_in_reported"`
	MissingInBooks    []domain.PurchaseRecord `json:"missing_in_books"`
	AmountMismatch    []PurchaseMismatch      `json:"amount_mismatch"`
	MatchedValue      decimal.Decimal         `json:"matched_value"`
	UnmatchedValue    decimal.Decimal         `json:"unmatched_value"`
	UnmatchedTax      decimal.Decimal         `json:"unmatched_tax"`
	MatchPercentage   decimal.Decimal         `json:"match_percentage"`
	// Advisories are INFO findings. The provisional credit they mention is a
	// heuristic and never feeds into any ITC figure.
	Advisories domain.ValidationErrors `json:"advisories"`
}

func purchaseKey(r *domain.PurchaseRecord) string {
	return strings.ToUpper(strings.TrimSpace(r.SupplierGSTIN)) + "|" + strings.ToUpper(strings.TrimSpace(r.InvoiceNumber))
}

// ReconcilePurchases matches books against reported records by supplier GSTIN
// and invoice number. Amounts within one unit are treated as matched.
func (e *Engine) ReconcilePurchases(books, reported []domain.PurchaseRecord) PurchaseMatch {
	res := PurchaseMatch{
		Matched:           []domain.PurchaseRecord{},
		MissingInReported: []domain.PurchaseRecord{},
		MissingInBooks:    []domain.PurchaseRecord{},
		AmountMismatch:    []PurchaseMismatch{},
		Advisories:        domain.ValidationErrors{},
	}
	tol := e.table.InvoiceTolerance()

	reportedIdx := make(map[string]int, len(reported))
	for i := range reported {
		reportedIdx[purchaseKey(&reported[i])] = i
	}
	booksIdx := make(map[string]struct{}, len(books))

	for i := range books {
		b := books[i]
		k := purchaseKey(&b)
		booksIdx[k] = struct{}{}
		j, ok := reportedIdx[k]
		if !ok {
			res.MissingInReported = append(res.MissingInReported, b)
			res.UnmatchedValue = res.UnmatchedValue.Add(b.TaxableValue)
			res.UnmatchedTax = res.UnmatchedTax.Add(b.Tax)
			continue
		}
		r := reported[j]
		if !within(b.TaxableValue, r.TaxableValue, tol) || !within(b.Tax, r.Tax, tol) {
			res.AmountMismatch = append(res.AmountMismatch, PurchaseMismatch{
				Books:       b,
				Reported:    r,
				TaxableDiff: round2(b.TaxableValue.Sub(r.TaxableValue)),
				TaxDiff:     round2(b.Tax.Sub(r.Tax)),
			})
			continue
		}
		res.Matched = append(res.Matched, b)
		res.MatchedValue = res.MatchedValue.Add(b.TaxableValue)
	}
	for i := range reported {
		if _, ok := booksIdx[purchaseKey(&reported[i])]; !ok {
			res.MissingInBooks = append(res.MissingInBooks, reported[i])
		}
	}

	res.MatchedValue = round2(res.MatchedValue)
	res.UnmatchedValue = round2(res.UnmatchedValue)
	res.UnmatchedTax = round2(res.UnmatchedTax)
	res.MatchPercentage = decimal.NewFromInt(100)
	if denom := res.MatchedValue.Add(res.UnmatchedValue); denom.IsPositive() {
		res.MatchPercentage = res.MatchedValue.Div(denom).Mul(hundred).Round(2)
	}
	res.Advisories = e.purchaseAdvisories(&res)
	return res
}

func (e *Engine) purchaseAdvisories(m *PurchaseMatch) domain.ValidationErrors {
	var out domain.ValidationErrors
	if n := len(m.MissingInReported); n > 0 {
		out = append(out, domain.NewInfo(domain.SectionPurchases, CodeUnmatchedPurchases,
			fmt.Sprintf("%s of purchases (tax %s) across %d invoices not reported by suppliers",
				fmtd(m.UnmatchedValue), fmtd(m.UnmatchedTax), n),
			"Remind the suppliers to report these invoices"))
		provisional := round2(m.UnmatchedValue.Mul(e.table.ProvisionalITCShare()))
		out = append(out, domain.NewInfo(domain.SectionPurchases, CodeProvisionalITCAdvisory,
			fmt.Sprintf("Advisory only: a provisional credit of about %s (%s of unmatched value) is sometimes claimed",
				fmtd(provisional), e.table.ProvisionalITCShare().Mul(hundred).String()+"%"),
			"This figure is a heuristic; confirm eligibility before claiming any credit"))
	}
	if n := len(m.AmountMismatch); n > 0 {
		out = append(out, domain.NewInfo(domain.SectionPurchases, CodePurchaseAmountMismatch,
			fmt.Sprintf("%d invoices differ in amount from the supplier-reported figures", n),
			"Reconcile the amounts with the suppliers"))
	}
	if len(out) == 0 {
		out = append(out, domain.NewInfo(domain.SectionPurchases, CodePurchasesReconciled,
			"All purchases reconciled with supplier-reported figures", ""))
	}
	return out
}
