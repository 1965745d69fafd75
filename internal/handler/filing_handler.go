package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"gstfiling/internal/domain"
	"gstfiling/internal/export"
	"gstfiling/internal/filing"
	"gstfiling/internal/service"
)

// FilingHandler handles the filing lifecycle endpoints.
type FilingHandler struct {
	filingService service.FilingService
}

// NewFilingHandler creates a new FilingHandler.
func NewFilingHandler(filingService service.FilingService) *FilingHandler {
	return &FilingHandler{filingService: filingService}
}

// OpenFilingRequest is the body of POST /filings.
type OpenFilingRequest struct {
	GSTIN  string `json:"gstin" binding:"required"`
	Period string `json:"period" binding:"required"`
}

// InvoiceRequest is one outward-supply invoice as submitted by a client.
type InvoiceRequest struct {
	Number            string          `json:"invoice_number"`
	Date              string          `json:"invoice_date"`
	Scope             string          `json:"supply_scope"`
	CounterpartyGSTIN string          `json:"counterparty_gstin"`
	CounterpartyName  string          `json:"counterparty_name"`
	PlaceOfSupply     string          `json:"place_of_supply"`
	TaxableValue      decimal.Decimal `json:"taxable_value"`
	Rate              decimal.Decimal `json:"rate"`
	TaxA              decimal.Decimal `json:"tax_a"`
	TaxB              decimal.Decimal `json:"tax_b"`
	TaxC              decimal.Decimal `json:"tax_c"`
	TotalValue        decimal.Decimal `json:"total_value"`
}

// ToInvoice converts the request into a domain invoice.
func (r InvoiceRequest) ToInvoice() domain.Invoice {
	return domain.Invoice{
		Number:            r.Number,
		Date:              r.Date,
		Scope:             domain.SupplyScope(r.Scope),
		CounterpartyGSTIN: r.CounterpartyGSTIN,
		CounterpartyName:  r.CounterpartyName,
		PlaceOfSupply:     r.PlaceOfSupply,
		TaxableValue:      r.TaxableValue,
		Rate:              r.Rate,
		TaxA:              r.TaxA,
		TaxB:              r.TaxB,
		TaxC:              r.TaxC,
		TotalValue:        r.TotalValue,
	}
}

// NilRequest is the body of PUT .../nil.
type NilRequest struct {
	IsNil *bool `json:"is_nil" binding:"required"`
}

// PurchasesRequest is the body of POST .../purchases/reconcile.
type PurchasesRequest struct {
	Books    []domain.PurchaseRecord `json:"books"`
	Reported []domain.PurchaseRecord `json:"reported"`
}

// ImportResult reports what happened to one imported invoice.
type ImportResult struct {
	InvoiceNumber string                  `json:"invoice_number"`
	Accepted      bool                    `json:"accepted"`
	Errors        domain.ValidationErrors `json:"errors"`
}

func key(c *gin.Context) (gstin, period string) {
	return c.Param("gstin"), c.Param("period")
}

// respondOutcome answers 200 with data, 422 with the outcome when it was
// rejected, or the mapped error otherwise.
func respondOutcome(c *gin.Context, out filing.Outcome, err error, data interface{}) {
	switch {
	case errors.Is(err, domain.ErrValidationFailed):
		RespondRejected(c, out)
	case err != nil:
		HandleError(c, err)
	default:
		RespondOK(c, data)
	}
}

// bindOptionalJSON binds the body into dst; an empty body leaves dst alone.
func bindOptionalJSON(c *gin.Context, dst interface{}) (bool, error) {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return false, nil
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Open handles POST /api/v1/filings
// @Summary      Open a filing
// @Description  Creates the filing for a GSTIN and period; runs profile validation when a profile is stored
// @Tags         filings
// @Accept       json
// @Produce      json
// @Param        body body OpenFilingRequest true "GSTIN and period"
// @Success      201 {object} APIResponse{data=filing.Outcome}
// @Failure      400 {object} APIResponse "Malformed request"
// @Failure      409 {object} APIResponse "Conflicting state"
// @Failure      422 {object} APIResponse "Rejected with blocking findings"
// @Failure      500 {object} APIResponse "Internal error"
// @Router       /filings [post]
func (h *FilingHandler) Open(c *gin.Context) {
	var req OpenFilingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	out, err := h.filingService.OpenFiling(c.Request.Context(), req.GSTIN, req.Period)
	switch {
	case errors.Is(err, domain.ErrValidationFailed):
		RespondRejected(c, out)
	case err != nil:
		HandleError(c, err)
	default:
		RespondCreated(c, out)
	}
}

// Get handles GET /api/v1/filings/:gstin/:period
// @Summary      Get a filing
// @Description  Returns the filing with its invoices and derived returns
// @Tags         filings
// @Produce      json
// @Param        gstin path string true "Filer GSTIN"
// @Param        period path string true "Filing period (MM-YYYY)"
// @Success      200 {object} APIResponse{data=domain.Filing}
// @Failure      404 {object} APIResponse "Filing not found"
// @Failure      500 {object} APIResponse "Internal error"
// @Router       /filings/{gstin}/{period} [get]
func (h *FilingHandler) Get(c *gin.Context) {
	gstin, period := key(c)
	f, err := h.filingService.GetFiling(c.Request.Context(), gstin, period)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, f)
}

// AttachProfile handles POST /api/v1/filings/:gstin/:period/profile
// @Summary      Attach the stored profile
// @Description  Re-runs profile validation against the stored filer profile
// @Tags         filings
// @Produce      json
// @Param        gstin path string true "Filer GSTIN"
// @Param        period path string true "Filing period (MM-YYYY)"
// @Success      200 {object} APIResponse{data=filing.Outcome}
// @Failure      404 {object} APIResponse "Filing not found"
// @Failure      422 {object} APIResponse "Rejected with blocking findings"
// @Failure      500 {object} APIResponse "Internal error"
// @Router       /filings/{gstin}/{period}/profile [post]
func (h *FilingHandler) AttachProfile(c *gin.Context) {
	gstin, period := key(c)
	out, err := h.filingService.AttachProfile(c.Request.Context(), gstin, period)
	respondOutcome(c, out, err, out)
}

// AddInvoice handles POST /api/v1/filings/:gstin/:period/invoices
// @Summary      Add an invoice
// @Description  Validates and categorizes one outward-supply invoice
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        gstin path string true "Filer GSTIN"
// @Param        period path string true "Filing period (MM-YYYY)"
// @Param        body body InvoiceRequest true "Invoice"
// @Success      200 {object} APIResponse{data=filing.Outcome}
// @Failure      400 {object} APIResponse "Malformed request"
// @Failure      404 {object} APIResponse "Filing not found"
// @Failure      422 {object} APIResponse "Rejected with blocking findings"
// @Failure      500 {object} APIResponse "Internal error"
// @Router       /filings/{gstin}/{period}/invoices [post]
func (h *FilingHandler) AddInvoice(c *gin.Context) {
	var req InvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	gstin, period := key(c)
	out, err := h.filingService.AddInvoice(c.Request.Context(), gstin, period, req.ToInvoice())
	respondOutcome(c, out, err, out)
}

// ImportInvoices handles POST /api/v1/filings/:gstin/:period/invoices/import
// (multipart field "file", an XLSX sales register). Each row is added on its
// own; one rejected invoice does not stop the rest.
// @Summary      Import a sales register
// @Description  Adds every row of an XLSX sales register, each on its own
// @Tags         invoices
// @Accept       multipart/form-data
// @Produce      json
// @Param        gstin path string true "Filer GSTIN"
// @Param        period path string true "Filing period (MM-YYYY)"
// @Param        file formData file true "XLSX sales register"
// @Success      200 {object} APIResponse{data=[]ImportResult}
// @Failure      400 {object} APIResponse "Malformed request"
// @Failure      404 {object} APIResponse "Filing not found"
// @Failure      500 {object} APIResponse "Internal error"
// @Router       /filings/{gstin}/{period}/invoices/import [post]
func (h *FilingHandler) ImportInvoices(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "multipart field \"file\" is required")
		return
	}
	src, err := fh.Open()
	if err != nil {
		HandleError(c, err)
		return
	}
	defer func() { _ = src.Close() }()

	invoices, err := export.ReadSalesRegister(src)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_SPREADSHEET", err.Error())
		return
	}

	gstin, period := key(c)
	results := make([]ImportResult, 0, len(invoices))
	for _, inv := range invoices {
		out, err := h.filingService.AddInvoice(c.Request.Context(), gstin, period, inv)
		if err != nil && !errors.Is(err, domain.ErrValidationFailed) {
			HandleError(c, err)
			return
		}
		results = append(results, ImportResult{InvoiceNumber: inv.Number, Accepted: out.Accepted, Errors: out.Errors})
	}
	RespondOK(c, results)
}

// DeleteInvoice handles DELETE /api/v1/filings/:gstin/:period/invoices/:number
// @Summary      Delete an invoice
// @Description  Removes an invoice from a filing that is being edited
// @Tags         invoices
// @Produce      json
// @Param        gstin path string true "Filer GSTIN"
// @Param        period path string true "Filing period (MM-YYYY)"
// @Param        number path string true "Invoice number"
// @Success      200 {object} APIResponse{data=filing.Outcome}
// @Failure      404 {object} APIResponse "Filing not found"
// @Failure      422 {object} APIResponse "Rejected with blocking findings"
// @Failure      500 {object} APIResponse "Internal error"
// @Router       /filings/{gstin}/{period}/invoices/{number} [delete]
func (h *FilingHandler) DeleteInvoice(c *gin.Context) {
	gstin, period := key(c)
	out, err := h.filingService.DeleteInvoice(c.Request.Context(), gstin, period, c.Param("number"))
	respondOutcome(c, out, err, out)
}

// SetNil handles PUT /api/v1/filings/:gstin/:period/nil
// @Summary      Declare a nil return
// @Description  Sets or clears the nil declaration for the period
// @Tags         filings
// @Accept       json
// @Produce      json
// @Param        gstin path string true "Filer GSTIN"
// @Param        period path string true "Filing period (MM-YYYY)"
// @Param        body body NilRequest true "Nil flag"
// @Success      200 {object} APIResponse{data=filing.Outcome}
// @Failure      400 {object} APIResponse "Malformed request"
// @Failure      404 {object} APIResponse "Filing not found"
// @Failure      422 {object} APIResponse "Rejected with blocking findings"
// @Failure      500 {object} APIResponse "Internal error"
// @Router       /filings/{gstin}/{period}/nil [put]
func (h *FilingHandler) SetNil(c *gin.Context) {
	var req NilRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	gstin, period := key(c)
	out, err := h.filingService.SetNil(c.Request.Context(), gstin, period, *req.IsNil)
	respondOutcome(c, out, err, out)
}

// ValidateDetailedReturn handles POST /api/v1/filings/:gstin/:period/detailed-return/validate
// @Summary      Validate the detailed return
// @Description  Re-validates every invoice and freezes the period aggregate
// @Tags         returns
// @Produce      json
// @Param        gstin path string true "Filer GSTIN"
// @Param        period path string true "Filing period (MM-YYYY)"
// @Success      200 {object} APIResponse{data=filing.Outcome}
// @Failure      404 {object} APIResponse "Filing not found"
// @Failure      422 {object} APIResponse "Rejected with blocking findings"
// @Failure      500 {object} APIResponse "Internal error"
// @Router       /filings/{gstin}/{period}/detailed-return/validate [post]
func (h *FilingHandler) ValidateDetailedReturn(c *gin.Context) {
	gstin, period := key(c)
	out, err := h.filingService.ValidateDetailedReturn(c.Request.Context(), gstin, period)
	respondOutcome(c, out, err, out)
}

// GenerateSummaryReturn handles POST /api/v1/filings/:gstin/:period/summary-return/generate
// The optional body carries the period's ITC figures.
// @Summary      Generate the summary return
// @Description  Derives the summary return from the validated detailed return and ITC figures
// @Tags         returns
// @Accept       json
// @Produce      json
// @Param        gstin path string true "Filer GSTIN"
// @Param        period path string true "Filing period (MM-YYYY)"
// @Param        body body domain.ITCInput false "ITC figures"
// @Success      200 {object} APIResponse{data=filing.Outcome}
// @Failure      400 {object} APIResponse "Malformed request"
// @Failure      404 {object} APIResponse "Filing not found"
// @Failure      422 {object} APIResponse "Rejected with blocking findings"
// @Failure      500 {object} APIResponse "Internal error"
// @Router       /filings/{gstin}/{period}/summary-return/generate [post]
func (h *FilingHandler) GenerateSummaryReturn(c *gin.Context) {
	var itc domain.ITCInput
	if _, err := bindOptionalJSON(c, &itc); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	gstin, period := key(c)
	out, err := h.filingService.GenerateSummaryReturn(c.Request.Context(), gstin, period, itc)
	respondOutcome(c, out, err, out)
}

// ValidateSummaryReturn handles POST /api/v1/filings/:gstin/:period/summary-return/validate
// An optional body replaces the generated draft before reconciliation.
// @Summary      Validate the summary return
// @Description  Reconciles the summary return; a submitted body replaces the draft first
// @Tags         returns
// @Accept       json
// @Produce      json
// @Param        gstin path string true "Filer GSTIN"
// @Param        period path string true "Filing period (MM-YYYY)"
// @Param        body body domain.SummaryReturn false "Edited summary return"
// @Success      200 {object} APIResponse{data=filing.Outcome}
// @Failure      400 {object} APIResponse "Malformed request"
// @Failure      404 {object} APIResponse "Filing not found"
// @Failure      422 {object} APIResponse "Rejected with blocking findings"
// @Failure      500 {object} APIResponse "Internal error"
// @Router       /filings/{gstin}/{period}/summary-return/validate [post]
func (h *FilingHandler) ValidateSummaryReturn(c *gin.Context) {
	var sr domain.SummaryReturn
	given, err := bindOptionalJSON(c, &sr)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	var submitted *domain.SummaryReturn
	if given {
		submitted = &sr
	}

	gstin, period := key(c)
	out, err := h.filingService.ValidateSummaryReturn(c.Request.Context(), gstin, period, submitted)
	respondOutcome(c, out, err, out)
}

// Preview handles GET /api/v1/filings/:gstin/:period/preview
// @Summary      Preview the filing
// @Description  Computes late fees, interest and the amount due, and marks the filing ready to export
// @Tags         returns
// @Produce      json
// @Param        gstin path string true "Filer GSTIN"
// @Param        period path string true "Filing period (MM-YYYY)"
// @Success      200 {object} APIResponse{data=filing.Preview}
// @Failure      404 {object} APIResponse "Filing not found"
// @Failure      422 {object} APIResponse "Rejected with blocking findings"
// @Failure      500 {object} APIResponse "Internal error"
// @Router       /filings/{gstin}/{period}/preview [get]
func (h *FilingHandler) Preview(c *gin.Context) {
	gstin, period := key(c)
	out, preview, err := h.filingService.PreparePreview(c.Request.Context(), gstin, period)
	respondOutcome(c, out, err, preview)
}

// Export handles POST /api/v1/filings/:gstin/:period/export
// @Summary      Export the interchange payloads
// @Description  Re-runs reconciliation and returns both return payloads
// @Tags         exports
// @Produce      json
// @Param        gstin path string true "Filer GSTIN"
// @Param        period path string true "Filing period (MM-YYYY)"
// @Success      200 {object} APIResponse{data=filing.ExportBundle}
// @Failure      404 {object} APIResponse "Filing not found"
// @Failure      422 {object} APIResponse "Rejected with blocking findings"
// @Failure      500 {object} APIResponse "Internal error"
// @Router       /filings/{gstin}/{period}/export [post]
func (h *FilingHandler) Export(c *gin.Context) {
	gstin, period := key(c)
	out, bundle, err := h.filingService.Export(c.Request.Context(), gstin, period)
	respondOutcome(c, out, err, bundle)
}

// ExportCSV handles GET /api/v1/filings/:gstin/:period/export.csv
// @Summary      Download the detailed return as CSV
// @Description  Renders the invoices of the detailed return with a total line
// @Tags         exports
// @Produce      text/csv
// @Param        gstin path string true "Filer GSTIN"
// @Param        period path string true "Filing period (MM-YYYY)"
// @Success      200 {file} file "CSV file"
// @Failure      404 {object} APIResponse "Filing not found"
// @Failure      409 {object} APIResponse "Conflicting state"
// @Failure      500 {object} APIResponse "Internal error"
// @Router       /filings/{gstin}/{period}/export.csv [get]
func (h *FilingHandler) ExportCSV(c *gin.Context) {
	f, ok := h.detailedFiling(c)
	if !ok {
		return
	}
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", "attachment; filename=\""+export.BuildFilename(f.GSTIN, f.Period, "csv")+"\"")
	c.Status(http.StatusOK)
	if err := export.WriteDetailedCSV(c.Writer, f); err != nil {
		_ = c.Error(err)
	}
}

// ExportXLSX handles GET /api/v1/filings/:gstin/:period/export.xlsx
// @Summary      Download the detailed return as XLSX
// @Description  Renders the invoices and a summary sheet
// @Tags         exports
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        gstin path string true "Filer GSTIN"
// @Param        period path string true "Filing period (MM-YYYY)"
// @Success      200 {file} file "XLSX workbook"
// @Failure      404 {object} APIResponse "Filing not found"
// @Failure      409 {object} APIResponse "Conflicting state"
// @Failure      500 {object} APIResponse "Internal error"
// @Router       /filings/{gstin}/{period}/export.xlsx [get]
func (h *FilingHandler) ExportXLSX(c *gin.Context) {
	f, ok := h.detailedFiling(c)
	if !ok {
		return
	}
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=\""+export.BuildFilename(f.GSTIN, f.Period, "xlsx")+"\"")
	c.Status(http.StatusOK)
	if err := export.WriteXLSX(c.Writer, f); err != nil {
		_ = c.Error(err)
	}
}

func (h *FilingHandler) detailedFiling(c *gin.Context) (*domain.Filing, bool) {
	gstin, period := key(c)
	f, err := h.filingService.GetFiling(c.Request.Context(), gstin, period)
	if err != nil {
		HandleError(c, err)
		return nil, false
	}
	if f.Detailed == nil {
		RespondError(c, http.StatusConflict, filing.CodeDetailedReturnMissing, "validate the detailed return before downloading it")
		return nil, false
	}
	return f, true
}

// ValidateComplete handles GET /api/v1/filings/:gstin/:period/validate
// @Summary      Run the comprehensive check
// @Description  Re-runs every section check without changing state
// @Tags         filings
// @Produce      json
// @Param        gstin path string true "Filer GSTIN"
// @Param        period path string true "Filing period (MM-YYYY)"
// @Success      200 {object} APIResponse{data=filing.ComprehensiveResult}
// @Failure      404 {object} APIResponse "Filing not found"
// @Failure      500 {object} APIResponse "Internal error"
// @Router       /filings/{gstin}/{period}/validate [get]
func (h *FilingHandler) ValidateComplete(c *gin.Context) {
	gstin, period := key(c)
	res, err := h.filingService.ValidateComplete(c.Request.Context(), gstin, period)
	if err != nil {
		HandleError(c, err)
		return
	}
	RespondOK(c, res)
}

// MarkFiled handles POST /api/v1/filings/:gstin/:period/file
// @Summary      Mark the period filed
// @Description  Re-runs the comprehensive check and freezes the period when it passes
// @Tags         filings
// @Produce      json
// @Param        gstin path string true "Filer GSTIN"
// @Param        period path string true "Filing period (MM-YYYY)"
// @Success      200 {object} APIResponse "Outcome and comprehensive result"
// @Failure      404 {object} APIResponse "Filing not found"
// @Failure      422 {object} APIResponse "Rejected with blocking findings"
// @Failure      500 {object} APIResponse "Internal error"
// @Router       /filings/{gstin}/{period}/file [post]
func (h *FilingHandler) MarkFiled(c *gin.Context) {
	gstin, period := key(c)
	out, res, err := h.filingService.MarkFiled(c.Request.Context(), gstin, period)
	switch {
	case errors.Is(err, domain.ErrValidationFailed):
		RespondRejected(c, gin.H{"outcome": out, "validation": res})
	case err != nil:
		HandleError(c, err)
	default:
		RespondOK(c, gin.H{"outcome": out, "validation": res})
	}
}

// ReconcilePurchases handles POST /api/v1/filings/:gstin/:period/purchases/reconcile
// @Summary      Match the purchase register
// @Description  Matches purchases in the books against those reported by suppliers
// @Tags         purchases
// @Accept       json
// @Produce      json
// @Param        gstin path string true "Filer GSTIN"
// @Param        period path string true "Filing period (MM-YYYY)"
// @Param        body body PurchasesRequest true "Books and reported purchases"
// @Success      200 {object} APIResponse{data=gst.PurchaseMatch}
// @Failure      400 {object} APIResponse "Malformed request"
// @Failure      500 {object} APIResponse "Internal error"
// @Router       /filings/{gstin}/{period}/purchases/reconcile [post]
func (h *FilingHandler) ReconcilePurchases(c *gin.Context) {
	var req PurchasesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	RespondOK(c, h.filingService.ReconcilePurchases(c.Request.Context(), req.Books, req.Reported))
}
