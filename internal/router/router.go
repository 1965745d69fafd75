package router

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"gstfiling/internal/handler"
	"gstfiling/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	log zerolog.Logger,
	corsOrigins []string,
	healthH *handler.HealthHandler,
	profileH *handler.ProfileHandler,
	filingH *handler.FilingHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(middleware.CORS(corsOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")

	v1.PUT("/profiles/:gstin", profileH.Save)

	v1.POST("/filings", filingH.Open)

	f := v1.Group("/filings/:gstin/:period")
	f.GET("", filingH.Get)
	f.POST("/profile", filingH.AttachProfile)

	f.POST("/invoices", filingH.AddInvoice)
	f.POST("/invoices/import", filingH.ImportInvoices)
	f.DELETE("/invoices/:number", filingH.DeleteInvoice)
	f.PUT("/nil", filingH.SetNil)

	f.POST("/detailed-return/validate", filingH.ValidateDetailedReturn)
	f.POST("/summary-return/generate", filingH.GenerateSummaryReturn)
	f.POST("/summary-return/validate", filingH.ValidateSummaryReturn)

	f.GET("/preview", filingH.Preview)
	f.POST("/export", filingH.Export)
	f.GET("/export.csv", filingH.ExportCSV)
	f.GET("/export.xlsx", filingH.ExportXLSX)

	f.GET("/validate", filingH.ValidateComplete)
	f.POST("/file", filingH.MarkFiled)
	f.POST("/purchases/reconcile", filingH.ReconcilePurchases)

	return r
}
