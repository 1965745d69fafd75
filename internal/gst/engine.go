// Package gst implements the filing engine: profile and invoice validation,
// period aggregation, output-tax and ITC computation, summary-return
// generation, reconciliation and period/late-fee calculation.
//
// Every method is a pure computation over the arguments it receives. Callers
// own persistence and must serialize mutations per (filer, period).
package gst

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"gstfiling/internal/taxtable"
)

// Options configures an Engine.
type Options struct {
	// AssumeStandardRate taxes an aggregate with no rate breakdown entirely at
	// the table's standard rate. Off by default: the caller must opt in.
	AssumeStandardRate bool
	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time
}

// Engine is a stateless service object over an immutable tax table.
type Engine struct {
	table *taxtable.Table
	opts  Options
}

// NewEngine creates an Engine. A nil table means taxtable.Default().
func NewEngine(table *taxtable.Table, opts Options) *Engine {
	if table == nil {
		table = taxtable.Default()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Engine{table: table, opts: opts}
}

// Table returns the tax table the engine was built with.
func (e *Engine) Table() *taxtable.Table { return e.table }

// Now returns the engine clock's current time.
func (e *Engine) Now() time.Time { return e.opts.Clock() }

var (
	zero    = decimal.Zero
	hundred = decimal.NewFromInt(100)
	two     = decimal.NewFromInt(2)
)

func round2(d decimal.Decimal) decimal.Decimal { return d.Round(2) }

// pctOf returns base × rate / 100.
func pctOf(base, rate decimal.Decimal) decimal.Decimal {
	return base.Mul(rate).Div(hundred)
}

// half splits v into two halves that sum back to v at 2 decimals.
func half(v decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	a := v.Div(two).Round(2)
	return a, round2(v.Sub(a))
}

func within(a, b, tol decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(tol)
}

func fmtd(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func fmtDiff(a, b decimal.Decimal) string {
	return fmt.Sprintf("%s vs %s (difference %s)", fmtd(a), fmtd(b), fmtd(a.Sub(b).Abs()))
}
