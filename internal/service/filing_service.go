package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"gstfiling/internal/domain"
	"gstfiling/internal/filing"
	"gstfiling/internal/gst"
	"gstfiling/internal/port"
)

// FilingService drives filings through their lifecycle. Mutations of one
// (GSTIN, period) are serialized, and each runs in a single transaction.
//
// Operations rejected with a BLOCKER return the Outcome together with
// domain.ErrValidationFailed; the Outcome's Errors explain why.
type FilingService interface {
	SaveProfile(ctx context.Context, profile domain.Profile) (*domain.Profile, domain.ValidationErrors, error)
	GetFiling(ctx context.Context, gstin, period string) (*domain.Filing, error)
	OpenFiling(ctx context.Context, gstin, period string) (filing.Outcome, error)
	AttachProfile(ctx context.Context, gstin, period string) (filing.Outcome, error)
	AddInvoice(ctx context.Context, gstin, period string, inv domain.Invoice) (filing.Outcome, error)
	DeleteInvoice(ctx context.Context, gstin, period, number string) (filing.Outcome, error)
	SetNil(ctx context.Context, gstin, period string, isNil bool) (filing.Outcome, error)
	ValidateDetailedReturn(ctx context.Context, gstin, period string) (filing.Outcome, error)
	GenerateSummaryReturn(ctx context.Context, gstin, period string, itc domain.ITCInput) (filing.Outcome, error)
	ValidateSummaryReturn(ctx context.Context, gstin, period string, submitted *domain.SummaryReturn) (filing.Outcome, error)
	PreparePreview(ctx context.Context, gstin, period string) (filing.Outcome, *filing.Preview, error)
	Export(ctx context.Context, gstin, period string) (filing.Outcome, *filing.ExportBundle, error)
	ValidateComplete(ctx context.Context, gstin, period string) (*filing.ComprehensiveResult, error)
	MarkFiled(ctx context.Context, gstin, period string) (filing.Outcome, *filing.ComprehensiveResult, error)
	ReconcilePurchases(ctx context.Context, books, reported []domain.PurchaseRecord) gst.PurchaseMatch
}

// OpOpenFiling labels the outcome of opening a filing.
const OpOpenFiling filing.Operation = "open_filing"

type filingService struct {
	machine *filing.Machine
	tx      port.TxRunner
	archive ExportArchiver
	locks   *keyedMutex
	log     zerolog.Logger
}

// NewFilingService creates a new FilingService implementation. archive may be
// nil, in which case exports are not archived.
func NewFilingService(machine *filing.Machine, tx port.TxRunner, archive ExportArchiver, log zerolog.Logger) FilingService {
	if machine == nil {
		machine = filing.NewMachine(nil)
	}
	return &filingService{
		machine: machine,
		tx:      tx,
		archive: archive,
		locks:   newKeyedMutex(),
		log:     log,
	}
}

// filingKey normalizes the (GSTIN, period) pair every operation addresses.
func filingKey(gstin, period string) (string, string, error) {
	g := strings.ToUpper(strings.TrimSpace(gstin))
	if g == "" {
		return "", "", fmt.Errorf("%w: gstin is required", domain.ErrInvalidInput)
	}
	p, err := gst.ParsePeriod(period)
	if err != nil {
		return "", "", fmt.Errorf("%w: %s", domain.ErrInvalidPeriod, err.Error())
	}
	return g, p.String(), nil
}

func (s *filingService) SaveProfile(ctx context.Context, profile domain.Profile) (*domain.Profile, domain.ValidationErrors, error) {
	profile.GSTIN = strings.ToUpper(strings.TrimSpace(profile.GSTIN))
	res := s.machine.Engine().ValidateProfile(&profile)
	if !res.Complete {
		s.log.Warn().Str("gstin", profile.GSTIN).Int("blockers", len(res.Errors.Blockers())).
			Msg("profile rejected")
		return nil, res.Errors, domain.ErrValidationFailed
	}
	profile.Complete = true

	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos port.Repos) error {
		return repos.Profiles.Upsert(ctx, &profile)
	})
	if err != nil {
		return nil, nil, err
	}
	s.log.Info().Str("gstin", profile.GSTIN).Msg("profile saved")
	return &profile, res.Errors, nil
}

func (s *filingService) GetFiling(ctx context.Context, gstin, period string) (*domain.Filing, error) {
	gstin, period, err := filingKey(gstin, period)
	if err != nil {
		return nil, err
	}
	var f *domain.Filing
	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos port.Repos) error {
		var lerr error
		f, _, lerr = load(ctx, repos, gstin, period, false)
		return lerr
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (s *filingService) OpenFiling(ctx context.Context, gstin, period string) (filing.Outcome, error) {
	gstin, period, err := filingKey(gstin, period)
	if err != nil {
		return filing.Outcome{}, err
	}
	if !s.machine.Engine().ValidGSTIN(gstin) {
		return filing.Outcome{}, fmt.Errorf("%w: gstin %s is malformed", domain.ErrInvalidInput, gstin)
	}
	unlock := s.locks.Lock(gstin + "/" + period)
	defer unlock()

	var out filing.Outcome
	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos port.Repos) error {
		filed, err := repos.Filings.ListFiledPeriods(ctx, gstin)
		if err != nil {
			return err
		}
		if errs := s.machine.Engine().ValidatePeriod(period, filed); errs.HasBlocker() {
			out = filing.Outcome{Op: OpOpenFiling, Errors: errs, From: domain.StateProfileIncomplete, To: domain.StateProfileIncomplete}
			return nil
		}

		f := &domain.Filing{
			GSTIN:        gstin,
			Period:       period,
			State:        domain.StateProfileIncomplete,
			PeriodStatus: domain.PeriodOpen,
			Invoices:     []domain.Invoice{},
		}
		if err := repos.Filings.Create(ctx, f); err != nil {
			return err
		}
		out = filing.Outcome{Filing: f, Op: OpOpenFiling, Accepted: true, From: f.State, To: f.State, Errors: domain.ValidationErrors{}}

		profile, err := repos.Profiles.GetByGSTIN(ctx, gstin)
		if errors.Is(err, domain.ErrProfileNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		f.Profile = profile
		out = s.machine.ValidateProfile(f, profile)
		return persist(ctx, repos, f, out)
	})
	if err != nil {
		return filing.Outcome{}, err
	}
	return s.settle(gstin, period, out)
}

func (s *filingService) AttachProfile(ctx context.Context, gstin, period string) (filing.Outcome, error) {
	return s.mutate(ctx, gstin, period, func(ctx context.Context, repos port.Repos, f *domain.Filing, _ []string) (filing.Outcome, error) {
		profile, err := repos.Profiles.GetByGSTIN(ctx, f.GSTIN)
		if err != nil {
			return filing.Outcome{}, err
		}
		return s.machine.ValidateProfile(f, profile), nil
	})
}

func (s *filingService) AddInvoice(ctx context.Context, gstin, period string, inv domain.Invoice) (filing.Outcome, error) {
	return s.mutate(ctx, gstin, period, func(_ context.Context, _ port.Repos, f *domain.Filing, _ []string) (filing.Outcome, error) {
		return s.machine.AddInvoice(f, inv), nil
	})
}

func (s *filingService) DeleteInvoice(ctx context.Context, gstin, period, number string) (filing.Outcome, error) {
	return s.mutate(ctx, gstin, period, func(_ context.Context, _ port.Repos, f *domain.Filing, _ []string) (filing.Outcome, error) {
		return s.machine.DeleteInvoice(f, number), nil
	})
}

func (s *filingService) SetNil(ctx context.Context, gstin, period string, isNil bool) (filing.Outcome, error) {
	return s.mutate(ctx, gstin, period, func(_ context.Context, _ port.Repos, f *domain.Filing, _ []string) (filing.Outcome, error) {
		return s.machine.SetNilDeclaration(f, isNil), nil
	})
}

func (s *filingService) ValidateDetailedReturn(ctx context.Context, gstin, period string) (filing.Outcome, error) {
	return s.mutate(ctx, gstin, period, func(_ context.Context, _ port.Repos, f *domain.Filing, _ []string) (filing.Outcome, error) {
		return s.machine.ValidateDetailedReturn(f), nil
	})
}

func (s *filingService) GenerateSummaryReturn(ctx context.Context, gstin, period string, itc domain.ITCInput) (filing.Outcome, error) {
	return s.mutate(ctx, gstin, period, func(_ context.Context, _ port.Repos, f *domain.Filing, _ []string) (filing.Outcome, error) {
		return s.machine.GenerateSummaryReturn(f, itc), nil
	})
}

func (s *filingService) ValidateSummaryReturn(ctx context.Context, gstin, period string, submitted *domain.SummaryReturn) (filing.Outcome, error) {
	return s.mutate(ctx, gstin, period, func(_ context.Context, _ port.Repos, f *domain.Filing, _ []string) (filing.Outcome, error) {
		return s.machine.ValidateSummaryReturn(f, submitted), nil
	})
}

func (s *filingService) PreparePreview(ctx context.Context, gstin, period string) (filing.Outcome, *filing.Preview, error) {
	var preview *filing.Preview
	out, err := s.mutate(ctx, gstin, period, func(_ context.Context, _ port.Repos, f *domain.Filing, filed []string) (filing.Outcome, error) {
		var o filing.Outcome
		o, preview = s.machine.PreparePreview(f, filed)
		return o, nil
	})
	return out, preview, err
}

func (s *filingService) Export(ctx context.Context, gstin, period string) (filing.Outcome, *filing.ExportBundle, error) {
	var bundle *filing.ExportBundle
	out, err := s.mutate(ctx, gstin, period, func(_ context.Context, _ port.Repos, f *domain.Filing, _ []string) (filing.Outcome, error) {
		var o filing.Outcome
		o, bundle = s.machine.Export(f)
		return o, nil
	})
	if err == nil && s.archive != nil && bundle != nil && out.Filing != nil {
		// The export is already committed; a failed archive only loses the copy.
		objects, aerr := s.archive.Archive(ctx, out.Filing, bundle)
		if aerr != nil {
			s.log.Warn().Err(aerr).Str("gstin", out.Filing.GSTIN).Str("period", out.Filing.Period).
				Msg("export archive failed")
		}
		bundle.Archived = objects
	}
	return out, bundle, err
}

func (s *filingService) ValidateComplete(ctx context.Context, gstin, period string) (*filing.ComprehensiveResult, error) {
	gstin, period, err := filingKey(gstin, period)
	if err != nil {
		return nil, err
	}
	var res filing.ComprehensiveResult
	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos port.Repos) error {
		f, filed, err := load(ctx, repos, gstin, period, false)
		if err != nil {
			return err
		}
		res = s.machine.ValidateComplete(f, otherPeriods(filed, period))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *filingService) MarkFiled(ctx context.Context, gstin, period string) (filing.Outcome, *filing.ComprehensiveResult, error) {
	var res filing.ComprehensiveResult
	out, err := s.mutate(ctx, gstin, period, func(_ context.Context, _ port.Repos, f *domain.Filing, filed []string) (filing.Outcome, error) {
		var o filing.Outcome
		o, res = s.machine.MarkFiled(f, filed)
		return o, nil
	})
	if err != nil && !errors.Is(err, domain.ErrValidationFailed) {
		return out, nil, err
	}
	return out, &res, err
}

func (s *filingService) ReconcilePurchases(_ context.Context, books, reported []domain.PurchaseRecord) gst.PurchaseMatch {
	return s.machine.Engine().ReconcilePurchases(books, reported)
}

// operation runs one machine operation against the locked filing.
type operation func(ctx context.Context, repos port.Repos, f *domain.Filing, filed []string) (filing.Outcome, error)

// mutate serializes on (GSTIN, period), loads the filing under a row lock,
// runs op and writes the outcome in the same transaction. A rejected
// operation only writes a state regression.
func (s *filingService) mutate(ctx context.Context, gstin, period string, op operation) (filing.Outcome, error) {
	gstin, period, err := filingKey(gstin, period)
	if err != nil {
		return filing.Outcome{}, err
	}
	unlock := s.locks.Lock(gstin + "/" + period)
	defer unlock()

	var out filing.Outcome
	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos port.Repos) error {
		f, filed, err := load(ctx, repos, gstin, period, true)
		if err != nil {
			return err
		}
		out, err = op(ctx, repos, f, otherPeriods(filed, period))
		if err != nil {
			return err
		}
		return persist(ctx, repos, f, out)
	})
	if err != nil {
		return filing.Outcome{}, err
	}
	return s.settle(gstin, period, out)
}

func (s *filingService) settle(gstin, period string, out filing.Outcome) (filing.Outcome, error) {
	if !out.Accepted {
		s.log.Warn().
			Str("gstin", gstin).
			Str("period", period).
			Str("operation", string(out.Op)).
			Str("from", string(out.From)).
			Str("to", string(out.To)).
			Int("blockers", len(out.Errors.Blockers())).
			Msg("operation rejected")
		return out, domain.ErrValidationFailed
	}
	s.log.Info().
		Str("gstin", gstin).
		Str("period", period).
		Str("operation", string(out.Op)).
		Str("from", string(out.From)).
		Str("to", string(out.To)).
		Msg("filing transition")
	return out, nil
}

func load(ctx context.Context, repos port.Repos, gstin, period string, lock bool) (*domain.Filing, []string, error) {
	var f *domain.Filing
	var err error
	if lock {
		f, err = repos.Filings.GetForUpdate(ctx, gstin, period)
	} else {
		f, err = repos.Filings.GetByKey(ctx, gstin, period)
	}
	if err != nil {
		return nil, nil, err
	}
	if f.Invoices, err = repos.Invoices.ListByFiling(ctx, f.ID); err != nil {
		return nil, nil, err
	}
	profile, err := repos.Profiles.GetByGSTIN(ctx, gstin)
	switch {
	case errors.Is(err, domain.ErrProfileNotFound):
	case err != nil:
		return nil, nil, err
	case f.State != domain.StateProfileIncomplete:
		f.Profile = profile
	}
	filed, err := repos.Filings.ListFiledPeriods(ctx, gstin)
	if err != nil {
		return nil, nil, err
	}
	return f, filed, nil
}

// otherPeriods drops the filing's own period so a filed period is not
// reported as a duplicate of itself.
func otherPeriods(filed []string, period string) []string {
	out := make([]string, 0, len(filed))
	for _, p := range filed {
		if p != period {
			out = append(out, p)
		}
	}
	return out
}

// persist writes an accepted outcome, or the regressed state of a rejected one.
func persist(ctx context.Context, repos port.Repos, before *domain.Filing, out filing.Outcome) error {
	if !out.Accepted && !out.Regressed() {
		return nil
	}
	if out.Accepted && invoicesChanged(before.Invoices, out.Filing.Invoices) {
		if err := repos.Invoices.ReplaceForFiling(ctx, out.Filing.ID, out.Filing.Invoices); err != nil {
			return err
		}
	}
	return repos.Filings.Update(ctx, out.Filing)
}

func invoicesChanged(before, after []domain.Invoice) bool {
	if len(before) != len(after) {
		return true
	}
	for i := range before {
		if before[i].ID != after[i].ID {
			return true
		}
	}
	return false
}
