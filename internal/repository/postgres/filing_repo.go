package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"gstfiling/internal/domain"
	"gstfiling/internal/port"
)

// filingRow is the filings table layout; aggregates live in JSONB columns.
type filingRow struct {
	ID           uuid.UUID           `db:"id"`
	GSTIN        string              `db:"gstin"`
	Period       string              `db:"period"`
	State        domain.FilingState  `db:"state"`
	PeriodStatus domain.PeriodStatus `db:"period_status"`
	DeclaredNil  bool                `db:"declared_nil"`
	Detailed     []byte              `db:"detailed_return"`
	Summary      []byte              `db:"summary_return"`
	ITC          []byte              `db:"itc"`
	ValidatedAt  *time.Time          `db:"validated_at"`
	ExportedAt   *time.Time          `db:"exported_at"`
	FiledAt      *time.Time          `db:"filed_at"`
	Version      int                 `db:"version"`
	CreatedAt    time.Time           `db:"created_at"`
	UpdatedAt    time.Time           `db:"updated_at"`
}

func toRow(f *domain.Filing) (*filingRow, error) {
	row := &filingRow{
		ID:           f.ID,
		GSTIN:        f.GSTIN,
		Period:       f.Period,
		State:        f.State,
		PeriodStatus: f.PeriodStatus,
		DeclaredNil:  f.DeclaredNil,
		ValidatedAt:  f.ValidatedAt,
		ExportedAt:   f.ExportedAt,
		FiledAt:      f.FiledAt,
		Version:      f.Version,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
	var err error
	if f.Detailed != nil {
		if row.Detailed, err = json.Marshal(f.Detailed); err != nil {
			return nil, err
		}
	}
	if f.Summary != nil {
		if row.Summary, err = json.Marshal(f.Summary); err != nil {
			return nil, err
		}
	}
	if row.ITC, err = json.Marshal(f.ITC); err != nil {
		return nil, err
	}
	return row, nil
}

func (row *filingRow) toDomain() (*domain.Filing, error) {
	f := &domain.Filing{
		ID:           row.ID,
		GSTIN:        row.GSTIN,
		Period:       row.Period,
		State:        row.State,
		PeriodStatus: row.PeriodStatus,
		DeclaredNil:  row.DeclaredNil,
		ValidatedAt:  row.ValidatedAt,
		ExportedAt:   row.ExportedAt,
		FiledAt:      row.FiledAt,
		Version:      row.Version,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
	if len(row.Detailed) > 0 {
		f.Detailed = &domain.DetailedReturn{}
		if err := json.Unmarshal(row.Detailed, f.Detailed); err != nil {
			return nil, fmt.Errorf("decoding detailed_return: %w", err)
		}
	}
	if len(row.Summary) > 0 {
		f.Summary = &domain.SummaryReturn{}
		if err := json.Unmarshal(row.Summary, f.Summary); err != nil {
			return nil, fmt.Errorf("decoding summary_return: %w", err)
		}
	}
	if len(row.ITC) > 0 {
		if err := json.Unmarshal(row.ITC, &f.ITC); err != nil {
			return nil, fmt.Errorf("decoding itc: %w", err)
		}
	}
	return f, nil
}

type filingRepo struct {
	db sqlx.ExtContext
}

// NewFilingRepo creates a new PostgreSQL-backed FilingRepository.
func NewFilingRepo(db sqlx.ExtContext) port.FilingRepository {
	return &filingRepo{db: db}
}

func (r *filingRepo) Create(ctx context.Context, filing *domain.Filing) error {
	filing.ID = uuid.New()
	now := time.Now().UTC()
	filing.CreatedAt = now
	filing.UpdatedAt = now
	filing.Version = 1

	row, err := toRow(filing)
	if err != nil {
		return fmt.Errorf("filingRepo.Create: %w", err)
	}

	query := `INSERT INTO filings (id, gstin, period, state, period_status, declared_nil,
			detailed_return, summary_return, itc, validated_at, exported_at, filed_at,
			version, created_at, updated_at)
		VALUES (:id, :gstin, :period, :state, :period_status, :declared_nil,
			:detailed_return, :summary_return, :itc, :validated_at, :exported_at, :filed_at,
			:version, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, r.db, query, row); err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return domain.ErrFilingExists
		}
		return fmt.Errorf("filingRepo.Create: %w", err)
	}
	return nil
}

func (r *filingRepo) GetByKey(ctx context.Context, gstin, period string) (*domain.Filing, error) {
	return r.get(ctx, "filingRepo.GetByKey",
		"SELECT * FROM filings WHERE gstin = $1 AND period = $2", gstin, period)
}

func (r *filingRepo) GetForUpdate(ctx context.Context, gstin, period string) (*domain.Filing, error) {
	return r.get(ctx, "filingRepo.GetForUpdate",
		"SELECT * FROM filings WHERE gstin = $1 AND period = $2 FOR UPDATE", gstin, period)
}

func (r *filingRepo) get(ctx context.Context, op, query string, args ...interface{}) (*domain.Filing, error) {
	var row filingRow
	if err := sqlx.GetContext(ctx, r.db, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrFilingNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	f, err := row.toDomain()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return f, nil
}

func (r *filingRepo) Update(ctx context.Context, filing *domain.Filing) error {
	row, err := toRow(filing)
	if err != nil {
		return fmt.Errorf("filingRepo.Update: %w", err)
	}

	query := `UPDATE filings SET state = :state, period_status = :period_status,
			declared_nil = :declared_nil, detailed_return = :detailed_return,
			summary_return = :summary_return, itc = :itc, validated_at = :validated_at,
			exported_at = :exported_at, filed_at = :filed_at,
			version = version + 1, updated_at = :updated_at
		WHERE id = :id AND version = :version`

	result, err := sqlx.NamedExecContext(ctx, r.db, query, row)
	if err != nil {
		return fmt.Errorf("filingRepo.Update: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("filingRepo.Update: %w", err)
	}
	if rows == 0 {
		return domain.ErrConflict
	}
	filing.Version++
	return nil
}

func (r *filingRepo) ListFiledPeriods(ctx context.Context, gstin string) ([]string, error) {
	var periods []string
	err := sqlx.SelectContext(ctx, r.db, &periods,
		"SELECT period FROM filings WHERE gstin = $1 AND period_status = $2 ORDER BY period",
		gstin, domain.PeriodFiled)
	if err != nil {
		return nil, fmt.Errorf("filingRepo.ListFiledPeriods: %w", err)
	}
	return periods, nil
}
