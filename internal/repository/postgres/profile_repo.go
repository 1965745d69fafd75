package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"gstfiling/internal/domain"
	"gstfiling/internal/port"
)

type profileRepo struct {
	db sqlx.ExtContext
}

// NewProfileRepo creates a new PostgreSQL-backed ProfileRepository.
func NewProfileRepo(db sqlx.ExtContext) port.ProfileRepository {
	return &profileRepo{db: db}
}

func (r *profileRepo) Upsert(ctx context.Context, profile *domain.Profile) error {
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	now := time.Now().UTC()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now

	query := `INSERT INTO profiles (id, gstin, legal_name, trade_name, registration_category,
			filing_frequency, is_complete, created_at, updated_at)
		VALUES (:id, :gstin, :legal_name, :trade_name, :registration_category,
			:filing_frequency, :is_complete, :created_at, :updated_at)
		ON CONFLICT (gstin) DO UPDATE SET
			legal_name = EXCLUDED.legal_name,
			trade_name = EXCLUDED.trade_name,
			registration_category = EXCLUDED.registration_category,
			filing_frequency = EXCLUDED.filing_frequency,
			is_complete = EXCLUDED.is_complete,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at`

	q, args, err := r.db.BindNamed(query, profile)
	if err != nil {
		return fmt.Errorf("profileRepo.Upsert: %w", err)
	}
	row := r.db.QueryRowxContext(ctx, q, args...)
	if err := row.Scan(&profile.ID, &profile.CreatedAt); err != nil {
		return fmt.Errorf("profileRepo.Upsert: %w", err)
	}
	return nil
}

func (r *profileRepo) GetByGSTIN(ctx context.Context, gstin string) (*domain.Profile, error) {
	var profile domain.Profile
	err := sqlx.GetContext(ctx, r.db, &profile, "SELECT * FROM profiles WHERE gstin = $1", gstin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("profileRepo.GetByGSTIN: %w", err)
	}
	return &profile, nil
}
