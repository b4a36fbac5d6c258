package policyrepo

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wanderpaws/wanderpaws/internal/domain/itinerary"
	"github.com/wanderpaws/wanderpaws/internal/domain/trip"
)

// PostgresRepository reads pet policy records using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// FindBySlug fetches the entry requirements for a destination country slug.
func (r *PostgresRepository) FindBySlug(ctx context.Context, slug string) ([]trip.PolicyRequirementStep, bool, error) {
	var payload []byte
	err := r.pool.QueryRow(ctx, `
		SELECT entry_requirements
		FROM pet_policies
		WHERE slug = $1
		LIMIT 1
	`, slug).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var steps []trip.PolicyRequirementStep
	if err := json.Unmarshal(payload, &steps); err != nil {
		return nil, false, err
	}
	return steps, true, nil
}

var _ itinerary.PolicyRepository = (*PostgresRepository)(nil)
