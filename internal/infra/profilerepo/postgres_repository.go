package profilerepo

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wanderpaws/wanderpaws/internal/domain/chatbuilder"
	"github.com/wanderpaws/wanderpaws/internal/domain/trip"
)

// PostgresRepository persists user learned preferences using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// LoadPreferences returns the stored preference list for a user.
func (r *PostgresRepository) LoadPreferences(ctx context.Context, userID string) ([]trip.LearnedPreference, error) {
	var payload []byte
	err := r.pool.QueryRow(ctx, `
		SELECT learned_preferences
		FROM user_profiles
		WHERE user_id = $1
		LIMIT 1
	`, userID).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	var prefs []trip.LearnedPreference
	if err := json.Unmarshal(payload, &prefs); err != nil {
		return nil, err
	}
	return prefs, nil
}

// SavePreferences upserts the full preference list for a user.
func (r *PostgresRepository) SavePreferences(ctx context.Context, userID string, prefs []trip.LearnedPreference) error {
	payload, err := json.Marshal(prefs)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO user_profiles (user_id, learned_preferences)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET learned_preferences = EXCLUDED.learned_preferences
	`, userID, payload)
	return err
}

var _ chatbuilder.ProfileRepository = (*PostgresRepository)(nil)
