package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/radiusdt/vector-attribution/internal/models"
)

// PostgresCostRepo implements CostRepo using PostgreSQL.
type PostgresCostRepo struct {
	pool *pgxpool.Pool
}

// NewPostgresCostRepo creates a new PostgreSQL-backed cost repo.
func NewPostgresCostRepo(pool *pgxpool.Pool) *PostgresCostRepo {
	return &PostgresCostRepo{pool: pool}
}

// Upsert writes the spend row for (channel_id, cost_date), replacing any
// existing amount.
func (r *PostgresCostRepo) Upsert(ctx context.Context, c *models.ChannelCost) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO channel_costs (channel_id, cost_date, cost_amount)
		VALUES ($1, $2::date, $3)
		ON CONFLICT (channel_id, cost_date) DO UPDATE SET cost_amount = EXCLUDED.cost_amount
	`, c.ChannelID, c.CostDate, c.CostAmount)
	if err != nil {
		return fmt.Errorf("failed to upsert channel cost: %w", err)
	}
	return nil
}

// List returns cost rows with cost_date in [start, end), optionally
// filtered to one channel.
func (r *PostgresCostRepo) List(ctx context.Context, start, end time.Time, channelID string) ([]*models.ChannelCost, error) {
	query := `
		SELECT channel_id, cost_date, cost_amount
		FROM channel_costs
		WHERE cost_date >= $1 AND cost_date < $2`
	args := []interface{}{start, end}
	if channelID != "" {
		query += ` AND channel_id = $3`
		args = append(args, channelID)
	}
	query += ` ORDER BY cost_date ASC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list channel costs: %w", err)
	}
	defer rows.Close()

	var costs []*models.ChannelCost
	for rows.Next() {
		var c models.ChannelCost
		if err := rows.Scan(&c.ChannelID, &c.CostDate, &c.CostAmount); err != nil {
			return nil, err
		}
		costs = append(costs, &c)
	}
	return costs, rows.Err()
}
