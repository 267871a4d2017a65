package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pdgmail/pdgmail/internal/domain/entity"
	"github.com/pdgmail/pdgmail/internal/domain/repository"
)

type NewsletterRepository struct {
	pool *pgxpool.Pool
}

func NewNewsletterRepository(pool *pgxpool.Pool) *NewsletterRepository {
	return &NewsletterRepository{pool: pool}
}

func (r *NewsletterRepository) Create(n *entity.Newsletter) error {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO newsletters (title, content, owner_id, campaign_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, n.Title, n.Content, n.OwnerID, n.CampaignID)

	return row.Scan(&n.ID, &n.CreatedAt)
}

func (r *NewsletterRepository) GetByID(id string) (*entity.Newsletter, error) {
	ctx := context.Background()
	n := &entity.Newsletter{}

	row := r.pool.QueryRow(ctx, `
		SELECT id, title, content, owner_id, campaign_id, created_at
		FROM newsletters
		WHERE id = $1
	`, id)

	if err := row.Scan(&n.ID, &n.Title, &n.Content, &n.OwnerID, &n.CampaignID, &n.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errNotFound
		}
		return nil, err
	}

	return n, nil
}

func (r *NewsletterRepository) SetCampaignID(id, campaignID string) error {
	ctx := context.Background()
	res, err := r.pool.Exec(ctx, `
		UPDATE newsletters
		SET campaign_id = $1
		WHERE id = $2
	`, campaignID, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return errNotFound
	}
	return nil
}

var _ repository.NewsletterRepository = (*NewsletterRepository)(nil)
