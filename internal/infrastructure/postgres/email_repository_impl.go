package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pdgmail/pdgmail/internal/domain/entity"
	"github.com/pdgmail/pdgmail/internal/domain/repository"
)

const emailColumns = `id, subject, body, sender_id, recipient, is_sent, is_draft, is_archived, is_deleted, created_at, updated_at`

type EmailRepository struct {
	pool *pgxpool.Pool
}

func NewEmailRepository(pool *pgxpool.Pool) *EmailRepository {
	return &EmailRepository{pool: pool}
}

func (r *EmailRepository) Create(e *entity.Email) error {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO emails (subject, body, sender_id, recipient, is_sent, is_draft, is_archived, is_deleted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`, e.Subject, e.Body, e.SenderID, e.Recipient, e.IsSent, e.IsDraft, e.IsArchived, e.IsDeleted)

	return row.Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
}

func scanEmail(row pgx.Row) (*entity.Email, error) {
	e := &entity.Email{}
	if err := row.Scan(&e.ID, &e.Subject, &e.Body, &e.SenderID, &e.Recipient,
		&e.IsSent, &e.IsDraft, &e.IsArchived, &e.IsDeleted,
		&e.CreatedAt, &e.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errNotFound
		}
		return nil, err
	}
	return e, nil
}

func (r *EmailRepository) GetByID(id string) (*entity.Email, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx, `
		SELECT `+emailColumns+`
		FROM emails
		WHERE id = $1
	`, id)
	return scanEmail(row)
}

func (r *EmailRepository) Update(e *entity.Email) error {
	ctx := context.Background()
	e.UpdatedAt = time.Now()

	res, err := r.pool.Exec(ctx, `
		UPDATE emails
		SET subject = $1, body = $2, is_sent = $3, is_draft = $4, is_archived = $5, is_deleted = $6, updated_at = $7
		WHERE id = $8
	`, e.Subject, e.Body, e.IsSent, e.IsDraft, e.IsArchived, e.IsDeleted, e.UpdatedAt, e.ID)
	if err != nil {
		return err
	}

	if res.RowsAffected() == 0 {
		return errNotFound
	}

	return nil
}

func (r *EmailRepository) Delete(id, senderID string) (bool, error) {
	ctx := context.Background()
	res, err := r.pool.Exec(ctx, `
		DELETE FROM emails
		WHERE id = $1 AND sender_id = $2
	`, id, senderID)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

func (r *EmailRepository) list(query string, args ...any) ([]*entity.Email, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*entity.Email, 0)
	for rows.Next() {
		e := &entity.Email{}
		if err := rows.Scan(&e.ID, &e.Subject, &e.Body, &e.SenderID, &e.Recipient,
			&e.IsSent, &e.IsDraft, &e.IsArchived, &e.IsDeleted,
			&e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *EmailRepository) ListInbox(recipient string, limit, offset int) ([]*entity.Email, error) {
	return r.list(`
		SELECT `+emailColumns+`
		FROM emails
		WHERE recipient = $1 AND NOT is_deleted
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, recipient, limit, offset)
}

func (r *EmailRepository) ListSent(senderID string, limit, offset int) ([]*entity.Email, error) {
	return r.list(`
		SELECT `+emailColumns+`
		FROM emails
		WHERE sender_id = $1 AND is_sent AND NOT is_deleted
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, senderID, limit, offset)
}

func (r *EmailRepository) ListDrafts(senderID string, limit, offset int) ([]*entity.Email, error) {
	return r.list(`
		SELECT `+emailColumns+`
		FROM emails
		WHERE sender_id = $1 AND is_draft AND NOT is_deleted
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, senderID, limit, offset)
}

func (r *EmailRepository) ListArchived(senderID string, limit, offset int) ([]*entity.Email, error) {
	return r.list(`
		SELECT `+emailColumns+`
		FROM emails
		WHERE sender_id = $1 AND is_archived AND NOT is_deleted
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, senderID, limit, offset)
}

// ListTrash ignores the archived flag: an archived email that was trashed
// still belongs in trash.
func (r *EmailRepository) ListTrash(senderID string, limit, offset int) ([]*entity.Email, error) {
	return r.list(`
		SELECT `+emailColumns+`
		FROM emails
		WHERE sender_id = $1 AND is_deleted
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, senderID, limit, offset)
}

func (r *EmailRepository) Counts(senderID, recipient string) (repository.EmailCounts, error) {
	ctx := context.Background()
	var c repository.EmailCounts
	row := r.pool.QueryRow(ctx, `
		SELECT
			count(*) FILTER (WHERE recipient = $2 AND NOT is_deleted),
			count(*) FILTER (WHERE sender_id = $1 AND is_sent AND NOT is_deleted),
			count(*) FILTER (WHERE sender_id = $1 AND is_draft AND NOT is_deleted),
			count(*) FILTER (WHERE sender_id = $1 AND is_archived AND NOT is_deleted),
			count(*) FILTER (WHERE sender_id = $1 AND is_deleted)
		FROM emails
		WHERE sender_id = $1 OR recipient = $2
	`, senderID, recipient)
	if err := row.Scan(&c.Inbox, &c.Sent, &c.Drafts, &c.Archived, &c.Trash); err != nil {
		return repository.EmailCounts{}, err
	}
	return c, nil
}

var _ repository.EmailRepository = (*EmailRepository)(nil)
