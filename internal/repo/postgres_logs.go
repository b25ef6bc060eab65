package repo

import (
	"context"
	"time"

	"github.com/LeventeLantos/church-messaging/internal/model"
	"github.com/google/uuid"
)

type PostgresLogRepo struct {
	db DB
}

func NewPostgresLogRepo(db DB) *PostgresLogRepo {
	return &PostgresLogRepo{db: db}
}

func (r *PostgresLogRepo) Insert(ctx context.Context, e model.DeliveryLog) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO message_logs (id, message_id, recipient_id, status, error_message, provider_message_id, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, e.ID, e.MessageID, e.RecipientID, string(e.Status), e.ErrorMessage, e.ProviderMessageID, e.SentAt.UTC())
	return err
}

func (r *PostgresLogRepo) HasSentBetween(ctx context.Context, messageID, recipientID uuid.UUID, from, to time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM message_logs
			WHERE message_id = $1
			  AND recipient_id = $2
			  AND status = 'sent'
			  AND sent_at >= $3
			  AND sent_at < $4
		)
	`, messageID, recipientID, from.UTC(), to.UTC()).Scan(&exists)
	return exists, err
}

func (r *PostgresLogRepo) ListByMessage(ctx context.Context, messageID uuid.UUID, limit, offset int) ([]model.DeliveryLog, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, message_id, recipient_id, status, error_message, provider_message_id, sent_at
		FROM message_logs
		WHERE message_id = $1
		ORDER BY sent_at DESC
		LIMIT $2 OFFSET $3
	`, messageID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.DeliveryLog
	for rows.Next() {
		var e model.DeliveryLog
		var status string
		if err := rows.Scan(
			&e.ID,
			&e.MessageID,
			&e.RecipientID,
			&status,
			&e.ErrorMessage,
			&e.ProviderMessageID,
			&e.SentAt,
		); err != nil {
			return nil, err
		}
		e.Status = model.LogStatus(status)
		out = append(out, e)
	}
	return out, rows.Err()
}
