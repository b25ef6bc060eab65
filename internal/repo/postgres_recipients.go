package repo

import (
	"context"

	"github.com/LeventeLantos/church-messaging/internal/model"
	"github.com/google/uuid"
)

type PostgresRecipientRepo struct {
	db DB
}

func NewPostgresRecipientRepo(db DB) *PostgresRecipientRepo {
	return &PostgresRecipientRepo{db: db}
}

func (r *PostgresRecipientRepo) ListByMessage(ctx context.Context, messageID uuid.UUID) ([]model.RecipientRef, error) {
	rows, err := r.db.Query(ctx, `
		SELECT message_id, recipient_id, recipient_type
		FROM message_recipients
		WHERE message_id = $1
	`, messageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RecipientRef
	for rows.Next() {
		var ref model.RecipientRef
		var recipientType string
		if err := rows.Scan(&ref.MessageID, &ref.RecipientID, &recipientType); err != nil {
			return nil, err
		}
		ref.RecipientType = model.RecipientType(recipientType)
		out = append(out, ref)
	}
	return out, rows.Err()
}
