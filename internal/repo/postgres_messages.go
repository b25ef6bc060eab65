package repo

import (
	"context"
	"errors"
	"time"

	"github.com/LeventeLantos/church-messaging/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const messageColumns = `id, name, content, status, frequency, schedule_time, end_date, type, error_message`

type PostgresMessageRepo struct {
	db DB
}

func NewPostgresMessageRepo(db DB) *PostgresMessageRepo {
	return &PostgresMessageRepo{db: db}
}

func (r *PostgresMessageRepo) ListDue(ctx context.Context, now time.Time, limit int, onlyID *uuid.UUID) ([]model.Message, error) {
	if limit <= 0 {
		return nil, errors.New("limit must be > 0")
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+messageColumns+`
		FROM messages
		WHERE status IN ('active', 'scheduled')
		  AND type IS DISTINCT FROM 'birthday'
		  AND schedule_time <= $1
		  AND ($2::uuid IS NULL OR id = $2)
		ORDER BY schedule_time ASC
		LIMIT $3
	`, now.UTC(), onlyID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []model.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (r *PostgresMessageRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status model.MessageStatus, errMsg *string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE messages
		SET status = $2,
		    error_message = $3,
		    updated_at = now()
		WHERE id = $1
	`, id, string(status), errMsg)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresMessageRepo) Reschedule(ctx context.Context, id uuid.UUID, next time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE messages
		SET schedule_time = $2,
		    status = 'scheduled',
		    error_message = NULL,
		    updated_at = now()
		WHERE id = $1
	`, id, next.UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresMessageRepo) ResetProcessing(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE messages
		SET status = 'scheduled',
		    updated_at = now()
		WHERE id = $1 AND status = 'processing'
	`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanMessage(row pgx.Row) (model.Message, error) {
	var (
		m         model.Message
		status    string
		frequency string
		msgType   *string
	)
	if err := row.Scan(
		&m.ID,
		&m.Name,
		&m.Content,
		&status,
		&frequency,
		&m.ScheduleTime,
		&m.EndDate,
		&msgType,
		&m.ErrorMessage,
	); err != nil {
		return model.Message{}, err
	}
	m.Status = model.MessageStatus(status)
	m.Frequency = model.Frequency(frequency)
	if msgType != nil {
		m.Type = *msgType
	}
	return m, nil
}
