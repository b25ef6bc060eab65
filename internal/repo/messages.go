package repo

import (
	"context"
	"errors"
	"time"

	"github.com/LeventeLantos/church-messaging/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrNotFound = errors.New("record not found")

// DB is the subset of pgxpool.Pool used by the repositories.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type MessageRepository interface {
	ListDue(ctx context.Context, now time.Time, limit int, onlyID *uuid.UUID) ([]model.Message, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.MessageStatus, errMsg *string) error
	Reschedule(ctx context.Context, id uuid.UUID, next time.Time) error
	ResetProcessing(ctx context.Context, id uuid.UUID) (bool, error)
}

type RecipientRepository interface {
	ListByMessage(ctx context.Context, messageID uuid.UUID) ([]model.RecipientRef, error)
}

type MemberRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (model.Member, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Member, error)
	ListGroupMemberIDs(ctx context.Context, groupID uuid.UUID) ([]uuid.UUID, error)
	ListByGroupFK(ctx context.Context, groupID uuid.UUID) ([]model.Member, error)
}

type LogRepository interface {
	Insert(ctx context.Context, entry model.DeliveryLog) error
	HasSentBetween(ctx context.Context, messageID, recipientID uuid.UUID, from, to time.Time) (bool, error)
	ListByMessage(ctx context.Context, messageID uuid.UUID, limit, offset int) ([]model.DeliveryLog, error)
}

type SMSConfigRepository interface {
	GetDefault(ctx context.Context) (model.SMSConfig, error)
}
