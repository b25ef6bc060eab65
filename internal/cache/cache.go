package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SentCache remembers which message/recipient pairs were sent on a given day.
// It only short-circuits lookups; message_logs stays the source of truth.
type SentCache interface {
	WasSent(ctx context.Context, messageID, recipientID uuid.UUID, day string) (bool, error)
	StoreSent(ctx context.Context, messageID, recipientID uuid.UUID, day, remoteMessageID string, sentAt time.Time) error
}

type Noop struct{}

func (Noop) WasSent(context.Context, uuid.UUID, uuid.UUID, string) (bool, error) {
	return false, nil
}

func (Noop) StoreSent(context.Context, uuid.UUID, uuid.UUID, string, string, time.Time) error {
	return nil
}
