package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/LeventeLantos/church-messaging/internal/model"
	"github.com/LeventeLantos/church-messaging/internal/repo"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var ErrIncompleteLog = errors.New("delivery log requires message_id and recipient_id")

// LogWriter appends one message_logs row per delivery attempt.
type LogWriter struct {
	logs repo.LogRepository
	now  func() time.Time
	log  logrus.FieldLogger
}

func NewLogWriter(logs repo.LogRepository, log logrus.FieldLogger) *LogWriter {
	return &LogWriter{logs: logs, now: time.Now, log: log}
}

func (w *LogWriter) Write(ctx context.Context, entry model.DeliveryLog) error {
	if entry.MessageID == uuid.Nil || entry.RecipientID == uuid.Nil {
		w.log.WithFields(logrus.Fields{
			"message_id":   entry.MessageID,
			"recipient_id": entry.RecipientID,
		}).Error("dropping delivery log without ids")
		return ErrIncompleteLog
	}

	if !entry.Status.Valid() {
		entry.Status = model.LogPending
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.SentAt.IsZero() {
		entry.SentAt = w.now()
	}

	if err := w.logs.Insert(ctx, entry); err != nil {
		return fmt.Errorf("insert delivery log: %w", err)
	}
	return nil
}
