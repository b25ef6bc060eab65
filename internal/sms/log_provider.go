package sms

import (
	"context"

	"github.com/LeventeLantos/church-messaging/internal/model"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// LogProvider only logs outgoing messages. Used for local development.
type LogProvider struct {
	log logrus.FieldLogger
}

func NewLogProvider(log logrus.FieldLogger) *LogProvider {
	return &LogProvider{log: log}
}

func (p *LogProvider) Send(ctx context.Context, cfg model.SMSConfig, phoneNumber, message, senderID string) (string, error) {
	id := uuid.NewString()
	p.log.WithFields(logrus.Fields{
		"provider_message_id": id,
		"phone":               phoneNumber,
		"sender_id":           senderID,
		"length":              len([]rune(message)),
	}).Info("sms (log provider)")
	return id, nil
}
