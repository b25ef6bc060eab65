package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/LeventeLantos/church-messaging/internal/cache"
	"github.com/LeventeLantos/church-messaging/internal/metrics"
	"github.com/LeventeLantos/church-messaging/internal/model"
	"github.com/LeventeLantos/church-messaging/internal/repo"
	"github.com/LeventeLantos/church-messaging/internal/sms"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type SMSGateway interface {
	DefaultConfig(ctx context.Context) (model.SMSConfig, error)
	SendWithConfig(ctx context.Context, cfg model.SMSConfig, phoneNumber, message, senderID string) (string, error)
}

type PhoneNormalizer interface {
	Normalize(raw string) (string, error)
}

// Deliverer sends one message to one member and records the attempt.
type Deliverer struct {
	gateway SMSGateway
	phones  PhoneNormalizer
	logs    repo.LogRepository
	sent    cache.SentCache
	writer  *LogWriter
	loc     *time.Location
	now     func() time.Time
	log     logrus.FieldLogger
}

func NewDeliverer(
	gateway SMSGateway,
	phones PhoneNormalizer,
	logs repo.LogRepository,
	sent cache.SentCache,
	loc *time.Location,
	log logrus.FieldLogger,
) *Deliverer {
	if sent == nil {
		sent = cache.Noop{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Deliverer{
		gateway: gateway,
		phones:  phones,
		logs:    logs,
		sent:    sent,
		writer:  NewLogWriter(logs, log),
		loc:     loc,
		now:     time.Now,
		log:     log,
	}
}

func (d *Deliverer) Deliver(ctx context.Context, msg model.Message, member model.Member) model.MemberDelivery {
	res := d.deliver(ctx, msg, member)
	metrics.Deliveries.WithLabelValues(string(res.Status)).Inc()
	return res
}

func (d *Deliverer) deliver(ctx context.Context, msg model.Message, member model.Member) model.MemberDelivery {
	res := model.MemberDelivery{
		MemberID: member.ID,
		Name:     member.FullName(),
		Phone:    member.PrimaryPhoneNumber,
	}
	log := d.log.WithFields(logrus.Fields{
		"message_id":   msg.ID,
		"recipient_id": member.ID,
	})

	phone, err := d.phones.Normalize(member.PrimaryPhoneNumber)
	if err != nil {
		return d.fail(ctx, msg, res, fmt.Sprintf("Invalid phone number format: %s", member.PrimaryPhoneNumber))
	}
	res.Phone = phone

	now := d.now().In(d.loc)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, d.loc)
	day := dayStart.Format(time.DateOnly)

	already, err := d.sentToday(ctx, msg.ID, member.ID, day, dayStart)
	if err != nil {
		return d.fail(ctx, msg, res, fmt.Sprintf("check delivery history: %v", err))
	}
	if already {
		res.Status = model.DeliverySkipped
		res.Reason = ReasonAlreadySent
		log.Info("already sent today, skipping")
		return res
	}

	cfg, err := d.gateway.DefaultConfig(ctx)
	if errors.Is(err, sms.ErrNoDefaultConfig) {
		return d.fail(ctx, msg, res, ReasonNoProvider)
	}
	if err != nil {
		return d.fail(ctx, msg, res, err.Error())
	}

	text := Personalize(msg.Content, member, phone)
	if strings.TrimSpace(text) == "" {
		return d.fail(ctx, msg, res, ReasonEmptyContent)
	}

	remoteID, err := d.gateway.SendWithConfig(ctx, cfg, phone, text, cfg.SenderID)
	if err != nil {
		return d.fail(ctx, msg, res, err.Error())
	}

	res.Status = model.DeliverySent
	res.ProviderMessageID = remoteID

	sentAt := d.now()
	if err := d.writer.Write(ctx, model.DeliveryLog{
		MessageID:         msg.ID,
		RecipientID:       member.ID,
		Status:            model.LogSent,
		ProviderMessageID: &remoteID,
		SentAt:            sentAt,
	}); err != nil {
		log.WithError(err).Error("failed to write sent log")
	}
	if err := d.sent.StoreSent(ctx, msg.ID, member.ID, day, remoteID, sentAt); err != nil {
		log.WithError(err).Warn("failed to cache sent marker")
	}

	log.WithField("provider_message_id", remoteID).Info("sms sent")
	return res
}

func (d *Deliverer) sentToday(ctx context.Context, messageID, memberID uuid.UUID, day string, dayStart time.Time) (bool, error) {
	hit, err := d.sent.WasSent(ctx, messageID, memberID, day)
	if err != nil {
		d.log.WithError(err).Warn("sent cache lookup failed")
	}
	if hit {
		return true, nil
	}
	return d.logs.HasSentBetween(ctx, messageID, memberID, dayStart, dayStart.AddDate(0, 0, 1))
}

func (d *Deliverer) fail(ctx context.Context, msg model.Message, res model.MemberDelivery, reason string) model.MemberDelivery {
	res.Status = model.DeliveryFailed
	res.Error = reason

	d.LogFailure(ctx, msg.ID, res.MemberID, reason)
	return res
}

// LogFailure records a failed attempt. Write errors are logged, not returned.
func (d *Deliverer) LogFailure(ctx context.Context, messageID, recipientID uuid.UUID, reason string) {
	log := d.log.WithFields(logrus.Fields{
		"message_id":   messageID,
		"recipient_id": recipientID,
	})
	log.WithField("error", reason).Warn("delivery failed")

	if err := d.writer.Write(ctx, model.DeliveryLog{
		MessageID:    messageID,
		RecipientID:  recipientID,
		Status:       model.LogFailed,
		ErrorMessage: &reason,
		SentAt:       d.now(),
	}); err != nil {
		log.WithError(err).Error("failed to write failure log")
	}
}
