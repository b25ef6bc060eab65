package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/LeventeLantos/church-messaging/internal/metrics"
	"github.com/LeventeLantos/church-messaging/internal/model"
	"github.com/LeventeLantos/church-messaging/internal/repo"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	defaultBatchSize   = 50
	statusWriteTimeout = 5 * time.Second
)

type Options struct {
	BatchSize int
}

type Dispatcher struct {
	messages   repo.MessageRepository
	recipients repo.RecipientRepository
	resolver   *Resolver
	deliverer  *Deliverer
	advancer   *Advancer

	batchSize int
	now       func() time.Time
	log       logrus.FieldLogger

	mu sync.Mutex
}

func NewDispatcher(
	messages repo.MessageRepository,
	recipients repo.RecipientRepository,
	resolver *Resolver,
	deliverer *Deliverer,
	advancer *Advancer,
	opts Options,
	log logrus.FieldLogger,
) *Dispatcher {
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	return &Dispatcher{
		messages:   messages,
		recipients: recipients,
		resolver:   resolver,
		deliverer:  deliverer,
		advancer:   advancer,
		batchSize:  opts.BatchSize,
		now:        time.Now,
		log:        log,
	}
}

// Process runs one dispatch pass. When messageID is set only that message
// is considered, and it is first released if a previous run left it in
// processing. The returned error is set only when due messages could not
// be listed; every per-message failure is reported in the Report.
func (d *Dispatcher) Process(ctx context.Context, messageID *uuid.UUID) (model.Report, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	start := time.Now()
	defer func() {
		metrics.PassDuration.Observe(time.Since(start).Seconds())
	}()

	if messageID != nil {
		reset, err := d.messages.ResetProcessing(ctx, *messageID)
		if err != nil {
			d.log.WithField("message_id", *messageID).WithError(err).Warn("failed to reset stuck message")
		} else if reset {
			d.log.WithField("message_id", *messageID).Info("reset message stuck in processing")
		}
	}

	due, err := d.messages.ListDue(ctx, d.now(), d.batchSize, messageID)
	if err != nil {
		return model.Report{}, fmt.Errorf("list due messages: %w", err)
	}

	report := model.Report{Results: make([]model.MessageResult, 0, len(due))}
	for _, m := range due {
		if ctx.Err() != nil {
			d.log.WithError(ctx.Err()).Warn("dispatch pass interrupted")
			break
		}

		res := d.processMessage(ctx, m)
		metrics.MessagesProcessed.WithLabelValues(string(res.Status)).Inc()

		report.Results = append(report.Results, res)
		report.Processed++
	}

	if len(due) > 0 {
		d.log.WithField("processed", report.Processed).Info("dispatch pass finished")
	}
	return report, nil
}

func (d *Dispatcher) processMessage(ctx context.Context, m model.Message) (res model.MessageResult) {
	res = model.MessageResult{MessageID: m.ID, Name: m.Name}
	log := d.log.WithField("message_id", m.ID)

	defer func() {
		if r := recover(); r != nil {
			res = d.markError(ctx, res, fmt.Errorf("panic: %v", r))
		}
	}()

	if err := d.messages.UpdateStatus(ctx, m.ID, model.MessageProcessing, nil); err != nil {
		return d.markError(ctx, res, fmt.Errorf("mark processing: %w", err))
	}

	refs, err := d.recipients.ListByMessage(ctx, m.ID)
	if err != nil {
		return d.markError(ctx, res, fmt.Errorf("load recipients: %w", err))
	}

	if len(refs) == 0 {
		res.Status = model.OutcomeSkipped
		res.Reason = ReasonNoRecipients
		d.advance(ctx, m, &res)
		log.Info("message has no recipients")
		return res
	}

	succeeded := false
	for _, ref := range refs {
		rr := d.deliverTo(ctx, m, ref)
		if rr.Succeeded() {
			succeeded = true
		}
		res.Recipients = append(res.Recipients, rr)
	}

	d.advance(ctx, m, &res)

	if succeeded {
		res.Status = model.OutcomeSuccess
	} else {
		res.Status = model.OutcomeFailed
	}

	log.WithFields(logrus.Fields{
		"status":       res.Status,
		"final_status": res.FinalStatus,
	}).Info("message processed")
	return res
}

func (d *Dispatcher) deliverTo(ctx context.Context, m model.Message, ref model.RecipientRef) model.RecipientResult {
	rr := model.RecipientResult{
		RecipientID:   ref.RecipientID,
		RecipientType: ref.RecipientType,
	}

	members, err := d.resolver.Resolve(ctx, ref)
	if err != nil {
		rr.Status = model.DeliveryFailed
		rr.Error = err.Error()

		var re *RecipientError
		if !errors.As(err, &re) {
			d.log.WithField("recipient_id", ref.RecipientID).WithError(err).Error("recipient resolution failed")
		}
		d.deliverer.LogFailure(ctx, m.ID, ref.RecipientID, rr.Error)
		return rr
	}

	for _, member := range members {
		rr.Add(d.deliverer.Deliver(ctx, m, member))
	}

	switch {
	case rr.Sent > 0:
		rr.Status = model.DeliverySent
	case rr.Skipped > 0:
		rr.Status = model.DeliverySkipped
	default:
		rr.Status = model.DeliveryFailed
	}

	if len(rr.Deliveries) == 1 {
		rr.Reason = rr.Deliveries[0].Reason
		rr.Error = rr.Deliveries[0].Error
	}
	return rr
}

func (d *Dispatcher) advance(ctx context.Context, m model.Message, res *model.MessageResult) {
	status, err := d.advancer.Advance(ctx, m)
	if err != nil {
		res.ScheduleError = err.Error()
		res.FinalStatus = model.MessageError
		d.setError(ctx, m.ID, fmt.Sprintf("schedule update failed: %v", err))
		return
	}
	res.FinalStatus = status
}

func (d *Dispatcher) markError(ctx context.Context, res model.MessageResult, err error) model.MessageResult {
	res.Status = model.OutcomeError
	res.Error = err.Error()
	res.FinalStatus = model.MessageError

	d.setError(ctx, res.MessageID, err.Error())
	return res
}

// setError is written even when ctx is already cancelled so the message
// never stays in processing.
func (d *Dispatcher) setError(ctx context.Context, id uuid.UUID, text string) {
	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), statusWriteTimeout)
	defer cancel()

	log := d.log.WithField("message_id", id)
	log.WithField("error", text).Error("message failed")

	if err := d.messages.UpdateStatus(wctx, id, model.MessageError, &text); err != nil {
		log.WithError(err).Error("failed to mark message as error")
	}
}
