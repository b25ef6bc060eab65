package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/LeventeLantos/church-messaging/internal/model"
	"github.com/LeventeLantos/church-messaging/internal/repo"
	"github.com/google/uuid"
)

type fakeMessages struct {
	mu            sync.Mutex
	msgs          map[uuid.UUID]*model.Message
	failStatus    map[model.MessageStatus]error
	listErr       error
	rescheduleErr error
}

func newFakeMessages(msgs ...model.Message) *fakeMessages {
	f := &fakeMessages{
		msgs:       make(map[uuid.UUID]*model.Message),
		failStatus: make(map[model.MessageStatus]error),
	}
	for i := range msgs {
		m := msgs[i]
		f.msgs[m.ID] = &m
	}
	return f
}

func (f *fakeMessages) get(id uuid.UUID) model.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.msgs[id]
}

func (f *fakeMessages) ListDue(ctx context.Context, now time.Time, limit int, onlyID *uuid.UUID) ([]model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.listErr != nil {
		return nil, f.listErr
	}

	var out []model.Message
	for _, m := range f.msgs {
		if m.Status != model.MessageActive && m.Status != model.MessageScheduled {
			continue
		}
		if m.Type == model.BirthdayType || m.ScheduleTime.After(now) {
			continue
		}
		if onlyID != nil && m.ID != *onlyID {
			continue
		}
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduleTime.Before(out[j].ScheduleTime) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeMessages) UpdateStatus(ctx context.Context, id uuid.UUID, status model.MessageStatus, errMsg *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failStatus[status]; err != nil {
		return err
	}
	m, ok := f.msgs[id]
	if !ok {
		return repo.ErrNotFound
	}
	m.Status = status
	m.ErrorMessage = errMsg
	return nil
}

func (f *fakeMessages) Reschedule(ctx context.Context, id uuid.UUID, next time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rescheduleErr != nil {
		return f.rescheduleErr
	}
	m, ok := f.msgs[id]
	if !ok {
		return repo.ErrNotFound
	}
	m.ScheduleTime = next
	m.Status = model.MessageScheduled
	m.ErrorMessage = nil
	return nil
}

func (f *fakeMessages) ResetProcessing(ctx context.Context, id uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.msgs[id]
	if !ok || m.Status != model.MessageProcessing {
		return false, nil
	}
	m.Status = model.MessageScheduled
	return true, nil
}

type fakeRecipients struct {
	refs    map[uuid.UUID][]model.RecipientRef
	errFor  map[uuid.UUID]error
	panicOn map[uuid.UUID]bool
}

func newFakeRecipients() *fakeRecipients {
	return &fakeRecipients{
		refs:    make(map[uuid.UUID][]model.RecipientRef),
		errFor:  make(map[uuid.UUID]error),
		panicOn: make(map[uuid.UUID]bool),
	}
}

func (f *fakeRecipients) add(messageID, recipientID uuid.UUID, typ model.RecipientType) {
	f.refs[messageID] = append(f.refs[messageID], model.RecipientRef{
		MessageID:     messageID,
		RecipientID:   recipientID,
		RecipientType: typ,
	})
}

func (f *fakeRecipients) ListByMessage(ctx context.Context, messageID uuid.UUID) ([]model.RecipientRef, error) {
	if f.panicOn[messageID] {
		panic("recipient table exploded")
	}
	if err := f.errFor[messageID]; err != nil {
		return nil, err
	}
	return f.refs[messageID], nil
}

type fakeMembers struct {
	members map[uuid.UUID]model.Member
	join    map[uuid.UUID][]uuid.UUID
	fk      map[uuid.UUID][]uuid.UUID
	fkCalls int
	joinErr error
}

func newFakeMembers(members ...model.Member) *fakeMembers {
	f := &fakeMembers{
		members: make(map[uuid.UUID]model.Member),
		join:    make(map[uuid.UUID][]uuid.UUID),
		fk:      make(map[uuid.UUID][]uuid.UUID),
	}
	for _, m := range members {
		f.members[m.ID] = m
	}
	return f
}

func (f *fakeMembers) GetByID(ctx context.Context, id uuid.UUID) (model.Member, error) {
	m, ok := f.members[id]
	if !ok {
		return model.Member{}, repo.ErrNotFound
	}
	return m, nil
}

func (f *fakeMembers) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Member, error) {
	var out []model.Member
	for _, id := range ids {
		if m, ok := f.members[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMembers) ListGroupMemberIDs(ctx context.Context, groupID uuid.UUID) ([]uuid.UUID, error) {
	if f.joinErr != nil {
		return nil, f.joinErr
	}
	return f.join[groupID], nil
}

func (f *fakeMembers) ListByGroupFK(ctx context.Context, groupID uuid.UUID) ([]model.Member, error) {
	f.fkCalls++
	return f.ListByIDs(ctx, f.fk[groupID])
}

type fakeLogs struct {
	mu        sync.Mutex
	rows      []model.DeliveryLog
	insertErr error
}

func (f *fakeLogs) Insert(ctx context.Context, entry model.DeliveryLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	f.rows = append(f.rows, entry)
	return nil
}

func (f *fakeLogs) HasSentBetween(ctx context.Context, messageID, recipientID uuid.UUID, from, to time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.MessageID == messageID && r.RecipientID == recipientID && r.Status == model.LogSent &&
			!r.SentAt.Before(from) && r.SentAt.Before(to) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeLogs) ListByMessage(ctx context.Context, messageID uuid.UUID, limit, offset int) ([]model.DeliveryLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.DeliveryLog
	for _, r := range f.rows {
		if r.MessageID == messageID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeLogs) withStatus(status model.LogStatus) []model.DeliveryLog {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.DeliveryLog
	for _, r := range f.rows {
		if r.Status == status {
			out = append(out, r)
		}
	}
	return out
}

type sentSMS struct {
	Phone    string
	Text     string
	SenderID string
}

type fakeGateway struct {
	cfg     model.SMSConfig
	cfgErr  error
	sendErr error
	sent    []sentSMS
}

func (f *fakeGateway) DefaultConfig(ctx context.Context) (model.SMSConfig, error) {
	return f.cfg, f.cfgErr
}

func (f *fakeGateway) SendWithConfig(ctx context.Context, cfg model.SMSConfig, phoneNumber, message, senderID string) (string, error) {
	if f.sendErr != nil {
		return "", f.sendErr
	}
	f.sent = append(f.sent, sentSMS{Phone: phoneNumber, Text: message, SenderID: senderID})
	return uuid.NewString(), nil
}
