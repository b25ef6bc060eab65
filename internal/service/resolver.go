package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/LeventeLantos/church-messaging/internal/model"
	"github.com/LeventeLantos/church-messaging/internal/repo"
)

const (
	ReasonMemberUnavailable = "Member not found or not active"
	ReasonMemberNoPhone     = "Member has no phone number"
	ReasonGroupEmpty        = "No members found in group"
	ReasonGroupNoPhones     = "No members with phone numbers in group"
	ReasonNoRecipients      = "No recipients found"
	ReasonAlreadySent       = "Already sent today"
	ReasonNoProvider        = "No default SMS provider configured"
	ReasonEmptyContent      = "Message content is empty"
)

// RecipientError is a per-recipient failure that is reported in the pass
// result instead of aborting the message.
type RecipientError struct {
	Reason string
}

func (e *RecipientError) Error() string { return e.Reason }

func recipientErr(format string, args ...any) error {
	return &RecipientError{Reason: fmt.Sprintf(format, args...)}
}

// Resolver expands recipient references into reachable members.
type Resolver struct {
	members repo.MemberRepository
}

func NewResolver(members repo.MemberRepository) *Resolver {
	return &Resolver{members: members}
}

func (r *Resolver) Resolve(ctx context.Context, ref model.RecipientRef) ([]model.Member, error) {
	switch ref.RecipientType {
	case model.Individual:
		return r.individual(ctx, ref)
	case model.Group:
		return r.group(ctx, ref)
	default:
		return nil, recipientErr("Unknown recipient type: %s", ref.RecipientType)
	}
}

func (r *Resolver) individual(ctx context.Context, ref model.RecipientRef) ([]model.Member, error) {
	m, err := r.members.GetByID(ctx, ref.RecipientID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, recipientErr(ReasonMemberUnavailable)
	}
	if err != nil {
		return nil, fmt.Errorf("load member %s: %w", ref.RecipientID, err)
	}
	if m.Status != model.MemberActive {
		return nil, recipientErr(ReasonMemberUnavailable)
	}
	if !m.Reachable() {
		return nil, recipientErr(ReasonMemberNoPhone)
	}
	return []model.Member{m}, nil
}

// group reads the covenant_families_members join table and falls back to
// members.covenant_family_id when it yields nobody.
func (r *Resolver) group(ctx context.Context, ref model.RecipientRef) ([]model.Member, error) {
	ids, err := r.members.ListGroupMemberIDs(ctx, ref.RecipientID)
	if err != nil {
		return nil, fmt.Errorf("load group %s membership: %w", ref.RecipientID, err)
	}

	var members []model.Member
	if len(ids) > 0 {
		members, err = r.members.ListByIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("load group %s members: %w", ref.RecipientID, err)
		}
	}

	if len(members) == 0 {
		members, err = r.members.ListByGroupFK(ctx, ref.RecipientID)
		if err != nil {
			return nil, fmt.Errorf("load group %s members by family: %w", ref.RecipientID, err)
		}
	}

	if len(members) == 0 {
		return nil, recipientErr(ReasonGroupEmpty)
	}

	reachable := members[:0]
	for _, m := range members {
		if m.Reachable() {
			reachable = append(reachable, m)
		}
	}
	if len(reachable) == 0 {
		return nil, recipientErr(ReasonGroupNoPhones)
	}
	return reachable, nil
}
