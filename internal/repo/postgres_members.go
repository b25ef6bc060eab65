package repo

import (
	"context"
	"errors"

	"github.com/LeventeLantos/church-messaging/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const memberColumns = `id, first_name, last_name, primary_phone_number, status`

type PostgresMemberRepo struct {
	db DB
}

func NewPostgresMemberRepo(db DB) *PostgresMemberRepo {
	return &PostgresMemberRepo{db: db}
}

func (r *PostgresMemberRepo) GetByID(ctx context.Context, id uuid.UUID) (model.Member, error) {
	row := r.db.QueryRow(ctx, `SELECT `+memberColumns+` FROM members WHERE id = $1`, id)
	m, err := scanMember(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Member{}, ErrNotFound
	}
	return m, err
}

func (r *PostgresMemberRepo) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Member, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.list(ctx, `SELECT `+memberColumns+` FROM members WHERE id = ANY($1) ORDER BY first_name, last_name`, ids)
}

// ListGroupMemberIDs reads the covenant family join table.
func (r *PostgresMemberRepo) ListGroupMemberIDs(ctx context.Context, groupID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `
		SELECT member_id
		FROM covenant_families_members
		WHERE covenant_family_id = $1
	`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListByGroupFK reads members that reference the family directly.
func (r *PostgresMemberRepo) ListByGroupFK(ctx context.Context, groupID uuid.UUID) ([]model.Member, error) {
	return r.list(ctx, `SELECT `+memberColumns+` FROM members WHERE covenant_family_id = $1 ORDER BY first_name, last_name`, groupID)
}

func (r *PostgresMemberRepo) list(ctx context.Context, query string, args ...any) ([]model.Member, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func scanMember(row pgx.Row) (model.Member, error) {
	var (
		m        model.Member
		lastName *string
		phone    *string
		status   *string
	)
	if err := row.Scan(&m.ID, &m.FirstName, &lastName, &phone, &status); err != nil {
		return model.Member{}, err
	}
	if lastName != nil {
		m.LastName = *lastName
	}
	if phone != nil {
		m.PrimaryPhoneNumber = *phone
	}
	if status != nil {
		m.Status = model.MemberStatus(*status)
	}
	return m, nil
}
