package repo

import (
	"context"
	"errors"

	"github.com/LeventeLantos/church-messaging/internal/model"
	"github.com/jackc/pgx/v5"
)

type PostgresSMSConfigRepo struct {
	db DB
}

func NewPostgresSMSConfigRepo(db DB) *PostgresSMSConfigRepo {
	return &PostgresSMSConfigRepo{db: db}
}

func (r *PostgresSMSConfigRepo) GetDefault(ctx context.Context) (model.SMSConfig, error) {
	var (
		c         model.SMSConfig
		apiKey    *string
		apiSecret *string
		senderID  *string
		baseURL   *string
	)
	err := r.db.QueryRow(ctx, `
		SELECT id, provider_name, api_key, api_secret, sender_id, base_url, is_default, is_active
		FROM sms_configurations
		WHERE is_default AND is_active
		ORDER BY updated_at DESC
		LIMIT 1
	`).Scan(&c.ID, &c.ProviderName, &apiKey, &apiSecret, &senderID, &baseURL, &c.IsDefault, &c.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.SMSConfig{}, ErrNotFound
	}
	if err != nil {
		return model.SMSConfig{}, err
	}

	c.APIKey = deref(apiKey)
	c.APISecret = deref(apiSecret)
	c.SenderID = deref(senderID)
	c.BaseURL = deref(baseURL)
	return c, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
