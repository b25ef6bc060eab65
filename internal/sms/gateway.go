package sms

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/LeventeLantos/church-messaging/internal/metrics"
	"github.com/LeventeLantos/church-messaging/internal/model"
	"github.com/LeventeLantos/church-messaging/internal/repo"
	"github.com/go-playground/validator/v10"
	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

var (
	ErrNoDefaultConfig = errors.New("no default sms provider configured")
	ErrUnknownProvider = errors.New("unknown sms provider")
)

const defaultConfigKey = "sms_config:default"

// Provider delivers a single SMS and returns the provider's message id.
type Provider interface {
	Send(ctx context.Context, cfg model.SMSConfig, phoneNumber, message, senderID string) (string, error)
}

type ConfigSource interface {
	GetDefault(ctx context.Context) (model.SMSConfig, error)
}

// Gateway resolves the default provider configuration and routes sends
// to the provider registered under its name.
type Gateway struct {
	configs   ConfigSource
	providers map[string]Provider
	cache     *gocache.Cache
	validate  *validator.Validate
	log       logrus.FieldLogger
}

// NewGateway caches the default configuration for cacheTTL. A zero TTL
// reads it from the source on every call.
func NewGateway(configs ConfigSource, cacheTTL time.Duration, log logrus.FieldLogger) *Gateway {
	g := &Gateway{
		configs:   configs,
		providers: make(map[string]Provider),
		validate:  validator.New(),
		log:       log,
	}
	if cacheTTL > 0 {
		g.cache = gocache.New(cacheTTL, 2*cacheTTL)
	}
	return g
}

func (g *Gateway) Register(name string, p Provider) {
	g.providers[normalizeName(name)] = p
}

func (g *Gateway) DefaultConfig(ctx context.Context) (model.SMSConfig, error) {
	if g.cache != nil {
		if v, ok := g.cache.Get(defaultConfigKey); ok {
			return v.(model.SMSConfig), nil
		}
	}

	cfg, err := g.configs.GetDefault(ctx)
	if errors.Is(err, repo.ErrNotFound) {
		return model.SMSConfig{}, ErrNoDefaultConfig
	}
	if err != nil {
		return model.SMSConfig{}, fmt.Errorf("load default sms config: %w", err)
	}

	if err := g.validate.StructCtx(ctx, cfg); err != nil {
		return model.SMSConfig{}, fmt.Errorf("invalid sms config %s: %w", cfg.ID, err)
	}

	if g.cache != nil {
		g.cache.SetDefault(defaultConfigKey, cfg)
	}
	return cfg, nil
}

// Invalidate drops the cached default configuration.
func (g *Gateway) Invalidate() {
	if g.cache != nil {
		g.cache.Delete(defaultConfigKey)
	}
}

func (g *Gateway) SendWithConfig(ctx context.Context, cfg model.SMSConfig, phoneNumber, message, senderID string) (string, error) {
	name := normalizeName(cfg.ProviderName)
	p, ok := g.providers[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.ProviderName)
	}

	if senderID == "" {
		senderID = cfg.SenderID
	}

	start := time.Now()
	id, err := p.Send(ctx, cfg, phoneNumber, message, senderID)

	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.ProviderRequestDuration.WithLabelValues(name, result).Observe(time.Since(start).Seconds())

	if err != nil {
		g.log.WithFields(logrus.Fields{
			"provider": name,
			"phone":    phoneNumber,
		}).WithError(err).Warn("sms provider send failed")
		return "", err
	}
	return id, nil
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
