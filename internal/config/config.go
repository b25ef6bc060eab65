package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/hashicorp/go-multierror"
	"github.com/nyaruka/phonenumbers"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Dispatch DispatchConfig
	SMS      SMSConfig
}

type ServerConfig struct {
	Address string
}

type LogConfig struct {
	Level       string
	Environment string
}

type DatabaseConfig struct {
	PostgresURL string
}

type RedisConfig struct {
	Enabled  bool
	Address  string
	Password string
	DB       int
	TTL      time.Duration
}

// DispatchConfig.Cron is empty when the in-process trigger is disabled.
type DispatchConfig struct {
	BatchSize int
	Cron      string
	Location  *time.Location
}

type SMSConfig struct {
	DefaultRegion  string
	ConfigCacheTTL time.Duration
	HTTPTimeout    time.Duration
}

var defaults = map[string]any{
	"SERVER_ADDRESS":           ":8080",
	"LOG_LEVEL":                "info",
	"ENVIRONMENT":              "development",
	"DISPATCH_BATCH_SIZE":      50,
	"DISPATCH_CRON":            "",
	"DISPATCH_TIMEZONE":        "UTC",
	"PHONE_DEFAULT_REGION":     "US",
	"SMS_CONFIG_CACHE_SECONDS": 60,
	"SMS_HTTP_TIMEOUT_SECONDS": 10,
	"REDIS_DB":                 0,
	"REDIS_TTL_SECONDS":        129600,
}

// LoadAll reads configuration from the environment and an optional
// configs/config.yaml. Every problem found is reported in one error.
func LoadAll() (*Config, error) {
	v, err := newViper()
	if err != nil {
		return nil, err
	}
	return load(v)
}

func newViper() (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}
	return v, nil
}

func load(v *viper.Viper) (*Config, error) {
	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Address: getEnv(v, "SERVER_ADDRESS"),
		},
		Log: LogConfig{
			Level:       strings.ToLower(getEnv(v, "LOG_LEVEL")),
			Environment: strings.ToLower(getEnv(v, "ENVIRONMENT")),
		},
	}

	var err error
	cfg.Database.PostgresURL, err = requireEnv(v, "POSTGRES_URL")
	collect(err)

	cfg.Dispatch, err = loadDispatchConfig(v)
	collect(err)

	cfg.SMS, err = loadSMSConfig(v)
	collect(err)

	cfg.Redis, err = loadRedisConfig(v)
	collect(err)

	if err := joinErrors(errs); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadDispatchConfig(v *viper.Viper) (DispatchConfig, error) {
	var errs []error
	dc := DispatchConfig{Cron: strings.TrimSpace(getEnv(v, "DISPATCH_CRON"))}

	batch, err := getEnvInt(v, "DISPATCH_BATCH_SIZE")
	if err != nil {
		errs = append(errs, err)
	} else if batch <= 0 {
		errs = append(errs, errors.New("DISPATCH_BATCH_SIZE must be > 0"))
	}
	dc.BatchSize = batch

	tz := getEnv(v, "DISPATCH_TIMEZONE")
	loc, err := time.LoadLocation(tz)
	if err != nil {
		errs = append(errs, fmt.Errorf("invalid DISPATCH_TIMEZONE %q: %w", tz, err))
	}
	dc.Location = loc

	if dc.Cron != "" {
		if _, err := cron.ParseStandard(dc.Cron); err != nil {
			errs = append(errs, fmt.Errorf("invalid DISPATCH_CRON %q: %w", dc.Cron, err))
		}
	}

	return dc, joinErrors(errs)
}

func loadSMSConfig(v *viper.Viper) (SMSConfig, error) {
	var errs []error
	sc := SMSConfig{DefaultRegion: strings.ToUpper(strings.TrimSpace(getEnv(v, "PHONE_DEFAULT_REGION")))}

	if phonenumbers.GetCountryCodeForRegion(sc.DefaultRegion) == 0 {
		errs = append(errs, fmt.Errorf("invalid PHONE_DEFAULT_REGION %q", sc.DefaultRegion))
	}

	cacheSeconds, err := getEnvInt(v, "SMS_CONFIG_CACHE_SECONDS")
	if err != nil {
		errs = append(errs, err)
	} else if cacheSeconds < 0 {
		errs = append(errs, errors.New("SMS_CONFIG_CACHE_SECONDS must be >= 0"))
	}
	sc.ConfigCacheTTL = time.Duration(cacheSeconds) * time.Second

	timeoutSeconds, err := getEnvInt(v, "SMS_HTTP_TIMEOUT_SECONDS")
	if err != nil {
		errs = append(errs, err)
	} else if timeoutSeconds <= 0 {
		errs = append(errs, errors.New("SMS_HTTP_TIMEOUT_SECONDS must be > 0"))
	}
	sc.HTTPTimeout = time.Duration(timeoutSeconds) * time.Second

	return sc, joinErrors(errs)
}

func loadRedisConfig(v *viper.Viper) (RedisConfig, error) {
	addr := getEnv(v, "REDIS_ADDR")
	if addr == "" {
		return RedisConfig{Enabled: false}, nil
	}

	var errs []error
	db, err := getEnvInt(v, "REDIS_DB")
	if err != nil {
		errs = append(errs, err)
	}
	ttl, err := getEnvInt(v, "REDIS_TTL_SECONDS")
	if err != nil {
		errs = append(errs, err)
	} else if ttl <= 0 {
		errs = append(errs, errors.New("REDIS_TTL_SECONDS must be > 0"))
	}

	return RedisConfig{
		Enabled:  true,
		Address:  addr,
		Password: getEnv(v, "REDIS_PASSWORD"),
		DB:       db,
		TTL:      time.Duration(ttl) * time.Second,
	}, joinErrors(errs)
}

func requireEnv(v *viper.Viper, key string) (string, error) {
	val := strings.TrimSpace(v.GetString(key))
	if val == "" {
		return "", fmt.Errorf("missing required env var: %s", key)
	}
	return val, nil
}

func getEnv(v *viper.Viper, key string) string {
	return v.GetString(key)
}

func getEnvInt(v *viper.Viper, key string) (int, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return 0, nil
	}
	i, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid int for %s: %q", key, raw)
	}
	return i, nil
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return multierror.Append(nil, errs...).ErrorOrNil()
}
