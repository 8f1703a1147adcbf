// Package config loads service settings from the environment (and .env).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Environment string `validate:"omitempty,oneof=local development staging production"`
	LogLevel    string `validate:"omitempty,oneof=debug info warn error"`
	Port        string `validate:"required,numeric"`

	ModelPath   string `validate:"required"`
	DatasetPath string

	CRMBaseURL       string `validate:"omitempty,url"`
	CRMAPIKey        string
	MarketingBaseURL string `validate:"omitempty,url"`
	MarketingAPIKey  string
	CampaignID       string `validate:"required"`
	UseMockCRM       bool
	UseMockMarketing bool
	PhoneRegion      string `validate:"required,len=2,uppercase"`

	HTTPTimeout        time.Duration `validate:"gt=0"`
	RetryMaxElapsed    time.Duration `validate:"gte=0"`
	OutboundRatePerSec float64       `validate:"gte=0,lte=1000"`
	BatchConcurrency   int           `validate:"min=1,max=64"`
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromLookup(os.LookupEnv)
}

// FromLookup builds and validates a Config from a variable lookup function.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	get := func(key, fallback string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return fallback
	}

	crmURL := get("CRM_BASE_URL", "")
	mktURL := get("MARKETING_BASE_URL", "")
	cfg := &Config{
		Environment:      get("ENVIRONMENT", "local"),
		LogLevel:         strings.ToLower(get("LOG_LEVEL", "info")),
		Port:             get("PORT", "8080"),
		ModelPath:        get("MODEL_PATH", "model/lead_model.json"),
		DatasetPath:      get("DATASET_PATH", "data/leads.xlsx"),
		CRMBaseURL:       crmURL,
		CRMAPIKey:        get("CRM_API_KEY", ""),
		MarketingBaseURL: mktURL,
		MarketingAPIKey:  get("MARKETING_API_KEY", ""),
		CampaignID:       get("CAMPAIGN_ID", "organizational_services_nurture"),
		PhoneRegion:      strings.ToUpper(get("PHONE_REGION", "US")),
	}

	var err error
	// mock collaborators unless a base URL is configured
	if cfg.UseMockCRM, err = parseBool(get("USE_MOCK_CRM", strconv.FormatBool(crmURL == ""))); err != nil {
		return nil, fmt.Errorf("USE_MOCK_CRM: %w", err)
	}
	if cfg.UseMockMarketing, err = parseBool(get("USE_MOCK_MARKETING", strconv.FormatBool(mktURL == ""))); err != nil {
		return nil, fmt.Errorf("USE_MOCK_MARKETING: %w", err)
	}
	timeout, err := strconv.Atoi(get("HTTP_TIMEOUT_SEC", "10"))
	if err != nil {
		return nil, fmt.Errorf("HTTP_TIMEOUT_SEC: %w", err)
	}
	cfg.HTTPTimeout = time.Duration(timeout) * time.Second
	elapsed, err := strconv.Atoi(get("RETRY_MAX_ELAPSED_SEC", "12"))
	if err != nil {
		return nil, fmt.Errorf("RETRY_MAX_ELAPSED_SEC: %w", err)
	}
	cfg.RetryMaxElapsed = time.Duration(elapsed) * time.Second
	if cfg.OutboundRatePerSec, err = strconv.ParseFloat(get("OUTBOUND_RATE_PER_SEC", "5"), 64); err != nil {
		return nil, fmt.Errorf("OUTBOUND_RATE_PER_SEC: %w", err)
	}
	if cfg.BatchConcurrency, err = strconv.Atoi(get("BATCH_CONCURRENCY", "4")); err != nil {
		return nil, fmt.Errorf("BATCH_CONCURRENCY: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New()

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if !c.UseMockCRM && c.CRMBaseURL == "" {
		return fmt.Errorf("CRM_BASE_URL is required when USE_MOCK_CRM is false")
	}
	if !c.UseMockMarketing && c.MarketingBaseURL == "" {
		return fmt.Errorf("MARKETING_BASE_URL is required when USE_MOCK_MARKETING is false")
	}
	return nil
}

func (c *Config) Addr() string {
	return ":" + c.Port
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("not a boolean: %q", s)
}
