package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// HTTP Server
	Port string `yaml:"port"`

	// Database
	SQLiteDBPath string `yaml:"sqlite_db_path"`

	// Money
	BaseCurrency string `yaml:"base_currency"`

	// FX provider
	FXAPIBaseURL     string        `yaml:"fx_api_base_url"`
	FXRateTimeout    time.Duration `yaml:"fx_rate_timeout"`
	FXCatalogTimeout time.Duration `yaml:"fx_catalog_timeout"`
	FXCacheSize      int           `yaml:"fx_cache_size"`

	// AMQP
	AMQPURL      string `yaml:"amqp_url"`
	AMQPExchange string `yaml:"amqp_exchange"`
	AMQPQueue    string `yaml:"amqp_queue"`

	// Google Sheets mirror (sheets-worker)
	GoogleSpreadsheetID string `yaml:"google_spreadsheet_id"`
	GoogleSheetName     string `yaml:"google_sheet_name"`

	// Month rollover schedule (standard 5-field cron expression)
	RolloverCron string `yaml:"rollover_cron"`
}

// Load reads config from a YAML file if it exists, then applies environment
// variable overrides and defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	overrideString(&cfg.Port, "PORT")
	overrideString(&cfg.SQLiteDBPath, "SQLITE_DB_PATH")
	overrideString(&cfg.BaseCurrency, "BASE_CURRENCY")
	overrideString(&cfg.FXAPIBaseURL, "FX_API_BASE_URL")
	overrideDuration(&cfg.FXRateTimeout, "FX_RATE_TIMEOUT")
	overrideDuration(&cfg.FXCatalogTimeout, "FX_CATALOG_TIMEOUT")
	overrideInt(&cfg.FXCacheSize, "FX_CACHE_SIZE")
	overrideString(&cfg.AMQPURL, "AMQP_URL")
	overrideString(&cfg.AMQPExchange, "AMQP_EXCHANGE")
	overrideString(&cfg.AMQPQueue, "AMQP_QUEUE")
	overrideString(&cfg.GoogleSpreadsheetID, "GOOGLE_SPREADSHEET_ID")
	overrideString(&cfg.GoogleSheetName, "GOOGLE_SHEET_NAME")
	overrideString(&cfg.RolloverCron, "ROLLOVER_CRON")

	// Defaults
	if cfg.Port == "" {
		cfg.Port = "8081"
	}
	if cfg.SQLiteDBPath == "" {
		cfg.SQLiteDBPath = "./data/budgetbot.db"
	}
	if cfg.BaseCurrency == "" {
		cfg.BaseCurrency = "CHF"
	}
	cfg.BaseCurrency = strings.ToUpper(strings.TrimSpace(cfg.BaseCurrency))
	if cfg.FXAPIBaseURL == "" {
		cfg.FXAPIBaseURL = "https://api.frankfurter.dev/v1"
	}
	if cfg.FXRateTimeout == 0 {
		cfg.FXRateTimeout = 12 * time.Second
	}
	if cfg.FXCatalogTimeout == 0 {
		cfg.FXCatalogTimeout = 10 * time.Second
	}
	if cfg.FXCacheSize == 0 {
		cfg.FXCacheSize = 1000
	}
	if cfg.AMQPExchange == "" {
		cfg.AMQPExchange = "budgetbot"
	}
	if cfg.AMQPQueue == "" {
		cfg.AMQPQueue = "expense_sync"
	}
	if cfg.GoogleSheetName == "" {
		cfg.GoogleSheetName = "Expenses"
	}
	if cfg.RolloverCron == "" {
		cfg.RolloverCron = "5 0 1 * *"
	}

	return cfg, nil
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !isCurrencyCode(c.BaseCurrency) {
		errors = append(errors, fmt.Sprintf("invalid base currency '%s': must be 3 letters", c.BaseCurrency))
	}

	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLite database path cannot be empty")
	} else {
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	if u, err := url.Parse(c.FXAPIBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errors = append(errors, fmt.Sprintf("invalid FX API base URL '%s'", c.FXAPIBaseURL))
	}
	if c.FXRateTimeout < time.Second || c.FXRateTimeout > time.Minute {
		errors = append(errors, fmt.Sprintf("invalid FX rate timeout %v: must be between 1s and 1m", c.FXRateTimeout))
	}
	if c.FXCatalogTimeout < time.Second || c.FXCatalogTimeout > time.Minute {
		errors = append(errors, fmt.Sprintf("invalid FX catalog timeout %v: must be between 1s and 1m", c.FXCatalogTimeout))
	}
	if c.FXCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid FX cache size %d: must be at least 1", c.FXCacheSize))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func isCurrencyCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if !unicode.IsUpper(r) || r > unicode.MaxASCII {
			return false
		}
	}
	return true
}

func overrideString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func overrideInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			*dst = i
		}
	}
}

func overrideDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
