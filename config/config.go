/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package config

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/sirupsen/logrus"
)

const (
	DEFAULT_PORT         = "5001"
	DEFAULT_PROJECT_NAME = "Zenvest Ledger"
	MemoryDataSource     = "memory://"

	defaultLockWaitTimeout = 5 * time.Second
	defaultLockTTL         = 30 * time.Second
	defaultMaxRetries      = 5
	defaultPageSize        = 100
)

var ConfigStore atomic.Value

type ServerConfig struct {
	Secure    bool   `json:"secure" envconfig:"ZENVEST_SERVER_SECURE"`
	SecretKey string `json:"secret_key" envconfig:"ZENVEST_SERVER_SECRET_KEY"`
	Port      string `json:"port" envconfig:"ZENVEST_SERVER_PORT"`
}

type DataSourceConfig struct {
	Dns string `json:"dns" envconfig:"ZENVEST_DATA_SOURCE_DNS"`
}

type RedisConfig struct {
	Dns string `json:"dns" envconfig:"ZENVEST_REDIS_DNS"`
}

// LedgerConfig tunes the concurrency discipline of the engine.
type LedgerConfig struct {
	LockWaitTimeout time.Duration `json:"lock_wait_timeout" envconfig:"ZENVEST_LEDGER_LOCK_WAIT_TIMEOUT"`
	LockTTL         time.Duration `json:"lock_ttl" envconfig:"ZENVEST_LEDGER_LOCK_TTL"`
	MaxRetries      int           `json:"max_retries" envconfig:"ZENVEST_LEDGER_MAX_RETRIES"`
	PageSize        int           `json:"page_size" envconfig:"ZENVEST_LEDGER_PAGE_SIZE"`
}

type RateLimitConfig struct {
	RequestsPerSecond  *float64 `json:"requests_per_second" envconfig:"ZENVEST_RATE_LIMIT_RPS"`
	Burst              *int     `json:"burst" envconfig:"ZENVEST_RATE_LIMIT_BURST"`
	CleanupIntervalSec *int     `json:"cleanup_interval_sec" envconfig:"ZENVEST_RATE_LIMIT_CLEANUP_INTERVAL_SEC"`
}

type WebhookConfig struct {
	Url     string            `json:"url" envconfig:"ZENVEST_WEBHOOK_URL"`
	Headers map[string]string `json:"headers"`
}

type Notification struct {
	Webhook WebhookConfig `json:"webhook"`
}

type Configuration struct {
	ProjectName     string           `json:"project_name" envconfig:"ZENVEST_PROJECT_NAME"`
	EnableTelemetry bool             `json:"enable_telemetry" envconfig:"ZENVEST_ENABLE_TELEMETRY"`
	OtelEndpoint    string           `json:"otel_endpoint" envconfig:"ZENVEST_OTEL_ENDPOINT"`
	Server          ServerConfig     `json:"server"`
	DataSource      DataSourceConfig `json:"data_source"`
	Redis           RedisConfig      `json:"redis"`
	Ledger          LedgerConfig     `json:"ledger"`
	Notification    Notification     `json:"notification"`
	RateLimit       RateLimitConfig  `json:"rate_limit"`
}

// UnmarshalJSON accepts durations in the ledger section as strings ("5s").
func (l *LedgerConfig) UnmarshalJSON(data []byte) error {
	var raw struct {
		LockWaitTimeout string `json:"lock_wait_timeout"`
		LockTTL         string `json:"lock_ttl"`
		MaxRetries      int    `json:"max_retries"`
		PageSize        int    `json:"page_size"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var err error
	if raw.LockWaitTimeout != "" {
		if l.LockWaitTimeout, err = time.ParseDuration(raw.LockWaitTimeout); err != nil {
			return err
		}
	}
	if raw.LockTTL != "" {
		if l.LockTTL, err = time.ParseDuration(raw.LockTTL); err != nil {
			return err
		}
	}
	l.MaxRetries = raw.MaxRetries
	l.PageSize = raw.PageSize
	return nil
}

func (l LedgerConfig) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		LockWaitTimeout string `json:"lock_wait_timeout"`
		LockTTL         string `json:"lock_ttl"`
		MaxRetries      int    `json:"max_retries"`
		PageSize        int    `json:"page_size"`
	}{
		LockWaitTimeout: l.LockWaitTimeout.String(),
		LockTTL:         l.LockTTL.String(),
		MaxRetries:      l.MaxRetries,
		PageSize:        l.PageSize,
	})
}

func loadConfigFromFile(file string) error {
	var cnf Configuration
	_, err := os.Stat(file)
	if err == nil {
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		defer f.Close()
		err = json.NewDecoder(f).Decode(&cnf)
		if err != nil {
			return err
		}
	} else if errors.Is(err, os.ErrNotExist) {
		log.Println("config json not passed, will use env variables")
	}

	// override config from environment variables
	err = envconfig.Process("zenvest", &cnf)
	if err != nil {
		return err
	}

	err = cnf.validateAndAddDefaults()
	if err != nil {
		return err
	}

	ConfigStore.Store(&cnf)
	return nil
}

func InitConfig(configFile string) error {
	logger()
	return loadConfigFromFile(configFile)
}

func Fetch() (*Configuration, error) {
	config := ConfigStore.Load()
	c, ok := config.(*Configuration)
	if !ok {
		return nil, errors.New("config not loaded. Create a json file called zenvest.json or set ZENVEST_* env variables")
	}
	return c, nil
}

// UsesMemoryStore reports whether the in-process datastore is selected.
func (cnf *Configuration) UsesMemoryStore() bool {
	return cnf.DataSource.Dns == "" || cnf.DataSource.Dns == MemoryDataSource
}

func (cnf *Configuration) validateAndAddDefaults() error {
	cnf.ProjectName = strings.TrimSpace(cnf.ProjectName)
	cnf.Server.Port = strings.TrimSpace(cnf.Server.Port)
	cnf.DataSource.Dns = strings.TrimSpace(cnf.DataSource.Dns)
	cnf.Redis.Dns = strings.TrimSpace(cnf.Redis.Dns)

	if cnf.ProjectName == "" {
		cnf.ProjectName = DEFAULT_PROJECT_NAME
	}

	if cnf.DataSource.Dns == "" {
		log.Println("Warning: Data source DNS is empty. Using the in-memory store.")
		cnf.DataSource.Dns = MemoryDataSource
	}

	if cnf.Server.Secure && cnf.Server.SecretKey == "" {
		return errors.New("secret key is required when secure mode is enabled")
	}

	if cnf.Notification.Webhook.Url != "" && cnf.Redis.Dns == "" {
		return errors.New("redis DNS is required to deliver webhooks")
	}

	if cnf.Server.Port == "" {
		cnf.Server.Port = DEFAULT_PORT
		log.Printf("Warning: Port not specified in config. Setting default port: %s", DEFAULT_PORT)
	}

	if cnf.Ledger.LockWaitTimeout <= 0 {
		cnf.Ledger.LockWaitTimeout = defaultLockWaitTimeout
	}
	if cnf.Ledger.LockTTL <= 0 {
		cnf.Ledger.LockTTL = defaultLockTTL
	}
	if cnf.Ledger.LockTTL < cnf.Ledger.LockWaitTimeout {
		return errors.New("ledger lock TTL must not be shorter than the lock wait timeout")
	}
	if cnf.Ledger.MaxRetries <= 0 {
		cnf.Ledger.MaxRetries = defaultMaxRetries
	}
	if cnf.Ledger.PageSize <= 0 {
		cnf.Ledger.PageSize = defaultPageSize
	}

	// Rate limiting is disabled by default (when both RPS and Burst are nil)
	if cnf.RateLimit.RequestsPerSecond != nil && cnf.RateLimit.Burst == nil {
		defaultBurst := 2 * int(*cnf.RateLimit.RequestsPerSecond)
		cnf.RateLimit.Burst = &defaultBurst
		log.Printf("Warning: Rate limit burst not specified. Setting default value: %d", defaultBurst)
	}
	if cnf.RateLimit.RequestsPerSecond == nil && cnf.RateLimit.Burst != nil {
		defaultRPS := float64(*cnf.RateLimit.Burst) / 2
		cnf.RateLimit.RequestsPerSecond = &defaultRPS
		log.Printf("Warning: Rate limit RPS not specified. Setting default value: %.2f", defaultRPS)
	}
	if cnf.RateLimit.CleanupIntervalSec == nil {
		defaultCleanup := 10800 // 3 hours in seconds
		cnf.RateLimit.CleanupIntervalSec = &defaultCleanup
	}

	return nil
}

// MockConfig sets a mock configuration for testing purposes.
func MockConfig(mockConfig *Configuration) {
	ConfigStore.Store(mockConfig)
}

func logger() {
	logger := logrus.New()
	log.SetOutput(logger.Writer())
}
