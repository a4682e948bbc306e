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
	DEFAULT_PORT              = "5002"
	DEFAULT_RESOURCES_FILE    = "resources.json"
	DEFAULT_PAGE_SIZE         = 20
	DEFAULT_MAX_PAGE_SIZE     = 100
	DEFAULT_CACHE_TTL_SECONDS = 60
)

var ConfigStore atomic.Value

type ServerConfig struct {
	SSL       bool   `json:"ssl" envconfig:"FLQUERY_SERVER_SSL"`
	Secure    bool   `json:"secure" envconfig:"FLQUERY_SERVER_SECURE"`
	SecretKey string `json:"secret_key" envconfig:"FLQUERY_SERVER_SECRET_KEY"`
	Domain    string `json:"domain" envconfig:"FLQUERY_SERVER_SSL_DOMAIN"`
	Email     string `json:"ssl_email" envconfig:"FLQUERY_SERVER_SSL_EMAIL"`
	Port      string `json:"port" envconfig:"FLQUERY_SERVER_PORT"`
}

type DataSourceConfig struct {
	Dns             string        `json:"dns" envconfig:"FLQUERY_DATA_SOURCE_DNS"`
	MaxOpenConns    int           `json:"max_open_conns" envconfig:"FLQUERY_DATA_SOURCE_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `json:"max_idle_conns" envconfig:"FLQUERY_DATA_SOURCE_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" envconfig:"FLQUERY_DATA_SOURCE_CONN_MAX_LIFETIME"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time" envconfig:"FLQUERY_DATA_SOURCE_CONN_MAX_IDLE_TIME"`
}

type RedisConfig struct {
	Dns           string `json:"dns" envconfig:"FLQUERY_REDIS_DNS"`
	SkipTLSVerify bool   `json:"skip_tls_verify" envconfig:"FLQUERY_REDIS_SKIP_TLS_VERIFY"`
}

type RateLimitConfig struct {
	RequestsPerSecond  *float64 `json:"requests_per_second" envconfig:"FLQUERY_RATE_LIMIT_RPS"`
	Burst              *int     `json:"burst" envconfig:"FLQUERY_RATE_LIMIT_BURST"`
	CleanupIntervalSec *int     `json:"cleanup_interval_sec" envconfig:"FLQUERY_RATE_LIMIT_CLEANUP_INTERVAL_SEC"`
}

// FilterConfig controls where resources are read from and how searches are paged and cached.
type FilterConfig struct {
	ResourcesFile   string `json:"resources_file" envconfig:"FLQUERY_FILTER_RESOURCES_FILE"`
	CacheTTLSeconds int    `json:"cache_ttl_seconds" envconfig:"FLQUERY_FILTER_CACHE_TTL_SECONDS"`
	DefaultPageSize int    `json:"default_page_size" envconfig:"FLQUERY_FILTER_DEFAULT_PAGE_SIZE"`
	MaxPageSize     int    `json:"max_page_size" envconfig:"FLQUERY_FILTER_MAX_PAGE_SIZE"`
}

type SlackWebhook struct {
	WebhookUrl string `json:"webhook_url" envconfig:"FLQUERY_SLACK_WEBHOOK_URL"`
}

type NotificationConfig struct {
	Slack SlackWebhook `json:"slack"`
}

type Configuration struct {
	ProjectName  string             `json:"project_name" envconfig:"FLQUERY_PROJECT_NAME"`
	Server       ServerConfig       `json:"server"`
	DataSource   DataSourceConfig   `json:"data_source"`
	Redis        RedisConfig        `json:"redis"`
	RateLimit    RateLimitConfig    `json:"rate_limit"`
	Filter       FilterConfig       `json:"filter"`
	Notification NotificationConfig `json:"notification"`
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
	err = envconfig.Process("flquery", &cnf)
	if err != nil {
		return err
	}

	err = cnf.validateAndAddDefaults()
	if err != nil {
		return err
	}

	ConfigStore.Store(&cnf)
	return err
}

func InitConfig(configFile string) error {
	logger()
	return loadConfigFromFile(configFile)
}

func Fetch() (*Configuration, error) {
	config := ConfigStore.Load()
	c, ok := config.(*Configuration)
	if !ok {
		return nil, errors.New("config not loaded from file. Create a json file called flquery.json with your config ❌")
	}
	return c, nil
}

// CacheEnabled reports whether search results should be cached in redis.
func (cnf *Configuration) CacheEnabled() bool {
	return cnf.Redis.Dns != "" && cnf.Filter.CacheTTLSeconds > 0
}

func (cnf *Configuration) validateAndAddDefaults() error {
	if cnf.ProjectName == "" {
		log.Println("Warning: Project name is empty. Setting a default name.")
		cnf.ProjectName = "FlQuery Server"
	}

	if cnf.DataSource.Dns == "" {
		log.Println("Error: Data source DNS is empty. It's a required field.")
		return errors.New("data source DNS is required")
	}

	// Trim white spaces from fields
	cnf.ProjectName = strings.TrimSpace(cnf.ProjectName)
	cnf.Server.Port = strings.TrimSpace(cnf.Server.Port)
	cnf.DataSource.Dns = strings.TrimSpace(cnf.DataSource.Dns)
	cnf.Redis.Dns = strings.TrimSpace(cnf.Redis.Dns)
	cnf.Filter.ResourcesFile = strings.TrimSpace(cnf.Filter.ResourcesFile)
	cnf.Notification.Slack.WebhookUrl = strings.TrimSpace(cnf.Notification.Slack.WebhookUrl)

	if cnf.Redis.Dns == "" {
		log.Println("Warning: Redis DNS is empty. Search results will not be cached.")
	}

	// Connection pool defaults
	if cnf.DataSource.MaxOpenConns <= 0 {
		cnf.DataSource.MaxOpenConns = 25
	}
	if cnf.DataSource.MaxIdleConns <= 0 {
		cnf.DataSource.MaxIdleConns = 10
	}
	if cnf.DataSource.ConnMaxLifetime <= 0 {
		cnf.DataSource.ConnMaxLifetime = 30 * time.Minute
	}
	if cnf.DataSource.ConnMaxIdleTime <= 0 {
		cnf.DataSource.ConnMaxIdleTime = 5 * time.Minute
	}

	// Set default value for Port if it's empty
	if cnf.Server.Port == "" {
		cnf.Server.Port = DEFAULT_PORT
		log.Printf("Warning: Port not specified in config. Setting default port: %s", DEFAULT_PORT)
	}

	if cnf.Filter.ResourcesFile == "" {
		cnf.Filter.ResourcesFile = DEFAULT_RESOURCES_FILE
	}
	if cnf.Filter.MaxPageSize <= 0 {
		cnf.Filter.MaxPageSize = DEFAULT_MAX_PAGE_SIZE
	}
	if cnf.Filter.DefaultPageSize <= 0 || cnf.Filter.DefaultPageSize > cnf.Filter.MaxPageSize {
		cnf.Filter.DefaultPageSize = min(DEFAULT_PAGE_SIZE, cnf.Filter.MaxPageSize)
	}
	if cnf.Filter.CacheTTLSeconds < 0 {
		return errors.New("filter cache TTL cannot be negative")
	}
	if cnf.Filter.CacheTTLSeconds == 0 && cnf.Redis.Dns != "" {
		cnf.Filter.CacheTTLSeconds = DEFAULT_CACHE_TTL_SECONDS
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

	// Set default cleanup interval if not specified
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
