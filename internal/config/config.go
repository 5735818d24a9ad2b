// Package config loads the client configuration from config.yaml with
// environment-variable overrides. Missing optional sections disable their
// feature; a broken required value is fatal at startup, never later.
package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const defaultBackendTimeoutSeconds = 30

type Config struct {
	BackendURL            string `yaml:"backend_url"`
	BackendTimeoutSeconds int    `yaml:"backend_timeout_seconds"`

	DBPath    string `yaml:"db_path"`
	ExportDir string `yaml:"export_dir"`

	ServiceOwners        []string `yaml:"service_owners"`
	DefaultAssignedGroup string   `yaml:"default_assigned_group"`

	// Optional: local enrichment fallback when the backend AI endpoints
	// are unreachable.
	AnthropicAPIKey string `yaml:"anthropic_api_key"`
	AnthropicModel  string `yaml:"anthropic_model"`

	// Optional: batch-save and snapshot notifications.
	SlackBotToken  string `yaml:"slack_bot_token"`
	SlackChannelID string `yaml:"slack_channel_id"`

	// Optional: 5-field cron expression for scheduled dashboard snapshots.
	DashboardRefreshSchedule string `yaml:"dashboard_refresh_schedule"`
}

func LoadConfig() Config {
	var cfg Config

	configPath := "config.yaml"
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		configPath = envPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			log.Fatalf("Error parsing %s: %v", configPath, err)
		}
		log.Printf("Loaded config from %s", configPath)
	}

	envOverride(&cfg.BackendURL, "BACKEND_URL")
	envOverrideInt(&cfg.BackendTimeoutSeconds, "BACKEND_TIMEOUT_SECONDS")
	envOverride(&cfg.DBPath, "DB_PATH")
	envOverride(&cfg.ExportDir, "EXPORT_DIR")
	envOverride(&cfg.DefaultAssignedGroup, "DEFAULT_ASSIGNED_GROUP")
	envOverride(&cfg.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	envOverride(&cfg.AnthropicModel, "ANTHROPIC_MODEL")
	envOverride(&cfg.SlackBotToken, "SLACK_BOT_TOKEN")
	envOverride(&cfg.SlackChannelID, "SLACK_CHANNEL_ID")
	envOverride(&cfg.DashboardRefreshSchedule, "DASHBOARD_REFRESH_SCHEDULE")

	if owners := os.Getenv("SERVICE_OWNERS"); owners != "" {
		cfg.ServiceOwners = nil
		for _, o := range strings.Split(owners, ",") {
			o = strings.TrimSpace(o)
			if o != "" {
				cfg.ServiceOwners = append(cfg.ServiceOwners, o)
			}
		}
	}

	if cfg.BackendTimeoutSeconds == 0 {
		cfg.BackendTimeoutSeconds = defaultBackendTimeoutSeconds
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "./incidentflow.db"
	}
	if cfg.ExportDir == "" {
		cfg.ExportDir = "./exports"
	}
	if cfg.AnthropicModel == "" {
		cfg.AnthropicModel = "claude-sonnet-4-20250514"
	}

	if cfg.BackendURL == "" {
		log.Fatalf("Required config 'backend_url' is not set (via config.yaml or env var)")
	}
	cfg.BackendURL = strings.TrimRight(cfg.BackendURL, "/")

	if cfg.BackendTimeoutSeconds < 5 {
		log.Fatalf("invalid backend_timeout_seconds '%d': must be >= 5", cfg.BackendTimeoutSeconds)
	}
	if (cfg.SlackBotToken == "") != (cfg.SlackChannelID == "") {
		log.Fatalf("Partial Slack config: slack_bot_token and slack_channel_id are required together")
	}

	return cfg
}

func (c Config) SlackConfigured() bool {
	return c.SlackBotToken != "" && c.SlackChannelID != ""
}

func (c Config) AnthropicConfigured() bool {
	return c.AnthropicAPIKey != ""
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			log.Fatalf("invalid %s '%s': %v", envKey, val, err)
		}
		*field = parsed
	}
}
