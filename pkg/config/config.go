// Package config loads settings from the environment and an optional .env file
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/cpinzonpinto/bing-search-provision-test/pkg/agents"
	"github.com/cpinzonpinto/bing-search-provision-test/pkg/auth"
	"github.com/cpinzonpinto/bing-search-provision-test/pkg/tooling"
)

const (
	EnvEndpoint          = "PROJECT_ENDPOINT"
	EnvModel             = "MODEL_DEPLOYMENT_NAME"
	EnvBingConnectionID  = "BING_CONNECTION_ID"
	EnvQuestion          = "QUESTION"
	EnvKeepAgent         = "KEEP_AGENT"
	EnvAPIKey            = "PROJECT_API_KEY"
	EnvClientID          = "AZURE_CLIENT_ID"
	EnvTenantID          = "AZURE_TENANT_ID"
	EnvClientSecret      = "AZURE_CLIENT_SECRET"
	EnvAgentName         = "AGENT_NAME"
	EnvAgentInstructions = "AGENT_INSTRUCTIONS"
	EnvAPIVersion        = "AGENTS_API_VERSION"
	EnvPollInterval      = "RUN_POLL_INTERVAL"
	EnvMaxRetries        = "MAX_RETRIES"
	EnvBingMarket        = "BING_MARKET"
	EnvBingSetLang       = "BING_SET_LANG"
	EnvBingCount         = "BING_COUNT"
	EnvBingFreshness     = "BING_FRESHNESS"
)

const (
	DefaultQuestion     = "How does wikipedia explain Euler's Identity?"
	DefaultAgentName    = "bigsearch-agent"
	DefaultInstructions = "You are a helpful agent. Use Grounding with Bing Search to cite sources."
	DefaultEnvFile      = ".env"
)

var required = []string{EnvEndpoint, EnvModel, EnvBingConnectionID}

var optional = []string{
	EnvQuestion, EnvKeepAgent, EnvAPIKey, EnvClientID, EnvTenantID, EnvClientSecret,
	EnvAgentName, EnvAgentInstructions, EnvAPIVersion, EnvPollInterval, EnvMaxRetries,
	EnvBingMarket, EnvBingSetLang, EnvBingCount, EnvBingFreshness,
}

// MissingError reports a required setting that is absent or empty.
type MissingError struct {
	Name string
}

func (e *MissingError) Error() string {
	return "Missing required environment variable: " + e.Name
}

type Config struct {
	Endpoint     string
	Model        string
	Question     string
	KeepAgent    bool
	AgentName    string
	Instructions string

	APIVersion   string
	PollInterval time.Duration
	MaxRetries   int

	Bing tooling.BingGrounding

	ClientID     string
	TenantID     string
	ClientSecret string
	APIKey       string
}

func (c *Config) Identity() auth.Identity {
	return auth.Identity{
		ClientID:     c.ClientID,
		TenantID:     c.TenantID,
		ClientSecret: c.ClientSecret,
		APIKey:       c.APIKey,
	}
}

// LoadEnvFile copies the variables of path into the process environment
// without overriding ones already set. A missing default file is not an
// error.
func LoadEnvFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = DefaultEnvFile
	}
	err := godotenv.Load(path)
	if err != nil && !explicit && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// NewViper returns a viper instance with every setting bound to its
// environment variable.
func NewViper() (*viper.Viper, error) {
	v := viper.New()
	for _, name := range append(append([]string{}, required...), optional...) {
		if err := v.BindEnv(name, name); err != nil {
			return nil, fmt.Errorf("bind %s: %w", name, err)
		}
	}
	return v, nil
}

// Load builds the configuration from v, keyed by environment variable name.
func Load(v *viper.Viper) (*Config, error) {
	for _, name := range required {
		if v.GetString(name) == "" {
			return nil, &MissingError{Name: name}
		}
	}

	cfg := &Config{
		Endpoint:     v.GetString(EnvEndpoint),
		Model:        v.GetString(EnvModel),
		Question:     stringOr(v, EnvQuestion, DefaultQuestion),
		KeepAgent:    v.GetString(EnvKeepAgent) != "",
		AgentName:    stringOr(v, EnvAgentName, DefaultAgentName),
		Instructions: stringOr(v, EnvAgentInstructions, DefaultInstructions),
		APIVersion:   stringOr(v, EnvAPIVersion, agents.DefaultAPIVersion),
		PollInterval: agents.DefaultPollInterval,
		Bing: tooling.BingGrounding{
			ConnectionID: v.GetString(EnvBingConnectionID),
			Market:       v.GetString(EnvBingMarket),
			SetLang:      v.GetString(EnvBingSetLang),
			Freshness:    v.GetString(EnvBingFreshness),
		},
		ClientID:     v.GetString(EnvClientID),
		TenantID:     v.GetString(EnvTenantID),
		ClientSecret: v.GetString(EnvClientSecret),
		APIKey:       v.GetString(EnvAPIKey),
	}

	if s := v.GetString(EnvPollInterval); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid %s %q", EnvPollInterval, s)
		}
		cfg.PollInterval = d
	}

	var err error
	if cfg.MaxRetries, err = intOf(v, EnvMaxRetries); err != nil {
		return nil, err
	}
	if cfg.Bing.Count, err = intOf(v, EnvBingCount); err != nil {
		return nil, err
	}

	return cfg, nil
}

func stringOr(v *viper.Viper, key, fallback string) string {
	if s := v.GetString(key); s != "" {
		return s
	}
	return fallback
}

func intOf(v *viper.Viper, key string) (int, error) {
	s := v.GetString(key)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q", key, s)
	}
	return n, nil
}
