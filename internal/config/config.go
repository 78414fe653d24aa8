package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Providers understood by the extraction pipeline.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Taxonomies the extraction prompt can target.
const (
	TaxonomyDivision = "division"
	TaxonomyCategory = "category"
)

// EnvPrefix is prepended to every environment override: HISTORYBOWL_DB_PATH, HISTORYBOWL_LLM_MODEL, etc.
const EnvPrefix = "HISTORYBOWL"

// Config holds all application configuration
type Config struct {
	DB      DBConfig      `mapstructure:"db"`
	Log     LogConfig     `mapstructure:"log"`
	LLM     LLMConfig     `mapstructure:"llm"`
	Extract ExtractConfig `mapstructure:"extract"`
	Server  ServerConfig  `mapstructure:"server"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Env string `mapstructure:"env"`
}

// LLMConfig selects the text generator used by extract and summarize.
// BaseURL points the OpenAI client at any compatible endpoint (OpenRouter, LiteLLM).
type LLMConfig struct {
	Provider         string `mapstructure:"provider"`
	BaseURL          string `mapstructure:"base_url"`
	APIKey           string `mapstructure:"api_key"`
	Model            string `mapstructure:"model"`
	MaxTokens        int    `mapstructure:"max_tokens"`
	SummaryMaxTokens int    `mapstructure:"summary_max_tokens"`
}

type ExtractConfig struct {
	Delay    time.Duration `mapstructure:"delay"`
	Taxonomy string        `mapstructure:"taxonomy"`
}

type ServerConfig struct {
	Listen string `mapstructure:"listen"`
}

// NewDefaultConfig returns the configuration used when nothing is overridden.
// An empty DB path means "discover".
func NewDefaultConfig() *Config {
	return &Config{
		Log: LogConfig{Env: "development"},
		LLM: LLMConfig{
			Provider:         ProviderOpenAI,
			Model:            "gpt-4o-mini",
			MaxTokens:        1000,
			SummaryMaxTokens: 500,
		},
		Extract: ExtractConfig{
			Delay:    time.Second,
			Taxonomy: TaxonomyDivision,
		},
		Server: ServerConfig{Listen: "127.0.0.1:8080"},
	}
}

// InitViper creates a configured *viper.Viper.
//
// Precedence (highest to lowest):
//  1. CLI flags (once bound via BindFlag)
//  2. Environment variables, including those loaded from .env
//  3. the config file
//  4. defaults from NewDefaultConfig()
//
// An explicit configFile must exist. Without one, historybowl.yaml is looked
// up in the working directory and the user config dir, and may be absent.
func InitViper(configFile string) (*viper.Viper, error) {
	// A missing .env is fine.
	_ = godotenv.Load()

	v := viper.New()
	setViperDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("historybowl")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "historybowl"))
		}
		if err := v.ReadInConfig(); err != nil {
			if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Provider-native key names work as well.
	_ = v.BindEnv("llm.api_key", EnvPrefix+"_LLM_API_KEY", "OPENAI_API_KEY", "OPENROUTER_API_KEY", "GEMINI_API_KEY")

	return v, nil
}

func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("db.path", d.DB.Path)
	v.SetDefault("log.env", d.Log.Env)

	v.SetDefault("llm.provider", d.LLM.Provider)
	v.SetDefault("llm.base_url", d.LLM.BaseURL)
	v.SetDefault("llm.api_key", d.LLM.APIKey)
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.max_tokens", d.LLM.MaxTokens)
	v.SetDefault("llm.summary_max_tokens", d.LLM.SummaryMaxTokens)

	v.SetDefault("extract.delay", d.Extract.Delay)
	v.SetDefault("extract.taxonomy", d.Extract.Taxonomy)

	v.SetDefault("server.listen", d.Server.Listen)
}

// BindFlag binds a flag on cmd (local or persistent) to a dotted viper key.
// Unknown flag names are ignored.
func BindFlag(v *viper.Viper, cmd *cobra.Command, key, flag string) {
	f := cmd.Flags().Lookup(flag)
	if f == nil {
		f = cmd.PersistentFlags().Lookup(flag)
	}
	if f == nil {
		return
	}
	_ = v.BindPFlag(key, f)
}

// Load unmarshals v into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	cfg.Extract.Taxonomy = strings.ToLower(strings.TrimSpace(cfg.Extract.Taxonomy))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderGemini:
	default:
		return fmt.Errorf("llm.provider: unknown provider %q (want %s or %s)", c.LLM.Provider, ProviderOpenAI, ProviderGemini)
	}
	switch c.Extract.Taxonomy {
	case TaxonomyDivision, TaxonomyCategory:
	default:
		return fmt.Errorf("extract.taxonomy: unknown taxonomy %q (want %s or %s)", c.Extract.Taxonomy, TaxonomyDivision, TaxonomyCategory)
	}
	if c.LLM.MaxTokens <= 0 || c.LLM.SummaryMaxTokens <= 0 {
		return fmt.Errorf("llm token limits must be positive")
	}
	if c.Extract.Delay < 0 {
		return fmt.Errorf("extract.delay must not be negative")
	}
	if _, _, err := net.SplitHostPort(c.Server.Listen); err != nil {
		return fmt.Errorf("server.listen: %w", err)
	}
	return nil
}
