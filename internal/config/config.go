package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Credentials struct {
	ChatCompletions   string `mapstructure:"chat_completions"`
	AnthropicMessages string `mapstructure:"anthropic_messages"`
}

type Config struct {
	Address           string        `mapstructure:"address"`
	ModelsPath        string        `mapstructure:"models_path"`
	TelemetryURL      string        `mapstructure:"telemetry_url"`
	TelemetryInsecure bool          `mapstructure:"telemetry_insecure"`
	Timeout           time.Duration `mapstructure:"timeout"`
	LogLevel          string        `mapstructure:"log_level"`
	Development       bool          `mapstructure:"development"`
	BannedWords       []string      `mapstructure:"banned_words"`
	Credentials       Credentials   `mapstructure:"credentials"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("address", ":8080")
	v.SetDefault("models_path", "")
	v.SetDefault("telemetry_url", "")
	v.SetDefault("telemetry_insecure", true)
	v.SetDefault("timeout", "60s")
	v.SetDefault("log_level", "info")
	v.SetDefault("development", false)
	v.SetDefault("banned_words", []string{})

	// allow environment variables like MULTICHAT_ADDRESS
	v.SetEnvPrefix("MULTICHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// vendor-style names are accepted as fallbacks for the credentials
	if err := v.BindEnv("credentials.chat_completions", "MULTICHAT_CREDENTIALS_CHAT_COMPLETIONS", "GROQ_API_KEY", "API_KEY"); err != nil {
		return nil, err
	}
	if err := v.BindEnv("credentials.anthropic_messages", "MULTICHAT_CREDENTIALS_ANTHROPIC_MESSAGES", "ANTHROPIC_API_KEY"); err != nil {
		return nil, err
	}

	if err := v.ReadInConfig(); err != nil {
		// don't fail if config file is missing, allow env-only config
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) {
			return nil, err
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	return &c, nil
}
