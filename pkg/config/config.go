package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Twitter TwitterConfig `mapstructure:"twitter"`
	Sheets  SheetsConfig  `mapstructure:"sheets"`
	OpenAI  OpenAIConfig  `mapstructure:"openai"`
	Gemini  GeminiConfig  `mapstructure:"gemini"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type TwitterConfig struct {
	APIKey            string `mapstructure:"api_key"`
	APISecret         string `mapstructure:"api_secret"`
	AccessToken       string `mapstructure:"access_token"`
	AccessTokenSecret string `mapstructure:"access_token_secret"`
	RequestsPerWindow int    `mapstructure:"requests_per_window"`
	RequestTimeout    int    `mapstructure:"request_timeout_seconds"`
}

type SheetsConfig struct {
	CredentialsFile string `mapstructure:"credentials_file"`
	SpreadsheetID   string `mapstructure:"spreadsheet_id"`
	SheetName       string `mapstructure:"sheet_name"`
}

type OpenAIConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
	MaxWords    int     `mapstructure:"max_words"`
}

type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

func LoadConfig(path string) (*Config, error) {
	// A local .env is the usual place for credentials during development
	_ = godotenv.Load()

	v := viper.New()

	// Set default values
	v.SetDefault("twitter.requests_per_window", 280)
	v.SetDefault("twitter.request_timeout_seconds", 30)
	v.SetDefault("sheets.sheet_name", "Sheet1")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.max_tokens", 500)
	v.SetDefault("openai.temperature", 0.3)
	v.SetDefault("openai.max_words", 200)
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("logging.level", "info")

	// Enable environment variable support
	v.AutomaticEnv()

	// Read the config file; running without one is fine, the environment
	// carries everything required
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Environment variables override file values for credentials
	if key := v.GetString("X_API_KEY"); key != "" {
		config.Twitter.APIKey = key
	}
	if secret := v.GetString("X_API_SECRET"); secret != "" {
		config.Twitter.APISecret = secret
	}
	if token := v.GetString("X_ACCESS_TOKEN"); token != "" {
		config.Twitter.AccessToken = token
	}
	if tokenSecret := v.GetString("X_ACCESS_TOKEN_SECRET"); tokenSecret != "" {
		config.Twitter.AccessTokenSecret = tokenSecret
	}
	if apiKey := v.GetString("OPENAI_API_KEY"); apiKey != "" {
		config.OpenAI.APIKey = apiKey
	}
	if apiKey := v.GetString("GOOGLE_AI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if creds := v.GetString("GOOGLE_SHEETS_CREDENTIALS_FILE"); creds != "" {
		config.Sheets.CredentialsFile = creds
	}
	if id := v.GetString("GOOGLE_SHEETS_ID"); id != "" {
		config.Sheets.SpreadsheetID = id
	}
	if level := v.GetString("LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	return &config, nil
}

// Validate checks that everything the run cannot start without is present.
// AI keys are deliberately not required: missing keys select the
// deterministic fallbacks instead.
func (c *Config) Validate() error {
	if c.Twitter.APIKey == "" || c.Twitter.APISecret == "" {
		return fmt.Errorf("twitter consumer credentials missing (set X_API_KEY and X_API_SECRET)")
	}
	if c.Twitter.AccessToken == "" || c.Twitter.AccessTokenSecret == "" {
		return fmt.Errorf("twitter access credentials missing (set X_ACCESS_TOKEN and X_ACCESS_TOKEN_SECRET)")
	}
	if c.Sheets.SpreadsheetID == "" {
		return fmt.Errorf("spreadsheet id missing (set GOOGLE_SHEETS_ID)")
	}
	if c.Sheets.CredentialsFile == "" {
		return fmt.Errorf("sheets credentials file missing (set GOOGLE_SHEETS_CREDENTIALS_FILE)")
	}
	if c.Twitter.RequestsPerWindow <= 0 {
		return fmt.Errorf("twitter.requests_per_window must be positive, got %d", c.Twitter.RequestsPerWindow)
	}
	return nil
}
