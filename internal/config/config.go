package config

import (
	"fmt"
	"reflect"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the application configuration.
type Config struct {
	EnvVars EnvVars  `json:"env"`
	Prompts *Prompts `json:"-"`
}

// EnvVars holds environment variables required by the application.
// Fields tagged `optional:"true"` are skipped by CheckConfigEnvFields.
type EnvVars struct {
	Port                  string `env:"PORT" envDefault:"8080"`
	PromptsPath           string `env:"PROMPTS_PATH" envDefault:"configs/prompts.yaml"`
	TelegramToken         string `env:"TELEGRAM_TOKEN"`
	TelegramWebhookSecret string `env:"TELEGRAM_WEBHOOK_SECRET" optional:"true"`
	AWSRegion             string `env:"AWS_REGION"`
	AWSAccessKeyID        string `env:"AWS_ACCESS_KEY_ID" optional:"true"`
	AWSSecretAccessKey    string `env:"AWS_SECRET_ACCESS_KEY" optional:"true"`
	S3Bucket              string `env:"S3_BUCKET"`
	AnthropicAPIKey       string `env:"ANTHROPIC_API_KEY"`
	OpenAIAPIKey          string `env:"OPENAI_API_KEY" optional:"true"`
	OpenWeatherAPIKey     string `env:"OPENWEATHER_API_KEY"`
	GooglePlacesKey       string `env:"GOOGLE_PLACES_KEY"`
	DatabaseUrl           string `env:"DATABASE_URL" optional:"true"`
	RedisURL              string `env:"REDIS_URL" optional:"true"`

	TranscribeProvider string `env:"TRANSCRIBE_PROVIDER" envDefault:"aws"`
	TranscribeLanguage string `env:"TRANSCRIBE_LANGUAGE" envDefault:"en-US"`
	SpeechProvider     string `env:"SPEECH_PROVIDER" envDefault:"polly"`
	PollyVoice         string `env:"POLLY_VOICE" envDefault:"Joanna"`
	EuroleagueSeason   string `env:"EUROLEAGUE_SEASON" envDefault:"E2024"`

	RequestBudget          time.Duration `env:"REQUEST_BUDGET" envDefault:"50s"`
	TranscribeTimeout      time.Duration `env:"TRANSCRIBE_TIMEOUT" envDefault:"30s"`
	TranscribePollInterval time.Duration `env:"TRANSCRIBE_POLL_INTERVAL" envDefault:"2s"`
	IntentConfidenceFloor  float64       `env:"INTENT_CONFIDENCE_FLOOR" envDefault:"0.5" optional:"true"`
	ProviderAttempts       int           `env:"PROVIDER_ATTEMPTS" envDefault:"3"`
	SerializePerChat       bool          `env:"SERIALIZE_PER_CHAT" envDefault:"false" optional:"true"`
	RateLimitRPS           int           `env:"RATE_LIMIT_RPS" envDefault:"5"`
}

// LoadConfig parses environment variables into the Config struct.
func LoadConfig() (*Config, error) {
	var config Config
	if err := env.Parse(&config.EnvVars); err != nil {
		return nil, err
	}
	return &config, nil
}

// CheckConfigEnvFields validates that all required EnvVars fields are set.
func (c *Config) CheckConfigEnvFields() error {
	if err := checkFieldsRecursive(reflect.ValueOf(c.EnvVars)); err != nil {
		return err
	}
	return c.checkProviders()
}

// checkProviders validates the provider selections and their credentials.
func (c *Config) checkProviders() error {
	switch c.EnvVars.TranscribeProvider {
	case "aws":
	case "whisper":
		if c.EnvVars.OpenAIAPIKey == "" {
			return fmt.Errorf("$OpenAIAPIKey must be set when TRANSCRIBE_PROVIDER=whisper")
		}
	default:
		return fmt.Errorf("unknown TRANSCRIBE_PROVIDER %q", c.EnvVars.TranscribeProvider)
	}

	switch c.EnvVars.SpeechProvider {
	case "polly":
	case "openai":
		if c.EnvVars.OpenAIAPIKey == "" {
			return fmt.Errorf("$OpenAIAPIKey must be set when SPEECH_PROVIDER=openai")
		}
	default:
		return fmt.Errorf("unknown SPEECH_PROVIDER %q", c.EnvVars.SpeechProvider)
	}

	if c.EnvVars.TranscribePollInterval <= 0 {
		return fmt.Errorf("$TranscribePollInterval must be positive")
	}
	return nil
}

func checkFieldsRecursive(v reflect.Value) error {
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := v.Type().Field(i)
		if fieldType.Tag.Get("optional") == "true" {
			continue
		}
		if isZeroValue(field) {
			return fmt.Errorf("$%s must be set", fieldType.Name)
		}
		if field.Kind() == reflect.Struct {
			if err := checkFieldsRecursive(field); err != nil {
				return err
			}
		}
	}
	return nil
}

func isZeroValue(v reflect.Value) bool {
	return v.Interface() == reflect.Zero(v.Type()).Interface()
}
