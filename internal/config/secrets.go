package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Secrets holds API credentials sourced from the environment (optionally a
// .env file). They never live in the YAML config so config files stay
// shareable.
type Secrets struct {
	TelegramAPIKey string
	ClimaAPIKey    string
	NoticiasAPIKey string
	TogetherAPIKey string
	AzureTTSKey    string
	AzureTTSRegion string
	JWTSecret      string
}

// LoadSecrets reads secrets from the environment after loading .env if one
// exists. A missing .env file is not an error.
func LoadSecrets() *Secrets {
	_ = godotenv.Load()

	return &Secrets{
		TelegramAPIKey: os.Getenv("TELEGRAM_API_KEY"),
		ClimaAPIKey:    os.Getenv("CLIMA_API_KEY"),
		NoticiasAPIKey: os.Getenv("NOTICIAS_API_KEY"),
		TogetherAPIKey: os.Getenv("TOGETHER_API_KEY"),
		AzureTTSKey:    os.Getenv("AZURE_TTS_API_KEY"),
		AzureTTSRegion: os.Getenv("AZURE_TTS_REGION"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
	}
}

// RequireForServe checks the secrets the serve command cannot run without.
// Audio and news keys are optional — those features degrade gracefully.
func (s *Secrets) RequireForServe() error {
	var missing []string
	if s.TelegramAPIKey == "" {
		missing = append(missing, "TELEGRAM_API_KEY")
	}
	if s.ClimaAPIKey == "" {
		missing = append(missing, "CLIMA_API_KEY")
	}
	if s.TogetherAPIKey == "" {
		missing = append(missing, "TOGETHER_API_KEY")
	}
	if s.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("config: missing environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}
