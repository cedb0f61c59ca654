package config

import (
	"log"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	DiscordToken     string `env:"DISCORD_TOKEN"`
	OllamaBaseURL    string `env:"OLLAMA_BASE_URL" envDefault:"http://localhost:11434"`
	OllamaModel      string `env:"OLLAMA_MODEL" envDefault:"mistral:7b-instruct-q4_0"`
	DBPath           string `env:"DB_PATH" envDefault:"bot_policies.db"`
	BasePromptPath   string `env:"BASE_PROMPT_PATH" envDefault:"data/base_policy.txt"`
	MaxMessageLength int    `env:"MAX_MESSAGE_LENGTH" envDefault:"2000"`
}

func New() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[INFO] No .env file found, falling back to system environment variables")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		log.Fatal("[ERR] Failed to parse environment: ", err)
	}

	if cfg.DiscordToken == "" {
		log.Fatal("[ERR] DISCORD_TOKEN is not set")
	}

	return cfg
}
