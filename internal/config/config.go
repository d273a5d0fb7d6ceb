package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

type Config struct {
	Discord DiscordConfig
	Sentry  SentryConfig
	Fun     FunConfig
	Storage StorageConfig
	Server  ServerConfig
	Log     LogConfig
}

type DiscordConfig struct {
	Token        string
	Prefix       string // command prefix, e.g. "?ping"
	TagPrefix    string // tag lookup prefix, e.g. "!faq"
	LogChannelID string // channel for startup/error announcements; optional
	SupportRole  string // role name gating support commands
}

type SentryConfig struct {
	BaseURL      string
	Organization string
	Project      string
	APIKey       string
	IssueURLBase string // web origin for issue detail links

	MaxAttempts     int
	InitialInterval time.Duration
	Multiplier      float64
	FetchTimeout    time.Duration
}

// FunConfig holds the endpoints for the one-shot lookup commands.
type FunConfig struct {
	DogURL       string
	CatURL       string
	MemeURL      string
	InsultURL    string
	BuzzwordURL  string
	AgeifyURL    string
	CountriesURL string
	TrumpURL     string
	DogAPIKey    string
	CatAPIKey    string
}

type StorageConfig struct {
	DataDir string
}

type ServerConfig struct {
	Port int // ops HTTP endpoint (health/status)
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Discord: DiscordConfig{
			Prefix:      "?",
			TagPrefix:   "!",
			SupportRole: "Support",
		},
		Sentry: SentryConfig{
			BaseURL:         "https://sentry.io/api/0",
			Organization:    "ermcorporation",
			Project:         "cronus",
			IssueURLBase:    "https://ermcorporation.sentry.io",
			MaxAttempts:     4,
			InitialInterval: 2 * time.Second,
			Multiplier:      1.3,
			FetchTimeout:    10 * time.Second,
		},
		Fun: FunConfig{
			DogURL:       "https://api.thedogapi.com/v1/images/search",
			CatURL:       "https://api.thecatapi.com/v1/images/search",
			MemeURL:      "https://meme-api.com/gimme",
			InsultURL:    "https://evilinsult.com/generate_insult.php?lang=en",
			BuzzwordURL:  "https://corporatebs-generator.sameerkumar.website/",
			AgeifyURL:    "https://api.agify.io",
			CountriesURL: "https://restcountries.com/v3.1/name/",
			TrumpURL:     "https://api.tronalddump.io/random/quote",
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Server: ServerConfig{
			Port: 4600,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func defaultDataDir() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".local", "share")
		} else {
			return "cronus-data"
		}
	}
	return filepath.Join(dir, "cronus")
}

// Load builds the configuration from defaults and CRONUS_* environment
// variables. A .env file, when present, is loaded into the environment by
// main before this runs. The Discord token is the only hard requirement;
// commands backed by unconfigured APIs degrade at invocation time instead.
func Load() (Config, error) {
	cfg := defaults()
	applyEnvOverrides(&cfg)

	if cfg.Discord.Token == "" {
		return Config{}, fmt.Errorf("missing required config: Discord bot token. Set it via environment variable CRONUS_DISCORD_TOKEN")
	}

	return cfg, nil
}
