package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type keyType int

const (
	kString keyType = iota
	kInt
	kFloat
	kDuration
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "discord.token", typ: kString, env: "CRONUS_DISCORD_TOKEN",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Discord.Token = v.(string) },
		extract: func(cfg Config) any { return cfg.Discord.Token },
	},
	{
		key: "discord.prefix", typ: kString, env: "CRONUS_DISCORD_PREFIX",
		apply:   func(cfg *Config, v any) { cfg.Discord.Prefix = v.(string) },
		extract: func(cfg Config) any { return cfg.Discord.Prefix },
	},
	{
		key: "discord.tag_prefix", typ: kString, env: "CRONUS_DISCORD_TAG_PREFIX",
		apply:   func(cfg *Config, v any) { cfg.Discord.TagPrefix = v.(string) },
		extract: func(cfg Config) any { return cfg.Discord.TagPrefix },
	},
	{
		key: "discord.log_channel_id", typ: kString, env: "CRONUS_DISCORD_LOG_CHANNEL_ID",
		apply:   func(cfg *Config, v any) { cfg.Discord.LogChannelID = v.(string) },
		extract: func(cfg Config) any { return cfg.Discord.LogChannelID },
	},
	{
		key: "discord.support_role", typ: kString, env: "CRONUS_DISCORD_SUPPORT_ROLE",
		apply:   func(cfg *Config, v any) { cfg.Discord.SupportRole = v.(string) },
		extract: func(cfg Config) any { return cfg.Discord.SupportRole },
	},
	{
		key: "sentry.base_url", typ: kString, env: "CRONUS_SENTRY_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Sentry.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Sentry.BaseURL },
	},
	{
		key: "sentry.organization", typ: kString, env: "CRONUS_SENTRY_ORGANIZATION",
		apply:   func(cfg *Config, v any) { cfg.Sentry.Organization = v.(string) },
		extract: func(cfg Config) any { return cfg.Sentry.Organization },
	},
	{
		key: "sentry.project", typ: kString, env: "CRONUS_SENTRY_PROJECT",
		apply:   func(cfg *Config, v any) { cfg.Sentry.Project = v.(string) },
		extract: func(cfg Config) any { return cfg.Sentry.Project },
	},
	{
		key: "sentry.api_key", typ: kString, env: "CRONUS_SENTRY_API_KEY",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Sentry.APIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.Sentry.APIKey },
	},
	{
		key: "sentry.issue_url_base", typ: kString, env: "CRONUS_SENTRY_ISSUE_URL_BASE",
		apply:   func(cfg *Config, v any) { cfg.Sentry.IssueURLBase = v.(string) },
		extract: func(cfg Config) any { return cfg.Sentry.IssueURLBase },
	},
	{
		key: "sentry.max_attempts", typ: kInt, env: "CRONUS_SENTRY_MAX_ATTEMPTS",
		apply:   func(cfg *Config, v any) { cfg.Sentry.MaxAttempts = v.(int) },
		extract: func(cfg Config) any { return cfg.Sentry.MaxAttempts },
	},
	{
		key: "sentry.initial_interval", typ: kDuration, env: "CRONUS_SENTRY_INITIAL_INTERVAL",
		apply:   func(cfg *Config, v any) { cfg.Sentry.InitialInterval = v.(time.Duration) },
		extract: func(cfg Config) any { return cfg.Sentry.InitialInterval },
	},
	{
		key: "sentry.multiplier", typ: kFloat, env: "CRONUS_SENTRY_MULTIPLIER",
		apply:   func(cfg *Config, v any) { cfg.Sentry.Multiplier = v.(float64) },
		extract: func(cfg Config) any { return cfg.Sentry.Multiplier },
	},
	{
		key: "sentry.fetch_timeout", typ: kDuration, env: "CRONUS_SENTRY_FETCH_TIMEOUT",
		apply:   func(cfg *Config, v any) { cfg.Sentry.FetchTimeout = v.(time.Duration) },
		extract: func(cfg Config) any { return cfg.Sentry.FetchTimeout },
	},
	{
		key: "fun.dog_url", typ: kString, env: "CRONUS_FUN_DOG_URL",
		apply:   func(cfg *Config, v any) { cfg.Fun.DogURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Fun.DogURL },
	},
	{
		key: "fun.cat_url", typ: kString, env: "CRONUS_FUN_CAT_URL",
		apply:   func(cfg *Config, v any) { cfg.Fun.CatURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Fun.CatURL },
	},
	{
		key: "fun.meme_url", typ: kString, env: "CRONUS_FUN_MEME_URL",
		apply:   func(cfg *Config, v any) { cfg.Fun.MemeURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Fun.MemeURL },
	},
	{
		key: "fun.insult_url", typ: kString, env: "CRONUS_FUN_INSULT_URL",
		apply:   func(cfg *Config, v any) { cfg.Fun.InsultURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Fun.InsultURL },
	},
	{
		key: "fun.buzzword_url", typ: kString, env: "CRONUS_FUN_BUZZWORD_URL",
		apply:   func(cfg *Config, v any) { cfg.Fun.BuzzwordURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Fun.BuzzwordURL },
	},
	{
		key: "fun.ageify_url", typ: kString, env: "CRONUS_FUN_AGEIFY_URL",
		apply:   func(cfg *Config, v any) { cfg.Fun.AgeifyURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Fun.AgeifyURL },
	},
	{
		key: "fun.countries_url", typ: kString, env: "CRONUS_FUN_COUNTRIES_URL",
		apply:   func(cfg *Config, v any) { cfg.Fun.CountriesURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Fun.CountriesURL },
	},
	{
		key: "fun.trump_url", typ: kString, env: "CRONUS_FUN_TRUMP_URL",
		apply:   func(cfg *Config, v any) { cfg.Fun.TrumpURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Fun.TrumpURL },
	},
	{
		key: "fun.dog_api_key", typ: kString, env: "CRONUS_FUN_DOG_API_KEY",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Fun.DogAPIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.Fun.DogAPIKey },
	},
	{
		key: "fun.cat_api_key", typ: kString, env: "CRONUS_FUN_CAT_API_KEY",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Fun.CatAPIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.Fun.CatAPIKey },
	},
	{
		key: "storage.data_dir", typ: kString, env: "CRONUS_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "server.port", typ: kInt, env: "CRONUS_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "log.level", typ: kString, env: "CRONUS_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		case kFloat:
			if f, err := strconv.ParseFloat(raw, 64); err == nil {
				s.apply(cfg, f)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse float from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		case kDuration:
			if d, err := time.ParseDuration(raw); err == nil {
				s.apply(cfg, d)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse duration from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}

// KeyInfo describes a config key for display purposes.
type KeyInfo struct {
	Key    string
	EnvVar string
	Value  string
}

// ShowAll returns all non-secret config key/value pairs.
func ShowAll(cfg Config) []KeyInfo {
	var result []KeyInfo
	for _, s := range specs {
		if s.secret {
			continue
		}
		result = append(result, KeyInfo{
			Key:    s.key,
			EnvVar: s.env,
			Value:  fmt.Sprintf("%v", s.extract(cfg)),
		})
	}
	return result
}

// EnvVarFor maps a config key to its environment variable. Secret keys
// resolve too: setting the token is the main use of the mapping.
func EnvVarFor(key string) (string, bool) {
	for _, s := range specs {
		if s.key == key {
			return s.env, true
		}
	}
	return "", false
}
