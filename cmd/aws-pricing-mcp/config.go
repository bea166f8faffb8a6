package main

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// config holds the environment-driven settings for the server. Every field
// has a default that reproduces the AWS Pricing Calculator's public
// endpoints; overrides exist for testing against a stand-in.
type config struct {
	ManifestURL       string
	DefinitionBaseURL string
	SaveURL           string
	LoadURLTemplate   string
	HTTPTimeout       time.Duration
	LogLevel          zerolog.Level
}

func loadConfig(logger zerolog.Logger) config {
	cfg := config{
		ManifestURL:       getEnv("AWS_PRICING_MCP_MANIFEST_URL", "https://d1qsjq9pzbk1k6.cloudfront.net/manifest/en_US.json"),
		DefinitionBaseURL: getEnv("AWS_PRICING_MCP_DEFINITION_BASE_URL", "https://d1qsjq9pzbk1k6.cloudfront.net/data/%s/en_US.json"),
		SaveURL:           getEnv("AWS_PRICING_MCP_SAVE_URL", "https://dnd5zrqcec4or.cloudfront.net/Prod/v2/saveAs"),
		LoadURLTemplate:   getEnv("AWS_PRICING_MCP_LOAD_URL_TEMPLATE", "https://d3knqfixx3sbls.cloudfront.net/%s"),
		HTTPTimeout:       30 * time.Second,
		LogLevel:          zerolog.InfoLevel,
	}

	if raw := os.Getenv("AWS_PRICING_MCP_HTTP_TIMEOUT_SECONDS"); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
			cfg.HTTPTimeout = time.Duration(secs) * time.Second
		} else {
			logger.Warn().Str("value", raw).Msg("invalid AWS_PRICING_MCP_HTTP_TIMEOUT_SECONDS, using default")
		}
	}

	if raw := os.Getenv("AWS_PRICING_MCP_LOG_LEVEL"); raw != "" {
		if level, err := zerolog.ParseLevel(raw); err == nil {
			cfg.LogLevel = level
		} else {
			logger.Warn().Str("value", raw).Msg("invalid AWS_PRICING_MCP_LOG_LEVEL, using default")
		}
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
