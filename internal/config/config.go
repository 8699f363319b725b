// Package config assembles the run configuration once at process start.
// Core packages receive the resulting record and never look up the
// environment themselves.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/pilgrimlyieu/starwatch/internal/domain"
)

// Config is the validated run configuration. Secrets come only from the
// environment (a .env file is honored) and must never be written to outputs.
type Config struct {
	TargetRepo   string
	AttackStart  time.Time
	ExcludeUsers []string
	Concurrency  int

	RawEventsPath  string
	AnonymizedPath string
	OutputDir      string
	AwesomeFiles   map[string]string

	GitHubToken      string
	AnonymizationKey string
}

// Load reads the configuration file at path and overlays the secrets from the
// environment. Missing file, missing target repository, or an unparsable
// attack start date are configuration errors and abort the run.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("concurrency", 10)
	v.SetDefault("unencrypted_input", "attack_data.csv")
	v.SetDefault("encrypted_output", "attack_data_encrypted.csv")
	v.SetDefault("output_dir", "analysis_report")
	v.SetDefault("github_token_env", "GITHUB_TOKEN")
	v.SetDefault("encryption_key_env", "ENCRYPTION_KEY")

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := Config{
		TargetRepo:     v.GetString("target_repo"),
		ExcludeUsers:   v.GetStringSlice("exclude_users"),
		Concurrency:    v.GetInt("concurrency"),
		RawEventsPath:  v.GetString("unencrypted_input"),
		AnonymizedPath: v.GetString("encrypted_output"),
		OutputDir:      v.GetString("output_dir"),
		AwesomeFiles:   v.GetStringMapString("awesome_files"),

		GitHubToken:      os.Getenv(v.GetString("github_token_env")),
		AnonymizationKey: os.Getenv(v.GetString("encryption_key_env")),
	}

	if cfg.TargetRepo == "" {
		return Config{}, fmt.Errorf("target_repo is required in %s", path)
	}
	startStr := v.GetString("attack_start_date")
	if startStr == "" {
		return Config{}, fmt.Errorf("attack_start_date is required in %s", path)
	}
	start, err := time.Parse(time.RFC3339, startStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid attack_start_date %q (want RFC3339): %w", startStr, err)
	}
	cfg.AttackStart = start

	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 10
	}
	return cfg, nil
}

// Window builds the immutable crawl input from the configuration.
func (c Config) Window() domain.AttackWindow {
	excluded := make(map[string]struct{}, len(c.ExcludeUsers))
	for _, login := range c.ExcludeUsers {
		excluded[login] = struct{}{}
	}
	return domain.AttackWindow{
		TargetRepo:   c.TargetRepo,
		AttackStart:  c.AttackStart,
		ExcludeUsers: excluded,
		Concurrency:  c.Concurrency,
	}
}
