package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formstate/pkg/submit"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "FORMSTATE_"

// Config holds CLI settings. Values come from defaults, then the optional
// YAML file, then FORMSTATE_* environment variables.
type Config struct {
	Form            string        `yaml:"form" env:"FORM"`
	QuestionsURL    string        `yaml:"questions_url" env:"QUESTIONS_URL"`
	ResultsPath     string        `yaml:"results_path" env:"RESULTS_PATH"`
	Timeout         time.Duration `yaml:"timeout" env:"TIMEOUT"`
	Format          string        `yaml:"format" env:"FORMAT"`
	Output          string        `yaml:"output" env:"OUTPUT"`
	SummaryTemplate string        `yaml:"summary_template" env:"SUMMARY_TEMPLATE"`
	LogLevel        string        `yaml:"log_level" env:"LOG_LEVEL"`
	Strict          bool          `yaml:"strict" env:"STRICT"`
	Sanitize        bool          `yaml:"sanitize" env:"SANITIZE"`
	ShortKeys       bool          `yaml:"short_keys" env:"SHORT_KEYS"`
	MaxAttempts     int           `yaml:"max_attempts" env:"MAX_ATTEMPTS"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Form:     "survey",
		Timeout:  10 * time.Second,
		Format:   string(submit.FormatJSON),
		Output:   "-",
		LogLevel: "warn",
		Sanitize: true,
	}
}

// Load reads path (skipped when empty) and applies overrides from the process
// environment.
func Load(path string) (Config, error) {
	return LoadWithEnv(path, nil)
}

// LoadWithEnv is Load with an explicit environment. A nil environ reads the
// process environment.
func LoadWithEnv(path string, environ map[string]string) (Config, error) {
	cfg := Default()

	if path = strings.TrimSpace(path); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	opts := env.Options{Prefix: EnvPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late.
func (c Config) Validate() error {
	var errs *multierror.Error
	if strings.TrimSpace(c.Form) == "" {
		errs = multierror.Append(errs, errors.New("form is required"))
	}
	if _, err := submit.ParseFormat(c.Format); err != nil {
		errs = multierror.Append(errs, err)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("log level: %w", err))
	}
	if c.Timeout < 0 {
		errs = multierror.Append(errs, fmt.Errorf("timeout must not be negative, got %s", c.Timeout))
	}
	if c.MaxAttempts < 0 {
		errs = multierror.Append(errs, fmt.Errorf("max attempts must not be negative, got %d", c.MaxAttempts))
	}
	if err := errs.ErrorOrNil(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
