// Package config assembles the tutor's settings from built-in defaults, a
// JSON file, an optional .env file and JUPYTUTOR_* environment variables,
// in that order of increasing precedence.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/alexanderramin/jupytutor/internal/llm"
	"github.com/alexanderramin/jupytutor/internal/textbook"
	"github.com/alexanderramin/jupytutor/internal/window"
)

// Config is the full tutor configuration. JSON keys follow the extension's
// config.json so existing files keep working.
type Config struct {
	API              APIConfig              `json:"api"`
	Usage            UsageConfig            `json:"usage"`
	ContextGathering ContextGatheringConfig `json:"context_gathering"`
	ActivationFlag   string                 `json:"activation_flag"`
	DeactivationFlag string                 `json:"deactivation_flag"`

	// RulesPath points at a JSON or YAML rule set; empty uses the built-in rules.
	RulesPath   string            `json:"rules_path"`
	DBPath      string            `json:"db_path" validate:"required"`
	Log         LogConfig         `json:"log"`
	Preferences PreferencesConfig `json:"preferences"`

	// LLM is derived from API plus JUPYTUTOR_LLM_* overrides.
	LLM llm.LLMConfig `json:"-"`
}

type APIConfig struct {
	Provider    string   `json:"provider" validate:"omitempty,oneof=ollama anthropic"`
	BaseURL     string   `json:"baseURL" validate:"omitempty,url"`
	Model       string   `json:"model"`
	TimeoutMs   int      `json:"timeout_ms" validate:"omitempty,min=1"`
	MaxRetries  *int     `json:"max_retries" validate:"omitempty,min=0,max=10"`
	MaxTokens   int      `json:"max_tokens" validate:"omitempty,min=1"`
	Temperature *float64 `json:"temperature" validate:"omitempty,min=0,max=2"`
}

type UsageConfig struct {
	// AutomaticFirstQueryOnError makes watch mode ask on behalf of the
	// student when a proactive cell starts failing.
	AutomaticFirstQueryOnError bool `json:"automatic_first_query_on_error"`
}

type ContextGatheringConfig struct {
	Enabled     bool              `json:"enabled"`
	Whitelist   []string          `json:"whitelist" validate:"dive,hostname_rfc1123"`
	Blacklist   []string          `json:"blacklist" validate:"dive,hostname_rfc1123"`
	JupyterBook JupyterBookConfig `json:"jupyterbook"`
	MaxPages    int               `json:"max_pages" validate:"min=1,max=64"`
	MaxChars    int               `json:"max_chars" validate:"min=1000"`
}

type JupyterBookConfig struct {
	URL           string `json:"url" validate:"omitempty,hostname_rfc1123"`
	LinkExpansion bool   `json:"link_expansion"`
}

type LogConfig struct {
	Level string `json:"level" validate:"oneof=debug info warn error"`
	// File enables a rotated JSON log in addition to stderr.
	File string `json:"file"`
}

type PreferencesConfig struct {
	ContextScope string `json:"context_scope" validate:"oneof=whole upToGrader fiveAround tenAround none"`
	MaxGoBack    int    `json:"max_go_back" validate:"min=0"`
	MaxImages    int    `json:"max_images" validate:"min=0"`
}

// Default returns the built-in configuration.
func Default() Config {
	tb := textbook.DefaultOptions()
	return Config{
		ContextGathering: ContextGatheringConfig{
			Enabled:   true,
			Whitelist: []string{"inferentialthinking.com"},
			Blacklist: []string{"data8.org", "berkeley.edu", "gradescope.com"},
			JupyterBook: JupyterBookConfig{
				URL:           "inferentialthinking.com",
				LinkExpansion: true,
			},
			MaxPages: tb.MaxPages,
			MaxChars: tb.MaxChars,
		},
		ActivationFlag:   "",
		DeactivationFlag: "jupytutor: false",
		DBPath:           filepath.Join(dataDir(), "jupytutor.db"),
		Log:              LogConfig{Level: "info"},
		Preferences: PreferencesConfig{
			ContextScope: string(window.DefaultScope),
			MaxGoBack:    window.DefaultMaxGoBack,
			MaxImages:    window.DefaultMaxImages,
		},
		LLM: llm.DefaultConfig(),
	}
}

// DefaultPath is ~/.config/jupytutor/config.json.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "jupytutor", "config.json")
}

func dataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "jupytutor")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "share", "jupytutor")
}

// Options controls where Load looks for files.
type Options struct {
	// Path is an explicit config file; it must exist. Empty means
	// DefaultPath, which may be absent.
	Path string
	// EnvFiles are dotenv files; missing files are skipped. Empty means ".env".
	EnvFiles []string
	// Getenv reads the process environment. Nil means os.Getenv.
	Getenv func(string) string
}

// Load builds the configuration. Dotenv values never override variables
// already present in the environment.
func Load(opts Options) (Config, error) {
	cfg := Default()

	path, required := opts.Path, true
	if path == "" {
		path, required = DefaultPath(), false
	}
	if err := readFile(path, required, &cfg); err != nil {
		return Config{}, err
	}

	dotenv, err := readDotenv(opts.EnvFiles)
	if err != nil {
		return Config{}, err
	}
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	lookup := func(key string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return dotenv[key]
	}

	applyEnv(&cfg, lookup)
	cfg.LLM = llm.ApplyEnv(cfg.API.overlay(llm.DefaultConfig()), lookup)

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readFile(path string, required bool, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
	}
	return nil
}

func readDotenv(files []string) (map[string]string, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	merged := make(map[string]string)
	for _, f := range files {
		if _, err := os.Stat(f); errors.Is(err, os.ErrNotExist) {
			continue
		}
		vals, err := godotenv.Read(f)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", f, err)
		}
		for k, v := range vals {
			if _, seen := merged[k]; !seen {
				merged[k] = v
			}
		}
	}
	return merged, nil
}

func applyEnv(cfg *Config, getenv func(string) string) {
	if v := getenv("JUPYTUTOR_RULES"); v != "" {
		cfg.RulesPath = v
	}
	if v := getenv("JUPYTUTOR_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := getenv("JUPYTUTOR_LOG_LEVEL"); v != "" {
		cfg.Log.Level = strings.ToLower(v)
	}
	if v := getenv("JUPYTUTOR_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
	if v := getenv("JUPYTUTOR_CONTEXT_SCOPE"); v != "" {
		cfg.Preferences.ContextScope = v
	}
	// Scope names are matched case-insensitively; unknown names are left
	// for validation to report.
	if s, err := window.ParseScope(cfg.Preferences.ContextScope); err == nil {
		cfg.Preferences.ContextScope = string(s)
	}
	if v := getenv("JUPYTUTOR_CONTEXT_GATHERING"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.ContextGathering.Enabled = b
		}
	}
	if v, ok := lookupSet(getenv, "JUPYTUTOR_ACTIVATION_FLAG"); ok {
		cfg.ActivationFlag = v
	}
	if v, ok := lookupSet(getenv, "JUPYTUTOR_DEACTIVATION_FLAG"); ok {
		cfg.DeactivationFlag = v
	}
}

// lookupSet treats the literal value "-" as an explicit empty string so
// flags can be cleared from the environment.
func lookupSet(getenv func(string) string, key string) (string, bool) {
	v := getenv(key)
	switch v {
	case "":
		return "", false
	case "-":
		return "", true
	default:
		return v, true
	}
}

// overlay copies the file's API section onto base.
func (a APIConfig) overlay(base llm.LLMConfig) llm.LLMConfig {
	if a.Provider != "" && llm.Provider(a.Provider) != base.Provider {
		base.Provider = llm.Provider(a.Provider)
		if base.Provider == llm.ProviderAnthropic {
			base.Endpoint, base.Model = "", llm.DefaultAnthropicModel
		}
	}
	if a.BaseURL != "" {
		base.Endpoint = strings.TrimRight(a.BaseURL, "/")
	}
	if a.Model != "" {
		base.Model = a.Model
	}
	if a.TimeoutMs > 0 {
		base.TimeoutMs = a.TimeoutMs
	}
	if a.MaxRetries != nil {
		base.MaxRetries = *a.MaxRetries
	}
	if a.MaxTokens > 0 {
		base.MaxTokens = a.MaxTokens
	}
	if a.Temperature != nil {
		base.Temperature = *a.Temperature
	}
	return base
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct constraints and reports every failing field.
func Validate(cfg Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return validateLLM(cfg.LLM)
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	errs := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		errs = append(errs, fieldError(fe))
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

func fieldError(fe validator.FieldError) error {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	if fe.Param() != "" {
		return fmt.Errorf("%s: failed %s=%s (got %v)", field, fe.Tag(), fe.Param(), fe.Value())
	}
	return fmt.Errorf("%s: failed %s (got %v)", field, fe.Tag(), fe.Value())
}

func validateLLM(c llm.LLMConfig) error {
	switch c.Provider {
	case llm.ProviderOllama:
		if c.Endpoint == "" {
			return fmt.Errorf("%w: LLM endpoint is required for ollama", ErrInvalidConfig)
		}
	case llm.ProviderAnthropic:
	default:
		return fmt.Errorf("%w: %w: %q", ErrInvalidConfig, llm.ErrUnsupportedProvider, c.Provider)
	}
	return nil
}

// TextbookOptions maps context gathering settings onto retriever options.
func (c Config) TextbookOptions() textbook.Options {
	opts := textbook.DefaultOptions()
	opts.Whitelist = c.ContextGathering.Whitelist
	opts.Blacklist = c.ContextGathering.Blacklist
	opts.JupyterBookHost = c.ContextGathering.JupyterBook.URL
	opts.LinkExpansion = c.ContextGathering.JupyterBook.LinkExpansion
	opts.MaxPages = c.ContextGathering.MaxPages
	opts.MaxChars = c.ContextGathering.MaxChars
	return opts
}

// Scope returns the configured context scope.
func (c Config) Scope() window.Scope {
	s, err := window.ParseScope(c.Preferences.ContextScope)
	if err != nil {
		return window.DefaultScope
	}
	return s
}
