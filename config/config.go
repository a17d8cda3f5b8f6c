package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"estimation/autosave"
	"estimation/devis"
	"estimation/interchange"
	"estimation/project"
	"estimation/recap"
)

// Store backends.
const (
	StorePocketBase = "pocketbase"
	StoreBolt       = "bolt"
)

// Config holds the application configuration.
type Config struct {
	// Recapitulation
	SteelRatio float64
	Categories []project.Category

	// Persistence
	AutosaveDebounce time.Duration
	Store            string
	BoltPath         string

	// Presentation
	CurrencySymbol   string
	CurrencyDecimals int
}

// Default returns the configuration used when no variable is set.
func Default() *Config {
	return &Config{
		SteelRatio:       recap.DefaultSteelRatio,
		Categories:       project.DefaultCategories(),
		AutosaveDebounce: autosave.DefaultDebounce,
		Store:            StorePocketBase,
		BoltPath:         "pb_data/estimations.db",
		CurrencySymbol:   "€",
		CurrencyDecimals: devis.DefaultDecimals,
	}
}

// Load reads the .env file of the working directory when there is one, then
// the ESTIMATION_* environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds the configuration from the environment only.
func FromEnv() (*Config, error) {
	cfg := Default()
	var err error

	if cfg.SteelRatio, err = getEnvAsFloat("ESTIMATION_STEEL_RATIO", cfg.SteelRatio); err != nil {
		return nil, err
	}
	if cfg.AutosaveDebounce, err = getEnvAsDuration("ESTIMATION_AUTOSAVE_DEBOUNCE", cfg.AutosaveDebounce); err != nil {
		return nil, err
	}
	if cfg.CurrencyDecimals, err = getEnvAsInt("ESTIMATION_CURRENCY_DECIMALS", cfg.CurrencyDecimals); err != nil {
		return nil, err
	}
	cfg.Store = strings.ToLower(getEnv("ESTIMATION_STORE", cfg.Store))
	cfg.BoltPath = getEnv("ESTIMATION_BOLT_PATH", cfg.BoltPath)
	cfg.CurrencySymbol = getEnv("ESTIMATION_CURRENCY_SYMBOL", cfg.CurrencySymbol)

	if path := getEnv("ESTIMATION_CATEGORIES_FILE", ""); path != "" {
		if cfg.Categories, err = LoadCategories(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and the category table.
func (c *Config) Validate() error {
	if c.SteelRatio < 0 || math.IsNaN(c.SteelRatio) || math.IsInf(c.SteelRatio, 0) {
		return fmt.Errorf("ESTIMATION_STEEL_RATIO must be a non-negative number, got %v", c.SteelRatio)
	}
	if c.AutosaveDebounce <= 0 {
		return fmt.Errorf("ESTIMATION_AUTOSAVE_DEBOUNCE must be positive, got %v", c.AutosaveDebounce)
	}
	if c.CurrencyDecimals < 0 || c.CurrencyDecimals > 6 {
		return fmt.Errorf("ESTIMATION_CURRENCY_DECIMALS must be between 0 and 6, got %d", c.CurrencyDecimals)
	}
	switch c.Store {
	case StorePocketBase:
	case StoreBolt:
		if c.BoltPath == "" {
			return fmt.Errorf("ESTIMATION_BOLT_PATH is required with the bolt store")
		}
	default:
		return fmt.Errorf("ESTIMATION_STORE must be %q or %q, got %q", StorePocketBase, StoreBolt, c.Store)
	}
	return validateCategories(c.Categories)
}

// Recap returns the recapitulation settings.
func (c *Config) Recap() recap.Config {
	return recap.Config{SteelRatio: c.SteelRatio, Categories: c.Categories}
}

// Interchange returns the export and import settings.
func (c *Config) Interchange(logger *slog.Logger) interchange.Config {
	return interchange.Config{
		Recap:          c.Recap(),
		CurrencySymbol: c.CurrencySymbol,
		Decimals:       c.CurrencyDecimals,
		Logger:         logger,
	}
}

// Autosave returns the session options.
func (c *Config) Autosave(logger *slog.Logger) autosave.Options {
	return autosave.Options{
		Debounce:    c.AutosaveDebounce,
		Interchange: c.Interchange(logger),
		Logger:      logger,
	}
}

type categoriesFile struct {
	Categories []project.Category `yaml:"categories"`
}

// LoadCategories reads a category table from a YAML file:
//
//	categories:
//	  - key: fondations
//	    label: Fondations
func LoadCategories(path string) ([]project.Category, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read categories: %w", err)
	}
	var f categoriesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse categories %s: %w", path, err)
	}
	if err := validateCategories(f.Categories); err != nil {
		return nil, fmt.Errorf("categories %s: %w", path, err)
	}
	return f.Categories, nil
}

func validateCategories(categories []project.Category) error {
	if len(categories) == 0 {
		return errors.New("category table is empty")
	}
	seen := make(map[string]bool, len(categories))
	for i, c := range categories {
		if strings.TrimSpace(c.Key) == "" {
			return fmt.Errorf("category %d has no key", i)
		}
		if seen[c.Key] {
			return fmt.Errorf("duplicate category %q", c.Key)
		}
		seen[c.Key] = true
		if strings.TrimSpace(c.Label) == "" {
			return fmt.Errorf("category %q has no label", c.Key)
		}
	}
	return nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not an integer", key, valueStr)
	}
	return value, nil
}

func getEnvAsFloat(key string, defaultValue float64) (float64, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(strings.Replace(valueStr, ",", ".", 1), 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a number", key, valueStr)
	}
	return value, nil
}

func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a duration", key, valueStr)
	}
	return value, nil
}
