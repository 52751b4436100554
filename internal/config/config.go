package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"tastymetrics/pkg/models"
)

// GetConfigPath returns the config directory, honoring TASTYMETRICS_CONFIG.
func GetConfigPath() string {
	if configPath := os.Getenv("TASTYMETRICS_CONFIG"); configPath != "" {
		return filepath.Dir(configPath)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".tastymetrics")
}

// GetConfigFile returns the config file path.
func GetConfigFile() string {
	if configFile := os.Getenv("TASTYMETRICS_CONFIG"); configFile != "" {
		cleaned, err := cleanPath(configFile)
		if err != nil {
			return filepath.Join(GetConfigPath(), "config.yaml")
		}
		return cleaned
	}
	return filepath.Join(GetConfigPath(), "config.yaml")
}

// Load reads the config file. A missing file yields an empty config rather
// than an error so first-run commands can point the user at setup.
func Load() (*models.Config, error) {
	configFile := GetConfigFile()

	cleanedPath, err := cleanPath(configFile)
	if err != nil {
		return nil, fmt.Errorf("invalid config file path: %w", err)
	}

	if _, err := os.Stat(cleanedPath); os.IsNotExist(err) {
		return &models.Config{}, nil
	}

	data, err := os.ReadFile(cleanedPath) // #nosec G304 - path is validated
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config models.Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	applyDefaults(&config)
	return &config, nil
}

// Save writes the config file with owner-only permissions.
func Save(config *models.Config) error {
	configPath := GetConfigPath()
	if err := os.MkdirAll(configPath, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(GetConfigFile(), data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Exists reports whether a config file is present.
func Exists() bool {
	_, err := os.Stat(GetConfigFile())
	return err == nil
}

// PackDir returns the local checkout directory for a named query pack.
func PackDir(name string) string {
	return filepath.Join(GetConfigPath(), "packs", name)
}

func applyDefaults(c *models.Config) {
	if c.Reports.Format == "" {
		c.Reports.Format = "table"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Cache.TTL == "" {
		c.Cache.TTL = "5m"
	}
}

func cleanPath(path string) (string, error) {
	cleaned := filepath.Clean(path)
	if strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("invalid path: contains directory traversal")
	}
	if !filepath.IsAbs(cleaned) {
		abs, err := filepath.Abs(cleaned)
		if err != nil {
			return "", fmt.Errorf("failed to resolve absolute path: %w", err)
		}
		cleaned = abs
	}
	return cleaned, nil
}
