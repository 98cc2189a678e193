// Package config loads and saves the flasher's YAML configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/moffa90/go-avrusbboot/bootloader"
	"github.com/moffa90/go-avrusbboot/protocol"
)

// Config represents the flasher configuration
type Config struct {
	VendorID         uint16        `yaml:"vendor_id"`
	ProductID        uint16        `yaml:"product_id"`
	Manufacturer     string        `yaml:"manufacturer"`
	Product          string        `yaml:"product"`
	LangID           uint16        `yaml:"lang_id"`
	Timeout          time.Duration `yaml:"timeout"`
	StartApplication bool          `yaml:"start_application"`
}

// DefaultConfig returns a configuration that matches a stock AVRUSBBoot
// device
func DefaultConfig() *Config {
	return &Config{
		VendorID:         protocol.VendorIDShared,
		ProductID:        protocol.ProductIDShared,
		Manufacturer:     protocol.Manufacturer,
		Product:          protocol.Product,
		LangID:           protocol.LangIDEnglishUS,
		Timeout:          protocol.DefaultTimeout,
		StartApplication: true,
	}
}

// LoadConfig loads configuration from the specified path. Keys missing from
// the file keep their default values.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}

	return config, nil
}

// SaveConfig saves the configuration to the specified path
func SaveConfig(config *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate rejects values no device could match
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.Manufacturer == "" && c.Product == "" {
		return fmt.Errorf("manufacturer and product cannot both be empty")
	}
	return nil
}

// Options converts the configuration into programmer options
func (c *Config) Options() []bootloader.Option {
	return []bootloader.Option{
		bootloader.WithDeviceIDs(c.VendorID, c.ProductID),
		bootloader.WithDeviceStrings(c.Manufacturer, c.Product),
		bootloader.WithLangID(c.LangID),
		bootloader.WithTimeout(c.Timeout),
		bootloader.WithStartApplication(c.StartApplication),
	}
}

// GetDefaultConfigPath returns the default configuration path
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./avrusbboot.yaml"
	}
	return filepath.Join(homeDir, ".config", "avrusbboot", "config.yaml")
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}
