// Package config loads the CLI configuration file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Config is the cryptdoc CLI configuration.
type Config struct {
	// KeychainPath is the data directory of the persistent keychain.
	KeychainPath string `yaml:"keychainPath"`
	// MinimumFreeGB is the free-space threshold for the keychain store.
	MinimumFreeGB int `yaml:"minimumFreeGB"`
	// DefaultCipher names the cipher used when a key block does not
	// declare one.
	DefaultCipher string `yaml:"defaultCipher"`
	// DefaultSigner names the signer used when a key block does not
	// declare one.
	DefaultSigner string `yaml:"defaultSigner"`
}

// Load reads the configuration from path. A missing file yields the
// defaults.
func Load(path string) (Config, error) {
	config := Config{
		KeychainPath: defaultKeychainPath(),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return config, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if config.KeychainPath == "" {
		config.KeychainPath = defaultKeychainPath()
	}
	return config, nil
}

func defaultKeychainPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cryptdoc/keychain"
	}
	return home + "/.cryptdoc/keychain"
}
