package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	appName    = "wmbusd"
	configFile = "config.yaml"
)

var (
	globalConfig     *GlobalConfig
	globalConfigOnce sync.Once
	globalConfigErr  error

	fileMutex sync.Mutex
)

// GetConfigDir returns the OS-appropriate configuration directory for the
// application:
//   - Linux: $XDG_CONFIG_HOME/wmbusd or $HOME/.config/wmbusd
//   - macOS: $HOME/.config/wmbusd
//   - Windows: %LOCALAPPDATA%\wmbusd
func GetConfigDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			userProfile := os.Getenv("USERPROFILE")
			if userProfile == "" {
				return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
			}
			baseDir = filepath.Join(userProfile, "AppData", "Local", appName)
		} else {
			baseDir = filepath.Join(localAppData, appName)
		}

	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		baseDir = filepath.Join(homeDir, ".config", appName)

	default:
		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome != "" {
			baseDir = filepath.Join(xdgConfigHome, appName)
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("cannot determine home directory: %w", err)
			}
			baseDir = filepath.Join(homeDir, ".config", appName)
		}
	}

	return baseDir, nil
}

// GetConfigPath returns the full path to the consolidated YAML config file.
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, configFile), nil
}

func ensureConfigDir() error {
	configDir, err := GetConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return nil
}

// LoadGlobalConfig loads the consolidated YAML configuration from the
// XDG config path. If the file doesn't exist, returns a new default
// configuration. Thread-safe: multiple calls return the same instance.
func LoadGlobalConfig() (*GlobalConfig, error) {
	globalConfigOnce.Do(func() {
		globalConfig, globalConfigErr = loadGlobalConfigFromDisk()
	})
	return globalConfig, globalConfigErr
}

func loadGlobalConfigFromDisk() (*GlobalConfig, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return NewGlobalConfig(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return LoadGlobalConfigYAML(data)
}

// LoadGlobalConfigYAML parses the consolidated YAML form of GlobalConfig.
func LoadGlobalConfigYAML(data []byte) (*GlobalConfig, error) {
	c := NewGlobalConfig()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if c.Version != 1 {
		return nil, fmt.Errorf("unsupported config version: %d (expected 1)", c.Version)
	}
	return c, nil
}

// Save writes c to the XDG config path, atomically via a temp file plus
// rename, with a prepended explanatory header comment.
func (c *GlobalConfig) Save() error {
	fileMutex.Lock()
	defer fileMutex.Unlock()

	if err := ensureConfigDir(); err != nil {
		return fmt.Errorf("failed to ensure config directory exists: %w", err)
	}

	configPath, err := GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# wmbusd configuration file
#
# This file stores global settings and meter definitions. Decryption
# keys stored here (the "key" field of a meter) grant access to that
# meter's telegrams: keep this file's permissions restrictive.
#
# Location: ` + configPath + `

`)
	data = append(header, data...)

	tmpPath := configPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}
	if err := os.Rename(tmpPath, configPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config file: %w", err)
	}
	return nil
}

// ReloadGlobalConfig reloads the configuration from disk, discarding any
// in-memory changes. Useful for picking up edits made by another process.
func ReloadGlobalConfig() (*GlobalConfig, error) {
	fileMutex.Lock()
	defer fileMutex.Unlock()

	globalConfigOnce = sync.Once{}
	return LoadGlobalConfig()
}

// LoadConfigDirectory loads the classic directory-based configuration
// layout, the Go form of loadConfiguration: root/etc/wmbusd.conf plus
// every file in root/etc/wmbusd.d/ as one meter each, falling back to
// root/wmbusd.conf and root/wmbusd.d if root/etc doesn't exist. root is
// typically "" (the filesystem root) or a sysroot under test.
func LoadConfigDirectory(root string) (*GlobalConfig, error) {
	etcDir := filepath.Join(root, "etc")
	confPath := filepath.Join(etcDir, "wmbusd.conf")
	metersDir := filepath.Join(etcDir, "wmbusd.d")

	if _, err := os.Stat(etcDir); os.IsNotExist(err) {
		confPath = filepath.Join(root, "wmbusd.conf")
		metersDir = filepath.Join(root, "wmbusd.d")
	}

	c := NewGlobalConfig()
	if data, err := os.ReadFile(confPath); err == nil {
		parsed, err := ParseGlobalConfigFile(data)
		if err != nil {
			return nil, fmt.Errorf("config: %s: %w", confPath, err)
		}
		c = parsed
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("config: reading %s: %w", confPath, err)
	}

	entries, err := os.ReadDir(metersDir)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", metersDir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(metersDir, name))
		if err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", name, err)
		}
		mc, err := ParseMeterConfigBlock(data)
		if err != nil {
			return nil, fmt.Errorf("config: %s: %w", name, err)
		}
		c.Meters = append(c.Meters, mc)
	}

	return c, nil
}
