// config.go: settings struct and functions to load and access the
// application configuration.
package conf

import (
	"embed"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/pitchpod/pitchpod-go/internal/errors"
)

//go:embed config.yaml
var configFiles embed.FS

// SQLiteSettings contains settings for the local SQLite store.
type SQLiteSettings struct {
	Enabled bool   // true to enable SQLite output
	Path    string // path to the SQLite database file
}

// OutputSettings contains settings for where session data is persisted.
type OutputSettings struct {
	SQLite SQLiteSettings
}

// PodholderSettings contains settings for the podholder base station upload.
type PodholderSettings struct {
	Enabled  bool   // true to enable sync uploads to the podholder
	Endpoint string // base URL of the podholder HTTP interface
	Timeout  int    // upload timeout in seconds
}

// RosterSettings contains settings for roster lookups.
type RosterSettings struct {
	CacheTTL int // roster cache TTL in seconds, 0 disables caching
}

// MQTTSettings contains settings for the optional import-event publisher.
type MQTTSettings struct {
	Enabled  bool   // true to enable MQTT notifications
	Broker   string // MQTT broker (tcp://host:port)
	Topic    string // topic for import summaries
	Username string // MQTT username
	Password string // MQTT password
	Retain   bool   // true to retain messages at the broker
}

// TelemetrySettings contains settings for the Prometheus endpoint.
type TelemetrySettings struct {
	Enabled bool   // true to enable Prometheus compatible telemetry endpoint
	Listen  string // IP address and port to listen on
}

// MainSettings contains application wide settings.
type MainSettings struct {
	Name string // client/node name used in logs, MQTT client id and uploads
}

// Settings holds the complete application configuration.
type Settings struct {
	Debug bool // true to enable debug output

	Main      MainSettings
	Output    OutputSettings
	Podholder PodholderSettings
	Roster    RosterSettings
	MQTT      MQTTSettings
	Telemetry TelemetrySettings
}

// PodholderTimeout returns the configured upload timeout as a duration.
func (s *Settings) PodholderTimeout() time.Duration {
	if s.Podholder.Timeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.Podholder.Timeout) * time.Second
}

// RosterCacheTTL returns the configured roster cache TTL as a duration.
func (s *Settings) RosterCacheTTL() time.Duration {
	return time.Duration(s.Roster.CacheTTL) * time.Second
}

var (
	settingsInstance *Settings
	once             sync.Once
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into a
// Settings struct and stores it as the package instance.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper initializes viper with default values and reads the configuration file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}

	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	setDefaultConfig()

	err = viper.ReadInConfig()
	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// Config file not found, create config with defaults
			return createDefaultConfig()
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// createDefaultConfig writes the embedded default config to the first
// default config path and loads it.
func createDefaultConfig() error {
	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	configPath := filepath.Join(configPaths[0], "config.yaml")
	defaultConfig := getDefaultConfig()

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	fmt.Println("Created default config file at:", configPath)
	return viper.ReadInConfig()
}

// getDefaultConfig reads the default configuration from the embedded config.yaml file.
func getDefaultConfig() string {
	data, err := fs.ReadFile(configFiles, "config.yaml")
	if err != nil {
		log.Fatalf("Error reading config file: %v", err)
	}
	return string(data)
}

// GetSettings returns the current settings instance
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// Setting returns the current settings instance, initializing it if necessary
func Setting() *Settings {
	once.Do(func() {
		if settingsInstance == nil {
			_, err := Load()
			if err != nil {
				log.Fatalf("Error loading settings: %v", err)
			}
		}
	})
	return GetSettings()
}
