// config.go: settings struct and loading for the learnlog migration tool.
package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/edusync/learnlog/internal/errors"
)

// SQLiteSettings contains settings for the SQLite database output.
type SQLiteSettings struct {
	Enabled bool   // true to use the sqlite database
	Path    string // path to sqlite database file
}

// MySQLSettings contains settings for the MySQL database output.
type MySQLSettings struct {
	Enabled  bool   // true to use the mysql database
	Username string // username for mysql database
	Password string // password for mysql database
	Database string // database name for mysql database
	Host     string // host for mysql database
	Port     string // port for mysql database
}

// OutputSettings selects and configures the backing database.
type OutputSettings struct {
	SQLite SQLiteSettings
	MySQL  MySQLSettings
}

// MigrationSettings tunes the exam log migration run.
type MigrationSettings struct {
	PageSize int    // number of legacy exam logs fetched per page
	LogPath  string // path to the migration log file
}

// Settings contains all application settings.
type Settings struct {
	Debug     bool // true to enable debug level logging
	Output    OutputSettings
	Migration MigrationSettings
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment into a Settings struct.
func Load() (*Settings, error) {
	setDefaultConfig()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	for _, path := range configPaths() {
		viper.AddConfigPath(path)
	}
	viper.SetEnvPrefix("LEARNLOG")
	viper.AutomaticEnv()

	configMissing := false
	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is fine, defaults and flags apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.New(fmt.Errorf("reading config file: %w", err)).
				Component("conf").
				Category(errors.CategoryConfiguration).
				Build()
		}
		configMissing = true
	}

	settings := &Settings{}
	if err := viper.Unmarshal(settings); err != nil {
		return nil, errors.New(fmt.Errorf("unmarshaling config: %w", err)).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}

	if err := validateSettings(settings); err != nil {
		return nil, err
	}

	if configMissing {
		// Best effort, the run works off defaults either way.
		_ = writeDefaultConfig(settings)
	}

	settingsMutex.Lock()
	settingsInstance = settings
	settingsMutex.Unlock()

	return settings, nil
}

// Setting returns the current settings instance, loading it if needed.
func Setting() *Settings {
	settingsMutex.RLock()
	s := settingsInstance
	settingsMutex.RUnlock()
	if s != nil {
		return s
	}

	s, err := Load()
	if err != nil {
		return &Settings{}
	}
	return s
}

// writeDefaultConfig writes the effective settings to a fresh config file in
// the user config directory, giving users a template to edit.
func writeDefaultConfig(settings *Settings) error {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return err
	}
	dir := filepath.Join(configDir, "learnlog")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	data, err := yaml.Marshal(settings)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// configPaths returns the directories searched for a config file, in order.
func configPaths() []string {
	paths := []string{"."}
	if configDir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(configDir, "learnlog"))
	}
	return paths
}

func validateSettings(settings *Settings) error {
	if settings.Output.SQLite.Enabled && settings.Output.MySQL.Enabled {
		return errors.Newf("both sqlite and mysql outputs enabled, pick one").
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if settings.Migration.PageSize < 0 {
		return errors.Newf("migration page size must not be negative: %d", settings.Migration.PageSize).
			Component("conf").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return nil
}
