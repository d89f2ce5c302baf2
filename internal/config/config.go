// Package config loads scanner configuration from a JSON file with
// environment variable overrides, and exposes it as typed section
// structs passed explicitly to the components that need them.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig holds the websocket front end settings.
type ServerConfig struct {
	Host               string `json:"host" mapstructure:"host"`
	Port               int    `json:"port" mapstructure:"port"`
	Secret             string `json:"secret" mapstructure:"secret"`
	CORSAllowedOrigins string `json:"corsAllowedOrigins" mapstructure:"corsAllowedOrigins"`
}

// Listen returns the host:port address to bind.
func (c ServerConfig) Listen() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// MarkerConfig holds marker file and dictionary settings.
type MarkerConfig struct {
	File           string `json:"file" mapstructure:"file"`
	DictionarySize int    `json:"dictionarySize" mapstructure:"dictionarySize"`
}

// ProcessingConfig holds frame processing settings sent to clients and
// enforced server side.
type ProcessingConfig struct {
	FrameQuality         float64 `json:"frameQuality" mapstructure:"frameQuality"`
	MaxWidth             int     `json:"maxWidth" mapstructure:"maxWidth"`
	MaxHeight            int     `json:"maxHeight" mapstructure:"maxHeight"`
	ProcessEveryMs       int     `json:"processEveryMs" mapstructure:"processEveryMs"`
	MarkerTimeoutSeconds int     `json:"markerTimeoutSeconds" mapstructure:"markerTimeoutSeconds"`
}

// MarkerTimeout returns the marker display timeout as a duration.
func (c ProcessingConfig) MarkerTimeout() time.Duration {
	return time.Duration(c.MarkerTimeoutSeconds) * time.Second
}

// MemoryConfig holds in-memory/JSON storage backend settings.
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// GormConfig holds settings for the database-backed detection log.
type GormConfig struct {
	BatchSize    int    `json:"batchSize" mapstructure:"batchSize"`
	FlushSeconds int    `json:"flushSeconds" mapstructure:"flushSeconds"`
	SqliteFile   string `json:"sqliteFile" mapstructure:"sqliteFile"`
}

// StorageConfig selects and configures the detection log backend.
type StorageConfig struct {
	Type   string       `json:"type" mapstructure:"type"`
	Memory MemoryConfig `json:"memory" mapstructure:"memory"`
	Gorm   GormConfig   `json:"gorm" mapstructure:"gorm"`
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file. Every key can
// be overridden through the environment with the MARKERD_ prefix
// (MARKERD_SERVER_PORT, MARKERD_MARKERS_FILE, ...).
func Load(configDir string) error {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./markerdlogs")
	viper.SetDefault("graylogAddr", "")

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 5000)
	viper.SetDefault("server.secret", "")
	viper.SetDefault("server.corsAllowedOrigins", "*")

	viper.SetDefault("markers.file", "markers.txt")
	viper.SetDefault("markers.dictionarySize", 250)

	viper.SetDefault("processing.frameQuality", 0.5)
	viper.SetDefault("processing.maxWidth", 640)
	viper.SetDefault("processing.maxHeight", 480)
	viper.SetDefault("processing.processEveryMs", 33)
	viper.SetDefault("processing.markerTimeoutSeconds", 120)

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.outputDir", "./sessions")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.gorm.batchSize", 500)
	viper.SetDefault("storage.gorm.flushSeconds", 5)
	viper.SetDefault("storage.gorm.sqliteFile", "markerd.db")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "markerd")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "")
	viper.SetDefault("influx.org", "markerd-metrics")

	viper.SetDefault("api.url", "")
	viper.SetDefault("api.key", "")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", false)

	viper.SetEnvPrefix("markerd")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetConfigName("markerd.cfg.json")
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is fine: defaults plus environment
		// overrides make a complete configuration.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// Server returns the server section.
func Server() ServerConfig {
	var c ServerConfig
	_ = viper.UnmarshalKey("server", &c)
	return c
}

// Markers returns the marker file section.
func Markers() MarkerConfig {
	var c MarkerConfig
	_ = viper.UnmarshalKey("markers", &c)
	return c
}

// Processing returns the frame processing section.
func Processing() ProcessingConfig {
	var c ProcessingConfig
	_ = viper.UnmarshalKey("processing", &c)
	return c
}

// Storage returns the storage section.
func Storage() StorageConfig {
	var c StorageConfig
	_ = viper.UnmarshalKey("storage", &c)
	return c
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}
