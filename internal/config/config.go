package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const EnvPrefix = "TICTASK"

type Config struct {
	Port                 string
	DBPath               string
	MigrationsDir        string
	CORSOrigins          []string
	TickInterval         time.Duration
	SupervisorInterval   time.Duration
	LogLevel             string
	LogFormat            string
	NotificationsEnabled bool
	NtfyTopic            string
	NtfyTimeout          time.Duration
	SettingsFile         string
}

var defaultCORSOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}

// SetDefaults registers every key with its default so env overrides resolve.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("db_path", "./data/tictask.db")
	v.SetDefault("migrations_dir", "./migrations")
	v.SetDefault("cors_origins", defaultCORSOrigins)
	v.SetDefault("tick_interval", time.Second)
	v.SetDefault("supervisor_interval", 5*time.Second)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("notifications_enabled", true)
	v.SetDefault("ntfy_topic", "")
	v.SetDefault("ntfy_timeout", 5*time.Second)
	v.SetDefault("settings_file", "")
}

// NewViper returns a viper instance reading TICTASK_* env vars and, when
// configFile is set, that YAML file.
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	SetDefaults(v)

	if configFile == "" {
		return v, nil
	}
	v.SetConfigFile(configFile)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", configFile, err)
	}
	return v, nil
}

func Load(v *viper.Viper) Config {
	return Config{
		Port:                 v.GetString("port"),
		DBPath:               v.GetString("db_path"),
		MigrationsDir:        v.GetString("migrations_dir"),
		CORSOrigins:          getList(v, "cors_origins", defaultCORSOrigins),
		TickInterval:         getDuration(v, "tick_interval", time.Second),
		SupervisorInterval:   getDuration(v, "supervisor_interval", 5*time.Second),
		LogLevel:             v.GetString("log_level"),
		LogFormat:            v.GetString("log_format"),
		NotificationsEnabled: v.GetBool("notifications_enabled"),
		NtfyTopic:            v.GetString("ntfy_topic"),
		NtfyTimeout:          getDuration(v, "ntfy_timeout", 5*time.Second),
		SettingsFile:         v.GetString("settings_file"),
	}
}

func getDuration(v *viper.Viper, key string, fallback time.Duration) time.Duration {
	value := v.GetDuration(key)
	if value <= 0 {
		return fallback
	}
	return value
}

// getList accepts a YAML list or a comma separated env value.
func getList(v *viper.Viper, key string, fallback []string) []string {
	var parts []string
	if raw, ok := v.Get(key).(string); ok {
		parts = strings.Split(raw, ",")
	} else {
		parts = v.GetStringSlice(key)
	}

	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	if len(items) == 0 {
		return fallback
	}
	return items
}
