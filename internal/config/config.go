package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// FileName is the optional JSON config file looked up in the config directory.
const FileName = "warband-tracker.cfg.json"

type Config struct {
	LogLevel string
	Game     GameConfig
	API      APIConfig
	DB       DBConfig
}

type GameConfig struct {
	ListenAddr      string
	DataAPIBase     string
	StrictAbilities bool
	ReportBattles   bool
}

type APIConfig struct {
	ListenAddr string
	CacheTTL   time.Duration
}

type DBConfig struct {
	Driver   string // sqlite or postgres
	Path     string // sqlite file; empty means in-memory
	Host     string
	Port     string
	Username string
	Password string
	Database string
}

// Load sets defaults, binds the environment and reads the config file from configDir if present.
// Environment variables win over the file.
func Load(configDir string) error {
	viper.SetDefault("logLevel", "info")

	viper.SetDefault("game.port", "8081")
	viper.SetDefault("game.dataApiBase", "http://localhost:8080")
	viper.SetDefault("game.strictAbilities", false)
	viper.SetDefault("game.reportBattles", true)

	viper.SetDefault("api.port", "8080")
	viper.SetDefault("api.cacheTTL", "5m")

	viper.SetDefault("db.driver", "sqlite")
	viper.SetDefault("db.path", "warbands.db")
	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "warbands")

	binds := map[string][]string{
		"logLevel":             {"LOG_LEVEL"},
		"game.port":            {"PORT", "GAME_PORT"},
		"game.dataApiBase":     {"DATA_API_BASE"},
		"game.strictAbilities": {"STRICT_ABILITIES"},
		"game.reportBattles":   {"REPORT_BATTLES"},
		"api.port":             {"API_PORT"},
		"api.cacheTTL":         {"API_CACHE_TTL"},
		"db.driver":            {"DB_DRIVER"},
		"db.path":              {"DB_PATH"},
		"db.host":              {"DB_HOST"},
		"db.port":              {"DB_PORT"},
		"db.username":          {"DB_USERNAME"},
		"db.password":          {"DB_PASSWORD"},
		"db.database":          {"DB_DATABASE"},
	}
	for key, envs := range binds {
		if err := viper.BindEnv(append([]string{key}, envs...)...); err != nil {
			return fmt.Errorf("error binding env for %s: %v", key, err)
		}
	}

	viper.SetConfigName(FileName)
	viper.SetConfigType("json")
	viper.AddConfigPath(configDir)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("error reading config file: %v", err)
	}
	return nil
}

// Current reads the loaded settings into a Config.
func Current() Config {
	return Config{
		LogLevel: viper.GetString("logLevel"),
		Game: GameConfig{
			ListenAddr:      ":" + viper.GetString("game.port"),
			DataAPIBase:     viper.GetString("game.dataApiBase"),
			StrictAbilities: viper.GetBool("game.strictAbilities"),
			ReportBattles:   viper.GetBool("game.reportBattles"),
		},
		API: APIConfig{
			ListenAddr: ":" + viper.GetString("api.port"),
			CacheTTL:   viper.GetDuration("api.cacheTTL"),
		},
		DB: DBConfig{
			Driver:   viper.GetString("db.driver"),
			Path:     viper.GetString("db.path"),
			Host:     viper.GetString("db.host"),
			Port:     viper.GetString("db.port"),
			Username: viper.GetString("db.username"),
			Password: viper.GetString("db.password"),
			Database: viper.GetString("db.database"),
		},
	}
}
