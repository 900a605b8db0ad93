package config

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"

	"github.com/ilyakaznacheev/cleanenv"
)

type (
	Config struct {
		App        `json:"app"        toml:"app"`
		Server     `json:"server"     toml:"server"`
		Whitelist  `json:"whitelist"  toml:"whitelist"`
		Violations `json:"violations" toml:"violations"`
		Clipboard  `json:"clipboard"  toml:"clipboard"`
		Screenshot `json:"screenshot" toml:"screenshot"`
		Heartbeat  `json:"heartbeat"  toml:"heartbeat"`
		Stats      `json:"stats"      toml:"stats"`
		Log        `json:"logger"     toml:"logger"`
	}

	App struct {
		Name         string `json:"name"           toml:"name"           env:"APP_NAME"       env-default:"screen-monitor-agent"`
		Version      string `json:"version"        toml:"version"        env:"APP_VERSION"    env-default:"1.0.0"`
		Environment  string `json:"environment"    toml:"environment"    env:"ENV_NAME"       env-default:"dev"`
		Debug        bool   `json:"debug"          toml:"debug"          env:"DEBUG"          env-default:"false"`
		ClientIDFile string `json:"client_id_file" toml:"client_id_file" env:"CLIENT_ID_FILE" env-default:"client_id.txt"`
	}

	Server struct {
		APIBaseURL   string `json:"api_base_url"  toml:"api_base_url"  env:"API_BASE_URL"  env-default:"http://localhost:47831/api"`
		WebSocketURL string `json:"websocket_url" toml:"websocket_url" env:"WEBSOCKET_URL" env-default:"ws://localhost:3005/monitor"`
		// Таймаут HTTP запросов в секундах
		Timeout    int `json:"timeout"     toml:"timeout"     env:"SERVER_TIMEOUT"     env-default:"30"`
		MaxRetries int `json:"max_retries" toml:"max_retries" env:"SERVER_MAX_RETRIES" env-default:"3"`
		// Базовая задержка между повторами в секундах, растет экспоненциально
		RetryDelay int `json:"retry_delay" toml:"retry_delay" env:"SERVER_RETRY_DELAY" env-default:"1"`
	}

	Whitelist struct {
		Enabled bool `json:"enabled" toml:"enabled" env:"WHITELIST_ENABLED" env-default:"true"`
		// Интервал фоновой синхронизации в секундах
		SyncInterval int `json:"sync_interval" toml:"sync_interval" env:"WHITELIST_SYNC_INTERVAL" env-default:"180"`
		// TTL локального кэша в секундах, после истечения кэш считается пустым
		CacheTTL  int    `json:"cache_ttl"  toml:"cache_ttl"  env:"WHITELIST_CACHE_TTL" env-default:"3600"`
		CacheFile string `json:"cache_file" toml:"cache_file" env:"WHITELIST_CACHE_FILE" env-default:"cache/whitelist.json"`
	}

	Violations struct {
		QueueSize int    `json:"queue_size" toml:"queue_size" env:"VIOLATIONS_QUEUE_SIZE" env-default:"1000"`
		CacheFile string `json:"cache_file" toml:"cache_file" env:"VIOLATIONS_CACHE_FILE"  env-default:"cache/violations.json"`
		// Максимум событий в дисковом кэше, старые вытесняются первыми
		MaxCached int `json:"max_cached" toml:"max_cached" env:"VIOLATIONS_MAX_CACHED" env-default:"1000"`
	}

	Clipboard struct {
		Enabled bool `json:"enabled" toml:"enabled" env:"CLIPBOARD_ENABLED" env-default:"true"`
		// Интервал опроса буфера обмена в миллисекундах
		CheckInterval    int `json:"check_interval"     toml:"check_interval"     env:"CLIPBOARD_CHECK_INTERVAL" env-default:"500"`
		MaxContentLength int `json:"max_content_length" toml:"max_content_length" env:"CLIPBOARD_MAX_LENGTH"     env-default:"10000"`
	}

	Screenshot struct {
		Enabled bool `json:"enabled" toml:"enabled" env:"SCREENSHOT_ENABLED" env-default:"true"`
		Quality int  `json:"quality" toml:"quality" env:"SCREENSHOT_QUALITY" env-default:"85"`
	}

	Heartbeat struct {
		Enabled bool `json:"enabled" toml:"enabled" env:"HEARTBEAT_ENABLED" env-default:"true"`
		// Интервал отправки heartbeat в секундах
		Interval int `json:"interval" toml:"interval" env:"HEARTBEAT_INTERVAL" env-default:"30"`
	}

	Stats struct {
		Enabled bool   `json:"enabled" toml:"enabled" env:"STATS_ENABLED" env-default:"true"`
		Addr    string `json:"addr"    toml:"addr"    env:"STATS_ADDR"    env-default:"127.0.0.1:9187"`
	}

	Log struct {
		Level slog.Level `json:"level" toml:"level" env:"LOG_LEVEL"`
	}
)

func LoadConfig() (*Config, error) {
	cfg := &Config{}

	_, b, _, _ := runtime.Caller(0)
	basePath := filepath.Dir(b)

	configTomlPath := filepath.Join(basePath, "config.toml")
	err := cleanenv.ReadConfig(configTomlPath, cfg)
	if err != nil {
		configJsonPath := filepath.Join(basePath, "config.json")
		err = cleanenv.ReadConfig(configJsonPath, cfg)
		if err != nil {
			return nil, fmt.Errorf("config error: %w", err)
		}
	}

	err = cleanenv.ReadEnv(cfg)
	if err != nil {
		return nil, fmt.Errorf("env read error: %w", err)
	}

	return cfg, nil
}
