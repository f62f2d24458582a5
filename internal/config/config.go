package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	DB      DBConfig      `mapstructure:"db"`
	Cron    CronConfig    `mapstructure:"cron"`
	Shopify ShopifyConfig `mapstructure:"shopify"`
	Import  ImportConfig  `mapstructure:"import"`
	Sync    SyncConfig    `mapstructure:"sync"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

type CronConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Cron specs (with seconds) for the two maintenance sweeps.
	TimeoutSweep    string `mapstructure:"timeout_sweep"`
	CheckpointSweep string `mapstructure:"checkpoint_sweep"`
}

type ShopifyConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	// AccessToken authenticates the shared API client.
	AccessToken string `mapstructure:"access_token"`
}

type ImportConfig struct {
	PageLimit int  `mapstructure:"page_limit"`
	MaxPages  int  `mapstructure:"max_pages"`
	Resume    bool `mapstructure:"resume"`
}

type SyncConfig struct {
	// RunTimeout is the inactivity window after which the sweep reclassifies
	// a run as timed out.
	RunTimeout           time.Duration `mapstructure:"run_timeout"`
	CheckpointExpiration time.Duration `mapstructure:"checkpoint_expiration"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SHOPSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.timeout_sweep", "0 */5 * * * *")
	v.SetDefault("cron.checkpoint_sweep", "0 0 3 * * *")
	v.SetDefault("shopify.base_url", "")
	v.SetDefault("shopify.timeout", "30s")
	v.SetDefault("shopify.access_token", "")
	v.SetDefault("import.page_limit", 250)
	v.SetDefault("import.max_pages", 0)
	v.SetDefault("import.resume", true)
	v.SetDefault("sync.run_timeout", "30m")
	v.SetDefault("sync.checkpoint_expiration", "168h")

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
