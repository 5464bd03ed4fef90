package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is built once at startup and passed to every component.
type Config struct {
	Port    string  `mapstructure:"port"`
	DB      DB      `mapstructure:"db"`
	Storage Storage `mapstructure:"storage"`
	HTTP    HTTP    `mapstructure:"http"`
	Log     Log     `mapstructure:"log"`
	Live    Live    `mapstructure:"live"`
}

type DB struct {
	Path string `mapstructure:"path"`
}

type Storage struct {
	Root       string `mapstructure:"root"`
	DefaultExt string `mapstructure:"default_ext"`
}

type HTTP struct {
	// PublicBaseURL, when set, is used for file_url instead of the request host.
	PublicBaseURL  string `mapstructure:"public_base_url"`
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type Live struct {
	WriteWait       time.Duration `mapstructure:"write_wait"`
	PongWait        time.Duration `mapstructure:"pong_wait"`
	MaxMessageBytes int64         `mapstructure:"max_message_bytes"`
}

const envPrefix = "EVENTS"

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("db.path", "events.db")
	v.SetDefault("storage.root", "storage")
	v.SetDefault("storage.default_ext", ".bin")
	v.SetDefault("http.public_base_url", "")
	v.SetDefault("http.max_upload_bytes", 64<<20)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("live.write_wait", 10*time.Second)
	v.SetDefault("live.pong_wait", 60*time.Second)
	v.SetDefault("live.max_message_bytes", 4<<10)
}

// Load reads <dir>/config.yml if present, applies EVENTS_* environment
// overrides and defaults. A missing file is not an error.
func Load(dir string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.AddConfigPath(dir)
	v.SetConfigName("config")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) validate() error {
	switch {
	case c.DB.Path == "":
		return errors.New("config: db.path is empty")
	case c.Storage.Root == "":
		return errors.New("config: storage.root is empty")
	case c.HTTP.MaxUploadBytes <= 0:
		return errors.New("config: http.max_upload_bytes must be > 0")
	case c.Live.PongWait <= 0 || c.Live.WriteWait <= 0:
		return errors.New("config: live timings must be > 0")
	}
	c.HTTP.PublicBaseURL = strings.TrimRight(c.HTTP.PublicBaseURL, "/")
	return nil
}
