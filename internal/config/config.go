// Package config — настройки CLI trtl: значения по умолчанию, YAML-файл,
// переменные TRTL_* и флаги, в таком порядке приоритета.
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

type ProxyConfig struct {
	Scheme  string `mapstructure:"scheme" yaml:"scheme" validate:"omitempty,oneof=http https socks5 socks5h"`
	Address string `mapstructure:"address" yaml:"address" validate:"omitempty,hostname_port"`
}

type BotConfig struct {
	Room string `mapstructure:"room" yaml:"room"`
	// JSON-файл бота (админы, комната)
	Config string `mapstructure:"config" yaml:"config"`
}

type Config struct {
	Session     string      `mapstructure:"session" yaml:"session"`
	Instance    string      `mapstructure:"instance" yaml:"instance" validate:"required,hostname_rfc1123|hostname_port"`
	Insecure    bool        `mapstructure:"insecure" yaml:"insecure"` // http/ws вместо https/wss
	Proxy       ProxyConfig `mapstructure:"proxy" yaml:"proxy"`
	LogLevel    string      `mapstructure:"log_level" yaml:"log_level" validate:"omitempty,oneof=debug info warn warning error"`
	MetricsAddr string      `mapstructure:"metrics_addr" yaml:"metrics_addr"`
	Bot         BotConfig   `mapstructure:"bot" yaml:"bot"`
}

func Default() Config {
	return Config{
		Instance: "v2.blacket.org",
		LogLevel: "info",
		Bot: BotConfig{
			Room:   "global",
			Config: "conf/botconfig.json",
		},
	}
}

var validate = validator.New()

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Override — значения из флагов поверх загруженных; пустые поля не трогают.
func (c *Config) Override(flags Config) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.Session, flags.Session)
	set(&c.Instance, flags.Instance)
	set(&c.LogLevel, flags.LogLevel)
	set(&c.MetricsAddr, flags.MetricsAddr)
	set(&c.Bot.Room, flags.Bot.Room)
	set(&c.Bot.Config, flags.Bot.Config)
	if flags.Insecure {
		c.Insecure = true
	}
	// прокси меняется только целиком
	if flags.Proxy.Address != "" {
		c.Proxy = flags.Proxy
	}
}
