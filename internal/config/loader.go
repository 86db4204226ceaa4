package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/EgorLis/trtl/pkg/logger"
)

const DefaultFile = "trtl.yaml"

// Load читает конфиг из path (пусто — ./trtl.yaml) и TRTL_*; вложенные ключи
// в env через подчёркивание: TRTL_BOT_ROOM. Если файла нет, он создаётся
// со значениями по умолчанию. Возвращает и путь, по которому искали файл.
func Load(log logger.Logger, path string) (Config, string, error) {
	if path == "" {
		path = DefaultFile
	}
	cfg := Default()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	// без SetDefault AutomaticEnv не видит ключ при Unmarshal
	for key, val := range flatten(cfg) {
		v.SetDefault(key, val)
	}
	v.SetEnvPrefix("TRTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	err := v.ReadInConfig()
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrNotExist):
		werr := writeDefault(path, cfg)
		switch {
		case log == nil:
		case werr != nil:
			log.WithError(werr).WithField("path", path).Warn("default config not written")
		default:
			log.WithField("path", path).Info("default config written")
		}
	default:
		return cfg, path, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, path, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return cfg, path, nil
}

// flatten раскладывает конфиг в ключи viper вида bot.room
func flatten(cfg Config) map[string]any {
	return map[string]any{
		"session":       cfg.Session,
		"instance":      cfg.Instance,
		"insecure":      cfg.Insecure,
		"proxy.scheme":  cfg.Proxy.Scheme,
		"proxy.address": cfg.Proxy.Address,
		"log_level":     cfg.LogLevel,
		"metrics_addr":  cfg.MetricsAddr,
		"bot.room":      cfg.Bot.Room,
		"bot.config":    cfg.Bot.Config,
	}
}

// сессия пустая, так что секретов в файле нет; 0600 на случай, если её впишут руками
func writeDefault(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
