package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   Server   `mapstructure:"server"`
	Database Database `mapstructure:"database"`
	Auth     Auth     `mapstructure:"auth"`
	OCR      OCR      `mapstructure:"ocr"`
	Scans    Scans    `mapstructure:"scans"`
	Sync     Sync     `mapstructure:"sync"`
	Notify   Notify   `mapstructure:"notify"`
	Mirror   Mirror   `mapstructure:"mirror"`
	Log      Log      `mapstructure:"log"`
}

type Server struct {
	Addr           string   `mapstructure:"addr"`
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

type Database struct {
	Path string `mapstructure:"path"`
}

type Auth struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	JWTIssuer string        `mapstructure:"jwt_issuer"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

type OCR struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type Scans struct {
	Dir string `mapstructure:"dir"`
}

type Sync struct {
	TCPAddr string `mapstructure:"tcp_addr"`
}

type Notify struct {
	UDPAddr string `mapstructure:"udp_addr"`
}

type Mirror struct {
	Path string `mapstructure:"path"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads vinohub.yaml from ., ./config, or ~/.vinohub (first hit wins),
// or from the explicit path when given. Missing file is not an error: a
// commented default is written to ~/.vinohub and defaults apply. Every key
// can be overridden with VINOHUB_SECTION_KEY environment variables.
func Load(explicit string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if explicit != "" {
		v.SetConfigFile(explicit)
	} else {
		v.SetConfigName("vinohub")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		if home, err := os.UserHomeDir(); err == nil && home != "" {
			v.AddConfigPath(filepath.Join(home, ".vinohub"))
		}
	}

	v.SetEnvPrefix("vinohub")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if explicit != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := writeDefault(); err != nil {
			return nil, fmt.Errorf("write default config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// setDefaults registers every key so env-only overrides survive Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.trusted_proxies", []string{"127.0.0.1"})
	v.SetDefault("database.path", "")
	v.SetDefault("auth.jwt_secret", "dev-secret-change-me")
	v.SetDefault("auth.jwt_issuer", "vinohub")
	v.SetDefault("auth.token_ttl", "24h")
	v.SetDefault("ocr.url", "")
	v.SetDefault("ocr.timeout", "15s")
	v.SetDefault("scans.dir", "data/scans")
	v.SetDefault("sync.tcp_addr", ":7070")
	v.SetDefault("notify.udp_addr", ":7071")
	v.SetDefault("mirror.path", "data/catalog-mirror.json")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

const defaultYAML = `# vinohub configuration. Any key can be overridden with
# VINOHUB_SECTION_KEY environment variables, e.g. VINOHUB_SERVER_ADDR.

server:
  addr: ":8080"
  trusted_proxies:
    - "127.0.0.1"

database:
  # empty means ~/.vinohub/data.db (or VINOHUB_DB_PATH)
  path: ""

auth:
  jwt_secret: "dev-secret-change-me"
  jwt_issuer: "vinohub"
  token_ttl: "24h"

ocr:
  # HTTP text-recognizer endpoint; empty disables server-side OCR and scans
  # must carry their own lines
  url: ""
  timeout: "15s"

scans:
  dir: "data/scans"

sync:
  tcp_addr: ":7070"

notify:
  udp_addr: ":7071"

mirror:
  path: "data/catalog-mirror.json"

log:
  level: "info"
  format: "console"
`

func writeDefault() error {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return nil
	}
	dir := filepath.Join(home, ".vinohub")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(dir, "vinohub.yaml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return os.WriteFile(path, []byte(defaultYAML), 0o644)
}
