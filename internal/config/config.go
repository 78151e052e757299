// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package config loads oky settings from a YAML file and OKY_ environment
// variables.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Thermoquad/oky/pkg/iscp"
)

// ErrAddressNotSet is returned when no receiver address was given anywhere.
var ErrAddressNotSet = errors.New("address not set: use --host, OKY_ADDRESS or the config file")

// SerialConfig selects a receiver's RS-232 port instead of TCP.
type SerialConfig struct {
	Port string `mapstructure:"port"`
	Baud int    `mapstructure:"baud"`
}

// WebSocketConfig selects a serial-to-WebSocket bridge instead of TCP.
type WebSocketConfig struct {
	URL         string `mapstructure:"url"`
	Username    string `mapstructure:"username"`
	NoSSLVerify bool   `mapstructure:"no_ssl_verify"`
}

// FileConfig configures the rolling log file.
type FileConfig struct {
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// LoggingConfig configures level, encoding and outputs.
type LoggingConfig struct {
	Level  string     `mapstructure:"level"`
	Format string     `mapstructure:"format"`
	File   FileConfig `mapstructure:"file"`
}

// MetricsConfig configures the Prometheus endpoint served by "oky log".
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// Config is the complete oky configuration.
type Config struct {
	// Address is "host[:port]", normally taken from OKY_ADDRESS.
	Address string `mapstructure:"address"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	Zone    int    `mapstructure:"zone"`

	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	AckTimeout     time.Duration `mapstructure:"ack_timeout"`

	Serial    SerialConfig    `mapstructure:"serial"`
	WebSocket WebSocketConfig `mapstructure:"websocket"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// New returns a viper instance with defaults and environment bindings set.
// Flags are bound to it by the caller before Load.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("OKY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("address", "")
	v.SetDefault("host", "")
	v.SetDefault("port", iscp.DefaultPort)
	v.SetDefault("zone", 1)
	v.SetDefault("connect_timeout", iscp.DefaultConnectTimeout)
	v.SetDefault("ack_timeout", iscp.DefaultAckTimeout)

	v.SetDefault("serial.port", "")
	v.SetDefault("serial.baud", 9600)

	v.SetDefault("websocket.url", "")
	v.SetDefault("websocket.username", "admin")
	v.SetDefault("websocket.no_ssl_verify", false)

	v.SetDefault("logging.level", "warn")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file.filename", "")
	v.SetDefault("logging.file.max_size", 10)
	v.SetDefault("logging.file.max_backups", 3)
	v.SetDefault("logging.file.max_age", 28)
	v.SetDefault("logging.file.compress", false)

	v.SetDefault("metrics.addr", "")
}

// DefaultPath returns $XDG_CONFIG_HOME/oky/config.yaml.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "oky", "config.yaml")
}

// Load reads the config file at path into v and decodes the result. An
// empty path falls back to DefaultPath, which may be missing.
func Load(v *viper.Viper, path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			missing := errors.Is(err, os.ErrNotExist) || errors.As(err, &notFound)
			if explicit || !missing {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Resolve picks the receiver endpoint. An explicit host wins, then Address,
// then Host from the config file. A positive port overrides the port from
// any source.
func (c *Config) Resolve(host string, port int) (string, int, error) {
	defPort := c.Port
	if defPort <= 0 {
		defPort = iscp.DefaultPort
	}

	switch {
	case host != "":
	case c.Address != "":
		h, p, err := ParseAddress(c.Address, defPort)
		if err != nil {
			return "", 0, err
		}
		host, defPort = h, p
	case c.Host != "":
		host = c.Host
	default:
		return "", 0, ErrAddressNotSet
	}

	if port > 0 {
		return host, port, nil
	}
	return host, defPort, nil
}

// ParseAddress splits "host" or "host:port". Bare IPv6 addresses are
// accepted without brackets.
func ParseAddress(addr string, defPort int) (string, int, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "", 0, ErrAddressNotSet
	}

	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		if strings.Count(addr, ":") > 1 || !strings.Contains(addr, ":") {
			return strings.Trim(addr, "[]"), defPort, nil
		}
		return "", 0, fmt.Errorf("invalid address %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return "", 0, fmt.Errorf("invalid port in address %q", addr)
	}
	return host, port, nil
}
