package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Config is shared by every subcommand. Explicit flags override the file.
type Config struct {
	ServerIP   string `yaml:"server_ip,omitempty"`
	ServerPort uint16 `yaml:"server_port,omitempty"`

	// Node only.
	ID            string `yaml:"id,omitempty"`
	PeerPort      uint16 `yaml:"peer_port,omitempty"`
	AdvertiseHost string `yaml:"advertise_host,omitempty"`
	Tracker       string `yaml:"tracker,omitempty"`

	DataDir  string `yaml:"data_dir,omitempty"`
	WWWDir   string `yaml:"www_dir,omitempty"`
	LogLevel string `yaml:"log_level,omitempty"`
}

func defaultConfig(serverPort uint16) Config {
	return Config{
		ServerIP:      "0.0.0.0",
		ServerPort:    serverPort,
		PeerPort:      9001,
		AdvertiseHost: "127.0.0.1",
		Tracker:       "http://127.0.0.1:9000",
		DataDir:       "db",
		WWWDir:        "www",
		LogLevel:      "info",
	}
}

func (c *Config) bindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.ServerIP, "server-ip", c.ServerIP, "IP address to bind the web server to")
	fs.Uint16Var(&c.ServerPort, "server-port", c.ServerPort, "port of the web server")
	fs.StringVar(&c.DataDir, "data-dir", c.DataDir, "directory holding the peer directory and message logs")
	fs.StringVar(&c.WWWDir, "www-dir", c.WWWDir, "directory holding the web pages and users.json")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "one of debug, info, warn, error")
}

func (c *Config) bindNodeFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.ID, "id", c.ID, "peer id to register as")
	fs.Uint16Var(&c.PeerPort, "peer-port", c.PeerPort, "port receiving direct messages from other peers")
	fs.StringVar(&c.AdvertiseHost, "advertise-host", c.AdvertiseHost, "host other peers use to reach this node")
	fs.StringVar(&c.Tracker, "tracker", c.Tracker, "base url of the directory-hosting tracker")
}

// load merges the YAML file at path under the flags explicitly set in fs.
func (c *Config) load(path string, fs *pflag.FlagSet) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "reading config file")
	}

	fromFile := *c
	if err := yaml.Unmarshal(data, &fromFile); err != nil {
		return errors.Wrapf(err, "decoding config file %s", path)
	}

	fs.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "server-ip":
			fromFile.ServerIP = c.ServerIP
		case "server-port":
			fromFile.ServerPort = c.ServerPort
		case "data-dir":
			fromFile.DataDir = c.DataDir
		case "www-dir":
			fromFile.WWWDir = c.WWWDir
		case "log-level":
			fromFile.LogLevel = c.LogLevel
		case "id":
			fromFile.ID = c.ID
		case "peer-port":
			fromFile.PeerPort = c.PeerPort
		case "advertise-host":
			fromFile.AdvertiseHost = c.AdvertiseHost
		case "tracker":
			fromFile.Tracker = c.Tracker
		}
	})

	*c = fromFile
	return nil
}

func (c *Config) logger() (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return nil, errors.Wrapf(err, "parsing log level %q", c.LogLevel)
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})), nil
}
