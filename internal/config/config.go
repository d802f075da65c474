// Package config loads the server's startup configuration. It is
// intentionally thin: parsing is out of scope for the core (spec.md §1),
// this exists only so cmd/bithorded has something concrete to parse into
// server.Config and session.Config.
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultLocalSockPath is the local stream-socket path used when a config
// file doesn't set one (spec.md §6 "default `/tmp/bithorde`").
const DefaultLocalSockPath = "/tmp/bithorde"

// StoreConfig names one local store directory. cmd/bithorded creates an
// empty store for each entry; the directory's contents are not scanned.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// Config is the on-disk shape described in SPEC_FULL.md's Configuration
// section.
type Config struct {
	Name          string        `yaml:"name"`
	TCPListen     string        `yaml:"tcpListen"`
	LocalListen   string        `yaml:"localListen"`
	Stores        []StoreConfig `yaml:"stores"`
	Upstreams     []string      `yaml:"upstreams"`
	BindTimeoutMS uint32        `yaml:"bindTimeoutMS"`
	ReadTimeoutMS uint32        `yaml:"readTimeoutMS"`
}

// Load reads and parses the YAML file at path, filling in the documented
// defaults for anything left unset.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "config: read %s", path)
	}

	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, errors.Wrapf(err, "config: parse %s", path)
	}

	if c.LocalListen == "" {
		c.LocalListen = DefaultLocalSockPath
	}
	if c.BindTimeoutMS == 0 {
		c.BindTimeoutMS = 500
	}
	if c.ReadTimeoutMS == 0 {
		c.ReadTimeoutMS = 5000
	}
	return &c, nil
}
