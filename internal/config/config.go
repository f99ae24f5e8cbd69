//Package config loads the YAML configuration of the sACN bridge daemon.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Hundemeier/go-sacn/sacn"
)

//ErrInvalid is returned for configurations that load but can not drive a bridge
var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	//Interface is the name of the network interface used for multicast, empty for the default
	Interface          string        `yaml:"interface"`
	Bind               string        `yaml:"bind"`
	DisableSynchronize bool          `yaml:"disableSynchronize"`
	Timeouts           TimeoutConfig `yaml:"timeouts"`
	Ports              []PortConfig  `yaml:"ports"`
	Logs               LogConfig     `yaml:"logs"`
}

type TimeoutConfig struct {
	MergeMs           int `yaml:"mergeMs"`
	PriorityMs        int `yaml:"priorityMs"`
	NetworkDataLossMs int `yaml:"networkDataLossMs"`
}

type PortConfig struct {
	Index     int    `yaml:"index"`
	Direction string `yaml:"direction"`
	Universe  uint16 `yaml:"universe"`
	Merge     string `yaml:"merge"`
}

type LogConfig struct {
	//Directory for the rotated log file, empty logs to stderr only
	Directory  string `yaml:"directory"`
	MaxSizeMB  int    `yaml:"maxSizeMB"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
	MaxBackups int    `yaml:"maxBackups"`
	Compress   bool   `yaml:"compress"`
	Level      string `yaml:"level"`
}

//Load reads the file at path. A relative log directory is resolved against the directory of the file.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()
	cfg, err := Parse(f)
	if err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	if dir := cfg.Logs.Directory; dir != "" && !filepath.IsAbs(dir) {
		cfg.Logs.Directory = filepath.Clean(filepath.Join(filepath.Dir(path), dir))
	}
	return cfg, nil
}

//Parse decodes a configuration, applies the defaults and validates it. Unknown keys are an error.
func Parse(r io.Reader) (Config, error) {
	var cfg Config
	data, err := io.ReadAll(r)
	if err != nil {
		return cfg, err
	}
	if len(bytes.TrimSpace(data)) > 0 {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return cfg, fmt.Errorf("decode: %w", err)
		}
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

//Default returns the configuration of a bridge with one HTP output on universe 1
func Default() Config {
	var cfg Config
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Timeouts.MergeMs <= 0 {
		c.Timeouts.MergeMs = int(sacn.DefaultMergeTimeout / time.Millisecond)
	}
	if c.Timeouts.PriorityMs <= 0 {
		c.Timeouts.PriorityMs = int(sacn.DefaultPriorityTimeout / time.Millisecond)
	}
	if c.Timeouts.NetworkDataLossMs <= 0 {
		c.Timeouts.NetworkDataLossMs = int(sacn.DefaultNetworkDataLossTimeout / time.Millisecond)
	}
	if len(c.Ports) == 0 {
		c.Ports = []PortConfig{{Index: 0, Direction: "output", Universe: 1}}
	}
	for i := range c.Ports {
		if c.Ports[i].Universe == 0 {
			c.Ports[i].Universe = uint16(c.Ports[i].Index + 1)
		}
		if c.Ports[i].Merge == "" {
			c.Ports[i].Merge = sacn.MergeHTP.String()
		}
	}
	if c.Logs.MaxSizeMB <= 0 {
		c.Logs.MaxSizeMB = 25
	}
	if c.Logs.MaxAgeDays <= 0 {
		c.Logs.MaxAgeDays = 7
	}
	if c.Logs.MaxBackups <= 0 {
		c.Logs.MaxBackups = 5
	}
	if c.Logs.Level == "" {
		c.Logs.Level = "info"
	}
}

//Validate checks every port entry and the log level
func (c *Config) Validate() error {
	seen := make(map[int]bool)
	for _, p := range c.Ports {
		if p.Index < 0 || p.Index >= sacn.MaxPorts {
			return fmt.Errorf("%w: port index %d out of range [0-%d]", ErrInvalid, p.Index, sacn.MaxPorts-1)
		}
		if seen[p.Index] {
			return fmt.Errorf("%w: port %d configured twice", ErrInvalid, p.Index)
		}
		seen[p.Index] = true
		if _, err := sacn.ParseDirection(p.Direction); err != nil {
			return fmt.Errorf("%w: port %d: %w", ErrInvalid, p.Index, err)
		}
		if p.Universe < sacn.UniverseMin || p.Universe > sacn.UniverseMax {
			return fmt.Errorf("%w: port %d: %w: %d", ErrInvalid, p.Index, sacn.ErrInvalidUniverse, p.Universe)
		}
		if _, err := sacn.ParseMergePolicy(p.Merge); err != nil {
			return fmt.Errorf("%w: port %d: %w", ErrInvalid, p.Index, err)
		}
	}
	switch strings.ToLower(c.Logs.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown log level %q", ErrInvalid, c.Logs.Level)
	}
	return nil
}

//MergeTimeout returns the merge timeout as a duration
func (t TimeoutConfig) MergeTimeout() time.Duration {
	return time.Duration(t.MergeMs) * time.Millisecond
}

//PriorityTimeout returns the priority timeout as a duration
func (t TimeoutConfig) PriorityTimeout() time.Duration {
	return time.Duration(t.PriorityMs) * time.Millisecond
}

//NetworkDataLossTimeout returns the network data loss timeout as a duration
func (t TimeoutConfig) NetworkDataLossTimeout() time.Duration {
	return time.Duration(t.NetworkDataLossMs) * time.Millisecond
}

//Apply configures the ports of the bridge
func (c *Config) Apply(b *sacn.Bridge) error {
	for _, p := range c.Ports {
		direction, err := sacn.ParseDirection(p.Direction)
		if err != nil {
			return err
		}
		merge, err := sacn.ParseMergePolicy(p.Merge)
		if err != nil {
			return err
		}
		if direction != sacn.DirectionDisabled {
			if err := b.SetUniverse(p.Index, direction, p.Universe); err != nil {
				return fmt.Errorf("port %d: %w", p.Index, err)
			}
		}
		if err := b.SetMergePolicy(p.Index, merge); err != nil {
			return fmt.Errorf("port %d: %w", p.Index, err)
		}
		if err := b.SetDirection(p.Index, direction); err != nil {
			return fmt.Errorf("port %d: %w", p.Index, err)
		}
	}
	return nil
}
