package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/evanofslack/zone-update/provider"
)

const (
	defaultSyncInterval = time.Minute
	defaultStatePath    = "zoneupdate.db"
	defaultOwner        = "default"
	defaultLogLevel     = "info"
	defaultLogEnv       = "prod"
	defaultMetricsAddr  = ":9090"
	defaultWorkers      = 4
	defaultCheckTimeout = 5 * time.Second

	envPrefix         = "ZONE_UPDATE_"
	envProviderPrefix = envPrefix + "PROVIDER_"
)

type Config struct {
	Domain       string   `yaml:"domain" toml:"domain" json:"domain"`
	DryRun       bool     `yaml:"dryRun" toml:"dryRun" json:"dryRun"`
	Provider     Provider `yaml:"provider" toml:"provider" json:"provider"`
	Records      []Record `yaml:"records" toml:"records" json:"records"`
	Source       Source   `yaml:"source" toml:"source" json:"source"`
	SyncInterval Duration `yaml:"syncInterval" toml:"syncInterval" json:"syncInterval"`
	StatePath    string   `yaml:"statePath" toml:"statePath" json:"statePath"`
	Owner        string   `yaml:"owner" toml:"owner" json:"owner"`
	Protected    []string `yaml:"protected" toml:"protected" json:"protected"`
	Async        Async    `yaml:"async" toml:"async" json:"async"`
	Log          Log      `yaml:"log" toml:"log" json:"log"`
	Metrics      Metrics  `yaml:"metrics" toml:"metrics" json:"metrics"`
	Check        Check    `yaml:"check" toml:"check" json:"check"`
}

// Provider selects an adapter by name. Settings are adapter specific and
// decoded by the adapter itself.
type Provider struct {
	Name     string         `yaml:"name" toml:"name" json:"name"`
	Settings map[string]any `yaml:"settings" toml:"settings" json:"settings"`
}

// Record is a desired record.
type Record struct {
	Host  string              `yaml:"host" toml:"host" json:"host"`
	Type  provider.RecordType `yaml:"type" toml:"type" json:"type"`
	Value string              `yaml:"value" toml:"value" json:"value"`
}

// Source is a remote inventory of desired records, merged with Records.
type Source struct {
	URL   string `yaml:"url" toml:"url" json:"url"`
	Token string `yaml:"token" toml:"token" json:"token"`
}

type Async struct {
	Workers int `yaml:"workers" toml:"workers" json:"workers"`
	Queue   int `yaml:"queue" toml:"queue" json:"queue"`
}

type Log struct {
	Level string `yaml:"level" toml:"level" json:"level"`
	Env   string `yaml:"env" toml:"env" json:"env"`
}

type Metrics struct {
	Address string `yaml:"address" toml:"address" json:"address"`
}

// Check configures propagation checks against a nameserver.
type Check struct {
	Nameserver string   `yaml:"nameserver" toml:"nameserver" json:"nameserver"`
	Timeout    Duration `yaml:"timeout" toml:"timeout" json:"timeout"`
}

// Duration reads "90s" style strings from any of the config formats.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (c *Config) ProviderConfig() provider.Config {
	return provider.Config{Domain: c.Domain, DryRun: c.DryRun}
}

// Load reads path, picking the decoder from its extension (.yaml/.yml,
// .toml, .json). A missing file is not an error; defaults and environment
// overrides still apply.
func Load(path string) (*Config, error) {
	var cfg Config

	f, err := os.Open(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		slog.Default().Warn("fail find config file, proceeding", "path", path)
	case err != nil:
		return nil, err
	default:
		if err := decode(f, filepath.Ext(path), &cfg); err != nil {
			f.Close()
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			slog.Default().Warn("fail close config file", "path", path, "error", err)
		}
	}

	applyDefaults(&cfg)
	applyEnv(&cfg)
	return &cfg, nil
}

func decode(r io.Reader, ext string, cfg *Config) error {
	switch strings.ToLower(ext) {
	case ".toml":
		return toml.NewDecoder(r).Decode(cfg)
	case ".json":
		return json.NewDecoder(r).Decode(cfg)
	case ".yaml", ".yml", "":
		err := yaml.NewDecoder(r).Decode(cfg)
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	default:
		return fmt.Errorf("unsupported config format %q", ext)
	}
}

func applyDefaults(cfg *Config) {
	if cfg.SyncInterval == 0 {
		cfg.SyncInterval = Duration(defaultSyncInterval)
	}
	if cfg.StatePath == "" {
		cfg.StatePath = defaultStatePath
	}
	if cfg.Owner == "" {
		cfg.Owner = defaultOwner
	}
	if cfg.Async.Workers == 0 {
		cfg.Async.Workers = defaultWorkers
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaultLogLevel
	}
	if cfg.Log.Env == "" {
		cfg.Log.Env = defaultLogEnv
	}
	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = defaultMetricsAddr
	}
	if cfg.Check.Timeout == 0 {
		cfg.Check.Timeout = Duration(defaultCheckTimeout)
	}
}

func applyEnv(cfg *Config) {
	if domain := os.Getenv(envPrefix + "DOMAIN"); domain != "" {
		cfg.Domain = domain
	}
	if dryRun := os.Getenv(envPrefix + "DRYRUN"); dryRun != "" {
		if v, err := strconv.ParseBool(dryRun); err == nil {
			cfg.DryRun = v
		} else {
			slog.Default().Warn("fail parse dryrun to bool from string", "dryrun", dryRun)
		}
	}
	if name := os.Getenv(envPrefix + "PROVIDER"); name != "" {
		cfg.Provider.Name = name
	}
	if interval := os.Getenv(envPrefix + "SYNC_INTERVAL"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil {
			cfg.SyncInterval = Duration(d)
		} else {
			slog.Default().Warn("fail parse sync interval to duration from string", "interval", interval, "error", err)
		}
	}
	if statePath := os.Getenv(envPrefix + "STATE_PATH"); statePath != "" {
		cfg.StatePath = statePath
	}
	if owner := os.Getenv(envPrefix + "OWNER"); owner != "" {
		cfg.Owner = owner
	}
	if url := os.Getenv(envPrefix + "SOURCE_URL"); url != "" {
		cfg.Source.URL = url
	}
	if token := os.Getenv(envPrefix + "SOURCE_TOKEN"); token != "" {
		cfg.Source.Token = token
	}
	if workers := os.Getenv(envPrefix + "WORKERS"); workers != "" {
		if n, err := strconv.Atoi(workers); err == nil {
			cfg.Async.Workers = n
		} else {
			slog.Default().Warn("fail parse workers to int from string", "workers", workers, "error", err)
		}
	}
	if loglevel := os.Getenv(envPrefix + "LOG_LEVEL"); loglevel != "" {
		cfg.Log.Level = loglevel
	}
	if logenv := os.Getenv(envPrefix + "LOG_ENV"); logenv != "" {
		cfg.Log.Env = logenv
	}
	if addr := os.Getenv(envPrefix + "METRICS_ADDRESS"); addr != "" {
		cfg.Metrics.Address = addr
	}
	if ns := os.Getenv(envPrefix + "NAMESERVER"); ns != "" {
		cfg.Check.Nameserver = ns
	}

	// ZONE_UPDATE_PROVIDER_<KEY>=value sets a provider setting. Setting
	// names match case-insensitively when the adapter decodes them.
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(k, envProviderPrefix) || len(k) == len(envProviderPrefix) {
			continue
		}
		if cfg.Provider.Settings == nil {
			cfg.Provider.Settings = map[string]any{}
		}
		cfg.Provider.Settings[strings.ToLower(strings.TrimPrefix(k, envProviderPrefix))] = v
	}
}

// Validate reports settings that would make the service unusable.
func (c *Config) Validate() error {
	var errs []error
	if c.Domain == "" {
		errs = append(errs, errors.New("domain is required"))
	}
	if c.Provider.Name == "" {
		errs = append(errs, errors.New("provider.name is required"))
	}
	for i, r := range c.Records {
		if r.Host == "" {
			errs = append(errs, fmt.Errorf("records[%d]: host is required", i))
		}
		if !r.Type.Known() {
			errs = append(errs, fmt.Errorf("records[%d]: type is required", i))
		}
	}
	return errors.Join(errs...)
}
