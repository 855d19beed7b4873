package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/evanofslack/zone-update/provider"
)

const yamlConfig = `
domain: example.com
dryRun: true
provider:
  name: gandi
  settings:
    pat: secret
records:
  - host: www
    type: A
    value: 10.0.0.1
  - host: _verify
    type: txt
    value: token
syncInterval: 90s
protected: [mail]
async:
  workers: 8
  queue: 16
`

const tomlConfig = `
domain = "example.com"
syncInterval = "2m"

[provider]
name = "dnsimple"

[provider.settings]
key = "abc"
accountId = "1010"

[[records]]
host = "www"
type = "AAAA"
value = "2001:db8::1"
`

const jsonConfig = `{
  "domain": "example.com",
  "provider": {"name": "linode", "settings": {"token": "xyz"}},
  "records": [{"host": "docs", "type": "CNAME", "value": "pages.example.net"}],
  "check": {"nameserver": "1.1.1.1", "timeout": "3s"}
}`

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadFormats(t *testing.T) {
	tests := []struct {
		name  string
		file  string
		body  string
		check func(t *testing.T, cfg *Config)
	}{
		{
			name: "yaml",
			file: "config.yaml",
			body: yamlConfig,
			check: func(t *testing.T, cfg *Config) {
				if !cfg.DryRun || cfg.Provider.Name != "gandi" || cfg.Provider.Settings["pat"] != "secret" {
					t.Errorf("unexpected config %+v", cfg)
				}
				if len(cfg.Records) != 2 || cfg.Records[1].Type != provider.TXT {
					t.Errorf("unexpected records %+v", cfg.Records)
				}
				if cfg.SyncInterval.Std() != 90*time.Second {
					t.Errorf("SyncInterval = %v", cfg.SyncInterval.Std())
				}
				if cfg.Async.Workers != 8 || cfg.Async.Queue != 16 {
					t.Errorf("Async = %+v", cfg.Async)
				}
				if len(cfg.Protected) != 1 || cfg.Protected[0] != "mail" {
					t.Errorf("Protected = %v", cfg.Protected)
				}
			},
		},
		{
			name: "toml",
			file: "config.toml",
			body: tomlConfig,
			check: func(t *testing.T, cfg *Config) {
				if cfg.Provider.Name != "dnsimple" || cfg.Provider.Settings["accountId"] != "1010" {
					t.Errorf("unexpected provider %+v", cfg.Provider)
				}
				if len(cfg.Records) != 1 || cfg.Records[0].Type != provider.AAAA {
					t.Errorf("unexpected records %+v", cfg.Records)
				}
				if cfg.SyncInterval.Std() != 2*time.Minute {
					t.Errorf("SyncInterval = %v", cfg.SyncInterval.Std())
				}
			},
		},
		{
			name: "json",
			file: "config.json",
			body: jsonConfig,
			check: func(t *testing.T, cfg *Config) {
				if cfg.Provider.Name != "linode" || cfg.Records[0].Type != provider.CNAME {
					t.Errorf("unexpected config %+v", cfg)
				}
				if cfg.Check.Nameserver != "1.1.1.1" || cfg.Check.Timeout.Std() != 3*time.Second {
					t.Errorf("Check = %+v", cfg.Check)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, tt.file, tt.body))
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if cfg.Domain != "example.com" {
				t.Errorf("Domain = %q", cfg.Domain)
			}
			if err := cfg.Validate(); err != nil {
				t.Errorf("Validate: %v", err)
			}
			tt.check(t, cfg)
		})
	}
}

func TestDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("missing file should not fail: %v", err)
	}
	if cfg.SyncInterval.Std() != defaultSyncInterval || cfg.StatePath != defaultStatePath || cfg.Owner != defaultOwner {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.Async.Workers != defaultWorkers || cfg.Log.Level != defaultLogLevel || cfg.Metrics.Address != defaultMetricsAddr {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.Check.Timeout.Std() != defaultCheckTimeout {
		t.Errorf("Check.Timeout = %v", cfg.Check.Timeout.Std())
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ZONE_UPDATE_DOMAIN", "example.org")
	t.Setenv("ZONE_UPDATE_DRYRUN", "true")
	t.Setenv("ZONE_UPDATE_PROVIDER", "porkbun")
	t.Setenv("ZONE_UPDATE_PROVIDER_APIKEY", "pk1")
	t.Setenv("ZONE_UPDATE_PROVIDER_SECRETKEY", "sk1")
	t.Setenv("ZONE_UPDATE_SYNC_INTERVAL", "5m")
	t.Setenv("ZONE_UPDATE_WORKERS", "not-a-number")
	t.Setenv("ZONE_UPDATE_LOG_LEVEL", "debug")

	cfg, err := Load(writeConfig(t, "config.yaml", yamlConfig))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Domain != "example.org" || !cfg.DryRun || cfg.Provider.Name != "porkbun" {
		t.Errorf("unexpected overrides %+v", cfg)
	}
	if cfg.Provider.Settings["apikey"] != "pk1" || cfg.Provider.Settings["secretkey"] != "sk1" {
		t.Errorf("Settings = %v", cfg.Provider.Settings)
	}
	// file settings survive
	if cfg.Provider.Settings["pat"] != "secret" {
		t.Errorf("Settings = %v", cfg.Provider.Settings)
	}
	if cfg.SyncInterval.Std() != 5*time.Minute {
		t.Errorf("SyncInterval = %v", cfg.SyncInterval.Std())
	}
	// bad values are ignored
	if cfg.Async.Workers != 8 {
		t.Errorf("Workers = %d", cfg.Async.Workers)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(writeConfig(t, "config.ini", "domain=example.com")); err == nil {
		t.Error("expected error for unknown format")
	}
	if _, err := Load(writeConfig(t, "config.yaml", "records: [")); err == nil {
		t.Error("expected error for malformed yaml")
	}
	if _, err := Load(writeConfig(t, "config.yaml", "records:\n  - host: www\n    type: BOGUS\n")); err == nil {
		t.Error("expected error for unknown record type")
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{Records: []Record{{Type: provider.A}}}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"domain", "provider.name", "records[0]: host"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("missing %q in %v", want, err)
		}
	}
}
