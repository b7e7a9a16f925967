package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	cfg := Config{HTTP: HTTPConfig{Port: 8000}}
	cfg.ApplyDefaults()
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 60 {
		t.Errorf("expected WriteTimeoutSec=60, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.HTTP.ShutdownSec != 10 {
		t.Errorf("expected ShutdownSec=10, got %d", cfg.HTTP.ShutdownSec)
	}
	if cfg.Cache.Driver != DriverFile || cfg.Cache.Dir != "cache" {
		t.Errorf("expected file driver in ./cache, got %q %q", cfg.Cache.Driver, cfg.Cache.Dir)
	}
	if cfg.Cache.TTL() != 7*24*time.Hour {
		t.Errorf("expected 7 day TTL, got %v", cfg.Cache.TTL())
	}
	if cfg.Cache.SweepInterval() != time.Hour {
		t.Errorf("expected hourly sweep, got %v", cfg.Cache.SweepInterval())
	}
	if cfg.Remote.BaseURL != DefaultBaseURL || cfg.Remote.SearchPath != DefaultSearchPath {
		t.Errorf("unexpected remote endpoint %q %q", cfg.Remote.BaseURL, cfg.Remote.SearchPath)
	}
	if cfg.Remote.TimeoutSec != 30 || cfg.Remote.MaxAttempts != 3 || cfg.Remote.RetryDelaySec != 2 || cfg.Remote.MaxResults != 10 {
		t.Errorf("unexpected remote defaults %+v", cfg.Remote)
	}
	if cfg.RateLimit.SearchPerMinute != 30 || cfg.RateLimit.RootPerMinute != 60 {
		t.Errorf("unexpected rate limits %+v", cfg.RateLimit)
	}
	if len(cfg.CORS.AllowedOrigins) != 1 || cfg.CORS.AllowedOrigins[0] != "*" {
		t.Errorf("expected permissive CORS, got %v", cfg.CORS.AllowedOrigins)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:   HTTPConfig{ReadTimeoutSec: 30, WriteTimeoutSec: 120, ShutdownSec: 5},
		Cache:  CacheConfig{Driver: DriverRedis, TTLHours: 1, SweepIntervalSec: 60},
		Remote: RemoteConfig{MaxAttempts: 5, MaxResults: 20},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.WriteTimeoutSec != 120 {
		t.Errorf("expected WriteTimeoutSec=120, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if cfg.Cache.Dir != "" {
		t.Errorf("redis driver should not get a dir, got %q", cfg.Cache.Dir)
	}
	if cfg.Cache.TTL() != time.Hour || cfg.Cache.SweepInterval() != time.Minute {
		t.Errorf("cache timings overridden: %v %v", cfg.Cache.TTL(), cfg.Cache.SweepInterval())
	}
	if cfg.Remote.MaxAttempts != 5 || cfg.Remote.MaxResults != 20 {
		t.Errorf("remote values overridden: %+v", cfg.Remote)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"port zero", func(c *Config) { c.HTTP.Port = 0 }, "http.port"},
		{"port too high", func(c *Config) { c.HTTP.Port = 70000 }, "http.port"},
		{"unknown driver", func(c *Config) { c.Cache.Driver = "memcached" }, "cache.driver"},
		{"redis without addrs", func(c *Config) { c.Cache.Driver = DriverRedis }, "cache.addrs"},
		{"valkey with addrs", func(c *Config) {
			c.Cache.Driver = DriverValkey
			c.Cache.Addrs = []string{"localhost:6379"}
		}, ""},
		{"badger without dir", func(c *Config) {
			c.Cache.Driver = DriverBadger
			c.Cache.Dir = ""
		}, "cache.dir"},
		{"relative base url", func(c *Config) { c.Remote.BaseURL = "indiankanoon.org" }, "remote.base_url"},
		{"ftp base url", func(c *Config) { c.Remote.BaseURL = "ftp://indiankanoon.org" }, "remote.base_url"},
		{"negative attempts", func(c *Config) { c.Remote.MaxAttempts = -1 }, "remote.max_attempts"},
		{"negative results", func(c *Config) { c.Remote.MaxResults = -1 }, "remote.max_results"},
		{"negative rate limit", func(c *Config) { c.RateLimit.SearchPerMinute = -1 }, "rate_limit"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error mentioning %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("CF_TEST_SET", "redis")
	t.Setenv("CF_TEST_EMPTY", "")

	in := "a: ${CF_TEST_SET}\nb: ${CF_TEST_EMPTY:-file}\nc: ${CF_TEST_MISSING:-8000}\nd: ${CF_TEST_MISSING}"
	want := "a: redis\nb: file\nc: 8000\nd: "
	if got := string(expandEnvVars([]byte(in))); got != want {
		t.Errorf("expandEnvVars:\ngot:  %q\nwant: %q", got, want)
	}
}

func TestLoad_Local(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("CACHE_DRIVER", "")

	cfg, err := Load("local")
	if err != nil {
		t.Fatalf("Load(local): %v", err)
	}
	if cfg.HTTP.Port != 9090 {
		t.Errorf("expected port from env, got %d", cfg.HTTP.Port)
	}
	if cfg.Cache.Driver != DriverFile {
		t.Errorf("expected file driver, got %q", cfg.Cache.Driver)
	}
	if cfg.Remote.BaseURL != DefaultBaseURL {
		t.Errorf("unexpected base url %q", cfg.Remote.BaseURL)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("does-not-exist"); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("ENV", "")
	if got := GetEnv(); got != "local" {
		t.Errorf("expected local, got %q", got)
	}
	t.Setenv("ENV", "prod")
	if got := GetEnv(); got != "prod" {
		t.Errorf("expected prod, got %q", got)
	}
}
