package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrNoHost is returned when neither the config file nor the environment
// names a planning server.
var ErrNoHost = errors.New("no planning server configured")

// HostConfig holds per-server credentials.
type HostConfig struct {
	Token string `yaml:"token"`
}

// PGanttConfig holds the pgantt section of the config file.
type PGanttConfig struct {
	Projects      []string `yaml:"projects"`
	PollInterval  int      `yaml:"poll_interval"` // seconds
	IncludeClosed bool     `yaml:"include_closed"`
	HTTPTimeoutMs int      `yaml:"http_timeout_ms"`
	MetricsAddr   string   `yaml:"metrics_addr"`
}

// fileConfig mirrors the on-disk YAML layout.
type fileConfig struct {
	Hosts  map[string]HostConfig `yaml:"hosts"`
	PGantt PGanttConfig          `yaml:"pgantt"`
}

// Config holds the resolved runtime configuration.
type Config struct {
	ServerURL     string
	Token         string
	Projects      []string
	PollInterval  time.Duration
	IncludeClosed bool
	HTTPTimeout   time.Duration
	DBPath        string
	LogLevel      string
	LogFile       string
	MetricsAddr   string
}

// DefaultConfig returns a Config with sensible defaults. No server is set.
func DefaultConfig() Config {
	dir := DataDir()
	return Config{
		PollInterval: 10 * time.Second,
		HTTPTimeout:  10 * time.Second,
		DBPath:       filepath.Join(dir, "pgantt.db"),
		LogLevel:     "info",
		LogFile:      filepath.Join(dir, "pgantt.log"),
	}
}

// DataDir returns the directory for the database, log and default config.
// PGANTT_HOME overrides the default ~/.pgantt.
func DataDir() string {
	if dir := os.Getenv("PGANTT_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pgantt"
	}
	return filepath.Join(home, ".pgantt")
}

// DefaultPath returns the conventional config file location.
func DefaultPath() string {
	return filepath.Join(DataDir(), "config.yaml")
}

// Load reads the YAML file at path (a missing file is not an error), then
// applies environment overrides on top. Malformed YAML is an error.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if err := mergeFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}
	applyEnv(&cfg)

	return cfg, nil
}

func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("malformed config %s: %w", path, err)
	}

	if len(fc.Hosts) > 0 {
		host, ok := selectHost(fc.Hosts, os.Getenv("PGANTT_SERVER"))
		if ok {
			token := fc.Hosts[host].Token
			if token == "" && os.Getenv("PGANTT_TOKEN") == "" {
				return fmt.Errorf("token for host %q missing in %s", host, path)
			}
			cfg.ServerURL = host
			cfg.Token = token
		}
	}

	p := fc.PGantt
	if len(p.Projects) > 0 {
		cfg.Projects = p.Projects
	}
	if p.PollInterval > 0 {
		cfg.PollInterval = time.Duration(p.PollInterval) * time.Second
	}
	if p.HTTPTimeoutMs > 0 {
		cfg.HTTPTimeout = time.Duration(p.HTTPTimeoutMs) * time.Millisecond
	}
	cfg.IncludeClosed = p.IncludeClosed
	if p.MetricsAddr != "" {
		cfg.MetricsAddr = p.MetricsAddr
	}
	return nil
}

// selectHost picks the configured host to talk to. When override is set only
// that host's entry may be used, so a token is never sent to another server.
// Otherwise the first host in lexical order wins so the choice does not
// depend on map iteration.
func selectHost(hosts map[string]HostConfig, override string) (string, bool) {
	if override != "" {
		_, ok := hosts[override]
		return override, ok
	}
	names := make([]string, 0, len(hosts))
	for h := range hosts {
		names = append(names, h)
	}
	sort.Strings(names)
	return names[0], true
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PGANTT_SERVER"); v != "" {
		cfg.ServerURL = v
	}
	if v := os.Getenv("PGANTT_TOKEN"); v != "" {
		cfg.Token = v
	}
	if v := os.Getenv("PGANTT_POLL_INTERVAL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.PollInterval = time.Duration(n) * time.Second
		}
	}
	if v := os.Getenv("PGANTT_HTTP_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HTTPTimeout = time.Duration(n) * time.Millisecond
		}
	}
	if v := os.Getenv("PGANTT_INCLUDE_CLOSED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.IncludeClosed = b
		}
	}
	if v := os.Getenv("PGANTT_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("PGANTT_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("PGANTT_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv("PGANTT_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
}

// Validate checks the settings needed to talk to the planning server.
func (c Config) Validate() error {
	if c.ServerURL == "" {
		return ErrNoHost
	}
	u, err := url.Parse(c.ServerURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid server URL %q", c.ServerURL)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.PollInterval)
	}
	return nil
}
