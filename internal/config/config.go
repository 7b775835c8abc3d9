package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Defaults shared with flags and the init command.
const (
	DefaultSiteRoot     = "docs"
	DefaultAPIBase      = "https://api.github.com"
	DefaultTokenEnv     = "GITHUB_TOKEN"
	DefaultUserAgent    = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"
	DefaultTimeout      = 30 * time.Second
	DefaultRefreshDelay = 100 * time.Millisecond
	DefaultMinRemaining = 10
	DefaultPort         = 3001
)

// DefaultPath returns the default config file path.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "stashctl", "config.yml")
}

// Path returns $STASHCTL_CONFIG or DefaultPath.
func Path() string {
	if p := os.Getenv("STASHCTL_CONFIG"); p != "" {
		return p
	}
	return DefaultPath()
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Site:    SiteConfig{Root: DefaultSiteRoot},
		GitHub:  GitHubConfig{TokenEnv: DefaultTokenEnv, APIBase: DefaultAPIBase},
		Fetch:   FetchConfig{Timeout: DefaultTimeout, UserAgent: DefaultUserAgent},
		Refresh: RefreshConfig{Delay: DefaultRefreshDelay, MinRemaining: DefaultMinRemaining},
		Serve:   ServeConfig{Host: "127.0.0.1", Port: DefaultPort},
		Log:     LogConfig{Level: "info", Format: "text", Output: "stderr"},
	}
}

// Load reads the config from disk (or env). A missing file yields the
// defaults; the init command writes one.
func Load() (*Config, error) {
	return LoadFile(Path())
}

// LoadFile is Load with an explicit path.
func LoadFile(configPath string) (*Config, error) {
	v := viper.New()

	d := Default()
	v.SetDefault("site.root", d.Site.Root)
	v.SetDefault("github.api_base", d.GitHub.APIBase)
	v.SetDefault("github.token_env", d.GitHub.TokenEnv)
	v.SetDefault("fetch.timeout", d.Fetch.Timeout)
	v.SetDefault("fetch.user_agent", d.Fetch.UserAgent)
	v.SetDefault("refresh.delay", d.Refresh.Delay)
	v.SetDefault("refresh.min_remaining", d.Refresh.MinRemaining)
	v.SetDefault("refresh.schedule", "")
	v.SetDefault("serve.host", d.Serve.Host)
	v.SetDefault("serve.port", d.Serve.Port)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.output", d.Log.Output)
	v.SetDefault("log.path", "")

	v.SetEnvPrefix("STASHCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		// Not finding the config file is fine; the init command creates it.
		if !os.IsNotExist(err) {
			if _, isCfgNotFound := err.(viper.ConfigFileNotFoundError); !isCfgNotFound {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// Resolve token from env (never stored in file).
	tokenEnv := cfg.GitHub.TokenEnv
	if tokenEnv == "" {
		tokenEnv = DefaultTokenEnv
	}
	cfg.GitHub.Token = os.Getenv(tokenEnv)
	if cfg.GitHub.Token == "" {
		cfg.GitHub.Token = os.Getenv("STASHCTL_GITHUB_TOKEN")
	}

	cfg.Site.Root = ExpandHome(cfg.Site.Root)
	cfg.Log.Path = ExpandHome(cfg.Log.Path)

	return &cfg, nil
}

// fileConfig is the on-disk shape: durations are written as strings.
type fileConfig struct {
	Config  `yaml:",inline"`
	Fetch   fileFetch   `yaml:"fetch"`
	Refresh fileRefresh `yaml:"refresh"`
}

type fileFetch struct {
	Timeout   string `yaml:"timeout"`
	UserAgent string `yaml:"user_agent"`
}

type fileRefresh struct {
	Delay        string `yaml:"delay"`
	MinRemaining int    `yaml:"min_remaining"`
	Schedule     string `yaml:"schedule"`
}

// Save writes the config to Path().
func Save(cfg *Config) error {
	return SaveFile(Path(), cfg)
}

// SaveFile writes the config as YAML to path.
func SaveFile(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	out := fileConfig{
		Config: *cfg,
		Fetch:  fileFetch{Timeout: cfg.Fetch.Timeout.String(), UserAgent: cfg.Fetch.UserAgent},
		Refresh: fileRefresh{
			Delay:        cfg.Refresh.Delay.String(),
			MinRemaining: cfg.Refresh.MinRemaining,
			Schedule:     cfg.Refresh.Schedule,
		},
	}
	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	return enc.Encode(out)
}

// ExpandHome expands a leading ~/ in a path.
func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

func itoa(n int) string { return strconv.Itoa(n) }
