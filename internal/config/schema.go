package config

import "time"

// Config is the top-level stashctl configuration.
type Config struct {
	Site    SiteConfig    `mapstructure:"site" yaml:"site"`
	GitHub  GitHubConfig  `mapstructure:"github" yaml:"github"`
	Fetch   FetchConfig   `mapstructure:"fetch" yaml:"-"`   // written by SaveFile
	Refresh RefreshConfig `mapstructure:"refresh" yaml:"-"` // written by SaveFile
	Serve   ServeConfig   `mapstructure:"serve" yaml:"serve"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
}

// SiteConfig locates the static site the catalog lives in.
type SiteConfig struct {
	Root string `mapstructure:"root" yaml:"root"`
}

// GitHubConfig holds GitHub API connection settings.
type GitHubConfig struct {
	TokenEnv string `mapstructure:"token_env" yaml:"token_env"`
	APIBase  string `mapstructure:"api_base" yaml:"api_base"`
	Token    string `mapstructure:"-" yaml:"-"` // resolved at runtime, never written
}

// FetchConfig applies to every outbound page and image request.
type FetchConfig struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
}

// RefreshConfig tunes batch refresh of repository statistics.
type RefreshConfig struct {
	Delay        time.Duration `mapstructure:"delay"`
	MinRemaining int           `mapstructure:"min_remaining"`
	Schedule     string        `mapstructure:"schedule"` // cron spec, empty disables
}

// ServeConfig is the admin API listen address.
type ServeConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"` // text or json
	Output string `mapstructure:"output" yaml:"output"` // stderr, stdout or file
	Path   string `mapstructure:"path" yaml:"path"`     // directory for output=file
}

// Addr returns host:port.
func (s ServeConfig) Addr() string {
	host := s.Host
	if host == "" {
		host = "127.0.0.1"
	}
	port := s.Port
	if port == 0 {
		port = DefaultPort
	}
	return host + ":" + itoa(port)
}
