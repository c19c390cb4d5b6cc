package config

import (
	"net"
	"strconv"
	"time"

	"github.com/jonesrussell/north-cloud/bbs-poster/internal/bbs"
)

// Default configuration values.
const (
	defaultHTTPTimeout        = 30 * time.Second
	defaultPostSage           = true
	defaultPostConcurrency    = 4
	defaultResolveAttempts    = 1
	defaultResolveDelay       = 500 * time.Millisecond
	defaultResolveMaxDelay    = 5 * time.Second
	defaultServerHost         = "127.0.0.1"
	defaultServerPort         = 8095
	defaultServerReadTimeout  = 15 * time.Second
	defaultServerWriteTimeout = 60 * time.Second
	defaultLoggingLevel       = "info"
	defaultLoggingFormat      = "json"

	// DefaultPath is the config file looked for when none is given.
	DefaultPath = "config.yml"
)

// Config holds the application configuration.
type Config struct {
	Client  ClientConfig  `yaml:"client"`
	Post    PostConfig    `yaml:"post"`
	Resolve ResolveConfig `yaml:"resolve"`
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
}

// ClientConfig configures outbound requests to forum servers.
type ClientConfig struct {
	UserAgent string        `env:"BBS_USER_AGENT"   yaml:"user_agent"`
	Timeout   time.Duration `env:"BBS_HTTP_TIMEOUT" yaml:"timeout"`
}

// PostConfig holds defaults for outgoing replies.
type PostConfig struct {
	Name string `env:"BBS_POST_NAME" yaml:"name"`
	// Sage sends "sage" in the mail field so the thread is not bumped.
	Sage bool `env:"BBS_POST_SAGE" yaml:"sage"`
	// Concurrency bounds parallel posts when one message goes to many threads.
	Concurrency int `env:"BBS_POST_CONCURRENCY" yaml:"concurrency"`
}

// ResolveConfig controls retries of the read-only resolution step.
// Posting itself is never retried.
type ResolveConfig struct {
	MaxAttempts  int           `env:"BBS_RESOLVE_MAX_ATTEMPTS" yaml:"max_attempts"`
	InitialDelay time.Duration `yaml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay"`
}

// ServerConfig holds the local HTTP API configuration.
type ServerConfig struct {
	Host         string        `env:"BBS_SERVER_HOST" yaml:"host"`
	Port         int           `env:"BBS_SERVER_PORT" yaml:"port"`
	Debug        bool          `env:"APP_DEBUG"       yaml:"debug"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// Address returns host:port.
func (s *ServerConfig) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL"  yaml:"level"`
	Format string `env:"LOG_FORMAT" yaml:"format"`
}

// Load loads configuration from path. An empty path uses defaults and the
// environment only.
func Load(path string) (*Config, error) {
	return LoadWithDefaults[Config](path, setDefaults)
}

// Default returns a Config with every default applied and no environment
// overrides.
func Default() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	return cfg
}

func setDefaults(cfg *Config) {
	cfg.Client.UserAgent = bbs.UserAgent
	cfg.Client.Timeout = defaultHTTPTimeout

	cfg.Post.Sage = defaultPostSage
	cfg.Post.Concurrency = defaultPostConcurrency

	cfg.Resolve.MaxAttempts = defaultResolveAttempts
	cfg.Resolve.InitialDelay = defaultResolveDelay
	cfg.Resolve.MaxDelay = defaultResolveMaxDelay

	cfg.Server.Host = defaultServerHost
	cfg.Server.Port = defaultServerPort
	cfg.Server.ReadTimeout = defaultServerReadTimeout
	cfg.Server.WriteTimeout = defaultServerWriteTimeout

	cfg.Logging.Level = defaultLoggingLevel
	cfg.Logging.Format = defaultLoggingFormat
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := ValidateRequired("client.user_agent", c.Client.UserAgent); err != nil {
		return err
	}
	if c.Client.Timeout < 0 {
		return &ValidationError{Field: "client.timeout", Message: "must not be negative"}
	}
	if err := ValidatePositive("post.concurrency", c.Post.Concurrency); err != nil {
		return err
	}
	if err := ValidatePositive("resolve.max_attempts", c.Resolve.MaxAttempts); err != nil {
		return err
	}
	if err := ValidatePort("server.port", c.Server.Port); err != nil {
		return err
	}
	if err := ValidateLogLevel("logging.level", c.Logging.Level); err != nil {
		return err
	}
	return ValidateLogFormat("logging.format", c.Logging.Format)
}
