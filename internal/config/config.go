package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration required by the client gateway process.
// All values must come from env (or env-file loaded by the process runner).
// No session or navigation logic should depend on raw environment variables.
type Config struct {
	App      AppConfig
	Identity IdentityConfig
	Mirror   MirrorConfig
	Redis    RedisConfig
}

type AppConfig struct {
	Env  string
	Port int
}

// IdentityConfig points at the remote identity service the session store
// synchronizes with. The service itself is an external collaborator; only
// its base URL is configurable here.
type IdentityConfig struct {
	BaseURL string

	// RequestTimeout bounds a single identity call. Zero means no timeout,
	// matching the original client which accepted indefinite hangs.
	RequestTimeout time.Duration
}

// MirrorConfig selects the durable mirror backend.
// Accepts: file, redis, memory (memory does not survive restarts and is
// only useful for throwaway runs).
type MirrorConfig struct {
	Backend string
	File    string
}

type RedisConfig struct {
	Host string
	Port int
}

func Load() (Config, error) {
	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	{
		n, err := mustInt("APP_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.App.Port = n
	}

	c.Identity.BaseURL = strings.TrimSpace(os.Getenv("IDENTITY_URL"))
	c.Identity.RequestTimeout = mustDuration("IDENTITY_TIMEOUT")

	c.Mirror.Backend = strings.TrimSpace(os.Getenv("MIRROR_BACKEND"))
	c.Mirror.File = strings.TrimSpace(os.Getenv("MIRROR_FILE"))

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	if c.Mirror.Backend == "redis" {
		n, err := mustInt("REDIS_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Redis.Port = n
	}

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}

	if c.Identity.BaseURL == "" {
		errs = append(errs, errors.New("IDENTITY_URL is required"))
	} else if !strings.HasPrefix(c.Identity.BaseURL, "http://") && !strings.HasPrefix(c.Identity.BaseURL, "https://") {
		errs = append(errs, fmt.Errorf("IDENTITY_URL must be an http(s) URL, got %q", c.Identity.BaseURL))
	}

	switch c.Mirror.Backend {
	case "":
		if c.IsProduction() {
			errs = append(errs, errors.New("MIRROR_BACKEND is required in production"))
		} else {
			// Local-friendly default; production must be explicit.
			c.Mirror.Backend = "file"
		}
	case "file", "redis", "memory":
	default:
		errs = append(errs, fmt.Errorf("MIRROR_BACKEND must be one of file, redis, memory, got %q", c.Mirror.Backend))
	}

	if c.Mirror.Backend == "file" && c.Mirror.File == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("MIRROR_FILE is required when MIRROR_BACKEND=file in production"))
		} else {
			c.Mirror.File = "session-mirror.json"
		}
	}

	if c.Mirror.Backend == "redis" {
		if c.Redis.Host == "" {
			errs = append(errs, errors.New("REDIS_HOST is required when MIRROR_BACKEND=redis"))
		}
		if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
			errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
		}
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func mustInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func mustDuration(key string) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0
	}
	return d
}

func appendParseErr(errs []error, n int, err error) (int, []error) {
	if err != nil {
		errs = append(errs, err)
	}
	return n, errs
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
