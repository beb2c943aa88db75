package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/loykin/appsup/internal/service"
)

// Config is everything the CLI needs to build a supervisor. The two service
// definitions are fixed constants overridable from a TOML file; no dynamic
// service registration exists, so the file can tweak backend/frontend but
// never add a third service.
type Config struct {
	Services    []service.Definition
	LockPath    string
	LogLevel    string
	LogFile     string
	JournalPath string
	ServeAddr   string
}

// fileConfig mirrors the TOML layout.
type fileConfig struct {
	LockPath string         `mapstructure:"lock_path"`
	LogLevel string         `mapstructure:"log_level"`
	LogFile  string         `mapstructure:"log_file"`
	Journal  string         `mapstructure:"journal"`
	Serve    serveConfig    `mapstructure:"serve"`
	Backend  *serviceConfig `mapstructure:"backend"`
	Frontend *serviceConfig `mapstructure:"frontend"`
}

type serveConfig struct {
	Addr string `mapstructure:"addr"`
}

type serviceConfig struct {
	Command          string        `mapstructure:"command"`
	WorkDir          string        `mapstructure:"workdir"`
	Env              []string      `mapstructure:"env"`
	HealthURL        string        `mapstructure:"health_url"`
	ReadinessTimeout time.Duration `mapstructure:"readiness_timeout"`
	MatchPattern     string        `mapstructure:"match_pattern"`
	LogDir           string        `mapstructure:"log_dir"`
}

// Default returns the built-in configuration for the two known services.
func Default() Config {
	return Config{
		Services:    service.Defaults(),
		LogLevel:    "info",
		LogFile:     "logs/appsup.log",
		JournalPath: "logs/appsup-events.db",
		ServeAddr:   "127.0.0.1:8091",
	}
}

// Load returns the defaults overlaid with the TOML file at path, when given.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	var fc fileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if fc.LockPath != "" {
		cfg.LockPath = fc.LockPath
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}
	if fc.LogFile != "" {
		cfg.LogFile = fc.LogFile
	}
	if fc.Journal != "" {
		cfg.JournalPath = fc.Journal
	}
	if fc.Serve.Addr != "" {
		cfg.ServeAddr = fc.Serve.Addr
	}
	overlayService(&cfg, service.BackendName, fc.Backend)
	overlayService(&cfg, service.FrontendName, fc.Frontend)

	for _, def := range cfg.Services {
		if err := def.Validate(); err != nil {
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
	}
	return cfg, nil
}

func overlayService(cfg *Config, name string, sc *serviceConfig) {
	if sc == nil {
		return
	}
	for i := range cfg.Services {
		if cfg.Services[i].Name != name {
			continue
		}
		def := &cfg.Services[i]
		if sc.Command != "" {
			def.Command = sc.Command
		}
		if sc.WorkDir != "" {
			def.WorkDir = sc.WorkDir
		}
		if len(sc.Env) > 0 {
			def.Env = append([]string(nil), sc.Env...)
		}
		if sc.HealthURL != "" {
			def.HealthURL = sc.HealthURL
		}
		// non-zero includes negatives so Validate can reject them
		if sc.ReadinessTimeout != 0 {
			def.ReadinessTimeout = sc.ReadinessTimeout
		}
		if sc.MatchPattern != "" {
			def.MatchPattern = sc.MatchPattern
		}
		if sc.LogDir != "" {
			def.LogDir = sc.LogDir
		}
		return
	}
}
