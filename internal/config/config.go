package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// PaperSize is a paper format in inches.
type PaperSize struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// Config is the complete service configuration. It is built once at startup
// and handed to the server; nothing reads it through package globals.
type Config struct {
	Server struct {
		Host        string `yaml:"host"`
		Port        string `yaml:"port"`
		Prefork     bool   `yaml:"prefork"`
		BodyLimitMB int    `yaml:"body_limit_mb"`
		Domain      string `yaml:"domain"`
		TLS         struct {
			Enabled      bool   `yaml:"enabled"`
			HTTPSPort    string `yaml:"https_port"`
			CertFile     string `yaml:"cert_file"`
			KeyFile      string `yaml:"key_file"`
			RedirectHTTP bool   `yaml:"redirect_http"`
		} `yaml:"tls"`
	} `yaml:"server"`

	Logger struct {
		File       string `yaml:"file"`
		Level      string `yaml:"level"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
		Compress   bool   `yaml:"compress"`
	} `yaml:"logger"`

	RateLimiter struct {
		Enabled   bool          `yaml:"enabled"`
		Max       int           `yaml:"max"`
		Interval  time.Duration `yaml:"interval"`
		RedisHost string        `yaml:"redis_host"`
		RedisDB   int           `yaml:"redis_db"`
	} `yaml:"rate_limiter"`

	PDF struct {
		DefaultPaper         string               `yaml:"default_paper"`
		PaperSizes           map[string]PaperSize `yaml:"paper_sizes"`
		TimeoutSecs          int                  `yaml:"timeout_secs"`
		ChromePath           string               `yaml:"chrome_path"`
		ChromeNoSandbox      bool                 `yaml:"chrome_no_sandbox"`
		ChromePoolSize       int                  `yaml:"chrome_pool_size"`
		MaxConcurrentRenders int                  `yaml:"max_concurrent_renders"`
		UserDataDir          string               `yaml:"user_data_dir"`
		DownloadFilename     string               `yaml:"download_filename"`
	} `yaml:"pdf"`

	Workspace struct {
		BaseDir string `yaml:"base_dir"`
		Prefix  string `yaml:"prefix"`
	} `yaml:"workspace"`
}

// DefaultPaperSizes mirrors the formats Chromium's print dialog knows about.
func DefaultPaperSizes() map[string]PaperSize {
	return map[string]PaperSize{
		"LETTER":  {Width: 8.5, Height: 11},
		"LEGAL":   {Width: 8.5, Height: 14},
		"TABLOID": {Width: 11, Height: 17},
		"LEDGER":  {Width: 17, Height: 11},
		"A0":      {Width: 33.1, Height: 46.8},
		"A1":      {Width: 23.4, Height: 33.1},
		"A2":      {Width: 16.54, Height: 23.4},
		"A3":      {Width: 11.7, Height: 16.54},
		"A4":      {Width: 8.27, Height: 11.7},
		"A5":      {Width: 5.83, Height: 8.27},
		"A6":      {Width: 4.13, Height: 5.83},
	}
}

// Default returns a configuration usable without any YAML file.
func Default() Config {
	var cfg Config
	cfg.Server.Port = ":4000"
	cfg.Server.BodyLimitMB = 50
	cfg.Server.Domain = "localhost"
	cfg.Server.TLS.HTTPSPort = ":3443"
	cfg.Server.TLS.RedirectHTTP = true

	cfg.Logger.Level = "info"
	cfg.Logger.MaxSizeMB = 10
	cfg.Logger.MaxBackups = 3
	cfg.Logger.MaxAgeDays = 7

	cfg.RateLimiter.Max = 60
	cfg.RateLimiter.Interval = time.Minute

	cfg.PDF.DefaultPaper = "A4"
	cfg.PDF.PaperSizes = DefaultPaperSizes()
	cfg.PDF.TimeoutSecs = 60
	cfg.PDF.ChromeNoSandbox = true
	cfg.PDF.MaxConcurrentRenders = 4
	cfg.PDF.DownloadFilename = "resume.pdf"

	cfg.Workspace.Prefix = "resume-"
	return cfg
}

// Load reads the file named by CONFIG_PATH (config.yaml when unset).
func Load() Config {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	return LoadFrom(path)
}

// LoadFrom reads the YAML file at path on top of Default, applies environment
// overrides and panics if the result is invalid. A missing file is not an error.
func LoadFrom(path string) Config {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			panic(fmt.Sprintf("config: parse %s: %v", path, err))
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		panic(fmt.Sprintf("config: read %s: %v", path, err))
	}

	cfg.applyEnv()
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return cfg
}

// applyEnv lets the deployment environment override file settings.
func (cfg *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = portAddr(v)
	}
	if v := os.Getenv("HTTPS_PORT"); v != "" {
		cfg.Server.TLS.HTTPSPort = portAddr(v)
	}
	if v := os.Getenv("DOMAIN"); v != "" {
		cfg.Server.Domain = v
	}
	if v := os.Getenv("SSL_CERTIFICATE"); v != "" {
		cfg.Server.TLS.CertFile = v
	}
	if v := os.Getenv("SSL_PRIVATE_KEY"); v != "" {
		cfg.Server.TLS.KeyFile = v
	}
	if os.Getenv("APP_ENV") == "production" || os.Getenv("NODE_ENV") == "production" {
		cfg.Server.TLS.Enabled = true
	}
	// Allow common container env var to override chrome_path.
	if cfg.PDF.ChromePath == "" {
		if v := os.Getenv("CHROME_BIN"); v != "" {
			cfg.PDF.ChromePath = v
		}
	}
}

func (cfg *Config) normalize() {
	if len(cfg.PDF.PaperSizes) == 0 {
		cfg.PDF.PaperSizes = DefaultPaperSizes()
	}
	sizes := make(map[string]PaperSize, len(cfg.PDF.PaperSizes))
	for name, size := range cfg.PDF.PaperSizes {
		sizes[strings.ToUpper(name)] = size
	}
	cfg.PDF.PaperSizes = sizes
	cfg.PDF.DefaultPaper = strings.ToUpper(cfg.PDF.DefaultPaper)
}

// Validate reports the first invalid setting.
func (cfg Config) Validate() error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is empty")
	}
	if cfg.Server.BodyLimitMB <= 0 {
		return errors.New("server.body_limit_mb must be positive")
	}
	if cfg.Server.TLS.Enabled && (cfg.Server.TLS.CertFile == "" || cfg.Server.TLS.KeyFile == "") {
		return errors.New("server.tls requires cert_file and key_file")
	}
	if cfg.RateLimiter.Enabled && (cfg.RateLimiter.Max <= 0 || cfg.RateLimiter.Interval <= 0) {
		return errors.New("rate_limiter.max and rate_limiter.interval must be positive")
	}
	if cfg.PDF.TimeoutSecs <= 0 {
		return errors.New("pdf.timeout_secs must be positive")
	}
	if cfg.PDF.ChromePoolSize < 0 {
		return errors.New("pdf.chrome_pool_size must not be negative")
	}
	if cfg.PDF.MaxConcurrentRenders <= 0 {
		return errors.New("pdf.max_concurrent_renders must be positive")
	}
	if _, ok := cfg.PDF.PaperSizes[strings.ToUpper(cfg.PDF.DefaultPaper)]; !ok {
		return fmt.Errorf("pdf.default_paper %q is not in pdf.paper_sizes", cfg.PDF.DefaultPaper)
	}
	if cfg.PDF.DownloadFilename == "" {
		return errors.New("pdf.download_filename is empty")
	}
	return nil
}

// RenderTimeout is the upper bound for a single render.
func (cfg Config) RenderTimeout() time.Duration {
	return time.Duration(cfg.PDF.TimeoutSecs) * time.Second
}

func portAddr(v string) string {
	if strings.HasPrefix(v, ":") {
		return v
	}
	return ":" + v
}
