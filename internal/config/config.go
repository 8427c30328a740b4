package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultBaseURL    = "http://localhost:5173"
	DefaultDriverPath = "drivers/chrome"
)

type RuntimeConfig struct {
	BaseURL      string
	DriverPath   string
	CdpURL       string
	Headless     bool
	WindowWidth  int
	WindowHeight int
	UserAgent    string
	ConfigPath   string

	ImplicitWait    time.Duration
	ReadyTimeout    time.Duration
	LookupTimeout   time.Duration
	StartTimeout    time.Duration
	NavigateTimeout time.Duration
	Settle          time.Duration
	NavSettle       time.Duration
	DataSettle      time.Duration
	ImageSettle     time.Duration

	ReportPath   string
	ReportFormat string
	LiveAddr     string
	Scenarios    []string
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

// envSecondsOr reads a duration given in (possibly fractional) seconds.
func envSecondsOr(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return fallback
	}
	return time.Duration(f * float64(time.Second))
}

func homeDir() string {
	h, _ := os.UserHomeDir()
	return h
}

// ParseWindow parses "WIDTHxHEIGHT".
func ParseWindow(s string) (int, int, error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return 0, 0, fmt.Errorf("window size %q: want WIDTHxHEIGHT", s)
	}
	width, err := strconv.Atoi(w)
	if err != nil || width <= 0 {
		return 0, 0, fmt.Errorf("window width %q invalid", w)
	}
	height, err := strconv.Atoi(h)
	if err != nil || height <= 0 {
		return 0, 0, fmt.Errorf("window height %q invalid", h)
	}
	return width, height, nil
}

// JoinURL joins a base origin and a path so that exactly one slash separates
// them. An empty base yields the cleaned path.
func JoinURL(base, path string) string {
	base = strings.TrimSuffix(base, "/")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if base == "" {
		return path
	}
	return base + path
}

// URL resolves path against the configured base origin.
func (c *RuntimeConfig) URL(path string) string {
	return JoinURL(c.BaseURL, path)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

type FileConfig struct {
	BaseURL      string   `json:"baseUrl"`
	DriverPath   string   `json:"driverPath"`
	CdpURL       string   `json:"cdpUrl,omitempty"`
	Headless     *bool    `json:"headless,omitempty"`
	Window       string   `json:"window,omitempty"`
	UserAgent    string   `json:"userAgent,omitempty"`
	ImplicitSec  float64  `json:"implicitSec,omitempty"`
	ReadySec     float64  `json:"readySec,omitempty"`
	SettleSec    float64  `json:"settleSec,omitempty"`
	DataSec      float64  `json:"dataSettleSec,omitempty"`
	ReportPath   string   `json:"report,omitempty"`
	ReportFormat string   `json:"reportFormat,omitempty"`
	LiveAddr     string   `json:"liveAddr,omitempty"`
	Scenarios    []string `json:"scenarios,omitempty"`
}

func DefaultConfigPath() string {
	return filepath.Join(homeDir(), ".homecheck", "config.json")
}

func Load() *RuntimeConfig {
	cfg := &RuntimeConfig{
		BaseURL:         envOr("HOMECHECK_BASE_URL", DefaultBaseURL),
		DriverPath:      envOr("HOMECHECK_DRIVER", DefaultDriverPath),
		CdpURL:          os.Getenv("CDP_URL"),
		Headless:        envBoolOr("HOMECHECK_HEADLESS", true),
		WindowWidth:     1920,
		WindowHeight:    1080,
		UserAgent:       os.Getenv("HOMECHECK_USER_AGENT"),
		ConfigPath:      envOr("HOMECHECK_CONFIG", DefaultConfigPath()),
		ImplicitWait:    envSecondsOr("HOMECHECK_IMPLICIT_WAIT", 10*time.Second),
		ReadyTimeout:    envSecondsOr("HOMECHECK_READY_TIMEOUT", 15*time.Second),
		LookupTimeout:   10 * time.Second,
		StartTimeout:    15 * time.Second,
		NavigateTimeout: 30 * time.Second,
		Settle:          envSecondsOr("HOMECHECK_SETTLE", 3*time.Second),
		NavSettle:       2 * time.Second,
		DataSettle:      envSecondsOr("HOMECHECK_DATA_SETTLE", 5*time.Second),
		ImageSettle:     envSecondsOr("HOMECHECK_IMAGE_SETTLE", 5*time.Second),
		ReportPath:      os.Getenv("HOMECHECK_REPORT"),
		ReportFormat:    os.Getenv("HOMECHECK_REPORT_FORMAT"),
		LiveAddr:        os.Getenv("HOMECHECK_LIVE_ADDR"),
		Scenarios:       splitList(os.Getenv("HOMECHECK_SCENARIOS")),
	}
	if w, h, err := ParseWindow(os.Getenv("HOMECHECK_WINDOW")); err == nil {
		cfg.WindowWidth, cfg.WindowHeight = w, h
	}

	data, err := os.ReadFile(cfg.ConfigPath)
	if err != nil {
		return cfg
	}

	var fc FileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		return cfg
	}
	cfg.apply(fc)
	return cfg
}

// apply overlays file values that have no env override.
func (c *RuntimeConfig) apply(fc FileConfig) {
	if fc.BaseURL != "" && os.Getenv("HOMECHECK_BASE_URL") == "" {
		c.BaseURL = fc.BaseURL
	}
	if fc.DriverPath != "" && os.Getenv("HOMECHECK_DRIVER") == "" {
		c.DriverPath = fc.DriverPath
	}
	if fc.CdpURL != "" && os.Getenv("CDP_URL") == "" {
		c.CdpURL = fc.CdpURL
	}
	if fc.Headless != nil && os.Getenv("HOMECHECK_HEADLESS") == "" {
		c.Headless = *fc.Headless
	}
	if fc.Window != "" && os.Getenv("HOMECHECK_WINDOW") == "" {
		if w, h, err := ParseWindow(fc.Window); err == nil {
			c.WindowWidth, c.WindowHeight = w, h
		}
	}
	if fc.UserAgent != "" && os.Getenv("HOMECHECK_USER_AGENT") == "" {
		c.UserAgent = fc.UserAgent
	}
	if fc.ImplicitSec > 0 && os.Getenv("HOMECHECK_IMPLICIT_WAIT") == "" {
		c.ImplicitWait = time.Duration(fc.ImplicitSec * float64(time.Second))
	}
	if fc.ReadySec > 0 && os.Getenv("HOMECHECK_READY_TIMEOUT") == "" {
		c.ReadyTimeout = time.Duration(fc.ReadySec * float64(time.Second))
	}
	if fc.SettleSec > 0 && os.Getenv("HOMECHECK_SETTLE") == "" {
		c.Settle = time.Duration(fc.SettleSec * float64(time.Second))
	}
	if fc.DataSec > 0 && os.Getenv("HOMECHECK_DATA_SETTLE") == "" {
		c.DataSettle = time.Duration(fc.DataSec * float64(time.Second))
	}
	if fc.ReportPath != "" && os.Getenv("HOMECHECK_REPORT") == "" {
		c.ReportPath = fc.ReportPath
	}
	if fc.ReportFormat != "" && os.Getenv("HOMECHECK_REPORT_FORMAT") == "" {
		c.ReportFormat = fc.ReportFormat
	}
	if fc.LiveAddr != "" && os.Getenv("HOMECHECK_LIVE_ADDR") == "" {
		c.LiveAddr = fc.LiveAddr
	}
	if len(fc.Scenarios) > 0 && os.Getenv("HOMECHECK_SCENARIOS") == "" {
		c.Scenarios = fc.Scenarios
	}
}

func DefaultFileConfig() FileConfig {
	h := true
	return FileConfig{
		BaseURL:     DefaultBaseURL,
		DriverPath:  DefaultDriverPath,
		Headless:    &h,
		Window:      "1920x1080",
		ImplicitSec: 10,
		ReadySec:    15,
		SettleSec:   3,
		DataSec:     5,
	}
}

// InitFile writes the default config to path. An existing file is kept
// unless overwrite is set.
func InitFile(path string, overwrite bool) error {
	if _, err := os.Stat(path); err == nil && !overwrite {
		return fmt.Errorf("config file already exists at %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := json.MarshalIndent(DefaultFileConfig(), "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func Show(w io.Writer, cfg *RuntimeConfig) {
	driver := cfg.DriverPath
	if cfg.CdpURL != "" {
		driver = "(remote) " + cfg.CdpURL
	}
	scenarios := "(default)"
	if len(cfg.Scenarios) > 0 {
		scenarios = strings.Join(cfg.Scenarios, ",")
	}
	_, _ = fmt.Fprintln(w, "Current configuration:")
	_, _ = fmt.Fprintf(w, "  Base URL:   %s\n", cfg.BaseURL)
	_, _ = fmt.Fprintf(w, "  Driver:     %s\n", driver)
	_, _ = fmt.Fprintf(w, "  Headless:   %v\n", cfg.Headless)
	_, _ = fmt.Fprintf(w, "  Window:     %dx%d\n", cfg.WindowWidth, cfg.WindowHeight)
	_, _ = fmt.Fprintf(w, "  Waits:      implicit=%v ready=%v lookup=%v\n", cfg.ImplicitWait, cfg.ReadyTimeout, cfg.LookupTimeout)
	_, _ = fmt.Fprintf(w, "  Settle:     page=%v nav=%v data=%v images=%v\n", cfg.Settle, cfg.NavSettle, cfg.DataSettle, cfg.ImageSettle)
	_, _ = fmt.Fprintf(w, "  Report:     %s\n", orNone(cfg.ReportPath))
	_, _ = fmt.Fprintf(w, "  Live:       %s\n", orNone(cfg.LiveAddr))
	_, _ = fmt.Fprintf(w, "  Scenarios:  %s\n", scenarios)
	_, _ = fmt.Fprintf(w, "  Config:     %s\n", cfg.ConfigPath)
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
