package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestEnvOr(t *testing.T) {
	key := "HOMECHECK_TEST_ENV"
	fallback := "default"

	t.Setenv(key, "")
	if got := envOr(key, fallback); got != fallback {
		t.Errorf("envOr() = %v, want %v", got, fallback)
	}

	t.Setenv(key, "set")
	if got := envOr(key, fallback); got != "set" {
		t.Errorf("envOr() = %v, want %v", got, "set")
	}
}

func TestEnvBoolOr(t *testing.T) {
	key := "HOMECHECK_TEST_BOOL"
	fallback := true

	_ = os.Unsetenv(key)
	if got := envBoolOr(key, fallback); got != fallback {
		t.Errorf("envBoolOr() = %v, want %v", got, fallback)
	}

	tests := []struct {
		val  string
		want bool
	}{
		{"1", true}, {"true", true}, {"yes", true}, {"on", true},
		{"0", false}, {"false", false}, {"no", false}, {"off", false},
		{"garbage", true},
	}

	for _, tt := range tests {
		t.Setenv(key, tt.val)
		if got := envBoolOr(key, fallback); got != tt.want {
			t.Errorf("envBoolOr(%q) = %v, want %v", tt.val, got, tt.want)
		}
	}
}

func TestEnvSecondsOr(t *testing.T) {
	key := "HOMECHECK_TEST_SECONDS"
	t.Setenv(key, "2.5")
	if got := envSecondsOr(key, time.Second); got != 2500*time.Millisecond {
		t.Errorf("envSecondsOr() = %v, want 2.5s", got)
	}
	t.Setenv(key, "-1")
	if got := envSecondsOr(key, time.Second); got != time.Second {
		t.Errorf("envSecondsOr(-1) = %v, want fallback", got)
	}
}

func TestJoinURL(t *testing.T) {
	tests := []struct {
		base, path, want string
	}{
		{"http://localhost:5173", "/", "http://localhost:5173/"},
		{"http://localhost:5173/", "/menu", "http://localhost:5173/menu"},
		{"http://localhost:5173", "menu", "http://localhost:5173/menu"},
		{"", "api/menu", "/api/menu"},
		{"", "/api/menu", "/api/menu"},
	}
	for _, tt := range tests {
		if got := JoinURL(tt.base, tt.path); got != tt.want {
			t.Errorf("JoinURL(%q, %q) = %q, want %q", tt.base, tt.path, got, tt.want)
		}
	}
}

func TestParseWindow(t *testing.T) {
	w, h, err := ParseWindow("1366x768")
	if err != nil || w != 1366 || h != 768 {
		t.Errorf("ParseWindow = %d,%d,%v", w, h, err)
	}
	for _, bad := range []string{"", "1366", "0x768", "ax768", "1366xb"} {
		if _, _, err := ParseWindow(bad); err == nil {
			t.Errorf("ParseWindow(%q) expected error", bad)
		}
	}
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"HOMECHECK_BASE_URL", "HOMECHECK_DRIVER", "CDP_URL", "HOMECHECK_HEADLESS",
		"HOMECHECK_WINDOW", "HOMECHECK_IMPLICIT_WAIT", "HOMECHECK_READY_TIMEOUT",
		"HOMECHECK_SETTLE", "HOMECHECK_DATA_SETTLE", "HOMECHECK_IMAGE_SETTLE",
		"HOMECHECK_REPORT", "HOMECHECK_REPORT_FORMAT", "HOMECHECK_LIVE_ADDR",
		"HOMECHECK_SCENARIOS",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOMECHECK_CONFIG", filepath.Join(t.TempDir(), "missing.json"))

	cfg := Load()
	if cfg.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.DriverPath != DefaultDriverPath {
		t.Errorf("DriverPath = %q", cfg.DriverPath)
	}
	if !cfg.Headless {
		t.Error("expected headless by default")
	}
	if cfg.WindowWidth != 1920 || cfg.WindowHeight != 1080 {
		t.Errorf("window = %dx%d", cfg.WindowWidth, cfg.WindowHeight)
	}
	if cfg.ImplicitWait != 10*time.Second || cfg.ReadyTimeout != 15*time.Second {
		t.Errorf("waits = %v/%v", cfg.ImplicitWait, cfg.ReadyTimeout)
	}
	if cfg.Settle != 3*time.Second || cfg.DataSettle != 5*time.Second {
		t.Errorf("settle = %v/%v", cfg.Settle, cfg.DataSettle)
	}
	if len(cfg.Scenarios) != 0 {
		t.Errorf("scenarios = %v", cfg.Scenarios)
	}
}

func TestLoadEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOMECHECK_CONFIG", filepath.Join(t.TempDir(), "missing.json"))
	t.Setenv("HOMECHECK_BASE_URL", "http://staging:8080")
	t.Setenv("HOMECHECK_WINDOW", "1280x720")
	t.Setenv("HOMECHECK_SCENARIOS", "homepage-loads, homepage-images,")

	cfg := Load()
	if cfg.BaseURL != "http://staging:8080" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.WindowWidth != 1280 || cfg.WindowHeight != 720 {
		t.Errorf("window = %dx%d", cfg.WindowWidth, cfg.WindowHeight)
	}
	if len(cfg.Scenarios) != 2 || cfg.Scenarios[1] != "homepage-images" {
		t.Errorf("scenarios = %v", cfg.Scenarios)
	}
	if got := cfg.URL("/menu"); got != "http://staging:8080/menu" {
		t.Errorf("URL = %q", got)
	}
}

func TestLoadFileEnvWins(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	headless := false
	fc := FileConfig{
		BaseURL:    "http://from-file:5173",
		DriverPath: "/opt/chrome/chrome",
		Headless:   &headless,
		SettleSec:  1.5,
		Scenarios:  []string{"homepage-footer"},
	}
	data, _ := json.Marshal(fc)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HOMECHECK_CONFIG", path)
	t.Setenv("HOMECHECK_DRIVER", "/usr/bin/chromium")

	cfg := Load()
	if cfg.BaseURL != "http://from-file:5173" {
		t.Errorf("BaseURL = %q, want file value", cfg.BaseURL)
	}
	if cfg.DriverPath != "/usr/bin/chromium" {
		t.Errorf("DriverPath = %q, want env value", cfg.DriverPath)
	}
	if cfg.Headless {
		t.Error("expected headless=false from file")
	}
	if cfg.Settle != 1500*time.Millisecond {
		t.Errorf("Settle = %v", cfg.Settle)
	}
	if len(cfg.Scenarios) != 1 || cfg.Scenarios[0] != "homepage-footer" {
		t.Errorf("Scenarios = %v", cfg.Scenarios)
	}
}

func TestInitFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	if err := InitFile(path, false); err != nil {
		t.Fatalf("InitFile: %v", err)
	}
	if err := InitFile(path, false); err == nil {
		t.Error("expected error when file exists")
	}
	if err := InitFile(path, true); err != nil {
		t.Errorf("overwrite: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var fc FileConfig
	if err := json.Unmarshal(data, &fc); err != nil {
		t.Fatalf("written config is not json: %v", err)
	}
	if fc.BaseURL != DefaultBaseURL || fc.Headless == nil || !*fc.Headless {
		t.Errorf("unexpected defaults: %+v", fc)
	}
}

func TestShow(t *testing.T) {
	cfg := &RuntimeConfig{BaseURL: DefaultBaseURL, DriverPath: "drivers/chrome", CdpURL: "ws://127.0.0.1:9222"}
	var buf bytes.Buffer
	Show(&buf, cfg)
	out := buf.String()
	for _, want := range []string{DefaultBaseURL, "(remote) ws://127.0.0.1:9222", "Report:     (none)", "(default)"} {
		if !strings.Contains(out, want) {
			t.Errorf("Show output missing %q:\n%s", want, out)
		}
	}
}
