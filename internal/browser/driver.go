package browser

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// ErrNoDriver is returned when no usable Chrome binary could be found.
var ErrNoDriver = errors.New("no chrome driver found")

// Candidates searched on PATH when the configured driver path is unusable.
var driverCandidates = []string{
	"google-chrome",
	"google-chrome-stable",
	"chromium",
	"chromium-browser",
	"chrome",
	"headless-shell",
}

// ResolveDriver returns the browser executable to launch. The configured
// path wins when it points at a regular file; otherwise PATH is searched.
func ResolveDriver(path string) (string, error) {
	return resolveDriver(path, exec.LookPath)
}

func resolveDriver(path string, lookPath func(string) (string, error)) (string, error) {
	tried := make([]string, 0, len(driverCandidates)+1)
	if path != "" {
		if fi, err := os.Stat(path); err == nil && !fi.IsDir() {
			return path, nil
		}
		tried = append(tried, path)
	}
	for _, name := range driverCandidates {
		if p, err := lookPath(name); err == nil {
			return p, nil
		}
		tried = append(tried, name)
	}
	return "", fmt.Errorf("%w (tried %s)", ErrNoDriver, strings.Join(tried, ", "))
}
