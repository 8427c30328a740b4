// Package report renders suite results for people (console, HTML) and for
// machines (JSON, YAML).
package report

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/irtazafoods/homecheck/internal/assets"
	"github.com/irtazafoods/homecheck/internal/suite"
)

const (
	FormatHTML = "html"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"duration": func(from, to time.Time) string {
		return to.Sub(from).Round(time.Millisecond).String()
	},
	"pngURI": func(b []byte) template.URL {
		return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(b))
	},
}).Parse(assets.ReportTemplate))

// WriteHTML renders a self-contained HTML page.
func WriteHTML(w io.Writer, rep *suite.Report) error {
	return htmlTemplate.Execute(w, rep)
}

func WriteJSON(w io.Writer, rep *suite.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}

func WriteYAML(w io.Writer, rep *suite.Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(rep); err != nil {
		return err
	}
	return enc.Close()
}

// FormatFor resolves the output format. An explicit format wins; otherwise
// the path's extension decides, defaulting to HTML.
func FormatFor(path, format string) (string, error) {
	f := strings.ToLower(strings.TrimSpace(format))
	if f == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".json":
			f = FormatJSON
		case ".yaml", ".yml":
			f = FormatYAML
		default:
			f = FormatHTML
		}
	}
	switch f {
	case FormatHTML, FormatJSON:
		return f, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown report format %q (want html, json or yaml)", format)
}

func Write(w io.Writer, format string, rep *suite.Report) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, rep)
	case FormatYAML:
		return WriteYAML(w, rep)
	default:
		return WriteHTML(w, rep)
	}
}

// Save writes rep to path, creating parent directories.
func Save(path, format string, rep *suite.Report) error {
	f, err := FormatFor(path, format)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create report dir: %w", err)
		}
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := Write(out, f, rep); err != nil {
		_ = out.Close()
		return fmt.Errorf("write %s report: %w", f, err)
	}
	return out.Close()
}
