// Package assets embeds the browser-side script and the report template.
package assets

import (
	_ "embed"
)

// StealthScript runs before any page script on every new document.
//
//go:embed stealth.js
var StealthScript string

//go:embed report.html.tmpl
var ReportTemplate string
