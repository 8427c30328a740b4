package browser

import (
	"runtime"
	"strings"

	"github.com/chromedp/cdproto/emulation"
)

// userAgentOverride replaces the headless user agent, including the client
// hints sent with it. It returns nil when ua is empty.
func userAgentOverride(ua string) *emulation.SetUserAgentOverrideParams {
	if ua == "" {
		return nil
	}
	major := chromeMajor(ua)
	return emulation.SetUserAgentOverride(ua).
		WithAcceptLanguage("en-US,en").
		WithPlatform(navigatorPlatform()).
		WithUserAgentMetadata(&emulation.UserAgentMetadata{
			Platform:     hintPlatform(),
			Architecture: hintArch(),
			Bitness:      "64",
			Brands: []*emulation.UserAgentBrandVersion{
				{Brand: "Not(A:Brand", Version: "99"},
				{Brand: "Google Chrome", Version: major},
				{Brand: "Chromium", Version: major},
			},
		})
}

// chromeMajor extracts the major version from "... Chrome/131.0.0.0 ...".
func chromeMajor(ua string) string {
	_, rest, ok := strings.Cut(ua, "Chrome/")
	if !ok {
		return "99"
	}
	major, _, _ := strings.Cut(rest, ".")
	if major == "" {
		return "99"
	}
	return major
}

func navigatorPlatform() string {
	switch runtime.GOOS {
	case "darwin":
		return "MacIntel"
	case "windows":
		return "Win32"
	default:
		return "Linux x86_64"
	}
}

func hintPlatform() string {
	switch runtime.GOOS {
	case "darwin":
		return "macOS"
	case "windows":
		return "Windows"
	default:
		return "Linux"
	}
}

func hintArch() string {
	if runtime.GOARCH == "arm64" {
		return "arm"
	}
	return "x86"
}
