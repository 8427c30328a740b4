// Package scenario defines the homepage acceptance scenarios and the
// outcome model they report through.
package scenario

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/irtazafoods/homecheck/internal/dom"
)

// Outcome is the result of one scenario step.
type Outcome string

const (
	Matched         Outcome = "matched"
	FallbackMatched Outcome = "fallback-matched"
	NotFound        Outcome = "not-found"
)

// Status is the overall verdict of a scenario.
type Status string

const (
	Pass     Status = "pass"
	SoftPass Status = "soft-pass"
	Fail     Status = "fail"
)

// Query addresses elements either by CSS selector or by XPath.
type Query struct {
	Selector string `json:"selector"`
	XPath    bool   `json:"xpath,omitempty"`
}

func CSS(sel string) Query   { return Query{Selector: sel} }
func XPath(sel string) Query { return Query{Selector: sel, XPath: true} }

func (q Query) String() string {
	if q.XPath {
		return "xpath:" + q.Selector
	}
	return q.Selector
}

// Page is the browser surface scenarios drive. A zero timeout means the
// session's implicit lookup timeout.
type Page interface {
	Navigate(ctx context.Context, url string) error
	Location(ctx context.Context) (string, error)
	WaitPresent(ctx context.Context, q Query, timeout time.Duration) error
	Visible(ctx context.Context, q Query) (bool, error)
	BodyText(ctx context.Context) (string, error)
	Snapshot(ctx context.Context) (*dom.Snapshot, error)
	ClickLink(ctx context.Context, index int) error
	ScrollToBottom(ctx context.Context) error
	RemoveLocalStorage(ctx context.Context, key string) error
}

// Screenshotter is implemented by pages that can capture the viewport.
type Screenshotter interface {
	Screenshot(ctx context.Context) ([]byte, error)
}

type Step struct {
	Name    string        `json:"name" yaml:"name"`
	Outcome Outcome       `json:"outcome" yaml:"outcome"`
	Detail  string        `json:"detail,omitempty" yaml:"detail,omitempty"`
	Elapsed time.Duration `json:"elapsedNs" yaml:"elapsed"`
}

type Result struct {
	Index    int           `json:"index" yaml:"index"`
	Name     string        `json:"name" yaml:"name"`
	Title    string        `json:"title" yaml:"title"`
	Status   Status        `json:"status" yaml:"status"`
	Steps    []Step        `json:"steps" yaml:"steps"`
	Notes    []string      `json:"notes,omitempty" yaml:"notes,omitempty"`
	Error    string        `json:"error,omitempty" yaml:"error,omitempty"`
	Started  time.Time     `json:"started" yaml:"started"`
	Duration time.Duration `json:"durationNs" yaml:"duration"`

	// Screenshot is a PNG of the page when the scenario failed, if the
	// page could capture one.
	Screenshot []byte `json:"screenshot,omitempty" yaml:"-"`
}

// Degraded lists the steps that did not match on their primary path.
func (r *Result) Degraded() []Step {
	var out []Step
	for _, s := range r.Steps {
		if s.Outcome != Matched {
			out = append(out, s)
		}
	}
	return out
}

type Func func(ctx context.Context, r *Recorder) error

type Scenario struct {
	Name  string
	Title string
	// Optional scenarios are registered but left out of Defaults.
	Optional bool
	Run      Func
}

var (
	registry []Scenario
	mu       sync.RWMutex
)

// Register adds a scenario. Registration order is run order.
func Register(s Scenario) {
	mu.Lock()
	defer mu.Unlock()
	for i, existing := range registry {
		if existing.Name == s.Name {
			registry[i] = s
			return
		}
	}
	registry = append(registry, s)
}

func Lookup(name string) (Scenario, bool) {
	mu.RLock()
	defer mu.RUnlock()
	for _, s := range registry {
		if s.Name == name {
			return s, true
		}
	}
	return Scenario{}, false
}

// Names returns every registered scenario name in run order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for _, s := range registry {
		names = append(names, s.Name)
	}
	return names
}

// Defaults returns the non-optional scenarios in run order.
func Defaults() []Scenario {
	mu.RLock()
	defer mu.RUnlock()
	var out []Scenario
	for _, s := range registry {
		if !s.Optional {
			out = append(out, s)
		}
	}
	return out
}

// Select resolves names to scenarios, keeping registry order. No names
// selects Defaults.
func Select(names []string) ([]Scenario, error) {
	if len(names) == 0 {
		return Defaults(), nil
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		if _, ok := Lookup(n); !ok {
			return nil, fmt.Errorf("unknown scenario: %s (available: %v)", n, Names())
		}
		want[n] = true
	}
	mu.RLock()
	defer mu.RUnlock()
	var out []Scenario
	for _, s := range registry {
		if want[s.Name] {
			out = append(out, s)
		}
	}
	return out, nil
}
