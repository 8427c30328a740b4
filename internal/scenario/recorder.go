package scenario

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/irtazafoods/homecheck/internal/config"
	"github.com/irtazafoods/homecheck/internal/wait"
)

type EventKind string

const (
	EventStart EventKind = "start"
	EventStep  EventKind = "step"
	EventNote  EventKind = "note"
	EventEnd   EventKind = "end"
)

// Event is emitted while a scenario runs, in order.
type Event struct {
	Kind     EventKind `json:"kind"`
	Index    int       `json:"index"`
	Scenario string    `json:"scenario"`
	Title    string    `json:"title,omitempty"`
	Step     *Step     `json:"step,omitempty"`
	Message  string    `json:"message,omitempty"`
	Result   *Result   `json:"result,omitempty"`
	Time     time.Time `json:"time"`
}

// AssertionError is a hard failure of a scenario's invariant.
type AssertionError struct {
	Msg string
}

func (e *AssertionError) Error() string { return e.Msg }

// Recorder carries the page and config into a scenario and collects the
// steps it reports.
type Recorder struct {
	Page   Page
	Config *config.RuntimeConfig

	result *Result
	emit   func(Event)
	mark   time.Time
}

func (r *Recorder) event(kind EventKind) Event {
	return Event{
		Kind:     kind,
		Index:    r.result.Index,
		Scenario: r.result.Name,
		Title:    r.result.Title,
		Time:     time.Now(),
	}
}

// Step records a step outcome. Detail is a console-style message.
func (r *Recorder) Step(name string, o Outcome, format string, args ...any) {
	now := time.Now()
	s := Step{
		Name:    name,
		Outcome: o,
		Detail:  fmt.Sprintf(format, args...),
		Elapsed: now.Sub(r.mark),
	}
	r.mark = now
	r.result.Steps = append(r.result.Steps, s)
	if r.emit != nil {
		ev := r.event(EventStep)
		ev.Step = &s
		r.emit(ev)
	}
}

// Note records an informational line that does not affect the verdict.
func (r *Recorder) Note(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	r.result.Notes = append(r.result.Notes, msg)
	if r.emit != nil {
		ev := r.event(EventNote)
		ev.Message = msg
		r.emit(ev)
	}
}

func (r *Recorder) Failf(format string, args ...any) error {
	return &AssertionError{Msg: fmt.Sprintf(format, args...)}
}

// Open navigates to path under the base URL, waits for the root content
// node and applies settle. A root-node timeout is returned as is so the
// scenario fails.
func (r *Recorder) Open(ctx context.Context, path string, settle time.Duration) error {
	url := r.Config.URL(path)
	if err := r.Page.Navigate(ctx, url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	if err := r.Page.WaitPresent(ctx, CSS("body"), r.Config.ReadyTimeout); err != nil {
		return fmt.Errorf("root content node: %w", err)
	}
	if loc, err := r.Page.Location(ctx); err == nil {
		r.Note("Navigated to: %s", loc)
	}
	return wait.Settle(ctx, settle)
}

// BodyHasText is the weakest assertion every fallback collapses to.
func (r *Recorder) BodyHasText(ctx context.Context) (string, bool) {
	text, err := r.Page.BodyText(ctx)
	if err != nil {
		r.Note("body text unavailable: %v", err)
		return "", false
	}
	return text, len(text) > 0
}

// VisibleWithin waits up to timeout for q and reports whether it is shown.
func (r *Recorder) VisibleWithin(ctx context.Context, q Query, timeout time.Duration) (bool, error) {
	if err := r.Page.WaitPresent(ctx, q, timeout); err != nil {
		return false, err
	}
	return r.Page.Visible(ctx, q)
}

// Execute runs s against page and returns its result. Panics inside the
// scenario are reported as failures.
func Execute(ctx context.Context, s Scenario, index int, page Page, cfg *config.RuntimeConfig, emit func(Event)) (res *Result) {
	start := time.Now()
	r := &Recorder{
		Page:   page,
		Config: cfg,
		emit:   emit,
		mark:   start,
		result: &Result{
			Index:   index,
			Name:    s.Name,
			Title:   s.Title,
			Started: start,
		},
	}
	if emit != nil {
		emit(r.event(EventStart))
	}

	defer func() {
		if p := recover(); p != nil {
			r.result.Notes = append(r.result.Notes, string(debug.Stack()))
			r.finish(fmt.Errorf("panic: %v", p), start)
		}
		res = r.result
		if emit != nil {
			ev := r.event(EventEnd)
			ev.Result = res
			emit(ev)
		}
	}()

	r.finish(s.Run(ctx, r), start)
	return r.result
}

func (r *Recorder) finish(err error, start time.Time) {
	r.result.Duration = time.Since(start)
	switch {
	case err != nil:
		r.result.Status = Fail
		r.result.Error = err.Error()
	case len(r.result.Degraded()) > 0:
		r.result.Status = SoftPass
	default:
		r.result.Status = Pass
	}
}

// IsAssertion reports whether err is a hard assertion failure rather than
// an infrastructure error.
func IsAssertion(err error) bool {
	var ae *AssertionError
	return errors.As(err, &ae)
}
