// Package suite runs scenarios in order against one browser session and
// collects their results into a Report.
package suite

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/irtazafoods/homecheck/internal/config"
	"github.com/irtazafoods/homecheck/internal/scenario"
)

// Session is a page that must be released when the suite is done with it.
type Session interface {
	scenario.Page
	Close() error
}

// Observer receives scenario events as they happen and the final report.
type Observer interface {
	Event(ev scenario.Event)
	Done(rep *Report)
}

type Report struct {
	BaseURL     string             `json:"baseUrl" yaml:"baseUrl"`
	Started     time.Time          `json:"started" yaml:"started"`
	Finished    time.Time          `json:"finished" yaml:"finished"`
	Results     []*scenario.Result `json:"results" yaml:"results"`
	Passed      int                `json:"passed" yaml:"passed"`
	SoftPassed  int                `json:"softPassed" yaml:"softPassed"`
	FailedCount int                `json:"failed" yaml:"failed"`
}

// Failed reports whether any scenario failed.
func (r *Report) Failed() bool {
	return r.FailedCount > 0
}

// Add appends res and updates the summary counts.
func (r *Report) Add(res *scenario.Result) {
	r.Results = append(r.Results, res)
	switch res.Status {
	case scenario.Pass:
		r.Passed++
	case scenario.SoftPass:
		r.SoftPassed++
	default:
		r.FailedCount++
	}
}

type Runner struct {
	Page      scenario.Page
	Config    *config.RuntimeConfig
	Scenarios []scenario.Scenario
	Observers []Observer
}

func (r *Runner) emit(ev scenario.Event) {
	for _, o := range r.Observers {
		o.Event(ev)
	}
}

// Run executes every scenario sequentially. A failing scenario does not stop
// the run; a cancelled ctx marks the remaining scenarios as failed without
// running them.
func (r *Runner) Run(ctx context.Context) *Report {
	rep := &Report{BaseURL: r.Config.BaseURL, Started: time.Now()}

	for i, s := range r.Scenarios {
		index := i + 1
		if err := ctx.Err(); err != nil {
			rep.Add(&scenario.Result{
				Index:   index,
				Name:    s.Name,
				Title:   s.Title,
				Status:  scenario.Fail,
				Error:   fmt.Sprintf("not run: %v", err),
				Started: time.Now(),
			})
			continue
		}

		res := scenario.Execute(ctx, s, index, r.Page, r.Config, r.emit)
		if res.Status == scenario.Fail {
			r.capture(ctx, res)
		}
		slog.Info("scenario finished",
			"name", res.Name,
			"status", res.Status,
			"ms", res.Duration.Milliseconds(),
		)
		rep.Add(res)
	}

	rep.Finished = time.Now()
	for _, o := range r.Observers {
		o.Done(rep)
	}
	return rep
}

func (r *Runner) capture(ctx context.Context, res *scenario.Result) {
	shooter, ok := r.Page.(scenario.Screenshotter)
	if !ok || ctx.Err() != nil {
		return
	}
	png, err := shooter.Screenshot(ctx)
	if err != nil {
		slog.Debug("failure screenshot unavailable", "scenario", res.Name, "err", err)
		return
	}
	res.Screenshot = png
}

// WithSession opens a session, runs fn with it and releases it exactly once,
// including when fn panics (the panic continues after release).
func WithSession(ctx context.Context, open func(context.Context) (Session, error), fn func(context.Context, Session) error) (err error) {
	s, err := open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil {
			slog.Warn("session release failed", "err", cerr)
			if err == nil {
				err = fmt.Errorf("release session: %w", cerr)
			}
		}
	}()
	return fn(ctx, s)
}
