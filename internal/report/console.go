package report

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/irtazafoods/homecheck/internal/scenario"
	"github.com/irtazafoods/homecheck/internal/suite"
)

// Console prints human progress lines to Out and mirrors every event to
// the structured log at debug level.
type Console struct {
	Out io.Writer
}

var _ suite.Observer = (*Console)(nil)

func stepMark(o scenario.Outcome) string {
	switch o {
	case scenario.Matched:
		return "[OK]"
	case scenario.FallbackMatched:
		return "[OK*]"
	default:
		return "[--]"
	}
}

func (c *Console) Event(ev scenario.Event) {
	switch ev.Kind {
	case scenario.EventStart:
		fmt.Fprintf(c.Out, "\n=== Test %d: %s ===\n", ev.Index, ev.Title)
		slog.Debug("scenario start", "index", ev.Index, "name", ev.Scenario)
	case scenario.EventStep:
		fmt.Fprintf(c.Out, "%s %s\n", stepMark(ev.Step.Outcome), ev.Step.Detail)
		slog.Debug("step", "scenario", ev.Scenario, "step", ev.Step.Name, "outcome", ev.Step.Outcome)
	case scenario.EventNote:
		fmt.Fprintf(c.Out, "Note: %s\n", ev.Message)
	case scenario.EventEnd:
		res := ev.Result
		if res.Status == scenario.Fail {
			fmt.Fprintf(c.Out, "[FAIL] %s: %s\n", res.Name, res.Error)
			return
		}
		fmt.Fprintf(c.Out, "[%s] %s (%s)\n", statusLabel(res.Status), res.Name, res.Duration.Round(time.Millisecond))
	}
}

func (c *Console) Done(rep *suite.Report) {
	fmt.Fprintf(c.Out, "\n%d passed, %d soft-passed, %d failed in %s\n",
		rep.Passed, rep.SoftPassed, rep.FailedCount, rep.Finished.Sub(rep.Started).Round(time.Millisecond))
	for _, res := range rep.Results {
		if res.Status == scenario.SoftPass {
			for _, s := range res.Degraded() {
				fmt.Fprintf(c.Out, "  %s: %s %s\n", res.Name, s.Name, s.Outcome)
			}
		}
	}
}

func statusLabel(s scenario.Status) string {
	switch s {
	case scenario.Pass:
		return "PASS"
	case scenario.SoftPass:
		return "SOFT"
	default:
		return "FAIL"
	}
}
