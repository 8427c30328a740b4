//go:build acceptance

package acceptance

import (
	"context"
	"testing"

	"github.com/irtazafoods/homecheck/internal/scenario"
)

func TestHomepage(t *testing.T) {
	selected, err := scenario.Select(cfg.Scenarios)
	if err != nil {
		t.Fatal(err)
	}
	for i, s := range selected {
		t.Run(s.Name, func(t *testing.T) {
			res := scenario.Execute(context.Background(), s, i+1, session, cfg, console.Event)
			rep.Add(res)

			for _, step := range res.Degraded() {
				t.Logf("%s: %s (%s)", step.Name, step.Outcome, step.Detail)
			}
			if res.Status == scenario.Fail {
				t.Errorf("%s failed: %s", s.Title, res.Error)
			}
		})
	}
}

func TestSessionStillOpen(t *testing.T) {
	if session.Closed() {
		t.Fatal("session closed before the suite finished")
	}
	loc, err := session.Location(context.Background())
	if err != nil {
		t.Fatalf("Location: %v", err)
	}
	if loc == "" {
		t.Error("empty location")
	}
}
