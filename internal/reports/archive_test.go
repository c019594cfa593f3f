package reports

import (
	"strings"
	"testing"
	"time"

	"github.com/aguilartradesfx/financetracker/internal/reconcile"
)

func TestRenderText(t *testing.T) {
	report := &reconcile.Report{
		StartedAt:  time.Date(2025, time.March, 15, 10, 0, 0, 0, time.UTC),
		FinishedAt: time.Date(2025, time.March, 15, 10, 0, 2, 0, time.UTC),
		Created:    1,
		Lines: []reconcile.Line{
			{ClientName: "Acme", Charged: 1000, Existing: 500, Missing: 500, Amount: 500, Outcome: reconcile.OutcomeBackfilled},
		},
	}

	text := RenderText(report)
	for _, want := range []string{
		"Started:  2025-03-15T10:00:00Z",
		"Acme: charged $1000.00, existing $500.00, missing $500.00, backfilled $500.00",
		"Done: 1 transaction(s) created across 1 client(s)",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("rendered report missing %q:\n%s", want, text)
		}
	}
}

func TestObjectName(t *testing.T) {
	finished := time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC)
	name := ObjectName(finished)
	if !strings.HasPrefix(name, "repairs/2025/03/05/") {
		t.Errorf("object name = %q, want repairs/2025/03/05/ prefix", name)
	}
	if !strings.HasSuffix(name, ".log") {
		t.Errorf("object name = %q, want .log suffix", name)
	}
	if name == ObjectName(finished) {
		t.Error("two archives on the same day collide on object name")
	}
}
