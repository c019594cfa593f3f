// Package reconcile keeps the income ledger consistent with each client's
// recorded charged total. The strategy is append-only: when the income
// transactions linked to a client fall short of the client's total_charged,
// exactly one delta transaction is inserted for the shortfall. Existing
// transactions are never edited or deleted.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/aguilartradesfx/financetracker/internal/domain"
	"github.com/aguilartradesfx/financetracker/internal/ledger"
)

// Epsilon is the currency rounding tolerance. Discrepancies at or below it
// are treated as noise, not as a real gap.
const Epsilon = 0.01

// Clock supplies the current time; swapped out in tests.
type Clock func() time.Time

// Engine computes and applies backfill deltas. A single mutex serializes the
// passes of one process: the delta computation is read-then-decide-then-write
// and must not interleave with itself.
type Engine struct {
	store ledger.Store
	now   Clock
	log   zerolog.Logger

	mu sync.Mutex
}

// New creates an Engine over the given store.
func New(store ledger.Store, log zerolog.Logger) *Engine {
	return &Engine{
		store: store,
		now:   time.Now,
		log:   log,
	}
}

// WithClock overrides the engine's time source.
func (e *Engine) WithClock(clock Clock) *Engine {
	e.now = clock
	return e
}

// ReconcileClient runs one backfill check for a single client against the
// income transactions already linked to it. The caller must pass a fresh
// read of those transactions; stale input state is how double-counting
// happens. At most one transaction is inserted per call.
func (e *Engine) ReconcileClient(ctx context.Context, c *domain.Client, existing []*domain.Transaction) (Line, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	existingSum := domain.SumIncomeFor(existing, c.ID)
	return e.backfill(ctx, c, existingSum)
}

// ReconcileOnCreate handles a brand-new client: it cannot have linked
// transactions yet, so the shortfall is the full charged total.
func (e *Engine) ReconcileOnCreate(ctx context.Context, c *domain.Client) (Line, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.backfill(ctx, c, 0)
}

// ReconcileOnUpdate handles a client edit. The delta comes straight from the
// pre-edit snapshot instead of a full ledger scan; prior must have been read
// immediately before the update was applied. Downward revisions never touch
// the ledger.
func (e *Engine) ReconcileOnUpdate(ctx context.Context, prior, updated domain.Client) (Line, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	delta := updated.TotalCharged - prior.TotalCharged
	line := Line{
		ClientID:   updated.ID,
		ClientName: updated.Name,
		Charged:    updated.TotalCharged,
		Existing:   prior.TotalCharged,
		Missing:    delta,
	}

	if delta <= Epsilon {
		line.Outcome = OutcomeNoAction
		e.logLine(line)
		return line, nil
	}

	// The dedup stamp is derived from the edit itself, so two sessions
	// replaying the same edit produce the same ref and only one insert
	// survives.
	stamp := fmt.Sprintf("%.2f:%.2f", prior.TotalCharged, updated.TotalCharged)
	return e.insertDelta(ctx, &updated, delta, stamp, line)
}

// BackfillAll runs the backfill check for every client against one shared
// read snapshot of the ledger. A failed insert is logged against its client
// and the loop continues; a repair pass makes maximal progress. The caller
// is responsible for refreshing its view of the store afterwards.
func (e *Engine) BackfillAll(ctx context.Context, clients []*domain.Client, transactions []*domain.Transaction) *Report {
	e.mu.Lock()
	defer e.mu.Unlock()

	report := &Report{StartedAt: e.now()}
	for _, c := range clients {
		if c.TotalCharged <= Epsilon {
			continue
		}

		existingSum := domain.SumIncomeFor(transactions, c.ID)
		line, err := e.backfill(ctx, c, existingSum)
		if err != nil {
			e.log.Error().Err(err).
				Str("client_id", c.ID).
				Str("client", c.Name).
				Msg("backfill insert failed, continuing with remaining clients")
		}
		if line.Outcome == OutcomeBackfilled {
			report.Created++
		}
		report.Lines = append(report.Lines, line)
	}
	report.FinishedAt = e.now()

	e.log.Info().
		Int("clients_checked", len(report.Lines)).
		Int("transactions_created", report.Created).
		Msg("backfill pass finished")
	return report
}

// NeedsBackfill reports whether any client's charged total exceeds the sum
// of its linked income by more than Epsilon. Drives the startup self-heal.
func NeedsBackfill(clients []*domain.Client, transactions []*domain.Transaction) bool {
	for _, c := range clients {
		if c.TotalCharged-domain.SumIncomeFor(transactions, c.ID) > Epsilon {
			return true
		}
	}
	return false
}

// backfill runs the shared decision: missing = charged - existingSum, insert
// when above tolerance. Callers hold e.mu.
func (e *Engine) backfill(ctx context.Context, c *domain.Client, existingSum float64) (Line, error) {
	missing := c.TotalCharged - existingSum
	line := Line{
		ClientID:   c.ID,
		ClientName: c.Name,
		Charged:    c.TotalCharged,
		Existing:   existingSum,
		Missing:    missing,
	}

	if missing <= Epsilon {
		line.Outcome = OutcomeNoAction
		e.logLine(line)
		return line, nil
	}

	stamp := fmt.Sprintf("%.2f:%.2f", existingSum, c.TotalCharged)
	return e.insertDelta(ctx, c, missing, stamp, line)
}

func (e *Engine) insertDelta(ctx context.Context, c *domain.Client, amount float64, stamp string, line Line) (Line, error) {
	tx := e.buildTransaction(c, amount, stamp)
	err := e.store.InsertTransaction(ctx, tx)
	switch {
	case err == nil:
		line.Outcome = OutcomeBackfilled
		line.Amount = amount
	case errors.Is(err, ledger.ErrDuplicateRef):
		// Another session already applied this exact delta.
		line.Outcome = OutcomeDuplicate
		err = nil
	default:
		line.Outcome = OutcomeError
		line.Err = err.Error()
	}
	e.logLine(line)
	return line, err
}

// buildTransaction constructs the synthetic income transaction for a
// shortfall. Dated at the client's last payment date when known, otherwise
// now; paid via the client's method, defaulting to Stripe.
func (e *Engine) buildTransaction(c *domain.Client, amount float64, stamp string) *domain.Transaction {
	date := e.now()
	if c.LastPaymentDate != nil {
		date = *c.LastPaymentDate
	}

	method := c.PaymentMethod
	if method == "" {
		method = domain.PayStripe
	}

	description := fmt.Sprintf("Pago de cliente %s", c.Name)
	if c.Company != "" {
		description = fmt.Sprintf("Pago de cliente %s (%s)", c.Name, c.Company)
	}

	return &domain.Transaction{
		Date:                date,
		Type:                domain.TypeIncome,
		Amount:              amount,
		Category:            domain.CategoryClientPayment,
		Description:         description,
		IncomePaymentMethod: method,
		ClientID:            c.ID,
		ExternalRef:         fmt.Sprintf("backfill:%s:%s", c.ID, stamp),
	}
}

func (e *Engine) logLine(line Line) {
	ev := e.log.Info()
	if line.Outcome == OutcomeError {
		ev = e.log.Error().Str("error", line.Err)
	}
	ev.Str("client_id", line.ClientID).
		Str("client", line.ClientName).
		Float64("charged", line.Charged).
		Float64("existing", line.Existing).
		Float64("missing", line.Missing).
		Str("outcome", string(line.Outcome)).
		Msg("reconcile")
}
