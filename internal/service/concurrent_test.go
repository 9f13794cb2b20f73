package service_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
)

var errSerializationConflict = errors.New("serialization conflict")

// TestConcurrentStakeDeduction simulates 50 goroutines simultaneously
// deducting stakes from a shared balance — protected by a mutex.
// This test verifies our concurrency guard pattern compiles and passes -race.
//
// In the real AdmissionService, the DB row-level FOR UPDATE lock on the
// account provides this guarantee.  Here we replicate the same guard with
// sync primitives so the race detector can confirm the pattern is sound.
func TestConcurrentStakeDeduction(t *testing.T) {
	const workers = 50
	const stakeEach = 10

	// Fund exactly half the workers: 25 must succeed, 25 must be rejected,
	// and the balance must land on exactly zero, never below.
	balance := decimal.NewFromInt(int64(workers / 2 * stakeEach))
	var mu sync.Mutex
	var admitted, rejected int64

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			stake := decimal.NewFromInt(stakeEach)

			mu.Lock()
			defer mu.Unlock()

			// Stake equal to the remaining balance is still admissible.
			if balance.LessThan(stake) {
				atomic.AddInt64(&rejected, 1)
				return
			}
			balance = balance.Sub(stake)
			atomic.AddInt64(&admitted, 1)
		}()
	}
	wg.Wait()

	if admitted != workers/2 {
		t.Errorf("expected %d admitted bets, got %d", workers/2, admitted)
	}
	if rejected != workers/2 {
		t.Errorf("expected %d rejected bets, got %d", workers/2, rejected)
	}
	if balance.IsNegative() {
		t.Errorf("balance must never go negative, got %s", balance)
	}
	if !balance.IsZero() {
		t.Errorf("final balance should be 0, got %s", balance)
	}
}

// TestConcurrentSettlementGuard verifies the settle-once protection under
// concurrent access: only one of N goroutines settles a pending bet, so the
// payout is credited exactly once.
func TestConcurrentSettlementGuard(t *testing.T) {
	const workers = 20
	type betState struct {
		mu      sync.Mutex
		pending bool
	}

	var (
		b        = betState{pending: true}
		settled  int64
		skipped  int64
		payout   decimal.Decimal
		payoutMu sync.Mutex
		wg       sync.WaitGroup
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			b.mu.Lock()
			defer b.mu.Unlock()

			// Mirrors the status='pending' re-check inside the settlement
			// transaction: losers of the race see not-pending and walk away.
			if !b.pending {
				atomic.AddInt64(&skipped, 1)
				return
			}
			b.pending = false
			atomic.AddInt64(&settled, 1)

			payoutMu.Lock()
			payout = payout.Add(decimal.NewFromInt(250))
			payoutMu.Unlock()
		}()
	}
	wg.Wait()

	if settled != 1 {
		t.Errorf("exactly 1 goroutine should have settled the bet, got %d", settled)
	}
	if skipped != workers-1 {
		t.Errorf("expected %d skips, got %d", workers-1, skipped)
	}
	if !payout.Equal(decimal.NewFromInt(250)) {
		t.Errorf("payout must be credited exactly once, got %s", payout)
	}
}

// TestRetriedSettlementNotifiesOnce verifies the notify-after-commit rule:
// a settlement transaction that hits serialization conflicts and retries
// must not emit its settled notice or bump its counters per attempt, only
// once after the attempt that commits.  Mirrors settleBet's shape, where
// the closure only captures the outcome and the caller publishes it.
func TestRetriedSettlementNotifiesOnce(t *testing.T) {
	const conflicts = 2
	var attempts, notices, counted int

	var settled bool
	run := func(maxAttempts int, fn func() error) error {
		var err error
		for i := 0; i < maxAttempts; i++ {
			err = fn()
			if err == nil {
				return nil
			}
		}
		return err
	}

	err := run(conflicts+1, func() error {
		settled = false
		attempts++
		if attempts <= conflicts {
			return errSerializationConflict
		}
		settled = true
		return nil
	})
	if err == nil && settled {
		notices++
		counted++
	}

	if attempts != conflicts+1 {
		t.Fatalf("expected %d attempts, got %d", conflicts+1, attempts)
	}
	if notices != 1 {
		t.Errorf("settled notice must fire exactly once, got %d", notices)
	}
	if counted != 1 {
		t.Errorf("settled counter must bump exactly once, got %d", counted)
	}
}

// TestConcurrentWithdrawRequestGuard verifies the one-pending-request rule
// under concurrent access: of N goroutines opening a withdrawal request for
// the same account, exactly one wins.  Mirrors the partial unique index on
// withdraw_requests (account_id) WHERE status = 'pending' that backs the
// database-side guarantee.
func TestConcurrentWithdrawRequestGuard(t *testing.T) {
	const workers = 20

	var (
		mu      sync.Mutex
		pending bool
		opened  int64
		refused int64
		wg      sync.WaitGroup
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			mu.Lock()
			defer mu.Unlock()

			if pending {
				atomic.AddInt64(&refused, 1)
				return
			}
			pending = true
			atomic.AddInt64(&opened, 1)
		}()
	}
	wg.Wait()

	if opened != 1 {
		t.Errorf("exactly 1 request should open, got %d", opened)
	}
	if refused != workers-1 {
		t.Errorf("expected %d refusals, got %d", workers-1, refused)
	}
}
