package service_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/betwise-ng/betwise/internal/domain"
)

// TestInsufficientFundsPrecedesConfirmation pins the admission guard order
// for an account that is both broke and stepping up its stake after a loss:
// the funds check fires first, so the caller is never asked to confirm a
// stake the wallet cannot cover.  Mirrors the guard sequence in placeBetTx
// with the same domain predicates.
func TestInsufficientFundsPrecedesConfirmation(t *testing.T) {
	balance := decimal.NewFromInt(10)
	stake := decimal.NewFromInt(100)
	last := &domain.Bet{
		Status: domain.BetStatusLost,
		Stake:  decimal.NewFromInt(20),
	}
	if !domain.ChasesLoss(last, stake) {
		t.Fatal("fixture should trip the loss-chasing guard on its own")
	}

	admit := func(confirmed bool) error {
		if balance.LessThan(stake) {
			return domain.ErrInsufficientFunds
		}
		if !confirmed && domain.ChasesLoss(last, stake) {
			return domain.ErrRequiresConfirmation
		}
		return nil
	}

	if err := admit(false); !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Errorf("unconfirmed broke chaser: got %v, want ErrInsufficientFunds", err)
	}
	if err := admit(true); !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Errorf("confirming must not unlock a stake the balance cannot cover: got %v", err)
	}
}
