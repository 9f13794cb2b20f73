package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/betwise-ng/betwise/internal/domain"
)

// AccountRepository handles all database operations for accounts, the wallet
// ledger, betting limits, and withdrawal requests.
type AccountRepository struct {
	db *sqlx.DB
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db *sqlx.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// GetByID fetches an account by id.
func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	var a domain.Account
	err := r.db.GetContext(ctx, &a, `SELECT * FROM accounts WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("account_repo.GetByID: %w", err)
	}
	return &a, nil
}

// GetForUpdate locks the account row for the duration of the transaction and
// returns it.  Every wallet mutation starts here so that concurrent debits
// serialise on the row lock.
func (r *AccountRepository) GetForUpdate(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*domain.Account, error) {
	var a domain.Account
	err := tx.GetContext(ctx, &a, `SELECT * FROM accounts WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("account_repo.GetForUpdate: %w", err)
	}
	return &a, nil
}

// ApplyBalanceChange applies a signed delta to the cached balance and returns
// the resulting balance.  The caller holds the row lock via GetForUpdate and
// has already verified sufficiency for debits; the RETURNING value is the
// authoritative balance_after for the ledger entry written alongside.
func (r *AccountRepository) ApplyBalanceChange(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := tx.GetContext(ctx, &balance,
		`UPDATE accounts SET balance = balance + $1, updated_at = now() WHERE id = $2 RETURNING balance`,
		delta, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, domain.ErrAccountNotFound
		}
		return decimal.Zero, fmt.Errorf("account_repo.ApplyBalanceChange: %w", err)
	}
	return balance, nil
}

// AppendLedger inserts one immutable ledger entry inside the transaction.
// A duplicate payment reference trips the unique index and is reported as
// domain.ErrDuplicateReference so the caller can treat the retry as settled.
func (r *AccountRepository) AppendLedger(ctx context.Context, tx *sqlx.Tx, e *domain.LedgerEntry) error {
	query := `
		INSERT INTO ledger_entries
			(id, account_id, kind, amount, balance_after, bet_id, game_id, reference, description, created_at)
		VALUES
			(:id, :account_id, :kind, :amount, :balance_after, :bet_id, :game_id, :reference, :description, :created_at)`
	if _, err := tx.NamedExecContext(ctx, query, e); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return domain.ErrDuplicateReference
		}
		return fmt.Errorf("account_repo.AppendLedger: %w", err)
	}
	return nil
}

// GetLedgerEntries returns paginated ledger history for an account, newest
// first.  kind="" means all kinds.
func (r *AccountRepository) GetLedgerEntries(ctx context.Context, accountID uuid.UUID, kind domain.EntryKind, limit, offset int) ([]*domain.LedgerEntry, error) {
	var entries []*domain.LedgerEntry
	var err error
	if kind != "" {
		err = r.db.SelectContext(ctx, &entries, `
			SELECT * FROM ledger_entries
			WHERE account_id = $1 AND kind = $2
			ORDER BY created_at DESC, id DESC
			LIMIT $3 OFFSET $4`,
			accountID, kind, limit, offset)
	} else {
		err = r.db.SelectContext(ctx, &entries, `
			SELECT * FROM ledger_entries
			WHERE account_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2 OFFSET $3`,
			accountID, limit, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("account_repo.GetLedgerEntries: %w", err)
	}
	return entries, nil
}

// GetLedgerByReference fetches the topup entry previously recorded for a
// payment reference.  Returns (nil, nil) when the reference is unknown.
func (r *AccountRepository) GetLedgerByReference(ctx context.Context, reference string) (*domain.LedgerEntry, error) {
	var e domain.LedgerEntry
	err := r.db.GetContext(ctx, &e,
		`SELECT * FROM ledger_entries WHERE reference = $1`, reference)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("account_repo.GetLedgerByReference: %w", err)
	}
	return &e, nil
}

// GetFullLedger returns every entry for an account in chronological order.
// Used by reconciliation, which replays the chain against the cached balance.
func (r *AccountRepository) GetFullLedger(ctx context.Context, accountID uuid.UUID) ([]domain.LedgerEntry, error) {
	var entries []domain.LedgerEntry
	err := r.db.SelectContext(ctx, &entries, `
		SELECT * FROM ledger_entries
		WHERE account_id = $1
		ORDER BY created_at ASC, id ASC`,
		accountID)
	if err != nil {
		return nil, fmt.Errorf("account_repo.GetFullLedger: %w", err)
	}
	return entries, nil
}

// KindTotal is one row of the per-kind ledger summary.
type KindTotal struct {
	Kind  domain.EntryKind `db:"kind"  json:"kind"`
	Count int              `db:"count" json:"count"`
	Total decimal.Decimal  `db:"total" json:"total"`
}

// GetLedgerSummary aggregates an account's ledger per entry kind.
func (r *AccountRepository) GetLedgerSummary(ctx context.Context, accountID uuid.UUID) ([]KindTotal, error) {
	var rows []KindTotal
	err := r.db.SelectContext(ctx, &rows, `
		SELECT kind, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS total
		FROM ledger_entries
		WHERE account_id = $1
		GROUP BY kind
		ORDER BY kind`,
		accountID)
	if err != nil {
		return nil, fmt.Errorf("account_repo.GetLedgerSummary: %w", err)
	}
	return rows, nil
}

// ── Betting limits ────────────────────────────────────────────────────────────

// GetLimitsForUpdate locks and returns the account's limit counters.  The row
// is created lazily on first use, seeded with the platform's default weekly
// maximums (zero means unlimited).
func (r *AccountRepository) GetLimitsForUpdate(ctx context.Context, tx *sqlx.Tx, accountID uuid.UUID, defaultMaxBets int, defaultMaxStake decimal.Decimal) (*domain.BetLimits, error) {
	var l domain.BetLimits
	err := tx.GetContext(ctx, &l,
		`SELECT * FROM bet_limits WHERE account_id = $1 FOR UPDATE`, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		l = domain.BetLimits{
			AccountID:      accountID,
			MaxWeeklyBets:  defaultMaxBets,
			MaxWeeklyStake: defaultMaxStake,
			StakeTotal:     decimal.Zero,
			ResetsAt:       time.Now().UTC().Add(domain.LimitWindow),
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO bet_limits (account_id, max_weekly_bets, max_weekly_stake, bet_count, stake_total, resets_at)
			VALUES ($1, $2, $3, 0, 0, $4)`,
			accountID, defaultMaxBets, defaultMaxStake, l.ResetsAt)
		if err != nil {
			return nil, fmt.Errorf("account_repo.GetLimitsForUpdate insert: %w", err)
		}
		return &l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("account_repo.GetLimitsForUpdate: %w", err)
	}
	return &l, nil
}

// ResetLimitWindow zeroes the counters and starts a new window.  Runs inside
// the admission transaction so a rollback also rolls the reset back.
func (r *AccountRepository) ResetLimitWindow(ctx context.Context, tx *sqlx.Tx, accountID uuid.UUID, resetsAt time.Time) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE bet_limits
		SET bet_count = 0, stake_total = 0, resets_at = $1
		WHERE account_id = $2`,
		resetsAt, accountID)
	if err != nil {
		return fmt.Errorf("account_repo.ResetLimitWindow: %w", err)
	}
	return nil
}

// BumpLimitCounters records one admitted bet against the current window.
func (r *AccountRepository) BumpLimitCounters(ctx context.Context, tx *sqlx.Tx, accountID uuid.UUID, stake decimal.Decimal) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE bet_limits
		SET bet_count = bet_count + 1, stake_total = stake_total + $1
		WHERE account_id = $2`,
		stake, accountID)
	if err != nil {
		return fmt.Errorf("account_repo.BumpLimitCounters: %w", err)
	}
	return nil
}

// SetLimits updates an account's configured maximums (back-office action).
func (r *AccountRepository) SetLimits(ctx context.Context, accountID uuid.UUID, maxBets int, maxStake decimal.Decimal) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE bet_limits
		SET max_weekly_bets = $1, max_weekly_stake = $2
		WHERE account_id = $3`,
		maxBets, maxStake, accountID)
	if err != nil {
		return fmt.Errorf("account_repo.SetLimits: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		_, err = r.db.ExecContext(ctx, `
			INSERT INTO bet_limits (account_id, max_weekly_bets, max_weekly_stake, bet_count, stake_total, resets_at)
			VALUES ($1, $2, $3, 0, 0, $4)`,
			accountID, maxBets, maxStake, time.Now().UTC().Add(domain.LimitWindow))
		if err != nil {
			return fmt.Errorf("account_repo.SetLimits insert: %w", err)
		}
	}
	return nil
}

// ── Withdrawal requests ───────────────────────────────────────────────────────

// CreateWithdrawRequest inserts a new pending withdrawal request inside the
// caller's transaction.  The partial unique index on pending requests turns
// a concurrent duplicate into ErrWithdrawPending.
func (r *AccountRepository) CreateWithdrawRequest(ctx context.Context, tx *sqlx.Tx, req *domain.WithdrawRequest) error {
	query := `
		INSERT INTO withdraw_requests
			(id, account_id, amount, status, note, requested_at)
		VALUES
			(:id, :account_id, :amount, :status, :note, :requested_at)`
	if _, err := tx.NamedExecContext(ctx, query, req); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return domain.ErrWithdrawPending
		}
		return fmt.Errorf("account_repo.CreateWithdrawRequest: %w", err)
	}
	return nil
}

// GetWithdrawByID fetches a single withdrawal request.
func (r *AccountRepository) GetWithdrawByID(ctx context.Context, id uuid.UUID) (*domain.WithdrawRequest, error) {
	var req domain.WithdrawRequest
	err := r.db.GetContext(ctx, &req, `SELECT * FROM withdraw_requests WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrWithdrawNotFound
		}
		return nil, fmt.Errorf("account_repo.GetWithdrawByID: %w", err)
	}
	return &req, nil
}

// HasPendingWithdraw reports whether the account already has an undecided
// withdrawal request.  Runs inside the caller's transaction so the answer
// holds until commit.
func (r *AccountRepository) HasPendingWithdraw(ctx context.Context, tx *sqlx.Tx, accountID uuid.UUID) (bool, error) {
	var n int
	err := tx.GetContext(ctx, &n, `
		SELECT COUNT(*) FROM withdraw_requests
		WHERE account_id = $1 AND status = 'pending'`,
		accountID)
	if err != nil {
		return false, fmt.Errorf("account_repo.HasPendingWithdraw: %w", err)
	}
	return n > 0, nil
}

// WithdrawnToday sums the account's withdrawal requests made since midnight
// UTC, excluding rejected ones.  Pending requests count because their amount
// is already committed from the bettor's point of view.
func (r *AccountRepository) WithdrawnToday(ctx context.Context, tx *sqlx.Tx, accountID uuid.UUID) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := tx.GetContext(ctx, &total, `
		SELECT COALESCE(SUM(amount), 0) FROM withdraw_requests
		WHERE account_id = $1
		  AND status <> 'rejected'
		  AND requested_at >= date_trunc('day', now() AT TIME ZONE 'utc')`,
		accountID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("account_repo.WithdrawnToday: %w", err)
	}
	return total, nil
}

// GetWithdrawRequests returns paginated withdrawal requests filtered by
// status.  status="" means all statuses.
func (r *AccountRepository) GetWithdrawRequests(ctx context.Context, status string, limit, offset int) ([]*domain.WithdrawRequest, error) {
	var reqs []*domain.WithdrawRequest
	var err error
	if status != "" {
		err = r.db.SelectContext(ctx, &reqs, `
			SELECT * FROM withdraw_requests
			WHERE status = $1
			ORDER BY requested_at DESC
			LIMIT $2 OFFSET $3`,
			status, limit, offset)
	} else {
		err = r.db.SelectContext(ctx, &reqs, `
			SELECT * FROM withdraw_requests
			ORDER BY requested_at DESC
			LIMIT $1 OFFSET $2`,
			limit, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("account_repo.GetWithdrawRequests: %w", err)
	}
	return reqs, nil
}

// DecideWithdraw flips a pending request to its decided status inside the
// review transaction.  The status guard makes a double review a no-op:
// zero rows affected means another reviewer got there first.
func (r *AccountRepository) DecideWithdraw(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, status domain.WithdrawStatus, reviewerID uuid.UUID, note string) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE withdraw_requests
		SET status      = $1,
		    reviewed_by = $2,
		    review_note = $3,
		    reviewed_at = now()
		WHERE id = $4 AND status = 'pending'`,
		string(status), reviewerID, note, id)
	if err != nil {
		return fmt.Errorf("account_repo.DecideWithdraw: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrWithdrawNotPending
	}
	return nil
}

// ── Account admin ─────────────────────────────────────────────────────────────

// Create inserts a new account.
func (r *AccountRepository) Create(ctx context.Context, a *domain.Account) error {
	query := `
		INSERT INTO accounts (id, email, username, balance, is_active, created_at, updated_at)
		VALUES (:id, :email, :username, :balance, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, a); err != nil {
		return fmt.Errorf("account_repo.Create: %w", err)
	}
	return nil
}

// List returns paginated accounts, newest first.
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	var accounts []*domain.Account
	err := r.db.SelectContext(ctx, &accounts, `
		SELECT * FROM accounts
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("account_repo.List: %w", err)
	}
	return accounts, nil
}

// SetActive toggles an account's active flag.
func (r *AccountRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET is_active = $1, updated_at = now() WHERE id = $2`,
		active, id)
	if err != nil {
		return fmt.Errorf("account_repo.SetActive: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// Count returns the total number of accounts.
func (r *AccountRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM accounts`); err != nil {
		return 0, fmt.Errorf("account_repo.Count: %w", err)
	}
	return n, nil
}
