package rider

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	ErrNotFound      = errors.New("rider not found")
	ErrInvalidAmount = errors.New("amount must be a positive integer")
	ErrNoChange      = errors.New("rider already in requested state")
	ErrNoDebt        = errors.New("no outstanding debt")
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetRider(ctx context.Context, id uuid.UUID) (Rider, error) {
	var rd Rider
	err := r.db.GetContext(ctx, &rd, getRider, id)
	if errors.Is(err, sql.ErrNoRows) {
		return rd, ErrNotFound
	}
	return rd, err
}

const getRider = `SELECT * FROM riders WHERE id = $1`

func (r *Repository) GetRiderByAuth0ID(ctx context.Context, auth0ID string) (*Rider, error) {
	var rd Rider
	err := r.db.GetContext(ctx, &rd, getRiderByAuth0ID, auth0ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rd, nil
}

const getRiderByAuth0ID = `SELECT * FROM riders WHERE auth0_id = $1`

func (r *Repository) CreateRider(ctx context.Context, auth0ID string) (*Rider, error) {
	var rd Rider
	err := r.db.GetContext(ctx, &rd, createRider, uuid.New(), auth0ID)
	return &rd, err
}

const createRider = `
INSERT INTO riders (id, auth0_id, status, prepaid_balance, monthly_debt, renting_bike, created_at)
VALUES ($1, $2, 'active', 0, 0, false, now())
RETURNING *
`

func (r *Repository) AddStripeIDToRider(ctx context.Context, auth0ID, stripeID string) error {
	_, err := r.db.ExecContext(ctx, addStripeIDToRider, stripeID, auth0ID)
	return err
}

const addStripeIDToRider = `UPDATE riders SET stripe_id = $1 WHERE auth0_id = $2`

func (r *Repository) UpdateProfile(ctx context.Context, auth0ID, email, name string) error {
	_, err := r.db.ExecContext(ctx, updateProfile, email, name, auth0ID)
	return err
}

const updateProfile = `UPDATE riders SET email = NULLIF($1, ''), name = NULLIF($2, '') WHERE auth0_id = $3`

// AddFunds tops up the prepaid balance and appends the deposit to the
// transaction log in the same transaction.
func (r *Repository) AddFunds(ctx context.Context, id uuid.UUID, amount int) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, addFunds, id, amount)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}

	_, err = tx.ExecContext(ctx, logTransaction, id, "deposit", amount, "Added funds to prepaid balance")
	if err != nil {
		return err
	}

	return tx.Commit()
}

const addFunds = `UPDATE riders SET prepaid_balance = prepaid_balance + $2 WHERE id = $1`
const logTransaction = `INSERT INTO rider_transactions (rider_id, type, amount, note, created_at) VALUES ($1, $2, $3, $4, now())`

func (r *Repository) Transactions(ctx context.Context, id uuid.UUID) ([]Transaction, error) {
	var ts []Transaction
	err := r.db.SelectContext(ctx, &ts, getTransactions, id)
	return ts, err
}

const getTransactions = `SELECT * FROM rider_transactions WHERE rider_id = $1 ORDER BY created_at ASC`

// SettleDebt zeroes the monthly debt and records the payment. The conditional
// update returns the settled amount, so a rider with nothing owed gets
// ErrNoDebt instead of a zero-value payment row.
func (r *Repository) SettleDebt(ctx context.Context, id uuid.UUID, invoiceID string) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var settled int
	err = tx.GetContext(ctx, &settled, settleDebt, id)
	if errors.Is(err, sql.ErrNoRows) {
		_, err = r.GetRider(ctx, id)
		if err != nil {
			return 0, err
		}
		return 0, ErrNoDebt
	}
	if err != nil {
		return 0, err
	}

	_, err = tx.ExecContext(ctx, recordPayment, id, settled, invoiceID)
	if err != nil {
		return 0, err
	}

	return settled, tx.Commit()
}

// RETURNING sees the new row, so the pre-update debt is joined back in via a
// locked self-select.
const settleDebt = `
UPDATE riders r SET monthly_debt = 0
FROM (SELECT id, monthly_debt FROM riders WHERE id = $1 AND monthly_debt > 0 FOR UPDATE) old
WHERE r.id = old.id
RETURNING old.monthly_debt
`
const recordPayment = `INSERT INTO rider_payments (rider_id, amount, invoice_id, created_at) VALUES ($1, $2, $3, now())`

func (r *Repository) Payments(ctx context.Context, id uuid.UUID) ([]Payment, error) {
	var ps []Payment
	err := r.db.SelectContext(ctx, &ps, getPayments, id)
	return ps, err
}

const getPayments = `SELECT * FROM rider_payments WHERE rider_id = $1 ORDER BY created_at ASC`

// SetSuspended suspends or reinstates a rider. Like the bike-side toggle,
// re-applying the current decision returns ErrNoChange.
func (r *Repository) SetSuspended(ctx context.Context, id uuid.UUID, suspended bool) error {
	q := reinstateRider
	if suspended {
		q = suspendRider
	}

	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	var exists bool
	if err := r.db.GetContext(ctx, &exists, riderExists, id); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrNoChange
}

const suspendRider = `UPDATE riders SET status = 'suspended' WHERE id = $1 AND status <> 'suspended'`
const reinstateRider = `UPDATE riders SET status = 'active' WHERE id = $1 AND status <> 'active'`
const riderExists = `SELECT EXISTS (SELECT 1 FROM riders WHERE id = $1)`
