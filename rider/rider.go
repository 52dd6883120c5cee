// Package rider holds the rider account aggregate: balance, debt and the
// renting flag the rental engine keeps in step with the bike fleet.
package rider

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type Rider struct {
	ID       uuid.UUID
	Auth0ID  string         `db:"auth0_id"`
	StripeID sql.NullString `db:"stripe_id"`
	Email    sql.NullString `db:"email"`
	Name     sql.NullString `db:"name"`

	// Status is "active" or "suspended". Suspended riders cannot start rides.
	Status string

	// PrepaidBalance and MonthlyDebt are whole currency units. Debt grows by
	// the fare of each completed ride and is settled in one monthly payment.
	PrepaidBalance int  `db:"prepaid_balance"`
	MonthlyDebt    int  `db:"monthly_debt"`
	RentingBike    bool `db:"renting_bike"`

	CreatedAt time.Time `db:"created_at"`
}

// Transaction is one entry in a rider's transaction log.
type Transaction struct {
	ID        int       `db:"id"`
	RiderID   uuid.UUID `db:"rider_id"`
	Type      string    `db:"type"`
	Amount    int       `db:"amount"`
	Note      string    `db:"note"`
	CreatedAt time.Time `db:"created_at"`
}

// Payment is one entry in a rider's payment history.
type Payment struct {
	ID        int       `db:"id"`
	RiderID   uuid.UUID `db:"rider_id"`
	Amount    int       `db:"amount"`
	InvoiceID string    `db:"invoice_id"`
	CreatedAt time.Time `db:"created_at"`
}
