package rental

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/elspark/rentalengine-backend/bike"
	"github.com/elspark/rentalengine-backend/rider"
)

// Repository is the transactional store behind Service. Every multi-row write
// runs inside one database transaction, and every state-changing UPDATE
// carries its precondition in the WHERE clause, so a racing call loses at
// write time instead of corrupting the pair of aggregates.
type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetBike(ctx context.Context, id uuid.UUID) (bike.Bike, error) {
	var b bike.Bike
	err := r.db.GetContext(ctx, &b, getBike, id)
	if errors.Is(err, sql.ErrNoRows) {
		return b, bike.ErrNotFound
	}
	return b, err
}

const getBike = `SELECT * FROM bikes WHERE id = $1`

func (r *Repository) GetRider(ctx context.Context, id uuid.UUID) (rider.Rider, error) {
	var rd rider.Rider
	err := r.db.GetContext(ctx, &rd, getRider, id)
	if errors.Is(err, sql.ErrNoRows) {
		return rd, rider.ErrNotFound
	}
	return rd, err
}

const getRider = `SELECT * FROM riders WHERE id = $1`

// OpenEntry locates the open ride-log entry correlating the rider and bike.
// Both sides of the pair are consulted: the bike-side entry is the source of
// the start snapshot, and the rider-side sentinel decides between "renting a
// different bike" and "not renting at all".
func (r *Repository) OpenEntry(ctx context.Context, riderID, bikeID uuid.UUID) (RideLogEntry, error) {
	var entry RideLogEntry
	err := r.db.GetContext(ctx, &entry, openBikeEntry, bikeID, riderID)
	if err == nil {
		return entry, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return RideLogEntry{}, err
	}

	var other RideLogEntry
	err = r.db.GetContext(ctx, &other, openRiderEntry, riderID)
	if errors.Is(err, sql.ErrNoRows) {
		return RideLogEntry{}, ErrNotRenting
	}
	if err != nil {
		return RideLogEntry{}, err
	}
	return RideLogEntry{}, &notRentedByRiderError{bikeID: other.BikeID}
}

const openBikeEntry = `SELECT * FROM bike_ride_logs WHERE bike_id = $1 AND rider_id = $2 AND complete_log = false`
const openRiderEntry = `SELECT * FROM rider_ride_logs WHERE rider_id = $1 AND complete_log = false`

// OpenEntriesForBike returns the bike-side open entries. The engine keeps this
// at most one; the acceptance suite asserts it.
func (r *Repository) OpenEntriesForBike(ctx context.Context, bikeID uuid.UUID) ([]RideLogEntry, error) {
	var entries []RideLogEntry
	err := r.db.SelectContext(ctx, &entries, openEntriesForBike, bikeID)
	return entries, err
}

const openEntriesForBike = `SELECT * FROM bike_ride_logs WHERE bike_id = $1 AND complete_log = false`

// RideLog returns a rider's full ride history, oldest first.
func (r *Repository) RideLog(ctx context.Context, riderID uuid.UUID) ([]RideLogEntry, error) {
	var entries []RideLogEntry
	err := r.db.SelectContext(ctx, &entries, riderRideLog, riderID)
	return entries, err
}

const riderRideLog = `SELECT * FROM rider_ride_logs WHERE rider_id = $1 ORDER BY started_ms ASC`

// StartParams is the start snapshot written to both sides of the log pair.
type StartParams struct {
	RideID      uuid.UUID
	BikeID      uuid.UUID
	RiderID     uuid.UUID
	StartedAtMs int64
	Lon, Lat    float64
	StartInZone bool
}

// StartRide flips the bike to rented and the rider to renting and appends the
// open log pair, all in one transaction. The two UPDATE guards re-check the
// preconditions at write time; the loser of a race gets a conflict error and
// the deferred rollback discards any half-applied state.
func (r *Repository) StartRide(ctx context.Context, p StartParams) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, rentBike, p.BikeID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrBikeUnavailable
	}

	res, err = tx.ExecContext(ctx, markRenting, p.RiderID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrAlreadyRenting
	}

	_, err = tx.ExecContext(ctx, appendBikeLog,
		p.RideID, p.BikeID, p.RiderID, p.StartedAtMs, p.Lon, p.Lat, p.StartInZone)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, appendRiderLog,
		p.RideID, p.BikeID, p.RiderID, p.StartedAtMs, p.Lon, p.Lat, p.StartInZone)
	if err != nil {
		return err
	}

	return tx.Commit()
}

const rentBike = `
UPDATE bikes SET status = 'rented', parked = false, rented = true, color_code = 'white'
WHERE id = $1 AND rented = false AND disabled = false
`

const markRenting = `UPDATE riders SET renting_bike = true WHERE id = $1 AND renting_bike = false`

const appendBikeLog = `
INSERT INTO bike_ride_logs (ride_id, bike_id, rider_id, started_at, started_ms, start_lon, start_lat, start_in_zone, complete_log)
VALUES ($1, $2, $3, to_timestamp($4::double precision / 1000), $4, $5, $6, $7, false)
`

const appendRiderLog = `
INSERT INTO rider_ride_logs (ride_id, bike_id, rider_id, started_at, started_ms, start_lon, start_lat, start_in_zone, complete_log)
VALUES ($1, $2, $3, to_timestamp($4::double precision / 1000), $4, $5, $6, $7, false)
`

// CloseParams is the stop snapshot applied to both sides of the log pair.
type CloseParams struct {
	RideID      uuid.UUID
	BikeID      uuid.UUID
	RiderID     uuid.UUID
	StoppedAtMs int64
	Lon, Lat    float64
	StopInZone  bool
	DurationMs  int64
	Fare        int
}

// CloseRide returns the bike to the fleet, clears the rider's renting flag,
// adds the fare to the monthly debt and finalizes both log entries. Any guard
// affecting zero rows aborts the transaction; the bike and rider sides can
// never end up one open and one closed.
func (r *Repository) CloseRide(ctx context.Context, p CloseParams) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, returnBike, p.BikeID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrBikeNotRentedByUser
	}

	res, err = tx.ExecContext(ctx, clearRenting, p.RiderID, p.Fare)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrNotRenting
	}

	for _, q := range []string{closeBikeLog, closeRiderLog} {
		res, err = tx.ExecContext(ctx, q,
			p.RideID, p.StoppedAtMs, p.Lon, p.Lat, p.StopInZone, p.DurationMs, p.Fare)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n != 1 {
			return ErrBikeNotRentedByUser
		}
	}

	return tx.Commit()
}

const returnBike = `
UPDATE bikes SET status = 'available', parked = true, rented = false, color_code = 'green'
WHERE id = $1 AND rented = true
`

const clearRenting = `
UPDATE riders SET renting_bike = false, monthly_debt = monthly_debt + $2
WHERE id = $1 AND renting_bike = true
`

const closeBikeLog = `
UPDATE bike_ride_logs
SET stopped_at = to_timestamp($2::double precision / 1000), stopped_ms = $2,
    stop_lon = $3, stop_lat = $4, stop_in_zone = $5,
    duration_ms = $6, price = $7, complete_log = true
WHERE ride_id = $1 AND complete_log = false
`

const closeRiderLog = `
UPDATE rider_ride_logs
SET stopped_at = to_timestamp($2::double precision / 1000), stopped_ms = $2,
    stop_lon = $3, stop_lat = $4, stop_in_zone = $5,
    duration_ms = $6, price = $7, complete_log = true
WHERE ride_id = $1 AND complete_log = false
`
