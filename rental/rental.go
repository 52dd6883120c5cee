// Package rental is the rental transaction engine. It starts and stops rides
// while keeping the bike and rider aggregates mutually consistent, and prices
// each completed ride from its geofence classification.
package rental

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAlreadyRenting  = errors.New("rider already renting a bike")
	ErrBikeUnavailable = errors.New("bike not available")
	ErrNotRenting      = errors.New("rider has no ride in progress")
	ErrRiderSuspended  = errors.New("rider account suspended")
)

// RideLogEntry is one side of a ride's mirrored log pair. The same shape is
// appended to the bike's log (keyed by the rider) and the rider's log (keyed
// by the bike); both carry the shared ride id. An entry is written open
// (CompleteLog false, stop fields null) and mutated exactly once at stop.
type RideLogEntry struct {
	ID      int64     `db:"id"`
	RideID  uuid.UUID `db:"ride_id"`
	BikeID  uuid.UUID `db:"bike_id"`
	RiderID uuid.UUID `db:"rider_id"`

	StartedAt   time.Time `db:"started_at"`
	StartedMs   int64     `db:"started_ms"`
	StartLon    float64   `db:"start_lon"`
	StartLat    float64   `db:"start_lat"`
	StartInZone bool      `db:"start_in_zone"`

	StoppedAt  sql.NullTime    `db:"stopped_at"`
	StoppedMs  sql.NullInt64   `db:"stopped_ms"`
	StopLon    sql.NullFloat64 `db:"stop_lon"`
	StopLat    sql.NullFloat64 `db:"stop_lat"`
	StopInZone sql.NullBool    `db:"stop_in_zone"`

	DurationMs sql.NullInt64 `db:"duration_ms"`
	Price      sql.NullInt32 `db:"price"`

	CompleteLog bool `db:"complete_log"`
}

// notRentedByRiderError carries the bike the rider is actually renting when a
// stop names the wrong bike.
type notRentedByRiderError struct {
	bikeID uuid.UUID
}

func (e *notRentedByRiderError) Error() string {
	return "bike not rented by this rider; open ride is on bike " + e.bikeID.String()
}

// ErrBikeNotRentedByUser reports that the rider's open ride is on a different
// bike than the one named in the stop request.
var ErrBikeNotRentedByUser = errors.New("bike not rented by this rider")

func (e *notRentedByRiderError) Is(target error) bool {
	return target == ErrBikeNotRentedByUser
}

// RentedBikeFromError extracts the actually-rented bike from an
// ErrBikeNotRentedByUser returned by Stop.
func RentedBikeFromError(err error) (uuid.UUID, bool) {
	var nrerr *notRentedByRiderError
	if errors.As(err, &nrerr) {
		return nrerr.bikeID, true
	}
	return uuid.UUID{}, false
}
