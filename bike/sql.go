package bike

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	ErrNotFound     = errors.New("bike not found")
	ErrInvalidDelta = errors.New("delta must be a positive integer")
	ErrAtBoundary   = errors.New("value already at boundary")
	ErrNoChange     = errors.New("bike already in requested state")
)

// Direction of a battery or speed adjustment.
type Direction int

const (
	Increase Direction = iota
	Decrease
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetBikes(ctx context.Context) ([]Bike, error) {
	var bikes []Bike
	err := r.db.SelectContext(ctx, &bikes, getBikes)
	return bikes, err
}

const getBikes = `SELECT * FROM bikes`

func (r *Repository) GetBike(ctx context.Context, id uuid.UUID) (Bike, error) {
	var b Bike
	err := r.db.GetContext(ctx, &b, getBike, id)
	if errors.Is(err, sql.ErrNoRows) {
		return b, ErrNotFound
	}
	return b, err
}

const getBike = `SELECT * FROM bikes WHERE id = $1`

// CreateBike registers a new bike in a city at the given seed location.
// New bikes start parked, fully charged and available.
func (r *Repository) CreateBike(ctx context.Context, cityName string, lon, lat float64) (Bike, error) {
	var b Bike
	err := r.db.GetContext(ctx, &b, createBike, uuid.New(), cityName, lon, lat)
	return b, err
}

const createBike = `
INSERT INTO bikes (id, city, location, speed, battery, status, parked, rented, charging, disabled, color_code, registered)
VALUES ($1, $2, point($3, $4), 0, 100, 'available', true, false, false, false, 'green', now())
RETURNING *
`

// UpdatePosition is an unconditional set used by the telemetry channel. It
// carries no business validation; rental state never gates position reports.
func (r *Repository) UpdatePosition(ctx context.Context, id uuid.UUID, lon, lat float64) error {
	res, err := r.db.ExecContext(ctx, updatePosition, id, lon, lat)
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
	return nil
}

const updatePosition = `UPDATE bikes SET location = point($2, $3) WHERE id = $1`

// AdjustBattery applies a positive delta to the battery level, clamped to
// [0, MaxBattery]. The in-range branch is a single conditional increment; the
// clamp branch is a conditional set to the boundary, so the stored value can
// never overshoot. Increasing below the cap asserts the charging flag; any
// decrease, or hitting either boundary, clears it. A bike already at the
// boundary returns ErrAtBoundary.
func (r *Repository) AdjustBattery(ctx context.Context, id uuid.UUID, delta int, dir Direction) error {
	if delta <= 0 {
		return ErrInvalidDelta
	}
	if dir == Increase {
		return r.adjust(ctx, id, delta, increaseBattery, clampBatteryHigh)
	}
	return r.adjust(ctx, id, delta, decreaseBattery, clampBatteryLow)
}

const increaseBattery = `UPDATE bikes SET battery = battery + $2, charging = true WHERE id = $1 AND battery + $2 < 100`
const clampBatteryHigh = `UPDATE bikes SET battery = 100, charging = false WHERE id = $1 AND battery < 100`
const decreaseBattery = `UPDATE bikes SET battery = battery - $2, charging = false WHERE id = $1 AND battery - $2 > 0`
const clampBatteryLow = `UPDATE bikes SET battery = 0, charging = false WHERE id = $1 AND battery > 0`

// AdjustSpeed mirrors AdjustBattery over [0, MaxSpeed] without the charging
// side effect.
func (r *Repository) AdjustSpeed(ctx context.Context, id uuid.UUID, delta int, dir Direction) error {
	if delta <= 0 {
		return ErrInvalidDelta
	}
	if dir == Increase {
		return r.adjust(ctx, id, delta, increaseSpeed, clampSpeedHigh)
	}
	return r.adjust(ctx, id, delta, decreaseSpeed, clampSpeedLow)
}

const increaseSpeed = `UPDATE bikes SET speed = speed + $2 WHERE id = $1 AND speed + $2 < 30`
const clampSpeedHigh = `UPDATE bikes SET speed = 30 WHERE id = $1 AND speed < 30`
const decreaseSpeed = `UPDATE bikes SET speed = speed - $2 WHERE id = $1 AND speed - $2 > 0`
const clampSpeedLow = `UPDATE bikes SET speed = 0 WHERE id = $1 AND speed > 0`

// adjust tries the increment branch, then the clamp branch. The clamp query
// takes no delta on purpose: it sets the boundary value outright.
func (r *Repository) adjust(ctx context.Context, id uuid.UUID, delta int, incrementQ, clampQ string) error {
	res, err := r.db.ExecContext(ctx, incrementQ, id, delta)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n > 0 {
		return nil
	}

	res, err = r.db.ExecContext(ctx, clampQ, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n > 0 {
		return nil
	}

	var exists bool
	if err := r.db.GetContext(ctx, &exists, bikeExists, id); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrAtBoundary
}

const bikeExists = `SELECT EXISTS (SELECT 1 FROM bikes WHERE id = $1)`

// SetDisabled takes a bike out of (or back into) service. Re-applying the
// current decision is rejected with ErrNoChange rather than silently accepted,
// so an admin always learns when a toggle raced another one.
func (r *Repository) SetDisabled(ctx context.Context, id uuid.UUID, disabled bool) error {
	q := enableBike
	if disabled {
		q = disableBike
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
	if err := r.db.GetContext(ctx, &exists, bikeExists, id); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrNoChange
}

const disableBike = `UPDATE bikes SET disabled = true, status = 'disabled', color_code = 'red' WHERE id = $1 AND disabled = false`
const enableBike = `UPDATE bikes SET disabled = false, status = 'available', color_code = 'green' WHERE id = $1 AND disabled = true`
