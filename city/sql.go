package city

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
)

var ErrNotFound = errors.New("city not found")

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetCities(ctx context.Context) ([]City, error) {
	var cities []City
	err := r.db.SelectContext(ctx, &cities, getCities)
	return cities, err
}

const getCities = `SELECT * FROM cities`

func (r *Repository) CreateCity(ctx context.Context, name string) error {
	_, err := r.db.ExecContext(ctx, createCity, name)
	return err
}

const createCity = `INSERT INTO cities (name, status, registered) VALUES ($1, 'active', now())`

// ParkingLots returns the registered lots of a named city. A city with no
// lots yet returns an empty slice, not ErrNotFound.
func (r *Repository) ParkingLots(ctx context.Context, cityName string) ([]ParkingLot, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, cityExists, cityName)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}

	var lots []ParkingLot
	err = r.db.SelectContext(ctx, &lots, getParkingLots, cityName)
	return lots, err
}

const cityExists = `SELECT EXISTS (SELECT 1 FROM cities WHERE name = $1)`

const getParkingLots = `SELECT * FROM parking_lots WHERE city_name = $1`

func (r *Repository) AddParkingLot(ctx context.Context, cityName, address string, lon, lat float64, chargingStation bool) error {
	res, err := r.db.ExecContext(ctx, addParkingLot, cityName, address, lon, lat, chargingStation)
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

// The INSERT ... SELECT keeps lot creation conditional on the city row, so an
// unknown city surfaces as zero rows instead of a foreign key violation.
const addParkingLot = `
INSERT INTO parking_lots (city_name, address, location, charging_station, maintenance, registered)
SELECT name, $2, point($3, $4), $5, false, now() FROM cities WHERE name = $1
`
