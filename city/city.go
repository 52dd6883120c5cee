// Package city holds the registry of operating cities and their parking lots.
package city

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

type City struct {
	Name       string    `db:"name"`
	Status     string    `db:"status"`
	Registered time.Time `db:"registered"`
}

// ParkingLot is a designated parking zone registered to a city. Bikes returned
// within the geofence radius of any lot count as parked in a zone.
type ParkingLot struct {
	ID              int          `db:"id"`
	CityName        string       `db:"city_name"`
	Address         string       `db:"address"`
	Location        pgtype.Point `db:"location"`
	ChargingStation bool         `db:"charging_station"`
	Maintenance     bool         `db:"maintenance"`
	Registered      time.Time    `db:"registered"`
}
