// Package geofence decides whether a coordinate lies within a city's
// registered parking zones.
package geofence

import (
	"context"
	"math"

	"github.com/elspark/rentalengine-backend/city"
)

// ZoneRadiusMeters is how close a bike must be to a registered lot to count
// as parked in a zone.
const ZoneRadiusMeters = 40

const earthRadiusMeters = 6371000

// LotSource looks up the registered parking lots of a city. It returns
// city.ErrNotFound for unknown cities.
type LotSource interface {
	ParkingLots(ctx context.Context, cityName string) ([]city.ParkingLot, error)
}

// Classifier is a read-only geofence check over an injected lot source. It
// performs no writes and is safe to call concurrently.
type Classifier struct {
	lots LotSource
}

func NewClassifier(lots LotSource) *Classifier {
	return &Classifier{lots: lots}
}

// InZone reports whether the point is within ZoneRadiusMeters of any parking
// lot registered to the named city.
func (c *Classifier) InZone(ctx context.Context, cityName string, lon, lat float64) (bool, error) {
	lots, err := c.lots.ParkingLots(ctx, cityName)
	if err != nil {
		return false, err
	}

	for _, lot := range lots {
		if Haversine(lon, lat, lot.Location.P.X, lot.Location.P.Y) <= ZoneRadiusMeters {
			return true, nil
		}
	}
	return false, nil
}

// Haversine returns the great-circle distance in meters between two
// longitude/latitude points.
func Haversine(lon1, lat1, lon2, lat2 float64) float64 {
	if lat1 == lat2 && lon1 == lon2 {
		return 0
	}

	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)

	a := math.Pow(math.Sin(dLat/2), 2) +
		math.Pow(math.Sin(dLon/2), 2)*math.Cos(radians(lat1))*math.Cos(radians(lat2))
	c := 2 * math.Asin(math.Sqrt(a))

	return earthRadiusMeters * c
}

func radians(degree float64) float64 {
	return degree * math.Pi / 180
}
