// Package bike holds the bike aggregate and its fleet repository.
package bike

import (
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// MaxSpeed is the firmware speed cap in km/h. Speed adjustments clamp here.
const MaxSpeed = 30

// MaxBattery is the battery level cap in percent.
const MaxBattery = 100

type Status int

const (
	Available Status = iota
	Rented
	Disabled
)

func (s Status) String() string {
	return [...]string{"available", "rented", "disabled"}[s]
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Status) Scan(i any) error {
	switch v := i.(type) {
	case string:
		switch v {
		case "available":
			*s = Available
			return nil
		case "rented":
			*s = Rented
			return nil
		case "disabled":
			*s = Disabled
			return nil
		}
	}
	panic("invalid scan type")
}

// Bike is a rentable electric bike. The rented/parked/charging flags and the
// battery and speed ranges are maintained by Repository; callers never set
// them directly.
type Bike struct {
	// ID is the internal identifier for a bike.
	ID uuid.UUID
	// City names the operating city the bike is registered to. Geofence
	// classification runs against that city's parking lots.
	City string

	Location pgtype.Point
	Speed    int
	Battery  int

	Status   Status
	Parked   bool
	Rented   bool
	Charging bool
	Disabled bool

	// ColorCode is the map marker tag shown to riders ("green" when
	// available, "white" while rented, "red" when disabled).
	ColorCode string `db:"color_code"`

	Registered time.Time
}
