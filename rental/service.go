package rental

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/elspark/rentalengine-backend/bike"
	"github.com/elspark/rentalengine-backend/pricing"
	"github.com/elspark/rentalengine-backend/rider"
)

// Store is the transactional persistence the engine runs against.
// Repository implements it over Postgres; tests swap in an in-memory fake.
type Store interface {
	GetBike(ctx context.Context, id uuid.UUID) (bike.Bike, error)
	GetRider(ctx context.Context, id uuid.UUID) (rider.Rider, error)
	OpenEntry(ctx context.Context, riderID, bikeID uuid.UUID) (RideLogEntry, error)
	StartRide(ctx context.Context, p StartParams) error
	CloseRide(ctx context.Context, p CloseParams) error
}

// Classifier answers whether a coordinate is inside one of a city's parking
// zones. It must be read-only; the engine calls it twice per ride.
type Classifier interface {
	InZone(ctx context.Context, cityName string, lon, lat float64) (bool, error)
}

var (
	ridesStartedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rides_started_total",
		Help: "Total number of rides started",
	})
	ridesCompletedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rides_completed_total",
		Help: "Total number of rides completed",
	})
	fareCharged = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ride_fare_charged",
		Help:    "Fare charged per completed ride in currency units",
		Buckets: []float64{10, 25, 50, 100, 250, 500, 1000},
	})
)

// RegisterMetrics registers the engine's domain metrics with the registry.
func RegisterMetrics(reg *prometheus.Registry) {
	reg.MustRegister(ridesStartedTotal, ridesCompletedTotal, fareCharged)
}

type Service struct {
	store Store
	zones Classifier
	now   func() time.Time
}

func NewService(store Store, zones Classifier) *Service {
	return &Service{
		store: store,
		zones: zones,
		now:   time.Now,
	}
}

// Start begins a rental for the (rider, bike) pair. The reads here are only a
// fast pre-check for friendly errors: the authoritative guards live in the
// store's conditional writes, so two racing starts on one bike resolve to a
// single winner and an ErrBikeUnavailable for the loser.
func (s *Service) Start(ctx context.Context, riderID, bikeID uuid.UUID) error {
	rd, err := s.store.GetRider(ctx, riderID)
	if err != nil {
		return err
	}
	if rd.Status == "suspended" {
		return ErrRiderSuspended
	}
	if rd.RentingBike {
		return ErrAlreadyRenting
	}

	b, err := s.store.GetBike(ctx, bikeID)
	if err != nil {
		return err
	}
	if b.Disabled || b.Rented {
		return ErrBikeUnavailable
	}

	startInZone, err := s.zones.InZone(ctx, b.City, b.Location.P.X, b.Location.P.Y)
	if err != nil {
		return err
	}

	err = s.store.StartRide(ctx, StartParams{
		RideID:      uuid.New(),
		BikeID:      bikeID,
		RiderID:     riderID,
		StartedAtMs: s.now().UnixMilli(),
		Lon:         b.Location.P.X,
		Lat:         b.Location.P.Y,
		StartInZone: startInZone,
	})
	if err != nil {
		return err
	}

	ridesStartedTotal.Inc()
	return nil
}

// Stop ends the rider's rental of the named bike and returns the fare. The
// bike's position is snapshotted once, so classification and the logged stop
// location cannot diverge under concurrent telemetry writes.
func (s *Service) Stop(ctx context.Context, riderID, bikeID uuid.UUID) (int, error) {
	rd, err := s.store.GetRider(ctx, riderID)
	if err != nil {
		return 0, err
	}
	if !rd.RentingBike {
		return 0, ErrNotRenting
	}

	b, err := s.store.GetBike(ctx, bikeID)
	if err != nil {
		return 0, err
	}
	lon, lat := b.Location.P.X, b.Location.P.Y

	entry, err := s.store.OpenEntry(ctx, riderID, bikeID)
	if err != nil {
		return 0, err
	}

	endInZone, err := s.zones.InZone(ctx, b.City, lon, lat)
	if err != nil {
		return 0, err
	}

	stoppedAtMs := s.now().UnixMilli()
	durationMs := stoppedAtMs - entry.StartedMs
	if durationMs < 0 {
		durationMs = 0
	}

	fare := pricing.Fare(entry.StartInZone, endInZone, durationMs)

	err = s.store.CloseRide(ctx, CloseParams{
		RideID:      entry.RideID,
		BikeID:      bikeID,
		RiderID:     riderID,
		StoppedAtMs: stoppedAtMs,
		Lon:         lon,
		Lat:         lat,
		StopInZone:  endInZone,
		DurationMs:  durationMs,
		Fare:        fare,
	})
	if err != nil {
		return 0, err
	}

	ridesCompletedTotal.Inc()
	fareCharged.Observe(float64(fare))
	return fare, nil
}
