// Package telemetry ingests position and battery reports from the bike fleet
// over a websocket. Reports are independent, unordered writes; they never
// touch rental state, which only the rental engine mutates.
package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/elspark/rentalengine-backend/bike"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// frame is one report from a bike. Position and battery drain may arrive
// together or separately.
type frame struct {
	BikeID       string   `json:"bikeId"`
	Longitude    *float64 `json:"longitude"`
	Latitude     *float64 `json:"latitude"`
	BatteryDrain *int     `json:"batteryDrain"`
}

type ack struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type Ingest struct {
	bikes  *bike.Repository
	logger *slog.Logger
}

func NewIngest(bikes *bike.Repository, logger *slog.Logger) *Ingest {
	return &Ingest{bikes: bikes, logger: logger}
}

// ServeHTTP upgrades the connection and applies reports until the peer goes
// away. A malformed frame gets a negative ack but does not kill the
// connection; bikes in poor coverage resend aggressively.
func (i *Ingest) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		i.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				i.logger.Info("telemetry connection closed", "error", err)
			}
			return
		}

		var f frame
		if err := json.Unmarshal(msg, &f); err != nil {
			i.reply(conn, ack{Error: "malformed frame"})
			continue
		}

		if err := i.apply(r.Context(), f); err != nil {
			i.reply(conn, ack{Error: err.Error()})
			continue
		}
		i.reply(conn, ack{OK: true})
	}
}

func (i *Ingest) apply(ctx context.Context, f frame) error {
	id, err := uuid.Parse(f.BikeID)
	if err != nil {
		return errors.New("invalid bike id")
	}

	if f.Longitude != nil && f.Latitude != nil {
		if err := i.bikes.UpdatePosition(ctx, id, *f.Longitude, *f.Latitude); err != nil {
			return err
		}
	}

	if f.BatteryDrain != nil {
		err := i.bikes.AdjustBattery(ctx, id, *f.BatteryDrain, bike.Decrease)
		// A drained bike keeps reporting; the floor is not a fault.
		if err != nil && !errors.Is(err, bike.ErrAtBoundary) {
			return err
		}
	}

	return nil
}

func (i *Ingest) reply(conn *websocket.Conn, a ack) {
	if err := conn.WriteJSON(a); err != nil {
		i.logger.Info("failed to write telemetry ack", "error", err)
	}
}
