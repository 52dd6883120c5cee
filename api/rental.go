package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/elspark/rentalengine-backend/bike"
	"github.com/elspark/rentalengine-backend/internal/middleware"
	"github.com/elspark/rentalengine-backend/rental"
	"github.com/elspark/rentalengine-backend/rider"
)

type rideRequest struct {
	BikeID string `json:"bikeId"`
}

func (a *API) startRideHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	var req rideRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Failed to bind request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": err.Error()})
		return
	}

	bikeID, err := uuid.Parse(req.BikeID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_ID", "message": "bikeId is not a valid id"})
		return
	}

	rd, ok := a.currentRider(c)
	if !ok {
		return
	}

	if err := a.rentals.Start(c.Request.Context(), rd.ID, bikeID); err != nil {
		logger.Error("Failed to start ride", "bikeId", bikeID, "error", err)
		rentalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (a *API) stopRideHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	var req rideRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Failed to bind request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": err.Error()})
		return
	}

	bikeID, err := uuid.Parse(req.BikeID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_ID", "message": "bikeId is not a valid id"})
		return
	}

	rd, ok := a.currentRider(c)
	if !ok {
		return
	}

	fare, err := a.rentals.Stop(c.Request.Context(), rd.ID, bikeID)
	if err != nil {
		logger.Error("Failed to stop ride", "bikeId", bikeID, "error", err)
		rentalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "fare": fare})
}

func (a *API) currentRideHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	rd, ok := a.currentRider(c)
	if !ok {
		return
	}

	if !rd.RentingBike {
		c.JSON(http.StatusOK, gin.H{"inProgress": false})
		return
	}

	entries, err := a.rlr.RideLog(c.Request.Context(), rd.ID)
	if err != nil {
		logger.Error("Failed to load ride log", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	for _, e := range entries {
		if !e.CompleteLog {
			c.JSON(http.StatusOK, gin.H{
				"inProgress": true,
				"bikeId":     e.BikeID,
				"startedAt":  e.StartedAt,
			})
			return
		}
	}

	// renting_bike set but no open entry should not happen; report it rather
	// than guessing.
	logger.Error("Rider marked renting without an open log entry", "riderId", rd.ID)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "inconsistent rental state"})
}

type rideLogResponse struct {
	BikeID      uuid.UUID `json:"bikeId"`
	StartedAt   int64     `json:"startedAtMs"`
	StoppedAt   *int64    `json:"stoppedAtMs,omitempty"`
	StartInZone bool      `json:"startInZone"`
	StopInZone  *bool     `json:"stopInZone,omitempty"`
	DurationMs  *int64    `json:"durationMs,omitempty"`
	Price       *int32    `json:"price,omitempty"`
	Complete    bool      `json:"complete"`
}

func (a *API) rideLogHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	rd, ok := a.currentRider(c)
	if !ok {
		return
	}

	entries, err := a.rlr.RideLog(c.Request.Context(), rd.ID)
	if err != nil {
		logger.Error("Failed to load ride log", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	resp := make([]rideLogResponse, 0, len(entries))
	for _, e := range entries {
		item := rideLogResponse{
			BikeID:      e.BikeID,
			StartedAt:   e.StartedMs,
			StartInZone: e.StartInZone,
			Complete:    e.CompleteLog,
		}
		if e.StoppedMs.Valid {
			item.StoppedAt = &e.StoppedMs.Int64
		}
		if e.StopInZone.Valid {
			item.StopInZone = &e.StopInZone.Bool
		}
		if e.DurationMs.Valid {
			item.DurationMs = &e.DurationMs.Int64
		}
		if e.Price.Valid {
			item.Price = &e.Price.Int32
		}
		resp = append(resp, item)
	}

	c.JSON(http.StatusOK, resp)
}

// currentRider resolves the authenticated rider, creating the account on
// first sight. A missing profile is filled from the identity provider when a
// token is at hand.
func (a *API) currentRider(c *gin.Context) (*rider.Rider, bool) {
	logger := middleware.GetLogger(c)

	auth0ID, ok := middleware.GetAuth0ID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"code": "UNAUTHORIZED", "message": "Authentication required"})
		return nil, false
	}

	rd, err := a.rr.GetRiderByAuth0ID(c.Request.Context(), auth0ID)
	if err == nil {
		return rd, true
	}
	if !errors.Is(err, rider.ErrNotFound) {
		logger.Error("Failed to get rider", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return nil, false
	}

	rd, err = a.rr.CreateRider(c.Request.Context(), auth0ID)
	if err != nil {
		logger.Error("Failed to create rider", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return nil, false
	}

	if a.idp != nil {
		token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if info, err := a.idp.GetUserInfo(c.Request.Context(), token); err == nil {
			if err := a.rr.UpdateProfile(c.Request.Context(), auth0ID, info.Email, info.Name); err != nil {
				logger.Error("Failed to update rider profile", "error", err)
			}
		}
	}

	return rd, true
}

// rentalError maps engine errors to stable HTTP error codes.
func rentalError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, rider.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"code": "RIDER_NOT_FOUND", "message": "Rider not found"})
	case errors.Is(err, bike.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"code": "BIKE_NOT_FOUND", "message": "Bike not found"})
	case errors.Is(err, rental.ErrAlreadyRenting):
		c.JSON(http.StatusConflict, gin.H{"code": "ALREADY_RENTING", "message": "Rider already has a ride in progress"})
	case errors.Is(err, rental.ErrBikeUnavailable):
		c.JSON(http.StatusConflict, gin.H{"code": "BIKE_UNAVAILABLE", "message": "Bike is not available"})
	case errors.Is(err, rental.ErrNotRenting):
		c.JSON(http.StatusConflict, gin.H{"code": "NOT_RENTING", "message": "Rider has no ride in progress"})
	case errors.Is(err, rental.ErrBikeNotRentedByUser):
		msg := "Bike is not rented by this rider"
		if actual, ok := rental.RentedBikeFromError(err); ok {
			msg += "; open ride is on bike " + actual.String()
		}
		c.JSON(http.StatusConflict, gin.H{"code": "BIKE_NOT_RENTED_BY_USER", "message": msg})
	case errors.Is(err, rental.ErrRiderSuspended):
		c.JSON(http.StatusConflict, gin.H{"code": "RIDER_SUSPENDED", "message": "Rider account is suspended"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
