package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/elspark/rentalengine-backend/bike"
	"github.com/elspark/rentalengine-backend/city"
	"github.com/elspark/rentalengine-backend/internal/middleware"
)

type bikeResponse struct {
	ID        uuid.UUID   `json:"id"`
	City      string      `json:"city"`
	Lon       float64     `json:"longitude"`
	Lat       float64     `json:"latitude"`
	Speed     int         `json:"speed"`
	Battery   int         `json:"battery"`
	Status    bike.Status `json:"status"`
	Parked    bool        `json:"parked"`
	Charging  bool        `json:"charging"`
	Disabled  bool        `json:"disabled"`
	ColorCode string      `json:"colorCode"`
}

func toBikeResponse(b bike.Bike) bikeResponse {
	return bikeResponse{
		ID:        b.ID,
		City:      b.City,
		Lon:       b.Location.P.X,
		Lat:       b.Location.P.Y,
		Speed:     b.Speed,
		Battery:   b.Battery,
		Status:    b.Status,
		Parked:    b.Parked,
		Charging:  b.Charging,
		Disabled:  b.Disabled,
		ColorCode: b.ColorCode,
	}
}

func (a *API) bikesHandler(c *gin.Context) {
	bikes, err := a.br.GetBikes(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]bikeResponse, 0, len(bikes))
	for _, b := range bikes {
		resp = append(resp, toBikeResponse(b))
	}
	c.JSON(http.StatusOK, resp)
}

func (a *API) bikeHandler(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_ID", "message": "id is not a valid bike id"})
		return
	}

	b, err := a.br.GetBike(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, bike.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": "BIKE_NOT_FOUND", "message": "Bike not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, toBikeResponse(b))
}

type createBikeRequest struct {
	City      string  `json:"city"`
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

func (a *API) createBikeHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	var req createBikeRequest
	if err := c.Bind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": err.Error()})
		return
	}

	// The city must exist before a bike can be registered to it.
	if _, err := a.cr.ParkingLots(c.Request.Context(), req.City); err != nil {
		if errors.Is(err, city.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": "CITY_NOT_FOUND", "message": "City not found"})
			return
		}
		logger.Error("Failed to check city", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	b, err := a.br.CreateBike(c.Request.Context(), req.City, req.Longitude, req.Latitude)
	if err != nil {
		logger.Error("Failed to create bike", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, toBikeResponse(b))
}

func (a *API) adjustBatteryHandler(c *gin.Context) {
	a.adjustHandler(c, a.br.AdjustBattery)
}

func (a *API) adjustSpeedHandler(c *gin.Context) {
	a.adjustHandler(c, a.br.AdjustSpeed)
}

func (a *API) adjustHandler(c *gin.Context, adjust func(ctx context.Context, id uuid.UUID, delta int, dir bike.Direction) error) {
	logger := middleware.GetLogger(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_ID", "message": "id is not a valid bike id"})
		return
	}

	var dir bike.Direction
	switch c.Param("direction") {
	case "increase":
		dir = bike.Increase
	case "decrease":
		dir = bike.Decrease
	default:
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_DIRECTION", "message": "direction must be increase or decrease"})
		return
	}

	delta, err := strconv.Atoi(c.Param("amount"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_AMOUNT", "message": "amount must be an integer"})
		return
	}

	if err := adjust(c.Request.Context(), id, delta, dir); err != nil {
		switch {
		case errors.Is(err, bike.ErrInvalidDelta):
			c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_AMOUNT", "message": "amount must be a positive integer"})
		case errors.Is(err, bike.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"code": "BIKE_NOT_FOUND", "message": "Bike not found"})
		case errors.Is(err, bike.ErrAtBoundary):
			c.JSON(http.StatusConflict, gin.H{"code": "AT_BOUNDARY", "message": "Value already at boundary"})
		default:
			logger.Error("Failed to adjust bike value", "bikeId", id, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type positionRequest struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

func (a *API) updatePositionHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_ID", "message": "id is not a valid bike id"})
		return
	}

	var req positionRequest
	if err := c.Bind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": err.Error()})
		return
	}

	if err := a.br.UpdatePosition(c.Request.Context(), id, req.Longitude, req.Latitude); err != nil {
		if errors.Is(err, bike.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": "BIKE_NOT_FOUND", "message": "Bike not found"})
			return
		}
		logger.Error("Failed to update position", "bikeId", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type disabledRequest struct {
	Disabled *bool `json:"disabled" binding:"required"`
}

func (a *API) setDisabledHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_ID", "message": "id is not a valid bike id"})
		return
	}

	var req disabledRequest
	if err := c.Bind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": err.Error()})
		return
	}

	if err := a.br.SetDisabled(c.Request.Context(), id, *req.Disabled); err != nil {
		switch {
		case errors.Is(err, bike.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"code": "BIKE_NOT_FOUND", "message": "Bike not found"})
		case errors.Is(err, bike.ErrNoChange):
			c.JSON(http.StatusConflict, gin.H{"code": "NO_CHANGE", "message": "Bike already in requested state"})
		default:
			logger.Error("Failed to set disabled", "bikeId", id, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}
