package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/elspark/rentalengine-backend/city"
	"github.com/elspark/rentalengine-backend/internal/middleware"
)

func (a *API) citiesHandler(c *gin.Context) {
	cities, err := a.cr.GetCities(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, cities)
}

type createCityRequest struct {
	City string `json:"city" binding:"required"`
}

func (a *API) createCityHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	var req createCityRequest
	if err := c.Bind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": err.Error()})
		return
	}

	if err := a.cr.CreateCity(c.Request.Context(), req.City); err != nil {
		logger.Error("Failed to create city", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type addParkingRequest struct {
	Address         string  `json:"address" binding:"required"`
	Longitude       float64 `json:"longitude"`
	Latitude        float64 `json:"latitude"`
	ChargingStation bool    `json:"chargingStation"`
}

func (a *API) addParkingHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	var req addParkingRequest
	if err := c.Bind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_REQUEST", "message": err.Error()})
		return
	}

	err := a.cr.AddParkingLot(c.Request.Context(), c.Param("name"), req.Address, req.Longitude, req.Latitude, req.ChargingStation)
	if err != nil {
		if errors.Is(err, city.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": "CITY_NOT_FOUND", "message": "City not found"})
			return
		}
		logger.Error("Failed to add parking lot", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// classifyHandler answers whether a coordinate is inside one of the named
// city's parking zones. It is read-only; simulators use it to preview the
// fare effect of a drop-off point.
func (a *API) classifyHandler(c *gin.Context) {
	lon, err := strconv.ParseFloat(c.Query("longitude"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_COORDINATE", "message": "longitude must be a number"})
		return
	}
	lat, err := strconv.ParseFloat(c.Query("latitude"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "INVALID_COORDINATE", "message": "latitude must be a number"})
		return
	}

	inZone, err := a.zones.InZone(c.Request.Context(), c.Param("name"), lon, lat)
	if err != nil {
		if errors.Is(err, city.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": "CITY_NOT_FOUND", "message": "City not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"inZone": inZone})
}
