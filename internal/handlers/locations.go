package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kosarica/catalog-service/internal/catalog"
	"github.com/kosarica/catalog-service/internal/database"
	"github.com/kosarica/catalog-service/internal/middleware"
)

// LocationsHandler serves the /v2/locations saved-location endpoints.
type LocationsHandler struct {
	pool *pgxpool.Pool
	svc  *catalog.Service
}

// NewLocationsHandler creates the user locations handler.
func NewLocationsHandler(pool *pgxpool.Pool, svc *catalog.Service) *LocationsHandler {
	return &LocationsHandler{pool: pool, svc: svc}
}

// List godoc
// @Summary List the caller's saved locations
// @Tags locations
// @Success 200 {array} database.UserLocation
// @Router /v2/locations [get]
func (h *LocationsHandler) List(c *gin.Context) {
	locations, err := h.svc.GetUserLocations(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, locations)
}

type locationRequest struct {
	Name string  `json:"name" binding:"required"`
	Lat  float64 `json:"lat" binding:"required"`
	Lon  float64 `json:"lon" binding:"required"`
}

// Create godoc
// @Summary Save a location
// @Tags locations
// @Accept json
// @Param request body locationRequest true "location"
// @Success 201 {object} database.UserLocation
// @Router /v2/locations [post]
func (h *LocationsHandler) Create(c *gin.Context) {
	var req locationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var l database.UserLocation
	err := h.pool.QueryRow(c.Request.Context(), `
		INSERT INTO user_locations (user_id, name, lat, lon)
		VALUES ($1, $2, $3, $4)
		RETURNING id, user_id, name, lat, lon`,
		middleware.UserID(c), req.Name, req.Lat, req.Lon).Scan(
		&l.ID, &l.UserID, &l.Name, &l.Lat, &l.Lon)
	if err != nil {
		respondError(c, fmt.Errorf("failed to save location: %w", err))
		return
	}
	c.JSON(http.StatusCreated, l)
}

// Delete godoc
// @Summary Delete a saved location
// @Tags locations
// @Param id path int true "location id"
// @Success 204
// @Router /v2/locations/{id} [delete]
func (h *LocationsHandler) Delete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	tag, err := h.pool.Exec(c.Request.Context(),
		`DELETE FROM user_locations WHERE id = $1 AND user_id = $2`, id, middleware.UserID(c))
	if err != nil {
		respondError(c, fmt.Errorf("failed to delete location: %w", err))
		return
	}
	if tag.RowsAffected() == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "location not found"})
		return
	}
	c.Status(http.StatusNoContent)
}
