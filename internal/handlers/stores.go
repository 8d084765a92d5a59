package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kosarica/catalog-service/internal/catalog"
	"github.com/kosarica/catalog-service/internal/database"
)

// StoresHandler serves the /v2/stores endpoints.
type StoresHandler struct {
	pool *pgxpool.Pool
	svc  *catalog.Service
}

// NewStoresHandler creates the stores handler.
func NewStoresHandler(pool *pgxpool.Pool, svc *catalog.Service) *StoresHandler {
	return &StoresHandler{pool: pool, svc: svc}
}

// List godoc
// @Summary List stores, optionally filtered by chain
// @Tags stores
// @Param chain_code query string false "chain code"
// @Success 200 {array} database.Store
// @Router /v2/stores [get]
func (h *StoresHandler) List(c *gin.Context) {
	query := `
		SELECT s.id, s.chain_id, s.code, s.type, s.address, s.city, s.zipcode, s.lat, s.lon, s.phone
		FROM stores s`
	args := []any{}
	if chain := c.Query("chain_code"); chain != "" {
		query += `
		JOIN chains ch ON ch.id = s.chain_id
		WHERE ch.code = $1`
		args = append(args, chain)
	}
	query += `
		ORDER BY s.id`

	rows, err := h.pool.Query(c.Request.Context(), query, args...)
	if err != nil {
		respondError(c, fmt.Errorf("failed to list stores: %w", err))
		return
	}
	defer rows.Close()

	stores := []database.Store{}
	for rows.Next() {
		var s database.Store
		if err := rows.Scan(&s.ID, &s.ChainID, &s.Code, &s.Type, &s.Address, &s.City,
			&s.Zipcode, &s.Lat, &s.Lon, &s.Phone); err != nil {
			respondError(c, fmt.Errorf("failed to scan store: %w", err))
			return
		}
		stores = append(stores, s)
	}
	if err := rows.Err(); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stores)
}

// Nearby godoc
// @Summary Stores within a radius of a point, nearest first
// @Tags stores
// @Param lat query number true "latitude"
// @Param lon query number true "longitude"
// @Param radius_meters query number true "search radius in meters"
// @Param chain_code query string false "restrict to one chain"
// @Success 200 {array} catalog.NearbyStore
// @Router /v2/stores/nearby [get]
func (h *StoresHandler) Nearby(c *gin.Context) {
	lat, err1 := strconv.ParseFloat(c.Query("lat"), 64)
	lon, err2 := strconv.ParseFloat(c.Query("lon"), 64)
	radius, err3 := strconv.ParseFloat(c.Query("radius_meters"), 64)
	if err1 != nil || err2 != nil || err3 != nil || radius <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat, lon and radius_meters are required"})
		return
	}

	stores, err := h.svc.FindNearbyStores(c.Request.Context(), lat, lon, radius, c.Query("chain_code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stores)
}
