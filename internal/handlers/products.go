package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kosarica/catalog-service/internal/catalog"
)

// ProductsHandler serves the /v2/products read endpoints.
type ProductsHandler struct {
	svc *catalog.Service
}

// NewProductsHandler creates the products handler.
func NewProductsHandler(svc *catalog.Service) *ProductsHandler {
	return &ProductsHandler{svc: svc}
}

// Search godoc
// @Summary Hybrid product search
// @Tags products
// @Param q query string true "search query"
// @Param limit query int false "page size (max 100)"
// @Param offset query int false "page offset"
// @Param sort_by query string false "relevance|best_value_kg|best_value_l|best_value_piece"
// @Param category query string false "category filter"
// @Param brand query string false "brand filter"
// @Param store_ids query string false "comma-separated store ids for best-value sorts"
// @Success 200 {array} catalog.SearchResult
// @Router /v2/products/search [get]
func (h *ProductsHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}
	sortBy := catalog.SortBy(c.Query("sort_by"))
	if !sortBy.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sort_by"})
		return
	}
	storeIDs, err := parseIDList(c.Query("store_ids"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid store_ids"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	results, err := h.svc.SearchProducts(c.Request.Context(), catalog.SearchParams{
		Query:    q,
		StoreIDs: storeIDs,
		SortBy:   sortBy,
		Category: c.Query("category"),
		Brand:    c.Query("brand"),
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

// Get godoc
// @Summary Get one golden product with its best offer
// @Tags products
// @Param id path int true "product id"
// @Success 200 {object} catalog.ProductDetails
// @Failure 404 {object} map[string]string
// @Router /v2/products/{id} [get]
func (h *ProductsHandler) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	details, err := h.svc.GetProductDetails(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

// PricesByLocation godoc
// @Summary Latest prices of a product at given stores, cheapest first
// @Tags products
// @Param id path int true "product id"
// @Param store_ids query string true "comma-separated store ids"
// @Success 200 {array} catalog.StorePrice
// @Router /v2/products/{id}/prices-by-location [get]
func (h *ProductsHandler) PricesByLocation(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	storeIDs, err := parseIDList(c.Query("store_ids"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid store_ids"})
		return
	}
	prices, err := h.svc.GetProductPricesByLocation(c.Request.Context(), id, storeIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, prices)
}
