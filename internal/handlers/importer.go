package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kosarica/catalog-service/internal/database"
)

// ImporterHandler serves the /v1/importer control-plane endpoints.
type ImporterHandler struct {
	pool *pgxpool.Pool
}

// NewImporterHandler creates the importer status handler.
func NewImporterHandler(pool *pgxpool.Pool) *ImporterHandler {
	return &ImporterHandler{pool: pool}
}

type importStatusRequest struct {
	ChainName    string  `json:"chain_name" binding:"required"`
	ImportDate   string  `json:"import_date" binding:"required"`
	Status       string  `json:"status" binding:"required"`
	ErrorMessage *string `json:"error_message"`
	NStores      int     `json:"n_stores"`
	NProducts    int     `json:"n_products"`
	NPrices      int     `json:"n_prices"`
	ElapsedTime  float64 `json:"elapsed_time"`
}

// ReportStatus godoc
// @Summary Upsert an import run status
// @Tags importer
// @Accept json
// @Param status body importStatusRequest true "run status"
// @Success 200 {object} database.ImportRun
// @Router /v1/importer/status [post]
func (h *ImporterHandler) ReportStatus(c *gin.Context) {
	var req importStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	date, err := time.Parse("2006-01-02", req.ImportDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid import_date, want YYYY-MM-DD"})
		return
	}

	var run database.ImportRun
	err = h.pool.QueryRow(c.Request.Context(), `
		INSERT INTO import_runs (chain_name, import_date, status, error, n_stores, n_products, n_prices, elapsed, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (chain_name, import_date) DO UPDATE SET
			status = EXCLUDED.status,
			error = EXCLUDED.error,
			n_stores = EXCLUDED.n_stores,
			n_products = EXCLUDED.n_products,
			n_prices = EXCLUDED.n_prices,
			elapsed = EXCLUDED.elapsed,
			timestamp = NOW()
		RETURNING id, chain_name, import_date, status, error, n_stores, n_products, n_prices, elapsed, timestamp`,
		req.ChainName, date, req.Status, req.ErrorMessage,
		req.NStores, req.NProducts, req.NPrices, req.ElapsedTime).Scan(
		&run.ID, &run.ChainName, &run.ImportDate, &run.Status, &run.Error,
		&run.NStores, &run.NProducts, &run.NPrices, &run.Elapsed, &run.Timestamp)
	if err != nil {
		respondError(c, fmt.Errorf("failed to upsert import run: %w", err))
		return
	}
	c.JSON(http.StatusOK, run)
}

// GetStatus godoc
// @Summary Get one chain's import run for a date
// @Tags importer
// @Param chain path string true "chain code"
// @Param date path string true "YYYY-MM-DD"
// @Success 200 {object} database.ImportRun
// @Failure 404 {object} map[string]string
// @Router /v1/importer/status/{chain}/{date} [get]
func (h *ImporterHandler) GetStatus(c *gin.Context) {
	date, ok := parseDateParam(c, "date")
	if !ok {
		return
	}
	chain := c.Param("chain")

	var run database.ImportRun
	err := h.pool.QueryRow(c.Request.Context(), `
		SELECT id, chain_name, import_date, status, error, n_stores, n_products, n_prices, elapsed, timestamp
		FROM import_runs WHERE chain_name = $1 AND import_date = $2`, chain, date).Scan(
		&run.ID, &run.ChainName, &run.ImportDate, &run.Status, &run.Error,
		&run.NStores, &run.NProducts, &run.NPrices, &run.Elapsed, &run.Timestamp)
	if errors.Is(err, pgx.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no import run for that chain and date"})
		return
	}
	if err != nil {
		respondError(c, fmt.Errorf("failed to load import run: %w", err))
		return
	}
	c.JSON(http.StatusOK, run)
}

// SuccessfulRuns godoc
// @Summary List chains with a SUCCESS import for a date
// @Tags importer
// @Param date path string true "YYYY-MM-DD"
// @Success 200 {array} database.ImportRun
// @Router /v1/importer/successful_runs/{date} [get]
func (h *ImporterHandler) SuccessfulRuns(c *gin.Context) {
	h.listRuns(c, []string{database.RunSuccess})
}

// FailedOrStartedRuns godoc
// @Summary List chains whose import failed or is still running for a date
// @Tags importer
// @Param date path string true "YYYY-MM-DD"
// @Success 200 {array} database.ImportRun
// @Router /v1/importer/failed_or_started_runs/{date} [get]
func (h *ImporterHandler) FailedOrStartedRuns(c *gin.Context) {
	h.listRuns(c, []string{database.RunFailed, database.RunStarted})
}

func (h *ImporterHandler) listRuns(c *gin.Context, statuses []string) {
	date, ok := parseDateParam(c, "date")
	if !ok {
		return
	}

	rows, err := h.pool.Query(c.Request.Context(), `
		SELECT id, chain_name, import_date, status, error, n_stores, n_products, n_prices, elapsed, timestamp
		FROM import_runs
		WHERE import_date = $1 AND status = ANY($2)
		ORDER BY chain_name`, date, statuses)
	if err != nil {
		respondError(c, fmt.Errorf("failed to list import runs: %w", err))
		return
	}
	defer rows.Close()

	runs := []database.ImportRun{}
	for rows.Next() {
		var run database.ImportRun
		if err := rows.Scan(&run.ID, &run.ChainName, &run.ImportDate, &run.Status, &run.Error,
			&run.NStores, &run.NProducts, &run.NPrices, &run.Elapsed, &run.Timestamp); err != nil {
			respondError(c, fmt.Errorf("failed to scan import run: %w", err))
			return
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, runs)
}
