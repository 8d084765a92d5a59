package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kosarica/catalog-service/internal/database"
)

// CrawlerHandler serves the /v1/crawler control-plane endpoints used by
// crawl workers.
type CrawlerHandler struct {
	pool *pgxpool.Pool
}

// NewCrawlerHandler creates the crawler status handler.
func NewCrawlerHandler(pool *pgxpool.Pool) *CrawlerHandler {
	return &CrawlerHandler{pool: pool}
}

type crawlStatusRequest struct {
	ChainName    string  `json:"chain_name" binding:"required"`
	CrawlDate    string  `json:"crawl_date" binding:"required"`
	Status       string  `json:"status" binding:"required"`
	ErrorMessage *string `json:"error_message"`
	NStores      int     `json:"n_stores"`
	NProducts    int     `json:"n_products"`
	NPrices      int     `json:"n_prices"`
	ElapsedTime  float64 `json:"elapsed_time"`
}

// ReportStatus godoc
// @Summary Upsert a crawl run status
// @Tags crawler
// @Accept json
// @Param status body crawlStatusRequest true "run status"
// @Success 200 {object} database.CrawlRun
// @Router /v1/crawler/status [post]
func (h *CrawlerHandler) ReportStatus(c *gin.Context) {
	var req crawlStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	date, err := time.Parse("2006-01-02", req.CrawlDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid crawl_date, want YYYY-MM-DD"})
		return
	}
	switch req.Status {
	case database.RunStarted, database.RunSuccess, database.RunFailed, database.RunSkipped:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown status %q", req.Status)})
		return
	}

	var run database.CrawlRun
	err = h.pool.QueryRow(c.Request.Context(), `
		INSERT INTO crawl_runs (chain_name, crawl_date, status, error, n_stores, n_products, n_prices, elapsed, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (chain_name, crawl_date) DO UPDATE SET
			status = EXCLUDED.status,
			error = EXCLUDED.error,
			n_stores = EXCLUDED.n_stores,
			n_products = EXCLUDED.n_products,
			n_prices = EXCLUDED.n_prices,
			elapsed = EXCLUDED.elapsed,
			timestamp = NOW()
		RETURNING id, chain_name, crawl_date, status, error, n_stores, n_products, n_prices, elapsed, timestamp`,
		req.ChainName, date, req.Status, req.ErrorMessage,
		req.NStores, req.NProducts, req.NPrices, req.ElapsedTime).Scan(
		&run.ID, &run.ChainName, &run.CrawlDate, &run.Status, &run.Error,
		&run.NStores, &run.NProducts, &run.NPrices, &run.Elapsed, &run.Timestamp)
	if err != nil {
		respondError(c, fmt.Errorf("failed to upsert crawl run: %w", err))
		return
	}
	c.JSON(http.StatusOK, run)
}

// SuccessfulRuns godoc
// @Summary List chains with a SUCCESS crawl for a date
// @Tags crawler
// @Param date path string true "YYYY-MM-DD"
// @Success 200 {array} database.CrawlRun
// @Router /v1/crawler/successful_runs/{date} [get]
func (h *CrawlerHandler) SuccessfulRuns(c *gin.Context) {
	h.listRuns(c, []string{database.RunSuccess})
}

// FailedOrStartedRuns godoc
// @Summary List chains whose crawl failed or is still running for a date
// @Tags crawler
// @Param date path string true "YYYY-MM-DD"
// @Success 200 {array} database.CrawlRun
// @Router /v1/crawler/failed_or_started_runs/{date} [get]
func (h *CrawlerHandler) FailedOrStartedRuns(c *gin.Context) {
	h.listRuns(c, []string{database.RunFailed, database.RunStarted})
}

func (h *CrawlerHandler) listRuns(c *gin.Context, statuses []string) {
	date, ok := parseDateParam(c, "date")
	if !ok {
		return
	}
	runs, err := loadCrawlRuns(c.Request.Context(), h.pool, date, statuses)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, runs)
}

func loadCrawlRuns(ctx context.Context, pool *pgxpool.Pool, date time.Time, statuses []string) ([]database.CrawlRun, error) {
	rows, err := pool.Query(ctx, `
		SELECT id, chain_name, crawl_date, status, error, n_stores, n_products, n_prices, elapsed, timestamp
		FROM crawl_runs
		WHERE crawl_date = $1 AND status = ANY($2)
		ORDER BY chain_name`, date, statuses)
	if err != nil {
		return nil, fmt.Errorf("failed to list crawl runs: %w", err)
	}
	defer rows.Close()

	runs := []database.CrawlRun{}
	for rows.Next() {
		var run database.CrawlRun
		if err := rows.Scan(&run.ID, &run.ChainName, &run.CrawlDate, &run.Status, &run.Error,
			&run.NStores, &run.NProducts, &run.NPrices, &run.Elapsed, &run.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan crawl run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
