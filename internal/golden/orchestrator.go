package golden

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/kosarica/catalog-service/internal/ai"
)

// Orchestrator partitions the id space and fans batches out to workers.
type Orchestrator struct {
	pool      *pgxpool.Pool
	provider  ai.Provider
	batchSize int64
	workers   int
}

// NewOrchestrator creates an orchestrator with the given batch size and
// worker count.
func NewOrchestrator(pool *pgxpool.Pool, provider ai.Provider, batchSize, workers int) *Orchestrator {
	if batchSize < 1 {
		batchSize = 500
	}
	if workers < 1 {
		workers = 1
	}
	return &Orchestrator{pool: pool, provider: provider, batchSize: int64(batchSize), workers: workers}
}

type batch struct{ start, end int64 }

func partition(minID, maxID, size int64) []batch {
	var batches []batch
	for start := minID; start <= maxID; start += size {
		end := start + size - 1
		if end > maxID {
			end = maxID
		}
		batches = append(batches, batch{start, end})
	}
	return batches
}

// NormalizeAll runs the normalizer over every product that has no golden
// record yet, with up to `workers` batches in flight. Each worker holds
// its own pool connections; batches never overlap, so workers touch
// disjoint EAN sets except for EANs spanning the partition boundary,
// which the ON CONFLICT insert makes safe.
func (o *Orchestrator) NormalizeAll(ctx context.Context) error {
	logger := log.With().Str("component", "golden-orchestrator").Logger()

	var minID, maxID *int64
	err := o.pool.QueryRow(ctx, `
		SELECT MIN(p.id), MAX(p.id)
		FROM products p
		LEFT JOIN g_products g ON g.ean = p.ean
		WHERE g.id IS NULL`).Scan(&minID, &maxID)
	if err != nil {
		return fmt.Errorf("failed to determine id range: %w", err)
	}
	if minID == nil {
		logger.Info().Msg("nothing to normalize")
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)

	var total atomic.Int64
	for _, b := range partition(*minID, *maxID, o.batchSize) {
		b := b
		g.Go(func() error {
			worker := NewNormalizer(o.pool, o.provider)
			n, err := worker.ProcessRange(gctx, b.start, b.end)
			if err != nil {
				return fmt.Errorf("batch [%d,%d]: %w", b.start, b.end, err)
			}
			total.Add(int64(n))
			logger.Info().Int64("start", b.start).Int64("end", b.end).Int("processed", n).Msg("batch normalized")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info().Int64("total", total.Load()).Msg("normalization finished")
	return nil
}

// UpdateAllOffers recomputes golden prices and best offers for a date
// over the whole golden id space.
func (o *Orchestrator) UpdateAllOffers(ctx context.Context, date time.Time) error {
	var minID, maxID *int64
	if err := o.pool.QueryRow(ctx, `SELECT MIN(id), MAX(id) FROM g_products`).Scan(&minID, &maxID); err != nil {
		return fmt.Errorf("failed to determine golden id range: %w", err)
	}
	if minID == nil {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)

	for _, b := range partition(*minID, *maxID, o.batchSize) {
		b := b
		g.Go(func() error {
			return NewOfferUpdater(o.pool).UpdateRange(gctx, date, b.start, b.end)
		})
	}
	return g.Wait()
}
