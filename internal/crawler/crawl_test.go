package crawler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosarica/catalog-service/internal/storage"
)

func newTestStore(t *testing.T, root string) *storage.LocalArchiveStore {
	t.Helper()
	store, err := storage.NewLocalArchiveStore(root)
	require.NoError(t, err)
	return store
}

type fakeAdapter struct {
	chain  string
	stores []Store
	err    error
	calls  int
}

func (f *fakeAdapter) Chain() string { return f.chain }

func (f *fakeAdapter) GetAllProducts(ctx context.Context, date time.Time) ([]Store, error) {
	f.calls++
	return f.stores, f.err
}

type fakeReporter struct {
	successful []string
	statuses   []RunStatus
}

func (f *fakeReporter) Report(ctx context.Context, status RunStatus) error {
	f.statuses = append(f.statuses, status)
	return nil
}

func (f *fakeReporter) SuccessfulRuns(ctx context.Context, date time.Time) ([]string, error) {
	return f.successful, nil
}

func statusesFor(reporter *fakeReporter, chain string) []string {
	var out []string
	for _, s := range reporter.statuses {
		if s.ChainName == chain {
			out = append(out, s.Status)
		}
	}
	return out
}

func TestCrawlReportsStartedThenSuccess(t *testing.T) {
	adapter := &fakeAdapter{
		chain: "crawltest-ok",
		stores: []Store{{
			Code: "001", City: "Zagreb",
			Products: []Product{{Code: "P1", Barcode: "3850111111111", Name: "Limun", Price: "2.99"}},
		}},
	}
	Register(adapter)

	reporter := &fakeReporter{}
	root := t.TempDir()
	c := NewCrawler(newTestStore(t, root), reporter, nil)

	date := time.Date(2025, 7, 2, 0, 0, 0, 0, time.UTC)
	archives, err := c.Crawl(context.Background(), date, []string{"crawltest-ok"})
	require.NoError(t, err)

	require.Len(t, archives, 1)
	assert.Equal(t, filepath.Join(root, "2025-07-02", "crawltest-ok.zip"), archives[0])
	_, statErr := os.Stat(archives[0])
	assert.NoError(t, statErr)

	assert.Equal(t, []string{"STARTED", "SUCCESS"}, statusesFor(reporter, "crawltest-ok"))

	final := reporter.statuses[len(reporter.statuses)-1]
	assert.Equal(t, 1, final.NStores)
	assert.Equal(t, 1, final.NProducts)
	assert.Equal(t, 1, final.NPrices)
}

func TestCrawlAdapterFailureReportsFailedAndContinues(t *testing.T) {
	failing := &fakeAdapter{chain: "crawltest-bad", err: errors.New("portal unreachable")}
	working := &fakeAdapter{
		chain: "crawltest-good",
		stores: []Store{{
			Code: "001", Products: []Product{{Code: "P1", Barcode: "3850222222222", Name: "Kruh", Price: "0.89"}},
		}},
	}
	Register(failing)
	Register(working)

	reporter := &fakeReporter{}
	c := NewCrawler(newTestStore(t, t.TempDir()), reporter, nil)

	archives, err := c.Crawl(context.Background(), time.Now(), []string{"crawltest-bad", "crawltest-good"})
	require.NoError(t, err)
	assert.Len(t, archives, 1)

	assert.Equal(t, []string{"STARTED", "FAILED"}, statusesFor(reporter, "crawltest-bad"))
	assert.Equal(t, []string{"STARTED", "SUCCESS"}, statusesFor(reporter, "crawltest-good"))

	for _, s := range reporter.statuses {
		if s.ChainName == "crawltest-bad" && s.Status == "FAILED" {
			require.NotNil(t, s.ErrorMessage)
			assert.Contains(t, *s.ErrorMessage, "portal unreachable")
		}
	}
}

func TestCrawlEmptyResultIsNoData(t *testing.T) {
	adapter := &fakeAdapter{chain: "crawltest-empty"}
	Register(adapter)

	reporter := &fakeReporter{}
	c := NewCrawler(newTestStore(t, t.TempDir()), reporter, nil)

	archives, err := c.Crawl(context.Background(), time.Now(), []string{"crawltest-empty"})
	require.NoError(t, err)
	assert.Empty(t, archives)

	assert.Equal(t, []string{"STARTED", "FAILED"}, statusesFor(reporter, "crawltest-empty"))
}

func TestCrawlSkipsAlreadySuccessfulChains(t *testing.T) {
	adapter := &fakeAdapter{chain: "crawltest-done"}
	Register(adapter)

	reporter := &fakeReporter{successful: []string{"crawltest-done"}}
	c := NewCrawler(newTestStore(t, t.TempDir()), reporter, nil)

	archives, err := c.Crawl(context.Background(), time.Now(), []string{"crawltest-done"})
	require.NoError(t, err)

	assert.Empty(t, archives)
	assert.Zero(t, adapter.calls, "adapter must not run for an already successful chain")
	assert.Empty(t, reporter.statuses)
}
