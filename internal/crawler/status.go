package crawler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/kosarica/catalog-service/internal/httpclient"
)

// RunStatus is the control-plane status payload for one chain crawl.
type RunStatus struct {
	ChainName    string  `json:"chain_name"`
	CrawlDate    string  `json:"crawl_date"`
	Status       string  `json:"status"`
	ErrorMessage *string `json:"error_message,omitempty"`
	NStores      int     `json:"n_stores"`
	NProducts    int     `json:"n_products"`
	NPrices      int     `json:"n_prices"`
	ElapsedTime  float64 `json:"elapsed_time"`
}

// StatusReporter records crawl run statuses and answers which chains
// already succeeded for a date.
type StatusReporter interface {
	Report(ctx context.Context, status RunStatus) error
	SuccessfulRuns(ctx context.Context, date time.Time) ([]string, error)
}

// HTTPStatusReporter reports against the control-plane /v1/crawler
// endpoints using the internal API key.
type HTTPStatusReporter struct {
	client  *httpclient.Client
	baseURL string
	apiKey  string
}

// NewHTTPStatusReporter creates a reporter for the given control-plane base URL
func NewHTTPStatusReporter(client *httpclient.Client, baseURL, apiKey string) *HTTPStatusReporter {
	return &HTTPStatusReporter{client: client, baseURL: baseURL, apiKey: apiKey}
}

func (r *HTTPStatusReporter) headers() map[string]string {
	return map[string]string{
		"Content-Type":       "application/json",
		"X-Internal-API-Key": r.apiKey,
	}
}

// Report posts one run status; the control plane upserts on (chain, date).
func (r *HTTPStatusReporter) Report(ctx context.Context, status RunStatus) error {
	body, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}

	resp, err := r.client.Do(ctx, "POST", r.baseURL+"/v1/crawler/status", bytes.NewReader(body), r.headers())
	if err != nil {
		return fmt.Errorf("failed to report crawl status: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return nil
}

// SuccessfulRuns returns chain names with a SUCCESS run for the date.
func (r *HTTPStatusReporter) SuccessfulRuns(ctx context.Context, date time.Time) ([]string, error) {
	url := fmt.Sprintf("%s/v1/crawler/successful_runs/%s", r.baseURL, date.Format("2006-01-02"))
	resp, err := r.client.Do(ctx, "GET", url, nil, r.headers())
	if err != nil {
		return nil, fmt.Errorf("failed to query successful runs: %w", err)
	}
	defer resp.Body.Close()

	var runs []struct {
		ChainName string `json:"chain_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&runs); err != nil {
		return nil, fmt.Errorf("failed to decode successful runs: %w", err)
	}

	chains := make([]string, 0, len(runs))
	for _, run := range runs {
		chains = append(chains, run.ChainName)
	}
	return chains, nil
}
