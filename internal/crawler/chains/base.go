// Package chains holds one portal adapter per retail chain. Adapters share
// the link-discovery and filename conventions of the Croatian price
// transparency portals: an index page lists one CSV/XLSX per store, with
// store metadata encoded in the file name.
package chains

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kosarica/catalog-service/internal/crawler"
	"github.com/kosarica/catalog-service/internal/httpclient"
)

var chainsLog = log.With().Str("component", "chains").Logger()

// client is shared by all adapters; SetClient swaps it in from config at
// startup (user agent, rate limits).
var client = httpclient.NewClientDefault()

// SetClient replaces the shared HTTP client used by all adapters.
func SetClient(c *httpclient.Client) {
	client = c
}

// discoverLinks fetches an index page and returns the hrefs matched by re
// that contain the date in compact (20060102) or dashed form. Relative
// hrefs are resolved against the index URL.
func discoverLinks(ctx context.Context, indexURL string, re *regexp.Regexp, date time.Time) ([]string, error) {
	body, err := client.GetBytes(ctx, indexURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch index %s: %w", indexURL, err)
	}

	base, err := url.Parse(indexURL)
	if err != nil {
		return nil, fmt.Errorf("bad index URL: %w", err)
	}

	compact := date.Format("20060102")
	dashed := date.Format("2006-01-02")

	seen := make(map[string]bool)
	var links []string
	for _, m := range re.FindAllStringSubmatch(string(body), -1) {
		href := m[1]
		if !strings.Contains(href, compact) && !strings.Contains(href, dashed) {
			continue
		}
		ref, err := url.Parse(href)
		if err != nil {
			continue
		}
		resolved := base.ResolveReference(ref).String()
		if seen[resolved] {
			continue
		}
		seen[resolved] = true
		links = append(links, resolved)
	}
	return links, nil
}

// storeMeta is the store identity decoded from a portal file name.
type storeMeta struct {
	Code    string
	Type    string
	Address string
	City    string
	Zipcode string
}

// parseStoreFilename decodes the common portal naming scheme
// TYPE-ADDRESS-CITY-ZIPCODE-CODE-DATE[-SEQ].csv where spaces inside a
// part are underscores. Parts beyond the expected count are tolerated.
func parseStoreFilename(name string) (storeMeta, error) {
	base := name
	if i := strings.LastIndex(base, "/"); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.Index(base, "?"); i >= 0 {
		base = base[:i]
	}
	base = strings.TrimSuffix(base, ".csv")
	base = strings.TrimSuffix(base, ".xlsx")

	parts := strings.Split(base, "-")
	if len(parts) < 5 {
		return storeMeta{}, fmt.Errorf("unrecognized price list filename %q", name)
	}

	unescape := func(s string) string { return strings.ReplaceAll(s, "_", " ") }
	return storeMeta{
		Type:    strings.ToLower(unescape(parts[0])),
		Address: unescape(parts[1]),
		City:    unescape(parts[2]),
		Zipcode: parts[3],
		Code:    parts[4],
	}, nil
}

// fetchStores downloads every discovered link and parses it into a Store
// via parse. A chain with zero usable stores yields NoDataError.
func fetchStores(ctx context.Context, chain string, date time.Time, links []string, parse func(meta storeMeta, body []byte) (crawler.Store, error)) ([]crawler.Store, error) {
	if len(links) == 0 {
		return nil, &crawler.NoDataError{Chain: chain, Date: date}
	}

	stores := make([]crawler.Store, 0, len(links))
	for _, link := range links {
		meta, err := parseStoreFilename(link)
		if err != nil {
			chainsLog.Warn().Str("chain", chain).Str("url", link).Err(err).Msg("skipping unrecognized price list")
			continue
		}

		body, err := client.GetBytes(ctx, link)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch price list %s: %w", link, err)
		}

		store, err := parse(meta, body)
		if err != nil {
			chainsLog.Warn().Str("chain", chain).Str("store", meta.Code).Err(err).Msg("skipping unparsable price list")
			continue
		}
		if len(store.Products) == 0 {
			continue
		}
		stores = append(stores, store)
	}

	if len(stores) == 0 {
		return nil, &crawler.NoDataError{Chain: chain, Date: date}
	}
	return stores, nil
}
