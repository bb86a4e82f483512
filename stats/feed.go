package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"time"
)

const (
	DefaultFeedURL     = "https://assets.hop.exchange/v1-pool-stats.json"
	DefaultFeedTimeout = time.Second * 30
)

// Entry is the published yield of one pool. Fields absent from the feed are nil.
type Entry struct {
	Apr        *float64 `json:"apr"`
	StakingApr *float64 `json:"stakingApr"`
}

// Snapshot maps token symbol and chain slug to the pool entry.
type Snapshot map[string]map[string]Entry

type document struct {
	Data Snapshot `json:"data"`
}

// HTTPFeed downloads the published pool-stats file.
type HTTPFeed struct {
	url    string
	client *http.Client
}

func NewHTTPFeed(url string) *HTTPFeed {
	if url == "" {
		url = DefaultFeedURL
	}
	return &HTTPFeed{url: url, client: &http.Client{Timeout: DefaultFeedTimeout}}
}

func (f *HTTPFeed) Fetch(ctx context.Context) (Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("pool stats request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pool stats fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pool stats fetch: unexpected status %s", resp.Status)
	}
	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("pool stats read: %w", err)
	}
	var doc document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("pool stats decode: %w", err)
	}
	if doc.Data == nil {
		return nil, fmt.Errorf("pool stats decode: expected data")
	}
	return doc.Data, nil
}
