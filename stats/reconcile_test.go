package stats_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"bonder-stake/addresses"
	"bonder-stake/stats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const feedBody = `{
  "timestamp": 1624046400,
  "data": {
    "DAI": {
      "xdai": {"apr": 0.1234, "stakingApr": 0.05},
      "optimism": {"stakingApr": 0.02}
    },
    "ETH": {
      "optimism": {"apr": 0.01}
    }
  }
}`

func serve(t *testing.T, status int, body string) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestReconcile(t *testing.T) {
	srv := serve(t, http.StatusOK, feedBody)
	snapshot, err := stats.NewHTTPFeed(srv.URL).Fetch(context.Background())
	require.NoError(t, err)

	registry, err := addresses.ForNetwork("kovan")
	require.NoError(t, err)
	results := stats.Reconcile(registry, snapshot)
	require.Len(t, results, 4)

	daiXdai := results[0]
	assert.Equal(t, "DAI", daiXdai.Token)
	assert.Equal(t, "xdai", daiXdai.Chain)
	require.NoError(t, daiXdai.Err)
	assert.Equal(t, "12.34%", daiXdai.Stat.AprFormatted)
	assert.Equal(t, "5.00%", daiXdai.Stat.StakingAprFormatted)
	assert.Equal(t, "17.34%", daiXdai.Stat.TotalAprFormatted)
	assert.InDelta(t, 0.1734, daiXdai.Stat.TotalApr, 1e-9)

	// present without apr
	var missing *stats.MissingDataError
	daiOptimism := results[1]
	assert.Equal(t, "optimism", daiOptimism.Chain)
	require.True(t, errors.As(daiOptimism.Err, &missing))
	assert.Nil(t, daiOptimism.Stat)

	for _, r := range results[2:] {
		assert.Equal(t, "USDC", r.Token)
		require.True(t, errors.As(r.Err, &missing))
		zero := r.OrZero()
		assert.Equal(t, "0.00%", zero.AprFormatted)
		assert.Equal(t, "0.00%", zero.TotalAprFormatted)
		assert.Equal(t, r.Chain, zero.Chain)
	}

	assert.Equal(t, *daiXdai.Stat, daiXdai.OrZero())
}

func TestFetchErrors(t *testing.T) {
	cases := map[string]*httptest.Server{
		"status":  serve(t, http.StatusInternalServerError, "oops"),
		"no data": serve(t, http.StatusOK, `{"timestamp": 1}`),
		"garbage": serve(t, http.StatusOK, `<html>`),
	}
	for name, srv := range cases {
		_, err := stats.NewHTTPFeed(srv.URL).Fetch(context.Background())
		assert.Error(t, err, name)
	}
}

func TestNormalizeSymbol(t *testing.T) {
	cases := map[string]string{
		"WETH":   "ETH",
		"XDAI":   "DAI",
		"WXDAI":  "DAI",
		"WMATIC": "MATIC",
		"USDC":   "USDC",
	}
	for in, out := range cases {
		assert.Equal(t, out, stats.NormalizeSymbol(in))
	}
	assert.Equal(t, "0.50%", stats.PercentDisplay(0.005))
}
