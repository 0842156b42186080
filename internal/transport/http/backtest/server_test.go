package backtesthttp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"quoin/internal/backtest"
	"quoin/internal/market"
)

type fakeSource struct{}

func (fakeSource) Fetch(ctx context.Context, req backtest.FetchRequest) ([]market.Candle, error) {
	return nil, nil
}

func (fakeSource) Name() string { return "fake" }

type fakeRunner struct {
	lastReq backtest.RunRequest
}

func (r *fakeRunner) StartRun(req backtest.RunRequest) (backtest.RunInfo, error) {
	r.lastReq = req
	return backtest.RunInfo{RunID: "run-test", Status: "running", SubmittedAt: time.Now()}, nil
}

func newTestServer(t *testing.T, runner RunStarter) *Server {
	t.Helper()
	cacheStore, err := backtest.NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { cacheStore.Close() })

	svc, err := backtest.NewService(backtest.ServiceConfig{
		Store:   cacheStore,
		Sources: map[string]backtest.CandleSource{"fake": fakeSource{}},
	})
	require.NoError(t, err)

	s, err := NewServer(Config{Svc: svc, Runner: runner})
	require.NoError(t, err)
	return s
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	s.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"ok"`)
}

func TestJobsEmpty(t *testing.T) {
	s := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/backtest/jobs", nil)
	s.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"jobs"`)
}

func TestCandlesRequiresParams(t *testing.T) {
	s := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/backtest/candles?symbol=BTCUSDT", nil)
	s.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunStartDelegatesToRunner(t *testing.T) {
	runner := &fakeRunner{}
	s := newTestServer(t, runner)

	body := `{"strategy":"macd","timeframe":"1h","start_ts":1700000000000,"end_ts":1700600000000,"symbols":["BTCUSDT"]}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/backtest/runs", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	s.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Contains(t, rec.Body.String(), "run-test")
	require.Equal(t, "macd", runner.lastReq.Strategy)
	require.Equal(t, []string{"BTCUSDT"}, runner.lastReq.Symbols)
}

func TestRunStartWithoutRunner(t *testing.T) {
	s := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/backtest/runs", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	s.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRunListWithoutStore(t *testing.T) {
	s := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/backtest/runs", nil)
	s.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
