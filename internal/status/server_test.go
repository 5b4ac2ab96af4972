package status

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"BoostKeeper/internal/metrics"
	"BoostKeeper/internal/model"
	"BoostKeeper/internal/settlement"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedSource struct{ rep *settlement.Report }

func (f fixedSource) LastReport() *settlement.Report { return f.rep }

func get(t *testing.T, h http.Handler, path string) (int, []byte) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	return rec.Code, body
}

func TestServer_Health(t *testing.T) {
	s := New(":0", nil, nil)
	code, body := get(t, s.Handler(), "/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestServer_StatusBeforeFirstCycle(t *testing.T) {
	s := New(":0", fixedSource{}, nil)
	code, body := get(t, s.Handler(), "/status")
	assert.Equal(t, http.StatusOK, code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.NotContains(t, resp, "summary")
	assert.Contains(t, resp, "uptime")
}

func TestServer_StatusWithReport(t *testing.T) {
	rep := &settlement.Report{
		Summary: model.CycleSummary{CycleID: "abc", Pending: 2, Claimed: 1, Skipped: 1},
		Results: []model.RequestResult{
			{RequestID: 1, State: model.StateClaimed, TxID: "tx1"},
			{RequestID: 2, State: model.StateSkip, Reason: model.SkipNoMatch},
		},
	}
	s := New(":0", fixedSource{rep: rep}, nil)
	_, body := get(t, s.Handler(), "/status")

	var resp statusResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	require.NotNil(t, resp.Summary)
	assert.Equal(t, "abc", resp.Summary.CycleID)
	assert.Len(t, resp.Results, 2)
	assert.Equal(t, model.SkipNoMatch, resp.Results[1].Reason)
}

func TestServer_Metrics(t *testing.T) {
	m := metrics.New()
	m.SetBalance(42)
	s := New(":0", nil, m.Registry)

	code, body := get(t, s.Handler(), "/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(body), "boostkeeper_available_balance 42")

	code, _ = get(t, New(":0", nil, nil).Handler(), "/metrics")
	assert.Equal(t, http.StatusNotFound, code)
}
