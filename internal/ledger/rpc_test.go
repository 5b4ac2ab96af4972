package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"BoostKeeper/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rpcCall struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

// newGateway serves canned JSON-RPC responses keyed by method name.
func newGateway(t *testing.T, responses map[string]string, calls *[]rpcCall) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		var c rpcCall
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&c)) {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if calls != nil {
			*calls = append(*calls, c)
		}
		body, ok := responses[c.Method]
		if !ok {
			body = `{"jsonrpc":"2.0","id":1,"error":{"code":-32601,"message":"method not found"}}`
		}
		_, _ = w.Write([]byte(body))
	}))
}

func TestRPCClient_ListPending(t *testing.T) {
	srv := newGateway(t, map[string]string{
		"getPendingBoostRequests": `{"jsonrpc":"2.0","id":1,"result":[
			{"id":1,"status":"pending","amount":500000,"maxFeePercentage":1.0,"confirmationsRequired":2,
			 "btcAddress":"tb1qaddr1","owner":"owner-a","booster":null,"preferredBooster":null,
			 "receivedBTC":0,"createdAt":1700000000000000000,"updatedAt":1700000000000000000},
			{"id":2,"status":"pending","amount":700000,"maxFeePercentage":0.5,"confirmationsRequired":2,
			 "btcAddress":null,"owner":"owner-b","booster":"other-booster","receivedBTC":0,"createdAt":0,"updatedAt":0}
		]}`,
	}, nil)
	defer srv.Close()

	c := NewRPCClient(srv.URL, "me", "secret", "", 0)
	reqs, err := c.ListPending(context.Background())
	require.NoError(t, err)
	require.Len(t, reqs, 2)

	assert.Equal(t, uint64(1), reqs[0].ID)
	assert.Equal(t, model.StatusPending, reqs[0].Status)
	assert.Equal(t, "tb1qaddr1", reqs[0].DepositAddress)
	assert.True(t, reqs[0].HasDepositAddress())
	assert.False(t, reqs[0].IsAssigned())
	assert.Equal(t, int64(1700000000), reqs[0].CreatedAt.Unix())

	assert.False(t, reqs[1].HasDepositAddress())
	assert.Equal(t, "other-booster", reqs[1].AssignedBooster)
	assert.True(t, reqs[1].CreatedAt.IsZero())
}

func TestRPCClient_GetOwnBalance(t *testing.T) {
	var calls []rpcCall
	srv := newGateway(t, map[string]string{
		"getBoosterAccount": `{"jsonrpc":"2.0","id":1,"result":{"owner":"me","availableBalance":1000000,"totalDeposited":2000000,"createdAt":0,"updatedAt":0}}`,
	}, &calls)
	defer srv.Close()

	c := NewRPCClient(srv.URL, "me", "secret", "", 0)
	acct, err := c.GetOwnBalance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1000000), acct.AvailableBalance)
	assert.Equal(t, uint64(2000000), acct.TotalDeposited)

	require.Len(t, calls, 1)
	require.Len(t, calls[0].Params, 1)
	assert.JSONEq(t, `"me"`, string(calls[0].Params[0]))
}

func TestRPCClient_GetOwnBalance_NotFound(t *testing.T) {
	srv := newGateway(t, map[string]string{
		"getBoosterAccount": `{"jsonrpc":"2.0","id":1,"result":null}`,
	}, nil)
	defer srv.Close()

	_, err := NewRPCClient(srv.URL, "me", "secret", "", 0).GetOwnBalance(context.Background())
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestRPCClient_Claim(t *testing.T) {
	tests := []struct {
		name     string
		response string
		wantErr  bool
		wantRace bool
	}{
		{"success", `{"jsonrpc":"2.0","id":1,"result":"Boost request accepted"}`, false, false},
		{"already accepted", `{"jsonrpc":"2.0","id":1,"error":{"code":-32000,"message":"Boost request already accepted by another booster"}}`, true, true},
		{"not pending", `{"jsonrpc":"2.0","id":1,"error":{"code":-32000,"message":"Request is not pending"}}`, true, true},
		{"other failure", `{"jsonrpc":"2.0","id":1,"error":{"code":-32000,"message":"Insufficient booster balance"}}`, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newGateway(t, map[string]string{"acceptBoostRequest": tt.response}, nil)
			defer srv.Close()

			err := NewRPCClient(srv.URL, "me", "secret", "", 0).Claim(context.Background(), 1)
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantRace, errors.Is(err, ErrAlreadyClaimed))
		})
	}
}

func TestRPCClient_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewRPCClient(srv.URL, "me", "secret", "", 0).Claim(context.Background(), 9)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrAlreadyClaimed))
	assert.Contains(t, err.Error(), "status=502")
}

func TestEnsureRegistered(t *testing.T) {
	m := NewMockRepository(0)
	m.Account = nil

	acct, err := EnsureRegistered(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, "booster-principal", acct.Owner)

	// second call finds the existing account
	acct, err = EnsureRegistered(context.Background(), m)
	require.NoError(t, err)
	assert.Equal(t, "booster-principal", acct.Owner)
}

func TestEnsureRegistered_TransportError(t *testing.T) {
	m := NewMockRepository(0)
	m.BalanceErr = errors.New("timeout")

	_, err := EnsureRegistered(context.Background(), m)
	require.Error(t, err)
}

func TestIsAlreadyClaimedMessage(t *testing.T) {
	assert.True(t, IsAlreadyClaimedMessage("Request already accepted"))
	assert.True(t, IsAlreadyClaimedMessage("ALREADY CLAIMED"))
	assert.False(t, IsAlreadyClaimedMessage("insufficient balance"))
}
