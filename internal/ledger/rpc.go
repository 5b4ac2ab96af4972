package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"BoostKeeper/internal/model"
)

// RPCClient implements Repository against the ledger's JSON-RPC gateway.
type RPCClient struct {
	Endpoint  string
	Principal string
	authToken string
	http      *http.Client
	nextID    atomic.Int64
}

// NewRPCClient creates a client with optional proxy support.
func NewRPCClient(endpoint, principal, authToken, proxyURL string, timeout time.Duration) *RPCClient {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RPCClient{
		Endpoint:  endpoint,
		Principal: principal,
		authToken: authToken,
		http: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

type jsonRPCRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
	ID      int64       `json:"id"`
}

type jsonRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
}

// RPCError is an error object returned by the ledger gateway.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("ledger rpc error %d: %s", e.Code, e.Message)
}

// wireRequest mirrors the ledger's BoostRequest record. Timestamps are
// nanoseconds since the epoch.
type wireRequest struct {
	ID                    uint64  `json:"id"`
	Status                string  `json:"status"`
	Amount                uint64  `json:"amount"`
	MaxFeePercentage      float64 `json:"maxFeePercentage"`
	ConfirmationsRequired uint32  `json:"confirmationsRequired"`
	BTCAddress            *string `json:"btcAddress"`
	Owner                 string  `json:"owner"`
	Booster               *string `json:"booster"`
	PreferredBooster      *string `json:"preferredBooster"`
	ReceivedBTC           uint64  `json:"receivedBTC"`
	CreatedAt             int64   `json:"createdAt"`
	UpdatedAt             int64   `json:"updatedAt"`
}

type wireAccount struct {
	Owner            string `json:"owner"`
	AvailableBalance uint64 `json:"availableBalance"`
	TotalDeposited   uint64 `json:"totalDeposited"`
	CreatedAt        int64  `json:"createdAt"`
	UpdatedAt        int64  `json:"updatedAt"`
}

func (c *RPCClient) ListPending(ctx context.Context) ([]model.Request, error) {
	var wire []wireRequest
	if err := c.call(ctx, "getPendingBoostRequests", []interface{}{}, &wire); err != nil {
		return nil, fmt.Errorf("list pending: %w", err)
	}
	out := make([]model.Request, 0, len(wire))
	for _, w := range wire {
		out = append(out, w.toModel())
	}
	return out, nil
}

func (c *RPCClient) GetOwnBalance(ctx context.Context) (*model.BoosterAccount, error) {
	var wire *wireAccount
	if err := c.call(ctx, "getBoosterAccount", []interface{}{c.Principal}, &wire); err != nil {
		return nil, fmt.Errorf("get booster account: %w", err)
	}
	if wire == nil {
		return nil, ErrAccountNotFound
	}
	acct := wire.toModel()
	return &acct, nil
}

func (c *RPCClient) Claim(ctx context.Context, requestID uint64) error {
	var msg string
	err := c.call(ctx, "acceptBoostRequest", []interface{}{requestID}, &msg)
	if err == nil {
		return nil
	}
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) && IsAlreadyClaimedMessage(rpcErr.Message) {
		return fmt.Errorf("%w: %s", ErrAlreadyClaimed, rpcErr.Message)
	}
	return fmt.Errorf("accept request %d: %w", requestID, err)
}

func (c *RPCClient) Register(ctx context.Context) (*model.BoosterAccount, error) {
	var wire wireAccount
	if err := c.call(ctx, "registerBoosterAccount", []interface{}{}, &wire); err != nil {
		return nil, err
	}
	acct := wire.toModel()
	return &acct, nil
}

func (c *RPCClient) call(ctx context.Context, method string, params interface{}, out interface{}) error {
	buf, err := json.Marshal(jsonRPCRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.nextID.Add(1),
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if strings.TrimSpace(c.authToken) != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("ledger rpc %s failed: status=%d body=%s", method, resp.StatusCode, string(body))
	}
	var rpcResp jsonRPCResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	if rpcResp.Error != nil {
		return rpcResp.Error
	}
	if out == nil || len(rpcResp.Result) == 0 {
		return nil
	}
	return json.Unmarshal(rpcResp.Result, out)
}

func (w wireRequest) toModel() model.Request {
	r := model.Request{
		ID:                    w.ID,
		Status:                model.RequestStatus(strings.ToLower(w.Status)),
		Amount:                w.Amount,
		MaxFeePercentage:      w.MaxFeePercentage,
		ConfirmationsRequired: w.ConfirmationsRequired,
		Owner:                 w.Owner,
		ReceivedAmount:        w.ReceivedBTC,
		CreatedAt:             nanos(w.CreatedAt),
		UpdatedAt:             nanos(w.UpdatedAt),
	}
	if w.BTCAddress != nil {
		r.DepositAddress = strings.TrimSpace(*w.BTCAddress)
	}
	if w.Booster != nil {
		r.AssignedBooster = *w.Booster
	}
	if w.PreferredBooster != nil {
		r.PreferredBooster = *w.PreferredBooster
	}
	return r
}

func (w wireAccount) toModel() model.BoosterAccount {
	return model.BoosterAccount{
		Owner:            w.Owner,
		AvailableBalance: w.AvailableBalance,
		TotalDeposited:   w.TotalDeposited,
		CreatedAt:        nanos(w.CreatedAt),
		UpdatedAt:        nanos(w.UpdatedAt),
	}
}

func nanos(ns int64) time.Time {
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}
