package explorer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"BoostKeeper/internal/model"

	"golang.org/x/time/rate"
)

// DefaultBaseURL points at the public mempool.space testnet4 API.
const DefaultBaseURL = "https://mempool.space/testnet4/api"

// EsploraFetcher implements Fetcher against an Esplora-compatible REST API
// (mempool.space, blockstream.info).
type EsploraFetcher struct {
	BaseURL string
	Client  *http.Client
	Limiter *rate.Limiter
}

// NewEsploraFetcher creates a fetcher with optional proxy support. rps <= 0
// disables client-side throttling.
func NewEsploraFetcher(baseURL, proxyURL string, rps float64, burst int) *EsploraFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	f := &EsploraFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
	if rps > 0 {
		if burst <= 0 {
			burst = 1
		}
		f.Limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
	return f
}

func (f *EsploraFetcher) Name() string { return "esplora" }

// esploraTx is the subset of the Esplora transaction JSON we consume.
type esploraTx struct {
	TxID   string `json:"txid"`
	Status struct {
		Confirmed   bool  `json:"confirmed"`
		BlockHeight int64 `json:"block_height"`
	} `json:"status"`
	Vin []struct {
		Sequence uint32 `json:"sequence"`
	} `json:"vin"`
	Vout []struct {
		ScriptPubKeyAddress string `json:"scriptpubkey_address"`
		Value               uint64 `json:"value"`
	} `json:"vout"`
}

func (f *EsploraFetcher) FetchMempoolTransactions(ctx context.Context, address string) ([]model.RawTransaction, error) {
	return f.fetchTxs(ctx, fmt.Sprintf("%s/address/%s/txs/mempool", f.BaseURL, url.PathEscape(address)))
}

func (f *EsploraFetcher) FetchAddressTransactions(ctx context.Context, address string) ([]model.RawTransaction, error) {
	return f.fetchTxs(ctx, fmt.Sprintf("%s/address/%s/txs", f.BaseURL, url.PathEscape(address)))
}

func (f *EsploraFetcher) fetchTxs(ctx context.Context, endpoint string) ([]model.RawTransaction, error) {
	if f.Limiter != nil {
		if err := f.Limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("explorer rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("explorer fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("explorer read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("explorer: status %d, body: %s", resp.StatusCode, string(body))
	}

	var txs []esploraTx
	if err := json.Unmarshal(body, &txs); err != nil {
		return nil, fmt.Errorf("explorer decode: %w", err)
	}

	out := make([]model.RawTransaction, 0, len(txs))
	for _, tx := range txs {
		raw := model.RawTransaction{
			TxID:      tx.TxID,
			Confirmed: tx.Status.Confirmed,
			Sequences: make([]uint32, 0, len(tx.Vin)),
			Outputs:   make([]model.TxOutput, 0, len(tx.Vout)),
		}
		for _, in := range tx.Vin {
			raw.Sequences = append(raw.Sequences, in.Sequence)
		}
		for _, o := range tx.Vout {
			raw.Outputs = append(raw.Outputs, model.TxOutput{Address: o.ScriptPubKeyAddress, Value: o.Value})
		}
		out = append(out, raw)
	}
	return out, nil
}
