package explorer

import (
	"context"
	"sync"

	"BoostKeeper/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	mu        sync.Mutex
	Mempool   map[string][]model.RawTransaction
	Confirmed map[string][]model.RawTransaction
	Err       error
	calls     map[string]int
}

// NewMockFetcher creates an empty mock.
func NewMockFetcher() *MockFetcher {
	return &MockFetcher{
		Mempool:   make(map[string][]model.RawTransaction),
		Confirmed: make(map[string][]model.RawTransaction),
		calls:     make(map[string]int),
	}
}

func (m *MockFetcher) Name() string { return "mock" }

// SetMempool replaces the unconfirmed transactions reported for address.
func (m *MockFetcher) SetMempool(address string, txs ...model.RawTransaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Mempool[address] = txs
}

func (m *MockFetcher) FetchMempoolTransactions(_ context.Context, address string) ([]model.RawTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[address]++
	if m.Err != nil {
		return nil, m.Err
	}
	return append([]model.RawTransaction(nil), m.Mempool[address]...), nil
}

func (m *MockFetcher) FetchAddressTransactions(_ context.Context, address string) ([]model.RawTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[address]++
	if m.Err != nil {
		return nil, m.Err
	}
	txs := append([]model.RawTransaction(nil), m.Mempool[address]...)
	return append(txs, m.Confirmed[address]...), nil
}

// Calls returns how many times address was queried.
func (m *MockFetcher) Calls(address string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[address]
}

// TotalCalls returns the number of queries across all addresses.
func (m *MockFetcher) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		n += c
	}
	return n
}
