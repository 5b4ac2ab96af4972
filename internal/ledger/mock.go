package ledger

import (
	"context"
	"sync"

	"BoostKeeper/internal/model"
)

// MockRepository is an in-memory Repository for development and tests.
// Claim moves a pending request to active unless ClaimErrs has an entry for it.
type MockRepository struct {
	mu         sync.Mutex
	Requests   []model.Request
	Account    *model.BoosterAccount
	Principal  string
	ListErr    error
	BalanceErr error
	ClaimErrs  map[uint64]error

	claims    []uint64
	listCalls int
}

// NewMockRepository creates a mock with the given available balance.
func NewMockRepository(balance uint64, requests ...model.Request) *MockRepository {
	return &MockRepository{
		Requests:  requests,
		Account:   &model.BoosterAccount{Owner: "booster-principal", AvailableBalance: balance, TotalDeposited: balance},
		Principal: "booster-principal",
		ClaimErrs: make(map[uint64]error),
	}
}

func (m *MockRepository) ListPending(_ context.Context) ([]model.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	out := make([]model.Request, 0, len(m.Requests))
	for _, r := range m.Requests {
		if r.Status == "" || r.Status == model.StatusPending {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MockRepository) GetOwnBalance(_ context.Context) (*model.BoosterAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.BalanceErr != nil {
		return nil, m.BalanceErr
	}
	if m.Account == nil {
		return nil, ErrAccountNotFound
	}
	acct := *m.Account
	return &acct, nil
}

func (m *MockRepository) Claim(_ context.Context, requestID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.claims = append(m.claims, requestID)
	if err, ok := m.ClaimErrs[requestID]; ok && err != nil {
		return err
	}
	for i := range m.Requests {
		if m.Requests[i].ID != requestID {
			continue
		}
		if m.Requests[i].IsAssigned() {
			return ErrAlreadyClaimed
		}
		m.Requests[i].Status = model.StatusActive
		m.Requests[i].AssignedBooster = m.Principal
		if m.Account != nil && m.Account.AvailableBalance >= m.Requests[i].Amount {
			m.Account.AvailableBalance -= m.Requests[i].Amount
		}
	}
	return nil
}

func (m *MockRepository) Register(_ context.Context) (*model.BoosterAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Account == nil {
		m.Account = &model.BoosterAccount{Owner: m.Principal}
	}
	acct := *m.Account
	return &acct, nil
}

// Claims returns the request ids Claim was called with, in order.
func (m *MockRepository) Claims() []uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]uint64(nil), m.claims...)
}

// ListCalls returns how many times ListPending was called.
func (m *MockRepository) ListCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listCalls
}
