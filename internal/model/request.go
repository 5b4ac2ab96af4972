package model

import "time"

// RequestStatus is the lifecycle state of a boost request, owned by the remote ledger.
type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusActive    RequestStatus = "active"
	StatusCompleted RequestStatus = "completed"
	StatusCancelled RequestStatus = "cancelled"
)

// Request is a read-only snapshot of a pending fund-transfer intent.
type Request struct {
	ID                    uint64        `json:"id"`
	Status                RequestStatus `json:"status"`
	Amount                uint64        `json:"amount"` // smallest unit
	MaxFeePercentage      float64       `json:"maxFeePercentage"`
	ConfirmationsRequired uint32        `json:"confirmationsRequired"`
	DepositAddress        string        `json:"depositAddress,omitempty"`
	Owner                 string        `json:"owner"`
	AssignedBooster       string        `json:"booster,omitempty"`
	PreferredBooster      string        `json:"preferredBooster,omitempty"`
	ReceivedAmount        uint64        `json:"receivedAmount"`
	CreatedAt             time.Time     `json:"createdAt"`
	UpdatedAt             time.Time     `json:"updatedAt"`
}

// HasDepositAddress reports whether the ledger has assigned a deposit address yet.
func (r *Request) HasDepositAddress() bool {
	return r.DepositAddress != ""
}

// IsAssigned reports whether some booster has already claimed the request.
func (r *Request) IsAssigned() bool {
	return r.AssignedBooster != ""
}

// BoosterAccount is the agent's own standing with the ledger.
type BoosterAccount struct {
	Owner            string    `json:"owner"`
	AvailableBalance uint64    `json:"availableBalance"`
	TotalDeposited   uint64    `json:"totalDeposited"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}
