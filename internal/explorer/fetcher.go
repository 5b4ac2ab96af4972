package explorer

import (
	"context"

	"BoostKeeper/internal/model"
)

// Fetcher defines the interface for reading address activity from a
// settlement-network explorer.
type Fetcher interface {
	// FetchMempoolTransactions returns unconfirmed transactions touching address.
	FetchMempoolTransactions(ctx context.Context, address string) ([]model.RawTransaction, error)
	// FetchAddressTransactions returns unconfirmed and recent confirmed transactions.
	FetchAddressTransactions(ctx context.Context, address string) ([]model.RawTransaction, error)
	Name() string
}
