package observer

import (
	"context"
	"fmt"
	"log"

	"BoostKeeper/internal/dedup"
	"BoostKeeper/internal/explorer"
	"BoostKeeper/internal/model"

	"github.com/btcsuite/btcd/wire"
)

// rbfThreshold is the highest sequence number that still opts in to
// replace-by-fee (BIP 125): any input below MaxTxInSequenceNum-1 signals it.
const rbfThreshold = wire.MaxTxInSequenceNum - 1

// Observer matches settlement-network deposits against expected amounts.
type Observer struct {
	Fetcher          explorer.Fetcher
	IncludeConfirmed bool
}

// NewObserver creates an Observer backed by fetcher.
func NewObserver(fetcher explorer.Fetcher, includeConfirmed bool) *Observer {
	return &Observer{Fetcher: fetcher, IncludeConfirmed: includeConfirmed}
}

// Observe looks for the first unprocessed transaction paying address and
// checks it pays exactly expected. It never marks anything in seen; the
// caller does that once the claim succeeds.
func (o *Observer) Observe(ctx context.Context, address string, expected uint64, seen dedup.Checker) (model.MatchOutcome, error) {
	var (
		txs []model.RawTransaction
		err error
	)
	if o.IncludeConfirmed {
		txs, err = o.Fetcher.FetchAddressTransactions(ctx, address)
	} else {
		txs, err = o.Fetcher.FetchMempoolTransactions(ctx, address)
	}
	if err != nil {
		return model.MatchOutcome{Kind: model.NoMatch}, fmt.Errorf("fetch transactions for %s: %w", address, err)
	}

	obs, ok := SelectCandidate(txs, address, seen)
	if !ok {
		return model.MatchOutcome{Kind: model.NoMatch}, nil
	}

	if obs.Replaceable {
		log.Printf("[INFO] transaction %s to %s signals RBF, waiting", obs.TxID, address)
		return model.MatchOutcome{Kind: model.RBFPending, TxID: obs.TxID}, nil
	}

	if obs.MatchedValue != expected {
		return model.MatchOutcome{Kind: model.AmountMismatch, TxID: obs.TxID, Received: obs.MatchedValue}, nil
	}

	return model.MatchOutcome{Kind: model.Matched, TxID: obs.TxID, Received: obs.MatchedValue}, nil
}

// SelectCandidate returns the first transaction, in explorer order, that has
// not been seen and has at least one output paying address.
func SelectCandidate(txs []model.RawTransaction, address string, seen dedup.Checker) (model.ObservedTransaction, bool) {
	for _, tx := range txs {
		if seen != nil && seen.Seen(tx.TxID) {
			continue
		}
		if !paysTo(tx, address) {
			continue
		}
		return Derive(tx, address), true
	}
	return model.ObservedTransaction{}, false
}

// Derive computes the observed view of tx for address. Mined transactions
// are never considered replaceable.
func Derive(tx model.RawTransaction, address string) model.ObservedTransaction {
	obs := model.ObservedTransaction{TxID: tx.TxID, Confirmed: tx.Confirmed}
	for _, out := range tx.Outputs {
		if out.Address == address {
			obs.MatchedValue += out.Value
		}
	}
	if !tx.Confirmed {
		for _, seq := range tx.Sequences {
			if seq < rbfThreshold {
				obs.Replaceable = true
				break
			}
		}
	}
	return obs
}

func paysTo(tx model.RawTransaction, address string) bool {
	for _, out := range tx.Outputs {
		if out.Address == address {
			return true
		}
	}
	return false
}
