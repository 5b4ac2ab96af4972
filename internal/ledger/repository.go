package ledger

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"BoostKeeper/internal/model"
)

// ErrAlreadyClaimed is returned by Claim when a competing booster won the request.
var ErrAlreadyClaimed = errors.New("ledger: request already claimed")

// ErrAccountNotFound is returned when the booster has no account on the ledger.
var ErrAccountNotFound = errors.New("ledger: booster account not found")

// Repository is the booster's view of the remote ledger.
type Repository interface {
	ListPending(ctx context.Context) ([]model.Request, error)
	GetOwnBalance(ctx context.Context) (*model.BoosterAccount, error)
	Claim(ctx context.Context, requestID uint64) error
}

// Registrar can create the booster account.
type Registrar interface {
	GetOwnBalance(ctx context.Context) (*model.BoosterAccount, error)
	Register(ctx context.Context) (*model.BoosterAccount, error)
}

// raceMarkers are ledger error fragments that mean another booster got there first.
var raceMarkers = []string{
	"already accepted",
	"already claimed",
	"already assigned",
	"not pending",
}

// IsAlreadyClaimedMessage reports whether a ledger error message describes a lost race.
func IsAlreadyClaimedMessage(msg string) bool {
	lower := strings.ToLower(msg)
	for _, m := range raceMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// EnsureRegistered returns the booster account, registering it first if the
// ledger does not know this booster yet.
func EnsureRegistered(ctx context.Context, r Registrar) (*model.BoosterAccount, error) {
	acct, err := r.GetOwnBalance(ctx)
	if err == nil {
		return acct, nil
	}
	if !errors.Is(err, ErrAccountNotFound) {
		return nil, fmt.Errorf("get booster account: %w", err)
	}

	log.Println("[INFO] booster account not found, registering")
	acct, err = r.Register(ctx)
	if err != nil {
		return nil, fmt.Errorf("register booster account: %w", err)
	}
	log.Printf("[INFO] booster account registered for %s", acct.Owner)
	return acct, nil
}
