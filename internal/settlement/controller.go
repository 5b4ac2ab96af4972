package settlement

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"BoostKeeper/internal/dedup"
	"BoostKeeper/internal/ledger"
	"BoostKeeper/internal/model"
	"BoostKeeper/internal/risk"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
)

// DepositObserver finds a deposit matching an expected amount at an address.
type DepositObserver interface {
	Observe(ctx context.Context, address string, expected uint64, seen dedup.Checker) (model.MatchOutcome, error)
}

// Controller runs reconciliation cycles: it lists pending requests, checks
// funds and policy, observes deposits and claims matched requests.
type Controller struct {
	repo     ledger.Repository
	observer DepositObserver
	policy   risk.Policy
	registry *dedup.Registry

	unit             model.Unit
	principal        string
	respectPreferred bool
	validateAddress  AddressValidator
	now              func() time.Time
}

// Option customises the controller.
type Option func(*Controller)

// WithRegistry supplies a dedup registry (a fresh one is created otherwise).
func WithRegistry(r *dedup.Registry) Option {
	return func(c *Controller) { c.registry = r }
}

// WithUnit sets the display unit used in logs.
func WithUnit(u model.Unit) Option {
	return func(c *Controller) { c.unit = u }
}

// WithPreferredBooster skips requests whose preferred booster is someone other than principal.
func WithPreferredBooster(principal string) Option {
	return func(c *Controller) {
		c.principal = principal
		c.respectPreferred = principal != ""
	}
}

// WithAddressValidator rejects malformed deposit addresses before observation.
func WithAddressValidator(v AddressValidator) Option {
	return func(c *Controller) { c.validateAddress = v }
}

// NewController creates a Controller. policy may be nil, meaning accept all.
func NewController(repo ledger.Repository, observer DepositObserver, policy risk.Policy, opts ...Option) *Controller {
	if policy == nil {
		policy = risk.AcceptAll{}
	}
	c := &Controller{
		repo:     repo,
		observer: observer,
		policy:   policy,
		unit:     model.DefaultUnit,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.registry == nil {
		c.registry = dedup.NewRegistry()
	}
	return c
}

// Registry returns the controller's dedup registry.
func (c *Controller) Registry() *dedup.Registry { return c.registry }

// Report is the result of one cycle.
type Report struct {
	Summary model.CycleSummary
	Results []model.RequestResult
	Claims  []model.RequestResult // claim attempts only, in order

	fatal error
	errs  *multierror.Error
}

// Err returns the cycle-level error, if any, combined with per-request errors.
func (r *Report) Err() error {
	var all *multierror.Error
	if r.fatal != nil {
		all = multierror.Append(all, r.fatal)
	}
	if r.errs != nil {
		all = multierror.Append(all, r.errs.Errors...)
	}
	return all.ErrorOrNil()
}

// Fatal returns the error that prevented the cycle from evaluating requests.
func (r *Report) Fatal() error { return r.fatal }

// RunCycle evaluates every pending request once, in ledger order. Errors
// are isolated per request and never stop the cycle.
func (c *Controller) RunCycle(ctx context.Context) *Report {
	start := c.now()
	rep := &Report{Summary: model.CycleSummary{CycleID: uuid.NewString(), StartedAt: start}}
	defer func() { rep.Summary.Duration = c.now().Sub(start) }()

	requests, err := c.repo.ListPending(ctx)
	if err != nil {
		rep.fatal = fmt.Errorf("list pending requests: %w", err)
		rep.Summary.FatalError = rep.fatal.Error()
		log.Printf("[ERROR] cycle %s: %v", rep.Summary.CycleID, rep.fatal)
		return rep
	}
	rep.Summary.Pending = len(requests)
	log.Printf("[INFO] found %d pending boost requests", len(requests))

	acct, err := c.repo.GetOwnBalance(ctx)
	if err != nil {
		rep.fatal = fmt.Errorf("get own balance: %w", err)
		rep.Summary.FatalError = rep.fatal.Error()
		log.Printf("[ERROR] cycle %s: %v", rep.Summary.CycleID, rep.fatal)
		return rep
	}
	balance := acct.AvailableBalance
	rep.Summary.Balance = balance
	log.Printf("[INFO] available balance: %s", c.unit.Format(balance))

	for i := range requests {
		res, err := c.evaluate(ctx, &requests[i], balance)
		if err != nil {
			res.Error = err.Error()
			rep.errs = multierror.Append(rep.errs, fmt.Errorf("request %d: %w", res.RequestID, err))
		}
		rep.Results = append(rep.Results, res)

		switch res.State {
		case model.StateClaimed:
			rep.Summary.Claimed++
			rep.Claims = append(rep.Claims, res)
		case model.StateRaceLost:
			rep.Summary.RaceLost++
			rep.Claims = append(rep.Claims, res)
		case model.StateFailed:
			rep.Summary.Failed++
			rep.Claims = append(rep.Claims, res)
		default:
			rep.Summary.Skipped++
		}
	}
	return rep
}

func (c *Controller) evaluate(ctx context.Context, req *model.Request, balance uint64) (model.RequestResult, error) {
	res := model.RequestResult{RequestID: req.ID, Amount: req.Amount, FeePercentage: req.MaxFeePercentage}
	skip := func(reason model.SkipReason) (model.RequestResult, error) {
		res.State = model.StateSkip
		res.Reason = reason
		return res, nil
	}

	log.Printf("[INFO] processing boost request %d: amount=%s maxFee=%.2f%% confirmations=%d",
		req.ID, c.unit.Format(req.Amount), req.MaxFeePercentage, req.ConfirmationsRequired)

	if req.Status != "" && req.Status != model.StatusPending {
		return skip(model.SkipNotPending)
	}
	if req.IsAssigned() {
		log.Printf("[INFO] request %d already assigned to %s, skipping", req.ID, req.AssignedBooster)
		return skip(model.SkipAlreadyAssigned)
	}
	if c.respectPreferred && req.PreferredBooster != "" && req.PreferredBooster != c.principal {
		log.Printf("[INFO] request %d prefers booster %s, skipping", req.ID, req.PreferredBooster)
		return skip(model.SkipPreferredOther)
	}

	if balance < req.Amount {
		log.Printf("[INFO] insufficient balance for request %d. Required: %s, Available: %s",
			req.ID, c.unit.Format(req.Amount), c.unit.Format(balance))
		return skip(model.SkipInsufficientFunds)
	}

	if !req.HasDepositAddress() {
		log.Printf("[INFO] request %d has no deposit address, skipping", req.ID)
		return skip(model.SkipNoAddress)
	}
	if c.validateAddress != nil {
		if err := c.validateAddress(req.DepositAddress); err != nil {
			log.Printf("[WARN] request %d: %v", req.ID, err)
			return skip(model.SkipInvalidAddress)
		}
	}

	if !c.policy.Accept(req) {
		if ex, ok := c.policy.(risk.Explainer); ok {
			log.Printf("[INFO] request %d: %s", req.ID, ex.Explain(req).Reason)
		} else {
			log.Printf("[INFO] request %d rejected by risk policy", req.ID)
		}
		return skip(model.SkipRiskRejected)
	}

	out, err := c.observer.Observe(ctx, req.DepositAddress, req.Amount, c.registry)
	if err != nil {
		log.Printf("[WARN] observe deposit for request %d: %v", req.ID, err)
		res.State = model.StateSkip
		res.Reason = model.SkipObserveFailed
		return res, err
	}
	res.TxID = out.TxID

	switch out.Kind {
	case model.NoMatch:
		log.Printf("[INFO] no new transactions found for address %s", req.DepositAddress)
		return skip(model.SkipNoMatch)
	case model.RBFPending:
		log.Printf("[INFO] transaction %s for request %d has RBF flag set, waiting for confirmation", out.TxID, req.ID)
		return skip(model.SkipRBFPending)
	case model.AmountMismatch:
		log.Printf("[INFO] amount mismatch for request %d. Expected: %s, Received: %s",
			req.ID, model.FormatSats(req.Amount), model.FormatSats(out.Received))
		return skip(model.SkipAmountMismatch)
	}

	log.Printf("[INFO] valid transaction %s found for request %d: %s to %s",
		out.TxID, req.ID, model.FormatSats(out.Received), req.DepositAddress)
	return c.claim(ctx, req, out, res)
}

func (c *Controller) claim(ctx context.Context, req *model.Request, out model.MatchOutcome, res model.RequestResult) (model.RequestResult, error) {
	log.Printf("[INFO] accepting boost request %d", req.ID)

	err := c.repo.Claim(ctx, req.ID)
	switch {
	case err == nil:
		c.registry.Mark(out.TxID)
		res.State = model.StateClaimed
		fee := model.ExpectedFee(req.Amount, req.MaxFeePercentage)
		log.Printf("[INFO] successfully accepted boost request %d, expected fee earnings: %s (%.2f%%)",
			req.ID, c.unit.Format(fee), req.MaxFeePercentage)
		return res, nil
	case errors.Is(err, ledger.ErrAlreadyClaimed):
		res.State = model.StateRaceLost
		res.Error = err.Error()
		log.Printf("[INFO] request %d was already accepted by another booster", req.ID)
		return res, nil
	default:
		res.State = model.StateFailed
		log.Printf("[ERROR] failed to accept boost request %d: %v", req.ID, err)
		return res, err
	}
}
