package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"BoostKeeper/internal/model"
	"BoostKeeper/internal/recorder"
)

// FormatClaim formats a successful claim.
func FormatClaim(res model.RequestResult, unit model.Unit) string {
	var b strings.Builder
	fee := model.ExpectedFee(res.Amount, res.FeePercentage)
	b.WriteString(fmt.Sprintf("⚡ <b>Boost accepted</b> | request #%d\n\n", res.RequestID))
	b.WriteString(fmt.Sprintf("Amount: %s\n", unit.Format(res.Amount)))
	b.WriteString(fmt.Sprintf("Fee: %.2f%% (≈ %s)\n", res.FeePercentage, unit.Format(fee)))
	if res.TxID != "" {
		b.WriteString(fmt.Sprintf("Deposit tx: <code>%s</code>\n", html.EscapeString(res.TxID)))
	}
	return b.String()
}

// FormatBalanceLow warns that the available balance dropped under the threshold.
func FormatBalanceLow(balance, threshold uint64, unit model.Unit) string {
	return fmt.Sprintf("⚠️ <b>Low booster balance</b>\n\nAvailable: %s\nMinimum: %s\nTop up the booster account to keep accepting requests.",
		unit.Format(balance), unit.Format(threshold))
}

// FormatBalance formats the booster account for the /balance command.
func FormatBalance(acct *model.BoosterAccount, unit model.Unit) string {
	var b strings.Builder
	b.WriteString("💰 <b>Booster account</b>\n\n")
	b.WriteString(fmt.Sprintf("Owner: <code>%s</code>\n", html.EscapeString(acct.Owner)))
	b.WriteString(fmt.Sprintf("Available: %s\n", unit.Format(acct.AvailableBalance)))
	b.WriteString(fmt.Sprintf("Total deposited: %s\n", unit.Format(acct.TotalDeposited)))
	if !acct.UpdatedAt.IsZero() {
		b.WriteString(fmt.Sprintf("Updated: %s\n", acct.UpdatedAt.Format("2006-01-02 15:04")))
	}
	return b.String()
}

// FormatPending lists pending requests, at most limit of them.
func FormatPending(reqs []model.Request, unit model.Unit, limit int) string {
	if len(reqs) == 0 {
		return "📭 No pending boost requests."
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📋 <b>Pending boost requests</b> (%d)\n\n", len(reqs)))
	for i, r := range reqs {
		if limit > 0 && i >= limit {
			b.WriteString(fmt.Sprintf("… and %d more\n", len(reqs)-limit))
			break
		}
		addr := r.DepositAddress
		if addr == "" {
			addr = "no address"
		}
		b.WriteString(fmt.Sprintf("#%d %s @ %.2f%% → %s\n", r.ID, unit.Format(r.Amount), r.MaxFeePercentage, html.EscapeString(addr)))
	}
	return b.String()
}

// FormatStatus formats the last cycle summary for the /status command.
func FormatStatus(sum *model.CycleSummary, unit model.Unit) string {
	if sum == nil {
		return "⏳ No cycle has completed yet."
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🔁 <b>Last cycle</b> | %s\n\n", sum.StartedAt.Format("2006-01-02 15:04:05")))
	if sum.FatalError != "" {
		b.WriteString(fmt.Sprintf("❌ %s\n", html.EscapeString(sum.FatalError)))
		return b.String()
	}
	b.WriteString(fmt.Sprintf("Pending: %d | Balance: %s\n", sum.Pending, unit.Format(sum.Balance)))
	b.WriteString(fmt.Sprintf("Claimed: %d | Race lost: %d | Failed: %d | Skipped: %d\n",
		sum.Claimed, sum.RaceLost, sum.Failed, sum.Skipped))
	b.WriteString(fmt.Sprintf("Duration: %s\n", sum.Duration.Round(time.Millisecond)))
	return b.String()
}

// FormatSummary formats the daily activity report.
func FormatSummary(s *recorder.Summary, unit model.Unit) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📅 <b>Daily summary</b> | since %s\n\n", s.Since.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Cycles: %d\n", s.Cycles))
	b.WriteString(fmt.Sprintf("Claimed: %d | Race lost: %d | Failed: %d\n", s.Claimed, s.RaceLost, s.Failed))
	b.WriteString(fmt.Sprintf("Volume: %s\n", unit.Format(s.Volume)))
	b.WriteString(fmt.Sprintf("Expected fees: %s\n", unit.Format(s.ExpectedFees)))
	return b.String()
}
