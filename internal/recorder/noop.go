package recorder

import (
	"time"

	"BoostKeeper/internal/model"
)

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordCycle(_ *model.CycleSummary) error { return nil }
func (n *NoopRecorder) RecordClaim(_ *ClaimEvent) error         { return nil }
func (n *NoopRecorder) Summary(since time.Time) (*Summary, error) {
	return &Summary{Since: since}, nil
}
func (n *NoopRecorder) Close() error { return nil }
