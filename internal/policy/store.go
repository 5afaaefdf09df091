package policy

import (
	"context"
	"time"

	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/schema"
)

// Store persists policy versions.
type Store interface {
	// ReadActive returns the active version, or nil when none exists.
	ReadActive(ctx context.Context) (*schema.PolicyVersion, error)
	// ReadMostRecentVersion returns the version string of the most recently
	// created row, or "" when the table is empty.
	ReadMostRecentVersion(ctx context.Context) (string, error)
	// Publish inserts v as active and then deactivates every other active
	// row. The insert must happen first so there is never a moment with
	// zero active versions.
	Publish(ctx context.Context, v schema.PolicyVersion, createdBy string) (schema.PolicyVersion, error)
}

// OutcomeFilter selects enforcement log entries for analytics.
type OutcomeFilter struct {
	// RuleTag matches entries tagged with this rule id or field.
	RuleTag string
	// Since is the inclusive lower bound on the entry timestamp.
	Since time.Time
}

// OutcomeLog reads enforcement outcomes.
type OutcomeLog interface {
	Query(ctx context.Context, f OutcomeFilter) ([]schema.OutcomeRecord, error)
}

// Clock abstracts time for analytics windows and effective dates.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Recorder receives policy-service metrics.
type Recorder interface {
	AnalyticsFailed()
	SuggestionsGenerated(n int)
}
