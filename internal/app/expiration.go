package app

import (
	"time"

	"github.com/alexanderramin/phasehours/internal/expiry"
)

// ExpiredAllocation is a detector finding together with the unplanned record
// written for it.
type ExpiredAllocation struct {
	expiry.Finding
	UnplannedID string
}

// ExpirationReport summarises one detector run. Skipped and Failed are keyed
// by allocation id.
type ExpirationReport struct {
	RanAt   time.Time
	Scanned int
	Created []ExpiredAllocation
	Skipped map[string]expiry.SkipReason
	Failed  map[string]string
}
