package contract

import (
	"sort"
	"time"

	"github.com/alexanderramin/phasehours/internal/app"
	"github.com/shopspring/decimal"
)

// ExpirationResponse summarises a detector run.
type ExpirationResponse struct {
	RanAt   string            `json:"ranAt"`
	Scanned int               `json:"scanned"`
	Created []ExpiredDTO      `json:"created"`
	Skipped map[string]string `json:"skipped,omitempty"`
	Failed  map[string]string `json:"failed,omitempty"`
}

type ExpiredDTO struct {
	AllocationID   string          `json:"allocationId"`
	PhaseID        string          `json:"phaseId"`
	ConsultantID   string          `json:"consultantId"`
	UnplannedID    string          `json:"unplannedId"`
	TotalHours     decimal.Decimal `json:"totalHours"`
	PlannedHours   decimal.Decimal `json:"plannedHours"`
	UnplannedHours decimal.Decimal `json:"unplannedHours"`
}

func FromExpiration(r *app.ExpirationReport) ExpirationResponse {
	out := ExpirationResponse{
		RanAt:   r.RanAt.UTC().Format(time.RFC3339),
		Scanned: r.Scanned,
		Created: make([]ExpiredDTO, 0, len(r.Created)),
		Failed:  r.Failed,
	}
	for _, c := range r.Created {
		out.Created = append(out.Created, ExpiredDTO{
			AllocationID:   c.AllocationID,
			PhaseID:        c.PhaseID,
			ConsultantID:   c.ConsultantID,
			UnplannedID:    c.UnplannedID,
			TotalHours:     c.TotalHours,
			PlannedHours:   c.PlannedHours,
			UnplannedHours: c.UnplannedHours,
		})
	}
	sort.Slice(out.Created, func(i, j int) bool { return out.Created[i].AllocationID < out.Created[j].AllocationID })
	if len(r.Skipped) > 0 {
		out.Skipped = make(map[string]string, len(r.Skipped))
		for id, reason := range r.Skipped {
			out.Skipped[id] = string(reason)
		}
	}
	return out
}
