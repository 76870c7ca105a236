package service

import (
	"github.com/alexanderramin/phasehours/internal/domain"
)

// Capabilities answers who may act. Identity comes from outside; the checks
// only look at entities the caller has already loaded.
type Capabilities interface {
	IsGrowthTeam(userID string) bool
	IsPhaseManager(phase *domain.Phase, userID string) bool
	IsConsultant(alloc *domain.PhaseAllocation, userID string) bool
	// GrowthTeam lists the members to notify about pending decisions.
	GrowthTeam() []string
}

// StaticCapabilities reads Growth Team membership from configuration and
// phase management from the phase record.
type StaticCapabilities struct {
	members []string
	growth  map[string]bool
}

func NewStaticCapabilities(growthTeam []string) *StaticCapabilities {
	c := &StaticCapabilities{growth: make(map[string]bool, len(growthTeam))}
	for _, id := range growthTeam {
		if id == "" || c.growth[id] {
			continue
		}
		c.growth[id] = true
		c.members = append(c.members, id)
	}
	return c
}

func (c *StaticCapabilities) IsGrowthTeam(userID string) bool {
	return c.growth[userID]
}

func (c *StaticCapabilities) IsPhaseManager(phase *domain.Phase, userID string) bool {
	return phase != nil && userID != "" && phase.ProductManagerID == userID
}

func (c *StaticCapabilities) IsConsultant(alloc *domain.PhaseAllocation, userID string) bool {
	return alloc != nil && userID != "" && alloc.ConsultantID == userID
}

func (c *StaticCapabilities) GrowthTeam() []string {
	return append([]string(nil), c.members...)
}
