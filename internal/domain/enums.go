package domain

// AllocationStatus is the approval lifecycle state of a PhaseAllocation.
type AllocationStatus string

const (
	AllocationPending         AllocationStatus = "PENDING"
	AllocationApproved        AllocationStatus = "APPROVED"
	AllocationRejected        AllocationStatus = "REJECTED"
	AllocationDeletionPending AllocationStatus = "DELETION_PENDING"
	AllocationExpired         AllocationStatus = "EXPIRED"
	AllocationForfeited       AllocationStatus = "FORFEITED"
)

// AllAllocationStatuses lists every status in lifecycle order.
var AllAllocationStatuses = []AllocationStatus{
	AllocationPending,
	AllocationApproved,
	AllocationRejected,
	AllocationDeletionPending,
	AllocationExpired,
	AllocationForfeited,
}

// allocationTransitions is the closed transition table. Deletion is a removal,
// not a state, so DELETION_PENDING only lists APPROVED as a successor.
var allocationTransitions = map[AllocationStatus][]AllocationStatus{
	AllocationPending:         {AllocationApproved, AllocationRejected},
	AllocationApproved:        {AllocationPending, AllocationDeletionPending, AllocationExpired},
	AllocationRejected:        {AllocationPending},
	AllocationDeletionPending: {AllocationApproved},
	AllocationExpired:         {AllocationForfeited},
	AllocationForfeited:       nil,
}

// Valid reports whether s is one of the known statuses.
func (s AllocationStatus) Valid() bool {
	_, ok := allocationTransitions[s]
	return ok
}

// CanTransitionTo reports whether the lifecycle permits moving from s to next.
func (s AllocationStatus) CanTransitionTo(next AllocationStatus) bool {
	for _, t := range allocationTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// PlanningStatus is the decision state of a WeeklyAllocation.
type PlanningStatus string

const (
	PlanningPending  PlanningStatus = "PENDING"
	PlanningApproved PlanningStatus = "APPROVED"
	PlanningRejected PlanningStatus = "REJECTED"
)

// UnplannedStatus is the disposition of an UnplannedExpiredHours record.
type UnplannedStatus string

const (
	UnplannedExpired     UnplannedStatus = "EXPIRED"
	UnplannedForfeited   UnplannedStatus = "FORFEITED"
	UnplannedReallocated UnplannedStatus = "REALLOCATED"
)

// ValidUnplannedStatuses is the canonical set of accepted unplanned status strings.
var ValidUnplannedStatuses = map[string]bool{
	"EXPIRED": true, "FORFEITED": true, "REALLOCATED": true,
}

// DecisionAction is a Growth Team decision on an allocation or weekly plan.
type DecisionAction string

const (
	ActionApprove        DecisionAction = "approve"
	ActionReject         DecisionAction = "reject"
	ActionModify         DecisionAction = "modify"
	ActionDelete         DecisionAction = "delete"
	ActionRejectDeletion DecisionAction = "reject-deletion"
)

// ValidAllocationActions are the actions accepted by allocation decide.
var ValidAllocationActions = map[DecisionAction]bool{
	ActionApprove: true, ActionReject: true, ActionModify: true,
	ActionDelete: true, ActionRejectDeletion: true,
}

// ValidWeeklyActions are the actions accepted by weekly decide.
var ValidWeeklyActions = map[DecisionAction]bool{
	ActionApprove: true, ActionReject: true, ActionModify: true,
}

// CompositionKind tags an entry in an allocation's composition metadata.
type CompositionKind string

const (
	CompositionOriginal    CompositionKind = "original"
	CompositionReallocated CompositionKind = "reallocated"
)

// ReallocationScenario identifies how unplanned hours reached their destination.
type ReallocationScenario string

const (
	// ScenarioNewAllocation: no allocation existed in the target phase.
	ScenarioNewAllocation ReallocationScenario = "new_allocation"
	// ScenarioMergePending: destination was PENDING and absorbed the hours in place.
	ScenarioMergePending ReallocationScenario = "merge_pending"
	// ScenarioProposal: destination was APPROVED; a proposal awaits a decision.
	ScenarioProposal ReallocationScenario = "proposal"
)

// EventType names the notification emitted for a lifecycle transition.
type EventType string

const (
	EventAllocationSubmitted    EventType = "allocation_submitted"
	EventAllocationApproved     EventType = "allocation_approved"
	EventAllocationRejected     EventType = "allocation_rejected"
	EventAllocationModified     EventType = "allocation_modified"
	EventDeletionRequested      EventType = "allocation_deletion_requested"
	EventAllocationDeleted      EventType = "allocation_deleted"
	EventDeletionRejected       EventType = "allocation_deletion_rejected"
	EventWeeklyProposed         EventType = "weekly_proposed"
	EventWeeklyDecided          EventType = "weekly_decided"
	EventHoursExpired           EventType = "hours_expired"
	EventHoursForfeited         EventType = "hours_forfeited"
	EventReallocationRequested  EventType = "reallocation_requested"
	EventReallocationApproved   EventType = "reallocation_approved"
	EventReallocationRejected   EventType = "reallocation_rejected"
	EventReallocationRetargeted EventType = "reallocation_retargeted"
)
