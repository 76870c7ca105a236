package repository

import "github.com/alexanderramin/phasehours/internal/db"

// Store bundles every repository over one DBTX. Services build one from the
// tx handed to a UnitOfWork callback so all reads and writes of an operation
// share the transaction.
type Store struct {
	Projects      ProjectRepo
	Phases        PhaseRepo
	Assignments   AssignmentRepo
	Allocations   AllocationRepo
	Weekly        WeeklyRepo
	Unplanned     UnplannedRepo
	Proposals     ProposalRepo
	Commitments   CommitmentRepo
	Notifications NotificationRepo
}

func NewStore(conn db.DBTX) *Store {
	return &Store{
		Projects:      NewSQLiteProjectRepo(conn),
		Phases:        NewSQLitePhaseRepo(conn),
		Assignments:   NewSQLiteAssignmentRepo(conn),
		Allocations:   NewSQLiteAllocationRepo(conn),
		Weekly:        NewSQLiteWeeklyRepo(conn),
		Unplanned:     NewSQLiteUnplannedRepo(conn),
		Proposals:     NewSQLiteProposalRepo(conn),
		Commitments:   NewSQLiteCommitmentRepo(conn),
		Notifications: NewSQLiteNotificationRepo(conn),
	}
}
