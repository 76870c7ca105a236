package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alexanderramin/phasehours/internal/domain"
	"github.com/alexanderramin/phasehours/internal/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sumCommitments(lines []domain.Commitment) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Hours)
	}
	return total
}

func TestCommitmentRepo_ConsultantLines(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	proj, source := seedPhase(t, db)
	target := testutil.NewTestPhase(proj.ID, "Build")
	rejectedPhase := testutil.NewTestPhase(proj.ID, "Polish")
	phases := NewSQLitePhaseRepo(db)
	require.NoError(t, phases.Upsert(ctx, target))
	require.NoError(t, phases.Upsert(ctx, rejectedPhase))

	// 40h expired with 20h undistributed holds 20h.
	_, u := seedExpired(t, db, source.ID, "c-1", "40", "20")

	allocs := NewSQLiteAllocationRepo(db)
	dest := testutil.NewTestAllocation(target.ID, "c-1", "60", testutil.WithAllocationStatus(domain.AllocationApproved))
	require.NoError(t, allocs.Create(ctx, dest))
	require.NoError(t, allocs.Create(ctx, testutil.NewTestAllocation(rejectedPhase.ID, "c-1", "30",
		testutil.WithAllocationStatus(domain.AllocationRejected))))
	require.NoError(t, allocs.Create(ctx, testutil.NewTestAllocation(target.ID, "c-2", "25")))

	require.NoError(t, NewSQLiteProposalRepo(db).Create(ctx, &domain.ReallocationProposal{
		ID:                      uuid.New().String(),
		DestinationAllocationID: dest.ID,
		UnplannedID:             u.ID,
		SourcePhaseID:           source.ID,
		ConsultantID:            "c-1",
		Hours:                   testutil.Hours("20"),
		RequestedBy:             "pm-1",
		RequestedAt:             time.Now().UTC(),
	}))

	repo := NewSQLiteCommitmentRepo(db)
	lines, err := repo.ListForConsultant(ctx, proj.ID, "c-1")
	require.NoError(t, err)
	require.Len(t, lines, 4)
	assert.Equal(t, "100", sumCommitments(lines).String())

	var proposals int
	for _, l := range lines {
		assert.Equal(t, "c-1", l.ConsultantID)
		if l.Source == domain.CommitmentProposal {
			proposals++
			assert.Equal(t, target.ID, l.PhaseID)
		}
	}
	assert.Equal(t, 1, proposals)

	project, err := repo.ListForProject(ctx, proj.ID)
	require.NoError(t, err)
	assert.Len(t, project, 5)
	assert.Equal(t, "125", sumCommitments(project).String())
}

func TestCommitmentRepo_OtherProjectsIgnored(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	_, phase := seedPhase(t, db)
	require.NoError(t, NewSQLiteAllocationRepo(db).Create(ctx, testutil.NewTestAllocation(phase.ID, "c-1", "10")))

	lines, err := NewSQLiteCommitmentRepo(db).ListForConsultant(ctx, "other-project", "c-1")
	require.NoError(t, err)
	assert.Empty(t, lines)
}
