package entities

import "math"

// VoteTally is a transparency display over the full reviewer roster. It is
// derived on read and never drives status transitions.
type VoteTally struct {
	ProposalID  string
	Status      ProposalStatus
	RosterSize  int
	Approvals   int
	Rejections  int
	Pending     int
	ApprovedPct float64
	RejectedPct float64
	PendingPct  float64
	Unanimous   bool
}

// NewVoteTally counts only votes from reviewers currently on the roster, so a
// reviewer removed from the roster no longer skews the percentages.
func NewVoteTally(proposal Proposal, rosterIDs []string) VoteTally {
	tally := VoteTally{
		ProposalID: proposal.ID,
		Status:     proposal.Status,
		RosterSize: len(rosterIDs),
	}
	for _, reviewerID := range rosterIDs {
		decision, voted := proposal.Votes.DecisionOf(reviewerID)
		switch {
		case !voted:
			tally.Pending++
		case decision == DecisionApprove:
			tally.Approvals++
		default:
			tally.Rejections++
		}
	}
	if tally.RosterSize > 0 {
		tally.ApprovedPct = percent(tally.Approvals, tally.RosterSize)
		tally.RejectedPct = percent(tally.Rejections, tally.RosterSize)
		tally.PendingPct = percent(tally.Pending, tally.RosterSize)
		tally.Unanimous = tally.Approvals == tally.RosterSize
	}
	return tally
}

func percent(part int, total int) float64 {
	return math.Round(float64(part)*10000/float64(total)) / 100
}
