package v1

// Proposal lifecycle event types. The outbox relay publishes each event on the
// topic of the same name.
const (
	ProposalCreated         = "proposal.created"
	ProposalSubmitted       = "proposal.submitted"
	ProposalVoteRecorded    = "proposal.vote_recorded"
	ProposalApproved        = "proposal.approved"
	ProposalRejected        = "proposal.rejected"
	ProposalRetracted       = "proposal.retracted"
	ProposalContentReplaced = "proposal.content_replaced"
	ProposalDeleted         = "proposal.deleted"
)

// ProposalPartitionKeyPath names the payload field that orders one proposal's
// events.
const ProposalPartitionKeyPath = "proposal_id"
