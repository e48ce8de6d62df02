package commands

import (
	"context"
	"encoding/json"
	"time"

	"maestro/contexts/content-governance/proposal-lifecycle/domain/entities"
	"maestro/contexts/content-governance/proposal-lifecycle/ports"
	eventsv1 "maestro/contracts/gen/events/v1"
)

const (
	EventProposalCreated         = eventsv1.ProposalCreated
	EventProposalSubmitted       = eventsv1.ProposalSubmitted
	EventProposalVoteRecorded    = eventsv1.ProposalVoteRecorded
	EventProposalApproved        = eventsv1.ProposalApproved
	EventProposalRejected        = eventsv1.ProposalRejected
	EventProposalRetracted       = eventsv1.ProposalRetracted
	EventProposalContentReplaced = eventsv1.ProposalContentReplaced
	EventProposalDeleted         = eventsv1.ProposalDeleted
)

func newLifecycleEnvelope(
	eventID string,
	eventType string,
	proposalID string,
	occurredAt time.Time,
	data map[string]any,
) (ports.EventEnvelope, error) {
	// Partitioned by proposal so consumers observe one proposal's events in order.
	payload, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    "proposal-lifecycle",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: eventsv1.ProposalPartitionKeyPath,
		PartitionKey:     proposalID,
		Data:             payload,
	}, nil
}

// appendEvent writes one event to the outbox. A nil outbox is a no-op for
// pure test wiring.
func (uc LifecycleUseCase) appendEvent(
	ctx context.Context,
	eventType string,
	proposal entities.Proposal,
	occurredAt time.Time,
	extra map[string]any,
) error {
	if uc.Outbox == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	data := proposalEventData(proposal)
	data["occurred_at"] = occurredAt.UTC().Format(time.RFC3339Nano)
	for key, value := range extra {
		data[key] = value
	}
	envelope, err := newLifecycleEnvelope(eventID, eventType, proposal.ID, occurredAt, data)
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, envelope)
}

// publishAll appends events after the state change is durable. An outbox
// failure is logged and returned, but the state change stands.
func (uc LifecycleUseCase) publishAll(ctx context.Context, occurredAt time.Time, events ...pendingEvent) error {
	for _, event := range events {
		if err := uc.appendEvent(ctx, event.eventType, event.proposal, occurredAt, event.extra); err != nil {
			uc.logger().Error("proposal event append failed",
				"event", "proposal_event_append_failed",
				"module", moduleName,
				"layer", "application",
				"event_type", event.eventType,
				"proposal_id", event.proposal.ID,
				"error", err.Error(),
			)
			return err
		}
	}
	return nil
}

type pendingEvent struct {
	eventType string
	proposal  entities.Proposal
	extra     map[string]any
}

// proposalEventData is the projection consumers rebuild distribution state
// from, so it carries the full current content.
func proposalEventData(proposal entities.Proposal) map[string]any {
	data := map[string]any{
		"proposal_id":          proposal.ID,
		"title":                proposal.Title,
		"description":          proposal.Description,
		"category":             string(proposal.Category),
		"target_tier":          proposal.TargetTier,
		"author_id":            proposal.AuthorID,
		"author_name":          proposal.AuthorName,
		"status":               string(proposal.Status),
		"distributable":        proposal.Distributable,
		"featured":             proposal.Featured,
		"sort_index":           proposal.SortIndex,
		"original_proposal_id": proposal.OriginalProposalID,
		"revision":             proposal.Revision,
		"content":              entities.SortBlocks(proposal.Content),
	}
	if proposal.ApprovedAt != nil {
		data["approved_at"] = proposal.ApprovedAt.UTC().Format(time.RFC3339Nano)
	}
	return data
}
