package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	application "maestro/contexts/content-governance/proposal-lifecycle/application"
	"maestro/contexts/content-governance/proposal-lifecycle/domain/entities"
	domainerrors "maestro/contexts/content-governance/proposal-lifecycle/domain/errors"
	"maestro/contexts/content-governance/proposal-lifecycle/ports"
)

const moduleName = "content-governance/proposal-lifecycle"

// LifecycleUseCase orchestrates proposal commands. Every command validates
// before it writes, and a failed command leaves the store unchanged. Logical
// failures are returned as-is; nothing here retries.
type LifecycleUseCase struct {
	Proposals      ports.ProposalRepository
	Authority      ports.AuthorityResolver
	Identities     ports.IdentityDirectory
	Idempotency    ports.IdempotencyStore
	Outbox         ports.OutboxWriter
	Clock          ports.Clock
	IDGen          ports.IDGenerator
	IdempotencyTTL time.Duration
	Logger         *slog.Logger
}

func (uc LifecycleUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}

func (uc LifecycleUseCase) resolveIdempotencyTTL() time.Duration {
	if uc.IdempotencyTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return uc.IdempotencyTTL
}

// replay returns the proposal previously created under key, if any. An empty
// key disables idempotency for the call.
func (uc LifecycleUseCase) replay(
	ctx context.Context,
	key string,
	requestHash string,
	now time.Time,
) (entities.Proposal, bool, error) {
	key = strings.TrimSpace(key)
	if key == "" || uc.Idempotency == nil {
		return entities.Proposal{}, false, nil
	}
	record, found, err := uc.Idempotency.GetIdempotency(ctx, key, now)
	if err != nil || !found {
		return entities.Proposal{}, false, err
	}
	if record.RequestHash != requestHash {
		return entities.Proposal{}, false, domainerrors.ErrIdempotencyConflict
	}
	proposal, err := uc.Proposals.GetProposal(ctx, record.ProposalID)
	if err != nil {
		return entities.Proposal{}, false, err
	}
	return proposal, true, nil
}

func (uc LifecycleUseCase) remember(
	ctx context.Context,
	key string,
	requestHash string,
	proposalID string,
	now time.Time,
) error {
	key = strings.TrimSpace(key)
	if key == "" || uc.Idempotency == nil {
		return nil
	}
	return uc.Idempotency.PutIdempotency(ctx, ports.IdempotencyRecord{
		Key:         key,
		RequestHash: requestHash,
		ProposalID:  proposalID,
		ExpiresAt:   now.Add(uc.resolveIdempotencyTTL()),
	})
}

// lookupEmail resolves the actor's email; unknown actors resolve to "".
func (uc LifecycleUseCase) lookupEmail(ctx context.Context, actorID string) (string, error) {
	if uc.Identities == nil {
		return "", nil
	}
	identity, found, err := uc.Identities.LookupIdentity(ctx, actorID)
	if err != nil {
		return "", err
	}
	if !found {
		return "", nil
	}
	return identity.Email, nil
}

func (uc LifecycleUseCase) logFailure(logger *slog.Logger, event string, err error, attrs ...any) {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", moduleName,
		"layer", "application",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	logger.Warn("proposal command rejected", fields...)
}

func hashRequest(op string, payload any) string {
	raw, _ := json.Marshal(map[string]any{
		"op":      op,
		"payload": payload,
	})
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

func normalizeBlocks(blocks []entities.ContentBlock) ([]entities.ContentBlock, error) {
	items := entities.SortBlocks(blocks)
	for i := range items {
		items[i].ID = strings.TrimSpace(items[i].ID)
		items[i].Type = entities.NormalizeBlockType(string(items[i].Type))
	}
	if err := entities.ValidateBlocks(items); err != nil {
		return nil, domainerrors.ErrInvalidContentBlocks
	}
	return items, nil
}

func (uc LifecycleUseCase) logger() *slog.Logger {
	return application.ResolveLogger(uc.Logger)
}
