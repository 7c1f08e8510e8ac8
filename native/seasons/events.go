package seasons

import (
	"strconv"
	"strings"

	"artifactledger/core/events"
	"artifactledger/core/types"
)

const (
	// EventTypeSeasonCreated is emitted when the owner opens a new season.
	EventTypeSeasonCreated = "seasons.season.created"
	// EventTypeSeasonClosed is emitted when a season is settled and closed.
	EventTypeSeasonClosed = "seasons.season.closed"
	// EventTypeSubmissionCreated is emitted when a submission joins a season.
	EventTypeSubmissionCreated = "seasons.submission.created"
	// EventTypeSubmissionBlacklisted is emitted when moderation removes a
	// submission from future sales.
	EventTypeSubmissionBlacklisted = "seasons.submission.blacklisted"
	// EventTypeArtifactMinted is emitted once per (artifact, amount) pair of a
	// successful purchase.
	EventTypeArtifactMinted = "seasons.artifact.minted"
	// EventTypeArtifactsClaimed is emitted when an artist mints against their
	// claimable balance.
	EventTypeArtifactsClaimed = "seasons.artifact.claimed"
	// EventTypeProtocolArtifactsMinted is the batch mint to the protocol
	// wallet performed during season close.
	EventTypeProtocolArtifactsMinted = "seasons.artifact.protocolMinted"
	// EventTypeTopSubmissions is emitted when a season's winner set is stored.
	EventTypeTopSubmissions = "seasons.season.topSubmissions"
	// EventTypeFeesWithdrawn is emitted when accrued protocol fees move to the
	// protocol wallet.
	EventTypeFeesWithdrawn = "seasons.fees.withdrawn"

	EventTypeUnitPriceSet            = "seasons.config.unitPriceSet"
	EventTypeProtocolWalletSet       = "seasons.config.protocolWalletSet"
	EventTypeTreasuryWalletSet       = "seasons.config.treasuryWalletSet"
	EventTypeProtocolFeePercentSet   = "seasons.config.protocolFeePercentSet"
	EventTypeTreasurySplitPercentSet = "seasons.config.treasurySplitPercentSet"
	EventTypeShutdownSet             = "seasons.config.shutdownSet"
)

type eventEnvelope struct {
	evt *types.Event
}

func (e eventEnvelope) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e eventEnvelope) Event() *types.Event { return e.evt }

// WrapEvent converts a raw event payload into the emitter-friendly envelope.
func WrapEvent(evt *types.Event) events.Event { return eventEnvelope{evt: evt} }

func formatIDs(ids []uint64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatUint(id, 10)
	}
	return strings.Join(parts, ",")
}

func seasonCreatedEvent(seasonID uint64) *types.Event {
	return &types.Event{
		Type: EventTypeSeasonCreated,
		Attributes: map[string]string{
			"seasonId": strconv.FormatUint(seasonID, 10),
		},
	}
}

func seasonClosedEvent(seasonID uint64) *types.Event {
	return &types.Event{
		Type: EventTypeSeasonClosed,
		Attributes: map[string]string{
			"seasonId": strconv.FormatUint(seasonID, 10),
		},
	}
}

func submissionCreatedEvent(artifactID uint64, artist string) *types.Event {
	return &types.Event{
		Type: EventTypeSubmissionCreated,
		Attributes: map[string]string{
			"artifactId": strconv.FormatUint(artifactID, 10),
			"artist":     artist,
		},
	}
}

func submissionBlacklistedEvent(seasonID, artifactID, soldBefore uint64) *types.Event {
	return &types.Event{
		Type: EventTypeSubmissionBlacklisted,
		Attributes: map[string]string{
			"seasonId":   strconv.FormatUint(seasonID, 10),
			"artifactId": strconv.FormatUint(artifactID, 10),
			"soldBefore": strconv.FormatUint(soldBefore, 10),
		},
	}
}

func artifactMintedEvent(buyer string, artifactID, amount uint64) *types.Event {
	return &types.Event{
		Type: EventTypeArtifactMinted,
		Attributes: map[string]string{
			"buyer":      buyer,
			"artifactId": strconv.FormatUint(artifactID, 10),
			"amount":     strconv.FormatUint(amount, 10),
		},
	}
}

func artifactsClaimedEvent(claimant string, artifactID, amount uint64, ts int64) *types.Event {
	return &types.Event{
		Type: EventTypeArtifactsClaimed,
		Attributes: map[string]string{
			"artist":     claimant,
			"artifactId": strconv.FormatUint(artifactID, 10),
			"amount":     strconv.FormatUint(amount, 10),
			"timestamp":  strconv.FormatInt(ts, 10),
		},
	}
}

func protocolArtifactsMintedEvent(seasonID uint64, wallet string, ids, amounts []uint64) *types.Event {
	return &types.Event{
		Type: EventTypeProtocolArtifactsMinted,
		Attributes: map[string]string{
			"seasonId":    strconv.FormatUint(seasonID, 10),
			"wallet":      wallet,
			"artifactIds": formatIDs(ids),
			"amounts":     formatIDs(amounts),
		},
	}
}

func topSubmissionsEvent(seasonID uint64, ids []uint64) *types.Event {
	return &types.Event{
		Type: EventTypeTopSubmissions,
		Attributes: map[string]string{
			"seasonId":    strconv.FormatUint(seasonID, 10),
			"artifactIds": formatIDs(ids),
		},
	}
}

func feesWithdrawnEvent(wallet string, amount string) *types.Event {
	return &types.Event{
		Type: EventTypeFeesWithdrawn,
		Attributes: map[string]string{
			"wallet": wallet,
			"amount": amount,
		},
	}
}

func configSetEvent(eventType, key, value string) *types.Event {
	return &types.Event{
		Type: eventType,
		Attributes: map[string]string{
			key: value,
		},
	}
}
