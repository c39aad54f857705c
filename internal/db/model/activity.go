package model

import (
	"fmt"

	"github.com/crocodiledundalk/fomolt3d/internal/game"
)

const (
	ActivityEventCollection = "activity_events"
	CheckpointCollection    = "engine_checkpoint"
)

// ActivityEvent is one reconciled program event, flattened for the activity
// feed. The _id is "<signature>:<index>", so re-inserting an already
// processed emission fails with a duplicate key error, which is the
// deduplication mechanism.
type ActivityEvent struct {
	ID         string `bson:"_id"`
	Signature  string `bson:"signature"`
	EventIndex int    `bson:"event_index"`
	Type       string `bson:"type"`
	Round      uint64 `bson:"round"`
	Wallet     string `bson:"wallet,omitempty"`
	Lamports   uint64 `bson:"lamports,omitempty"`
	Keys       uint64 `bson:"keys,omitempty"`
	Timestamp  int64  `bson:"timestamp"`
}

// Checkpoint records how far back the signature backfill has been completed.
type Checkpoint struct {
	LastProcessedSignature string `bson:"last_processed_signature"`
}

// FromLogEvent flattens a decoded event into its feed document.
func FromLogEvent(le game.LogEvent) *ActivityEvent {
	doc := &ActivityEvent{
		ID:         fmt.Sprintf("%s:%d", le.Signature, le.Index),
		Signature:  le.Signature.String(),
		EventIndex: le.Index,
		Type:       string(le.Event.EventType()),
	}

	switch ev := le.Event.(type) {
	case game.KeysPurchasedEvent:
		doc.Round = ev.Round
		doc.Wallet = ev.Player.String()
		doc.Lamports = ev.LamportsSpent
		doc.Keys = ev.KeysBought
		doc.Timestamp = ev.Timestamp
	case game.ReferralEarnedEvent:
		doc.Round = ev.Round
		doc.Wallet = ev.Referrer.String()
		doc.Lamports = ev.ReferrerLamports
		doc.Keys = ev.KeysBought
		doc.Timestamp = ev.Timestamp
	case game.GameUpdatedEvent:
		doc.Round = ev.Round
		doc.Wallet = ev.LastBuyer.String()
		doc.Lamports = ev.PotLamports
		doc.Keys = ev.TotalKeys
		doc.Timestamp = ev.Timestamp
	case game.ClaimedEvent:
		doc.Round = ev.Round
		doc.Wallet = ev.Player.String()
		doc.Lamports = ev.TotalLamports
		doc.Timestamp = ev.Timestamp
	case game.ReferralClaimedEvent:
		doc.Round = ev.Round
		doc.Wallet = ev.Player.String()
		doc.Lamports = ev.Lamports
		doc.Timestamp = ev.Timestamp
	case game.RoundStartedEvent:
		doc.Round = ev.Round
		doc.Lamports = ev.CarryOverLamports
		doc.Timestamp = ev.Timestamp
	case game.ProtocolFeeCollectedEvent:
		doc.Round = ev.Round
		doc.Wallet = ev.Recipient.String()
		doc.Lamports = ev.Lamports
		doc.Timestamp = ev.Timestamp
	case game.RoundConcludedEvent:
		doc.Round = ev.Round
		doc.Wallet = ev.Winner.String()
		doc.Lamports = ev.WinnerLamports
		doc.Keys = ev.TotalKeys
		doc.Timestamp = ev.Timestamp
	}
	return doc
}
