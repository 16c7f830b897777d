package pendingvotes

import "github.com/FinnTew/gravity-sdk/consensus/hotstuff/model"

// DelayedQCMsg carries the triggering vote of a quorum that was reached
// while the aggregator is in Delayed mode. It is re-submitted to the
// aggregator, through the same inbound mailbox that delivers votes, after
// the delay window elapses (spec §4.2, §9: "model this as a tagged message
// passed through the same inbound mailbox... not as an internal timer
// callback mutating aggregator state behind the state machine's back").
type DelayedQCMsg struct {
	Vote *model.Vote
}

// QcAggregatorMode selects how the aggregator handles reaching quorum for a
// regular QC.
type QcAggregatorMode struct {
	// Delayed is true to batch additional signatures arriving within
	// Window before materializing the QC. False selects Eager mode:
	// return NewQuorumCertificate at the instant quorum is reached.
	Delayed bool
	// Window is the delay window in Delayed mode; ignored in Eager mode.
	Window uint64 // milliseconds
}

// Eager is the QcAggregatorMode that materializes a QC the instant quorum
// is reached.
func Eager() QcAggregatorMode {
	return QcAggregatorMode{Delayed: false}
}

// DelayedMode is the QcAggregatorMode that defers QC materialization by
// windowMS to batch additional signatures.
func DelayedMode(windowMS uint64) QcAggregatorMode {
	return QcAggregatorMode{Delayed: true, Window: windowMS}
}
