// Package roundstate implements the Round State Machine (spec §4.3): it
// tracks the current round, deadlines, and the last self-vote, delegates
// vote accumulation to pendingvotes.Aggregator and timer scheduling to
// timeout.Scheduler, and emits a NewRoundEvent every time a QC or TC
// advances the round.
package roundstate

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/FinnTew/gravity-sdk/consensus/hotstuff/committee"
	"github.com/FinnTew/gravity-sdk/consensus/hotstuff/model"
	"github.com/FinnTew/gravity-sdk/consensus/hotstuff/pendingvotes"
	"github.com/FinnTew/gravity-sdk/consensus/hotstuff/timeout"
	"github.com/FinnTew/gravity-sdk/module/metrics"
)

// RoundState contains information about the live round and moves forward
// when it observes new certificates.
//
// Not concurrency safe: like consensus/hotstuff/eventhandler.EventHandler,
// RoundState is driven by a single goroutine that serializes all mutating
// calls; other components send messages into that goroutine's mailbox
// rather than calling RoundState concurrently.
type RoundState struct {
	log zerolog.Logger

	timeInterval timeout.RoundTimeInterval
	scheduler    *timeout.Scheduler
	metrics      *metrics.Collector

	highestOrderedRound model.Round
	currentRound         model.Round
	currentRoundDeadline time.Duration

	pendingVotes *pendingvotes.Aggregator
	qcAggMode    pendingvotes.QcAggregatorMode
	delayedQCTx  chan<- pendingvotes.DelayedQcMsgEnvelope

	voteSent *model.Vote

	// timeoutCount is the number of consecutive local timeouts observed
	// for the current round. It drives the doubling of the rearmed
	// duration (spec §4.1, §4.3 op 2) and is reset to 0 every time the
	// round advances.
	timeoutCount uint
}

// Config bundles the collaborators a RoundState needs at construction.
type Config struct {
	Log          zerolog.Logger
	TimeInterval timeout.RoundTimeInterval
	Scheduler    *timeout.Scheduler
	Metrics      *metrics.Collector
	QcAggMode    pendingvotes.QcAggregatorMode
	DelayedQCTx  chan<- pendingvotes.DelayedQcMsgEnvelope
}

// New constructs a RoundState at current_round = 0, highest_ordered_round =
// 0, with an unarmed (far-future) deadline, per spec §3's lifecycle.
func New(cfg Config) *RoundState {
	m := cfg.Metrics
	if m != nil {
		m.EnsureRegistered()
	}
	rs := &RoundState{
		log:                  cfg.Log.With().Str("component", "round_state").Logger(),
		timeInterval:         cfg.TimeInterval,
		scheduler:            cfg.Scheduler,
		metrics:              cfg.Metrics,
		highestOrderedRound:  0,
		currentRound:         0,
		currentRoundDeadline: time.Duration(1<<63 - 1),
		qcAggMode:            cfg.QcAggMode,
		delayedQCTx:          cfg.DelayedQCTx,
	}
	rs.pendingVotes = pendingvotes.NewAggregator(rs.log, rs.currentRound, rs.qcAggMode, rs.delayedQCTx)
	return rs
}

// CurrentRound returns the current round.
func (rs *RoundState) CurrentRound() model.Round {
	return rs.currentRound
}

// CurrentRoundDeadline returns the deadline of the current round.
func (rs *RoundState) CurrentRoundDeadline() time.Duration {
	return rs.currentRoundDeadline
}

// VoteSent returns the vote recorded locally for the current round, if any.
func (rs *RoundState) VoteSent() *model.Vote {
	return rs.voteSent
}

// IsVoteTimeout reports whether the recorded self-vote for the current
// round is a timeout vote.
func (rs *RoundState) IsVoteTimeout() bool {
	return rs.voteSent != nil && rs.voteSent.IsTimeout()
}

// ProcessCertificates updates highest_ordered_round from sync_info and, if
// the observed certificates advance the round, drains the old aggregator,
// advances current_round, re-initializes the aggregator, clears vote_sent,
// arms a fresh timer, and returns the resulting NewRoundEvent. Returns nil
// if the round does not advance (spec §4.3 op 1).
func (rs *RoundState) ProcessCertificates(syncInfo model.SyncInfo) *model.NewRoundEvent {
	if syncInfo.HighestOrderedRound > rs.highestOrderedRound {
		rs.highestOrderedRound = syncInfo.HighestOrderedRound
	}
	rs.log.Debug().
		Uint64("round", uint64(rs.currentRound)).
		Uint64("highest_ordered_round", uint64(rs.highestOrderedRound)).
		Msg("processing certificates")

	newRound := syncInfo.HighestRound() + 1
	if newRound <= rs.currentRound {
		return nil
	}

	prevRoundVotes, prevRoundTimeoutVotes := rs.pendingVotes.DrainVotes()

	rs.currentRound = newRound
	rs.pendingVotes = pendingvotes.NewAggregator(rs.log, rs.currentRound, rs.qcAggMode, rs.delayedQCTx)
	rs.voteSent = nil
	rs.timeoutCount = 0

	duration := rs.arm(rs.timeoutCount)

	reason := model.Timeout
	if syncInfo.HighestCertifiedRound+1 == newRound {
		reason = model.QCReady
	}
	if rs.metrics != nil {
		if reason == model.QCReady {
			rs.metrics.QCRounds.Inc()
		} else {
			rs.metrics.TimeoutRounds.Inc()
		}
	}

	event := &model.NewRoundEvent{
		Round:                 rs.currentRound,
		Reason:                reason,
		Timeout:               duration,
		PrevRoundVotes:        prevRoundVotes,
		PrevRoundTimeoutVotes: prevRoundTimeoutVotes,
	}
	rs.log.Info().
		Uint64("round", uint64(event.Round)).
		Str("reason", event.Reason.String()).
		Dur("timeout", event.Timeout).
		Msg("starting new round")
	return event
}

// ProcessLocalTimeout handles a local timeout notification for round. If
// round is stale (!= current_round), it is ignored and false is returned.
// Otherwise the timer is rearmed with a doubled duration relative to the
// previous arming -- repeated local timeouts within the same stuck round
// compound (1x, 2x, 4x, ...), saturating at the configured exponent cap --
// and true is returned (spec §4.1, §4.3 op 2).
func (rs *RoundState) ProcessLocalTimeout(round model.Round) bool {
	if round != rs.currentRound {
		return false
	}
	rs.timeoutCount++
	if rs.metrics != nil {
		rs.metrics.TimeoutCount.Inc()
	}
	rs.log.Warn().Uint64("round", uint64(round)).Msg("local timeout")
	rs.arm(rs.timeoutCount)
	return true
}

// InsertVote delegates to the current round's aggregator, rejecting votes
// whose proposed round does not match the current round (spec §4.3 op 3).
func (rs *RoundState) InsertVote(vote *model.Vote, verifier committee.ValidatorVerifier) pendingvotes.Result {
	if vote.VoteData.ProposedRound != rs.currentRound {
		return pendingvotes.UnexpectedRoundResult(vote.VoteData.ProposedRound, rs.currentRound)
	}
	return rs.pendingVotes.InsertVote(vote, verifier)
}

// RecordVote remembers the local node's own vote for the current round, to
// avoid double-voting. A vote for a different round is ignored (spec §4.3
// op 4).
func (rs *RoundState) RecordVote(vote *model.Vote) {
	if vote.VoteData.ProposedRound == rs.currentRound {
		rs.voteSent = vote
	}
}

// ProcessDelayedQCMsg delegates to the aggregator's delayed path, provided
// the message is still for the current round; a message for a stale round
// is reported as UnexpectedRound and dropped (spec §5: "If the round has
// advanced, they are dropped by insert_vote's UnexpectedRound path").
func (rs *RoundState) ProcessDelayedQCMsg(verifier committee.ValidatorVerifier, envelope pendingvotes.DelayedQcMsgEnvelope) pendingvotes.Result {
	if envelope.Round != rs.currentRound {
		return pendingvotes.UnexpectedRoundResult(envelope.Round, rs.currentRound)
	}
	return rs.pendingVotes.ProcessDelayedQC(verifier, envelope.Msg.Vote)
}

func (rs *RoundState) arm(timeoutCount uint) time.Duration {
	duration := rs.scheduler.Arm(rs.currentRound, rs.highestOrderedRound, timeoutCount)
	rs.currentRoundDeadline = rs.scheduler.Deadline()
	return duration
}
