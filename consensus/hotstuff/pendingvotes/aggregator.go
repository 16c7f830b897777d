// Package pendingvotes implements the Pending Votes Aggregator (spec §4.2):
// it collects partial signatures from remote voters until a quorum is
// reached for either a regular QC or a TC for the current round,
// deduplicating Byzantine behavior and surfacing outcomes through the
// Result discriminant.
package pendingvotes

import (
	"github.com/rs/zerolog"

	"github.com/FinnTew/gravity-sdk/consensus/hotstuff/committee"
	"github.com/FinnTew/gravity-sdk/consensus/hotstuff/model"
	"github.com/FinnTew/gravity-sdk/consensus/hotstuff/signature"
)

type recordedVote struct {
	dataHash model.Hash
	voteData model.VoteData
}

// Aggregator accumulates partial signatures for a single round. A fresh
// Aggregator is created for every round (spec §9's "drain then replace");
// it is not reused across rounds.
type Aggregator struct {
	log   zerolog.Logger
	round model.Round
	mode  QcAggregatorMode

	regular   map[model.Hash]*model.LedgerInfoWithPartialSignatures
	timeoutAg *model.TimeoutPartialAggregate

	regularVoters map[model.VoterID]recordedVote
	timeoutVoters map[model.VoterID]recordedVote

	qcMaterialized bool
	tcMaterialized bool

	// pendingDelayedHash is set once, the first time a regular quorum is
	// reached in Delayed mode, to the hash whose quorum triggered the
	// delayed-QC message.
	pendingDelayedHash model.Hash
	delayedQCSent      bool

	delayedQCTx chan<- DelayedQcMsgEnvelope
	sigAgg      signature.Aggregator
}

// DelayedQcMsgEnvelope pairs a DelayedQCMsg with the round it was produced
// at, so a consumer can route it back to InsertVote/ProcessDelayedQC of the
// right round (a stale message, for a round that has since advanced, is
// dropped by RoundState.ProcessDelayedQCMsg's UnexpectedRound path).
type DelayedQcMsgEnvelope struct {
	Round model.Round
	Msg   DelayedQCMsg
}

// NewAggregator constructs a fresh Aggregator for round. delayedQCTx may be
// nil if mode is Eager.
func NewAggregator(log zerolog.Logger, round model.Round, mode QcAggregatorMode, delayedQCTx chan<- DelayedQcMsgEnvelope) *Aggregator {
	return &Aggregator{
		log:           log.With().Uint64("round", uint64(round)).Logger(),
		round:         round,
		mode:          mode,
		regular:       make(map[model.Hash]*model.LedgerInfoWithPartialSignatures),
		regularVoters: make(map[model.VoterID]recordedVote),
		timeoutVoters: make(map[model.VoterID]recordedVote),
		delayedQCTx:   delayedQCTx,
		sigAgg:        signature.ConcatAggregator{},
	}
}

// InsertVote accepts a vote, verifying it against verifier and updating the
// appropriate partial aggregate (spec §4.2). The caller (RoundState) has
// already checked vote.VoteData.ProposedRound == current round.
func (a *Aggregator) InsertVote(vote *model.Vote, verifier committee.ValidatorVerifier) Result {
	power := verifier.VotingPower(vote.VoterID)
	if power == 0 {
		return malformedVote("unknown voter or zero voting power")
	}
	if err := verifier.Verify(vote.VoterID, vote.VoteData.ProposedBlockHash[:], vote.Signature); err != nil {
		return malformedVote(err.Error())
	}

	if vote.IsTimeout() {
		return a.insertTimeoutVote(vote, power, verifier)
	}
	return a.insertRegularVote(vote, power, verifier)
}

func (a *Aggregator) insertRegularVote(vote *model.Vote, power uint64, verifier committee.ValidatorVerifier) Result {
	dataHash := vote.ID()
	if prior, ok := a.regularVoters[vote.VoterID]; ok {
		if prior.dataHash == dataHash {
			return duplicateVote()
		}
		return equivocation(&model.EquivocationError{
			Voter:           vote.VoterID,
			Round:           a.round,
			FirstVote:       prior.voteData,
			ConflictingVote: vote.VoteData,
		})
	}
	a.regularVoters[vote.VoterID] = recordedVote{dataHash: dataHash, voteData: vote.VoteData}

	hash := vote.VoteData.ProposedBlockHash
	agg, ok := a.regular[hash]
	if !ok {
		agg = &model.LedgerInfoWithPartialSignatures{
			VoteData:   vote.VoteData,
			Signatures: make(map[model.VoterID]model.Signature),
		}
		a.regular[hash] = agg
	}
	agg.Signatures[vote.VoterID] = vote.Signature
	agg.AggregatedPower += power

	if a.qcMaterialized || !verifier.CheckVotingPower(agg.AggregatedPower) {
		return voteAdded(agg.AggregatedPower)
	}

	switch {
	case !a.mode.Delayed:
		a.qcMaterialized = true
		return newQC(a.buildQC(hash, agg))
	case !a.delayedQCSent:
		a.delayedQCSent = true
		a.pendingDelayedHash = hash
		if a.delayedQCTx != nil {
			a.delayedQCTx <- DelayedQcMsgEnvelope{Round: a.round, Msg: DelayedQCMsg{Vote: vote}}
		}
		return voteAddedQCDelayed()
	default:
		return voteAdded(agg.AggregatedPower)
	}
}

func (a *Aggregator) insertTimeoutVote(vote *model.Vote, power uint64, verifier committee.ValidatorVerifier) Result {
	dataHash := vote.ID()
	if prior, ok := a.timeoutVoters[vote.VoterID]; ok {
		if prior.dataHash == dataHash {
			return duplicateVote()
		}
		return equivocation(&model.EquivocationError{
			Voter:           vote.VoterID,
			Round:           a.round,
			FirstVote:       prior.voteData,
			ConflictingVote: vote.VoteData,
		})
	}
	a.timeoutVoters[vote.VoterID] = recordedVote{dataHash: dataHash, voteData: vote.VoteData}

	if a.timeoutAg == nil {
		a.timeoutAg = &model.TimeoutPartialAggregate{
			Round:      a.round,
			Signatures: make(map[model.VoterID]model.Signature),
		}
	}
	a.timeoutAg.Signatures[vote.VoterID] = vote.Signature
	a.timeoutAg.AggregatedPower += power

	if a.tcMaterialized || !verifier.CheckVotingPower(a.timeoutAg.AggregatedPower) {
		return voteAdded(a.timeoutAg.AggregatedPower)
	}

	a.tcMaterialized = true
	return newTC(a.buildTC())
}

// ProcessDelayedQC re-invokes the aggregator for a vote that previously
// triggered VoteAddedQCDelayed. If quorum still holds for the vote's block
// hash and no QC has been materialized yet for this round (by an earlier
// call), the QC is materialized and returned; otherwise this is
// a no-op reported as VoteAdded with the current accumulated power.
func (a *Aggregator) ProcessDelayedQC(verifier committee.ValidatorVerifier, vote *model.Vote) Result {
	hash := vote.VoteData.ProposedBlockHash
	agg, ok := a.regular[hash]
	if !ok {
		return voteAdded(0)
	}
	if a.qcMaterialized || !verifier.CheckVotingPower(agg.AggregatedPower) {
		return voteAdded(agg.AggregatedPower)
	}
	a.qcMaterialized = true
	return newQC(a.buildQC(hash, agg))
}

// DrainVotes returns the round's partial regular aggregates (by hash) and
// partial timeout aggregate, for diagnostics carried into the next
// NewRoundEvent. The Aggregator is discarded by the caller after draining
// (spec §4.2 "Draining"); it is not reset in place.
func (a *Aggregator) DrainVotes() (map[model.Hash]*model.LedgerInfoWithPartialSignatures, *model.TimeoutPartialAggregate) {
	regular, timeoutAg := a.regular, a.timeoutAg
	a.regular = nil
	a.timeoutAg = nil
	return regular, timeoutAg
}

func (a *Aggregator) buildQC(hash model.Hash, agg *model.LedgerInfoWithPartialSignatures) *model.QuorumCert {
	signers := make([]model.VoterID, 0, len(agg.Signatures))
	for voter := range agg.Signatures {
		signers = append(signers, voter)
	}
	return &model.QuorumCert{
		Round:     a.round,
		BlockHash: hash,
		Signers:   signers,
		AggSig:    a.sigAgg.Aggregate(agg.Signatures),
	}
}

func (a *Aggregator) buildTC() *model.TimeoutCert {
	signers := make([]model.VoterID, 0, len(a.timeoutAg.Signatures))
	for voter := range a.timeoutAg.Signatures {
		signers = append(signers, voter)
	}
	return &model.TimeoutCert{
		Round:   a.round,
		Signers: signers,
		AggSig:  a.sigAgg.Aggregate(a.timeoutAg.Signatures),
	}
}
