package pendingvotes

import (
	"github.com/FinnTew/gravity-sdk/consensus/hotstuff/model"
)

// ResultKind discriminates the outcome of submitting a vote or delayed-QC
// message to the aggregator (spec §4.2).
type ResultKind uint8

const (
	// VoteAdded: accepted, quorum not yet reached.
	VoteAdded ResultKind = iota
	// NewQuorumCertificate: this vote produced a fresh QC.
	NewQuorumCertificate
	// NewTimeoutCertificate: this vote produced a fresh TC.
	NewTimeoutCertificate
	// DuplicateVote: same voter, same content already counted.
	DuplicateVote
	// Equivocation: voter signed two conflicting votes at the same round.
	Equivocation
	// UnexpectedRound: vote's proposed round != current round.
	UnexpectedRound
	// MalformedVote: signature invalid, unknown voter, or zero power.
	MalformedVote
	// VoteAddedQCDelayed: quorum reached but aggregator is delaying
	// materialization to batch further signatures.
	VoteAddedQCDelayed
)

func (k ResultKind) String() string {
	switch k {
	case VoteAdded:
		return "VoteAdded"
	case NewQuorumCertificate:
		return "NewQuorumCertificate"
	case NewTimeoutCertificate:
		return "NewTimeoutCertificate"
	case DuplicateVote:
		return "DuplicateVote"
	case Equivocation:
		return "Equivocation"
	case UnexpectedRound:
		return "UnexpectedRound"
	case MalformedVote:
		return "MalformedVote"
	case VoteAddedQCDelayed:
		return "VoteAddedQCDelayed"
	default:
		return "Unknown"
	}
}

// Result is the tagged outcome of VoteReceptionResult (spec §4.2). Only the
// fields relevant to Kind are populated; callers switch on Kind, matching
// the teacher's exhaustive-switch-over-discriminant idiom used for
// hotstuff.TimeoutProcessor error classification.
type Result struct {
	Kind ResultKind

	// AggregatedVotingPower is set for VoteAdded.
	AggregatedVotingPower uint64

	// QC is set for NewQuorumCertificate.
	QC *model.QuorumCert

	// TC is set for NewTimeoutCertificate.
	TC *model.TimeoutCert

	// EquivocationProof is set for Equivocation.
	EquivocationProof *model.EquivocationError

	// GotRound/ExpectedRound are set for UnexpectedRound.
	GotRound      model.Round
	ExpectedRound model.Round

	// MalformedReason is set for MalformedVote.
	MalformedReason string
}

func voteAdded(power uint64) Result {
	return Result{Kind: VoteAdded, AggregatedVotingPower: power}
}

func newQC(qc *model.QuorumCert) Result {
	return Result{Kind: NewQuorumCertificate, QC: qc}
}

func newTC(tc *model.TimeoutCert) Result {
	return Result{Kind: NewTimeoutCertificate, TC: tc}
}

func duplicateVote() Result {
	return Result{Kind: DuplicateVote}
}

func equivocation(proof *model.EquivocationError) Result {
	return Result{Kind: Equivocation, EquivocationProof: proof}
}

func unexpectedRound(got, expected model.Round) Result {
	return Result{Kind: UnexpectedRound, GotRound: got, ExpectedRound: expected}
}

// UnexpectedRoundResult builds the UnexpectedRound variant, exported for
// callers outside this package (roundstate.RoundState) that reject a vote
// or delayed-QC message before it reaches the aggregator.
func UnexpectedRoundResult(got, expected model.Round) Result {
	return unexpectedRound(got, expected)
}

func malformedVote(reason string) Result {
	return Result{Kind: MalformedVote, MalformedReason: reason}
}

func voteAddedQCDelayed() Result {
	return Result{Kind: VoteAddedQCDelayed}
}
