package pendingvotes_test

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FinnTew/gravity-sdk/consensus/hotstuff/committee"
	"github.com/FinnTew/gravity-sdk/consensus/hotstuff/model"
	"github.com/FinnTew/gravity-sdk/consensus/hotstuff/pendingvotes"
)

func voter(b byte) model.VoterID {
	var v model.VoterID
	v[0] = b
	return v
}

func blockHash(b byte) model.Hash {
	var h model.Hash
	h[0] = b
	return h
}

// fourEqualVoters gives each of four voters equal power 1 (total 4), so
// the Byzantine quorum threshold ceil(2*4/3) = 3.
func fourEqualVoters() *committee.StaticVerifier {
	return committee.NewStaticVerifier(map[model.VoterID]uint64{
		voter(1): 1,
		voter(2): 1,
		voter(3): 1,
		voter(4): 1,
	}, nil)
}

func regularVote(v model.VoterID, round model.Round, hash model.Hash) *model.Vote {
	return &model.Vote{
		VoterID: v,
		VoteData: model.VoteData{
			ProposedBlockHash: hash,
			ProposedRound:     round,
		},
	}
}

func timeoutVote(v model.VoterID, round model.Round) *model.Vote {
	return &model.Vote{
		VoterID: v,
		VoteData: model.VoteData{
			ProposedRound: round,
			IsTimeout:     true,
		},
	}
}

func TestAggregator_EagerMode_ReachesQuorumOnThirdVote(t *testing.T) {
	verifier := fourEqualVoters()
	agg := pendingvotes.NewAggregator(zerolog.Nop(), 5, pendingvotes.Eager(), nil)
	hash := blockHash(1)

	r1 := agg.InsertVote(regularVote(voter(1), 5, hash), verifier)
	assert.Equal(t, pendingvotes.VoteAdded, r1.Kind)

	r2 := agg.InsertVote(regularVote(voter(2), 5, hash), verifier)
	assert.Equal(t, pendingvotes.VoteAdded, r2.Kind)

	r3 := agg.InsertVote(regularVote(voter(3), 5, hash), verifier)
	require.Equal(t, pendingvotes.NewQuorumCertificate, r3.Kind)
	require.NotNil(t, r3.QC)
	assert.Equal(t, model.Round(5), r3.QC.Round)
	assert.Equal(t, hash, r3.QC.BlockHash)
	assert.Len(t, r3.QC.Signers, 3)
}

func TestAggregator_DuplicateVoteIsRejected(t *testing.T) {
	verifier := fourEqualVoters()
	agg := pendingvotes.NewAggregator(zerolog.Nop(), 1, pendingvotes.Eager(), nil)
	hash := blockHash(1)

	agg.InsertVote(regularVote(voter(1), 1, hash), verifier)
	r := agg.InsertVote(regularVote(voter(1), 1, hash), verifier)
	assert.Equal(t, pendingvotes.DuplicateVote, r.Kind)
}

func TestAggregator_EquivocationIsDetected(t *testing.T) {
	verifier := fourEqualVoters()
	agg := pendingvotes.NewAggregator(zerolog.Nop(), 1, pendingvotes.Eager(), nil)

	agg.InsertVote(regularVote(voter(1), 1, blockHash(1)), verifier)
	r := agg.InsertVote(regularVote(voter(1), 1, blockHash(2)), verifier)
	require.Equal(t, pendingvotes.Equivocation, r.Kind)
	require.NotNil(t, r.EquivocationProof)
	assert.Equal(t, voter(1), r.EquivocationProof.Voter)
}

func TestAggregator_TimeoutVotesReachQuorumIndependentlyOfRegularVotes(t *testing.T) {
	verifier := fourEqualVoters()
	agg := pendingvotes.NewAggregator(zerolog.Nop(), 3, pendingvotes.Eager(), nil)

	agg.InsertVote(regularVote(voter(1), 3, blockHash(1)), verifier)
	agg.InsertVote(timeoutVote(voter(2), 3), verifier)
	agg.InsertVote(timeoutVote(voter(3), 3), verifier)
	r := agg.InsertVote(timeoutVote(voter(4), 3), verifier)

	require.Equal(t, pendingvotes.NewTimeoutCertificate, r.Kind)
	require.NotNil(t, r.TC)
	assert.Equal(t, model.Round(3), r.TC.Round)
	assert.Len(t, r.TC.Signers, 3)
}

func TestAggregator_DelayedMode_DefersMaterializationUntilProcessDelayedQC(t *testing.T) {
	verifier := fourEqualVoters()
	delayedCh := make(chan pendingvotes.DelayedQcMsgEnvelope, 1)
	agg := pendingvotes.NewAggregator(zerolog.Nop(), 7, pendingvotes.DelayedMode(50), delayedCh)
	hash := blockHash(9)

	agg.InsertVote(regularVote(voter(1), 7, hash), verifier)
	agg.InsertVote(regularVote(voter(2), 7, hash), verifier)
	quorumVote := regularVote(voter(3), 7, hash)
	r := agg.InsertVote(quorumVote, verifier)
	require.Equal(t, pendingvotes.VoteAddedQCDelayed, r.Kind)

	var envelope pendingvotes.DelayedQcMsgEnvelope
	select {
	case envelope = <-delayedCh:
	default:
		t.Fatal("expected a delayed-QC message to be sent")
	}
	assert.Equal(t, model.Round(7), envelope.Round)

	// A further vote arriving before the delayed QC is processed must not
	// re-trigger the delayed-QC message.
	r4 := agg.InsertVote(regularVote(voter(4), 7, hash), verifier)
	assert.Equal(t, pendingvotes.VoteAdded, r4.Kind)

	final := agg.ProcessDelayedQC(verifier, envelope.Msg.Vote)
	require.Equal(t, pendingvotes.NewQuorumCertificate, final.Kind)
	require.NotNil(t, final.QC)
	assert.Len(t, final.QC.Signers, 4, "the QC should batch every signature gathered before materialization")

	// A second ProcessDelayedQC call for an already-materialized QC must
	// be a no-op, not a second NewQuorumCertificate.
	again := agg.ProcessDelayedQC(verifier, envelope.Msg.Vote)
	assert.Equal(t, pendingvotes.VoteAdded, again.Kind)
}

func TestAggregator_DrainVotes_ClearsAggregatorAndReturnsPartials(t *testing.T) {
	verifier := fourEqualVoters()
	agg := pendingvotes.NewAggregator(zerolog.Nop(), 2, pendingvotes.Eager(), nil)
	hash := blockHash(1)

	agg.InsertVote(regularVote(voter(1), 2, hash), verifier)
	agg.InsertVote(timeoutVote(voter(2), 2), verifier)

	regular, timeoutAg := agg.DrainVotes()
	require.Contains(t, regular, hash)
	require.NotNil(t, timeoutAg)

	regularAgain, timeoutAgain := agg.DrainVotes()
	assert.Nil(t, regularAgain)
	assert.Nil(t, timeoutAgain)
}
