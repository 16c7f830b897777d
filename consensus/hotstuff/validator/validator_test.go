package validator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FinnTew/gravity-sdk/consensus/hotstuff/committee"
	"github.com/FinnTew/gravity-sdk/consensus/hotstuff/model"
	"github.com/FinnTew/gravity-sdk/consensus/hotstuff/validator"
)

func voter(b byte) model.VoterID {
	var v model.VoterID
	v[0] = b
	return v
}

func fourEqualVoters() *committee.StaticVerifier {
	return committee.NewStaticVerifier(map[model.VoterID]uint64{
		voter(1): 1,
		voter(2): 1,
		voter(3): 1,
		voter(4): 1,
	}, nil)
}

func TestValidateQC_AcceptsQuorumOfKnownSigners(t *testing.T) {
	v := validator.New(fourEqualVoters())
	err := v.ValidateQC(&model.QuorumCert{Round: 1, Signers: []model.VoterID{voter(1), voter(2), voter(3)}})
	assert.NoError(t, err)
}

func TestValidateQC_RejectsInsufficientVotingPower(t *testing.T) {
	v := validator.New(fourEqualVoters())
	err := v.ValidateQC(&model.QuorumCert{Round: 1, Signers: []model.VoterID{voter(1), voter(2)}})
	require.Error(t, err)
}

func TestValidateQC_RejectsDuplicateSigner(t *testing.T) {
	v := validator.New(fourEqualVoters())
	err := v.ValidateQC(&model.QuorumCert{Round: 1, Signers: []model.VoterID{voter(1), voter(1), voter(2)}})
	require.Error(t, err)
}

func TestValidateQC_RejectsUnknownSigner(t *testing.T) {
	v := validator.New(fourEqualVoters())
	err := v.ValidateQC(&model.QuorumCert{Round: 1, Signers: []model.VoterID{voter(9), voter(2), voter(3)}})
	require.Error(t, err)
}

func TestValidateTC_AcceptsQuorumOfKnownSigners(t *testing.T) {
	v := validator.New(fourEqualVoters())
	err := v.ValidateTC(&model.TimeoutCert{Round: 1, Signers: []model.VoterID{voter(1), voter(2), voter(3)}})
	assert.NoError(t, err)
}
