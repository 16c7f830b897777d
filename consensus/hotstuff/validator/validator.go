// Package validator checks that a QuorumCert or TimeoutCert a remote peer
// handed us actually carries a valid signer set before RoundState is asked
// to act on it: no duplicate signers, every signer a known committee
// member, and the signers' combined voting power reaching the Byzantine
// quorum threshold. Cryptographic aggregate-signature verification itself
// is out of this module's scope (spec §1) and left to the caller's
// ValidatorVerifier.
//
// Grounded on consensus/hotstuff/validator.Validator's
// ValidateQC/ValidateTC structure (participant lookup, duplicate-signer
// check, weight-threshold check, then signature check), trimmed to the
// checks this module's ValidatorVerifier contract can actually perform.
package validator

import (
	"fmt"

	"github.com/FinnTew/gravity-sdk/consensus/hotstuff/committee"
	"github.com/FinnTew/gravity-sdk/consensus/hotstuff/model"
)

// Validator validates the signer set of certificates received from peers.
type Validator struct {
	verifier committee.ValidatorVerifier
}

// New constructs a Validator backed by verifier.
func New(verifier committee.ValidatorVerifier) *Validator {
	return &Validator{verifier: verifier}
}

// ValidateQC checks qc's signer set: no duplicates, every signer known to
// the committee, and combined voting power reaching quorum.
func (v *Validator) ValidateQC(qc *model.QuorumCert) error {
	power, err := v.checkSigners(qc.Signers)
	if err != nil {
		return fmt.Errorf("invalid QC at round %d: %w", qc.Round, err)
	}
	if !v.verifier.CheckVotingPower(power) {
		return fmt.Errorf("invalid QC at round %d: signers hold insufficient voting power %d", qc.Round, power)
	}
	return nil
}

// ValidateTC checks tc's signer set the same way ValidateQC does for a QC.
func (v *Validator) ValidateTC(tc *model.TimeoutCert) error {
	power, err := v.checkSigners(tc.Signers)
	if err != nil {
		return fmt.Errorf("invalid TC at round %d: %w", tc.Round, err)
	}
	if !v.verifier.CheckVotingPower(power) {
		return fmt.Errorf("invalid TC at round %d: signers hold insufficient voting power %d", tc.Round, power)
	}
	return nil
}

func (v *Validator) checkSigners(signers []model.VoterID) (uint64, error) {
	if len(signers) == 0 {
		return 0, fmt.Errorf("empty signer set")
	}
	seen := make(map[model.VoterID]struct{}, len(signers))
	var power uint64
	for _, signer := range signers {
		if _, dup := seen[signer]; dup {
			return 0, fmt.Errorf("duplicate signer %s", signer)
		}
		seen[signer] = struct{}{}

		p := v.verifier.VotingPower(signer)
		if p == 0 {
			return 0, fmt.Errorf("unknown signer %s", signer)
		}
		power += p
	}
	return power, nil
}
