// Package committee defines the validator-verifier collaborator consumed
// by the round-management core: signature verification, voting power
// lookup, and the Byzantine quorum threshold check. Production
// implementations (epoch lookup, BLS/ed25519 verification) live outside
// this module's scope (spec §1); this package only declares the contract
// and a deterministic in-memory implementation used by tests and the mock
// driver.
package committee

import (
	"fmt"

	"github.com/FinnTew/gravity-sdk/consensus/hotstuff/model"
)

// ValidatorVerifier supplies voter -> voting_power, the total voting
// power of the committee, and the quorum predicate. Verify performs
// cryptographic signature verification, out of this module's scope apart
// from its success/failure shape.
type ValidatorVerifier interface {
	// Verify checks that sig is a valid signature by voter over payload.
	Verify(voter model.VoterID, payload []byte, sig model.Signature) error
	// VotingPower returns the voting power assigned to voter, or 0 if
	// voter is not a known member of the committee.
	VotingPower(voter model.VoterID) uint64
	// TotalVotingPower returns the sum of voting power across the
	// committee.
	TotalVotingPower() uint64
	// CheckVotingPower reports whether accumulated voting power reaches
	// the Byzantine quorum threshold of ceil(2*total/3).
	CheckVotingPower(accumulated uint64) bool
}

// QuorumThreshold returns ceil(2*total/3), the strict Byzantine quorum
// threshold tolerating up to 1/3 faulty voting power.
func QuorumThreshold(total uint64) uint64 {
	return (2*total + 2) / 3
}

// StaticVerifier is a deterministic in-memory ValidatorVerifier over a
// fixed voter -> power map, with a pluggable signature check. Used by
// tests and cmd/mockdriver; production deployments supply their own
// ValidatorVerifier backed by the epoch/committee service (out of scope).
type StaticVerifier struct {
	powers  map[model.VoterID]uint64
	total   uint64
	verify  func(voter model.VoterID, payload []byte, sig model.Signature) error
}

// NewStaticVerifier builds a StaticVerifier from a fixed power table. If
// verify is nil, all signatures are accepted (useful for liveness-only
// tests that do not exercise cryptography).
func NewStaticVerifier(powers map[model.VoterID]uint64, verify func(model.VoterID, []byte, model.Signature) error) *StaticVerifier {
	var total uint64
	for _, p := range powers {
		total += p
	}
	if verify == nil {
		verify = func(model.VoterID, []byte, model.Signature) error { return nil }
	}
	return &StaticVerifier{powers: powers, total: total, verify: verify}
}

var _ ValidatorVerifier = (*StaticVerifier)(nil)

func (s *StaticVerifier) Verify(voter model.VoterID, payload []byte, sig model.Signature) error {
	if _, ok := s.powers[voter]; !ok {
		return fmt.Errorf("unknown voter %s", voter)
	}
	return s.verify(voter, payload, sig)
}

func (s *StaticVerifier) VotingPower(voter model.VoterID) uint64 {
	return s.powers[voter]
}

func (s *StaticVerifier) TotalVotingPower() uint64 {
	return s.total
}

func (s *StaticVerifier) CheckVotingPower(accumulated uint64) bool {
	return accumulated >= QuorumThreshold(s.total)
}
