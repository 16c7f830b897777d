// Package signature declares the signature-aggregation collaborator the
// Pending Votes Aggregator uses to fold per-voter signatures into the
// single AggSig a QuorumCert/TimeoutCert carries. The actual cryptographic
// scheme (BLS, threshold, or otherwise) is out of this module's scope
// (spec §1); this package only declares the contract plus a deterministic
// in-memory implementation for tests and the mock driver, grounded on
// committee.StaticVerifier's "pluggable, deterministic, cryptography
// deferred to the caller" shape.
package signature

import (
	"encoding/binary"
	"sort"

	"github.com/FinnTew/gravity-sdk/consensus/hotstuff/model"
)

// Aggregator folds a set of per-voter signatures into one aggregate
// signature, in a stable, voter-ID-sorted order so that aggregation is
// deterministic regardless of the order in which votes arrived.
type Aggregator interface {
	Aggregate(signatures map[model.VoterID]model.Signature) model.Signature
}

// ConcatAggregator aggregates by concatenating each signer's raw signature
// bytes, sorted by voter ID. It performs no cryptography: it exists so the
// round-management core can always populate QuorumCert/TimeoutCert.AggSig
// with something a real Aggregator implementation's output format could
// plausibly replace, and so tests can assert on aggregation membership
// without a real signature scheme.
type ConcatAggregator struct{}

var _ Aggregator = ConcatAggregator{}

func (ConcatAggregator) Aggregate(signatures map[model.VoterID]model.Signature) model.Signature {
	voters := make([]model.VoterID, 0, len(signatures))
	for v := range signatures {
		voters = append(voters, v)
	}
	sort.Slice(voters, func(i, j int) bool {
		for k := 0; k < len(voters[i]); k++ {
			if voters[i][k] != voters[j][k] {
				return voters[i][k] < voters[j][k]
			}
		}
		return false
	})

	var out model.Signature
	var lenBuf [4]byte
	for _, v := range voters {
		sig := signatures[v]
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(sig)))
		out = append(out, lenBuf[:]...)
		out = append(out, sig...)
	}
	return out
}
