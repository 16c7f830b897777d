package model

import (
	"encoding/binary"
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Hash is a content hash identifying a block, vote, or other hashable
// consensus artifact. Opaque to this module apart from its use as a map
// key for deduplication and aggregation.
type Hash [32]byte

// String renders the hash as hex, used in log fields.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether h is the zero hash (unset).
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// VoterID identifies a validator casting a vote.
type VoterID [32]byte

func (v VoterID) String() string {
	return hex.EncodeToString(v[:])
}

// HashVoteData derives the content hash of a VoteData, used to detect
// duplicate votes (same voter, same vote-data) versus equivocation (same
// voter, differing vote-data) at a round.
func HashVoteData(vd VoteData) Hash {
	h, _ := blake2b.New256(nil)
	var roundBuf [8]byte
	binary.BigEndian.PutUint64(roundBuf[:], uint64(vd.ProposedRound))
	h.Write(roundBuf[:])
	h.Write(vd.ProposedBlockHash[:])
	h.Write(vd.ParentBlockHash[:])
	var parentRoundBuf [8]byte
	binary.BigEndian.PutUint64(parentRoundBuf[:], uint64(vd.ParentRound))
	h.Write(parentRoundBuf[:])
	if vd.IsTimeout {
		h.Write([]byte{1})
	} else {
		h.Write([]byte{0})
	}
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}
