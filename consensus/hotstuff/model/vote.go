package model

// Signature is an opaque cryptographic signature over a VoteData. Signature
// scheme and verification live outside this module's scope (spec §1).
type Signature []byte

// VoteData is the content a vote commits to: a proposed block at a round,
// its parent, and whether the vote is a timeout vote (timeout votes are not
// block-specific and carry a zero ProposedBlockHash).
type VoteData struct {
	ProposedBlockHash Hash
	ProposedRound     Round
	ParentBlockHash   Hash
	ParentRound       Round
	IsTimeout         bool
}

// Vote is a single validator's signed statement about a VoteData.
type Vote struct {
	VoterID   VoterID
	Signature Signature
	VoteData  VoteData
}

// IsTimeout reports whether this vote is timeout-flavored.
func (v *Vote) IsTimeout() bool {
	return v.VoteData.IsTimeout
}

// ID returns the content hash of the vote's data, used for dedup and
// equivocation detection.
func (v *Vote) ID() Hash {
	return HashVoteData(v.VoteData)
}
