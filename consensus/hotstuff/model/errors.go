package model

import (
	"errors"
	"fmt"
)

// ErrCouldNotGetData is returned by the payload-pull client when the
// payload provider does not respond within pull_timeout_ms, or its reply
// channel is closed.
var ErrCouldNotGetData = errors.New("could not get payload data in time")

// ErrInternalFailure wraps an injected or lower-layer failure surfaced
// through the fault-injection hook.
var ErrInternalFailure = errors.New("internal failure")

// InvalidVoteError indicates a vote failed structural or cryptographic
// validation. It is classified, never escalated (spec §7).
type InvalidVoteError struct {
	Vote   *Vote
	Reason string
}

func (e *InvalidVoteError) Error() string {
	return fmt.Sprintf("invalid vote from %s: %s", e.Vote.VoterID, e.Reason)
}

// NewInvalidVoteErrorf builds an InvalidVoteError with a formatted reason.
func NewInvalidVoteErrorf(vote *Vote, format string, args ...interface{}) error {
	return &InvalidVoteError{Vote: vote, Reason: fmt.Sprintf(format, args...)}
}

// IsInvalidVoteError reports whether err is (or wraps) an InvalidVoteError.
func IsInvalidVoteError(err error) bool {
	var e *InvalidVoteError
	return errors.As(err, &e)
}

// EquivocationError is the proof carried by a VoteReceptionResult when a
// voter signs two conflicting vote-datas at the same round.
type EquivocationError struct {
	Voter          VoterID
	Round          Round
	FirstVote      VoteData
	ConflictingVote VoteData
}

func (e *EquivocationError) Error() string {
	return fmt.Sprintf("equivocation by voter %s at round %d", e.Voter, e.Round)
}
