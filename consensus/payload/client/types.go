package client

import (
	"time"

	"github.com/FinnTew/gravity-sdk/consensus/hotstuff/model"
)

// TransactionEntry is a single transaction batched into a Payload. Its
// internal shape (encoding, validity) is out of this module's scope
// (spec §1); only its identity hash matters for exclusion filtering.
type TransactionEntry struct {
	Hash  model.Hash
	Bytes []byte
}

// Payload is a sequence of transaction entries returned by a payload
// provider for inclusion in a proposal.
type Payload []TransactionEntry

// IsEmpty reports whether the payload carries no entries.
func (p Payload) IsEmpty() bool {
	return len(p) == 0
}

// PayloadFilter identifies payloads already in flight or committed, so the
// provider can exclude them from the next batch. Grounded on the teacher's
// flow.IdentityFilter predicate-function convention
// (model/flow/filter/identity.go), adapted to a hash set since exclusion
// here is membership, not a role/address predicate.
type PayloadFilter map[model.Hash]struct{}

// NewPayloadFilter builds a PayloadFilter excluding the given hashes.
func NewPayloadFilter(hashes ...model.Hash) PayloadFilter {
	f := make(PayloadFilter, len(hashes))
	for _, h := range hashes {
		f[h] = struct{}{}
	}
	return f
}

// Excludes reports whether h is in the filter.
func (f PayloadFilter) Excludes(h model.Hash) bool {
	_, ok := f[h]
	return ok
}

// GetPayloadRequest is issued to the payload provider. Reply carries the
// one-shot reply channel the provider answers on (spec §4.4, §6).
type GetPayloadRequest struct {
	MaxItems                   uint64
	MaxItemsAfterFiltering     uint64
	SoftMaxItemsAfterFiltering uint64
	MaxBytes                   uint64
	MaxInlineItems             uint64
	MaxInlineBytes             uint64
	ReturnNonFull              bool
	Exclude                    PayloadFilter
	BlockTimestamp             time.Duration
	Reply                      chan<- GetPayloadResponse
}

// GetPayloadResponse is the payload provider's answer to a
// GetPayloadRequest.
type GetPayloadResponse struct {
	Payload Payload
}

// PullRequest bundles the per-call inputs to Client.Pull (spec §4.4).
type PullRequest struct {
	MaxPollTime time.Duration

	MaxItems                   uint64
	MaxItemsAfterFiltering     uint64
	SoftMaxItemsAfterFiltering uint64
	MaxBytes                   uint64
	MaxInlineItems             uint64
	MaxInlineBytes             uint64

	Exclude      PayloadFilter
	WaitCallback func()

	PendingOrdering           bool
	PendingUncommittedBlocks  int
	RecentMaxFillFraction     float32
	BlockTimestamp            time.Duration
}

// BackpressureConfig enumerates the wait-for-full-blocks heuristic
// parameters (spec §9's "back-pressure configuration").
type BackpressureConfig struct {
	FillThreshold          float32
	PendingBlockThreshold  int
	PullTimeoutMS          uint64
	RetrySleep             time.Duration
}

// DefaultRetrySleep is the fixed small interval between empty-payload
// retries (spec §4.4, §9: "retry_sleep_ms = 30").
const DefaultRetrySleep = 30 * time.Millisecond
