// Package tracker provides concurrency-safe observation points onto the
// newest certificates RoundState has seen, for goroutines (metrics
// exporters, RPC handlers) that must not share RoundState's single-owner
// mutation path but still want a cheap, lock-free read of its latest
// certificates.
package tracker

import (
	"unsafe"

	"go.uber.org/atomic"

	"github.com/FinnTew/gravity-sdk/consensus/hotstuff/model"
)

// NewestQCTracker keeps track of the highest-round QuorumCert observed, in
// a concurrency-safe way.
type NewestQCTracker struct {
	newestQC *atomic.UnsafePointer
}

func NewNewestQCTracker() *NewestQCTracker {
	return &NewestQCTracker{
		newestQC: atomic.NewUnsafePointer(unsafe.Pointer(nil)),
	}
}

// Track updates the tracked QC if qc's round is newer than what is
// currently tracked. Returns true if qc was installed. Concurrency safe.
func (t *NewestQCTracker) Track(qc *model.QuorumCert) bool {
	for {
		newest := t.NewestQC()
		if newest != nil && newest.Round >= qc.Round {
			return false
		}
		if t.newestQC.CAS(unsafe.Pointer(newest), unsafe.Pointer(qc)) {
			return true
		}
	}
}

// NewestQC returns the newest tracked QuorumCert, or nil if none has been
// tracked yet. Concurrency safe.
func (t *NewestQCTracker) NewestQC() *model.QuorumCert {
	return (*model.QuorumCert)(t.newestQC.Load())
}

// NewestTCTracker keeps track of the highest-round TimeoutCert observed, in
// a concurrency-safe way. Mirrors NewestQCTracker; kept as a distinct type
// since QC and TC races are tracked independently by callers.
type NewestTCTracker struct {
	newestTC *atomic.UnsafePointer
}

func NewNewestTCTracker() *NewestTCTracker {
	return &NewestTCTracker{
		newestTC: atomic.NewUnsafePointer(unsafe.Pointer(nil)),
	}
}

func (t *NewestTCTracker) Track(tc *model.TimeoutCert) bool {
	for {
		newest := t.NewestTC()
		if newest != nil && newest.Round >= tc.Round {
			return false
		}
		if t.newestTC.CAS(unsafe.Pointer(newest), unsafe.Pointer(tc)) {
			return true
		}
	}
}

func (t *NewestTCTracker) NewestTC() *model.TimeoutCert {
	return (*model.TimeoutCert)(t.newestTC.Load())
}
