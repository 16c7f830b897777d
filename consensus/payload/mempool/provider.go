// Package mempool provides a small in-process payload provider used by
// tests and cmd/mockdriver to exercise the payload-pull client end to end.
// The transaction mempool itself is out of this module's scope (spec §1);
// this is deliberately a test/demo double, grounded in texture on
// original_source/aptos-core/mempool/src/tests/common.rs's deterministic
// transaction generator.
package mempool

import (
	"context"
	"sync"

	"github.com/FinnTew/gravity-sdk/consensus/hotstuff/model"
	"github.com/FinnTew/gravity-sdk/consensus/payload/client"
)

// Provider answers GetPayloadRequests from an in-memory queue of pending
// transaction entries, applying the caller's exclusion filter and size caps
// (enough to exercise the client's back-pressure paths, not a faithful
// mempool implementation). It never waits to fill a block: every request
// gets whatever is available up to the caps, so ReturnNonFull does not
// change what is returned.
type Provider struct {
	mu      sync.Mutex
	pending []client.TransactionEntry

	requestCh chan client.GetPayloadRequest
	done      chan struct{}
}

// NewProvider starts the provider's serving goroutine, listening on
// requestCh for GetPayloadRequest messages.
func NewProvider(requestCh chan client.GetPayloadRequest) *Provider {
	p := &Provider{
		requestCh: requestCh,
		done:      make(chan struct{}),
	}
	go p.serve()
	return p
}

// Submit adds a transaction entry to the pending queue.
func (p *Provider) Submit(entry client.TransactionEntry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending = append(p.pending, entry)
}

// Stop halts the serving goroutine.
func (p *Provider) Stop() {
	close(p.done)
}

func (p *Provider) serve() {
	for {
		select {
		case <-p.done:
			return
		case req := <-p.requestCh:
			req.Reply <- client.GetPayloadResponse{Payload: p.draw(req)}
		}
	}
}

func (p *Provider) draw(req client.GetPayloadRequest) client.Payload {
	p.mu.Lock()
	defer p.mu.Unlock()

	maxItems := req.MaxItemsAfterFiltering
	if maxItems == 0 || maxItems > req.MaxItems {
		maxItems = req.MaxItems
	}

	var out client.Payload
	var remaining []client.TransactionEntry
	var bytes uint64
	for _, entry := range p.pending {
		if req.Exclude.Excludes(entry.Hash) {
			remaining = append(remaining, entry)
			continue
		}
		if uint64(len(out)) >= maxItems {
			remaining = append(remaining, entry)
			continue
		}
		if req.MaxBytes != 0 && bytes+uint64(len(entry.Bytes)) > req.MaxBytes {
			remaining = append(remaining, entry)
			continue
		}
		out = append(out, entry)
		bytes += uint64(len(entry.Bytes))
	}
	p.pending = remaining
	return out
}

// RequestPayload is a synchronous convenience wrapper around the
// channel-based protocol, useful when a caller wants a direct call rather
// than building the reply channel itself.
func RequestPayload(ctx context.Context, requestCh chan<- client.GetPayloadRequest, req client.GetPayloadRequest) (client.Payload, error) {
	reply := make(chan client.GetPayloadResponse, 1)
	req.Reply = reply
	select {
	case requestCh <- req:
	case <-ctx.Done():
		return nil, model.ErrCouldNotGetData
	}
	select {
	case resp := <-reply:
		return resp.Payload, nil
	case <-ctx.Done():
		return nil, model.ErrCouldNotGetData
	}
}
